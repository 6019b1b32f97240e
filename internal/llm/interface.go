package llm

import "context"

// Provider is a hosted chat model the predictor can consult for a
// price estimate. Implementations live in the sibling packages and are
// selected through the factory.
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// ChatRequest is a single prompt exchange. JSONMode asks the model for
// a machine-parseable answer; the predictor relies on it.
type ChatRequest struct {
	SystemPrompt string
	Messages     []Message
	MaxTokens    int
	Temperature  float64
	JSONMode     bool
}

// Message is one turn of the conversation, role "user" or "assistant".
type Message struct {
	Role    string
	Content string
}

// ChatResponse carries the model output and its token accounting.
type ChatResponse struct {
	Content      string
	Usage        Usage
	FinishReason string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}
