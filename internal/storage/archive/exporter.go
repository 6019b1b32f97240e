// internal/storage/archive/exporter.go
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mvillard/patrimoine/internal/core"
)

// Exporter writes pruned price records to a cold storage backend as
// dated JSON snapshots.
type Exporter struct {
	backend Backend
}

// NewExporter creates an exporter on top of the given backend.
func NewExporter(backend Backend) *Exporter {
	return &Exporter{backend: backend}
}

type exportedRecord struct {
	AssetID    string    `json:"assetId"`
	Price      float64   `json:"price"`
	Source     string    `json:"source"`
	RecordedAt time.Time `json:"recordedAt"`
}

type exportSnapshot struct {
	ExportedAt time.Time        `json:"exportedAt"`
	Cutoff     time.Time        `json:"cutoff"`
	Records    []exportedRecord `json:"records"`
}

// Export serializes the records into one snapshot file under
// history/<year>/<month>/. Empty record sets are skipped.
func (e *Exporter) Export(ctx context.Context, cutoff time.Time, records []core.PriceRecord) (string, error) {
	if len(records) == 0 {
		return "", nil
	}

	snap := exportSnapshot{
		ExportedAt: time.Now().UTC(),
		Cutoff:     cutoff.UTC(),
		Records:    make([]exportedRecord, 0, len(records)),
	}
	for _, rec := range records {
		snap.Records = append(snap.Records, exportedRecord{
			AssetID:    rec.AssetID,
			Price:      rec.Price,
			Source:     rec.Source,
			RecordedAt: rec.RecordedAt.UTC(),
		})
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding snapshot: %w", err)
	}

	path := fmt.Sprintf("history/%s/prune-%s.json",
		snap.ExportedAt.Format("2006/01"),
		snap.ExportedAt.Format("20060102T150405Z"))
	if err := e.backend.Write(ctx, path, data); err != nil {
		return "", fmt.Errorf("writing snapshot: %w", err)
	}
	return path, nil
}
