package predictor

import (
	"math"
	"testing"
)

func TestMovingAverage(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		n      int
		want   float64
	}{
		{"empty", nil, 7, 0},
		{"exact window", []float64{1, 2, 3}, 3, 2},
		{"takes last n", []float64{10, 10, 1, 2, 3}, 3, 2},
		{"shorter than window", []float64{4, 6}, 7, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := movingAverage(tt.prices, tt.n)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("movingAverage(%v, %d) = %f, want %f", tt.prices, tt.n, got, tt.want)
			}
		})
	}
}

func TestRelativeStrength(t *testing.T) {
	t.Run("short series is neutral", func(t *testing.T) {
		if got := relativeStrength([]float64{1, 2, 3}); got != 50 {
			t.Errorf("RSI = %f, want 50", got)
		}
	})

	t.Run("flat series is neutral", func(t *testing.T) {
		prices := make([]float64, 20)
		for i := range prices {
			prices[i] = 100
		}
		if got := relativeStrength(prices); got != 50 {
			t.Errorf("RSI = %f, want 50", got)
		}
	})

	t.Run("all gains saturate at 100", func(t *testing.T) {
		prices := make([]float64, 20)
		for i := range prices {
			prices[i] = float64(i + 1)
		}
		if got := relativeStrength(prices); got != 100 {
			t.Errorf("RSI = %f, want 100", got)
		}
	})

	t.Run("all losses near zero", func(t *testing.T) {
		prices := make([]float64, 20)
		for i := range prices {
			prices[i] = float64(40 - i)
		}
		if got := relativeStrength(prices); got != 0 {
			t.Errorf("RSI = %f, want 0", got)
		}
	})

	t.Run("balanced moves near 50", func(t *testing.T) {
		prices := make([]float64, 0, 21)
		p := 100.0
		for i := 0; i < 21; i++ {
			prices = append(prices, p)
			if i%2 == 0 {
				p += 2
			} else {
				p -= 2
			}
		}
		got := relativeStrength(prices)
		if got < 40 || got > 60 {
			t.Errorf("RSI = %f, want near 50", got)
		}
	})
}

func TestVolatility(t *testing.T) {
	t.Run("flat series is zero", func(t *testing.T) {
		if got := volatility([]float64{100, 100, 100, 100}); got != 0 {
			t.Errorf("volatility = %f, want 0", got)
		}
	})

	t.Run("single point is zero", func(t *testing.T) {
		if got := volatility([]float64{100}); got != 0 {
			t.Errorf("volatility = %f, want 0", got)
		}
	})

	t.Run("constant growth rate is zero", func(t *testing.T) {
		// Every daily return is exactly 10%.
		got := volatility([]float64{100, 110, 121, 133.1})
		if got > 1e-9 {
			t.Errorf("volatility = %f, want ~0", got)
		}
	})

	t.Run("varied returns positive", func(t *testing.T) {
		got := volatility([]float64{100, 120, 90, 130, 80})
		if got <= 0 {
			t.Errorf("volatility = %f, want > 0", got)
		}
	})
}

func TestComputeFactors_Trend(t *testing.T) {
	t.Run("uptrend positive", func(t *testing.T) {
		prices := make([]float64, 40)
		for i := range prices {
			prices[i] = 100 + float64(i)
		}
		f := ComputeFactors(prices)
		if f.Trend <= 0 {
			t.Errorf("Trend = %f, want > 0", f.Trend)
		}
		if f.MA7 <= f.MA30 {
			t.Errorf("MA7 = %f, MA30 = %f, want MA7 > MA30", f.MA7, f.MA30)
		}
	})

	t.Run("downtrend negative", func(t *testing.T) {
		prices := make([]float64, 40)
		for i := range prices {
			prices[i] = 200 - float64(i)
		}
		f := ComputeFactors(prices)
		if f.Trend >= 0 {
			t.Errorf("Trend = %f, want < 0", f.Trend)
		}
	})

	t.Run("flat trend zero", func(t *testing.T) {
		prices := make([]float64, 40)
		for i := range prices {
			prices[i] = 100
		}
		f := ComputeFactors(prices)
		if f.Trend != 0 {
			t.Errorf("Trend = %f, want 0", f.Trend)
		}
	})
}
