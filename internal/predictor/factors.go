package predictor

import "math"

// Factors are the technical indicators derived from a price series.
type Factors struct {
	MA7        float64
	MA30       float64
	RSI        float64
	Volatility float64
	Trend      float64
}

// movingAverage returns the mean of the last n values, or of the whole
// series when it is shorter than n.
func movingAverage(prices []float64, n int) float64 {
	if len(prices) == 0 {
		return 0
	}
	if n > len(prices) {
		n = len(prices)
	}
	var sum float64
	for _, p := range prices[len(prices)-n:] {
		sum += p
	}
	return sum / float64(n)
}

// relativeStrength computes a 14-period RSI. Series too short for one
// full period yield the neutral value 50.
func relativeStrength(prices []float64) float64 {
	const period = 14
	if len(prices) < period+1 {
		return 50
	}

	var gains, losses float64
	start := len(prices) - period
	for i := start; i < len(prices); i++ {
		delta := prices[i] - prices[i-1]
		if delta > 0 {
			gains += delta
		} else {
			losses -= delta
		}
	}
	if losses == 0 {
		if gains == 0 {
			return 50
		}
		return 100
	}
	rs := gains / losses
	return 100 - 100/(1+rs)
}

// volatility is the standard deviation of simple daily returns.
func volatility(prices []float64) float64 {
	if len(prices) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}
	if len(returns) == 0 {
		return 0
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))
	return math.Sqrt(variance)
}

// ComputeFactors derives the indicator set from a chronologically
// ordered price series.
func ComputeFactors(prices []float64) Factors {
	f := Factors{
		MA7:        movingAverage(prices, 7),
		MA30:       movingAverage(prices, 30),
		RSI:        relativeStrength(prices),
		Volatility: volatility(prices),
	}
	if f.MA30 != 0 {
		f.Trend = (f.MA7 - f.MA30) / f.MA30
	}
	return f
}
