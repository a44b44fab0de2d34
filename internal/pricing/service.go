package pricing

import "math"

// Token cost math.
//
// Contract:
// - Prices are per 1K tokens.
// - Results are USD rounded to 6 decimals, matching api_logs.cost.
// - When only a total is known, 75% is priced as input and 25% as output.

const (
	estimateInputShare = 0.75
	costPrecision      = 1e6
)

// CostForTokens prices actual input and output token counts.
func CostForTokens(m Model, inputTokens, outputTokens int) float64 {
	if inputTokens < 0 {
		inputTokens = 0
	}
	if outputTokens < 0 {
		outputTokens = 0
	}
	cost := float64(inputTokens)/1000*m.InputPer1K + float64(outputTokens)/1000*m.OutputPer1K
	return roundCost(cost)
}

// EstimateCost prices a total token count using the 75/25 split.
func EstimateCost(m Model, totalTokens int) float64 {
	if totalTokens <= 0 {
		return 0
	}
	in := int(math.Round(float64(totalTokens) * estimateInputShare))
	return CostForTokens(m, in, totalTokens-in)
}

// Lookup finds id in c.
func Lookup(c Catalog, id string) (Model, error) {
	m, ok := c[id]
	if !ok {
		return Model{}, ErrUnknownModel
	}
	return m, nil
}

func roundCost(v float64) float64 {
	return math.Round(v*costPrecision) / costPrecision
}
