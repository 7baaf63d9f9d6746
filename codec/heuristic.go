package codec

// linearFitRSquared fits y = a + b*x by ordinary least squares and returns
// the R² goodness-of-fit (0 = no linear relationship, 1 = perfect fit).
// Adapted from the teacher's blob-size estimator (regression/analyzer.go
// fitLinear/calculateRSquared) down to the single linear case the value
// stream's Delta-vs-DoD heuristic needs; see DESIGN.md.
func linearFitRSquared(y []float64) float64 {
	n := len(y)
	if n < 3 {
		return 0
	}

	x := make([]float64, n)
	var sumX, sumY, sumXY, sumX2 float64
	for i := range y {
		x[i] = float64(i)
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
	}

	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	denom := sumX2 - float64(n)*meanX*meanX
	if denom == 0 {
		return 0
	}

	b := (sumXY - float64(n)*meanX*meanY) / denom
	a := meanY - b*meanX

	var ssTot, ssRes float64
	for i := range y {
		predicted := a + b*x[i]
		ssRes += (y[i] - predicted) * (y[i] - predicted)
		ssTot += (y[i] - meanY) * (y[i] - meanY)
	}

	if ssTot == 0 {
		return 1
	}

	return 1 - ssRes/ssTot
}

// linearFitThreshold is the R² above which a value stream's first
// differences are considered "roughly linear", favoring DoD over Delta
// per SPEC_FULL.md §4.2 ("DoD selected when both neighboring deltas are
// roughly linear; otherwise Delta").
const linearFitThreshold = 0.8

// PreferDoD reports whether a "value" numeric field column (schema fields
// with codecStrategy=value, and the legacy price stream) should be
// normalized with delta-of-delta rather than plain delta before the inner
// codec trial, based on how linear its first differences are.
func PreferDoD(values []float64) bool {
	if len(values) < 3 {
		return false
	}

	deltas := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		deltas[i-1] = values[i] - values[i-1]
	}

	return linearFitRSquared(deltas) >= linearFitThreshold
}
