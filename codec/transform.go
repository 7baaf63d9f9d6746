package codec

// Delta returns [x0, x1-x0, x2-x1, ...] for the given sequence.
func Delta(values []int64) []int64 {
	out := make([]int64, len(values))
	if len(values) == 0 {
		return out
	}

	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i] - values[i-1]
	}

	return out
}

// UndoDelta inverts Delta, returning the original sequence in a new slice.
func UndoDelta(deltas []int64) []int64 {
	out := make([]int64, len(deltas))
	if len(deltas) == 0 {
		return out
	}

	out[0] = deltas[0]
	for i := 1; i < len(deltas); i++ {
		out[i] = out[i-1] + deltas[i]
	}

	return out
}

// DeltaOfDelta returns [x0, x1-x0, (x2-x1)-(x1-x0), ...].
func DeltaOfDelta(values []int64) []int64 {
	out := make([]int64, len(values))
	if len(values) == 0 {
		return out
	}

	out[0] = values[0]
	if len(values) == 1 {
		return out
	}

	prevDelta := values[1] - values[0]
	out[1] = prevDelta

	for i := 2; i < len(values); i++ {
		delta := values[i] - values[i-1]
		out[i] = delta - prevDelta
		prevDelta = delta
	}

	return out
}

// UndoDeltaOfDelta inverts DeltaOfDelta, returning the original sequence.
func UndoDeltaOfDelta(dods []int64) []int64 {
	out := make([]int64, len(dods))
	if len(dods) == 0 {
		return out
	}

	out[0] = dods[0]
	if len(dods) == 1 {
		return out
	}

	prevDelta := dods[1]
	out[1] = out[0] + prevDelta

	for i := 2; i < len(dods); i++ {
		delta := prevDelta + dods[i]
		out[i] = out[i-1] + delta
		prevDelta = delta
	}

	return out
}
