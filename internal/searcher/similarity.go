package searcher

import "math"

// CosineSimilarity returns dot(a,b)/(|a||b|), accumulated in float64 and narrowed
// to float32. It is 0 when either vector has zero norm. Callers must pass vectors
// of equal length.
func CosineSimilarity(a, b []float32) float32 {
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

type float interface {
	~float32 | ~float64
}

// compareDesc orders a before b when a is larger. NaN sorts after every number
// and two NaNs compare equal, so the order is total and stable sorts keep
// input order among ties.
func compareDesc[T float](a, b T) int {
	aNaN, bNaN := math.IsNaN(float64(a)), math.IsNaN(float64(b))
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}
