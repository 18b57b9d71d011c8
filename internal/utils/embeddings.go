package utils

import (
	"math"
)

// dotProduct calculates the dot product over the shared prefix of two vectors.
// Vectors of different length are silently truncated to the shorter one.
func dotProduct(vec1, vec2 []float32) float64 {
	n := len(vec1)
	if len(vec2) < n {
		n = len(vec2)
	}
	var product float64
	for i := 0; i < n; i++ {
		product += float64(vec1[i]) * float64(vec2[i])
	}
	return product
}

// magnitude calculates the L2 norm (magnitude) of a vector.
func magnitude(vec []float32) float64 {
	var sumOfSquares float64
	for _, val := range vec {
		sumOfSquares += float64(val) * float64(val)
	}
	return math.Sqrt(sumOfSquares)
}

// CosineSimilarity calculates the cosine similarity between two vectors.
// A zero-magnitude (or empty) vector on either side yields 0, never NaN.
func CosineSimilarity(vec1, vec2 []float32) float32 {
	mag1 := magnitude(vec1)
	mag2 := magnitude(vec2)
	if mag1 == 0 || mag2 == 0 {
		return 0
	}
	return float32(dotProduct(vec1, vec2) / (mag1 * mag2))
}
