package embeddings

import "math"

// Normalize scales a vector to unit length in place and returns it, so that
// cosine similarity between normalized vectors reduces to a dot product.
// Zero vectors are returned unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}

	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return v
}
