package colormatch

import "math"

// Similarity is the cosine similarity of two colors; 0 when either is black
func Similarity(a, b Color) float64 {
	var dot, na, nb float64
	for i := 0; i < 3; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
