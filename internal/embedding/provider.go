package embedding

import "context"

// Provider turns text into a fixed-dimension vector. Implementations must
// return the zero vector for empty or whitespace-only input instead of
// erroring, and every returned vector must have exactly Dimension() entries.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Dimension() int
}

// Zero returns the zero vector of the given dimensionality.
func Zero(dim int) []float64 {
	return make([]float64, dim)
}
