package shortcode

import (
	"context"
	"fmt"
	"math/rand/v2"
)

// DefaultSeedJitter bounds the random offset added to sequential seeds.
const DefaultSeedJitter = 100

// SeedSource produces the numeric hint encoded into sequential short codes.
// Seeds are not required to be unique or monotonic.
type SeedSource interface {
	Seed(ctx context.Context) (uint64, error)
}

// SeedFunc adapts a plain function to SeedSource.
type SeedFunc func(ctx context.Context) (uint64, error)

func (f SeedFunc) Seed(ctx context.Context) (uint64, error) {
	return f(ctx)
}

// Counter reports an approximate number of stored mappings.
type Counter interface {
	Count(ctx context.Context) (int64, error)
}

// CountSeedSource derives seeds as count + 1 + jitter, jitter in [0, DefaultSeedJitter).
type CountSeedSource struct {
	counter Counter
	jitter  func(n int) int
}

func NewCountSeedSource(counter Counter) *CountSeedSource {
	return &CountSeedSource{
		counter: counter,
		jitter:  rand.IntN,
	}
}

func (s *CountSeedSource) Seed(ctx context.Context) (uint64, error) {
	count, err := s.counter.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count mappings: %w", err)
	}
	if count < 0 {
		count = 0
	}

	return uint64(count) + 1 + uint64(s.jitter(DefaultSeedJitter)), nil
}
