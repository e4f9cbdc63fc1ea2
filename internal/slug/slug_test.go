package slug

import (
	"context"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seeded(a, b uint64) *Allocator {
	return NewAllocator(rand.New(rand.NewPCG(a, b)))
}

func never(ctx context.Context, s string) (bool, error) {
	return false, nil
}

func TestAllocateLengthAndAlphabet(t *testing.T) {
	alloc := seeded(1, 2)

	s, err := alloc.Allocate(context.Background(), never)
	require.NoError(t, err)
	require.Len(t, s, Length)
	for _, r := range s {
		assert.Contains(t, alphabet, string(r))
	}
}

func TestAllocateSequentialUniqueness(t *testing.T) {
	alloc := seeded(7, 11)
	seen := make(map[string]struct{})

	for i := 0; i < 1000; i++ {
		s, err := alloc.Allocate(context.Background(), never)
		require.NoError(t, err)
		_, dup := seen[s]
		require.False(t, dup, "duplicate slug %q", s)
		seen[s] = struct{}{}
	}
}

func TestAllocateRetriesOnCollision(t *testing.T) {
	alloc := seeded(3, 4)

	calls := 0
	exists := func(ctx context.Context, s string) (bool, error) {
		calls++
		return calls <= 3, nil // first three candidates collide
	}

	s, err := alloc.Allocate(context.Background(), exists)
	require.NoError(t, err)
	assert.Len(t, s, Length)
	assert.Equal(t, 4, calls)
}

func TestAllocateExhaustsAfterTenAttempts(t *testing.T) {
	alloc := seeded(5, 6)

	calls := 0
	exists := func(ctx context.Context, s string) (bool, error) {
		calls++
		return true, nil
	}

	_, err := alloc.Allocate(context.Background(), exists)
	require.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, 10, calls)
}

func TestAllocateDeterministicUnderSeed(t *testing.T) {
	a := seeded(42, 42)
	b := seeded(42, 42)

	s1, err := a.Allocate(context.Background(), never)
	require.NoError(t, err)
	s2, err := b.Allocate(context.Background(), never)
	require.NoError(t, err)

	assert.Equal(t, s1, s2)
}
