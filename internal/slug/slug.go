// Package slug assigns short random public identifiers to stored images
// so URLs never expose internal record ids.
package slug

import (
	"context"
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
)

const (
	// Length of every generated slug.
	Length = 15

	alphabet    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxAttempts = 10
)

// ErrExhausted is returned when no unused slug was found within
// maxAttempts generations. With a 62^15 space this is not expected in
// practice; it fails the request, never the process.
var ErrExhausted = errors.New("slug: no unique slug found")

// ExistsFunc reports whether a slug is already in use.
type ExistsFunc func(ctx context.Context, slug string) (bool, error)

// Allocator draws random slugs from an injectable source, so tests can
// seed it and assert collision-retry behavior.
type Allocator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewAllocator wraps the given source. A nil source gets a PCG generator
// seeded from crypto/rand.
func NewAllocator(rnd *rand.Rand) *Allocator {
	if rnd == nil {
		var seed [16]byte
		if _, err := crand.Read(seed[:]); err != nil {
			panic(fmt.Sprintf("slug: seed entropy: %v", err))
		}
		rnd = rand.New(rand.NewPCG(
			binary.LittleEndian.Uint64(seed[:8]),
			binary.LittleEndian.Uint64(seed[8:]),
		))
	}
	return &Allocator{rnd: rnd}
}

// Allocate generates a slug and checks it against exists, regenerating
// on collision up to 10 total attempts before giving up with
// ErrExhausted.
func (a *Allocator) Allocate(ctx context.Context, exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate := a.generate()
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("slug existence check: %w", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrExhausted
}

func (a *Allocator) generate() string {
	a.mu.Lock()
	defer a.mu.Unlock()

	buf := make([]byte, Length)
	for i := range buf {
		buf[i] = alphabet[a.rnd.IntN(len(alphabet))]
	}
	return string(buf)
}
