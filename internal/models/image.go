package models

import (
	"fmt"
	"time"
)

// Image is one stored asset: an original upload when ThumbnailSize is
// nil, or a derived square thumbnail of that side length otherwise.
// Records are never updated in place after creation.
type Image struct {
	ID            string
	OwnerID       string
	ThumbnailSize *int
	Bucket        string
	ObjectKey     string
	Width         int
	Height        int
	Slug          string
	ExpireSeconds *int
	CreatedAt     time.Time
}

func (i Image) IsOriginal() bool {
	return i.ThumbnailSize == nil
}

// Dimensions renders the actual pixel size, e.g. "720x619".
func (i Image) Dimensions() string {
	return fmt.Sprintf("%dx%d", i.Width, i.Height)
}

// Expired reports whether the asset's time-limited link has lapsed at
// the given instant. Assets without ExpireSeconds never expire. The
// boundary instant CreatedAt+TTL itself is still valid; only strictly
// later instants are expired. Callers inject now so the check stays
// deterministic under test.
func (i Image) Expired(now time.Time) bool {
	if i.ExpireSeconds == nil {
		return false
	}
	deadline := i.CreatedAt.Add(time.Duration(*i.ExpireSeconds) * time.Second)
	return now.After(deadline)
}
