package models

import "time"

// AccountTier bundles the thumbnail and link privileges of an account.
// ThumbnailSizes keeps insertion order; derivation iterates it as stored.
type AccountTier struct {
	ID             string
	Name           string
	ThumbnailSizes []int
	KeepOriginal   bool
	TimedLinks     bool
	CreatedAt      time.Time
}
