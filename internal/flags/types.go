package flags

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("flag not found")

type Flag struct {
	Key       string    `json:"key"`
	Value     bool      `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PauseKeyFor names the runtime toggle that pauses merging for one feed
// category (e.g. "feed.migrated.paused").
func PauseKeyFor(category string) string {
	return "feed." + category + ".paused"
}
