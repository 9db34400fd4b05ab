package model

import "time"

// ThinkingEntity is a participant in the archive - human or AI.
// Entities are created lazily on first sighting of a new sender and are
// immutable once messages reference them.
type ThinkingEntity struct {
	Name      string    `json:"name"`
	IsHuman   bool      `json:"is_human"`
	CreatedAt time.Time `json:"created_at"`
}
