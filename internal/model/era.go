package model

import "time"

// Era is a named, ordered epoch of activity. Sometimes it marks a point
// where previous context was lost; in others, a significant change in the
// agents' runtime environment or an inflection point in their story.
// Eras group related context heaps together.
type Era struct {
	ID        int64     `json:"id,string"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// AnchorBounds is the [earliest, latest] temporal-anchor range covered by a
// set of messages. Nil fields mean no anchored message exists in the range.
type AnchorBounds struct {
	Earliest *int64 `json:"earliest,omitempty"`
	Latest   *int64 `json:"latest,omitempty"`
}
