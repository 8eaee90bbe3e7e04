package domain

import "time"

// ClaimTimelineEvent is an immutable audit entry on a claim's timeline.
type ClaimTimelineEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	Actor       Actor     `json:"actor"`
}
