package model

import "time"

// ThreadMessage is one turn in a follow-up dialog thread rooted in a
// Feedback row. Messages are append-only and ordered by id within a
// thread (monotonically increasing per thread).
type ThreadMessage struct {
	ID         int       `json:"id"`
	FeedbackID int       `json:"feedback_id"`
	Text       string    `json:"text"`
	IsUser     bool      `json:"is_user"`
	References []string  `json:"references,omitempty"`
	ChunkIDs   []int     `json:"chunk_ids,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
