package model

import "time"

// Feedback is bound one-to-one to a MemoryEntry. A Feedback with
// HasThread = true owns an ordered sequence of ThreadMessage records.
type Feedback struct {
	ID          int       `json:"id"`
	MemoryID    int       `json:"memory_id"`
	Rating      *int      `json:"rating,omitempty"` // 1..5
	Text        string    `json:"text,omitempty"`
	Favorite    bool      `json:"favorite"`
	HasThread   bool      `json:"has_thread"`
	ThreadTitle string    `json:"thread_title,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
