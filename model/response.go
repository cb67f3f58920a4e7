package model

// ChunkHit is one piece of evidence returned alongside an answer.
type ChunkHit struct {
	ID         int     `json:"id"`
	Text       string  `json:"text"`
	Source     string  `json:"source,omitempty"`
	Similarity float64 `json:"similarity"`
}

// SubQuestionAnswer is one decomposed sub-question and its own answer,
// returned when the orchestrator fanned out via the subquestion planner.
type SubQuestionAnswer struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QueryResponse is the top-level result of the query pipeline (C11).
type QueryResponse struct {
	Query             string               `json:"query"`
	Answer            string               `json:"answer"`
	Chunks            []*ChunkHit          `json:"chunks"`
	Entities          []*EntityHit         `json:"entities"`
	Communities       []*CommunityHit      `json:"communities"`
	References        []string             `json:"references"`
	Subquestions      []*SubQuestionAnswer `json:"subquestions,omitempty"`
	VerificationScore *float64             `json:"verification_score"`
	FromMemory        bool                 `json:"from_memory"`
	MemoryID          int                  `json:"memory_id,omitempty"`
	ProcessingTimeMS  int64                `json:"processing_time"`
}
