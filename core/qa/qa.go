// Package qa implements the LLM-bound stages of the query pipeline:
// chunk relevance classification, subquestion planning, cited-answer
// synthesis, and answer verification. Prompts are grounded on the
// distilled system's qa_service.py, re-expressed for the Go LLM client
// interface.
package qa

// Chunk is the minimal numbered-context unit every stage in this
// package prompts over. Index is the chunk's 1-based citation number;
// Reference is the human-readable source descriptor a citation resolves
// to in the final reference list.
type Chunk struct {
	Index     int
	Text      string
	Reference string
}

// NoEvidenceAnswer is returned verbatim, without invoking the LLM, when
// Answer has no retrieved chunks to ground a response in.
const NoEvidenceAnswer = "I don't have enough information in the available documents to answer that question."
