package server

import (
	"net/http"

	"github.com/siherrmann/ragcore/core/eval"
)

type evaluateRequest struct {
	Query       string   `json:"query"`
	Answer      string   `json:"answer"`
	Contexts    []string `json:"contexts"`
	GroundTruth string   `json:"ground_truth,omitempty"`
}

// handleEvaluate runs the answer-quality evaluator (C13). It is never
// invoked from /query and never affects that endpoint's latency.
func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	result := eval.Evaluate(r.Context(), s.llm, req.Query, req.Answer, req.Contexts)
	writeJSON(w, http.StatusOK, result)
}
