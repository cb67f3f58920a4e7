package server

import (
	"fmt"
	"net/http"

	"github.com/siherrmann/ragcore/helper"
	"github.com/siherrmann/ragcore/model"
)

type queryRequest struct {
	Query             string `json:"query"`
	MaxResults        *int   `json:"max_results,omitempty"`
	UseMemory         *bool  `json:"use_memory,omitempty"`
	UseAmplification  *bool  `json:"use_amplification,omitempty"`
	UseSmartSelection *bool  `json:"use_smart_selection,omitempty"`
}

// options validates and builds QueryOptions from the request body. A
// present max_results must be positive; 0 or negative is rejected rather
// than silently falling back to the default, per §8's boundary rules.
func (req queryRequest) options() (model.QueryOptions, error) {
	opts := model.DefaultQueryOptions()
	if req.MaxResults != nil {
		if *req.MaxResults <= 0 {
			return opts, helper.NewKindError("query", helper.KindBadInput, fmt.Errorf("max_results must be positive"))
		}
		opts.MaxResults = *req.MaxResults
	}
	if req.UseMemory != nil {
		opts.UseMemory = *req.UseMemory
	}
	if req.UseAmplification != nil {
		opts.UseAmplification = *req.UseAmplification
	}
	if req.UseSmartSelection != nil {
		opts.UseSmartSelection = *req.UseSmartSelection
	}
	return opts, nil
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	opts, err := req.options()
	if err != nil {
		writeError(w, err)
		return
	}
	resp, err := s.orchestrator.Answer(r.Context(), req.Query, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleQuerySimple runs the pipeline with classification, amplification,
// and verification all switched off, per §6's documented shortcut.
func (s *Server) handleQuerySimple(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	opts, err := req.options()
	if err != nil {
		writeError(w, err)
		return
	}
	opts.UseAmplification = false
	opts.UseSmartSelection = false
	opts.UseVerification = false

	resp, err := s.orchestrator.Answer(r.Context(), req.Query, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

type classifyChunksRequest struct {
	Query    string `json:"query"`
	ChunkIDs []int  `json:"chunk_ids"`
}

type chunkRelevance struct {
	ChunkID  int  `json:"chunk_id"`
	Relevant bool `json:"relevant"`
}

func (s *Server) handleClassifyChunks(w http.ResponseWriter, r *http.Request) {
	var req classifyChunksRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	relevant, err := s.orchestrator.ClassifyChunks(r.Context(), req.Query, req.ChunkIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]chunkRelevance, len(req.ChunkIDs))
	for i, id := range req.ChunkIDs {
		out[i] = chunkRelevance{ChunkID: id, Relevant: relevant[i]}
	}
	writeJSON(w, http.StatusOK, out)
}

type generateSubquestionsRequest struct {
	Query   string `json:"query"`
	Context string `json:"context,omitempty"`
}

func (s *Server) handleGenerateSubquestions(w http.ResponseWriter, r *http.Request) {
	var req generateSubquestionsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.orchestrator.GenerateSubquestions(r.Context(), req.Query, req.Context))
}

type verifyAnswerRequest struct {
	Query   string `json:"query"`
	Answer  string `json:"answer"`
	Context string `json:"context"`
}

func (s *Server) handleVerifyAnswer(w http.ResponseWriter, r *http.Request) {
	var req verifyAnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	score, err := s.orchestrator.VerifyAnswer(r.Context(), req.Query, req.Answer, req.Context)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]float64{"score": score})
}
