package server

import (
	"net/http"
	"strconv"
)

type threadCreateRequest struct {
	MemoryID    int    `json:"memory_id"`
	ThreadTitle string `json:"thread_title"`
}

func (s *Server) handleThreadCreate(w http.ResponseWriter, r *http.Request) {
	var req threadCreateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	feedback, err := s.threader.Create(req.MemoryID, req.ThreadTitle)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feedback)
}

func (s *Server) handleThreadsList(w http.ResponseWriter, r *http.Request) {
	threads, err := s.feedback.SelectThreads()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, threads)
}

type threadDetail struct {
	Feedback any `json:"feedback"`
	Messages any `json:"messages"`
}

func (s *Server) handleThreadGet(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid thread id"})
		return
	}
	feedback, err := s.feedback.SelectFeedback(id)
	if err != nil {
		writeError(w, err)
		return
	}
	messages, err := s.threader.List(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, threadDetail{Feedback: feedback, Messages: messages})
}

type threadMessageRequest struct {
	FeedbackID           int  `json:"feedback_id"`
	Message              string `json:"message"`
	EnhanceWithRetrieval *bool  `json:"enhance_with_retrieval,omitempty"`
	MaxResults           int    `json:"max_results,omitempty"`
}

func (s *Server) handleThreadMessage(w http.ResponseWriter, r *http.Request) {
	var req threadMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	enhance := true
	if req.EnhanceWithRetrieval != nil {
		enhance = *req.EnhanceWithRetrieval
	}
	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = 3
	}

	message, err := s.threader.Append(r.Context(), req.FeedbackID, req.Message, enhance, maxResults)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, message)
}
