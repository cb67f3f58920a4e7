package server

import "net/http"

type feedbackRequest struct {
	MemoryID   int    `json:"memory_id"`
	Text       string `json:"feedback_text,omitempty"`
	Rating     *int   `json:"rating,omitempty"`
	IsFavorite bool   `json:"is_favorite,omitempty"`
}

func (s *Server) handleFeedbackUpsert(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	feedback, err := s.feedback.UpsertFeedback(req.MemoryID, req.Rating, req.Text, req.IsFavorite)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, feedback)
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	favorites, err := s.feedback.SelectFavorites()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, favorites)
}
