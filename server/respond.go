package server

import (
	"encoding/json"
	"net/http"

	"github.com/siherrmann/ragcore/helper"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps err's Kind to an HTTP status via the single
// errorStatus table (helper.Status) and writes a {"error": message} body.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, helper.Status(err), map[string]string{"error": err.Error()})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body: " + err.Error()})
		return false
	}
	return true
}
