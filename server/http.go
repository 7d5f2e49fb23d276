package server

import (
	"encoding/json"
	"net/http"
)

type errorResponse struct {
	Error string `json:"error"`
}

// respond writes data as JSON with the given status. Errors are wrapped in an
// errorResponse. Nothing is written for nil data or a 204.
func respond(w http.ResponseWriter, data interface{}, httpCode int) {
	var body interface{} = data
	if err, ok := data.(error); ok {
		body = errorResponse{Error: err.Error()}
	}

	if body == nil || httpCode == http.StatusNoContent {
		w.WriteHeader(httpCode)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpCode)

	_ = json.NewEncoder(w).Encode(body)
}
