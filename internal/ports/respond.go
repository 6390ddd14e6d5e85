package ports

import (
	"encoding/json"
	"net/http"

	"github.com/arbadacarbaYK/sociostr/internal/logging"
)

func writeJSON(w http.ResponseWriter, r *http.Request, statusCode int, payload any) {
	marshalled, err := json.Marshal(payload)
	if err != nil {
		logging.FromContext(r.Context()).Error("failed to marshal response", "error", err.Error())
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(marshalled)
}

func writeJSONError(w http.ResponseWriter, r *http.Request, statusCode int, message string) {
	writeJSON(w, r, statusCode, struct {
		Error string `json:"error"`
	}{Error: message})
}
