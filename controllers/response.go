package controllers

import (
	"encoding/json"
	"net/http"
)

// apiResponse is the JSON envelope used across the storefront endpoints.
type apiResponse struct {
	Message string      `json:"message"`
	Error   bool        `json:"error"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, apiResponse{Message: message, Error: true, Success: false})
}

func writeSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	writeJSON(w, status, apiResponse{Message: message, Error: false, Success: true, Data: data})
}
