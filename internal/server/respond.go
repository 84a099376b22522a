package server

import (
	"encoding/json"
	"net/http"
)

// detailResponse is the JSON body for auth and tenant rejections.
// Only the reason is exposed; no stack traces or internal identifiers.
type detailResponse struct {
	Detail string `json:"detail"`
}

// rateLimitResponse is the JSON body for 429 rejections.
type rateLimitResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, detailResponse{Detail: detail})
}

func writeRateLimited(w http.ResponseWriter, message string, retryAfter int) {
	writeJSON(w, http.StatusTooManyRequests, rateLimitResponse{
		Error:      "Rate limit exceeded",
		Message:    message,
		RetryAfter: retryAfter,
	})
}
