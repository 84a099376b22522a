package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/consultly/gateway/internal/breaker"
	"github.com/consultly/gateway/internal/email"
)

// emailRequest is the body of POST /api/v1/notifications/email.
type emailRequest struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
	TextBody string `json:"text_body"`
	Tag      string `json:"tag"`
}

// EmailHandler sends a transactional email through the breaker-guarded
// sender. An open circuit is a soft failure: the response says the send was
// skipped, it is never a 500.
func EmailHandler(sender *email.Sender) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req emailRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeDetail(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.To == "" || req.Subject == "" {
			writeDetail(w, http.StatusBadRequest, "Fields 'to' and 'subject' are required")
			return
		}

		err := sender.Send(r.Context(), email.Message{
			To:       req.To,
			Subject:  req.Subject,
			HTMLBody: req.HTMLBody,
			TextBody: req.TextBody,
			Tag:      req.Tag,
		})
		switch {
		case errors.Is(err, email.ErrDependencyUnavailable):
			AddError(r.Context(), err)
			writeJSON(w, http.StatusOK, map[string]any{
				"sent":   false,
				"reason": "email provider temporarily unavailable",
			})
		case err != nil:
			AddError(r.Context(), err)
			writeJSON(w, http.StatusOK, map[string]any{
				"sent":   false,
				"reason": "email delivery failed",
			})
		default:
			writeJSON(w, http.StatusOK, map[string]any{"sent": true})
		}
	}
}

// BreakerStatusHandler reports the state of the process's circuit breakers.
func BreakerStatusHandler(breakers ...*breaker.Breaker) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		statuses := make([]breaker.Status, 0, len(breakers))
		for _, b := range breakers {
			statuses = append(statuses, b.Status())
		}
		writeJSON(w, http.StatusOK, map[string]any{"breakers": statuses})
	}
}
