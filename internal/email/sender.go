// Package email sends transactional mail (quote and invoice notifications)
// through Postmark, with a circuit breaker between the gateway process and
// the provider.
package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mrz1836/postmark"

	"github.com/consultly/gateway/internal/breaker"
)

// ErrDependencyUnavailable is the soft failure returned while the email
// provider's circuit is open. Callers skip the send and carry on; it never
// surfaces as a 500.
var ErrDependencyUnavailable = errors.New("email provider unavailable")

// Message is one transactional email.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
	Tag      string
}

// postmarkAPI is the slice of the Postmark client the sender uses.
type postmarkAPI interface {
	SendEmail(ctx context.Context, email postmark.Email) (postmark.EmailResponse, error)
}

// Sender delivers messages through Postmark. Every call goes through the
// breaker: when the provider has been failing, sends are skipped outright
// instead of stacking up timeouts.
type Sender struct {
	client  postmarkAPI
	breaker *breaker.Breaker
	from    string
	logger  *slog.Logger
}

// NewSender creates a Postmark-backed sender guarded by br.
func NewSender(serverToken, accountToken, from string, br *breaker.Breaker, logger *slog.Logger) *Sender {
	return &Sender{
		client:  postmark.NewClient(serverToken, accountToken),
		breaker: br,
		from:    from,
		logger:  logger,
	}
}

// Send delivers one message. When the circuit is open it returns
// ErrDependencyUnavailable without touching the provider; provider failures
// are recorded so the breaker can open.
func (s *Sender) Send(ctx context.Context, msg Message) error {
	if !s.breaker.CanExecute() {
		s.logger.Warn("email send skipped, circuit open",
			slog.String("to", msg.To),
			slog.String("tag", msg.Tag),
		)
		return ErrDependencyUnavailable
	}

	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.from,
		To:       msg.To,
		Subject:  msg.Subject,
		HTMLBody: msg.HTMLBody,
		TextBody: msg.TextBody,
		Tag:      msg.Tag,
	})
	if err != nil {
		s.breaker.RecordFailure()
		return fmt.Errorf("postmark send: %w", err)
	}
	if resp.ErrorCode > 0 {
		s.breaker.RecordFailure()
		return fmt.Errorf("postmark send: error code %d: %s", resp.ErrorCode, resp.Message)
	}

	s.breaker.RecordSuccess()
	return nil
}
