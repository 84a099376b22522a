package email

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mrz1836/postmark"

	"github.com/consultly/gateway/internal/breaker"
)

// fakePostmark scripts provider responses.
type fakePostmark struct {
	err   error
	calls int
}

func (f *fakePostmark) SendEmail(context.Context, postmark.Email) (postmark.EmailResponse, error) {
	f.calls++
	if f.err != nil {
		return postmark.EmailResponse{}, f.err
	}
	return postmark.EmailResponse{}, nil
}

func newTestSender(client postmarkAPI, br *breaker.Breaker) *Sender {
	return &Sender{
		client:  client,
		breaker: br,
		from:    "noreply@consultly.example",
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSender_SuccessClosesBreaker(t *testing.T) {
	br := breaker.New("postmark", 3, time.Minute)
	s := newTestSender(&fakePostmark{}, br)

	if err := s.Send(context.Background(), Message{To: "a@b.c", Subject: "hi"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got := br.Status().State; got != breaker.StateClosed {
		t.Errorf("breaker state = %v, want closed", got)
	}
}

func TestSender_FailuresOpenBreakerAndSkipSends(t *testing.T) {
	br := breaker.New("postmark", 2, time.Minute)
	client := &fakePostmark{err: errors.New("provider down")}
	s := newTestSender(client, br)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := s.Send(ctx, Message{To: "a@b.c"}); err == nil {
			t.Fatal("Send() error = nil, want provider error")
		}
	}
	if got := br.Status().State; got != breaker.StateOpen {
		t.Fatalf("breaker state = %v, want open", got)
	}

	// Circuit open: the provider must not be called again.
	err := s.Send(ctx, Message{To: "a@b.c"})
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("Send() error = %v, want ErrDependencyUnavailable", err)
	}
	if client.calls != 2 {
		t.Errorf("provider calls = %d, want 2 (skip while open)", client.calls)
	}
}

func TestSender_ProbeRecovery(t *testing.T) {
	br := breaker.New("postmark", 1, 10*time.Millisecond)
	client := &fakePostmark{err: errors.New("provider down")}
	s := newTestSender(client, br)
	ctx := context.Background()

	s.Send(ctx, Message{To: "a@b.c"})
	if got := br.Status().State; got != breaker.StateOpen {
		t.Fatalf("breaker state = %v, want open", got)
	}

	// Recovery window elapses and the provider is healthy again.
	time.Sleep(20 * time.Millisecond)
	client.err = nil

	if err := s.Send(ctx, Message{To: "a@b.c"}); err != nil {
		t.Fatalf("probe Send() error = %v", err)
	}
	if got := br.Status().State; got != breaker.StateClosed {
		t.Errorf("breaker state after probe = %v, want closed", got)
	}
}
