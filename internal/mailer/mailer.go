// Package mailer is the outbound email boundary. Lifecycle
// notifications treat send failures as log-only; magic-link issuance
// treats them as hard errors. Both policies live with the callers —
// a Sender just reports what happened.
package mailer

import (
	"context"
	"log/slog"
	"sync"
)

type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Message struct {
	From        string
	To          string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

type Sender interface {
	Send(ctx context.Context, m Message) error
}

// LogSender writes the message to the log instead of sending it.
// Used when SMTP is not configured.
type LogSender struct{}

func (LogSender) Send(_ context.Context, m Message) error {
	slog.Info("==========================================")
	slog.Info("📧 EMAIL (not sent, SMTP unconfigured)", "to", m.To, "subject", m.Subject)
	slog.Info(m.Text)
	slog.Info("==========================================")
	return nil
}

// Recorder captures messages for tests.
type Recorder struct {
	mu   sync.Mutex
	Sent []Message
	Err  error // returned from Send when set
}

func (r *Recorder) Send(_ context.Context, m Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.Sent = append(r.Sent, m)
	return nil
}

func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.Sent))
	copy(out, r.Sent)
	return out
}
