package mailer

import (
	"context"
	"fmt"
	"io"
	"time"

	gopkgmail "gopkg.in/gomail.v2"
)

// DialTimeout bounds the whole dial-and-send exchange. The provider
// occasionally hangs on connect; past this the send is treated as
// failed and handled by the caller's failure policy.
const DialTimeout = 10 * time.Second

type SMTPSender struct {
	Host     string
	Port     int
	User     string
	Password string
}

func NewSMTPSender(host string, port int, user, password string) *SMTPSender {
	return &SMTPSender{Host: host, Port: port, User: user, Password: password}
}

func (s *SMTPSender) Send(ctx context.Context, m Message) error {
	msg := gopkgmail.NewMessage()
	msg.SetHeader("From", m.From)
	msg.SetHeader("To", m.To)
	msg.SetHeader("Subject", m.Subject)
	if m.Text != "" {
		msg.SetBody("text/plain", m.Text)
	}
	if m.HTML != "" {
		if m.Text != "" {
			msg.AddAlternative("text/html", m.HTML)
		} else {
			msg.SetBody("text/html", m.HTML)
		}
	}
	for _, a := range m.Attachments {
		a := a
		settings := []gopkgmail.FileSetting{
			gopkgmail.SetCopyFunc(func(w io.Writer) error {
				_, err := w.Write(a.Data)
				return err
			}),
		}
		if a.ContentType != "" {
			settings = append(settings, gopkgmail.SetHeader(map[string][]string{"Content-Type": {a.ContentType}}))
		}
		msg.Attach(a.Filename, settings...)
	}

	d := gopkgmail.NewDialer(s.Host, s.Port, s.User, s.Password)
	d.SSL = s.Port == 465

	// gomail has no context support; bound it ourselves.
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DialTimeout)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() { done <- d.DialAndSend(msg) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp send: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send: %w", ctx.Err())
	}
}
