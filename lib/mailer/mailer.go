// Package mailer delivers export files over SMTP.
package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"path/filepath"
	"strings"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/mailer")

type Config struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	// Username defaults to From.
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
}

func (c Config) addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) username() string {
	if c.Username != "" {
		return c.Username
	}
	return c.From
}

type Mailer struct {
	config Config
}

func New(config Config) Mailer {
	return Mailer{config: config}
}

type Message struct {
	To          []string
	Subject     string
	Text        string
	Attachments []string
}

func (m Mailer) Send(ctx context.Context, msg Message) error {
	ctx, span := tracer.Start(ctx, "Send")
	defer span.End()
	span.SetAttributes(
		attribute.StringSlice("to", msg.To),
		attribute.Int("attachments", len(msg.Attachments)),
	)

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("JobStreet Applied Jobs <%s>", m.config.From)
	mail.To = msg.To
	mail.Subject = msg.Subject
	mail.Text = []byte(msg.Text)
	for _, path := range msg.Attachments {
		_, err := mail.AttachFile(path)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to attach file")
			return fmt.Errorf("attach %s: %w", path, err)
		}
	}

	err := mail.Send(
		m.config.addr(),
		smtp.PlainAuth("", m.config.username(), m.config.Password, m.config.Host),
	)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(m.config.addr(), nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}

	slog.InfoContext(ctx, "sent export email", "to", msg.To, "attachments", len(msg.Attachments))
	return nil
}

// ExportMessage describes a finished run and attaches its files.
func ExportMessage(to []string, totalJobs int, files []string) Message {
	var body strings.Builder
	fmt.Fprintf(&body, "The applied jobs scrape finished with %d jobs.\n\n", totalJobs)
	for _, f := range files {
		fmt.Fprintf(&body, "- %s\n", filepath.Base(f))
	}
	return Message{
		To:          to,
		Subject:     fmt.Sprintf("JobStreet applied jobs (%d)", totalJobs),
		Text:        body.String(),
		Attachments: files,
	}
}
