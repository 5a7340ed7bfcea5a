// Package email renders transactional emails and delivers them through
// Resend.
package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/pkg/errors"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/KittoLapTrinh/KLTN-BackEnd-CityBus/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// sender is the part of the Resend API the client uses.
type sender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type Client struct {
	sender sender
	from   string
	logger *zerolog.Logger
}

// NewClient returns a client for the configured Resend account. Without an
// API key emails are rendered and logged but not sent.
func NewClient(cfg *config.Config, logger *zerolog.Logger) *Client {
	c := &Client{
		from:   cfg.Integration.EmailFrom,
		logger: logger,
	}
	if cfg.Integration.ResendAPIKey != "" {
		c.sender = resend.NewClient(cfg.Integration.ResendAPIKey).Emails
	}
	return c
}

// Render executes the named template with data.
func Render(name Template, data map[string]string) (string, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, string(name)+".html", data); err != nil {
		return "", errors.Wrapf(err, "failed to execute email template %s", name)
	}
	return body.String(), nil
}

// SendEmail renders name with data and sends it to a single recipient.
func (c *Client) SendEmail(ctx context.Context, to, subject string, name Template, data map[string]string) error {
	html, err := Render(name, data)
	if err != nil {
		return err
	}

	if c.sender == nil {
		c.logger.Warn().
			Str("to", to).
			Str("template", string(name)).
			Msg("email delivery disabled, dropping email")
		return nil
	}

	resp, err := c.sender.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	})
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	c.logger.Debug().
		Str("to", to).
		Str("template", string(name)).
		Str("email_id", resp.Id).
		Msg("email sent")
	return nil
}
