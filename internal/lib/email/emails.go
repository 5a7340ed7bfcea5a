package email

import (
	"context"
	"strconv"
	"time"
)

func (c *Client) SendWelcomeEmail(ctx context.Context, to, fullName string) error {
	data := map[string]string{
		"FullName": fullName,
	}

	return c.SendEmail(ctx, to, "Welcome to CityBus!", TemplateWelcome, data)
}

// SendOTPEmail sends a one-time registration code valid for expiresIn.
func (c *Client) SendOTPEmail(ctx context.Context, to, code string, expiresIn time.Duration) error {
	data := map[string]string{
		"Code":          code,
		"ExpiryMinutes": strconv.Itoa(int(expiresIn.Round(time.Minute) / time.Minute)),
	}

	return c.SendEmail(ctx, to, "Your CityBus verification code", TemplateOTP, data)
}
