package notifier

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"go.uber.org/zap"

	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/config"
	"github.com/macxwhale/device-telemetry-beacon-sub000/internal/models"
)

// sendMailFunc matches smtp.SendMail; swapped in tests.
type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailChannel delivers via SMTP. The server settings come from service
// config; the recipient address comes from the settings row.
type EmailChannel struct {
	cfg      config.SMTPConfig
	logger   *zap.Logger
	sendMail sendMailFunc
}

func NewEmailChannel(cfg config.SMTPConfig, logger *zap.Logger) *EmailChannel {
	return &EmailChannel{
		cfg:      cfg,
		logger:   logger,
		sendMail: smtp.SendMail,
	}
}

func (c *EmailChannel) Name() string { return "email" }

// Configured requires a recipient in settings and a reachable server in
// config.
func (c *EmailChannel) Configured(s *models.NotificationSettings) bool {
	return s.EmailNotifications != nil && *s.EmailNotifications != "" &&
		c.cfg.Host != "" && c.cfg.From != ""
}

func (c *EmailChannel) Send(ctx context.Context, s *models.NotificationSettings, deviceName, message string) error {
	to := *s.EmailNotifications

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", c.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: Device alert: %s\r\n", deviceName)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(message)
	b.WriteString("\r\n")

	var auth smtp.Auth
	if c.cfg.Username != "" {
		auth = smtp.PlainAuth("", c.cfg.Username, c.cfg.Password, c.cfg.Host)
	}

	if err := c.sendMail(c.cfg.Addr(), auth, c.cfg.From, []string{to}, []byte(b.String())); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}
