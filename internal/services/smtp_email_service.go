package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/realmadmin/internal/models"
	"github.com/BradenHooton/realmadmin/pkg/logger"
	"github.com/wneessen/go-mail"
)

// SMTPConfig holds the SMTP relay settings
type SMTPConfig struct {
	Host     string
	Port     int
	TLS      bool
	Username string
	Password string
	From     string
}

// smtpDialer is the subset of the go-mail client used for sending
type smtpDialer interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// SMTPEmailSender sends emails through an SMTP relay
type SMTPEmailSender struct {
	cfg    SMTPConfig
	client smtpDialer
	logger *slog.Logger
}

// NewSMTPEmailSender creates a new SMTP email sender
func NewSMTPEmailSender(cfg SMTPConfig, logger *slog.Logger) (*SMTPEmailSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(30 * time.Second),
	}

	if cfg.Username != "" && cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	if cfg.TLS {
		opts = append(opts,
			mail.WithTLSConfig(&tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}),
			mail.WithTLSPolicy(mail.TLSMandatory),
		)
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	logger.Info("smtp email sender configured",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.Bool("tls", cfg.TLS))

	return &SMTPEmailSender{cfg: cfg, client: client, logger: logger}, nil
}

// Send delivers msg through the SMTP relay
func (s *SMTPEmailSender) Send(ctx context.Context, msg *models.EmailMessage) error {
	m, err := s.buildMessage(msg)
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrEmailFailed, err)
	}

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		s.logger.Error("failed to send email via SMTP",
			slog.String("email", logger.SanitizedEmail(msg.To)),
			slog.Any("error", err))
		return fmt.Errorf("%w: %v", models.ErrEmailFailed, err)
	}

	s.logger.Info("email sent",
		slog.String("transport", "smtp"),
		slog.String("email", logger.SanitizedEmail(msg.To)))
	return nil
}

func (s *SMTPEmailSender) buildMessage(msg *models.EmailMessage) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient: %w", err)
	}
	m.Subject(msg.Subject)

	switch {
	case msg.TextBody != "" && msg.HTMLBody != "":
		m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
		m.AddAlternativeString(mail.TypeTextHTML, msg.HTMLBody)
	case msg.HTMLBody != "":
		m.SetBodyString(mail.TypeTextHTML, msg.HTMLBody)
	default:
		m.SetBodyString(mail.TypeTextPlain, msg.TextBody)
	}
	return m, nil
}
