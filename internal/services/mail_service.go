package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/BradenHooton/realmadmin/internal/models"
	"github.com/BradenHooton/realmadmin/pkg/logger"
)

var whiteLabelledBaseURL = regexp.MustCompile(`^(https?://[^/]+)/?$`)

// MailService sends free-form themed emails on behalf of a realm
type MailService struct {
	dir      Directory
	renderer TemplateRenderer
	sender   EmailSender
	baseURL  string
	logger   *slog.Logger
}

// NewMailService creates a new MailService
func NewMailService(dir Directory, renderer TemplateRenderer, sender EmailSender, baseURL string, logger *slog.Logger) *MailService {
	return &MailService{
		dir:      dir,
		renderer: renderer,
		sender:   sender,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		logger:   logger,
	}
}

// SendRealmEmail mails model.Recipient. A non-empty whiteLabelledBase replaces
// the scheme and host of the login-actions link.
func (s *MailService) SendRealmEmail(ctx context.Context, realmName, whiteLabelledBase string, model *models.EmailModel) error {
	realm, err := s.dir.GetRealmByName(ctx, realmName)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.NotFound("Realm not found")
		}
		return unavailable(err)
	}

	recipient := strings.TrimSpace(model.Recipient)
	if recipient == "" {
		return models.BadRequest("Recipient email missing")
	}

	link := loginActionsURL(s.baseURL, realm.Name)
	if whiteLabelledBase != "" {
		link, err = whiteLabelledLink(whiteLabelledBase, link)
		if err != nil {
			return err
		}
	}

	return s.send(ctx, realm, nil, recipient, link, model.Theming)
}

// SendUserEmail mails a user of the realm, at model.Recipient when set.
func (s *MailService) SendUserEmail(ctx context.Context, realmName, userID string, model *models.EmailModel) error {
	realm, user, err := loadRealmUser(ctx, s.dir, realmName, userID)
	if err != nil {
		return err
	}

	recipient := strings.TrimSpace(model.Recipient)
	if recipient == "" {
		recipient = user.Email
	}
	if recipient == "" {
		return models.BadRequest("User email missing")
	}
	if !user.Enabled {
		return models.BadRequest("User is disabled")
	}

	return s.send(ctx, realm, user, recipient, loginActionsURL(s.baseURL, realm.Name), model.Theming)
}

func (s *MailService) send(ctx context.Context, realm *models.Realm, user *models.User, recipient, link string, theming *models.EmailTheming) error {
	if theming == nil || strings.TrimSpace(theming.Template) == "" {
		return models.BadRequest("Email template missing")
	}

	scoped, err := themedRealm(ctx, s.dir, realm, theming.ThemeRealmName)
	if err != nil {
		return err
	}

	attrs := make(map[string]any, len(theming.TemplateParameters)+3)
	for k, v := range theming.TemplateParameters {
		attrs[k] = v
	}
	attrs["realmName"] = scoped.Label()
	attrs["link"] = link
	if user != nil {
		attrs["user"] = user
	}

	locale := theming.Locale
	if locale == "" {
		locale = scoped.DefaultLocale
	}

	msg, err := s.renderer.Render(RenderRequest{
		Theme:         scoped.EmailTheme,
		Template:      theming.Template,
		Locale:        locale,
		SubjectKey:    theming.SubjectKey,
		SubjectParams: theming.SubjectParameters,
		Attributes:    attrs,
	})
	if err != nil {
		if errors.Is(err, models.ErrUnknownTemplate) {
			return models.BadRequest("Unknown email template")
		}
		s.logger.Error("failed to render email", slog.String("template", theming.Template), slog.Any("error", err))
		return fmt.Errorf("%w: %v", models.ErrEmailFailed, err)
	}
	msg.To = recipient

	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Error("failed to send email",
			slog.String("realm", realm.Name),
			slog.String("email", logger.SanitizedEmail(recipient)),
			slog.Any("error", err))
		return fmt.Errorf("%w: %v", models.ErrEmailFailed, err)
	}

	s.logger.Info("email sent",
		slog.String("realm", realm.Name),
		slog.String("template", theming.Template),
		slog.String("theme", scoped.EmailTheme))
	return nil
}

// whiteLabelledLink swaps the scheme and host of link for base.
func whiteLabelledLink(base, link string) (string, error) {
	m := whiteLabelledBaseURL.FindStringSubmatch(base)
	if m == nil {
		return "", models.BadRequest("Invalid white_labelled_base_url value")
	}

	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("invalid login actions url: %w", err)
	}
	u.Scheme = ""
	u.Host = ""
	return m[1] + u.String(), nil
}
