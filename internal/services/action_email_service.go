package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/BradenHooton/realmadmin/internal/auth"
	"github.com/BradenHooton/realmadmin/internal/models"
	"github.com/BradenHooton/realmadmin/pkg/logger"
)

const (
	// ActionVerifyEmail sends the action mail to the pending address in AttrEmailToValidate.
	ActionVerifyEmail   = "ct-verify-email"
	AttrEmailToValidate = "emailToValidate"

	executeActionsTemplate = "executeActions"
	executeActionsSubject  = "executeActionsSubject"
)

// ActionTokenIssuer signs execute-actions tokens
type ActionTokenIssuer interface {
	Issue(req auth.ActionTokenRequest) (string, error)
}

// ExecuteActionsRequest is one execute-actions-email call
type ExecuteActionsRequest struct {
	RealmName   string
	UserID      string
	Actions     []string
	RedirectURI string
	ClientID    string
	Lifespan    *int // seconds; nil uses the realm setting
	Custom      [5]string
	ThemeRealm  string
}

// ActionEmailService mails execute-actions links to users
type ActionEmailService struct {
	dir      Directory
	issuer   ActionTokenIssuer
	renderer TemplateRenderer
	sender   EmailSender
	baseURL  string
	logger   *slog.Logger
	now      func() time.Time
}

// NewActionEmailService creates a new ActionEmailService
func NewActionEmailService(dir Directory, issuer ActionTokenIssuer, renderer TemplateRenderer, sender EmailSender, baseURL string, logger *slog.Logger) *ActionEmailService {
	return &ActionEmailService{
		dir:      dir,
		issuer:   issuer,
		renderer: renderer,
		sender:   sender,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		logger:   logger,
		now:      time.Now,
	}
}

// ExecuteActionsEmail validates req and mails the action link. Validation
// failures are RequestErrors wrapping ErrBadRequest or ErrNotFound.
func (s *ActionEmailService) ExecuteActionsEmail(ctx context.Context, req ExecuteActionsRequest) error {
	realm, user, err := loadRealmUser(ctx, s.dir, req.RealmName, req.UserID)
	if err != nil {
		return err
	}

	if user.Email == "" {
		return models.BadRequest("User email missing")
	}
	if !user.Enabled {
		return models.BadRequest("User is disabled")
	}
	if req.RedirectURI != "" && req.ClientID == "" {
		return models.BadRequest("Client id missing")
	}

	clientID := req.ClientID
	if clientID == "" {
		clientID = models.AccountClientID
	}

	recipient := user
	if slices.Contains(req.Actions, ActionVerifyEmail) {
		if pending := strings.TrimSpace(user.FirstAttribute(AttrEmailToValidate)); pending != "" {
			recipient = user.WithEmail(pending)
		}
	}

	client, err := s.dir.GetClient(ctx, realm.ID, clientID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("execute actions email: unknown client", slog.String("client_id", clientID))
			return models.BadRequest("Client doesn't exist")
		}
		return unavailable(err)
	}
	if !client.Enabled {
		s.logger.Info("execute actions email: client disabled", slog.String("client_id", clientID))
		return models.BadRequest("Client is not enabled")
	}

	redirectURI := req.RedirectURI
	if redirectURI != "" && !client.AllowsRedirect(redirectURI) {
		return models.BadRequest("Invalid redirect uri.")
	}

	scoped, err := themedRealm(ctx, s.dir, realm, req.ThemeRealm)
	if err != nil {
		return err
	}

	lifespan := realm.ActionTokenLifespan
	if lifespan <= 0 {
		lifespan = models.DefaultActionTokenLifespan
	}
	if req.Lifespan != nil {
		lifespan = *req.Lifespan
	}
	expiresAt := s.now().Add(time.Duration(lifespan) * time.Second)

	token, err := s.issuer.Issue(auth.ActionTokenRequest{
		User:            recipient,
		RealmName:       realm.Name,
		RequiredActions: req.Actions,
		RedirectURI:     redirectURI,
		ClientID:        clientID,
		ExpiresAt:       expiresAt,
	})
	if err != nil {
		s.logger.Error("failed to issue action token", slog.String("user_id", user.ID), slog.Any("error", err))
		return fmt.Errorf("%w: %v", models.ErrEmailFailed, err)
	}

	attrs := map[string]any{
		"requiredActions": req.Actions,
		"link":            s.actionLink(realm.Name, token, clientID, redirectURI),
		"linkExpiration":  lifespan / 60,
		"realmName":       scoped.Label(),
		"user":            recipient,
	}
	for i, v := range req.Custom {
		attrs[fmt.Sprintf("custom%d", i+1)] = v
	}

	msg, err := s.renderer.Render(RenderRequest{
		Theme:      scoped.EmailTheme,
		Template:   executeActionsTemplate,
		Locale:     scoped.DefaultLocale,
		SubjectKey: executeActionsSubject,
		Attributes: attrs,
	})
	if err != nil {
		s.logger.Error("failed to render execute actions email", slog.Any("error", err))
		return fmt.Errorf("%w: %v", models.ErrEmailFailed, err)
	}
	msg.To = recipient.Email

	if err := s.sender.Send(ctx, msg); err != nil {
		s.logger.Error("failed to send execute actions email",
			slog.String("user_id", user.ID),
			slog.String("email", logger.SanitizedEmail(recipient.Email)),
			slog.Any("error", err))
		return fmt.Errorf("%w: %v", models.ErrEmailFailed, err)
	}

	s.logger.Info("execute actions email sent",
		slog.String("realm", realm.Name),
		slog.String("user_id", user.ID),
		slog.Any("actions", req.Actions),
		slog.String("theme", scoped.EmailTheme))
	return nil
}

func (s *ActionEmailService) actionLink(realmName, token, clientID, redirectURI string) string {
	q := url.Values{}
	q.Set("key", token)
	q.Set("client_id", clientID)
	if redirectURI != "" {
		q.Set("redirect_uri", redirectURI)
	}
	return loginActionsURL(s.baseURL, realmName) + "/action-token?" + q.Encode()
}

func loginActionsURL(baseURL, realmName string) string {
	return baseURL + "/realms/" + url.PathEscape(realmName) + "/login-actions"
}

func loadRealmUser(ctx context.Context, dir Directory, realmName, userID string) (*models.Realm, *models.User, error) {
	realm, err := dir.GetRealmByName(ctx, realmName)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, models.NotFound("Realm not found")
		}
		return nil, nil, unavailable(err)
	}

	user, err := dir.GetUser(ctx, realm.ID, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, models.NotFound("User not found")
		}
		return nil, nil, unavailable(err)
	}
	return realm, user, nil
}

// themedRealm returns realm carrying the email theme of themeRealmName for the
// current call. The stored realm is never modified, so nothing has to be restored.
func themedRealm(ctx context.Context, dir Directory, realm *models.Realm, themeRealmName string) (*models.Realm, error) {
	if strings.TrimSpace(themeRealmName) == "" {
		return realm, nil
	}

	themeRealm, err := dir.GetRealmByName(ctx, themeRealmName)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.BadRequest("Invalid realm name")
		}
		return nil, unavailable(err)
	}

	if themeRealm.EmailTheme == "" {
		return realm, nil
	}
	return realm.WithEmailTheme(themeRealm.EmailTheme), nil
}
