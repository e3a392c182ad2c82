package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/BradenHooton/realmadmin/internal/auth"
	"github.com/BradenHooton/realmadmin/internal/models"
	"github.com/BradenHooton/realmadmin/internal/services"
	pkghttp "github.com/BradenHooton/realmadmin/pkg/http"
	pkglogger "github.com/BradenHooton/realmadmin/pkg/logger"
	"github.com/go-chi/chi/v5"
)

// ActionEmailService defines the interface for the execute-actions workflow
type ActionEmailService interface {
	ExecuteActionsEmail(ctx context.Context, req services.ExecuteActionsRequest) error
}

// MailService defines the interface for free-form realm emails
type MailService interface {
	SendRealmEmail(ctx context.Context, realmName, whiteLabelledBase string, model *models.EmailModel) error
	SendUserEmail(ctx context.Context, realmName, userID string, model *models.EmailModel) error
}

// EmailHandler handles the admin endpoints that send emails
type EmailHandler struct {
	actions     ActionEmailService
	mail        MailService
	auditLogger *pkglogger.AuditLogger
	ipConfig    *pkghttp.IPConfig
}

// NewEmailHandler creates a new EmailHandler
func NewEmailHandler(actions ActionEmailService, mail MailService, auditLogger *pkglogger.AuditLogger, ipConfig *pkghttp.IPConfig) *EmailHandler {
	return &EmailHandler{
		actions:     actions,
		mail:        mail,
		auditLogger: auditLogger,
		ipConfig:    ipConfig,
	}
}

// ExecuteActionsEmail mails the user a link to perform required actions
//
// @Summary Send an execute-actions email
// @Param realm path string true "Realm name"
// @Param id path string true "User ID"
// @Param redirect_uri query string false "Redirect after the actions complete"
// @Param client_id query string false "Client the link is issued for (default account)"
// @Param lifespan query int false "Link lifespan in seconds"
// @Param themeRealm query string false "Realm whose email theme is used"
// @Accept json
// @Param request body []string true "Required actions"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /admin/realms/{realm}/users/{id}/execute-actions-email [put]
func (h *EmailHandler) ExecuteActionsEmail(w http.ResponseWriter, r *http.Request) {
	var actions []string
	if err := json.NewDecoder(r.Body).Decode(&actions); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}
	if err := validate.Var(actions, "dive,required,max=255"); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid required action")
		return
	}

	params := r.URL.Query()
	req := services.ExecuteActionsRequest{
		RealmName:   chi.URLParam(r, "realm"),
		UserID:      chi.URLParam(r, "id"),
		Actions:     actions,
		RedirectURI: params.Get("redirect_uri"),
		ClientID:    params.Get("client_id"),
		ThemeRealm:  params.Get("themeRealm"),
	}
	for i := range req.Custom {
		req.Custom[i] = params.Get("custom" + strconv.Itoa(i+1))
	}

	if raw := strings.TrimSpace(params.Get("lifespan")); raw != "" {
		lifespan, err := strconv.Atoi(raw)
		if err != nil || lifespan <= 0 {
			pkghttp.WriteBadRequest(w, "Invalid lifespan parameter")
			return
		}
		req.Lifespan = &lifespan
	}

	err := h.actions.ExecuteActionsEmail(r.Context(), req)
	h.audit(r, pkglogger.AuditEvent{
		EventType: "execute_actions_email",
		Realm:     req.RealmName,
		TargetID:  req.UserID,
		Metadata:  map[string]string{"actions": strings.Join(actions, ",")},
	}, err)
	if err != nil {
		writeServiceError(w, err, "Failed to send execute actions email")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SendUserEmail mails a themed message to a user of the realm
//
// @Summary Send an email to a user
// @Param realm path string true "Realm name"
// @Param id path string true "User ID"
// @Accept json
// @Param request body models.EmailModel true "Email"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /admin/realms/{realm}/users/{id}/send-email [post]
func (h *EmailHandler) SendUserEmail(w http.ResponseWriter, r *http.Request) {
	model, ok := decodeEmailModel(w, r)
	if !ok {
		return
	}

	realm, userID := chi.URLParam(r, "realm"), chi.URLParam(r, "id")
	err := h.mail.SendUserEmail(r.Context(), realm, userID, model)
	h.audit(r, pkglogger.AuditEvent{EventType: "send_user_email", Realm: realm, TargetID: userID}, err)
	if err != nil {
		writeServiceError(w, err, "Failed to send email")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SendRealmEmail mails a themed message to an arbitrary recipient
//
// @Summary Send an email on behalf of the realm
// @Param realm path string true "Realm name"
// @Param white_labelled_base_url query string false "Scheme and host used in links"
// @Accept json
// @Param request body models.EmailModel true "Email"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /admin/realms/{realm}/send-email [post]
func (h *EmailHandler) SendRealmEmail(w http.ResponseWriter, r *http.Request) {
	model, ok := decodeEmailModel(w, r)
	if !ok {
		return
	}

	realm := chi.URLParam(r, "realm")
	base := strings.TrimSpace(r.URL.Query().Get("white_labelled_base_url"))
	err := h.mail.SendRealmEmail(r.Context(), realm, base, model)
	h.audit(r, pkglogger.AuditEvent{EventType: "send_realm_email", Realm: realm}, err)
	if err != nil {
		writeServiceError(w, err, "Failed to send email")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func decodeEmailModel(w http.ResponseWriter, r *http.Request) (*models.EmailModel, bool) {
	var model models.EmailModel
	if err := json.NewDecoder(r.Body).Decode(&model); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return nil, false
	}
	if err := ValidateRequest(model); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return nil, false
	}
	return &model, true
}

func (h *EmailHandler) audit(r *http.Request, event pkglogger.AuditEvent, err error) {
	if h.auditLogger == nil {
		return
	}

	event.IPAddress = pkghttp.ExtractClientIP(r, h.ipConfig)
	event.Success = err == nil
	if claims := auth.GetClaimsFromContext(r); claims != nil {
		event.Actor = claims.ClientID
	}
	if err != nil {
		event.FailureReason = err.Error()
	}
	h.auditLogger.LogAdminEvent(event)
}
