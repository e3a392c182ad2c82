package services

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"path"
	"strconv"
	"strings"
	texttemplate "text/template"

	"github.com/BradenHooton/realmadmin/internal/models"
)

//go:embed themes
var embeddedThemes embed.FS

const (
	baseTheme     = "base"
	defaultLocale = "en"
)

// RenderRequest selects a themed template and the values it is rendered with
type RenderRequest struct {
	Theme         string
	Template      string
	Locale        string
	SubjectKey    string
	SubjectParams []string
	Attributes    map[string]any
}

// TemplateRenderer renders themed email templates
type TemplateRenderer interface {
	Render(req RenderRequest) (*models.EmailMessage, error)
}

// ThemeRenderer looks templates up in themes/<theme>/email and falls back to the base theme.
type ThemeRenderer struct {
	fsys fs.FS
}

// NewThemeRenderer creates a renderer over the embedded themes
func NewThemeRenderer() *ThemeRenderer {
	sub, err := fs.Sub(embeddedThemes, "themes")
	if err != nil {
		panic(err)
	}
	return &ThemeRenderer{fsys: sub}
}

// NewThemeRendererFS creates a renderer over fsys laid out as <theme>/email/...
func NewThemeRendererFS(fsys fs.FS) *ThemeRenderer {
	return &ThemeRenderer{fsys: fsys}
}

// Render renders the HTML and text variants of req.Template. The recipient is left empty.
func (r *ThemeRenderer) Render(req RenderRequest) (*models.EmailMessage, error) {
	name := templateName(req.Template)
	if name == "" {
		return nil, fmt.Errorf("%w: empty template name", models.ErrUnknownTemplate)
	}

	locale := req.Locale
	if locale == "" {
		locale = defaultLocale
	}

	theme := r.resolveTheme(req.Theme, name)
	if theme == "" {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownTemplate, req.Template)
	}

	messages := r.messages(req.Theme, locale)
	funcs := map[string]any{
		"msg": func(key string) string { return lookup(messages, key) },
		"action": func(action string) string {
			if v, ok := messages["requiredAction."+action]; ok {
				return v
			}
			return action
		},
	}

	msg := &models.EmailMessage{}
	if req.SubjectKey != "" {
		msg.Subject = formatMessage(lookup(messages, req.SubjectKey), req.SubjectParams)
	}

	htmlSrc, err := fs.ReadFile(r.fsys, path.Join(theme, "email", name+".html.tmpl"))
	if err == nil {
		tmpl, err := htmltemplate.New(name).Funcs(funcs).Parse(string(htmlSrc))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s html template: %w", name, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, req.Attributes); err != nil {
			return nil, fmt.Errorf("failed to render %s html template: %w", name, err)
		}
		msg.HTMLBody = buf.String()
	}

	textSrc, err := fs.ReadFile(r.fsys, path.Join(theme, "email", name+".txt.tmpl"))
	if err == nil {
		tmpl, err := texttemplate.New(name).Funcs(funcs).Parse(string(textSrc))
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s text template: %w", name, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, req.Attributes); err != nil {
			return nil, fmt.Errorf("failed to render %s text template: %w", name, err)
		}
		msg.TextBody = buf.String()
	}

	return msg, nil
}

// resolveTheme returns the theme providing the template, or "" when none does.
func (r *ThemeRenderer) resolveTheme(theme, name string) string {
	candidates := []string{baseTheme}
	if theme != "" && theme != baseTheme {
		candidates = []string{theme, baseTheme}
	}
	for _, t := range candidates {
		if r.exists(path.Join(t, "email", name+".html.tmpl")) || r.exists(path.Join(t, "email", name+".txt.tmpl")) {
			return t
		}
	}
	return ""
}

func (r *ThemeRenderer) exists(name string) bool {
	_, err := fs.Stat(r.fsys, name)
	return err == nil
}

// messages merges message bundles, most specific last: base/en, base/locale, theme/en, theme/locale.
func (r *ThemeRenderer) messages(theme, locale string) map[string]string {
	merged := map[string]string{}
	themes := []string{baseTheme}
	if theme != "" && theme != baseTheme {
		themes = append(themes, theme)
	}
	for _, t := range themes {
		for _, l := range []string{defaultLocale, locale} {
			data, err := fs.ReadFile(r.fsys, path.Join(t, "email", "messages_"+l+".json"))
			if err != nil {
				continue
			}
			var bundle map[string]string
			if err := json.Unmarshal(data, &bundle); err != nil {
				continue
			}
			for k, v := range bundle {
				merged[k] = v
			}
		}
	}
	return merged
}

func lookup(messages map[string]string, key string) string {
	if v, ok := messages[key]; ok {
		return v
	}
	return key
}

// formatMessage replaces {0}, {1}, ... with params.
func formatMessage(pattern string, params []string) string {
	for i, p := range params {
		pattern = strings.ReplaceAll(pattern, "{"+strconv.Itoa(i)+"}", p)
	}
	return pattern
}

// templateName accepts "executeActions", "executeActions.ftl" or "executeActions.html".
func templateName(name string) string {
	name = strings.TrimSpace(name)
	for _, ext := range []string{".ftl", ".html", ".txt"} {
		name = strings.TrimSuffix(name, ext)
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return ""
	}
	return name
}
