package logger

import (
	"log/slog"
	"net/url"
	"sort"
	"strings"
)

const redacted = "[REDACTED]"

// SanitizedEmail masks an email address for logging: the local part keeps its
// first character and every domain label but the last is starred out.
func SanitizedEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return "[invalid-email]"
	}

	masked := local[:1] + strings.Repeat("*", len(local)-1)

	labels := strings.Split(domain, ".")
	for i := 0; i < len(labels)-1; i++ {
		labels[i] = strings.Repeat("*", len(labels[i]))
	}
	return masked + "@" + strings.Join(labels, ".")
}

// RedactedAttr hides value in production and passes it through elsewhere.
func RedactedAttr(key, value, env string) slog.Attr {
	if env == "production" {
		return slog.String(key, redacted)
	}
	return slog.String(key, value)
}

// sensitiveParams carry user attributes, credentials or tokens.
var sensitiveParams = map[string]bool{
	"search":                  true,
	"username":                true,
	"email":                   true,
	"firstname":               true,
	"lastname":                true,
	"key":                     true,
	"token":                   true,
	"client_secret":           true,
	"redirect_uri":            true,
	"white_labelled_base_url": true,
}

// RedactQuery returns rawQuery with the values of sensitive parameters
// replaced. Paging and id filters are kept. Unparseable input is redacted whole.
func RedactQuery(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return redacted
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		for _, v := range values[k] {
			if sensitiveParams[strings.ToLower(k)] || strings.HasPrefix(strings.ToLower(k), "custom") {
				v = redacted
			} else {
				v = url.QueryEscape(v)
			}
			parts = append(parts, url.QueryEscape(k)+"="+v)
		}
	}
	return strings.Join(parts, "&")
}
