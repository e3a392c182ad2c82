package models

import "strings"

// DefaultActionTokenLifespan is the admin action token lifespan used when a realm does not set one (12h).
const DefaultActionTokenLifespan = 43200

// Realm holds the realm settings the admin workflows read.
type Realm struct {
	ID                  string
	Name                string
	DisplayName         string
	EmailTheme          string
	DefaultLocale       string
	ActionTokenLifespan int // seconds
}

// WithEmailTheme returns a copy of the realm using another email theme.
// The override lives only as long as the returned value.
func (r *Realm) WithEmailTheme(theme string) *Realm {
	clone := *r
	clone.EmailTheme = theme
	return &clone
}

// Label returns the display name, falling back to the realm name.
func (r *Realm) Label() string {
	if r.DisplayName != "" {
		return r.DisplayName
	}
	return r.Name
}

// AccountClientID is the client used when an action email names no client.
const AccountClientID = "account"

// Client is a realm client application.
type Client struct {
	ID           string
	RealmID      string
	ClientID     string
	Enabled      bool
	RedirectURIs []string
}

// AllowsRedirect reports whether uri is one of the client's redirect URIs.
// An entry ending in "*" allows any URI with that prefix.
func (c *Client) AllowsRedirect(uri string) bool {
	for _, allowed := range c.RedirectURIs {
		if strings.HasSuffix(allowed, "*") {
			if strings.HasPrefix(uri, strings.TrimSuffix(allowed, "*")) {
				return true
			}
			continue
		}
		if allowed == uri {
			return true
		}
	}
	return false
}
