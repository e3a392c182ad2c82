package models

import (
	"strings"
	"time"
)

// User is a realm user as seen by the admin API. It is read-only to this service;
// the directory owns all writes.
type User struct {
	ID         string
	RealmID    string
	Username   string
	Email      string // empty when the user has no email
	FirstName  string
	LastName   string
	Enabled    bool
	Attributes map[string][]string
	CreatedAt  time.Time
}

// FirstAttribute returns the first value of the named attribute, or "" when unset.
func (u *User) FirstAttribute(name string) string {
	if u == nil || u.Attributes == nil {
		return ""
	}
	values := u.Attributes[name]
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// WithEmail returns a copy of the user addressed to another email. The receiver is untouched.
func (u *User) WithEmail(email string) *User {
	clone := *u
	clone.Email = strings.TrimSpace(email)
	return &clone
}

// Group is a node of a realm's group tree.
type Group struct {
	ID       string
	RealmID  string
	Name     string
	ParentID string // empty for top-level groups
}

// Role is a realm role. Composite roles grant their children.
type Role struct {
	ID        string
	RealmID   string
	Name      string
	Composite []string // child role ids
}
