// Package query evaluates admin user queries against a realm directory:
// predicate parsing, wildcard matching, membership resolution, ordering and paging.
package query

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/BradenHooton/realmadmin/internal/models"
)

// Kind identifies the type of a predicate.
type Kind int

const (
	KindField Kind = iota
	KindGroup
	KindRole
	KindSearch
)

// Field is a user profile field a field predicate can test.
type Field string

const (
	FieldUsername  Field = "username"
	FieldEmail     Field = "email"
	FieldFirstName Field = "firstName"
	FieldLastName  Field = "lastName"
)

// Value returns the user's value for the field.
func (f Field) Value(u *models.User) string {
	switch f {
	case FieldUsername:
		return u.Username
	case FieldEmail:
		return u.Email
	case FieldFirstName:
		return u.FirstName
	case FieldLastName:
		return u.LastName
	}
	return ""
}

// Predicate is a single filter criterion. Value holds the pattern, group id,
// role id or search term depending on Kind.
type Predicate struct {
	Kind  Kind
	Field Field
	Value string
}

// FieldPredicate matches Field against a wildcard pattern.
func FieldPredicate(field Field, pattern string) Predicate {
	return Predicate{Kind: KindField, Field: field, Value: pattern}
}

// GroupPredicate requires membership of a group.
func GroupPredicate(groupID string) Predicate {
	return Predicate{Kind: KindGroup, Value: groupID}
}

// RolePredicate requires a role assignment.
func RolePredicate(roleID string) Predicate {
	return Predicate{Kind: KindRole, Value: roleID}
}

// SearchPredicate matches a term against username, email, first and last name.
func SearchPredicate(term string) Predicate {
	return Predicate{Kind: KindSearch, Value: term}
}

// Structural reports whether the predicate is resolved through membership indexes.
func (p Predicate) Structural() bool {
	return p.Kind == KindGroup || p.Kind == KindRole
}

// Query is a conjunction of predicates plus a paging window.
type Query struct {
	Predicates []Predicate
	First      int
	Max        int
}

// DefaultPageSize is used when the request carries no max parameter.
const DefaultPageSize = 100

// ParseOptions controls how request parameters become a Query.
type ParseOptions struct {
	DefaultPageSize int
	// Strict rejects parameters the query does not understand instead of ignoring them.
	Strict bool
}

var fieldParams = []Field{FieldUsername, FieldEmail, FieldFirstName, FieldLastName}

// accepted but without effect on the result
var passiveParams = map[string]bool{
	"briefRepresentation": true,
	"exact":               true,
	"enabled":             true,
}

// ParseParams turns request parameters into a Query. Repeated parameters yield
// repeated predicates. Errors wrap models.ErrInvalidParameter.
func ParseParams(values url.Values, opts ParseOptions) (*Query, error) {
	pageSize := opts.DefaultPageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	q := &Query{First: 0, Max: pageSize}

	if raw, ok := values["first"]; ok && len(raw) > 0 {
		n, err := strconv.Atoi(raw[0])
		if err != nil {
			return nil, fmt.Errorf("%w: first must be an integer", models.ErrInvalidParameter)
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: first must not be negative", models.ErrInvalidParameter)
		}
		q.First = n
	}

	if raw, ok := values["max"]; ok && len(raw) > 0 {
		n, err := strconv.Atoi(raw[0])
		if err != nil {
			return nil, fmt.Errorf("%w: max must be an integer", models.ErrInvalidParameter)
		}
		if n <= 0 {
			return nil, fmt.Errorf("%w: max must be positive", models.ErrInvalidParameter)
		}
		q.Max = n
	}

	for _, field := range fieldParams {
		for _, pattern := range values[string(field)] {
			q.Predicates = append(q.Predicates, FieldPredicate(field, pattern))
		}
	}
	for _, term := range values["search"] {
		q.Predicates = append(q.Predicates, SearchPredicate(term))
	}
	for _, id := range values["groupId"] {
		q.Predicates = append(q.Predicates, GroupPredicate(id))
	}
	for _, id := range values["roleId"] {
		q.Predicates = append(q.Predicates, RolePredicate(id))
	}

	if opts.Strict {
		for name := range values {
			if !knownParam(name) {
				return nil, fmt.Errorf("%w: unsupported parameter %q", models.ErrInvalidParameter, name)
			}
		}
	}

	return q, nil
}

func knownParam(name string) bool {
	switch name {
	case "first", "max", "search", "groupId", "roleId":
		return true
	}
	for _, field := range fieldParams {
		if string(field) == name {
			return true
		}
	}
	return passiveParams[name]
}
