package query

import (
	"context"

	"github.com/BradenHooton/realmadmin/internal/models"
)

// IDSet is a set of user ids.
type IDSet map[string]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the members in no particular order.
func (s IDSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	return ids
}

// Intersect returns the ids present in both sets. It iterates the smaller set.
func (s IDSet) Intersect(other IDSet) IDSet {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	out := make(IDSet, len(small))
	for id := range small {
		if large.Has(id) {
			out[id] = struct{}{}
		}
	}
	return out
}

// Union returns the ids present in either set.
func (s IDSet) Union(other IDSet) IDSet {
	out := make(IDSet, len(s)+len(other))
	for id := range s {
		out[id] = struct{}{}
	}
	for id := range other {
		out[id] = struct{}{}
	}
	return out
}

// Directory is the read side of the identity store. Membership lookups must
// already account for group hierarchy and composite roles. Unknown group and
// role ids yield empty results, not errors.
type Directory interface {
	ListUsers(ctx context.Context, realmID string) ([]*models.User, error)
	UsersByID(ctx context.Context, realmID string, ids []string) ([]*models.User, error)
	UsersInGroup(ctx context.Context, realmID, groupID string) ([]string, error)
	UsersWithRole(ctx context.Context, realmID, roleID string) ([]string, error)
}

// MembershipIndex resolves structural predicates into user id sets.
type MembershipIndex struct {
	dir Directory
}

// NewMembershipIndex wraps a directory.
func NewMembershipIndex(dir Directory) *MembershipIndex {
	return &MembershipIndex{dir: dir}
}

// UsersInGroup returns the ids of the group's members.
func (m *MembershipIndex) UsersInGroup(ctx context.Context, realmID, groupID string) (IDSet, error) {
	if groupID == "" {
		return IDSet{}, nil
	}
	ids, err := m.dir.UsersInGroup(ctx, realmID, groupID)
	if err != nil {
		return nil, err
	}
	return NewIDSet(ids...), nil
}

// UsersWithRole returns the ids of users holding the role.
func (m *MembershipIndex) UsersWithRole(ctx context.Context, realmID, roleID string) (IDSet, error) {
	if roleID == "" {
		return IDSet{}, nil
	}
	ids, err := m.dir.UsersWithRole(ctx, realmID, roleID)
	if err != nil {
		return nil, err
	}
	return NewIDSet(ids...), nil
}

// resolve returns the id set a structural predicate selects.
func (m *MembershipIndex) resolve(ctx context.Context, realmID string, p Predicate) (IDSet, error) {
	if p.Kind == KindGroup {
		return m.UsersInGroup(ctx, realmID, p.Value)
	}
	return m.UsersWithRole(ctx, realmID, p.Value)
}
