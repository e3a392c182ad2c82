package query

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/BradenHooton/realmadmin/internal/models"
)

// MatchMode decides how repeated structural predicates of one kind combine.
type MatchMode string

const (
	// MatchAll requires every group and role predicate to hold.
	MatchAll MatchMode = "all"
	// MatchAny unions repeated group predicates and repeated role predicates,
	// then intersects the group result with the role result.
	MatchAny MatchMode = "any"
)

// ParseMatchMode validates a configured mode name.
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(s) {
	case "", MatchAll:
		return MatchAll, nil
	case MatchAny:
		return MatchAny, nil
	}
	return "", fmt.Errorf("unknown membership match mode %q", s)
}

// MatchSet is the ordered list of users satisfying a query.
type MatchSet []*models.User

// Executor evaluates queries against a directory.
type Executor struct {
	dir   Directory
	index *MembershipIndex
	mode  MatchMode
}

// NewExecutor creates an Executor. An empty mode means MatchAll.
func NewExecutor(dir Directory, mode MatchMode) *Executor {
	if mode == "" {
		mode = MatchAll
	}
	return &Executor{dir: dir, index: NewMembershipIndex(dir), mode: mode}
}

// Execute returns every user of the realm satisfying q, ordered by username
// then id. Paging fields of q are ignored. Context cancellation aborts before
// the next directory call and discards partial work.
func (e *Executor) Execute(ctx context.Context, realmID string, q *Query) (MatchSet, error) {
	var structural, filters []Predicate
	for _, p := range q.Predicates {
		if p.Structural() {
			structural = append(structural, p)
		} else {
			filters = append(filters, p)
		}
	}

	candidates, err := e.candidates(ctx, realmID, structural)
	if err != nil {
		return nil, err
	}

	matched := make(MatchSet, 0, len(candidates))
	for _, u := range candidates {
		if u == nil || u.RealmID != "" && u.RealmID != realmID {
			continue
		}
		if matchesAll(u, filters) {
			matched = append(matched, u)
		}
	}

	slices.SortStableFunc(matched, compareUsers)
	return matched, nil
}

func compareUsers(a, b *models.User) int {
	if c := cmp.Compare(a.Username, b.Username); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// candidates narrows the realm population with the structural predicates
// before any string predicate runs.
func (e *Executor) candidates(ctx context.Context, realmID string, structural []Predicate) ([]*models.User, error) {
	if len(structural) == 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		users, err := e.dir.ListUsers(ctx, realmID)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		return users, nil
	}

	ids, err := e.structuralIDs(ctx, realmID, structural)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	users, err := e.dir.UsersByID(ctx, realmID, ids.IDs())
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	return users, nil
}

func (e *Executor) structuralIDs(ctx context.Context, realmID string, structural []Predicate) (IDSet, error) {
	if e.mode == MatchAny {
		return e.anyIDs(ctx, realmID, structural)
	}

	var acc IDSet
	for _, p := range structural {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		set, err := e.index.resolve(ctx, realmID, p)
		if err != nil {
			return nil, fmt.Errorf("resolve membership: %w", err)
		}
		if acc == nil {
			acc = set
		} else {
			acc = acc.Intersect(set)
		}
		if len(acc) == 0 {
			return acc, nil
		}
	}
	return acc, nil
}

func (e *Executor) anyIDs(ctx context.Context, realmID string, structural []Predicate) (IDSet, error) {
	byKind := map[Kind]IDSet{}
	for _, p := range structural {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		set, err := e.index.resolve(ctx, realmID, p)
		if err != nil {
			return nil, fmt.Errorf("resolve membership: %w", err)
		}
		if prev, ok := byKind[p.Kind]; ok {
			byKind[p.Kind] = prev.Union(set)
		} else {
			byKind[p.Kind] = set
		}
	}

	var acc IDSet
	for _, set := range byKind {
		if acc == nil {
			acc = set
		} else {
			acc = acc.Intersect(set)
		}
	}
	return acc, nil
}

func matchesAll(u *models.User, filters []Predicate) bool {
	for _, p := range filters {
		switch p.Kind {
		case KindField:
			if !Matches(p.Value, p.Field.Value(u)) {
				return false
			}
		case KindSearch:
			if !matchesSearch(u, p.Value) {
				return false
			}
		}
	}
	return true
}

func matchesSearch(u *models.User, term string) bool {
	return containsFold(u.Username, term) ||
		containsFold(u.Email, term) ||
		containsFold(u.FirstName, term) ||
		containsFold(u.LastName, term)
}
