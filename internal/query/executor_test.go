package query

import (
	"context"
	"errors"
	"testing"

	"github.com/BradenHooton/realmadmin/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDirectory serves a fixed population and records directory calls.
type fakeDirectory struct {
	users  []*models.User
	groups map[string][]string
	roles  map[string][]string
	err    error
	calls  []string
}

func (f *fakeDirectory) ListUsers(ctx context.Context, realmID string) ([]*models.User, error) {
	f.calls = append(f.calls, "list")
	if f.err != nil {
		return nil, f.err
	}
	return f.users, nil
}

func (f *fakeDirectory) UsersByID(ctx context.Context, realmID string, ids []string) ([]*models.User, error) {
	f.calls = append(f.calls, "byid")
	want := NewIDSet(ids...)
	var out []*models.User
	for _, u := range f.users {
		if want.Has(u.ID) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeDirectory) UsersInGroup(ctx context.Context, realmID, groupID string) ([]string, error) {
	f.calls = append(f.calls, "group:"+groupID)
	if f.err != nil {
		return nil, f.err
	}
	return f.groups[groupID], nil
}

func (f *fakeDirectory) UsersWithRole(ctx context.Context, realmID, roleID string) ([]string, error) {
	f.calls = append(f.calls, "role:"+roleID)
	return f.roles[roleID], nil
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		users: []*models.User{
			{ID: "u3", RealmID: "r", Username: "charlie", Email: "charlie@example.com", LastName: "Doh"},
			{ID: "u1", RealmID: "r", Username: "alice", Email: "alice@example.com", FirstName: "Alice"},
			{ID: "u2", RealmID: "r", Username: "bob", LastName: "Ledoherty"},
			{ID: "u4", RealmID: "r", Username: "Zed", Email: "zed@example.com"},
			{ID: "u0", RealmID: "r", Username: "bob"},
		},
		groups: map[string][]string{
			"g1": {"u1", "u2", "u3"},
			"g2": {"u2", "u3"},
			"g3": {"u4"},
		},
		roles: map[string][]string{
			"r1": {"u1", "u3"},
			"r2": {"u4"},
		},
	}
}

func usernames(ms []*models.User) []string {
	out := make([]string, len(ms))
	for i, u := range ms {
		out[i] = u.Username
	}
	return out
}

func ids(ms []*models.User) []string {
	out := make([]string, len(ms))
	for i, u := range ms {
		out[i] = u.ID
	}
	return out
}

func TestExecute_EmptyQueryReturnsRealmSorted(t *testing.T) {
	dir := newFakeDirectory()
	ms, err := NewExecutor(dir, MatchAll).Execute(context.Background(), "r", &Query{})

	require.NoError(t, err)
	// byte-wise order puts upper case first; equal usernames fall back to id
	assert.Equal(t, []string{"u4", "u1", "u0", "u2", "u3"}, ids(ms))
	assert.Equal(t, []string{"list"}, dir.calls)
}

func TestExecute_FieldPredicates(t *testing.T) {
	dir := newFakeDirectory()
	exec := NewExecutor(dir, MatchAll)

	ms, err := exec.Execute(context.Background(), "r", &Query{Predicates: []Predicate{
		FieldPredicate(FieldLastName, "doh"),
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "charlie"}, usernames(ms))

	ms, err = exec.Execute(context.Background(), "r", &Query{Predicates: []Predicate{
		FieldPredicate(FieldLastName, "=doh"),
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"charlie"}, usernames(ms))

	ms, err = exec.Execute(context.Background(), "r", &Query{Predicates: []Predicate{
		FieldPredicate(FieldEmail, "%@example.com"),
		FieldPredicate(FieldEmail, "a%"),
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, usernames(ms))
}

func TestExecute_SearchMatchesAnyProfileField(t *testing.T) {
	dir := newFakeDirectory()
	ms, err := NewExecutor(dir, MatchAll).Execute(context.Background(), "r", &Query{Predicates: []Predicate{
		SearchPredicate("ALICE"),
	}})

	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, usernames(ms))
}

func TestExecute_GroupsAreIntersected(t *testing.T) {
	dir := newFakeDirectory()
	exec := NewExecutor(dir, MatchAll)

	one, err := exec.Execute(context.Background(), "r", &Query{Predicates: []Predicate{GroupPredicate("g1")}})
	require.NoError(t, err)
	both, err := exec.Execute(context.Background(), "r", &Query{Predicates: []Predicate{GroupPredicate("g1"), GroupPredicate("g2")}})
	require.NoError(t, err)

	assert.Equal(t, []string{"u1", "u2", "u3"}, ids(one))
	assert.Equal(t, []string{"u2", "u3"}, ids(both))
	assert.Subset(t, ids(one), ids(both))
}

func TestExecute_GroupAndRole(t *testing.T) {
	dir := newFakeDirectory()
	ms, err := NewExecutor(dir, MatchAll).Execute(context.Background(), "r", &Query{Predicates: []Predicate{
		GroupPredicate("g1"),
		RolePredicate("r1"),
		FieldPredicate(FieldUsername, "c%"),
	}})

	require.NoError(t, err)
	assert.Equal(t, []string{"charlie"}, usernames(ms))
	assert.NotContains(t, dir.calls, "list")
}

func TestExecute_EmptyIntersectionShortCircuits(t *testing.T) {
	dir := newFakeDirectory()
	ms, err := NewExecutor(dir, MatchAll).Execute(context.Background(), "r", &Query{Predicates: []Predicate{
		GroupPredicate("unknown"),
		RolePredicate("r1"),
	}})

	require.NoError(t, err)
	assert.Empty(t, ms)
	assert.Equal(t, []string{"group:unknown"}, dir.calls)
}

func TestExecute_UnknownRoleMatchesNothing(t *testing.T) {
	dir := newFakeDirectory()
	ms, err := NewExecutor(dir, MatchAll).Execute(context.Background(), "r", &Query{Predicates: []Predicate{
		RolePredicate("123879834564"),
	}})

	require.NoError(t, err)
	assert.Empty(t, ms)
}

func TestExecute_MatchAnyUnionsWithinKind(t *testing.T) {
	dir := newFakeDirectory()
	ms, err := NewExecutor(dir, MatchAny).Execute(context.Background(), "r", &Query{Predicates: []Predicate{
		GroupPredicate("g2"),
		GroupPredicate("g3"),
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"u4", "u2", "u3"}, ids(ms))

	ms, err = NewExecutor(dir, MatchAny).Execute(context.Background(), "r", &Query{Predicates: []Predicate{
		GroupPredicate("g1"),
		RolePredicate("r1"),
		RolePredicate("r2"),
	}})
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u3"}, ids(ms))
}

func TestExecute_CancelledContextSkipsDirectory(t *testing.T) {
	dir := newFakeDirectory()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ms, err := NewExecutor(dir, MatchAll).Execute(ctx, "r", &Query{Predicates: []Predicate{GroupPredicate("g1")}})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, ms)
	assert.Empty(t, dir.calls)
}

func TestExecute_DirectoryErrorPropagates(t *testing.T) {
	boom := errors.New("connection refused")
	dir := newFakeDirectory()
	dir.err = boom

	_, err := NewExecutor(dir, MatchAll).Execute(context.Background(), "r", &Query{})
	assert.ErrorIs(t, err, boom)

	_, err = NewExecutor(dir, MatchAll).Execute(context.Background(), "r", &Query{Predicates: []Predicate{GroupPredicate("g1")}})
	assert.ErrorIs(t, err, boom)
}

func TestParseMatchMode(t *testing.T) {
	mode, err := ParseMatchMode("")
	require.NoError(t, err)
	assert.Equal(t, MatchAll, mode)

	mode, err = ParseMatchMode("any")
	require.NoError(t, err)
	assert.Equal(t, MatchAny, mode)

	_, err = ParseMatchMode("some")
	assert.Error(t, err)
}
