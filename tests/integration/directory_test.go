//go:build integration

package integration

import (
	"context"
	"log/slog"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BradenHooton/realmadmin/internal/models"
	"github.com/BradenHooton/realmadmin/internal/query"
	"github.com/BradenHooton/realmadmin/internal/repositories"
	"github.com/BradenHooton/realmadmin/internal/services"
)

func usernames(users []*models.User) []string {
	names := make([]string, len(users))
	for i, u := range users {
		names[i] = u.Username
	}
	return names
}

func TestPostgresDirectory_QueryScenarios(t *testing.T) {
	svc := services.NewUserQueryService(repositories.NewPostgresDirectory(testDB.DB), query.MatchAll, query.ParseOptions{}, slog.Default())

	tests := []struct {
		name      string
		params    url.Values
		wantCount int
		wantUsers []string
	}{
		{"no filters", url.Values{}, 8, nil},
		{"first page", url.Values{"first": {"0"}, "max": {"3"}}, 8,
			[]string{"john-doh@localhost", "keycloak-user@localhost", "level2groupuser"}},
		{"last partial page", url.Values{"first": {"6"}, "max": {"5"}}, 8,
			[]string{"topgroupuser", "topgroupuser2"}},
		{"page past the end", url.Values{"first": {"20"}}, 8, []string{}},
		{"group", url.Values{"groupId": {"g-top"}}, 2, []string{"topgroupuser", "topgroupuser2"}},
		{"group and role", url.Values{"groupId": {"g-top"}, "roleId": {"r-user"}}, 1, []string{"topgroupuser2"}},
		{"inherited role", url.Values{"roleId": {"r-sample"}}, 1, []string{"rolerichuser"}},
		{"search", url.Values{"search": {"topgroupuser"}}, 2, []string{"topgroupuser", "topgroupuser2"}},
		{"last name exact", url.Values{"lastName": {"=doh"}}, 1, []string{"john-doh@localhost"}},
		{"unknown group", url.Values{"groupId": {"nope"}}, 0, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.QueryUsers(context.Background(), TestRealm, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, page.Count)
			if tt.wantUsers != nil {
				assert.Equal(t, tt.wantUsers, usernames(page.Users))
			}
		})
	}
}

func TestPostgresDirectory_Lookups(t *testing.T) {
	ctx := context.Background()
	dir := repositories.NewPostgresDirectory(testDB.DB)

	realm, err := dir.GetRealmByName(ctx, TestRealm)
	require.NoError(t, err)
	assert.Equal(t, "Test Realm", realm.DisplayName)

	_, err = dir.GetRealmByName(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	user, err := dir.GetUser(ctx, realm.ID, "u-john")
	require.NoError(t, err)
	assert.Equal(t, "john-doh@localhost", user.Email)

	client, err := dir.GetClient(ctx, realm.ID, "test-app")
	require.NoError(t, err)
	assert.True(t, client.Enabled)

	groups, err := dir.ListGroups(ctx, realm.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, groups)
}

func TestPostgresDirectory_SeedIsIdempotent(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testDB.SeedFixture(ctx, TestRealmFixture))

	dir := repositories.NewPostgresDirectory(testDB.DB)
	realm, err := dir.GetRealmByName(ctx, TestRealm)
	require.NoError(t, err)

	users, err := dir.ListUsers(ctx, realm.ID)
	require.NoError(t, err)
	assert.Len(t, users, 8)
}
