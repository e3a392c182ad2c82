//go:build integration

package integration

const (
	// TestRealmFixture is the realm export seeded into every test database
	TestRealmFixture = "../../internal/repositories/testdata/test-realm.json"

	TestRealm = "test"

	AdminClientID     = "admin-cli"
	AdminClientSecret = "integration-admin-secret"

	JWTSecret    = "test-secret-32-characters-long-for-testing"
	ActionSecret = "action-secret-32-characters-long-test"
	PublicURL    = "http://localhost:8080"
)
