package services

import (
	"io"
	"log/slog"
	"testing"

	"github.com/BradenHooton/realmadmin/internal/repositories"
	"github.com/stretchr/testify/require"
)

// NewTestDirectory loads the shared test realm fixture into an in-memory directory
func NewTestDirectory(t *testing.T) *repositories.InMemoryDirectory {
	t.Helper()
	f, err := repositories.LoadFixture("../repositories/testdata/test-realm.json")
	require.NoError(t, err)

	dir := repositories.NewInMemoryDirectory()
	dir.Load(f)
	return dir
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
