package background

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BradenHooton/realmadmin/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTarget struct {
	loads []*repositories.Fixture
}

func (r *recordingTarget) Load(f *repositories.Fixture) {
	r.loads = append(r.loads, f)
}

func writeFixture(t *testing.T, path, realm string, modTime time.Time) {
	t.Helper()
	body := `{"realms": [{"id": "r1", "name": "` + realm + `"}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	require.NoError(t, os.Chtimes(path, modTime, modTime))
}

func TestFixtureReloader_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	base := time.Now().Add(-time.Hour)
	writeFixture(t, path, "one", base)

	target := &recordingTarget{}
	fr := NewFixtureReloader(path, target, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Minute, base)

	// unchanged file is skipped
	assert.False(t, fr.reload())
	assert.Empty(t, target.loads)

	writeFixture(t, path, "two", base.Add(time.Minute))
	assert.True(t, fr.reload())
	require.Len(t, target.loads, 1)
	assert.Equal(t, "two", target.loads[0].Realms[0].Name)

	// a broken file keeps the previous contents
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	require.NoError(t, os.Chtimes(path, base.Add(2*time.Minute), base.Add(2*time.Minute)))
	assert.False(t, fr.reload())
	assert.Len(t, target.loads, 1)

	require.NoError(t, os.Remove(path))
	assert.False(t, fr.reload())
}

func TestFixtureReloader_Stop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.json")
	writeFixture(t, path, "one", time.Now())

	fr := NewFixtureReloader(path, &recordingTarget{}, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Hour, time.Now())
	done := make(chan struct{})
	go func() {
		fr.Start(context.Background())
		close(done)
	}()

	fr.Stop()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reloader did not stop")
	}
}
