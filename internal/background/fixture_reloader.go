package background

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/BradenHooton/realmadmin/internal/repositories"
)

// FixtureTarget receives a freshly loaded fixture
type FixtureTarget interface {
	Load(f *repositories.Fixture)
}

// FixtureReloader periodically reloads the directory fixture when the file changes
type FixtureReloader struct {
	path     string
	target   FixtureTarget
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
	modTime  time.Time
}

// NewFixtureReloader creates a new fixture reloader. loadedAt is the
// modification time of the fixture already loaded into target.
func NewFixtureReloader(path string, target FixtureTarget, logger *slog.Logger, interval time.Duration, loadedAt time.Time) *FixtureReloader {
	return &FixtureReloader{
		path:     path,
		target:   target,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
		modTime:  loadedAt,
	}
}

// Start polls the fixture until Stop is called or ctx is done
func (fr *FixtureReloader) Start(ctx context.Context) {
	ticker := time.NewTicker(fr.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			fr.reload()
		case <-fr.stopCh:
			fr.logger.Info("fixture reloader stopped")
			return
		case <-ctx.Done():
			fr.logger.Info("fixture reloader context cancelled")
			return
		}
	}
}

// reload loads the fixture if it changed since the last successful load. A
// broken file leaves the current contents in place.
func (fr *FixtureReloader) reload() bool {
	info, err := os.Stat(fr.path)
	if err != nil {
		fr.logger.Error("failed to stat directory fixture", slog.String("path", fr.path), slog.Any("error", err))
		return false
	}
	if !info.ModTime().After(fr.modTime) {
		return false
	}

	fixture, err := repositories.LoadFixture(fr.path)
	if err != nil {
		fr.logger.Error("failed to reload directory fixture", slog.String("path", fr.path), slog.Any("error", err))
		return false
	}

	fr.target.Load(fixture)
	fr.modTime = info.ModTime()
	fr.logger.Info("directory fixture reloaded",
		slog.String("path", fr.path),
		slog.Int("realms", len(fixture.Realms)))
	return true
}

// Stop signals the reloader to stop
func (fr *FixtureReloader) Stop() {
	close(fr.stopCh)
}
