package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/BradenHooton/realmadmin/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapPostgresError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"no rows", pgx.ErrNoRows, models.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), models.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, models.ErrConflict},
		{"foreign key", &pgconn.PgError{Code: "23503"}, models.ErrBadRequest},
		{"shutdown", &pgconn.PgError{Code: "57P01"}, models.ErrDirectoryUnavailable},
		{"deadline", context.DeadlineExceeded, models.ErrDirectoryUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, MapPostgresError(tt.in), tt.want)
		})
	}
}

func TestMapPostgresError_Passthrough(t *testing.T) {
	assert.NoError(t, MapPostgresError(nil))

	other := errors.New("boom")
	assert.Equal(t, other, MapPostgresError(other))

	syntax := &pgconn.PgError{Code: "42601"}
	assert.Equal(t, error(syntax), MapPostgresError(syntax))
}
