package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/BradenHooton/realmadmin/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgErrorCodes maps SQLSTATE codes onto model sentinels.
var pgErrorCodes = map[string]error{
	"23505": models.ErrConflict,             // unique_violation
	"23503": models.ErrBadRequest,           // foreign_key_violation
	"23502": models.ErrBadRequest,           // not_null_violation
	"57P01": models.ErrDirectoryUnavailable, // admin_shutdown
	"57P03": models.ErrDirectoryUnavailable, // cannot_connect_now
	"53300": models.ErrDirectoryUnavailable, // too_many_connections
}

// MapPostgresError translates driver errors into model sentinels. Unavailability
// keeps the driver error in the chain for logging.
func MapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", models.ErrDirectoryUnavailable, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if sentinel, ok := pgErrorCodes[pgErr.Code]; ok {
			if sentinel == models.ErrDirectoryUnavailable {
				return fmt.Errorf("%w: %v", sentinel, err)
			}
			return sentinel
		}
	}

	return err
}

// WithTransaction runs fn in a transaction, committing when it returns nil.
func (db *DB) WithTransaction(ctx context.Context, fn func(pgx.Tx) error) (err error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return MapPostgresError(err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		} else if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = MapPostgresError(tx.Commit(ctx))
		}
	}()

	return fn(tx)
}
