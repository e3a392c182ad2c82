package repositories

import (
	"context"
	"fmt"

	"github.com/BradenHooton/realmadmin/internal/database"
	"github.com/BradenHooton/realmadmin/internal/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type RealmRepository struct {
	pool *pgxpool.Pool
}

func NewRealmRepository(db *database.DB) *RealmRepository {
	return &RealmRepository{pool: db.Pool}
}

func (r *RealmRepository) GetRealmByName(ctx context.Context, name string) (*models.Realm, error) {
	query := `
		SELECT id, name, COALESCE(display_name, ''), COALESCE(email_theme, ''), COALESCE(default_locale, ''), action_token_lifespan
		FROM realms WHERE lower(name) = lower($1)
	`

	var realm models.Realm
	err := r.pool.QueryRow(ctx, query, name).Scan(
		&realm.ID, &realm.Name, &realm.DisplayName, &realm.EmailTheme,
		&realm.DefaultLocale, &realm.ActionTokenLifespan,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &realm, nil
}

func (r *RealmRepository) GetClient(ctx context.Context, realmID, clientID string) (*models.Client, error) {
	query := `
		SELECT id, realm_id, client_id, enabled, redirect_uris
		FROM clients WHERE realm_id = $1 AND client_id = $2
	`

	var client models.Client
	err := r.pool.QueryRow(ctx, query, realmID, clientID).Scan(
		&client.ID, &client.RealmID, &client.ClientID, &client.Enabled,
		pq.Array(&client.RedirectURIs),
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &client, nil
}

func (r *RealmRepository) ListGroups(ctx context.Context, realmID string) ([]*models.Group, error) {
	query := `SELECT id, realm_id, name, COALESCE(parent_id, '') FROM groups WHERE realm_id = $1`

	rows, err := r.pool.Query(ctx, query, realmID)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	groups := make([]*models.Group, 0)
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.RealmID, &g.Name, &g.ParentID); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, &g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return groups, nil
}

// PostgresDirectory serves the directory from PostgreSQL.
type PostgresDirectory struct {
	*UserRepository
	*RealmRepository
}

func NewPostgresDirectory(db *database.DB) *PostgresDirectory {
	return &PostgresDirectory{
		UserRepository:  NewUserRepository(db),
		RealmRepository: NewRealmRepository(db),
	}
}
