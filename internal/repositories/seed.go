package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/BradenHooton/realmadmin/internal/database"
	"github.com/BradenHooton/realmadmin/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
)

// Seed writes the fixture into PostgreSQL in one transaction. Existing rows
// with the same ids are left untouched.
func Seed(ctx context.Context, db *database.DB, f *Fixture) error {
	return db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, realm := range f.Realms {
			if err := seedRealm(ctx, tx, realm); err != nil {
				return fmt.Errorf("seed realm %s: %w", realm.Name, err)
			}
		}
		return nil
	})
}

func seedRealm(ctx context.Context, tx pgx.Tx, rf RealmFixture) error {
	lifespan := rf.ActionTokenLifespan
	if lifespan <= 0 {
		lifespan = models.DefaultActionTokenLifespan
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO realms (id, name, display_name, email_theme, default_locale, action_token_lifespan)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), $6)
		ON CONFLICT (id) DO NOTHING
	`, rf.ID, rf.Name, rf.DisplayName, rf.EmailTheme, rf.DefaultLocale, lifespan)
	if err != nil {
		return database.MapPostgresError(err)
	}

	for _, role := range rf.Roles {
		if _, err := tx.Exec(ctx,
			`INSERT INTO roles (id, realm_id, name) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
			role.ID, rf.ID, role.Name,
		); err != nil {
			return database.MapPostgresError(err)
		}
	}
	for _, role := range rf.Roles {
		for _, child := range role.Composites {
			if _, err := tx.Exec(ctx,
				`INSERT INTO composite_roles (parent_role_id, child_role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				role.ID, child,
			); err != nil {
				return database.MapPostgresError(err)
			}
		}
	}

	// Parents are linked in a second pass so fixture order does not matter.
	for _, g := range rf.Groups {
		if _, err := tx.Exec(ctx,
			`INSERT INTO groups (id, realm_id, name) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING`,
			g.ID, rf.ID, g.Name,
		); err != nil {
			return database.MapPostgresError(err)
		}
	}
	for _, g := range rf.Groups {
		if g.ParentID != "" {
			if _, err := tx.Exec(ctx, `UPDATE groups SET parent_id = $1 WHERE id = $2`, g.ParentID, g.ID); err != nil {
				return database.MapPostgresError(err)
			}
		}
		for _, roleID := range g.Roles {
			if _, err := tx.Exec(ctx,
				`INSERT INTO group_roles (group_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				g.ID, roleID,
			); err != nil {
				return database.MapPostgresError(err)
			}
		}
	}

	for _, u := range rf.Users {
		if err := seedUser(ctx, tx, rf.ID, u); err != nil {
			return fmt.Errorf("user %s: %w", u.Username, err)
		}
	}

	for _, c := range rf.Clients {
		if _, err := tx.Exec(ctx, `
			INSERT INTO clients (id, realm_id, client_id, enabled, redirect_uris)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO NOTHING
		`, c.ID, rf.ID, c.ClientID, c.Enabled, pq.Array(c.RedirectURIs)); err != nil {
			return database.MapPostgresError(err)
		}
	}

	return nil
}

func seedUser(ctx context.Context, tx pgx.Tx, realmID string, u UserFixture) error {
	createdAt := u.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := tx.Exec(ctx, `
		INSERT INTO users (id, realm_id, username, email, first_name, last_name, enabled, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, ''), $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, u.ID, realmID, u.Username, u.Email, u.FirstName, u.LastName, u.Enabled, createdAt)
	if err != nil {
		return database.MapPostgresError(err)
	}

	for name, values := range u.Attributes {
		for i, v := range values {
			if _, err := tx.Exec(ctx, `
				INSERT INTO user_attributes (user_id, name, value, position) VALUES ($1, $2, $3, $4)
				ON CONFLICT DO NOTHING
			`, u.ID, name, v, i); err != nil {
				return database.MapPostgresError(err)
			}
		}
	}
	for _, groupID := range u.Groups {
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_groups (user_id, group_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			u.ID, groupID,
		); err != nil {
			return database.MapPostgresError(err)
		}
	}
	for _, roleID := range u.Roles {
		if _, err := tx.Exec(ctx,
			`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			u.ID, roleID,
		); err != nil {
			return database.MapPostgresError(err)
		}
	}
	return nil
}
