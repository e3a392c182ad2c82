package repositories

import (
	"context"
	"fmt"

	"github.com/BradenHooton/realmadmin/internal/database"
	"github.com/BradenHooton/realmadmin/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{pool: db.Pool}
}

const userColumns = `id, realm_id, username, COALESCE(email, ''), COALESCE(first_name, ''), COALESCE(last_name, ''), enabled, created_at`

// rowScanner interface for scanning user rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User

	err := scanner.Scan(
		&user.ID, &user.RealmID, &user.Username, &user.Email,
		&user.FirstName, &user.LastName, &user.Enabled, &user.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

// ListUsers returns every user of the realm with attributes.
func (r *UserRepository) ListUsers(ctx context.Context, realmID string) ([]*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE realm_id = $1`

	rows, err := r.pool.Query(ctx, query, realmID)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	users, err := scanUserRows(rows)
	if err != nil {
		return nil, err
	}
	return users, r.loadAttributes(ctx, users)
}

// UsersByID returns the realm users with the given ids; unknown ids are skipped.
func (r *UserRepository) UsersByID(ctx context.Context, realmID string, ids []string) ([]*models.User, error) {
	if len(ids) == 0 {
		return []*models.User{}, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE realm_id = $1 AND id = ANY($2)`

	rows, err := r.pool.Query(ctx, query, realmID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	users, err := scanUserRows(rows)
	if err != nil {
		return nil, err
	}
	return users, r.loadAttributes(ctx, users)
}

func (r *UserRepository) GetUser(ctx context.Context, realmID, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE realm_id = $1 AND id = $2`

	user, err := scanUserRow(r.pool.QueryRow(ctx, query, realmID, id))
	if err != nil {
		return nil, err
	}

	if err := r.loadAttributes(ctx, []*models.User{user}); err != nil {
		return nil, err
	}
	return user, nil
}

// UsersInGroup returns the members of the group and of all its subgroups.
func (r *UserRepository) UsersInGroup(ctx context.Context, realmID, groupID string) ([]string, error) {
	query := `
		WITH RECURSIVE subtree AS (
			SELECT id FROM groups WHERE realm_id = $1 AND id = $2
			UNION
			SELECT g.id FROM groups g JOIN subtree s ON g.parent_id = s.id
		)
		SELECT DISTINCT ug.user_id FROM user_groups ug JOIN subtree s ON ug.group_id = s.id
	`

	return r.queryIDs(ctx, query, realmID, groupID)
}

// UsersWithRole returns users granted the role directly, through a group (or an
// ancestor of one) or through a composite role.
func (r *UserRepository) UsersWithRole(ctx context.Context, realmID, roleID string) ([]string, error) {
	query := `
		WITH RECURSIVE granting AS (
			SELECT id FROM roles WHERE realm_id = $1 AND id = $2
			UNION
			SELECT cr.parent_role_id FROM composite_roles cr JOIN granting gr ON cr.child_role_id = gr.id
		),
		granting_groups AS (
			SELECT group_id AS id FROM group_roles WHERE role_id IN (SELECT id FROM granting)
			UNION
			SELECT g.id FROM groups g JOIN granting_groups gg ON g.parent_id = gg.id
		)
		SELECT user_id FROM user_roles WHERE role_id IN (SELECT id FROM granting)
		UNION
		SELECT user_id FROM user_groups WHERE group_id IN (SELECT id FROM granting_groups)
	`

	return r.queryIDs(ctx, query, realmID, roleID)
}

func (r *UserRepository) queryIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query membership: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return ids, nil
}

func (r *UserRepository) loadAttributes(ctx context.Context, users []*models.User) error {
	if len(users) == 0 {
		return nil
	}

	byID := make(map[string]*models.User, len(users))
	ids := make([]string, 0, len(users))
	for _, u := range users {
		byID[u.ID] = u
		ids = append(ids, u.ID)
	}

	query := `
		SELECT user_id, name, array_agg(value ORDER BY position)
		FROM user_attributes WHERE user_id = ANY($1)
		GROUP BY user_id, name
	`

	rows, err := r.pool.Query(ctx, query, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to query user attributes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID, name string
		var values []string
		if err := rows.Scan(&userID, &name, pq.Array(&values)); err != nil {
			return fmt.Errorf("failed to scan user attribute: %w", err)
		}
		u := byID[userID]
		if u.Attributes == nil {
			u.Attributes = map[string][]string{}
		}
		u.Attributes[name] = values
	}

	return rows.Err()
}
