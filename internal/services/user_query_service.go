package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/BradenHooton/realmadmin/internal/models"
	"github.com/BradenHooton/realmadmin/internal/query"
)

// Directory is the read interface over realms, users, groups and clients
type Directory interface {
	query.Directory
	GetUser(ctx context.Context, realmID, id string) (*models.User, error)
	ListGroups(ctx context.Context, realmID string) ([]*models.Group, error)
	GetRealmByName(ctx context.Context, name string) (*models.Realm, error)
	GetClient(ctx context.Context, realmID, clientID string) (*models.Client, error)
}

// samlNameIDPrefix marks the persistent SAML name-id attributes exposed on user detail.
const samlNameIDPrefix = "saml.persistent.name.id.for."

// UserQueryService evaluates user queries for the admin API
type UserQueryService struct {
	dir      Directory
	executor *query.Executor
	opts     query.ParseOptions
	logger   *slog.Logger
}

// NewUserQueryService creates a new UserQueryService
func NewUserQueryService(dir Directory, mode query.MatchMode, opts query.ParseOptions, logger *slog.Logger) *UserQueryService {
	if opts.DefaultPageSize <= 0 {
		opts.DefaultPageSize = query.DefaultPageSize
	}
	return &UserQueryService{
		dir:      dir,
		executor: query.NewExecutor(dir, mode),
		opts:     opts,
		logger:   logger,
	}
}

// QueryUsers parses params, evaluates them against the realm and returns the requested page.
func (s *UserQueryService) QueryUsers(ctx context.Context, realmName string, params url.Values) (*query.Page, error) {
	q, err := query.ParseParams(params, s.opts)
	if err != nil {
		s.logger.Info("rejected user query", slog.String("realm", realmName), slog.Any("error", err))
		return nil, err
	}

	realm, err := s.lookupRealm(ctx, realmName)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown realm %q", models.ErrInvalidParameter, realmName)
		}
		return nil, err
	}

	matches, err := s.executor.Execute(ctx, realm.ID, q)
	if err != nil {
		s.logger.Error("user query failed",
			slog.String("realm", realm.Name),
			slog.Int("predicates", len(q.Predicates)),
			slog.Any("error", err))
		return nil, unavailable(err)
	}

	page := query.Paginate(matches, q.First, q.Max)
	s.logger.Debug("user query evaluated",
		slog.String("realm", realm.Name),
		slog.Int("predicates", len(q.Predicates)),
		slog.Int("count", page.Count),
		slog.Int("returned", len(page.Users)))

	return &page, nil
}

// GetUser returns one user of the realm. Persistent SAML name-id attributes are
// reduced to their first value.
func (s *UserQueryService) GetUser(ctx context.Context, realmName, userID string) (*models.User, error) {
	realm, err := s.lookupRealm(ctx, realmName)
	if err != nil {
		return nil, err
	}

	user, err := s.dir.GetUser(ctx, realm.ID, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NotFound("User not found")
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, unavailable(err)
	}

	return withNameIDAttributes(user), nil
}

func (s *UserQueryService) lookupRealm(ctx context.Context, realmName string) (*models.Realm, error) {
	if strings.TrimSpace(realmName) == "" {
		return nil, models.NotFound("Realm not found")
	}

	realm, err := s.dir.GetRealmByName(ctx, realmName)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NotFound("Realm not found")
		}
		s.logger.Error("failed to resolve realm", slog.String("realm", realmName), slog.Any("error", err))
		return nil, unavailable(err)
	}
	return realm, nil
}

func withNameIDAttributes(user *models.User) *models.User {
	var reduced map[string][]string
	for name, values := range user.Attributes {
		if strings.HasPrefix(name, samlNameIDPrefix) && len(values) > 1 {
			if reduced == nil {
				reduced = make(map[string][]string, len(user.Attributes))
				for k, v := range user.Attributes {
					reduced[k] = v
				}
			}
			reduced[name] = values[:1:1]
		}
	}
	if reduced == nil {
		return user
	}
	clone := *user
	clone.Attributes = reduced
	return &clone
}

// unavailable maps directory and cancellation failures to ErrDirectoryUnavailable.
func unavailable(err error) error {
	if errors.Is(err, models.ErrDirectoryUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", models.ErrDirectoryUnavailable, err)
}
