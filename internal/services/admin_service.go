package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/BradenHooton/realmadmin/internal/models"
	"github.com/BradenHooton/realmadmin/internal/query"
)

// UserStatisticsResponse contains aggregate user counts for one realm.
type UserStatisticsResponse struct {
	Total     int            `json:"total"`
	Enabled   int            `json:"enabled"`
	Disabled  int            `json:"disabled"`
	WithEmail int            `json:"withEmail"`
	Groups    map[string]int `json:"groups"` // group path -> member count, subgroups included
}

// AdminService aggregates realm data for admin dashboard endpoints.
type AdminService struct {
	dir      Directory
	executor *query.Executor
	logger   *slog.Logger
}

// NewAdminService creates a new AdminService.
func NewAdminService(dir Directory, mode query.MatchMode, logger *slog.Logger) *AdminService {
	return &AdminService{
		dir:      dir,
		executor: query.NewExecutor(dir, mode),
		logger:   logger,
	}
}

// GetUserStatistics counts the realm's users, overall and per group.
func (s *AdminService) GetUserStatistics(ctx context.Context, realmName string) (*UserStatisticsResponse, error) {
	realm, err := s.dir.GetRealmByName(ctx, realmName)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.NotFound("Realm not found")
		}
		s.logger.Error("statistics: failed to resolve realm", slog.String("realm", realmName), slog.Any("error", err))
		return nil, unavailable(err)
	}

	all, err := s.executor.Execute(ctx, realm.ID, &query.Query{})
	if err != nil {
		s.logger.Error("statistics: failed to list users", slog.String("realm", realm.Name), slog.Any("error", err))
		return nil, unavailable(err)
	}

	stats := &UserStatisticsResponse{Total: len(all), Groups: map[string]int{}}
	for _, u := range all {
		if u.Enabled {
			stats.Enabled++
		} else {
			stats.Disabled++
		}
		if u.Email != "" {
			stats.WithEmail++
		}
	}

	groups, err := s.dir.ListGroups(ctx, realm.ID)
	if err != nil {
		s.logger.Error("statistics: failed to list groups", slog.String("realm", realm.Name), slog.Any("error", err))
		return nil, unavailable(err)
	}

	paths := groupPaths(groups)
	for _, g := range groups {
		members, err := s.executor.Execute(ctx, realm.ID, &query.Query{
			Predicates: []query.Predicate{query.GroupPredicate(g.ID)},
		})
		if err != nil {
			s.logger.Error("statistics: failed to count group members",
				slog.String("realm", realm.Name),
				slog.String("group_id", g.ID),
				slog.Any("error", err))
			return nil, unavailable(err)
		}
		stats.Groups[paths[g.ID]] = len(members)
	}

	return stats, nil
}

// groupPaths returns "/parent/child" paths keyed by group id.
func groupPaths(groups []*models.Group) map[string]string {
	byID := make(map[string]*models.Group, len(groups))
	for _, g := range groups {
		byID[g.ID] = g
	}

	paths := make(map[string]string, len(groups))
	var resolve func(g *models.Group, depth int) string
	resolve = func(g *models.Group, depth int) string {
		if p, ok := paths[g.ID]; ok {
			return p
		}
		parent, ok := byID[g.ParentID]
		if !ok || depth > len(groups) {
			return "/" + g.Name
		}
		return resolve(parent, depth+1) + "/" + g.Name
	}

	for _, g := range groups {
		paths[g.ID] = resolve(g, 0)
	}
	return paths
}
