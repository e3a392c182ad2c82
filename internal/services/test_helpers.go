package services

import (
	"context"
	"sync"

	"github.com/BradenHooton/realmadmin/internal/auth"
	"github.com/BradenHooton/realmadmin/internal/models"
)

// MockDirectory implements Directory for testing. Unset funcs behave as an empty realm.
type MockDirectory struct {
	ListUsersFunc      func(ctx context.Context, realmID string) ([]*models.User, error)
	UsersByIDFunc      func(ctx context.Context, realmID string, ids []string) ([]*models.User, error)
	UsersInGroupFunc   func(ctx context.Context, realmID, groupID string) ([]string, error)
	UsersWithRoleFunc  func(ctx context.Context, realmID, roleID string) ([]string, error)
	GetUserFunc        func(ctx context.Context, realmID, id string) (*models.User, error)
	ListGroupsFunc     func(ctx context.Context, realmID string) ([]*models.Group, error)
	GetRealmByNameFunc func(ctx context.Context, name string) (*models.Realm, error)
	GetClientFunc      func(ctx context.Context, realmID, clientID string) (*models.Client, error)
}

func (m *MockDirectory) ListUsers(ctx context.Context, realmID string) ([]*models.User, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(ctx, realmID)
	}
	return []*models.User{}, nil
}

func (m *MockDirectory) UsersByID(ctx context.Context, realmID string, ids []string) ([]*models.User, error) {
	if m.UsersByIDFunc != nil {
		return m.UsersByIDFunc(ctx, realmID, ids)
	}
	return []*models.User{}, nil
}

func (m *MockDirectory) UsersInGroup(ctx context.Context, realmID, groupID string) ([]string, error) {
	if m.UsersInGroupFunc != nil {
		return m.UsersInGroupFunc(ctx, realmID, groupID)
	}
	return nil, nil
}

func (m *MockDirectory) UsersWithRole(ctx context.Context, realmID, roleID string) ([]string, error) {
	if m.UsersWithRoleFunc != nil {
		return m.UsersWithRoleFunc(ctx, realmID, roleID)
	}
	return nil, nil
}

func (m *MockDirectory) GetUser(ctx context.Context, realmID, id string) (*models.User, error) {
	if m.GetUserFunc != nil {
		return m.GetUserFunc(ctx, realmID, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockDirectory) ListGroups(ctx context.Context, realmID string) ([]*models.Group, error) {
	if m.ListGroupsFunc != nil {
		return m.ListGroupsFunc(ctx, realmID)
	}
	return []*models.Group{}, nil
}

func (m *MockDirectory) GetRealmByName(ctx context.Context, name string) (*models.Realm, error) {
	if m.GetRealmByNameFunc != nil {
		return m.GetRealmByNameFunc(ctx, name)
	}
	return nil, models.ErrNotFound
}

func (m *MockDirectory) GetClient(ctx context.Context, realmID, clientID string) (*models.Client, error) {
	if m.GetClientFunc != nil {
		return m.GetClientFunc(ctx, realmID, clientID)
	}
	return nil, models.ErrNotFound
}

// MockEmailSender records sent messages
type MockEmailSender struct {
	SendFunc func(ctx context.Context, msg *models.EmailMessage) error

	mu   sync.Mutex
	Sent []*models.EmailMessage
}

func (m *MockEmailSender) Send(ctx context.Context, msg *models.EmailMessage) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(ctx, msg); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, msg)
	return nil
}

// Last returns the most recent message, or nil
func (m *MockEmailSender) Last() *models.EmailMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Sent) == 0 {
		return nil
	}
	return m.Sent[len(m.Sent)-1]
}

// MockActionTokenIssuer implements ActionTokenIssuer for testing
type MockActionTokenIssuer struct {
	IssueFunc func(req auth.ActionTokenRequest) (string, error)
	Requests  []auth.ActionTokenRequest
}

func (m *MockActionTokenIssuer) Issue(req auth.ActionTokenRequest) (string, error) {
	m.Requests = append(m.Requests, req)
	if m.IssueFunc != nil {
		return m.IssueFunc(req)
	}
	return "action-token", nil
}

// NewTestRealm creates a realm for testing
func NewTestRealm(id, name string) *models.Realm {
	return &models.Realm{
		ID:                  id,
		Name:                name,
		DefaultLocale:       "en",
		ActionTokenLifespan: models.DefaultActionTokenLifespan,
	}
}

// NewTestUser creates a user for testing
func NewTestUser(id, username, email string) *models.User {
	return &models.User{
		ID:       id,
		Username: username,
		Email:    email,
		Enabled:  true,
	}
}
