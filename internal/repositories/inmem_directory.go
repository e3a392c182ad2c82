package repositories

import (
	"context"
	"strings"
	"sync"

	"github.com/BradenHooton/realmadmin/internal/models"
)

// InMemoryDirectory serves realms from a loaded Fixture. Reads take a read lock so
// queries run concurrently with Load.
type InMemoryDirectory struct {
	mu     sync.RWMutex
	realms map[string]*memRealm // by realm id
}

type memRealm struct {
	realm      *models.Realm
	users      map[string]*models.User
	userGroups map[string][]string // user id -> direct group ids
	userRoles  map[string][]string // user id -> direct role ids
	groups     map[string]*models.Group
	groupRoles map[string][]string // group id -> role ids
	roles      map[string]*models.Role
	clients    map[string]*models.Client // by client id
}

// NewInMemoryDirectory creates an empty directory.
func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{realms: map[string]*memRealm{}}
}

// Load replaces the directory contents with the fixture.
func (d *InMemoryDirectory) Load(f *Fixture) {
	realms := make(map[string]*memRealm, len(f.Realms))
	for _, rf := range f.Realms {
		realms[rf.ID] = buildRealm(rf)
	}

	d.mu.Lock()
	d.realms = realms
	d.mu.Unlock()
}

func buildRealm(rf RealmFixture) *memRealm {
	lifespan := rf.ActionTokenLifespan
	if lifespan <= 0 {
		lifespan = models.DefaultActionTokenLifespan
	}

	r := &memRealm{
		realm: &models.Realm{
			ID:                  rf.ID,
			Name:                rf.Name,
			DisplayName:         rf.DisplayName,
			EmailTheme:          rf.EmailTheme,
			DefaultLocale:       rf.DefaultLocale,
			ActionTokenLifespan: lifespan,
		},
		users:      map[string]*models.User{},
		userGroups: map[string][]string{},
		userRoles:  map[string][]string{},
		groups:     map[string]*models.Group{},
		groupRoles: map[string][]string{},
		roles:      map[string]*models.Role{},
		clients:    map[string]*models.Client{},
	}

	for _, uf := range rf.Users {
		r.users[uf.ID] = &models.User{
			ID:         uf.ID,
			RealmID:    rf.ID,
			Username:   uf.Username,
			Email:      uf.Email,
			FirstName:  uf.FirstName,
			LastName:   uf.LastName,
			Enabled:    uf.Enabled,
			Attributes: uf.Attributes,
			CreatedAt:  uf.CreatedAt,
		}
		r.userGroups[uf.ID] = uf.Groups
		r.userRoles[uf.ID] = uf.Roles
	}
	for _, gf := range rf.Groups {
		r.groups[gf.ID] = &models.Group{ID: gf.ID, RealmID: rf.ID, Name: gf.Name, ParentID: gf.ParentID}
		r.groupRoles[gf.ID] = gf.Roles
	}
	for _, rl := range rf.Roles {
		r.roles[rl.ID] = &models.Role{ID: rl.ID, RealmID: rf.ID, Name: rl.Name, Composite: rl.Composites}
	}
	for _, cf := range rf.Clients {
		r.clients[cf.ClientID] = &models.Client{
			ID:           cf.ID,
			RealmID:      rf.ID,
			ClientID:     cf.ClientID,
			Enabled:      cf.Enabled,
			RedirectURIs: cf.RedirectURIs,
		}
	}
	return r
}

func (d *InMemoryDirectory) realm(realmID string) *memRealm {
	return d.realms[realmID]
}

// ListUsers returns every user of the realm.
func (d *InMemoryDirectory) ListUsers(ctx context.Context, realmID string) ([]*models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r := d.realm(realmID)
	if r == nil {
		return []*models.User{}, nil
	}
	users := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	return users, nil
}

// UsersByID returns the realm users with the given ids; unknown ids are skipped.
func (d *InMemoryDirectory) UsersByID(ctx context.Context, realmID string, ids []string) ([]*models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r := d.realm(realmID)
	if r == nil {
		return []*models.User{}, nil
	}
	users := make([]*models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

// GetUser returns a single user or models.ErrNotFound.
func (d *InMemoryDirectory) GetUser(ctx context.Context, realmID, id string) (*models.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r := d.realm(realmID)
	if r == nil {
		return nil, models.ErrNotFound
	}
	u, ok := r.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

// UsersInGroup returns the members of the group and of all its subgroups.
func (d *InMemoryDirectory) UsersInGroup(ctx context.Context, realmID, groupID string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r := d.realm(realmID)
	if r == nil {
		return nil, nil
	}
	if _, ok := r.groups[groupID]; !ok {
		return nil, nil
	}

	subtree := r.subtree(groupID)
	var ids []string
	for userID, groups := range r.userGroups {
		for _, g := range groups {
			if subtree[g] {
				ids = append(ids, userID)
				break
			}
		}
	}
	return ids, nil
}

// UsersWithRole returns users granted the role directly, through a group (or an
// ancestor of one) or through a composite role.
func (d *InMemoryDirectory) UsersWithRole(ctx context.Context, realmID, roleID string) ([]string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r := d.realm(realmID)
	if r == nil {
		return nil, nil
	}
	if _, ok := r.roles[roleID]; !ok {
		return nil, nil
	}

	var ids []string
	for userID := range r.users {
		if r.effectiveRoles(userID)[roleID] {
			ids = append(ids, userID)
		}
	}
	return ids, nil
}

// ListGroups returns every group of the realm.
func (d *InMemoryDirectory) ListGroups(ctx context.Context, realmID string) ([]*models.Group, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r := d.realm(realmID)
	if r == nil {
		return []*models.Group{}, nil
	}
	groups := make([]*models.Group, 0, len(r.groups))
	for _, g := range r.groups {
		groups = append(groups, g)
	}
	return groups, nil
}

// GetRealmByName looks a realm up by name.
func (d *InMemoryDirectory) GetRealmByName(ctx context.Context, name string) (*models.Realm, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	for _, r := range d.realms {
		if strings.EqualFold(r.realm.Name, name) {
			return r.realm, nil
		}
	}
	return nil, models.ErrNotFound
}

// GetClient looks a client up by its client id.
func (d *InMemoryDirectory) GetClient(ctx context.Context, realmID, clientID string) (*models.Client, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	r := d.realm(realmID)
	if r == nil {
		return nil, models.ErrNotFound
	}
	c, ok := r.clients[clientID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return c, nil
}

// subtree returns the group and all of its descendants.
func (r *memRealm) subtree(groupID string) map[string]bool {
	children := map[string][]string{}
	for _, g := range r.groups {
		if g.ParentID != "" {
			children[g.ParentID] = append(children[g.ParentID], g.ID)
		}
	}

	seen := map[string]bool{groupID: true}
	queue := []string{groupID}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, c := range children[id] {
			if !seen[c] {
				seen[c] = true
				queue = append(queue, c)
			}
		}
	}
	return seen
}

// effectiveRoles expands a user's direct and group roles through composites.
func (r *memRealm) effectiveRoles(userID string) map[string]bool {
	var pending []string
	pending = append(pending, r.userRoles[userID]...)

	visited := map[string]bool{}
	for _, groupID := range r.userGroups[userID] {
		for g := r.groups[groupID]; g != nil && !visited[g.ID]; g = r.groups[g.ParentID] {
			visited[g.ID] = true
			pending = append(pending, r.groupRoles[g.ID]...)
			if g.ParentID == "" {
				break
			}
		}
	}

	granted := map[string]bool{}
	for len(pending) > 0 {
		id := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if granted[id] {
			continue
		}
		granted[id] = true
		if role, ok := r.roles[id]; ok {
			pending = append(pending, role.Composite...)
		}
	}
	return granted
}
