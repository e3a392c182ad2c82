package repositories

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// Fixture is a JSON realm export loaded by the in-memory directory and the seed command.
type Fixture struct {
	Realms []RealmFixture `json:"realms"`
}

type RealmFixture struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	DisplayName         string          `json:"displayName,omitempty"`
	EmailTheme          string          `json:"emailTheme,omitempty"`
	DefaultLocale       string          `json:"defaultLocale,omitempty"`
	ActionTokenLifespan int             `json:"actionTokenLifespan,omitempty"`
	Users               []UserFixture   `json:"users"`
	Groups              []GroupFixture  `json:"groups"`
	Roles               []RoleFixture   `json:"roles"`
	Clients             []ClientFixture `json:"clients"`
}

type UserFixture struct {
	ID         string              `json:"id"`
	Username   string              `json:"username"`
	Email      string              `json:"email,omitempty"`
	FirstName  string              `json:"firstName,omitempty"`
	LastName   string              `json:"lastName,omitempty"`
	Enabled    bool                `json:"enabled"`
	Attributes map[string][]string `json:"attributes,omitempty"`
	Groups     []string            `json:"groups,omitempty"` // group ids
	Roles      []string            `json:"roles,omitempty"`  // role ids
	CreatedAt  time.Time           `json:"createdAt,omitempty"`
}

type GroupFixture struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	ParentID string   `json:"parentId,omitempty"`
	Roles    []string `json:"roles,omitempty"` // role ids
}

type RoleFixture struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Composites []string `json:"composites,omitempty"` // child role ids
}

type ClientFixture struct {
	ID           string   `json:"id"`
	ClientID     string   `json:"clientId"`
	Enabled      bool     `json:"enabled"`
	RedirectURIs []string `json:"redirectUris,omitempty"`
}

// LoadFixture reads a fixture file and fills in missing ids.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixture %s: %w", path, err)
	}

	f.assignIDs()
	return &f, nil
}

func (f *Fixture) assignIDs() {
	for i := range f.Realms {
		r := &f.Realms[i]
		if r.ID == "" {
			r.ID = uuid.New().String()
		}
		for j := range r.Users {
			if r.Users[j].ID == "" {
				r.Users[j].ID = uuid.New().String()
			}
		}
		for j := range r.Clients {
			if r.Clients[j].ID == "" {
				r.Clients[j].ID = uuid.New().String()
			}
		}
	}
}
