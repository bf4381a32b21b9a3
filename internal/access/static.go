package access

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// StaticRoles is a RoleResolver over a fixed membership table, loaded from
// YAML for the CLI host:
//
//	tenants:
//	  guild1:
//	    u1: [role-web]
//	    u2: [role-web, role-ops]
type StaticRoles struct {
	mu      sync.RWMutex
	tenants map[string]map[string][]string
}

type rolesFile struct {
	Tenants map[string]map[string][]string `yaml:"tenants"`
}

var _ RoleResolver = (*StaticRoles)(nil)

// NewStaticRoles creates an empty membership table
func NewStaticRoles() *StaticRoles {
	return &StaticRoles{tenants: make(map[string]map[string][]string)}
}

// LoadStaticRoles reads a membership table. A missing file yields an empty table.
func LoadStaticRoles(path string) (*StaticRoles, error) {
	roles := NewStaticRoles()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return roles, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read roles file: %w", err)
	}

	var f rolesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse roles file: %w", err)
	}
	for tenant, members := range f.Tenants {
		for user, ids := range members {
			roles.Set(tenant, user, ids...)
		}
	}
	return roles, nil
}

// Set replaces the roles held by userID in tenantID
func (s *StaticRoles) Set(tenantID, userID string, roleIDs ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.tenants[tenantID]
	if !ok {
		members = make(map[string][]string)
		s.tenants[tenantID] = members
	}
	members[userID] = slices.Clone(roleIDs)
}

// RolesOf returns the roles held by userID in tenantID
func (s *StaticRoles) RolesOf(tenantID, userID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Clone(s.tenants[tenantID][userID])
}

func (s *StaticRoles) HasRole(tenantID, userID, roleID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return slices.Contains(s.tenants[tenantID][userID], roleID)
}

// MembersWithRole returns the holders of roleID, sorted by user ID
func (s *StaticRoles) MembersWithRole(tenantID, roleID string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []string
	for user, ids := range s.tenants[tenantID] {
		if slices.Contains(ids, roleID) {
			out = append(out, user)
		}
	}
	sort.Strings(out)
	return out
}
