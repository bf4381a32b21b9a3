package access

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dori/trailmap/internal/model"
	"github.com/dori/trailmap/internal/store"
)

var (
	// ErrAccessDenied is returned when a member lacks a roadmap's role
	ErrAccessDenied = errors.New("access denied")
	// ErrNoRoadmaps is returned when a member can see no roadmap at all
	ErrNoRoadmaps = errors.New("no accessible roadmaps")
)

// AmbiguousError is returned when a member can see several roadmaps and
// did not name one.
type AmbiguousError struct {
	Names []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("multiple roadmaps available: %s", strings.Join(e.Names, ", "))
}

// RoleResolver answers role membership questions. It is backed by the
// hosting chat platform; the core never checks roles any other way.
type RoleResolver interface {
	HasRole(tenantID, userID, roleID string) bool
	MembersWithRole(tenantID, roleID string) []string
}

// Policy filters roadmaps by role membership
type Policy struct {
	store store.Store
}

// NewPolicy creates a policy reading from s
func NewPolicy(s store.Store) *Policy {
	return &Policy{store: s}
}

// HasAccess returns true if roleIDs contains the roadmap's role
func HasAccess(r *model.Roadmap, roleIDs []string) bool {
	return r != nil && slices.Contains(roleIDs, r.RoleID)
}

// Filter keeps the entries a member with roleIDs may see, in input order
func Filter(entries []store.Entry, roleIDs []string) []store.Entry {
	var out []store.Entry
	for _, e := range entries {
		if HasAccess(e.Roadmap, roleIDs) {
			out = append(out, e)
		}
	}
	return out
}

// ListAccessible returns every roadmap of tenantID whose role is in roleIDs
func (p *Policy) ListAccessible(tenantID string, roleIDs []string) ([]store.Entry, error) {
	all, err := p.store.GetAll()
	if err != nil {
		return nil, err
	}
	return Filter(store.TenantEntries(all, tenantID), roleIDs), nil
}

// ResolveDefault picks the roadmap a member means when they name none. It
// returns ErrNoRoadmaps when nothing is accessible and an *AmbiguousError
// when more than one roadmap is.
func (p *Policy) ResolveDefault(tenantID string, roleIDs []string) (store.Entry, error) {
	entries, err := p.ListAccessible(tenantID, roleIDs)
	if err != nil {
		return store.Entry{}, err
	}

	switch len(entries) {
	case 0:
		return store.Entry{}, ErrNoRoadmaps
	case 1:
		return entries[0], nil
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Roadmap.Name)
	}
	return store.Entry{}, &AmbiguousError{Names: names}
}
