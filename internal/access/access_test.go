package access

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dori/trailmap/internal/model"
	"github.com/dori/trailmap/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededStore(t *testing.T, roadmaps ...[3]string) store.Store {
	t.Helper()
	s := store.NewMemoryStore()
	for _, spec := range roadmaps {
		r, err := model.NewRoadmap(spec[0], spec[1], spec[2], "author")
		require.NoError(t, err)
		require.NoError(t, s.Save(r.Key, r))
	}
	return s
}

func TestHasAccess(t *testing.T) {
	r := &model.Roadmap{Name: "Web", RoleID: "role-web"}

	assert.True(t, HasAccess(r, []string{"role-ops", "role-web"}))
	assert.False(t, HasAccess(r, []string{"role-ops"}))
	assert.False(t, HasAccess(r, nil))
	assert.False(t, HasAccess(nil, []string{"role-web"}))
}

func TestListAccessible(t *testing.T) {
	p := NewPolicy(seededStore(t,
		[3]string{"guild1", "Web", "role-web"},
		[3]string{"guild1", "Ops", "role-ops"},
		[3]string{"guild2", "Web", "role-web"},
	))

	entries, err := p.ListAccessible("guild1", []string{"role-web"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "guild1_web", entries[0].Key)

	entries, err = p.ListAccessible("guild1", []string{"role-web", "role-ops"})
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	entries, err = p.ListAccessible("guild1", nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestResolveDefault(t *testing.T) {
	p := NewPolicy(seededStore(t,
		[3]string{"guild1", "Web", "role-web"},
		[3]string{"guild1", "Ops", "role-ops"},
	))

	t.Run("single", func(t *testing.T) {
		e, err := p.ResolveDefault("guild1", []string{"role-web"})
		require.NoError(t, err)
		assert.Equal(t, "Web", e.Roadmap.Name)
	})

	t.Run("none", func(t *testing.T) {
		_, err := p.ResolveDefault("guild1", []string{"role-qa"})
		assert.ErrorIs(t, err, ErrNoRoadmaps)
	})

	t.Run("ambiguous", func(t *testing.T) {
		_, err := p.ResolveDefault("guild1", []string{"role-web", "role-ops"})
		var ambiguous *AmbiguousError
		require.ErrorAs(t, err, &ambiguous)
		assert.Equal(t, []string{"Ops", "Web"}, ambiguous.Names)
		assert.Contains(t, err.Error(), "Ops, Web")
	})
}

func TestStaticRoles(t *testing.T) {
	roles := NewStaticRoles()
	roles.Set("guild1", "u2", "role-web")
	roles.Set("guild1", "u1", "role-web", "role-ops")
	roles.Set("guild2", "u3", "role-web")

	assert.True(t, roles.HasRole("guild1", "u1", "role-ops"))
	assert.False(t, roles.HasRole("guild1", "u2", "role-ops"))
	assert.False(t, roles.HasRole("guild2", "u1", "role-web"))
	assert.Equal(t, []string{"u1", "u2"}, roles.MembersWithRole("guild1", "role-web"))
	assert.Empty(t, roles.MembersWithRole("guild3", "role-web"))
	assert.Equal(t, []string{"role-web", "role-ops"}, roles.RolesOf("guild1", "u1"))
}

func TestLoadStaticRoles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "roles.yaml")
	content := `tenants:
  guild1:
    u1: [role-web]
    u2: [role-web, role-ops]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	roles, err := LoadStaticRoles(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, roles.MembersWithRole("guild1", "role-ops"))
	assert.Equal(t, []string{"role-web"}, roles.RolesOf("guild1", "u1"))

	missing, err := LoadStaticRoles(filepath.Join(dir, "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, missing.RolesOf("guild1", "u1"))

	require.NoError(t, os.WriteFile(path, []byte("tenants: [oops"), 0o644))
	_, err = LoadStaticRoles(path)
	assert.Error(t, err)
}
