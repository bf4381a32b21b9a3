package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setup writes a config and roles file into a temp data directory
func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	cfg := "data_dir: " + dir + "\nlog:\n  level: error\n"
	cfgPath := filepath.Join(dir, "trailmap.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	roles := `tenants:
  guild1:
    admin: [role-web]
    u1: [role-web]
    u2: [role-web]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "roles.yaml"), []byte(roles), 0o644))
	return cfgPath
}

func run(t *testing.T, cfgPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", cfgPath, "--tenant", "guild1"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestWorkflow(t *testing.T) {
	cfg := setup(t)

	out, err := run(t, cfg, "--user", "admin", "create", "Web Dev", "--role", "role-web")
	require.NoError(t, err, out)
	assert.Contains(t, out, `Created roadmap "Web Dev"`)

	schedule := filepath.Join(t.TempDir(), "schedule.yaml")
	require.NoError(t, os.WriteFile(schedule, []byte(`weeks:
  - - title: HTML basics
      topic: HTML
    - title: CSS layout
      topic: CSS
  - - title: JavaScript
tasks:
  - title: Capstone
    week: 4
`), 0o644))

	out, err = run(t, cfg, "import", "web dev", schedule)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Imported 4 tasks")

	out, err = run(t, cfg, "--user", "u1", "done", "1")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Task 1 completed")

	out, err = run(t, cfg, "--user", "u1", "done", "2", "--roadmap", "Web Dev")
	require.NoError(t, err, out)

	out, err = run(t, cfg, "--user", "u1", "progress")
	require.NoError(t, err, out)
	assert.Contains(t, out, "50% complete")
	assert.Contains(t, out, "2 out of 4 tasks completed")

	out, err = run(t, cfg, "--user", "u2", "done", "1")
	require.NoError(t, err, out)

	out, err = run(t, cfg, "leaderboard")
	require.NoError(t, err, out)
	assert.Contains(t, out, "1. u1")
	assert.Contains(t, out, "2. u2")

	out, err = run(t, cfg, "remove-task", "Web Dev", "1")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Deleted task 1: HTML basics")

	out, err = run(t, cfg, "--user", "u1", "show", "Web Dev")
	require.NoError(t, err, out)
	assert.Contains(t, out, "1. CSS layout")
}

func TestImportInvalidTaskWritesNothing(t *testing.T) {
	cfg := setup(t)

	_, err := run(t, cfg, "--user", "admin", "create", "Web", "--role", "role-web")
	require.NoError(t, err)

	schedule := filepath.Join(t.TempDir(), "schedule.yaml")
	require.NoError(t, os.WriteFile(schedule, []byte(`weeks:
  - - title: HTML
tasks:
  - title: ""
`), 0o644))

	out, err := run(t, cfg, "import", "Web", schedule)
	assert.Error(t, err)
	assert.Contains(t, out, "invalid task")

	out, err = run(t, cfg, "--user", "u1", "show", "Web")
	require.NoError(t, err, out)
	assert.NotContains(t, out, "HTML")
	assert.Contains(t, out, "No tasks to show.")
}

func TestAccessDenied(t *testing.T) {
	cfg := setup(t)

	_, err := run(t, cfg, "--user", "admin", "create", "Ops", "--role", "role-ops")
	require.NoError(t, err)
	_, err = run(t, cfg, "add", "Ops", "Docker")
	require.NoError(t, err)

	out, err := run(t, cfg, "--user", "u1", "done", "1", "--roadmap", "Ops")
	assert.Error(t, err)
	assert.Contains(t, out, "access denied")
}

func TestUserRequired(t *testing.T) {
	cfg := setup(t)

	_, err := run(t, cfg, "create", "Web", "--role", "role-web")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, filepath.Join(t.TempDir(), "unused.yaml"), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "trailmap v"+version)
}
