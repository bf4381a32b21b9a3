package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dori/trailmap/internal/access"
	"github.com/dori/trailmap/internal/config"
	"github.com/dori/trailmap/internal/model"
	"github.com/dori/trailmap/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tenant = "guild1"

type fixture struct {
	app   *App
	store *store.MemoryStore
	roles *access.StaticRoles
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := store.NewMemoryStore()
	roles := access.NewStaticRoles()
	roles.Set(tenant, "u1", "role-web")
	roles.Set(tenant, "u2", "role-web", "role-ops")
	roles.Set(tenant, "u3", "role-ops")
	return &fixture{app: NewWithStore(s, roles, nil), store: s, roles: roles}
}

func (f *fixture) member(userID string) Member {
	return Member{UserID: userID, RoleIDs: f.roles.RolesOf(tenant, userID)}
}

func (f *fixture) roadmap(t *testing.T, name, roleID string, titles ...string) {
	t.Helper()
	_, err := f.app.CreateRoadmap(tenant, name, roleID, "admin")
	require.NoError(t, err)
	if len(titles) == 0 {
		return
	}
	inputs := make([]model.TaskInput, len(titles))
	for i, title := range titles {
		inputs[i] = model.TaskInput{Title: title}
	}
	_, err = f.app.AddTasks(tenant, name, inputs)
	require.NoError(t, err)
}

func TestCreateRoadmap(t *testing.T) {
	f := newFixture(t)

	r, err := f.app.CreateRoadmap(tenant, "Web Dev", "role-web", "admin")
	require.NoError(t, err)
	assert.Equal(t, "guild1_web dev", r.Key)

	_, err = f.app.CreateRoadmap(tenant, "web dev", "role-ops", "admin")
	assert.ErrorIs(t, err, model.ErrRoadmapExists)

	// another tenant may reuse the name
	_, err = f.app.CreateRoadmap("guild2", "Web Dev", "role-web", "admin")
	assert.NoError(t, err)

	_, err = f.app.CreateRoadmap(tenant, "  ", "role-web", "admin")
	assert.ErrorIs(t, err, model.ErrInvalidName)
}

func TestCompleteAndUndo(t *testing.T) {
	f := newFixture(t)
	f.roadmap(t, "Web", "role-web", "HTML", "CSS")
	u1 := f.member("u1")

	out, err := f.app.Complete(tenant, "", 1, u1)
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, "Web", out.Roadmap)
	assert.Equal(t, []string{"u1"}, out.Task.CompletedBy)

	out, err = f.app.Complete(tenant, "web", 1, u1)
	require.NoError(t, err)
	assert.False(t, out.Changed)

	r, err := f.store.Get("guild1_web")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, r.Tasks[0].CompletedBy)
	_, timed := r.Tasks[0].CompletedAt("u1")
	assert.True(t, timed)

	_, err = f.app.Hide(tenant, "Web", 1, u1)
	require.NoError(t, err)

	out, err = f.app.Undo(tenant, "Web", 1, u1)
	require.NoError(t, err)
	assert.True(t, out.Changed)

	r, err = f.store.Get("guild1_web")
	require.NoError(t, err)
	assert.Empty(t, r.Tasks[0].CompletedBy)
	assert.Empty(t, r.Tasks[0].HiddenBy)

	out, err = f.app.Undo(tenant, "Web", 1, u1)
	require.NoError(t, err)
	assert.False(t, out.Changed)
}

func TestCompleteErrors(t *testing.T) {
	f := newFixture(t)
	f.roadmap(t, "Web", "role-web", "HTML")

	_, err := f.app.Complete(tenant, "Web", 1, f.member("u3"))
	assert.ErrorIs(t, err, access.ErrAccessDenied)

	_, err = f.app.Complete(tenant, "Web", 9, f.member("u1"))
	assert.ErrorIs(t, err, model.ErrTaskNotFound)

	_, err = f.app.Complete(tenant, "Mobile", 1, f.member("u1"))
	assert.ErrorIs(t, err, model.ErrRoadmapNotFound)

	_, err = f.app.Hide(tenant, "Web", 1, f.member("u1"))
	assert.ErrorIs(t, err, model.ErrNotCompleted)

	_, err = f.app.Complete(tenant, "", 1, Member{UserID: "u9"})
	assert.ErrorIs(t, err, access.ErrNoRoadmaps)
}

func TestDefaultRoadmapIsAmbiguous(t *testing.T) {
	f := newFixture(t)
	f.roadmap(t, "Web", "role-web", "HTML")
	f.roadmap(t, "Ops", "role-ops", "Docker")

	_, err := f.app.Complete(tenant, "", 1, f.member("u2"))
	var ambiguous *access.AmbiguousError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, []string{"Ops", "Web"}, ambiguous.Names)

	// u3 only sees Ops
	out, err := f.app.Complete(tenant, "", 1, f.member("u3"))
	require.NoError(t, err)
	assert.Equal(t, "Ops", out.Roadmap)
}

func TestStorageFailureIsReported(t *testing.T) {
	f := newFixture(t)
	f.roadmap(t, "Web", "role-web", "HTML")
	f.store.FailWith = errors.New("disk full")

	_, err := f.app.Complete(tenant, "Web", 1, f.member("u1"))
	assert.ErrorIs(t, err, store.ErrStorage)

	f.store.FailWith = nil
	r, err := f.store.Get("guild1_web")
	require.NoError(t, err)
	assert.Empty(t, r.Tasks[0].CompletedBy)
}

func TestProgressAndStats(t *testing.T) {
	f := newFixture(t)
	f.roadmap(t, "Web", "role-web", "a", "b", "c", "d")
	f.roadmap(t, "Ops", "role-ops", "x", "y")
	u2 := f.member("u2")

	for _, id := range []int{1, 3} {
		_, err := f.app.Complete(tenant, "Web", id, u2)
		require.NoError(t, err)
	}

	rep, err := f.app.Progress(tenant, "Web", u2)
	require.NoError(t, err)
	assert.False(t, rep.IsOverview())
	assert.Equal(t, 2, rep.Completed)
	assert.Equal(t, 4, rep.Total)
	assert.Equal(t, 50, rep.Percentage)

	overview, err := f.app.Progress(tenant, "", u2)
	require.NoError(t, err)
	require.True(t, overview.IsOverview())
	assert.Len(t, overview.Overview, 2)

	st, err := f.app.Stats(tenant, "Web", u2)
	require.NoError(t, err)
	assert.Equal(t, 2, st.User.Completed)
	assert.Equal(t, 2, st.User.Pending)
	assert.True(t, st.User.HasTiming())
	assert.Equal(t, 1, st.User.StreakDays)

	combined, err := f.app.Stats(tenant, "", u2)
	require.NoError(t, err)
	require.NotNil(t, combined.Combined)
	assert.Equal(t, 2, combined.Combined.TotalCompleted)
	assert.Equal(t, 6, combined.Combined.TotalTasks)
	assert.Equal(t, 33, combined.Combined.OverallRate)

	_, err = f.app.Progress(tenant, "Ops", f.member("u1"))
	assert.ErrorIs(t, err, access.ErrAccessDenied)
}

func TestLeaderboard(t *testing.T) {
	f := newFixture(t)

	_, err := f.app.Leaderboard(tenant, "")
	assert.ErrorIs(t, err, access.ErrNoRoadmaps)

	f.roadmap(t, "Web", "role-web", "a", "b", "c", "d")
	for _, id := range []int{1, 2, 3} {
		_, err := f.app.Complete(tenant, "Web", id, f.member("u1"))
		require.NoError(t, err)
	}
	_, err = f.app.Complete(tenant, "Web", 4, f.member("u2"))
	require.NoError(t, err)

	lb, err := f.app.Leaderboard(tenant, "")
	require.NoError(t, err)
	require.Len(t, lb.Standings, 2)
	assert.Equal(t, "u1", lb.Standings[0].UserID)
	assert.Equal(t, 75, lb.Standings[0].CompletionRate)
	assert.Equal(t, 2, lb.Summary.ActiveUsers)
	assert.Equal(t, 2, lb.Summary.AveragePerUser)

	_, err = f.app.Leaderboard(tenant, "Mobile")
	assert.ErrorIs(t, err, model.ErrRoadmapNotFound)
}

func TestShowRoadmapHidesTasks(t *testing.T) {
	f := newFixture(t)
	f.roadmap(t, "Web", "role-web", "a", "b")
	u1 := f.member("u1")

	_, err := f.app.Complete(tenant, "Web", 1, u1)
	require.NoError(t, err)
	_, err = f.app.Hide(tenant, "Web", 1, u1)
	require.NoError(t, err)

	view, err := f.app.ShowRoadmap(tenant, "Web", u1)
	require.NoError(t, err)
	require.Len(t, view.Visible, 1)
	assert.Equal(t, 2, view.Visible[0].ID)
	assert.Equal(t, 50, view.Percentage)

	other, err := f.app.ShowRoadmap(tenant, "Web", f.member("u2"))
	require.NoError(t, err)
	assert.Len(t, other.Visible, 2)

	_, err = f.app.ShowRoadmap(tenant, "Web", f.member("u3"))
	assert.ErrorIs(t, err, access.ErrAccessDenied)

	rows, err := f.app.Interactions(tenant, "Web")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, rows[0].HiddenBy)
}

func TestTaskManagement(t *testing.T) {
	f := newFixture(t)
	f.roadmap(t, "Web", "role-web", "a", "b", "c")

	_, err := f.app.Complete(tenant, "Web", 3, f.member("u1"))
	require.NoError(t, err)

	removed, err := f.app.DeleteTask(tenant, "Web", 2)
	require.NoError(t, err)
	assert.Equal(t, "b", removed.Title)

	r, err := f.store.Get("guild1_web")
	require.NoError(t, err)
	require.Len(t, r.Tasks, 2)
	assert.Equal(t, 2, r.Tasks[1].ID)
	assert.Equal(t, "c", r.Tasks[1].Title)
	assert.Equal(t, []string{"u1"}, r.Tasks[1].CompletedBy)

	title := "C, revised"
	edited, err := f.app.EditTask(tenant, "Web", 2, model.TaskPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, title, edited.Title)

	added, err := f.app.ImportSchedule(tenant, "Web", [][]model.TaskInput{{{Title: "w1"}}, {{Title: "w2"}}}, nil)
	require.NoError(t, err)
	require.Len(t, added, 2)
	assert.Equal(t, 3, added[0].ID)
	assert.Equal(t, 2, added[1].WeekNumber)

	n, err := f.app.EmptyRoadmap(tenant, "Web")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	require.NoError(t, f.app.DeleteRoadmap(tenant, "Web"))
	assert.ErrorIs(t, f.app.DeleteRoadmap(tenant, "Web"), model.ErrRoadmapNotFound)
}

func TestImportScheduleIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	f.roadmap(t, "Web", "role-web")

	_, err := f.app.ImportSchedule(tenant, "Web",
		[][]model.TaskInput{{{Title: "HTML"}}},
		[]model.TaskInput{{Title: ""}})
	assert.ErrorIs(t, err, model.ErrInvalidTask)

	r, err := f.store.Get("guild1_web")
	require.NoError(t, err)
	assert.Empty(t, r.Tasks)
}

func TestOverview(t *testing.T) {
	f := newFixture(t)
	f.roadmap(t, "Web", "role-web", "a", "b")
	_, err := f.app.CreateRoadmap("guild2", "Ops", "role-ops", "admin")
	require.NoError(t, err)

	o, err := f.app.Overview()
	require.NoError(t, err)
	assert.Equal(t, 2, o.Roadmaps)
	assert.Equal(t, 2, o.Tasks)
	assert.Equal(t, 2, o.Tenants)
}

func TestNewUsesFileStoreAndLocks(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.DataDir = dir
	cfg.Storage.Path = filepath.Join(dir, "data.json")

	a, err := New(cfg, access.NewStaticRoles(), nil)
	require.NoError(t, err)

	_, err = a.CreateRoadmap(tenant, "Web", "role-web", "admin")
	require.NoError(t, err)
	assert.False(t, a.LastUpdated().IsZero())

	path, err := a.Backup()
	require.NoError(t, err)
	assert.FileExists(t, path)

	require.NoError(t, a.Close())

	// the lock is released on close
	b, err := New(cfg, access.NewStaticRoles(), nil)
	require.NoError(t, err)
	r, err := b.Store.Get("guild1_web")
	require.NoError(t, err)
	assert.NotNil(t, r)
	require.NoError(t, b.Close())
}

func TestBackupUnsupported(t *testing.T) {
	f := newFixture(t)
	_, err := f.app.Backup()
	assert.ErrorIs(t, err, ErrBackupUnsupported)
	assert.True(t, f.app.LastUpdated().IsZero())
}

func TestConcurrentCompletesAllPersist(t *testing.T) {
	const users = 40

	roles := access.NewStaticRoles()
	for i := 0; i < users; i++ {
		roles.Set(tenant, fmt.Sprintf("u%02d", i), "role-web")
	}
	fs := store.NewFileStore(filepath.Join(t.TempDir(), "data.json"), nil)
	a := NewWithStore(fs, roles, nil)

	_, err := a.CreateRoadmap(tenant, "Web", "role-web", "admin")
	require.NoError(t, err)
	_, err = a.AddTasks(tenant, "Web", []model.TaskInput{{Title: "HTML"}})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, users)
	for i := 0; i < users; i++ {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			m := Member{UserID: userID, RoleIDs: roles.RolesOf(tenant, userID)}
			if _, err := a.Complete(tenant, "Web", 1, m); err != nil {
				errs <- err
			}
		}(fmt.Sprintf("u%02d", i))
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	r, err := fs.Get("guild1_web")
	require.NoError(t, err)
	require.Len(t, r.Tasks, 1)
	assert.Len(t, r.Tasks[0].CompletedBy, users)
}
