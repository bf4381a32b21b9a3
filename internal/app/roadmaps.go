package app

import (
	"fmt"

	"github.com/dori/trailmap/internal/access"
	"github.com/dori/trailmap/internal/model"
	"github.com/dori/trailmap/internal/store"
	"github.com/sirupsen/logrus"
)

// Member identifies a user and the roles they hold in a tenant. Roles are
// resolved by the caller from the hosting platform.
type Member struct {
	UserID  string
	RoleIDs []string
}

// update runs fn on a fresh copy of the roadmap under key and saves the
// result. The app mutex makes the read-modify-write atomic in-process.
func (a *App) update(key string, fn func(r *model.Roadmap) error) (*model.Roadmap, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	r, err := a.Store.Get(key)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: %s", model.ErrRoadmapNotFound, key)
	}

	if err := fn(r); err != nil {
		return nil, err
	}

	if err := a.Store.Save(key, r); err != nil {
		return nil, err
	}
	return r, nil
}

// find returns the named roadmap of a tenant
func (a *App) find(tenantID, name string) (store.Entry, error) {
	key := model.Key(tenantID, name)
	r, err := a.Store.Get(key)
	if err != nil {
		return store.Entry{}, err
	}
	if r == nil {
		return store.Entry{}, fmt.Errorf("%w: %q", model.ErrRoadmapNotFound, name)
	}
	return store.Entry{Key: key, Roadmap: r}, nil
}

// resolve returns the named roadmap, or the member's only accessible
// roadmap when name is empty.
func (a *App) resolve(tenantID, name string, m Member) (store.Entry, error) {
	if name != "" {
		return a.find(tenantID, name)
	}
	return a.policy.ResolveDefault(tenantID, m.RoleIDs)
}

// ListAccessible returns the tenant's roadmaps the member may see
func (a *App) ListAccessible(tenantID string, m Member) ([]store.Entry, error) {
	return a.policy.ListAccessible(tenantID, m.RoleIDs)
}

// CreateRoadmap stores a new empty roadmap
func (a *App) CreateRoadmap(tenantID, name, roleID, createdBy string) (*model.Roadmap, error) {
	r, err := model.NewRoadmap(tenantID, name, roleID, createdBy)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	existing, err := a.Store.Get(r.Key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: %q", model.ErrRoadmapExists, existing.Name)
	}

	if err := a.Store.Save(r.Key, r); err != nil {
		return nil, err
	}

	a.Log.WithFields(logrus.Fields{"key": r.Key, "role_id": roleID, "user_id": createdBy}).Info("created roadmap")
	return r, nil
}

// DeleteRoadmap removes a roadmap and all of its tasks
func (a *App) DeleteRoadmap(tenantID, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	removed, err := a.Store.Delete(model.Key(tenantID, name))
	if err != nil {
		return err
	}
	if !removed {
		return fmt.Errorf("%w: %q", model.ErrRoadmapNotFound, name)
	}
	return nil
}

// EmptyRoadmap drops every task but keeps the roadmap itself
func (a *App) EmptyRoadmap(tenantID, name string) (int, error) {
	var n int
	_, err := a.update(model.Key(tenantID, name), func(r *model.Roadmap) error {
		n = r.Empty()
		return nil
	})
	return n, err
}

// AddTasks appends one or more tasks
func (a *App) AddTasks(tenantID, name string, inputs []model.TaskInput) ([]model.Task, error) {
	var added []model.Task
	_, err := a.update(model.Key(tenantID, name), func(r *model.Roadmap) error {
		var err error
		added, err = r.AddTasks(inputs)
		return err
	})
	return added, err
}

// ImportSchedule adds tasks grouped by week plus ungrouped tasks in one
// save. An invalid input leaves the roadmap unchanged.
func (a *App) ImportSchedule(tenantID, name string, weeks [][]model.TaskInput, tasks []model.TaskInput) ([]model.Task, error) {
	var added []model.Task
	_, err := a.update(model.Key(tenantID, name), func(r *model.Roadmap) error {
		var err error
		added, err = r.ExpandSchedule(weeks, tasks)
		return err
	})
	return added, err
}

// EditTask changes author-set fields of a task
func (a *App) EditTask(tenantID, name string, taskID int, patch model.TaskPatch) (model.Task, error) {
	var edited model.Task
	_, err := a.update(model.Key(tenantID, name), func(r *model.Roadmap) error {
		var err error
		edited, err = r.EditTask(taskID, patch)
		return err
	})
	return edited, err
}

// DeleteTask removes a task; later tasks move down one ID
func (a *App) DeleteTask(tenantID, name string, taskID int) (model.Task, error) {
	var removed model.Task
	_, err := a.update(model.Key(tenantID, name), func(r *model.Roadmap) error {
		var err error
		removed, err = r.DeleteTask(taskID)
		return err
	})
	if err == nil {
		a.Log.WithFields(logrus.Fields{"key": model.Key(tenantID, name), "task_id": taskID}).Info("deleted task")
	}
	return removed, err
}

// checkAccess fails with access.ErrAccessDenied unless m holds r's role
func checkAccess(r *model.Roadmap, m Member) error {
	if !access.HasAccess(r, m.RoleIDs) {
		return fmt.Errorf("%w: %q requires role %s", access.ErrAccessDenied, r.Name, r.RoleID)
	}
	return nil
}
