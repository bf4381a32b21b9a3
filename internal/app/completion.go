package app

import (
	"errors"

	"github.com/dori/trailmap/internal/model"
	"github.com/dori/trailmap/internal/progress"
	"github.com/sirupsen/logrus"
)

// Outcome reports a completion or visibility change. Toggle.Changed is
// false when there was nothing to do.
type Outcome struct {
	Key     string
	Roadmap string
	progress.Toggle
}

// errNoChange aborts update without saving when a toggle was a no-op
var errNoChange = errors.New("no change")

type changeFunc func(r *model.Roadmap, taskID int, userID string) (progress.Toggle, error)

// Complete marks a task done for the member
func (a *App) Complete(tenantID, name string, taskID int, m Member) (Outcome, error) {
	return a.change(tenantID, name, taskID, m, "completed task", func(r *model.Roadmap, id int, user string) (progress.Toggle, error) {
		return progress.ToggleCompletion(r, id, user, true)
	})
}

// Undo removes the member's completion, which also unhides the task
func (a *App) Undo(tenantID, name string, taskID int, m Member) (Outcome, error) {
	return a.change(tenantID, name, taskID, m, "undid task", func(r *model.Roadmap, id int, user string) (progress.Toggle, error) {
		return progress.ToggleCompletion(r, id, user, false)
	})
}

// Hide hides a completed task from the member's own view
func (a *App) Hide(tenantID, name string, taskID int, m Member) (Outcome, error) {
	return a.change(tenantID, name, taskID, m, "hid task", func(r *model.Roadmap, id int, user string) (progress.Toggle, error) {
		return progress.SetHidden(r, id, user, true)
	})
}

// Unhide shows a hidden task again
func (a *App) Unhide(tenantID, name string, taskID int, m Member) (Outcome, error) {
	return a.change(tenantID, name, taskID, m, "unhid task", func(r *model.Roadmap, id int, user string) (progress.Toggle, error) {
		return progress.SetHidden(r, id, user, false)
	})
}

func (a *App) change(tenantID, name string, taskID int, m Member, msg string, fn changeFunc) (Outcome, error) {
	entry, err := a.resolve(tenantID, name, m)
	if err != nil {
		return Outcome{}, err
	}

	var toggle progress.Toggle
	r, err := a.update(entry.Key, func(r *model.Roadmap) error {
		if err := checkAccess(r, m); err != nil {
			return err
		}
		var err error
		toggle, err = fn(r, taskID, m.UserID)
		if err != nil {
			return err
		}
		if !toggle.Changed {
			return errNoChange
		}
		return nil
	})
	if errors.Is(err, errNoChange) {
		return Outcome{Key: entry.Key, Roadmap: entry.Roadmap.Name, Toggle: toggle}, nil
	}
	if err != nil {
		return Outcome{}, err
	}

	a.Log.WithFields(logrus.Fields{
		"key":     entry.Key,
		"task_id": taskID,
		"user_id": m.UserID,
	}).Info(msg)

	return Outcome{Key: entry.Key, Roadmap: r.Name, Toggle: toggle}, nil
}
