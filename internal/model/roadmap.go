package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Roadmap is a named, role-gated list of tasks owned by one tenant
type Roadmap struct {
	Key       string    `json:"key"`
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	TenantID  string    `json:"tenantId"`
	RoleID    string    `json:"roleId"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	Tasks     []Task    `json:"tasks"`
}

// Key builds the store key of a roadmap: tenant ID, underscore, lowercase name.
func Key(tenantID, name string) string {
	return tenantID + "_" + strings.ToLower(strings.TrimSpace(name))
}

// TenantPrefix returns the key prefix shared by all roadmaps of a tenant
func TenantPrefix(tenantID string) string {
	return tenantID + "_"
}

// NewRoadmap creates an empty roadmap with a fresh ID
func NewRoadmap(tenantID, name, roleID, createdBy string) (*Roadmap, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}

	return &Roadmap{
		Key:       Key(tenantID, name),
		ID:        uuid.New().String(),
		Name:      name,
		TenantID:  tenantID,
		RoleID:    roleID,
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
		Tasks:     []Task{},
	}, nil
}

// Normalize fills defaults on every task. Stores call it on load so that
// documents written by older versions get a topic, week and status.
func (r *Roadmap) Normalize() {
	if r.Tasks == nil {
		r.Tasks = []Task{}
	}
	for i := range r.Tasks {
		r.Tasks[i].normalize()
	}
}

// Clone returns a deep copy that shares no slices or maps with r
func (r *Roadmap) Clone() *Roadmap {
	out := *r
	out.Tasks = make([]Task, len(r.Tasks))
	for i, t := range r.Tasks {
		out.Tasks[i] = t.clone()
	}
	return &out
}

// FindTask returns the task with the given ID
func (r *Roadmap) FindTask(id int) (*Task, error) {
	for i := range r.Tasks {
		if r.Tasks[i].ID == id {
			return &r.Tasks[i], nil
		}
	}
	return nil, ErrTaskNotFound
}

// nextID returns the next free task ID
func (r *Roadmap) nextID() int {
	highest := 0
	for _, t := range r.Tasks {
		if t.ID > highest {
			highest = t.ID
		}
	}
	return highest + 1
}

// AddTask appends a task and returns a copy of it
func (r *Roadmap) AddTask(in TaskInput) (Task, error) {
	if err := in.validate(); err != nil {
		return Task{}, err
	}

	now := time.Now().UTC()
	t := Task{
		ID:          r.nextID(),
		Title:       in.Title,
		Topic:       in.Topic,
		WeekNumber:  in.WeekNumber,
		Status:      in.Status,
		Links:       append([]string(nil), in.Links...),
		CompletedBy: []string{},
		HiddenBy:    []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	t.normalize()
	r.Tasks = append(r.Tasks, t)
	return t, nil
}

// AddTasks appends several tasks. Inputs are validated up front so a bad
// entry leaves the roadmap untouched.
func (r *Roadmap) AddTasks(inputs []TaskInput) ([]Task, error) {
	for _, in := range inputs {
		if err := in.validate(); err != nil {
			return nil, err
		}
	}

	added := make([]Task, 0, len(inputs))
	for _, in := range inputs {
		t, err := r.AddTask(in)
		if err != nil {
			return nil, err
		}
		added = append(added, t)
	}
	return added, nil
}

// ExpandSchedule adds one group of tasks per week followed by extra
// ungrouped tasks. Tasks without an explicit week take the 1-based index
// of their group. Nothing is added unless every input is valid.
func (r *Roadmap) ExpandSchedule(weeks [][]TaskInput, extra []TaskInput) ([]Task, error) {
	var flat []TaskInput
	for i, week := range weeks {
		for _, in := range week {
			if in.WeekNumber == 0 {
				in.WeekNumber = i + 1
			}
			flat = append(flat, in)
		}
	}
	return r.AddTasks(append(flat, extra...))
}

// EditTask applies a patch to one task
func (r *Roadmap) EditTask(id int, patch TaskPatch) (Task, error) {
	t, err := r.FindTask(id)
	if err != nil {
		return Task{}, err
	}

	if patch.Title != nil {
		if strings.TrimSpace(*patch.Title) == "" {
			return Task{}, ErrInvalidTask
		}
		t.Title = *patch.Title
	}
	if patch.Topic != nil {
		t.Topic = *patch.Topic
	}
	if patch.WeekNumber != nil {
		if *patch.WeekNumber < 1 {
			return Task{}, ErrInvalidTask
		}
		t.WeekNumber = *patch.WeekNumber
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return Task{}, ErrInvalidTask
		}
		t.Status = *patch.Status
	}
	if patch.Links != nil {
		t.Links = append([]string(nil), patch.Links...)
	}

	t.normalize()
	t.UpdatedAt = time.Now().UTC()
	return *t, nil
}

// DeleteTask removes a task and renumbers every task with a higher ID so
// that IDs stay dense. Per-user data moves with the task.
func (r *Roadmap) DeleteTask(id int) (Task, error) {
	idx := -1
	for i := range r.Tasks {
		if r.Tasks[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Task{}, ErrTaskNotFound
	}

	removed := r.Tasks[idx]
	r.Tasks = append(r.Tasks[:idx], r.Tasks[idx+1:]...)

	now := time.Now().UTC()
	for i := range r.Tasks {
		if r.Tasks[i].ID > id {
			r.Tasks[i].ID--
			r.Tasks[i].UpdatedAt = now
		}
	}
	return removed, nil
}

// Empty removes every task and returns how many were dropped
func (r *Roadmap) Empty() int {
	n := len(r.Tasks)
	r.Tasks = []Task{}
	return n
}
