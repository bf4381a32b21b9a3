package model

import "errors"

var (
	ErrRoadmapNotFound = errors.New("roadmap not found")
	ErrRoadmapExists   = errors.New("roadmap already exists")
	ErrInvalidName     = errors.New("roadmap name must not be empty")
	ErrTaskNotFound    = errors.New("task not found")
	ErrInvalidTask     = errors.New("invalid task")
	ErrNotCompleted    = errors.New("task not completed")
)
