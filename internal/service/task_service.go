package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"taskmanager/internal/cache"
	dom "taskmanager/internal/domain"
	"taskmanager/internal/repo"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CreateInput holds the caller-supplied fields of a new task. Nil means "use the default".
type CreateInput struct {
	Title       string
	Description string
	Status      *dom.Status
	Priority    *dom.Priority
	DueDate     *time.Time
}

// DueDateChange sets the due date; a nil Value clears it.
type DueDateChange struct {
	Value *time.Time
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Title       *string
	Description *string
	Status      *dom.Status
	Priority    *dom.Priority
	DueDate     *DueDateChange
}

// TaskService implements owner-scoped task mutations and single-task reads.
type TaskService struct {
	repo  repo.TaskRepo
	cache *cache.TaskCache
	log   logrus.FieldLogger
	newID func() string
}

// NewTaskService creates a TaskService. If c is nil, there is no list cache to invalidate.
func NewTaskService(r repo.TaskRepo, c *cache.TaskCache, log logrus.FieldLogger) *TaskService {
	return &TaskService{repo: r, cache: c, log: log, newID: uuid.NewString}
}

func (s *TaskService) Create(ctx context.Context, ownerID string, in CreateInput) (dom.Task, error) {
	var ve dom.ValidationError
	if ownerID == "" {
		ve.Add("owner", "owner is required")
	}
	title, err := dom.NormalizeTitle(in.Title)
	if err != nil {
		ve.Add("title", err.Error())
	}
	t := dom.Task{
		ID:          s.newID(),
		UserID:      ownerID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Status:      dom.StatusTodo,
		Priority:    dom.PriorityMedium,
		DueDate:     in.DueDate,
	}
	if in.Status != nil {
		t.Status = *in.Status
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	checkEnums(&ve, t)
	if err := ve.OrNil(); err != nil {
		return dom.Task{}, err
	}

	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return dom.Task{}, &dom.StoreError{Op: "create task", Err: err}
	}
	s.invalidateCache(ctx, ownerID)
	return created, nil
}

func (s *TaskService) Get(ctx context.Context, ownerID, id string) (dom.Task, error) {
	if !validID(ownerID, id) {
		return dom.Task{}, dom.ErrNotFound
	}
	t, err := s.repo.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return dom.Task{}, dom.ErrNotFound
		}
		return dom.Task{}, &dom.StoreError{Op: "get task", Err: err}
	}
	return t, nil
}

// Update applies p to the owner's task. Concurrent updates are last-write-wins.
func (s *TaskService) Update(ctx context.Context, ownerID, id string, p Patch) (dom.Task, error) {
	existing, err := s.Get(ctx, ownerID, id)
	if err != nil {
		return dom.Task{}, err
	}

	var ve dom.ValidationError
	patched := existing
	if p.Title != nil {
		title, err := dom.NormalizeTitle(*p.Title)
		if err != nil {
			ve.Add("title", err.Error())
		}
		patched.Title = title
	}
	if p.Description != nil {
		patched.Description = strings.TrimSpace(*p.Description)
	}
	if p.Status != nil {
		patched.Status = *p.Status
	}
	if p.Priority != nil {
		patched.Priority = *p.Priority
	}
	if p.DueDate != nil {
		patched.DueDate = p.DueDate.Value
	}
	checkEnums(&ve, patched)
	if err := ve.OrNil(); err != nil {
		return dom.Task{}, err
	}

	t, err := s.repo.Update(ctx, patched)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return dom.Task{}, dom.ErrNotFound
		}
		return dom.Task{}, &dom.StoreError{Op: "update task", Err: err}
	}
	s.invalidateCache(ctx, ownerID)
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, ownerID, id string) error {
	if !validID(ownerID, id) {
		return dom.ErrNotFound
	}
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return dom.ErrNotFound
		}
		return &dom.StoreError{Op: "delete task", Err: err}
	}
	s.invalidateCache(ctx, ownerID)
	return nil
}

// Ping checks that the store is reachable.
func (s *TaskService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *TaskService) invalidateCache(ctx context.Context, ownerID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		s.log.WithError(err).WithField("owner", ownerID).Warn("task list cache invalidation failed")
	}
}

func checkEnums(ve *dom.ValidationError, t dom.Task) {
	if t.Status.Rank() < 0 {
		ve.Add("status", "status must be Todo, In Progress, or Completed")
	}
	if t.Priority.Rank() < 0 {
		ve.Add("priority", "priority must be Low, Medium, or High")
	}
}

// validID rejects ids that cannot exist, so malformed ids look like missing ones.
func validID(ownerID, id string) bool {
	if ownerID == "" {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
