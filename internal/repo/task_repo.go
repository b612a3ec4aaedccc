package repo

import (
	"context"

	dom "taskmanager/internal/domain"
)

// TaskRepo is the task record store. Every method is scoped by owner id.
type TaskRepo interface {
	Create(ctx context.Context, t dom.Task) (dom.Task, error)
	GetByID(ctx context.Context, ownerID, id string) (dom.Task, error)
	// Update writes every mutable field of t for the row matching t.ID and t.UserID.
	Update(ctx context.Context, t dom.Task) (dom.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
	Find(ctx context.Context, q Query) ([]dom.Task, error)
	Count(ctx context.Context, ownerID string, where []Predicate) (int64, error)
	Ping(ctx context.Context) error
}
