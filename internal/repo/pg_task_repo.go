package repo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	dom "taskmanager/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, user_id, title, description, status, priority, due_date, created_at, updated_at`

// PGTaskRepo implements TaskRepo on Postgres. Timestamps come from the repo
// clock, not NOW(), so both store drivers stamp rows the same way.
type PGTaskRepo struct {
	db  *pgxpool.Pool
	now func() time.Time
}

func NewPGTaskRepo(db *pgxpool.Pool) *PGTaskRepo {
	return &PGTaskRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *PGTaskRepo) Create(ctx context.Context, t dom.Task) (dom.Task, error) {
	query := `
		INSERT INTO tasks (id, user_id, title, description, status, priority, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		RETURNING ` + taskColumns
	row := r.db.QueryRow(ctx, query,
		t.ID, t.UserID, t.Title, t.Description, string(t.Status), string(t.Priority), utcPtr(t.DueDate), r.now())
	return scanTask(row)
}

func (r *PGTaskRepo) GetByID(ctx context.Context, ownerID, id string) (dom.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`
	t, err := scanTask(r.db.QueryRow(ctx, query, id, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return dom.Task{}, ErrNotFound
	}
	return t, err
}

func (r *PGTaskRepo) Update(ctx context.Context, t dom.Task) (dom.Task, error) {
	query := `
		UPDATE tasks
		SET title = $3, description = $4, status = $5, priority = $6, due_date = $7, updated_at = $8
		WHERE id = $1 AND user_id = $2
		RETURNING ` + taskColumns
	out, err := scanTask(r.db.QueryRow(ctx, query,
		t.ID, t.UserID, t.Title, t.Description, string(t.Status), string(t.Priority), utcPtr(t.DueDate), r.now()))
	if errors.Is(err, pgx.ErrNoRows) {
		return dom.Task{}, ErrNotFound
	}
	return out, err
}

func (r *PGTaskRepo) Delete(ctx context.Context, ownerID, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGTaskRepo) Find(ctx context.Context, q Query) ([]dom.Task, error) {
	where, args := pgWhere(q.OwnerID, q.Where)
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + where + ` ORDER BY ` + orderBy(q.Sort)
	if q.Limit > 0 {
		args = append(args, q.Limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := make([]dom.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *PGTaskRepo) Count(ctx context.Context, ownerID string, preds []Predicate) (int64, error) {
	where, args := pgWhere(ownerID, preds)
	var n int64
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tasks WHERE `+where, args...).Scan(&n)
	return n, err
}

func (r *PGTaskRepo) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// pgWhere renders the owner condition followed by one clause per predicate.
func pgWhere(ownerID string, preds []Predicate) (string, []any) {
	args := []any{ownerID}
	clauses := []string{"user_id = $1"}
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}
	for _, p := range preds {
		switch p := p.(type) {
		case StatusIs:
			clauses = append(clauses, "status = "+next(string(p.Status)))
		case StatusIsNot:
			clauses = append(clauses, "status <> "+next(string(p.Status)))
		case PriorityIs:
			clauses = append(clauses, "priority = "+next(string(p.Priority)))
		case TextMatch:
			n := next(likePattern(p.Term))
			clauses = append(clauses, fmt.Sprintf(`(title ILIKE %[1]s ESCAPE '\' OR description ILIKE %[1]s ESCAPE '\')`, n))
		case DueBefore:
			clauses = append(clauses, "due_date < "+next(p.Time.UTC()))
		case UpdatedBetween:
			from := next(p.From.UTC())
			to := next(p.To.UTC())
			clauses = append(clauses, "updated_at >= "+from+" AND updated_at < "+to)
		case CreatedSince:
			clauses = append(clauses, "created_at >= "+next(p.Time.UTC()))
		}
	}
	return strings.Join(clauses, " AND "), args
}

func scanTask(row pgx.Row) (dom.Task, error) {
	var (
		t        dom.Task
		status   string
		priority string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &status, &priority,
		&t.DueDate, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return dom.Task{}, err
	}
	t.Status = dom.Status(status)
	t.Priority = dom.Priority(priority)
	t.DueDate = utcPtr(t.DueDate)
	t.CreatedAt = t.CreatedAt.UTC()
	t.UpdatedAt = t.UpdatedAt.UTC()
	return t, nil
}
