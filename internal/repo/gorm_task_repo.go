package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	dom "taskmanager/internal/domain"

	"gorm.io/gorm"
)

// taskRow is the gorm mapping of the tasks table.
type taskRow struct {
	ID          string     `gorm:"primaryKey;size:36"`
	UserID      string     `gorm:"size:36;not null;index"`
	Title       string     `gorm:"size:255;not null"`
	Description string     `gorm:"not null;default:''"`
	Status      string     `gorm:"size:16;not null;default:Todo;index"`
	Priority    string     `gorm:"size:16;not null;default:Medium"`
	DueDate     *time.Time
	CreatedAt   time.Time `gorm:"index"`
	UpdatedAt   time.Time
}

func (taskRow) TableName() string {
	return "tasks"
}

func (r taskRow) toDomain() dom.Task {
	t := dom.Task{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		Status:      dom.Status(r.Status),
		Priority:    dom.Priority(r.Priority),
		DueDate:     utcPtr(r.DueDate),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	return t
}

// GormTaskRepo implements TaskRepo on gorm. It backs the sqlite store driver.
type GormTaskRepo struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormTaskRepo(db *gorm.DB) *GormTaskRepo {
	return &GormTaskRepo{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *GormTaskRepo) Create(ctx context.Context, t dom.Task) (dom.Task, error) {
	now := r.now()
	row := taskRow{
		ID:          t.ID,
		UserID:      t.UserID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     utcPtr(t.DueDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return dom.Task{}, err
	}
	return row.toDomain(), nil
}

func (r *GormTaskRepo) GetByID(ctx context.Context, ownerID, id string) (dom.Task, error) {
	var row taskRow
	err := r.db.WithContext(ctx).First(&row, "id = ? AND user_id = ?", id, ownerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dom.Task{}, ErrNotFound
		}
		return dom.Task{}, err
	}
	return row.toDomain(), nil
}

func (r *GormTaskRepo) Update(ctx context.Context, t dom.Task) (dom.Task, error) {
	// A map so zero values (empty description, cleared due date) are written too.
	res := r.db.WithContext(ctx).Model(&taskRow{}).
		Where("id = ? AND user_id = ?", t.ID, t.UserID).
		Updates(map[string]any{
			"title":       t.Title,
			"description": t.Description,
			"status":      string(t.Status),
			"priority":    string(t.Priority),
			"due_date":    utcPtr(t.DueDate),
			"updated_at":  r.now(),
		})
	if res.Error != nil {
		return dom.Task{}, res.Error
	}
	if res.RowsAffected == 0 {
		return dom.Task{}, ErrNotFound
	}
	return r.GetByID(ctx, t.UserID, t.ID)
}

func (r *GormTaskRepo) Delete(ctx context.Context, ownerID, id string) error {
	res := r.db.WithContext(ctx).Delete(&taskRow{}, "id = ? AND user_id = ?", id, ownerID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormTaskRepo) Find(ctx context.Context, q Query) ([]dom.Task, error) {
	tx := gormWhere(r.db.WithContext(ctx).Model(&taskRow{}), q.OwnerID, q.Where).Order(orderBy(q.Sort))
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	var rows []taskRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	list := make([]dom.Task, len(rows))
	for i := range rows {
		list[i] = rows[i].toDomain()
	}
	return list, nil
}

func (r *GormTaskRepo) Count(ctx context.Context, ownerID string, preds []Predicate) (int64, error) {
	var n int64
	err := gormWhere(r.db.WithContext(ctx).Model(&taskRow{}), ownerID, preds).Count(&n).Error
	return n, err
}

func (r *GormTaskRepo) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func gormWhere(tx *gorm.DB, ownerID string, preds []Predicate) *gorm.DB {
	tx = tx.Where("user_id = ?", ownerID)
	for _, p := range preds {
		switch p := p.(type) {
		case StatusIs:
			tx = tx.Where("status = ?", string(p.Status))
		case StatusIsNot:
			tx = tx.Where("status <> ?", string(p.Status))
		case PriorityIs:
			tx = tx.Where("priority = ?", string(p.Priority))
		case TextMatch:
			// sqlite LOWER only folds ASCII; that is the documented limit of this driver.
			pattern := strings.ToLower(likePattern(p.Term))
			tx = tx.Where(`(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\')`, pattern, pattern)
		case DueBefore:
			tx = tx.Where("due_date < ?", p.Time.UTC())
		case UpdatedBetween:
			tx = tx.Where("updated_at >= ? AND updated_at < ?", p.From.UTC(), p.To.UTC())
		case CreatedSince:
			tx = tx.Where("created_at >= ?", p.Time.UTC())
		}
	}
	return tx
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
