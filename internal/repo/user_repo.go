package repo

import (
	"context"
	"errors"
	"time"

	dom "taskmanager/internal/domain"
	"taskmanager/internal/utils"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"
)

// UserRepo provides user persistence.
type UserRepo interface {
	GetByUsername(ctx context.Context, username string) (dom.User, error)
	GetByID(ctx context.Context, id string) (dom.User, error)
	// Create returns ErrDuplicate when the username is taken.
	Create(ctx context.Context, u dom.User) (dom.User, error)
}

// PGUserRepo implements UserRepo with Postgres.
type PGUserRepo struct {
	db *pgxpool.Pool
}

// NewPGUserRepo returns a new PGUserRepo.
func NewPGUserRepo(db *pgxpool.Pool) *PGUserRepo {
	return &PGUserRepo{db: db}
}

// GetByUsername returns the user by username.
func (r *PGUserRepo) GetByUsername(ctx context.Context, username string) (dom.User, error) {
	return r.getOne(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE username = $1`, username)
}

// GetByID returns the user by id.
func (r *PGUserRepo) GetByID(ctx context.Context, id string) (dom.User, error) {
	return r.getOne(ctx, `SELECT id, username, password_hash, created_at FROM users WHERE id = $1`, id)
}

func (r *PGUserRepo) getOne(ctx context.Context, query string, arg any) (dom.User, error) {
	var u dom.User
	err := r.db.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return dom.User{}, ErrNotFound
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return u, err
}

// Create inserts a new user and returns it.
func (r *PGUserRepo) Create(ctx context.Context, u dom.User) (dom.User, error) {
	query := `
		INSERT INTO users (id, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, username, password_hash, created_at`
	var out dom.User
	err := r.db.QueryRow(ctx, query, u.ID, u.Username, u.PasswordHash).Scan(
		&out.ID, &out.Username, &out.PasswordHash, &out.CreatedAt,
	)
	if utils.IsUniqueViolation(err) {
		return dom.User{}, ErrDuplicate
	}
	out.CreatedAt = out.CreatedAt.UTC()
	return out, err
}

type userRow struct {
	ID           string `gorm:"primaryKey;size:36"`
	Username     string `gorm:"size:120;not null;uniqueIndex"`
	PasswordHash string `gorm:"not null"`
	CreatedAt    time.Time
}

func (userRow) TableName() string {
	return "users"
}

// GormUserRepo implements UserRepo on gorm.
type GormUserRepo struct {
	db *gorm.DB
}

// NewGormUserRepo returns a new GormUserRepo.
func NewGormUserRepo(db *gorm.DB) *GormUserRepo {
	return &GormUserRepo{db: db}
}

func (r *GormUserRepo) GetByUsername(ctx context.Context, username string) (dom.User, error) {
	return r.getOne(ctx, "username = ?", username)
}

func (r *GormUserRepo) GetByID(ctx context.Context, id string) (dom.User, error) {
	return r.getOne(ctx, "id = ?", id)
}

func (r *GormUserRepo) getOne(ctx context.Context, cond string, arg any) (dom.User, error) {
	var row userRow
	if err := r.db.WithContext(ctx).First(&row, cond, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dom.User{}, ErrNotFound
		}
		return dom.User{}, err
	}
	return dom.User{ID: row.ID, Username: row.Username, PasswordHash: row.PasswordHash, CreatedAt: row.CreatedAt}, nil
}

func (r *GormUserRepo) Create(ctx context.Context, u dom.User) (dom.User, error) {
	row := userRow{ID: u.ID, Username: u.Username, PasswordHash: u.PasswordHash, CreatedAt: time.Now().UTC()}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if utils.IsUniqueViolation(err) {
			return dom.User{}, ErrDuplicate
		}
		return dom.User{}, err
	}
	return dom.User{ID: row.ID, Username: row.Username, PasswordHash: row.PasswordHash, CreatedAt: row.CreatedAt}, nil
}
