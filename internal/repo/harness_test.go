package repo

import (
	"context"
	"testing"
	"time"

	dom "taskmanager/internal/domain"
	"taskmanager/internal/storetest"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// harness is one store driver under test. Every case runs against gorm/sqlite
// and, when TEST_DATABASE_URL is set, against Postgres.
type harness struct {
	tasks  TaskRepo
	users  UserRepo
	setNow func(func() time.Time)
	drop   func(userID string)
}

// owner creates a user to own test tasks and removes it (and its tasks) afterwards.
func (h harness) owner(t *testing.T) string {
	t.Helper()
	u, err := h.users.Create(context.Background(), dom.User{
		ID:           uuid.NewString(),
		Username:     "user-" + uuid.NewString(),
		PasswordHash: "hash",
	})
	require.NoError(t, err)
	if h.drop != nil {
		t.Cleanup(func() { h.drop(u.ID) })
	}
	return u.ID
}

func forEachStore(t *testing.T, fn func(t *testing.T, h harness)) {
	t.Run("gorm", func(t *testing.T) {
		db := storetest.NewDB(t)
		tasks := NewGormTaskRepo(db)
		fn(t, harness{
			tasks:  tasks,
			users:  NewGormUserRepo(db),
			setNow: func(now func() time.Time) { tasks.now = now },
		})
	})
	t.Run("postgres", func(t *testing.T) {
		pool := storetest.NewPGPool(t)
		tasks := NewPGTaskRepo(pool)
		fn(t, harness{
			tasks:  tasks,
			users:  NewPGUserRepo(pool),
			setNow: func(now func() time.Time) { tasks.now = now },
			drop: func(id string) {
				_, _ = pool.Exec(context.Background(), `DELETE FROM users WHERE id = $1`, id)
			},
		})
	})
}
