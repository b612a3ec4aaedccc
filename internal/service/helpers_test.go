package service

import (
	"io"
	"testing"

	"taskmanager/internal/repo"
	"taskmanager/internal/storetest"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	tasks   *TaskService
	queries *TaskQueryEngine
	stats   *TaskStatsEngine
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := storetest.NewDB(t)
	r := repo.NewGormTaskRepo(db)
	log := quietLogger()
	return fixture{
		db:      db,
		tasks:   NewTaskService(r, nil, log),
		queries: NewTaskQueryEngine(r, nil, log),
		stats:   NewTaskStatsEngine(r, nil, 2),
	}
}

func ptr[T any](v T) *T { return &v }
