package service

import (
	"context"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"taskmanager/internal/cache"
	dom "taskmanager/internal/domain"
	"taskmanager/internal/repo"
	"taskmanager/internal/storetest"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedRepo counts Count calls and, while armed, blocks after the store read
// until release is closed.
type gatedRepo struct {
	repo.TaskRepo
	counts  atomic.Int64
	armed   atomic.Bool
	read    chan struct{}
	release chan struct{}
}

func (r *gatedRepo) Count(ctx context.Context, ownerID string, preds []repo.Predicate) (int64, error) {
	n, err := r.TaskRepo.Count(ctx, ownerID, preds)
	r.counts.Add(1)
	if r.armed.CompareAndSwap(true, false) {
		close(r.read)
		<-r.release
	}
	return n, err
}

type cachedFixture struct {
	repo    *gatedRepo
	tasks   *TaskService
	queries *TaskQueryEngine
}

func setupCached(t *testing.T) cachedFixture {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	c := cache.NewTaskCache(rdb, time.Minute)

	base := repo.NewGormTaskRepo(storetest.NewDB(t))
	gated := &gatedRepo{TaskRepo: base, read: make(chan struct{}), release: make(chan struct{})}
	log := quietLogger()
	return cachedFixture{
		repo:    gated,
		tasks:   NewTaskService(base, c, log),
		queries: NewTaskQueryEngine(gated, c, log),
	}
}

func TestTaskQueryEngine_CachedListIsInvalidatedByMutations(t *testing.T) {
	f := setupCached(t)
	ctx := context.Background()
	owner := uuid.NewString()

	_, err := f.tasks.Create(ctx, owner, CreateInput{Title: "first"})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		page, err := f.queries.List(ctx, owner, ListParams{})
		require.NoError(t, err)
		assert.EqualValues(t, 1, page.Pagination.Total)
	}
	assert.EqualValues(t, 1, f.repo.counts.Load(), "repeated lists are served from cache")

	created, err := f.tasks.Create(ctx, owner, CreateInput{Title: "second"})
	require.NoError(t, err)
	page, err := f.queries.List(ctx, owner, ListParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Pagination.Total)

	status := dom.StatusCompleted
	_, err = f.tasks.Update(ctx, owner, created.ID, Patch{Status: &status})
	require.NoError(t, err)
	page, err = f.queries.List(ctx, owner, ListParams{Status: ptr(dom.StatusCompleted)})
	require.NoError(t, err)
	assert.Equal(t, []string{"second"}, titles(page.Items))

	require.NoError(t, f.tasks.Delete(ctx, owner, created.ID))
	page, err = f.queries.List(ctx, owner, ListParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Pagination.Total)
}

func TestTaskQueryEngine_ListRacingCreateDoesNotCacheStalePage(t *testing.T) {
	f := setupCached(t)
	ctx := context.Background()
	owner := uuid.NewString()

	f.repo.armed.Store(true)
	type result struct {
		page Page
		err  error
	}
	done := make(chan result, 1)
	go func() {
		p, err := f.queries.List(ctx, owner, ListParams{})
		done <- result{p, err}
	}()

	<-f.repo.read
	_, err := f.tasks.Create(ctx, owner, CreateInput{Title: "Buy milk"})
	require.NoError(t, err)
	close(f.repo.release)

	res := <-done
	require.NoError(t, res.err)
	assert.EqualValues(t, 0, res.page.Pagination.Total, "the racing list saw the store before the write")

	page, err := f.queries.List(ctx, owner, ListParams{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Pagination.Total)
	assert.Equal(t, []string{"Buy milk"}, titles(page.Items))
}

func TestTaskQueryEngine_PagePastEnd(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	owner := uuid.NewString()
	_, err := f.tasks.Create(ctx, owner, CreateInput{Title: "only"})
	require.NoError(t, err)

	for _, pageNo := range []int{2, 1000, math.MaxInt/10 + 2, math.MaxInt} {
		got, err := f.queries.List(ctx, owner, ListParams{Page: pageNo})
		require.NoError(t, err)
		assert.Empty(t, got.Items, "page %d", pageNo)
		assert.NotNil(t, got.Items)
		assert.Equal(t, pageNo, got.Pagination.Page)
		assert.EqualValues(t, 1, got.Pagination.Total)
		assert.Equal(t, 1, got.Pagination.TotalPages)
	}

	got, err := f.queries.List(ctx, owner, ListParams{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, titles(got.Items))
}
