package taskclient

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_FetchIsCachedByParams(t *testing.T) {
	srv, lists := countingServer(t)
	s := NewStore(newClient(t, srv, "alice"), 2)
	ctx := context.Background()

	_, err := s.Fetch(ctx)
	require.NoError(t, err)
	_, err = s.Fetch(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, lists.Load())

	s.SetPage(1)
	_, err = s.Fetch(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, lists.Load(), "same params must hit the cache")

	s.SetFilters(Filters{Status: StatusTodo})
	_, err = s.Fetch(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, lists.Load())

	_, err = s.Refresh(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, lists.Load())
}

func TestStore_MutationsRefetch(t *testing.T) {
	srv, lists := countingServer(t)
	s := NewStore(newClient(t, srv, "alice"), 2)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 3; i++ {
		task, err := s.Create(ctx, CreateTask{Title: fmt.Sprintf("task %d", i)})
		require.NoError(t, err)
		ids = append(ids, task.ID)
	}
	page, ok := s.Page()
	require.True(t, ok)
	assert.EqualValues(t, 3, page.Pagination.Total)
	assert.Equal(t, "task 2", page.Tasks[0].Title)
	st, ok := s.Stats()
	require.True(t, ok)
	assert.EqualValues(t, 3, st.StatusStats.Total)

	before := lists.Load()
	_, err := s.Fetch(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, lists.Load(), "resync leaves a warm cache")

	s.SetPage(2)
	page, err = s.Fetch(ctx)
	require.NoError(t, err)
	require.Len(t, page.Tasks, 1)
	assert.Equal(t, "task 0", page.Tasks[0].Title)

	// Deleting the only task on page 2 steps back to page 1.
	require.NoError(t, s.Delete(ctx, ids[0]))
	assert.Equal(t, 1, s.Params().Page)
	page, _ = s.Page()
	assert.EqualValues(t, 2, page.Pagination.Total)
	assert.Len(t, page.Tasks, 2)

	_, err = s.Get(ctx, ids[1])
	require.NoError(t, err)
	status := StatusCompleted
	_, err = s.Update(ctx, ids[1], UpdateTask{Status: &status})
	require.NoError(t, err)
	cur, ok := s.CurrentTask()
	require.True(t, ok)
	assert.Equal(t, StatusCompleted, cur.Status)
	st, _ = s.Stats()
	assert.EqualValues(t, 1, st.StatusStats.Completed)
	assert.Equal(t, 50, st.CompletionRate)

	require.NoError(t, s.Delete(ctx, ids[1]))
	_, ok = s.CurrentTask()
	assert.False(t, ok)

	err = s.Delete(ctx, ids[1])
	assert.True(t, IsNotFound(err))
}

func TestStore_Filters(t *testing.T) {
	s := NewStore(New("http://unused"), 0)
	assert.Equal(t, DefaultFilters(), s.Filters())
	assert.Equal(t, 10, s.Params().Limit)

	s.SetPage(3)
	s.SetFilters(Filters{Priority: PriorityHigh})
	assert.Equal(t, 1, s.Params().Page)
	assert.Equal(t, PriorityHigh, s.Params().Priority)

	s.SetPage(4)
	assert.Equal(t, PriorityHigh, s.Params().Priority)
	assert.Equal(t, 4, s.Params().Page)

	s.ClearFilters()
	assert.Equal(t, DefaultFilters(), s.Filters())
	assert.Equal(t, 1, s.Params().Page)
}

func TestStore_ConcurrentUse(t *testing.T) {
	srv, _ := countingServer(t)
	s := NewStore(newClient(t, srv, "alice"), 5)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Create(ctx, CreateTask{Title: fmt.Sprintf("t%d", i)})
			assert.NoError(t, err)
			_, err = s.Fetch(ctx)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	page, err := s.Refresh(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 8, page.Pagination.Total)
}
