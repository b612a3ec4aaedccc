package taskclient

import (
	"context"
	"sync"
)

const defaultLimit = 10

// Filters are the list filters held by a Store. Empty strings are not sent.
type Filters struct {
	Status   string
	Priority string
	Search   string
	SortBy   string
	Order    string
}

// DefaultFilters sorts newest first with no filtering.
func DefaultFilters() Filters {
	return Filters{SortBy: "createdAt", Order: "DESC"}
}

// Store mirrors the server state a task list screen needs: the current filters
// and page, the last fetched page, the task being viewed and the dashboard stats.
//
// The last page is cached by the encoded request parameters. Every mutation
// drops the cache and refetches from the server rather than patching counts
// locally. A Store is safe for concurrent use; calls are serialized.
type Store struct {
	client *Client

	mu       sync.Mutex
	filters  Filters
	page     int
	limit    int
	cacheKey string
	last     *TaskPage
	current  *Task
	stats    *Stats
}

// NewStore creates a Store. A non-positive limit uses 10.
func NewStore(c *Client, limit int) *Store {
	if limit <= 0 {
		limit = defaultLimit
	}
	return &Store{client: c, filters: DefaultFilters(), page: 1, limit: limit}
}

func (s *Store) Filters() Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// SetFilters replaces the filters and goes back to page 1.
func (s *Store) SetFilters(f Filters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = f
	s.page = 1
}

// ClearFilters restores DefaultFilters and page 1.
func (s *Store) ClearFilters() {
	s.SetFilters(DefaultFilters())
}

// SetPage changes only the page.
func (s *Store) SetPage(page int) {
	if page < 1 {
		page = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.page = page
}

// Params returns the parameters the next Fetch will send.
func (s *Store) Params() ListParams {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.params()
}

func (s *Store) params() ListParams {
	return ListParams{
		Status:   s.filters.Status,
		Priority: s.filters.Priority,
		Search:   s.filters.Search,
		SortBy:   s.filters.SortBy,
		Order:    s.filters.Order,
		Page:     s.page,
		Limit:    s.limit,
	}
}

// Fetch returns the page for the current parameters, from cache when the
// parameters have not changed since the last successful fetch.
func (s *Store) Fetch(ctx context.Context) (TaskPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.params().Values().Encode()
	if s.last != nil && s.cacheKey == key {
		return *s.last, nil
	}
	return s.fetch(ctx)
}

// Refresh refetches the current page, bypassing the cache.
func (s *Store) Refresh(ctx context.Context) (TaskPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetch(ctx)
}

func (s *Store) fetch(ctx context.Context) (TaskPage, error) {
	p := s.params()
	page, err := s.client.ListTasks(ctx, p)
	if err != nil {
		return TaskPage{}, err
	}
	s.last = &page
	s.cacheKey = p.Values().Encode()
	return page, nil
}

// Page returns the last fetched page, if any.
func (s *Store) Page() (TaskPage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return TaskPage{}, false
	}
	return *s.last, true
}

// Get loads one task and makes it the current task.
func (s *Store) Get(ctx context.Context, id string) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.client.GetTask(ctx, id)
	if err != nil {
		return Task{}, err
	}
	s.current = &t
	return t, nil
}

func (s *Store) CurrentTask() (Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return Task{}, false
	}
	return *s.current, true
}

func (s *Store) ClearCurrentTask() {
	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
}

// LoadStats fetches fresh dashboard statistics.
func (s *Store) LoadStats(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadStats(ctx)
}

func (s *Store) loadStats(ctx context.Context) (Stats, error) {
	st, err := s.client.Stats(ctx)
	if err != nil {
		return Stats{}, err
	}
	s.stats = &st
	return st, nil
}

// Stats returns the last loaded statistics, if any.
func (s *Store) Stats() (Stats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stats == nil {
		return Stats{}, false
	}
	return *s.stats, true
}

func (s *Store) Create(ctx context.Context, in CreateTask) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.client.CreateTask(ctx, in)
	if err != nil {
		return Task{}, err
	}
	return t, s.resync(ctx)
}

func (s *Store) Update(ctx context.Context, id string, in UpdateTask) (Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.client.UpdateTask(ctx, id, in)
	if err != nil {
		return Task{}, err
	}
	if s.current != nil && s.current.ID == t.ID {
		s.current = &t
	}
	return t, s.resync(ctx)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.client.DeleteTask(ctx, id); err != nil {
		return err
	}
	if s.current != nil && s.current.ID == id {
		s.current = nil
	}
	return s.resync(ctx)
}

// resync drops the cached page and refetches it together with the stats.
// If the current page was emptied, it steps back to the last page that exists.
func (s *Store) resync(ctx context.Context) error {
	s.last, s.cacheKey = nil, ""
	page, err := s.fetch(ctx)
	if err != nil {
		return err
	}
	if len(page.Tasks) == 0 && s.page > 1 && page.Pagination.TotalPages < s.page {
		s.page = max(page.Pagination.TotalPages, 1)
		if _, err := s.fetch(ctx); err != nil {
			return err
		}
	}
	_, err = s.loadStats(ctx)
	return err
}
