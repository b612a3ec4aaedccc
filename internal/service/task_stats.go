package service

import (
	"context"
	"math"
	"time"

	dom "taskmanager/internal/domain"
	"taskmanager/internal/repo"

	"golang.org/x/sync/errgroup"
)

const (
	recentTaskLimit = 5
	trendDays       = 7
)

type StatusStats struct {
	Todo       int64
	InProgress int64
	Completed  int64
	Total      int64
}

type PriorityStats struct {
	Low    int64
	Medium int64
	High   int64
}

// DayCount is the number of tasks completed on one local calendar day.
type DayCount struct {
	Date  string // 2006-01-02
	Day   string // Mon
	Count int64
}

// Stats is a point-in-time snapshot of one owner's tasks.
type Stats struct {
	StatusStats    StatusStats
	PriorityStats  PriorityStats
	CompletionRate int
	OverdueCount   int64
	RecentTasks    []dom.Task
	CompletedByDay []DayCount
}

// TaskStatsEngine computes dashboard statistics. It never writes and never caches.
type TaskStatsEngine struct {
	repo        repo.TaskRepo
	loc         *time.Location
	now         func() time.Time
	parallelism int
}

// NewTaskStatsEngine creates a TaskStatsEngine whose days are bounded in loc.
func NewTaskStatsEngine(r repo.TaskRepo, loc *time.Location, parallelism int) *TaskStatsEngine {
	if loc == nil {
		loc = time.Local
	}
	if parallelism <= 0 {
		parallelism = 4
	}
	return &TaskStatsEngine{repo: r, loc: loc, now: time.Now, parallelism: parallelism}
}

// Snapshot computes the statistics for ownerID as of a single instant.
func (e *TaskStatsEngine) Snapshot(ctx context.Context, ownerID string) (Stats, error) {
	if ownerID == "" {
		return Stats{}, dom.NewValidationError("owner", "owner is required")
	}
	now := e.now().In(e.loc)

	var st Stats
	st.CompletedByDay = make([]DayCount, trendDays)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism)

	count := func(dst *int64, op string, where ...repo.Predicate) {
		g.Go(func() error {
			n, err := e.repo.Count(ctx, ownerID, where)
			if err != nil {
				return &dom.StoreError{Op: op, Err: err}
			}
			*dst = n
			return nil
		})
	}

	count(&st.StatusStats.Todo, "count todo tasks", repo.StatusIs{Status: dom.StatusTodo})
	count(&st.StatusStats.InProgress, "count in-progress tasks", repo.StatusIs{Status: dom.StatusInProgress})
	count(&st.StatusStats.Completed, "count completed tasks", repo.StatusIs{Status: dom.StatusCompleted})
	count(&st.PriorityStats.Low, "count low priority tasks", repo.PriorityIs{Priority: dom.PriorityLow})
	count(&st.PriorityStats.Medium, "count medium priority tasks", repo.PriorityIs{Priority: dom.PriorityMedium})
	count(&st.PriorityStats.High, "count high priority tasks", repo.PriorityIs{Priority: dom.PriorityHigh})
	count(&st.OverdueCount, "count overdue tasks",
		repo.StatusIsNot{Status: dom.StatusCompleted}, repo.DueBefore{Time: now})

	for i, day := range lastDays(now, trendDays) {
		st.CompletedByDay[i] = DayCount{Date: day.Format("2006-01-02"), Day: day.Format("Mon")}
		next := time.Date(day.Year(), day.Month(), day.Day()+1, 0, 0, 0, 0, day.Location())
		count(&st.CompletedByDay[i].Count, "count tasks completed per day",
			repo.StatusIs{Status: dom.StatusCompleted}, repo.UpdatedBetween{From: day, To: next})
	}

	g.Go(func() error {
		recent, err := e.repo.Find(ctx, repo.Query{
			OwnerID: ownerID,
			Sort:    repo.Sort{Field: repo.SortCreatedAt, Order: repo.Desc},
			Limit:   recentTaskLimit,
		})
		if err != nil {
			return &dom.StoreError{Op: "find recent tasks", Err: err}
		}
		st.RecentTasks = recent
		return nil
	})

	if err := g.Wait(); err != nil {
		return Stats{}, err
	}

	st.StatusStats.Total = st.StatusStats.Todo + st.StatusStats.InProgress + st.StatusStats.Completed
	st.CompletionRate = completionRate(st.StatusStats.Completed, st.StatusStats.Total)
	return st, nil
}

// lastDays returns the local midnights of the n days ending with now's day, oldest first.
func lastDays(now time.Time, n int) []time.Time {
	days := make([]time.Time, n)
	for i := 0; i < n; i++ {
		days[i] = time.Date(now.Year(), now.Month(), now.Day()-(n-1-i), 0, 0, 0, 0, now.Location())
	}
	return days
}

func completionRate(completed, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}
