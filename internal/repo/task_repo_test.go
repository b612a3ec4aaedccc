package repo

import (
	"context"
	"fmt"
	"testing"
	"time"

	dom "taskmanager/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTask(owner, title string) dom.Task {
	return dom.Task{
		ID:       uuid.NewString(),
		UserID:   owner,
		Title:    title,
		Status:   dom.StatusTodo,
		Priority: dom.PriorityMedium,
	}
}

func taskTitles(list []dom.Task) []string {
	out := make([]string, len(list))
	for i, task := range list {
		out[i] = task.Title
	}
	return out
}

func TestTaskRepo_CreateAndGet(t *testing.T) {
	forEachStore(t, func(t *testing.T, h harness) {
		ctx := context.Background()
		owner := h.owner(t)

		due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
		in := newTask(owner, "Buy milk")
		in.Description = "2 litres"
		in.DueDate = &due

		created, err := h.tasks.Create(ctx, in)
		require.NoError(t, err)
		assert.Equal(t, in.ID, created.ID)
		assert.False(t, created.CreatedAt.IsZero())
		assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))
		assert.Equal(t, time.UTC, created.CreatedAt.Location())

		got, err := h.tasks.GetByID(ctx, owner, in.ID)
		require.NoError(t, err)
		assert.Equal(t, in.ID, got.ID)
		assert.Equal(t, owner, got.UserID)
		assert.Equal(t, "Buy milk", got.Title)
		assert.Equal(t, "2 litres", got.Description)
		assert.Equal(t, dom.StatusTodo, got.Status)
		assert.Equal(t, dom.PriorityMedium, got.Priority)
		require.NotNil(t, got.DueDate)
		assert.True(t, due.Equal(*got.DueDate))

		t.Run("other owner sees nothing", func(t *testing.T) {
			_, err := h.tasks.GetByID(ctx, h.owner(t), in.ID)
			assert.ErrorIs(t, err, ErrNotFound)
		})
		t.Run("unknown id", func(t *testing.T) {
			_, err := h.tasks.GetByID(ctx, owner, uuid.NewString())
			assert.ErrorIs(t, err, ErrNotFound)
		})
	})
}

func TestTaskRepo_Update(t *testing.T) {
	forEachStore(t, func(t *testing.T, h harness) {
		ctx := context.Background()
		owner := h.owner(t)

		created, err := h.tasks.Create(ctx, newTask(owner, "Original"))
		require.NoError(t, err)
		later := created.UpdatedAt.Add(time.Minute)
		h.setNow(func() time.Time { return later })

		created.Status = dom.StatusCompleted
		updated, err := h.tasks.Update(ctx, created)
		require.NoError(t, err)
		assert.Equal(t, dom.StatusCompleted, updated.Status)
		assert.Equal(t, "Original", updated.Title)
		assert.True(t, updated.UpdatedAt.Equal(later), "updated_at comes from the repo clock")
		assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))

		t.Run("other owner", func(t *testing.T) {
			foreign := created
			foreign.UserID = h.owner(t)
			foreign.Title = "hijacked"
			_, err := h.tasks.Update(ctx, foreign)
			assert.ErrorIs(t, err, ErrNotFound)

			got, err := h.tasks.GetByID(ctx, owner, created.ID)
			require.NoError(t, err)
			assert.Equal(t, "Original", got.Title)
		})

		t.Run("clears due date", func(t *testing.T) {
			due := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
			created.DueDate = &due
			got, err := h.tasks.Update(ctx, created)
			require.NoError(t, err)
			require.NotNil(t, got.DueDate)

			created.DueDate = nil
			got, err = h.tasks.Update(ctx, created)
			require.NoError(t, err)
			assert.Nil(t, got.DueDate)
		})
	})
}

func TestTaskRepo_Delete(t *testing.T) {
	forEachStore(t, func(t *testing.T, h harness) {
		ctx := context.Background()
		owner := h.owner(t)

		created, err := h.tasks.Create(ctx, newTask(owner, "Disposable"))
		require.NoError(t, err)

		assert.ErrorIs(t, h.tasks.Delete(ctx, h.owner(t), created.ID), ErrNotFound)

		require.NoError(t, h.tasks.Delete(ctx, owner, created.ID))
		_, err = h.tasks.GetByID(ctx, owner, created.ID)
		assert.ErrorIs(t, err, ErrNotFound)

		assert.ErrorIs(t, h.tasks.Delete(ctx, owner, created.ID), ErrNotFound)
	})
}

func TestTaskRepo_FindPredicates(t *testing.T) {
	forEachStore(t, func(t *testing.T, h harness) {
		ctx := context.Background()
		owner := h.owner(t)
		other := h.owner(t)

		mk := func(owner, title, desc string, st dom.Status, pr dom.Priority) {
			task := newTask(owner, title)
			task.Description = desc
			task.Status = st
			task.Priority = pr
			_, err := h.tasks.Create(ctx, task)
			require.NoError(t, err)
		}
		mk(owner, "Write report", "quarterly numbers", dom.StatusTodo, dom.PriorityHigh)
		mk(owner, "Call plumber", "kitchen REPORT leak", dom.StatusInProgress, dom.PriorityLow)
		mk(owner, "Gym", "", dom.StatusCompleted, dom.PriorityMedium)
		mk(owner, "100% done", "literal percent", dom.StatusTodo, dom.PriorityMedium)
		mk(other, "Write report", "someone else's", dom.StatusTodo, dom.PriorityHigh)

		find := func(preds ...Predicate) []dom.Task {
			t.Helper()
			list, err := h.tasks.Find(ctx, Query{OwnerID: owner, Where: preds, Sort: Sort{Field: SortTitle, Order: Asc}})
			require.NoError(t, err)
			for _, task := range list {
				require.Equal(t, owner, task.UserID)
			}
			return list
		}

		assert.Len(t, find(), 4)
		assert.Equal(t, []string{"100% done", "Write report"}, taskTitles(find(StatusIs{dom.StatusTodo})))
		assert.Equal(t, []string{"100% done", "Call plumber", "Write report"}, taskTitles(find(StatusIsNot{dom.StatusCompleted})))
		assert.Equal(t, []string{"Call plumber"}, taskTitles(find(PriorityIs{dom.PriorityLow})))
		assert.Equal(t, []string{"Call plumber", "Write report"}, taskTitles(find(TextMatch{"report"})))
		assert.Equal(t, []string{"Call plumber", "Write report"}, taskTitles(find(TextMatch{"RePoRt"})))
		assert.Equal(t, []string{"Write report"}, taskTitles(find(TextMatch{"report"}, StatusIs{dom.StatusTodo})))
		assert.Equal(t, []string{"100% done"}, taskTitles(find(TextMatch{"%"})))
		assert.Empty(t, find(TextMatch{"_"}))

		n, err := h.tasks.Count(ctx, owner, []Predicate{TextMatch{"REPORT"}})
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		n, err = h.tasks.Count(ctx, other, nil)
		require.NoError(t, err)
		assert.EqualValues(t, 1, n)
	})
}

func TestTaskRepo_FindTimePredicates(t *testing.T) {
	forEachStore(t, func(t *testing.T, h harness) {
		ctx := context.Background()
		owner := h.owner(t)
		base := time.Date(2026, 6, 10, 12, 0, 0, 0, time.UTC)

		for i := 0; i < 3; i++ {
			h.setNow(func() time.Time { return base.Add(time.Duration(i) * 24 * time.Hour) })
			task := newTask(owner, fmt.Sprintf("day %d", i))
			due := base.Add(time.Duration(i-1) * 24 * time.Hour)
			task.DueDate = &due
			_, err := h.tasks.Create(ctx, task)
			require.NoError(t, err)
		}

		count := func(preds ...Predicate) int64 {
			n, err := h.tasks.Count(ctx, owner, preds)
			require.NoError(t, err)
			return n
		}
		assert.EqualValues(t, 1, count(DueBefore{base}))
		assert.EqualValues(t, 2, count(CreatedSince{base.Add(24 * time.Hour)}))
		assert.EqualValues(t, 1, count(UpdatedBetween{From: base.Add(24 * time.Hour), To: base.Add(48 * time.Hour)}))
		// upper bound is exclusive
		assert.EqualValues(t, 0, count(UpdatedBetween{From: base.Add(time.Hour), To: base.Add(24 * time.Hour)}))
	})
}

func TestTaskRepo_SortByRank(t *testing.T) {
	forEachStore(t, func(t *testing.T, h harness) {
		ctx := context.Background()
		owner := h.owner(t)

		for _, p := range []dom.Priority{dom.PriorityMedium, dom.PriorityHigh, dom.PriorityLow} {
			task := newTask(owner, string(p))
			task.Priority = p
			_, err := h.tasks.Create(ctx, task)
			require.NoError(t, err)
		}

		list, err := h.tasks.Find(ctx, Query{OwnerID: owner, Sort: Sort{Field: SortPriority, Order: Asc}})
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []dom.Priority{dom.PriorityLow, dom.PriorityMedium, dom.PriorityHigh},
			[]dom.Priority{list[0].Priority, list[1].Priority, list[2].Priority})

		list, err = h.tasks.Find(ctx, Query{OwnerID: owner, Sort: Sort{Field: SortPriority, Order: Desc}})
		require.NoError(t, err)
		assert.Equal(t, dom.PriorityHigh, list[0].Priority)
	})
}

func TestTaskRepo_SortTitleIgnoresCase(t *testing.T) {
	forEachStore(t, func(t *testing.T, h harness) {
		ctx := context.Background()
		owner := h.owner(t)

		for _, title := range []string{"banana", "Cherry", "apple", "Apricot"} {
			_, err := h.tasks.Create(ctx, newTask(owner, title))
			require.NoError(t, err)
		}

		list, err := h.tasks.Find(ctx, Query{OwnerID: owner, Sort: Sort{Field: SortTitle, Order: Asc}})
		require.NoError(t, err)
		assert.Equal(t, []string{"apple", "Apricot", "banana", "Cherry"}, taskTitles(list))
	})
}

func TestTaskRepo_SortDueDateNullsLast(t *testing.T) {
	forEachStore(t, func(t *testing.T, h harness) {
		ctx := context.Background()
		owner := h.owner(t)
		early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		late := early.AddDate(0, 1, 0)

		for _, d := range []*time.Time{nil, &late, &early} {
			task := newTask(owner, "t")
			task.DueDate = d
			_, err := h.tasks.Create(ctx, task)
			require.NoError(t, err)
		}

		for _, order := range []SortOrder{Asc, Desc} {
			list, err := h.tasks.Find(ctx, Query{OwnerID: owner, Sort: Sort{Field: SortDueDate, Order: order}})
			require.NoError(t, err)
			require.Len(t, list, 3)
			assert.Nil(t, list[2].DueDate, "order %s", order)
			if order == Asc {
				assert.True(t, list[0].DueDate.Equal(early))
			} else {
				assert.True(t, list[0].DueDate.Equal(late))
			}
		}
	})
}

func TestTaskRepo_PaginationIsStable(t *testing.T) {
	forEachStore(t, func(t *testing.T, h harness) {
		ctx := context.Background()
		owner := h.owner(t)
		same := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)
		h.setNow(func() time.Time { return same })

		const total = 13
		for i := 0; i < total; i++ {
			_, err := h.tasks.Create(ctx, newTask(owner, "same"))
			require.NoError(t, err)
		}

		seen := make(map[string]int)
		for page := 0; page*5 < total; page++ {
			list, err := h.tasks.Find(ctx, Query{
				OwnerID: owner,
				Sort:    Sort{Field: SortCreatedAt, Order: Desc},
				Limit:   5,
				Offset:  page * 5,
			})
			require.NoError(t, err)
			for _, task := range list {
				seen[task.ID]++
			}
		}
		assert.Len(t, seen, total)
		for id, n := range seen {
			assert.Equal(t, 1, n, "task %s returned %d times", id, n)
		}
	})
}

func TestUserRepo(t *testing.T) {
	forEachStore(t, func(t *testing.T, h harness) {
		ctx := context.Background()
		name := "alice-" + uuid.NewString()[:8]

		u, err := h.users.Create(ctx, dom.User{ID: uuid.NewString(), Username: name, PasswordHash: "hash"})
		require.NoError(t, err)
		if h.drop != nil {
			t.Cleanup(func() { h.drop(u.ID) })
		}
		assert.False(t, u.CreatedAt.IsZero())

		byName, err := h.users.GetByUsername(ctx, name)
		require.NoError(t, err)
		assert.Equal(t, u.ID, byName.ID)
		assert.Equal(t, "hash", byName.PasswordHash)

		byID, err := h.users.GetByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, name, byID.Username)

		_, err = h.users.Create(ctx, dom.User{ID: uuid.NewString(), Username: name, PasswordHash: "other"})
		assert.ErrorIs(t, err, ErrDuplicate)

		_, err = h.users.GetByUsername(ctx, "nobody-"+uuid.NewString()[:8])
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = h.users.GetByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestOrderBy(t *testing.T) {
	assert.Equal(t, "created_at DESC, id ASC", orderBy(Sort{}))
	assert.Equal(t, "LOWER(title) ASC, id ASC", orderBy(Sort{Field: SortTitle, Order: Asc}))
	assert.Equal(t, "CASE priority WHEN 'Low' THEN 0 WHEN 'Medium' THEN 1 WHEN 'High' THEN 2 END DESC, id ASC",
		orderBy(Sort{Field: SortPriority, Order: Desc}))
	assert.Equal(t, "(due_date IS NULL) ASC, due_date ASC, id ASC", orderBy(Sort{Field: SortDueDate, Order: Asc}))
}

func TestParseSort(t *testing.T) {
	f, ok := ParseSortField("dueDate")
	assert.True(t, ok)
	assert.Equal(t, SortDueDate, f)
	_, ok = ParseSortField("owner")
	assert.False(t, ok)

	o, ok := ParseSortOrder("asc")
	assert.True(t, ok)
	assert.Equal(t, Asc, o)
	_, ok = ParseSortOrder("sideways")
	assert.False(t, ok)
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, `%a\%b\_c\\%`, likePattern(`a%b_c\`))
}
