package taskclient

import (
	"encoding/json"
	"net/url"
	"strconv"
	"time"
)

const (
	StatusTodo       = "Todo"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"

	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	UserID      string     `json:"userId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type Pagination struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

type TaskPage struct {
	Tasks      []Task     `json:"tasks"`
	Pagination Pagination `json:"pagination"`
}

type Stats struct {
	StatusStats struct {
		Todo       int64 `json:"todo"`
		InProgress int64 `json:"inProgress"`
		Completed  int64 `json:"completed"`
		Total      int64 `json:"total"`
	} `json:"statusStats"`
	PriorityStats struct {
		Low    int64 `json:"low"`
		Medium int64 `json:"medium"`
		High   int64 `json:"high"`
	} `json:"priorityStats"`
	CompletionRate int    `json:"completionRate"`
	OverdueCount   int64  `json:"overdueCount"`
	RecentTasks    []Task `json:"recentTasks"`
	CompletedByDay []struct {
		Date  string `json:"date"`
		Day   string `json:"day"`
		Count int64  `json:"count"`
	} `json:"completedByDay"`
}

type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ListParams are the list query parameters. Zero values are omitted from the request.
type ListParams struct {
	Status   string
	Priority string
	Search   string
	SortBy   string
	Order    string
	Page     int
	Limit    int
}

// Values encodes the non-empty parameters. Encode of the result is canonical
// (sorted keys), so it doubles as a cache key.
func (p ListParams) Values() url.Values {
	v := url.Values{}
	set := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	set("status", p.Status)
	set("priority", p.Priority)
	set("search", p.Search)
	set("sortBy", p.SortBy)
	set("order", p.Order)
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	return v
}

type CreateTask struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status,omitempty"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// UpdateTask is a partial update; nil fields are not sent. ClearDueDate sends
// "dueDate": null and wins over DueDate.
type UpdateTask struct {
	Title        *string
	Description  *string
	Status       *string
	Priority     *string
	DueDate      *time.Time
	ClearDueDate bool
}

func (u UpdateTask) MarshalJSON() ([]byte, error) {
	m := map[string]any{}
	if u.Title != nil {
		m["title"] = *u.Title
	}
	if u.Description != nil {
		m["description"] = *u.Description
	}
	if u.Status != nil {
		m["status"] = *u.Status
	}
	if u.Priority != nil {
		m["priority"] = *u.Priority
	}
	switch {
	case u.ClearDueDate:
		m["dueDate"] = nil
	case u.DueDate != nil:
		m["dueDate"] = u.DueDate.UTC().Format(time.RFC3339)
	}
	return json.Marshal(m)
}
