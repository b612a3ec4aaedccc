package dto

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	dom "taskmanager/internal/domain"
	"taskmanager/internal/service"
)

// DueDate parses dueDate from JSON as either date-only ("2006-01-02") or RFC3339.
// Date-only is stored as start of that day in UTC.
type DueDate struct{ t *time.Time }

func (d *DueDate) UnmarshalJSON(data []byte) error {
	t, err := parseDueDate(data)
	if err != nil {
		return err
	}
	d.t = t
	return nil
}

// Ptr returns *time.Time for use in service/domain.
func (d DueDate) Ptr() *time.Time { return d.t }

// OptionalDueDate tells an absent dueDate apart from an explicit null, which clears it.
type OptionalDueDate struct {
	set bool
	t   *time.Time
}

func (d *OptionalDueDate) UnmarshalJSON(data []byte) error {
	t, err := parseDueDate(data)
	if err != nil {
		return err
	}
	d.set, d.t = true, t
	return nil
}

// Change returns nil when the field was absent from the body.
func (d OptionalDueDate) Change() *service.DueDateChange {
	if !d.set {
		return nil
	}
	return &service.DueDateChange{Value: d.t}
}

func parseDueDate(data []byte) (*time.Time, error) {
	var raw *string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	s := strings.TrimSpace(*raw)
	layouts := []string{
		"2006-01-02",
		time.RFC3339,
		time.RFC3339Nano,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			parsed = parsed.UTC()
			return &parsed, nil
		}
	}
	return nil, fmt.Errorf("dueDate: use date (YYYY-MM-DD) or RFC3339 datetime")
}

type CreateTaskRequest struct {
	Title       string  `json:"title" binding:"required,max=255"`
	Description string  `json:"description"`
	Status      *string `json:"status" binding:"omitempty,taskstatus"`
	Priority    *string `json:"priority" binding:"omitempty,taskpriority"`
	DueDate     DueDate `json:"dueDate" swaggertype:"string" example:"2026-05-01"`
}

// Input converts the request for the task service. Enum values are already validated.
func (r CreateTaskRequest) Input() service.CreateInput {
	in := service.CreateInput{Title: r.Title, Description: r.Description, DueDate: r.DueDate.Ptr()}
	if r.Status != nil {
		s := dom.Status(*r.Status)
		in.Status = &s
	}
	if r.Priority != nil {
		p := dom.Priority(*r.Priority)
		in.Priority = &p
	}
	return in
}

type UpdateTaskRequest struct {
	Title       *string         `json:"title" binding:"omitempty,min=1,max=255"`
	Description *string         `json:"description"`
	Status      *string         `json:"status" binding:"omitempty,taskstatus"`
	Priority    *string         `json:"priority" binding:"omitempty,taskpriority"`
	DueDate     OptionalDueDate `json:"dueDate" swaggertype:"string" example:"2026-05-01"` // null clears
}

func (r UpdateTaskRequest) Patch() service.Patch {
	p := service.Patch{Title: r.Title, Description: r.Description, DueDate: r.DueDate.Change()}
	if r.Status != nil {
		s := dom.Status(*r.Status)
		p.Status = &s
	}
	if r.Priority != nil {
		pr := dom.Priority(*r.Priority)
		p.Priority = &pr
	}
	return p
}

type TaskResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status" example:"Todo"`
	Priority    string     `json:"priority" example:"Medium"`
	DueDate     *time.Time `json:"dueDate"`
	UserID      string     `json:"userId"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func NewTaskResponse(t dom.Task) TaskResponse {
	return TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		Priority:    string(t.Priority),
		DueDate:     t.DueDate,
		UserID:      t.UserID,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func NewTaskResponses(list []dom.Task) []TaskResponse {
	out := make([]TaskResponse, len(list))
	for i := range list {
		out[i] = NewTaskResponse(list[i])
	}
	return out
}

// TaskData wraps a single task, as in {"task": {...}}.
type TaskData struct {
	Task TaskResponse `json:"task"`
}

type PaginationResponse struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"totalPages"`
}

type ListTasksData struct {
	Tasks      []TaskResponse     `json:"tasks"`
	Pagination PaginationResponse `json:"pagination"`
}

func NewListTasksData(p service.Page) ListTasksData {
	return ListTasksData{
		Tasks: NewTaskResponses(p.Items),
		Pagination: PaginationResponse{
			Total:      p.Pagination.Total,
			Page:       p.Pagination.Page,
			Limit:      p.Pagination.PageSize,
			TotalPages: p.Pagination.TotalPages,
		},
	}
}

type StatusStatsResponse struct {
	Todo       int64 `json:"todo"`
	InProgress int64 `json:"inProgress"`
	Completed  int64 `json:"completed"`
	Total      int64 `json:"total"`
}

type PriorityStatsResponse struct {
	Low    int64 `json:"low"`
	Medium int64 `json:"medium"`
	High   int64 `json:"high"`
}

type DayCountResponse struct {
	Date  string `json:"date" example:"2026-05-01"`
	Day   string `json:"day" example:"Fri"`
	Count int64  `json:"count"`
}

type StatsResponse struct {
	StatusStats    StatusStatsResponse   `json:"statusStats"`
	PriorityStats  PriorityStatsResponse `json:"priorityStats"`
	CompletionRate int                   `json:"completionRate"`
	OverdueCount   int64                 `json:"overdueCount"`
	RecentTasks    []TaskResponse        `json:"recentTasks"`
	CompletedByDay []DayCountResponse    `json:"completedByDay"`
}

func NewStatsResponse(s service.Stats) StatsResponse {
	days := make([]DayCountResponse, len(s.CompletedByDay))
	for i, d := range s.CompletedByDay {
		days[i] = DayCountResponse{Date: d.Date, Day: d.Day, Count: d.Count}
	}
	return StatsResponse{
		StatusStats: StatusStatsResponse{
			Todo:       s.StatusStats.Todo,
			InProgress: s.StatusStats.InProgress,
			Completed:  s.StatusStats.Completed,
			Total:      s.StatusStats.Total,
		},
		PriorityStats: PriorityStatsResponse{
			Low:    s.PriorityStats.Low,
			Medium: s.PriorityStats.Medium,
			High:   s.PriorityStats.High,
		},
		CompletionRate: s.CompletionRate,
		OverdueCount:   s.OverdueCount,
		RecentTasks:    NewTaskResponses(s.RecentTasks),
		CompletedByDay: days,
	}
}
