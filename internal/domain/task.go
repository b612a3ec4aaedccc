package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTitleLength is the title limit in code points.
const MaxTitleLength = 255

type Status string

const (
	StatusTodo       Status = "Todo"
	StatusInProgress Status = "In Progress"
	StatusCompleted  Status = "Completed"
)

// Statuses lists every status in rank order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusCompleted}

func ParseStatus(s string) (Status, error) {
	for _, st := range Statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("status must be Todo, In Progress, or Completed")
}

// Rank is the position of the status in the workflow, used for sorting.
func (s Status) Rank() int {
	for i, st := range Statuses {
		if st == s {
			return i
		}
	}
	return -1
}

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

func ParsePriority(s string) (Priority, error) {
	for _, p := range Priorities {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("priority must be Low, Medium, or High")
}

func (p Priority) Rank() int {
	for i, pr := range Priorities {
		if pr == p {
			return i
		}
	}
	return -1
}

// Task is the only business entity. It does not depend on gin, SQL or Redis.
type Task struct {
	ID          string
	UserID      string
	Title       string
	Description string
	Status      Status
	Priority    Priority
	DueDate     *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeTitle trims the title and checks it is non-empty and within MaxTitleLength.
func NormalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return "", fmt.Errorf("title cannot exceed %d characters", MaxTitleLength)
	}
	return title, nil
}

// IsOverdue reports whether the task is still open past its due date.
func (t Task) IsOverdue(now time.Time) bool {
	return t.Status != StatusCompleted && t.DueDate != nil && t.DueDate.Before(now)
}
