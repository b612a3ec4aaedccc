package repo

import (
	"errors"
	"strings"
	"time"

	dom "taskmanager/internal/domain"
)

var (
	// ErrNotFound is returned when no row matches both id and owner.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned on a unique constraint violation.
	ErrDuplicate = errors.New("duplicate record")
)

// Predicate is one condition of a task query. Predicates are only built for
// filters the caller actually supplied; there is no "empty means any" value.
type Predicate interface {
	predicate()
}

type StatusIs struct{ Status dom.Status }

type StatusIsNot struct{ Status dom.Status }

type PriorityIs struct{ Priority dom.Priority }

// TextMatch matches a case-insensitive substring of the title or the description.
type TextMatch struct{ Term string }

type DueBefore struct{ Time time.Time }

// UpdatedBetween matches From <= updated_at < To.
type UpdatedBetween struct{ From, To time.Time }

type CreatedSince struct{ Time time.Time }

func (StatusIs) predicate()       {}
func (StatusIsNot) predicate()    {}
func (PriorityIs) predicate()     {}
func (TextMatch) predicate()      {}
func (DueBefore) predicate()      {}
func (UpdatedBetween) predicate() {}
func (CreatedSince) predicate()   {}

type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortDueDate   SortField = "dueDate"
	SortTitle     SortField = "title"
	SortPriority  SortField = "priority"
	SortStatus    SortField = "status"
)

var sortFields = []SortField{SortCreatedAt, SortDueDate, SortTitle, SortPriority, SortStatus}

// ParseSortField accepts exactly one of the sortable field names.
func ParseSortField(s string) (SortField, bool) {
	for _, f := range sortFields {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

type SortOrder string

const (
	Asc  SortOrder = "ASC"
	Desc SortOrder = "DESC"
)

// ParseSortOrder is case-insensitive.
func ParseSortOrder(s string) (SortOrder, bool) {
	switch strings.ToUpper(s) {
	case "ASC":
		return Asc, true
	case "DESC":
		return Desc, true
	}
	return "", false
}

type Sort struct {
	Field SortField
	Order SortOrder
}

// Query selects a window of one owner's tasks.
type Query struct {
	OwnerID string
	Where   []Predicate
	Sort    Sort
	Limit   int
	Offset  int
}

// orderBy renders the ORDER BY list. Enum columns sort by rank, due dates
// put NULLs last in both directions, titles compare case-insensitively, and id
// breaks ties so pages are stable.
func orderBy(s Sort) string {
	dir := string(Desc)
	if s.Order == Asc {
		dir = string(Asc)
	}
	var expr string
	switch s.Field {
	case SortDueDate:
		expr = "(due_date IS NULL) ASC, due_date " + dir
	case SortTitle:
		expr = "LOWER(title) " + dir
	case SortPriority:
		expr = rankExpr("priority", priorityNames()) + " " + dir
	case SortStatus:
		expr = rankExpr("status", statusNames()) + " " + dir
	default:
		expr = "created_at " + dir
	}
	return expr + ", id ASC"
}

func rankExpr(column string, values []string) string {
	var b strings.Builder
	b.WriteString("CASE ")
	b.WriteString(column)
	for i, v := range values {
		b.WriteString(" WHEN '")
		b.WriteString(v)
		b.WriteString("' THEN ")
		b.WriteByte(byte('0' + i))
	}
	b.WriteString(" END")
	return b.String()
}

func statusNames() []string {
	out := make([]string, len(dom.Statuses))
	for i, s := range dom.Statuses {
		out[i] = string(s)
	}
	return out
}

func priorityNames() []string {
	out := make([]string, len(dom.Priorities))
	for i, p := range dom.Priorities {
		out[i] = string(p)
	}
	return out
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps term for a LIKE ... ESCAPE '\' substring match.
func likePattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}
