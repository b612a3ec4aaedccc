package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"Todo", "In Progress", "Completed"} {
		st, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, s, string(st))
	}
	for _, s := range []string{"", "todo", "InProgress", "Done"} {
		_, err := ParseStatus(s)
		assert.Error(t, err, "status %q", s)
	}
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority("High")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)

	_, err = ParsePriority("Urgent")
	assert.Error(t, err)
}

func TestRank(t *testing.T) {
	assert.Less(t, PriorityLow.Rank(), PriorityMedium.Rank())
	assert.Less(t, PriorityMedium.Rank(), PriorityHigh.Rank())
	assert.Less(t, StatusTodo.Rank(), StatusInProgress.Rank())
	assert.Less(t, StatusInProgress.Rank(), StatusCompleted.Rank())
	assert.Equal(t, -1, Status("nope").Rank())
}

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "trims", in: "  Buy milk ", want: "Buy milk"},
		{name: "empty", in: "", wantErr: true},
		{name: "blank", in: "   \t", wantErr: true},
		{name: "max length", in: strings.Repeat("a", MaxTitleLength), want: strings.Repeat("a", MaxTitleLength)},
		{name: "too long", in: strings.Repeat("a", MaxTitleLength+1), wantErr: true},
		// 255 multi-byte runes are still within the limit
		{name: "runes not bytes", in: strings.Repeat("ж", MaxTitleLength), want: strings.Repeat("ж", MaxTitleLength)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTitle(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTask_IsOverdue(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, Task{Status: StatusTodo, DueDate: &past}.IsOverdue(now))
	assert.False(t, Task{Status: StatusCompleted, DueDate: &past}.IsOverdue(now))
	assert.False(t, Task{Status: StatusInProgress, DueDate: &future}.IsOverdue(now))
	assert.False(t, Task{Status: StatusTodo}.IsOverdue(now))
}

func TestValidationError(t *testing.T) {
	var ve ValidationError
	assert.NoError(t, ve.OrNil())

	ve.Add("title", "title is required")
	ve.Add("status", "bad")
	err := ve.OrNil()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "title: title is required")

	var target *ValidationError
	assert.True(t, errors.As(err, &target))
	assert.Len(t, target.Fields, 2)
}

func TestStoreError_Unwrap(t *testing.T) {
	base := errors.New("connection refused")
	err := &StoreError{Op: "count tasks", Err: base}
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "count tasks: connection refused", err.Error())
}
