// ABOUTME: Tests for item field access and status labels.

package content

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestItemField(t *testing.T) {
	it := &Item{
		ID:       7,
		Type:     "event",
		Slug:     "launch",
		Title:    "Launch",
		AuthorID: 2,
		Date:     time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC),
	}

	tests := []struct {
		field string
		want  string
		ok    bool
	}{
		{"id", "7", true},
		{"name", "launch", true},
		{"title", "Launch", true},
		{"author", "2", true},
		{"date", "2024-03-05 10:30:00", true},
		{"modified", "", true},
		{"colour", "", false},
	}
	for _, tt := range tests {
		got, ok := it.Field(tt.field)
		assert.Equal(t, tt.ok, ok, tt.field)
		assert.Equal(t, tt.want, got, tt.field)
	}
}

func TestStatusLabel(t *testing.T) {
	assert.Equal(t, "Published", StatusLabel("publish"))
	assert.Equal(t, "Scheduled", StatusLabel("future"))
	assert.Equal(t, "archived", StatusLabel("archived"))
}
