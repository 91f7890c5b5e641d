package analytics

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruncateForTelemetry(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		limit    int
		expected string
	}{
		{"shorter than limit", "add plants", 100, "add plants"},
		{"exactly limit", strings.Repeat("a", 100), 100, strings.Repeat("a", 100)},
		{"longer than limit", strings.Repeat("b", 150), 100, strings.Repeat("b", 100)},
		{"multibyte runes stay whole", "ééééé", 3, "ééé"},
		{"zero limit", "anything", 0, ""},
		{"empty", "", 100, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TruncateForTelemetry(tt.input, tt.limit))
		})
	}
}

func TestNewEvent(t *testing.T) {
	event := NewEvent(EventGenerationFailure, nil)

	_, err := uuid.Parse(event.ID)
	require.NoError(t, err)
	assert.Equal(t, "generation_failure", event.Name)
	assert.NotNil(t, event.Properties)
	assert.False(t, event.Timestamp.IsZero())
	assert.True(t, event.IsFailure())

	assert.False(t, NewEvent(EventRefinementSuccess, nil).IsFailure())
	assert.NotEqual(t, event.ID, NewEvent(EventGenerationFailure, nil).ID)
}

func TestEvent_StringProperty(t *testing.T) {
	event := NewEvent(EventGenerationSuccess, map[string]interface{}{"userId": "u1", "stage1Ms": int64(4)})

	assert.Equal(t, "u1", event.StringProperty("userId"))
	assert.Equal(t, "", event.StringProperty("stage1Ms"))
	assert.Equal(t, "", event.StringProperty("missing"))
}

func TestRecorder(t *testing.T) {
	rec := NewRecorder()
	rec.Track(context.Background(), EventGenerationSuccess, map[string]interface{}{"n": 1})
	rec.Track(context.Background(), EventGenerationFailure, map[string]interface{}{"n": 2})
	rec.Track(context.Background(), EventGenerationSuccess, map[string]interface{}{"n": 3})

	assert.Len(t, rec.Events(), 3)

	last, ok := rec.Last(EventGenerationSuccess)
	require.True(t, ok)
	assert.Equal(t, 3, last.Properties["n"])

	_, ok = rec.Last(EventRefinementFailure)
	assert.False(t, ok)
}

func TestNopCollector(t *testing.T) {
	var c Collector = NopCollector{}
	assert.NotPanics(t, func() {
		c.Track(context.Background(), EventGenerationSuccess, nil)
	})
}
