// Package analytics delivers pipeline outcome events to external sinks.
// Tracking is fire-and-forget: callers never observe delivery failures.
package analytics

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	EventGenerationSuccess = "generation_success"
	EventGenerationFailure = "generation_failure"
	EventRefinementSuccess = "refinement_success"
	EventRefinementFailure = "refinement_failure"
)

// TelemetryTruncateLimit bounds free-text values placed in event properties.
const TelemetryTruncateLimit = 100

// Collector accepts named events. Implementations must not block the caller
// on delivery.
type Collector interface {
	Track(ctx context.Context, name string, properties map[string]interface{})
}

type Event struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Properties map[string]interface{} `json:"properties"`
	Timestamp  time.Time              `json:"timestamp"`
}

func NewEvent(name string, properties map[string]interface{}) Event {
	if properties == nil {
		properties = map[string]interface{}{}
	}
	return Event{
		ID:         uuid.NewString(),
		Name:       name,
		Properties: properties,
		Timestamp:  time.Now().UTC(),
	}
}

// IsFailure reports whether the event records a failed generation or refinement.
func (e Event) IsFailure() bool {
	return strings.HasSuffix(e.Name, "_failure")
}

// StringProperty returns the property as a string, or "" when absent or not a string.
func (e Event) StringProperty(key string) string {
	if v, ok := e.Properties[key].(string); ok {
		return v
	}
	return ""
}

// TruncateForTelemetry keeps at most limit runes of s.
func TruncateForTelemetry(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// NopCollector drops every event.
type NopCollector struct{}

func (NopCollector) Track(context.Context, string, map[string]interface{}) {}

// Recorder keeps events in memory. pipeline-cli prints them with --events.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Track(_ context.Context, name string, properties map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, NewEvent(name, properties))
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Last returns the most recent event with name, if any.
func (r *Recorder) Last(name string) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Name == name {
			return r.events[i], true
		}
	}
	return Event{}, false
}
