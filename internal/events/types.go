package events

import "time"

// Type identifies event categories
type Type string

const (
	TypeUpdateAvailable Type = "update_available"
	TypeCheckFailed     Type = "check_failed"
	TypeCheckCompleted  Type = "check_completed"
)

// Event is the base event structure
type Event struct {
	Type      Type
	Timestamp time.Time
	Data      map[string]any
}

// Eventer interface for typed events
type Eventer interface {
	ToEvent() Event
}

// UpdateAvailableEvent when a release newer than the known version appears.
// Versions holds the new_* and old_* integer components.
type UpdateAvailableEvent struct {
	Versions  map[string]int
	Tag       string
	URL       string
	Timestamp time.Time
}

func (e UpdateAvailableEvent) ToEvent() Event {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	data := make(map[string]any, len(e.Versions)+2)
	for k, v := range e.Versions {
		data[k] = v
	}
	data["tag"] = e.Tag
	data["url"] = e.URL
	return Event{
		Type:      TypeUpdateAvailable,
		Timestamp: e.Timestamp,
		Data:      data,
	}
}

// CheckFailedEvent when a check cycle could not fetch the latest release
type CheckFailedEvent struct {
	Code                string
	Message             string
	ConsecutiveFailures int
	Timestamp           time.Time
}

func (e CheckFailedEvent) ToEvent() Event {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return Event{
		Type:      TypeCheckFailed,
		Timestamp: e.Timestamp,
		Data: map[string]any{
			"code":                 e.Code,
			"message":              e.Message,
			"consecutive_failures": e.ConsecutiveFailures,
		},
	}
}

// CheckCompletedEvent after every cycle, successful or not
type CheckCompletedEvent struct {
	Outcome   string
	Previous  string
	Latest    string
	Timestamp time.Time
}

func (e CheckCompletedEvent) ToEvent() Event {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return Event{
		Type:      TypeCheckCompleted,
		Timestamp: e.Timestamp,
		Data: map[string]any{
			"outcome":  e.Outcome,
			"previous": e.Previous,
			"latest":   e.Latest,
		},
	}
}
