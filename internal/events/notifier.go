package events

import (
	"context"

	apperrors "relwatch/internal/errors"
	"relwatch/internal/update"
)

// BusNotifier publishes each confirmed update as an UpdateAvailableEvent.
type BusNotifier struct {
	bus *Bus
}

// NewBusNotifier adapts bus to update.Notifier.
func NewBusNotifier(bus *Bus) *BusNotifier {
	return &BusNotifier{bus: bus}
}

// Notify implements update.Notifier. Delivery is synchronous.
func (n *BusNotifier) Notify(_ context.Context, note update.Notification) error {
	n.bus.Publish(UpdateAvailableEvent{
		Versions: note.Fields(),
		Tag:      note.Release.TagName,
		URL:      note.Release.HTMLURL,
	})
	return nil
}

// BusRecorder publishes a CheckCompletedEvent for every cycle and an
// additional CheckFailedEvent for failed ones.
type BusRecorder struct {
	bus *Bus
}

// NewBusRecorder adapts bus to update.Recorder.
func NewBusRecorder(bus *Bus) *BusRecorder {
	return &BusRecorder{bus: bus}
}

// Record implements update.Recorder.
func (r *BusRecorder) Record(_ context.Context, c update.CycleResult) error {
	if c.Outcome == update.OutcomeFailed {
		ev := CheckFailedEvent{
			Code:                string(apperrors.CodeOf(c.Err)),
			ConsecutiveFailures: c.ConsecutiveFailures,
			Timestamp:           c.CheckedAt,
		}
		if c.Err != nil {
			ev.Message = c.Err.Error()
		}
		r.bus.Publish(ev)
	}

	done := CheckCompletedEvent{
		Outcome:   string(c.Outcome),
		Previous:  c.Previous.String(),
		Timestamp: c.CheckedAt,
	}
	if c.Outcome != update.OutcomeFailed {
		done.Latest = c.Latest.String()
	}
	r.bus.Publish(done)
	return nil
}
