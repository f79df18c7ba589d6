package main

import (
	"context"

	"relwatch/internal/config"
	"relwatch/internal/events"
	"relwatch/internal/history"
	"relwatch/internal/log"
	"relwatch/internal/update"
)

// checker is a fully wired scheduler plus the resources it owns.
type checker struct {
	scheduler *update.Scheduler
	bus       *events.Bus
	ledger    *history.Ledger
}

func newFetcher(s config.Settings) *update.Fetcher {
	return update.NewFetcher(s.Owner, s.Repo,
		update.WithAPIURL(s.APIURL),
		update.WithUserAgent(s.UserAgent),
		update.WithTimeout(s.Timeout),
		update.WithToken(s.Token),
	)
}

// buildChecker wires fetcher, store, bus and (when configured) the history
// ledger into a scheduler. extra options are applied last.
func buildChecker(ctx context.Context, s config.Settings, extra ...update.SchedulerOption) (*checker, error) {
	c := &checker{bus: events.NewBus()}

	recorders := []update.Recorder{events.NewBusRecorder(c.bus)}
	if s.HistoryPath != "" {
		ledger, err := history.Open(ctx, s.HistoryPath)
		if err != nil {
			return nil, err
		}
		c.ledger = ledger
		recorders = append(recorders, ledger)
	}

	c.bus.SubscribeAll(func(e events.Event) {
		log.Debug("event published", "type", string(e.Type), "data", e.Data)
	})

	opts := []update.SchedulerOption{
		update.WithStartupDelay(s.StartupDelay),
		update.WithInterval(s.Interval),
		update.WithRecorder(update.MultiRecorder(recorders...)),
		update.WithLogger(log.With("repository", s.Repository())),
	}
	opts = append(opts, extra...)

	c.scheduler = update.NewScheduler(
		newFetcher(s),
		update.NewFileStore(s.StatePath),
		events.NewBusNotifier(c.bus),
		opts...,
	)
	return c, nil
}

func (c *checker) Close() error {
	if c.ledger == nil {
		return nil
	}
	return c.ledger.Close()
}
