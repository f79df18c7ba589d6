// Package update watches a GitHub-compatible releases endpoint and reports
// when a newer version is published.
//
// The pieces compose as follows:
//   - Fetcher issues one bounded GET for the latest release and decodes the
//     tag into a Version.
//   - Store persists the last version observed (FileStore keeps it in a
//     single text file such as "v1.4.2").
//   - Decide compares the stored and fetched versions.
//   - Scheduler owns the current version, runs one cycle after a startup
//     delay and then one per interval, and hands confirmed updates to a
//     Notifier.
//
// A typical host wires them together and blocks in Run:
//
//	fetcher := update.NewFetcher("acme", "widget", update.WithTimeout(2*time.Second))
//	store := update.NewFileStore(statePath)
//	s := update.NewScheduler(fetcher, store, notifier)
//	err := s.Run(ctx) // returns ctx.Err() on shutdown
//
// The first successful observation is recorded as a baseline and never
// notified. Failed fetches leave the stored version untouched.
package update
