package update

import "context"

// Notification describes a confirmed update: a release strictly newer than
// the previously known version.
type Notification struct {
	New      Version
	Previous Version
	Release  ReleaseInfo
}

// Fields returns the six version components as a flat payload for hosts
// whose event systems take key/value data.
func (n Notification) Fields() map[string]int {
	return map[string]int{
		"new_major":    n.New.Major,
		"new_minor":    n.New.Minor,
		"new_revision": n.New.Revision,
		"old_major":    n.Previous.Major,
		"old_minor":    n.Previous.Minor,
		"old_revision": n.Previous.Revision,
	}
}

// Notifier receives one call per confirmed update.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, n Notification) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, n Notification) error {
	return f(ctx, n)
}
