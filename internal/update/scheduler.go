package update

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	apperrors "relwatch/internal/errors"
	"relwatch/internal/log"
)

// Default polling schedule.
const (
	DefaultStartupDelay = 300_000 * time.Millisecond
	DefaultInterval     = 86_400_000 * time.Millisecond
)

// Clock abstracts time so schedules can be driven by tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// State is the scheduler lifecycle state.
type State string

const (
	StateIdle    State = "idle"
	StatePolling State = "polling"
	StateStopped State = "stopped"
)

// Outcome classifies a finished check cycle.
type Outcome string

const (
	OutcomeBaseline Outcome = "baseline"
	OutcomeUpdated  Outcome = "updated"
	OutcomeNoChange Outcome = "no_change"
	OutcomeFailed   Outcome = "failed"
)

// CycleResult reports what one check cycle observed and did.
type CycleResult struct {
	CheckedAt time.Time
	Outcome   Outcome
	Previous  Version
	Latest    Version
	Release   *ReleaseInfo

	// Err is the fetch failure when Outcome is OutcomeFailed.
	Err error
	// PersistErr and NotifyErr are side-effect failures; they never turn a
	// cycle into OutcomeFailed.
	PersistErr error
	NotifyErr  error

	// ConsecutiveFailures counts failed cycles in a row, including this one.
	ConsecutiveFailures int
}

// Recorder receives every finished cycle, e.g. for an audit ledger.
type Recorder interface {
	Record(ctx context.Context, r CycleResult) error
}

type multiRecorder []Recorder

// MultiRecorder fans a cycle out to every non-nil recorder. All recorders are
// called; their errors are joined.
func MultiRecorder(recorders ...Recorder) Recorder {
	var m multiRecorder
	for _, r := range recorders {
		if r != nil {
			m = append(m, r)
		}
	}
	return m
}

func (m multiRecorder) Record(ctx context.Context, r CycleResult) error {
	var errs []error
	for _, rec := range m {
		if err := rec.Record(ctx, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Status is a point-in-time snapshot of the scheduler.
type Status struct {
	Current             Version
	Known               bool
	State               State
	LastCheck           time.Time
	LastOutcome         Outcome
	LastError           error
	ConsecutiveFailures int
}

// Scheduler owns the current version and the polling loop: one check after
// the startup delay, then one check per interval. Cycles never overlap.
type Scheduler struct {
	source       ReleaseSource
	store        Store
	notifier     Notifier
	recorder     Recorder
	clock        Clock
	logger       *slog.Logger
	startupDelay time.Duration
	interval     time.Duration

	cycleMu sync.Mutex

	mu          sync.RWMutex
	loaded      bool
	current     Version
	known       bool
	state       State
	lastCheck   time.Time
	lastOutcome Outcome
	lastErr     error
	failures    int
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithStartupDelay sets the wait before the first check. Zero checks immediately.
func WithStartupDelay(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d >= 0 {
			s.startupDelay = d
		}
	}
}

// WithInterval sets the wait between checks. Non-positive values are ignored.
func WithInterval(d time.Duration) SchedulerOption {
	return func(s *Scheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithClock replaces the wall clock.
func WithClock(c Clock) SchedulerOption {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithRecorder attaches a cycle recorder.
func WithRecorder(r Recorder) SchedulerOption {
	return func(s *Scheduler) {
		s.recorder = r
	}
}

// WithLogger sets the logger. By default the global logger is used.
func WithLogger(l *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// NewScheduler creates a scheduler. notifier may be nil, in which case
// updates are only logged and persisted.
func NewScheduler(source ReleaseSource, store Store, notifier Notifier, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		source:       source,
		store:        store,
		notifier:     notifier,
		clock:        realClock{},
		startupDelay: DefaultStartupDelay,
		interval:     DefaultInterval,
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scheduler) log() *slog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return log.Logger()
}

// Run loads persisted state, waits the startup delay and then polls until
// ctx is cancelled. It returns ctx's error.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.ensureLoaded(ctx); err != nil {
		s.log().WarnContext(ctx, "failed to load stored version; retrying on first check", log.Err(err))
	}

	st := s.Status()
	s.log().InfoContext(ctx, "update checker initialized",
		log.Version("current", st.Current),
		slog.Bool("known", st.Known),
		slog.Duration("startup_delay", s.startupDelay),
		slog.Duration("interval", s.interval),
	)

	select {
	case <-ctx.Done():
		return s.stop(ctx)
	case <-s.clock.After(s.startupDelay):
	}

	s.setState(StatePolling)
	for {
		s.CheckNow(ctx)

		select {
		case <-ctx.Done():
			return s.stop(ctx)
		case <-s.clock.After(s.interval):
		}
	}
}

func (s *Scheduler) stop(ctx context.Context) error {
	s.setState(StateStopped)
	s.log().InfoContext(ctx, "update checker stopped")
	return ctx.Err()
}

// CheckNow runs one check cycle immediately. It is safe to call while Run
// is active; cycles are serialized. A cycle interrupted by ctx is returned
// as failed but is neither counted nor recorded.
func (s *Scheduler) CheckNow(ctx context.Context) CycleResult {
	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	result := CycleResult{CheckedAt: s.clock.Now()}

	// Deciding without readable state would overwrite it with a baseline.
	if err := s.ensureLoaded(ctx); err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		return s.fail(ctx, result)
	}

	s.mu.RLock()
	current, known := s.current, s.known
	s.mu.RUnlock()
	result.Previous = current

	s.log().InfoContext(ctx, "checking for updates", log.Version("current", current))

	release, err := s.source.FetchLatest(ctx)
	if err != nil {
		result.Outcome = OutcomeFailed
		result.Err = err
		return s.fail(ctx, result)
	}
	result.Latest = release.Version
	result.Release = release

	switch Decide(current, known, release.Version) {
	case DecisionBaseline:
		result.Outcome = OutcomeBaseline
		s.log().InfoContext(ctx, "recorded baseline version", log.Version("latest", release.Version))
		result.PersistErr = s.persist(ctx, release.Version)
	case DecisionUpdate:
		result.Outcome = OutcomeUpdated
		s.log().InfoContext(ctx, "new version available",
			log.Version("previous", current),
			log.Version("latest", release.Version),
		)
		if s.notifier != nil {
			n := Notification{New: release.Version, Previous: current, Release: *release}
			if err := s.notifier.Notify(ctx, n); err != nil {
				result.NotifyErr = err
				s.log().ErrorContext(ctx, "update notification failed", log.Err(err))
			}
		}
		result.PersistErr = s.persist(ctx, release.Version)
	default:
		result.Outcome = OutcomeNoChange
		s.log().InfoContext(ctx, "no update available",
			log.Version("current", current),
			log.Version("latest", release.Version),
		)
	}

	return s.finish(ctx, result)
}

// fail finishes a failed cycle, unless ctx was cancelled: an interrupt
// during shutdown is not a failure of the release source.
func (s *Scheduler) fail(ctx context.Context, result CycleResult) CycleResult {
	if ctx.Err() != nil {
		s.log().DebugContext(ctx, "check cycle interrupted", log.Err(result.Err))
		return result
	}
	s.logFailure(ctx, result.Err)
	return s.finish(ctx, result)
}

// persist writes v through to the store and advances in-memory state even
// when the write fails; a later restart then re-detects the same update.
func (s *Scheduler) persist(ctx context.Context, v Version) error {
	err := s.store.Save(ctx, v)
	if err != nil {
		s.log().ErrorContext(ctx, "failed to persist version", log.Version("version", v), log.Err(err))
	}

	s.mu.Lock()
	s.current = v
	s.known = true
	s.mu.Unlock()
	return err
}

func (s *Scheduler) logFailure(ctx context.Context, err error) {
	s.mu.RLock()
	repeat := s.failures
	s.mu.RUnlock()

	msg := "fetch latest release failed"
	switch apperrors.CodeOf(err) {
	case apperrors.CodeUnexpectedStatus:
		msg = "release endpoint returned non-200 status"
	case apperrors.CodePersistFailed:
		msg = "stored version unavailable; skipping check"
	}
	if repeat == 0 {
		s.log().ErrorContext(ctx, msg, log.Err(err))
		return
	}
	s.log().WarnContext(ctx, msg, log.Err(err), slog.Int("consecutive_failures", repeat+1))
}

func (s *Scheduler) finish(ctx context.Context, result CycleResult) CycleResult {
	s.mu.Lock()
	s.lastCheck = result.CheckedAt
	s.lastOutcome = result.Outcome
	s.lastErr = result.Err
	if result.Outcome == OutcomeFailed {
		s.failures++
	} else {
		s.failures = 0
	}
	result.ConsecutiveFailures = s.failures
	s.mu.Unlock()

	if s.recorder == nil {
		return result
	}
	// Record even if ctx was cancelled mid-cycle so the ledger stays complete.
	if err := s.recorder.Record(context.WithoutCancel(ctx), result); err != nil {
		s.log().WarnContext(ctx, "failed to record check", log.Err(err))
	}
	return result
}

// ensureLoaded reads persisted state once. A missing or unparseable file
// counts as loaded with no prior state. Any other read error leaves the
// scheduler unloaded so the next cycle retries, and is returned.
func (s *Scheduler) ensureLoaded(ctx context.Context) error {
	s.mu.RLock()
	loaded := s.loaded
	s.mu.RUnlock()
	if loaded {
		return nil
	}

	v, found, err := s.store.Load(ctx)
	switch {
	case err != nil && errors.Is(err, ErrInvalidVersion):
		s.log().WarnContext(ctx, "stored version is unreadable; treating as no prior state", log.Err(err))
	case err != nil:
		return err
	case !found:
		s.log().InfoContext(ctx, "no stored version; first successful check records a baseline")
	default:
		s.log().InfoContext(ctx, "loaded stored version", log.Version("version", v))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}
	s.loaded = true
	if err == nil && found {
		s.current = v
		s.known = true
	}
	return nil
}

func (s *Scheduler) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// Status returns a snapshot safe to read from any goroutine.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Current:             s.current,
		Known:               s.known,
		State:               s.state,
		LastCheck:           s.lastCheck,
		LastOutcome:         s.lastOutcome,
		LastError:           s.lastErr,
		ConsecutiveFailures: s.failures,
	}
}
