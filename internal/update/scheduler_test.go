package update

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	apperrors "relwatch/internal/errors"
)

// fakeSource returns scripted fetch results in order, repeating the last.
type fakeSource struct {
	mu      sync.Mutex
	results []fakeFetch
	calls   int
}

type fakeFetch struct {
	version Version
	err     error
}

func (f *fakeSource) FetchLatest(ctx context.Context) (*ReleaseInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	f.calls++
	r := f.results[i]
	if r.err != nil {
		return nil, r.err
	}
	return &ReleaseInfo{TagName: r.version.String(), Version: r.version}, nil
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// memStore is an in-memory Store that counts writes.
type memStore struct {
	mu      sync.Mutex
	v       Version
	found   bool
	loadErr error
	saveErr error
	saves   []Version
}

func (m *memStore) Load(context.Context) (Version, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return Version{}, false, m.loadErr
	}
	return m.v, m.found, nil
}

func (m *memStore) Save(_ context.Context, v Version) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves = append(m.saves, v)
	if m.saveErr != nil {
		return m.saveErr
	}
	m.v, m.found = v, true
	return nil
}

func (m *memStore) setLoadErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

func (m *memStore) Saves() []Version {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Version(nil), m.saves...)
}

type recordingNotifier struct {
	mu  sync.Mutex
	got []Notification
	err error
}

func (r *recordingNotifier) Notify(_ context.Context, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, n)
	return r.err
}

func (r *recordingNotifier) Got() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.got...)
}

type recorderFunc func(ctx context.Context, r CycleResult) error

func (f recorderFunc) Record(ctx context.Context, r CycleResult) error { return f(ctx, r) }

// fakeClock hands every After call to the test, which fires it explicitly.
type fakeClock struct {
	now   time.Time
	waits chan fakeWait
}

type fakeWait struct {
	d  time.Duration
	ch chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{
		now:   time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC),
		waits: make(chan fakeWait, 16),
	}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	c.waits <- fakeWait{d: d, ch: ch}
	return ch
}

func (c *fakeClock) next(t *testing.T) fakeWait {
	t.Helper()
	select {
	case w := <-c.waits:
		return w
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not arm a timer")
		return fakeWait{}
	}
}

func bufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func ver(major, minor, rev int) Version {
	return Version{Major: major, Minor: minor, Revision: rev}
}

func TestCheckNowFirstObservationRecordsBaseline(t *testing.T) {
	var logs bytes.Buffer
	source := &fakeSource{results: []fakeFetch{{version: ver(1, 2, 3)}}}
	store := &memStore{}
	notifier := &recordingNotifier{}
	s := NewScheduler(source, store, notifier, WithLogger(bufferLogger(&logs)))

	result := s.CheckNow(context.Background())

	if result.Outcome != OutcomeBaseline {
		t.Fatalf("Outcome = %s, want %s", result.Outcome, OutcomeBaseline)
	}
	if got := notifier.Got(); len(got) != 0 {
		t.Errorf("notifications = %v, want none on first observation", got)
	}
	if saves := store.Saves(); len(saves) != 1 || saves[0] != ver(1, 2, 3) {
		t.Errorf("saves = %v, want [v1.2.3]", saves)
	}
	st := s.Status()
	if st.Current != ver(1, 2, 3) || !st.Known {
		t.Errorf("Status = %+v, want current v1.2.3 known", st)
	}
}

func TestCheckNowNewerVersionNotifiesOnce(t *testing.T) {
	var logs bytes.Buffer
	source := &fakeSource{results: []fakeFetch{{version: ver(1, 0, 1)}}}
	store := &memStore{v: ver(1, 0, 0), found: true}
	notifier := &recordingNotifier{}
	s := NewScheduler(source, store, notifier, WithLogger(bufferLogger(&logs)))

	result := s.CheckNow(context.Background())

	if result.Outcome != OutcomeUpdated {
		t.Fatalf("Outcome = %s, want %s", result.Outcome, OutcomeUpdated)
	}
	got := notifier.Got()
	if len(got) != 1 {
		t.Fatalf("notifications = %d, want 1", len(got))
	}
	if got[0].Previous != ver(1, 0, 0) || got[0].New != ver(1, 0, 1) {
		t.Errorf("notification = %+v, want old v1.0.0 new v1.0.1", got[0])
	}
	fields := got[0].Fields()
	want := map[string]int{
		"new_major": 1, "new_minor": 0, "new_revision": 1,
		"old_major": 1, "old_minor": 0, "old_revision": 0,
	}
	if len(fields) != len(want) {
		t.Errorf("Fields() = %v, want exactly %d keys", fields, len(want))
	}
	for k, wv := range want {
		if fields[k] != wv {
			t.Errorf("Fields()[%s] = %d, want %d", k, fields[k], wv)
		}
	}
	if saves := store.Saves(); len(saves) != 1 || saves[0] != ver(1, 0, 1) {
		t.Errorf("saves = %v, want [v1.0.1]", saves)
	}
	if !strings.Contains(logs.String(), "new version available") {
		t.Errorf("update detection not logged: %s", logs.String())
	}

	// The same release again is not an update.
	result = s.CheckNow(context.Background())
	if result.Outcome != OutcomeNoChange {
		t.Errorf("second Outcome = %s, want %s", result.Outcome, OutcomeNoChange)
	}
	if len(notifier.Got()) != 1 {
		t.Error("second check with same version should not notify")
	}
}

func TestCheckNowSameOrOlderIsNoOp(t *testing.T) {
	for _, latest := range []Version{ver(1, 0, 0), ver(0, 9, 9)} {
		t.Run(latest.String(), func(t *testing.T) {
			var logs bytes.Buffer
			source := &fakeSource{results: []fakeFetch{{version: latest}}}
			store := &memStore{v: ver(1, 0, 0), found: true}
			notifier := &recordingNotifier{}
			s := NewScheduler(source, store, notifier, WithLogger(bufferLogger(&logs)))

			result := s.CheckNow(context.Background())

			if result.Outcome != OutcomeNoChange {
				t.Errorf("Outcome = %s, want %s", result.Outcome, OutcomeNoChange)
			}
			if len(notifier.Got()) != 0 {
				t.Error("unexpected notification")
			}
			if len(store.Saves()) != 0 {
				t.Errorf("unexpected saves %v", store.Saves())
			}
			if s.Status().Current != ver(1, 0, 0) {
				t.Errorf("current = %v, want v1.0.0", s.Status().Current)
			}
		})
	}
}

func TestCheckNowFetchFailureIsNoOp(t *testing.T) {
	failures := map[string]error{
		"timeout": apperrors.New(apperrors.CodeTransportFailed, "fetch latest release",
			errors.Join(ErrNetworkFailure, context.DeadlineExceeded)),
		"non-200": apperrors.New(apperrors.CodeUnexpectedStatus, "release endpoint returned status 500", ErrUnexpectedStatus),
	}

	for name, fetchErr := range failures {
		t.Run(name, func(t *testing.T) {
			var logs bytes.Buffer
			source := &fakeSource{results: []fakeFetch{{err: fetchErr}}}
			store := &memStore{v: ver(1, 0, 0), found: true}
			notifier := &recordingNotifier{}
			s := NewScheduler(source, store, notifier, WithLogger(bufferLogger(&logs)))

			result := s.CheckNow(context.Background())

			if result.Outcome != OutcomeFailed {
				t.Errorf("Outcome = %s, want %s", result.Outcome, OutcomeFailed)
			}
			if !errors.Is(result.Err, fetchErr) {
				t.Errorf("Err = %v, want %v", result.Err, fetchErr)
			}
			if len(notifier.Got()) != 0 {
				t.Error("unexpected notification")
			}
			if len(store.Saves()) != 0 {
				t.Errorf("unexpected saves %v", store.Saves())
			}
			st := s.Status()
			if st.Current != ver(1, 0, 0) || st.ConsecutiveFailures != 1 {
				t.Errorf("Status = %+v", st)
			}
			if !strings.Contains(logs.String(), "level=ERROR") {
				t.Errorf("failure should be logged at error level: %s", logs.String())
			}
		})
	}
}

func TestCheckNowFailureBeforeBaselineKeepsUnknown(t *testing.T) {
	var logs bytes.Buffer
	source := &fakeSource{results: []fakeFetch{
		{err: ErrNetworkFailure},
		{version: ver(2, 0, 0)},
	}}
	store := &memStore{}
	notifier := &recordingNotifier{}
	s := NewScheduler(source, store, notifier, WithLogger(bufferLogger(&logs)))

	s.CheckNow(context.Background())
	if s.Status().Known {
		t.Fatal("failed fetch must not establish a baseline")
	}

	result := s.CheckNow(context.Background())
	if result.Outcome != OutcomeBaseline {
		t.Errorf("Outcome = %s, want %s", result.Outcome, OutcomeBaseline)
	}
	if len(notifier.Got()) != 0 {
		t.Error("baseline after failure should not notify")
	}
}

func TestCheckNowConsecutiveFailures(t *testing.T) {
	var logs bytes.Buffer
	source := &fakeSource{results: []fakeFetch{
		{err: ErrNetworkFailure},
		{err: ErrNetworkFailure},
		{err: ErrNetworkFailure},
		{version: ver(1, 0, 0)},
	}}
	s := NewScheduler(source, &memStore{v: ver(1, 0, 0), found: true}, nil, WithLogger(bufferLogger(&logs)))
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		r := s.CheckNow(ctx)
		if got := s.Status().ConsecutiveFailures; got != i {
			t.Fatalf("after %d failures ConsecutiveFailures = %d", i, got)
		}
		if r.ConsecutiveFailures != i {
			t.Fatalf("CycleResult.ConsecutiveFailures = %d, want %d", r.ConsecutiveFailures, i)
		}
	}
	if strings.Count(logs.String(), "level=ERROR") != 1 {
		t.Errorf("only the first failure should log at error level: %s", logs.String())
	}
	if !strings.Contains(logs.String(), "consecutive_failures=3") {
		t.Errorf("repeat failures should carry a count: %s", logs.String())
	}

	s.CheckNow(ctx)
	st := s.Status()
	if st.ConsecutiveFailures != 0 || st.LastOutcome != OutcomeNoChange || st.LastError != nil {
		t.Errorf("Status after recovery = %+v", st)
	}
}

func TestCheckNowPersistFailureStillAdvances(t *testing.T) {
	var logs bytes.Buffer
	source := &fakeSource{results: []fakeFetch{{version: ver(1, 1, 0)}}}
	store := &memStore{v: ver(1, 0, 0), found: true, saveErr: errors.New("disk full")}
	notifier := &recordingNotifier{}
	s := NewScheduler(source, store, notifier, WithLogger(bufferLogger(&logs)))

	result := s.CheckNow(context.Background())

	if result.Outcome != OutcomeUpdated {
		t.Fatalf("Outcome = %s, want %s", result.Outcome, OutcomeUpdated)
	}
	if result.PersistErr == nil {
		t.Error("PersistErr should be reported")
	}
	if s.Status().Current != ver(1, 1, 0) {
		t.Errorf("in-memory current = %v, want v1.1.0", s.Status().Current)
	}
	if !strings.Contains(logs.String(), "failed to persist version") {
		t.Errorf("write failure not logged: %s", logs.String())
	}

	// A second identical fetch is not re-announced within the process.
	s.CheckNow(context.Background())
	if len(notifier.Got()) != 1 {
		t.Errorf("notifications = %d, want 1", len(notifier.Got()))
	}
}

func TestCheckNowNotifierErrorStillPersists(t *testing.T) {
	var logs bytes.Buffer
	source := &fakeSource{results: []fakeFetch{{version: ver(2, 0, 0)}}}
	store := &memStore{v: ver(1, 0, 0), found: true}
	notifier := &recordingNotifier{err: errors.New("sink down")}
	s := NewScheduler(source, store, notifier, WithLogger(bufferLogger(&logs)))

	result := s.CheckNow(context.Background())

	if result.NotifyErr == nil {
		t.Error("NotifyErr should be reported")
	}
	if saves := store.Saves(); len(saves) != 1 || saves[0] != ver(2, 0, 0) {
		t.Errorf("saves = %v, want [v2.0.0]", saves)
	}
}

func TestCheckNowCorruptStateTreatedAsAbsent(t *testing.T) {
	var logs bytes.Buffer
	source := &fakeSource{results: []fakeFetch{{version: ver(1, 0, 0)}}}
	store := &memStore{loadErr: apperrors.New(apperrors.CodeInvalidVersion, "parse version", ErrInvalidVersion)}
	notifier := &recordingNotifier{}
	s := NewScheduler(source, store, notifier, WithLogger(bufferLogger(&logs)))

	result := s.CheckNow(context.Background())

	if result.Outcome != OutcomeBaseline {
		t.Errorf("Outcome = %s, want %s", result.Outcome, OutcomeBaseline)
	}
	if !strings.Contains(logs.String(), "stored version is unreadable") {
		t.Errorf("corrupt state not logged: %s", logs.String())
	}
}

func TestCheckNowStateReadFaultSkipsCycle(t *testing.T) {
	var logs bytes.Buffer
	readErr := apperrors.New(apperrors.CodePersistFailed, "read state", errors.New("input/output error"))
	store := &memStore{v: ver(1, 0, 0), found: true, loadErr: readErr}
	source := &fakeSource{results: []fakeFetch{{version: ver(1, 0, 1)}}}
	notifier := &recordingNotifier{}
	s := NewScheduler(source, store, notifier, WithLogger(bufferLogger(&logs)))
	ctx := context.Background()

	r := s.CheckNow(ctx)
	if r.Outcome != OutcomeFailed || !apperrors.IsCode(r.Err, apperrors.CodePersistFailed) {
		t.Fatalf("cycle with unreadable state = %s, %v; want failed persist_failed", r.Outcome, r.Err)
	}
	if source.Calls() != 0 {
		t.Errorf("fetch ran %d times without readable state", source.Calls())
	}
	if len(store.Saves()) != 0 || len(notifier.Got()) != 0 {
		t.Errorf("saves = %v, notifications = %d; want none", store.Saves(), len(notifier.Got()))
	}
	if st := s.Status(); st.Known || st.ConsecutiveFailures != 1 {
		t.Errorf("Status = %+v, want unknown with one failure", st)
	}
	if !strings.Contains(logs.String(), "stored version unavailable") {
		t.Errorf("read fault should be logged: %s", logs.String())
	}

	// Once the fault clears the stored version is loaded and the update reported.
	store.setLoadErr(nil)
	r = s.CheckNow(ctx)
	if r.Outcome != OutcomeUpdated {
		t.Fatalf("cycle after recovery = %s, want updated", r.Outcome)
	}
	got := notifier.Got()
	if len(got) != 1 || got[0].Previous != ver(1, 0, 0) || got[0].New != ver(1, 0, 1) {
		t.Fatalf("notifications = %+v, want v1.0.0 -> v1.0.1", got)
	}
	if saves := store.Saves(); len(saves) != 1 || saves[0] != ver(1, 0, 1) {
		t.Errorf("saves = %v, want [v1.0.1]", saves)
	}
}

func TestCheckNowInterruptedCycleIsNotRecorded(t *testing.T) {
	var logs bytes.Buffer
	recorded := 0
	recorder := recorderFunc(func(context.Context, CycleResult) error {
		recorded++
		return nil
	})
	source := &fakeSource{results: []fakeFetch{{err: ErrNetworkFailure}}}
	s := NewScheduler(source, &memStore{v: ver(1, 0, 0), found: true}, nil,
		WithRecorder(recorder), WithLogger(bufferLogger(&logs)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := s.CheckNow(ctx)
	if r.Outcome != OutcomeFailed {
		t.Fatalf("Outcome = %s, want failed", r.Outcome)
	}
	if recorded != 0 {
		t.Errorf("interrupted cycle recorded %d times", recorded)
	}
	st := s.Status()
	if st.ConsecutiveFailures != 0 || st.LastOutcome != "" {
		t.Errorf("Status = %+v, want interrupted cycle left uncounted", st)
	}
	if strings.Contains(logs.String(), "level=ERROR") {
		t.Errorf("interrupt should not log at error level: %s", logs.String())
	}
}

func TestCheckNowGenuineZeroStateNotifies(t *testing.T) {
	var logs bytes.Buffer
	source := &fakeSource{results: []fakeFetch{{version: ver(0, 0, 1)}}}
	store := &memStore{v: Version{}, found: true}
	notifier := &recordingNotifier{}
	s := NewScheduler(source, store, notifier, WithLogger(bufferLogger(&logs)))

	if result := s.CheckNow(context.Background()); result.Outcome != OutcomeUpdated {
		t.Errorf("Outcome = %s, want %s", result.Outcome, OutcomeUpdated)
	}
	if len(notifier.Got()) != 1 {
		t.Error("a recorded v0.0.0 is real state and should notify")
	}
}

func TestCheckNowRecordsEveryCycle(t *testing.T) {
	var logs bytes.Buffer
	var mu sync.Mutex
	var recorded []CycleResult
	recorder := recorderFunc(func(_ context.Context, r CycleResult) error {
		mu.Lock()
		defer mu.Unlock()
		recorded = append(recorded, r)
		return errors.New("ledger unavailable")
	})
	source := &fakeSource{results: []fakeFetch{
		{version: ver(1, 0, 0)},
		{err: ErrNetworkFailure},
		{version: ver(1, 1, 0)},
	}}
	s := NewScheduler(source, &memStore{}, nil, WithRecorder(recorder), WithLogger(bufferLogger(&logs)))

	for i := 0; i < 3; i++ {
		s.CheckNow(context.Background())
	}

	mu.Lock()
	defer mu.Unlock()
	want := []Outcome{OutcomeBaseline, OutcomeFailed, OutcomeUpdated}
	if len(recorded) != len(want) {
		t.Fatalf("recorded %d cycles, want %d", len(recorded), len(want))
	}
	for i, o := range want {
		if recorded[i].Outcome != o {
			t.Errorf("cycle %d outcome = %s, want %s", i, recorded[i].Outcome, o)
		}
	}
	if !strings.Contains(logs.String(), "failed to record check") {
		t.Error("recorder error should be logged")
	}
}

func TestMultiRecorderCallsAll(t *testing.T) {
	var calls []string
	first := recorderFunc(func(context.Context, CycleResult) error {
		calls = append(calls, "first")
		return errors.New("first down")
	})
	second := recorderFunc(func(context.Context, CycleResult) error {
		calls = append(calls, "second")
		return nil
	})

	err := MultiRecorder(first, nil, second).Record(context.Background(), CycleResult{Outcome: OutcomeNoChange})
	if err == nil || !strings.Contains(err.Error(), "first down") {
		t.Errorf("Record error = %v, want joined first error", err)
	}
	if strings.Join(calls, ",") != "first,second" {
		t.Errorf("calls = %v, want both recorders in order", calls)
	}

	if err := MultiRecorder().Record(context.Background(), CycleResult{}); err != nil {
		t.Errorf("empty MultiRecorder error = %v", err)
	}
}

func TestRunSchedule(t *testing.T) {
	var logs bytes.Buffer
	clock := newFakeClock()
	source := &fakeSource{results: []fakeFetch{
		{version: ver(1, 0, 0)},
		{version: ver(1, 0, 0)},
		{version: ver(1, 1, 0)},
	}}
	store := &memStore{v: ver(1, 0, 0), found: true}
	notifier := &recordingNotifier{}
	s := NewScheduler(source, store, notifier, WithClock(clock), WithLogger(bufferLogger(&logs)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	w := clock.next(t)
	if w.d != DefaultStartupDelay {
		t.Errorf("startup delay = %v, want %v", w.d, DefaultStartupDelay)
	}
	if source.Calls() != 0 {
		t.Fatal("no check may run before the startup delay elapses")
	}
	if s.Status().State != StateIdle {
		t.Errorf("State = %s, want %s", s.Status().State, StateIdle)
	}

	for cycle := 1; cycle <= 3; cycle++ {
		w.ch <- clock.now
		w = clock.next(t)
		if w.d != DefaultInterval {
			t.Errorf("interval = %v, want %v", w.d, DefaultInterval)
		}
		if got := source.Calls(); got != cycle {
			t.Errorf("after tick %d: fetches = %d", cycle, got)
		}
	}
	if s.Status().State != StatePolling {
		t.Errorf("State = %s, want %s", s.Status().State, StatePolling)
	}
	if got := notifier.Got(); len(got) != 1 || got[0].New != ver(1, 1, 0) {
		t.Errorf("notifications = %+v, want one for v1.1.0", got)
	}

	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if s.Status().State != StateStopped {
		t.Errorf("State = %s, want %s", s.Status().State, StateStopped)
	}
}

func TestRunCancelDuringStartupDelay(t *testing.T) {
	var logs bytes.Buffer
	clock := newFakeClock()
	source := &fakeSource{results: []fakeFetch{{version: ver(1, 0, 0)}}}
	s := NewScheduler(source, &memStore{}, nil,
		WithClock(clock),
		WithStartupDelay(time.Minute),
		WithLogger(bufferLogger(&logs)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	if w := clock.next(t); w.d != time.Minute {
		t.Errorf("startup delay = %v, want 1m", w.d)
	}
	cancel()

	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
	if source.Calls() != 0 {
		t.Error("cancelled scheduler should never fetch")
	}
}

func TestRunWithRealClock(t *testing.T) {
	var logs bytes.Buffer
	source := &fakeSource{results: []fakeFetch{{version: ver(1, 0, 0)}}}
	s := NewScheduler(source, &memStore{}, nil,
		WithStartupDelay(0),
		WithInterval(5*time.Millisecond),
		WithLogger(bufferLogger(&logs)),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for source.Calls() < 3 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-errCh

	if source.Calls() < 3 {
		t.Errorf("fetches = %d, want at least 3", source.Calls())
	}
}

func TestSchedulerOptionsIgnoreInvalid(t *testing.T) {
	s := NewScheduler(&fakeSource{}, &memStore{}, nil,
		WithStartupDelay(-time.Second),
		WithInterval(0),
		WithClock(nil),
	)
	if s.startupDelay != DefaultStartupDelay {
		t.Errorf("startupDelay = %v, want default", s.startupDelay)
	}
	if s.interval != DefaultInterval {
		t.Errorf("interval = %v, want default", s.interval)
	}
	if _, ok := s.clock.(realClock); !ok {
		t.Errorf("clock = %T, want realClock", s.clock)
	}
}
