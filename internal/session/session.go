// Package session holds the live order sessions: the order status state
// machine, its elapsed-time tracker and the deadline-derived lock. A session
// caches the last confirmed backend record and never mutates status or lock
// except as a copy of a confirmed response.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"orderdesk/internal/deadline"
	"orderdesk/internal/orders"
	"orderdesk/internal/recordapi"
	"orderdesk/internal/tracker"
)

// Backend is the order record backend, the source of truth for every guarded
// mutation. A MutationResult with zero modified count means the server-side
// precondition failed and nothing was applied.
type Backend interface {
	FetchOrder(ctx context.Context, id string) (orders.Order, error)
	Transition(ctx context.Context, id string, action orders.Action) (recordapi.MutationResult, error)
	ExtendDeadline(ctx context.Context, id, formatted string) (recordapi.MutationResult, error)
	PersistCheckpoint(ctx context.Context, id string, accumulated, checkpoint int64) (recordapi.MutationResult, error)
}

// Notifier surfaces non-fatal, user-visible feedback (the toast collaborator).
type Notifier interface {
	Notify(ctx context.Context, orderID, message string)
}

// Publisher is the lifecycle event sink; the kafka producer satisfies it.
type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// StatusCache mirrors confirmed order state for other dashboard surfaces.
type StatusCache interface {
	Put(ctx context.Context, o orders.Order) error
}

var (
	// ErrRejected: the backend reported a failed precondition (e.g. a
	// concurrent state change); local state was left untouched.
	ErrRejected = errors.New("rejected by record backend")

	ErrDeadlineNotSelectable = errors.New("picked deadline is in the past")
)

// Options carries the collaborators a session needs. Publisher and Cache may
// be nil; events and cache mirroring are then skipped.
type Options struct {
	Backend      Backend
	Notifier     Notifier
	Publisher    Publisher
	Cache        StatusCache
	Logger       *zap.SugaredLogger
	BusinessZone string           // IANA zone for deadline extensions
	Producer     string           // event envelope producer name
	Now          func() time.Time // test hook, defaults to time.Now

	// OnTick, if set, is invoked once per second with the new display value
	// while the order's timer runs.
	OnTick func(orderID string, secs int64)
}

// Session is one order's live state.
type Session struct {
	mu       sync.Mutex
	order    orders.Order
	trk      *tracker.Tracker
	inflight bool

	backend  Backend
	notifier Notifier
	pub      Publisher
	cache    StatusCache
	logger   *zap.SugaredLogger
	zone     string
	producer string
	now      func() time.Time
	onTick   func(secs int64)
}

// Attach fetches the order and builds its session. If the record says the
// timer is running the display is reconciled against wall clock once and the
// tick resumes immediately.
func Attach(ctx context.Context, id string, opts Options) (*Session, error) {
	o, err := opts.Backend.FetchOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	return newSession(o, opts), nil
}

func newSession(o orders.Order, opts Options) *Session {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.BusinessZone == "" {
		opts.BusinessZone = deadline.DefaultBusinessZone
	}
	s := &Session{
		order:    o,
		backend:  opts.Backend,
		notifier: opts.Notifier,
		pub:      opts.Publisher,
		cache:    opts.Cache,
		logger:   opts.Logger,
		zone:     opts.BusinessZone,
		producer: opts.Producer,
		now:      opts.Now,
	}
	if opts.OnTick != nil {
		id := o.ID
		s.onTick = func(v int64) { opts.OnTick(id, v) }
	}
	s.trk = tracker.New(s.handleTick)
	now := s.now()
	if orders.Running(o.Status) && !s.lockedAt(now) {
		s.trk.Start(o.AccumulatedSeconds, o.CheckpointTimestamp, now.Unix())
	} else {
		s.trk.Seed(o.AccumulatedSeconds)
	}
	return s
}

// handleTick runs on the tick goroutine. The derived lock can flip mid-run
// when the deadline lapses, so every tick re-checks it and freezes the
// readout the moment the order locks.
func (s *Session) handleTick(v int64) {
	s.mu.Lock()
	now := s.now()
	if s.lockedAt(now) {
		acc, cp := s.trk.Stop(now.Unix())
		s.order.AccumulatedSeconds = acc
		s.order.CheckpointTimestamp = cp
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	if s.onTick != nil {
		s.onTick(v)
	}
}

// syncTimer re-aligns the tick with the derived lock after it flips. An
// active order that just became unlocked resumes ticking, with the checkpoint
// moved to now so the locked stretch never counts; a lock on an active order
// freezes the readout. Callers hold s.mu.
func (s *Session) syncTimer(now time.Time) {
	running := orders.Running(s.order.Status) && !s.lockedAt(now)
	switch {
	case running && !s.trk.Running():
		s.order.CheckpointTimestamp = now.Unix()
		s.trk.Start(s.order.AccumulatedSeconds, s.order.CheckpointTimestamp, now.Unix())
	case !running && s.trk.Running():
		acc, cp := s.trk.Stop(now.Unix())
		s.order.AccumulatedSeconds = acc
		s.order.CheckpointTimestamp = cp
	}
}

// lockedAt is the single derived lock check: the persisted flag OR a lapsed
// deadline. Every transition guard goes through here.
func (s *Session) lockedAt(now time.Time) bool {
	if s.order.IsLocked {
		return true
	}
	instant, err := s.order.Deadline.Instant()
	if err != nil {
		// Unresolvable deadline: fail closed.
		return true
	}
	return deadline.Remaining(instant, now).Completed
}

// CurrentStatus returns the last confirmed status.
func (s *Session) CurrentStatus() orders.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Status
}

// Locked returns the derived lock as of now.
func (s *Session) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lockedAt(s.now())
}

// Order returns a copy of the cached record.
func (s *Session) Order() orders.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order
}

// DisplaySeconds is the current elapsed-time readout.
func (s *Session) DisplaySeconds() int64 {
	return s.trk.DisplaySeconds()
}

// RemainingToDeadline decomposes the time left until the deadline.
func (s *Session) RemainingToDeadline() (deadline.Countdown, error) {
	s.mu.Lock()
	d := s.order.Deadline
	s.mu.Unlock()
	instant, err := d.Instant()
	if err != nil {
		return deadline.Countdown{}, err
	}
	return deadline.Remaining(instant, s.now()), nil
}

// AttemptTransition applies a named action. Invalid source state, an active
// lock or an in-flight attempt are silent no-ops with no backend call (the UI
// is expected to have disabled the control). A backend rejection or transport
// failure leaves local state and the tracker untouched and is surfaced via
// the notifier; tracker side effects happen strictly after confirmation.
func (s *Session) AttemptTransition(ctx context.Context, action orders.Action) (bool, error) {
	s.mu.Lock()
	now := s.now()
	if s.inflight || s.lockedAt(now) {
		s.mu.Unlock()
		return false, nil
	}
	from := s.order.Status
	target, effect, ok := orders.Apply(from, action)
	if !ok {
		s.mu.Unlock()
		return false, nil
	}
	s.inflight = true
	id := s.order.ID
	s.mu.Unlock()

	res, err := s.backend.Transition(ctx, id, action)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight = false

	if err != nil {
		s.notify(ctx, id, "could not update order status: "+err.Error())
		return false, err
	}
	if !res.Applied() {
		s.notify(ctx, id, "order status changed elsewhere, refresh and retry")
		return false, ErrRejected
	}

	// Confirmed: adopt the backend's record when it sent one, otherwise move
	// the cached copy ourselves.
	if res.Order != nil {
		s.order = *res.Order
	} else {
		s.order.Status = target
		if action == orders.ActionModify {
			s.order.IsLocked = false
		}
	}

	s.applyTimerEffect(ctx, effect)
	s.syncTimer(s.now())

	s.mirror(ctx)
	s.publishStatusChanged(action, from, s.order.Status)
	return true, nil
}

func (s *Session) applyTimerEffect(ctx context.Context, effect orders.TimerEffect) {
	nowUnix := s.now().Unix()
	switch effect {
	case orders.TimerStart:
		// A fresh run stretch: checkpoint moves to now so hold gaps never
		// leak into the readout.
		s.order.CheckpointTimestamp = nowUnix
		s.trk.Start(s.order.AccumulatedSeconds, s.order.CheckpointTimestamp, nowUnix)
	case orders.TimerStop:
		acc, cp := s.trk.Stop(nowUnix)
		s.order.AccumulatedSeconds = acc
		s.order.CheckpointTimestamp = cp
	case orders.TimerStopCheckpoint:
		acc, cp := s.trk.Stop(nowUnix)
		s.order.AccumulatedSeconds = acc
		s.order.CheckpointTimestamp = cp
		res, err := s.backend.PersistCheckpoint(ctx, s.order.ID, acc, cp)
		switch {
		case err != nil:
			s.notify(ctx, s.order.ID, "could not save elapsed time: "+err.Error())
		case !res.Applied():
			s.notify(ctx, s.order.ID, "could not save elapsed time: rejected by record backend")
		}
	}
}

// AttemptExtendDeadline replaces the deadline with a future pick and clears
// the lock. It deliberately bypasses the lock guard: extension is the unlock
// path.
func (s *Session) AttemptExtendDeadline(ctx context.Context, picked time.Time) (bool, error) {
	s.mu.Lock()
	if s.inflight {
		s.mu.Unlock()
		return false, nil
	}
	now := s.now()
	if !deadline.Selectable(picked, now) {
		s.mu.Unlock()
		return false, ErrDeadlineNotSelectable
	}
	formatted, err := deadline.FormatExtension(picked, s.zone)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}
	s.inflight = true
	id := s.order.ID
	old := s.order.Deadline
	s.mu.Unlock()

	res, err := s.backend.ExtendDeadline(ctx, id, formatted)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight = false

	if err != nil {
		s.notify(ctx, id, "could not extend deadline: "+err.Error())
		return false, err
	}
	if !res.Applied() {
		s.notify(ctx, id, "deadline was changed elsewhere, refresh and retry")
		return false, ErrRejected
	}

	captured := deadline.Capture(picked)
	s.order.Deadline = captured
	s.order.IsLocked = false
	s.syncTimer(s.now())

	s.mirror(ctx)
	s.publishDeadlineExtended(old.InstantUTC, captured.InstantUTC)
	return true, nil
}

// Close tears the tick down. The session keeps its last confirmed state for
// any reader still holding it.
func (s *Session) Close() {
	s.trk.Close()
}

func (s *Session) notify(ctx context.Context, id, msg string) {
	if s.notifier != nil {
		s.notifier.Notify(ctx, id, msg)
	}
}

func (s *Session) mirror(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Put(ctx, s.order); err != nil && s.logger != nil {
		s.logger.Warnw("status cache update failed", "order_id", s.order.ID, "error", err)
	}
}
