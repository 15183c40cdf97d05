package orders

// Status is the workflow stage of an order. Values are the exact strings the
// record backend stores and the dashboard displays.
type Status string

const (
	StatusPending       Status = "Pending"
	StatusInProgress    Status = "In-progress"
	StatusHold          Status = "Hold"
	StatusReadyToQC     Status = "Ready to QC"
	StatusReadyToUpload Status = "Ready to Upload"
	StatusDelivered     Status = "Delivered"
	StatusCompleted     Status = "Completed"
)

// Action is a named transition attempt against an order.
type Action string

const (
	ActionStart         Action = "start"
	ActionHold          Action = "hold"
	ActionReadyToQC     Action = "ready_to_qc"
	ActionReadyToUpload Action = "ready_to_upload"
	ActionDelivered     Action = "delivered"
	ActionComplete      Action = "complete"
	ActionModify        Action = "modify"
)

// TimerEffect is what a confirmed transition does to the elapsed-time tracker.
type TimerEffect int

const (
	TimerNone TimerEffect = iota
	TimerStart
	TimerStop
	TimerStopCheckpoint // stop and persist (accumulatedSeconds, now)
)

type transition struct {
	sources map[Status]bool
	target  Status
	effect  TimerEffect
}

// Hold is reachable from everything except Hold, Pending, Delivered and
// Ready to Upload; the exclusion of the last two follows the observed
// button-disable behaviour, which is the restrictive reading.
var transitions = map[Action]transition{
	ActionStart: {
		sources: map[Status]bool{StatusPending: true, StatusHold: true},
		target:  StatusInProgress,
		effect:  TimerStart,
	},
	ActionHold: {
		sources: map[Status]bool{StatusInProgress: true, StatusReadyToQC: true, StatusCompleted: true},
		target:  StatusHold,
		effect:  TimerStopCheckpoint,
	},
	ActionReadyToQC: {
		sources: map[Status]bool{StatusInProgress: true},
		target:  StatusReadyToQC,
		effect:  TimerNone,
	},
	ActionReadyToUpload: {
		sources: map[Status]bool{StatusReadyToQC: true},
		target:  StatusReadyToUpload,
		effect:  TimerNone,
	},
	ActionDelivered: {
		sources: map[Status]bool{StatusReadyToUpload: true},
		target:  StatusDelivered,
		effect:  TimerStop,
	},
	ActionComplete: {
		sources: map[Status]bool{StatusDelivered: true},
		target:  StatusCompleted,
		effect:  TimerStop,
	},
	// Reopen for modification: back to the initial stage, timer untouched.
	ActionModify: {
		sources: map[Status]bool{StatusDelivered: true},
		target:  StatusPending,
		effect:  TimerNone,
	},
}

// CanApply reports whether action is legal from the given status.
func CanApply(from Status, action Action) bool {
	t, ok := transitions[action]
	return ok && t.sources[from]
}

// Apply resolves action from the given status. ok is false when the pair is
// not in the transition table; callers must treat that as a silent no-op.
func Apply(from Status, action Action) (target Status, effect TimerEffect, ok bool) {
	t, found := transitions[action]
	if !found || !t.sources[from] {
		return from, TimerNone, false
	}
	return t.target, t.effect, true
}

// Running reports whether the given status keeps the work timer active. The
// timer runs from Start until Hold or Delivered, so the QC and upload stages
// still count as work time. Lock state is layered on top by the session; a
// locked order never runs.
func Running(s Status) bool {
	switch s {
	case StatusInProgress, StatusReadyToQC, StatusReadyToUpload:
		return true
	default:
		return false
	}
}

func ValidStatus(s Status) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusHold, StatusReadyToQC,
		StatusReadyToUpload, StatusDelivered, StatusCompleted:
		return true
	default:
		return false
	}
}
