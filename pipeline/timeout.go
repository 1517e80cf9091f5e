package pipeline

import "time"

// TimeoutStage maintains the wall-clock moment each in-flight request began
// and fires a RequestTimeout event if no response is dispatched before the
// configured deadline elapses, per §4.2.2. It is server-only: a client
// pipeline never builds one.
type TimeoutStage struct {
	timeout time.Duration
	clock   func() time.Time

	pending  bool
	deadline time.Time
}

func NewTimeoutStage(timeout time.Duration) *TimeoutStage {
	return &TimeoutStage{timeout: timeout, clock: time.Now}
}

func (t *TimeoutStage) Build(_ *Context, commandPL CommandFunc, eventPL EventFunc) (CommandFunc, EventFunc) {
	down := func(cmd Command) {
		if cmd.ResponseStarted {
			t.pending = false
		}

		commandPL(cmd)
	}

	up := func(evt Event) {
		if t.timeout > 0 && evt.RequestStart != nil {
			t.pending = true
			t.deadline = t.clock().Add(t.timeout)
		}

		eventPL(evt)
	}

	return down, up
}

// Tick is called periodically by the driver (on its own connection's timer,
// not a shared scheduler) to check whether the pending request's deadline
// has elapsed. A cancelled timer that already fired is simply never ticked
// again, satisfying the idempotent-cancellation rule in §5.
func (t *TimeoutStage) Tick(eventPL EventFunc) {
	if !t.pending || t.timeout <= 0 {
		return
	}

	if t.clock().Before(t.deadline) {
		return
	}

	t.pending = false
	eventPL(Event{RequestTimedOut: true})
}
