package pipeline

import (
	"sync/atomic"
	"time"
)

// Stats is a consistent-read snapshot of the process-wide counter set. Per
// §9, maxOpen* are eventually-max: the source reads the two counters it
// derives from separately from its CAS target, so the recorded maximum may
// trail a momentary peak by one update. This implementation preserves that
// relaxed semantics deliberately rather than hiding it behind a lock.
type Stats struct {
	Uptime             time.Duration
	TotalRequests      uint64
	OpenRequests       int64
	MaxOpenRequests    uint64
	TotalConnections   uint64
	OpenConnections    int64
	MaxOpenConnections uint64
	RequestTimeouts    uint64
	IdleTimeouts       uint64
}

// StatisticsStage holds the lock-free, process-wide counters described in
// §4.2.3. A single instance is shared by every connection's pipeline.
type StatisticsStage struct {
	start time.Time

	requestStarts      atomic.Uint64
	responseStarts     atomic.Uint64
	connectionsOpened  atomic.Uint64
	connectionsClosed  atomic.Uint64
	requestTimeouts    atomic.Uint64
	idleTimeouts       atomic.Uint64
	maxOpenConnections atomic.Uint64
	maxOpenRequests    atomic.Uint64
}

func NewStatisticsStage() *StatisticsStage {
	return &StatisticsStage{start: time.Now()}
}

func (s *StatisticsStage) Build(ctx *Context, commandPL CommandFunc, eventPL EventFunc) (CommandFunc, EventFunc) {
	s.connectionsOpened.Add(1)
	s.adjustMaxOpenConnections()

	down := func(cmd Command) {
		if cmd.ResponseStarted {
			s.responseStarts.Add(1)
		}

		commandPL(cmd)
	}

	up := func(evt Event) {
		switch {
		case evt.RequestStart != nil:
			s.requestStarts.Add(1)
			s.adjustMaxOpenRequests()
		case evt.ResponseStart != nil:
			s.responseStarts.Add(1)
		case evt.RequestTimedOut:
			s.requestTimeouts.Add(1)
		case evt.Closed:
			s.connectionsClosed.Add(1)
			if evt.Reason == IdleTimeout {
				s.idleTimeouts.Add(1)
			}
		}

		eventPL(evt)
	}

	return down, up
}

// NoteResponseStart records an outbound response start that did not travel
// through this stage's command function. Commands with ResponseStarted set
// are already counted by that function, and the driver in this module does
// not call NoteResponseStart.
func (s *StatisticsStage) NoteResponseStart() {
	s.responseStarts.Add(1)
}

func (s *StatisticsStage) adjustMaxOpenConnections() {
	opened, closed := s.connectionsOpened.Load(), s.connectionsClosed.Load()
	current := opened - closed

	for {
		max := s.maxOpenConnections.Load()
		if current <= max {
			return
		}

		if s.maxOpenConnections.CompareAndSwap(max, current) {
			return
		}
	}
}

func (s *StatisticsStage) adjustMaxOpenRequests() {
	starts, ends := s.requestStarts.Load(), s.responseStarts.Load()
	current := starts - ends

	for {
		max := s.maxOpenRequests.Load()
		if current <= max {
			return
		}

		if s.maxOpenRequests.CompareAndSwap(max, current) {
			return
		}
	}
}

// Snapshot reads a consistent-enough view of every counter at once.
func (s *StatisticsStage) Snapshot() Stats {
	opened, closed := s.connectionsOpened.Load(), s.connectionsClosed.Load()
	starts, ends := s.requestStarts.Load(), s.responseStarts.Load()

	return Stats{
		Uptime:             time.Since(s.start),
		TotalRequests:      starts,
		OpenRequests:       int64(starts) - int64(ends),
		MaxOpenRequests:    s.maxOpenRequests.Load(),
		TotalConnections:   opened,
		OpenConnections:    int64(opened) - int64(closed),
		MaxOpenConnections: s.maxOpenConnections.Load(),
		RequestTimeouts:    s.requestTimeouts.Load(),
		IdleTimeouts:       s.idleTimeouts.Load(),
	}
}

// Clear resets every counter atomically. It is the only reset permitted by
// §8's counter-monotonicity property.
func (s *StatisticsStage) Clear() {
	s.requestStarts.Store(0)
	s.responseStarts.Store(0)
	s.connectionsOpened.Store(0)
	s.connectionsClosed.Store(0)
	s.requestTimeouts.Store(0)
	s.idleTimeouts.Store(0)
	s.maxOpenConnections.Store(0)
	s.maxOpenRequests.Store(0)
	s.start = time.Now()
}
