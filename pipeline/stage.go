package pipeline

// Context is the per-connection state every stage is built against: an
// identifier for logging/statistics purposes. It
// carries nothing mutable that crosses goroutine boundaries - each
// connection's pipeline instance is only ever touched by its own actor.
type Context struct {
	ConnectionID string
}

// CommandFunc pushes a command further down the pipeline (towards the
// transport). EventFunc pushes an event further up (towards the
// application). A Stage wraps the adjacent pipeline it was built with and
// exposes its own functions of the same shape, so stages compose by
// threading closures - construction order fixes traversal order, per §4.2.
type CommandFunc func(Command)
type EventFunc func(Event)

// Stage is a bidirectional transformer over the command and event streams.
// Build wires a stage between the adjacent command pipeline (commandPL,
// already pointed further down) and event pipeline (eventPL, already
// pointed further up), returning this stage's own entry points.
type Stage interface {
	Build(ctx *Context, commandPL CommandFunc, eventPL EventFunc) (commandPipeline CommandFunc, eventPipeline EventFunc)
}

// Pipeline is a connection's fully built, ordered chain of stages: pushing
// into Commands flows down through every stage to the transport; pushing
// into Events (done by the framing stage reading off the wire) flows up
// through every stage to the application.
type Pipeline struct {
	Commands CommandFunc
	Events   EventFunc
}

// Build composes stages in the given order. The first stage is outermost
// (closest to the application) for commands and innermost (closest to the
// transport) for events, matching the source's construction order.
func Build(ctx *Context, stages []Stage, transportSend CommandFunc, application EventFunc) Pipeline {
	commandPL := transportSend
	eventPL := application

	// Stages are built in reverse so that the first stage in the slice ends
	// up as the outermost command entry point and the event entry point
	// nearest the transport, i.e. the pipeline reads top-to-bottom as written.
	built := make([]Stage, len(stages))
	copy(built, stages)

	cmdChain := make([]CommandFunc, len(stages)+1)
	evtChain := make([]EventFunc, len(stages)+1)
	cmdChain[len(stages)] = transportSend
	evtChain[len(stages)] = application

	for i := len(stages) - 1; i >= 0; i-- {
		cmd, evt := stages[i].Build(ctx, cmdChain[i+1], evtChain[i+1])
		cmdChain[i] = cmd
		evtChain[i] = evt
	}

	if len(stages) == 0 {
		return Pipeline{Commands: commandPL, Events: eventPL}
	}

	return Pipeline{Commands: cmdChain[0], Events: evtChain[0]}
}
