package pipeline

import (
	"github.com/nthm-io/httpcore/config"
	"github.com/nthm-io/httpcore/message"
	"github.com/nthm-io/httpcore/parser/http1"
	"github.com/indigo-web/utils/buffer"
)

// bodyReader is whichever of the three body-framing strategies the current
// message selected; at most one is active per message.
type bodyReader struct {
	fixed   *http1.FixedBodyReader
	chunked *http1.ChunkedBodyReader
	toClose *http1.ToCloseBodyReader
}

// FramingStage owns the current request parser instance and any body
// reader it installs once a start-line and header section finish. It is
// the innermost stage: the driver hands it raw socket bytes through Feed
// (the event function Build returns does nothing), and it emits
// MessageStart/Chunk/End parts upward.
type FramingStage struct {
	cfg    *config.Config
	eventPL EventFunc

	parser *http1.RequestParser
	body   bodyReader

	lineBuff, nameBuff, valueBuff, extBuff, trailerNameBuff, trailerValueBuff *buffer.Buffer
}

func NewFramingStage(cfg *config.Config) *FramingStage {
	f := &FramingStage{cfg: cfg}
	f.allocBuffers()
	f.parser = http1.NewRequestParser(cfg, f.lineBuff, f.nameBuff, f.valueBuff)

	return f
}

func (f *FramingStage) allocBuffers() {
	h := f.cfg.Headers
	f.lineBuff = buffer.New(f.cfg.URI.MaxLen, f.cfg.URI.MaxLen)
	f.nameBuff = buffer.New(h.MaxNameLen*8, h.MaxNameLen*h.MaxCount)
	f.valueBuff = buffer.New(h.MaxValueLen, h.MaxValueLen*h.MaxCount)
	f.extBuff = buffer.New(f.cfg.Body.MaxChunkExtLen, f.cfg.Body.MaxChunkExtLen)
	f.trailerNameBuff = buffer.New(h.MaxNameLen*8, h.MaxNameLen*h.MaxCount)
	f.trailerValueBuff = buffer.New(h.MaxValueLen, h.MaxValueLen*h.MaxCount)
}

func (f *FramingStage) Build(_ *Context, commandPL CommandFunc, eventPL EventFunc) (CommandFunc, EventFunc) {
	f.eventPL = eventPL

	// Commands pass through unmodified: the framing stage only acts in the
	// event (upward) direction, as the source of the events Feed produces.
	return commandPL, func(Event) {}
}

// Feed drives the parser/body-reader with newly arrived socket bytes,
// emitting every part they produce. It is called by the connection driver,
// not by an adjacent stage, since it is the pipeline's byte source.
func (f *FramingStage) Feed(data []byte) error {
	for len(data) > 0 {
		if f.body.fixed == nil && f.body.chunked == nil && f.body.toClose == nil {
			start, rest, err := f.parser.Parse(data)
			if err != nil {
				f.eventPL(Event{Err: err})
				return err
			}

			if start == nil {
				return nil
			}

			f.eventPL(Event{RequestStart: start})
			if err := f.installBodyReader(start); err != nil {
				f.eventPL(Event{Err: err})
				return err
			}

			data = rest
			continue
		}

		consumed, err := f.feedBody(data)
		if err != nil {
			f.eventPL(Event{Err: err})
			return err
		}

		if consumed == nil {
			return nil
		}

		data = consumed
	}

	return nil
}

func (f *FramingStage) installBodyReader(start *message.RequestStart) error {
	f.body = bodyReader{}

	switch start.Framing {
	case message.FramingFixed:
		r, err := http1.NewFixedBodyReader(start.ContentLength, f.cfg.Body)
		if err != nil {
			return err
		}

		if start.ContentLength == 0 {
			// A zero Content-Length completes with no further bytes ever
			// arriving for it; feeding nothing would leave the reader
			// installed forever, so finish it here instead of waiting on
			// the next Feed call.
			f.eventPL(Event{Complete: &message.Complete{}})
			f.resetForNextMessage()
			return nil
		}

		f.body.fixed = r
	case message.FramingChunked:
		_, hasTrailer := start.Headers.Get("trailer")
		f.body.chunked = http1.NewChunkedBodyReader(
			f.cfg.Body, f.extBuff, f.cfg.Headers, f.trailerNameBuff, f.trailerValueBuff, hasTrailer,
		)
	case message.FramingEmpty:
		f.eventPL(Event{Complete: &message.Complete{}})
		f.resetForNextMessage()
	case message.FramingToClose:
		f.body.toClose = http1.NewToCloseBodyReader(f.cfg.Body)
	}

	return nil
}

func (f *FramingStage) feedBody(data []byte) ([]byte, error) {
	switch {
	case f.body.fixed != nil:
		complete, rest, err := f.body.fixed.Feed(data)
		if err != nil {
			return nil, err
		}

		if complete == nil {
			return nil, nil
		}

		f.eventPL(Event{Complete: complete})
		f.resetForNextMessage()

		return rest, nil

	case f.body.chunked != nil:
		chunk, end, rest, err := f.body.chunked.Feed(data)
		if err != nil {
			return nil, err
		}

		switch {
		case chunk != nil:
			f.eventPL(Event{Chunk: chunk})
			return rest, nil
		case end != nil:
			f.eventPL(Event{ChunkedEnd: end})
			f.resetForNextMessage()
			return rest, nil
		default:
			return nil, nil
		}

	case f.body.toClose != nil:
		if err := f.body.toClose.Feed(data); err != nil {
			return nil, err
		}

		return nil, nil
	}

	return nil, nil
}

// Closed tells a to-close body reader (if any) that the socket half-closed,
// finalizing its Complete part.
func (f *FramingStage) Closed() {
	if f.body.toClose != nil {
		f.eventPL(Event{Complete: f.body.toClose.Close()})
		f.resetForNextMessage()
	}
}

func (f *FramingStage) resetForNextMessage() {
	f.body = bodyReader{}
	f.parser.Reset()
}
