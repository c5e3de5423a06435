package nekoai

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// EventType tags a stream event.
type EventType string

const (
	EventIntermediate EventType = "intermediate"
	EventFinal        EventType = "final"
)

// Event is one classified unit of a streaming generation: either an
// intermediate denoising step (JPEG) or the final image (PNG). Events
// are yielded in arrival order; exactly one Final terminates a stream.
type Event struct {
	Type   EventType
	SampIx int
	StepIx int
	GenID  string
	Sigma  float64
	Image  Image
}

// Frames above this size indicate corrupted framing rather than image
// data.
const maxFrameSize = 64 << 20

// streamFrame is the decoded msgpack body of one frame.
type streamFrame struct {
	EventType string      `msgpack:"event_type"`
	SampIx    int         `msgpack:"samp_ix"`
	StepIx    int         `msgpack:"step_ix"`
	GenID     interface{} `msgpack:"gen_id"`
	Sigma     float64     `msgpack:"sigma"`
	Image     []byte      `msgpack:"image"`
}

// StreamParser incrementally classifies the backend's length-prefixed
// msgpack stream. Feed it raw chunks as they arrive; it owns only the
// buffer for the frame currently being assembled and is not safe for
// concurrent use — one parser per stream session.
//
// States: awaiting a 4-byte big-endian length prefix, accumulating the
// frame body, emit, and back to awaiting. The backend sends one Final
// event per requested sample; the session terminates once the expected
// number of Finals has been emitted and anything fed afterwards is
// discarded.
type StreamParser struct {
	buf        []byte
	frameLen   int // -1 while awaiting the length prefix
	wantFinals int
	finals     int
	done       bool
	now        func() time.Time
}

// NewStreamParser returns a parser for one stream session, terminating
// on the first Final event.
func NewStreamParser() *StreamParser {
	return &StreamParser{frameLen: -1, wantFinals: 1, now: time.Now}
}

// ExpectFinals sets how many Final events terminate the session, one
// per requested sample. The default is 1.
func (p *StreamParser) ExpectFinals(n int) {
	if n > 0 {
		p.wantFinals = n
	}
}

// Feed consumes one transport chunk and returns the events completed by
// it, possibly none. Keep-alive frames carry no renderable content and
// produce no event. A malformed frame fails the whole session with an
// error wrapping ErrStreamFraming.
func (p *StreamParser) Feed(chunk []byte) ([]Event, error) {
	if p.done {
		return nil, nil
	}
	p.buf = append(p.buf, chunk...)

	var events []Event
	for {
		if p.frameLen < 0 {
			if len(p.buf) < 4 {
				return events, nil
			}
			n := binary.BigEndian.Uint32(p.buf[:4])
			if n > maxFrameSize {
				return events, fmt.Errorf("%w: frame length %d exceeds limit", ErrStreamFraming, n)
			}
			p.frameLen = int(n)
			p.buf = p.buf[4:]
		}

		if len(p.buf) < p.frameLen {
			return events, nil
		}

		frame := p.buf[:p.frameLen]
		p.buf = append([]byte(nil), p.buf[p.frameLen:]...)
		p.frameLen = -1

		ev, ok, err := p.classify(frame)
		if err != nil {
			return events, err
		}
		if !ok {
			continue
		}
		events = append(events, ev)
		if ev.Type == EventFinal {
			p.finals++
			if p.finals >= p.wantFinals {
				p.done = true
				p.buf = nil
				return events, nil
			}
		}
	}
}

// Done reports whether all expected Final events have been emitted.
func (p *StreamParser) Done() bool {
	return p.done
}

// classify decodes one complete frame. Frames that unpack but carry no
// event_type are keep-alives and yield nothing.
func (p *StreamParser) classify(frame []byte) (Event, bool, error) {
	if len(frame) == 0 {
		return Event{}, false, nil
	}

	var f streamFrame
	if err := msgpack.Unmarshal(frame, &f); err != nil {
		return Event{}, false, fmt.Errorf("%w: %v", ErrStreamFraming, err)
	}
	if f.EventType == "" {
		return Event{}, false, nil
	}

	var typ EventType
	switch f.EventType {
	case string(EventIntermediate):
		typ = EventIntermediate
	case string(EventFinal):
		typ = EventFinal
	default:
		return Event{}, false, fmt.Errorf("%w: unknown event type %q", ErrStreamFraming, f.EventType)
	}

	ext := extension(f.Image)
	stamp := p.now().Format("20060102_150405")
	var filename string
	if typ == EventFinal {
		filename = fmt.Sprintf("%s_final.%s", stamp, ext)
	} else {
		filename = fmt.Sprintf("%s_step_%02d.%s", stamp, f.StepIx, ext)
	}

	return Event{
		Type:   typ,
		SampIx: f.SampIx,
		StepIx: f.StepIx,
		GenID:  fmt.Sprint(f.GenID),
		Sigma:  f.Sigma,
		Image:  Image{Filename: filename, Data: f.Image},
	}, true, nil
}

// parseEvents classifies a fully buffered msgpack response, as returned
// by the non-streaming V4 call. finals is the number of samples the
// request asked for.
func parseEvents(data []byte, finals int) ([]Event, error) {
	p := NewStreamParser()
	p.ExpectFinals(finals)
	events, err := p.Feed(data)
	if err != nil {
		return nil, err
	}
	return events, nil
}

// finalImages extracts only the terminal images from a buffered stream.
func finalImages(events []Event) []Image {
	var images []Image
	for _, ev := range events {
		if ev.Type == EventFinal {
			images = append(images, ev.Image)
		}
	}
	return images
}
