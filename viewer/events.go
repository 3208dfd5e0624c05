package viewer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gogpu/rtt/gui"
)

// EventKind names an input event. The names are used in event files.
type EventKind string

const (
	// EventKey is a key press. Key holds the key name.
	EventKey EventKind = "key"
	// EventPointer is the pointer state in offscreen target pixels.
	EventPointer EventKind = "pointer"
	// EventResize reports a new window extent.
	EventResize EventKind = "resize"
	// EventClose is a request to close the window.
	EventClose EventKind = "close"
)

// KeyEscape is the key name that closes the viewer.
const KeyEscape = "Escape"

// Event is one input event.
type Event struct {
	Kind   EventKind `yaml:"kind"`
	Key    string    `yaml:"key,omitempty"`
	X      float64   `yaml:"x,omitempty"`
	Y      float64   `yaml:"y,omitempty"`
	Down   bool      `yaml:"down,omitempty"`
	Width  int       `yaml:"width,omitempty"`
	Height int       `yaml:"height,omitempty"`
}

// Input returns the GUI pointer state of a pointer event.
func (e Event) Input() gui.Input {
	return gui.Input{X: e.X, Y: e.Y, Down: e.Down}
}

// FrameEvents are the events polled during one frame.
type FrameEvents struct {
	Frame  uint64  `yaml:"frame"`
	Events []Event `yaml:"events"`
}

// EventLog is the content of an event file: the input of every frame that
// had any, in frame order.
type EventLog struct {
	Frames []FrameEvents `yaml:"frames"`
}

// Add appends the events of frame. Empty frames are not stored.
func (l *EventLog) Add(frame uint64, events []Event) {
	if len(events) == 0 {
		return
	}
	if n := len(l.Frames); n > 0 && l.Frames[n-1].Frame == frame {
		l.Frames[n-1].Events = append(l.Frames[n-1].Events, events...)
		return
	}
	l.Frames = append(l.Frames, FrameEvents{Frame: frame, Events: append([]Event(nil), events...)})
}

// Len returns the number of stored events.
func (l *EventLog) Len() int {
	n := 0
	for _, f := range l.Frames {
		n += len(f.Events)
	}
	return n
}

// ByFrame indexes the log by frame number.
func (l *EventLog) ByFrame() map[uint64][]Event {
	m := make(map[uint64][]Event, len(l.Frames))
	for _, f := range l.Frames {
		m[f.Frame] = append(m[f.Frame], f.Events...)
	}
	return m
}

// Save writes the log as YAML.
func (l *EventLog) Save(path string) error {
	data, err := yaml.Marshal(l)
	if err != nil {
		return fmt.Errorf("viewer: encode events: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("viewer: write events: %w", err)
	}
	return nil
}

// ParseEvents decodes an event file.
func ParseEvents(data []byte) (*EventLog, error) {
	var l EventLog
	if err := yaml.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("viewer: decode events: %w", err)
	}
	for _, f := range l.Frames {
		for _, e := range f.Events {
			switch e.Kind {
			case EventKey, EventPointer, EventResize, EventClose:
			default:
				return nil, fmt.Errorf("viewer: frame %d: unknown event kind %q", f.Frame, e.Kind)
			}
		}
	}
	return &l, nil
}

// LoadEvents reads an event file.
func LoadEvents(path string) (*EventLog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("viewer: read events: %w", err)
	}
	return ParseEvents(data)
}
