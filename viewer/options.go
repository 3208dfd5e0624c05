package viewer

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/rtt/assets"
	"github.com/gogpu/rtt/graph"
	"github.com/gogpu/rtt/gui"
	"github.com/gogpu/rtt/render"
	"github.com/gogpu/rtt/scene"
)

// DefaultTargetSize is the width and height of the offscreen target.
const DefaultTargetSize = 1024

type options struct {
	mode          graph.Mode
	multithreaded bool
	workers       int
	width, height int
	depth         render.DepthConvention
	clear         gputypes.Color
	scene         *scene.Scene
	callback      gui.Callback
	params        *gui.Params
	guiOptions    []gui.Option
	finder        *assets.Finder
	frames        int
	replay        *EventLog
	record        *EventLog
}

func defaultOptions() options {
	return options{
		mode:     graph.ModeCombined,
		width:    DefaultTargetSize,
		height:   DefaultTargetSize,
		depth:    render.DepthReversed,
		clear:    render.DefaultOffscreenClear,
		callback: gui.Demo,
		frames:   -1,
	}
}

// Option configures Setup.
type Option func(*options)

// WithMode selects how the roots are grouped into command graph nodes.
func WithMode(m graph.Mode) Option {
	return func(o *options) { o.mode = m }
}

// WithMultithreading records the command graph nodes in parallel on
// workers goroutines. workers <= 0 means GOMAXPROCS.
func WithMultithreading(on bool, workers int) Option {
	return func(o *options) {
		o.multithreaded = on
		o.workers = workers
	}
}

// WithTargetSize sets the offscreen target extent.
func WithTargetSize(w, h int) Option {
	return func(o *options) { o.width, o.height = w, h }
}

// WithDepthConvention sets the depth convention of both passes.
func WithDepthConvention(c render.DepthConvention) Option {
	return func(o *options) { o.depth = c }
}

// WithOffscreenClear sets the clear color of the offscreen pass.
func WithOffscreenClear(c gputypes.Color) Option {
	return func(o *options) { o.clear = c }
}

// WithScene draws sc in the offscreen pass.
func WithScene(sc *scene.Scene) Option {
	return func(o *options) { o.scene = sc }
}

// WithCallback replaces the demo GUI.
func WithCallback(cb gui.Callback) Option {
	return func(o *options) { o.callback = cb }
}

// WithParams sets the initial GUI state. The driver becomes its owner.
func WithParams(p *gui.Params) Option {
	return func(o *options) { o.params = p }
}

// WithGUIOptions configures the GUI context, such as its font.
func WithGUIOptions(opts ...gui.Option) Option {
	return func(o *options) { o.guiOptions = append(o.guiOptions, opts...) }
}

// WithFinder sets where shaders are looked up.
func WithFinder(f *assets.Finder) Option {
	return func(o *options) { o.finder = f }
}

// WithFrameLimit stops the driver after n frames. A negative n means no
// limit.
func WithFrameLimit(n int) Option {
	return func(o *options) { o.frames = n }
}

// WithEventPlayback feeds the events of log to the frames they were
// recorded in, after the window's own events.
func WithEventPlayback(log *EventLog) Option {
	return func(o *options) { o.replay = log }
}

// WithEventRecording appends every polled event to log.
func WithEventRecording(log *EventLog) Option {
	return func(o *options) { o.record = log }
}
