package viewer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rtt"
	"github.com/gogpu/rtt/assets"
	"github.com/gogpu/rtt/gpu"
	"github.com/gogpu/rtt/graph"
	"github.com/gogpu/rtt/gui"
	"github.com/gogpu/rtt/internal/parallel"
	"github.com/gogpu/rtt/recording"
	"github.com/gogpu/rtt/render"
)

// ErrTerminated is returned by Frame after the driver stopped.
var ErrTerminated = errors.New("viewer: frame driver terminated")

// State is a step of the frame cycle.
type State uint8

const (
	StateIdle State = iota
	StateEventPolling
	StateUpdating
	StateRecording
	StateSubmitting
	StatePresenting
	StateTerminated
)

var stateNames = [...]string{
	StateIdle:         "Idle",
	StateEventPolling: "EventPolling",
	StateUpdating:     "Updating",
	StateRecording:    "Recording",
	StateSubmitting:   "Submitting",
	StatePresenting:   "Presenting",
	StateTerminated:   "Terminated",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}

// FrameState is the application state carried across frames.
type FrameState struct {
	// Frame counts completed frames.
	Frame uint64
	// Width and Height are the window extent of the current frame.
	Width, Height int
	// Params is edited by the GUI callback during Recording. Read it only
	// from the goroutine that calls Frame.
	Params *gui.Params
}

// FrameDriver owns the two render passes and runs the frame cycle:
// poll events, update, record, submit, present.
//
// Frame and Advance must be called from one goroutine. RequestClose may be
// called from any goroutine.
type FrameDriver struct {
	backend recording.Backend
	win     Window
	opts    options
	now     func() time.Time

	set       *render.AttachmentSet
	offscreen *render.OffscreenTarget
	onscreen  *render.OnscreenTarget
	meshes    *render.Meshes
	overlay   *render.Overlay
	quads     *render.Quads
	nodes     []*graph.CommandGraphNode
	pool      *parallel.WorkerPool

	replay map[uint64][]Event

	state     State
	frame     FrameState
	lastFrame time.Time
	presented gpu.TextureView

	closeRequested atomic.Bool
	closeOnce      sync.Once
	closeErr       error
}

// Setup builds every resource of the two passes on backend and composes
// the command graph. It returns rtt.ErrResourceCreation or rtt.ErrShaderLoad
// errors.
func Setup(backend recording.Backend, win Window, opts ...Option) (*FrameDriver, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if backend == nil || win == nil {
		return nil, rtt.Errorf(rtt.ErrResourceCreation, "setup", "nil backend or window")
	}
	if o.params == nil {
		o.params = gui.DefaultParams()
	}
	if o.finder == nil {
		o.finder = assets.NewFinder()
	}

	d := &FrameDriver{
		backend: backend,
		win:     win,
		opts:    o,
		now:     time.Now,
	}
	d.frame.Params = o.params
	d.frame.Width, d.frame.Height = win.Extent()
	if o.replay != nil {
		d.replay = o.replay.ByFrame()
	}
	if err := d.build(); err != nil {
		d.release()
		return nil, err
	}
	if o.multithreaded {
		d.pool = parallel.NewWorkerPool(o.workers)
	}
	rtt.Logger().Info("viewer: setup complete",
		"backend", backend.Name(),
		"target", fmt.Sprintf("%dx%d", o.width, o.height),
		"window", fmt.Sprintf("%dx%d", d.frame.Width, d.frame.Height),
		"mode", o.mode,
		"multithreaded", o.multithreaded,
		"depth", o.depth)
	return d, nil
}

func (d *FrameDriver) build() error {
	o := &d.opts
	var err error
	if d.set, err = render.NewAttachmentSet(d.backend, o.width, o.height); err != nil {
		return err
	}
	pass, err := render.NewOffscreenRenderPass(d.set.Color.Format, d.set.Depth.Format, 1)
	if err != nil {
		return err
	}
	fb, err := render.NewFramebuffer(pass, d.set)
	if err != nil {
		return err
	}
	d.offscreen, err = render.NewOffscreenTarget(fb,
		render.WithClearColor(o.clear),
		render.WithDepthConvention(o.depth))
	if err != nil {
		return err
	}

	finder := render.WithShaderFinder(o.finder)
	if o.scene != nil && !o.scene.Empty() {
		cam := render.NewCameraForBounds(o.scene.Bounds(), aspect(o.width, o.height), o.depth)
		if d.meshes, err = render.NewMeshes(d.backend, pass, o.depth, o.scene, cam, finder); err != nil {
			return err
		}
		d.offscreen.Add(d.meshes)
	}

	d.overlay, err = render.NewOverlay(d.backend, pass, o.callback, o.params, render.OverlayOptions{
		MinImageCount: render.MinOverlayImages,
		ImageCount:    max(d.win.ImageCount(), render.MinOverlayImages),
		Width:         o.width,
		Height:        o.height,
		GUIOptions:    o.guiOptions,
		Finder:        o.finder,
	})
	if err != nil {
		return err
	}
	d.offscreen.Add(d.overlay)

	w, h := d.frame.Width, d.frame.Height
	d.onscreen, err = render.NewOnscreenTarget(d.backend, w, h,
		render.WithClearColor(clearColor(o.params.ClearColor)),
		render.WithDepthConvention(o.depth))
	if err != nil {
		return err
	}
	cam := render.NewQuadCamera(render.QuadBounds(), aspect(w, h), o.depth)
	d.quads, err = render.NewQuads(d.backend, d.win.SurfaceFormat(), d.onscreen.DepthFormat(), o.depth, d.set, cam, finder)
	if err != nil {
		return err
	}
	d.onscreen.Add(d.quads)

	d.nodes, err = graph.Compose(d.offscreen, d.onscreen, o.mode)
	return err
}

func aspect(w, h int) float32 {
	if h <= 0 {
		return 1
	}
	return float32(w) / float32(h)
}

func clearColor(c [3]float32) gputypes.Color {
	return gputypes.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2]), A: 1}
}

// SetClock replaces time.Now for frame timing. Tests use it to make the
// GUI's framerate text deterministic.
func (d *FrameDriver) SetClock(now func() time.Time) { d.now = now }

// State returns the current step.
func (d *FrameDriver) State() State { return d.state }

// FrameState returns a copy of the frame state.
func (d *FrameDriver) FrameState() FrameState { return d.frame }

// Nodes returns the command graph nodes in submission order.
func (d *FrameDriver) Nodes() []*graph.CommandGraphNode { return d.nodes }

// Attachments returns the offscreen attachments.
func (d *FrameDriver) Attachments() *render.AttachmentSet { return d.set }

// Offscreen returns the offscreen root.
func (d *FrameDriver) Offscreen() *render.OffscreenTarget { return d.offscreen }

// Onscreen returns the onscreen root.
func (d *FrameDriver) Onscreen() *render.OnscreenTarget { return d.onscreen }

// Overlay returns the GUI overlay.
func (d *FrameDriver) Overlay() *render.Overlay { return d.overlay }

// Quads returns the textured quads drawn onscreen.
func (d *FrameDriver) Quads() *render.Quads { return d.quads }

// Meshes returns the scene meshes, or nil without a scene.
func (d *FrameDriver) Meshes() *render.Meshes { return d.meshes }

// RequestClose makes the next Advance return false.
func (d *FrameDriver) RequestClose() { d.closeRequested.Store(true) }

// Advance reports whether another frame should run. Once it returns false
// the driver is terminated.
func (d *FrameDriver) Advance() bool {
	if d.state == StateTerminated {
		return false
	}
	if d.closeRequested.Load() {
		d.terminate("close requested")
		return false
	}
	if d.opts.frames >= 0 && d.frame.Frame >= uint64(d.opts.frames) {
		d.terminate("frame limit")
		return false
	}
	return true
}

func (d *FrameDriver) terminate(reason string) {
	if d.state == StateTerminated {
		return
	}
	d.state = StateTerminated
	rtt.Logger().Info("viewer: terminated", "reason", reason, "frames", d.frame.Frame)
}

// Run calls Frame until Advance returns false or ctx is done. It returns
// the first frame error; a cancelled ctx is a normal termination.
func (d *FrameDriver) Run(ctx context.Context) error {
	for d.Advance() {
		if ctx.Err() != nil {
			d.terminate("context done")
			return nil
		}
		if err := d.Frame(); err != nil {
			return err
		}
	}
	return nil
}

// Frame runs one cycle. A close event ends the cycle after polling and
// terminates the driver. Any error terminates the driver.
func (d *FrameDriver) Frame() error {
	if d.state == StateTerminated {
		return ErrTerminated
	}
	err := d.frameCycle()
	if err != nil {
		d.terminate("error")
		return err
	}
	if d.state != StateTerminated {
		d.state = StateIdle
	}
	return nil
}

func (d *FrameDriver) frameCycle() error {
	d.state = StateEventPolling
	d.pollEvents()
	if d.closeRequested.Load() {
		d.terminate("close requested")
		return nil
	}

	d.state = StateUpdating
	if err := d.update(); err != nil {
		return err
	}

	d.state = StateRecording
	index, view, err := d.win.AcquireNextImage()
	if err != nil {
		return rtt.Wrap(rtt.ErrPresentation, "acquire image", err)
	}
	frame := &render.FrameContext{
		Index:      d.frame.Frame,
		ImageIndex: index,
		Surface:    view,
		Width:      d.frame.Width,
		Height:     d.frame.Height,
	}
	recs, err := d.record(frame)
	if err != nil {
		return rtt.Wrap(rtt.ErrPresentation, "record frame", err)
	}

	d.state = StateSubmitting
	for _, r := range recs {
		if err := r.Playback(d.backend); err != nil {
			return rtt.Wrap(rtt.ErrPresentation, "play back "+r.Label(), err)
		}
	}
	if err := d.backend.Submit(); err != nil {
		return rtt.Wrap(rtt.ErrPresentation, "submit", err)
	}

	d.state = StatePresenting
	if err := d.win.Present(index); err != nil {
		return rtt.Wrap(rtt.ErrPresentation, "present", err)
	}
	d.presented = view
	rtt.Logger().Debug("viewer: frame presented", "frame", d.frame.Frame, "image", index)
	d.frame.Frame++
	return nil
}

func (d *FrameDriver) pollEvents() {
	events := d.win.PollEvents()
	if d.replay != nil {
		events = append(events, d.replay[d.frame.Frame]...)
	}
	if d.opts.record != nil {
		d.opts.record.Add(d.frame.Frame, events)
	}
	for _, e := range events {
		switch e.Kind {
		case EventClose:
			d.RequestClose()
		case EventKey:
			if e.Key == KeyEscape {
				d.RequestClose()
			}
		case EventPointer:
			d.overlay.SetInput(e.Input())
		}
	}
}

// update hands the state edited by the previous frame's GUI to the
// following passes and follows the window extent.
func (d *FrameDriver) update() error {
	now := d.now()
	if !d.lastFrame.IsZero() {
		d.overlay.SetFrameTime(now.Sub(d.lastFrame))
	}
	d.lastFrame = now

	d.onscreen.SetClearColor(clearColor(d.frame.Params.ClearColor))

	w, h := d.win.Extent()
	if w == d.frame.Width && h == d.frame.Height {
		return nil
	}
	if err := d.onscreen.Resize(w, h); err != nil {
		return err
	}
	d.quads.SetCamera(d.quads.Camera().WithAspect(aspect(w, h)))
	d.frame.Width, d.frame.Height = w, h
	rtt.Logger().Debug("viewer: window resized", "width", w, "height", h)
	return nil
}

// record records every node into its own recorder, on the worker pool when
// multithreading is on.
func (d *FrameDriver) record(frame *render.FrameContext) ([]*recording.Recording, error) {
	recs := make([]*recording.Recording, len(d.nodes))
	if d.pool == nil || len(d.nodes) < 2 {
		for i, n := range d.nodes {
			r, err := n.Record(frame)
			if err != nil {
				return nil, err
			}
			recs[i] = r
		}
		return recs, nil
	}
	jobs := make([]func() error, len(d.nodes))
	for i, n := range d.nodes {
		jobs[i] = func() error {
			r, err := n.Record(frame)
			recs[i] = r
			return err
		}
	}
	if err := d.pool.Run(jobs); err != nil {
		return nil, err
	}
	return recs, nil
}

// Close waits for the device to go idle and releases every resource the
// driver created. The backend and the window stay open.
func (d *FrameDriver) Close() error {
	d.closeOnce.Do(func() {
		d.terminate("closed")
		d.closeErr = d.backend.WaitIdle()
		if d.pool != nil {
			d.pool.Close()
		}
		d.release()
	})
	return d.closeErr
}

func (d *FrameDriver) release() {
	if d.quads != nil {
		d.quads.Destroy()
	}
	if d.onscreen != nil {
		d.onscreen.Destroy()
	}
	if d.overlay != nil {
		d.overlay.Destroy()
	}
	if d.meshes != nil {
		d.meshes.Destroy()
	}
	if d.set != nil {
		d.set.Destroy()
	}
}
