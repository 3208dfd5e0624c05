// Package software implements recording.Backend on the CPU.
//
// The backend is a small deterministic rasterizer: fixed-point edge
// functions with the top-left fill rule, perspective-correct varyings,
// depth testing, premultiplied-alpha blending and bilinear sampling. It
// executes shaders through the gpu.ReferenceShader carried by every
// pipeline descriptor; WGSL sources are ignored.
//
// Commands execute while a recording is played back. Submit only retires
// the command buffers that were ended, so execution order equals playback
// order. Results are identical for any number of workers.
//
// The backend registers itself as "software":
//
//	import _ "github.com/gogpu/rtt/backend/software"
package software

import (
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rtt"
	"github.com/gogpu/rtt/gpu"
	"github.com/gogpu/rtt/internal/parallel"
	"github.com/gogpu/rtt/recording"
)

// Name is the registry name of the backend.
const Name = "software"

func init() {
	recording.Register(Name, func() (recording.Backend, error) {
		return New(), nil
	})
}

var (
	errNotEncoding = errors.New("software: no command buffer is being encoded")
	errEncoding    = errors.New("software: command buffer already being encoded")
	errPassActive  = errors.New("software: render pass still active")
)

// Option configures a Backend.
type Option func(*options)

type options struct {
	workers int
}

// WithWorkers sets the number of goroutines that rasterize large
// triangles. 0 means GOMAXPROCS; 1 rasterizes on the calling goroutine.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// Backend is the CPU implementation of recording.Backend.
type Backend struct {
	mu     sync.Mutex
	live   int
	closed bool

	pool *parallel.WorkerPool

	// Command buffer state, touched only by the playback goroutine.
	encoding  bool
	label     string
	pass      *passState
	pending   int
	submitted int
	err       error
}

// New creates a software backend.
func New(opts ...Option) *Backend {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	b := &Backend{}
	if o.workers != 1 {
		b.pool = parallel.NewWorkerPool(o.workers)
	}
	rtt.Logger().Debug("software: backend created", "workers", o.workers)
	return b
}

// Name implements gpu.Device.
func (b *Backend) Name() string { return Name }

// Live returns the number of resources created and not yet destroyed.
func (b *Backend) Live() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live
}

// Submitted returns the number of command buffers retired by Submit.
func (b *Backend) Submitted() int {
	return b.submitted
}

// Begin implements recording.Backend.
func (b *Backend) Begin(label string) error {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return gpu.ErrDeviceLost
	}
	if b.encoding {
		return fmt.Errorf("%w: %q", errEncoding, b.label)
	}
	b.encoding = true
	b.label = label
	b.err = nil
	return nil
}

// End implements recording.Backend. It returns the first error raised by
// a command of the buffer.
func (b *Backend) End() error {
	if !b.encoding {
		return errNotEncoding
	}
	b.encoding = false
	if b.pass != nil {
		b.pass = nil
		return fmt.Errorf("%w in %q", errPassActive, b.label)
	}
	b.pending++
	return b.err
}

// Submit implements recording.Backend.
func (b *Backend) Submit() error {
	if b.encoding {
		return fmt.Errorf("%w: %q", errEncoding, b.label)
	}
	b.submitted += b.pending
	b.pending = 0
	return nil
}

// WaitIdle implements recording.Backend. Work is complete when Submit
// returns.
func (b *Backend) WaitIdle() error { return nil }

// Close implements recording.Backend.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	if b.pool != nil {
		b.pool.Close()
	}
	return nil
}

// fail records the first error of the current command buffer.
func (b *Backend) fail(err error) {
	if b.err == nil {
		b.err = err
	}
}

// ReadTexture implements recording.Backend.
func (b *Backend) ReadTexture(tex gpu.Texture) (*image.RGBA, error) {
	t, err := b.texture(tex)
	if err != nil {
		return nil, err
	}
	if t.color == nil {
		return nil, fmt.Errorf("%w: read depth texture %q", gpu.ErrUnsupportedFormat, t.desc.Label)
	}
	if t.desc.Usage&gputypes.TextureUsageCopySrc == 0 {
		return nil, fmt.Errorf("%w: texture %q lacks CopySrc usage", gpu.ErrInvalidDescriptor, t.desc.Label)
	}
	img := image.NewRGBA(image.Rect(0, 0, t.desc.Width, t.desc.Height))
	copy(img.Pix, t.color)
	if t.bgra {
		for i := 0; i < len(img.Pix); i += 4 {
			img.Pix[i], img.Pix[i+2] = img.Pix[i+2], img.Pix[i]
		}
	}
	return img, nil
}
