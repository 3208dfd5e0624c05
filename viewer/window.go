package viewer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rtt"
	"github.com/gogpu/rtt/gpu"
)

// ErrWindowClosed is returned by AcquireNextImage and Present after Close.
var ErrWindowClosed = errors.New("viewer: window closed")

// Window is the presentation side of the frame driver: a swapchain of
// ImageCount images and the input events since the last poll.
type Window interface {
	// PollEvents returns the events received since the previous call.
	PollEvents() []Event
	// Extent returns the current surface size in pixels.
	Extent() (w, h int)
	// ImageCount is the number of swapchain images.
	ImageCount() int
	// SurfaceFormat is the format of the swapchain images.
	SurfaceFormat() gputypes.TextureFormat
	// AcquireNextImage returns the index and view of the image to draw
	// into. The view stays valid until Present.
	AcquireNextImage() (index int, view gpu.TextureView, err error)
	// Present shows the image returned by AcquireNextImage.
	Present(index int) error
	Close() error
}

// HeadlessWindow is a Window without a display. Its swapchain images are
// textures of the device, created with CopySrc so that the presented image
// can be read back.
type HeadlessWindow struct {
	dev    gpu.Device
	format gputypes.TextureFormat
	count  int

	mu      sync.Mutex
	width   int
	height  int
	images  []gpu.Texture
	views   []gpu.TextureView
	next    int
	last    int
	pending []Event
	closed  bool
}

// NewHeadlessWindow creates a w×h window with images swapchain images in
// RGBA8Unorm.
func NewHeadlessWindow(dev gpu.Device, w, h, images int) (*HeadlessWindow, error) {
	if images < 1 {
		return nil, rtt.Errorf(rtt.ErrResourceCreation, "create headless window", "image count %d", images)
	}
	win := &HeadlessWindow{
		dev:    dev,
		format: gputypes.TextureFormatRGBA8Unorm,
		count:  images,
		last:   -1,
	}
	if err := win.create(w, h); err != nil {
		return nil, err
	}
	return win, nil
}

func (win *HeadlessWindow) create(w, h int) error {
	if w <= 0 || h <= 0 {
		return rtt.Errorf(rtt.ErrResourceCreation, "create headless window", "extent %dx%d", w, h)
	}
	images := make([]gpu.Texture, 0, win.count)
	views := make([]gpu.TextureView, 0, win.count)
	release := func() {
		for i := len(views) - 1; i >= 0; i-- {
			win.dev.DestroyTextureView(views[i])
		}
		for i := len(images) - 1; i >= 0; i-- {
			win.dev.DestroyTexture(images[i])
		}
	}
	for i := range win.count {
		tex, err := win.dev.CreateTexture(&gpu.TextureDescriptor{
			Label:  fmt.Sprintf("swapchain%d", i),
			Width:  w,
			Height: h,
			Format: win.format,
			Usage:  gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
		})
		if err != nil {
			release()
			return rtt.Wrap(rtt.ErrResourceCreation, "create swapchain image", err)
		}
		images = append(images, tex)
		view, err := win.dev.CreateTextureView(tex, &gpu.TextureViewDescriptor{Label: fmt.Sprintf("swapchain%d_view", i)})
		if err != nil {
			release()
			return rtt.Wrap(rtt.ErrResourceCreation, "create swapchain view", err)
		}
		views = append(views, view)
	}
	win.destroy()
	win.images, win.views = images, views
	win.width, win.height = w, h
	win.next, win.last = 0, -1
	return nil
}

func (win *HeadlessWindow) destroy() {
	for i := len(win.views) - 1; i >= 0; i-- {
		win.dev.DestroyTextureView(win.views[i])
	}
	for i := len(win.images) - 1; i >= 0; i-- {
		win.dev.DestroyTexture(win.images[i])
	}
	win.images, win.views = nil, nil
}

// Send queues events returned by the next PollEvents.
func (win *HeadlessWindow) Send(events ...Event) {
	win.mu.Lock()
	win.pending = append(win.pending, events...)
	win.mu.Unlock()
}

// Resize recreates the swapchain at w×h and queues an EventResize. It must
// not be called while a frame is in flight.
func (win *HeadlessWindow) Resize(w, h int) error {
	win.mu.Lock()
	defer win.mu.Unlock()
	if err := win.create(w, h); err != nil {
		return err
	}
	win.pending = append(win.pending, Event{Kind: EventResize, Width: w, Height: h})
	return nil
}

// PollEvents implements Window.
func (win *HeadlessWindow) PollEvents() []Event {
	win.mu.Lock()
	defer win.mu.Unlock()
	events := win.pending
	win.pending = nil
	return events
}

// Extent implements Window.
func (win *HeadlessWindow) Extent() (w, h int) {
	win.mu.Lock()
	defer win.mu.Unlock()
	return win.width, win.height
}

// ImageCount implements Window.
func (win *HeadlessWindow) ImageCount() int { return win.count }

// SurfaceFormat implements Window.
func (win *HeadlessWindow) SurfaceFormat() gputypes.TextureFormat { return win.format }

// AcquireNextImage implements Window. Images are handed out round-robin.
func (win *HeadlessWindow) AcquireNextImage() (int, gpu.TextureView, error) {
	win.mu.Lock()
	defer win.mu.Unlock()
	if win.closed {
		return 0, nil, ErrWindowClosed
	}
	i := win.next
	win.next = (win.next + 1) % win.count
	return i, win.views[i], nil
}

// Present implements Window.
func (win *HeadlessWindow) Present(index int) error {
	win.mu.Lock()
	defer win.mu.Unlock()
	if win.closed {
		return ErrWindowClosed
	}
	if index < 0 || index >= len(win.images) {
		return fmt.Errorf("viewer: present image %d of %d", index, len(win.images))
	}
	win.last = index
	return nil
}

// Presented returns the most recently presented image, or nil before the
// first Present.
func (win *HeadlessWindow) Presented() gpu.Texture {
	win.mu.Lock()
	defer win.mu.Unlock()
	if win.last < 0 {
		return nil
	}
	return win.images[win.last]
}

// Close releases the swapchain images. It is safe to call more than once.
func (win *HeadlessWindow) Close() error {
	win.mu.Lock()
	defer win.mu.Unlock()
	if win.closed {
		return nil
	}
	win.closed = true
	win.destroy()
	return nil
}

var _ Window = (*HeadlessWindow)(nil)
