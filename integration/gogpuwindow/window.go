// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package gogpuwindow presents the viewer in a gogpu application window.
//
// The window shares the application's HAL device: the viewer's wgpu
// backend is built on the device and queue of the app's GPU context
// provider, and every frame is drawn into the app's surface view from
// inside OnDraw. gogpu presents the surface after OnDraw returns, so
// Present is a no-op here.
//
// Usage:
//
//	win := gogpuwindow.New(gogpuwindow.Config{Title: "rtt", Width: 1280, Height: 720})
//	err := win.Run(func(b recording.Backend, w viewer.Window) (*viewer.FrameDriver, error) {
//	    return viewer.Setup(b, w, opts...)
//	})
package gogpuwindow

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gogpu"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rtt"
	"github.com/gogpu/rtt/backend/wgpu"
	"github.com/gogpu/rtt/gpu"
	"github.com/gogpu/rtt/recording"
	"github.com/gogpu/rtt/viewer"
)

var (
	// ErrNoSurface is returned by AcquireNextImage outside OnDraw.
	ErrNoSurface = errors.New("gogpuwindow: no surface outside OnDraw")

	// ErrNoHAL is returned when the app's provider does not expose its
	// HAL device and queue.
	ErrNoHAL = errors.New("gogpuwindow: provider does not expose HAL types")
)

// Config configures the application window.
type Config struct {
	Title         string
	Width, Height int
	// Images is the swapchain image count reported to the viewer.
	// Default 2.
	Images int
	// Screen and Display select where the window opens. They are logged
	// and left to the platform layer.
	Screen  int
	Display string
	// Layers are the debug layers put around the shared device's backend.
	// The app owns the device, so driver debug layers are not available.
	Layers recording.Layers
}

// SetupFunc builds the frame driver once the device is available.
type SetupFunc func(backend recording.Backend, win viewer.Window) (*viewer.FrameDriver, error)

// Window is a viewer.Window backed by a gogpu.App.
type Window struct {
	app    *gogpu.App
	cfg    Config
	format gputypes.TextureFormat

	backend *wgpu.Backend
	driver  *viewer.FrameDriver
	err     error

	mu      sync.Mutex
	events  []viewer.Event
	surface gpu.TextureView
	width   int
	height  int
}

// New creates the application. The window opens in Run.
func New(cfg Config) *Window {
	if cfg.Images <= 0 {
		cfg.Images = 2
	}
	app := gogpu.NewApp(gogpu.DefaultConfig().
		WithTitle(cfg.Title).
		WithSize(cfg.Width, cfg.Height).
		WithContinuousRender(true))
	return &Window{app: app, cfg: cfg, width: cfg.Width, height: cfg.Height}
}

// BackendFromProvider builds a wgpu backend on the HAL device and queue of
// a gogpu GPU context provider. Closing the backend leaves them alive.
func BackendFromProvider(provider any) (*wgpu.Backend, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHAL
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHAL)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHAL)
	}
	return wgpu.NewFromHAL(device, queue), nil
}

// Run opens the window and drives the viewer from OnDraw until the viewer
// terminates or the window is closed. setup runs on the first frame.
func (w *Window) Run(setup SetupFunc) error {
	rtt.Logger().Debug("gogpuwindow: opening", "title", w.cfg.Title, "screen", w.cfg.Screen, "display", w.cfg.Display)

	w.app.OnDraw(func(dc *gogpu.Context) {
		if w.err != nil {
			return
		}
		if w.driver == nil {
			if err := w.start(setup, dc.Width(), dc.Height()); err != nil {
				w.fail(err)
				return
			}
			rtt.Logger().Info("gogpuwindow: running", "backend", dc.Backend())
		}
		if !w.driver.Advance() {
			w.app.Quit()
			return
		}
		if err := w.beginFrame(dc.SurfaceView(), dc.Width(), dc.Height()); err != nil {
			w.fail(err)
			return
		}
		err := w.driver.Frame()
		w.endFrame()
		if err != nil {
			w.fail(err)
		}
	})

	w.app.EventSource().OnKeyPress(func(key gpucontext.Key, _ gpucontext.Modifiers) {
		w.keyPressed(key)
	})

	w.app.OnClose(func() {
		w.push(viewer.Event{Kind: viewer.EventClose})
		if w.driver != nil {
			if err := w.driver.Close(); err != nil {
				w.err = errors.Join(w.err, err)
			}
		}
		if w.backend != nil {
			_ = w.backend.Close()
		}
	})

	err := w.app.Run()
	return errors.Join(err, w.err)
}

func (w *Window) start(setup SetupFunc, width, height int) error {
	provider := w.app.GPUContextProvider()
	if provider == nil {
		return rtt.Errorf(rtt.ErrResourceCreation, "open window", "no GPU context provider")
	}
	b, err := BackendFromProvider(provider)
	if err != nil {
		return rtt.Wrap(rtt.ErrResourceCreation, "share device", err)
	}
	w.format = provider.SurfaceFormat()
	w.mu.Lock()
	w.width, w.height = width, height
	w.mu.Unlock()
	return w.attach(b, setup)
}

// attach builds the driver on b inside the configured debug layers.
func (w *Window) attach(b *wgpu.Backend, setup SetupFunc) error {
	w.backend = b
	d, err := setup(w.cfg.Layers.Wrap(b, rtt.Logger()), w)
	if err != nil {
		return err
	}
	w.driver = d
	return nil
}

func (w *Window) fail(err error) {
	w.err = err
	rtt.Logger().Error("gogpuwindow: stopping", "err", err)
	w.app.Quit()
}

// beginFrame makes the app's surface view the image of the next
// AcquireNextImage.
func (w *Window) beginFrame(surface any, width, height int) error {
	view, ok := surface.(hal.TextureView)
	if !ok || view == nil {
		return rtt.Errorf(rtt.ErrPresentation, "acquire surface", "surface view is %T", surface)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if width != w.width || height != w.height {
		w.events = append(w.events, viewer.Event{Kind: viewer.EventResize, Width: width, Height: height})
		w.width, w.height = width, height
	}
	w.surface = w.backend.WrapView("surface", view, width, height, w.format)
	return nil
}

func (w *Window) endFrame() {
	w.mu.Lock()
	w.surface = nil
	w.mu.Unlock()
}

func (w *Window) keyPressed(key gpucontext.Key) {
	name := fmt.Sprint(key)
	if key == gpucontext.KeyEscape {
		name = viewer.KeyEscape
	}
	w.push(viewer.Event{Kind: viewer.EventKey, Key: name})
}

func (w *Window) push(e viewer.Event) {
	w.mu.Lock()
	w.events = append(w.events, e)
	w.mu.Unlock()
}

// PollEvents implements viewer.Window.
func (w *Window) PollEvents() []viewer.Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	events := w.events
	w.events = nil
	return events
}

// Extent implements viewer.Window.
func (w *Window) Extent() (width, height int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// ImageCount implements viewer.Window.
func (w *Window) ImageCount() int { return w.cfg.Images }

// SurfaceFormat implements viewer.Window.
func (w *Window) SurfaceFormat() gputypes.TextureFormat { return w.format }

// AcquireNextImage implements viewer.Window. It only succeeds inside
// OnDraw, where the app has acquired its surface.
func (w *Window) AcquireNextImage() (int, gpu.TextureView, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.surface == nil {
		return 0, nil, ErrNoSurface
	}
	return 0, w.surface, nil
}

// Present implements viewer.Window. gogpu presents after OnDraw.
func (w *Window) Present(int) error { return nil }

// Close asks the app to quit.
func (w *Window) Close() error {
	w.app.Quit()
	return nil
}

var _ viewer.Window = (*Window)(nil)
