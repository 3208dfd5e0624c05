package viewer

import (
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rtt/backend/software"
	"github.com/gogpu/rtt/gpu"
	"github.com/gogpu/rtt/recording"
)

func newBackend(t *testing.T) *software.Backend {
	t.Helper()
	b := software.New(software.WithWorkers(1))
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func newWindow(t *testing.T, dev gpu.Device, w, h int) *HeadlessWindow {
	t.Helper()
	win, err := NewHeadlessWindow(dev, w, h, 2)
	if err != nil {
		t.Fatalf("NewHeadlessWindow: %v", err)
	}
	t.Cleanup(func() { _ = win.Close() })
	return win
}

// stepClock advances 16ms per call.
func stepClock() func() time.Time {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		now = now.Add(16 * time.Millisecond)
		return now
	}
}

func setup(t *testing.T, b recording.Backend, win Window, opts ...Option) *FrameDriver {
	t.Helper()
	d, err := Setup(b, win, opts...)
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	d.SetClock(stepClock())
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func runFrames(t *testing.T, d *FrameDriver, n int) {
	t.Helper()
	for i := range n {
		if err := d.Frame(); err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
	}
}

func snapshot(t *testing.T, d *FrameDriver) *image.RGBA {
	t.Helper()
	img, err := d.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	return img
}

func rgba8(c gputypes.Color) color.RGBA {
	u := func(v float64) uint8 { return uint8(v*255 + 0.5) }
	return color.RGBA{R: u(c.R), G: u(c.G), B: u(c.B), A: u(c.A)}
}

func near(a, b color.RGBA) bool {
	d := func(x, y uint8) bool { return int(x)-int(y) <= 1 && int(y)-int(x) <= 1 }
	return d(a.R, b.R) && d(a.G, b.G) && d(a.B, b.B) && d(a.A, b.A)
}

func count(img *image.RGBA, c color.RGBA) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if near(img.RGBAAt(x, y), c) {
				n++
			}
		}
	}
	return n
}
