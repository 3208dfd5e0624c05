// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"image"
	"image/color"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rtt/backend/software"
	"github.com/gogpu/rtt/gpu"
	"github.com/gogpu/rtt/recording"
)

func newDevice(t *testing.T) *software.Backend {
	t.Helper()
	b := software.New(software.WithWorkers(1))
	t.Cleanup(func() { _ = b.Close() })
	return b
}

type offscreen struct {
	set  *AttachmentSet
	pass *RenderPassDescriptor
	fb   *Framebuffer
}

func newOffscreen(t *testing.T, dev gpu.Device, w, h int) offscreen {
	t.Helper()
	set, err := NewAttachmentSet(dev, w, h)
	if err != nil {
		t.Fatalf("NewAttachmentSet: %v", err)
	}
	t.Cleanup(set.Destroy)
	pass, err := NewOffscreenRenderPass(set.Color.Format, set.Depth.Format, 1)
	if err != nil {
		t.Fatalf("NewOffscreenRenderPass: %v", err)
	}
	fb, err := NewFramebuffer(pass, set)
	if err != nil {
		t.Fatalf("NewFramebuffer: %v", err)
	}
	return offscreen{set: set, pass: pass, fb: fb}
}

// newSurface stands in for a swapchain image.
func newSurface(t *testing.T, dev gpu.Device, w, h int) (gpu.Texture, gpu.TextureView) {
	t.Helper()
	tex, err := dev.CreateTexture(&gpu.TextureDescriptor{
		Label:  "surface",
		Width:  w,
		Height: h,
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		t.Fatalf("CreateTexture surface: %v", err)
	}
	view, err := dev.CreateTextureView(tex, &gpu.TextureViewDescriptor{Label: "surface_view"})
	if err != nil {
		t.Fatalf("CreateTextureView surface: %v", err)
	}
	t.Cleanup(func() {
		dev.DestroyTextureView(view)
		dev.DestroyTexture(tex)
	})
	return tex, view
}

func finish(t *testing.T, rec *recording.Recorder) *recording.Recording {
	t.Helper()
	r, err := rec.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return r
}

func play(t *testing.T, b recording.Backend, rec *recording.Recorder) {
	t.Helper()
	if err := finish(t, rec).Playback(b); err != nil {
		t.Fatalf("Playback: %v", err)
	}
	if err := b.Submit(); err != nil {
		t.Fatalf("Submit: %v", err)
	}
}

func readPixels(t *testing.T, b recording.Backend, tex gpu.Texture) *image.RGBA {
	t.Helper()
	img, err := b.ReadTexture(tex)
	if err != nil {
		t.Fatalf("ReadTexture: %v", err)
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

func countOther(img *image.RGBA, c color.RGBA) int {
	n := 0
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !near(img.RGBAAt(x, y), c) {
				n++
			}
		}
	}
	return n
}
