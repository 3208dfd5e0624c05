// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rtt"
	"github.com/gogpu/rtt/gpu"
	"github.com/gogpu/rtt/recording"
)

// ErrNoSurface is returned when an OnscreenTarget records a frame that has
// no acquired surface image.
var ErrNoSurface = errors.New("render: frame has no surface image")

// FrameContext is what a render graph node needs to record one frame.
type FrameContext struct {
	// Index counts frames from 0.
	Index uint64
	// ImageIndex is the acquired swapchain image.
	ImageIndex int
	// Surface is the view of the acquired swapchain image.
	Surface gpu.TextureView
	// Width and Height are the surface extent.
	Width, Height int
}

// Drawable is content recorded into a render pass.
type Drawable interface {
	// Prepare records work that must happen outside the pass, such as
	// uploads and their barriers.
	Prepare(rec *recording.Recorder, frame *FrameContext)
	// Draw records the draw commands inside the pass.
	Draw(rec *recording.Recorder, frame *FrameContext)
}

// RenderGraphNode is the root of one render pass: an OffscreenTarget or an
// OnscreenTarget.
type RenderGraphNode interface {
	Label() string
	// Record records the pass with its children into rec.
	Record(rec *recording.Recorder, frame *FrameContext) error
	Children() []Drawable
}

// DepthConvention selects the depth clear value and compare function.
type DepthConvention uint8

const (
	// DepthReversed maps near to 1 and far to 0: clear 0, compare Greater.
	DepthReversed DepthConvention = iota
	// DepthStandard maps near to 0 and far to 1: clear 1, compare Less.
	DepthStandard
)

// String returns "reversed" or "standard".
func (c DepthConvention) String() string {
	if c == DepthStandard {
		return "standard"
	}
	return "reversed"
}

// ClearDepth is the value the depth attachment is cleared to.
func (c DepthConvention) ClearDepth() float32 {
	if c == DepthStandard {
		return 1
	}
	return 0
}

// Compare is the depth test that keeps the nearer fragment.
func (c DepthConvention) Compare() gputypes.CompareFunction {
	if c == DepthStandard {
		return gputypes.CompareFunctionLess
	}
	return gputypes.CompareFunctionGreater
}

// ParseDepthConvention parses "reversed" or "standard".
func ParseDepthConvention(s string) (DepthConvention, error) {
	switch s {
	case "", "reversed":
		return DepthReversed, nil
	case "standard":
		return DepthStandard, nil
	}
	return DepthReversed, fmt.Errorf("render: unknown depth convention %q", s)
}

// DefaultOffscreenClear is the clear color of the offscreen target.
var DefaultOffscreenClear = gputypes.Color{R: 0.4, G: 0.2, B: 0.4, A: 1}

type targetOptions struct {
	label string
	clear gputypes.Color
	depth DepthConvention
}

// TargetOption configures NewOffscreenTarget and NewOnscreenTarget.
type TargetOption func(*targetOptions)

// WithTargetLabel sets the debug label of the pass.
func WithTargetLabel(label string) TargetOption {
	return func(o *targetOptions) { o.label = label }
}

// WithClearColor sets the color clear value.
func WithClearColor(c gputypes.Color) TargetOption {
	return func(o *targetOptions) { o.clear = c }
}

// WithDepthConvention sets the depth convention. Pipelines drawn into the
// target must use the same convention.
func WithDepthConvention(c DepthConvention) TargetOption {
	return func(o *targetOptions) { o.depth = c }
}

// OffscreenTarget records the offscreen pass. The color image is moved
// into the attachment state by the pass's first dependency and back to
// the sampled state by its second.
type OffscreenTarget struct {
	fb       *Framebuffer
	label    string
	clear    gputypes.Color
	depth    DepthConvention
	children []Drawable
}

// NewOffscreenTarget returns the offscreen root for fb.
func NewOffscreenTarget(fb *Framebuffer, opts ...TargetOption) (*OffscreenTarget, error) {
	if fb == nil {
		return nil, rtt.Errorf(rtt.ErrResourceCreation, "create offscreen target", "nil framebuffer")
	}
	o := targetOptions{label: "offscreen", clear: DefaultOffscreenClear}
	for _, opt := range opts {
		opt(&o)
	}
	return &OffscreenTarget{fb: fb, label: o.label, clear: o.clear, depth: o.depth}, nil
}

// Add appends a child drawn inside the pass, in order.
func (t *OffscreenTarget) Add(d Drawable) { t.children = append(t.children, d) }

// Label implements RenderGraphNode.
func (t *OffscreenTarget) Label() string { return t.label }

// Children implements RenderGraphNode.
func (t *OffscreenTarget) Children() []Drawable { return t.children }

// Framebuffer returns the bound framebuffer.
func (t *OffscreenTarget) Framebuffer() *Framebuffer { return t.fb }

// Extent returns the target size.
func (t *OffscreenTarget) Extent() (w, h int) { return t.fb.Width(), t.fb.Height() }

// ClearColor returns the color clear value.
func (t *OffscreenTarget) ClearColor() gputypes.Color { return t.clear }

// DepthConvention returns the target's depth convention.
func (t *OffscreenTarget) DepthConvention() DepthConvention { return t.depth }

// Record implements RenderGraphNode.
func (t *OffscreenTarget) Record(rec *recording.Recorder, frame *FrameContext) error {
	for _, c := range t.children {
		c.Prepare(rec, frame)
	}
	color := t.fb.set.Color.Texture
	deps := t.fb.desc.deps
	rec.Barrier(deps.Before().barrier(color))
	rec.BeginRenderPass(t.fb.renderPass(t.label, t.clear, t.depth.ClearDepth()))
	for _, c := range t.children {
		c.Draw(rec, frame)
	}
	rec.EndRenderPass()
	rec.Barrier(deps.After().barrier(color))
	return nil
}

// OnscreenTarget records the pass into the acquired swapchain image. It
// owns a depth attachment sized to the surface.
type OnscreenTarget struct {
	dev         gpu.Device
	label       string
	depth       DepthConvention
	depthFormat gputypes.TextureFormat

	mu    sync.Mutex
	clear gputypes.Color

	depthTex  gpu.Texture
	depthView gpu.TextureView
	width     int
	height    int

	children []Drawable
}

// NewOnscreenTarget creates the onscreen root with a w×h Depth32Float
// attachment.
func NewOnscreenTarget(dev gpu.Device, w, h int, opts ...TargetOption) (*OnscreenTarget, error) {
	o := targetOptions{label: "onscreen", clear: gputypes.Color{R: 0.2, G: 0.2, B: 0.4, A: 1}}
	for _, opt := range opts {
		opt(&o)
	}
	t := &OnscreenTarget{
		dev:         dev,
		label:       o.label,
		depth:       o.depth,
		depthFormat: gputypes.TextureFormatDepth32Float,
		clear:       o.clear,
	}
	if err := t.Resize(w, h); err != nil {
		return nil, err
	}
	return t, nil
}

// Add appends a child drawn inside the pass, in order.
func (t *OnscreenTarget) Add(d Drawable) { t.children = append(t.children, d) }

// Label implements RenderGraphNode.
func (t *OnscreenTarget) Label() string { return t.label }

// Children implements RenderGraphNode.
func (t *OnscreenTarget) Children() []Drawable { return t.children }

// DepthFormat returns the format of the owned depth attachment.
func (t *OnscreenTarget) DepthFormat() gputypes.TextureFormat { return t.depthFormat }

// DepthConvention returns the target's depth convention.
func (t *OnscreenTarget) DepthConvention() DepthConvention { return t.depth }

// SetClearColor changes the clear color of the following frames.
func (t *OnscreenTarget) SetClearColor(c gputypes.Color) {
	t.mu.Lock()
	t.clear = c
	t.mu.Unlock()
}

// ClearColor returns the current clear color.
func (t *OnscreenTarget) ClearColor() gputypes.Color {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.clear
}

// Extent returns the size of the depth attachment.
func (t *OnscreenTarget) Extent() (w, h int) { return t.width, t.height }

// Resize recreates the depth attachment when the extent changed. It must
// not be called while a frame is being recorded.
func (t *OnscreenTarget) Resize(w, h int) error {
	if w == t.width && h == t.height && t.depthTex != nil {
		return nil
	}
	if w <= 0 || h <= 0 {
		return rtt.Errorf(rtt.ErrResourceCreation, "resize onscreen depth", "extent %dx%d", w, h)
	}
	tex, err := t.dev.CreateTexture(&gpu.TextureDescriptor{
		Label:  t.label + "_depth",
		Width:  w,
		Height: h,
		Format: t.depthFormat,
		Usage:  gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return rtt.Wrap(rtt.ErrResourceCreation, "create onscreen depth", err)
	}
	view, err := t.dev.CreateTextureView(tex, &gpu.TextureViewDescriptor{
		Label:  t.label + "_depth_view",
		Aspect: gputypes.TextureAspectDepthOnly,
	})
	if err != nil {
		t.dev.DestroyTexture(tex)
		return rtt.Wrap(rtt.ErrResourceCreation, "create onscreen depth view", err)
	}
	t.Destroy()
	t.depthTex, t.depthView = tex, view
	t.width, t.height = w, h
	rtt.Logger().Debug("onscreen depth resized", "width", w, "height", h)
	return nil
}

// Destroy releases the depth attachment.
func (t *OnscreenTarget) Destroy() {
	if t.depthView != nil {
		t.dev.DestroyTextureView(t.depthView)
		t.depthView = nil
	}
	if t.depthTex != nil {
		t.dev.DestroyTexture(t.depthTex)
		t.depthTex = nil
	}
}

// Record implements RenderGraphNode.
func (t *OnscreenTarget) Record(rec *recording.Recorder, frame *FrameContext) error {
	if frame == nil || frame.Surface == nil {
		return ErrNoSurface
	}
	if frame.Width != t.width || frame.Height != t.height {
		return fmt.Errorf("render: surface is %dx%d, onscreen depth is %dx%d",
			frame.Width, frame.Height, t.width, t.height)
	}
	for _, c := range t.children {
		c.Prepare(rec, frame)
	}
	rec.BeginRenderPass(recording.RenderPass{
		Label: t.label,
		Color: recording.ColorAttachment{
			View:  frame.Surface,
			Load:  gputypes.LoadOpClear,
			Store: gputypes.StoreOpStore,
			Clear: t.ClearColor(),
		},
		Depth: &recording.DepthAttachment{
			View:  t.depthView,
			Load:  gputypes.LoadOpClear,
			Store: gputypes.StoreOpDiscard,
			Clear: t.depth.ClearDepth(),
		},
	})
	for _, c := range t.children {
		c.Draw(rec, frame)
	}
	rec.EndRenderPass()
	return nil
}

var (
	_ RenderGraphNode = (*OffscreenTarget)(nil)
	_ RenderGraphNode = (*OnscreenTarget)(nil)
)
