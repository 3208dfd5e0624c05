// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rtt"
	"github.com/gogpu/rtt/gpu"
)

func TestOffscreenRenderPass(t *testing.T) {
	desc, err := NewOffscreenRenderPass(gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatDepth32Float, 1)
	if err != nil {
		t.Fatalf("NewOffscreenRenderPass: %v", err)
	}

	att := desc.Attachments()
	if len(att) != 2 {
		t.Fatalf("attachments = %d, want 2", len(att))
	}
	color, depth := att[0], att[1]
	if color.Load != LoadClear || color.Store != StoreStore || color.Initial != LayoutUndefined || color.Final != LayoutShaderReadOnly {
		t.Errorf("color attachment = %+v", color)
	}
	if depth.Load != LoadClear || depth.Store != StoreDontCare || depth.Final != LayoutDepthStencilAttachment {
		t.Errorf("depth attachment = %+v", depth)
	}
	for i, a := range att {
		if a.StencilLoad != LoadDontCare || a.StencilStore != StoreDontCare {
			t.Errorf("attachment %d stencil ops = %v/%v", i, a.StencilLoad, a.StencilStore)
		}
	}

	sp := desc.Subpass()
	if sp.BindPoint != BindPointGraphics || sp.Color.Layout != LayoutColorAttachment {
		t.Errorf("subpass = %+v", sp)
	}
	if sp.Depth == nil || sp.Depth.Attachment != 1 || sp.Depth.Layout != LayoutDepthStencilAttachment {
		t.Errorf("depth reference = %+v", sp.Depth)
	}

	deps := desc.Dependencies()
	if len(deps) != 2 {
		t.Fatalf("dependencies = %d, want 2", len(deps))
	}
	before, after := deps[0], deps[1]
	if before.Src != SubpassExternal || before.Dst != 0 {
		t.Errorf("before = %d→%d, want external→0", before.Src, before.Dst)
	}
	if before.SrcStage != StageFragmentShader || before.DstStage != StageColorAttachmentOutput {
		t.Errorf("before stages = %v→%v", before.SrcStage, before.DstStage)
	}
	if before.SrcAccess != AccessShaderRead || before.DstAccess != AccessColorAttachmentWrite || !before.ByRegion {
		t.Errorf("before access = %+v", before)
	}
	if after != before.Inverse() || after.Inverse() != before {
		t.Errorf("dependencies are not mutual inverses: %+v, %+v", before, after)
	}
	if desc.ColorFormat() != gputypes.TextureFormatRGBA8Unorm || desc.DepthFormat() != gputypes.TextureFormatDepth32Float {
		t.Errorf("formats = %v/%v", desc.ColorFormat(), desc.DepthFormat())
	}
}

func TestDependencyBarriers(t *testing.T) {
	pair := OffscreenDependencies()
	b := pair.Before().barrier(nil)
	if b.From != gpu.UsageTextureBinding || b.To != gpu.UsageRenderAttachment {
		t.Errorf("before barrier = %v→%v", b.From, b.To)
	}
	a := pair.After().barrier(nil)
	if a.From != gpu.UsageRenderAttachment || a.To != gpu.UsageTextureBinding {
		t.Errorf("after barrier = %v→%v", a.From, a.To)
	}
}

func TestNewDependencyPairRejects(t *testing.T) {
	good := OffscreenDependencies().Before()
	tests := []struct {
		name          string
		before, after Dependency
	}{
		{
			name:   "internal source",
			before: func() Dependency { d := good; d.Src = 0; return d }(),
		},
		{
			name:   "empty access",
			before: func() Dependency { d := good; d.DstAccess = 0; return d }(),
		},
		{
			name:   "after equals before",
			before: good,
			after:  good,
		},
		{
			name:   "after with other stage",
			before: good,
			after:  func() Dependency { d := good.Inverse(); d.DstStage = StageBottomOfPipe; return d }(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			after := tt.after
			if after == (Dependency{}) {
				after = tt.before.Inverse()
			}
			if _, err := NewDependencyPair(tt.before, after); !errors.Is(err, ErrDependencyPair) {
				t.Errorf("err = %v, want ErrDependencyPair", err)
			}
		})
	}
}

func TestNewRenderPassDescriptorRejects(t *testing.T) {
	att := []AttachmentDescription{
		{Format: gputypes.TextureFormatRGBA8Unorm, Samples: 1, Final: LayoutShaderReadOnly},
		{Format: gputypes.TextureFormatDepth32Float, Samples: 1},
	}
	tests := []struct {
		name string
		att  []AttachmentDescription
		sp   Subpass
		deps DependencyPair
	}{
		{"zero dependency pair", att, Subpass{}, DependencyPair{}},
		{"color out of range", att, Subpass{Color: AttachmentReference{Attachment: 2}}, OffscreenDependencies()},
		{"depth aliases color", att, Subpass{Depth: &AttachmentReference{Attachment: 0}}, OffscreenDependencies()},
		{"no format", []AttachmentDescription{{Samples: 1}}, Subpass{}, OffscreenDependencies()},
		{"no samples", []AttachmentDescription{{Format: gputypes.TextureFormatRGBA8Unorm}}, Subpass{}, OffscreenDependencies()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRenderPassDescriptor(tt.att, tt.sp, tt.deps); !errors.Is(err, ErrInvalidRenderPass) {
				t.Errorf("err = %v, want ErrInvalidRenderPass", err)
			}
		})
	}
}

func TestFramebufferMismatch(t *testing.T) {
	dev := newDevice(t)
	set, err := NewAttachmentSet(dev, 4, 4)
	if err != nil {
		t.Fatalf("NewAttachmentSet: %v", err)
	}
	defer set.Destroy()

	tests := []struct {
		name         string
		color, depth gputypes.TextureFormat
		samples      uint32
	}{
		{"color format", gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatDepth32Float, 1},
		{"depth format", gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatDepth24PlusStencil8, 1},
		{"samples", gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatDepth32Float, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, err := NewOffscreenRenderPass(tt.color, tt.depth, tt.samples)
			if err != nil {
				t.Fatalf("NewOffscreenRenderPass: %v", err)
			}
			_, err = NewFramebuffer(desc, set)
			if !errors.Is(err, ErrIncompatibleFramebuffer) || !errors.Is(err, rtt.ErrResourceCreation) {
				t.Errorf("err = %v, want ErrIncompatibleFramebuffer and ErrResourceCreation", err)
			}
		})
	}
}

func TestFramebufferRenderPass(t *testing.T) {
	dev := newDevice(t)
	off := newOffscreen(t, dev, 16, 8)
	if off.fb.Width() != 16 || off.fb.Height() != 8 {
		t.Errorf("extent = %dx%d", off.fb.Width(), off.fb.Height())
	}
	red := gputypes.Color{R: 1, A: 1}
	p := off.fb.renderPass("probe", red, 0.25)
	if p.Color.View != off.set.Color.View || p.Color.Load != gputypes.LoadOpClear || p.Color.Store != gputypes.StoreOpStore || p.Color.Clear != red {
		t.Errorf("color = %+v", p.Color)
	}
	if p.Depth == nil || p.Depth.View != off.set.Depth.View || p.Depth.Store != gputypes.StoreOpDiscard || p.Depth.Clear != 0.25 {
		t.Errorf("depth = %+v", p.Depth)
	}
}

func TestLayoutUsage(t *testing.T) {
	tests := []struct {
		l    Layout
		want gpu.Usage
	}{
		{LayoutUndefined, gpu.UsageUndefined},
		{LayoutColorAttachment, gpu.UsageRenderAttachment},
		{LayoutDepthStencilAttachment, gpu.UsageRenderAttachment},
		{LayoutShaderReadOnly, gpu.UsageTextureBinding},
		{LayoutPresentSrc, gpu.UsageUndefined},
	}
	for _, tt := range tests {
		if got := tt.l.Usage(); got != tt.want {
			t.Errorf("%v.Usage() = %v, want %v", tt.l, got, tt.want)
		}
	}
}
