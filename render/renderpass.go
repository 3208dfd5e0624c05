// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rtt"
	"github.com/gogpu/rtt/gpu"
	"github.com/gogpu/rtt/recording"
)

// Render pass errors.
var (
	// ErrDependencyPair is returned when two dependencies are not the
	// external→0 / 0→external inverses of each other.
	ErrDependencyPair = errors.New("render: dependencies are not mutual inverses")

	// ErrInvalidRenderPass is returned for descriptors whose subpass refers
	// to missing attachments or whose dependency pair is unset.
	ErrInvalidRenderPass = errors.New("render: invalid render pass")

	// ErrIncompatibleFramebuffer is returned when attachments do not match
	// the descriptor's formats or each other's extent.
	ErrIncompatibleFramebuffer = errors.New("render: framebuffer does not match render pass")
)

// Layout is the layout an image is in at a point of a render pass.
type Layout uint8

const (
	LayoutUndefined Layout = iota
	LayoutColorAttachment
	LayoutDepthStencilAttachment
	LayoutShaderReadOnly
	LayoutPresentSrc
)

var layoutNames = [...]string{
	LayoutUndefined:              "Undefined",
	LayoutColorAttachment:        "ColorAttachment",
	LayoutDepthStencilAttachment: "DepthStencilAttachment",
	LayoutShaderReadOnly:         "ShaderReadOnly",
	LayoutPresentSrc:             "PresentSrc",
}

func (l Layout) String() string {
	if int(l) < len(layoutNames) {
		return layoutNames[l]
	}
	return fmt.Sprintf("Layout(%d)", uint8(l))
}

// Usage maps the layout to the tracked texture usage.
func (l Layout) Usage() gpu.Usage {
	switch l {
	case LayoutColorAttachment, LayoutDepthStencilAttachment:
		return gpu.UsageRenderAttachment
	case LayoutShaderReadOnly:
		return gpu.UsageTextureBinding
	default:
		return gpu.UsageUndefined
	}
}

// LoadOp is an attachment load operation.
type LoadOp uint8

const (
	LoadClear LoadOp = iota
	LoadLoad
	LoadDontCare
)

// StoreOp is an attachment store operation.
type StoreOp uint8

const (
	StoreStore StoreOp = iota
	StoreDontCare
)

func (op LoadOp) gpu() gputypes.LoadOp {
	if op == LoadLoad {
		return gputypes.LoadOpLoad
	}
	return gputypes.LoadOpClear
}

func (op StoreOp) gpu() gputypes.StoreOp {
	if op == StoreStore {
		return gputypes.StoreOpStore
	}
	return gputypes.StoreOpDiscard
}

// AttachmentDescription describes one attachment of a render pass.
type AttachmentDescription struct {
	Format       gputypes.TextureFormat
	Samples      uint32
	Load         LoadOp
	Store        StoreOp
	StencilLoad  LoadOp
	StencilStore StoreOp
	Initial      Layout
	Final        Layout
}

// AttachmentReference points a subpass at an attachment index.
type AttachmentReference struct {
	Attachment uint32
	Layout     Layout
}

// BindPoint is the pipeline bind point of a subpass.
type BindPoint uint8

const BindPointGraphics BindPoint = 0

// Subpass is the single subpass of a render pass.
type Subpass struct {
	BindPoint BindPoint
	Color     AttachmentReference
	Depth     *AttachmentReference
}

// SubpassExternal refers to commands outside the render pass.
const SubpassExternal = ^uint32(0)

// PipelineStage is a set of pipeline stages.
type PipelineStage uint32

const (
	StageTopOfPipe PipelineStage = 1 << iota
	StageVertexShader
	StageFragmentShader
	StageEarlyFragmentTests
	StageLateFragmentTests
	StageColorAttachmentOutput
	StageBottomOfPipe
)

// Access is a set of memory access kinds.
type Access uint32

const (
	AccessShaderRead Access = 1 << iota
	AccessColorAttachmentRead
	AccessColorAttachmentWrite
	AccessDepthStencilAttachmentRead
	AccessDepthStencilAttachmentWrite
)

// usage maps an access mask to the texture usage it implies.
func (a Access) usage() gpu.Usage {
	switch {
	case a&(AccessColorAttachmentRead|AccessColorAttachmentWrite|
		AccessDepthStencilAttachmentRead|AccessDepthStencilAttachmentWrite) != 0:
		return gpu.UsageRenderAttachment
	case a&AccessShaderRead != 0:
		return gpu.UsageTextureBinding
	default:
		return gpu.UsageUndefined
	}
}

// Dependency orders memory accesses across a subpass boundary.
type Dependency struct {
	Src, Dst             uint32
	SrcStage, DstStage   PipelineStage
	SrcAccess, DstAccess Access
	ByRegion             bool
}

// Inverse swaps source and destination.
func (d Dependency) Inverse() Dependency {
	return Dependency{
		Src:       d.Dst,
		Dst:       d.Src,
		SrcStage:  d.DstStage,
		DstStage:  d.SrcStage,
		SrcAccess: d.DstAccess,
		DstAccess: d.SrcAccess,
		ByRegion:  d.ByRegion,
	}
}

// barrier returns the color image transition the dependency implies.
func (d Dependency) barrier(tex gpu.Texture) recording.TextureBarrier {
	return recording.TextureBarrier{Texture: tex, From: d.SrcAccess.usage(), To: d.DstAccess.usage()}
}

// DependencyPair is the before/after dependency pair of a render pass
// that is sampled by a later pass. The zero value is not valid; build one
// with NewDependencyPair or OffscreenDependencies.
type DependencyPair struct {
	before, after Dependency
	valid         bool
}

// NewDependencyPair checks that before runs from outside the pass into
// subpass 0, that after is its exact inverse, and that both carry stages
// and accesses.
func NewDependencyPair(before, after Dependency) (DependencyPair, error) {
	switch {
	case before.Src != SubpassExternal || before.Dst != 0:
		return DependencyPair{}, fmt.Errorf("%w: first dependency must be external→0", ErrDependencyPair)
	case before.SrcStage == 0 || before.DstStage == 0 || before.SrcAccess == 0 || before.DstAccess == 0:
		return DependencyPair{}, fmt.Errorf("%w: empty stage or access mask", ErrDependencyPair)
	case after != before.Inverse():
		return DependencyPair{}, fmt.Errorf("%w: %+v is not the inverse of %+v", ErrDependencyPair, after, before)
	}
	return DependencyPair{before: before, after: after, valid: true}, nil
}

// OffscreenDependencies returns the pair for a color attachment that is
// sampled by fragment shaders before and after the pass.
func OffscreenDependencies() DependencyPair {
	before := Dependency{
		Src:       SubpassExternal,
		Dst:       0,
		SrcStage:  StageFragmentShader,
		DstStage:  StageColorAttachmentOutput,
		SrcAccess: AccessShaderRead,
		DstAccess: AccessColorAttachmentWrite,
		ByRegion:  true,
	}
	pair, err := NewDependencyPair(before, before.Inverse())
	if err != nil {
		panic(err)
	}
	return pair
}

// Before returns the external→0 dependency.
func (p DependencyPair) Before() Dependency { return p.before }

// After returns the 0→external dependency.
func (p DependencyPair) After() Dependency { return p.after }

// RenderPassDescriptor is an immutable single-subpass render pass with
// exactly two dependencies.
type RenderPassDescriptor struct {
	attachments []AttachmentDescription
	subpass     Subpass
	deps        DependencyPair
}

// NewRenderPassDescriptor validates and builds a descriptor.
func NewRenderPassDescriptor(attachments []AttachmentDescription, subpass Subpass, deps DependencyPair) (*RenderPassDescriptor, error) {
	if !deps.valid {
		return nil, fmt.Errorf("%w: dependency pair not built with NewDependencyPair", ErrInvalidRenderPass)
	}
	if subpass.BindPoint != BindPointGraphics {
		return nil, fmt.Errorf("%w: subpass must use the graphics bind point", ErrInvalidRenderPass)
	}
	if int(subpass.Color.Attachment) >= len(attachments) {
		return nil, fmt.Errorf("%w: color reference %d out of range", ErrInvalidRenderPass, subpass.Color.Attachment)
	}
	if subpass.Depth != nil {
		if int(subpass.Depth.Attachment) >= len(attachments) || subpass.Depth.Attachment == subpass.Color.Attachment {
			return nil, fmt.Errorf("%w: depth reference %d invalid", ErrInvalidRenderPass, subpass.Depth.Attachment)
		}
		subpass.Depth = &AttachmentReference{Attachment: subpass.Depth.Attachment, Layout: subpass.Depth.Layout}
	}
	for i, a := range attachments {
		if a.Format == gputypes.TextureFormatUndefined || a.Samples == 0 {
			return nil, fmt.Errorf("%w: attachment %d has no format or samples", ErrInvalidRenderPass, i)
		}
	}
	return &RenderPassDescriptor{
		attachments: append([]AttachmentDescription(nil), attachments...),
		subpass:     subpass,
		deps:        deps,
	}, nil
}

// NewOffscreenRenderPass builds the descriptor of a color+depth pass whose
// color result is sampled afterwards.
func NewOffscreenRenderPass(colorFormat, depthFormat gputypes.TextureFormat, samples uint32) (*RenderPassDescriptor, error) {
	attachments := []AttachmentDescription{
		{
			Format:       colorFormat,
			Samples:      samples,
			Load:         LoadClear,
			Store:        StoreStore,
			StencilLoad:  LoadDontCare,
			StencilStore: StoreDontCare,
			Initial:      LayoutUndefined,
			Final:        LayoutShaderReadOnly,
		},
		{
			Format:       depthFormat,
			Samples:      samples,
			Load:         LoadClear,
			Store:        StoreDontCare,
			StencilLoad:  LoadDontCare,
			StencilStore: StoreDontCare,
			Initial:      LayoutUndefined,
			Final:        LayoutDepthStencilAttachment,
		},
	}
	subpass := Subpass{
		BindPoint: BindPointGraphics,
		Color:     AttachmentReference{Attachment: 0, Layout: LayoutColorAttachment},
		Depth:     &AttachmentReference{Attachment: 1, Layout: LayoutDepthStencilAttachment},
	}
	desc, err := NewRenderPassDescriptor(attachments, subpass, OffscreenDependencies())
	if err != nil {
		return nil, rtt.Wrap(rtt.ErrResourceCreation, "create offscreen render pass", err)
	}
	return desc, nil
}

// Attachments returns a copy of the attachment descriptions.
func (d *RenderPassDescriptor) Attachments() []AttachmentDescription {
	return append([]AttachmentDescription(nil), d.attachments...)
}

// Subpass returns the subpass.
func (d *RenderPassDescriptor) Subpass() Subpass { return d.subpass }

// Dependencies returns the two dependencies, before first.
func (d *RenderPassDescriptor) Dependencies() []Dependency {
	return []Dependency{d.deps.before, d.deps.after}
}

// ColorFormat returns the format of the color attachment.
func (d *RenderPassDescriptor) ColorFormat() gputypes.TextureFormat {
	return d.attachments[d.subpass.Color.Attachment].Format
}

// DepthFormat returns the format of the depth attachment, or
// TextureFormatUndefined for passes without depth.
func (d *RenderPassDescriptor) DepthFormat() gputypes.TextureFormat {
	if d.subpass.Depth == nil {
		return gputypes.TextureFormatUndefined
	}
	return d.attachments[d.subpass.Depth.Attachment].Format
}

// ColorFinalLayout returns the layout the color attachment is left in.
func (d *RenderPassDescriptor) ColorFinalLayout() Layout {
	return d.attachments[d.subpass.Color.Attachment].Final
}

// Framebuffer binds a RenderPassDescriptor to an AttachmentSet.
type Framebuffer struct {
	desc   *RenderPassDescriptor
	set    *AttachmentSet
	width  int
	height int
}

// NewFramebuffer checks the attachment formats against desc.
func NewFramebuffer(desc *RenderPassDescriptor, set *AttachmentSet) (*Framebuffer, error) {
	if desc == nil || set == nil {
		return nil, rtt.Wrap(rtt.ErrResourceCreation, "create framebuffer",
			fmt.Errorf("%w: nil descriptor or attachments", ErrIncompatibleFramebuffer))
	}
	if got, want := set.Color.Format, desc.ColorFormat(); got != want {
		return nil, rtt.Wrap(rtt.ErrResourceCreation, "create framebuffer",
			fmt.Errorf("%w: color format %v, pass expects %v", ErrIncompatibleFramebuffer, got, want))
	}
	if got, want := set.Depth.Format, desc.DepthFormat(); got != want {
		return nil, rtt.Wrap(rtt.ErrResourceCreation, "create framebuffer",
			fmt.Errorf("%w: depth format %v, pass expects %v", ErrIncompatibleFramebuffer, got, want))
	}
	for _, a := range desc.attachments {
		if a.Samples != 1 {
			return nil, rtt.Wrap(rtt.ErrResourceCreation, "create framebuffer",
				fmt.Errorf("%w: %d samples, attachments have 1", ErrIncompatibleFramebuffer, a.Samples))
		}
	}
	for _, tex := range []gpu.Texture{set.Color.Texture, set.Depth.Texture} {
		td := tex.Descriptor()
		if td.Width != set.width || td.Height != set.height {
			return nil, rtt.Wrap(rtt.ErrResourceCreation, "create framebuffer",
				fmt.Errorf("%w: %q is %dx%d, framebuffer is %dx%d",
					ErrIncompatibleFramebuffer, td.Label, td.Width, td.Height, set.width, set.height))
		}
	}
	return &Framebuffer{desc: desc, set: set, width: set.width, height: set.height}, nil
}

// Descriptor returns the render pass the framebuffer was built for.
func (f *Framebuffer) Descriptor() *RenderPassDescriptor { return f.desc }

// Attachments returns the bound attachments.
func (f *Framebuffer) Attachments() *AttachmentSet { return f.set }

// Width returns the framebuffer width.
func (f *Framebuffer) Width() int { return f.width }

// Height returns the framebuffer height.
func (f *Framebuffer) Height() int { return f.height }

// renderPass builds the recorded pass with the descriptor's load/store ops.
func (f *Framebuffer) renderPass(label string, clear gputypes.Color, clearDepth float32) recording.RenderPass {
	color := f.desc.attachments[f.desc.subpass.Color.Attachment]
	pass := recording.RenderPass{
		Label: label,
		Color: recording.ColorAttachment{
			View:  f.set.Color.View,
			Load:  color.Load.gpu(),
			Store: color.Store.gpu(),
			Clear: clear,
		},
	}
	if ref := f.desc.subpass.Depth; ref != nil {
		depth := f.desc.attachments[ref.Attachment]
		pass.Depth = &recording.DepthAttachment{
			View:  f.set.Depth.View,
			Load:  depth.Load.gpu(),
			Store: depth.Store.gpu(),
			Clear: clearDepth,
		}
	}
	return pass
}
