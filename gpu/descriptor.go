package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
)

// TextureDescriptor describes a 2D texture.
type TextureDescriptor struct {
	// Label is an optional debug label.
	Label string

	// Width and Height are the texture size in pixels. Both must be > 0.
	Width  int
	Height int

	// MipLevelCount is the number of mip levels. Zero means 1.
	MipLevelCount uint32

	// SampleCount is the number of samples per pixel. Zero means 1.
	SampleCount uint32

	Format gputypes.TextureFormat
	Usage  gputypes.TextureUsage
}

// Validate reports ErrInvalidDescriptor for non-positive sizes or a missing
// format or usage.
func (d *TextureDescriptor) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: nil texture descriptor", ErrInvalidDescriptor)
	}
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: texture %q size %dx%d", ErrInvalidDescriptor, d.Label, d.Width, d.Height)
	}
	if d.Format == gputypes.TextureFormatUndefined {
		return fmt.Errorf("%w: texture %q has no format", ErrInvalidDescriptor, d.Label)
	}
	if d.Usage == 0 {
		return fmt.Errorf("%w: texture %q has no usage", ErrInvalidDescriptor, d.Label)
	}
	return nil
}

// Mips returns MipLevelCount, treating zero as 1.
func (d *TextureDescriptor) Mips() uint32 {
	if d.MipLevelCount == 0 {
		return 1
	}
	return d.MipLevelCount
}

// Samples returns SampleCount, treating zero as 1.
func (d *TextureDescriptor) Samples() uint32 {
	if d.SampleCount == 0 {
		return 1
	}
	return d.SampleCount
}

// TextureViewDescriptor describes a view of a whole texture.
type TextureViewDescriptor struct {
	Label  string
	Aspect gputypes.TextureAspect
}

// Filter selects texel filtering.
type Filter uint8

const (
	FilterNearest Filter = iota
	FilterLinear
)

// AddressMode selects how coordinates outside [0,1] are resolved.
type AddressMode uint8

const (
	AddressClampToEdge AddressMode = iota
	AddressRepeat
)

// SamplerDescriptor describes a sampler.
type SamplerDescriptor struct {
	Label string

	AddressModeU AddressMode
	AddressModeV AddressMode
	AddressModeW AddressMode

	MagFilter    Filter
	MinFilter    Filter
	MipmapFilter Filter

	LodMinClamp   float32
	LodMaxClamp   float32
	MaxAnisotropy uint16
}

// BufferDescriptor describes a buffer.
type BufferDescriptor struct {
	Label string
	Size  uint64
	Usage gputypes.BufferUsage
}

// Stage is a set of shader stages.
type Stage uint8

const (
	StageVertex Stage = 1 << iota
	StageFragment
)

// BindingType is the kind of resource bound at a binding slot.
type BindingType uint8

const (
	BindingUniformBuffer BindingType = iota
	BindingTexture
	BindingSampler
)

// String returns the binding type name.
func (b BindingType) String() string {
	switch b {
	case BindingUniformBuffer:
		return "UniformBuffer"
	case BindingTexture:
		return "Texture"
	case BindingSampler:
		return "Sampler"
	default:
		return fmt.Sprintf("BindingType(%d)", uint8(b))
	}
}

// BindingLayout describes one slot of a bind group layout.
type BindingLayout struct {
	Binding uint32
	Type    BindingType
	Stages  Stage
}

// BindGroupLayout is the ordered list of slots of one bind group.
type BindGroupLayout []BindingLayout

// Find returns the layout entry for binding.
func (l BindGroupLayout) Find(binding uint32) (BindingLayout, bool) {
	for _, e := range l {
		if e.Binding == binding {
			return e, true
		}
	}
	return BindingLayout{}, false
}

// VertexAttribute is one attribute inside a vertex stream.
type VertexAttribute struct {
	Format   gputypes.VertexFormat
	Offset   uint64
	Location uint32
}

// VertexStream is one vertex buffer slot. Streams are bound by index.
type VertexStream struct {
	Stride     uint64
	Attributes []VertexAttribute
}

// ShaderStage is one compiled shader module and its entry point.
type ShaderStage struct {
	// Label names the module, usually the file it was loaded from.
	Label string
	// WGSL is the shader source.
	WGSL string
	// SPIRV is the compiled module. Backends that consume SPIR-V use it.
	SPIRV []uint32
	// EntryPoint is the function to invoke.
	EntryPoint string
}

// BlendMode selects color blending for the single color target.
type BlendMode uint8

const (
	// BlendReplace writes the fragment color.
	BlendReplace BlendMode = iota
	// BlendPremultiplied computes src + dst*(1-src.a).
	BlendPremultiplied
)

// PipelineDescriptor describes a render pipeline with one color target and
// an optional depth attachment. Triangles are never culled.
type PipelineDescriptor struct {
	Label string

	Vertex   ShaderStage
	Fragment ShaderStage

	VertexStreams []VertexStream
	BindGroups    []BindGroupLayout

	ColorFormat gputypes.TextureFormat
	Blend       BlendMode

	// DepthFormat is TextureFormatUndefined for pipelines without depth.
	DepthFormat  gputypes.TextureFormat
	DepthWrite   bool
	DepthCompare gputypes.CompareFunction

	// Reference is the CPU rendition of the shader pair, used by backends
	// that execute on the CPU. Other backends ignore it.
	Reference *ReferenceShader
}

// Validate checks structural consistency: a color format, entry points,
// and bind group layouts without duplicate bindings.
func (d *PipelineDescriptor) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: nil pipeline descriptor", ErrInvalidDescriptor)
	}
	if d.ColorFormat == gputypes.TextureFormatUndefined {
		return fmt.Errorf("%w: pipeline %q has no color format", ErrInvalidDescriptor, d.Label)
	}
	if d.Vertex.EntryPoint == "" || d.Fragment.EntryPoint == "" {
		return fmt.Errorf("%w: pipeline %q is missing an entry point", ErrInvalidDescriptor, d.Label)
	}
	for g, layout := range d.BindGroups {
		seen := make(map[uint32]bool, len(layout))
		for _, e := range layout {
			if seen[e.Binding] {
				return fmt.Errorf("%w: pipeline %q group %d binds %d twice", ErrInvalidDescriptor, d.Label, g, e.Binding)
			}
			seen[e.Binding] = true
		}
	}
	return nil
}

// BindGroupEntry binds one resource. Exactly one of Buffer, View or
// Sampler is set, matching the layout's BindingType.
type BindGroupEntry struct {
	Binding uint32
	Buffer  Buffer
	View    TextureView
	Sampler Sampler
}

// BindGroupDescriptor describes the resources bound to group Group of
// Pipeline.
type BindGroupDescriptor struct {
	Label    string
	Pipeline Pipeline
	Group    uint32
	Entries  []BindGroupEntry
}

// Validate checks every entry against the pipeline's layout for Group.
func (d *BindGroupDescriptor) Validate() error {
	if d == nil || d.Pipeline == nil {
		return fmt.Errorf("%w: bind group without pipeline", ErrInvalidDescriptor)
	}
	groups := d.Pipeline.Descriptor().BindGroups
	if int(d.Group) >= len(groups) {
		return fmt.Errorf("%w: bind group %q: pipeline has no group %d", ErrInvalidDescriptor, d.Label, d.Group)
	}
	layout := groups[d.Group]
	if len(d.Entries) != len(layout) {
		return fmt.Errorf("%w: bind group %q has %d entries, layout has %d",
			ErrInvalidDescriptor, d.Label, len(d.Entries), len(layout))
	}
	for _, e := range d.Entries {
		l, ok := layout.Find(e.Binding)
		if !ok {
			return fmt.Errorf("%w: bind group %q: no binding %d in layout", ErrInvalidDescriptor, d.Label, e.Binding)
		}
		var valid bool
		switch l.Type {
		case BindingUniformBuffer:
			valid = e.Buffer != nil && e.View == nil && e.Sampler == nil
		case BindingTexture:
			valid = e.View != nil && e.Buffer == nil && e.Sampler == nil
		case BindingSampler:
			valid = e.Sampler != nil && e.Buffer == nil && e.View == nil
		}
		if !valid {
			return fmt.Errorf("%w: bind group %q binding %d expects %v", ErrInvalidDescriptor, d.Label, e.Binding, l.Type)
		}
	}
	return nil
}
