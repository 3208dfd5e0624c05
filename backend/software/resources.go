package software

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rtt"
	"github.com/gogpu/rtt/gpu"
)

type texture struct {
	owner *Backend
	desc  gpu.TextureDescriptor
	bgra  bool
	// Exactly one of color (4 bytes per texel) and depth is set.
	color []uint8
	depth []float32
}

func (t *texture) Label() string                      { return t.desc.Label }
func (t *texture) Descriptor() gpu.TextureDescriptor { return t.desc }

type textureView struct {
	owner *Backend
	label string
	tex   *texture
}

func (v *textureView) Label() string        { return v.label }
func (v *textureView) Texture() gpu.Texture { return v.tex }

type sampler struct {
	owner *Backend
	desc  gpu.SamplerDescriptor
}

func (s *sampler) Label() string { return s.desc.Label }

type buffer struct {
	owner *Backend
	desc  gpu.BufferDescriptor
	data  []byte
}

func (b *buffer) Label() string { return b.desc.Label }
func (b *buffer) Size() uint64  { return b.desc.Size }

type pipeline struct {
	owner *Backend
	desc  gpu.PipelineDescriptor
}

func (p *pipeline) Label() string                        { return p.desc.Label }
func (p *pipeline) Descriptor() *gpu.PipelineDescriptor { return &p.desc }

type bindGroup struct {
	owner   *Backend
	label   string
	group   uint32
	entries []gpu.BindGroupEntry
}

func (g *bindGroup) Label() string                   { return g.label }
func (g *bindGroup) Entries() []gpu.BindGroupEntry { return g.entries }

const colorUsages = gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding |
	gputypes.TextureUsageCopySrc | gputypes.TextureUsageCopyDst

// SupportsFormat implements gpu.Device.
func (b *Backend) SupportsFormat(format gputypes.TextureFormat, usage gputypes.TextureUsage) bool {
	switch format {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
		return usage&^colorUsages == 0
	case gputypes.TextureFormatDepth32Float:
		return usage&^gputypes.TextureUsageRenderAttachment == 0
	default:
		return false
	}
}

func (b *Backend) track(delta int) {
	b.mu.Lock()
	b.live += delta
	b.mu.Unlock()
}

// CreateTexture implements gpu.Device.
func (b *Backend) CreateTexture(desc *gpu.TextureDescriptor) (gpu.Texture, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if !b.SupportsFormat(desc.Format, desc.Usage) {
		return nil, fmt.Errorf("%w: texture %q format %v usage %v", gpu.ErrUnsupportedFormat, desc.Label, desc.Format, desc.Usage)
	}
	if desc.Samples() != 1 {
		return nil, fmt.Errorf("%w: texture %q sample count %d", gpu.ErrUnsupportedFormat, desc.Label, desc.Samples())
	}
	t := &texture{owner: b, desc: *desc}
	n := desc.Width * desc.Height
	if desc.Format == gputypes.TextureFormatDepth32Float {
		t.depth = make([]float32, n)
	} else {
		t.color = make([]uint8, 4*n)
		t.bgra = desc.Format == gputypes.TextureFormatBGRA8Unorm
	}
	b.track(1)
	rtt.Logger().Debug("software: texture created", "label", desc.Label, "width", desc.Width, "height", desc.Height)
	return t, nil
}

// CreateTextureView implements gpu.Device.
func (b *Backend) CreateTextureView(tex gpu.Texture, desc *gpu.TextureViewDescriptor) (gpu.TextureView, error) {
	t, err := b.texture(tex)
	if err != nil {
		return nil, err
	}
	label := t.desc.Label + "_view"
	if desc != nil && desc.Label != "" {
		label = desc.Label
	}
	b.track(1)
	return &textureView{owner: b, label: label, tex: t}, nil
}

// CreateSampler implements gpu.Device.
func (b *Backend) CreateSampler(desc *gpu.SamplerDescriptor) (gpu.Sampler, error) {
	if desc == nil {
		return nil, fmt.Errorf("%w: nil sampler descriptor", gpu.ErrInvalidDescriptor)
	}
	b.track(1)
	return &sampler{owner: b, desc: *desc}, nil
}

// CreateBuffer implements gpu.Device.
func (b *Backend) CreateBuffer(desc *gpu.BufferDescriptor, contents []byte) (gpu.Buffer, error) {
	if desc == nil || desc.Size == 0 {
		return nil, fmt.Errorf("%w: empty buffer", gpu.ErrInvalidDescriptor)
	}
	if uint64(len(contents)) > desc.Size {
		return nil, fmt.Errorf("%w: buffer %q contents exceed size %d", gpu.ErrInvalidDescriptor, desc.Label, desc.Size)
	}
	buf := &buffer{owner: b, desc: *desc, data: make([]byte, desc.Size)}
	copy(buf.data, contents)
	b.track(1)
	return buf, nil
}

// CreatePipeline implements gpu.Device. Pipelines must carry a reference
// shader.
func (b *Backend) CreatePipeline(desc *gpu.PipelineDescriptor) (gpu.Pipeline, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	ref := desc.Reference
	if ref == nil || ref.Vertex == nil || ref.Fragment == nil {
		return nil, fmt.Errorf("%w: pipeline %q has no reference shader", gpu.ErrInvalidDescriptor, desc.Label)
	}
	if !b.SupportsFormat(desc.ColorFormat, gputypes.TextureUsageRenderAttachment) {
		return nil, fmt.Errorf("%w: pipeline %q color format %v", gpu.ErrUnsupportedFormat, desc.Label, desc.ColorFormat)
	}
	b.track(1)
	return &pipeline{owner: b, desc: *desc}, nil
}

// CreateBindGroup implements gpu.Device.
func (b *Backend) CreateBindGroup(desc *gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if _, err := b.pipeline(desc.Pipeline); err != nil {
		return nil, err
	}
	for _, e := range desc.Entries {
		var err error
		switch {
		case e.Buffer != nil:
			_, err = b.buffer(e.Buffer)
		case e.View != nil:
			_, err = b.view(e.View)
		case e.Sampler != nil:
			_, err = b.sampler(e.Sampler)
		}
		if err != nil {
			return nil, err
		}
	}
	b.track(1)
	return &bindGroup{
		owner:   b,
		label:   desc.Label,
		group:   desc.Group,
		entries: append([]gpu.BindGroupEntry(nil), desc.Entries...),
	}, nil
}

// DestroyTexture implements gpu.Device.
func (b *Backend) DestroyTexture(tex gpu.Texture) {
	if t, err := b.texture(tex); err == nil && (t.color != nil || t.depth != nil) {
		t.color, t.depth = nil, nil
		b.track(-1)
	}
}

// DestroyTextureView implements gpu.Device.
func (b *Backend) DestroyTextureView(view gpu.TextureView) {
	if v, err := b.view(view); err == nil && v.tex != nil {
		v.tex = nil
		b.track(-1)
	}
}

// DestroySampler implements gpu.Device.
func (b *Backend) DestroySampler(s gpu.Sampler) {
	if sm, err := b.sampler(s); err == nil && sm.owner != nil {
		sm.owner = nil
		b.track(-1)
	}
}

// DestroyBuffer implements gpu.Device.
func (b *Backend) DestroyBuffer(buf gpu.Buffer) {
	if bf, err := b.buffer(buf); err == nil && bf.data != nil {
		bf.data = nil
		b.track(-1)
	}
}

// DestroyPipeline implements gpu.Device.
func (b *Backend) DestroyPipeline(p gpu.Pipeline) {
	if pl, err := b.pipeline(p); err == nil && pl.owner != nil {
		pl.owner = nil
		b.track(-1)
	}
}

// DestroyBindGroup implements gpu.Device.
func (b *Backend) DestroyBindGroup(g gpu.BindGroup) {
	if bg, err := b.bindGroup(g); err == nil && bg.owner != nil {
		bg.owner = nil
		b.track(-1)
	}
}

// Handle resolution. Each returns gpu.ErrForeignHandle for nil handles and
// handles of other devices.

func (b *Backend) texture(h gpu.Texture) (*texture, error) {
	t, ok := h.(*texture)
	if !ok || t == nil || t.owner != b {
		return nil, fmt.Errorf("%w: texture %T", gpu.ErrForeignHandle, h)
	}
	return t, nil
}

func (b *Backend) view(h gpu.TextureView) (*textureView, error) {
	v, ok := h.(*textureView)
	if !ok || v == nil || v.owner != b || v.tex == nil {
		return nil, fmt.Errorf("%w: texture view %T", gpu.ErrForeignHandle, h)
	}
	return v, nil
}

func (b *Backend) sampler(h gpu.Sampler) (*sampler, error) {
	s, ok := h.(*sampler)
	if !ok || s == nil || s.owner != b {
		return nil, fmt.Errorf("%w: sampler %T", gpu.ErrForeignHandle, h)
	}
	return s, nil
}

func (b *Backend) buffer(h gpu.Buffer) (*buffer, error) {
	bf, ok := h.(*buffer)
	if !ok || bf == nil || bf.owner != b {
		return nil, fmt.Errorf("%w: buffer %T", gpu.ErrForeignHandle, h)
	}
	return bf, nil
}

func (b *Backend) pipeline(h gpu.Pipeline) (*pipeline, error) {
	p, ok := h.(*pipeline)
	if !ok || p == nil || p.owner != b {
		return nil, fmt.Errorf("%w: pipeline %T", gpu.ErrForeignHandle, h)
	}
	return p, nil
}

func (b *Backend) bindGroup(h gpu.BindGroup) (*bindGroup, error) {
	g, ok := h.(*bindGroup)
	if !ok || g == nil || g.owner != b {
		return nil, fmt.Errorf("%w: bind group %T", gpu.ErrForeignHandle, h)
	}
	return g, nil
}
