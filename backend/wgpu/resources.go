// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package wgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/rtt"
	"github.com/gogpu/rtt/gpu"
)

type texture struct {
	owner *Backend
	desc  gpu.TextureDescriptor
	// raw is nil for textures wrapped from a presentation surface.
	raw hal.Texture
}

func (t *texture) Label() string                      { return t.desc.Label }
func (t *texture) Descriptor() gpu.TextureDescriptor { return t.desc }

type textureView struct {
	owner *Backend
	label string
	tex   *texture
	raw   hal.TextureView
	// borrowed views are owned by the surface and never destroyed here.
	borrowed bool
}

func (v *textureView) Label() string         { return v.label }
func (v *textureView) Texture() gpu.Texture { return v.tex }

type sampler struct {
	owner *Backend
	label string
	raw   hal.Sampler
}

func (s *sampler) Label() string { return s.label }

type buffer struct {
	owner *Backend
	desc  gpu.BufferDescriptor
	raw   hal.Buffer
}

func (b *buffer) Label() string { return b.desc.Label }
func (b *buffer) Size() uint64  { return b.desc.Size }

type pipeline struct {
	owner  *Backend
	desc   *gpu.PipelineDescriptor
	raw    hal.RenderPipeline
	layout hal.PipelineLayout
	groups []hal.BindGroupLayout
	vs, fs hal.ShaderModule
}

func (p *pipeline) Label() string                       { return p.desc.Label }
func (p *pipeline) Descriptor() *gpu.PipelineDescriptor { return p.desc }

type bindGroup struct {
	owner   *Backend
	label   string
	entries []gpu.BindGroupEntry
	raw     hal.BindGroup
}

func (g *bindGroup) Label() string                  { return g.label }
func (g *bindGroup) Entries() []gpu.BindGroupEntry { return g.entries }

// WrapView wraps a view owned by someone else, typically the swapchain
// image of a window, as a render attachment. The returned view is never
// destroyed by the backend and its texture cannot be read back.
func (b *Backend) WrapView(label string, view hal.TextureView, width, height int, format gputypes.TextureFormat) gpu.TextureView {
	tex := &texture{owner: b, desc: gpu.TextureDescriptor{
		Label:  label,
		Width:  width,
		Height: height,
		Format: format,
		Usage:  gputypes.TextureUsageRenderAttachment,
	}}
	return &textureView{owner: b, label: label, tex: tex, raw: view, borrowed: true}
}

// SupportsFormat implements gpu.Device.
func (b *Backend) SupportsFormat(format gputypes.TextureFormat, usage gputypes.TextureUsage) bool {
	switch format {
	case gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm:
		return true
	case gputypes.TextureFormatDepth32Float, gputypes.TextureFormatDepth24PlusStencil8:
		return usage&^(gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageTextureBinding) == 0
	default:
		return false
	}
}

// CreateTexture implements gpu.Device.
func (b *Backend) CreateTexture(desc *gpu.TextureDescriptor) (gpu.Texture, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if !b.SupportsFormat(desc.Format, desc.Usage) {
		return nil, fmt.Errorf("%w: %v with usage %v", gpu.ErrUnsupportedFormat, desc.Format, desc.Usage)
	}
	raw, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label: desc.Label,
		Size: hal.Extent3D{
			Width:              uint32(desc.Width),  //nolint:gosec // validated positive
			Height:             uint32(desc.Height), //nolint:gosec // validated positive
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: desc.Mips(),
		SampleCount:   desc.Samples(),
		Dimension:     gputypes.TextureDimension2D,
		Format:        desc.Format,
		Usage:         desc.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create texture %q: %w", desc.Label, err)
	}
	b.track(1)
	rtt.Logger().Debug("wgpu: texture created", "label", desc.Label, "size", fmt.Sprintf("%dx%d", desc.Width, desc.Height))
	return &texture{owner: b, desc: *desc, raw: raw}, nil
}

// CreateTextureView implements gpu.Device.
func (b *Backend) CreateTextureView(tex gpu.Texture, desc *gpu.TextureViewDescriptor) (gpu.TextureView, error) {
	t, err := b.texture(tex)
	if err != nil {
		return nil, err
	}
	if t.raw == nil {
		return nil, fmt.Errorf("%w: texture %q is not owned by the backend", gpu.ErrForeignHandle, t.desc.Label)
	}
	label := t.desc.Label + "_view"
	aspect := gputypes.TextureAspectAll
	if desc != nil {
		if desc.Label != "" {
			label = desc.Label
		}
		if desc.Aspect != 0 {
			aspect = desc.Aspect
		}
	}
	raw, err := b.device.CreateTextureView(t.raw, &hal.TextureViewDescriptor{
		Label:         label,
		Format:        t.desc.Format,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        aspect,
		MipLevelCount: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create view %q: %w", label, err)
	}
	b.track(1)
	return &textureView{owner: b, label: label, tex: t, raw: raw}, nil
}

func addressMode(m gpu.AddressMode) gputypes.AddressMode {
	if m == gpu.AddressRepeat {
		return gputypes.AddressModeRepeat
	}
	return gputypes.AddressModeClampToEdge
}

func filterMode(f gpu.Filter) gputypes.FilterMode {
	if f == gpu.FilterLinear {
		return gputypes.FilterModeLinear
	}
	return gputypes.FilterModeNearest
}

// CreateSampler implements gpu.Device. LOD clamps and anisotropy keep the
// HAL defaults; the module never samples more than one mip level.
func (b *Backend) CreateSampler(desc *gpu.SamplerDescriptor) (gpu.Sampler, error) {
	if desc == nil {
		return nil, fmt.Errorf("%w: nil sampler descriptor", gpu.ErrInvalidDescriptor)
	}
	raw, err := b.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        desc.Label,
		AddressModeU: addressMode(desc.AddressModeU),
		AddressModeV: addressMode(desc.AddressModeV),
		AddressModeW: addressMode(desc.AddressModeW),
		MagFilter:    filterMode(desc.MagFilter),
		MinFilter:    filterMode(desc.MinFilter),
		MipmapFilter: filterMode(desc.MipmapFilter),
	})
	if err != nil {
		return nil, fmt.Errorf("create sampler %q: %w", desc.Label, err)
	}
	b.track(1)
	return &sampler{owner: b, label: desc.Label, raw: raw}, nil
}

// CreateBuffer implements gpu.Device. Contents are written through the
// queue immediately.
func (b *Backend) CreateBuffer(desc *gpu.BufferDescriptor, contents []byte) (gpu.Buffer, error) {
	if desc == nil || desc.Size == 0 || desc.Usage == 0 {
		return nil, fmt.Errorf("%w: buffer needs a size and a usage", gpu.ErrInvalidDescriptor)
	}
	if uint64(len(contents)) > desc.Size {
		return nil, fmt.Errorf("%w: buffer %q contents exceed size %d", gpu.ErrInvalidDescriptor, desc.Label, desc.Size)
	}
	raw, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: desc.Usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer %q: %w", desc.Label, err)
	}
	if len(contents) > 0 {
		b.queue.WriteBuffer(raw, 0, contents)
	}
	b.track(1)
	return &buffer{owner: b, desc: *desc, raw: raw}, nil
}

func bindingEntry(l gpu.BindingLayout) gputypes.BindGroupLayoutEntry {
	var vis gputypes.ShaderStages
	if l.Stages&gpu.StageVertex != 0 {
		vis |= gputypes.ShaderStageVertex
	}
	if l.Stages&gpu.StageFragment != 0 {
		vis |= gputypes.ShaderStageFragment
	}
	e := gputypes.BindGroupLayoutEntry{Binding: l.Binding, Visibility: vis}
	switch l.Type {
	case gpu.BindingUniformBuffer:
		e.Buffer = &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}
	case gpu.BindingTexture:
		e.Texture = &gputypes.TextureBindingLayout{
			SampleType:    gputypes.TextureSampleTypeFloat,
			ViewDimension: gputypes.TextureViewDimension2D,
		}
	case gpu.BindingSampler:
		e.Sampler = &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering}
	}
	return e
}

// shaderSource prefers precompiled SPIR-V.
func shaderSource(s gpu.ShaderStage) hal.ShaderSource {
	if len(s.SPIRV) > 0 {
		return hal.ShaderSource{SPIRV: s.SPIRV}
	}
	return hal.ShaderSource{WGSL: s.WGSL}
}

// CreatePipeline implements gpu.Device.
func (b *Backend) CreatePipeline(desc *gpu.PipelineDescriptor) (gpu.Pipeline, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	p := &pipeline{owner: b, desc: desc}
	ok := false
	defer func() {
		if !ok {
			b.destroyPipeline(p)
		}
	}()

	var err error
	p.vs, err = b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Vertex.Label,
		Source: shaderSource(desc.Vertex),
	})
	if err != nil {
		return nil, fmt.Errorf("create vertex module %q: %w", desc.Vertex.Label, err)
	}
	p.fs, err = b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Fragment.Label,
		Source: shaderSource(desc.Fragment),
	})
	if err != nil {
		return nil, fmt.Errorf("create fragment module %q: %w", desc.Fragment.Label, err)
	}

	for g, layout := range desc.BindGroups {
		entries := make([]gputypes.BindGroupLayoutEntry, len(layout))
		for i, l := range layout {
			entries[i] = bindingEntry(l)
		}
		bgl, err := b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
			Label:   fmt.Sprintf("%s_group%d", desc.Label, g),
			Entries: entries,
		})
		if err != nil {
			return nil, fmt.Errorf("create bind group layout %d of %q: %w", g, desc.Label, err)
		}
		p.groups = append(p.groups, bgl)
	}
	p.layout, err = b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            desc.Label + "_layout",
		BindGroupLayouts: p.groups,
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline layout %q: %w", desc.Label, err)
	}

	buffers := make([]gputypes.VertexBufferLayout, len(desc.VertexStreams))
	for i, s := range desc.VertexStreams {
		attrs := make([]gputypes.VertexAttribute, len(s.Attributes))
		for j, a := range s.Attributes {
			attrs[j] = gputypes.VertexAttribute{Format: a.Format, Offset: a.Offset, ShaderLocation: a.Location}
		}
		buffers[i] = gputypes.VertexBufferLayout{
			ArrayStride: s.Stride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes:  attrs,
		}
	}

	target := gputypes.ColorTargetState{Format: desc.ColorFormat, WriteMask: gputypes.ColorWriteMaskAll}
	if desc.Blend == gpu.BlendPremultiplied {
		premulBlend := gputypes.BlendStatePremultiplied()
		target.Blend = &premulBlend
	}

	halDesc := &hal.RenderPipelineDescriptor{
		Label:  desc.Label,
		Layout: p.layout,
		Vertex: hal.VertexState{
			Module:     p.vs,
			EntryPoint: desc.Vertex.EntryPoint,
			Buffers:    buffers,
		},
		Fragment: &hal.FragmentState{
			Module:     p.fs,
			EntryPoint: desc.Fragment.EntryPoint,
			Targets:    []gputypes.ColorTargetState{target},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{Count: 1, Mask: 0xFFFFFFFF},
	}
	if desc.DepthFormat != gputypes.TextureFormatUndefined {
		keep := hal.StencilFaceState{
			Compare:     gputypes.CompareFunctionAlways,
			FailOp:      hal.StencilOperationKeep,
			DepthFailOp: hal.StencilOperationKeep,
			PassOp:      hal.StencilOperationKeep,
		}
		halDesc.DepthStencil = &hal.DepthStencilState{
			Format:            desc.DepthFormat,
			DepthWriteEnabled: desc.DepthWrite,
			DepthCompare:      desc.DepthCompare,
			StencilFront:      keep,
			StencilBack:       keep,
		}
	}
	p.raw, err = b.device.CreateRenderPipeline(halDesc)
	if err != nil {
		return nil, fmt.Errorf("create render pipeline %q: %w", desc.Label, err)
	}

	ok = true
	b.track(1)
	rtt.Logger().Debug("wgpu: pipeline created", "label", desc.Label)
	return p, nil
}

// CreateBindGroup implements gpu.Device.
func (b *Backend) CreateBindGroup(desc *gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	p, err := b.pipeline(desc.Pipeline)
	if err != nil {
		return nil, err
	}
	entries := make([]gputypes.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		entries[i].Binding = e.Binding
		switch {
		case e.Buffer != nil:
			buf, err := b.buffer(e.Buffer)
			if err != nil {
				return nil, err
			}
			entries[i].Resource = gputypes.BufferBinding{Buffer: buf.raw.NativeHandle(), Offset: 0, Size: buf.desc.Size}
		case e.View != nil:
			v, err := b.view(e.View)
			if err != nil {
				return nil, err
			}
			entries[i].Resource = gputypes.TextureViewBinding{TextureView: v.raw.NativeHandle()}
		case e.Sampler != nil:
			s, err := b.sampler(e.Sampler)
			if err != nil {
				return nil, err
			}
			entries[i].Resource = gputypes.SamplerBinding{Sampler: s.raw.NativeHandle()}
		}
	}
	raw, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  p.groups[desc.Group],
		Entries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("create bind group %q: %w", desc.Label, err)
	}
	b.track(1)
	kept := append([]gpu.BindGroupEntry(nil), desc.Entries...)
	return &bindGroup{owner: b, label: desc.Label, entries: kept, raw: raw}, nil
}

// DestroyTexture implements gpu.Device.
func (b *Backend) DestroyTexture(tex gpu.Texture) {
	t, err := b.texture(tex)
	if err != nil || t.raw == nil {
		return
	}
	b.device.DestroyTexture(t.raw)
	t.raw = nil
	b.mu.Lock()
	delete(b.usage, t)
	b.live--
	b.mu.Unlock()
}

// DestroyTextureView implements gpu.Device.
func (b *Backend) DestroyTextureView(view gpu.TextureView) {
	v, err := b.view(view)
	if err != nil || v.borrowed || v.raw == nil {
		return
	}
	b.device.DestroyTextureView(v.raw)
	v.raw = nil
	b.track(-1)
}

// DestroySampler implements gpu.Device.
func (b *Backend) DestroySampler(s gpu.Sampler) {
	sm, err := b.sampler(s)
	if err != nil || sm.raw == nil {
		return
	}
	b.device.DestroySampler(sm.raw)
	sm.raw = nil
	b.track(-1)
}

// DestroyBuffer implements gpu.Device.
func (b *Backend) DestroyBuffer(buf gpu.Buffer) {
	bf, err := b.buffer(buf)
	if err != nil || bf.raw == nil {
		return
	}
	b.device.DestroyBuffer(bf.raw)
	bf.raw = nil
	b.track(-1)
}

// DestroyPipeline implements gpu.Device.
func (b *Backend) DestroyPipeline(p gpu.Pipeline) {
	pl, err := b.pipeline(p)
	if err != nil || pl.raw == nil {
		return
	}
	b.destroyPipeline(pl)
	b.track(-1)
}

func (b *Backend) destroyPipeline(p *pipeline) {
	if p.raw != nil {
		b.device.DestroyRenderPipeline(p.raw)
		p.raw = nil
	}
	if p.layout != nil {
		b.device.DestroyPipelineLayout(p.layout)
		p.layout = nil
	}
	for _, g := range p.groups {
		b.device.DestroyBindGroupLayout(g)
	}
	p.groups = nil
	if p.vs != nil {
		b.device.DestroyShaderModule(p.vs)
		p.vs = nil
	}
	if p.fs != nil {
		b.device.DestroyShaderModule(p.fs)
		p.fs = nil
	}
}

// DestroyBindGroup implements gpu.Device.
func (b *Backend) DestroyBindGroup(g gpu.BindGroup) {
	bg, err := b.bindGroup(g)
	if err != nil || bg.raw == nil {
		return
	}
	b.device.DestroyBindGroup(bg.raw)
	bg.raw = nil
	b.track(-1)
}

func (b *Backend) texture(h gpu.Texture) (*texture, error) {
	t, ok := h.(*texture)
	if !ok || t == nil || t.owner != b {
		return nil, gpu.ErrForeignHandle
	}
	return t, nil
}

func (b *Backend) view(h gpu.TextureView) (*textureView, error) {
	v, ok := h.(*textureView)
	if !ok || v == nil || v.owner != b {
		return nil, gpu.ErrForeignHandle
	}
	return v, nil
}

func (b *Backend) sampler(h gpu.Sampler) (*sampler, error) {
	s, ok := h.(*sampler)
	if !ok || s == nil || s.owner != b {
		return nil, gpu.ErrForeignHandle
	}
	return s, nil
}

func (b *Backend) buffer(h gpu.Buffer) (*buffer, error) {
	bf, ok := h.(*buffer)
	if !ok || bf == nil || bf.owner != b {
		return nil, gpu.ErrForeignHandle
	}
	return bf, nil
}

func (b *Backend) pipeline(h gpu.Pipeline) (*pipeline, error) {
	p, ok := h.(*pipeline)
	if !ok || p == nil || p.owner != b {
		return nil, gpu.ErrForeignHandle
	}
	return p, nil
}

func (b *Backend) bindGroup(h gpu.BindGroup) (*bindGroup, error) {
	g, ok := h.(*bindGroup)
	if !ok || g == nil || g.owner != b {
		return nil, gpu.ErrForeignHandle
	}
	return g, nil
}
