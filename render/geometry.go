// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rtt"
	"github.com/gogpu/rtt/gpu"
)

func float32Bytes(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return b
}

func uint16Bytes(v []uint16) []byte {
	// Buffer sizes must be 4-byte aligned.
	n := 2 * len(v)
	b := make([]byte, (n+3)&^3)
	for i, x := range v {
		binary.LittleEndian.PutUint16(b[i*2:], x)
	}
	return b
}

// resources tracks what a builder created so that a failed constructor
// can release it in reverse order.
type resources struct {
	dev       gpu.Device
	buffers   []gpu.Buffer
	textures  []gpu.Texture
	views     []gpu.TextureView
	samplers  []gpu.Sampler
	pipelines []gpu.Pipeline
	groups    []gpu.BindGroup
}

func (r *resources) buffer(label string, usage gputypes.BufferUsage, data []byte) (gpu.Buffer, error) {
	buf, err := r.dev.CreateBuffer(&gpu.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	}, data)
	if err != nil {
		return nil, rtt.Wrap(rtt.ErrResourceCreation, "create buffer "+label, err)
	}
	r.buffers = append(r.buffers, buf)
	return buf, nil
}

func (r *resources) pipeline(desc *gpu.PipelineDescriptor) (gpu.Pipeline, error) {
	p, err := r.dev.CreatePipeline(desc)
	if err != nil {
		return nil, rtt.Wrap(rtt.ErrResourceCreation, "create pipeline "+desc.Label, err)
	}
	r.pipelines = append(r.pipelines, p)
	return p, nil
}

func (r *resources) bindGroup(desc *gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	g, err := r.dev.CreateBindGroup(desc)
	if err != nil {
		return nil, rtt.Wrap(rtt.ErrResourceCreation, "create bind group "+desc.Label, err)
	}
	r.groups = append(r.groups, g)
	return g, nil
}

func (r *resources) sampler(desc *gpu.SamplerDescriptor) (gpu.Sampler, error) {
	s, err := r.dev.CreateSampler(desc)
	if err != nil {
		return nil, rtt.Wrap(rtt.ErrResourceCreation, "create sampler "+desc.Label, err)
	}
	r.samplers = append(r.samplers, s)
	return s, nil
}

func (r *resources) texture(desc *gpu.TextureDescriptor) (gpu.Texture, gpu.TextureView, error) {
	tex, err := r.dev.CreateTexture(desc)
	if err != nil {
		return nil, nil, rtt.Wrap(rtt.ErrResourceCreation, "create texture "+desc.Label, err)
	}
	r.textures = append(r.textures, tex)
	view, err := r.dev.CreateTextureView(tex, &gpu.TextureViewDescriptor{
		Label:  desc.Label + "_view",
		Aspect: gputypes.TextureAspectAll,
	})
	if err != nil {
		return nil, nil, rtt.Wrap(rtt.ErrResourceCreation, "create view "+desc.Label, err)
	}
	r.views = append(r.views, view)
	return tex, view, nil
}

// release destroys everything in reverse creation order.
func (r *resources) release() {
	for i := len(r.groups) - 1; i >= 0; i-- {
		r.dev.DestroyBindGroup(r.groups[i])
	}
	for i := len(r.pipelines) - 1; i >= 0; i-- {
		r.dev.DestroyPipeline(r.pipelines[i])
	}
	for i := len(r.samplers) - 1; i >= 0; i-- {
		r.dev.DestroySampler(r.samplers[i])
	}
	for i := len(r.views) - 1; i >= 0; i-- {
		r.dev.DestroyTextureView(r.views[i])
	}
	for i := len(r.textures) - 1; i >= 0; i-- {
		r.dev.DestroyTexture(r.textures[i])
	}
	for i := len(r.buffers) - 1; i >= 0; i-- {
		r.dev.DestroyBuffer(r.buffers[i])
	}
	*r = resources{dev: r.dev}
}

func uint32Bytes(v []uint32) []byte {
	b := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(b[i*4:], x)
	}
	return b
}
