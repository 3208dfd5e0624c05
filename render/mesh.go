// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/rtt"
	"github.com/gogpu/rtt/assets"
	"github.com/gogpu/rtt/gpu"
	"github.com/gogpu/rtt/recording"
	"github.com/gogpu/rtt/scene"
)

var meshBindGroups = []gpu.BindGroupLayout{{
	{Binding: 0, Type: gpu.BindingUniformBuffer, Stages: gpu.StageVertex},
}}

// Interleaved position and color.
var meshStreams = []gpu.VertexStream{{
	Stride: 24,
	Attributes: []gpu.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x3, Offset: 0, Location: 0},
		{Format: gputypes.VertexFormatFloat32x3, Offset: 12, Location: 1},
	},
}}

var meshShader = &gpu.ReferenceShader{
	Varyings: 3,
	Vertex: func(b gpu.Bindings, attribs [][4]float32, out []float32) [4]float32 {
		m := mvp(b.Uniform(0, 0))
		p := attribs[0]
		copy(out, attribs[1][:3])
		return [4]float32(m.Mul4x1(mgl32.Vec4{p[0], p[1], p[2], 1}))
	},
	Fragment: func(_ gpu.Bindings, in []float32) [4]float32 {
		return [4]float32{in[0], in[1], in[2], 1}
	},
}

type meshBuffers struct {
	vertices gpu.Buffer
	indices  gpu.Buffer
	count    uint32
}

// Meshes draws the input scene with the offscreen camera.
type Meshes struct {
	res      resources
	pipeline gpu.Pipeline
	uniform  gpu.Buffer
	group    gpu.BindGroup
	meshes   []meshBuffers

	mu    sync.Mutex
	cam   Camera
	dirty bool
}

// NewMeshes uploads every mesh of sc and builds a pipeline for pass. An
// empty scene gives a Meshes that records nothing.
func NewMeshes(dev gpu.Device, pass *RenderPassDescriptor, depth DepthConvention, sc *scene.Scene, cam Camera, opts ...BuildOption) (*Meshes, error) {
	m := &Meshes{res: resources{dev: dev}, cam: cam}
	if sc.Empty() {
		return m, nil
	}
	if pass == nil {
		return nil, rtt.Errorf(rtt.ErrResourceCreation, "create meshes", "nil render pass")
	}
	o := newBuildOptions("scene", opts)
	vs, err := o.finder.Shader(assets.MeshVertex, "main")
	if err != nil {
		return nil, err
	}
	fs, err := o.finder.Shader(assets.MeshFragment, "main")
	if err != nil {
		return nil, err
	}

	ok := false
	defer func() {
		if !ok {
			m.res.release()
		}
	}()

	m.pipeline, err = m.res.pipeline(&gpu.PipelineDescriptor{
		Label:         o.label + "_pipeline",
		Vertex:        vs,
		Fragment:      fs,
		VertexStreams: meshStreams,
		BindGroups:    meshBindGroups,
		ColorFormat:   pass.ColorFormat(),
		Blend:         gpu.BlendReplace,
		DepthFormat:   pass.DepthFormat(),
		DepthWrite:    true,
		DepthCompare:  depth.Compare(),
		Reference:     meshShader,
	})
	if err != nil {
		return nil, err
	}
	if m.uniform, err = m.res.buffer(o.label+"_camera", gputypes.BufferUsageUniform, cam.Uniform()); err != nil {
		return nil, err
	}
	m.group, err = m.res.bindGroup(&gpu.BindGroupDescriptor{
		Label:    o.label + "_camera",
		Pipeline: m.pipeline,
		Entries:  []gpu.BindGroupEntry{{Binding: 0, Buffer: m.uniform}},
	})
	if err != nil {
		return nil, err
	}

	for i := range sc.Meshes {
		mesh := &sc.Meshes[i]
		data := make([]float32, 0, 6*len(mesh.Positions))
		for v := range mesh.Positions {
			p, c := mesh.Vertex(v), mesh.Colors[v]
			data = append(data, p[0], p[1], p[2], c[0], c[1], c[2])
		}
		label := fmt.Sprintf("%s_mesh%d", o.label, i)
		vb, err := m.res.buffer(label+"_vertices", gputypes.BufferUsageVertex, float32Bytes(data))
		if err != nil {
			return nil, err
		}
		ib, err := m.res.buffer(label+"_indices", gputypes.BufferUsageIndex, uint32Bytes(mesh.Indices))
		if err != nil {
			return nil, err
		}
		m.meshes = append(m.meshes, meshBuffers{vertices: vb, indices: ib, count: uint32(len(mesh.Indices))})
	}

	ok = true
	rtt.Logger().Debug("scene meshes created", "meshes", len(m.meshes))
	return m, nil
}

// Len returns the number of meshes drawn.
func (m *Meshes) Len() int { return len(m.meshes) }

// SetCamera replaces the camera.
func (m *Meshes) SetCamera(cam Camera) {
	m.mu.Lock()
	m.cam, m.dirty = cam, true
	m.mu.Unlock()
}

// Prepare implements Drawable.
func (m *Meshes) Prepare(rec *recording.Recorder, _ *FrameContext) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.dirty || m.uniform == nil {
		return
	}
	rec.WriteBuffer(m.uniform, 0, m.cam.Uniform())
	m.dirty = false
}

// Draw implements Drawable.
func (m *Meshes) Draw(rec *recording.Recorder, _ *FrameContext) {
	if len(m.meshes) == 0 {
		return
	}
	rec.SetPipeline(m.pipeline)
	rec.SetBindGroup(0, m.group)
	for _, mb := range m.meshes {
		rec.SetVertexBuffer(0, mb.vertices, 0)
		rec.SetIndexBuffer(mb.indices, gputypes.IndexFormatUint32, 0)
		rec.DrawIndexed(mb.count, 1, 0, 0, 0)
	}
}

// Destroy releases the GPU resources.
func (m *Meshes) Destroy() { m.res.release() }

var _ Drawable = (*Meshes)(nil)
