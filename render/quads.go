// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/rtt"
	"github.com/gogpu/rtt/assets"
	"github.com/gogpu/rtt/gpu"
	"github.com/gogpu/rtt/recording"
	"github.com/gogpu/rtt/scene"
)

// Quad geometry: two unit planes at z=0 and z=-0.5.
var (
	quadPositions = []float32{
		-0.5, -0.5, 0,
		0.5, -0.5, 0,
		0.5, 0.5, 0,
		-0.5, 0.5, 0,
		-0.5, -0.5, -0.5,
		0.5, -0.5, -0.5,
		0.5, 0.5, -0.5,
		-0.5, 0.5, -0.5,
	}
	quadColors = []float32{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
		1, 1, 1,
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
		1, 1, 1,
	}
	quadTexcoords = []float32{
		0, 1,
		1, 1,
		1, 0,
		0, 0,
		0, 1,
		1, 1,
		1, 0,
		0, 0,
	}
	quadIndices = []uint16{
		0, 1, 2,
		2, 3, 0,
		4, 5, 6,
		6, 7, 4,
	}
)

// QuadIndexCount is the number of indices drawn by Quads.
const QuadIndexCount = 12

// QuadBounds returns the bounds of the quad geometry.
func QuadBounds() scene.Bounds {
	b := scene.EmptyBounds()
	for i := 0; i < len(quadPositions); i += 3 {
		b.Extend(mgl32.Vec3{quadPositions[i], quadPositions[i+1], quadPositions[i+2]})
	}
	return b
}

// Bind group indices of the quad pipeline.
const (
	quadTextureGroup = 0
	quadCameraGroup  = 1
)

var quadBindGroups = []gpu.BindGroupLayout{
	quadTextureGroup: {
		{Binding: 0, Type: gpu.BindingTexture, Stages: gpu.StageFragment},
		{Binding: 1, Type: gpu.BindingSampler, Stages: gpu.StageFragment},
	},
	quadCameraGroup: {
		{Binding: 0, Type: gpu.BindingUniformBuffer, Stages: gpu.StageVertex},
	},
}

var quadStreams = []gpu.VertexStream{
	{Stride: 12, Attributes: []gpu.VertexAttribute{{Format: gputypes.VertexFormatFloat32x3, Location: 0}}},
	{Stride: 12, Attributes: []gpu.VertexAttribute{{Format: gputypes.VertexFormatFloat32x3, Location: 1}}},
	{Stride: 8, Attributes: []gpu.VertexAttribute{{Format: gputypes.VertexFormatFloat32x2, Location: 2}}},
}

// quadShader is the CPU rendition of quad.vert.wgsl and quad.frag.wgsl.
var quadShader = &gpu.ReferenceShader{
	Varyings: 5,
	Vertex: func(b gpu.Bindings, attribs [][4]float32, out []float32) [4]float32 {
		m := mvp(b.Uniform(quadCameraGroup, 0))
		p := attribs[0]
		copy(out[0:3], attribs[1][:3])
		out[3], out[4] = attribs[2][0], attribs[2][1]
		clip := m.Mul4x1(mgl32.Vec4{p[0], p[1], p[2], 1})
		return [4]float32(clip)
	},
	Fragment: func(b gpu.Bindings, in []float32) [4]float32 {
		return b.Sample(quadTextureGroup, 0, 1, in[3], in[4])
	},
}

type buildOptions struct {
	label  string
	finder *assets.Finder
}

// BuildOption configures NewQuads and NewMeshes.
type BuildOption func(*buildOptions)

// WithLabel sets the debug label prefix.
func WithLabel(label string) BuildOption {
	return func(o *buildOptions) { o.label = label }
}

// WithShaderFinder sets where shaders are looked up. The default searches
// RTT_FILE_PATH and the embedded shaders.
func WithShaderFinder(f *assets.Finder) BuildOption {
	return func(o *buildOptions) { o.finder = f }
}

func newBuildOptions(label string, opts []BuildOption) buildOptions {
	o := buildOptions{label: label}
	for _, opt := range opts {
		opt(&o)
	}
	if o.finder == nil {
		o.finder = assets.NewFinder()
	}
	return o
}

// Quads draws the two textured planes that show the offscreen color image.
type Quads struct {
	res      resources
	label    string
	pipeline gpu.Pipeline
	texture  gpu.BindGroup
	camera   gpu.BindGroup
	uniform  gpu.Buffer
	vertex   [3]gpu.Buffer
	index    gpu.Buffer

	mu    sync.Mutex
	cam   Camera
	dirty bool
}

// NewQuads builds the quad pipeline for a pass with the given formats and
// binds the color image of set as its texture. The sampled texture is in
// LayoutShaderReadOnly when the quads draw.
func NewQuads(dev gpu.Device, colorFormat, depthFormat gputypes.TextureFormat, depth DepthConvention,
	set *AttachmentSet, cam Camera, opts ...BuildOption) (*Quads, error) {
	o := newBuildOptions("quads", opts)
	if set == nil || set.SampledLayout() != LayoutShaderReadOnly {
		return nil, rtt.Errorf(rtt.ErrResourceCreation, "create quads", "attachments are not sampled as ShaderReadOnly")
	}

	vs, err := o.finder.Shader(assets.QuadVertex, "main")
	if err != nil {
		return nil, err
	}
	fs, err := o.finder.Shader(assets.QuadFragment, "main")
	if err != nil {
		return nil, err
	}

	q := &Quads{res: resources{dev: dev}, label: o.label, cam: cam}
	ok := false
	defer func() {
		if !ok {
			q.res.release()
		}
	}()

	q.pipeline, err = q.res.pipeline(&gpu.PipelineDescriptor{
		Label:         o.label + "_pipeline",
		Vertex:        vs,
		Fragment:      fs,
		VertexStreams: quadStreams,
		BindGroups:    quadBindGroups,
		ColorFormat:   colorFormat,
		Blend:         gpu.BlendReplace,
		DepthFormat:   depthFormat,
		DepthWrite:    depthFormat != gputypes.TextureFormatUndefined,
		DepthCompare:  depth.Compare(),
		Reference:     quadShader,
	})
	if err != nil {
		return nil, err
	}

	for i, data := range [][]float32{quadPositions, quadColors, quadTexcoords} {
		if q.vertex[i], err = q.res.buffer(o.label+"_vertices", gputypes.BufferUsageVertex, float32Bytes(data)); err != nil {
			return nil, err
		}
	}
	if q.index, err = q.res.buffer(o.label+"_indices", gputypes.BufferUsageIndex, uint16Bytes(quadIndices)); err != nil {
		return nil, err
	}
	if q.uniform, err = q.res.buffer(o.label+"_camera", gputypes.BufferUsageUniform, cam.Uniform()); err != nil {
		return nil, err
	}

	q.texture, err = q.res.bindGroup(&gpu.BindGroupDescriptor{
		Label:    o.label + "_texture",
		Pipeline: q.pipeline,
		Group:    quadTextureGroup,
		Entries: []gpu.BindGroupEntry{
			{Binding: 0, View: set.Color.View},
			{Binding: 1, Sampler: set.Color.Sampler},
		},
	})
	if err != nil {
		return nil, err
	}
	q.camera, err = q.res.bindGroup(&gpu.BindGroupDescriptor{
		Label:    o.label + "_camera",
		Pipeline: q.pipeline,
		Group:    quadCameraGroup,
		Entries:  []gpu.BindGroupEntry{{Binding: 0, Buffer: q.uniform}},
	})
	if err != nil {
		return nil, err
	}

	ok = true
	rtt.Logger().Debug("quads created", "label", o.label, "color", colorFormat, "depth", depthFormat)
	return q, nil
}

// SetCamera replaces the camera. The uniform is uploaded by the next
// recorded frame.
func (q *Quads) SetCamera(cam Camera) {
	q.mu.Lock()
	q.cam, q.dirty = cam, true
	q.mu.Unlock()
}

// Camera returns the current camera.
func (q *Quads) Camera() Camera {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cam
}

// Pipeline returns the quad pipeline.
func (q *Quads) Pipeline() gpu.Pipeline { return q.pipeline }

// Prepare implements Drawable.
func (q *Quads) Prepare(rec *recording.Recorder, _ *FrameContext) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.dirty {
		return
	}
	rec.WriteBuffer(q.uniform, 0, q.cam.Uniform())
	q.dirty = false
}

// Draw implements Drawable.
func (q *Quads) Draw(rec *recording.Recorder, _ *FrameContext) {
	rec.SetPipeline(q.pipeline)
	rec.SetBindGroup(quadTextureGroup, q.texture)
	rec.SetBindGroup(quadCameraGroup, q.camera)
	for i, buf := range q.vertex {
		rec.SetVertexBuffer(uint32(i), buf, 0)
	}
	rec.SetIndexBuffer(q.index, gputypes.IndexFormatUint16, 0)
	rec.DrawIndexed(QuadIndexCount, 1, 0, 0, 0)
}

// Destroy releases the GPU resources.
func (q *Quads) Destroy() { q.res.release() }

var _ Drawable = (*Quads)(nil)
