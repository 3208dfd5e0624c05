// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rtt"
	"github.com/gogpu/rtt/assets"
	"github.com/gogpu/rtt/gpu"
	"github.com/gogpu/rtt/gui"
	"github.com/gogpu/rtt/recording"
)

// MinOverlayImages is the smallest number of overlay images in flight.
const MinOverlayImages = 2

// OverlayOptions configures NewOverlay.
type OverlayOptions struct {
	// Label prefixes debug labels. Default "gui".
	Label string
	// MinImageCount must be at least MinOverlayImages.
	MinImageCount int
	// ImageCount is the number of rotated overlay textures. It must be at
	// least MinImageCount.
	ImageCount int
	// Width and Height are the GUI image size, normally the target extent.
	Width, Height int
	// GUIOptions configure the GUI context, such as its font.
	GUIOptions []gui.Option
	// Finder locates the shaders.
	Finder *assets.Finder
}

// overlayVertices is a fullscreen quad: clip position then texcoord.
var overlayVertices = []float32{
	-1, 1, 0, 0,
	-1, -1, 0, 1,
	1, -1, 1, 1,
	-1, 1, 0, 0,
	1, -1, 1, 1,
	1, 1, 1, 0,
}

var overlayBindGroups = []gpu.BindGroupLayout{{
	{Binding: 0, Type: gpu.BindingTexture, Stages: gpu.StageFragment},
	{Binding: 1, Type: gpu.BindingSampler, Stages: gpu.StageFragment},
}}

var overlayStreams = []gpu.VertexStream{{
	Stride: 16,
	Attributes: []gpu.VertexAttribute{
		{Format: gputypes.VertexFormatFloat32x2, Offset: 0, Location: 0},
		{Format: gputypes.VertexFormatFloat32x2, Offset: 8, Location: 1},
	},
}}

// overlayShader is the CPU rendition of overlay.vert.wgsl and
// overlay.frag.wgsl.
var overlayShader = &gpu.ReferenceShader{
	Varyings: 2,
	Vertex: func(_ gpu.Bindings, attribs [][4]float32, out []float32) [4]float32 {
		out[0], out[1] = attribs[1][0], attribs[1][1]
		return [4]float32{attribs[0][0], attribs[0][1], 0, 1}
	},
	Fragment: func(b gpu.Bindings, in []float32) [4]float32 {
		return b.Sample(0, 0, 1, in[0], in[1])
	},
}

// Overlay draws an immediate-mode GUI into the pass it is added to. The
// GUI is rasterized on the CPU once per frame, uploaded into one of
// ImageCount rotated textures and drawn as a premultiplied fullscreen
// quad.
type Overlay struct {
	res      resources
	label    string
	width    int
	height   int
	pipeline gpu.Pipeline
	vertices gpu.Buffer
	textures []gpu.Texture
	groups   []gpu.BindGroup

	callback gui.Callback
	params   *gui.Params
	ui       *gui.Context

	mu        sync.Mutex
	input     gui.Input
	frameTime time.Duration

	// Set by Prepare, read by Draw of the same frame.
	visible bool
	current gpu.BindGroup
	calls   uint64
}

// NewOverlay builds the overlay pipeline for pass. callback edits params
// once per recorded frame.
func NewOverlay(dev gpu.Device, pass *RenderPassDescriptor, callback gui.Callback, params *gui.Params, opts OverlayOptions) (*Overlay, error) {
	if opts.Label == "" {
		opts.Label = "gui"
	}
	switch {
	case pass == nil:
		return nil, rtt.Errorf(rtt.ErrResourceCreation, "create overlay", "nil render pass")
	case callback == nil || params == nil:
		return nil, rtt.Errorf(rtt.ErrResourceCreation, "create overlay", "nil callback or params")
	case opts.MinImageCount < MinOverlayImages:
		return nil, rtt.Errorf(rtt.ErrResourceCreation, "create overlay",
			"min image count %d, need at least %d", opts.MinImageCount, MinOverlayImages)
	case opts.ImageCount < opts.MinImageCount:
		return nil, rtt.Errorf(rtt.ErrResourceCreation, "create overlay",
			"image count %d is below min image count %d", opts.ImageCount, opts.MinImageCount)
	case opts.Width <= 0 || opts.Height <= 0:
		return nil, rtt.Errorf(rtt.ErrResourceCreation, "create overlay", "extent %dx%d", opts.Width, opts.Height)
	}
	if opts.Finder == nil {
		opts.Finder = assets.NewFinder()
	}

	ui, err := gui.NewContext(opts.Width, opts.Height, opts.GUIOptions...)
	if err != nil {
		return nil, rtt.Wrap(rtt.ErrResourceCreation, "create gui context", err)
	}
	vs, err := opts.Finder.Shader(assets.OverlayVertex, "main")
	if err != nil {
		return nil, err
	}
	fs, err := opts.Finder.Shader(assets.OverlayFragment, "main")
	if err != nil {
		return nil, err
	}

	o := &Overlay{
		res:      resources{dev: dev},
		label:    opts.Label,
		width:    opts.Width,
		height:   opts.Height,
		callback: callback,
		params:   params,
		ui:       ui,
	}
	ok := false
	defer func() {
		if !ok {
			o.res.release()
		}
	}()

	depthFormat := pass.DepthFormat()
	o.pipeline, err = o.res.pipeline(&gpu.PipelineDescriptor{
		Label:         opts.Label + "_pipeline",
		Vertex:        vs,
		Fragment:      fs,
		VertexStreams: overlayStreams,
		BindGroups:    overlayBindGroups,
		ColorFormat:   pass.ColorFormat(),
		Blend:         gpu.BlendPremultiplied,
		DepthFormat:   depthFormat,
		DepthCompare:  gputypes.CompareFunctionAlways,
		Reference:     overlayShader,
	})
	if err != nil {
		return nil, err
	}
	o.vertices, err = o.res.buffer(opts.Label+"_vertices", gputypes.BufferUsageVertex, float32Bytes(overlayVertices))
	if err != nil {
		return nil, err
	}
	smp, err := o.res.sampler(&gpu.SamplerDescriptor{
		Label:         opts.Label + "_sampler",
		MagFilter:     gpu.FilterNearest,
		MinFilter:     gpu.FilterNearest,
		MipmapFilter:  gpu.FilterNearest,
		LodMaxClamp:   1,
		MaxAnisotropy: 1,
	})
	if err != nil {
		return nil, err
	}
	for i := range opts.ImageCount {
		tex, view, err := o.res.texture(&gpu.TextureDescriptor{
			Label:  fmt.Sprintf("%s_image%d", opts.Label, i),
			Width:  opts.Width,
			Height: opts.Height,
			Format: gputypes.TextureFormatRGBA8Unorm,
			Usage:  gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst,
		})
		if err != nil {
			return nil, err
		}
		group, err := o.res.bindGroup(&gpu.BindGroupDescriptor{
			Label:    fmt.Sprintf("%s_group%d", opts.Label, i),
			Pipeline: o.pipeline,
			Group:    0,
			Entries: []gpu.BindGroupEntry{
				{Binding: 0, View: view},
				{Binding: 1, Sampler: smp},
			},
		})
		if err != nil {
			return nil, err
		}
		o.textures = append(o.textures, tex)
		o.groups = append(o.groups, group)
	}

	ok = true
	rtt.Logger().Debug("overlay created", "label", opts.Label, "images", opts.ImageCount,
		"width", opts.Width, "height", opts.Height)
	return o, nil
}

// ImageCount returns the number of rotated overlay textures.
func (o *Overlay) ImageCount() int { return len(o.textures) }

// Calls returns how many times the callback was invoked.
func (o *Overlay) Calls() uint64 { return o.calls }

// Params returns the state edited by the callback.
func (o *Overlay) Params() *gui.Params { return o.params }

// SetInput sets the pointer state used by the next frame.
func (o *Overlay) SetInput(in gui.Input) {
	o.mu.Lock()
	o.input = in
	o.mu.Unlock()
}

// SetFrameTime sets the previous frame's duration shown by the GUI.
func (o *Overlay) SetFrameTime(d time.Duration) {
	o.mu.Lock()
	o.frameTime = d
	o.mu.Unlock()
}

// Prepare implements Drawable. It runs the callback and, if anything is
// visible, uploads the GUI image into this frame's texture and makes it
// readable by the fragment stage.
func (o *Overlay) Prepare(rec *recording.Recorder, frame *FrameContext) {
	o.mu.Lock()
	in, dt := o.input, o.frameTime
	o.mu.Unlock()

	o.ui.SetFrameTime(dt)
	o.ui.BeginFrame(in)
	o.calls++
	o.visible = o.callback(o.ui, o.params)
	if !o.visible {
		o.current = nil
		return
	}
	i := int(frame.Index % uint64(len(o.textures)))
	tex := o.textures[i]
	rec.WriteTexture(tex, o.ui.Pixels(), uint32(4*o.width))
	rec.Barrier(recording.TextureBarrier{Texture: tex, From: gpu.UsageCopyDst, To: gpu.UsageTextureBinding})
	o.current = o.groups[i]
}

// Draw implements Drawable.
func (o *Overlay) Draw(rec *recording.Recorder, _ *FrameContext) {
	if !o.visible {
		return
	}
	rec.SetPipeline(o.pipeline)
	rec.SetBindGroup(0, o.current)
	rec.SetVertexBuffer(0, o.vertices, 0)
	rec.Draw(uint32(len(overlayVertices)/4), 1, 0, 0)
}

// Destroy releases the GPU resources.
func (o *Overlay) Destroy() { o.res.release() }

var _ Drawable = (*Overlay)(nil)
