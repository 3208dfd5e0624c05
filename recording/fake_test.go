package recording

import (
	"image"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rtt/gpu"
)

type fakeTexture struct {
	label string
	desc  gpu.TextureDescriptor
}

func (t *fakeTexture) Label() string                      { return t.label }
func (t *fakeTexture) Descriptor() gpu.TextureDescriptor { return t.desc }

type fakeView struct {
	tex *fakeTexture
}

func (v *fakeView) Label() string            { return v.tex.label + "_view" }
func (v *fakeView) Texture() gpu.Texture     { return v.tex }

type fakeBuffer struct {
	label string
	size  uint64
}

func (b *fakeBuffer) Label() string { return b.label }
func (b *fakeBuffer) Size() uint64  { return b.size }

type fakePipeline struct {
	desc gpu.PipelineDescriptor
}

func (p *fakePipeline) Label() string                        { return p.desc.Label }
func (p *fakePipeline) Descriptor() *gpu.PipelineDescriptor { return &p.desc }

type fakeBindGroup struct {
	entries []gpu.BindGroupEntry
}

func (g *fakeBindGroup) Label() string                   { return "group" }
func (g *fakeBindGroup) Entries() []gpu.BindGroupEntry { return g.entries }

func newFakeTexture(label string) (*fakeTexture, *fakeView) {
	tex := &fakeTexture{label: label}
	return tex, &fakeView{tex: tex}
}

// fakeBackend records the names of the calls it receives.
type fakeBackend struct {
	calls []string
	err   error

	uploadErr error
	passErr   error
}

func (b *fakeBackend) call(name string) { b.calls = append(b.calls, name) }

func (b *fakeBackend) Name() string { return "fake" }
func (b *fakeBackend) SupportsFormat(gputypes.TextureFormat, gputypes.TextureUsage) bool {
	return true
}
func (b *fakeBackend) CreateTexture(d *gpu.TextureDescriptor) (gpu.Texture, error) {
	return &fakeTexture{label: d.Label, desc: *d}, nil
}
func (b *fakeBackend) CreateTextureView(t gpu.Texture, _ *gpu.TextureViewDescriptor) (gpu.TextureView, error) {
	return &fakeView{tex: t.(*fakeTexture)}, nil
}
func (b *fakeBackend) CreateSampler(*gpu.SamplerDescriptor) (gpu.Sampler, error) { return nil, nil }
func (b *fakeBackend) CreateBuffer(d *gpu.BufferDescriptor, _ []byte) (gpu.Buffer, error) {
	return &fakeBuffer{label: d.Label, size: d.Size}, nil
}
func (b *fakeBackend) CreatePipeline(d *gpu.PipelineDescriptor) (gpu.Pipeline, error) {
	return &fakePipeline{desc: *d}, nil
}
func (b *fakeBackend) CreateBindGroup(d *gpu.BindGroupDescriptor) (gpu.BindGroup, error) {
	return &fakeBindGroup{entries: d.Entries}, nil
}
func (b *fakeBackend) DestroyTexture(gpu.Texture)         { b.call("DestroyTexture") }
func (b *fakeBackend) DestroyTextureView(gpu.TextureView) {}
func (b *fakeBackend) DestroySampler(gpu.Sampler)         {}
func (b *fakeBackend) DestroyBuffer(gpu.Buffer)           {}
func (b *fakeBackend) DestroyPipeline(gpu.Pipeline)       {}
func (b *fakeBackend) DestroyBindGroup(gpu.BindGroup)     {}

func (b *fakeBackend) Begin(string) error { b.call("Begin"); return b.err }
func (b *fakeBackend) End() error         { b.call("End"); return nil }
func (b *fakeBackend) Submit() error      { b.call("Submit"); return nil }
func (b *fakeBackend) WaitIdle() error    { return nil }
func (b *fakeBackend) Close() error       { return nil }
func (b *fakeBackend) WriteBuffer(gpu.Buffer, uint64, []byte) error {
	b.call("WriteBuffer")
	return b.uploadErr
}
func (b *fakeBackend) WriteTexture(gpu.Texture, []byte, uint32) error {
	b.call("WriteTexture")
	return b.uploadErr
}
func (b *fakeBackend) Barrier([]TextureBarrier)           { b.call("Barrier") }
func (b *fakeBackend) BeginRenderPass(*RenderPass) error  { b.call("BeginRenderPass"); return b.passErr }
func (b *fakeBackend) EndRenderPass()                     { b.call("EndRenderPass") }
func (b *fakeBackend) SetPipeline(gpu.Pipeline)           { b.call("SetPipeline") }
func (b *fakeBackend) SetBindGroup(uint32, gpu.BindGroup) { b.call("SetBindGroup") }
func (b *fakeBackend) SetVertexBuffer(uint32, gpu.Buffer, uint64) {
	b.call("SetVertexBuffer")
}
func (b *fakeBackend) SetIndexBuffer(gpu.Buffer, gputypes.IndexFormat, uint64) {
	b.call("SetIndexBuffer")
}
func (b *fakeBackend) Draw(uint32, uint32, uint32, uint32) { b.call("Draw") }
func (b *fakeBackend) DrawIndexed(uint32, uint32, uint32, int32, uint32) {
	b.call("DrawIndexed")
}
func (b *fakeBackend) ReadTexture(gpu.Texture) (*image.RGBA, error) {
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}
