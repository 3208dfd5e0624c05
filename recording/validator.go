package recording

import (
	"fmt"
	"sync"

	"github.com/gogpu/rtt/gpu"
)

// HazardKind classifies a synchronization hazard found by a Validator.
type HazardKind uint8

const (
	// HazardSampleWhileAttached is a draw that samples a texture still in
	// UsageRenderAttachment: the write of an earlier pass was never made
	// visible to shader reads.
	HazardSampleWhileAttached HazardKind = iota

	// HazardAttachWhileSampled is a render pass that begins on an attachment
	// still in UsageTextureBinding: earlier reads were never ordered before
	// the new writes.
	HazardAttachWhileSampled

	// HazardBarrierMismatch is a barrier whose From usage differs from the
	// tracked usage of the texture.
	HazardBarrierMismatch

	// HazardFeedbackLoop is a texture that is both an attachment of the
	// active pass and sampled by a draw inside it.
	HazardFeedbackLoop
)

var hazardKindNames = [...]string{
	HazardSampleWhileAttached: "SampleWhileAttached",
	HazardAttachWhileSampled:  "AttachWhileSampled",
	HazardBarrierMismatch:     "BarrierMismatch",
	HazardFeedbackLoop:        "FeedbackLoop",
}

// String returns the hazard kind name.
func (k HazardKind) String() string {
	if int(k) < len(hazardKindNames) {
		return hazardKindNames[k]
	}
	return "Unknown"
}

// Hazard is one detected hazard.
type Hazard struct {
	Kind HazardKind
	// Texture is the label of the texture involved.
	Texture string
	// Buffer is the label of the command buffer being played back.
	Buffer string
	// Tracked is the usage the texture was in when the hazard was found.
	Tracked gpu.Usage
}

// String formats the hazard for logs and test failures.
func (h Hazard) String() string {
	return fmt.Sprintf("%v: texture %q in %v (command buffer %q)", h.Kind, h.Texture, h.Tracked, h.Buffer)
}

// ValidatorOption configures a Validator.
type ValidatorOption func(*Validator)

// WithHazardCallback sets a function called for every hazard, in addition
// to it being kept in Hazards.
func WithHazardCallback(fn func(Hazard)) ValidatorOption {
	return func(v *Validator) {
		v.onHazard = fn
	}
}

// Validator is a Backend decorator that tracks the usage of every texture
// through barriers and render passes, and reports hazards: sampling a
// texture that was rendered to without a barrier, rendering to a texture
// that is still being sampled, barriers that disagree with the tracked
// state, and feedback loops. All calls are forwarded to the wrapped
// Backend.
//
// Textures start in gpu.UsageUndefined, which is compatible with any
// barrier. A missing barrier before a pass is therefore only visible from
// the second frame on.
type Validator struct {
	Backend

	mu       sync.Mutex
	state    map[gpu.Texture]gpu.Usage
	attached map[gpu.Texture]bool
	bound    map[uint32]gpu.BindGroup
	reported map[hazardKey]bool
	buffer   string
	hazards  []Hazard
	onHazard func(Hazard)
}

type hazardKey struct {
	kind HazardKind
	tex  gpu.Texture
}

// NewValidator wraps b.
func NewValidator(b Backend, opts ...ValidatorOption) *Validator {
	v := &Validator{
		Backend:  b,
		state:    make(map[gpu.Texture]gpu.Usage),
		attached: make(map[gpu.Texture]bool),
		bound:    make(map[uint32]gpu.BindGroup),
		reported: make(map[hazardKey]bool),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Hazards returns a copy of the hazards found so far.
func (v *Validator) Hazards() []Hazard {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Hazard(nil), v.hazards...)
}

// Count returns the number of hazards found so far.
func (v *Validator) Count() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.hazards)
}

// Reset forgets the hazards found so far. Tracked texture state is kept.
func (v *Validator) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.hazards = nil
}

// Usage returns the tracked usage of tex.
func (v *Validator) Usage(tex gpu.Texture) gpu.Usage {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state[tex]
}

// report must be called with v.mu held. A hazard is reported once per
// kind and texture within one render pass or command buffer.
func (v *Validator) report(kind HazardKind, tex gpu.Texture) {
	key := hazardKey{kind: kind, tex: tex}
	if v.reported[key] {
		return
	}
	v.reported[key] = true
	h := Hazard{Kind: kind, Texture: tex.Label(), Buffer: v.buffer, Tracked: v.state[tex]}
	v.hazards = append(v.hazards, h)
	if v.onHazard != nil {
		v.onHazard(h)
	}
}

// Begin implements Backend.
func (v *Validator) Begin(label string) error {
	v.mu.Lock()
	v.buffer = label
	clear(v.bound)
	clear(v.reported)
	v.mu.Unlock()
	return v.Backend.Begin(label)
}

// Barrier implements Backend.
func (v *Validator) Barrier(barriers []TextureBarrier) {
	v.mu.Lock()
	for _, b := range barriers {
		cur := v.state[b.Texture]
		if cur != gpu.UsageUndefined && b.From != gpu.UsageUndefined && cur != b.From {
			v.report(HazardBarrierMismatch, b.Texture)
		}
		v.state[b.Texture] = b.To
	}
	v.mu.Unlock()
	v.Backend.Barrier(barriers)
}

// BeginRenderPass implements Backend.
func (v *Validator) BeginRenderPass(pass *RenderPass) error {
	v.mu.Lock()
	clear(v.attached)
	clear(v.reported)
	for _, view := range pass.Views() {
		tex := view.Texture()
		if v.state[tex] == gpu.UsageTextureBinding {
			v.report(HazardAttachWhileSampled, tex)
		}
		v.state[tex] = gpu.UsageRenderAttachment
		v.attached[tex] = true
	}
	v.mu.Unlock()
	return v.Backend.BeginRenderPass(pass)
}

// EndRenderPass implements Backend.
func (v *Validator) EndRenderPass() {
	v.mu.Lock()
	clear(v.attached)
	clear(v.bound)
	v.mu.Unlock()
	v.Backend.EndRenderPass()
}

// SetBindGroup implements Backend.
func (v *Validator) SetBindGroup(index uint32, g gpu.BindGroup) {
	v.mu.Lock()
	v.bound[index] = g
	v.mu.Unlock()
	v.Backend.SetBindGroup(index, g)
}

// checkSampled must be called with v.mu held.
func (v *Validator) checkSampled() {
	for _, g := range v.bound {
		for _, e := range g.Entries() {
			if e.View == nil {
				continue
			}
			tex := e.View.Texture()
			switch {
			case v.attached[tex]:
				v.report(HazardFeedbackLoop, tex)
			case v.state[tex] == gpu.UsageRenderAttachment:
				v.report(HazardSampleWhileAttached, tex)
			}
		}
	}
}

// Draw implements Backend.
func (v *Validator) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	v.mu.Lock()
	v.checkSampled()
	v.mu.Unlock()
	v.Backend.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

// DrawIndexed implements Backend.
func (v *Validator) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	v.mu.Lock()
	v.checkSampled()
	v.mu.Unlock()
	v.Backend.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

// DestroyTexture implements gpu.Device.
func (v *Validator) DestroyTexture(tex gpu.Texture) {
	v.mu.Lock()
	delete(v.state, tex)
	v.mu.Unlock()
	v.Backend.DestroyTexture(tex)
}

// WriteTexture implements Backend. An upload leaves the texture in
// UsageCopyDst.
func (v *Validator) WriteTexture(tex gpu.Texture, data []byte, bytesPerRow uint32) error {
	v.mu.Lock()
	v.state[tex] = gpu.UsageCopyDst
	v.mu.Unlock()
	return v.Backend.WriteTexture(tex, data, bytesPerRow)
}
