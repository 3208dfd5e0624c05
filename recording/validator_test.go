package recording

import (
	"testing"

	"github.com/gogpu/rtt/gpu"
)

// frameOptions toggles the two barriers of the offscreen pass.
type frameOptions struct {
	before bool // TextureBinding -> RenderAttachment before the pass
	after  bool // RenderAttachment -> TextureBinding after the pass
}

type frameFixture struct {
	color   *fakeTexture
	colorV  *fakeView
	screenV *fakeView
	group   *fakeBindGroup
	pipe    *fakePipeline
}

func newFrameFixture() *frameFixture {
	color, colorV := newFakeTexture("offscreen_color")
	_, screenV := newFakeTexture("swapchain")
	return &frameFixture{
		color:   color,
		colorV:  colorV,
		screenV: screenV,
		group:   &fakeBindGroup{entries: []gpu.BindGroupEntry{{Binding: 0, View: colorV}}},
		pipe:    &fakePipeline{},
	}
}

func (f *frameFixture) record(t *testing.T, opts frameOptions) *Recording {
	t.Helper()
	rec := NewRecorder("frame")
	if opts.before {
		rec.Barrier(TextureBarrier{Texture: f.color, From: gpu.UsageTextureBinding, To: gpu.UsageRenderAttachment})
	}
	rec.BeginRenderPass(RenderPass{Label: "offscreen", Color: ColorAttachment{View: f.colorV}})
	rec.EndRenderPass()
	if opts.after {
		rec.Barrier(TextureBarrier{Texture: f.color, From: gpu.UsageRenderAttachment, To: gpu.UsageTextureBinding})
	}
	rec.BeginRenderPass(RenderPass{Label: "onscreen", Color: ColorAttachment{View: f.screenV}})
	rec.SetPipeline(f.pipe)
	rec.SetBindGroup(0, f.group)
	rec.DrawIndexed(12, 1, 0, 0, 0)
	rec.EndRenderPass()
	r, err := rec.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	return r
}

func TestValidatorDependencies(t *testing.T) {
	tests := []struct {
		name     string
		opts     frameOptions
		wantKind []HazardKind
	}{
		{"both barriers", frameOptions{before: true, after: true}, nil},
		{"missing after", frameOptions{before: true}, []HazardKind{HazardSampleWhileAttached, HazardBarrierMismatch}},
		{"missing before", frameOptions{after: true}, []HazardKind{HazardAttachWhileSampled}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFrameFixture()
			var seen []Hazard
			v := NewValidator(&fakeBackend{}, WithHazardCallback(func(h Hazard) { seen = append(seen, h) }))

			for frame := 0; frame < 3; frame++ {
				if err := f.record(t, tt.opts).Playback(v); err != nil {
					t.Fatalf("frame %d: %v", frame, err)
				}
			}

			if len(seen) != v.Count() {
				t.Errorf("callback saw %d hazards, Count() = %d", len(seen), v.Count())
			}
			if len(tt.wantKind) == 0 {
				if v.Count() != 0 {
					t.Fatalf("hazards = %v, want none", v.Hazards())
				}
				return
			}
			kinds := make(map[HazardKind]bool)
			for _, h := range v.Hazards() {
				kinds[h.Kind] = true
				if h.Texture != "offscreen_color" {
					t.Errorf("hazard on %q, want offscreen_color", h.Texture)
				}
			}
			for _, k := range tt.wantKind {
				if !kinds[k] {
					t.Errorf("no %v hazard in %v", k, v.Hazards())
				}
			}
		})
	}
}

func TestValidatorMissingBeforeNeedsSecondFrame(t *testing.T) {
	f := newFrameFixture()
	v := NewValidator(&fakeBackend{})

	if err := f.record(t, frameOptions{after: true}).Playback(v); err != nil {
		t.Fatal(err)
	}
	if v.Count() != 0 {
		t.Fatalf("first frame hazards = %v, want none (texture starts undefined)", v.Hazards())
	}
	if err := f.record(t, frameOptions{after: true}).Playback(v); err != nil {
		t.Fatal(err)
	}
	if v.Count() == 0 {
		t.Fatal("second frame found no hazard without the leading barrier")
	}
}

func TestValidatorFeedbackLoop(t *testing.T) {
	f := newFrameFixture()
	v := NewValidator(&fakeBackend{})

	rec := NewRecorder("loop")
	rec.BeginRenderPass(RenderPass{Label: "offscreen", Color: ColorAttachment{View: f.colorV}})
	rec.SetPipeline(f.pipe)
	rec.SetBindGroup(0, f.group)
	rec.Draw(6, 1, 0, 0)
	rec.Draw(6, 1, 0, 0)
	rec.EndRenderPass()
	r, err := rec.Finish()
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Playback(v); err != nil {
		t.Fatal(err)
	}

	hz := v.Hazards()
	if len(hz) != 1 || hz[0].Kind != HazardFeedbackLoop {
		t.Fatalf("hazards = %v, want one FeedbackLoop", hz)
	}
}

func TestValidatorResetAndUsage(t *testing.T) {
	f := newFrameFixture()
	b := &fakeBackend{}
	v := NewValidator(b)

	if err := f.record(t, frameOptions{before: true}).Playback(v); err != nil {
		t.Fatal(err)
	}
	if v.Count() == 0 {
		t.Fatal("expected hazards")
	}
	if got := v.Usage(f.color); got != gpu.UsageRenderAttachment {
		t.Errorf("Usage = %v, want RenderAttachment", got)
	}

	v.Reset()
	if v.Count() != 0 {
		t.Errorf("Count after Reset = %d", v.Count())
	}

	v.DestroyTexture(f.color)
	if got := v.Usage(f.color); got != gpu.UsageUndefined {
		t.Errorf("Usage after destroy = %v, want Undefined", got)
	}
	if b.calls[len(b.calls)-1] != "DestroyTexture" {
		t.Error("DestroyTexture not forwarded")
	}
}

func TestValidatorUploadThenBarrier(t *testing.T) {
	tex, view := newFakeTexture("overlay")
	v := NewValidator(&fakeBackend{})
	group := &fakeBindGroup{entries: []gpu.BindGroupEntry{{Binding: 0, View: view}}}
	_, target := newFakeTexture("target")

	for frame := 0; frame < 2; frame++ {
		rec := NewRecorder("overlay")
		rec.WriteTexture(tex, make([]byte, 16), 16)
		rec.Barrier(TextureBarrier{Texture: tex, From: gpu.UsageCopyDst, To: gpu.UsageTextureBinding})
		rec.BeginRenderPass(RenderPass{Label: "pass", Color: ColorAttachment{View: target}})
		rec.SetPipeline(&fakePipeline{})
		rec.SetBindGroup(0, group)
		rec.Draw(6, 1, 0, 0)
		rec.EndRenderPass()
		r, err := rec.Finish()
		if err != nil {
			t.Fatalf("Finish: %v", err)
		}
		if err := r.Playback(v); err != nil {
			t.Fatalf("Playback: %v", err)
		}
	}
	if hz := v.Hazards(); len(hz) != 0 {
		t.Errorf("hazards = %v, want none", hz)
	}
	if got := v.Usage(tex); got != gpu.UsageTextureBinding {
		t.Errorf("Usage = %v, want TextureBinding", got)
	}
}

func TestHazardKindString(t *testing.T) {
	if got := HazardFeedbackLoop.String(); got != "FeedbackLoop" {
		t.Errorf("String() = %q", got)
	}
	if got := HazardKind(200).String(); got != "Unknown" {
		t.Errorf("String() = %q", got)
	}
	h := Hazard{Kind: HazardBarrierMismatch, Texture: "t", Buffer: "b", Tracked: gpu.UsageRenderAttachment}
	if got, want := h.String(), `BarrierMismatch: texture "t" in RenderAttachment (command buffer "b")`; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
