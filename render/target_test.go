// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package render

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/rtt"
	"github.com/gogpu/rtt/gpu"
	"github.com/gogpu/rtt/recording"
)

// probe records whether it was called inside a pass.
type probe struct {
	prepared, drawn     int
	preparedIn, drawnIn bool
}

func (p *probe) Prepare(rec *recording.Recorder, _ *FrameContext) {
	p.prepared++
	p.preparedIn = rec.InPass()
}

func (p *probe) Draw(rec *recording.Recorder, _ *FrameContext) {
	p.drawn++
	p.drawnIn = rec.InPass()
}

func commandTypes(r *recording.Recording) []recording.CommandType {
	var out []recording.CommandType
	for _, c := range r.Commands() {
		out = append(out, c.Type())
	}
	return out
}

func TestOffscreenTargetRecord(t *testing.T) {
	tests := []struct {
		depth      DepthConvention
		clearDepth float32
	}{
		{DepthReversed, 0},
		{DepthStandard, 1},
	}
	for _, tt := range tests {
		t.Run(tt.depth.String(), func(t *testing.T) {
			dev := newDevice(t)
			off := newOffscreen(t, dev, 8, 8)
			target, err := NewOffscreenTarget(off.fb, WithDepthConvention(tt.depth))
			if err != nil {
				t.Fatalf("NewOffscreenTarget: %v", err)
			}
			p := &probe{}
			target.Add(p)

			rec := recording.NewRecorder("frame")
			if err := target.Record(rec, &FrameContext{}); err != nil {
				t.Fatalf("Record: %v", err)
			}
			r := finish(t, rec)

			if p.prepared != 1 || p.drawn != 1 || p.preparedIn || !p.drawnIn {
				t.Errorf("probe = %+v", *p)
			}
			want := []recording.CommandType{
				recording.CmdBarrier, recording.CmdBeginRenderPass, recording.CmdEndRenderPass, recording.CmdBarrier,
			}
			got := commandTypes(r)
			if len(got) != len(want) {
				t.Fatalf("commands = %v, want %v", got, want)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("commands = %v, want %v", got, want)
				}
			}

			cmds := r.Commands()
			before := cmds[0].(recording.BarrierCommand).Barriers[0]
			if before.Texture != off.set.Color.Texture || before.From != gpu.UsageTextureBinding || before.To != gpu.UsageRenderAttachment {
				t.Errorf("before barrier = %+v", before)
			}
			after := cmds[3].(recording.BarrierCommand).Barriers[0]
			if after.From != gpu.UsageRenderAttachment || after.To != gpu.UsageTextureBinding {
				t.Errorf("after barrier = %+v", after)
			}
			pass := cmds[1].(recording.BeginRenderPassCommand).Pass
			if pass.Color.Clear != DefaultOffscreenClear {
				t.Errorf("clear = %+v, want %+v", pass.Color.Clear, DefaultOffscreenClear)
			}
			if pass.Depth == nil || pass.Depth.Clear != tt.clearDepth {
				t.Errorf("depth = %+v, want clear %v", pass.Depth, tt.clearDepth)
			}
		})
	}
}

func TestOffscreenTargetClearsColor(t *testing.T) {
	dev := newDevice(t)
	off := newOffscreen(t, dev, 4, 4)
	target, err := NewOffscreenTarget(off.fb)
	if err != nil {
		t.Fatalf("NewOffscreenTarget: %v", err)
	}
	rec := recording.NewRecorder("frame")
	if err := target.Record(rec, &FrameContext{}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	play(t, dev, rec)
	img := readPixels(t, dev, off.set.Color.Texture)
	if n := countOther(img, rgba8(DefaultOffscreenClear)); n != 0 {
		t.Errorf("%d pixels differ from the clear color", n)
	}
}

func TestNewOffscreenTargetNilFramebuffer(t *testing.T) {
	if _, err := NewOffscreenTarget(nil); !errors.Is(err, rtt.ErrResourceCreation) {
		t.Errorf("err = %v, want ErrResourceCreation", err)
	}
}

func TestOnscreenTarget(t *testing.T) {
	dev := newDevice(t)
	target, err := NewOnscreenTarget(dev, 8, 6)
	if err != nil {
		t.Fatalf("NewOnscreenTarget: %v", err)
	}
	if got := dev.Live(); got != 2 {
		t.Errorf("Live = %d, want 2", got)
	}

	rec := recording.NewRecorder("frame")
	if err := target.Record(rec, &FrameContext{Width: 8, Height: 6}); !errors.Is(err, ErrNoSurface) {
		t.Errorf("Record without surface: err = %v, want ErrNoSurface", err)
	}

	surface, view := newSurface(t, dev, 8, 6)
	if err := target.Record(rec, &FrameContext{Surface: view, Width: 4, Height: 4}); err == nil {
		t.Error("Record with mismatched extent: expected error")
	}

	red := gputypes.Color{R: 1, G: 0, B: 0, A: 1}
	target.SetClearColor(red)
	p := &probe{}
	target.Add(p)
	if err := target.Record(rec, &FrameContext{Surface: view, Width: 8, Height: 6}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if p.prepared != 1 || p.drawn != 1 || p.preparedIn || !p.drawnIn {
		t.Errorf("probe = %+v", *p)
	}
	play(t, dev, rec)
	if n := countOther(readPixels(t, dev, surface), rgba8(red)); n != 0 {
		t.Errorf("%d pixels differ from the clear color", n)
	}

	if err := target.Resize(8, 6); err != nil {
		t.Fatalf("Resize same: %v", err)
	}
	if err := target.Resize(16, 12); err != nil {
		t.Fatalf("Resize: %v", err)
	}
	if w, h := target.Extent(); w != 16 || h != 12 {
		t.Errorf("Extent = %dx%d, want 16x12", w, h)
	}
	if err := target.Resize(0, 12); !errors.Is(err, rtt.ErrResourceCreation) {
		t.Errorf("Resize(0, 12): err = %v", err)
	}
	target.Destroy()
	// Only the surface remains.
	if got := dev.Live(); got != 2 {
		t.Errorf("Live after Destroy = %d, want 2", got)
	}
}

func TestParseDepthConvention(t *testing.T) {
	tests := []struct {
		in      string
		want    DepthConvention
		wantErr bool
	}{
		{"", DepthReversed, false},
		{"reversed", DepthReversed, false},
		{"standard", DepthStandard, false},
		{"inverted", DepthReversed, true},
	}
	for _, tt := range tests {
		got, err := ParseDepthConvention(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseDepthConvention(%q) = %v, %v", tt.in, got, err)
		}
	}
	if DepthReversed.Compare() != gputypes.CompareFunctionGreater || DepthStandard.Compare() != gputypes.CompareFunctionLess {
		t.Error("unexpected compare functions")
	}
}
