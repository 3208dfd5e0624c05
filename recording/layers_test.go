package recording

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newTestLog() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestLayersWrap(t *testing.T) {
	b := &fakeBackend{}
	tests := []struct {
		name      string
		layers    Layers
		validator bool
		dump      bool
	}{
		{"none", Layers{}, false, false},
		{"validation", Layers{Validation: true}, true, false},
		{"api dump", Layers{APIDump: true}, false, true},
		{"both", Layers{Validation: true, APIDump: true}, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.layers.Wrap(b, nil)
			if !tt.validator && !tt.dump {
				if got != Backend(b) {
					t.Errorf("Wrap = %T, want the backend itself", got)
				}
				return
			}
			d, isDump := got.(*Dump)
			if isDump != tt.dump {
				t.Fatalf("Wrap = %T, dump = %v", got, tt.dump)
			}
			if isDump {
				got = d.Backend
			}
			if _, isValidator := got.(*Validator); isValidator != tt.validator {
				t.Errorf("inner layer = %T, validator = %v", got, tt.validator)
			}
		})
	}
}

func TestValidationLayerLogsHazards(t *testing.T) {
	log, out := newTestLog()
	b := Layers{Validation: true}.Wrap(&fakeBackend{}, log)
	f := newFrameFixture()

	for frame := 0; frame < 2; frame++ {
		if err := f.record(t, frameOptions{before: true}).Playback(b); err != nil {
			t.Fatalf("frame %d: %v", frame, err)
		}
	}
	logged := out.String()
	if !strings.Contains(logged, "level=WARN") || !strings.Contains(logged, HazardSampleWhileAttached.String()) {
		t.Errorf("hazard not logged:\n%s", logged)
	}

	log, out = newTestLog()
	b = Layers{Validation: true}.Wrap(&fakeBackend{}, log)
	for frame := 0; frame < 2; frame++ {
		if err := f.record(t, frameOptions{before: true, after: true}).Playback(b); err != nil {
			t.Fatalf("frame %d: %v", frame, err)
		}
	}
	if out.Len() != 0 {
		t.Errorf("hazards logged for a correct frame:\n%s", out.String())
	}
}

func TestDumpLogsAndForwards(t *testing.T) {
	log, out := newTestLog()
	inner := &fakeBackend{}
	d := NewDump(inner, log)

	rec := NewRecorder("frame")
	recordQuadPass(rec)
	r, err := rec.Finish()
	if err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if err := r.Playback(d); err != nil {
		t.Fatalf("Playback: %v", err)
	}

	logged := out.String()
	for _, call := range inner.calls {
		if !strings.Contains(logged, "msg=\"api: "+call+"\"") {
			t.Errorf("%s forwarded but not logged", call)
		}
	}
	if len(inner.calls) == 0 {
		t.Error("nothing forwarded")
	}
}
