package graph

import (
	"errors"
	"testing"

	"github.com/gogpu/rtt/recording"
	"github.com/gogpu/rtt/render"
)

type fakeRoot struct {
	label string
	err   error
	log   *[]string
}

func (f *fakeRoot) Label() string               { return f.label }
func (f *fakeRoot) Children() []render.Drawable { return nil }

func (f *fakeRoot) Record(rec *recording.Recorder, _ *render.FrameContext) error {
	if f.log != nil {
		*f.log = append(*f.log, rec.Label()+"/"+f.label)
	}
	return f.err
}

func labels(nodes []*CommandGraphNode) [][]string {
	out := make([][]string, len(nodes))
	for i, n := range nodes {
		for _, c := range n.Children {
			out[i] = append(out[i], c.Label())
		}
	}
	return out
}

func TestCompose(t *testing.T) {
	off := &fakeRoot{label: "offscreen"}
	on := &fakeRoot{label: "onscreen"}
	tests := []struct {
		mode Mode
		want [][]string
	}{
		{ModeCombined, [][]string{{"offscreen", "onscreen"}}},
		{ModeSeparate, [][]string{{"offscreen"}, {"onscreen"}}},
	}
	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			first, err := Compose(off, on, tt.mode)
			if err != nil {
				t.Fatalf("Compose: %v", err)
			}
			second, err := Compose(off, on, tt.mode)
			if err != nil {
				t.Fatalf("Compose: %v", err)
			}
			for _, nodes := range [][]*CommandGraphNode{first, second} {
				got := labels(nodes)
				if len(got) != len(tt.want) {
					t.Fatalf("nodes = %v, want %v", got, tt.want)
				}
				for i := range got {
					if len(got[i]) != len(tt.want[i]) {
						t.Fatalf("nodes = %v, want %v", got, tt.want)
					}
					for j := range got[i] {
						if got[i][j] != tt.want[i][j] {
							t.Errorf("node %d child %d = %q, want %q", i, j, got[i][j], tt.want[i][j])
						}
					}
				}
			}
			if first[0] == second[0] {
				t.Error("Compose returned shared nodes")
			}
		})
	}
}

func TestComposeErrors(t *testing.T) {
	root := &fakeRoot{label: "root"}
	if _, err := Compose(nil, root, ModeCombined); !errors.Is(err, ErrNilRoot) {
		t.Errorf("nil offscreen: err = %v", err)
	}
	if _, err := Compose(root, nil, ModeSeparate); !errors.Is(err, ErrNilRoot) {
		t.Errorf("nil onscreen: err = %v", err)
	}
	var off *render.OffscreenTarget
	if _, err := Compose(off, root, ModeCombined); !errors.Is(err, ErrNilRoot) {
		t.Errorf("nil offscreen target: err = %v", err)
	}
	var on *render.OnscreenTarget
	if _, err := Compose(root, on, ModeSeparate); !errors.Is(err, ErrNilRoot) {
		t.Errorf("nil onscreen target: err = %v", err)
	}
	if _, err := Compose(root, root, Mode(7)); err == nil {
		t.Error("unknown mode: expected error")
	}
}

func TestRecordOrder(t *testing.T) {
	var log []string
	off := &fakeRoot{label: "offscreen", log: &log}
	on := &fakeRoot{label: "onscreen", log: &log}

	nodes, err := Compose(off, on, ModeCombined)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	r, err := nodes[0].Record(&render.FrameContext{})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if r.Label() != "frame" {
		t.Errorf("recording label = %q", r.Label())
	}
	if len(log) != 2 || log[0] != "frame/offscreen" || log[1] != "frame/onscreen" {
		t.Errorf("record order = %v", log)
	}

	boom := errors.New("boom")
	on.err = boom
	if _, err := nodes[0].Record(&render.FrameContext{}); !errors.Is(err, boom) {
		t.Errorf("err = %v, want %v", err, boom)
	}
}
