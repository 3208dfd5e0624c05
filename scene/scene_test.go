package scene

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/rtt"
)

const triangleYAML = `
meshes:
  - name: tri
    positions: [[0, 0, 0], [1, 0, 0], [0, 2, 0]]
    translate: [1, 1, 1]
  - name: quad
    positions: [[-1, -1, -1], [1, -1, -1], [1, 1, -1], [-1, 1, -1]]
    colors: [[1, 0, 0], [0, 1, 0], [0, 0, 1], [1, 1, 1]]
    indices: [0, 1, 2, 2, 3, 0]
`

func TestParseDefaults(t *testing.T) {
	s, err := Parse([]byte(triangleYAML))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(s.Meshes) != 2 {
		t.Fatalf("meshes = %d, want 2", len(s.Meshes))
	}
	tri := s.Meshes[0]
	if len(tri.Colors) != 3 || tri.Colors[2] != [3]float32{1, 1, 1} {
		t.Errorf("default colors = %v", tri.Colors)
	}
	if want := []uint32{0, 1, 2}; len(tri.Indices) != 3 || tri.Indices[2] != want[2] {
		t.Errorf("default indices = %v", tri.Indices)
	}
	if got := tri.Vertex(2); got != (mgl32.Vec3{1, 3, 1}) {
		t.Errorf("translated vertex = %v", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"syntax", "meshes: [\n"},
		{"no positions", "meshes:\n  - name: a\n"},
		{"color count", "meshes:\n  - positions: [[0,0,0],[1,0,0],[0,1,0]]\n    colors: [[1,1,1]]\n"},
		{"not triangles", "meshes:\n  - positions: [[0,0,0],[1,0,0]]\n"},
		{"index range", "meshes:\n  - positions: [[0,0,0],[1,0,0],[0,1,0]]\n    indices: [0, 1, 3]\n"},
		{"index count", "meshes:\n  - positions: [[0,0,0],[1,0,0],[0,1,0]]\n    indices: [0, 1]\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Error("Parse succeeded")
			}
		})
	}
}

func TestBounds(t *testing.T) {
	s, err := Parse([]byte(triangleYAML))
	if err != nil {
		t.Fatal(err)
	}
	b := s.Bounds()
	if b.Min != (mgl32.Vec3{-1, -1, -1}) || b.Max != (mgl32.Vec3{2, 3, 1}) {
		t.Errorf("bounds = %v..%v", b.Min, b.Max)
	}
	if c := b.Center(); c != (mgl32.Vec3{0.5, 1, 0}) {
		t.Errorf("center = %v", c)
	}

	empty := (&Scene{}).Bounds()
	if !empty.Empty() || empty.Diagonal() != 0 {
		t.Errorf("empty scene bounds = %v", empty)
	}
	var nilScene *Scene
	if !nilScene.Empty() || !nilScene.Bounds().Empty() {
		t.Error("nil scene is not empty")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, []byte(triangleYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("meshes: 3"), 0o600); err != nil {
		t.Fatal(err)
	}

	if s, err := Load(good); err != nil || len(s.Meshes) != 2 {
		t.Errorf("Load(good) = %v, %v", s, err)
	}
	for _, p := range []string{bad, filepath.Join(dir, "missing.yaml")} {
		_, err := Load(p)
		if !errors.Is(err, rtt.ErrSceneLoad) {
			t.Errorf("Load(%s) error = %v, want ErrSceneLoad", filepath.Base(p), err)
		}
		if s := LoadOrEmpty(p); !s.Empty() {
			t.Errorf("LoadOrEmpty(%s) is not empty", filepath.Base(p))
		}
	}
	if s := LoadOrEmpty(""); !s.Empty() {
		t.Error("LoadOrEmpty(\"\") is not empty")
	}
}

func TestMarshalRoundTrip(t *testing.T) {
	s, err := Parse([]byte(triangleYAML))
	if err != nil {
		t.Fatal(err)
	}
	data, err := s.Marshal()
	if err != nil {
		t.Fatal(err)
	}
	again, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Marshal()): %v", err)
	}
	if again.Bounds() != s.Bounds() {
		t.Errorf("bounds changed: %v != %v", again.Bounds(), s.Bounds())
	}
}
