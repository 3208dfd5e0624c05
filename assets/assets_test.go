package assets

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/gogpu/rtt"
)

func TestEmbeddedShadersCompile(t *testing.T) {
	f := NewFinderFS(embedded)
	for _, name := range []string{QuadVertex, QuadFragment, OverlayVertex, OverlayFragment, MeshVertex, MeshFragment} {
		t.Run(name, func(t *testing.T) {
			st, err := f.Shader(name, "main")
			if err != nil {
				t.Fatalf("Shader(%q): %v", name, err)
			}
			if len(st.SPIRV) < 5 || st.SPIRV[0] != 0x07230203 {
				t.Errorf("missing SPIR-V magic")
			}
			if st.EntryPoint != "main" || st.Label != name {
				t.Errorf("stage = %q/%q", st.Label, st.EntryPoint)
			}
		})
	}
}

func TestSearchOrder(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	env := t.TempDir()
	write := func(dir, body string) {
		t.Helper()
		p := filepath.Join(dir, "shaders", "x.wgsl")
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	write(second, "second")
	write(env, "env")
	t.Setenv(EnvPath, env)

	f := NewFinder(first, second)
	if got := f.Paths(); len(got) != 3 || got[2] != env {
		t.Fatalf("Paths = %v", got)
	}
	data, origin, err := f.ReadFile("shaders/x.wgsl")
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "second" || !strings.HasPrefix(origin, second) {
		t.Errorf("ReadFile = %q from %q, want second", data, origin)
	}

	write(first, "first")
	data, _, _ = f.ReadFile("shaders/x.wgsl")
	if string(data) != "first" {
		t.Errorf("ReadFile = %q, want first", data)
	}
}

func TestEnvPaths(t *testing.T) {
	t.Setenv(EnvPath, strings.Join([]string{"a", "", "b"}, string(os.PathListSeparator)))
	got := EnvPaths()
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("EnvPaths = %v", got)
	}
}

func TestEmbeddedFallback(t *testing.T) {
	t.Setenv(EnvPath, "")
	f := NewFinder(t.TempDir())
	_, origin, err := f.ReadFile(QuadVertex)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if origin != "embedded:"+QuadVertex {
		t.Errorf("origin = %q", origin)
	}
}

func TestShaderErrors(t *testing.T) {
	fsys := fstest.MapFS{
		"shaders/broken.wgsl": {Data: []byte("@vertex fn main( -> {")},
	}
	f := NewFinderFS(fsys)

	tests := []struct {
		name string
		file string
		want error
	}{
		{"missing", "shaders/nope.wgsl", ErrNotFound},
		{"invalid", "shaders/broken.wgsl", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Shader(tt.file, "main")
			if !errors.Is(err, rtt.ErrShaderLoad) {
				t.Fatalf("Shader = %v, want ErrShaderLoad", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Errorf("Shader = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCompileCached(t *testing.T) {
	src := "@fragment fn main() -> @location(0) vec4<f32> { return vec4<f32>(0.25, 0.5, 0.75, 1.0); }"
	a, err := Compile(src)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	hits := CacheStats().Hits
	b, err := Compile(src)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if CacheStats().Hits != hits+1 {
		t.Errorf("second compile was not a cache hit")
	}
	if &a[0] != &b[0] {
		t.Errorf("cached words not shared")
	}
}
