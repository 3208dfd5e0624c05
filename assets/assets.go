// Package assets locates shader and font files.
//
// A Finder searches, in order, the directories it was created with, the
// directories listed in the RTT_FILE_PATH environment variable, and finally
// the shaders embedded in this package. Names are slash separated and
// relative, such as "shaders/quad.vert.wgsl".
package assets

import (
	"crypto/sha256"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/gogpu/naga"

	"github.com/gogpu/rtt"
	"github.com/gogpu/rtt/gpu"
	"github.com/gogpu/rtt/internal/cache"
)

// EnvPath is the environment variable holding extra search directories,
// separated by os.PathListSeparator.
const EnvPath = "RTT_FILE_PATH"

// Shader file names used by the render package.
const (
	QuadVertex      = "shaders/quad.vert.wgsl"
	QuadFragment    = "shaders/quad.frag.wgsl"
	OverlayVertex   = "shaders/overlay.vert.wgsl"
	OverlayFragment = "shaders/overlay.frag.wgsl"
	MeshVertex      = "shaders/mesh.vert.wgsl"
	MeshFragment    = "shaders/mesh.frag.wgsl"
)

//go:embed shaders/*.wgsl
var embedded embed.FS

// ErrNotFound is returned when a name is in none of the search locations.
var ErrNotFound = errors.New("assets: file not found")

// compiled holds SPIR-V keyed by source hash, shared by all finders.
var compiled = cache.New[[sha256.Size]byte, []uint32](64)

// Finder resolves asset names to file contents.
type Finder struct {
	paths []string
	fsys  fs.FS
}

// EnvPaths returns the directories listed in RTT_FILE_PATH.
func EnvPaths() []string {
	var paths []string
	for _, p := range filepath.SplitList(os.Getenv(EnvPath)) {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// NewFinder returns a Finder searching paths, then RTT_FILE_PATH, then the
// embedded shaders.
func NewFinder(paths ...string) *Finder {
	all := append(append([]string(nil), paths...), EnvPaths()...)
	return &Finder{paths: all, fsys: embedded}
}

// NewFinderFS returns a Finder that searches paths and then fsys instead of
// the embedded shaders. A nil fsys disables the fallback.
func NewFinderFS(fsys fs.FS, paths ...string) *Finder {
	return &Finder{paths: append([]string(nil), paths...), fsys: fsys}
}

// Paths returns the search directories in order.
func (f *Finder) Paths() []string {
	return append([]string(nil), f.paths...)
}

// Find returns the first file named name under the search directories.
// An absolute name is returned as is if it exists.
func (f *Finder) Find(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if filepath.IsAbs(name) {
		return name, isFile(name)
	}
	for _, dir := range f.paths {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if isFile(p) {
			return p, true
		}
	}
	return "", false
}

func isFile(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

// ReadFile returns the contents of name and where they came from: a file
// path, or "embedded:" followed by the name.
func (f *Finder) ReadFile(name string) ([]byte, string, error) {
	if p, ok := f.Find(name); ok {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, p, err
		}
		return data, p, nil
	}
	if f.fsys != nil {
		if data, err := fs.ReadFile(f.fsys, path.Clean(name)); err == nil {
			return data, "embedded:" + name, nil
		}
	}
	return nil, "", fmt.Errorf("%w: %s (searched %d directories)", ErrNotFound, name, len(f.paths))
}

// Shader locates and compiles a WGSL module. Failures wrap
// rtt.ErrShaderLoad.
func (f *Finder) Shader(name, entryPoint string) (gpu.ShaderStage, error) {
	src, origin, err := f.ReadFile(name)
	if err != nil {
		return gpu.ShaderStage{}, rtt.Wrap(rtt.ErrShaderLoad, "locate shader", err)
	}
	words, err := Compile(string(src))
	if err != nil {
		return gpu.ShaderStage{}, rtt.Wrap(rtt.ErrShaderLoad, "compile "+origin, err)
	}
	rtt.Logger().Debug("shader loaded", "name", name, "origin", origin, "words", len(words))
	return gpu.ShaderStage{
		Label:      name,
		WGSL:       string(src),
		SPIRV:      words,
		EntryPoint: entryPoint,
	}, nil
}

// Compile compiles WGSL source to SPIR-V words. Results are cached by
// source hash.
func Compile(src string) ([]uint32, error) {
	key := sha256.Sum256([]byte(src))
	if words, ok := compiled.Get(key); ok {
		return words, nil
	}
	spirvBytes, err := naga.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("failed to compile shader: %w", err)
	}
	if len(spirvBytes)%4 != 0 {
		return nil, fmt.Errorf("SPIR-V size %d is not a multiple of 4", len(spirvBytes))
	}
	// SPIR-V is little-endian 32-bit words
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	compiled.Set(key, words)
	return words, nil
}

// CacheStats reports the compiled shader cache statistics.
func CacheStats() cache.Stats {
	return compiled.Stats()
}
