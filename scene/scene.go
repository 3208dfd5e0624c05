package scene

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/rtt"
)

// ErrInvalidMesh is returned for meshes with inconsistent arrays.
var ErrInvalidMesh = errors.New("scene: invalid mesh")

// Mesh is an indexed triangle mesh with per-vertex colors.
type Mesh struct {
	Name      string       `yaml:"name"`
	Positions [][3]float32 `yaml:"positions"`
	Colors    [][3]float32 `yaml:"colors,omitempty"`
	Indices   []uint32     `yaml:"indices,omitempty"`
	Translate [3]float32   `yaml:"translate,omitempty"`
}

// Scene is a list of meshes.
type Scene struct {
	Meshes []Mesh `yaml:"meshes"`
}

// Empty reports whether s has nothing to draw.
func (s *Scene) Empty() bool {
	return s == nil || len(s.Meshes) == 0
}

// Load reads and validates a scene file.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, rtt.Wrap(rtt.ErrSceneLoad, "read scene", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, rtt.Wrap(rtt.ErrSceneLoad, "load "+path, err)
	}
	rtt.Logger().Info("scene loaded", "path", path, "meshes", len(s.Meshes))
	return s, nil
}

// LoadOrEmpty loads path, or returns an empty scene and logs a warning if
// it cannot. An empty path gives an empty scene without a warning.
func LoadOrEmpty(path string) *Scene {
	if path == "" {
		return &Scene{}
	}
	s, err := Load(path)
	if err != nil {
		rtt.Logger().Warn("continuing with an empty scene", "path", path, "err", err)
		return &Scene{}
	}
	return s
}

// Parse decodes and validates scene YAML. Missing colors and indices are
// filled in.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}
	for i := range s.Meshes {
		if err := s.Meshes[i].normalize(); err != nil {
			return nil, fmt.Errorf("mesh %d: %w", i, err)
		}
	}
	return &s, nil
}

// Marshal encodes s as YAML.
func (s *Scene) Marshal() ([]byte, error) {
	return yaml.Marshal(s)
}

func (m *Mesh) normalize() error {
	n := len(m.Positions)
	if n == 0 {
		return fmt.Errorf("%w: %q has no positions", ErrInvalidMesh, m.Name)
	}
	switch len(m.Colors) {
	case 0:
		m.Colors = make([][3]float32, n)
		for i := range m.Colors {
			m.Colors[i] = [3]float32{1, 1, 1}
		}
	case n:
	default:
		return fmt.Errorf("%w: %q has %d colors for %d positions", ErrInvalidMesh, m.Name, len(m.Colors), n)
	}
	if len(m.Indices) == 0 {
		if n%3 != 0 {
			return fmt.Errorf("%w: %q has %d positions and no indices", ErrInvalidMesh, m.Name, n)
		}
		m.Indices = make([]uint32, n)
		for i := range m.Indices {
			m.Indices[i] = uint32(i)
		}
	}
	if len(m.Indices)%3 != 0 {
		return fmt.Errorf("%w: %q has %d indices", ErrInvalidMesh, m.Name, len(m.Indices))
	}
	for _, idx := range m.Indices {
		if int(idx) >= n {
			return fmt.Errorf("%w: %q index %d out of range", ErrInvalidMesh, m.Name, idx)
		}
	}
	return nil
}

// Vertex returns the translated position of vertex i.
func (m *Mesh) Vertex(i int) mgl32.Vec3 {
	p := m.Positions[i]
	return mgl32.Vec3{p[0] + m.Translate[0], p[1] + m.Translate[1], p[2] + m.Translate[2]}
}

// Bounds returns the bounds of the translated positions.
func (m *Mesh) Bounds() Bounds {
	b := EmptyBounds()
	for i := range m.Positions {
		b.Extend(m.Vertex(i))
	}
	return b
}

// Bounds returns the bounds of every mesh, or EmptyBounds.
func (s *Scene) Bounds() Bounds {
	b := EmptyBounds()
	if s == nil {
		return b
	}
	for i := range s.Meshes {
		b.Union(s.Meshes[i].Bounds())
	}
	return b
}
