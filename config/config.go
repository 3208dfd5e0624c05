// Package config holds the settings of the rttdemo viewer. Defaults can be
// overridden by a TOML file and then by command-line flags.
//
// Example file:
//
//	backend = "software"
//	frames = 120
//	depth = "standard"
//	shader_paths = ["./shaders"]
//
//	[target]
//	width = 512
//	height = 512
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/gogpu/gputypes"
	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/rtt/assets"
	"github.com/gogpu/rtt/graph"
	"github.com/gogpu/rtt/gui"
	"github.com/gogpu/rtt/recording"
	"github.com/gogpu/rtt/render"
	"github.com/gogpu/rtt/viewer"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("config: invalid setting")

// Extent is a size in pixels.
type Extent struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
}

// Config is the full viewer configuration.
type Config struct {
	// Backend is a registered recording backend name.
	Backend string `toml:"backend"`
	// Target is the offscreen target extent.
	Target Extent `toml:"target"`
	// Window is the initial window extent.
	Window Extent `toml:"window"`
	// Frames limits the run. -1 means no limit.
	Frames int `toml:"frames"`

	// Font is a font file looked up on the asset paths. Empty means Go
	// Regular.
	Font     string  `toml:"font"`
	FontSize float64 `toml:"font_size"`

	// ClearColor is the offscreen clear color, RGBA.
	ClearColor [4]float64 `toml:"clear_color"`
	// DepthConvention is "reversed" or "standard".
	DepthConvention string `toml:"depth"`
	// ShaderPaths are searched before RTT_FILE_PATH and the embedded
	// shaders.
	ShaderPaths []string `toml:"shader_paths"`

	// Separate records the two passes in separate command graph nodes.
	Separate bool `toml:"separate"`
	// Multithreaded records the nodes in parallel.
	Multithreaded bool `toml:"multithreaded"`

	Headless   bool   `toml:"headless"`
	Screenshot string `toml:"screenshot"`
	Screen     int    `toml:"screen"`
	Display    string `toml:"display"`

	// Debug enables the validation layers and debug logging.
	Debug bool `toml:"debug"`
	// APIDump logs every command played back.
	APIDump bool `toml:"api_dump"`

	// Scene is the optional input scene file.
	Scene string `toml:"scene"`
	// EventsIn replays recorded events. EventsOut records them.
	EventsIn  string `toml:"events_in"`
	EventsOut string `toml:"events_out"`
}

// Default returns the built-in configuration.
func Default() *Config {
	c := render.DefaultOffscreenClear
	return &Config{
		Backend:         "wgpu",
		Target:          Extent{Width: viewer.DefaultTargetSize, Height: viewer.DefaultTargetSize},
		Window:          Extent{Width: 1280, Height: 720},
		Frames:          -1,
		FontSize:        gui.DefaultFontSize,
		ClearColor:      [4]float64{c.R, c.G, c.B, c.A},
		DepthConvention: render.DepthReversed.String(),
	}
}

// Load returns the defaults overridden by the TOML file at path. Unknown
// keys are an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	defer f.Close()
	dec := toml.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("config: %s: %s", path, strict.String())
		}
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as TOML.
func (c *Config) Save(path string) error {
	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks the settings that Setup would otherwise reject late.
func (c *Config) Validate() error {
	switch {
	case c.Backend == "":
		return fmt.Errorf("%w: empty backend", ErrInvalid)
	case c.Target.Width <= 0 || c.Target.Height <= 0:
		return fmt.Errorf("%w: target %dx%d", ErrInvalid, c.Target.Width, c.Target.Height)
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("%w: window %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	case c.Frames < -1:
		return fmt.Errorf("%w: frames %d", ErrInvalid, c.Frames)
	case c.FontSize <= 0:
		return fmt.Errorf("%w: font size %v", ErrInvalid, c.FontSize)
	case c.Screenshot != "" && !c.Headless:
		return fmt.Errorf("%w: screenshot needs headless", ErrInvalid)
	}
	if _, err := render.ParseDepthConvention(c.DepthConvention); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Mode returns the command graph mode.
func (c *Config) Mode() graph.Mode {
	if c.Separate {
		return graph.ModeSeparate
	}
	return graph.ModeCombined
}

// Finder returns the asset finder for the configured shader paths.
func (c *Config) Finder() *assets.Finder {
	return assets.NewFinder(c.ShaderPaths...)
}

// Layers returns the debug layers selected by Debug and APIDump.
func (c *Config) Layers() recording.Layers {
	return recording.Layers{Validation: c.Debug, APIDump: c.APIDump}
}

// ViewerOptions translates the configuration into viewer options. Font,
// scene and event files are loaded by the caller.
func (c *Config) ViewerOptions() ([]viewer.Option, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	depth, _ := render.ParseDepthConvention(c.DepthConvention)
	return []viewer.Option{
		viewer.WithMode(c.Mode()),
		viewer.WithMultithreading(c.Multithreaded, 0),
		viewer.WithTargetSize(c.Target.Width, c.Target.Height),
		viewer.WithDepthConvention(depth),
		viewer.WithOffscreenClear(gputypes.Color{R: c.ClearColor[0], G: c.ClearColor[1], B: c.ClearColor[2], A: c.ClearColor[3]}),
		viewer.WithFrameLimit(c.Frames),
		viewer.WithFinder(c.Finder()),
	}, nil
}
