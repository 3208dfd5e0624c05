package main

import (
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"

	"github.com/gogpu/rtt"
	"github.com/gogpu/rtt/config"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		check func(*config.Config) bool
	}{
		{"defaults", nil, func(c *config.Config) bool {
			return c.Backend == "wgpu" && c.Frames == -1 && !c.Separate && !c.Multithreaded
		}},
		{"short flags", []string{"-s", "-f", "3", "-a", "-d"}, func(c *config.Config) bool {
			return c.Separate && c.Frames == 3 && c.APIDump && c.Debug && c.Backend == "wgpu"
		}},
		{"backend", []string{"--backend", "software"}, func(c *config.Config) bool {
			return c.Backend == "software" && !c.APIDump && !c.Debug
		}},
		{"events", []string{"-i", "in.yaml", "-o", "out.yaml"}, func(c *config.Config) bool {
			return c.EventsIn == "in.yaml" && c.EventsOut == "out.yaml"
		}},
		{"long flags", []string{"--mt", "--headless", "--screenshot", "x.png", "--font-size", "12", "--display", ":1", "--screen", "2"}, func(c *config.Config) bool {
			return c.Multithreaded && c.Headless && c.Screenshot == "x.png" && c.FontSize == 12 && c.Display == ":1" && c.Screen == 2
		}},
		{"scene", []string{"--headless", "scene.yaml"}, func(c *config.Config) bool {
			return c.Scene == "scene.yaml"
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := parseFlags(tt.args)
			if err != nil {
				t.Fatalf("parseFlags: %v", err)
			}
			if !tt.check(cfg) {
				t.Errorf("config = %+v", cfg)
			}
		})
	}
}

func TestParseFlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rtt.toml")
	if err := os.WriteFile(path, []byte("frames = 7\nbackend = \"software\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := parseFlags([]string{"--config", path, "-f", "2"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.Frames != 2 || cfg.Backend != "software" {
		t.Errorf("frames = %d, backend = %q", cfg.Frames, cfg.Backend)
	}
}

func TestParseFlagsErrors(t *testing.T) {
	if _, err := parseFlags([]string{"--screenshot", "x.png"}); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("screenshot without headless: err = %v", err)
	}
	if _, err := parseFlags([]string{"--bogus"}); err == nil {
		t.Error("unknown flag accepted")
	}
	if _, err := parseFlags([]string{"-h"}); !errors.Is(err, pflag.ErrHelp) {
		t.Errorf("-h: err = %v", err)
	}
}

func TestRunHeadless(t *testing.T) {
	t.Cleanup(func() { rtt.SetLogger(nil) })
	dir := t.TempDir()
	shot := filepath.Join(dir, "shot.png")
	events := filepath.Join(dir, "events.yaml")
	cfgPath := filepath.Join(dir, "rtt.toml")
	cfgFile := "[target]\nwidth = 64\nheight = 64\n\n[window]\nwidth = 48\nheight = 32\n"
	if err := os.WriteFile(cfgPath, []byte(cfgFile), 0o644); err != nil {
		t.Fatal(err)
	}
	err := run([]string{"--config", cfgPath, "--headless", "--backend", "software", "-d", "-a", "-f", "2", "-s", "--mt", "--screenshot", shot, "-o", events})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	f, err := os.Open(shot)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 48 || b.Dy() != 32 {
		t.Errorf("screenshot is %v", b)
	}
	if _, err := os.Stat(events); err != nil {
		t.Errorf("event file: %v", err)
	}
}
