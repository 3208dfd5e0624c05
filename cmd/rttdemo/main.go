// Command rttdemo renders a scene and an immediate-mode GUI into an
// offscreen texture and shows that texture on two quads.
//
//	rttdemo [flags] [scene.yaml]
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/gogpu/rtt"
	_ "github.com/gogpu/rtt/backend/software"
	"github.com/gogpu/rtt/backend/wgpu"
	"github.com/gogpu/rtt/config"
	"github.com/gogpu/rtt/gui"
	"github.com/gogpu/rtt/integration/gogpuwindow"
	"github.com/gogpu/rtt/recording"
	"github.com/gogpu/rtt/scene"
	"github.com/gogpu/rtt/viewer"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "rttdemo: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := parseFlags(args)
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	rtt.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	opts, err := cfg.ViewerOptions()
	if err != nil {
		return err
	}
	finder := cfg.Finder()
	face, err := gui.LoadFace(finder, cfg.Font, cfg.FontSize)
	if err != nil {
		return err
	}
	opts = append(opts,
		viewer.WithGUIOptions(gui.WithFace(face)),
		viewer.WithScene(scene.LoadOrEmpty(cfg.Scene)))

	if cfg.EventsIn != "" {
		replay, err := viewer.LoadEvents(cfg.EventsIn)
		if err != nil {
			return err
		}
		opts = append(opts, viewer.WithEventPlayback(replay))
	}
	var recorded *viewer.EventLog
	if cfg.EventsOut != "" {
		recorded = &viewer.EventLog{}
		opts = append(opts, viewer.WithEventRecording(recorded))
	}

	if cfg.Headless {
		err = runHeadless(cfg, opts)
	} else {
		err = runWindow(cfg, opts)
	}
	if recorded != nil {
		err = errors.Join(err, recorded.Save(cfg.EventsOut))
	}
	return err
}

func parseFlags(args []string) (*config.Config, error) {
	fs := pflag.NewFlagSet("rttdemo", pflag.ContinueOnError)
	var (
		configPath = fs.String("config", "", "TOML configuration file")
		input      = fs.StringP("input", "i", "", "replay input events from `file`")
		output     = fs.StringP("output", "o", "", "record input events to `file`")
		debug      = fs.BoolP("debug", "d", false, "enable the validation layers and debug logging")
		apiDump    = fs.BoolP("api", "a", false, "log every GPU command played back")
		backend    = fs.String("backend", "", "backend name "+fmt.Sprint(recording.Backends()))
		screen     = fs.Int("screen", 0, "screen to open the window on")
		display    = fs.String("display", "", "display to connect to")
		frames     = fs.IntP("frames", "f", -1, "stop after n frames, -1 for no limit")
		font       = fs.String("font", "", "font file for the GUI")
		fontSize   = fs.Float64("font-size", gui.DefaultFontSize, "GUI font size")
		separate   = fs.BoolP("separate", "s", false, "record the offscreen and onscreen passes in separate command graph nodes")
		mt         = fs.Bool("mt", false, "record command graph nodes in parallel")
		headless   = fs.Bool("headless", false, "render without a window")
		screenshot = fs.String("screenshot", "", "write the last frame to a PNG `file` (headless only)")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			return nil, err
		}
	}
	set := func(name string, apply func()) {
		if fs.Changed(name) {
			apply()
		}
	}
	set("input", func() { cfg.EventsIn = *input })
	set("output", func() { cfg.EventsOut = *output })
	set("debug", func() { cfg.Debug = *debug })
	set("api", func() { cfg.APIDump = *apiDump })
	set("backend", func() { cfg.Backend = *backend })
	set("screen", func() { cfg.Screen = *screen })
	set("display", func() { cfg.Display = *display })
	set("frames", func() { cfg.Frames = *frames })
	set("font", func() { cfg.Font = *font })
	set("font-size", func() { cfg.FontSize = *fontSize })
	set("separate", func() { cfg.Separate = *separate })
	set("mt", func() { cfg.Multithreaded = *mt })
	set("headless", func() { cfg.Headless = *headless })
	set("screenshot", func() { cfg.Screenshot = *screenshot })
	if fs.NArg() > 0 {
		cfg.Scene = fs.Arg(0)
	}
	return cfg, cfg.Validate()
}

// openBackend opens the configured backend. The wgpu backend gets the
// driver's debug layers with --debug.
func openBackend(cfg *config.Config) (recording.Backend, error) {
	if cfg.Backend == wgpu.Name {
		return wgpu.Open(wgpu.Options{Debug: cfg.Debug})
	}
	return recording.NewBackend(cfg.Backend)
}

func runHeadless(cfg *config.Config, opts []viewer.Option) error {
	backend, err := openBackend(cfg)
	if err != nil {
		return rtt.Wrap(rtt.ErrResourceCreation, "open backend", err)
	}
	defer backend.Close()

	win, err := viewer.NewHeadlessWindow(backend, cfg.Window.Width, cfg.Window.Height, 2)
	if err != nil {
		return err
	}
	defer win.Close()

	d, err := viewer.Setup(cfg.Layers().Wrap(backend, rtt.Logger()), win, opts...)
	if err != nil {
		return err
	}
	defer d.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := d.Run(ctx); err != nil {
		return err
	}
	if cfg.Screenshot != "" {
		if err := d.Screenshot(cfg.Screenshot); err != nil {
			return err
		}
		rtt.Logger().Info("screenshot written", "path", cfg.Screenshot)
	}
	return nil
}

func runWindow(cfg *config.Config, opts []viewer.Option) error {
	win := gogpuwindow.New(gogpuwindow.Config{
		Title:   "Render to texture",
		Width:   cfg.Window.Width,
		Height:  cfg.Window.Height,
		Screen:  cfg.Screen,
		Display: cfg.Display,
		Layers:  cfg.Layers(),
	})
	return win.Run(func(b recording.Backend, w viewer.Window) (*viewer.FrameDriver, error) {
		return viewer.Setup(b, w, opts...)
	})
}
