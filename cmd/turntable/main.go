// turntable renders a textured model and turns it as you scroll.
//
// Controls:
//
//	Wheel, ↑/↓, j/k   - Scroll
//	PgUp/PgDn, Space  - Scroll a page
//	Home/End, r       - Jump to top / bottom
//	?                 - Toggle HUD overlay (FPS, model, triangles, status)
//	Esc, q            - Quit
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/taigrr/turntable/pkg/assets"
	"github.com/taigrr/turntable/pkg/config"
	"github.com/taigrr/turntable/pkg/display"
	"github.com/taigrr/turntable/pkg/display/terminal"
	"github.com/taigrr/turntable/pkg/display/window"
	"github.com/taigrr/turntable/pkg/viewer"
)

var version = "dev"

type flags struct {
	config    string
	backend   string
	assetsDir string
	assetsURL string
	texture   string
	geometry  string
	fps       int
	hud       bool
	snapshot  string
	logFile   string
	logLevel  string
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := fang.Execute(ctx, newRootCmd(), fang.WithVersion(version)); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "turntable [model]",
		Short: "Scroll-driven 3D model viewer",
		Long: `turntable renders one textured model in the terminal or a window and
rotates it as the virtual page scrolls. Assets are read from a directory or
fetched from a base URL.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(f.config)
			if err != nil {
				return err
			}
			applyFlags(cmd, &cfg, f, args)
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg, f)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.config, "config", "c", "", "YAML config file")
	fl.StringVarP(&f.backend, "backend", "b", config.BackendTerminal, "terminal, window or headless")
	fl.StringVar(&f.assetsDir, "assets", ".", "directory holding the texture and model")
	fl.StringVar(&f.assetsURL, "assets-url", "", "base URL to fetch assets from instead of --assets")
	fl.StringVar(&f.texture, "texture", "krishna.png", "texture file name")
	fl.StringVar(&f.geometry, "geometry", "krishna.obj", "model file name (.obj, .gltf, .glb)")
	fl.IntVar(&f.fps, "fps", 60, "target frames per second")
	fl.BoolVar(&f.hud, "hud", false, "show the HUD overlay at start")
	fl.StringVar(&f.snapshot, "snapshot", "", "render headless once the model loads and write a PNG")
	fl.StringVar(&f.logFile, "log-file", "", "write logs here instead of stderr")
	fl.StringVar(&f.logLevel, "log-level", "info", "debug, info, warn or error")
	return cmd
}

// applyFlags overrides cfg with every flag set on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config, f flags, args []string) {
	set := cmd.Flags().Changed
	if set("backend") {
		cfg.Backend = f.backend
	}
	if set("assets") {
		cfg.Assets.Dir = f.assetsDir
	}
	if set("assets-url") {
		cfg.Assets.URL = f.assetsURL
	}
	if set("texture") {
		cfg.Assets.Texture = f.texture
	}
	if set("geometry") {
		cfg.Assets.Geometry = f.geometry
	}
	if len(args) == 1 {
		cfg.Assets.Geometry = args[0]
	}
	if set("fps") {
		cfg.FPS = f.fps
	}
	if set("hud") {
		cfg.HUD = f.hud
	}
	if set("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if f.snapshot != "" {
		cfg.Backend = config.BackendHeadless
	}
}

func run(ctx context.Context, cfg config.Config, f flags) (err error) {
	level, err := cfg.Level()
	if err != nil {
		return err
	}

	// The terminal backend owns the screen; hold log output until it is
	// restored unless a log file was given.
	var logOut io.Writer = os.Stderr
	var held bytes.Buffer
	switch {
	case f.logFile != "":
		lf, err := os.OpenFile(f.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer lf.Close()
		logOut = lf
	case cfg.Backend == config.BackendTerminal:
		logOut = &held
		defer func() { os.Stderr.Write(held.Bytes()) }()
	}
	log := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	src, err := newSource(cfg.Assets)
	if err != nil {
		return err
	}

	host, err := newHost(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := host.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	v := viewer.New(host, assets.NewLoader(src, log), viewer.Options{
		ContainerID:  cfg.Container,
		Texture:      cfg.Assets.Texture,
		Geometry:     cfg.Assets.Geometry,
		FPS:          cfg.FPS,
		PageScreens:  cfg.Page.Screens,
		LineStep:     cfg.Page.LineStep,
		HUD:          cfg.HUD,
		SnapshotPath: f.snapshot,
		Logger:       log,
	})
	return v.Run(ctx)
}

func newSource(a config.Assets) (assets.Source, error) {
	if a.URL != "" {
		return assets.NewHTTPSource(a.URL)
	}
	return assets.NewDirSource(a.Dir), nil
}

func newHost(cfg config.Config) (display.Host, error) {
	switch cfg.Backend {
	case config.BackendWindow:
		return window.New(cfg.Container, window.Options{
			Title:      cfg.Window.Title,
			Width:      cfg.Window.Width,
			Height:     cfg.Window.Height,
			PixelScale: cfg.Window.PixelScale,
			FPS:        cfg.FPS,
		}), nil
	case config.BackendHeadless:
		w := cfg.Window.Width / cfg.Window.PixelScale
		h := cfg.Window.Height / cfg.Window.PixelScale
		return display.NewHeadless(cfg.Container, w, h, cfg.FPS), nil
	default:
		return terminal.New(cfg.Container, cfg.FPS)
	}
}
