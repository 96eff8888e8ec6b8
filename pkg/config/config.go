// Package config loads turntable settings from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Backends.
const (
	BackendTerminal = "terminal"
	BackendWindow   = "window"
	BackendHeadless = "headless"
)

// Config holds everything the CLI can set. Zero fields take defaults.
type Config struct {
	Container string `yaml:"container"`
	Backend   string `yaml:"backend"`
	FPS       int    `yaml:"fps"`
	HUD       bool   `yaml:"hud"`
	LogLevel  string `yaml:"log_level"`

	Assets Assets `yaml:"assets"`
	Page   Page   `yaml:"page"`
	Window Window `yaml:"window"`
}

// Assets locates the texture and geometry files.
type Assets struct {
	// Dir is a local directory. Ignored when URL is set.
	Dir      string `yaml:"dir"`
	URL      string `yaml:"url"`
	Texture  string `yaml:"texture"`
	Geometry string `yaml:"geometry"`
}

// Page sizes the virtual scroll page relative to the viewport.
type Page struct {
	// Screens is the document height in viewport heights.
	Screens float64 `yaml:"screens"`
	// LineStep is the fraction of a viewport one wheel notch scrolls.
	LineStep float64 `yaml:"line_step"`
}

// Window configures the desktop window backend.
type Window struct {
	Title      string `yaml:"title"`
	Width      int    `yaml:"width"`
	Height     int    `yaml:"height"`
	PixelScale int    `yaml:"pixel_scale"`
}

// Default returns the built-in configuration.
func Default() Config {
	var c Config
	c.normalize()
	return c
}

func (c *Config) normalize() {
	if c.Container == "" {
		c.Container = "container"
	}
	if c.Backend == "" {
		c.Backend = BackendTerminal
	}
	if c.FPS <= 0 {
		c.FPS = 60
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Assets.Dir == "" {
		c.Assets.Dir = "."
	}
	if c.Assets.Texture == "" {
		c.Assets.Texture = "krishna.png"
	}
	if c.Assets.Geometry == "" {
		c.Assets.Geometry = "krishna.obj"
	}
	if c.Page.Screens < 1 {
		c.Page.Screens = 3
	}
	if c.Page.LineStep <= 0 {
		c.Page.LineStep = 0.1
	}
	if c.Window.Title == "" {
		c.Window.Title = "turntable"
	}
	if c.Window.Width <= 0 {
		c.Window.Width = 960
	}
	if c.Window.Height <= 0 {
		c.Window.Height = 720
	}
	if c.Window.PixelScale <= 0 {
		c.Window.PixelScale = 2
	}
}

// Validate reports settings that cannot be defaulted.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendTerminal, BackendWindow, BackendHeadless:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return lvl, nil
}

// Parse decodes YAML, rejecting unknown keys, and applies defaults.
func Parse(data []byte) (Config, error) {
	var c Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	c.normalize()
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Load reads path. An empty path returns Default.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
