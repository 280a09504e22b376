// Package options resolves the effective run configuration from built-in
// defaults, the optional config file, presets, environments and CLI flags.
package options

import (
	"image/color"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// FormatSelector is the requested output format: a format name, "all" or
// "none". Unrecognised names are kept verbatim and rejected per file later.
type FormatSelector string

const (
	FormatAll  FormatSelector = "all"  // Every supported format.
	FormatNone FormatSelector = "none" // Re-encode in the source's own format.
)

// Defaults applied before any other layer.
const (
	DefaultQuality     = 85
	DefaultBackground  = "#ffffff"
	DefaultEnvironment = "dev"
	DefaultConfigFile  = ".imgconverter.config"
)

// Config is the effective configuration for one run. It is built once by
// [Resolve] and handed by value to every downstream component.
type Config struct {
	Format      FormatSelector
	Quality     int    // 1-100.
	Background  string // Hex colour used when flattening onto an opaque format.
	Replace     bool   // Write next to (or over) the source instead of an output dir.
	Width       int    // 0 preserves the source width.
	Height      int    // 0 preserves the source height.
	Output      string // Explicit output directory; empty derives one from the input.
	Preset      string
	Environment string
	Debug       bool
	Density     int // DPI written into JPEG/PNG output; 0 carries the source's.
	Concurrency int
	Timeout     time.Duration // 0 disables the run deadline.

	// Alloy is set when the active preset generates multi-scale assets.
	Alloy *ScaleSet
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Format:      FormatNone,
		Quality:     DefaultQuality,
		Background:  DefaultBackground,
		Environment: DefaultEnvironment,
		Concurrency: runtime.NumCPU(),
	}
}

// Clone returns a deep copy so callers cannot share the scale set.
func (c Config) Clone() Config {
	c.Alloy = c.Alloy.Clone()
	return c
}

// BackgroundColor parses Background. Resolve has already validated it, so a
// parse failure here falls back to white.
func (c Config) BackgroundColor() color.Color {
	col, err := parseColor(c.Background)
	if err != nil {
		return color.White
	}
	return col
}

func parseColor(s string) (color.Color, error) {
	col, err := colorful.Hex(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	r, g, b := col.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// Overrides is a partial configuration layer. Nil pointers and empty
// strings leave the lower layer untouched.
type Overrides struct {
	Format     string `mapstructure:"format" json:"format,omitempty"`
	Quality    *int   `mapstructure:"quality" json:"quality,omitempty"`
	Background string `mapstructure:"background" json:"background,omitempty"`
	Replace    *bool  `mapstructure:"replace" json:"replace,omitempty"`
	Width      *int   `mapstructure:"width" json:"width,omitempty"`
	Height     *int   `mapstructure:"height" json:"height,omitempty"`
	Output     string `mapstructure:"output" json:"output,omitempty"`
	Density    *int   `mapstructure:"density" json:"density,omitempty"`
	Debug      *bool  `mapstructure:"debug" json:"debug,omitempty"`
}

func (c *Config) apply(o Overrides) {
	if o.Format != "" {
		c.Format = FormatSelector(strings.ToLower(strings.TrimSpace(o.Format)))
	}
	if o.Quality != nil {
		c.Quality = *o.Quality
	}
	if o.Background != "" {
		c.Background = o.Background
	}
	if o.Replace != nil {
		c.Replace = *o.Replace
	}
	if o.Width != nil {
		c.Width = *o.Width
	}
	if o.Height != nil {
		c.Height = *o.Height
	}
	if o.Output != "" {
		c.Output = o.Output
	}
	if o.Density != nil {
		c.Density = *o.Density
	}
	if o.Debug != nil {
		c.Debug = *o.Debug
	}
}

// validate checks the fields a layer defines; source names the layer in
// error messages ("config file", "preset web", ...).
func (o Overrides) validate(source string) error {
	if o.Quality != nil && (*o.Quality < 1 || *o.Quality > 100) {
		return &ValidationError{Flag: "quality", Value: strconv.Itoa(*o.Quality), Source: source, Reason: "must be between 1 and 100"}
	}
	if o.Width != nil && *o.Width <= 0 {
		return &ValidationError{Flag: "width", Value: strconv.Itoa(*o.Width), Source: source, Reason: "must be a positive integer"}
	}
	if o.Height != nil && *o.Height <= 0 {
		return &ValidationError{Flag: "height", Value: strconv.Itoa(*o.Height), Source: source, Reason: "must be a positive integer"}
	}
	if o.Density != nil && *o.Density <= 0 {
		return &ValidationError{Flag: "density", Value: strconv.Itoa(*o.Density), Source: source, Reason: "must be a positive integer"}
	}
	if o.Background != "" {
		if _, err := parseColor(o.Background); err != nil {
			return &ValidationError{Flag: "background", Value: o.Background, Source: source, Reason: "must be a hex colour such as #ffffff"}
		}
	}
	return nil
}
