// Package codec decodes a source image and re-encodes it in a target format
// with resizing, background flattening and density metadata applied.
package codec

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"imgconvert/pkg/imgutil"
)

// Fit selects how an image is mapped onto a target box when both
// dimensions are given.
type Fit int

const (
	FitCover   Fit = iota // Fill the box, cropping the overflow.
	FitContain            // Fit inside the box, padding with transparency.
)

func (f Fit) String() string {
	if f == FitContain {
		return "contain"
	}
	return "cover"
}

// Options drives a single conversion.
type Options struct {
	Format  imgutil.Kind
	Quality int // 1-100.

	// Background, when non-nil, flattens the image onto an opaque colour.
	Background color.Color

	Width  int // 0 derives from Height (or preserves).
	Height int // 0 derives from Width (or preserves).
	Fit    Fit

	Palette          bool
	CompressionLevel png.CompressionLevel
	Dither           bool
	Lossless         bool
	Speed            int // AVIF encoder speed, 0-10.

	// Density in DPI for JPEG and PNG output. 0 carries the source's EXIF
	// resolution when it has one.
	Density int
}

// Engine converts images using the registered decoders and the encoder table.
type Engine struct{}

// New returns a ready Engine.
func New() *Engine {
	return &Engine{}
}

// Measure returns the natural dimensions of the image at path without
// decoding its pixels.
func (e *Engine) Measure(path string) (int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return 0, 0, fmt.Errorf("reading image header: %w", err)
	}
	return cfg.Width, cfg.Height, nil
}

// Convert decodes src and writes the encoded result to dst.
func (e *Engine) Convert(ctx context.Context, src string, dst io.Writer, opts Options) error {
	enc, ok := encoders[opts.Format]
	if !ok {
		return fmt.Errorf("no encoder for format %s", opts.Format)
	}
	if opts.Quality < 1 || opts.Quality > 100 {
		return fmt.Errorf("quality %d out of range", opts.Quality)
	}

	img, err := decodeFile(src)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	img = resize(img, opts.Width, opts.Height, opts.Fit)
	if opts.Background != nil && !opts.Format.HasAlpha() {
		img = flatten(img, opts.Background)
	}

	density := opts.Density
	if density == 0 && carriesDensity(opts.Format) {
		if d, err := readDensity(src); err == nil {
			density = d
		}
	}

	if density == 0 || !carriesDensity(opts.Format) {
		return enc(dst, img, opts)
	}

	var buf bytes.Buffer
	if err := enc(&buf, img, opts); err != nil {
		return err
	}
	return writeDensity(&buf, dst, opts.Format, density)
}

func decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	return img, nil
}
