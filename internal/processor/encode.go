package processor

import (
	"image/png"

	"imgconvert/internal/codec"
	"imgconvert/internal/options"
	"imgconvert/pkg/imgutil"
)

// formatTuning adds the format-specific encoder settings on top of the
// common ones. Formats without an entry use quality only.
var formatTuning = map[imgutil.Kind]func(o *codec.Options, cfg options.Config){
	imgutil.KindJPEG: func(o *codec.Options, cfg options.Config) {
		o.Background = cfg.BackgroundColor()
	},
	imgutil.KindPNG: func(o *codec.Options, _ options.Config) {
		o.Palette = true
		o.Dither = true
		o.CompressionLevel = png.BestCompression
	},
	imgutil.KindTIFF: func(o *codec.Options, _ options.Config) {
		o.Lossless = true
	},
	imgutil.KindGIF: func(o *codec.Options, _ options.Config) {
		o.Dither = true
	},
}

func encodeOptions(job Job, cfg options.Config) codec.Options {
	o := codec.Options{
		Format:  job.Format,
		Quality: cfg.Quality,
		Width:   job.Width,
		Height:  job.Height,
		Fit:     job.Fit,
		Density: cfg.Density,
	}
	if tune, ok := formatTuning[job.Format]; ok {
		tune(&o, cfg)
	}
	return o
}
