package codec

import (
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/gen2brain/avif"
	"github.com/gen2brain/webp"
	"golang.org/x/image/tiff"

	"imgconvert/pkg/imgutil"

	// Decoders registered with the image package.
	_ "golang.org/x/image/webp"
)

// defaultAVIFSpeed balances encode time against size (0 slowest, 10 fastest).
const defaultAVIFSpeed = 6

type encodeFunc func(w io.Writer, img image.Image, opts Options) error

var encoders = map[imgutil.Kind]encodeFunc{
	imgutil.KindJPEG: encodeJPEG,
	imgutil.KindPNG:  encodePNG,
	imgutil.KindWebP: encodeWebP,
	imgutil.KindAVIF: encodeAVIF,
	imgutil.KindTIFF: encodeTIFF,
	imgutil.KindGIF:  encodeGIF,
}

func encodeJPEG(w io.Writer, img image.Image, opts Options) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: opts.Quality})
}

func encodePNG(w io.Writer, img image.Image, opts Options) error {
	if opts.Palette {
		img = toPaletted(img, opts.Dither)
	}
	enc := png.Encoder{CompressionLevel: opts.CompressionLevel}
	return enc.Encode(w, img)
}

func encodeWebP(w io.Writer, img image.Image, opts Options) error {
	return webp.Encode(w, img, webp.Options{
		Quality:  opts.Quality,
		Lossless: opts.Lossless,
		Method:   4,
	})
}

func encodeAVIF(w io.Writer, img image.Image, opts Options) error {
	speed := opts.Speed
	if speed <= 0 {
		speed = defaultAVIFSpeed
	}
	return avif.Encode(w, img, avif.Options{
		Quality:           opts.Quality,
		QualityAlpha:      opts.Quality,
		Speed:             speed,
		ChromaSubsampling: image.YCbCrSubsampleRatio420,
	})
}

// encodeTIFF is lossless; x/image's writer supports Deflate but not LZW.
func encodeTIFF(w io.Writer, img image.Image, opts Options) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}

func encodeGIF(w io.Writer, img image.Image, opts Options) error {
	var drawer draw.Drawer = draw.Src
	if opts.Dither {
		drawer = draw.FloydSteinberg
	}
	return gif.Encode(w, img, &gif.Options{NumColors: 256, Drawer: drawer})
}

// toPaletted maps img onto the web-safe palette plus a transparent entry.
func toPaletted(img image.Image, dither bool) *image.Paletted {
	pal := make(color.Palette, 0, len(palette.WebSafe)+1)
	pal = append(pal, color.Transparent)
	pal = append(pal, palette.WebSafe...)

	b := img.Bounds()
	dst := image.NewPaletted(b, pal)
	if dither {
		draw.FloydSteinberg.Draw(dst, b, img, b.Min)
	} else {
		draw.Draw(dst, b, img, b.Min, draw.Src)
	}
	return dst
}
