package codec

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
)

// resize scales img towards width x height. A zero dimension is derived from
// the other to keep the aspect ratio; both zero leaves img untouched.
func resize(img image.Image, width, height int, fit Fit) image.Image {
	if width <= 0 && height <= 0 {
		return img
	}

	sb := img.Bounds()
	sw, sh := sb.Dx(), sb.Dy()
	if sw == 0 || sh == 0 {
		return img
	}

	if width <= 0 {
		width = scaleDim(sw, float64(height)/float64(sh))
	}
	if height <= 0 {
		height = scaleDim(sh, float64(width)/float64(sw))
	}
	if width == sw && height == sh {
		return img
	}

	switch fit {
	case FitContain:
		return contain(img, width, height)
	default:
		return cover(img, width, height)
	}
}

// cover scales so the box is filled, then crops the centre.
func cover(img image.Image, width, height int) image.Image {
	sb := img.Bounds()
	scale := math.Max(float64(width)/float64(sb.Dx()), float64(height)/float64(sb.Dy()))

	cropW := int(math.Round(float64(width) / scale))
	cropH := int(math.Round(float64(height) / scale))
	cropW = min(max(cropW, 1), sb.Dx())
	cropH = min(max(cropH, 1), sb.Dy())

	x0 := sb.Min.X + (sb.Dx()-cropW)/2
	y0 := sb.Min.Y + (sb.Dy()-cropH)/2
	sr := image.Rect(x0, y0, x0+cropW, y0+cropH)

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, sr, xdraw.Src, nil)
	return dst
}

// contain scales so the whole image fits, centred on a transparent canvas.
func contain(img image.Image, width, height int) image.Image {
	sb := img.Bounds()
	scale := math.Min(float64(width)/float64(sb.Dx()), float64(height)/float64(sb.Dy()))

	w := min(max(scaleDim(sb.Dx(), scale), 1), width)
	h := min(max(scaleDim(sb.Dy(), scale), 1), height)
	x0 := (width - w) / 2
	y0 := (height - h) / 2

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(color.Transparent), image.Point{}, xdraw.Src)
	xdraw.CatmullRom.Scale(dst, image.Rect(x0, y0, x0+w, y0+h), img, sb, xdraw.Src, nil)
	return dst
}

// flatten composites img over an opaque background.
func flatten(img image.Image, bg color.Color) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, xdraw.Src)
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Over)
	return dst
}

func scaleDim(n int, factor float64) int {
	return int(math.Round(float64(n) * factor))
}
