package codec

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"

	"imgconvert/pkg/imgutil"
)

var errNoDensity = errors.New("no resolution metadata")

const metersPerInch = 0.0254

func carriesDensity(k imgutil.Kind) bool {
	return k == imgutil.KindJPEG || k == imgutil.KindPNG
}

// readDensity returns the horizontal resolution, in DPI, recorded in the
// EXIF block of the image at path.
func readDensity(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	raw, err := exif.SearchAndExtractExifWithReader(f)
	if err != nil {
		return 0, err
	}
	tags, _, err := exif.GetFlatExifData(raw, nil)
	if err != nil {
		return 0, err
	}

	var xres float64
	unit := 2 // inches, the EXIF default
	for _, tag := range tags {
		if tag.IfdPath == "IFD1" { // thumbnail
			continue
		}
		switch tag.TagName {
		case "XResolution":
			if v, ok := parseRational(firstField(tag.Formatted)); ok {
				xres = v
			}
		case "ResolutionUnit":
			if v, err := strconv.Atoi(firstField(tag.Formatted)); err == nil {
				unit = v
			}
		}
	}

	if xres <= 0 {
		return 0, errNoDensity
	}
	if unit == 3 { // centimetres
		xres *= 2.54
	}
	return int(math.Round(xres)), nil
}

// firstField strips the brackets go-exif puts around formatted slices and
// returns the first element.
func firstField(raw string) string {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func parseRational(part string) (float64, bool) {
	part = strings.TrimSpace(part)
	if part == "" {
		return 0, false
	}
	if num, den, ok := strings.Cut(part, "/"); ok {
		n, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, false
		}
		d, err := strconv.ParseFloat(den, 64)
		if err != nil || d == 0 {
			return 0, false
		}
		return n / d, true
	}

	v, err := strconv.ParseFloat(part, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// writeDensity copies an encoded image from r to w, stamping dpi into it.
func writeDensity(r io.Reader, w io.Writer, kind imgutil.Kind, dpi int) error {
	switch kind {
	case imgutil.KindJPEG:
		return setJPEGDensity(r, w, dpi)
	case imgutil.KindPNG:
		return setPNGDensity(r, w, dpi)
	default:
		return fmt.Errorf("density metadata not supported for %s", kind)
	}
}
