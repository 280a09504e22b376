package imgutil

import (
	"errors"
	"io"
	"os"
	"strings"
)

// Kind identifies a supported image format.
type Kind int

const (
	KindUnknown Kind = iota
	KindJPEG
	KindPNG
	KindWebP
	KindAVIF
	KindTIFF
	KindGIF
)

// HeaderSize is the number of leading bytes DetectHeader needs.
const HeaderSize = 12

func (k Kind) String() string {
	switch k {
	case KindJPEG:
		return "jpeg"
	case KindPNG:
		return "png"
	case KindWebP:
		return "webp"
	case KindAVIF:
		return "avif"
	case KindTIFF:
		return "tiff"
	case KindGIF:
		return "gif"
	default:
		return "unknown"
	}
}

// Extension is the canonical file extension for k, without the dot.
func (k Kind) Extension() string {
	return k.String()
}

// HasAlpha reports whether the format can store transparency.
func (k Kind) HasAlpha() bool {
	return k != KindJPEG && k != KindUnknown
}

// SupportedKinds lists every convertible format in a fixed order.
func SupportedKinds() []Kind {
	return []Kind{KindJPEG, KindPNG, KindWebP, KindAVIF, KindTIFF, KindGIF}
}

var extensionKinds = map[string]Kind{
	"jpeg": KindJPEG,
	"jpg":  KindJPEG,
	"png":  KindPNG,
	"webp": KindWebP,
	"avif": KindAVIF,
	"tiff": KindTIFF,
	"tif":  KindTIFF,
	"gif":  KindGIF,
}

// ParseKind maps a format name or file extension (with or without the
// leading dot, any case) to its Kind.
func ParseKind(name string) Kind {
	name = strings.ToLower(strings.TrimPrefix(name, "."))
	if k, ok := extensionKinds[name]; ok {
		return k
	}
	return KindUnknown
}

var (
	pngSig    = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	jpegSig   = []byte{0xff, 0xd8, 0xff}
	tiffSigLE = []byte{0x49, 0x49, 0x2a, 0x00}
	tiffSigBE = []byte{0x4d, 0x4d, 0x00, 0x2a}
	gif87Sig  = []byte("GIF87a")
	gif89Sig  = []byte("GIF89a")
	riffSig   = []byte("RIFF")
	webpSig   = []byte("WEBP")
	ftypSig   = []byte("ftyp")
)

// DetectHeader inspects the first HeaderSize bytes of a file for known signatures.
func DetectHeader(header []byte) (Kind, error) {
	if len(header) < HeaderSize {
		return KindUnknown, errors.New("header too short")
	}

	switch {
	case hasPrefix(header, jpegSig):
		return KindJPEG, nil
	case hasPrefix(header, pngSig):
		return KindPNG, nil
	case hasPrefix(header, tiffSigLE), hasPrefix(header, tiffSigBE):
		return KindTIFF, nil
	case hasPrefix(header, gif87Sig), hasPrefix(header, gif89Sig):
		return KindGIF, nil
	case hasPrefix(header, riffSig) && hasPrefix(header[8:], webpSig):
		return KindWebP, nil
	case hasPrefix(header[4:], ftypSig):
		brand := string(header[8:12])
		if brand == "avif" || brand == "avis" {
			return KindAVIF, nil
		}
	}

	return KindUnknown, nil
}

// SniffFile reads the leading bytes of a file to determine its type.
func SniffFile(path string) (Kind, error) {
	f, err := os.Open(path)
	if err != nil {
		return KindUnknown, err
	}
	defer f.Close()

	return SniffReader(f)
}

// SniffReader reads the leading bytes from r and determines its type.
func SniffReader(r io.Reader) (Kind, error) {
	header := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return KindUnknown, err
	}

	return DetectHeader(header)
}

func hasPrefix(buf, prefix []byte) bool {
	if len(buf) < len(prefix) {
		return false
	}
	for i := range prefix {
		if buf[i] != prefix[i] {
			return false
		}
	}
	return true
}
