package codec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

var jfifHeader = []byte("JFIF\x00")

// setJPEGDensity rewrites a JPEG stream so it starts with a JFIF APP0
// segment declaring dpi. Existing JFIF segments are dropped.
func setJPEGDensity(r io.Reader, w io.Writer, dpi int) error {
	if dpi <= 0 || dpi > 0xffff {
		return fmt.Errorf("density %d out of range", dpi)
	}

	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	soi := make([]byte, 2)
	if _, err := io.ReadFull(br, soi); err != nil {
		return err
	}
	if soi[0] != 0xff || soi[1] != 0xd8 {
		return fmt.Errorf("invalid JPEG SOI")
	}
	if _, err := bw.Write(soi); err != nil {
		return err
	}
	if _, err := bw.Write(jfifSegment(dpi)); err != nil {
		return err
	}

	for {
		markerPrefix, err := br.ReadByte()
		if err != nil {
			return err
		}
		for markerPrefix != 0xff {
			markerPrefix, err = br.ReadByte()
			if err != nil {
				return err
			}
		}

		marker, err := br.ReadByte()
		if err != nil {
			return err
		}
		for marker == 0xff {
			marker, err = br.ReadByte()
			if err != nil {
				return err
			}
		}

		if marker == 0xd9 { // EOI
			if _, err := bw.Write([]byte{0xff, 0xd9}); err != nil {
				return err
			}
			break
		}

		if marker == 0xda { // SOS: entropy-coded data runs to EOI
			if _, err := bw.Write([]byte{0xff, marker}); err != nil {
				return err
			}
			if _, err := io.Copy(bw, br); err != nil {
				return err
			}
			break
		}

		if marker == 0x01 || (marker >= 0xd0 && marker <= 0xd7) {
			if _, err := bw.Write([]byte{0xff, marker}); err != nil {
				return err
			}
			continue
		}

		lenBuf := make([]byte, 2)
		if _, err := io.ReadFull(br, lenBuf); err != nil {
			return err
		}
		segLen := int(binary.BigEndian.Uint16(lenBuf))
		if segLen < 2 {
			return fmt.Errorf("invalid JPEG segment length")
		}
		payload := make([]byte, segLen-2)
		if _, err := io.ReadFull(br, payload); err != nil {
			return err
		}

		if marker == 0xe0 && bytes.HasPrefix(payload, jfifHeader) {
			continue
		}

		if _, err := bw.Write([]byte{0xff, marker}); err != nil {
			return err
		}
		if _, err := bw.Write(lenBuf); err != nil {
			return err
		}
		if _, err := bw.Write(payload); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func jfifSegment(dpi int) []byte {
	seg := make([]byte, 0, 18)
	seg = append(seg, 0xff, 0xe0, 0x00, 0x10)
	seg = append(seg, jfifHeader...)
	seg = append(seg, 0x01, 0x01) // version 1.01
	seg = append(seg, 0x01)       // units: dots per inch
	seg = binary.BigEndian.AppendUint16(seg, uint16(dpi))
	seg = binary.BigEndian.AppendUint16(seg, uint16(dpi))
	seg = append(seg, 0x00, 0x00) // no thumbnail
	return seg
}
