package codec

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"
)

var pngSignature = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

// setPNGDensity rewrites a PNG stream so a pHYs chunk declaring dpi follows
// IHDR. Existing pHYs chunks are dropped.
func setPNGDensity(r io.Reader, w io.Writer, dpi int) error {
	if dpi <= 0 {
		return fmt.Errorf("density %d out of range", dpi)
	}

	br := bufio.NewReader(r)
	bw := bufio.NewWriter(w)

	sig := make([]byte, 8)
	if _, err := io.ReadFull(br, sig); err != nil {
		return err
	}
	if !bytes.Equal(sig, pngSignature) {
		return fmt.Errorf("invalid PNG signature")
	}
	if _, err := bw.Write(sig); err != nil {
		return err
	}

	for {
		lenBuf := make([]byte, 4)
		if _, err := io.ReadFull(br, lenBuf); err != nil {
			if err == io.EOF {
				break
			}
			return err
		}
		length := binary.BigEndian.Uint32(lenBuf)

		typeBuf := make([]byte, 4)
		if _, err := io.ReadFull(br, typeBuf); err != nil {
			return err
		}
		chunkName := string(typeBuf)

		if chunkName == "pHYs" {
			if _, err := io.CopyN(io.Discard, br, int64(length)+4); err != nil {
				return err
			}
			continue
		}

		if _, err := bw.Write(lenBuf); err != nil {
			return err
		}
		if _, err := bw.Write(typeBuf); err != nil {
			return err
		}
		if _, err := io.CopyN(bw, br, int64(length)+4); err != nil {
			return err
		}

		if chunkName == "IHDR" {
			if _, err := bw.Write(physChunk(dpi)); err != nil {
				return err
			}
		}
		if chunkName == "IEND" {
			break
		}
	}

	return bw.Flush()
}

func physChunk(dpi int) []byte {
	ppm := uint32(math.Round(float64(dpi) / metersPerInch))
	data := make([]byte, 0, 9)
	data = binary.BigEndian.AppendUint32(data, ppm)
	data = binary.BigEndian.AppendUint32(data, ppm)
	data = append(data, 0x01) // unit: metre
	return pngChunk("pHYs", data)
}

func pngChunk(chunkType string, data []byte) []byte {
	chunk := make([]byte, 0, 12+len(data))
	chunk = binary.BigEndian.AppendUint32(chunk, uint32(len(data)))
	chunk = append(chunk, chunkType...)
	chunk = append(chunk, data...)
	crc := crc32.ChecksumIEEE(chunk[4:])
	return binary.BigEndian.AppendUint32(chunk, crc)
}
