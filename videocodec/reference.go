package videocodec

import (
	"encoding/binary"
	"fmt"
)

// ReferenceEncoder is a deterministic stand-in 2-D codec: each frame is
// stored length-prefixed and otherwise untouched. It is lossless and
// trivially reversible, which makes pipeline wiring and tests exercise
// the real Encoder interface without depending on cgo or an external
// binary. It is not a compressor and must not be mistaken for one.
type ReferenceEncoder struct{}

// EncodeGOF concatenates frames as [uint32 length][bytes]... records,
// preceded by a [uint32 frameCount][uint32 width][uint32 height] header
// so DecodeGOF can reconstruct the frame boundaries and the plane
// layout the caller encoded with.
func (ReferenceEncoder) EncodeGOF(cfg Config, frames [][]byte) ([]byte, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("videocodec: invalid dimensions %dx%d", cfg.Width, cfg.Height)
	}
	expected := cfg.Width*cfg.Height + (cfg.Width*cfg.Height)/2
	out := make([]byte, 12)
	binary.LittleEndian.PutUint32(out[0:4], uint32(len(frames)))
	binary.LittleEndian.PutUint32(out[4:8], uint32(cfg.Width))
	binary.LittleEndian.PutUint32(out[8:12], uint32(cfg.Height))

	for i, frame := range frames {
		if len(frame) != expected {
			return nil, fmt.Errorf("videocodec: frame %d has %d bytes, want %d for %dx%d YUV420", i, len(frame), expected, cfg.Width, cfg.Height)
		}
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(frame)))
		out = append(out, lenBuf[:]...)
		out = append(out, frame...)
	}
	return out, nil
}

// DecodeGOF reverses EncodeGOF, returning the frame list, width, and
// height encoded in the bitstream header.
func DecodeGOF(bitstream []byte) (frames [][]byte, width, height int, err error) {
	if len(bitstream) < 12 {
		return nil, 0, 0, fmt.Errorf("videocodec: bitstream too short for header")
	}
	count := binary.LittleEndian.Uint32(bitstream[0:4])
	width = int(binary.LittleEndian.Uint32(bitstream[4:8]))
	height = int(binary.LittleEndian.Uint32(bitstream[8:12]))

	pos := 12
	frames = make([][]byte, 0, count)
	for i := uint32(0); i < count; i++ {
		if pos+4 > len(bitstream) {
			return nil, 0, 0, fmt.Errorf("videocodec: truncated length prefix for frame %d", i)
		}
		n := int(binary.LittleEndian.Uint32(bitstream[pos : pos+4]))
		pos += 4
		if pos+n > len(bitstream) {
			return nil, 0, 0, fmt.Errorf("videocodec: truncated payload for frame %d", i)
		}
		frames = append(frames, bitstream[pos:pos+n])
		pos += n
	}
	return frames, width, height, nil
}
