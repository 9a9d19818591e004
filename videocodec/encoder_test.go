package videocodec

import (
	"bytes"
	"testing"
)

func TestNewReferenceEncoder(t *testing.T) {
	t.Parallel()
	enc, err := New("reference")
	if err != nil {
		t.Fatalf("New(reference): %v", err)
	}
	if enc == nil {
		t.Fatal("New(reference) returned nil encoder")
	}
}

func TestNewUnknownEncoder(t *testing.T) {
	t.Parallel()
	if _, err := New("kvazaar"); err == nil {
		t.Fatal("expected error for unregistered encoder name")
	}
}

func TestReferenceEncoderRoundTrip(t *testing.T) {
	t.Parallel()
	enc := ReferenceEncoder{}
	cfg := Config{MapType: MapGeometry, Width: 4, Height: 4}
	frame1 := bytes.Repeat([]byte{0x11}, 4*4+(4*4)/2)
	frame2 := bytes.Repeat([]byte{0x22}, 4*4+(4*4)/2)

	bitstream, err := enc.EncodeGOF(cfg, [][]byte{frame1, frame2})
	if err != nil {
		t.Fatalf("EncodeGOF: %v", err)
	}

	frames, w, h, err := DecodeGOF(bitstream)
	if err != nil {
		t.Fatalf("DecodeGOF: %v", err)
	}
	if w != 4 || h != 4 {
		t.Fatalf("dims = %dx%d, want 4x4", w, h)
	}
	if len(frames) != 2 {
		t.Fatalf("len(frames) = %d, want 2", len(frames))
	}
	if !bytes.Equal(frames[0], frame1) || !bytes.Equal(frames[1], frame2) {
		t.Fatal("round-tripped frames do not match originals")
	}
}

func TestReferenceEncoderRejectsWrongFrameSize(t *testing.T) {
	t.Parallel()
	enc := ReferenceEncoder{}
	cfg := Config{Width: 4, Height: 4}
	if _, err := enc.EncodeGOF(cfg, [][]byte{{1, 2, 3}}); err == nil {
		t.Fatal("expected error for wrong-sized frame")
	}
}

func TestRegisterCustomEncoder(t *testing.T) {
	t.Parallel()
	Register("test-noop", func() Encoder { return ReferenceEncoder{} })
	enc, err := New("test-noop")
	if err != nil {
		t.Fatalf("New(test-noop): %v", err)
	}
	if _, ok := enc.(ReferenceEncoder); !ok {
		t.Fatal("registered factory did not return the expected type")
	}
}
