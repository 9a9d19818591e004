// Package videocodec abstracts the external 2-D video codec that turns
// a GOF's occupancy, geometry, and attribute map sequences into coded
// bitstreams, per spec.md §6. No Go binding for a real 2-D video codec
// (Kvazaar, the reference encoder's collaborator) appears anywhere in
// the example corpus, and the one project that vendors an ffmpeg
// wrapper (NOT-REAL-GAMES/ffmpeggo) is not a fetchable module - its own
// go.mod resolves through local filesystem replace directives. Rather
// than fabricate a dependency, this package defines the collaborator
// interface the reference encoder's Abstract2DMapEncoder describes and
// ships a deterministic reference implementation, so the rest of the
// pipeline has a real, testable seam to a future cgo or subprocess
// binding.
package videocodec

import "fmt"

// MapType identifies which of the three per-frame maps is being coded,
// mirroring the reference encoder's ENCODER_TYPE.
type MapType int

const (
	MapOccupancy MapType = iota
	MapGeometry
	MapAttribute
)

func (m MapType) String() string {
	switch m {
	case MapOccupancy:
		return "occupancy"
	case MapGeometry:
		return "geometry"
	case MapAttribute:
		return "attribute"
	default:
		return fmt.Sprintf("unknown(%d)", int(m))
	}
}

// EncodingMode selects intra-only ("AI") or random-access ("RA") coding
// structure, the two modes the reference Kvazaar collaborator supports.
type EncodingMode int

const (
	ModeAllIntra EncodingMode = iota
	ModeRandomAccess
)

// Config configures one MapType's encoder for the lifetime of a single
// GOF, mirroring the per-map fields of the reference encoder's
// Parameters struct (threads/preset/qp/lossless/mode).
type Config struct {
	MapType     MapType
	Width       int
	Height      int
	Lossless    bool
	QP          int
	Mode        EncodingMode
	GOPSize     int
	Threads     int
	Preset      string
}

// Encoder codes a sequence of YUV420-planar frames belonging to one
// GOF into a single bitstream. The caller passes the Config with every
// EncodeGOF call; vpcc.Encoder keeps one instance per map type and reuses
// it for every GOF, and GOFs may be encoded concurrently, so an
// implementation must be safe for concurrent EncodeGOF calls.
type Encoder interface {
	// EncodeGOF codes frames (each a YUV420-planar buffer of
	// 1.5*Width*Height bytes) in order and returns the concatenated
	// bitstream.
	EncodeGOF(cfg Config, frames [][]byte) ([]byte, error)
}

// Factory constructs a named Encoder, the same role
// MapEncoding::initializeEncoderPointers plays in the reference
// encoder (dispatching on occupancyEncoderName/geometryEncoderName/
// attributeEncoderName).
type Factory func() Encoder

var registry = map[string]Factory{
	"reference": func() Encoder { return &ReferenceEncoder{} },
}

// Register adds a named Encoder implementation, letting a caller wire
// in a real codec binding without this package depending on it.
func Register(name string, f Factory) {
	registry[name] = f
}

// New constructs the named encoder. Unknown names return an error.
func New(name string) (Encoder, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("videocodec: unknown encoder %q", name)
	}
	return f(), nil
}
