// Package gof batches frames into groups (GOFs) sharing one coded map
// resolution and drives the three 2-D video codec collaborators
// (occupancy, geometry, attribute) over each group, per spec.md §4.11
// and §6.
package gof

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/vpcc-go/vpcc/mapgen"
	"github.com/vpcc-go/vpcc/patch"
	"github.com/vpcc-go/vpcc/v3c"
	"github.com/vpcc-go/vpcc/videocodec"
)

// ErrEmptyGOF is returned when EncodeGOF is called on a group with no
// frames.
var ErrEmptyGOF = errors.New("gof: group has no frames")

// Frame wraps one point cloud frame's generated patch list and atlas,
// the unit gof.GOF batches.
type Frame struct {
	ID      int
	Patches []*patch.Patch
	Atlas   *mapgen.Atlas
}

// GOF is a group of frames that will be coded together by the 2-D
// video codec, sharing one map width and (after AlignHeights) one map
// height, per spec.md §4.11.
type GOF struct {
	ID           int
	Width        int
	DSResolution int
	MapsHeight   int
	Frames       []*Frame
}

// New creates an empty GOF. Width and dsResolution must match every
// frame later added to it.
func New(id, width, dsResolution int) *GOF {
	return &GOF{ID: id, Width: width, DSResolution: dsResolution}
}

// AddFrame appends a frame to the group.
func (g *GOF) AddFrame(f *Frame) {
	g.Frames = append(g.Frames, f)
}

// AlignHeights pads every frame's atlas up to the tallest frame's
// height (rounded up to a multiple of 8*DSResolution, so the downscaled
// occupancy map height is a multiple of 8), so the whole group can be
// coded as one fixed-resolution 2-D video sequence.
func (g *GOF) AlignHeights() {
	maxH := 0
	for _, f := range g.Frames {
		if f.Atlas.Height > maxH {
			maxH = f.Atlas.Height
		}
	}
	step := 8 * g.DSResolution
	if rem := maxH % step; rem != 0 {
		maxH += step - rem
	}
	g.MapsHeight = maxH
	for _, f := range g.Frames {
		f.Atlas.GrowHeight(maxH)
	}
}

// Bitstreams holds the three coded bitstreams produced for one GOF.
type Bitstreams struct {
	Occupancy []byte
	Geometry  []byte
	Attribute []byte
}

// Orchestrator drives the three per-map 2-D encoders over a GOF,
// generalizing MapEncoding::encodeGOFMaps's sequential occupancy ->
// geometry -> attribute calls into three concurrent encodes, since the
// three map types have no data dependency on one another.
type Orchestrator struct {
	log *slog.Logger

	occupancy videocodec.Encoder
	geometry  videocodec.Encoder
	attribute videocodec.Encoder

	// occCfg/geoCfg/attrCfg are per-stream templates drawn from
	// spec.md §6's occupancyEncoder{...}/geometryEncoder{...}/
	// attributeEncoder{...} parameter families; EncodeGOF overlays each
	// with the GOF's actual MapType/Width/Height before use.
	occCfg  videocodec.Config
	geoCfg  videocodec.Config
	attrCfg videocodec.Config

	doubleLayer bool
	chromaMode  mapgen.ColorMode
}

// NewOrchestrator builds an Orchestrator around three already-configured
// encoder instances, one per map type, plus the per-stream encoding
// options (QP, thread count, preset, GOP shape) spec.md §6 names. If log
// is nil, slog.Default() is used.
func NewOrchestrator(occupancy, geometry, attribute videocodec.Encoder, doubleLayer bool, chromaMode mapgen.ColorMode, occCfg, geoCfg, attrCfg videocodec.Config, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		log:         log.With("component", "gof-orchestrator"),
		occupancy:   occupancy,
		geometry:    geometry,
		attribute:   attribute,
		occCfg:      occCfg,
		geoCfg:      geoCfg,
		attrCfg:     attrCfg,
		doubleLayer: doubleLayer,
		chromaMode:  chromaMode,
	}
}

// EncodeGOF aligns the group's frame heights, then codes the
// occupancy, geometry, and attribute map sequences concurrently.
func (o *Orchestrator) EncodeGOF(ctx context.Context, g *GOF) (*Bitstreams, error) {
	if len(g.Frames) == 0 {
		return nil, ErrEmptyGOF
	}
	g.AlignHeights()
	o.log.Info("encoding GOF", "gofId", g.ID, "frames", len(g.Frames), "width", g.Width, "height", g.MapsHeight)

	occFrames := make([][]byte, len(g.Frames))
	geoFrames := make([][]byte, 0, len(g.Frames)*2)
	attrFrames := make([][]byte, 0, len(g.Frames)*2)

	dsWidth := g.Width / g.DSResolution
	dsHeight := g.MapsHeight / g.DSResolution

	for i, f := range g.Frames {
		occFrames[i] = mapgen.ToYUV420Mono(f.Atlas.OccupancyMapDS, dsWidth, dsHeight)
		geoFrames = append(geoFrames, mapgen.ToYUV420Mono(f.Atlas.GeometryMapL1, g.Width, g.MapsHeight))
		attrFrames = append(attrFrames, mapgen.ConvertToYUV420(f.Atlas.AttributeMapL1, g.Width, g.MapsHeight, o.chromaMode))
		if o.doubleLayer {
			geoFrames = append(geoFrames, mapgen.ToYUV420Mono(f.Atlas.GeometryMapL2, g.Width, g.MapsHeight))
			attrFrames = append(attrFrames, mapgen.ConvertToYUV420(f.Atlas.AttributeMapL2, g.Width, g.MapsHeight, o.chromaMode))
		}
	}

	var occBits, geoBits, attrBits []byte
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		cfg := o.occCfg
		cfg.MapType, cfg.Width, cfg.Height, cfg.Lossless = videocodec.MapOccupancy, dsWidth, dsHeight, true
		var err error
		occBits, err = o.occupancy.EncodeGOF(cfg, occFrames)
		if err != nil {
			return fmt.Errorf("gof %d: occupancy encode: %w", g.ID, err)
		}
		return egCtx.Err()
	})
	eg.Go(func() error {
		cfg := o.geoCfg
		cfg.MapType, cfg.Width, cfg.Height = videocodec.MapGeometry, g.Width, g.MapsHeight
		var err error
		geoBits, err = o.geometry.EncodeGOF(cfg, geoFrames)
		if err != nil {
			return fmt.Errorf("gof %d: geometry encode: %w", g.ID, err)
		}
		return egCtx.Err()
	})
	eg.Go(func() error {
		cfg := o.attrCfg
		cfg.MapType, cfg.Width, cfg.Height = videocodec.MapAttribute, g.Width, g.MapsHeight
		var err error
		attrBits, err = o.attribute.EncodeGOF(cfg, attrFrames)
		if err != nil {
			return fmt.Errorf("gof %d: attribute encode: %w", g.ID, err)
		}
		return egCtx.Err()
	})

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return &Bitstreams{Occupancy: occBits, Geometry: geoBits, Attribute: attrBits}, nil
}

// EncodeAndPush encodes the group and pushes its three bitstreams onto
// out as tagged chunks, in occupancy/geometry/attribute order.
func (o *Orchestrator) EncodeAndPush(ctx context.Context, g *GOF, out *v3c.Stream) error {
	bits, err := o.EncodeGOF(ctx, g)
	if err != nil {
		return err
	}
	chunks := []v3c.Chunk{
		{Kind: v3c.ChunkOccupancy, GOFIndex: g.ID, Payload: bits.Occupancy},
		{Kind: v3c.ChunkGeometry, GOFIndex: g.ID, Payload: bits.Geometry},
		{Kind: v3c.ChunkAttribute, GOFIndex: g.ID, Payload: bits.Attribute},
	}
	for _, c := range chunks {
		if err := out.Push(ctx, c); err != nil {
			return fmt.Errorf("gof %d: push chunk %s: %w", g.ID, c.Kind, err)
		}
	}
	return nil
}
