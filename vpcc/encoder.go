package vpcc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/vpcc-go/vpcc/gof"
	"github.com/vpcc-go/vpcc/mapgen"
	"github.com/vpcc-go/vpcc/normals"
	"github.com/vpcc-go/vpcc/patch"
	"github.com/vpcc-go/vpcc/geomlut"
	"github.com/vpcc-go/vpcc/pointcloud"
	"github.com/vpcc-go/vpcc/ppi"
	"github.com/vpcc-go/vpcc/slicing"
	"github.com/vpcc-go/vpcc/v3c"
	"github.com/vpcc-go/vpcc/videocodec"
	"github.com/vpcc-go/vpcc/voxel"
)

// ErrEncoderStopped is returned by EncodeFrame once StopEncoder has
// been called.
var ErrEncoderStopped = errors.New("vpcc: encoder stopped")

// cloudRGBSource adapts pointcloud.Cloud to mapgen.RGBSource.
type cloudRGBSource struct {
	cloud *pointcloud.Cloud
}

func (s cloudRGBSource) RGBAt(pointIndex int) (r, g, b uint8) {
	c := s.cloud.Attributes[pointIndex]
	return c[0], c[1], c[2]
}

// Encoder is the top-level V-PCC encoder: it runs each input frame
// through voxelization, normal estimation/orientation, PPI
// segmentation, patch generation, and map generation, batches the
// results into GOFs, and hands each finished GOF to the 2-D video
// codec collaborators, per spec.md §6.
type Encoder struct {
	params Parameters
	log    *slog.Logger

	orchestrator *gof.Orchestrator
	out          *v3c.Stream
	packer       patch.Packer

	sem *semaphore.Weighted
	wg  sync.WaitGroup

	mu         sync.Mutex
	current    *gof.GOF
	nextGOFID  int
	nextFrame  int
	stopped    bool
	firstErr   error
}

// NewEncoder validates params and wires the three 2-D encoder
// collaborators named in params.*EncoderName. out receives the coded
// chunks this encoder produces; StopEncoder closes it after pushing the
// end-of-stream chunk.
func NewEncoder(params Parameters, out *v3c.Stream, log *slog.Logger) (*Encoder, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}

	occ, err := videocodec.New(params.OccupancyEncoderName)
	if err != nil {
		return nil, fmt.Errorf("vpcc: occupancy encoder: %w", err)
	}
	geo, err := videocodec.New(params.GeometryEncoderName)
	if err != nil {
		return nil, fmt.Errorf("vpcc: geometry encoder: %w", err)
	}
	attr, err := videocodec.New(params.AttributeEncoderName)
	if err != nil {
		return nil, fmt.Errorf("vpcc: attribute encoder: %w", err)
	}

	maxConcurrent := params.MaxConcurrentFrames
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.NumCPU()
	}

	mode := videocodec.ModeAllIntra
	if params.IntraFramePeriod > 1 {
		mode = videocodec.ModeRandomAccess
	}
	occCfg := videocodec.Config{Threads: params.OccupancyEncoderNbThread, Preset: params.OccupancyEncoderPreset, Mode: mode, GOPSize: params.SizeGOP2DEncoding}
	geoCfg := videocodec.Config{QP: params.GeometryEncoderQp, Threads: params.GeometryEncoderNbThread, Preset: params.GeometryEncoderPreset, Mode: mode, GOPSize: params.SizeGOP2DEncoding}
	attrCfg := videocodec.Config{QP: params.AttributeEncoderQp, Threads: params.AttributeEncoderNbThread, Preset: params.AttributeEncoderPreset, Mode: mode, GOPSize: params.SizeGOP2DEncoding}

	return &Encoder{
		params:       params,
		log:          log.With("component", "vpcc-encoder"),
		orchestrator: gof.NewOrchestrator(occ, geo, attr, params.DoubleLayer, mapgen.ColorFastInteger, occCfg, geoCfg, attrCfg, log),
		out:          out,
		packer:       patch.ShelfPacker{},
		sem:          semaphore.NewWeighted(int64(maxConcurrent)),
	}, nil
}

// SetPacker overrides the default shelf packer used to place patches in
// atlas space before rasterization. Exposed so tests (and callers that
// want a packing layout beyond the scope of this module) can supply
// their own; call it before EncodeFrame, since buildFrame does not lock
// around reading it.
func (e *Encoder) SetPacker(p patch.Packer) {
	e.packer = p
}

// EncodeFrame runs the full per-frame pipeline and appends the result
// to the encoder's in-flight GOF, flushing that GOF to the 2-D
// encoders once it reaches params.SizeGOF frames.
func (e *Encoder) EncodeFrame(ctx context.Context, cloud *pointcloud.Cloud) error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return ErrEncoderStopped
	}
	frameID := e.nextFrame
	e.nextFrame++
	e.mu.Unlock()

	frame, err := e.buildFrame(frameID, cloud)
	if err != nil {
		return e.handleError(fmt.Errorf("vpcc: frame %d: %w", frameID, err))
	}

	e.mu.Lock()
	if e.current == nil {
		e.current = gof.New(e.nextGOFID, e.params.MapWidth, e.params.OccupancyMapResolution)
	}
	e.current.AddFrame(frame)
	full := len(e.current.Frames) >= e.params.SizeGOF
	var toFlush *gof.GOF
	if full {
		toFlush = e.current
		e.current = nil
		e.nextGOFID++
	}
	e.mu.Unlock()

	if toFlush != nil {
		e.flushAsync(ctx, toFlush)
	}
	return nil
}

// buildFrame runs one point cloud through voxelization, normal
// estimation/orientation, PPI segmentation, patch generation, and map
// generation, producing the gof.Frame that AlignHeights/EncodeGOF
// consume.
func (e *Encoder) buildFrame(frameID int, cloud *pointcloud.Cloud) (*gof.Frame, error) {
	if err := cloud.Validate(); err != nil {
		return nil, err
	}

	grid, err := voxel.Voxelize(cloud.Geometry, e.params.GeoBitDepthInput, e.params.GeoBitDepthVoxelized)
	if err != nil {
		return nil, fmt.Errorf("voxelize: %w", err)
	}

	var ppis []int
	var normalList []geomlut.Vec3

	if e.params.ActivateSlicing {
		// Path B (spec.md §4.5): contour weaving assigns PPI directly
		// from geometry, skipping normal estimation/orientation.
		ppis, normalList = slicing.Segment(grid.Voxels)
	} else {
		// Path A (spec.md §4.4): normal estimation + orientation feeds
		// the initial argmax-over-planes PPI assignment.
		idx := geomlut.NewKNNIndex(grid.Voxels, 8)

		est := normals.NewEstimator(e.params.NormalComputationKnnCount, e.params.NormalComputationMaxDiagonalStep)
		normalList = est.Estimate(grid.Voxels, idx)

		orient := normals.NewOrienter(e.params.NormalOrientationKnnCount)
		orient.Orient(grid.Voxels, idx, normalList)

		ppis = ppi.AssignInitial(normalList)
	}

	refiner := ppi.NewRefineSegmenter(
		e.params.GeoBitDepthRefineSegmentation,
		e.params.RefineSegmentationMaxNNVoxelDistance,
		e.params.RefineSegmentationMaxNNTotalPoints,
		e.params.RefineSegmentationLambda,
		e.params.RefineSegmentationIterationCount,
	)
	ppis = refiner.Refine(grid.Voxels, e.params.GeoBitDepthVoxelized, normalList, ppis)

	segCfg := patch.Config{
		MaxAllowedDist2RawPointsDetection: e.params.MaxAllowedDist2RawPointsDetection,
		MinPointCountPerCC:                e.params.MinPointCountPerCC,
		MaxPropagationDistance:            e.params.PatchSegmentationMaxPropagationDist,
		MinLevel:                          e.params.MinLevel,
		SurfaceThickness:                  e.params.SurfaceThickness,
		OccupancyMapDSResolution:          e.params.OccupancyMapResolution,
		DoubleLayer:                       e.params.DoubleLayer,
	}
	segmenter := patch.NewSegmenter(segCfg)
	patches := segmenter.Generate(grid.Voxels, ppis, e.params.GeoBitDepthVoxelized)

	mapWidthBlocks := e.params.MapWidth / e.params.OccupancyMapResolution
	e.packer.Pack(patches, mapWidthBlocks)

	height := e.packHeight(patches)
	atlas := mapgen.NewAtlas(e.params.MapWidth, height, e.params.OccupancyMapResolution, e.params.BackgroundValueGeometry, e.params.BackgroundValueAttribute, e.params.DoubleLayer)

	src := cloudRGBSource{cloud: cloud}
	for _, p := range patches {
		mapgen.Rasterize(atlas, p, src)
	}
	mapgen.DownscaleOccupancy(atlas, e.params.OccupancyMapThreshold)
	if e.params.MapGenerationFillEmptyBlock {
		mapgen.FillGeometry(atlas)
		bgMode, _ := attributeBgFillMode(e.params.AttributeBgFill) // validated at NewEncoder
		mapgen.FillAttribute(atlas, bgMode, e.params.BlockSizeBBPE)
	}

	return &gof.Frame{ID: frameID, Patches: patches, Atlas: atlas}, nil
}

// packHeight computes the minimum atlas height (a multiple of
// OccupancyMapResolution, at least MinimumMapHeight) that fits every
// patch at its assigned vertical offset.
func (e *Encoder) packHeight(patches []*patch.Patch) int {
	r := e.params.OccupancyMapResolution
	maxY := e.params.MinimumMapHeight
	for _, p := range patches {
		bottom := (p.OmDSPosY + p.AtlasHeightBlocks()) * r
		if bottom > maxY {
			maxY = bottom
		}
	}
	if rem := maxY % r; rem != 0 {
		maxY += r - rem
	}
	return maxY
}

// flushAsync encodes and pushes a completed GOF in the background,
// bounded by the encoder's concurrency semaphore so at most
// MaxConcurrentFrames-equivalent GOFs are in flight at once.
func (e *Encoder) flushAsync(ctx context.Context, g *gof.GOF) {
	if err := e.sem.Acquire(ctx, 1); err != nil {
		e.handleError(err)
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer e.sem.Release(1)
		if err := e.orchestrator.EncodeAndPush(ctx, g, e.out); err != nil {
			e.handleError(fmt.Errorf("vpcc: GOF %d: %w", g.ID, err))
		}
	}()
}

// EmptyFrameQueue flushes any partially filled GOF immediately rather
// than waiting for it to reach params.SizeGOF, per spec.md §6's
// end-of-stream handling.
func (e *Encoder) EmptyFrameQueue(ctx context.Context) error {
	e.mu.Lock()
	toFlush := e.current
	e.current = nil
	if toFlush != nil {
		e.nextGOFID++
	}
	e.mu.Unlock()

	if toFlush != nil {
		e.flushAsync(ctx, toFlush)
	}
	return nil
}

// StopEncoder waits for every in-flight GOF encode to finish, pushes
// the end-of-stream sentinel, and closes the output stream. No further
// EncodeFrame calls are accepted afterward.
func (e *Encoder) StopEncoder(ctx context.Context) error {
	e.mu.Lock()
	e.stopped = true
	e.mu.Unlock()

	e.wg.Wait()

	e.mu.Lock()
	err := e.firstErr
	e.mu.Unlock()
	if err != nil && e.params.ErrorsAreFatal {
		e.out.Close()
		return err
	}

	_ = e.out.Push(ctx, v3c.Chunk{Kind: v3c.ChunkEnd})
	e.out.Close()
	return err
}

func (e *Encoder) handleError(err error) error {
	e.mu.Lock()
	if e.firstErr == nil {
		e.firstErr = err
	}
	fatal := e.params.ErrorsAreFatal
	e.mu.Unlock()

	e.log.Error("encoder error", "error", err, "fatal", fatal)
	if fatal {
		_ = e.out.Push(context.Background(), v3c.Chunk{Kind: v3c.ChunkError, Err: err})
	}
	return err
}
