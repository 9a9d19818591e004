// Package vpcc ties the pointcloud, voxel, geomlut, normals, ppi,
// slicing, patch, mapgen, gof, v3c, and videocodec packages together
// into the top-level encoder described by spec.md §6.
package vpcc

import (
	"fmt"
	"strconv"

	"github.com/vpcc-go/vpcc/mapgen"
)

// Parameters holds every tunable of the encoder, mirroring the flat
// configuration struct the rest of this library's pipeline consumes.
// Defaults below are the "vox10" baseline; ApplyPreset overrides the
// ones a preset cares about.
type Parameters struct {
	// General
	GeoBitDepthInput    uint
	PresetName          string
	SizeGOF             int
	MaxConcurrentFrames int
	DoubleLayer         bool
	LogLevel            string
	ErrorsAreFatal      bool

	// Voxelization
	GeoBitDepthVoxelized uint

	// Normal computation
	NormalComputationKnnCount        int
	NormalComputationMaxDiagonalStep int

	// Normal orientation
	NormalOrientationKnnCount int

	// Refine segmentation (PPI smoothing)
	GeoBitDepthRefineSegmentation        uint
	RefineSegmentationMaxNNVoxelDistance int
	RefineSegmentationMaxNNTotalPoints   int
	RefineSegmentationLambda             float64
	RefineSegmentationIterationCount     int

	// Patch segmentation
	MaxAllowedDist2RawPointsDetection    int
	MinPointCountPerCC                   int
	PatchSegmentationMaxPropagationDist  int
	ActivateSlicing                      bool
	MinLevel                             int
	SurfaceThickness                     int

	// Patch packing / map generation
	MapWidth                       int
	MinimumMapHeight               int
	OccupancyMapResolution         int
	OccupancyMapThreshold          int
	MapGenerationFillEmptyBlock    bool
	BackgroundValueAttribute       byte
	BackgroundValueGeometry        byte
	AttributeBgFill                string // one of patchExtension,bbpe,pushPull,none
	BlockSizeBBPE                  int

	// 2D encoding, per spec.md §6's occupancyEncoder{...}/geometryEncoder{...}/
	// attributeEncoder{...} families plus the shared GOP-shape keys.
	OccupancyEncoderName     string
	OccupancyEncoderPreset   string
	OccupancyEncoderNbThread int
	GeometryEncoderName      string
	GeometryEncoderQp        int
	GeometryEncoderPreset    string
	GeometryEncoderNbThread  int
	AttributeEncoderName     string
	AttributeEncoderQp       int
	AttributeEncoderPreset   string
	AttributeEncoderNbThread int
	SizeGOP2DEncoding        int
	IntraFramePeriod         int
}

// DefaultParameters returns the vox10 baseline, grounded on the
// reference encoder's hard-coded struct-field defaults.
func DefaultParameters() Parameters {
	return Parameters{
		GeoBitDepthInput:                     10,
		PresetName:                           "slow",
		SizeGOF:                              32,
		MaxConcurrentFrames:                  0,
		DoubleLayer:                          true,
		LogLevel:                             "INFO",
		ErrorsAreFatal:                       true,
		GeoBitDepthVoxelized:                 10,
		NormalComputationKnnCount:            16,
		NormalComputationMaxDiagonalStep:     16,
		NormalOrientationKnnCount:            4,
		GeoBitDepthRefineSegmentation:        9,
		RefineSegmentationMaxNNVoxelDistance: 5,
		RefineSegmentationMaxNNTotalPoints:   64,
		RefineSegmentationLambda:             3.5,
		RefineSegmentationIterationCount:     5,
		MaxAllowedDist2RawPointsDetection:    5,
		MinPointCountPerCC:                  16,
		PatchSegmentationMaxPropagationDist:  3,
		ActivateSlicing:                      false,
		MinLevel:                             64,
		SurfaceThickness:                     4,
		MapWidth:                             1280,
		MinimumMapHeight:                     1280,
		OccupancyMapResolution:               4,
		OccupancyMapThreshold:                4,
		MapGenerationFillEmptyBlock:          true,
		BackgroundValueAttribute:             128,
		BackgroundValueGeometry:              128,
		AttributeBgFill:                      "patchExtension",
		BlockSizeBBPE:                        16,
		OccupancyEncoderName:                 "kvazaar",
		OccupancyEncoderPreset:               "ultrafast",
		OccupancyEncoderNbThread:             1,
		GeometryEncoderName:                  "kvazaar",
		GeometryEncoderQp:                    28,
		GeometryEncoderPreset:                "medium",
		GeometryEncoderNbThread:              1,
		AttributeEncoderName:                 "kvazaar",
		AttributeEncoderQp:                   32,
		AttributeEncoderPreset:               "medium",
		AttributeEncoderNbThread:             1,
		SizeGOP2DEncoding:                    32,
		IntraFramePeriod:                     1,
	}
}

// ApplyPreset overrides the subset of Parameters a named preset
// governs, mirroring the reference encoder's vox9_fast / vox9_slow
// presets. Unknown preset names are left as a no-op error.
func (p *Parameters) ApplyPreset(name string) error {
	switch name {
	case "fast":
		p.SizeGOF = 16
		p.GeoBitDepthVoxelized = 8
		p.NormalComputationKnnCount = 6
		p.NormalComputationMaxDiagonalStep = 4
		p.GeoBitDepthRefineSegmentation = 7
		p.RefineSegmentationMaxNNVoxelDistance = 2
		p.RefineSegmentationMaxNNTotalPoints = 32
		p.RefineSegmentationLambda = 3.5
		p.RefineSegmentationIterationCount = 3
		p.MinPointCountPerCC = 16
		p.MapWidth = 608
		p.MinimumMapHeight = 608
	case "slow":
		p.SizeGOF = 32
		p.GeoBitDepthVoxelized = 10
		p.NormalComputationKnnCount = 16
		p.NormalComputationMaxDiagonalStep = 16
		p.GeoBitDepthRefineSegmentation = 9
		p.RefineSegmentationMaxNNVoxelDistance = 5
		p.RefineSegmentationMaxNNTotalPoints = 64
		p.RefineSegmentationLambda = 3.5
		p.RefineSegmentationIterationCount = 5
		p.MinPointCountPerCC = 32
		p.MapWidth = 1280
		p.MinimumMapHeight = 1280
	default:
		return fmt.Errorf("vpcc: unknown preset %q. Did you mean %q?", name, suggestClosest(name, []string{"fast", "slow"}))
	}
	p.PresetName = name
	return nil
}

// Validate checks the cross-field preconditions spec.md §7 lists as
// fatal at encoder construction.
func (p *Parameters) Validate() error {
	if p.GeoBitDepthVoxelized == 0 || p.GeoBitDepthVoxelized > p.GeoBitDepthInput {
		return fmt.Errorf("vpcc: GeoBitDepthVoxelized (%d) must be in (0, GeoBitDepthInput=%d]", p.GeoBitDepthVoxelized, p.GeoBitDepthInput)
	}
	if p.GeoBitDepthRefineSegmentation == 0 || p.GeoBitDepthRefineSegmentation > p.GeoBitDepthVoxelized {
		return fmt.Errorf("vpcc: GeoBitDepthRefineSegmentation (%d) must be in (0, GeoBitDepthVoxelized=%d]", p.GeoBitDepthRefineSegmentation, p.GeoBitDepthVoxelized)
	}
	if p.SizeGOF <= 0 {
		return fmt.Errorf("vpcc: SizeGOF must be positive, got %d", p.SizeGOF)
	}
	if p.OccupancyMapResolution <= 0 {
		return fmt.Errorf("vpcc: OccupancyMapResolution must be positive, got %d", p.OccupancyMapResolution)
	}
	if p.MapWidth%p.OccupancyMapResolution != 0 {
		return fmt.Errorf("vpcc: MapWidth (%d) must be a multiple of OccupancyMapResolution (%d)", p.MapWidth, p.OccupancyMapResolution)
	}
	if p.MinimumMapHeight%p.OccupancyMapResolution != 0 {
		return fmt.Errorf("vpcc: MinimumMapHeight (%d) must be a multiple of OccupancyMapResolution (%d)", p.MinimumMapHeight, p.OccupancyMapResolution)
	}
	if _, err := attributeBgFillMode(p.AttributeBgFill); err != nil {
		return err
	}
	return nil
}

// attributeBgFillMode maps the AttributeBgFill string enum spec.md §6
// names (patchExtension, bbpe, pushPull, none) to the mapgen package's
// AttributeBackgroundMode.
func attributeBgFillMode(name string) (mapgen.AttributeBackgroundMode, error) {
	switch name {
	case "patchExtension", "":
		return mapgen.ModePatchExtension, nil
	case "bbpe":
		return mapgen.ModeBBPE, nil
	case "pushPull":
		return mapgen.ModePushPull, nil
	case "none":
		return mapgen.ModeNone, nil
	default:
		return 0, fmt.Errorf("vpcc: AttributeBgFill %q is not one of [patchExtension,bbpe,pushPull,none]", name)
	}
}

// parameterNames lists every field SetParameter accepts, used both for
// validation and for the closest-match suggestion on an unknown name.
var parameterNames = []string{
	"GeoBitDepthInput", "SizeGOF", "MaxConcurrentFrames", "DoubleLayer", "LogLevel", "ErrorsAreFatal",
	"GeoBitDepthVoxelized", "NormalComputationKnnCount", "NormalComputationMaxDiagonalStep",
	"NormalOrientationKnnCount", "GeoBitDepthRefineSegmentation", "RefineSegmentationMaxNNVoxelDistance",
	"RefineSegmentationMaxNNTotalPoints", "RefineSegmentationLambda", "RefineSegmentationIterationCount",
	"MaxAllowedDist2RawPointsDetection", "MinPointCountPerCC", "PatchSegmentationMaxPropagationDist",
	"ActivateSlicing", "MinLevel", "SurfaceThickness",
	"MapWidth", "MinimumMapHeight", "OccupancyMapResolution", "OccupancyMapThreshold",
	"MapGenerationFillEmptyBlock", "BackgroundValueAttribute", "BackgroundValueGeometry",
	"AttributeBgFill", "BlockSizeBBPE",
	"OccupancyEncoderName", "OccupancyEncoderPreset", "OccupancyEncoderNbThread",
	"GeometryEncoderName", "GeometryEncoderQp", "GeometryEncoderPreset", "GeometryEncoderNbThread",
	"AttributeEncoderName", "AttributeEncoderQp", "AttributeEncoderPreset", "AttributeEncoderNbThread",
	"SizeGOP2DEncoding", "IntraFramePeriod",
}

// SetParameter assigns a single named field from its string
// representation, the same interface a command-line front end or
// config file loader would drive. Unknown names return an error
// naming the closest known parameter, per spec.md §7.
func (p *Parameters) SetParameter(name, value string) error {
	switch name {
	case "GeoBitDepthInput":
		return setUint(&p.GeoBitDepthInput, value, name)
	case "SizeGOF":
		return setInt(&p.SizeGOF, value, name)
	case "MaxConcurrentFrames":
		return setInt(&p.MaxConcurrentFrames, value, name)
	case "DoubleLayer":
		return setBool(&p.DoubleLayer, value, name)
	case "LogLevel":
		p.LogLevel = value
	case "ErrorsAreFatal":
		return setBool(&p.ErrorsAreFatal, value, name)
	case "GeoBitDepthVoxelized":
		return setUint(&p.GeoBitDepthVoxelized, value, name)
	case "NormalComputationKnnCount":
		return setInt(&p.NormalComputationKnnCount, value, name)
	case "NormalComputationMaxDiagonalStep":
		return setInt(&p.NormalComputationMaxDiagonalStep, value, name)
	case "NormalOrientationKnnCount":
		return setInt(&p.NormalOrientationKnnCount, value, name)
	case "GeoBitDepthRefineSegmentation":
		return setUint(&p.GeoBitDepthRefineSegmentation, value, name)
	case "RefineSegmentationMaxNNVoxelDistance":
		return setInt(&p.RefineSegmentationMaxNNVoxelDistance, value, name)
	case "RefineSegmentationMaxNNTotalPoints":
		return setInt(&p.RefineSegmentationMaxNNTotalPoints, value, name)
	case "RefineSegmentationLambda":
		return setFloat(&p.RefineSegmentationLambda, value, name)
	case "RefineSegmentationIterationCount":
		return setInt(&p.RefineSegmentationIterationCount, value, name)
	case "MaxAllowedDist2RawPointsDetection":
		return setInt(&p.MaxAllowedDist2RawPointsDetection, value, name)
	case "MinPointCountPerCC":
		return setInt(&p.MinPointCountPerCC, value, name)
	case "PatchSegmentationMaxPropagationDist":
		return setInt(&p.PatchSegmentationMaxPropagationDist, value, name)
	case "ActivateSlicing":
		return setBool(&p.ActivateSlicing, value, name)
	case "MinLevel":
		return setInt(&p.MinLevel, value, name)
	case "SurfaceThickness":
		return setInt(&p.SurfaceThickness, value, name)
	case "MapWidth":
		return setInt(&p.MapWidth, value, name)
	case "MinimumMapHeight":
		return setInt(&p.MinimumMapHeight, value, name)
	case "OccupancyMapResolution":
		return setInt(&p.OccupancyMapResolution, value, name)
	case "OccupancyMapThreshold":
		return setInt(&p.OccupancyMapThreshold, value, name)
	case "MapGenerationFillEmptyBlock":
		return setBool(&p.MapGenerationFillEmptyBlock, value, name)
	case "AttributeBgFill":
		p.AttributeBgFill = value
	case "BlockSizeBBPE":
		return setInt(&p.BlockSizeBBPE, value, name)
	case "OccupancyEncoderName":
		p.OccupancyEncoderName = value
	case "OccupancyEncoderPreset":
		p.OccupancyEncoderPreset = value
	case "OccupancyEncoderNbThread":
		return setInt(&p.OccupancyEncoderNbThread, value, name)
	case "GeometryEncoderName":
		p.GeometryEncoderName = value
	case "GeometryEncoderQp":
		return setInt(&p.GeometryEncoderQp, value, name)
	case "GeometryEncoderPreset":
		p.GeometryEncoderPreset = value
	case "GeometryEncoderNbThread":
		return setInt(&p.GeometryEncoderNbThread, value, name)
	case "AttributeEncoderName":
		p.AttributeEncoderName = value
	case "AttributeEncoderQp":
		return setInt(&p.AttributeEncoderQp, value, name)
	case "AttributeEncoderPreset":
		p.AttributeEncoderPreset = value
	case "AttributeEncoderNbThread":
		return setInt(&p.AttributeEncoderNbThread, value, name)
	case "SizeGOP2DEncoding":
		return setInt(&p.SizeGOP2DEncoding, value, name)
	case "IntraFramePeriod":
		return setInt(&p.IntraFramePeriod, value, name)
	default:
		return fmt.Errorf("vpcc: %q is not a valid parameter name. Did you mean %q?", name, suggestClosest(name, parameterNames))
	}
	return nil
}

func setUint(dst *uint, value, name string) error {
	v, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return fmt.Errorf("vpcc: parameter %q: %q is not a valid unsigned integer", name, value)
	}
	*dst = uint(v)
	return nil
}

func setInt(dst *int, value, name string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("vpcc: parameter %q: %q is not a valid integer", name, value)
	}
	*dst = v
	return nil
}

func setFloat(dst *float64, value, name string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("vpcc: parameter %q: %q is not a valid number", name, value)
	}
	*dst = v
	return nil
}

func setBool(dst *bool, value, name string) error {
	switch value {
	case "true", "True", "1":
		*dst = true
	case "false", "False", "0":
		*dst = false
	default:
		return fmt.Errorf("vpcc: parameter %q: %q is not a valid boolean, accepted values are [true,false,1,0]", name, value)
	}
	return nil
}

// suggestClosest returns the candidate with the smallest Levenshtein
// distance to name, breaking ties by the earlier candidate in options.
func suggestClosest(name string, options []string) string {
	best := ""
	bestDist := -1
	for _, opt := range options {
		d := levenshtein(name, opt)
		if bestDist == -1 || d < bestDist {
			bestDist = d
			best = opt
		}
	}
	return best
}

func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		cur[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := cur[j-1] + 1
			sub := prev[j-1] + cost
			cur[j] = minOf3(del, ins, sub)
		}
		prev, cur = cur, prev
	}
	return prev[len(rb)]
}

func minOf3(a, b, c int) int {
	return min(a, min(b, c))
}
