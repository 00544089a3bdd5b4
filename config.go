package gorad

import "fmt"

// IterationMethod selects the gathering/shooting strategy driving the
// iteration loop (§3, §4.10).
type IterationMethod uint8

const (
	Jacobi IterationMethod = iota
	GaussSeidel
	Southwell
)

func (m IterationMethod) String() string {
	switch m {
	case Jacobi:
		return "jacobi"
	case GaussSeidel:
		return "gauss_seidel"
	case Southwell:
		return "southwell"
	default:
		return fmt.Sprintf("IterationMethod(%d)", uint8(m))
	}
}

// Shooting reports whether the method shoots un-shot radiance (Southwell)
// as opposed to gathering (Jacobi, Gauss-Seidel).
func (m IterationMethod) Shooting() bool { return m == Southwell }

// BasisType selects the polynomial order of the radiance basis on surface
// elements; clusters are always constant regardless of this setting.
type BasisType uint8

const (
	Constant BasisType = iota
	Linear
	Quadratic
	Cubic
)

// Size returns the number of basis coefficients for the given type: 1/3/6/10.
func (b BasisType) Size() int {
	switch b {
	case Constant:
		return 1
	case Linear:
		return 3
	case Quadratic:
		return 6
	case Cubic:
		return 10
	default:
		panic(fmt.Sprintf("invalid basis type %d", uint8(b)))
	}
}

// ErrorNorm selects the scaling used to turn relative_link_error_threshold
// into an absolute refinement threshold.
type ErrorNorm uint8

const (
	NormRadiance ErrorNorm = iota
	NormPower
)

// ClusteringStrategy selects how cluster source radiance and receiver area
// projections are computed.
type ClusteringStrategy uint8

const (
	Isotropic ClusteringStrategy = iota
	Oriented
	ZVisibility
)

// ShaftCullMode selects when occluder candidate lists are (re)computed.
type ShaftCullMode uint8

const (
	CullForRefinement ShaftCullMode = iota
	CullAlways
)

// ShaftCullStrategy selects how shaft culling treats geometries that only
// partially overlap a shaft.
type ShaftCullStrategy uint8

const (
	KeepClosed ShaftCullStrategy = iota
	OverlapOpen
	AlwaysOpen
)

// CubatureDegree selects a receiver/source cubature rule. Degrees 1-9 are
// simplex/tensor rules of increasing order; the three product variants
// cover quad-as-two-triangle tensor products.
type CubatureDegree uint8

const (
	Degree1 CubatureDegree = iota + 1
	Degree2
	Degree3
	Degree4
	Degree5
	Degree6
	Degree7
	Degree8
	Degree9
	ProductLow
	ProductMid
	ProductHigh
)

// Flags is a bitmask of recoverable-error behaviour bits, shaped after
// gsdf.Flags. No code in this module reads it: geometry degeneracies
// (coincident cubature nodes, back-facing samples) contribute zero and are
// neither reported nor counted, whatever bits are set, and Engine has no
// error accumulator.
type Flags uint64

const (
	// FlagAccumulateErrors is the accumulate-instead-of-panic bit
	// (§7's recoverable geometry degeneracies). Setting it changes no
	// behaviour, since nothing consults Flags.
	FlagAccumulateErrors Flags = 1 << iota
)

// Config holds every recognised solver option (§3 "Configuration"). It is
// read-only for the duration of a solve: Engine copies it at construction
// and never mutates the caller's struct.
type Config struct {
	IterationMethod    IterationMethod
	Hierarchical       bool
	Clustered          bool
	ImportanceDriven   bool
	BasisType          BasisType
	ReceiverCubature   CubatureDegree
	SourceCubature     CubatureDegree
	RelativeMinArea    float32
	RelativeLinkError  float32
	ErrorNorm          ErrorNorm
	ClusteringStrategy ClusteringStrategy
	ShaftCullMode      ShaftCullMode
	ShaftCullStrategy  ShaftCullStrategy
	ExactVisibility    bool
	MultiResVisibility bool
	ScratchFrameBufferSize int
	Flags              Flags
}

// DefaultConfig returns the option set named as defaults throughout §3:
// degree-5 receiver / degree-4 source cubature, hierarchical gathering
// (Jacobi) with clustering, a 200-pixel scratch frame buffer.
func DefaultConfig() Config {
	return Config{
		IterationMethod:        Jacobi,
		Hierarchical:           true,
		Clustered:              true,
		ImportanceDriven:       false,
		BasisType:              Constant,
		ReceiverCubature:       Degree5,
		SourceCubature:         Degree4,
		RelativeMinArea:        1e-6,
		RelativeLinkError:      1e-3,
		ErrorNorm:              NormPower,
		ClusteringStrategy:     ZVisibility,
		ShaftCullMode:          CullForRefinement,
		ShaftCullStrategy:      OverlapOpen,
		ExactVisibility:        false,
		MultiResVisibility:     false,
		ScratchFrameBufferSize: 200,
	}
}

// Validate reports a non-nil error for any structurally invalid option
// combination (§7 programming errors: invalid basis type and friends are
// caught earlier at the point of use; Validate catches the combinations
// that are invalid regardless of use).
func (c Config) Validate() error {
	if c.RelativeMinArea < 0 {
		return fmt.Errorf("gorad: negative RelativeMinArea")
	}
	if c.RelativeLinkError <= 0 {
		return fmt.Errorf("gorad: non-positive RelativeLinkError")
	}
	if c.ScratchFrameBufferSize <= 0 {
		return fmt.Errorf("gorad: non-positive ScratchFrameBufferSize")
	}
	switch c.BasisType {
	case Constant, Linear, Quadratic, Cubic:
	default:
		return fmt.Errorf("gorad: invalid basis type %d", uint8(c.BasisType))
	}
	return nil
}
