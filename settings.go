package fluidbake

import (
	"fluidbake/geom"
)

// DomainType selects the script flavor and stage set of the grid solver.
type DomainType int

const (
	DomainGas DomainType = iota
	DomainLiquid
)

func (t DomainType) String() string {
	if t == DomainLiquid {
		return "liquid"
	}
	return "gas"
}

// DomainSettings is the user-authored parameter block of one simulation
// domain. It is written back to the scene between bakes, so the bake
// state, pause markers, cache directory, and error string persist across
// sessions.
type DomainSettings struct {
	// Legacy solver parameters.
	Resolution        int
	PreviewResolution int
	MaxRefine         int // negative selects adaptive refinement
	ViscosityValue    float32
	ViscosityExponent int // viscosity = value * 10^-exponent
	Gravity           geom.Vec
	RealSize          float32 // domain edge length in meters
	GStar             float32
	FarFieldSize      float32
	AnimStart         float32
	AnimEnd           float32
	AnimRate          float32
	GenerateParticles float32
	GenerateTracers   int
	SurfaceSmoothing  float32
	SurfaceSubdivs    int
	Threads           int
	ObstacleType      ObstacleType
	PartSlip          float32
	SurfGenNoObs      bool
	NoVertexVectors   bool // legacy "domainNovecgen"

	// Filled in by the legacy controller at bake time.
	BakeStart     int
	BakeEnd       int
	BBStart       geom.Vec
	BBSize        geom.Vec
	LastGoodFrame int

	// Cache layout, shared by both back-ends.
	CacheDir        string
	CacheFrameStart int
	CacheFrameEnd   int

	// Grid solver (backend M) state machine.
	ID         int
	Type       DomainType
	State      State
	PauseFrame [StageCount]int
	Error      string

	Gas    GasSettings
	Liquid LiquidSettings
}

// Viscosity folds the mantissa/exponent pair into the real coefficient.
func (d *DomainSettings) Viscosity() float32 {
	return d.ViscosityValue / pow10(d.ViscosityExponent)
}

func pow10(e int) float32 {
	v := float32(1)
	for i := 0; i < e; i++ {
		v *= 10
	}
	return v
}

// Rate is the animation rate clamped to be non-negative.
func (d *DomainSettings) Rate() float32 {
	if d.AnimRate < 0 {
		return 0
	}
	return d.AnimRate
}

// GasSettings parameterizes the smoke script family.
type GasSettings struct {
	UsingColors   bool
	UsingHeat     bool
	UsingFire     bool
	UsingNoise    bool
	UsingGuiding  bool
	UsingObstacle bool
	UsingInvel    bool

	OpenBounds      bool
	BoundaryWidth   int
	BoundConditions string // e.g. "xXyYzZ"
	ResX, ResY, ResZ int
	DT              float32
	CFL             float32

	Vorticity     float32
	BuoyancyAlpha float32
	BuoyancyBeta  float32
	AdvectOrder   int

	ColorR, ColorG, ColorB float32

	BurningRate     float32
	FlameSmoke      float32
	IgnitionTemp    float32
	MaxTemp         float32
	FlameSmokeColor geom.Vec

	NoiseUpres     int
	NoiseStrength  float32
	NoisePosScale  float32
	NoiseTimeAnim  float32
}

// LiquidSettings parameterizes the liquid script family.
type LiquidSettings struct {
	UsingMesh      bool
	UsingGuiding   bool
	UsingObstacle  bool
	UsingInvel     bool

	OpenBounds      bool
	BoundaryWidth   int
	BoundConditions string
	ResX, ResY, ResZ int
	DT              float32
	CFL             float32

	ParticleRadius     float32
	ParticleRandomness float32
	ParticleNumber     int
	ParticleMinimum    int
	ParticleMaximum    int
	FlipRatio          float32

	MeshUpres           int
	MeshSmoothenPos     int
	MeshSmoothenNeg     int
	MeshConcaveUpper    float32
	MeshConcaveLower    float32
	MeshParticleRadius  float32
}
