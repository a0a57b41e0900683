/*package config reads bake setups from gcfg files. A setup is one
[Domain] section plus any number of [Object "name"] subsections; it maps
onto the host interfaces in the root package, so the command line tool
can bake without a live host application.
*/
package config

import (
	"fmt"
	"strings"

	"gopkg.in/gcfg.v1"

	"fluidbake"
)

const ExampleSceneFile = `[Domain]

#######################
# Required Parameters #
#######################

# Solver back-end flavor. Must be one of [ gas | liquid ].
Type = liquid

# Grid resolution of the longest domain axis.
Resolution = 64

# (Inclusive) frame range to bake.
FrameStart = 1
FrameEnd   = 50

#######################
# Optional Parameters #
#######################

# Preview surface resolution. Clamped to Resolution when larger.
# PreviewResolution = 45

# Adaptive grid refinement depth. -1 picks a depth from Resolution.
# MaxRefine = -1

# Fluid viscosity is Viscosity * 10^-ViscosityExponent.
# Viscosity = 1
# ViscosityExponent = 6

# Domain gravity. A scene-level gravity override wins when enabled.
# GravityX = 0
# GravityY = 0
# GravityZ = -9.81

# Length of the longest domain axis in meters.
# RealSize = 0.5

# Animation range and speed driven through the sampled channels.
# AnimStart = 0
# AnimEnd   = 4
# AnimRate  = 1

# Worker threads for the solver. 0 picks the host's thread count.
# Threads = 0

# Cache directory. Paths starting with // are project-relative.
# CacheDir = //cache_fluid
# CacheFrameStart = 1
# CacheFrameEnd   = 50

[Object "inflow"]
# Role of the object. Must be one of
# [ fluid | obstacle | inflow | outflow | control ].
Kind = inflow

# Local-space location, scale, and rotation (degrees).
LocX = 0.2
LocY = 0.2
LocZ = 0.8

# Per-frame motion, applied on top of the location above.
# VelX = 0.01

# Initial velocity handed to emitted fluid.
InivelX = 0
InivelY = 0
InivelZ = -0.5

[Object "wall"]
Kind = obstacle

# Boundary condition. Must be one of [ noslip | partslip | freeslip ].
ObstacleType = partslip
PartSlip = 0.3`

// DomainConfig is the [Domain] section.
type DomainConfig struct {
	// Required
	Type       string
	Resolution int
	FrameStart int
	FrameEnd   int

	// Optional
	PreviewResolution int
	MaxRefine         int
	Viscosity         float64
	ViscosityExponent int
	GravityX          float64
	GravityY          float64
	GravityZ          float64
	RealSize          float64
	GStar             float64
	AnimStart         float64
	AnimEnd           float64
	AnimRate          float64
	GenerateParticles float64
	GenerateTracers   int
	SurfaceSmoothing  float64
	SurfaceSubdivs    int
	Threads           int
	SurfGenNoObs      bool
	NoVertexVectors   bool

	CacheDir        string
	CacheFrameStart int
	CacheFrameEnd   int

	UnitScale float64
}

func (con *DomainConfig) ValidType() bool {
	switch strings.ToLower(con.Type) {
	case "gas", "liquid":
		return true
	}
	return false
}

func (con *DomainConfig) ValidResolution() bool {
	return con.Resolution > 0
}

func (con *DomainConfig) ValidFrameRange() bool {
	return con.FrameEnd >= con.FrameStart
}

// ObjectConfig is one [Object "name"] subsection.
type ObjectConfig struct {
	Kind string

	LocX, LocY, LocZ       float64
	ScaleX, ScaleY, ScaleZ float64
	RotX, RotY, RotZ       float64
	VelX, VelY, VelZ       float64

	InivelX, InivelY, InivelZ float64
	LocalInivelCoords         bool

	ObstacleType string
	PartSlip     float64

	VolumeInitType int
	ImpactFactor   float64

	Reverse          bool
	ControlTimeStart float64
	ControlTimeEnd   float64
	ControlQuality   float64

	AnimatedMesh bool

	Name string
}

// CheckInit validates the subsection and resolves its enum fields.
func (con *ObjectConfig) CheckInit(name string) error {
	switch strings.ToLower(con.Kind) {
	case "fluid", "obstacle", "inflow", "outflow", "control":
	default:
		return fmt.Errorf(
			"Kind of Object '%s' must be one of "+
				"[ fluid | obstacle | inflow | outflow | control ], "+
				"'%s' is not recognized.", name, con.Kind,
		)
	}

	switch strings.ToLower(con.ObstacleType) {
	case "", "noslip", "partslip", "freeslip":
	default:
		return fmt.Errorf(
			"ObstacleType of Object '%s' must be one of "+
				"[ noslip | partslip | freeslip ], '%s' is not recognized.",
			name, con.ObstacleType,
		)
	}

	if con.ScaleX == 0 && con.ScaleY == 0 && con.ScaleZ == 0 {
		con.ScaleX, con.ScaleY, con.ScaleZ = 1, 1, 1
	}

	con.Name = name
	return nil
}

func (con *ObjectConfig) kind() fluidbake.ObjectKind {
	switch strings.ToLower(con.Kind) {
	case "fluid":
		return fluidbake.KindFluid
	case "obstacle":
		return fluidbake.KindObstacle
	case "inflow":
		return fluidbake.KindInflow
	case "outflow":
		return fluidbake.KindOutflow
	case "control":
		return fluidbake.KindControl
	}
	return 0
}

func (con *ObjectConfig) obstacleType() fluidbake.ObstacleType {
	switch strings.ToLower(con.ObstacleType) {
	case "partslip":
		return fluidbake.ObstaclePartSlip
	case "freeslip":
		return fluidbake.ObstacleFreeSlip
	}
	return fluidbake.ObstacleNoSlip
}

// GasConfig is the optional [Gas] section.
type GasConfig struct {
	UsingColors   bool
	UsingHeat     bool
	UsingFire     bool
	UsingNoise    bool
	UsingGuiding  bool
	UsingObstacle bool
	UsingInvel    bool

	OpenBounds      bool
	BoundaryWidth   int
	BoundConditions string
	ResX, ResY, ResZ int
	DT  float64
	CFL float64

	Vorticity     float64
	BuoyancyAlpha float64
	BuoyancyBeta  float64
	AdvectOrder   int

	ColorR, ColorG, ColorB float64

	BurningRate      float64
	FlameSmoke       float64
	IgnitionTemp     float64
	MaxTemp          float64
	FlameSmokeColorX float64
	FlameSmokeColorY float64
	FlameSmokeColorZ float64

	NoiseUpres    int
	NoiseStrength float64
	NoisePosScale float64
	NoiseTimeAnim float64
}

// LiquidConfig is the optional [Liquid] section.
type LiquidConfig struct {
	UsingMesh     bool
	UsingGuiding  bool
	UsingObstacle bool
	UsingInvel    bool

	OpenBounds      bool
	BoundaryWidth   int
	BoundConditions string
	ResX, ResY, ResZ int
	DT  float64
	CFL float64

	ParticleRadius     float64
	ParticleRandomness float64
	ParticleNumber     int
	ParticleMinimum    int
	ParticleMaximum    int
	FlipRatio          float64

	MeshUpres          int
	MeshSmoothenPos    int
	MeshSmoothenNeg    int
	MeshConcaveUpper   float64
	MeshConcaveLower   float64
	MeshParticleRadius float64
}

// SceneConfig is the whole file.
type SceneConfig struct {
	Domain DomainConfig
	Gas    GasConfig
	Liquid LiquidConfig
	Object map[string]*ObjectConfig
}

// DefaultSceneConfig fills the optional fields the way the host UI
// does for a fresh domain.
func DefaultSceneConfig() *SceneConfig {
	con := &SceneConfig{}
	d := &con.Domain
	d.Type = "gas"
	d.PreviewResolution = 45
	d.MaxRefine = -1
	d.Viscosity = 1
	d.ViscosityExponent = 6
	d.GravityZ = -9.81
	d.RealSize = 0.5
	d.GStar = 0.005
	d.AnimEnd = 4
	d.AnimRate = 1
	d.SurfaceSmoothing = 1
	d.CacheDir = "//cache_fluid"
	d.CacheFrameStart = 1
	d.CacheFrameEnd = 50

	con.Gas.BoundaryWidth = 1
	con.Gas.BoundConditions = "xXyYzZ"
	con.Gas.DT = 0.1
	con.Gas.CFL = 4
	con.Gas.BuoyancyAlpha = 1
	con.Gas.BuoyancyBeta = 0.8
	con.Gas.AdvectOrder = 2
	con.Gas.BurningRate = 0.75
	con.Gas.FlameSmoke = 1
	con.Gas.IgnitionTemp = 1.5
	con.Gas.MaxTemp = 3
	con.Gas.NoiseUpres = 2
	con.Gas.NoiseStrength = 1
	con.Gas.NoisePosScale = 2
	con.Gas.NoiseTimeAnim = 0.1

	con.Liquid.BoundaryWidth = 1
	con.Liquid.BoundConditions = "xXyYzZ"
	con.Liquid.DT = 0.1
	con.Liquid.CFL = 4
	con.Liquid.ParticleRadius = 1
	con.Liquid.ParticleRandomness = 0.1
	con.Liquid.ParticleNumber = 2
	con.Liquid.ParticleMinimum = 8
	con.Liquid.ParticleMaximum = 16
	con.Liquid.FlipRatio = 0.97
	con.Liquid.MeshUpres = 2
	con.Liquid.MeshParticleRadius = 2

	return con
}

// Read parses fname into a fresh config with defaults applied.
func Read(fname string) (*SceneConfig, error) {
	con := DefaultSceneConfig()
	if err := gcfg.ReadFileInto(con, fname); err != nil {
		return nil, err
	}
	if err := con.check(); err != nil {
		return nil, err
	}
	return con, nil
}

// ReadString parses cfg text, for tests and embedded setups.
func ReadString(text string) (*SceneConfig, error) {
	con := DefaultSceneConfig()
	if err := gcfg.ReadStringInto(con, text); err != nil {
		return nil, err
	}
	if err := con.check(); err != nil {
		return nil, err
	}
	return con, nil
}

func (con *SceneConfig) check() error {
	d := &con.Domain
	if !d.ValidType() {
		return fmt.Errorf(
			"Domain Type must be one of [ gas | liquid ], '%s' is not "+
				"recognized.", d.Type,
		)
	}
	if !d.ValidResolution() {
		return fmt.Errorf("Need to specify a positive Domain Resolution.")
	}
	if !d.ValidFrameRange() {
		return fmt.Errorf(
			"Domain frame range [%d, %d] is empty.", d.FrameStart, d.FrameEnd,
		)
	}
	for name, ob := range con.Object {
		if err := ob.CheckInit(name); err != nil {
			return err
		}
	}
	return nil
}

// DomainSettings converts the [Domain] section (plus the flavor
// section) into the runtime parameter block.
func (con *SceneConfig) DomainSettings() *fluidbake.DomainSettings {
	d := &con.Domain
	typ := fluidbake.DomainGas
	if strings.ToLower(d.Type) == "liquid" {
		typ = fluidbake.DomainLiquid
	}

	out := &fluidbake.DomainSettings{
		Resolution:        d.Resolution,
		PreviewResolution: d.PreviewResolution,
		MaxRefine:         d.MaxRefine,
		ViscosityValue:    float32(d.Viscosity),
		ViscosityExponent: d.ViscosityExponent,
		Gravity: [3]float32{
			float32(d.GravityX), float32(d.GravityY), float32(d.GravityZ),
		},
		RealSize:          float32(d.RealSize),
		GStar:             float32(d.GStar),
		AnimStart:         float32(d.AnimStart),
		AnimEnd:           float32(d.AnimEnd),
		AnimRate:          float32(d.AnimRate),
		GenerateParticles: float32(d.GenerateParticles),
		GenerateTracers:   d.GenerateTracers,
		SurfaceSmoothing:  float32(d.SurfaceSmoothing),
		SurfaceSubdivs:    d.SurfaceSubdivs,
		Threads:           d.Threads,
		SurfGenNoObs:      d.SurfGenNoObs,
		NoVertexVectors:   d.NoVertexVectors,

		CacheDir:        d.CacheDir,
		CacheFrameStart: d.CacheFrameStart,
		CacheFrameEnd:   d.CacheFrameEnd,

		Type: typ,
	}

	g := &con.Gas
	out.Gas = fluidbake.GasSettings{
		UsingColors:   g.UsingColors,
		UsingHeat:     g.UsingHeat,
		UsingFire:     g.UsingFire,
		UsingNoise:    g.UsingNoise,
		UsingGuiding:  g.UsingGuiding,
		UsingObstacle: g.UsingObstacle,
		UsingInvel:    g.UsingInvel,

		OpenBounds:      g.OpenBounds,
		BoundaryWidth:   g.BoundaryWidth,
		BoundConditions: g.BoundConditions,
		ResX:            g.ResX, ResY: g.ResY, ResZ: g.ResZ,
		DT:  float32(g.DT),
		CFL: float32(g.CFL),

		Vorticity:     float32(g.Vorticity),
		BuoyancyAlpha: float32(g.BuoyancyAlpha),
		BuoyancyBeta:  float32(g.BuoyancyBeta),
		AdvectOrder:   g.AdvectOrder,

		ColorR: float32(g.ColorR),
		ColorG: float32(g.ColorG),
		ColorB: float32(g.ColorB),

		BurningRate:  float32(g.BurningRate),
		FlameSmoke:   float32(g.FlameSmoke),
		IgnitionTemp: float32(g.IgnitionTemp),
		MaxTemp:      float32(g.MaxTemp),
		FlameSmokeColor: [3]float32{
			float32(g.FlameSmokeColorX),
			float32(g.FlameSmokeColorY),
			float32(g.FlameSmokeColorZ),
		},

		NoiseUpres:    g.NoiseUpres,
		NoiseStrength: float32(g.NoiseStrength),
		NoisePosScale: float32(g.NoisePosScale),
		NoiseTimeAnim: float32(g.NoiseTimeAnim),
	}

	l := &con.Liquid
	out.Liquid = fluidbake.LiquidSettings{
		UsingMesh:     l.UsingMesh,
		UsingGuiding:  l.UsingGuiding,
		UsingObstacle: l.UsingObstacle,
		UsingInvel:    l.UsingInvel,

		OpenBounds:      l.OpenBounds,
		BoundaryWidth:   l.BoundaryWidth,
		BoundConditions: l.BoundConditions,
		ResX:            l.ResX, ResY: l.ResY, ResZ: l.ResZ,
		DT:  float32(l.DT),
		CFL: float32(l.CFL),

		ParticleRadius:     float32(l.ParticleRadius),
		ParticleRandomness: float32(l.ParticleRandomness),
		ParticleNumber:     l.ParticleNumber,
		ParticleMinimum:    l.ParticleMinimum,
		ParticleMaximum:    l.ParticleMaximum,
		FlipRatio:          float32(l.FlipRatio),

		MeshUpres:          l.MeshUpres,
		MeshSmoothenPos:    l.MeshSmoothenPos,
		MeshSmoothenNeg:    l.MeshSmoothenNeg,
		MeshConcaveUpper:   float32(l.MeshConcaveUpper),
		MeshConcaveLower:   float32(l.MeshConcaveLower),
		MeshParticleRadius: float32(l.MeshParticleRadius),
	}

	// Grid resolution defaults to the domain resolution on all axes.
	if out.Gas.ResX == 0 {
		out.Gas.ResX, out.Gas.ResY, out.Gas.ResZ =
			d.Resolution, d.Resolution, d.Resolution
	}
	if out.Liquid.ResX == 0 {
		out.Liquid.ResX, out.Liquid.ResY, out.Liquid.ResZ =
			d.Resolution, d.Resolution, d.Resolution
	}

	return out
}
