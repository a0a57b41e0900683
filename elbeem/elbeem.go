/*package elbeem defines the boundary to the legacy Lattice-Boltzmann
solver: the bit-stable settings record, the per-mesh descriptors, and
the exporter that turns sampled object channels into those descriptors.
The solver itself is consumed through the Runner interface.
*/
package elbeem

import (
	"os"
	"strconv"

	"fluidbake"
)

// Callback statuses handed to the progress hook.
const (
	CbStatusNewFrame = 1
	CbStatusStep     = 2
)

// CbRet is the progress hook's verdict.
type CbRet int

const (
	CbContinue CbRet = iota
	CbStop
	CbAbort
)

// Callback is invoked by the solver once per simulated frame. Returning
// CbAbort cancels the blocking simulate call cooperatively.
type Callback func(status, frame int) CbRet

// Settings is the solver's domain record. Field layout mirrors the
// native elbeemSimulationSettings struct; channel slices are the raw
// stride buffers with their lengths carried separately, the way the
// native side reads them.
type Settings struct {
	Version  int
	DomainID int
	Threads  int

	ResolutionXYZ int
	PreviewResXYZ int
	RealSize      float32
	Viscosity     float32
	GStar         float32
	MaxRefine     int

	GeoStart [3]float32
	GeoSize  [3]float32
	Gravity  [3]float32

	AnimStart    float32
	AniFrameTime float64
	NoOfFrames   int

	GenerateParticles     float32
	NumTracerParticles    int
	SurfaceSmoothing      float32
	SurfaceSubdivs        int
	FarFieldSize          float32
	GenerateVertexVectors int

	DomainObsType     int
	DomainObsPartslip float32
	SurfGenSetting    int

	OutputPath string

	// Inverse domain matrix, transposed into the solver's column-major
	// layout.
	SurfaceTrafo [16]float32

	ChannelSizeFrameTime int
	ChannelSizeViscosity int
	ChannelSizeGravity   int
	ChannelFrameTime     []float32
	ChannelViscosity     []float32
	ChannelGravity       []float32

	RunsimCallback Callback
}

// Mesh is one exported object. Channel slices left nil are "not
// animated" to the solver.
type Mesh struct {
	Type int
	Name string

	NumVertices  int
	NumTriangles int
	Vertices     []float32
	Triangles    []int32

	ChannelSizeTranslation int
	ChannelSizeRotation    int
	ChannelSizeScale       int
	ChannelSizeActive      int
	ChannelSizeInitialVel  int
	ChannelTranslation     []float32
	ChannelRotation        []float32
	ChannelScale           []float32
	ChannelActive          []float32
	ChannelInitialVel      []float32

	LocalInivelCoords int

	ObstacleType         int
	ObstaclePartslip     float32
	VolumeInitType       int
	ObstacleImpactFactor float32

	CpsTimeStart float32
	CpsTimeEnd   float32
	CpsQuality   float32

	ChannelSizeAttractforceStrength int
	ChannelSizeAttractforceRadius   int
	ChannelSizeVelocityforceStrength int
	ChannelSizeVelocityforceRadius   int
	ChannelAttractforceStrength     []float32
	ChannelAttractforceRadius       []float32
	ChannelVelocityforceStrength    []float32
	ChannelVelocityforceRadius      []float32

	ChannelSizeVertices int
	ChannelVertices     []float32
}

// Runner is the solver entry surface. Init, AddDomain and AddMesh stage
// one simulation; Simulate blocks until it finishes, fails, or the
// callback aborts it.
type Runner interface {
	SetDebugLevel(level int)
	DebugOut(msg string)
	Init()
	AddDomain(*Settings)
	AddMesh(*Mesh)
	Simulate() error
}

// DebugEnv is the environment variable whose integer value selects the
// solver's debug verbosity.
const DebugEnv = "BLENDER_ELBEEMDEBUG"

// ApplyDebugEnv forwards DebugEnv to the runner if set, and reports
// whether it was.
func ApplyDebugEnv(run Runner) bool {
	v := os.Getenv(DebugEnv)
	if v == "" {
		return false
	}
	level, err := strconv.Atoi(v)
	if err != nil {
		return false
	}
	run.SetDebugLevel(level)
	return true
}

// ObstacleCode maps a host boundary condition to the solver's obstacle
// type code.
func ObstacleCode(t fluidbake.ObstacleType) int {
	// The solver's constants happen to coincide with the host flags;
	// the switch keeps the contract explicit.
	switch t {
	case fluidbake.ObstaclePartSlip:
		return 2
	case fluidbake.ObstacleFreeSlip:
		return 3
	}
	return 1 // no-slip
}
