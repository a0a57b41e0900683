/*fluidbake orchestrates fluid-simulation bakes on behalf of a host
3D application. It drives two solver back-ends: a legacy Lattice-Boltzmann
style solver which runs in a single blocking call over pre-sampled
animation channels (package bake), and a grid smoke/liquid solver which is
stepped frame by frame under a five-stage cache state machine
(package manta).

The host's scene graph, animation evaluation, and reporting sink are
consumed through the narrow interfaces in this package. Everything else
(channels, sampling, mesh export, cache layout, script emission) lives in
the subpackages.
*/
package fluidbake

import (
	"fluidbake/geom"
)

// ObjectKind tags the role a scene object plays in a simulation. The
// values are bit flags and are forwarded verbatim as the solver's mesh
// type tag.
type ObjectKind int

const (
	KindDomain ObjectKind = 1 << iota
	KindFluid
	KindObstacle
	KindInflow
	KindOutflow
	KindParticle
	KindControl
)

func (k ObjectKind) String() string {
	switch k {
	case KindDomain:
		return "domain"
	case KindFluid:
		return "fluid"
	case KindObstacle:
		return "obstacle"
	case KindInflow:
		return "inflow"
	case KindOutflow:
		return "outflow"
	case KindParticle:
		return "particle"
	case KindControl:
		return "control"
	}
	return "unknown"
}

// ObstacleType selects the boundary condition of an obstacle or of the
// domain walls.
type ObstacleType int

const (
	ObstacleNoSlip ObstacleType = 1 + iota
	ObstaclePartSlip
	ObstacleFreeSlip
)

// SurfGenNoObs is the bit the legacy solver expects in its surface
// generation setting when obstacles are excluded from surface meshes.
const SurfGenNoObs = 64

// ObjectSettings holds the user-authored, non-animated parameters of a
// participating object. Animated state (transform, active toggle, forces)
// is read back per frame through Scene.State.
type ObjectSettings struct {
	Active            bool
	InitialVelocity   geom.Vec
	LocalInivelCoords bool

	ObstacleType ObstacleType
	PartSlip     float32

	VolumeInitType int
	ImpactFactor   float32

	// Control objects only.
	Reverse          bool
	ControlTimeStart float32
	ControlTimeEnd   float32
	ControlQuality   float32

	// Export the deforming mesh instead of transform channels.
	AnimatedMesh bool
}

// Object is one scene object participating in a bake.
type Object struct {
	Name     string
	Kind     ObjectKind
	Settings ObjectSettings

	// Domain is set on KindDomain objects only.
	Domain *DomainSettings
}

// Animated reports whether the object's vertex positions must be sampled
// every frame. Control objects always are.
func (ob *Object) Animated() bool {
	return ob.Kind == KindControl || ob.Settings.AnimatedMesh
}

// ObjectState is the animated state of one object at the scene's current
// frame.
type ObjectState struct {
	Loc    geom.Vec
	Scale  geom.Vec
	World  geom.Mat4
	Active bool

	InitialVelocity geom.Vec

	AttractStrength  float32
	AttractRadius    float32
	VelocityStrength float32
	VelocityRadius   float32
}

// Scene is the seam to the host application. SetFrame re-evaluates the
// whole scene at the given frame; all other accessors reflect the state
// after the most recent evaluation.
//
// The sampler mutates the scene's current frame during a bake and
// restores it before returning. No other consumer may observe the scene
// while a bake worker is sampling.
type Scene interface {
	Objects() []*Object
	Frame() int
	SetFrame(frame int) error
	State(ob *Object) ObjectState

	// Mesh snapshots the object's evaluated geometry: a flat
	// [x0 y0 z0 x1 y1 z1 ...] vertex array and a triangle index array.
	// The returned slices are fresh copies owned by the caller.
	Mesh(ob *Object) (verts []float32, tris []int32, err error)

	// Gravity returns the scene-level gravity and whether it overrides
	// per-domain gravity.
	Gravity() (geom.Vec, bool)

	// UnitScale returns the length of one scene unit in meters and
	// whether a unit system is enabled at all.
	UnitScale() (float32, bool)

	FrameRange() (start, end int)
	Threads() int
}

// ReportLevel mirrors the host's report severities.
type ReportLevel int

const (
	ReportInfo ReportLevel = iota
	ReportWarning
	ReportError
)

func (l ReportLevel) String() string {
	switch l {
	case ReportInfo:
		return "INFO"
	case ReportWarning:
		return "WARNING"
	case ReportError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// Reporter is the host's user-visible message sink.
type Reporter interface {
	Report(level ReportLevel, msg string)
	Reportf(level ReportLevel, format string, args ...interface{})
}
