package config

import (
	"runtime"
	"sort"

	"github.com/chewxy/math32"

	"fluidbake"
	"fluidbake/geom"
)

// Scene is a self-contained host backed by a config file: object
// transforms are closed-form functions of the frame, geometry is a unit
// cube per object. It drives the same pipelines a live host would.
type Scene struct {
	domain *fluidbake.Object
	objs   []*fluidbake.Object
	motion map[string]*ObjectConfig

	frame      int
	start, end int
	unitScale  float32
}

// NewScene builds the scene described by the config. Object order is
// the domain first, then the subsections sorted by name.
func NewScene(con *SceneConfig) *Scene {
	s := &Scene{
		domain: &fluidbake.Object{
			Name:   "Domain",
			Kind:   fluidbake.KindDomain,
			Domain: con.DomainSettings(),
		},
		motion:    make(map[string]*ObjectConfig),
		frame:     con.Domain.FrameStart,
		start:     con.Domain.FrameStart,
		end:       con.Domain.FrameEnd,
		unitScale: float32(con.Domain.UnitScale),
	}
	s.objs = append(s.objs, s.domain)

	names := make([]string, 0, len(con.Object))
	for name := range con.Object {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		oc := con.Object[name]
		s.motion[name] = oc
		s.objs = append(s.objs, &fluidbake.Object{
			Name: name,
			Kind: oc.kind(),
			Settings: fluidbake.ObjectSettings{
				Active: true,
				InitialVelocity: geom.Vec{
					float32(oc.InivelX),
					float32(oc.InivelY),
					float32(oc.InivelZ),
				},
				LocalInivelCoords: oc.LocalInivelCoords,
				ObstacleType:      oc.obstacleType(),
				PartSlip:          float32(oc.PartSlip),
				VolumeInitType:    oc.VolumeInitType,
				ImpactFactor:      float32(oc.ImpactFactor),
				Reverse:           oc.Reverse,
				ControlTimeStart:  float32(oc.ControlTimeStart),
				ControlTimeEnd:    float32(oc.ControlTimeEnd),
				ControlQuality:    float32(oc.ControlQuality),
				AnimatedMesh:      oc.AnimatedMesh,
			},
		})
	}
	return s
}

// Domain returns the implicit domain object.
func (s *Scene) Domain() *fluidbake.Object { return s.domain }

func (s *Scene) Objects() []*fluidbake.Object { return s.objs }
func (s *Scene) Frame() int                   { return s.frame }

func (s *Scene) SetFrame(frame int) error {
	s.frame = frame
	return nil
}

func (s *Scene) State(ob *fluidbake.Object) fluidbake.ObjectState {
	oc := s.motion[ob.Name]
	if oc == nil {
		// The domain sits at the origin with the configured real size.
		size := float32(1)
		if ob == s.domain && ob.Domain.RealSize > 0 {
			size = ob.Domain.RealSize
		}
		scale := geom.Vec{size, size, size}
		return fluidbake.ObjectState{
			Scale:  scale,
			World:  geom.ScaleMat4(scale),
			Active: true,
		}
	}

	dt := float32(s.frame - s.start)
	loc := geom.Vec{
		float32(oc.LocX) + float32(oc.VelX)*dt,
		float32(oc.LocY) + float32(oc.VelY)*dt,
		float32(oc.LocZ) + float32(oc.VelZ)*dt,
	}
	rot := geom.Vec{
		float32(oc.RotX) * math32.Pi / 180,
		float32(oc.RotY) * math32.Pi / 180,
		float32(oc.RotZ) * math32.Pi / 180,
	}
	scale := geom.Vec{
		float32(oc.ScaleX), float32(oc.ScaleY), float32(oc.ScaleZ),
	}

	world := geom.TranslationMat4(loc).
		Mul(geom.EulerMat4(rot)).
		Mul(geom.ScaleMat4(scale))

	return fluidbake.ObjectState{
		Loc:    loc,
		Scale:  scale,
		World:  world,
		Active: true,
		InitialVelocity: geom.Vec{
			float32(oc.InivelX), float32(oc.InivelY), float32(oc.InivelZ),
		},
	}
}

// Unit cube centered on the origin, triangulated.
var (
	cubeVerts = []float32{
		-0.5, -0.5, -0.5,
		0.5, -0.5, -0.5,
		0.5, 0.5, -0.5,
		-0.5, 0.5, -0.5,
		-0.5, -0.5, 0.5,
		0.5, -0.5, 0.5,
		0.5, 0.5, 0.5,
		-0.5, 0.5, 0.5,
	}
	cubeTris = []int32{
		0, 2, 1, 0, 3, 2,
		4, 5, 6, 4, 6, 7,
		0, 1, 5, 0, 5, 4,
		2, 3, 7, 2, 7, 6,
		1, 2, 6, 1, 6, 5,
		3, 0, 4, 3, 4, 7,
	}
)

func (s *Scene) Mesh(ob *fluidbake.Object) ([]float32, []int32, error) {
	return append([]float32{}, cubeVerts...),
		append([]int32{}, cubeTris...), nil
}

func (s *Scene) Gravity() (geom.Vec, bool) { return geom.Vec{}, false }

func (s *Scene) UnitScale() (float32, bool) {
	return s.unitScale, s.unitScale > 0
}

func (s *Scene) FrameRange() (int, int) { return s.start, s.end }
func (s *Scene) Threads() int           { return runtime.NumCPU() }
