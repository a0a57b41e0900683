package sampler

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"fluidbake"
	"fluidbake/geom"
)

type fakeScene struct {
	objects []*fluidbake.Object
	frame   int
	evals   []int

	state func(frame int, ob *fluidbake.Object) fluidbake.ObjectState
	mesh  func(frame int, ob *fluidbake.Object) ([]float32, []int32, error)

	gravity    geom.Vec
	gravityOn  bool
	frameStart int
	frameEnd   int
}

func (s *fakeScene) Objects() []*fluidbake.Object { return s.objects }
func (s *fakeScene) Frame() int                   { return s.frame }

func (s *fakeScene) SetFrame(frame int) error {
	s.frame = frame
	s.evals = append(s.evals, frame)
	return nil
}

func (s *fakeScene) State(ob *fluidbake.Object) fluidbake.ObjectState {
	if s.state != nil {
		return s.state(s.frame, ob)
	}
	return fluidbake.ObjectState{
		World: geom.IdentityMat4(), Scale: geom.Vec{1, 1, 1}, Active: true,
	}
}

func (s *fakeScene) Mesh(ob *fluidbake.Object) ([]float32, []int32, error) {
	if s.mesh != nil {
		return s.mesh(s.frame, ob)
	}
	return []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, []int32{0, 1, 2}, nil
}

func (s *fakeScene) Gravity() (geom.Vec, bool)   { return s.gravity, s.gravityOn }
func (s *fakeScene) UnitScale() (float32, bool)  { return 1, false }
func (s *fakeScene) FrameRange() (int, int)      { return s.frameStart, s.frameEnd }
func (s *fakeScene) Threads() int                { return 2 }

func domainSettings() *fluidbake.DomainSettings {
	return &fluidbake.DomainSettings{
		AnimStart: 0, AnimEnd: 1, AnimRate: 1,
		BakeStart: 1, BakeEnd: 5,
		ViscosityValue: 1, ViscosityExponent: 6,
		Gravity: geom.Vec{0, 0, -9.81},
	}
}

func twoObjectScene() *fakeScene {
	return &fakeScene{
		objects: []*fluidbake.Object{
			{Name: "domain", Kind: fluidbake.KindDomain},
			{Name: "inflow", Kind: fluidbake.KindFluid},
		},
	}
}

func TestTimeAtFrame(t *testing.T) {
	scene := twoObjectScene()
	d := domainSettings()

	ch, objs, err := Sample(scene, d, 5, nil)
	if err != nil {
		t.Fatal(err.Error())
	}
	defer ch.Free()
	defer FreeObjects(objs)

	want := []float32{0, 0, 0.2, 0.4, 0.6, 0.8}
	assert.Equal(t, len(want), len(ch.TimeAtFrame))
	for i := range want {
		assert.InDelta(t, want[i], ch.TimeAtFrame[i], 1e-5, "timeAtFrame[%d]", i)
	}

	// Every channel stamp equals timeAtFrame[i+1].
	for i := 0; i < 5; i++ {
		assert.InDelta(t, ch.TimeAtFrame[i+1], ch.Time.Time(i), 1e-5)
		assert.InDelta(t, ch.TimeAtFrame[i+1], ch.Viscosity.Time(i), 1e-5)
		assert.InDelta(t, ch.TimeAtFrame[i+1], ch.Gravity.Time(i), 1e-5)
	}

	// timeAtFrame must be non-decreasing, strictly increasing past the
	// initial duplicate since the rate is positive.
	for i := 2; i < len(ch.TimeAtFrame); i++ {
		if ch.TimeAtFrame[i] <= ch.TimeAtFrame[i-1] {
			t.Errorf("timeAtFrame not increasing at %d: %v", i, ch.TimeAtFrame)
		}
	}
}

func TestDegenerateAnimRange(t *testing.T) {
	scene := twoObjectScene()
	d := domainSettings()
	d.AnimEnd = d.AnimStart

	ch, objs, err := Sample(scene, d, 5, nil)
	if err != nil {
		t.Fatal(err.Error())
	}
	defer ch.Free()
	defer FreeObjects(objs)

	assert.Equal(t, 0.0, ch.AniFrameTime)
	for _, v := range ch.TimeAtFrame {
		assert.Equal(t, float32(0), v)
	}
}

func TestViscosityAndGravityChannels(t *testing.T) {
	scene := twoObjectScene()
	scene.gravity = geom.Vec{0, 0, -1}
	scene.gravityOn = true
	d := domainSettings()

	ch, objs, err := Sample(scene, d, 3, nil)
	if err != nil {
		t.Fatal(err.Error())
	}
	defer ch.Free()
	defer FreeObjects(objs)

	// Scene gravity overrides the domain's own vector.
	assert.Equal(t, geom.Vec{0, 0, -1}, ch.Gravity.Value(0))
	// viscosity = 1 * 10^-6
	assert.InDelta(t, 1e-6, ch.Viscosity.Value(0), 1e-12)
}

func TestFrameRestoredAfterSampling(t *testing.T) {
	scene := twoObjectScene()
	scene.frame = 42
	d := domainSettings()

	ch, objs, err := Sample(scene, d, 3, nil)
	if err != nil {
		t.Fatal(err.Error())
	}
	defer ch.Free()
	defer FreeObjects(objs)

	assert.Equal(t, 42, scene.Frame())
	// Frames 1..3 evaluated in order, then the restore.
	assert.Equal(t, []int{1, 2, 3, 42}, scene.evals)
}

func TestRotationContinuity(t *testing.T) {
	// Rotate the object by 0.3 rad per frame around z, crossing pi.
	scene := twoObjectScene()
	scene.state = func(frame int, ob *fluidbake.Object) fluidbake.ObjectState {
		angle := 0.3 * float32(frame)
		return fluidbake.ObjectState{
			World: geom.EulerMat4(geom.Vec{0, 0, angle}),
			Scale: geom.Vec{1, 1, 1},
		}
	}
	d := domainSettings()
	length := 20

	ch, objs, err := Sample(scene, d, length, nil)
	if err != nil {
		t.Fatal(err.Error())
	}
	defer ch.Free()
	defer FreeObjects(objs)

	rot := objs[1].Rotation
	stepDeg := 0.3 * 180 / math.Pi
	for i := 1; i < length; i++ {
		d := float64(rot.Value(i)[2] - rot.Value(i-1)[2])
		if math.Abs(math.Abs(d)-stepDeg) > 1 {
			t.Fatalf("frame %d: rotation stepped by %g deg, want %g",
				i, d, stepDeg)
		}
	}
	// The track must pass -180 deg without wrapping (solver convention
	// negates angles).
	if last := rot.Value(length - 1)[2]; last > -300 {
		t.Errorf("rotation wrapped: final z angle %g deg", last)
	}
}

func TestVertexCacheDrop(t *testing.T) {
	scene := twoObjectScene()
	scene.objects[1].Kind = fluidbake.KindControl
	scene.mesh = func(frame int, ob *fluidbake.Object) ([]float32, []int32, error) {
		if frame >= 2 {
			// An extra vertex appears at frame 2.
			return make([]float32, 4*3), []int32{0, 1, 2}, nil
		}
		return make([]float32, 3*3), []int32{0, 1, 2}, nil
	}

	d := domainSettings()
	ch, objs, err := Sample(scene, d, 5, nil)
	if err != nil {
		t.Fatal(err.Error())
	}
	defer ch.Free()
	defer FreeObjects(objs)

	oc := objs[1]
	if oc.Verts == nil {
		t.Fatal("control object got no vertex cache")
	}
	if !oc.Verts.Dropped() {
		t.Error("vertex cache survived a vertex count change")
	}
}

func TestVertexCacheKept(t *testing.T) {
	scene := twoObjectScene()
	scene.objects[1].Settings.AnimatedMesh = true

	d := domainSettings()
	ch, objs, err := Sample(scene, d, 4, nil)
	if err != nil {
		t.Fatal(err.Error())
	}
	defer ch.Free()
	defer FreeObjects(objs)

	oc := objs[1]
	if oc.Verts == nil || oc.Verts.Dropped() {
		t.Fatal("stable animated mesh lost its vertex cache")
	}
	assert.Equal(t, 3, oc.NumVerts)
	for i := 0; i < 4; i++ {
		assert.InDelta(t, ch.TimeAtFrame[i+1], oc.Verts.Time(i), 1e-5)
	}
}
