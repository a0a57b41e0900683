package elbeem

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fluidbake"
	"fluidbake/channel"
	"fluidbake/geom"
	"fluidbake/sampler"
)

type fakeRunner struct {
	debugLevel int
	debugMsgs  []string
	inited     bool
	domains    []*Settings
	meshes     []*Mesh
	simErr     error
	simulated  bool
}

func (r *fakeRunner) SetDebugLevel(l int)  { r.debugLevel = l }
func (r *fakeRunner) DebugOut(msg string)  { r.debugMsgs = append(r.debugMsgs, msg) }
func (r *fakeRunner) Init()                { r.inited = true }
func (r *fakeRunner) AddDomain(s *Settings) { r.domains = append(r.domains, s) }
func (r *fakeRunner) AddMesh(m *Mesh)      { r.meshes = append(r.meshes, m) }

func (r *fakeRunner) Simulate() error {
	r.simulated = true
	return r.simErr
}

type meshScene struct{}

func (meshScene) Objects() []*fluidbake.Object          { return nil }
func (meshScene) Frame() int                            { return 1 }
func (meshScene) SetFrame(int) error                    { return nil }
func (meshScene) Gravity() (geom.Vec, bool)             { return geom.Vec{}, false }
func (meshScene) UnitScale() (float32, bool)            { return 1, false }
func (meshScene) FrameRange() (int, int)                { return 1, 10 }
func (meshScene) Threads() int                          { return 1 }

func (meshScene) State(*fluidbake.Object) fluidbake.ObjectState {
	return fluidbake.ObjectState{World: geom.IdentityMat4()}
}

func (meshScene) Mesh(*fluidbake.Object) ([]float32, []int32, error) {
	return []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, []int32{0, 1, 2}, nil
}

func channelsFor(ob *fluidbake.Object, length int) *sampler.ObjectChannels {
	oc := &sampler.ObjectChannels{
		Object:          ob,
		Translation:     channel.NewVec(length),
		Rotation:        channel.NewVec(length),
		Scale:           channel.NewVec(length),
		Active:          channel.NewFloat(length),
		InitialVelocity: channel.NewVec(length),
	}
	if ob.Kind == fluidbake.KindControl {
		oc.AttractStrength = channel.NewFloat(length)
		oc.AttractRadius = channel.NewFloat(length)
		oc.VelocityStrength = channel.NewFloat(length)
		oc.VelocityRadius = channel.NewFloat(length)
	}
	return oc
}

func TestExportSkipsDomainAndParticles(t *testing.T) {
	run := &fakeRunner{}
	objs := []*sampler.ObjectChannels{
		{Object: &fluidbake.Object{Name: "d", Kind: fluidbake.KindDomain}},
		{Object: &fluidbake.Object{Name: "p", Kind: fluidbake.KindParticle}},
		channelsFor(&fluidbake.Object{Name: "f", Kind: fluidbake.KindFluid}, 2),
	}

	err := ExportObjects(meshScene{}, objs, 2, run)
	if err != nil {
		t.Fatal(err.Error())
	}
	assert.Equal(t, 1, len(run.meshes))
	assert.Equal(t, "f", run.meshes[0].Name)
	assert.Equal(t, 3, run.meshes[0].NumVertices)
	assert.Equal(t, 1, run.meshes[0].NumTriangles)
}

func TestExportInitialVelocityOnlyForEmitters(t *testing.T) {
	table := []struct {
		kind fluidbake.ObjectKind
		want bool
	}{
		{fluidbake.KindFluid, true},
		{fluidbake.KindInflow, true},
		{fluidbake.KindObstacle, false},
		{fluidbake.KindOutflow, false},
	}

	for i, test := range table {
		run := &fakeRunner{}
		ob := &fluidbake.Object{Name: "ob", Kind: test.kind}
		ob.Settings.LocalInivelCoords = true

		err := ExportObjects(
			meshScene{}, []*sampler.ObjectChannels{channelsFor(ob, 2)}, 2, run,
		)
		if err != nil {
			t.Fatal(err.Error())
		}

		m := run.meshes[0]
		if got := m.ChannelInitialVel != nil; got != test.want {
			t.Errorf("%d) kind %v: initial velocity channel = %v", i+1,
				test.kind, got)
		}
		if test.want && m.LocalInivelCoords != 1 {
			t.Errorf("%d) local inivel flag not forwarded", i+1)
		}
	}
}

func TestExportVertexCacheSupersedesTransforms(t *testing.T) {
	run := &fakeRunner{}
	ob := &fluidbake.Object{Name: "anim", Kind: fluidbake.KindObstacle}
	ob.Settings.AnimatedMesh = true
	ob.Settings.ObstacleType = fluidbake.ObstacleFreeSlip

	oc := channelsFor(ob, 2)
	oc.Verts = channel.NewVerts(2, 3)
	oc.Verts.Set(0, 0, make([]float32, 9))
	oc.Verts.Set(1, 0.1, make([]float32, 9))

	err := ExportObjects(meshScene{}, []*sampler.ObjectChannels{oc}, 2, run)
	if err != nil {
		t.Fatal(err.Error())
	}

	m := run.meshes[0]
	assert.NotNil(t, m.ChannelVertices)
	assert.Equal(t, 2, m.ChannelSizeVertices)
	assert.Nil(t, m.ChannelTranslation)
	assert.Nil(t, m.ChannelRotation)
	assert.Nil(t, m.ChannelScale)
	// Deforming meshes force no-slip regardless of the authored type.
	assert.Equal(t, 1, m.ObstacleType)
}

func TestExportDroppedCacheFallsBackToTransforms(t *testing.T) {
	run := &fakeRunner{}
	ob := &fluidbake.Object{Name: "anim", Kind: fluidbake.KindObstacle}
	ob.Settings.AnimatedMesh = true

	oc := channelsFor(ob, 2)
	oc.Verts = channel.NewVerts(2, 3)
	oc.Verts.Set(0, 0, make([]float32, 9))
	oc.Verts.Set(1, 0.1, make([]float32, 12)) // count change: drops

	err := ExportObjects(meshScene{}, []*sampler.ObjectChannels{oc}, 2, run)
	if err != nil {
		t.Fatal(err.Error())
	}

	m := run.meshes[0]
	assert.Nil(t, m.ChannelVertices)
	assert.Equal(t, 0, m.ChannelSizeVertices)
	assert.NotNil(t, m.ChannelTranslation)
}

func TestExportControlMesh(t *testing.T) {
	run := &fakeRunner{}
	ob := &fluidbake.Object{Name: "ctl", Kind: fluidbake.KindControl}
	ob.Settings.Reverse = true
	ob.Settings.ControlTimeStart = 0.5
	ob.Settings.ControlTimeEnd = 2
	ob.Settings.ControlQuality = 10

	oc := channelsFor(ob, 3)
	oc.Verts = channel.NewVerts(3, 3)

	err := ExportObjects(meshScene{}, []*sampler.ObjectChannels{oc}, 3, run)
	if err != nil {
		t.Fatal(err.Error())
	}

	m := run.meshes[0]
	// Reverse travels in the obstacle-type slot for control meshes, and
	// the forced no-slip override must not clobber it.
	assert.Equal(t, 1, m.ObstacleType)
	assert.Equal(t, float32(0.5), m.CpsTimeStart)
	assert.Equal(t, float32(2), m.CpsTimeEnd)
	assert.Equal(t, float32(10), m.CpsQuality)
	assert.NotNil(t, m.ChannelAttractforceStrength)
	assert.Equal(t, 3, m.ChannelSizeAttractforceRadius)
}

func TestObstacleTypeMapping(t *testing.T) {
	table := []struct {
		in   fluidbake.ObstacleType
		want int
	}{
		{fluidbake.ObstacleNoSlip, 1},
		{fluidbake.ObstaclePartSlip, 2},
		{fluidbake.ObstacleFreeSlip, 3},
		{0, 1}, // unset defaults to no-slip
	}
	for i, test := range table {
		if got := ObstacleCode(test.in); got != test.want {
			t.Errorf("%d) ObstacleCode(%d) = %d, want %d", i+1, test.in,
				got, test.want)
		}
	}
}

func TestApplyDebugEnv(t *testing.T) {
	run := &fakeRunner{}

	t.Setenv(DebugEnv, "")
	assert.False(t, ApplyDebugEnv(run))

	t.Setenv(DebugEnv, "7")
	assert.True(t, ApplyDebugEnv(run))
	assert.Equal(t, 7, run.debugLevel)
}
