package bake

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fluidbake"
	"fluidbake/elbeem"
	"fluidbake/geom"
	"fluidbake/job"
)

type fakeScene struct {
	objs      []*fluidbake.Object
	frame     int
	sfra      int
	efra      int
	states    map[string]fluidbake.ObjectState
	meshes    map[string][]float32
	tris      map[string][]int32
	gravity   geom.Vec
	gravityOn bool
	unitScale float32
	unitOn    bool
	threads   int
}

func (s *fakeScene) Objects() []*fluidbake.Object { return s.objs }
func (s *fakeScene) Frame() int                   { return s.frame }
func (s *fakeScene) SetFrame(frame int) error     { s.frame = frame; return nil }

func (s *fakeScene) State(ob *fluidbake.Object) fluidbake.ObjectState {
	if st, ok := s.states[ob.Name]; ok {
		return st
	}
	return fluidbake.ObjectState{
		Scale: geom.Vec{1, 1, 1}, World: geom.IdentityMat4(), Active: true,
	}
}

func (s *fakeScene) Mesh(ob *fluidbake.Object) ([]float32, []int32, error) {
	verts, ok := s.meshes[ob.Name]
	if !ok {
		verts = []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}
	}
	tris, ok := s.tris[ob.Name]
	if !ok {
		tris = []int32{0, 1, 2}
	}
	return append([]float32{}, verts...), append([]int32{}, tris...), nil
}

func (s *fakeScene) Gravity() (geom.Vec, bool)   { return s.gravity, s.gravityOn }
func (s *fakeScene) UnitScale() (float32, bool)  { return s.unitScale, s.unitOn }
func (s *fakeScene) FrameRange() (int, int)      { return s.sfra, s.efra }
func (s *fakeScene) Threads() int                { return s.threads }

type fakeRunner struct {
	level   int
	debug   []string
	inited  bool
	domain  *elbeem.Settings
	meshes  []*elbeem.Mesh
	simErr  error
	frames  int
	onFrame func(f int)
	aborted bool
}

func (r *fakeRunner) SetDebugLevel(level int)      { r.level = level }
func (r *fakeRunner) DebugOut(msg string)          { r.debug = append(r.debug, msg) }
func (r *fakeRunner) Init()                        { r.inited = true }
func (r *fakeRunner) AddDomain(s *elbeem.Settings) { r.domain = s }
func (r *fakeRunner) AddMesh(m *elbeem.Mesh)       { r.meshes = append(r.meshes, m) }

func (r *fakeRunner) Simulate() error {
	for f := 1; f <= r.frames; f++ {
		if r.onFrame != nil {
			r.onFrame(f)
		}
		if r.domain != nil && r.domain.RunsimCallback != nil {
			if r.domain.RunsimCallback(elbeem.CbStatusNewFrame, f) == elbeem.CbAbort {
				r.aborted = true
				return nil
			}
		}
	}
	return r.simErr
}

type recReporter struct {
	levels []fluidbake.ReportLevel
	msgs   []string
}

func (r *recReporter) Report(l fluidbake.ReportLevel, msg string) {
	r.levels = append(r.levels, l)
	r.msgs = append(r.msgs, msg)
}

func (r *recReporter) Reportf(
	l fluidbake.ReportLevel, format string, args ...interface{},
) {
	r.Report(l, fmt.Sprintf(format, args...))
}

func (r *recReporter) contains(sub string) bool {
	for _, m := range r.msgs {
		if strings.Contains(m, sub) {
			return true
		}
	}
	return false
}

func domainObject(cacheDir string) *fluidbake.Object {
	return &fluidbake.Object{
		Name: "Domain", Kind: fluidbake.KindDomain,
		Domain: &fluidbake.DomainSettings{
			Resolution:        100,
			PreviewResolution: 150,
			MaxRefine:         -1,
			ViscosityValue:    1,
			ViscosityExponent: 6,
			Gravity:           geom.Vec{0, 0, -9.81},
			RealSize:          4,
			GStar:             0.005,
			AnimStart:         0,
			AnimEnd:           1,
			AnimRate:          1,
			ObstacleType:      fluidbake.ObstacleNoSlip,
			CacheDir:          cacheDir,
		},
	}
}

func bakeScene(dom *fluidbake.Object) *fakeScene {
	return &fakeScene{
		objs: []*fluidbake.Object{
			dom,
			{Name: "Emitter", Kind: fluidbake.KindFluid},
			{Name: "Wall", Kind: fluidbake.KindObstacle,
				Settings: fluidbake.ObjectSettings{
					ObstacleType: fluidbake.ObstacleFreeSlip,
				}},
		},
		sfra: 1, efra: 5,
		states:    map[string]fluidbake.ObjectState{},
		meshes:    map[string][]float32{},
		tris:      map[string][]int32{},
		unitScale: 1,
		threads:   7,
	}
}

func controller(
	scene *fakeScene, run *fakeRunner,
) (*Controller, *recReporter) {
	rep := &recReporter{}
	return &Controller{
		Scene: scene,
		Rep:   rep,
		Run:   run,
		Token: &job.Token{},
	}, rep
}

func TestValidate(t *testing.T) {
	dom := domainObject("")
	fluid := &fluidbake.Object{Name: "F", Kind: fluidbake.KindFluid}

	manyObs := func(n int) []*fluidbake.Object {
		objs := []*fluidbake.Object{dom, fluid}
		for i := 0; i < n; i++ {
			objs = append(objs, &fluidbake.Object{
				Name: fmt.Sprintf("Ob%d", i), Kind: fluidbake.KindObstacle,
			})
		}
		return objs
	}

	tests := []struct {
		objs    []*fluidbake.Object
		wantErr string
	}{
		{[]*fluidbake.Object{fluid}, "No domain object found"},
		{[]*fluidbake.Object{dom, domainObject(""), fluid},
			"There should be only one domain object"},
		{[]*fluidbake.Object{dom,
			{Name: "P", Kind: fluidbake.KindParticle}},
			"No fluid input objects in the scene"},
		{manyObs(255), "Cannot bake with more than 256 objects"},
		{manyObs(254), ""},
		{[]*fluidbake.Object{dom, fluid}, ""},
	}

	for i, test := range tests {
		got, err := Validate(&fakeScene{objs: test.objs}, nil)
		if test.wantErr == "" {
			if err != nil {
				t.Errorf("%d) Validate() error = %v", i+1, err)
			} else if got != dom {
				t.Errorf("%d) Validate() did not adopt the domain", i+1)
			}
			continue
		}
		if err == nil || err.Error() != test.wantErr {
			t.Errorf("%d) Validate() error = %v, want %q", i+1, err, test.wantErr)
		}
	}
}

func TestValidateParticlesDontCount(t *testing.T) {
	dom := domainObject("")
	objs := []*fluidbake.Object{dom,
		{Name: "F", Kind: fluidbake.KindFluid}}
	for i := 0; i < 300; i++ {
		objs = append(objs, &fluidbake.Object{
			Name: fmt.Sprintf("P%d", i), Kind: fluidbake.KindParticle,
		})
	}
	if _, err := Validate(&fakeScene{objs: objs}, nil); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestBakeNoFrames(t *testing.T) {
	dom := domainObject(t.TempDir())
	scene := bakeScene(dom)
	scene.efra = 0
	c, rep := controller(scene, &fakeRunner{})

	err := c.Bake(nil, false)
	want := "No frames to export (check your animation range settings)"
	if err == nil || err.Error() != want {
		t.Errorf("Bake() error = %v, want %q", err, want)
	}
	if !rep.contains(want) {
		t.Errorf("no report for empty frame range")
	}
}

func TestBakeInvalidMatrix(t *testing.T) {
	dom := domainObject(t.TempDir())
	scene := bakeScene(dom)
	scene.states["Domain"] = fluidbake.ObjectState{} // zero matrix
	c, _ := controller(scene, &fakeRunner{})

	err := c.Bake(nil, false)
	if err == nil || err.Error() != "Invalid object matrix" {
		t.Errorf("Bake() error = %v, want Invalid object matrix", err)
	}
}

func TestBakeSettings(t *testing.T) {
	dir := t.TempDir()
	dom := domainObject(dir)
	scene := bakeScene(dom)
	scene.states["Domain"] = fluidbake.ObjectState{
		Scale: geom.Vec{1, 1, 1},
		World: geom.TranslationMat4(geom.Vec{2, 0, 0}),
	}
	scene.meshes["Domain"] = []float32{
		0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1,
	}
	scene.gravity = geom.Vec{0, 0, -1}
	scene.gravityOn = true

	run := &fakeRunner{frames: 5}
	c, rep := controller(scene, run)

	if err := c.Bake(nil, false); err != nil {
		t.Fatalf("Bake() error = %v", err)
	}
	if !run.inited || run.domain == nil {
		t.Fatalf("runner never staged a domain")
	}

	set := run.domain
	if set.NoOfFrames != 5 {
		t.Errorf("NoOfFrames = %d, want 5", set.NoOfFrames)
	}
	if set.PreviewResXYZ != 100 {
		t.Errorf("PreviewResXYZ = %d, want clamp to 100", set.PreviewResXYZ)
	}
	if set.MaxRefine != 1 {
		t.Errorf("MaxRefine = %d, want adaptive 1", set.MaxRefine)
	}
	if set.Threads != 7 {
		t.Errorf("Threads = %d, want host default 7", set.Threads)
	}
	if set.Gravity != [3]float32{0, 0, -1} {
		t.Errorf("Gravity = %v, want scene override", set.Gravity)
	}
	if set.GeoStart != [3]float32{2, 0, 0} || set.GeoSize != [3]float32{1, 1, 1} {
		t.Errorf("bbox = %v + %v, want {2 0 0} + {1 1 1}",
			set.GeoStart, set.GeoSize)
	}
	if set.SurfaceTrafo[0] != 1 || set.SurfaceTrafo[12] != -2 {
		t.Errorf("SurfaceTrafo = %v, want transposed inverse", set.SurfaceTrafo)
	}
	if want := filepath.Join(dom.Domain.CacheDir, "fluidsurface"); set.OutputPath != want {
		t.Errorf("OutputPath = %q, want %q", set.OutputPath, want)
	}
	if set.ChannelSizeFrameTime != 5 || len(set.ChannelFrameTime) != 10 {
		t.Errorf("frame time channel %d/%d, want 5/10",
			set.ChannelSizeFrameTime, len(set.ChannelFrameTime))
	}
	if len(run.meshes) != 2 {
		t.Errorf("len(meshes) = %d, want emitter and wall", len(run.meshes))
	}

	if dom.Domain.BakeStart != 1 || dom.Domain.BakeEnd != 5 {
		t.Errorf("bake range = [%d, %d], want [1, 5]",
			dom.Domain.BakeStart, dom.Domain.BakeEnd)
	}
	if dom.Domain.LastGoodFrame != 5 {
		t.Errorf("LastGoodFrame = %d, want 5", dom.Domain.LastGoodFrame)
	}
	if !rep.contains("finished") {
		t.Errorf("no completion report, got %v", rep.msgs)
	}
}

func TestBakeRealSizeWithUnits(t *testing.T) {
	dom := domainObject(t.TempDir())
	scene := bakeScene(dom)
	scene.meshes["Domain"] = []float32{
		0, 0, 0, 3, 0, 0, 0, 2, 0, 0, 0, 1,
	}
	scene.unitOn = true
	scene.unitScale = 0.5

	run := &fakeRunner{frames: 5}
	c, _ := controller(scene, run)
	if err := c.Bake(nil, false); err != nil {
		t.Fatalf("Bake() error = %v", err)
	}
	if run.domain.RealSize != 1.5 {
		t.Errorf("RealSize = %g, want longest axis 3 * scale 0.5",
			run.domain.RealSize)
	}
}

func TestBakeCancel(t *testing.T) {
	dom := domainObject(t.TempDir())
	scene := bakeScene(dom)
	run := &fakeRunner{frames: 5}
	c, rep := controller(scene, run)
	run.onFrame = func(f int) {
		if f == 3 {
			c.Token.Cancel()
		}
	}

	if err := c.Bake(nil, false); err != nil {
		t.Fatalf("Bake() error = %v", err)
	}
	if !run.aborted {
		t.Errorf("runner was not aborted")
	}
	if dom.Domain.LastGoodFrame != 3 {
		t.Errorf("LastGoodFrame = %d, want 3", dom.Domain.LastGoodFrame)
	}
	if !rep.contains("canceled") {
		t.Errorf("no cancel report, got %v", rep.msgs)
	}
}

func TestBakeSimulateError(t *testing.T) {
	dom := domainObject(t.TempDir())
	scene := bakeScene(dom)
	run := &fakeRunner{simErr: fmt.Errorf("solver blew up")}
	c, rep := controller(scene, run)

	if err := c.Bake(nil, false); err == nil {
		t.Fatalf("Bake() = nil, want solver error")
	}
	if !rep.contains("Fluid simulation failed") {
		t.Errorf("no failure report, got %v", rep.msgs)
	}
}

func TestBakeBackgroundExclusion(t *testing.T) {
	dom := domainObject(t.TempDir())
	scene := bakeScene(dom)
	c, _ := controller(scene, &fakeRunner{frames: 1})
	c.Jobs = job.NewRegistry()

	release := make(chan struct{})
	blocker := job.New("blocker", "FLUIDSIM", nil)
	if err := c.Jobs.Start(JobSlot, blocker, func() { <-release }); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	if err := c.Bake(nil, true); err == nil {
		t.Errorf("Bake() = nil, want busy slot error")
	}

	close(release)
	c.Jobs.Wait(JobSlot)

	if err := c.Bake(nil, true); err != nil {
		t.Errorf("Bake() after release error = %v", err)
	}
	c.Jobs.Wait(JobSlot)
}

func TestDeleteUntilLastFrame(t *testing.T) {
	dir := t.TempDir()
	touch := func(name string) {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0666); err != nil {
			t.Fatal(err)
		}
	}
	for f := 1; f <= 3; f++ {
		touch(fmt.Sprintf("fluidsurface_final_%04d.bobj.gz", f))
		touch(fmt.Sprintf("fluidsurface_preview_%04d.bobj.gz", f))
	}
	touch("fluidsurface_final_0002.bvel.gz")
	// Frame 4 has no final file, so the sweep ends there; its orphaned
	// preview and everything past the gap stay.
	touch("fluidsurface_preview_0004.bobj.gz")
	touch("fluidsurface_final_0006.bobj.gz")

	deleteUntilLastFrame(dir)

	left, err := filepath.Glob(filepath.Join(dir, "fluidsurface_*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 2 ||
		filepath.Base(left[0]) != "fluidsurface_final_0006.bobj.gz" ||
		filepath.Base(left[1]) != "fluidsurface_preview_0004.bobj.gz" {
		t.Errorf("leftover files = %v, want frames 4 (preview) and 6", left)
	}
}

func TestBakeSweepsStaleFiles(t *testing.T) {
	dir := t.TempDir()
	for f := 1; f <= 2; f++ {
		name := filepath.Join(dir,
			fmt.Sprintf("fluidsurface_final_%04d.bobj.gz", f))
		if err := os.WriteFile(name, nil, 0666); err != nil {
			t.Fatal(err)
		}
	}

	dom := domainObject(dir)
	dom.Domain.LastGoodFrame = -1
	run := &fakeRunner{frames: 5}
	c, _ := controller(bakeScene(dom), run)

	if err := c.Bake(dom, false); err != nil {
		t.Fatal(err)
	}

	left, err := filepath.Glob(filepath.Join(dir, "fluidsurface_final_*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 0 {
		t.Errorf("stale files survived the pre-bake sweep: %v", left)
	}
}
