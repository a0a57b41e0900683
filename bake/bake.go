/*package bake runs the legacy solver pipeline: validate the scene,
prepare the cache directory, sample the animation channels, hand domain
and meshes to the solver, and drive the blocking simulate call as a
cancellable job.
*/
package bake

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"fluidbake"
	"fluidbake/cache"
	"fluidbake/elbeem"
	"fluidbake/geom"
	"fluidbake/job"
	"fluidbake/sampler"
)

// JobSlot is the registry key of the legacy bake. One bake at a time.
const JobSlot = "fluidsim-bake"

// Controller owns one legacy bake pipeline. Base is the project base
// directory "//" cache paths resolve against; Rates optionally overrides
// the domain's animation rate per frame.
type Controller struct {
	Scene fluidbake.Scene
	Rep   fluidbake.Reporter
	Run   elbeem.Runner
	Jobs  *job.Registry
	Token *job.Token
	Base  string
	Rates *sampler.RateTable
}

// Validate checks that the scene can be baked and returns the domain
// object. A nil domain is adopted from the scene if there is exactly one.
func Validate(scene fluidbake.Scene, domain *fluidbake.Object) (*fluidbake.Object, error) {
	var (
		found      *fluidbake.Object
		domains    int
		channelObs int
		inputs     int
	)
	for _, ob := range scene.Objects() {
		switch ob.Kind {
		case fluidbake.KindDomain:
			domains++
			found = ob
		case fluidbake.KindParticle:
			// No channels exported for particle objects.
		default:
			channelObs++
		}
		if ob.Kind == fluidbake.KindFluid || ob.Kind == fluidbake.KindInflow {
			inputs++
		}
	}

	if domains > 1 {
		return nil, errors.New("There should be only one domain object")
	}
	if domain == nil {
		domain = found
	}
	if domain == nil || domain.Kind != fluidbake.KindDomain {
		return nil, errors.New("No domain object found")
	}
	if domain.Domain == nil {
		return nil, errors.Errorf("object %q has no domain settings", domain.Name)
	}
	if channelObs > 255 {
		return nil, errors.New("Cannot bake with more than 256 objects")
	}
	if inputs == 0 {
		return nil, errors.New("No fluid input objects in the scene")
	}
	return domain, nil
}

// Bake runs the whole pipeline for the given domain (nil adopts the
// scene's sole domain). With background set and a registry wired, the
// simulate call runs on a worker goroutine and Bake returns immediately
// after it starts.
func (c *Controller) Bake(domain *fluidbake.Object, background bool) error {
	dom, err := Validate(c.Scene, domain)
	if err != nil {
		c.Rep.Report(fluidbake.ReportError, err.Error())
		return err
	}
	d := dom.Domain

	_, efra := c.Scene.FrameRange()
	noFrames := efra
	if noFrames <= 0 {
		err := errors.New("No frames to export (check your animation range settings)")
		c.Rep.Report(fluidbake.ReportError, err.Error())
		return err
	}

	if elbeem.ApplyDebugEnv(c.Run) {
		c.Run.DebugOut(fmt.Sprintf(
			"fluidsimBake: using envvar %s\n", elbeem.DebugEnv))
	}

	dir, err := cache.InitPaths(d, c.Base, cache.DefaultLegacyDir, c.Rep)
	if err != nil {
		return err
	}
	d.BakeStart = 1
	d.BakeEnd = efra
	d.LastGoodFrame = -1
	deleteUntilLastFrame(dir)

	verts, _, err := c.Scene.Mesh(dom)
	if err != nil {
		c.Rep.Reportf(fluidbake.ReportError, "Fluid: %v", err)
		return err
	}
	world := c.Scene.State(dom).World
	d.BBStart, d.BBSize = boundingBox(verts, world)

	inv, ok := world.Invert()
	if !ok {
		err := errors.New("Invalid object matrix")
		c.Rep.Report(fluidbake.ReportError, err.Error())
		return err
	}

	if d.PreviewResolution > d.Resolution {
		c.Run.DebugOut(fmt.Sprintf(
			"fluidsimBake: preview (%d) larger than resolution (%d), clamped\n",
			d.PreviewResolution, d.Resolution))
		d.PreviewResolution = d.Resolution
	}

	ch, objs, err := sampler.Sample(c.Scene, d, noFrames, c.Rates)
	if err != nil {
		ch.Free()
		sampler.FreeObjects(objs)
		c.Rep.Reportf(fluidbake.ReportError, "Fluid: %v", err)
		return err
	}

	j := job.New("Fluid Simulation", "FLUIDSIM", c.Token)
	j.Token.Reset()

	set := c.settings(d, ch, inv)
	set.RunsimCallback = func(status, frame int) elbeem.CbRet {
		if status == elbeem.CbStatusNewFrame {
			j.SetProgress(float32(frame) / float32(noFrames))
			d.LastGoodFrame = frame
		}
		if j.Break() {
			return elbeem.CbAbort
		}
		return elbeem.CbContinue
	}

	c.Run.Init()
	c.Run.AddDomain(set)
	if err := elbeem.ExportObjects(c.Scene, objs, noFrames, c.Run); err != nil {
		ch.Free()
		sampler.FreeObjects(objs)
		c.Rep.Reportf(fluidbake.ReportError, "Fluid: %v", err)
		return err
	}

	if !background || c.Jobs == nil {
		return c.simulate(j, ch, objs)
	}
	if err := c.Jobs.Start(JobSlot, j, func() {
		c.simulate(j, ch, objs)
	}); err != nil {
		ch.Free()
		sampler.FreeObjects(objs)
		c.Rep.Report(fluidbake.ReportError, err.Error())
		return err
	}
	return nil
}

// simulate runs the blocking solver call and releases the channel
// buffers and object lists, which stay alive for the solver's lifetime.
func (c *Controller) simulate(
	j *job.Job, ch *sampler.Channels, objs []*sampler.ObjectChannels,
) error {
	err := c.Run.Simulate()

	ch.Free()
	sampler.FreeObjects(objs)

	switch {
	case err != nil:
		c.Rep.Reportf(fluidbake.ReportError, "Fluid simulation failed: %v", err)
		return err
	case j.Break():
		c.Rep.Report(fluidbake.ReportWarning, "Fluid simulation canceled")
		return nil
	default:
		c.Rep.Reportf(fluidbake.ReportInfo,
			"Fluid simulation finished (%.2fs)", j.Elapsed())
		return nil
	}
}

// settings assembles the solver's domain record from the sampled
// channels and the domain parameters.
func (c *Controller) settings(
	d *fluidbake.DomainSettings, ch *sampler.Channels, inv geom.Mat4,
) *elbeem.Settings {
	threads := d.Threads
	if threads == 0 {
		threads = c.Scene.Threads()
	}

	gridlevels := d.MaxRefine
	if gridlevels < 0 {
		switch {
		case d.Resolution > 128:
			gridlevels = 2
		case d.Resolution > 64:
			gridlevels = 1
		default:
			gridlevels = 0
		}
	}

	surfGen := 0
	if d.SurfGenNoObs {
		surfGen = fluidbake.SurfGenNoObs
	}
	vertexVectors := 1
	if d.NoVertexVectors {
		vertexVectors = 0
	}

	gravity := d.Gravity
	if g, override := c.Scene.Gravity(); override {
		gravity = g
	}

	return &elbeem.Settings{
		Version:  1,
		DomainID: 0,
		Threads:  threads,

		ResolutionXYZ: d.Resolution,
		PreviewResXYZ: d.PreviewResolution,
		RealSize:      c.realSize(d),
		Viscosity:     d.Viscosity(),
		GStar:         d.GStar,
		MaxRefine:     gridlevels,

		GeoStart: d.BBStart,
		GeoSize:  d.BBSize,
		Gravity:  gravity,

		AnimStart:    d.AnimStart,
		AniFrameTime: ch.AniFrameTime,
		NoOfFrames:   ch.Length,

		GenerateParticles:     d.GenerateParticles,
		NumTracerParticles:    d.GenerateTracers,
		SurfaceSmoothing:      d.SurfaceSmoothing,
		SurfaceSubdivs:        d.SurfaceSubdivs,
		FarFieldSize:          d.FarFieldSize,
		GenerateVertexVectors: vertexVectors,

		DomainObsType:     elbeem.ObstacleCode(d.ObstacleType),
		DomainObsPartslip: d.PartSlip,
		SurfGenSetting:    surfGen,

		OutputPath:   filepath.Join(d.CacheDir, "fluidsurface"),
		SurfaceTrafo: inv.TransposedFlat(),

		ChannelSizeFrameTime: ch.Length,
		ChannelSizeViscosity: ch.Length,
		ChannelSizeGravity:   ch.Length,
		ChannelFrameTime:     ch.Time.Values(),
		ChannelViscosity:     ch.Viscosity.Values(),
		ChannelGravity:       ch.Gravity.Values(),
	}
}

// realSize is the simulated domain size in meters. With a unit system
// enabled the longest world-space axis of the domain wins over the
// user-set size.
func (c *Controller) realSize(d *fluidbake.DomainSettings) float32 {
	scale, enabled := c.Scene.UnitScale()
	if !enabled {
		return d.RealSize
	}
	longest := math32.Max(d.BBSize[0], math32.Max(d.BBSize[1], d.BBSize[2]))
	return longest * scale
}

// boundingBox is the world-space axis-aligned box of the vertex array.
func boundingBox(verts []float32, world geom.Mat4) (start, size geom.Vec) {
	if len(verts) < 3 {
		return
	}
	first := world.MulVec(geom.Vec{verts[0], verts[1], verts[2]})
	min, max := first, first
	for i := 3; i+2 < len(verts); i += 3 {
		v := world.MulVec(geom.Vec{verts[i], verts[i+1], verts[i+2]})
		min = min.Min(v)
		max = max.Max(v)
	}
	return min, max.Sub(min)
}

// deleteUntilLastFrame sweeps stale output files of a previous bake,
// walking frame numbers upward from 1 for as long as the frame's final
// surface file exists.
func deleteUntilLastFrame(dir string) {
	for frame := 1; ; frame++ {
		final := filepath.Join(dir,
			fmt.Sprintf("fluidsurface_final_%04d.bobj.gz", frame))
		if _, err := os.Stat(final); err != nil {
			return
		}
		os.Remove(final)
		os.Remove(filepath.Join(dir,
			fmt.Sprintf("fluidsurface_final_%04d.bvel.gz", frame)))
		os.Remove(filepath.Join(dir,
			fmt.Sprintf("fluidsurface_preview_%04d.bobj.gz", frame)))
	}
}
