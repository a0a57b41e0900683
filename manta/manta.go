/*package manta drives the grid smoke/liquid solver frame by frame under
the five-stage cache state machine. Each stage (data, noise, mesh,
particles, guiding) bakes as a resumable job: a pause marker per stage
records where a cancelled bake stopped, and the next bake of that stage
picks up there.
*/
package manta

import (
	"fmt"

	"github.com/pkg/errors"

	"fluidbake"
	"fluidbake/cache"
	"fluidbake/job"
)

// Stepper advances one stage of the grid solver by a single frame. The
// scene has already been evaluated at that frame when Step is called.
type Stepper interface {
	Step(d *fluidbake.DomainSettings, s fluidbake.Stage, frame int) error
}

// Controller owns the stage bakes of grid-solver domains. Base is the
// project base directory "//" cache paths resolve against.
type Controller struct {
	Scene fluidbake.Scene
	Rep   fluidbake.Reporter
	Step  Stepper
	Jobs  *job.Registry
	Token *job.Token
	Base  string
}

// slot keys the job registry per domain, so stages of one domain
// exclude each other while distinct domains bake in parallel.
func slot(d *fluidbake.DomainSettings) string {
	return fmt.Sprintf("manta-bake-%d", d.ID)
}

// BakeStage bakes one stage of the domain over its cache frame range.
// A stage paused earlier resumes at its pause frame. With background set
// and a registry wired, the frame loop runs on a worker goroutine and
// BakeStage returns once it has started.
func (c *Controller) BakeStage(
	dom *fluidbake.Object, s fluidbake.Stage, background bool,
) error {
	d := dom.Domain
	if d == nil {
		return errors.Errorf("object %q has no domain settings", dom.Name)
	}
	if s < 0 || s >= fluidbake.StageCount {
		return errors.Errorf("invalid bake stage %d", s)
	}
	if fluidbake.DependsOnData(s) && !d.State.Baked(fluidbake.StageData) {
		err := errors.Errorf("Bake the data stage before %s", s)
		c.Rep.Report(fluidbake.ReportError, err.Error())
		return err
	}
	if d.CacheFrameEnd-d.CacheFrameStart+1 <= 0 {
		err := errors.New("No frames to bake")
		c.Rep.Report(fluidbake.ReportError, err.Error())
		return err
	}

	dir, err := cache.InitPaths(d, c.Base, cache.DefaultDir, c.Rep)
	if err != nil {
		return err
	}
	if err := cache.EnsureStage(dir, s); err != nil {
		c.Rep.Reportf(fluidbake.ReportError, "Fluid: %v", err)
		return err
	}

	start := d.PauseFrame[s]
	if start == 0 {
		start = d.CacheFrameStart
	}

	d.Error = ""
	d.State.SetBaking(s)

	j := job.New(fmt.Sprintf("Fluid Bake %s", s), "MANTA_BAKE", c.Token)
	j.Token.Reset()

	if !background || c.Jobs == nil {
		return c.run(j, d, s, start)
	}
	if err := c.Jobs.Start(slot(d), j, func() {
		c.run(j, d, s, start)
	}); err != nil {
		c.Rep.Report(fluidbake.ReportError, err.Error())
		return err
	}
	return nil
}

// run is the bake worker: it walks the frame range, keeps the pause
// marker on the frame being stepped, and settles the state bits when the
// loop ends.
func (c *Controller) run(
	j *job.Job, d *fluidbake.DomainSettings, s fluidbake.Stage, start int,
) error {
	orig := c.Scene.Frame()
	defer c.Scene.SetFrame(orig)

	total := d.CacheFrameEnd - d.CacheFrameStart + 1
	cancelled := false

	for f := start; f <= d.CacheFrameEnd; f++ {
		d.PauseFrame[s] = f
		if total > 0 {
			j.SetProgress(float32(f-d.CacheFrameStart) / float32(total))
		}

		if err := c.Scene.SetFrame(f); err != nil {
			d.Error = errors.Wrapf(err, "evaluating frame %d", f).Error()
			break
		}
		if err := c.Step.Step(d, s, f); err != nil {
			d.Error = err.Error()
			break
		}

		// Cancellation lands after the step: the frame that was in
		// flight completes and the resume re-runs it.
		if j.Break() {
			cancelled = true
			break
		}
	}

	switch {
	case d.Error != "":
		c.Rep.Reportf(fluidbake.ReportError, "Fluid: %s", d.Error)
		return errors.New(d.Error)
	case cancelled:
		c.Rep.Reportf(fluidbake.ReportWarning,
			"Fluid: %s bake paused at frame %d", s, d.PauseFrame[s])
		return nil
	default:
		d.State.SetBaked(s)
		d.PauseFrame[s] = 0
		j.SetProgress(1)
		c.Rep.Reportf(fluidbake.ReportInfo,
			"Fluid: %s bake finished (%.2fs)", s, j.Elapsed())
		return nil
	}
}

// Free drops the cache of one stage. Freeing the data stage also frees
// the stages whose caches are derived from it; guiding survives. Free is
// rejected while any stage is baking.
func (c *Controller) Free(dom *fluidbake.Object, s fluidbake.Stage) error {
	d := dom.Domain
	if d == nil {
		return errors.Errorf("object %q has no domain settings", dom.Name)
	}
	if s < 0 || s >= fluidbake.StageCount {
		return errors.Errorf("invalid bake stage %d", s)
	}
	if d.State.AnyBaking() || c.Jobs != nil && c.Jobs.Running(slot(d)) != nil {
		err := errors.New("Cannot free a cache while a bake is in progress")
		c.Rep.Report(fluidbake.ReportError, err.Error())
		return err
	}

	dir, err := cache.InitPaths(d, c.Base, cache.DefaultDir, c.Rep)
	if err != nil {
		return err
	}

	j := job.New(fmt.Sprintf("Fluid Free %s", s), "MANTA_FREE", nil)

	stages := []fluidbake.Stage{s}
	if s == fluidbake.StageData {
		for t := fluidbake.StageData + 1; t < fluidbake.StageCount; t++ {
			if fluidbake.DependsOnData(t) {
				stages = append(stages, t)
			}
		}
	}
	for _, t := range stages {
		if err := cache.FreeStage(dir, t); err != nil {
			c.Rep.Reportf(fluidbake.ReportError, "Fluid: %v", err)
			return err
		}
		d.State.Clear(t)
		d.PauseFrame[t] = 0
	}
	d.Error = ""

	if err := c.Scene.SetFrame(d.CacheFrameStart); err != nil {
		return errors.Wrap(err, "rewinding to cache start")
	}
	c.Rep.Reportf(fluidbake.ReportInfo,
		"Fluid: freed %s (%.2fs)", s, j.Elapsed())
	return nil
}

// Pause asks the running bake of this controller to stop after the
// frame currently being stepped. The paused stage keeps its baking bit
// and pause marker, so the next bake of that stage resumes.
func (c *Controller) Pause() {
	c.Token.Cancel()
}
