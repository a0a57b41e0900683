/*fluidbake_cmd bakes fluid simulations described by gcfg scene files.
Each flag selects one mode; modes that bake take a scene config whose
"//" cache paths resolve relative to the config file's directory.

An interrupt (Ctrl-C) during a grid-solver bake pauses it instead of
killing it: the stage keeps its pause marker and the next bake of that
stage resumes there.
*/
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"fluidbake"
	"fluidbake/bake"
	"fluidbake/cache"
	"fluidbake/config"
	"fluidbake/elbeem"
	"fluidbake/job"
	"fluidbake/manta"
	"fluidbake/manta/script"
	"fluidbake/sampler"
)

var stageModes = map[string]fluidbake.Stage{
	"BakeData":      fluidbake.StageData,
	"BakeNoise":     fluidbake.StageNoise,
	"BakeMesh":      fluidbake.StageMesh,
	"BakeParticles": fluidbake.StageParticles,
	"BakeGuiding":   fluidbake.StageGuiding,
	"FreeData":      fluidbake.StageData,
	"FreeNoise":     fluidbake.StageNoise,
	"FreeMesh":      fluidbake.StageMesh,
	"FreeParticles": fluidbake.StageParticles,
	"FreeGuiding":   fluidbake.StageGuiding,
}

func main() {
	log.SetFlags(log.Ltime)

	var (
		bakeSim, makeFile, plotChannels string
		exampleConfig                   string
		rateFile                        string
	)
	modeFlags := map[string]*string{
		"Bake":          &bakeSim,
		"MakeFile":      &makeFile,
		"PlotChannels":  &plotChannels,
		"ExampleConfig": &exampleConfig,
	}

	flag.StringVar(
		&bakeSim, "Bake", "",
		"Scene config file. Bakes the legacy solver over the full frame range.",
	)
	for name := range stageModes {
		p := new(string)
		modeFlags[name] = p
		verb, stage := "Bakes", strings.TrimPrefix(name, "Bake")
		if strings.HasPrefix(name, "Free") {
			verb, stage = "Frees", strings.TrimPrefix(name, "Free")
		}
		flag.StringVar(
			p, name, "",
			fmt.Sprintf("Scene config file. %s the %s stage of the grid "+
				"solver cache.", verb, strings.ToLower(stage)),
		)
	}
	flag.StringVar(
		&makeFile, "MakeFile", "",
		"Scene config file. Writes the grid solver's standalone driver "+
			"program into the cache's script directory.",
	)
	flag.StringVar(
		&plotChannels, "PlotChannels", "",
		"Scene config file. Samples the animation channels and writes a "+
			"diagnostic plot next to the config.",
	)
	flag.StringVar(
		&exampleConfig, "ExampleConfig", "",
		"Prints an example configuration file to stdout. The only "+
			"accepted argument is 'Scene'.",
	)
	flag.StringVar(
		&rateFile, "Rates", "",
		"Optional two-column table of per-frame animation rate overrides, "+
			"used by the legacy bake and channel plots.",
	)

	flag.Parse()

	modeName, err := getModeName(modeFlags)
	if err != nil {
		log.Fatal(err.Error())
	}

	if modeName == "ExampleConfig" {
		if exampleConfig != "Scene" {
			log.Fatal("Unrecognized 'ExampleConfig' argument. The only " +
				"recognized argument is 'Scene'.")
		}
		fmt.Println(config.ExampleSceneFile)
		return
	}

	cfgPath := *modeFlags[modeName]
	con, err := config.Read(cfgPath)
	if err != nil {
		log.Fatal(err.Error())
	}
	scene := config.NewScene(con)
	base := filepath.Dir(cfgPath)
	rep := logReporter{}

	rates, err := readRates(rateFile)
	if err != nil {
		log.Fatal(err.Error())
	}

	switch {
	case modeName == "Bake":
		tok := &job.Token{}
		pauseOnInterrupt(tok)
		c := &bake.Controller{
			Scene: scene,
			Rep:   rep,
			Run:   &logRunner{},
			Token: tok,
			Base:  base,
			Rates: rates,
		}
		finish(c.Bake(scene.Domain(), false), tok)

	case strings.HasPrefix(modeName, "Bake"):
		tok := &job.Token{}
		pauseOnInterrupt(tok)
		c := &manta.Controller{
			Scene: scene,
			Rep:   rep,
			Step:  &markStepper{},
			Token: tok,
			Base:  base,
		}
		finish(c.BakeStage(scene.Domain(), stageModes[modeName], false), tok)

	case strings.HasPrefix(modeName, "Free"):
		c := &manta.Controller{
			Scene: scene,
			Rep:   rep,
			Step:  &markStepper{},
			Token: &job.Token{},
			Base:  base,
		}
		finish(c.Free(scene.Domain(), stageModes[modeName]), nil)

	case modeName == "MakeFile":
		d := scene.Domain().Domain
		if _, err := cache.InitPaths(d, base, cache.DefaultDir, rep); err != nil {
			log.Fatal(err.Error())
		}
		path, err := script.Write(d)
		if err != nil {
			log.Fatal(err.Error())
		}
		log.Printf("Wrote %s", path)

	case modeName == "PlotChannels":
		d := scene.Domain().Domain
		_, efra := scene.FrameRange()
		d.BakeStart, d.BakeEnd = 1, efra
		ch, objs, err := sampler.Sample(scene, d, efra, rates)
		if err != nil {
			log.Fatal(err.Error())
		}
		out := strings.TrimSuffix(cfgPath, filepath.Ext(cfgPath)) + "_channels.png"
		sampler.PlotChannels(ch, objs, out)
		ch.Free()
		sampler.FreeObjects(objs)
		log.Printf("Wrote %s", out)

	default:
		panic("Impossible")
	}
}

func getModeName(vars map[string]*string) (string, error) {
	setNames := []string{}

	for name, varPtr := range vars {
		if *varPtr != "" {
			setNames = append(setNames, name)
		}
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No flags have been set.")
	}

	if len(setNames) > 1 {
		return "", fmt.Errorf(
			"The following flags were set: %s, but fluidbake_cmd "+
				"only accepts one flag at a time.",
			strings.Join(setNames, ", "),
		)
	}

	return setNames[0], nil
}

func readRates(path string) (*sampler.RateTable, error) {
	if path == "" {
		return nil, nil
	}
	return sampler.ReadRateTable(path)
}

// finish maps the run's outcome onto the operator result vocabulary
// and the process exit code.
func finish(err error, tok *job.Token) {
	switch {
	case err != nil:
		log.Printf("CANCELLED: %s", err)
		os.Exit(1)
	case tok != nil && tok.Cancelled():
		log.Print("CANCELLED")
		os.Exit(1)
	default:
		log.Print("FINISHED")
	}
}

// pauseOnInterrupt turns the first Ctrl-C into a cooperative pause.
func pauseOnInterrupt(tok *job.Token) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt)
	go func() {
		<-ch
		log.Print("Interrupt: pausing after the current frame")
		tok.Cancel()
		signal.Stop(ch)
	}()
}

type logReporter struct{}

func (logReporter) Report(l fluidbake.ReportLevel, msg string) {
	log.Printf("%s: %s", l, msg)
}

func (logReporter) Reportf(
	l fluidbake.ReportLevel, format string, args ...interface{},
) {
	log.Printf("%s: %s", l, fmt.Sprintf(format, args...))
}

// logRunner stands in for the legacy solver library: it accepts the
// staged simulation and walks the frame callback so progress and
// cancellation behave, without producing surface files.
type logRunner struct {
	level  int
	set    *elbeem.Settings
	meshes int
}

func (r *logRunner) SetDebugLevel(level int) { r.level = level }

func (r *logRunner) DebugOut(msg string) {
	if r.level > 0 {
		log.Print(strings.TrimRight(msg, "\n"))
	}
}

func (r *logRunner) Init() { r.set, r.meshes = nil, 0 }

func (r *logRunner) AddDomain(set *elbeem.Settings) { r.set = set }

func (r *logRunner) AddMesh(m *elbeem.Mesh) {
	r.meshes++
	log.Printf("Staged mesh %q (%d vertices)", m.Name, m.NumVertices)
}

func (r *logRunner) Simulate() error {
	if r.set == nil {
		return fmt.Errorf("no domain staged")
	}
	log.Printf("Simulating %d frames at resolution %d (%d meshes)",
		r.set.NoOfFrames, r.set.ResolutionXYZ, r.meshes)
	for frame := 1; frame <= r.set.NoOfFrames; frame++ {
		if r.set.RunsimCallback == nil {
			continue
		}
		if r.set.RunsimCallback(elbeem.CbStatusNewFrame, frame) == elbeem.CbAbort {
			return nil
		}
	}
	return nil
}

// markStepper stands in for the grid solver: each step drops a frame
// marker into the stage's cache directory, so pause, resume, and free
// operate on real files.
type markStepper struct{}

func (markStepper) Step(
	d *fluidbake.DomainSettings, s fluidbake.Stage, frame int,
) error {
	dir := cache.StageDir(d.CacheDir, s)
	name := filepath.Join(dir, fmt.Sprintf("%s_%04d.uni", s, frame))
	return os.WriteFile(name, nil, 0666)
}
