/*package script emits the standalone driver programs of the grid
solver. A script is assembled from fixed text fragments carrying
$KEY$ placeholders; the domain settings supply the values. Emission is
deterministic: the same settings always produce the same bytes.
*/
package script

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"fluidbake"
	"fluidbake/cache"
)

var keyRe = regexp.MustCompile(`\$[A-Z][A-Z0-9_]*\$`)

// expand substitutes every $KEY$ placeholder. $ID$ becomes the domain
// id in decimal; all other keys must be present in vals.
func expand(tpl string, id int, vals map[string]string) (string, error) {
	var missing []string
	out := keyRe.ReplaceAllStringFunc(tpl, func(m string) string {
		key := m[1 : len(m)-1]
		if key == "ID" {
			return strconv.Itoa(id)
		}
		v, ok := vals[key]
		if !ok {
			missing = append(missing, key)
			return m
		}
		return v
	})
	if len(missing) != 0 {
		return "", errors.Errorf(
			"unresolved script keys: %s", strings.Join(missing, ", "))
	}
	return out, nil
}

func boolVal(b bool) string {
	if b {
		return "True"
	}
	return "False"
}

func intVal(i int) string { return strconv.Itoa(i) }

func floatVal(f float32) string {
	return strconv.FormatFloat(float64(f), 'g', -1, 32)
}

func maxInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// commonValues holds the keys every script flavor substitutes.
func commonValues(d *fluidbake.DomainSettings) map[string]string {
	g := d.Gravity
	return map[string]string{
		"CACHE_DIR":         d.CacheDir,
		"CACHE_FRAME_START": intVal(d.CacheFrameStart),
		"CACHE_FRAME_END":   intVal(d.CacheFrameEnd),
		"GRAVITY_X":         floatVal(g[0]),
		"GRAVITY_Y":         floatVal(g[1]),
		"GRAVITY_Z":         floatVal(g[2]),
	}
}

// ExportGas renders the smoke driver program of the domain.
func ExportGas(d *fluidbake.DomainSettings) (string, error) {
	gs := &d.Gas
	vals := commonValues(d)
	for k, v := range map[string]string{
		"RES_X":           intVal(gs.ResX),
		"RES_Y":           intVal(gs.ResY),
		"RES_Z":           intVal(gs.ResZ),
		"RES_MAX":         intVal(maxInt(gs.ResX, gs.ResY, gs.ResZ)),
		"DT":              floatVal(gs.DT),
		"CFL":             floatVal(gs.CFL),
		"BOUNDARY_WIDTH":  intVal(gs.BoundaryWidth),
		"DO_OPEN":         boolVal(gs.OpenBounds),
		"BOUND_CONDITIONS": gs.BoundConditions,
		"USING_GUIDING":   boolVal(gs.UsingGuiding),
		"USING_OBSTACLE":  boolVal(gs.UsingObstacle),
		"USING_INVEL":     boolVal(gs.UsingInvel),

		"USING_COLORS":   boolVal(gs.UsingColors),
		"USING_HEAT":     boolVal(gs.UsingHeat),
		"USING_FIRE":     boolVal(gs.UsingFire),
		"USING_NOISE":    boolVal(gs.UsingNoise),
		"VORTICITY":      floatVal(gs.Vorticity),
		"BUOYANCY_ALPHA": floatVal(gs.BuoyancyAlpha),
		"BUOYANCY_BETA":  floatVal(gs.BuoyancyBeta),
		"ADVECT_ORDER":   intVal(gs.AdvectOrder),

		"COLOR_R": floatVal(gs.ColorR),
		"COLOR_G": floatVal(gs.ColorG),
		"COLOR_B": floatVal(gs.ColorB),

		"BURNING_RATE":        floatVal(gs.BurningRate),
		"FLAME_SMOKE":         floatVal(gs.FlameSmoke),
		"IGNITION_TEMP":       floatVal(gs.IgnitionTemp),
		"MAX_TEMP":            floatVal(gs.MaxTemp),
		"FLAME_SMOKE_COLOR_X": floatVal(gs.FlameSmokeColor[0]),
		"FLAME_SMOKE_COLOR_Y": floatVal(gs.FlameSmokeColor[1]),
		"FLAME_SMOKE_COLOR_Z": floatVal(gs.FlameSmokeColor[2]),

		"NOISE_UPRES":    intVal(gs.NoiseUpres),
		"WLT_STR":        floatVal(gs.NoiseStrength),
		"NOISE_POSSCALE": floatVal(gs.NoisePosScale),
		"NOISE_TIMEANIM": floatVal(gs.NoiseTimeAnim),
	} {
		vals[k] = v
	}

	parts := []string{fluidHeader, fluidVariables, fluidSolver}
	if gs.UsingNoise {
		parts = append(parts, fluidSolverNoise)
	}
	parts = append(parts, fluidAlloc)
	if gs.UsingGuiding {
		parts = append(parts, fluidAllocGuiding)
	}

	parts = append(parts, smokeBounds, smokeVariables, smokeAlloc)
	if gs.UsingNoise {
		// The noise grids must exist before their bounds and wavelet
		// parameters refer to them.
		parts = append(parts,
			smokeAllocNoise, smokeBoundsNoise, smokeVariablesNoise)
	}
	if gs.UsingHeat {
		parts = append(parts, smokeAllocHeat)
	}
	if gs.UsingColors {
		parts = append(parts, smokeAllocColors)
		if gs.UsingNoise {
			parts = append(parts, smokeAllocColorsNoise)
		}
		parts = append(parts, smokeInitColors)
		if gs.UsingNoise {
			parts = append(parts, smokeInitColorsNoise)
		}
	}
	if gs.UsingFire {
		parts = append(parts, smokeAllocFire)
		if gs.UsingNoise {
			parts = append(parts, smokeAllocFireNoise)
		}
	}
	parts = append(parts, fluidPrePostStep)
	if gs.UsingNoise {
		parts = append(parts, smokePreStepNoise, smokePostStepNoise)
	}
	parts = append(parts, smokeAdaptiveStep)
	if gs.UsingNoise {
		parts = append(parts, fluidAdaptTimeStepNoise, smokeAdaptiveStepNoise)
	}
	parts = append(parts, smokeStep)
	if gs.UsingNoise {
		parts = append(parts, smokeStepNoise)
	}
	parts = append(parts, fluidFileIO, smokeLoadData, smokeSaveData)
	if gs.UsingNoise {
		parts = append(parts, smokeLoadNoise, smokeSaveNoise)
	}
	parts = append(parts, smokeStandalone, fluidStandalone)

	return expand(strings.Join(parts, ""), d.ID, vals)
}

// ExportLiquid renders the liquid driver program of the domain.
func ExportLiquid(d *fluidbake.DomainSettings) (string, error) {
	ls := &d.Liquid
	vals := commonValues(d)
	for k, v := range map[string]string{
		"RES_X":           intVal(ls.ResX),
		"RES_Y":           intVal(ls.ResY),
		"RES_Z":           intVal(ls.ResZ),
		"RES_MAX":         intVal(maxInt(ls.ResX, ls.ResY, ls.ResZ)),
		"DT":              floatVal(ls.DT),
		"CFL":             floatVal(ls.CFL),
		"BOUNDARY_WIDTH":  intVal(ls.BoundaryWidth),
		"DO_OPEN":         boolVal(ls.OpenBounds),
		"BOUND_CONDITIONS": ls.BoundConditions,
		"USING_GUIDING":   boolVal(ls.UsingGuiding),
		"USING_OBSTACLE":  boolVal(ls.UsingObstacle),
		"USING_INVEL":     boolVal(ls.UsingInvel),

		"USING_MESH":           boolVal(ls.UsingMesh),
		"PARTICLE_RADIUS":      floatVal(ls.ParticleRadius),
		"PARTICLE_RANDOMNESS":  floatVal(ls.ParticleRandomness),
		"PARTICLE_NUMBER":      intVal(ls.ParticleNumber),
		"PARTICLE_MINIMUM":     intVal(ls.ParticleMinimum),
		"PARTICLE_MAXIMUM":     intVal(ls.ParticleMaximum),
		"FLIP_RATIO":           floatVal(ls.FlipRatio),
		"MESH_UPRES":           intVal(ls.MeshUpres),
		"MESH_SMOOTHEN_POS":    intVal(ls.MeshSmoothenPos),
		"MESH_SMOOTHEN_NEG":    intVal(ls.MeshSmoothenNeg),
		"MESH_CONCAVE_UPPER":   floatVal(ls.MeshConcaveUpper),
		"MESH_CONCAVE_LOWER":   floatVal(ls.MeshConcaveLower),
		"MESH_PARTICLE_RADIUS": floatVal(ls.MeshParticleRadius),
	} {
		vals[k] = v
	}

	parts := []string{fluidHeader, fluidVariables, fluidSolver}
	if ls.UsingMesh {
		parts = append(parts, liquidSolverMesh)
	}
	parts = append(parts, fluidAlloc)
	if ls.UsingGuiding {
		parts = append(parts, fluidAllocGuiding)
	}
	parts = append(parts, liquidBounds, liquidVariables, liquidAlloc)
	if ls.UsingMesh {
		parts = append(parts, liquidAllocMesh)
	}
	parts = append(parts, fluidPrePostStep, liquidAdaptiveStep, liquidStep)
	if ls.UsingMesh {
		parts = append(parts, liquidStepMesh)
	}
	parts = append(parts, fluidFileIO,
		liquidLoadData, liquidSaveData)
	if ls.UsingMesh {
		parts = append(parts, liquidSaveMesh)
	}
	parts = append(parts, liquidStandalone, fluidStandalone)

	return expand(strings.Join(parts, ""), d.ID, vals)
}

// Export renders the flavor matching the domain type.
func Export(d *fluidbake.DomainSettings) (string, error) {
	if d.Type == fluidbake.DomainLiquid {
		return ExportLiquid(d)
	}
	return ExportGas(d)
}

// Write renders the domain's driver program into the cache's script
// directory and returns its path.
func Write(d *fluidbake.DomainSettings) (string, error) {
	text, err := Export(d)
	if err != nil {
		return "", err
	}
	dir := cache.ScriptDir(d.CacheDir)
	if err := os.MkdirAll(dir, 0777); err != nil {
		return "", errors.Wrap(err, "creating script directory")
	}
	path := filepath.Join(dir, fmt.Sprintf("fluid_script_%04d.py", d.ID))
	if err := os.WriteFile(path, []byte(text), 0666); err != nil {
		return "", errors.Wrap(err, "writing script")
	}
	return path, nil
}
