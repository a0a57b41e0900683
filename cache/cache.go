/*package cache resolves and maintains the on-disk cache layout of a
simulation domain:

	<cache>/data/       primary grids
	<cache>/noise/      wavelet noise grids
	<cache>/mesh/       surface meshes
	<cache>/particles/  secondary particles
	<cache>/guiding/    guiding velocity field
	<cache>/script/     emitted driver programs

Cache paths are stored project-relative (with a "//" prefix) or
absolute. Resolution is side-effectful: an unusable path is reset to the
stage default inside the domain settings so the change is visible to the
user.
*/
package cache

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"fluidbake"
)

// Stage subdirectory names.
const (
	DirData      = "data"
	DirNoise     = "noise"
	DirMesh      = "mesh"
	DirParticles = "particles"
	DirGuiding   = "guiding"
	DirScript    = "script"
)

// Defaults a reset falls back to.
const (
	DefaultDir       = "//cache_fluid"
	DefaultLegacyDir = "//fluidsimdata"
)

// Resolve turns a stored cache path into an absolute one. Paths starting
// with "//" are relative to the project base directory.
func Resolve(base, path string) string {
	if strings.HasPrefix(path, "//") {
		return filepath.Join(base, path[2:])
	}
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// StageDir returns the absolute directory of one stage's cache.
func StageDir(cacheDir string, s fluidbake.Stage) string {
	return filepath.Join(cacheDir, s.String())
}

// ScriptDir returns the absolute directory emitted driver programs go
// into.
func ScriptDir(cacheDir string) string {
	return filepath.Join(cacheDir, DirScript)
}

// InitPaths resolves the domain's cache directory, creates it, and
// probes it for writability. An unusable directory is reset to def (and
// the reset reported as a warning or error) and checked once more; a
// second failure is a hard error and the bake must not start.
func InitPaths(
	d *fluidbake.DomainSettings, base, def string, rep fluidbake.Reporter,
) (string, error) {
	if d.CacheDir == "" {
		d.CacheDir = def
		rep.Reportf(fluidbake.ReportWarning,
			"Fluid: empty cache path, reset to default '%s'", d.CacheDir)
	}

	dir := Resolve(base, d.CacheDir)
	if usable(dir) {
		d.CacheDir = dir
		return dir, nil
	}

	rep.Reportf(fluidbake.ReportError,
		"Fluid: could not use cache directory '%s', reset to default '%s'",
		dir, def)
	d.CacheDir = def

	dir = Resolve(base, d.CacheDir)
	if usable(dir) {
		d.CacheDir = dir
		return dir, nil
	}

	rep.Reportf(fluidbake.ReportError,
		"Fluid: could not use default cache directory '%s', "+
			"please define a valid cache path manually", dir)
	return "", errors.Errorf("unusable cache directory %s", dir)
}

// usable creates dir recursively and verifies a probe file can be
// written into it.
func usable(dir string) bool {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false
	}

	probe := filepath.Join(dir, ".fluidbake_probe")
	f, err := os.Create(probe)
	if err != nil {
		return false
	}
	f.Close()
	os.Remove(probe)
	return true
}

// EnsureStage creates a stage's cache directory.
func EnsureStage(cacheDir string, s fluidbake.Stage) error {
	if err := os.MkdirAll(StageDir(cacheDir, s), 0755); err != nil {
		return errors.Wrapf(err, "creating %s cache", s)
	}
	return nil
}

// FreeStage recursively removes a stage's cache directory. A missing
// directory is not an error.
func FreeStage(cacheDir string, s fluidbake.Stage) error {
	dir := StageDir(cacheDir, s)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrapf(err, "removing %s cache", s)
	}
	return nil
}
