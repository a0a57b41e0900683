package script

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fluidbake"
	"fluidbake/geom"
)

func gasDomain() *fluidbake.DomainSettings {
	return &fluidbake.DomainSettings{
		ID:              0,
		Type:            fluidbake.DomainGas,
		Gravity:         geom.Vec{0, 0, -9.81},
		CacheDir:        "/tmp/cache_fluid",
		CacheFrameStart: 1,
		CacheFrameEnd:   250,
		Gas: fluidbake.GasSettings{
			BoundaryWidth:   1,
			BoundConditions: "xXyYzZ",
			ResX:            64, ResY: 64, ResZ: 80,
			DT:  0.1,
			CFL: 4,

			Vorticity:     0.2,
			BuoyancyAlpha: 1,
			BuoyancyBeta:  0.8,
			AdvectOrder:   2,

			NoiseUpres:    2,
			NoiseStrength: 1,
			NoisePosScale: 2,
			NoiseTimeAnim: 0.1,
		},
	}
}

func TestExpand(t *testing.T) {
	out, err := expand("x_s$ID$ = $FOO$\n", 3, map[string]string{"FOO": "True"})
	if err != nil {
		t.Fatalf("expand() error = %v", err)
	}
	if out != "x_s3 = True\n" {
		t.Errorf("expand() = %q", out)
	}
}

func TestExpandMissingKey(t *testing.T) {
	_, err := expand("a = $NOPE$\nb = $ALSO_NOT$\n", 0, map[string]string{})
	if err == nil {
		t.Fatalf("expand() = nil, want missing key error")
	}
	if !strings.Contains(err.Error(), "NOPE") ||
		!strings.Contains(err.Error(), "ALSO_NOT") {
		t.Errorf("error %q does not name the missing keys", err)
	}
}

func TestGasFeatureSelection(t *testing.T) {
	d := gasDomain()
	d.Gas.UsingColors = true
	d.Gas.UsingFire = true

	out, err := ExportGas(d)
	if err != nil {
		t.Fatalf("ExportGas() error = %v", err)
	}

	for _, want := range []string{
		"Allocating colors", "color_r_s0   = s0.create(RealGrid)",
		"Allocating fire", "fuel_s0   = s0.create(RealGrid)",
		"using_colors_s0    = True",
		"using_noise_s0     = False",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("script lacks %q", want)
		}
	}
	for _, avoid := range []string{
		"density_sn0", "Allocating heat", "Smoke domain noise",
	} {
		if strings.Contains(out, avoid) {
			t.Errorf("script contains %q without its feature", avoid)
		}
	}
	if strings.Contains(out, "$") {
		t.Errorf("unexpanded placeholder left in script")
	}
}

func TestGasNoise(t *testing.T) {
	d := gasDomain()
	d.Gas.UsingNoise = true

	out, err := ExportGas(d)
	if err != nil {
		t.Fatalf("ExportGas() error = %v", err)
	}
	for _, want := range []string{
		"density_sn0", "wltnoise_sn0", "smoke_adaptive_step_noise_0",
		"upres_sn0 = 2",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("script lacks %q", want)
		}
	}
}

func TestGasDeterministic(t *testing.T) {
	d := gasDomain()
	d.Gas.UsingHeat = true
	d.Gas.UsingNoise = true

	a, err := ExportGas(d)
	if err != nil {
		t.Fatalf("ExportGas() error = %v", err)
	}
	b, err := ExportGas(d)
	if err != nil {
		t.Fatalf("ExportGas() error = %v", err)
	}
	if a != b {
		t.Errorf("two exports of the same settings differ")
	}
}

func TestLiquid(t *testing.T) {
	d := gasDomain()
	d.ID = 4
	d.Type = fluidbake.DomainLiquid
	d.Liquid = fluidbake.LiquidSettings{
		BoundaryWidth: 1, BoundConditions: "xXyYzZ",
		ResX: 32, ResY: 32, ResZ: 32,
		DT: 0.1, CFL: 4,
		ParticleRadius: 1, ParticleNumber: 2,
		ParticleMinimum: 8, ParticleMaximum: 16,
		FlipRatio: 0.97,
	}

	out, err := Export(d)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	for _, want := range []string{
		"pp_s4", "liquid_step_4", "flipRatio_s4       = 0.97",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("script lacks %q", want)
		}
	}
	if strings.Contains(out, "solver_mesh_s4") {
		t.Errorf("mesh solver emitted without mesh support")
	}
	if strings.Contains(out, "$") {
		t.Errorf("unexpanded placeholder left in script")
	}

	d.Liquid.UsingMesh = true
	d.Liquid.MeshUpres = 2
	out, err = Export(d)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	for _, want := range []string{
		"solver_mesh_s4", "mesh_sm4", "liquid_save_mesh_4",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("mesh script lacks %q", want)
		}
	}
}

func TestWrite(t *testing.T) {
	d := gasDomain()
	d.ID = 7
	d.CacheDir = t.TempDir()

	path, err := Write(d)
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if want := filepath.Join(d.CacheDir, "script", "fluid_script_0007.py"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text, err := Export(d)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != text {
		t.Errorf("file content differs from export")
	}
}
