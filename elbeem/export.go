package elbeem

import (
	"github.com/pkg/errors"

	"fluidbake"
	"fluidbake/sampler"
)

// ExportObjects turns every sampled object into a solver mesh descriptor
// and hands it to the runner. Domain and particle objects are skipped;
// the domain's parameters travel in the Settings record instead.
func ExportObjects(
	scene fluidbake.Scene, objs []*sampler.ObjectChannels,
	length int, run Runner,
) error {
	for _, oc := range objs {
		ob := oc.Object
		if ob.Kind == fluidbake.KindDomain || ob.Kind == fluidbake.KindParticle {
			continue
		}

		verts, tris, err := scene.Mesh(ob)
		if err != nil {
			return errors.Wrapf(err, "exporting %q", ob.Name)
		}

		mesh := &Mesh{
			Type: int(ob.Kind),
			Name: ob.Name,

			NumVertices:  len(verts) / 3,
			NumTriangles: len(tris) / 3,
			Vertices:     verts,
			Triangles:    tris,

			ChannelSizeTranslation: length,
			ChannelSizeRotation:    length,
			ChannelSizeScale:       length,
			ChannelSizeActive:      length,
			ChannelSizeInitialVel:  length,
			ChannelTranslation:     oc.Translation.Values(),
			ChannelRotation:        oc.Rotation.Values(),
			ChannelScale:           oc.Scale.Values(),
			ChannelActive:          oc.Active.Values(),

			ObstacleType:         ObstacleCode(ob.Settings.ObstacleType),
			ObstaclePartslip:     ob.Settings.PartSlip,
			VolumeInitType:       ob.Settings.VolumeInitType,
			ObstacleImpactFactor: ob.Settings.ImpactFactor,
		}

		// Initial velocity only matters for emitters.
		if ob.Kind == fluidbake.KindFluid || ob.Kind == fluidbake.KindInflow {
			mesh.ChannelInitialVel = oc.InitialVelocity.Values()
			if ob.Settings.LocalInivelCoords {
				mesh.LocalInivelCoords = 1
			}
		}

		if ob.Kind == fluidbake.KindControl {
			mesh.CpsTimeStart = ob.Settings.ControlTimeStart
			mesh.CpsTimeEnd = ob.Settings.ControlTimeEnd
			mesh.CpsQuality = ob.Settings.ControlQuality

			// The obstacle-type slot doubles as the reverse flag for
			// control meshes.
			mesh.ObstacleType = 0
			if ob.Settings.Reverse {
				mesh.ObstacleType = 1
			}

			mesh.ChannelSizeAttractforceStrength = length
			mesh.ChannelSizeAttractforceRadius = length
			mesh.ChannelSizeVelocityforceStrength = length
			mesh.ChannelSizeVelocityforceRadius = length
			mesh.ChannelAttractforceStrength = oc.AttractStrength.Values()
			mesh.ChannelAttractforceRadius = oc.AttractRadius.Values()
			mesh.ChannelVelocityforceStrength = oc.VelocityStrength.Values()
			mesh.ChannelVelocityforceRadius = oc.VelocityRadius.Values()
		}

		// A surviving vertex cache supersedes the transform channels. A
		// dropped cache (vertex count changed mid-bake) falls back to
		// them.
		if ob.Animated() && oc.Verts != nil && !oc.Verts.Dropped() {
			mesh.ChannelSizeVertices = length
			mesh.ChannelVertices = oc.Verts.Values()

			mesh.ChannelTranslation = nil
			mesh.ChannelRotation = nil
			mesh.ChannelScale = nil

			// The solver only supports no-slip deforming obstacles.
			if ob.Kind != fluidbake.KindControl {
				mesh.ObstacleType = ObstacleCode(fluidbake.ObstacleNoSlip)
			}
		}

		run.AddMesh(mesh)
	}
	return nil
}
