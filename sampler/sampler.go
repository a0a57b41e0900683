/*package sampler walks the bake's frame range, re-evaluates the scene
through the host at every frame, and fills the animation channels the
legacy solver consumes: domain time/gravity/viscosity plus per-object
transform, activity, force, and vertex-cache channels.
*/
package sampler

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"fluidbake"
	"fluidbake/channel"
	"fluidbake/geom"
)

// Channels holds the domain-level channels of one bake.
type Channels struct {
	Length       int
	AniFrameTime float64

	// TimeAtFrame[i+1] is the simulation time stamped onto frame i's
	// samples. Index 0 and 1 both start at the domain's animStart.
	TimeAtFrame []float32

	Time      *channel.Float
	Viscosity *channel.Float
	Gravity   *channel.Vec
}

// Free releases every domain channel. The bake controller calls this on
// every exit path.
func (c *Channels) Free() {
	c.TimeAtFrame = nil
	c.Time.Free()
	c.Viscosity.Free()
	c.Gravity.Free()
}

// ObjectChannels holds the channels of one participating object. Domain
// and particle objects get an entry with no channels allocated, matching
// the object list the exporter walks.
type ObjectChannels struct {
	Object *fluidbake.Object

	Translation     *channel.Vec
	Rotation        *channel.Vec
	Scale           *channel.Vec
	Active          *channel.Float
	InitialVelocity *channel.Vec

	// Control objects only.
	AttractStrength  *channel.Float
	AttractRadius    *channel.Float
	VelocityStrength *channel.Float
	VelocityRadius   *channel.Float

	// Animated meshes only.
	Verts    *channel.Verts
	NumVerts int
	NumTris  int
}

func (oc *ObjectChannels) skip() bool {
	k := oc.Object.Kind
	return k == fluidbake.KindDomain || k == fluidbake.KindParticle
}

// Free releases all allocated channels of the object.
func (oc *ObjectChannels) Free() {
	if oc.Translation != nil {
		oc.Translation.Free()
		oc.Rotation.Free()
		oc.Scale.Free()
		oc.Active.Free()
		oc.InitialVelocity.Free()
	}
	if oc.AttractStrength != nil {
		oc.AttractStrength.Free()
		oc.AttractRadius.Free()
		oc.VelocityStrength.Free()
		oc.VelocityRadius.Free()
	}
	if oc.Verts != nil {
		oc.Verts.Free()
	}
}

// FreeObjects releases the channels of every object in the list.
func FreeObjects(objs []*ObjectChannels) {
	for _, oc := range objs {
		oc.Free()
	}
}

// Sample allocates and fills all channels for one bake of length frames.
// The scene's current frame is mutated during sampling and restored
// before Sample returns. A fatal scene evaluation error aborts the bake;
// freeing the partially filled channels stays the caller's job.
func Sample(
	scene fluidbake.Scene, d *fluidbake.DomainSettings,
	length int, rates *RateTable,
) (*Channels, []*ObjectChannels, error) {
	ch := &Channels{
		Length:       length,
		AniFrameTime: float64(d.AnimEnd-d.AnimStart) / float64(length),
		Time:         channel.NewFloat(length),
		Viscosity:    channel.NewFloat(length),
		Gravity:      channel.NewVec(length),
	}

	// Time bootstrap, assuming a constant rate; the frame loop below
	// refines every entry past index 1.
	ch.TimeAtFrame = make([]float32, length+1)
	ch.TimeAtFrame[0] = d.AnimStart
	ch.TimeAtFrame[1] = d.AnimStart
	for i := 2; i <= length; i++ {
		ch.TimeAtFrame[i] = ch.TimeAtFrame[i-1] + float32(ch.AniFrameTime)
	}

	objs, err := allocObjects(scene, length)
	if err != nil {
		return ch, objs, err
	}

	orig := scene.Frame()
	defer scene.SetFrame(orig)

	for i := 0; i < length; i++ {
		frame := d.BakeStart + i
		if err := scene.SetFrame(frame); err != nil {
			return ch, objs, errors.Wrapf(err, "evaluating frame %d", frame)
		}

		rate := d.Rate()
		if rates != nil {
			rate = rates.Rate(frame, rate)
		}
		time := rate * float32(ch.AniFrameTime)
		if i > 0 {
			ch.TimeAtFrame[i+1] = ch.TimeAtFrame[i] + time
		}
		stamp := ch.TimeAtFrame[i+1]

		ch.Time.Set(i, stamp, time)

		gravity := d.Gravity
		if g, override := scene.Gravity(); override {
			gravity = g
		}
		ch.Gravity.Set(i, stamp, gravity)
		ch.Viscosity.Set(i, stamp, d.Viscosity())

		for _, oc := range objs {
			if oc.skip() {
				continue
			}
			sampleObject(scene, oc, i, stamp)
		}
	}

	return ch, objs, nil
}

func allocObjects(
	scene fluidbake.Scene, length int,
) ([]*ObjectChannels, error) {
	var objs []*ObjectChannels
	for _, ob := range scene.Objects() {
		oc := &ObjectChannels{Object: ob}
		objs = append(objs, oc)
		if oc.skip() {
			continue
		}

		oc.Translation = channel.NewVec(length)
		oc.Rotation = channel.NewVec(length)
		oc.Scale = channel.NewVec(length)
		oc.Active = channel.NewFloat(length)
		oc.InitialVelocity = channel.NewVec(length)

		if ob.Kind == fluidbake.KindControl {
			oc.AttractStrength = channel.NewFloat(length)
			oc.AttractRadius = channel.NewFloat(length)
			oc.VelocityStrength = channel.NewFloat(length)
			oc.VelocityRadius = channel.NewFloat(length)
		}

		if ob.Animated() {
			verts, tris, err := scene.Mesh(ob)
			if err != nil {
				return objs, errors.Wrapf(err, "snapshot of %q", ob.Name)
			}
			oc.NumVerts = len(verts) / 3
			oc.NumTris = len(tris) / 3
			oc.Verts = channel.NewVerts(length, oc.NumVerts)
		}
	}
	return objs, nil
}

func sampleObject(
	scene fluidbake.Scene, oc *ObjectChannels, i int, stamp float32,
) {
	ob := oc.Object
	st := scene.State(ob)

	// The reference Euler is the previous frame's stored rotation,
	// converted back from the solver's negated-degrees convention. The
	// world matrix is decomposed relative to it so parented animation is
	// captured without +-pi discontinuities.
	var ref geom.Vec
	if i > 0 {
		ref = oc.Rotation.Value(i - 1).Scale(-math32.Pi / 180)
	}
	rot := st.World.CompatibleEuler(ref).Scale(-180 / math32.Pi)

	active := float32(0)
	if st.Active {
		active = 1
	}

	oc.Translation.Set(i, stamp, st.Loc)
	oc.Rotation.Set(i, stamp, rot)
	oc.Scale.Set(i, stamp, st.Scale)
	oc.Active.Set(i, stamp, active)
	oc.InitialVelocity.Set(i, stamp, st.InitialVelocity)

	if ob.Kind == fluidbake.KindControl {
		oc.AttractStrength.Set(i, stamp, st.AttractStrength)
		oc.AttractRadius.Set(i, stamp, st.AttractRadius)
		oc.VelocityStrength.Set(i, stamp, st.VelocityStrength)
		oc.VelocityRadius.Set(i, stamp, st.VelocityRadius)
	}

	if ob.Animated() && oc.Verts != nil {
		verts, _, err := scene.Mesh(ob)
		if err != nil {
			return
		}
		oc.Verts.Set(i, stamp, verts)
	}
}
