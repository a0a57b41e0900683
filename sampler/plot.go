package sampler

import (
	plt "github.com/phil-mansfield/pyplot"

	"fluidbake/geom"
)

// PlotChannels renders the sampled domain channels (frame time, gravity
// magnitude, viscosity) and each object's rotation track to a figure at
// path. Purely diagnostic: the plots make rate overrides and rotation
// discontinuities visible at a glance.
func PlotChannels(ch *Channels, objs []*ObjectChannels, path string) {
	plt.Reset()
	plt.Figure()

	xs := make([]float64, ch.Length)
	for i := range xs {
		xs[i] = float64(ch.TimeAtFrame[i+1])
	}

	times := make([]float64, ch.Length)
	viscs := make([]float64, ch.Length)
	gravs := make([]float64, ch.Length)
	for i := 0; i < ch.Length; i++ {
		times[i] = float64(ch.Time.Value(i))
		viscs[i] = float64(ch.Viscosity.Value(i))
		g := ch.Gravity.Value(i)
		gravs[i] = float64(g.Dist(geom.Vec{}))
	}

	plt.Plot(xs, times, "k", plt.LW(2))
	plt.Plot(xs, viscs, "b")
	plt.Plot(xs, gravs, "g")

	for _, oc := range objs {
		if oc.Rotation == nil {
			continue
		}
		rz := make([]float64, ch.Length)
		for i := 0; i < ch.Length; i++ {
			rz[i] = float64(oc.Rotation.Value(i)[2])
		}
		plt.Plot(xs, rz, plt.LW(1))
	}

	plt.Title("bake channels")
	plt.XLabel("simulation time")
	plt.YLabel("channel value")
	plt.SaveFig(path)
	plt.Execute()
}
