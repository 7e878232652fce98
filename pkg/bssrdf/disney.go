package bssrdf

import (
	"math"

	"github.com/lumen-render/go-shading/pkg/core"
)

// Burley's approximate reflectance profile: a sum of two exponentials whose
// width is derived from the surface albedo and the mean free path.
//
// Approximate Reflectance Profiles for Efficient Subsurface Scattering
// https://graphics.pixar.com/library/ApproxBSSRDF/paper.pdf

// Samples beyond this many profile widths are rejected; the pdf is normalised
// against the CDF truncated there.
const burleyMaxRd = 16.0

var (
	burleyMaxCdf    = 0.25 * (4 - math.Exp(-burleyMaxRd) - 3*math.Exp(-burleyMaxRd/3))
	burleyInvMaxCdf = 1 / burleyMaxCdf
)

// Disney is the Burley-profile separable BSSRDF.
type Disney struct {
	Separable
	d core.Spectrum
}

// NewDisney creates the lobe at the given exit interaction from the surface
// albedo and the per-channel mean free path.
func NewDisney(intersection *core.SurfaceInteraction, r, mfp, ew core.Spectrum) *Disney {
	return NewDisneyWeighted(intersection, r, mfp, ew, ew.GetIntensity())
}

// NewDisneyWeighted creates the lobe with an explicit sampling weight
func NewDisneyWeighted(intersection *core.SurfaceInteraction, r, mfp, ew core.Spectrum, sw float64) *Disney {
	d := &Disney{}
	d.Separable = newSeparable(r, intersection, ew, sw, d)

	// Approximate Reflectance Profiles for Efficient Subsurface Scattering, Eq 6
	s := core.NewSpectrumUniform(1.9).Subtract(r).
		Add(r.Subtract(core.NewSpectrumUniform(0.8)).Multiply(r.Subtract(core.NewSpectrumUniform(0.8))).Scale(3.5))

	d.setActiveChannels(mfp)

	// keeping the width strictly positive makes a black scatter-distance
	// texture degenerate towards Lambert instead of producing a seam; the
	// 1/4π matches Cycles' interpretation of the same inputs
	l := mfp.Scale(1 / (4 * math.Pi))
	d.d = l.Clamp(0.0001, math.MaxFloat64).Divide(s)
	return d
}

// S deliberately collapses to the radial profile alone. The model then
// converges to Lambert as the mean free path goes to zero, which keeps
// texture-driven subsurface scattering free of visible transitions where the
// texture goes black.
func (d *Disney) S(wo, po, wi, pi core.Vec3) core.Spectrum {
	return d.Sr(po.Subtract(pi).Length())
}

// Sr evaluates the two-exponential profile at distance r
func (d *Disney) Sr(r float64) core.Spectrum {
	if r < 0.000001 {
		r = 0.000001
	}
	exp1 := core.Spectrum{R: math.Exp(-r / d.d.R), G: math.Exp(-r / d.d.G), B: math.Exp(-r / d.d.B)}
	exp3 := core.Spectrum{R: math.Exp(-r / (3 * d.d.R)), G: math.Exp(-r / (3 * d.d.G)), B: math.Exp(-r / (3 * d.d.B))}
	denom := d.d.Scale(8 * math.Pi * r)
	return d.r.Multiply(exp1.Add(exp3)).Divide(denom)
}

// SampleSr inverts the piecewise CDF of the profile; samples past the
// truncation radius report failure with a negative distance.
func (d *Disney) SampleSr(ch int, r float64) float64 {
	const quarterCutoff = 0.25

	width := d.d.Channel(ch)
	var ret float64
	if r < quarterCutoff {
		ret = -width * math.Log(4*r)
	} else {
		ret = -3 * width * math.Log((r-quarterCutoff)*1.3333)
	}

	if ret > burleyMaxRd*width {
		return -1
	}
	return ret
}

// PdfSr is the closed-form radial density normalised by the truncated CDF
func (d *Disney) PdfSr(ch int, r float64) float64 {
	if r < 0.000001 {
		r = 0.000001
	}
	width := d.d.Channel(ch)
	return (math.Exp(-r/width) + math.Exp(-r/(3*width))) / (8 * math.Pi * width * r) * burleyInvMaxCdf
}

// MaxSr is the truncation radius of the sampler for one channel
func (d *Disney) MaxSr(ch int) float64 {
	return burleyMaxRd * d.d.Channel(ch)
}

// SampleCh picks uniformly among the channels with a non-zero mean free path
func (d *Disney) SampleCh(rc *core.RenderContext) int {
	return d.pickActiveChannel(rc)
}
