package bsdf

import (
	"github.com/lumen-render/go-shading/pkg/core"
	"github.com/lumen-render/go-shading/pkg/scattering"
)

// Total internal reflection between the layers is not modelled, so the upward
// transmission factor gets a small biased compensation instead.
const tirCompensation = 0.2

// Coat is a single clear layer over an arbitrary bottom scattering event: a
// GGX microfacet reflection on top, Beer-Lambert attenuation through the slab
// and the bottom event evaluated with refracted directions.
//
// 'Arbitrarily Layered Micro-Facet Surfaces'
// http://citeseerx.ist.psu.edu/viewdoc/download?doi=10.1.1.160.2363&rep=rep1&type=pdf
//
// Coating transmissive bottoms is unsupported, and BSSRDF bottoms fall back
// to Lambert before they reach here because the entry and exit points of
// subsurface scattering break the layering assumptions.
type Coat struct {
	BaseBxdf
	thickness float64
	ior       float64
	sigma     core.Spectrum

	ggx     *GGX
	fresnel FresnelDielectric
	coat    *MicroFacetReflection
	bottom  *scattering.Event
}

// NewCoat creates a coat lobe over the given bottom event. The bottom event
// must be a sub event so its frame transforms stay identity.
func NewCoat(rc *core.RenderContext, roughness, ior float64, sigma core.Spectrum, weight core.Spectrum, n core.Vec3, bottom *scattering.Event) *Coat {
	ggx := NewGGX(roughness, roughness)
	return &Coat{
		BaseBxdf:  newBaseBxdf(rc, weight, scattering.BxdfDiffuse|scattering.BxdfReflection, n, false),
		thickness: 1,
		ior:       ior,
		sigma:     sigma,
		ggx:       ggx,
		fresnel:   NewFresnelDielectric(1, ior),
		coat:      NewMicroFacetReflection(rc, core.WhiteSpectrum, NewFresnelDielectric(1, ior), ggx, core.WhiteSpectrum, core.DirUp, false),
		bottom:    bottom,
	}
}

// slabAttenuation is the Beer-Lambert absorption along the refracted path
// down and up through the layer.
func (c *Coat) slabAttenuation(rwo, rwi core.Vec3) core.Spectrum {
	length := 1/core.AbsCosTheta(rwo) + 1/core.AbsCosTheta(rwi)
	return c.sigma.Scale(-c.thickness * length).Exp()
}

// transmission is the Fresnel attenuation through the layer boundary in both
// directions; the upward factor carries the TIR compensation.
func (c *Coat) transmission(swo, swi core.Vec3) (core.Spectrum, core.Spectrum) {
	t12 := core.WhiteSpectrum.Subtract(c.fresnel.Evaluate(core.CosTheta(swo)))
	t21 := core.LerpSpectrum(core.WhiteSpectrum.Subtract(c.fresnel.Evaluate(core.CosTheta(swi))), core.WhiteSpectrum, tirCompensation)
	return t12, t21
}

func (c *Coat) F(wo, wi core.Vec3) core.Spectrum {
	if !c.sameGeomHemisphere(wo, wi) {
		return core.Spectrum{}
	}
	if !c.pointingUp(wo) {
		return core.Spectrum{}
	}

	swo := c.toLocal(wo)
	swi := c.toLocal(wi)

	ret := c.coat.f(swo, swi)
	rwo, tirO := core.Refract(swo, core.DirUp, c.ior, 1)
	rwi, tirI := core.Refract(swi, core.DirUp, c.ior, 1)
	if !tirO && !tirI {
		attenuation := c.slabAttenuation(rwo, rwi)
		t12, t21 := c.transmission(swo, swi)
		bottom := c.bottom.EvaluateBSDF(rwo.Negate(), rwi.Negate())
		ret = ret.Add(bottom.Multiply(attenuation).Multiply(t12).Multiply(t21).Scale(1 / (c.ior * c.ior)))
	}

	return ret
}

// specProp is the probability of sampling the top microfacet layer rather
// than the bottom event, derived from the Fresnel-scaled intensities.
func (c *Coat) specProp(swo, rwo core.Vec3) float64 {
	if rwo.IsZero() {
		return 1
	}
	attenuation := c.sigma.Scale(-c.thickness * 2 / core.AbsCosTheta(rwo)).Exp()
	i1 := c.fresnel.Evaluate(core.CosTheta(swo)).GetIntensity()
	i2 := (1 - i1) * (1 - i1) * attenuation.GetIntensity() / (c.ior * c.ior)
	return i1 / (i1 + i2)
}

func (c *Coat) SampleF(wo core.Vec3, bs core.BsdfSample) (core.Spectrum, core.Vec3, float64) {
	swo := c.toLocal(wo)

	rwo, tirO := core.Refract(swo, core.DirUp, c.ior, 1)
	spec := c.specProp(swo, rwo)

	var ret core.Spectrum
	var swi, wi core.Vec3
	var pdf float64
	nbs := core.NewBsdfSample(c.rc)
	if bs.U < spec || spec == 1 {
		ret, swi, pdf = c.coat.SampleF(swo, nbs)
		wi = c.fromLocal(swi)

		rwi, tirI := core.Refract(swi, core.DirUp, c.ior, 1)
		if !tirO && !tirI {
			attenuation := c.slabAttenuation(rwo, rwi)
			t12, t21 := c.transmission(swo, swi)
			bottom := c.bottom.EvaluateBSDF(rwo.Negate(), rwi.Negate())
			ret = ret.Add(bottom.Multiply(attenuation).Multiply(t12).Multiply(t21).Scale(1 / (c.ior * c.ior)))

			pdf = core.Lerp(c.bottom.PDFBSDF(rwo.Negate(), rwi.Negate()), pdf, spec)
		}
	} else {
		var rwi core.Vec3
		var bsdfPdf float64
		ret, rwi, bsdfPdf = c.bottom.SampleBSDF(rwo.Negate(), nbs, c.rc)

		var tirI bool
		swi, tirI = core.Refract(rwi.Negate(), core.DirUp, c.ior, 1)
		wi = c.fromLocal(swi)
		pdf = bsdfPdf

		if tirI || tirO {
			return core.Spectrum{}, wi, 0
		}

		attenuation := c.slabAttenuation(rwo, rwi)
		t12, t21 := c.transmission(swo, swi)
		ret = ret.Multiply(attenuation).Multiply(t12).Multiply(t21).Scale(1 / (c.ior * c.ior))

		pdf = core.Lerp(pdf, c.coat.pdf(swo, swi), spec)
	}

	if !c.sameGeomHemisphere(wo, wi) || !c.pointingUp(wo) {
		return core.Spectrum{}, wi, 0
	}

	return ret, wi, pdf
}

func (c *Coat) PDF(wo, wi core.Vec3) float64 {
	if !c.sameGeomHemisphere(wo, wi) {
		return 0
	}
	if !c.pointingUp(wo) {
		return 0
	}

	swo := c.toLocal(wo)
	swi := c.toLocal(wi)

	rwo, tirO := core.Refract(swo, core.DirUp, c.ior, 1)
	rwi, tirI := core.Refract(swi, core.DirUp, c.ior, 1)
	spec := c.specProp(swo, rwo)

	layer0Pdf := c.coat.pdf(swo, swi)
	layer1Pdf := 0.0
	if !tirO && !tirI {
		layer1Pdf = c.bottom.PDFBSDF(rwo.Negate(), rwi.Negate())
	}
	return core.Lerp(layer1Pdf, layer0Pdf, spec)
}
