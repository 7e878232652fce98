package bsdf

import (
	"github.com/lumen-render/go-shading/pkg/core"
	"github.com/lumen-render/go-shading/pkg/scattering"
)

// Dielectric combines microfacet reflection and refraction into one lobe so
// the two branches can share one Fresnel-driven importance sampler. Blending
// them as separate lobes at the event level converges far too slowly to be
// practical.
type Dielectric struct {
	BaseBxdf
	r, t      core.Spectrum
	fresnel   FresnelDielectric
	mfReflect *MicroFacetReflection
	mfRefract *MicroFacetRefraction
}

// NewDielectric creates a dielectric lobe; ior is the index of refraction on
// the side the normal points to, iorIn the one inside the surface.
func NewDielectric(rc *core.RenderContext, reflectance, transmittance core.Spectrum, d MicroFacetDistribution, ior, iorIn float64, weight core.Spectrum, n core.Vec3) *Dielectric {
	return &Dielectric{
		BaseBxdf: newBaseBxdf(rc, weight, scattering.BxdfDiffuse|scattering.BxdfReflection, n, true),
		r:        reflectance,
		t:        transmittance,
		fresnel:  NewFresnelDielectric(ior, iorIn),
		// the children live in the parent frame; the dielectric applies the
		// normal map once for all of them
		mfReflect: NewMicroFacetReflection(rc, reflectance, NewFresnelDielectric(ior, iorIn), d, core.WhiteSpectrum, core.DirUp, true),
		mfRefract: NewMicroFacetRefraction(rc, transmittance, d, ior, iorIn, core.WhiteSpectrum, core.DirUp),
	}
}

func (d *Dielectric) F(wo, wi core.Vec3) core.Spectrum {
	swo, swi := d.toLocal(wo), d.toLocal(wi)
	return d.mfRefract.f(swo, swi).Add(d.mfReflect.f(swo, swi))
}

func (d *Dielectric) SampleF(wo core.Vec3, bs core.BsdfSample) (core.Spectrum, core.Vec3, float64) {
	swo := d.toLocal(wo)
	specRatio := d.specRatio(swo)

	var swi core.Vec3
	nbs := core.NewBsdfSample(d.rc)
	if bs.U < specRatio || specRatio == 1 {
		_, swi, _ = d.mfReflect.SampleF(swo, nbs)
	} else {
		_, swi, _ = d.mfRefract.SampleF(swo, nbs)
	}
	// evaluate both branches: whichever hemisphere the sample landed in, the
	// returned value has to match a later evaluation of the full lobe
	ret := d.mfRefract.f(swo, swi).Add(d.mfReflect.f(swo, swi))
	pdf := d.pdf(swo, swi)
	return ret, d.fromLocal(swi), pdf
}

func (d *Dielectric) PDF(wo, wi core.Vec3) float64 {
	return d.pdf(d.toLocal(wo), d.toLocal(wi))
}

func (d *Dielectric) pdf(swo, swi core.Vec3) float64 {
	specRatio := d.specRatio(swo)
	pdfRefract := d.mfRefract.pdf(swo, swi)
	pdfReflect := d.mfReflect.pdf(swo, swi)
	return core.Lerp(pdfRefract, pdfReflect, specRatio)
}

// specRatio is the Fresnel-scaled intensity split between the two branches
func (d *Dielectric) specRatio(swo core.Vec3) float64 {
	fr := d.fresnel.Evaluate(core.CosTheta(swo)).GetIntensity()
	r := fr * d.r.GetIntensity()
	t := (1 - fr) * d.t.GetIntensity()
	return r / (r + t)
}
