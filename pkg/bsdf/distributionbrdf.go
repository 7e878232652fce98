package bsdf

import (
	"math"

	"github.com/lumen-render/go-shading/pkg/core"
	"github.com/lumen-render/go-shading/pkg/scattering"
)

// distributionScale is the scaling factor used in the original paper.
const distributionScale = 4.0

// DistributionBRDF is the distribution-based cloth model from The Order: 1886,
// a Lambert base mixed with a Ward-like specular term by Schlick Fresnel.
//
// Distribution-based BRDFs
// http://www.cs.utah.edu/~premoze/dbrdf/dBRDF.pdf
//
// Crafting a Next-Gen Material Pipeline for The Order: 1886
// https://blog.selfshadow.com/publications/s2013-shading-course/rad/s2013_pbs_rad_notes.pdf
type DistributionBRDF struct {
	BaseBxdf
	r               core.Spectrum
	alpha, alphaSqr float64
	specular        float64
	specularTint    float64
}

// NewDistributionBRDF creates the lobe; specular is the reflectance of the
// non-Lambert part at normal incidence and specularTint pulls it towards the
// base color.
func NewDistributionBRDF(rc *core.RenderContext, baseColor core.Spectrum, roughness, specular, specularTint float64, weight core.Spectrum, n core.Vec3, doubleSided bool) *DistributionBRDF {
	alpha := 1 - core.Sqr(math.Max(roughness, 1e-3))
	return &DistributionBRDF{
		BaseBxdf:     newBaseBxdf(rc, weight, scattering.BxdfDiffuse|scattering.BxdfReflection, n, doubleSided),
		r:            baseColor,
		alpha:        alpha,
		alphaSqr:     alpha * alpha,
		specular:     specular,
		specularTint: specularTint,
	}
}

func (d *DistributionBRDF) F(wo, wi core.Vec3) core.Spectrum {
	return d.f(d.toLocal(wo), d.toLocal(wi))
}

func (d *DistributionBRDF) f(swo, swi core.Vec3) core.Spectrum {
	if !d.sameGeomHemisphere(swo, swi) {
		return core.Spectrum{}
	}
	if !d.doubleSided && !d.pointingUp(swo) {
		return core.Spectrum{}
	}

	oon := core.AbsCosTheta(swo)
	ion := core.AbsCosTheta(swi)
	wh := swo.Add(swi).Normalize()
	if wh.Length() == 0 {
		wh = core.DirUp
	}
	ioh := swi.Dot(wh)

	// Crafting a Next-Gen Material Pipeline for The Order: 1886, Eq. 22
	dterm := (1 + distributionScale*math.Exp(-1/(core.TanTheta2(wh)*d.alphaSqr))/
		math.Pow(core.SinTheta(wh), 4)) / (math.Pi * (1 + distributionScale*d.alphaSqr))

	fr := SchlickFresnelScalar(d.specular, ioh)
	sr := core.LerpSpectrum(core.WhiteSpectrum, d.r, d.specularTint)
	diffuse := d.r.Scale(1 / math.Pi)
	specular := sr.Scale(dterm / math.Max(0, 4*(oon+ion-oon*ion)))
	return core.LerpSpectrum(diffuse, specular, fr).Scale(ion)
}

// SampleF falls back to the base cosine sampler. The analytic importance
// sampler derived for the distribution performed worse in practice, so it
// stays disabled; the fallback is sub-optimal but unbiased.
func (d *DistributionBRDF) SampleF(wo core.Vec3, bs core.BsdfSample) (core.Spectrum, core.Vec3, float64) {
	swo := d.toLocal(wo)
	swi := d.defaultSample(bs)
	pdf := d.defaultPdf(swo, swi)
	return d.f(swo, swi), d.fromLocal(swi), pdf
}

func (d *DistributionBRDF) PDF(wo, wi core.Vec3) float64 {
	return d.defaultPdf(d.toLocal(wo), d.toLocal(wi))
}
