package bsdf

import (
	"math"

	"github.com/lumen-render/go-shading/pkg/core"
	"github.com/lumen-render/go-shading/pkg/scattering"
)

// AshikhmanShirley is the anisotropic Phong model with a Fresnel-weighted
// blend between its diffuse and specular layers.
//
// An Anisotropic Phong BRDF Model
// http://www.irisa.fr/prive/kadi/Lopez/ashikhmin00anisotropic.pdf
type AshikhmanShirley struct {
	BaseBxdf
	d            core.Spectrum
	s            float64
	distribution *Blinn
}

// NewAshikhmanShirley creates the lobe; specular is scalar because the model
// does not behave well with an arbitrary spectrum.
func NewAshikhmanShirley(rc *core.RenderContext, diffuse core.Spectrum, specular, roughnessU, roughnessV float64, weight core.Spectrum, n core.Vec3, doubleSided bool) *AshikhmanShirley {
	return &AshikhmanShirley{
		BaseBxdf:     newBaseBxdf(rc, weight, scattering.BxdfDiffuse|scattering.BxdfReflection, n, doubleSided),
		d:            diffuse,
		s:            specular,
		distribution: NewBlinn(roughnessU, roughnessV),
	}
}

func (a *AshikhmanShirley) F(wo, wi core.Vec3) core.Spectrum {
	return a.f(a.toLocal(wo), a.toLocal(wi))
}

func (a *AshikhmanShirley) f(swo, swi core.Vec3) core.Spectrum {
	if !a.sameGeomHemisphere(swo, swi) {
		return core.Spectrum{}
	}
	if !a.doubleSided && !a.pointingUp(swo) {
		return core.Spectrum{}
	}

	cosThetaO := core.AbsCosTheta(swo)
	cosThetaI := core.AbsCosTheta(swi)

	// Diffuse  : 28/(23π) * D * (1-S) * (1-(1-cosθo/2)^5) * (1-(1-cosθi/2)^5)
	// Specular : D(h) * SchlickFresnel(S, wi·h) / ( 4 * |wi·h| * max(cosθi, cosθo) )
	diffuse := a.d.Scale(0.3875 * (1 - a.s) *
		(1 - SchlickWeight(0.5*cosThetaO)) *
		(1 - SchlickWeight(0.5*cosThetaI)))

	h := swo.Add(swi)
	if h.IsZero() {
		return core.Spectrum{}
	}
	h = h.Normalize()

	ioh := swi.AbsDot(h)
	specular := core.NewSpectrumUniform(SchlickFresnelScalar(a.s, ioh)).
		Scale(a.distribution.D(h) / (4 * ioh * math.Max(cosThetaI, cosThetaO)))

	return diffuse.Add(specular).Scale(core.AbsCosTheta(swi))
}

func (a *AshikhmanShirley) SampleF(wo core.Vec3, bs core.BsdfSample) (core.Spectrum, core.Vec3, float64) {
	swo := a.toLocal(wo)
	var swi core.Vec3
	if bs.U < 0.5 {
		swi = core.CosSampleHemisphere(2*bs.U, bs.V)
		if !a.sameGeomHemisphere(swo, swi) {
			swi = swi.Negate()
		}
	} else {
		wh := a.distribution.SampleF(core.NewBsdfSample(a.rc))
		swi = wh.Multiply(2 * swo.Dot(wh)).Subtract(swo)
	}
	pdf := a.pdf(swo, swi)
	return a.f(swo, swi), a.fromLocal(swi), pdf
}

func (a *AshikhmanShirley) PDF(wo, wi core.Vec3) float64 {
	return a.pdf(a.toLocal(wo), a.toLocal(wi))
}

func (a *AshikhmanShirley) pdf(swo, swi core.Vec3) float64 {
	if !a.sameGeomHemisphere(swo, swi) {
		return 0
	}
	if !a.doubleSided && !a.pointingUp(swo) {
		return 0
	}

	wh := swi.Add(swo).Normalize()
	pdfWh := PdfH(a.distribution, wh)
	return core.Lerp(core.CosHemispherePdf(swi), pdfWh/(4*swo.Dot(wh)), 0.5)
}
