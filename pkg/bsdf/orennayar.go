package bsdf

import (
	"math"

	"github.com/lumen-render/go-shading/pkg/core"
	"github.com/lumen-render/go-shading/pkg/scattering"
)

// OrenNayar is rough diffuse reflection.
//
// 'Generalization of Lambert's Reflectance Model'
// http://www1.cs.columbia.edu/CAVE/publications/pdfs/Oren_SIGGRAPH94.pdf
type OrenNayar struct {
	BaseBxdf
	r    core.Spectrum
	a, b float64
}

// NewOrenNayar creates an Oren-Nayar lobe; sigma is the surface roughness in
// [0, inf).
func NewOrenNayar(rc *core.RenderContext, reflectance core.Spectrum, sigma float64, weight core.Spectrum, n core.Vec3, doubleSided bool) *OrenNayar {
	o := &OrenNayar{
		BaseBxdf: newBaseBxdf(rc, weight, scattering.BxdfDiffuse|scattering.BxdfReflection, n, doubleSided),
		r:        reflectance,
	}
	sigma = math.Max(0, sigma)
	sigma2 := sigma * sigma
	o.a = 1 - sigma2/(2*(sigma2+0.33))
	o.b = 0.45 * sigma2 / (sigma2 + 0.09)
	return o
}

func (o *OrenNayar) F(wo, wi core.Vec3) core.Spectrum {
	return o.f(o.toLocal(wo), o.toLocal(wi))
}

func (o *OrenNayar) f(swo, swi core.Vec3) core.Spectrum {
	if !o.sameGeomHemisphere(swo, swi) {
		return core.Spectrum{}
	}
	if !o.doubleSided && !o.pointingUp(swo) {
		return core.Spectrum{}
	}

	sinThetaI := core.SinTheta(swi)
	sinThetaO := core.SinTheta(swo)

	dcos := core.CosPhi(swi)*core.CosPhi(swo) + core.SinPhi(swi)*core.SinPhi(swo)
	if dcos < 0 {
		dcos = 0
	}

	absCosThetaO := core.AbsCosTheta(swo)
	absCosThetaI := core.AbsCosTheta(swi)

	if absCosThetaI < 0.00001 && absCosThetaO < 0.00001 {
		return core.Spectrum{}
	}

	var sinAlpha, tanBeta float64
	if absCosThetaO > absCosThetaI {
		sinAlpha = sinThetaI
		tanBeta = sinThetaO / absCosThetaO
	} else {
		sinAlpha = sinThetaO
		tanBeta = sinThetaI / absCosThetaI
	}

	return o.r.Scale((o.a + o.b*dcos*sinAlpha*tanBeta) * absCosThetaI / math.Pi)
}

func (o *OrenNayar) SampleF(wo core.Vec3, bs core.BsdfSample) (core.Spectrum, core.Vec3, float64) {
	swo := o.toLocal(wo)
	swi := o.defaultSample(bs)
	pdf := o.defaultPdf(swo, swi)
	return o.f(swo, swi), o.fromLocal(swi), pdf
}

func (o *OrenNayar) PDF(wo, wi core.Vec3) float64 {
	return o.defaultPdf(o.toLocal(wo), o.toLocal(wi))
}
