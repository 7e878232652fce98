package bsdf

import (
	"math"

	"github.com/lumen-render/go-shading/pkg/core"
	"github.com/lumen-render/go-shading/pkg/scattering"
)

// Lambert reflects equal radiance along all exitant directions. It is the
// baseline matte lobe and the fallback every subsurface model degenerates to.
type Lambert struct {
	BaseBxdf
	r core.Spectrum
}

// NewLambert creates a Lambert lobe with reflectance r
func NewLambert(rc *core.RenderContext, r, weight core.Spectrum, n core.Vec3, doubleSided bool) *Lambert {
	return &Lambert{
		BaseBxdf: newBaseBxdf(rc, weight, scattering.BxdfDiffuse|scattering.BxdfReflection, n, doubleSided),
		r:        r,
	}
}

// NewLambertWeighted creates a Lambert lobe with an explicit sampling weight
func NewLambertWeighted(rc *core.RenderContext, r, ew core.Spectrum, sw float64, n core.Vec3, doubleSided bool) *Lambert {
	return &Lambert{
		BaseBxdf: newBaseBxdfWeighted(rc, ew, sw, scattering.BxdfDiffuse|scattering.BxdfReflection, n, doubleSided),
		r:        r,
	}
}

func (l *Lambert) F(wo, wi core.Vec3) core.Spectrum {
	swo, swi := l.toLocal(wo), l.toLocal(wi)
	return l.f(swo, swi)
}

func (l *Lambert) f(swo, swi core.Vec3) core.Spectrum {
	if !l.sameGeomHemisphere(swo, swi) {
		return core.Spectrum{}
	}
	if !l.doubleSided && !l.pointingUp(swo) {
		return core.Spectrum{}
	}
	return l.r.Scale(core.AbsCosTheta(swi) / math.Pi)
}

func (l *Lambert) SampleF(wo core.Vec3, bs core.BsdfSample) (core.Spectrum, core.Vec3, float64) {
	swo := l.toLocal(wo)
	swi := l.defaultSample(bs)
	pdf := l.defaultPdf(swo, swi)
	return l.f(swo, swi), l.fromLocal(swi), pdf
}

func (l *Lambert) PDF(wo, wi core.Vec3) float64 {
	return l.defaultPdf(l.toLocal(wo), l.toLocal(wi))
}

// LambertTransmission is the transmittance twin of Lambert, scattering into
// the opposite hemisphere.
type LambertTransmission struct {
	BaseBxdf
	t core.Spectrum
}

// NewLambertTransmission creates a diffuse transmission lobe with transmittance t
func NewLambertTransmission(rc *core.RenderContext, t, weight core.Spectrum, n core.Vec3) *LambertTransmission {
	return &LambertTransmission{
		BaseBxdf: newBaseBxdf(rc, weight, scattering.BxdfDiffuse|scattering.BxdfTransmission, n, true),
		t:        t,
	}
}

func (l *LambertTransmission) F(wo, wi core.Vec3) core.Spectrum {
	swo, swi := l.toLocal(wo), l.toLocal(wi)
	return l.f(swo, swi)
}

func (l *LambertTransmission) f(swo, swi core.Vec3) core.Spectrum {
	if l.sameGeomHemisphere(swo, swi) {
		return core.Spectrum{}
	}
	return l.t.Scale(core.AbsCosTheta(swi) / math.Pi)
}

func (l *LambertTransmission) SampleF(wo core.Vec3, bs core.BsdfSample) (core.Spectrum, core.Vec3, float64) {
	swo := l.toLocal(wo)
	swi := core.CosSampleHemisphere(bs.U, bs.V).Negate()
	if core.SameHemisphere(swi, swo) {
		swi = swi.Negate()
	}
	pdf := l.pdf(swo, swi)
	return l.f(swo, swi), l.fromLocal(swi), pdf
}

func (l *LambertTransmission) PDF(wo, wi core.Vec3) float64 {
	return l.pdf(l.toLocal(wo), l.toLocal(wi))
}

func (l *LambertTransmission) pdf(swo, swi core.Vec3) float64 {
	if core.SameHemisphere(swo, swi) {
		return 0
	}
	return math.Abs(core.CosHemispherePdf(swi))
}
