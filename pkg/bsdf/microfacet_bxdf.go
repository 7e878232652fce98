package bsdf

import (
	"math"

	"github.com/lumen-render/go-shading/pkg/core"
	"github.com/lumen-render/go-shading/pkg/scattering"
)

// MicroFacetReflection is the Cook-Torrance style reflection lobe driven by a
// normal distribution and a Fresnel term.
type MicroFacetReflection struct {
	BaseBxdf
	r            core.Spectrum
	fresnel      Fresnel
	distribution MicroFacetDistribution
}

// NewMicroFacetReflection creates a microfacet reflection lobe
func NewMicroFacetReflection(rc *core.RenderContext, reflectance core.Spectrum, fresnel Fresnel, d MicroFacetDistribution, weight core.Spectrum, n core.Vec3, doubleSided bool) *MicroFacetReflection {
	return &MicroFacetReflection{
		BaseBxdf:     newBaseBxdf(rc, weight, scattering.BxdfDiffuse|scattering.BxdfReflection, n, doubleSided),
		r:            reflectance,
		fresnel:      fresnel,
		distribution: d,
	}
}

// NewMirror builds the perfect mirror configuration: no Fresnel attenuation
// and the sharpest distribution the roughness mapping allows.
func NewMirror(rc *core.RenderContext, baseColor, weight core.Spectrum, n core.Vec3) *MicroFacetReflection {
	return NewMicroFacetReflection(rc, baseColor, FresnelNo{}, NewGGX(0, 0), weight, n, false)
}

func (m *MicroFacetReflection) F(wo, wi core.Vec3) core.Spectrum {
	return m.f(m.toLocal(wo), m.toLocal(wi))
}

func (m *MicroFacetReflection) f(swo, swi core.Vec3) core.Spectrum {
	if !m.sameGeomHemisphere(swo, swi) {
		return core.Spectrum{}
	}
	if !m.doubleSided && !m.pointingUp(swo) {
		return core.Spectrum{}
	}

	nov := core.AbsCosTheta(swo)
	if nov == 0 {
		return core.Spectrum{}
	}

	wh := swi.Add(swo).Normalize()
	fr := m.fresnel.Evaluate(swo.Dot(wh))
	return m.r.Multiply(fr).Scale(m.distribution.D(wh) * SmithG(m.distribution, swo, swi) / (4 * nov))
}

func (m *MicroFacetReflection) SampleF(wo core.Vec3, bs core.BsdfSample) (core.Spectrum, core.Vec3, float64) {
	swo := m.toLocal(wo)
	wh := m.distribution.SampleF(bs)
	swi := core.Reflect(swo, wh)
	pdf := m.pdf(swo, swi)

	if !m.sameGeomHemisphere(swo, swi) {
		return core.Spectrum{}, m.fromLocal(swi), pdf
	}
	if !m.doubleSided && !m.pointingUp(swo) {
		return core.Spectrum{}, m.fromLocal(swi), pdf
	}

	return m.f(swo, swi), m.fromLocal(swi), pdf
}

func (m *MicroFacetReflection) PDF(wo, wi core.Vec3) float64 {
	return m.pdf(m.toLocal(wo), m.toLocal(wi))
}

func (m *MicroFacetReflection) pdf(swo, swi core.Vec3) float64 {
	if !m.sameGeomHemisphere(swo, swi) {
		return 0
	}
	if !m.doubleSided && !m.pointingUp(swo) {
		return 0
	}

	h := swo.Add(swi).Normalize()
	eoh := swo.AbsDot(h)
	return PdfH(m.distribution, h) / (4 * eoh)
}

// MicroFacetReflectionMS adds the multiple-scattering compensation term on
// top of the single-scattering lobe, making it energy conservative at high
// roughness. The plain lobe stays untouched because the Disney model is
// calibrated against it.
type MicroFacetReflectionMS struct {
	MicroFacetReflection
}

// NewMicroFacetReflectionMS creates the energy compensated reflection lobe
func NewMicroFacetReflectionMS(rc *core.RenderContext, reflectance core.Spectrum, fresnel Fresnel, d MicroFacetDistribution, weight core.Spectrum, n core.Vec3, doubleSided bool) *MicroFacetReflectionMS {
	return &MicroFacetReflectionMS{
		MicroFacetReflection: *NewMicroFacetReflection(rc, reflectance, fresnel, d, weight, n, doubleSided),
	}
}

func (m *MicroFacetReflectionMS) F(wo, wi core.Vec3) core.Spectrum {
	return m.fms(m.toLocal(wo), m.toLocal(wi))
}

func (m *MicroFacetReflectionMS) SampleF(wo core.Vec3, bs core.BsdfSample) (core.Spectrum, core.Vec3, float64) {
	swo := m.toLocal(wo)
	wh := m.distribution.SampleF(bs)
	swi := core.Reflect(swo, wh)
	pdf := m.pdf(swo, swi)
	return m.fms(swo, swi), m.fromLocal(swi), pdf
}

func (m *MicroFacetReflectionMS) fms(swo, swi core.Vec3) core.Spectrum {
	single := m.f(swo, swi)
	if !m.sameGeomHemisphere(swo, swi) {
		return single
	}
	if !m.doubleSided && !m.pointingUp(swo) {
		return single
	}
	ms := MicrofacetMs(swo, swi, m.distribution, m.fresnel).Scale(core.AbsCosTheta(swi))
	return single.Add(ms)
}

// MicroFacetRefraction is the rough transmission lobe.
//
// 'Microfacet Models for Refraction through Rough Surfaces'
// https://www.cs.cornell.edu/~srm/publications/EGSR07-btdf.pdf
type MicroFacetRefraction struct {
	BaseBxdf
	t            core.Spectrum
	etaI, etaT   float64
	fresnel      FresnelDielectric
	distribution MicroFacetDistribution
}

// NewMicroFacetRefraction creates a microfacet refraction lobe; etaI is the
// index of refraction on the side the normal points to. Equal indices would
// degenerate the half-vector mapping, so etaT is nudged away.
func NewMicroFacetRefraction(rc *core.RenderContext, transmittance core.Spectrum, d MicroFacetDistribution, etaI, etaT float64, weight core.Spectrum, n core.Vec3) *MicroFacetRefraction {
	if etaT == etaI {
		etaT = etaI + 0.01
	}
	return &MicroFacetRefraction{
		BaseBxdf:     newBaseBxdf(rc, weight, scattering.BxdfDiffuse|scattering.BxdfTransmission, n, true),
		t:            transmittance,
		etaI:         etaI,
		etaT:         etaT,
		fresnel:      NewFresnelDielectric(etaI, etaT),
		distribution: d,
	}
}

func (m *MicroFacetRefraction) F(wo, wi core.Vec3) core.Spectrum {
	return m.f(m.toLocal(wo), m.toLocal(wi))
}

func (m *MicroFacetRefraction) f(swo, swi core.Vec3) core.Spectrum {
	if m.sameGeomHemisphere(swi, swo) {
		return core.Spectrum{}
	}

	nov := core.CosTheta(swo)
	if nov == 0 {
		return core.Spectrum{}
	}

	eta := m.etaI / m.etaT
	if core.CosTheta(swo) > 0 {
		eta = m.etaT / m.etaI
	}

	wh := swo.Add(swi.Multiply(eta)).Normalize()
	if wh.Y < 0 {
		wh = wh.Negate()
	}

	svoh := swo.Dot(wh)
	sioh := swi.Dot(wh)

	fr := m.fresnel.Evaluate(wh.Dot(swo))
	sqrtDenom := svoh + eta*sioh
	t := eta / sqrtDenom
	return core.WhiteSpectrum.Subtract(fr).Multiply(m.t).
		Scale(math.Abs(m.distribution.D(wh) * SmithG(m.distribution, swo, swi) * t * t * sioh * svoh / nov))
}

func (m *MicroFacetRefraction) SampleF(wo core.Vec3, bs core.BsdfSample) (core.Spectrum, core.Vec3, float64) {
	swo := m.toLocal(wo)
	if core.CosTheta(swo) == 0 {
		return core.Spectrum{}, core.Vec3{}, 0
	}

	wh := m.distribution.SampleF(bs)
	swi, tir := core.Refract(swo, wh, m.etaT, m.etaI)
	if tir {
		return core.Spectrum{}, core.Vec3{}, 0
	}

	pdf := m.pdf(swo, swi)
	return m.f(swo, swi), m.fromLocal(swi), pdf
}

func (m *MicroFacetRefraction) PDF(wo, wi core.Vec3) float64 {
	return m.pdf(m.toLocal(wo), m.toLocal(wi))
}

func (m *MicroFacetRefraction) pdf(swo, swi core.Vec3) float64 {
	if core.SameHemisphere(swo, swi) {
		return 0
	}

	eta := m.etaI / m.etaT
	if core.CosTheta(swo) > 0 {
		eta = m.etaT / m.etaI
	}
	wh := swo.Add(swi.Multiply(eta)).Normalize()

	// change of variables from the half vector to the incident direction
	sqrtDenom := swo.Dot(wh) + eta*swi.Dot(wh)
	dwhDwi := eta * eta * swi.AbsDot(wh) / (sqrtDenom * sqrtDenom)
	return PdfH(m.distribution, wh) * dwhDwi
}
