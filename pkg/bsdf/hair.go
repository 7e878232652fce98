package bsdf

import (
	"math"

	"github.com/lumen-render/go-shading/pkg/core"
	"github.com/lumen-render/go-shading/pkg/scattering"
)

// PMax is the number of explicitly tracked scattering paths inside the hair
// fiber (R, TT, TRT); everything deeper lands in one residual lobe.
const PMax = 3

// Hair is the Marschner-style fiber model in its modern Mp·Ap·Np form.
//
// 'The Implementation of a Hair Scattering Model' by Matt Pharr
// https://www.pbrt.org/hair.pdf
//
// In hair shading coordinate the fiber runs along +X and the shading normal
// (+Y) points at the viewer.
type Hair struct {
	BaseBxdf
	sigma      core.Spectrum
	lRoughness float64
	aRoughness float64
	eta        float64

	v      [PMax + 1]float64
	scale  float64
	etaSqr float64
}

// NewHair creates a hair lobe from the absorption coefficient, the
// longitudinal and azimuthal roughness and the fiber's index of refraction.
func NewHair(rc *core.RenderContext, absorption core.Spectrum, lRoughness, aRoughness, ior float64, weight core.Spectrum, doubleSided bool) *Hair {
	h := &Hair{
		BaseBxdf:   newBaseBxdf(rc, weight, scattering.BxdfDiffuse|scattering.BxdfReflection, core.DirUp, doubleSided),
		sigma:      absorption,
		lRoughness: math.Max(0.01, lRoughness),
		aRoughness: math.Max(0.01, aRoughness),
		eta:        ior,
	}

	lr := h.lRoughness
	h.v[0] = core.Sqr(0.726*lr + 0.812*core.Sqr(lr) + 3.7*math.Pow(lr, 20))
	h.v[1] = 0.25 * h.v[0]
	h.v[2] = 4 * h.v[0]
	for p := 3; p <= PMax; p++ {
		h.v[p] = h.v[2]
	}

	const sqrtPiOver8 = 0.626657069
	ar := h.aRoughness
	h.scale = sqrtPiOver8 * (0.265*ar + 1.194*core.Sqr(ar) + 5.372*math.Pow(ar, 22))

	h.etaSqr = core.Sqr(h.eta)
	return h
}

// hairAp fills the per-path attenuation: Fresnel at entry, absorption along each
// internal segment and the closed-form residual for everything beyond PMax.
func hairAp(cosThetaO, eta, cosGammaO float64, t core.Spectrum, ap *[PMax + 1]core.Spectrum) {
	cosTheta := cosThetaO * cosGammaO
	f := DielectricFresnel(cosTheta, 1, eta)
	fs := core.NewSpectrumUniform(f)

	ap[0] = fs
	ap[1] = t.Scale(core.Sqr(1 - f))
	for i := 2; i < PMax; i++ {
		ap[i] = ap[i-1].Multiply(t).Scale(f)
	}
	ap[PMax] = ap[PMax-1].Multiply(fs).Multiply(t).Divide(core.WhiteSpectrum.Subtract(t.Scale(f)))
}

// hairI0 is the modified Bessel function of the first kind, order zero
func hairI0(x float64) float64 {
	val := 0.0
	x2i := 1.0
	ifact := int64(1)
	i4 := 1
	for i := 0; i < 10; i++ {
		if i > 1 {
			ifact *= int64(i)
		}
		val += x2i / float64(int64(i4)*ifact*ifact)
		x2i *= x * x
		i4 *= 4
	}
	return val
}

func hairLogI0(x float64) float64 {
	if x > 12 {
		return x + 0.5*(-math.Log(2*math.Pi)+math.Log(1/x)+1/(8*x))
	}
	return math.Log(hairI0(x))
}

// hairMp is the longitudinal scattering term
func hairMp(cosThetaI, cosThetaO, sinThetaI, sinThetaO, v float64) float64 {
	a := cosThetaI * cosThetaO / v
	b := sinThetaI * sinThetaO / v
	if v <= 0.1 {
		return math.Exp(hairLogI0(a) - b - 1/v + 0.6931 + math.Log(1/(2*v)))
	}
	return math.Exp(-b) * hairI0(a) / (math.Sinh(1/v) * 2 * v)
}

// hairPhi is the net azimuthal deflection of path p
func hairPhi(p int, gammaO, gammaT float64) float64 {
	return 2*float64(p)*gammaT - 2*gammaO + float64(p)*math.Pi
}

func hairLogistic(x, scale float64) float64 {
	x = math.Abs(x)
	return math.Exp(-x/scale) / (scale * core.Sqr(1+math.Exp(-x/scale)))
}

func hairLogisticCDF(x, scale float64) float64 {
	return 1 / (1 + math.Exp(-x/scale))
}

func hairTrimmedLogistic(x, scale, a, b float64) float64 {
	return hairLogistic(x, scale) / (hairLogisticCDF(b, scale) - hairLogisticCDF(a, scale))
}

func hairSampleTrimmedLogistic(r, scale, a, b float64) float64 {
	k := hairLogisticCDF(b, scale) - hairLogisticCDF(a, scale)
	x := -scale * math.Log(1/(r*k+hairLogisticCDF(a, scale))-1)
	return core.Clamp(x, a, b)
}

// hairNp is the azimuthal scattering term
func hairNp(phi float64, p int, scale, gammaO, gammaT float64) float64 {
	dphi := phi - hairPhi(p, gammaO, gammaT)
	for dphi > math.Pi {
		dphi -= 2 * math.Pi
	}
	for dphi < -math.Pi {
		dphi += 2 * math.Pi
	}
	return hairTrimmedLogistic(dphi, scale, -math.Pi, math.Pi)
}

func hairComputeApPdf(cosThetaO, cosThetaT, cosGammaO, cosGammaT, eta float64, sigma core.Spectrum, pdf *[PMax + 1]float64) {
	t := sigma.Scale(-2 * cosGammaT / cosThetaT)
	expT := t.Exp()

	var ap [PMax + 1]core.Spectrum
	hairAp(cosThetaO, eta, cosGammaO, expT, &ap)

	sumY := 0.0
	for i := 0; i <= PMax; i++ {
		sumY += ap[i].GetIntensity()
	}
	for i := 0; i <= PMax; i++ {
		pdf[i] = ap[i].GetIntensity() / sumY
	}
}

func (h *Hair) F(wo, wi core.Vec3) core.Spectrum {
	if wo.Y <= 0 || wi.Y == 0 {
		return core.Spectrum{}
	}

	sinThetaO := wo.X
	cosThetaO := core.Ssqrt(1 - core.Sqr(sinThetaO))

	sinThetaI := wi.X
	cosThetaI := core.Ssqrt(1 - core.Sqr(sinThetaI))

	sinThetaT := sinThetaO / h.eta
	cosThetaT := core.Ssqrt(1 - core.Sqr(sinThetaT))

	// Modified index of refraction for off-axis scattering.
	// 'Light Scattering from Human Hair Fibers'
	// http://www.graphics.stanford.edu/papers/hair/hair-sg03final.pdf
	etap := math.Sqrt(h.etaSqr-core.Sqr(sinThetaO)) / cosThetaO

	cosGammaO := wo.Y / cosThetaO
	sinGammaO := wo.Z / cosThetaO
	gammaO := math.Asin(core.Clamp(sinGammaO, -1, 1))

	sinGammaT := sinGammaO / etap
	cosGammaT := core.Ssqrt(1 - core.Sqr(sinGammaT))
	gammaT := math.Asin(core.Clamp(sinGammaT, -1, 1))

	expT := h.sigma.Scale(-2 * cosGammaT / cosThetaT).Exp()
	phi := math.Atan2(wi.Y, wi.Z) - math.Atan2(wo.Y, wo.Z)

	var ap [PMax + 1]core.Spectrum
	hairAp(cosThetaO, h.eta, cosGammaO, expT, &ap)

	var fsum core.Spectrum
	// The 2 degree cuticle tilt is intentionally not applied; it breaks the
	// consistency between the sampler and the returned pdf.
	for p := 0; p < PMax; p++ {
		fsum = fsum.Add(ap[p].Scale(hairMp(cosThetaI, cosThetaO, sinThetaI, sinThetaO, h.v[p]) *
			hairNp(phi, p, h.scale, gammaO, gammaT)))
	}
	fsum = fsum.Add(ap[PMax].Scale(hairMp(cosThetaI, cosThetaO, sinThetaI, sinThetaO, h.v[PMax]) / (2 * math.Pi)))

	return fsum
}

func (h *Hair) SampleF(wo core.Vec3, bs core.BsdfSample) (core.Spectrum, core.Vec3, float64) {
	if wo.Y <= 0 {
		return core.Spectrum{}, core.Vec3{}, 0
	}

	sinThetaO := wo.X
	cosThetaO := core.Ssqrt(1 - core.Sqr(sinThetaO))
	phiO := math.Atan2(wo.Y, wo.Z)

	sinThetaT := sinThetaO / h.eta
	cosThetaT := core.Ssqrt(1 - core.Sqr(sinThetaT))

	etap := math.Sqrt(h.etaSqr-core.Sqr(sinThetaO)) / cosThetaO

	cosGammaO := wo.Y / cosThetaO
	sinGammaO := wo.Z / cosThetaO

	sinGammaT := sinGammaO / etap
	cosGammaT := core.Ssqrt(1 - core.Sqr(sinGammaT))

	var apPdf [PMax + 1]float64
	hairComputeApPdf(cosThetaO, cosThetaT, cosGammaO, cosGammaT, h.eta, h.sigma, &apPdf)

	r := h.rc.Rng.Canonical()
	p := 0
	for ; p < PMax; p++ {
		if r < apPdf[p] {
			break
		}
		r -= apPdf[p]
	}

	// r equal to zero would drive the logarithm to a NaN through
	// exp(-2/v) underflow, hence the special case
	r = h.rc.Rng.Canonical()
	cosTheta := -1.0
	if r > 0 {
		cosTheta = 1 + h.v[p]*math.Log(r+(1-r)*math.Exp(-2/h.v[p]))
	}
	sinTheta := core.Ssqrt(1 - core.Sqr(cosTheta))
	cosPhi := math.Cos(2 * math.Pi * h.rc.Rng.Canonical())
	sinThetaI := -cosTheta*sinThetaO + sinTheta*cosPhi*cosThetaO
	cosThetaI := core.Ssqrt(1 - core.Sqr(sinThetaI))

	gammaO := math.Asin(core.Clamp(sinGammaO, -1, 1))
	gammaT := math.Asin(core.Clamp(sinGammaT, -1, 1))
	var dphi float64
	if p < PMax {
		dphi = hairPhi(p, gammaO, gammaT) + hairSampleTrimmedLogistic(h.rc.Rng.Canonical(), h.scale, -math.Pi, math.Pi)
	} else {
		dphi = 2 * math.Pi * h.rc.Rng.Canonical()
	}

	phiI := phiO + dphi
	wi := core.Vec3{X: sinThetaI, Y: cosThetaI * math.Sin(phiI), Z: cosThetaI * math.Cos(phiI)}

	pdf := 0.0
	for p := 0; p < PMax; p++ {
		pdf += hairMp(cosThetaI, cosThetaO, sinThetaI, sinThetaO, h.v[p]) * apPdf[p] *
			hairNp(dphi, p, h.scale, gammaO, gammaT)
	}
	pdf += hairMp(cosThetaI, cosThetaO, sinThetaI, sinThetaO, h.v[PMax]) * apPdf[PMax] / (2 * math.Pi)

	return h.F(wo, wi), wi, pdf
}

func (h *Hair) PDF(wo, wi core.Vec3) float64 {
	if wo.Y <= 0 || wi.Y == 0 {
		return 0
	}

	sinThetaO := wo.X
	cosThetaO := core.Ssqrt(1 - core.Sqr(sinThetaO))

	sinThetaI := wi.X
	cosThetaI := core.Ssqrt(1 - core.Sqr(sinThetaI))

	sinThetaT := sinThetaO / h.eta
	cosThetaT := core.Ssqrt(1 - core.Sqr(sinThetaT))

	etap := math.Sqrt(h.etaSqr-core.Sqr(sinThetaO)) / cosThetaO

	cosGammaO := wo.Y / cosThetaO
	sinGammaO := wo.Z / cosThetaO
	gammaO := math.Asin(core.Clamp(sinGammaO, -1, 1))

	sinGammaT := sinGammaO / etap
	cosGammaT := core.Ssqrt(1 - core.Sqr(sinGammaT))
	gammaT := math.Asin(core.Clamp(sinGammaT, -1, 1))

	var apPdf [PMax + 1]float64
	hairComputeApPdf(cosThetaO, cosThetaT, cosGammaO, cosGammaT, h.eta, h.sigma, &apPdf)

	phi := math.Atan2(wi.Y, wi.Z) - math.Atan2(wo.Y, wo.Z)
	pdf := 0.0
	for p := 0; p < PMax; p++ {
		pdf += hairMp(cosThetaI, cosThetaO, sinThetaI, sinThetaO, h.v[p]) * apPdf[p] *
			hairNp(phi, p, h.scale, gammaO, gammaT)
	}
	pdf += hairMp(cosThetaI, cosThetaO, sinThetaI, sinThetaO, h.v[PMax]) * apPdf[PMax] / (2 * math.Pi)
	return pdf
}
