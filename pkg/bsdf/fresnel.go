package bsdf

import (
	"math"

	"github.com/lumen-render/go-shading/pkg/core"
)

// Memo on Fresnel equations
// https://seblagarde.wordpress.com/2013/04/29/memo-on-fresnel-equations/

// SchlickWeight evaluates the (1-cos)^5 part of Schlick's approximation
func SchlickWeight(cos float64) float64 {
	c := core.Saturate(1 - cos)
	c2 := c * c
	return c2 * c2 * c
}

// SchlickFresnel evaluates Schlick's Fresnel approximation for a spectral F0
func SchlickFresnel(f0 core.Spectrum, cos float64) core.Spectrum {
	w := SchlickWeight(cos)
	return f0.Add(core.WhiteSpectrum.Subtract(f0).Scale(w))
}

// SchlickFresnelScalar evaluates Schlick's Fresnel approximation for a scalar F0
func SchlickFresnelScalar(f0, cos float64) float64 {
	return f0 + SchlickWeight(cos)*(1-f0)
}

// DielectricFresnel evaluates the exact dielectric Fresnel term. cosI may be
// negative, meaning the ray leaves the surface from inside; total internal
// reflection yields 1.
func DielectricFresnel(cosI, etaI, etaT float64) float64 {
	entering := cosI > 0
	ei, et := etaI, etaT
	if !entering {
		ei, et = etaT, etaI
	}

	sinI := math.Sqrt(core.Saturate(1 - cosI*cosI))
	sinT := ei * sinI / et
	if sinT >= 1 {
		return 1
	}
	if !entering {
		cosI = -cosI
	}

	cosT := math.Sqrt(1 - sinT*sinT)

	t0 := et * cosI
	t1 := ei * cosT
	t2 := ei * cosI
	t3 := et * cosT

	rparl := (t0 - t1) / (t0 + t1)
	rperp := (t2 - t3) / (t2 + t3)
	return (rparl*rparl + rperp*rperp) * 0.5
}

// ConductorFresnel evaluates the Fresnel term of a conductor with index of
// refraction eta and absorption coefficient k.
func ConductorFresnel(cosI float64, eta, k core.Spectrum) core.Spectrum {
	sqCos := cosI * cosI

	t := eta.Scale(2 * cosI)
	tmpF := eta.Multiply(eta).Add(k.Multiply(k))
	tmp := tmpF.Scale(sqCos)
	one := core.WhiteSpectrum
	sq := core.NewSpectrumUniform(sqCos)
	rparl2 := tmp.Subtract(t).Add(one).Divide(tmp.Add(t).Add(one))
	rperp2 := tmpF.Subtract(t).Add(sq).Divide(tmpF.Add(t).Add(sq))

	return rparl2.Add(rperp2).Scale(0.5)
}

// schlickAverage is the hemispherical average of Schlick's approximation,
// F0 + (1-F0)/21.
func schlickAverage(f0 core.Spectrum) core.Spectrum {
	return f0.Add(core.WhiteSpectrum.Subtract(f0).Scale(1.0 / 21.0))
}

// Fresnel abstracts the reflectance term of a microfacet lobe. Callers pass
// the cosine between the incident ray and the half vector; EvaluateAvg is the
// cosine-weighted hemispherical average the multi-scattering compensation
// consumes.
type Fresnel interface {
	Evaluate(cosI float64) core.Spectrum
	EvaluateAvg() core.Spectrum
}

// FresnelNo disables the Fresnel term
type FresnelNo struct{}

func (FresnelNo) Evaluate(cosI float64) core.Spectrum { return core.WhiteSpectrum }
func (FresnelNo) EvaluateAvg() core.Spectrum          { return core.WhiteSpectrum }

// FresnelDielectric is the exact dielectric term with the two indices of
// refraction on either side of the surface; etaI is the side the normal
// points to.
type FresnelDielectric struct {
	etaI, etaT float64
}

// NewFresnelDielectric creates a dielectric Fresnel term
func NewFresnelDielectric(etaI, etaT float64) FresnelDielectric {
	return FresnelDielectric{etaI: etaI, etaT: etaT}
}

func (f FresnelDielectric) Evaluate(cosI float64) core.Spectrum {
	return core.NewSpectrumUniform(DielectricFresnel(cosI, f.etaI, f.etaT))
}

func (f FresnelDielectric) EvaluateAvg() core.Spectrum {
	r0 := core.Sqr((f.etaI - f.etaT) / (f.etaI + f.etaT))
	return schlickAverage(core.NewSpectrumUniform(r0))
}

// FresnelConductor is the conductor term
type FresnelConductor struct {
	eta, k core.Spectrum
}

// NewFresnelConductor creates a conductor Fresnel term
func NewFresnelConductor(eta, k core.Spectrum) FresnelConductor {
	return FresnelConductor{eta: eta, k: k}
}

func (f FresnelConductor) Evaluate(cosI float64) core.Spectrum {
	return ConductorFresnel(cosI, f.eta, f.k)
}

func (f FresnelConductor) EvaluateAvg() core.Spectrum {
	one := core.WhiteSpectrum
	num := f.eta.Subtract(one).Multiply(f.eta.Subtract(one)).Add(f.k.Multiply(f.k))
	den := f.eta.Add(one).Multiply(f.eta.Add(one)).Add(f.k.Multiply(f.k))
	return schlickAverage(num.Divide(den))
}

// FresnelSchlick approximates the Fresnel term from the reflectance at
// perpendicular incidence
type FresnelSchlick struct {
	f0 core.Spectrum
}

// NewFresnelSchlick creates a Schlick Fresnel term from a spectral F0
func NewFresnelSchlick(f0 core.Spectrum) FresnelSchlick {
	return FresnelSchlick{f0: f0}
}

// NewFresnelSchlickScalar creates a Schlick Fresnel term from a scalar F0
func NewFresnelSchlickScalar(f0 float64) FresnelSchlick {
	return FresnelSchlick{f0: core.NewSpectrumUniform(f0)}
}

func (f FresnelSchlick) Evaluate(cosI float64) core.Spectrum {
	return SchlickFresnel(f.f0, cosI)
}

func (f FresnelSchlick) EvaluateAvg() core.Spectrum {
	return schlickAverage(f.f0)
}
