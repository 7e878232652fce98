package bsdf

import (
	"math"
	"sync"

	"github.com/lumen-render/go-shading/pkg/core"
)

// Multi-scattering compensation tables for GGX.
//
// The hemispherical-directional reflectance E and its hemispherical average
// Eavg of a single-scattering GGX lobe are tabulated over roughness and view
// angle, once without a Fresnel term (driving the energy compensation lobe)
// and once parameterised by Schlick F0 (driving the diffuse attenuation used
// when a rough specular is layered over Lambert). The tables are deterministic
// integrals; they are baked lazily on first use from a fixed low-discrepancy
// sequence so unrelated code paths never pay for them.
//
// Revisiting Physically Based Shading at Imageworks
// http://www.aconty.com/pdf/s2017_pbs_imageworks_slides.pdf

const (
	msLutSampleCnt = 64
	msLutF0Cnt     = 16

	msBakeSamples        = 1024
	msBakeSamplesFresnel = 256
)

var (
	msLutOnce  sync.Once
	msEData    [msLutSampleCnt * msLutSampleCnt]float64
	msEAvgData [msLutSampleCnt]float64

	msLutFresnelOnce sync.Once
	msEFresnelData   [msLutF0Cnt * msLutSampleCnt * msLutSampleCnt]float64
	msEAvgFresnel    [msLutF0Cnt * msLutSampleCnt]float64
)

// radicalInverse2 is the base-2 van der Corput sequence
func radicalInverse2(bits uint32) float64 {
	bits = (bits << 16) | (bits >> 16)
	bits = ((bits & 0x55555555) << 1) | ((bits & 0xaaaaaaaa) >> 1)
	bits = ((bits & 0x33333333) << 2) | ((bits & 0xcccccccc) >> 2)
	bits = ((bits & 0x0f0f0f0f) << 4) | ((bits & 0xf0f0f0f0) >> 4)
	bits = ((bits & 0x00ff00ff) << 8) | ((bits & 0xff00ff00) >> 8)
	return float64(bits) * (1.0 / 4294967296.0)
}

// integrateE estimates the directional albedo of a single-scattering GGX lobe
// for the given view cosine. fresnelF0 < 0 disables the Fresnel term.
func integrateE(ggx *GGX, cosTheta, fresnelF0 float64, samples int) float64 {
	cosTheta = math.Max(cosTheta, 0.01)
	wo := core.Vec3{X: math.Sqrt(1 - cosTheta*cosTheta), Y: cosTheta, Z: 0}

	sum := 0.0
	for k := 0; k < samples; k++ {
		bs := core.BsdfSample{
			U: (float64(k) + 0.5) / float64(samples),
			V: radicalInverse2(uint32(k)),
		}
		h := ggx.SampleF(bs)
		wi := core.Reflect(wo, h)
		if !core.SameHemisphere(wo, wi) {
			continue
		}
		cosH := core.AbsCosTheta(h)
		if cosH == 0 {
			continue
		}
		// sampling h with density D(h)|cos θh| turns the estimator of
		// ∫ f cosθi dωi into F·G·|wo·h| / (cosθo·cosθh)
		f := 1.0
		if fresnelF0 >= 0 {
			f = SchlickFresnelScalar(fresnelF0, wo.AbsDot(h))
		}
		sum += f * SmithG(ggx, wo, wi) * wo.AbsDot(h) / (cosTheta * cosH)
	}
	return math.Min(1, sum/float64(samples))
}

// averageE folds a 64-entry E row into the hemispherical average 2∫E(μ)μdμ
func averageE(row []float64) float64 {
	sum := 0.0
	for i := 0; i < msLutSampleCnt; i++ {
		mu := float64(i) / float64(msLutSampleCnt-1)
		w := 1.0
		if i == 0 || i == msLutSampleCnt-1 {
			w = 0.5
		}
		sum += w * row[i] * mu
	}
	return math.Min(1, 2*sum/float64(msLutSampleCnt-1))
}

func bakeMsLut() {
	for ri := 0; ri < msLutSampleCnt; ri++ {
		roughness := float64(ri) / float64(msLutSampleCnt-1)
		ggx := NewGGX(roughness, roughness)
		row := msEData[ri*msLutSampleCnt : (ri+1)*msLutSampleCnt]
		for ci := 0; ci < msLutSampleCnt; ci++ {
			cos := float64(ci) / float64(msLutSampleCnt-1)
			row[ci] = integrateE(ggx, cos, -1, msBakeSamples)
		}
		msEAvgData[ri] = averageE(row)
	}
}

func bakeMsFresnelLut() {
	for fi := 0; fi < msLutF0Cnt; fi++ {
		f0 := float64(fi) / float64(msLutF0Cnt-1)
		for ri := 0; ri < msLutSampleCnt; ri++ {
			roughness := float64(ri) / float64(msLutSampleCnt-1)
			ggx := NewGGX(roughness, roughness)
			base := (fi*msLutSampleCnt + ri) * msLutSampleCnt
			row := msEFresnelData[base : base+msLutSampleCnt]
			for ci := 0; ci < msLutSampleCnt; ci++ {
				cos := float64(ci) / float64(msLutSampleCnt-1)
				row[ci] = integrateE(ggx, cos, f0, msBakeSamplesFresnel)
			}
			msEAvgFresnel[fi*msLutSampleCnt+ri] = averageE(row)
		}
	}
}

// lutE bilinearly interpolates a 64x64 slice over (roughness, cos)
func lutE(data []float64, roughness, cos float64) float64 {
	fi := core.Saturate(roughness) * float64(msLutSampleCnt-1)
	fj := core.Saturate(cos) * float64(msLutSampleCnt-1)
	i, j := int(fi), int(fj)
	di, dj := fi-float64(i), fj-float64(j)

	ni := min(i+1, msLutSampleCnt-1)
	nj := min(j+1, msLutSampleCnt-1)

	e0 := data[i*msLutSampleCnt+j]
	e1 := data[i*msLutSampleCnt+nj]
	e2 := data[ni*msLutSampleCnt+nj]
	e3 := data[ni*msLutSampleCnt+j]

	return core.Lerp(core.Lerp(e0, e3, di), core.Lerp(e1, e2, di), dj)
}

// lutEAvg linearly interpolates a 64-entry average row over roughness
func lutEAvg(data []float64, roughness float64) float64 {
	fi := core.Saturate(roughness) * float64(msLutSampleCnt-1)
	i := int(fi)
	ni := min(i+1, msLutSampleCnt-1)
	return core.Lerp(data[i], data[ni], fi-float64(i))
}

func msLutE(roughness, cos float64) float64 {
	msLutOnce.Do(bakeMsLut)
	return lutE(msEData[:], roughness, cos)
}

func msLutEAvg(roughness float64) float64 {
	msLutOnce.Do(bakeMsLut)
	return lutEAvg(msEAvgData[:], roughness)
}

func msLutEFresnel(f0, roughness, cos float64) float64 {
	msLutFresnelOnce.Do(bakeMsFresnelLut)
	ff := core.Saturate(f0) * float64(msLutF0Cnt-1)
	i := int(ff)
	ni := min(i+1, msLutF0Cnt-1)
	slice := msLutSampleCnt * msLutSampleCnt
	s0 := lutE(msEFresnelData[i*slice:(i+1)*slice], roughness, cos)
	s1 := lutE(msEFresnelData[ni*slice:(ni+1)*slice], roughness, cos)
	return core.Lerp(s0, s1, ff-float64(i))
}

func msLutEAvgFresnel(f0, roughness float64) float64 {
	msLutFresnelOnce.Do(bakeMsFresnelLut)
	ff := core.Saturate(f0) * float64(msLutF0Cnt-1)
	i := int(ff)
	ni := min(i+1, msLutF0Cnt-1)
	s0 := lutEAvg(msEAvgFresnel[i*msLutSampleCnt:(i+1)*msLutSampleCnt], roughness)
	s1 := lutEAvg(msEAvgFresnel[ni*msLutSampleCnt:(ni+1)*msLutSampleCnt], roughness)
	return core.Lerp(s0, s1, ff-float64(i))
}

// MicrofacetMs is the multiple-scattering correction added on top of the
// single-scattering microfacet reflection, restoring the energy the Smith
// model loses at high roughness.
func MicrofacetMs(wo, wi core.Vec3, dist MicroFacetDistribution, fresnel Fresnel) core.Spectrum {
	eAvg := dist.EAvg()
	if eAvg == 1 {
		return core.Spectrum{}
	}

	fms := (1 - dist.E(wo.Y)) * (1 - dist.E(wi.Y)) / (math.Pi * (1 - eAvg))

	// A Multi-Faceted Exploration (Part 2)
	// https://blog.selfshadow.com/2018/06/04/multi-faceted-part-2/
	fAvg := fresnel.EvaluateAvg()
	num := fAvg.Multiply(fAvg).Scale(fms * (1 - eAvg))
	den := core.WhiteSpectrum.Subtract(fAvg.Scale(eAvg))
	return num.Divide(den)
}

// DiffuseAttenuation is the per-channel factor restoring energy conservation
// when a rough specular layer with reflectance f0 sits on top of a Lambert
// base.
//
// A Microfacet Based Coupled Specular-Matte BRDF Model with Importance Sampling
// https://www.researchgate.net/publication/2378872
func DiffuseAttenuation(f0 core.Spectrum, roughness, cosO, cosI float64) core.Spectrum {
	// the Pi of the original paper's denominator is implicitly folded into the
	// Lambert brdf this factor multiplies
	channel := func(f0c float64) float64 {
		eavg := msLutEAvgFresnel(f0c, roughness)
		if eavg == 1 {
			return 0
		}
		return (1 - msLutEFresnel(f0c, roughness, cosO)) * (1 - msLutEFresnel(f0c, roughness, cosI)) / (1 - eavg)
	}
	return core.Spectrum{R: channel(f0.R), G: channel(f0.G), B: channel(f0.B)}
}
