package bsdf

import (
	"math"

	"github.com/lumen-render/go-shading/pkg/core"
	"github.com/lumen-render/go-shading/pkg/scattering"
)

// KylinPrinciple is the reference implementation of the Kylin Engine's
// principled shading node: a metal/dielectric blend of a multi-scattering
// compensated GGX specular over a Lambert base whose energy is attenuated to
// keep the sum conservative. Not everything in it is physically based; it
// mirrors what the real-time engine does.
type KylinPrinciple struct {
	BaseBxdf
	baseColor core.Spectrum
	metallic  float64
	roughness float64
	specular  float64
}

// NewKylinPrinciple creates the lobe
func NewKylinPrinciple(rc *core.RenderContext, baseColor core.Spectrum, metallic, specular, roughness float64, weight core.Spectrum, n core.Vec3) *KylinPrinciple {
	return &KylinPrinciple{
		BaseBxdf:  newBaseBxdf(rc, weight, scattering.BxdfDiffuse|scattering.BxdfReflection, n, true),
		baseColor: baseColor,
		metallic:  metallic,
		roughness: math.Max(roughness, 0.003),
		specular:  specular,
	}
}

// dielectric specular intensity maps onto F0 through the usual 8% scale
func dielectricSpecularToF0(specular float64) float64 {
	return 0.08 * specular
}

func (k *KylinPrinciple) computeF0() core.Spectrum {
	f0 := dielectricSpecularToF0(k.specular)
	return core.Spectrum{
		R: f0 + k.metallic*(k.baseColor.R-f0),
		G: f0 + k.metallic*(k.baseColor.G-f0),
		B: f0 + k.metallic*(k.baseColor.B-f0),
	}
}

func (k *KylinPrinciple) F(wo, wi core.Vec3) core.Spectrum {
	return k.f(k.toLocal(wo), k.toLocal(wi))
}

func (k *KylinPrinciple) f(swo, swi core.Vec3) core.Spectrum {
	if !k.sameGeomHemisphere(swo, swi) {
		return core.Spectrum{}
	}
	if !k.doubleSided && !k.pointingUp(swo) {
		return core.Spectrum{}
	}

	var ret core.Spectrum

	f0 := k.computeF0()
	// Schlick instead of a more exact form to stay consistent with the
	// engine's real-time implementation.
	fresnel := NewFresnelSchlick(f0)

	ggx := NewGGX(k.roughness, k.roughness)
	mf := NewMicroFacetReflectionMS(k.rc, core.WhiteSpectrum, fresnel, ggx, core.WhiteSpectrum, core.DirUp, false)
	ret = ret.Add(mf.fms(swo, swi))

	attenuation := DiffuseAttenuation(f0, k.roughness, swo.Y, swi.Y)
	diffuseBase := k.baseColor.Scale(1 - k.metallic).Multiply(attenuation)
	if !diffuseBase.IsBlack() {
		lambert := NewLambert(k.rc, diffuseBase, diffuseBase, core.DirUp, false)
		ret = ret.Add(lambert.f(swo, swi))
	}

	return ret
}

// sampleDiffuseRatio is the diffuse/specular pick probability; the specular
// weight gets a flat boost so dark F0 still receives samples.
func (k *KylinPrinciple) sampleDiffuseRatio() float64 {
	diffuseBase := k.baseColor.Scale(1 - k.metallic)
	f0 := k.computeF0().Add(core.NewSpectrumUniform(0.1))
	return diffuseBase.GetIntensity() / (diffuseBase.GetIntensity() + f0.GetIntensity())
}

func (k *KylinPrinciple) SampleF(wo core.Vec3, bs core.BsdfSample) (core.Spectrum, core.Vec3, float64) {
	swo := k.toLocal(wo)
	ratio := k.sampleDiffuseRatio()

	var swi core.Vec3
	if k.rc.Rng.Canonical() < ratio {
		swi = k.defaultSample(bs)
	} else {
		ggx := NewGGX(k.roughness, k.roughness)
		wh := ggx.SampleF(bs)
		swi = core.Reflect(swo, wh)
	}

	pdf := k.pdf(swo, swi)
	return k.f(swo, swi), k.fromLocal(swi), pdf
}

func (k *KylinPrinciple) PDF(wo, wi core.Vec3) float64 {
	return k.pdf(k.toLocal(wo), k.toLocal(wi))
}

func (k *KylinPrinciple) pdf(swo, swi core.Vec3) float64 {
	ratio := k.sampleDiffuseRatio()

	pdf := 0.0
	if ratio > 0 {
		pdf += k.defaultPdf(swo, swi) * ratio
	}
	if ratio < 1 {
		ggx := NewGGX(k.roughness, k.roughness)
		mf := NewMicroFacetReflection(k.rc, core.WhiteSpectrum, NewFresnelSchlick(k.computeF0()), ggx, core.WhiteSpectrum, core.DirUp, false)
		pdf += mf.pdf(swo, swi) * (1 - ratio)
	}
	return pdf
}
