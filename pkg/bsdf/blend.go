package bsdf

import (
	"github.com/lumen-render/go-shading/pkg/core"
	"github.com/lumen-render/go-shading/pkg/scattering"
)

// Blend interpolates two child lobes by a constant factor; the shader graph
// uses it to mix closures. Sampling picks one child by the blend weight and
// reports the mixed pdf so the estimator stays unbiased.
type Blend struct {
	BaseBxdf
	bxdf0, bxdf1 scattering.Bxdf
	factor       float64
}

// NewBlend creates a blend lobe; factor 0 yields bxdf0, 1 yields bxdf1.
// Either child may be nil.
func NewBlend(rc *core.RenderContext, bxdf0, bxdf1 scattering.Bxdf, factor float64, weight core.Spectrum) *Blend {
	return &Blend{
		BaseBxdf: newBaseBxdf(rc, weight, scattering.BxdfAllTypes, core.DirUp, false),
		bxdf0:    bxdf0,
		bxdf1:    bxdf1,
		factor:   core.Saturate(factor),
	}
}

func (b *Blend) F(wo, wi core.Vec3) core.Spectrum {
	if b.bxdf0 == nil && b.bxdf1 == nil {
		return core.Spectrum{}
	}
	if b.bxdf0 == nil {
		return b.bxdf1.F(wo, wi)
	}
	if b.bxdf1 == nil {
		return b.bxdf0.F(wo, wi)
	}
	return core.LerpSpectrum(b.bxdf0.F(wo, wi), b.bxdf1.F(wo, wi), b.factor)
}

func (b *Blend) SampleF(wo core.Vec3, bs core.BsdfSample) (core.Spectrum, core.Vec3, float64) {
	if b.bxdf0 == nil && b.bxdf1 == nil {
		return core.Spectrum{}, core.Vec3{}, 0
	}

	var wi core.Vec3
	if b.bxdf1 != nil && (bs.U < b.factor || b.factor == 1 || b.bxdf0 == nil) {
		_, wi, _ = b.bxdf1.SampleF(wo, core.NewBsdfSample(b.rc))
	} else {
		_, wi, _ = b.bxdf0.SampleF(wo, core.NewBsdfSample(b.rc))
	}
	return b.F(wo, wi), wi, b.PDF(wo, wi)
}

func (b *Blend) PDF(wo, wi core.Vec3) float64 {
	if b.bxdf0 == nil && b.bxdf1 == nil {
		return 0
	}
	if b.bxdf0 == nil {
		return b.bxdf1.PDF(wo, wi)
	}
	if b.bxdf1 == nil {
		return b.bxdf0.PDF(wo, wi)
	}
	return core.Lerp(b.bxdf0.PDF(wo, wi), b.bxdf1.PDF(wo, wi), b.factor)
}
