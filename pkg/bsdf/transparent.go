package bsdf

import (
	"github.com/lumen-render/go-shading/pkg/core"
	"github.com/lumen-render/go-shading/pkg/scattering"
)

// Transparent passes light straight through the surface, attenuated per
// channel. It is a Dirac delta lobe used for masking geometry and for proxy
// surfaces that volumes attach to; any non-delta query evaluates to zero.
type Transparent struct {
	BaseBxdf
	a core.Spectrum
}

// NewTransparent creates a fully transmissive lobe
func NewTransparent(rc *core.RenderContext) *Transparent {
	return NewTransparentAttenuated(rc, core.WhiteSpectrum, core.WhiteSpectrum)
}

// NewTransparentAttenuated creates a pass-through lobe with attenuation a
func NewTransparentAttenuated(rc *core.RenderContext, a, weight core.Spectrum) *Transparent {
	return &Transparent{
		BaseBxdf: newBaseBxdf(rc, weight, scattering.BxdfDiffuse|scattering.BxdfReflection, core.DirUp, true),
		a:        a,
	}
}

func (t *Transparent) F(wo, wi core.Vec3) core.Spectrum {
	return core.Spectrum{}
}

func (t *Transparent) SampleF(wo core.Vec3, bs core.BsdfSample) (core.Spectrum, core.Vec3, float64) {
	return t.a, wo.Negate(), 1
}

func (t *Transparent) PDF(wo, wi core.Vec3) float64 {
	return 0
}
