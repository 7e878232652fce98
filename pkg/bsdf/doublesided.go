package bsdf

import (
	"github.com/lumen-render/go-shading/pkg/core"
	"github.com/lumen-render/go-shading/pkg/scattering"
)

// DoubleSided shows a different scattering event on each side of the surface,
// mirroring directions for the back side. Feeding it transmissive events is
// unsupported; the two children are expected to be reflection-only.
type DoubleSided struct {
	BaseBxdf
	se0 *scattering.Event
	se1 *scattering.Event
}

// NewDoubleSided wraps the two per-side scattering events; either may be nil,
// in which case that side absorbs.
func NewDoubleSided(rc *core.RenderContext, se0, se1 *scattering.Event, weight core.Spectrum) *DoubleSided {
	return &DoubleSided{
		BaseBxdf: newBaseBxdf(rc, weight, scattering.BxdfAllTypes, core.DirUp, false),
		se0:      se0,
		se1:      se1,
	}
}

func (d *DoubleSided) F(wo, wi core.Vec3) core.Spectrum {
	back0 := core.CosTheta(wo) < 0
	back1 := core.CosTheta(wi) < 0
	if back0 != back1 {
		return core.Spectrum{}
	}

	if !back0 {
		if d.se0 == nil {
			return core.Spectrum{}
		}
		return d.se0.EvaluateBSDF(wo, wi)
	}
	if d.se1 == nil {
		return core.Spectrum{}
	}
	return d.se1.EvaluateBSDF(wo.Negate(), wi.Negate())
}

func (d *DoubleSided) SampleF(wo core.Vec3, bs core.BsdfSample) (core.Spectrum, core.Vec3, float64) {
	back0 := core.CosTheta(wo) < 0

	var ret core.Spectrum
	var wi core.Vec3
	if !back0 {
		if d.se0 == nil {
			return core.Spectrum{}, core.Vec3{}, 0
		}
		ret, wi, _ = d.se0.SampleBSDF(wo, bs, d.rc)
	} else {
		if d.se1 == nil {
			return core.Spectrum{}, core.Vec3{}, 0
		}
		ret, wi, _ = d.se1.SampleBSDF(wo.Negate(), bs, d.rc)
		wi = wi.Negate()
	}
	return ret, wi, d.PDF(wo, wi)
}

func (d *DoubleSided) PDF(wo, wi core.Vec3) float64 {
	back0 := core.CosTheta(wo) < 0
	back1 := core.CosTheta(wi) < 0
	if back0 != back1 {
		return 0
	}

	if !back0 {
		if d.se0 == nil {
			return 0
		}
		return d.se0.PDFBSDF(wo, wi)
	}
	if d.se1 == nil {
		return 0
	}
	return d.se1.PDFBSDF(wo.Negate(), wi.Negate())
}
