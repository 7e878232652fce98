// Package bsdf implements the lobe library of the shading core: Fresnel
// terms, microfacet distributions and every concrete BxDF. Lobes follow one
// contract: F returns the lobe value with |cos(θi)| folded in, SampleF returns
// the exact density it drew from, and queries on the wrong side of the surface
// evaluate to zero instead of failing.
package bsdf

import (
	"github.com/lumen-render/go-shading/pkg/core"
	"github.com/lumen-render/go-shading/pkg/scattering"
)

// BaseBxdf carries what every lobe shares: the evaluation and sampling
// weights, the type mask, the double-sided flag and, when a normal map is
// applied, the frame that remaps directions from the outer shading coordinate
// into the lobe's own.
type BaseBxdf struct {
	ew  core.Spectrum
	sw  float64
	typ scattering.BxdfType

	doubleSided      bool
	normalMapApplied bool
	nn, tn, btn      core.Vec3
	gnormal          core.Vec3

	rc *core.RenderContext
}

func newBaseBxdf(rc *core.RenderContext, ew core.Spectrum, typ scattering.BxdfType, n core.Vec3, doubleSided bool) BaseBxdf {
	return newBaseBxdfWeighted(rc, ew, ew.GetIntensity(), typ, n, doubleSided)
}

func newBaseBxdfWeighted(rc *core.RenderContext, ew core.Spectrum, sw float64, typ scattering.BxdfType, n core.Vec3, doubleSided bool) BaseBxdf {
	b := BaseBxdf{
		ew:          ew,
		sw:          sw,
		typ:         typ,
		doubleSided: doubleSided,
		gnormal:     core.DirUp,
		rc:          rc,
	}
	if n == core.DirUp || n.IsZero() {
		b.nn = core.DirUp
		return b
	}
	b.normalMapApplied = true
	b.nn = n.Normalize()
	b.btn = b.nn.Cross(core.Vec3{X: 1}).Normalize()
	b.tn = b.btn.Cross(b.nn).Normalize()
	b.gnormal = b.toLocal(core.DirUp)
	return b
}

// EvalWeight returns the contribution weight of the lobe
func (b *BaseBxdf) EvalWeight() core.Spectrum {
	return b.ew
}

// SampleWeight returns the probability weight used to pick the lobe
func (b *BaseBxdf) SampleWeight() float64 {
	return b.sw
}

// Type returns the lobe type mask
func (b *BaseBxdf) Type() scattering.BxdfType {
	return b.typ
}

// toLocal moves a vector from the outer shading coordinate into the lobe's
// normal-mapped frame. Without a normal map the two frames coincide.
func (b *BaseBxdf) toLocal(v core.Vec3) core.Vec3 {
	if !b.normalMapApplied {
		return v
	}
	return core.Vec3{X: v.Dot(b.tn), Y: v.Dot(b.nn), Z: v.Dot(b.btn)}
}

// fromLocal moves a vector from the lobe frame back to the outer shading
// coordinate
func (b *BaseBxdf) fromLocal(v core.Vec3) core.Vec3 {
	if !b.normalMapApplied {
		return v
	}
	return core.Vec3{
		X: v.X*b.tn.X + v.Y*b.nn.X + v.Z*b.btn.X,
		Y: v.X*b.tn.Y + v.Y*b.nn.Y + v.Z*b.btn.Y,
		Z: v.X*b.tn.Z + v.Y*b.nn.Z + v.Z*b.btn.Z,
	}
}

// pointingUp tests a lobe-frame vector against the geometry normal, not the
// shading normal, so normal-mapped lobes still short-circuit when the ray is
// behind the real surface.
func (b *BaseBxdf) pointingUp(v core.Vec3) bool {
	return v.Dot(b.gnormal) > 0
}

// sameGeomHemisphere tests two lobe-frame vectors against the geometry normal
func (b *BaseBxdf) sameGeomHemisphere(wi, wo core.Vec3) bool {
	return b.pointingUp(wi) == b.pointingUp(wo)
}

// defaultPdf is the density of defaultSample
func (b *BaseBxdf) defaultPdf(swo, swi core.Vec3) float64 {
	if !b.sameGeomHemisphere(swo, swi) {
		return 0
	}
	if !b.doubleSided && !b.pointingUp(swo) {
		return 0
	}
	return core.CosHemispherePdf(swi)
}

// defaultSample draws a cosine-weighted direction in the lobe frame. It is the
// fallback for lobes without a dedicated importance sampler.
func (b *BaseBxdf) defaultSample(bs core.BsdfSample) core.Vec3 {
	return core.CosSampleHemisphere(bs.U, bs.V)
}
