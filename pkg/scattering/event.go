package scattering

import (
	"github.com/lumen-render/go-shading/pkg/core"
)

// SEFlag configures a scattering event and reports the class of scattering a
// sampler picked.
type SEFlag uint32

const (
	SENone SEFlag = 0

	// SESubEvent marks an event nested inside a layered closure; its frame
	// transforms become the identity because the surrounding event already
	// moved the vectors into local space.
	SESubEvent SEFlag = 1 << iota
	SEEvaluateBxdf
	SEEvaluateBssrdf

	SEEvaluateAll = SEEvaluateBxdf | SEEvaluateBssrdf
)

// Fixed lobe capacities of one event. Shader graphs attach at most a handful
// of closures per point.
const (
	maxBxdfCount   = 8
	maxBssrdfCount = 4
)

// Event is the scattering state of one shading point: the attached lobes,
// their running sampling weights and the world-space tangent frame.
type Event struct {
	flag        SEFlag
	interaction core.SurfaceInteraction

	t  core.Vec3
	n  core.Vec3
	bt core.Vec3

	bxdfs   [maxBxdfCount]Bxdf
	bxdfCnt int

	bssrdfs   [maxBssrdfCount]Bssrdf
	bssrdfCnt int

	bxdfTotalSampleWeight   float64
	bssrdfTotalSampleWeight float64
}

// NewEvent binds an event to a surface interaction and builds the tangent
// frame from its normal and tangent.
func NewEvent(interaction core.SurfaceInteraction, flag SEFlag) *Event {
	e := &Event{flag: flag, interaction: interaction}
	e.n = interaction.Normal.Normalize()
	e.bt = e.n.Cross(interaction.Tangent).Normalize()
	e.t = e.bt.Cross(e.n).Normalize()
	return e
}

// Flag returns the configuration of the event
func (e *Event) Flag() SEFlag {
	return e.flag
}

// Interaction returns the surface interaction the event was built from
func (e *Event) Interaction() *core.SurfaceInteraction {
	return &e.interaction
}

// AddBxdf attaches a lobe and accumulates its sampling weight. Lobes beyond
// the fixed capacity are dropped.
func (e *Event) AddBxdf(b Bxdf) {
	if e.bxdfCnt == maxBxdfCount || b == nil {
		return
	}
	e.bxdfs[e.bxdfCnt] = b
	e.bxdfCnt++
	e.bxdfTotalSampleWeight += b.SampleWeight()
}

// AddBssrdf attaches a subsurface lobe and accumulates its sampling weight
func (e *Event) AddBssrdf(b Bssrdf) {
	if e.bssrdfCnt == maxBssrdfCount || b == nil {
		return
	}
	e.bssrdfs[e.bssrdfCnt] = b
	e.bssrdfCnt++
	e.bssrdfTotalSampleWeight += b.SampleWeight()
}

// WorldToLocal moves a world-space direction into the shading frame. Sub
// events forward vectors unchanged unless the caller forces the transform.
func (e *Event) WorldToLocal(v core.Vec3, forceTransform ...bool) core.Vec3 {
	force := len(forceTransform) > 0 && forceTransform[0]
	if e.flag&SESubEvent != 0 && !force {
		return v
	}
	return core.Vec3{X: v.Dot(e.t), Y: v.Dot(e.n), Z: v.Dot(e.bt)}
}

// LocalToWorld moves a shading-frame direction back to world space
func (e *Event) LocalToWorld(v core.Vec3) core.Vec3 {
	if e.flag&SESubEvent != 0 {
		return v
	}
	return core.Vec3{
		X: v.X*e.t.X + v.Y*e.n.X + v.Z*e.bt.X,
		Y: v.X*e.t.Y + v.Y*e.n.Y + v.Z*e.bt.Y,
		Z: v.X*e.t.Z + v.Y*e.n.Z + v.Z*e.bt.Z,
	}
}

// pickScattering selects one unit proportionally to the sample weights using a
// running-sum walk over the first cnt entries.
func pickScattering[T any](units []T, cnt int, totalWeight float64, weight func(T) float64, rc *core.RenderContext) (T, float64) {
	r := rc.Rng.Canonical() * totalWeight
	var picked T
	pdf := 0.0
	for i := 0; i < cnt; i++ {
		w := weight(units[i])
		if r <= w || i == cnt-1 {
			picked = units[i]
			pdf = w / totalWeight
			break
		}
		r -= w
	}
	return picked, pdf
}

// SampleScatteringType picks between BSDF and BSSRDF sampling proportionally
// to the accumulated sampling weights and returns the probability of the pick.
func (e *Event) SampleScatteringType(rc *core.RenderContext) (SEFlag, float64) {
	if e.bxdfTotalSampleWeight == 0 && e.bssrdfTotalSampleWeight == 0 {
		return SENone, 0
	}

	if e.bxdfTotalSampleWeight == 0 {
		return SEEvaluateBssrdf, 1
	} else if e.bssrdfTotalSampleWeight == 0 {
		return SEEvaluateBxdf, 1
	}

	pdfBxdf := e.bxdfTotalSampleWeight / (e.bxdfTotalSampleWeight + e.bssrdfTotalSampleWeight)
	if rc.Rng.Canonical() < pdfBxdf {
		return SEEvaluateBxdf, pdfBxdf
	}
	return SEEvaluateBssrdf, 1 - pdfBxdf
}

// EvaluateBSDF sums the weighted lobe values for a world-space direction pair
func (e *Event) EvaluateBSDF(wo, wi core.Vec3) core.Spectrum {
	swo := e.WorldToLocal(wo)
	swi := e.WorldToLocal(wi)
	var r core.Spectrum
	for i := 0; i < e.bxdfCnt; i++ {
		r = r.Add(e.bxdfs[i].F(swo, swi).Multiply(e.bxdfs[i].EvalWeight()))
	}
	return r
}

// SampleBSDF picks one lobe proportionally to the sampling weights, samples it
// and completes the mixture: the picked pdf is scaled by the pick probability
// and the other lobes contribute their value and their pdf times their raw
// sampling weight, so the returned pdf equals PDFBSDF and is the density of the
// full mixture when the sampling weights sum to one.
func (e *Event) SampleBSDF(wo core.Vec3, bs core.BsdfSample, rc *core.RenderContext) (core.Spectrum, core.Vec3, float64) {
	if e.bxdfCnt == 0 || e.bxdfTotalSampleWeight <= 0 {
		return core.Spectrum{}, core.Vec3{}, 0
	}

	bxdf, bxdfPdf := pickScattering(e.bxdfs[:], e.bxdfCnt, e.bxdfTotalSampleWeight, Bxdf.SampleWeight, rc)

	swo := e.WorldToLocal(wo)
	ret, swi, pdf := bxdf.SampleF(swo, bs)
	ret = ret.Multiply(bxdf.EvalWeight())
	if pdf == 0 {
		return core.Spectrum{}, core.Vec3{}, 0
	}
	pdf *= bxdfPdf

	for i := 0; i < e.bxdfCnt; i++ {
		if e.bxdfs[i] == bxdf {
			continue
		}
		ret = ret.Add(e.bxdfs[i].F(swo, swi).Multiply(e.bxdfs[i].EvalWeight()))
		pdf += e.bxdfs[i].PDF(swo, swi) * e.bxdfs[i].SampleWeight()
	}

	return ret, e.LocalToWorld(swi), pdf
}

// PDFBSDF returns the sampling-weighted mixture pdf of the attached lobes
func (e *Event) PDFBSDF(wo, wi core.Vec3) float64 {
	lwo := e.WorldToLocal(wo)
	lwi := e.WorldToLocal(wi)
	pdf := 0.0
	for i := 0; i < e.bxdfCnt; i++ {
		pdf += e.bxdfs[i].PDF(lwo, lwi) * e.bxdfs[i].SampleWeight()
	}
	return pdf
}

// SampleBSSRDF picks one subsurface lobe by the running-sum scheme, delegates
// the probe and returns the probability of the pick.
func (e *Event) SampleBSSRDF(scene Scene, wo, po core.Vec3, inter *BSSRDFIntersections, rc *core.RenderContext) float64 {
	if e.bssrdfCnt == 0 {
		return 0
	}
	bssrdf, pdf := pickScattering(e.bssrdfs[:], e.bssrdfCnt, e.bssrdfTotalSampleWeight, Bssrdf.SampleWeight, rc)
	bssrdf.SampleS(scene, wo, po, inter, rc)
	return pdf
}
