// Package scattering aggregates the BxDF and BSSRDF lobes attached to a
// shading point and drives top-level evaluation and sampling. It owns the
// world/local frame of the point; the lobes themselves always work in shading
// coordinate with the normal along +Y.
package scattering

import (
	"github.com/lumen-render/go-shading/pkg/core"
)

// BxdfType is a bit mask describing the nature of a lobe. Integrators query it
// to gate multiple importance sampling or caustics policies.
type BxdfType uint32

const (
	BxdfNone         BxdfType = 0
	BxdfDiffuse      BxdfType = 1
	BxdfGlossy       BxdfType = 2
	BxdfReflection   BxdfType = 8
	BxdfTransmission BxdfType = 16

	BxdfAllTypes        = BxdfDiffuse | BxdfGlossy
	BxdfAllReflection   = BxdfAllTypes | BxdfReflection
	BxdfAllTransmission = BxdfAllTypes | BxdfTransmission
	BxdfAll             = BxdfAllReflection | BxdfAllTransmission
)

// Match reports whether every bit of t lies inside the queried mask
func (t BxdfType) Match(mask BxdfType) bool {
	return t&mask == t
}

// Bxdf is a reflection or transmission lobe. All three operations take and
// return directions in the outer shading frame of the owning event; a lobe
// carrying a normal map remaps internally.
//
// F returns the lobe value multiplied by |cos(θi)|; the cosine factor is folded
// into the result by convention, so integrators divide by sample pdfs only.
// SampleF importance samples an incident direction and returns the evaluated
// lobe, the direction and the pdf with respect to solid angle. PDF returns the
// exact density SampleF draws from.
type Bxdf interface {
	F(wo, wi core.Vec3) core.Spectrum
	SampleF(wo core.Vec3, bs core.BsdfSample) (core.Spectrum, core.Vec3, float64)
	PDF(wo, wi core.Vec3) float64

	EvalWeight() core.Spectrum
	SampleWeight() float64
	Type() BxdfType
}

// Bssrdf is a subsurface lobe relating radiance entering at one point to
// radiance leaving at another.
type Bssrdf interface {
	// S evaluates the full eight dimensional transfer between the exitant
	// pair (wo, po) and the incident pair (wi, pi), all in world space.
	S(wo, po, wi, pi core.Vec3) core.Spectrum

	// SampleS importance samples incident positions by probing the scene
	// around the exit point and fills inter with the weighted hits.
	SampleS(scene Scene, wo, po core.Vec3, inter *BSSRDFIntersections, rc *core.RenderContext)

	EvalWeight() core.Spectrum
	SampleWeight() float64
}

// TotalSSSIntersectionCnt bounds the number of hits a single subsurface probe
// may report.
const TotalSSSIntersectionCnt = 4

// BSSRDFIntersection is one weighted hit of a subsurface probe ray. The weight
// already contains profile, inverse pdf and the lobe evaluation weight.
type BSSRDFIntersection struct {
	Interaction core.SurfaceInteraction
	Weight      core.Spectrum
}

// BSSRDFIntersections collects the hits of one probe. MaxT is consumed by the
// acceleration structure to bound the probe cheaply.
type BSSRDFIntersections struct {
	Intersections [TotalSSSIntersectionCnt]*BSSRDFIntersection
	Cnt           int
	MaxT          float64
}

// ResolveMaxDepth recomputes MaxT from the recorded hits
func (b *BSSRDFIntersections) ResolveMaxDepth() {
	b.MaxT = 0
	for i := 0; i < b.Cnt; i++ {
		if b.Intersections[i].Interaction.T > b.MaxT {
			b.MaxT = b.Intersections[i].Interaction.T
		}
	}
}

// Scene is the only view of the accelerator the shading core needs: find up to
// TotalSSSIntersectionCnt intersections of the probe ray with surfaces that
// carry the given material.
type Scene interface {
	GetIntersect(ray core.Ray, inter *BSSRDFIntersections, materialID int)
}
