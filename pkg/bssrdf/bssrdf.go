// Package bssrdf implements the separable subsurface scattering family. A
// separable BSSRDF factors into two directional terms and one spatial profile
// that only depends on the distance between the entry and exit points; the
// spatial profile is what gets importance sampled with probe rays.
package bssrdf

import (
	"math"

	"github.com/lumen-render/go-shading/pkg/core"
	"github.com/lumen-render/go-shading/pkg/scattering"
)

// profile is the radial part a concrete separable model plugs into the shared
// probe machinery. A negative radius from SampleSr marks an invalid sample.
type profile interface {
	Sr(distance float64) core.Spectrum
	SampleSr(ch int, r float64) float64
	PdfSr(ch int, d float64) float64
	MaxSr(ch int) float64
	SampleCh(rc *core.RenderContext) int
}

// Separable carries the state shared by every separable model: the weights,
// the surface albedo, the exit interaction and the orthonormal basis built at
// it, plus the count of spectral channels with a non-zero mean free path.
type Separable struct {
	ew core.Spectrum
	sw float64

	r            core.Spectrum
	intersection *core.SurfaceInteraction

	nn, btn, tn core.Vec3

	channels   int
	activeMask [3]bool

	p profile
}

func newSeparable(r core.Spectrum, intersection *core.SurfaceInteraction, ew core.Spectrum, sw float64, p profile) Separable {
	s := Separable{ew: ew, sw: sw, r: r, intersection: intersection, p: p}
	s.nn = intersection.Normal.Normalize()
	s.btn = s.nn.Cross(intersection.Tangent).Normalize()
	s.tn = s.btn.Cross(s.nn).Normalize()
	return s
}

// EvalWeight returns the contribution weight of the lobe
func (s *Separable) EvalWeight() core.Spectrum {
	return s.ew
}

// SampleWeight returns the probability weight used to pick the lobe
func (s *Separable) SampleWeight() float64 {
	return s.sw
}

// SampleS importance samples incident positions around the exit point.
//
// One of three orthogonal probe axes is picked with probabilities
// (0.5, 0.25, 0.25), a disk radius is drawn from the radial profile of a
// randomly chosen active spectral channel, and the probe ray is pushed
// through the surface to collect up to four intersections carrying the same
// material.
//
// BSSRDF Importance Sampling
// http://library.imageworks.com/pdfs/imageworks-library-BSSRDF-sampling.pdf
func (s *Separable) SampleS(scene scattering.Scene, wo, po core.Vec3, inter *scattering.BSSRDFIntersections, rc *core.RenderContext) {
	var vx, vy, vz core.Vec3
	r0 := rc.Rng.Canonical()

	if r0 <= 0.5 {
		vx, vy, vz = s.btn, s.nn, s.tn
	} else if r0 < 0.75 {
		vx, vy, vz = s.tn, s.btn, s.nn
	} else {
		vx, vy, vz = s.nn, s.tn, s.btn
	}

	ch := s.p.SampleCh(rc)
	r := s.p.SampleSr(ch, rc.Rng.Canonical())

	// rejection on top of the inverse CDF; the rejection region is small
	// enough not to hurt
	if r < 0 {
		return
	}

	rMax := math.Max(0.0015, s.p.MaxSr(ch))
	if r >= rMax {
		return
	}
	l := 2 * math.Sqrt(core.Sqr(rMax)-core.Sqr(r))

	phi := 2 * math.Pi * rc.Rng.Canonical()
	source := po.
		Add(vx.Multiply(r * math.Cos(phi)).Add(vz.Multiply(r * math.Sin(phi)))).
		Add(vy.Multiply(l * 0.5))

	ray := core.Ray{Origin: source, Direction: vy.Negate(), TMin: 0.0001, TMax: l}
	inter.MaxT = l
	scene.GetIntersect(ray, inter, s.intersection.MaterialID)

	for i := 0; i < inter.Cnt; i++ {
		hit := inter.Intersections[i]
		profileValue := s.p.Sr(po.Subtract(hit.Interaction.Point).Length())
		pdf := s.PdfSp(po, hit.Interaction.Point, hit.Interaction.Normal)
		if pdf > 0 && !profileValue.IsBlack() {
			hit.Weight = profileValue.Scale(1 / pdf).Multiply(s.ew)
		}
	}
}

// PdfSp is the density of sampling the incident position pi: the radial pdf of
// its projection onto each probe axis, weighted by the axis probabilities and
// the geometric term, averaged over the active spectral channels.
func (s *Separable) PdfSp(po, pi core.Vec3, n core.Vec3) float64 {
	if s.channels == 0 {
		return 0
	}
	d := po.Subtract(pi)
	dLocal := core.Vec3{X: s.btn.Dot(d), Y: s.nn.Dot(d), Z: s.tn.Dot(d)}
	nLocal := core.Vec3{X: s.btn.Dot(n), Y: s.nn.Dot(n), Z: s.tn.Dot(n)}

	rProj := [3]float64{
		math.Sqrt(core.Sqr(dLocal.Y) + core.Sqr(dLocal.Z)),
		math.Sqrt(core.Sqr(dLocal.X) + core.Sqr(dLocal.Z)),
		math.Sqrt(core.Sqr(dLocal.X) + core.Sqr(dLocal.Y)),
	}
	nAxis := [3]float64{nLocal.X, nLocal.Y, nLocal.Z}
	axisProb := [3]float64{0.25, 0.5, 0.25}

	pdf := 0.0
	for axis := 0; axis < 3; axis++ {
		for ch := 0; ch < 3; ch++ {
			if !s.activeMask[ch] {
				continue
			}
			pdf += s.p.PdfSr(ch, rProj[axis]) * math.Abs(nAxis[axis]) * axisProb[axis]
		}
	}
	return pdf / float64(s.channels)
}

// setActiveChannels records which spectral channels carry a non-zero mean
// free path; sampling is restricted to them.
func (s *Separable) setActiveChannels(mfp core.Spectrum) {
	for ch := 0; ch < 3; ch++ {
		if mfp.Channel(ch) != 0 {
			s.activeMask[ch] = true
			s.channels++
		}
	}
}

// pickActiveChannel maps a uniform pick in [0, channels) onto the index of
// the n-th active channel.
func (s *Separable) pickActiveChannel(rc *core.RenderContext) int {
	pick := core.Clamp(float64(rc.Rng.Intn(max(s.channels, 1))), 0, float64(s.channels-1))
	idx := int(pick)
	for ch := 0; ch < 3; ch++ {
		if !s.activeMask[ch] {
			continue
		}
		if idx == 0 {
			return ch
		}
		idx--
	}
	return 2
}
