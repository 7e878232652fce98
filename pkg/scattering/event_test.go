package scattering

import (
	"math"
	"testing"

	"github.com/lumen-render/go-shading/pkg/core"
)

// stubBxdf is a minimal cosine lobe for exercising the aggregator without
// pulling the full lobe library into the package.
type stubBxdf struct {
	albedo core.Spectrum
	sw     float64
}

func (s *stubBxdf) F(wo, wi core.Vec3) core.Spectrum {
	if !core.SameHemisphere(wo, wi) || core.CosTheta(wo) <= 0 {
		return core.Spectrum{}
	}
	return s.albedo.Scale(core.AbsCosTheta(wi) / math.Pi)
}

func (s *stubBxdf) SampleF(wo core.Vec3, bs core.BsdfSample) (core.Spectrum, core.Vec3, float64) {
	wi := core.CosSampleHemisphere(bs.U, bs.V)
	return s.F(wo, wi), wi, s.PDF(wo, wi)
}

func (s *stubBxdf) PDF(wo, wi core.Vec3) float64 {
	if !core.SameHemisphere(wo, wi) || core.CosTheta(wo) <= 0 {
		return 0
	}
	return core.CosHemispherePdf(wi)
}

func (s *stubBxdf) EvalWeight() core.Spectrum { return core.WhiteSpectrum }
func (s *stubBxdf) SampleWeight() float64     { return s.sw }
func (s *stubBxdf) Type() BxdfType            { return BxdfDiffuse | BxdfReflection }

type stubBssrdf struct {
	sw float64
}

func (s *stubBssrdf) S(wo, po, wi, pi core.Vec3) core.Spectrum { return core.WhiteSpectrum }
func (s *stubBssrdf) SampleS(scene Scene, wo, po core.Vec3, inter *BSSRDFIntersections, rc *core.RenderContext) {
}
func (s *stubBssrdf) EvalWeight() core.Spectrum { return core.WhiteSpectrum }
func (s *stubBssrdf) SampleWeight() float64     { return s.sw }

func testInteraction() core.SurfaceInteraction {
	return core.SurfaceInteraction{
		Normal:  core.Vec3{X: 0, Y: 0, Z: 1},
		Tangent: core.Vec3{X: 1, Y: 0, Z: 0},
	}
}

func TestFrameRoundTrip(t *testing.T) {
	e := NewEvent(testInteraction(), SEEvaluateAll)

	v := core.Vec3{X: 0.3, Y: -0.5, Z: 0.8}.Normalize()
	local := e.WorldToLocal(v)
	back := e.LocalToWorld(local)
	if !back.Equals(v) {
		t.Errorf("round trip %v -> %v -> %v", v, local, back)
	}

	// the geometric normal must land on the +Y shading axis
	n := e.WorldToLocal(core.Vec3{X: 0, Y: 0, Z: 1})
	if !n.Equals(core.DirUp) {
		t.Errorf("normal maps to %v, want +Y", n)
	}
}

func TestSubEventIdentityTransform(t *testing.T) {
	e := NewEvent(testInteraction(), SESubEvent|SEEvaluateBxdf)

	v := core.Vec3{X: 0.3, Y: -0.5, Z: 0.8}
	if e.WorldToLocal(v) != v {
		t.Error("sub event must forward vectors unchanged")
	}
	if e.LocalToWorld(v) != v {
		t.Error("sub event must forward vectors unchanged")
	}
	if e.WorldToLocal(v, true) == v {
		t.Error("forced transform must still move the vector")
	}
}

func TestSampleScatteringType(t *testing.T) {
	rc := core.NewRenderContext(42)

	e := NewEvent(testInteraction(), SEEvaluateAll)
	if flag, pdf := e.SampleScatteringType(rc); flag != SENone || pdf != 0 {
		t.Errorf("empty event: flag %v pdf %v", flag, pdf)
	}

	e.AddBxdf(&stubBxdf{albedo: core.WhiteSpectrum, sw: 1})
	if flag, pdf := e.SampleScatteringType(rc); flag != SEEvaluateBxdf || pdf != 1 {
		t.Errorf("bxdf only: flag %v pdf %v", flag, pdf)
	}

	e.AddBssrdf(&stubBssrdf{sw: 3})
	bxdfCnt := 0
	const trials = 20000
	for i := 0; i < trials; i++ {
		flag, pdf := e.SampleScatteringType(rc)
		if flag == SEEvaluateBxdf {
			bxdfCnt++
			if math.Abs(pdf-0.25) > 1e-9 {
				t.Fatalf("bxdf pick pdf %v, want 0.25", pdf)
			}
		} else if math.Abs(pdf-0.75) > 1e-9 {
			t.Fatalf("bssrdf pick pdf %v, want 0.75", pdf)
		}
	}
	ratio := float64(bxdfCnt) / trials
	if math.Abs(ratio-0.25) > 0.02 {
		t.Errorf("bxdf picked %v of the time, want 0.25", ratio)
	}
}

func TestEvaluateBSDFSumsWeightedLobes(t *testing.T) {
	e := NewEvent(testInteraction(), SEEvaluateBxdf)
	e.AddBxdf(&stubBxdf{albedo: core.NewSpectrumUniform(0.4), sw: 1})
	e.AddBxdf(&stubBxdf{albedo: core.NewSpectrumUniform(0.2), sw: 1})

	wo := core.Vec3{X: 0, Y: 0, Z: 1}
	wi := core.Vec3{X: 0, Y: 0, Z: 1}
	f := e.EvaluateBSDF(wo, wi)
	want := (0.4 + 0.2) / math.Pi
	if math.Abs(f.R-want) > 1e-9 {
		t.Errorf("F = %v, want %v", f.R, want)
	}
}

func TestSampleBSDFMixturePdf(t *testing.T) {
	rc := core.NewRenderContext(7)
	e := NewEvent(testInteraction(), SEEvaluateBxdf)
	// weights summing to one keep the picked-lobe pdf term identical to the
	// queried mixture, so the two entry points can be compared directly
	e.AddBxdf(&stubBxdf{albedo: core.NewSpectrumUniform(0.4), sw: 0.25})
	e.AddBxdf(&stubBxdf{albedo: core.NewSpectrumUniform(0.2), sw: 0.75})

	wo := core.Vec3{X: 0.1, Y: 0.2, Z: 0.97}.Normalize()
	for i := 0; i < 256; i++ {
		bs := core.NewBsdfSample(rc)
		f, wi, pdf := e.SampleBSDF(wo, bs, rc)
		if pdf == 0 {
			continue
		}

		// the mixture pdf of the sample must agree with the queried pdf and
		// the returned value with the full evaluation
		if math.Abs(pdf-e.PDFBSDF(wo, wi)) > 1e-9 {
			t.Fatalf("pdf %v, recomputed %v", pdf, e.PDFBSDF(wo, wi))
		}
		full := e.EvaluateBSDF(wo, wi)
		if math.Abs(f.R-full.R) > 1e-9 {
			t.Fatalf("value %v, recomputed %v", f, full)
		}
	}
}

func TestPDFBSDFWeighting(t *testing.T) {
	e := NewEvent(testInteraction(), SEEvaluateBxdf)
	e.AddBxdf(&stubBxdf{albedo: core.WhiteSpectrum, sw: 2})

	wo := core.Vec3{X: 0, Y: 0, Z: 1}
	wi := core.Vec3{X: 0, Y: 0, Z: 1}
	want := 2.0 / math.Pi
	if math.Abs(e.PDFBSDF(wo, wi)-want) > 1e-9 {
		t.Errorf("PDF = %v, want %v", e.PDFBSDF(wo, wi), want)
	}
}
