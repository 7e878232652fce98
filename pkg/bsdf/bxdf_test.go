package bsdf

import (
	"math"
	"math/rand"
	"testing"

	"github.com/lumen-render/go-shading/pkg/core"
	"github.com/lumen-render/go-shading/pkg/scattering"
)

// The property harness mirrors how the renderer validates every lobe: the pdf
// returned by SampleF must be the density it actually draws from, the density
// must not integrate beyond one, importance sampling restricted to the valid
// hemisphere must recover its 2π solid angle, physically based reflection
// lobes must be reciprocal and nothing may reflect more energy than it
// receives.
// https://agraphicsguy.wordpress.com/2018/03/09/how-does-pbrt-verify-bxdf/

type checkOptions struct {
	consistency  bool
	normalize    bool
	recover2Pi   bool
	reciprocity  bool
	conservation bool
}

func allChecks() checkOptions {
	return checkOptions{consistency: true, normalize: true, recover2Pi: true, reciprocity: true, conservation: true}
}

func testContext(seed int64) *core.RenderContext {
	return core.NewRenderContext(seed)
}

func randomUpperDirection(random *rand.Rand) core.Vec3 {
	wo := core.Vec3{
		X: random.Float64()*2 - 1,
		Y: random.Float64()*2 - 1,
		Z: random.Float64()*2 - 1,
	}.Normalize()
	if core.CosTheta(wo) < 0 {
		wo = wo.Negate()
	}
	return wo
}

func spectrumNear(a, b core.Spectrum, tolerance float64) bool {
	return math.Abs(a.R-b.R) <= tolerance &&
		math.Abs(a.G-b.G) <= tolerance &&
		math.Abs(a.B-b.B) <= tolerance
}

func checkPdfConsistency(t *testing.T, b scattering.Bxdf, rc *core.RenderContext, random *rand.Rand) {
	t.Helper()
	wo := randomUpperDirection(random)

	for i := 0; i < 128; i++ {
		bs := core.BsdfSample{U: random.Float64(), V: random.Float64()}
		f0, wi, pdf := b.SampleF(wo, bs)

		if math.IsNaN(pdf) || pdf < 0 {
			t.Fatalf("invalid pdf %v for wi %v", pdf, wi)
		}
		calculated := b.PDF(wo, wi)
		if math.Abs(pdf-calculated) > 1e-3 {
			t.Errorf("pdf mismatch: sampled %v, recomputed %v (wi %v)", pdf, calculated, wi)
		}
		f1 := b.F(wo, wi)
		if !spectrumNear(f0, f1, 1e-3) {
			t.Errorf("value mismatch: sampled %v, recomputed %v (wi %v)", f0, f1, wi)
		}
	}
}

func checkPdfNormalization(t *testing.T, b scattering.Bxdf, random *rand.Rand) {
	t.Helper()
	wo := randomUpperDirection(random)

	const samples = 1 << 19
	total := 0.0
	for i := 0; i < samples; i++ {
		wi := core.UniformSampleSphere(random.Float64(), random.Float64())
		total += b.PDF(wo, wi) / core.UniformSpherePdf()
	}
	total /= samples
	// importance samplers are allowed to reject directions under the surface,
	// so the integral may fall short but never exceeds one
	if total > 1.01 {
		t.Errorf("pdf integrates to %v, beyond one", total)
	}
}

func checkRecover2Pi(t *testing.T, b scattering.Bxdf, random *rand.Rand) {
	t.Helper()
	wo := randomUpperDirection(random)

	const samples = 1 << 21
	total := 0.0
	for i := 0; i < samples; i++ {
		bs := core.BsdfSample{U: random.Float64(), V: random.Float64()}
		_, _, pdf := b.SampleF(wo, bs)
		if pdf != 0 {
			total += 1 / pdf
		}
	}
	total /= samples
	if math.Abs(total-2*math.Pi) > 0.05 {
		t.Errorf("sampled solid angle %v, want 2π", total)
	}
}

func checkReciprocity(t *testing.T, b scattering.Bxdf, random *rand.Rand) {
	t.Helper()
	for i := 0; i < 128; i++ {
		wi := core.UniformSampleSphere(random.Float64(), random.Float64())
		wo := core.UniformSampleSphere(random.Float64(), random.Float64())

		f0 := b.F(wo, wi).Scale(core.AbsCosTheta(wo))
		f1 := b.F(wi, wo).Scale(core.AbsCosTheta(wi))
		if !spectrumNear(f0, f1, 1e-3) {
			t.Errorf("reciprocity violated: %v vs %v (wo %v wi %v)", f0, f1, wo, wi)
		}
	}
}

func checkEnergyConservation(t *testing.T, b scattering.Bxdf, random *rand.Rand) {
	t.Helper()
	const samples = 1 << 20
	var total core.Spectrum
	for i := 0; i < samples; i++ {
		bs := core.BsdfSample{U: random.Float64(), V: random.Float64()}
		f, _, pdf := b.SampleF(core.DirUp, bs)
		if pdf > 0 {
			total = total.Add(f.Scale(1 / pdf))
		}
	}
	total = total.Scale(1.0 / samples)
	if total.R > 1.01 || total.G > 1.01 || total.B > 1.01 {
		t.Errorf("reflected energy %v exceeds one", total)
	}
}

func checkAll(t *testing.T, name string, build func(rc *core.RenderContext) scattering.Bxdf, opts checkOptions) {
	t.Helper()
	t.Run(name, func(t *testing.T) {
		rc := testContext(42)
		random := rand.New(rand.NewSource(42))
		b := build(rc)

		if opts.consistency {
			checkPdfConsistency(t, b, rc, random)
		}
		if opts.normalize {
			checkPdfNormalization(t, b, random)
		}
		if opts.recover2Pi {
			checkRecover2Pi(t, b, random)
		}
		if opts.reciprocity {
			checkReciprocity(t, b, random)
		}
		if opts.conservation {
			checkEnergyConservation(t, b, random)
		}
	})
}

func TestLambertProperties(t *testing.T) {
	checkAll(t, "lambert", func(rc *core.RenderContext) scattering.Bxdf {
		return NewLambert(rc, core.NewSpectrum(0.7, 0.6, 0.5), core.WhiteSpectrum, core.DirUp, false)
	}, allChecks())
}

func TestLambertTransmissionProperties(t *testing.T) {
	opts := allChecks()
	opts.reciprocity = false
	checkAll(t, "lambert_transmission", func(rc *core.RenderContext) scattering.Bxdf {
		return NewLambertTransmission(rc, core.NewSpectrum(0.7, 0.6, 0.5), core.WhiteSpectrum, core.DirUp)
	}, opts)
}

func TestOrenNayarProperties(t *testing.T) {
	checkAll(t, "oren_nayar", func(rc *core.RenderContext) scattering.Bxdf {
		return NewOrenNayar(rc, core.NewSpectrum(0.7, 0.6, 0.5), 0.5, core.WhiteSpectrum, core.DirUp, false)
	}, allChecks())
}

func TestPhongProperties(t *testing.T) {
	checkAll(t, "phong", func(rc *core.RenderContext) scattering.Bxdf {
		return NewPhong(rc, core.NewSpectrumUniform(0.4), core.NewSpectrumUniform(0.5), 32, core.WhiteSpectrum, core.DirUp, false)
	}, allChecks())
}

func TestAshikhmanShirleyProperties(t *testing.T) {
	for _, roughness := range []float64{0.2, 0.5, 0.9} {
		checkAll(t, "ashikhman_shirley", func(rc *core.RenderContext) scattering.Bxdf {
			return NewAshikhmanShirley(rc, core.NewSpectrumUniform(0.6), 0.3, roughness, roughness, core.WhiteSpectrum, core.DirUp, false)
		}, allChecks())
	}
}

func TestMicroFacetReflectionProperties(t *testing.T) {
	distributions := map[string]func(ru, rv float64) MicroFacetDistribution{
		"ggx":      func(ru, rv float64) MicroFacetDistribution { return NewGGX(ru, rv) },
		"beckmann": func(ru, rv float64) MicroFacetDistribution { return NewBeckmann(ru, rv) },
		"blinn":    func(ru, rv float64) MicroFacetDistribution { return NewBlinn(ru, rv) },
	}
	for name, build := range distributions {
		for _, roughness := range []float64{0.3, 0.6, 1.0} {
			checkAll(t, name, func(rc *core.RenderContext) scattering.Bxdf {
				return NewMicroFacetReflection(rc, core.NewSpectrumUniform(0.9), FresnelNo{}, build(roughness, roughness), core.WhiteSpectrum, core.DirUp, false)
			}, allChecks())
		}
	}
}

func TestMicroFacetReflectionAnisotropic(t *testing.T) {
	opts := allChecks()
	checkAll(t, "ggx_aniso", func(rc *core.RenderContext) scattering.Bxdf {
		return NewMicroFacetReflection(rc, core.NewSpectrumUniform(0.9), FresnelNo{}, NewGGX(0.3, 0.7), core.WhiteSpectrum, core.DirUp, false)
	}, opts)
}

func TestMicroFacetRefractionProperties(t *testing.T) {
	// transmission is neither reciprocal in this form nor restricted to one
	// hemisphere
	opts := checkOptions{consistency: true, normalize: true}
	checkAll(t, "refraction", func(rc *core.RenderContext) scattering.Bxdf {
		return NewMicroFacetRefraction(rc, core.NewSpectrumUniform(0.9), NewGGX(0.5, 0.5), 1.0, 1.5, core.WhiteSpectrum, core.DirUp)
	}, opts)
}

func TestDielectricProperties(t *testing.T) {
	opts := checkOptions{consistency: true, normalize: true, conservation: true}
	checkAll(t, "dielectric", func(rc *core.RenderContext) scattering.Bxdf {
		return NewDielectric(rc, core.WhiteSpectrum, core.WhiteSpectrum, NewGGX(0.5, 0.5), 1.0, 1.5, core.WhiteSpectrum, core.DirUp)
	}, opts)
}

func TestFabricProperties(t *testing.T) {
	opts := checkOptions{consistency: true, reciprocity: true, conservation: true}
	checkAll(t, "fabric", func(rc *core.RenderContext) scattering.Bxdf {
		return NewFabric(rc, core.NewSpectrumUniform(0.6), 0.5, core.WhiteSpectrum, core.DirUp, false)
	}, opts)
}

func TestDistributionBRDFProperties(t *testing.T) {
	checkAll(t, "distribution", func(rc *core.RenderContext) scattering.Bxdf {
		return NewDistributionBRDF(rc, core.NewSpectrumUniform(0.6), 0.5, 0.3, 0.5, core.WhiteSpectrum, core.DirUp, false)
	}, allChecks())
}

func TestKylinPrincipleProperties(t *testing.T) {
	opts := checkOptions{consistency: true, normalize: true, conservation: true}
	checkAll(t, "kylin", func(rc *core.RenderContext) scattering.Bxdf {
		return NewKylinPrinciple(rc, core.NewSpectrum(0.7, 0.5, 0.3), 0.5, 0.5, 0.5, core.WhiteSpectrum, core.DirUp)
	}, opts)
}

func TestHairProperties(t *testing.T) {
	// hair scatters into the full sphere, so the 2π recovery does not apply
	opts := checkOptions{consistency: true, normalize: true, conservation: true}
	checkAll(t, "hair", func(rc *core.RenderContext) scattering.Bxdf {
		return NewHair(rc, core.NewSpectrumUniform(0.4), 0.5, 0.5, 1.55, core.WhiteSpectrum, true)
	}, opts)
}

func TestBlendProperties(t *testing.T) {
	opts := checkOptions{consistency: true, normalize: true, conservation: true}
	checkAll(t, "blend", func(rc *core.RenderContext) scattering.Bxdf {
		l0 := NewLambert(rc, core.NewSpectrumUniform(0.6), core.WhiteSpectrum, core.DirUp, false)
		l1 := NewOrenNayar(rc, core.NewSpectrumUniform(0.5), 0.4, core.WhiteSpectrum, core.DirUp, false)
		return NewBlend(rc, l0, l1, 0.3, core.WhiteSpectrum)
	}, opts)
}

func TestLambertSeed(t *testing.T) {
	rc := testContext(1)
	l := NewLambert(rc, core.NewSpectrumUniform(0.5), core.WhiteSpectrum, core.DirUp, false)

	f := l.F(core.DirUp, core.DirUp)
	want := 0.5 / math.Pi
	if math.Abs(f.R-want) > 1e-6 || math.Abs(f.G-want) > 1e-6 || math.Abs(f.B-want) > 1e-6 {
		t.Errorf("F = %v, want %v in every channel", f, want)
	}

	pdf := l.PDF(core.DirUp, core.DirUp)
	if math.Abs(pdf-1/math.Pi) > 1e-6 {
		t.Errorf("PDF = %v, want %v", pdf, 1/math.Pi)
	}
}

func TestTransparentSeed(t *testing.T) {
	rc := testContext(1)
	tr := NewTransparentAttenuated(rc, core.NewSpectrumUniform(0.3), core.WhiteSpectrum)

	wo := core.Vec3{X: 0.1, Y: 0.9, Z: 0.2}.Normalize()
	f, wi, pdf := tr.SampleF(wo, core.BsdfSample{U: 0.5, V: 0.5})
	if !wi.Equals(wo.Negate()) {
		t.Errorf("wi = %v, want %v", wi, wo.Negate())
	}
	if pdf != 1 {
		t.Errorf("pdf = %v, want 1", pdf)
	}
	if !spectrumNear(f, core.NewSpectrumUniform(0.3), 1e-9) {
		t.Errorf("f = %v, want attenuation", f)
	}

	if !tr.F(wo, wi).IsBlack() {
		t.Error("non-delta evaluation should be black")
	}
	if tr.PDF(wo, wi) != 0 {
		t.Error("non-delta pdf should be zero")
	}
}

func TestDielectricSeed(t *testing.T) {
	// at normal incidence with η = 1.5 the Fresnel term is 0.04, so the
	// reflection branch is picked with probability 0.04 after intensity
	// weighting
	fr := DielectricFresnel(1, 1, 1.5)
	if math.Abs(fr-0.04) > 1e-6 {
		t.Fatalf("normal incidence fresnel = %v, want 0.04", fr)
	}

	rc := testContext(7)
	d := NewDielectric(rc, core.WhiteSpectrum, core.WhiteSpectrum, NewGGX(0.5, 0.5), 1.0, 1.5, core.WhiteSpectrum, core.DirUp)
	ratio := d.specRatio(core.DirUp)
	want := 0.04 / (0.04 + 0.96)
	if math.Abs(ratio-want) > 1e-6 {
		t.Errorf("spec ratio = %v, want %v", ratio, want)
	}
}
