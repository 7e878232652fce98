package bsdf

import (
	"math"
	"math/rand"
	"testing"

	"github.com/lumen-render/go-shading/pkg/core"
)

// Every normal distribution must satisfy ∫ D(h)·|cosθh| dh = 1; with facet
// normals drawn from that very density, E[1/PdfH] recovers the 2π solid angle
// of the hemisphere.
func checkDistributionNormalization(t *testing.T, name string, d MicroFacetDistribution) {
	t.Helper()
	random := rand.New(rand.NewSource(17))

	const samples = 1 << 20
	total := 0.0
	for i := 0; i < samples; i++ {
		h := d.SampleF(core.BsdfSample{U: random.Float64(), V: random.Float64()})
		pdf := PdfH(d, h)
		if pdf > 0 {
			total += 1 / pdf
		}
	}
	total /= samples
	if math.Abs(total-2*math.Pi) > 0.05 {
		t.Errorf("%s: sampled normal solid angle %v, want 2π", name, total)
	}
}

func TestDistributionNormalization(t *testing.T) {
	for _, roughness := range []float64{0.2, 0.5, 1.0} {
		checkDistributionNormalization(t, "ggx", NewGGX(roughness, roughness))
		checkDistributionNormalization(t, "beckmann", NewBeckmann(roughness, roughness))
		checkDistributionNormalization(t, "blinn", NewBlinn(roughness, roughness))
	}
	checkDistributionNormalization(t, "ggx_aniso", NewGGX(0.3, 0.8))
	checkDistributionNormalization(t, "clearcoat", NewClearcoatGGX(0.25))
}

func TestGGXSampleSeed(t *testing.T) {
	// roughness 0.5 maps to α = 0.25; at u = v = 0.5 the sampled half vector
	// is (sinθ·cos(π), cosθ, sinθ·sin(π)) with θ = atan(0.25)
	ggx := NewGGX(0.5, 0.5)
	h := ggx.SampleF(core.BsdfSample{U: 0.5, V: 0.5})

	theta := math.Atan(0.25)
	want := core.Vec3{
		X: math.Sin(theta) * math.Cos(math.Pi),
		Y: math.Cos(theta),
		Z: math.Sin(theta) * math.Sin(math.Pi),
	}
	if !h.Equals(want) {
		t.Errorf("sampled h = %v, want %v", h, want)
	}

	rc := testContext(3)
	mr := NewMicroFacetReflection(rc, core.WhiteSpectrum, FresnelNo{}, ggx, core.WhiteSpectrum, core.DirUp, false)
	wo := core.DirUp
	wi := core.Reflect(wo, h)
	wantPdf := PdfH(ggx, h) / (4 * wo.AbsDot(h))
	if math.Abs(mr.PDF(wo, wi)-wantPdf) > 1e-4 {
		t.Errorf("reflection pdf = %v, want %v", mr.PDF(wo, wi), wantPdf)
	}
}

func TestSmithGInRange(t *testing.T) {
	random := rand.New(rand.NewSource(5))
	ggx := NewGGX(0.4, 0.4)
	for i := 0; i < 1000; i++ {
		wo := core.UniformSampleHemisphere(random.Float64(), random.Float64())
		wi := core.UniformSampleHemisphere(random.Float64(), random.Float64())
		g := SmithG(ggx, wo, wi)
		if g < 0 || g > 1 {
			t.Fatalf("G(%v, %v) = %v out of range", wo, wi, g)
		}
	}
}

func TestMultiScatterCompensation(t *testing.T) {
	// the compensation must vanish when the single-scattering lobe already
	// keeps all energy, and stay positive where it loses some
	smooth := NewGGX(0.05, 0.05)
	rough := NewGGX(1.0, 1.0)

	if e := smooth.E(0.8); e < 0.9 {
		t.Errorf("smooth E = %v, want near one", e)
	}
	if e := rough.E(0.8); e > 0.99 {
		t.Errorf("rough E = %v, want visibly below one", e)
	}
	if eavg := rough.EAvg(); eavg >= 1 {
		t.Errorf("rough EAvg = %v, want below one", eavg)
	}

	wo := core.Vec3{X: 0.3, Y: 0.9, Z: 0.1}.Normalize()
	wi := core.Vec3{X: -0.2, Y: 0.95, Z: 0.2}.Normalize()
	ms := MicrofacetMs(wo, wi, rough, FresnelNo{})
	if ms.R < 0 || ms.G < 0 || ms.B < 0 {
		t.Errorf("compensation term %v is negative", ms)
	}
	if ms.IsBlack() {
		t.Error("rough lobe should receive a compensation term")
	}
}

func TestDiffuseAttenuationRange(t *testing.T) {
	f0 := core.NewSpectrumUniform(0.04)
	for _, roughness := range []float64{0.1, 0.5, 0.9} {
		a := DiffuseAttenuation(f0, roughness, 0.8, 0.6)
		for ch := 0; ch < 3; ch++ {
			if a.Channel(ch) < 0 || a.Channel(ch) > 1.05 {
				t.Errorf("attenuation %v out of range at roughness %v", a, roughness)
			}
		}
	}
}
