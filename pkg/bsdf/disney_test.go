package bsdf

import (
	"math"
	"testing"

	"github.com/lumen-render/go-shading/pkg/core"
	"github.com/lumen-render/go-shading/pkg/scattering"
)

func TestDisneyReducesToDiffuse(t *testing.T) {
	// metallic 0, roughness 1, specular 0.5: at normal incidence the model is
	// Disney diffuse plus a faint rough specular tail; the retro-reflection
	// term 2·(h·wo)²·roughness is scaled by Schlick weights that are zero there
	rc := testContext(11)
	d := NewDisneyBRDF(rc, DisneyParams{
		BaseColor: core.WhiteSpectrum,
		Specular:  0.5,
		Roughness: 1,
		Normal:    core.DirUp,
	}, core.WhiteSpectrum)

	f := d.F(core.DirUp, core.DirUp)

	// at normal incidence the Schlick weights vanish, taking the retro term
	// with them; what remains is Disney diffuse plus a faint specular tail
	diffuse := 1 / math.Pi
	if f.R < diffuse || f.R > diffuse+0.1 {
		t.Errorf("F = %v, want diffuse %v plus a small specular tail", f.R, diffuse)
	}
	if math.Abs(f.R-f.G) > 1e-9 || math.Abs(f.R-f.B) > 1e-9 {
		t.Errorf("white base color should shade grey, got %v", f)
	}
}

// The Disney model is explicitly exempt from strict energy conservation; the
// remaining contracts still hold.
func TestDisneyProperties(t *testing.T) {
	configs := map[string]DisneyParams{
		"diffuse": {
			BaseColor: core.NewSpectrum(0.7, 0.5, 0.3),
			Roughness: 1,
			Specular:  0.5,
			Normal:    core.DirUp,
		},
		"glossy": {
			BaseColor: core.NewSpectrum(0.7, 0.5, 0.3),
			Roughness: 0.4,
			Specular:  0.8,
			Metallic:  0.3,
			Sheen:     0.5,
			Normal:    core.DirUp,
		},
		"clearcoat": {
			BaseColor:      core.NewSpectrum(0.7, 0.5, 0.3),
			Roughness:      0.6,
			Specular:       0.5,
			Clearcoat:      1,
			ClearcoatGloss: 0.8,
			Normal:         core.DirUp,
		},
		"anisotropic": {
			BaseColor:   core.NewSpectrum(0.7, 0.5, 0.3),
			Roughness:   0.5,
			Specular:    0.5,
			Anisotropic: 0.8,
			Normal:      core.DirUp,
		},
	}

	for name, params := range configs {
		opts := checkOptions{consistency: true, normalize: true}
		checkAll(t, name, func(rc *core.RenderContext) scattering.Bxdf {
			return NewDisneyBRDF(rc, params, core.WhiteSpectrum)
		}, opts)
	}
}

func TestDisneySSSSuppressesDiffusePdf(t *testing.T) {
	rc := testContext(13)
	base := DisneyParams{
		BaseColor: core.NewSpectrum(0.8, 0.8, 0.8),
		Roughness: 1,
		Normal:    core.DirUp,
	}

	withSSS := base
	withSSS.ScatterDistance = core.NewSpectrum(0.5, 0.5, 0.5)

	plain := NewDisneyBRDF(rc, base, core.WhiteSpectrum)
	sss := NewDisneyBRDF(rc, withSSS, core.WhiteSpectrum)

	wo := core.DirUp
	wi := core.Vec3{X: 0.3, Y: 0.9, Z: 0.2}.Normalize()

	// with subsurface scattering active the diffuse reflection pdf must be
	// silenced so the integrator routes that energy through the BSSRDF
	if plain.PDF(wo, wi) <= sss.PDF(wo, wi) {
		t.Errorf("diffuse pdf not suppressed: plain %v, sss %v", plain.PDF(wo, wi), sss.PDF(wo, wi))
	}
	if !sss.F(wo, wi).IsBlack() {
		// specular tail may still contribute; the diffuse part must not
		plainDiffuse := plain.F(wo, wi)
		sssValue := sss.F(wo, wi)
		if sssValue.GetIntensity() >= plainDiffuse.GetIntensity() {
			t.Errorf("diffuse energy not rerouted: plain %v, sss %v", plainDiffuse, sssValue)
		}
	}
}

func TestDisneySamplingWeight(t *testing.T) {
	params := DisneyParams{
		BaseColor: core.NewSpectrum(0.8, 0.8, 0.8),
		Roughness: 0.5,
		Specular:  0.5,
		Normal:    core.DirUp,
	}

	if w := EvaluateSamplingWeight(params); w != 1 {
		t.Errorf("without SSS the BRDF weight must be one, got %v", w)
	}

	params.ScatterDistance = core.NewSpectrum(0.5, 0.5, 0.5)
	w := EvaluateSamplingWeight(params)
	if w <= 0 || w >= 1 {
		t.Errorf("with SSS the BRDF weight must sit strictly between zero and one, got %v", w)
	}

	params.BaseColor = core.Spectrum{}
	if w := EvaluateSamplingWeight(params); w != 1 {
		t.Errorf("black base color leaves no diffuse share, so the BRDF weight must be one, got %v", w)
	}
}

func TestDisneyThinSurfaceTransmission(t *testing.T) {
	rc := testContext(17)
	d := NewDisneyBRDF(rc, DisneyParams{
		BaseColor:   core.NewSpectrum(0.8, 0.8, 0.8),
		Roughness:   0.5,
		ThinSurface: true,
		DiffTrans:   1,
		Normal:      core.DirUp,
	}, core.WhiteSpectrum)

	wo := core.DirUp
	down := core.Vec3{X: 0.2, Y: -0.9, Z: 0.1}.Normalize()
	if d.F(wo, down).IsBlack() {
		t.Error("thin surface with full diffuse transmission must transmit")
	}
	if d.PDF(wo, down) <= 0 {
		t.Error("transmission direction must carry pdf")
	}
}

func TestClearcoatGGXShape(t *testing.T) {
	c := NewClearcoatGGX(0.25)
	up := c.D(core.DirUp)
	grazing := c.D(core.Vec3{X: math.Sin(1.2), Y: math.Cos(1.2), Z: 0})
	if up <= grazing {
		t.Errorf("clearcoat distribution should peak at the normal: %v vs %v", up, grazing)
	}
}
