package bsdf

import (
	"math"

	"github.com/lumen-render/go-shading/pkg/core"
	"github.com/lumen-render/go-shading/pkg/scattering"
)

// Disney principled BSDF.
//
// Physically Based Shading at Disney
// https://disney-animation.s3.amazonaws.com/uploads/production/publication_asset/48/asset/s2012_pbs_disney_brdf_notes_v3.pdf
//
// Extending the Disney BRDF to a BSDF with Integrated Subsurface Scattering
// http://blog.selfshadow.com/publications/s2015-shading-course/burley/s2015_pbs_disney_bsdf_notes.pdf
//
// Rendering the Moana Island Scene Part 1: Implementing the Disney BSDF
// https://schuttejoe.github.io/post/disneybsdf/

// Hard coded indices of refraction on the two sides of the surface.
const (
	disneyIorIn = 1.5
	disneyIorEx = 1.0

	disneyEta    = disneyIorEx / disneyIorIn
	disneyInvEta = 1.0 / disneyEta
)

// The factor of 8 bears no physical law; scaling the specular pick
// probability up is purely a firefly suppressor for rough specular paths.
func specularPdfScale(roughness float64) float64 {
	return 8 * (1 - roughness)
}

// schlickR0FromEta derives the reflectance at normal incidence from the
// relative index of refraction.
func schlickR0FromEta(rROI float64) float64 {
	return core.Sqr((rROI - 1) / (rROI + 1))
}

// DisneyParams is the full principled parameter set; everything is in [0,1]
// unless noted.
type DisneyParams struct {
	BaseColor       core.Spectrum
	Metallic        float64
	Specular        float64
	SpecularTint    float64
	Roughness       float64
	Anisotropic     float64
	Sheen           float64
	SheenTint       float64
	Clearcoat       float64
	ClearcoatGloss  float64
	SpecTrans       float64
	ScatterDistance core.Spectrum
	Flatness        float64
	DiffTrans       float64
	ThinSurface     bool
	Normal          core.Vec3
}

// DisneyBRDF is the uber lobe evaluating the weighted sum of the principled
// model's components.
type DisneyBRDF struct {
	BaseBxdf
	p DisneyParams
}

// NewDisneyBRDF creates the lobe with the sampling weight derived from the
// evaluation weight.
func NewDisneyBRDF(rc *core.RenderContext, p DisneyParams, ew core.Spectrum) *DisneyBRDF {
	return NewDisneyBRDFWeighted(rc, p, ew, ew.GetIntensity())
}

// NewDisneyBRDFWeighted creates the lobe with an explicit sampling weight
func NewDisneyBRDFWeighted(rc *core.RenderContext, p DisneyParams, ew core.Spectrum, sw float64) *DisneyBRDF {
	return &DisneyBRDF{
		BaseBxdf: newBaseBxdfWeighted(rc, ew, sw, scattering.BxdfDiffuse|scattering.BxdfReflection, p.Normal, true),
		p:        p,
	}
}

func (d *DisneyBRDF) aspect() float64 {
	return math.Sqrt(math.Sqrt(1 - d.p.Anisotropic*0.9))
}

func (d *DisneyBRDF) tint() core.Spectrum {
	luminance := d.p.BaseColor.GetIntensity()
	if luminance > 0 {
		return d.p.BaseColor.Scale(1 / luminance)
	}
	return core.WhiteSpectrum
}

func (d *DisneyBRDF) cspec0() core.Spectrum {
	minSpecular := schlickR0FromEta(disneyIorEx / disneyIorIn)
	tinted := core.LerpSpectrum(core.WhiteSpectrum, d.tint(), d.p.SpecularTint).Scale(d.p.Specular * minSpecular)
	return core.LerpSpectrum(tinted, d.p.BaseColor, d.p.Metallic)
}

// thinTransGGX is the IOR-rescaled distribution thin surfaces refract
// through (Burley 2015, Figure 15).
func (d *DisneyBRDF) thinTransGGX() *GGX {
	rscaled := (0.65*disneyInvEta - 0.35) * d.p.Roughness
	aspect := d.aspect()
	return NewGGX(core.Sqr(rscaled)/aspect, core.Sqr(rscaled)*aspect)
}

func (d *DisneyBRDF) specGGX() *GGX {
	aspect := d.aspect()
	return NewGGX(d.p.Roughness/aspect, d.p.Roughness*aspect)
}

func (d *DisneyBRDF) clearcoatGGX() *ClearcoatGGX {
	return NewClearcoatGGX(math.Sqrt(core.Lerp(0.1, 0.001, d.p.ClearcoatGloss)))
}

func (d *DisneyBRDF) F(wo, wi core.Vec3) core.Spectrum {
	return d.f(d.toLocal(wo), d.toLocal(wi))
}

func (d *DisneyBRDF) f(swo, swi core.Vec3) core.Spectrum {
	diffuseWeight := (1 - d.p.Metallic) * (1 - d.p.SpecTrans)

	wh := swo.Add(swi)
	if wh.IsZero() {
		return core.Spectrum{}
	}
	wh = wh.Normalize()
	hoo := swo.Dot(wh)
	hoo2ByRoughness := core.Sqr(hoo) * d.p.Roughness

	var ret core.Spectrum

	evaluateReflection := d.pointingUp(swo) && d.pointingUp(swi)

	if diffuseWeight > 0 {
		noo := core.CosTheta(swo)
		noi := core.CosTheta(swi)
		clampedNoi := core.Saturate(noi)
		fo := SchlickWeight(noo)
		fi := SchlickWeight(noi)

		if d.p.ThinSurface {
			if evaluateReflection {
				if d.p.Flatness < 1 {
					// Extending the Disney BRDF to a BSDF with Integrated
					// Subsurface Scattering, eq (4)
					disneyDiffuse := d.p.BaseColor.Scale((1 - fo*0.5) * (1 - fi*0.5) / math.Pi)
					ret = ret.Add(disneyDiffuse.Scale(diffuseWeight * (1 - d.p.Flatness) * (1 - d.p.DiffTrans) * clampedNoi))
				}
				if d.p.Flatness > 0 {
					// Hanrahan-Krueger approximation of isotropic BSSRDF;
					// 1.25 roughly preserves albedo, Fss90 flattens the
					// retro-reflection by roughness.
					// https://cseweb.ucsd.edu/~ravir/6998/papers/p165-hanrahan.pdf
					fss90 := hoo2ByRoughness
					fss := core.Lerp(1, fss90, fo) * core.Lerp(1, fss90, fi)
					disneyFakeSS := d.p.BaseColor.Scale(1.25 * (fss*(1/(noo+noi)-0.5) + 0.5) / math.Pi)
					ret = ret.Add(disneyFakeSS.Scale(diffuseWeight * d.p.Flatness * (1 - d.p.DiffTrans) * clampedNoi))
				}
			}
		} else {
			if !d.p.ScatterDistance.IsBlack() {
				// diffuse energy is routed through the BSSRDF instead;
				// contributing nothing here is intentional
			} else if evaluateReflection {
				disneyDiffuse := d.p.BaseColor.Scale((1 - fo*0.5) * (1 - fi*0.5) / math.Pi)
				ret = ret.Add(disneyDiffuse.Scale(diffuseWeight * clampedNoi))
			}
		}

		if evaluateReflection {
			// Retro-reflection, eq (4) of the 2015 course notes
			rr := 2 * hoo2ByRoughness
			frr := d.p.BaseColor.Scale((rr * (fo + fi + fo*fi*(rr-1))) / math.Pi)
			ret = ret.Add(frr.Scale(diffuseWeight * clampedNoi))

			// The Walter dielectric loses energy by ignoring microfacet
			// inter-reflection; the sheen term approximately compensates.
			if d.p.Sheen > 0 {
				csheen := core.LerpSpectrum(core.WhiteSpectrum, d.tint(), d.p.SheenTint)
				fh := SchlickWeight(hoo)
				fsheen := csheen.Scale(fh * d.p.Sheen)
				ret = ret.Add(fsheen.Scale(diffuseWeight * clampedNoi))
			}
		}
	}

	// Specular reflection
	cspec0 := d.cspec0()
	if !cspec0.IsBlack() && evaluateReflection {
		mf := NewMicroFacetReflection(d.rc, core.WhiteSpectrum, NewFresnelSchlick(cspec0), d.specGGX(), core.WhiteSpectrum, core.DirUp, false)
		ret = ret.Add(mf.f(swo, swi))
	}

	// Clearcoat on top of everything below
	if d.p.Clearcoat > 0 && evaluateReflection {
		mfClearcoat := NewMicroFacetReflection(d.rc, core.WhiteSpectrum, NewFresnelSchlickScalar(0.04), d.clearcoatGGX(), core.WhiteSpectrum, core.DirUp, false)
		ret = ret.Add(mfClearcoat.f(swo, swi).Scale(d.p.Clearcoat))
	}

	// Specular transmission
	if d.p.SpecTrans > 0 {
		if d.p.ThinSurface {
			mr := NewMicroFacetRefraction(d.rc, d.p.BaseColor.Sqrt(), d.thinTransGGX(), disneyIorEx, disneyIorIn, core.WhiteSpectrum, core.DirUp)
			ret = ret.Add(mr.f(swo, swi).Scale(d.p.SpecTrans * (1 - d.p.Metallic)))
		} else {
			mr := NewMicroFacetRefraction(d.rc, d.p.BaseColor, d.specGGX(), disneyIorEx, disneyIorIn, core.WhiteSpectrum, core.DirUp)
			ret = ret.Add(mr.f(swo, swi).Scale(d.p.SpecTrans * (1 - d.p.Metallic)))
		}
	}

	// Diffuse transmission
	if d.p.ThinSurface && d.p.DiffTrans > 0 && diffuseWeight > 0 {
		lt := NewLambertTransmission(d.rc, d.p.BaseColor, core.WhiteSpectrum, core.DirUp)
		ret = ret.Add(lt.f(swo, swi).Scale(d.p.DiffTrans * diffuseWeight))
	}

	return ret
}

// samplingWeights returns the per-lobe pick weights in sampling order:
// clearcoat, specular reflection, specular transmission, diffuse reflection,
// diffuse transmission.
func (d *DisneyBRDF) samplingWeights() (cc, sr, st, dr, dt float64) {
	hasSSS := !d.p.ScatterDistance.IsBlack()
	baseColorIntensity := d.p.BaseColor.GetIntensity()

	cc = d.p.Clearcoat * 0.04
	sr = d.cspec0().GetIntensity() * specularPdfScale(d.p.Roughness)
	st = baseColorIntensity * (1 - d.p.Metallic) * d.p.SpecTrans
	if !hasSSS {
		dr = baseColorIntensity * (1 - d.p.Metallic) * (1 - d.p.SpecTrans)
		if d.p.ThinSurface {
			dr *= 1 - d.p.DiffTrans
		}
	}
	if d.p.ThinSurface {
		dt = baseColorIntensity * (1 - d.p.Metallic) * (1 - d.p.SpecTrans) * d.p.DiffTrans
	}
	return
}

func (d *DisneyBRDF) SampleF(wo core.Vec3, bs core.BsdfSample) (core.Spectrum, core.Vec3, float64) {
	swo := d.toLocal(wo)

	cc, sr, st, dr, dt := d.samplingWeights()
	total := cc + sr + st + dr + dt
	if total <= 0 {
		return core.Spectrum{}, core.Vec3{}, 0
	}

	invTotal := 1 / total
	ccW := cc * invTotal
	srW := sr*invTotal + ccW
	stW := st*invTotal + srW
	drW := dr*invTotal + stW

	var swi core.Vec3
	r := d.rc.Rng.Canonical()
	switch {
	case r <= ccW:
		wh := d.clearcoatGGX().SampleF(core.NewBsdfSample(d.rc))
		swi = wh.Multiply(2 * swo.Dot(wh)).Subtract(swo)
	case r <= srW:
		wh := d.specGGX().SampleF(core.NewBsdfSample(d.rc))
		swi = wh.Multiply(2 * swo.Dot(wh)).Subtract(swo)
	case r <= stW:
		var dist *GGX
		if d.p.ThinSurface {
			dist = d.thinTransGGX()
		} else {
			dist = d.specGGX()
		}
		mr := NewMicroFacetRefraction(d.rc, core.WhiteSpectrum, dist, disneyIorEx, disneyIorIn, core.WhiteSpectrum, core.DirUp)
		_, swi, _ = mr.SampleF(swo, bs)
	case r <= drW:
		// only the direction matters here, the albedo cancels out
		swi = core.CosSampleHemisphere(d.rc.Rng.Canonical(), d.rc.Rng.Canonical())
	default:
		lt := NewLambertTransmission(d.rc, d.p.BaseColor, core.WhiteSpectrum, core.DirUp)
		_, swi, _ = lt.SampleF(swo, bs)
	}

	pdf := d.pdf(swo, swi)
	return d.f(swo, swi), d.fromLocal(swi), pdf
}

func (d *DisneyBRDF) PDF(wo, wi core.Vec3) float64 {
	return d.pdf(d.toLocal(wo), d.toLocal(wi))
}

func (d *DisneyBRDF) pdf(swo, swi core.Vec3) float64 {
	cc, sr, st, dr, dt := d.samplingWeights()
	total := cc + sr + st + dr + dt
	if total <= 0 {
		return 0
	}

	totalPdf := 0.0
	wh := swi.Add(swo).Normalize()
	if cc > 0 {
		cggx := d.clearcoatGGX()
		totalPdf += cc * PdfH(cggx, wh) / (4 * swo.AbsDot(wh))
	}
	if sr > 0 {
		totalPdf += sr * PdfH(d.specGGX(), wh) / (4 * swo.AbsDot(wh))
	}
	if st > 0 {
		var dist *GGX
		if d.p.ThinSurface {
			dist = d.thinTransGGX()
		} else {
			dist = d.specGGX()
		}
		mr := NewMicroFacetRefraction(d.rc, core.WhiteSpectrum, dist, disneyIorEx, disneyIorIn, core.WhiteSpectrum, core.DirUp)
		totalPdf += st * mr.pdf(swo, swi)
	}
	if dr > 0 {
		// dr is zero whenever subsurface scattering is active, so no diffuse
		// pdf leaks into the path the BSSRDF owns; the cosine sampler never
		// produces directions under the surface, hence the clamp
		totalPdf += dr * math.Max(0, core.CosHemispherePdf(swi))
	}
	if dt > 0 {
		lt := NewLambertTransmission(d.rc, d.p.BaseColor, core.WhiteSpectrum, core.DirUp)
		totalPdf += dt * lt.pdf(swo, swi)
	}

	return totalPdf / total
}

// EvaluateSamplingWeight is the probability that the scattering event should
// route a sample to the BRDF rather than the attached BSSRDF: one minus the
// share the suppressed diffuse reflection would have had.
func EvaluateSamplingWeight(p DisneyParams) float64 {
	hasSSS := !p.ScatterDistance.IsBlack()
	if !hasSSS {
		return 1
	}

	d := DisneyBRDF{p: p}
	luminance := p.BaseColor.GetIntensity()

	cc := p.Clearcoat * 0.04
	sr := d.cspec0().GetIntensity() * specularPdfScale(p.Roughness)
	st := luminance * (1 - p.Metallic) * p.SpecTrans
	dr := luminance * (1 - p.Metallic) * (1 - p.SpecTrans)
	if p.ThinSurface {
		dr *= 1 - p.DiffTrans
	}
	dt := 0.0
	if p.ThinSurface {
		dt = luminance * (1 - p.Metallic) * (1 - p.SpecTrans) * p.DiffTrans
	}

	total := cc + sr + st + dr + dt
	if total == 0 {
		return 0
	}
	return 1 - dr/total
}

// ClearcoatGGX is the fixed-shape clearcoat distribution of the principled
// model: the original Disney GTR1 normalisation with a constant 0.25 alpha in
// the masking term.
type ClearcoatGGX struct {
	GGX
}

// NewClearcoatGGX creates the clearcoat distribution
func NewClearcoatGGX(roughness float64) *ClearcoatGGX {
	return &ClearcoatGGX{GGX: *NewGGX(roughness, roughness)}
}

func (c *ClearcoatGGX) D(h core.Vec3) float64 {
	// D(h) = ( alpha^2 - 1 ) / ( PI * ln(alpha^2) * ( 1 + ( alpha^2 - 1 ) * cos(θ)^2 ) )
	cos := core.CosTheta(h)
	return (c.alphaU2 - 1) / (math.Pi * math.Log(c.alphaU2) * (1 + (c.alphaU2-1)*core.Sqr(cos)))
}

func (c *ClearcoatGGX) SampleF(bs core.BsdfSample) core.Vec3 {
	phi := 2 * math.Pi * bs.U
	var theta float64
	if c.alphaU2 == 1 {
		theta = math.Acos(math.Sqrt(bs.V))
	} else {
		theta = math.Acos(math.Sqrt((math.Exp(math.Log(c.alphaU2)*bs.V) - 1) / (c.alphaU2 - 1)))
	}
	return core.SphericalVec(theta, phi)
}

func (c *ClearcoatGGX) G1(v core.Vec3) float64 {
	if core.AbsCosTheta(v) == 1 {
		return 0
	}
	const alpha = 0.25
	return 1 / (1 + math.Sqrt(1+alpha*alpha*core.TanTheta2(v)))
}
