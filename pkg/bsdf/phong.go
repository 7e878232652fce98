package bsdf

import (
	"math"

	"github.com/lumen-render/go-shading/pkg/core"
	"github.com/lumen-render/go-shading/pkg/scattering"
)

// Phong is the energy-conserving modified Phong model.
//
// 'Using the modified Phong reflection model for physically based rendering'
// http://mathinfo.univ-reims.fr/IMG/pdf/Using_the_modified_Phong_reflectance_model_for_Physically_based_rendering_-_Lafortune.pdf
//
// The sum of diffuse and specular reflectance has to stay below one for the
// model to conserve energy; the constructor enforces it.
type Phong struct {
	BaseBxdf
	d, s      core.Spectrum
	power     float64
	diffRatio float64
}

// NewPhong creates a modified Phong lobe. It panics when diffuse and specular
// reflectance add beyond one in any channel, which would break conservation.
func NewPhong(rc *core.RenderContext, diffuse, specular core.Spectrum, specularPower float64, weight core.Spectrum, n core.Vec3, doubleSided bool) *Phong {
	combined := diffuse.Add(specular)
	if combined.R > 1 || combined.G > 1 || combined.B > 1 {
		panic("phong: diffuse + specular reflectance exceeds one")
	}
	return &Phong{
		BaseBxdf:  newBaseBxdf(rc, weight, scattering.BxdfDiffuse|scattering.BxdfReflection, n, doubleSided),
		d:         diffuse,
		s:         specular,
		power:     specularPower,
		diffRatio: diffuse.GetIntensity() / (diffuse.GetIntensity() + specular.GetIntensity()),
	}
}

func (p *Phong) F(wo, wi core.Vec3) core.Spectrum {
	return p.f(p.toLocal(wo), p.toLocal(wi))
}

func (p *Phong) f(swo, swi core.Vec3) core.Spectrum {
	if !p.sameGeomHemisphere(swo, swi) {
		return core.Spectrum{}
	}
	if !p.doubleSided && !p.pointingUp(swo) {
		return core.Spectrum{}
	}

	// Diffuse  : f_diffuse( wo , wi ) = D / PI
	// Specular : f_specular( wo , wi ) = ( power + 2.0 ) * S * ( ( reflect( wo ) , wi ) ^ power ) / ( 2 * PI )
	ret := p.d.Scale(1 / math.Pi)
	if !p.s.IsBlack() {
		alpha := swi.SatDot(core.ReflectLocal(swo))
		if alpha > 0 {
			ret = ret.Add(p.s.Scale((p.power + 2) * math.Pow(alpha, p.power) / (2 * math.Pi)))
		}
	}
	return ret.Scale(core.AbsCosTheta(swi))
}

func (p *Phong) SampleF(wo core.Vec3, bs core.BsdfSample) (core.Spectrum, core.Vec3, float64) {
	swo := p.toLocal(wo)
	var swi core.Vec3
	if bs.U < p.diffRatio || p.diffRatio == 1 {
		swi = core.CosSampleHemisphere(bs.U/p.diffRatio, bs.V)
	} else {
		// importance sample the specular lobe with pdf proportional to
		// cos^(power+1) around the mirror direction
		// https://agraphicsguy.wordpress.com/2015/11/01/sampling-microfacet-brdf/
		cosTheta := math.Pow(bs.V, 1/(p.power+2))
		sinTheta := math.Sqrt(1 - cosTheta*cosTheta)
		phi := 2 * math.Pi * (bs.U - p.diffRatio) / (1 - p.diffRatio)
		dir := core.SphericalVecSinCos(sinTheta, cosTheta, phi)

		r := core.ReflectLocal(swo)
		t0, t1 := core.CoordinateSystem(r)
		swi = core.Vec3{
			X: dir.X*t0.X + dir.Y*r.X + dir.Z*t1.X,
			Y: dir.X*t0.Y + dir.Y*r.Y + dir.Z*t1.Y,
			Z: dir.X*t0.Z + dir.Y*r.Z + dir.Z*t1.Z,
		}
	}

	pdf := p.pdf(swo, swi)
	return p.f(swo, swi), p.fromLocal(swi), pdf
}

func (p *Phong) PDF(wo, wi core.Vec3) float64 {
	return p.pdf(p.toLocal(wo), p.toLocal(wi))
}

func (p *Phong) pdf(swo, swi core.Vec3) float64 {
	if !p.sameGeomHemisphere(swo, swi) {
		return 0
	}
	if !p.doubleSided && !p.pointingUp(swo) {
		return 0
	}

	cosTheta := core.ReflectLocal(swo).SatDot(swi)
	pdfSpec := math.Pow(cosTheta, p.power+1) * (p.power + 2) / (2 * math.Pi)
	pdfDiff := core.CosHemispherePdf(swi)
	return core.Lerp(pdfSpec, pdfDiff, p.diffRatio)
}
