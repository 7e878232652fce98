package bsdf

import (
	"math"
	"sync"

	"github.com/lumen-render/go-shading/pkg/core"
	"github.com/lumen-render/go-shading/pkg/scattering"
)

// Fabric is the velvet-like cloth model built around the |h.x|^N distribution.
//
// Physically Based Shading at DreamWorks Animation
// https://blog.selfshadow.com/publications/s2017-shading-course/dreamworks/s2017_pbs_dreamworks_notes.pdf
type Fabric struct {
	BaseBxdf
	baseColor core.Spectrum
	roughness float64
}

// The normalization of the fabric distribution has no closed form; it is
// tabulated at 256 evenly spaced exponents over [0, 30], baked once on first
// use; lookups truncate to the grid point at or below the exponent.
const fabricLutSize = 256

var (
	fabricLutOnce sync.Once
	fabricLut     [fabricLutSize]float64
)

func bakeFabricLut() {
	// Io(N) = ∫ (1-|h.x|)^N cosθi dωi over the hemisphere for wo at normal
	// incidence, evaluated with a fixed spherical quadrature.
	const thetaSteps, phiSteps = 128, 256
	for i := 0; i < fabricLutSize; i++ {
		n := float64(i) / 255.0 * 30.0
		sum := 0.0
		for ti := 0; ti < thetaSteps; ti++ {
			theta := (float64(ti) + 0.5) / thetaSteps * math.Pi / 2
			sinT, cosT := math.Sincos(theta)
			for pi := 0; pi < phiSteps; pi++ {
				phi := (float64(pi) + 0.5) / phiSteps * 2 * math.Pi
				wi := core.SphericalVecSinCos(sinT, cosT, phi)
				h := wi.Add(core.DirUp).Normalize()
				sum += math.Pow(1-math.Abs(h.X), n) * cosT * sinT
			}
		}
		fabricLut[i] = sum * (math.Pi / 2 / thetaSteps) * (2 * math.Pi / phiSteps)
	}
}

func fabricIo(n float64) float64 {
	fabricLutOnce.Do(bakeFabricLut)
	i := int(n / 30.0 * 255.0)
	if i > fabricLutSize-1 {
		i = fabricLutSize - 1
	}
	return fabricLut[i]
}

// fabricExponent maps roughness onto the distribution exponent. The quantised
// form has to match the baked table exactly.
func fabricExponent(roughness float64) float64 {
	return math.Ceil(1 + 29*core.Sqr(1-roughness))
}

// NewFabric creates a fabric lobe
func NewFabric(rc *core.RenderContext, baseColor core.Spectrum, roughness float64, weight core.Spectrum, n core.Vec3, doubleSided bool) *Fabric {
	return &Fabric{
		BaseBxdf:  newBaseBxdf(rc, weight, scattering.BxdfDiffuse|scattering.BxdfReflection, n, doubleSided),
		baseColor: baseColor,
		roughness: roughness,
	}
}

func (fb *Fabric) F(wo, wi core.Vec3) core.Spectrum {
	return fb.f(fb.toLocal(wo), fb.toLocal(wi))
}

func (fb *Fabric) f(swo, swi core.Vec3) core.Spectrum {
	if !fb.sameGeomHemisphere(swo, swi) {
		return core.Spectrum{}
	}
	if !fb.doubleSided && !fb.pointingUp(swo) {
		return core.Spectrum{}
	}

	n := fabricExponent(fb.roughness)
	io := fabricIo(n)

	h := swo.Add(swi).Normalize()
	return fb.baseColor.Scale(math.Pow(1-math.Abs(h.X), n) * core.AbsCosTheta(swi) / io)
}

func (fb *Fabric) SampleF(wo core.Vec3, bs core.BsdfSample) (core.Spectrum, core.Vec3, float64) {
	swo := fb.toLocal(wo)
	if !fb.doubleSided && !fb.pointingUp(swo) {
		return core.Spectrum{}, core.Vec3{}, 0
	}

	n := fabricExponent(fb.roughness)
	sign := -1.0
	if fb.rc.Rng.Canonical() > 0.5 {
		sign = 1.0
	}
	sinThetaH := sign * core.Saturate(1-math.Pow(fb.rc.Rng.Canonical(), 1/(n+1)))
	cosThetaH := math.Sqrt(core.Saturate(1 - core.Sqr(sinThetaH)))
	phiH := math.Pi * fb.rc.Rng.Canonical()

	wh := core.Vec3{X: sinThetaH, Y: cosThetaH * math.Sin(phiH), Z: cosThetaH * math.Cos(phiH)}
	swi := core.Reflect(swo, wh)

	pdf := fb.pdf(swo, swi)
	return fb.f(swo, swi), fb.fromLocal(swi), pdf
}

func (fb *Fabric) PDF(wo, wi core.Vec3) float64 {
	return fb.pdf(fb.toLocal(wo), fb.toLocal(wi))
}

func (fb *Fabric) pdf(swo, swi core.Vec3) float64 {
	if !fb.sameGeomHemisphere(swo, swi) {
		return 0
	}
	if !fb.doubleSided && !fb.pointingUp(swo) {
		return 0
	}

	n := fabricExponent(fb.roughness)
	wh := swo.Add(swi).Normalize()
	pdfH := (n + 1) * math.Pow(1-math.Abs(wh.X), n) / (2 * math.Pi)
	return pdfH / (4 * swo.Dot(wh))
}
