package bsdf

import (
	"math"

	"github.com/lumen-render/go-shading/pkg/core"
)

// MicroFacetDistribution is a normal distribution function over microfacet
// orientations in shading coordinate. E and EAvg are the hooks the
// multi-scattering compensation uses; distributions without baked tables
// report full energy so the correction vanishes.
type MicroFacetDistribution interface {
	// D is the differential area of facets with normal h
	D(h core.Vec3) float64

	// SampleF draws a facet normal with density D(h)|cos θh|
	SampleF(bs core.BsdfSample) core.Vec3

	// G1 is the Smith shadow-masking term for one direction
	G1(v core.Vec3) float64

	// Roughness is the scalar roughness the multi-scattering tables are keyed on
	Roughness() float64

	// E is the hemispherical-directional reflectance for a Fresnel-free
	// single-scattering microfacet lobe
	E(cosTheta float64) float64

	// EAvg is the hemispherical-hemispherical reflectance
	EAvg() float64
}

// SmithG is the separable shadow-masking term G1(wo)·G1(wi)
func SmithG(d MicroFacetDistribution, wo, wi core.Vec3) float64 {
	return d.G1(wo) * d.G1(wi)
}

// PdfH is the density of SampleF for facet normal h
func PdfH(d MicroFacetDistribution, h core.Vec3) float64 {
	return d.D(h) * core.AbsCosTheta(h)
}

// UE4 style roughness conversion keeps reflections sharp at low roughness
// where the classic PBRT mapping would still blur them.
// http://graphicrants.blogspot.com/2013/08/specular-brdf-reference.html
func blinnAlpha(roughness float64) float64 {
	roughness = math.Max(0.01, roughness)
	r2 := roughness * roughness
	return r2 * r2
}

func blinnExponent(roughness float64) float64 {
	return 2/blinnAlpha(roughness) - 2
}

func squaredAlpha(roughness float64) float64 {
	return core.Sqr(math.Max(roughness, 1e-3))
}

// anisotropic sampling picks the azimuthal angle from atan(α·tan(2πv)) plus a
// quadrant offset chosen by which quarter of [0,1) v lies in.
var phiQuadrantOffset = [5]float64{0, 1, 1, 2, 2}

func anisotropicPhi(alpha, v float64) float64 {
	i := 0
	if v != 0.25 {
		i = int(v * 4)
	}
	return math.Atan(alpha*math.Tan(2*math.Pi*v)) + phiQuadrantOffset[i]*math.Pi
}

// Blinn is the Blinn-Phong normal distribution
type Blinn struct {
	expU, expV, exp, expUV float64
	alphaU2, alphaV2       float64
	roughness              float64
}

// NewBlinn creates a Blinn distribution from the two axis roughness values
func NewBlinn(roughnessU, roughnessV float64) *Blinn {
	b := &Blinn{roughness: roughnessU}
	b.expU = blinnExponent(roughnessU)
	b.expV = blinnExponent(roughnessV)
	b.expUV = math.Sqrt((b.expU + 2) * (b.expV + 2))
	b.exp = math.Sqrt((b.expU + 2) / (b.expV + 2))
	b.alphaU2 = blinnAlpha(roughnessU)
	b.alphaV2 = blinnAlpha(roughnessV)
	return b
}

func (b *Blinn) D(h core.Vec3) float64 {
	// An Anisotropic Phong BRDF Model (Ashikhmin, Shirley)
	// http://www.irisa.fr/prive/kadi/Lopez/ashikhmin00anisotropic.pdf
	noh := core.AbsCosTheta(h)
	if noh <= 0 {
		return 0
	}
	sinPhiSq := core.SinPhi2(h)
	cosPhiSq := 1 - sinPhiSq
	return b.expUV * math.Pow(noh, cosPhiSq*b.expU+sinPhiSq*b.expV) / (2 * math.Pi)
}

func (b *Blinn) SampleF(bs core.BsdfSample) core.Vec3 {
	var phi float64
	if b.expU == b.expV {
		phi = 2 * math.Pi * bs.V
	} else {
		phi = anisotropicPhi(b.exp, bs.V)
	}

	sinPhi := math.Sin(phi)
	sinPhiSq := sinPhi * sinPhi
	alpha := b.expU*(1-sinPhiSq) + b.expV*sinPhiSq
	cosTheta := math.Pow(bs.U, 1/(alpha+2))
	sinTheta := core.Ssqrt(1 - cosTheta*cosTheta)

	return core.SphericalVecSinCos(sinTheta, cosTheta, phi)
}

func (b *Blinn) G1(v core.Vec3) float64 {
	absTan := math.Abs(core.TanTheta(v))
	if math.IsInf(absTan, 0) {
		return 0
	}
	cosPhiSq := core.CosPhi2(v)
	a := 1 / (math.Sqrt(cosPhiSq*b.alphaU2+(1-cosPhiSq)*b.alphaV2) * absTan)
	if a > 1.6 || math.IsInf(a, 0) {
		return 1
	}
	return (3.535*a + 2.181*a*a) / (1 + 2.276*a + 2.577*a*a)
}

func (b *Blinn) Roughness() float64 { return b.roughness }
func (b *Blinn) E(float64) float64  { return 1 }
func (b *Blinn) EAvg() float64      { return 1 }

// Beckmann is the Beckmann-Spizzichino normal distribution
type Beckmann struct {
	alphaU, alphaV                  float64
	alphaU2, alphaV2, alphaUV, axis float64
	roughness                       float64
}

// NewBeckmann creates a Beckmann distribution from the two axis roughness values
func NewBeckmann(roughnessU, roughnessV float64) *Beckmann {
	b := &Beckmann{roughness: roughnessU}
	b.alphaU = squaredAlpha(roughnessU)
	b.alphaV = squaredAlpha(roughnessV)
	b.alphaU2 = b.alphaU * b.alphaU
	b.alphaV2 = b.alphaV * b.alphaV
	b.alphaUV = b.alphaU * b.alphaV
	b.axis = b.alphaV / b.alphaU
	return b
}

func (b *Beckmann) D(h core.Vec3) float64 {
	// Anisotropic Beckmann distribution formula, pbrt-v3 ( page 539 )
	cosThetaHSq := core.CosTheta2(h)
	if cosThetaHSq <= 0 {
		return 0
	}
	return math.Exp((core.Sqr(h.X)/b.alphaU2+core.Sqr(h.Z)/b.alphaV2)/(-cosThetaHSq)) /
		(math.Pi * b.alphaUV * core.Sqr(cosThetaHSq))
}

func (b *Beckmann) SampleF(bs core.BsdfSample) core.Vec3 {
	logSample := math.Log(bs.U)

	var theta, phi float64
	if b.alphaU == b.alphaV {
		theta = math.Atan(math.Sqrt(-b.alphaUV * logSample))
		phi = 2 * math.Pi * bs.V
	} else {
		phi = anisotropicPhi(b.axis, bs.V)
		sinPhi := math.Sin(phi)
		sinPhiSq := sinPhi * sinPhi
		theta = math.Atan(math.Sqrt(-logSample / ((1-sinPhiSq)/b.alphaU2 + sinPhiSq/b.alphaV2)))
	}

	return core.SphericalVec(theta, phi)
}

func (b *Beckmann) G1(v core.Vec3) float64 {
	absTan := math.Abs(core.TanTheta(v))
	if math.IsInf(absTan, 0) {
		return 0
	}
	cosPhiSq := core.CosPhi2(v)
	a := 1 / (math.Sqrt(cosPhiSq*b.alphaU2+(1-cosPhiSq)*b.alphaV2) * absTan)
	if a > 1.6 || math.IsInf(a, 0) {
		return 1
	}
	return (3.535*a + 2.181*a*a) / (1 + 2.276*a + 2.577*a*a)
}

func (b *Beckmann) Roughness() float64 { return b.roughness }
func (b *Beckmann) E(float64) float64  { return 1 }
func (b *Beckmann) EAvg() float64      { return 1 }

// GGX is the Trowbridge-Reitz normal distribution
type GGX struct {
	alphaU, alphaV                  float64
	alphaU2, alphaV2, alphaUV, axis float64
	roughness                       float64
}

// NewGGX creates a GGX distribution from the two axis roughness values
func NewGGX(roughnessU, roughnessV float64) *GGX {
	g := &GGX{roughness: roughnessU}
	g.alphaU = squaredAlpha(roughnessU)
	g.alphaV = squaredAlpha(roughnessV)
	g.alphaU2 = g.alphaU * g.alphaU
	g.alphaV2 = g.alphaV * g.alphaV
	g.alphaUV = g.alphaU * g.alphaV
	g.axis = g.alphaV / g.alphaU
	return g
}

func (g *GGX) D(h core.Vec3) float64 {
	// Anisotropic GGX (Trowbridge-Reitz) distribution formula, pbrt-v3 ( page 539 )
	cosThetaHSq := core.CosTheta2(h)
	if cosThetaHSq <= 0 {
		return 0
	}
	beta := cosThetaHSq + core.Sqr(h.X)/g.alphaU2 + core.Sqr(h.Z)/g.alphaV2
	return 1 / (math.Pi * g.alphaUV * beta * beta)
}

func (g *GGX) SampleF(bs core.BsdfSample) core.Vec3 {
	var theta, phi float64
	if g.alphaU == g.alphaV {
		theta = math.Atan(g.alphaU * math.Sqrt(bs.V/(1-bs.V)))
		phi = 2 * math.Pi * bs.U
	} else {
		phi = anisotropicPhi(g.axis, bs.V)
		sinPhi := math.Sin(phi)
		sinPhiSq := sinPhi * sinPhi
		cosPhiSq := 1 - sinPhiSq
		beta := 1 / (cosPhiSq/g.alphaU2 + sinPhiSq/g.alphaV2)
		theta = math.Atan(math.Sqrt(beta * bs.U / (1 - bs.U)))
	}
	return core.SphericalVec(theta, phi)
}

func (g *GGX) G1(v core.Vec3) float64 {
	tanThetaSq := core.TanTheta2(v)
	if math.IsInf(tanThetaSq, 0) {
		return 0
	}
	cosPhiSq := core.CosPhi2(v)
	alpha2 := cosPhiSq*g.alphaU2 + (1-cosPhiSq)*g.alphaV2
	return 2 / (1 + math.Sqrt(1+alpha2*tanThetaSq))
}

func (g *GGX) Roughness() float64 { return g.roughness }

// E interpolates the baked hemispherical-directional reflectance table
func (g *GGX) E(cosTheta float64) float64 {
	return msLutE(g.roughness, cosTheta)
}

// EAvg interpolates the baked hemispherical-hemispherical reflectance table
func (g *GGX) EAvg() float64 {
	return msLutEAvg(g.roughness)
}
