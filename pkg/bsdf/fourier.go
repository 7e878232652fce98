package bsdf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/lumen-render/go-shading/pkg/core"
	"github.com/lumen-render/go-shading/pkg/scattering"
)

// Fourier BSDFs store measured materials as Fourier series over the azimuthal
// angle on a grid of zenith cosines. Far more compact than MERL tables, and
// unlike them they come with a usable importance sampling scheme.

var fourierHeader = []byte("SCATFUN\x01")

// FourierBxdfData is one loaded Fourier BSDF table, immutable after load.
type FourierBxdfData struct {
	eta       float64
	nMax      int
	nChannels int
	nMu       int

	mu      []float64
	m       []int32
	aOffset []int32
	a       []float64
	a0      []float64
	cdf     []float64
	recip   []float64
}

// LoadFourier reads a Fourier BSDF file from disk. The format is strictly
// little-endian; any header mismatch rejects the file.
func LoadFourier(filename string) (*FourierBxdfData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open fourier BSDF file: %w", err)
	}
	defer file.Close()

	f := &FourierBxdfData{}
	if err := f.read(file); err != nil {
		return nil, fmt.Errorf("failed to read fourier BSDF data: %w", err)
	}
	return f, nil
}

func (t *FourierBxdfData) read(r io.Reader) error {
	header := make([]byte, len(fourierHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return err
	}
	if !bytes.Equal(header, fourierHeader) {
		return fmt.Errorf("bad magic %q", header)
	}

	var h struct {
		Flags     int32
		NMu       int32
		Coeff     int32
		NMax      int32
		NChannels int32
		Unused0   [4]int32
		Eta       float32
		Unused1   [4]int32
	}
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return err
	}
	if h.Flags != 1 {
		return fmt.Errorf("unsupported flags %d", h.Flags)
	}
	if h.NMu <= 1 {
		return fmt.Errorf("invalid mu grid size %d", h.NMu)
	}
	if h.Coeff <= 0 {
		return fmt.Errorf("invalid coefficient count %d", h.Coeff)
	}
	if h.NMax <= 0 {
		return fmt.Errorf("invalid max order %d", h.NMax)
	}
	if h.NChannels != 1 && h.NChannels != 3 {
		return fmt.Errorf("invalid channel count %d", h.NChannels)
	}

	t.eta = float64(h.Eta)
	t.nMu = int(h.NMu)
	t.nMax = int(h.NMax)
	t.nChannels = int(h.NChannels)

	sqMu := t.nMu * t.nMu
	mu := make([]float32, t.nMu)
	cdf := make([]float32, sqMu)
	offsetAndLength := make([]int32, sqMu*2)
	a := make([]float32, h.Coeff)

	if err := binary.Read(r, binary.LittleEndian, mu); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, cdf); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, offsetAndLength); err != nil {
		return err
	}
	if err := binary.Read(r, binary.LittleEndian, a); err != nil {
		return err
	}

	t.mu = toFloat64(mu)
	t.cdf = toFloat64(cdf)
	t.a = toFloat64(a)
	t.m = make([]int32, sqMu)
	t.aOffset = make([]int32, sqMu)
	t.a0 = make([]float64, sqMu)
	for i := 0; i < sqMu; i++ {
		t.aOffset[i] = offsetAndLength[2*i]
		t.m[i] = offsetAndLength[2*i+1]
		if t.m[i] > 0 {
			t.a0[i] = t.a[offsetAndLength[2*i]]
		}
	}

	t.recip = make([]float64, t.nMu)
	for i := 1; i < t.nMu; i++ {
		t.recip[i] = 1 / float64(i)
	}

	return nil
}

func toFloat64(in []float32) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

// IsValid reports whether a table has been loaded
func (t *FourierBxdfData) IsValid() bool {
	return t != nil && t.nMu > 1
}

func (t *FourierBxdfData) getAk(offsetI, offsetO int) (int, []float64) {
	offset := offsetO*t.nMu + offsetI
	m := int(t.m[offset])
	return m, t.a[t.aOffset[offset]:]
}

// F evaluates the table, without the cosine factor
func (t *FourierBxdfData) F(wo, wi core.Vec3, rc *core.RenderContext) core.Spectrum {
	muI := core.CosTheta(wi.Negate())
	muO := core.CosTheta(wo)
	dPhi := core.CosDPhi(wo, wi.Negate())

	var offsetI, offsetO int
	var weightsI, weightsO [4]float64
	if !t.getCatmullRomWeights(muI, &offsetI, &weightsI) ||
		!t.getCatmullRomWeights(muO, &offsetO, &weightsO) {
		return core.Spectrum{}
	}

	ak := rc.Arena.AllocFloats(t.nMax * t.nChannels)
	nMax := t.blendCoefficients(ak, t.nChannels, offsetI, offsetO, &weightsI, &weightsO)

	y := math.Max(0, fourierEval(ak, nMax, dPhi))
	scale := 0.0
	if muI != 0 {
		scale = 1 / math.Abs(muI)
	}
	if muI*muO > 0 {
		eta := t.eta
		if muI > 0 {
			eta = 1 / t.eta
		}
		scale *= eta * eta
	}

	if t.nChannels == 1 {
		return core.NewSpectrumUniform(scale * y)
	}

	r := fourierEval(ak[t.nMax:], nMax, dPhi)
	b := fourierEval(ak[2*t.nMax:], nMax, dPhi)
	g := 1.39829*y - 0.100913*b - 0.297375*r
	return core.Spectrum{R: r * scale, G: g * scale, B: b * scale}.Clamp(0, math.MaxFloat64)
}

// SampleF importance samples the incident direction: a 2D Catmull-Rom sample
// over the mu grid followed by the Fourier angle sampler.
func (t *FourierBxdfData) SampleF(wo core.Vec3, bs core.BsdfSample, rc *core.RenderContext) (core.Spectrum, core.Vec3, float64) {
	muO := core.CosTheta(wo)
	var pdfMu float64
	muI := t.sampleCatmullRom2D(t.nMu, t.nMu, t.mu, t.mu, t.a0, t.cdf, muO, bs.U, nil, &pdfMu)

	var offsetI, offsetO int
	var weightsI, weightsO [4]float64
	if !t.getCatmullRomWeights(muI, &offsetI, &weightsI) ||
		!t.getCatmullRomWeights(muO, &offsetO, &weightsO) {
		return core.Spectrum{}, core.Vec3{}, 0
	}

	ak := rc.Arena.AllocFloats(t.nMax * t.nChannels)
	nMax := t.blendCoefficients(ak, t.nChannels, offsetI, offsetO, &weightsI, &weightsO)

	var phi, pdfPhi float64
	y := t.sampleFourier(ak, t.recip, nMax, bs.V, &pdfPhi, &phi)
	pdf := math.Max(0, pdfPhi*pdfMu)

	sin2ThetaI := math.Max(0, 1-muI*muI)
	norm := math.Sqrt(sin2ThetaI / core.SinTheta2(wo))
	if math.IsInf(norm, 0) {
		norm = 0
	}
	sinPhi, cosPhi := math.Sincos(phi)
	wi := core.Vec3{
		X: norm * (cosPhi*wo.X - sinPhi*wo.Z),
		Y: muI,
		Z: norm * (sinPhi*wo.X + cosPhi*wo.Z),
	}.Negate().Normalize()

	scale := 0.0
	if muI != 0 {
		scale = 1 / math.Abs(muI)
	}
	if muI*muO > 0 {
		eta := t.eta
		if muI > 0 {
			eta = 1 / t.eta
		}
		scale *= eta * eta
	}

	if t.nChannels == 1 {
		return core.NewSpectrumUniform(scale * y), wi, pdf
	}

	r := fourierEval(ak[t.nMax:], nMax, cosPhi)
	b := fourierEval(ak[2*t.nMax:], nMax, cosPhi)
	g := 1.39829*y - 0.100913*b - 0.297375*r
	ret := core.Spectrum{R: r * scale, G: g * scale, B: b * scale}.Clamp(0, math.MaxFloat64)
	return ret, wi, pdf
}

// PDF returns the density SampleF draws from
func (t *FourierBxdfData) PDF(wo, wi core.Vec3, rc *core.RenderContext) float64 {
	muI := core.CosTheta(wi.Negate())
	muO := core.CosTheta(wo)
	cosPhi := core.CosDPhi(wi.Negate(), wo)

	var offsetI, offsetO int
	var weightsI, weightsO [4]float64
	if !t.getCatmullRomWeights(muI, &offsetI, &weightsI) ||
		!t.getCatmullRomWeights(muO, &offsetO, &weightsO) {
		return 0
	}

	ak := rc.Arena.AllocFloats(t.nMax)
	nMax := t.blendCoefficients(ak, 1, offsetI, offsetO, &weightsI, &weightsO)

	rho := 0.0
	for o := 0; o < 4; o++ {
		if weightsO[o] == 0 {
			continue
		}
		rho += weightsO[o] * t.cdf[(offsetO+o)*t.nMu+t.nMu-1] * 2 * math.Pi
	}

	y := fourierEval(ak, nMax, cosPhi)
	if rho > 0 && y > 0 {
		return y / rho
	}
	return 0
}

// findInterval locates the grid cell wrapping the target by binary search
func findInterval(cnt int, pred func(int) bool) int {
	l, r := 0, cnt-1
	for l < r {
		m := l + (r-l)>>1
		if pred(m) {
			l = m + 1
		} else {
			r = m
		}
	}
	return l - 1
}

func (t *FourierBxdfData) getCatmullRomWeights(x float64, offset *int, weights *[4]float64) bool {
	if !(x >= t.mu[0] && x <= t.mu[t.nMu-1]) {
		return false
	}

	*offset = findInterval(t.nMu, func(i int) bool { return t.mu[i] <= x }) - 1
	o := *offset

	x1, x2 := t.mu[o+1], t.mu[o+2]
	tt := (x - x1) / (x2 - x1)
	t2 := tt * tt
	t3 := t2 * tt

	weights[0], weights[3] = 0, 0
	weights[1] = 2*t3 - 3*t2 + 1
	weights[2] = -2*t3 + 3*t2
	if o >= 0 {
		w0 := (t3 - 2*t2 + tt) * (x2 - x1) / (x2 - t.mu[o])
		weights[0] = -w0
		weights[2] += w0
	} else {
		w0 := t3 - 2*t2 + tt
		weights[1] -= w0
		weights[2] += w0
	}
	if o < t.nMu-3 {
		w3 := (t3 - t2) * (x2 - x1) / (t.mu[o+3] - x1)
		weights[1] -= w3
		weights[3] = w3
	} else {
		w3 := t3 - t2
		weights[1] -= w3
		weights[2] += w3
	}

	return true
}

// sampleCatmullRom2D importance samples the spline interpolated over alpha
func (t *FourierBxdfData) sampleCatmullRom2D(size1, size2 int, nodes1, nodes2, values, cdf []float64, alpha, u float64, fval, pdf *float64) float64 {
	var offset int
	var weights [4]float64
	if !t.getCatmullRomWeights(alpha, &offset, &weights) {
		return 0
	}

	interpolate := func(array []float64, idx int) float64 {
		value := 0.0
		for i := 0; i < 4; i++ {
			if weights[i] != 0 {
				value += array[(i+offset)*size2+idx] * weights[i]
			}
		}
		return value
	}

	maximum := interpolate(cdf, size2-1)
	u *= maximum
	idx := findInterval(size2, func(i int) bool { return interpolate(cdf, i) <= u })

	f0 := interpolate(values, idx)
	f1 := interpolate(values, idx+1)
	x0, x1 := nodes2[idx], nodes2[idx+1]
	w := x1 - x0
	var d0, d1 float64

	u = (u - interpolate(cdf, idx)) / w

	if idx > 0 {
		d0 = w * (f1 - interpolate(values, idx-1)) / (x1 - nodes2[idx-1])
	} else {
		d0 = f1 - f0
	}
	if idx < size2-2 {
		d1 = w * (interpolate(values, idx+2) - f0) / (nodes2[idx+2] - x0)
	} else {
		d1 = f1 - f0
	}

	// first guess assuming a linear interpolant, then refine with a guarded
	// Newton iteration
	var tGuess float64
	if f0 != f1 {
		tGuess = (f0 - math.Sqrt(math.Max(0, f0*f0+2*u*(f1-f0)))) / (f0 - f1)
	} else {
		tGuess = u / f0
	}
	a, b := 0.0, 1.0
	var fHat, FHat float64
	for {
		if !(tGuess >= a && tGuess <= b) {
			tGuess = (a + b) * 0.5
		}

		FHat = tGuess * (f0 + tGuess*(0.5*d0+tGuess*((1.0/3.0)*(-2*d0-d1)+f1-f0+tGuess*(0.25*(d0+d1)+0.5*(f0-f1)))))
		fHat = f0 + tGuess*(d0+tGuess*(-2*d0-d1+3*(f1-f0)+tGuess*(d0+d1+2*(f0-f1))))

		if math.Abs(FHat-u) < 1e-6 || b-a < 1e-6 {
			break
		}

		if FHat-u < 0 {
			a = tGuess
		} else {
			b = tGuess
		}

		tGuess -= (FHat - u) / fHat
	}

	if fval != nil {
		*fval = fHat
	}
	if pdf != nil {
		*pdf = fHat / maximum
	}
	return x0 + w*tGuess
}

// fourierEval sums the cosine series with the Chebyshev recurrence
func fourierEval(ak []float64, m int, cosPhi float64) float64 {
	value := 0.0
	cosKMinusOnePhi := cosPhi
	cosKPhi := 1.0
	for i := 0; i < m; i++ {
		value += cosKPhi * ak[i]
		cosKPlusPhi := 2*cosPhi*cosKPhi - cosKMinusOnePhi
		cosKMinusOnePhi = cosKPhi
		cosKPhi = cosKPlusPhi
	}
	return value
}

// sampleFourier inverts the series CDF over phi by bisection stabilised
// Newton iteration.
// Bisection method :   https://en.wikipedia.org/wiki/Bisection_method
// Newton method :      https://en.wikipedia.org/wiki/Newton%27s_method
func (t *FourierBxdfData) sampleFourier(ak, recip []float64, m int, u float64, pdf, phiPtr *float64) float64 {
	flip := u >= 0.5
	if flip {
		u = 2 * (1 - u)
	} else {
		u *= 2
	}

	l, r := 0.0, math.Pi
	phi := 0.5 * math.Pi
	var bigF, f float64
	for {
		cosPhi := math.Cos(phi)
		sinPhi := math.Sqrt(math.Max(0, 1-cosPhi*cosPhi))
		cosPrevPhi, cosCurPhi := cosPhi, 1.0
		sinPrevPhi, sinCurPhi := -sinPhi, 0.0

		bigF = ak[0] * phi
		f = ak[0]
		for i := 1; i < m; i++ {
			cosNextPhi := 2*cosCurPhi*cosPhi - cosPrevPhi
			sinNextPhi := 2*sinCurPhi*cosPhi - sinPrevPhi
			cosPrevPhi, cosCurPhi = cosCurPhi, cosNextPhi
			sinPrevPhi, sinCurPhi = sinCurPhi, sinNextPhi

			bigF += ak[i] * sinCurPhi * recip[i]
			f += ak[i] * cosCurPhi
		}
		bigF -= u * ak[0] * math.Pi

		if bigF > 0 {
			r = phi
		} else {
			l = phi
		}

		if math.Abs(bigF) < 1e-6 || r-l < 1e-6 {
			break
		}

		phi -= bigF / f

		if !(phi > l && phi < r) {
			phi = (l + r) * 0.5
		}
	}

	if flip {
		phi = 2*math.Pi - phi
	}
	if pdf != nil {
		*pdf = f / (2 * math.Pi * ak[0])
	}
	*phiPtr = phi

	return f
}

// blendCoefficients mixes the sixteen neighbouring coefficient sets by the
// Catmull-Rom weights
func (t *FourierBxdfData) blendCoefficients(ak []float64, channel, offsetI, offsetO int, weightsI, weightsO *[4]float64) int {
	nMax := 0
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			w := weightsI[j] * weightsO[i]
			if w == 0 {
				continue
			}
			m, a := t.getAk(offsetI+j, offsetO+i)
			if m > nMax {
				nMax = m
			}
			for c := 0; c < channel; c++ {
				for k := 0; k < m; k++ {
					ak[c*t.nMax+k] += w * a[c*m+k]
				}
			}
		}
	}
	return nMax
}

// FourierBxdf is the lobe over a loaded Fourier table
type FourierBxdf struct {
	BaseBxdf
	data *FourierBxdfData
}

// NewFourierBxdf creates a lobe over the shared table; a nil or invalid table
// evaluates to black.
func NewFourierBxdf(rc *core.RenderContext, data *FourierBxdfData, weight core.Spectrum, n core.Vec3) *FourierBxdf {
	return &FourierBxdf{
		BaseBxdf: newBaseBxdf(rc, weight, scattering.BxdfAll, n, true),
		data:     data,
	}
}

func (f *FourierBxdf) F(wo, wi core.Vec3) core.Spectrum {
	if !f.data.IsValid() {
		return core.Spectrum{}
	}
	swo, swi := f.toLocal(wo), f.toLocal(wi)
	return f.data.F(swo, swi, f.rc).Scale(core.AbsCosTheta(swi))
}

func (f *FourierBxdf) SampleF(wo core.Vec3, bs core.BsdfSample) (core.Spectrum, core.Vec3, float64) {
	if !f.data.IsValid() {
		return core.Spectrum{}, core.Vec3{}, 0
	}
	swo := f.toLocal(wo)
	ret, swi, pdf := f.data.SampleF(swo, bs, f.rc)
	return ret.Scale(core.AbsCosTheta(swi)), f.fromLocal(swi), pdf
}

func (f *FourierBxdf) PDF(wo, wi core.Vec3) float64 {
	if !f.data.IsValid() {
		return 0
	}
	return f.data.PDF(f.toLocal(wo), f.toLocal(wi), f.rc)
}
