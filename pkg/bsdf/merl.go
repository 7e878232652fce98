package bsdf

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/lumen-render/go-shading/pkg/core"
	"github.com/lumen-render/go-shading/pkg/scattering"
)

// MERL BRDF Database - Mitsubishi Electric Research Laboratories
// https://www.merl.com/brdf/
//
// Each measured material is a densely tabulated isotropic BRDF over the
// half-angle parameterisation.
//
// 'Efficient Isotropic BRDF Measurement'
// http://www.merl.com/publications/docs/TR2003-80.pdf

const (
	merlSamplingResThetaH = 90
	merlSamplingResThetaD = 90
	merlSamplingResPhiD   = 180
	merlSamplingCount     = merlSamplingResThetaH * merlSamplingResThetaD * merlSamplingResPhiD

	merlRedScale   = 0.0006666666666667
	merlGreenScale = 0.000766666666666667
	merlBlueScale  = 0.0011066666666666667
)

// MerlData is one loaded MERL table, immutable after load and shared between
// any number of lobes.
type MerlData struct {
	data []float64
}

// LoadMerl reads a MERL file from disk. Files are little-endian; anything
// that does not match the 90x90x180 layout is rejected.
func LoadMerl(filename string) (*MerlData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open MERL file: %w", err)
	}
	defer file.Close()

	m := &MerlData{}
	if err := m.read(file); err != nil {
		return nil, fmt.Errorf("failed to read MERL data: %w", err)
	}
	return m, nil
}

func (m *MerlData) read(r io.Reader) error {
	var dims [3]uint32
	if err := binary.Read(r, binary.LittleEndian, &dims); err != nil {
		return err
	}
	if dims[0] != merlSamplingResThetaH || dims[1] != merlSamplingResThetaD || dims[2] != merlSamplingResPhiD {
		return fmt.Errorf("unexpected MERL dimensions %dx%dx%d", dims[0], dims[1], dims[2])
	}

	trunkSize := int(dims[0] * dims[1] * dims[2])
	data := make([]float64, 3*trunkSize)
	if err := binary.Read(r, binary.LittleEndian, data); err != nil {
		return err
	}

	offset := 0
	for i := 0; i < trunkSize; i++ {
		data[offset] *= merlRedScale
		offset++
	}
	for i := 0; i < trunkSize; i++ {
		data[offset] *= merlGreenScale
		offset++
	}
	for i := 0; i < trunkSize; i++ {
		data[offset] *= merlBlueScale
		offset++
	}

	m.data = data
	return nil
}

// IsValid reports whether a table has been loaded
func (m *MerlData) IsValid() bool {
	return m != nil && len(m.data) > 0
}

// F evaluates the measured BRDF, without the cosine factor
func (m *MerlData) F(wo, wi core.Vec3) core.Spectrum {
	if !m.IsValid() {
		return core.Spectrum{}
	}

	// ignore reflection at the back face
	if wo.Y <= 0 {
		return core.Spectrum{}
	}

	// move wi into the half-angle coordinate system
	wh := wo.Add(wi)
	if wh.Y < 0 {
		wh = wh.Negate()
		wi = wi.Negate()
		wo = wo.Negate()
	}
	if wh.IsZero() {
		return core.Spectrum{}
	}
	wh = wh.Normalize()

	whTheta := core.SphericalTheta(wh)
	whCosPhi, whSinPhi := core.CosPhi(wh), core.SinPhi(wh)
	whCosTheta, whSinTheta := core.CosTheta(wh), core.SinTheta(wh)

	whx := core.Vec3{X: whSinPhi, Y: 0, Z: -whCosPhi}
	why := core.Vec3{X: whCosPhi * whCosTheta, Y: -whSinTheta, Z: whSinPhi * whCosTheta}
	wd := core.Vec3{X: wi.Dot(whx), Y: wi.Dot(wh), Z: wi.Dot(why)}

	wdTheta, wdPhi := core.SphericalTheta(wd), core.SphericalPhi(wd)
	if wdPhi > math.Pi {
		wdPhi -= math.Pi
	}

	whThetaIndex := int(core.Clamp(math.Sqrt(math.Max(0, whTheta*2/math.Pi))*merlSamplingResThetaH, 0, merlSamplingResThetaH-1))
	wdThetaIndex := int(core.Clamp(wdTheta*2/math.Pi*merlSamplingResThetaD, 0, merlSamplingResThetaD-1))
	wdPhiIndex := int(core.Clamp(wdPhi/math.Pi*merlSamplingResPhiD, 0, merlSamplingResPhiD-1))

	index := wdPhiIndex + merlSamplingResPhiD*(wdThetaIndex+whThetaIndex*merlSamplingResThetaD)

	r := m.data[index]
	index += merlSamplingCount
	g := m.data[index]
	index += merlSamplingCount
	b := m.data[index]

	return core.Spectrum{R: r, G: g, B: b}
}

// Merl is the lobe over a loaded MERL table. The measurement offers no
// importance sampling method, so it falls back to the default cosine sampler
// and pays the variance price.
type Merl struct {
	BaseBxdf
	data *MerlData
}

// NewMerl creates a lobe over the shared table; a nil or invalid table
// evaluates to black.
func NewMerl(rc *core.RenderContext, data *MerlData, weight core.Spectrum, n core.Vec3, doubleSided bool) *Merl {
	return &Merl{
		BaseBxdf: newBaseBxdf(rc, weight, scattering.BxdfAll, n, doubleSided),
		data:     data,
	}
}

func (m *Merl) F(wo, wi core.Vec3) core.Spectrum {
	return m.f(m.toLocal(wo), m.toLocal(wi))
}

func (m *Merl) f(swo, swi core.Vec3) core.Spectrum {
	if !m.sameGeomHemisphere(swo, swi) {
		return core.Spectrum{}
	}
	if !m.doubleSided && !m.pointingUp(swo) {
		return core.Spectrum{}
	}
	return m.data.F(swo, swi).Scale(core.AbsCosTheta(swi))
}

func (m *Merl) SampleF(wo core.Vec3, bs core.BsdfSample) (core.Spectrum, core.Vec3, float64) {
	swo := m.toLocal(wo)
	swi := m.defaultSample(bs)
	pdf := m.defaultPdf(swo, swi)
	return m.f(swo, swi), m.fromLocal(swi), pdf
}

func (m *Merl) PDF(wo, wi core.Vec3) float64 {
	return m.defaultPdf(m.toLocal(wo), m.toLocal(wi))
}
