package core

import "math"

// Rec. 709 luminance weights, also used to turn evaluation weights into
// scalar sampling weights.
const (
	yWeightR = 0.212671
	yWeightG = 0.715160
	yWeightB = 0.072169
)

// Spectrum is a three-component linear RGB radiance value. Arithmetic never
// clamps; clamping is always an explicit call.
type Spectrum struct {
	R, G, B float64
}

// NewSpectrum creates a spectrum from three components
func NewSpectrum(r, g, b float64) Spectrum {
	return Spectrum{R: r, G: g, B: b}
}

// NewSpectrumUniform creates a spectrum with the same value in every channel
func NewSpectrumUniform(v float64) Spectrum {
	return Spectrum{R: v, G: v, B: v}
}

// WhiteSpectrum is full radiance in every channel.
var WhiteSpectrum = Spectrum{1, 1, 1}

// Add returns the sum of two spectra
func (s Spectrum) Add(other Spectrum) Spectrum {
	return Spectrum{s.R + other.R, s.G + other.G, s.B + other.B}
}

// Subtract returns the difference of two spectra
func (s Spectrum) Subtract(other Spectrum) Spectrum {
	return Spectrum{s.R - other.R, s.G - other.G, s.B - other.B}
}

// Multiply returns the component-wise product of two spectra
func (s Spectrum) Multiply(other Spectrum) Spectrum {
	return Spectrum{s.R * other.R, s.G * other.G, s.B * other.B}
}

// Divide returns the component-wise quotient of two spectra
func (s Spectrum) Divide(other Spectrum) Spectrum {
	return Spectrum{s.R / other.R, s.G / other.G, s.B / other.B}
}

// Scale returns the spectrum scaled by a scalar
func (s Spectrum) Scale(v float64) Spectrum {
	return Spectrum{s.R * v, s.G * v, s.B * v}
}

// GetIntensity returns the perceptual luminance of the spectrum
func (s Spectrum) GetIntensity() float64 {
	return yWeightR*s.R + yWeightG*s.G + yWeightB*s.B
}

// IsBlack returns true if every channel is zero
func (s Spectrum) IsBlack() bool {
	return s.R == 0 && s.G == 0 && s.B == 0
}

// Sqrt returns the component-wise square root, negative channels clamp to zero
func (s Spectrum) Sqrt() Spectrum {
	return Spectrum{Ssqrt(s.R), Ssqrt(s.G), Ssqrt(s.B)}
}

// Exp returns the component-wise exponential
func (s Spectrum) Exp() Spectrum {
	return Spectrum{math.Exp(s.R), math.Exp(s.G), math.Exp(s.B)}
}

// Clamp returns the spectrum with each channel clamped to [low, high]
func (s Spectrum) Clamp(low, high float64) Spectrum {
	return Spectrum{
		R: Clamp(s.R, low, high),
		G: Clamp(s.G, low, high),
		B: Clamp(s.B, low, high),
	}
}

// Channel returns the idx-th channel, in R, G, B order
func (s Spectrum) Channel(idx int) float64 {
	switch idx {
	case 0:
		return s.R
	case 1:
		return s.G
	}
	return s.B
}

// LerpSpectrum interpolates between two spectra, t=0 yields a
func LerpSpectrum(a, b Spectrum, t float64) Spectrum {
	return Spectrum{
		R: Lerp(a.R, b.R, t),
		G: Lerp(a.G, b.G, t),
		B: Lerp(a.B, b.B, t),
	}
}
