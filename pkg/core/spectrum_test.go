package core

import (
	"math"
	"testing"
)

func TestSpectrumIntensityWeights(t *testing.T) {
	if math.Abs(NewSpectrum(1, 0, 0).GetIntensity()-0.212671) > 1e-12 {
		t.Error("red weight")
	}
	if math.Abs(NewSpectrum(0, 1, 0).GetIntensity()-0.715160) > 1e-12 {
		t.Error("green weight")
	}
	if math.Abs(NewSpectrum(0, 0, 1).GetIntensity()-0.072169) > 1e-12 {
		t.Error("blue weight")
	}
}

func TestSpectrumArithmeticDoesNotClamp(t *testing.T) {
	s := NewSpectrum(2, 3, 4).Add(NewSpectrum(1, 1, 1))
	if s != NewSpectrum(3, 4, 5) {
		t.Errorf("addition clamped: %v", s)
	}
	d := NewSpectrum(1, 1, 1).Subtract(NewSpectrum(2, 2, 2))
	if d != NewSpectrum(-1, -1, -1) {
		t.Errorf("subtraction clamped: %v", d)
	}
	if d.Clamp(0, 1) != (Spectrum{}) {
		t.Error("explicit clamp")
	}
}

func TestSpectrumHelpers(t *testing.T) {
	if !(Spectrum{}).IsBlack() || NewSpectrum(0, 0.1, 0).IsBlack() {
		t.Error("IsBlack")
	}
	s := NewSpectrum(4, 9, -1).Sqrt()
	if s != NewSpectrum(2, 3, 0) {
		t.Errorf("Sqrt = %v", s)
	}
	e := NewSpectrum(0, 1, -1).Exp()
	if math.Abs(e.G-math.E) > 1e-12 || e.R != 1 {
		t.Errorf("Exp = %v", e)
	}
	if LerpSpectrum(NewSpectrumUniform(1), NewSpectrumUniform(3), 0.5) != NewSpectrumUniform(2) {
		t.Error("LerpSpectrum")
	}
	if NewSpectrum(1, 2, 3).Channel(0) != 1 || NewSpectrum(1, 2, 3).Channel(2) != 3 {
		t.Error("Channel")
	}
}
