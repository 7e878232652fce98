package core

import (
	"math"
	"math/rand"
	"testing"
)

func TestUniformSampleDiskStaysInside(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	for i := 0; i < 10000; i++ {
		x, y := UniformSampleDisk(random.Float64(), random.Float64())
		if x*x+y*y > 1+1e-9 {
			t.Fatalf("(%v, %v) lies outside the unit disk", x, y)
		}
	}
}

func TestCosSampleHemisphere(t *testing.T) {
	random := rand.New(rand.NewSource(42))

	// the sampler must stay in the upper hemisphere and its inverse pdf must
	// integrate to the hemisphere solid angle
	const samples = 1 << 20
	total := 0.0
	for i := 0; i < samples; i++ {
		v := CosSampleHemisphere(random.Float64(), random.Float64())
		if v.Y < 0 {
			t.Fatalf("sample %v below the hemisphere", v)
		}
		if math.Abs(v.Length()-1) > 1e-9 {
			t.Fatalf("sample %v is not normalized", v)
		}
		pdf := CosHemispherePdf(v)
		if pdf > 0 {
			total += 1 / pdf
		}
	}
	total /= samples
	if math.Abs(total-2*math.Pi) > 0.05 {
		t.Errorf("recovered solid angle %v, want 2π", total)
	}
}

func TestUniformHemispherePdf(t *testing.T) {
	if math.Abs(UniformHemispherePdf()-1/(2*math.Pi)) > 1e-12 {
		t.Error("uniform hemisphere pdf")
	}
	if math.Abs(UniformSpherePdf()-1/(4*math.Pi)) > 1e-12 {
		t.Error("uniform sphere pdf")
	}
}

func TestUniformSampleSphereCoversBothHemispheres(t *testing.T) {
	random := rand.New(rand.NewSource(7))
	up, down := 0, 0
	for i := 0; i < 10000; i++ {
		v := UniformSampleSphere(random.Float64(), random.Float64())
		if v.Y >= 0 {
			up++
		} else {
			down++
		}
	}
	ratio := float64(up) / 10000
	if math.Abs(ratio-0.5) > 0.03 {
		t.Errorf("upper hemisphere fraction %v, want 0.5", ratio)
	}
}
