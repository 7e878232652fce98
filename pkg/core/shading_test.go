package core

import (
	"math"
	"testing"
)

func TestShadingTrigHelpers(t *testing.T) {
	w := Vec3{X: 0.48, Y: 0.6, Z: 0.64}

	if CosTheta(w) != 0.6 {
		t.Errorf("CosTheta = %v", CosTheta(w))
	}
	if math.Abs(SinTheta2(w)-0.64) > 1e-12 {
		t.Errorf("SinTheta2 = %v", SinTheta2(w))
	}
	if math.Abs(TanTheta2(w)-(1/0.36-1)) > 1e-12 {
		t.Errorf("TanTheta2 = %v", TanTheta2(w))
	}

	// at the pole the azimuth degenerates to cosφ=1, sinφ=0
	up := Vec3{Y: 1}
	if CosPhi(up) != 1 || SinPhi(up) != 0 {
		t.Errorf("degenerate azimuth: cos %v sin %v", CosPhi(up), SinPhi(up))
	}
}

func TestReflect(t *testing.T) {
	v := Vec3{X: 0.3, Y: 0.8, Z: -0.2}.Normalize()
	r := Reflect(v, DirUp)
	fast := ReflectLocal(v)
	if !r.Equals(fast) {
		t.Errorf("reflect %v vs fast path %v", r, fast)
	}
	if math.Abs(r.Y-v.Y) > 1e-12 {
		t.Error("reflection preserves the normal component")
	}
}

func TestRefractSnell(t *testing.T) {
	v := Vec3{X: 0.5, Y: 0.8, Z: 0}.Normalize()
	refracted, tir := Refract(v, DirUp, 1.5, 1.0)
	if tir {
		t.Fatal("entering the denser medium never reflects totally")
	}
	if refracted.Y >= 0 {
		t.Errorf("refracted direction %v should point into the surface", refracted)
	}
	// Snell: sinθt = sinθi · ηi/ηt
	sinI := math.Sqrt(1 - v.Y*v.Y)
	sinT := math.Sqrt(refracted.X*refracted.X + refracted.Z*refracted.Z)
	if math.Abs(sinT-sinI/1.5) > 1e-9 {
		t.Errorf("snell violated: sinT %v, want %v", sinT, sinI/1.5)
	}
}

func TestRefractTotalInternalReflection(t *testing.T) {
	// leaving a dense medium at a grazing angle
	v := Vec3{X: -0.9, Y: -0.2, Z: 0}.Normalize()
	refracted, tir := Refract(v, DirUp, 1.5, 1.0)
	if !tir {
		t.Fatal("grazing exit from the dense side must reflect totally")
	}
	if !refracted.IsZero() {
		t.Errorf("TIR must return the zero vector, got %v", refracted)
	}
}

func TestSameHemisphere(t *testing.T) {
	a := Vec3{X: 0.1, Y: 0.5, Z: 0.2}
	b := Vec3{X: -0.3, Y: 0.1, Z: 0.4}
	c := Vec3{X: 0.1, Y: -0.5, Z: 0.2}
	if !SameHemisphere(a, b) || SameHemisphere(a, c) {
		t.Error("hemisphere test")
	}
}

func TestSphericalRoundTrip(t *testing.T) {
	v := Vec3{X: 0.2, Y: 0.7, Z: -0.4}.Normalize()
	theta := SphericalTheta(v)
	phi := SphericalPhi(v)
	back := SphericalVec(theta, phi)
	if !back.Equals(v) {
		t.Errorf("spherical round trip %v -> %v", v, back)
	}
}
