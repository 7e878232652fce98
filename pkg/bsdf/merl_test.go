package bsdf

import (
	"bufio"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/lumen-render/go-shading/pkg/core"
)

// writeMerlFile produces a synthetic table holding the same raw value in
// every bin.
func writeMerlFile(t *testing.T, dims [3]uint32, raw float64) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.binary")
	file, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	if err := binary.Write(w, binary.LittleEndian, dims); err != nil {
		t.Fatal(err)
	}
	count := 3 * int(dims[0]) * int(dims[1]) * int(dims[2])
	for i := 0; i < count; i++ {
		if err := binary.Write(w, binary.LittleEndian, raw); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMerl(t *testing.T) {
	path := writeMerlFile(t, [3]uint32{90, 90, 180}, 1.0)

	data, err := LoadMerl(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !data.IsValid() {
		t.Fatal("loaded table reports invalid")
	}

	wo := core.Vec3{X: 0.2, Y: 0.9, Z: 0.1}.Normalize()
	wi := core.Vec3{X: -0.3, Y: 0.8, Z: 0.2}.Normalize()
	f := data.F(wo, wi)

	// the per-channel measurement scales are applied at load time
	if math.Abs(f.R-merlRedScale) > 1e-12 ||
		math.Abs(f.G-merlGreenScale) > 1e-12 ||
		math.Abs(f.B-merlBlueScale) > 1e-12 {
		t.Errorf("scaled value %v, want the three channel scales", f)
	}

	// the back face reflects nothing
	if !data.F(wo.Negate(), wi).IsBlack() {
		t.Error("back face evaluation should be black")
	}
}

func TestLoadMerlRejectsWrongDimensions(t *testing.T) {
	path := writeMerlFile(t, [3]uint32{45, 45, 90}, 1.0)
	if _, err := LoadMerl(path); err == nil {
		t.Fatal("unexpected dimensions must be rejected")
	}
}

func TestLoadMerlMissingFile(t *testing.T) {
	if _, err := LoadMerl(filepath.Join(t.TempDir(), "missing.binary")); err == nil {
		t.Fatal("missing file must report an error")
	}
}

func TestMerlLobeWithoutData(t *testing.T) {
	rc := testContext(3)
	lobe := NewMerl(rc, nil, core.WhiteSpectrum, core.DirUp, false)

	wo := core.Vec3{X: 0.2, Y: 0.9, Z: 0.1}.Normalize()
	wi := core.Vec3{X: -0.3, Y: 0.8, Z: 0.2}.Normalize()
	if !lobe.F(wo, wi).IsBlack() {
		t.Error("a lobe without data evaluates to black")
	}
}

func TestMerlLobeProperties(t *testing.T) {
	path := writeMerlFile(t, [3]uint32{90, 90, 180}, 100.0)
	data, err := LoadMerl(path)
	if err != nil {
		t.Fatal(err)
	}

	rc := testContext(5)
	lobe := NewMerl(rc, data, core.WhiteSpectrum, core.DirUp, false)

	// with the default cosine sampler the pdf contracts still hold
	wo := core.Vec3{X: 0.1, Y: 0.95, Z: 0.2}.Normalize()
	for i := 0; i < 64; i++ {
		bs := core.NewBsdfSample(rc)
		f0, wi, pdf := lobe.SampleF(wo, bs)
		if math.Abs(pdf-lobe.PDF(wo, wi)) > 1e-9 {
			t.Fatalf("pdf mismatch %v vs %v", pdf, lobe.PDF(wo, wi))
		}
		if !spectrumNear(f0, lobe.F(wo, wi), 1e-9) {
			t.Fatalf("value mismatch")
		}
	}
}
