package vpcc

import "testing"

func TestDefaultParametersValidate(t *testing.T) {
	t.Parallel()
	p := DefaultParameters()
	if err := p.Validate(); err != nil {
		t.Fatalf("default parameters failed validation: %v", err)
	}
}

func TestApplyPresetFast(t *testing.T) {
	t.Parallel()
	p := DefaultParameters()
	if err := p.ApplyPreset("fast"); err != nil {
		t.Fatalf("ApplyPreset(fast): %v", err)
	}
	if p.SizeGOF != 16 {
		t.Fatalf("SizeGOF = %d, want 16", p.SizeGOF)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("fast preset failed validation: %v", err)
	}
}

func TestApplyPresetUnknownSuggestsClosest(t *testing.T) {
	t.Parallel()
	p := DefaultParameters()
	err := p.ApplyPreset("fst")
	if err == nil {
		t.Fatal("expected error for unknown preset")
	}
	if got := err.Error(); !contains(got, "fast") {
		t.Fatalf("error %q does not suggest 'fast'", got)
	}
}

func TestSetParameterUnknownNameSuggestsClosest(t *testing.T) {
	t.Parallel()
	p := DefaultParameters()
	err := p.SetParameter("SizeGOf", "16")
	if err == nil {
		t.Fatal("expected error for misspelled parameter name")
	}
	if !contains(err.Error(), "SizeGOF") {
		t.Fatalf("error %q does not suggest 'SizeGOF'", err.Error())
	}
}

func TestSetParameterTypeMismatch(t *testing.T) {
	t.Parallel()
	p := DefaultParameters()
	if err := p.SetParameter("SizeGOF", "notanumber"); err == nil {
		t.Fatal("expected error for non-numeric SizeGOF")
	}
}

func TestSetParameterBoolAcceptsAllForms(t *testing.T) {
	t.Parallel()
	p := DefaultParameters()
	for _, v := range []string{"true", "True", "1"} {
		if err := p.SetParameter("DoubleLayer", v); err != nil {
			t.Fatalf("SetParameter(DoubleLayer, %q): %v", v, err)
		}
		if !p.DoubleLayer {
			t.Fatalf("DoubleLayer not set true from %q", v)
		}
	}
	for _, v := range []string{"false", "False", "0"} {
		if err := p.SetParameter("DoubleLayer", v); err != nil {
			t.Fatalf("SetParameter(DoubleLayer, %q): %v", v, err)
		}
		if p.DoubleLayer {
			t.Fatalf("DoubleLayer not set false from %q", v)
		}
	}
}

func TestValidateRejectsBitDepthOrder(t *testing.T) {
	t.Parallel()
	p := DefaultParameters()
	p.GeoBitDepthVoxelized = p.GeoBitDepthInput + 1
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for GeoBitDepthVoxelized > GeoBitDepthInput")
	}
}

func TestValidateRejectsNonMultipleMapWidth(t *testing.T) {
	t.Parallel()
	p := DefaultParameters()
	p.MapWidth = p.OccupancyMapResolution*10 + 1
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for MapWidth not a multiple of OccupancyMapResolution")
	}
}

func TestValidateRejectsUnknownAttributeBgFill(t *testing.T) {
	t.Parallel()
	p := DefaultParameters()
	p.AttributeBgFill = "bilinear"
	if err := p.Validate(); err == nil {
		t.Fatal("expected error for unrecognized AttributeBgFill")
	}
}

func TestSetParameterActivateSlicing(t *testing.T) {
	t.Parallel()
	p := DefaultParameters()
	if p.ActivateSlicing {
		t.Fatal("ActivateSlicing should default to false")
	}
	if err := p.SetParameter("ActivateSlicing", "true"); err != nil {
		t.Fatalf("SetParameter(ActivateSlicing, true): %v", err)
	}
	if !p.ActivateSlicing {
		t.Fatal("ActivateSlicing not set true")
	}
}

func TestLevenshteinBasic(t *testing.T) {
	t.Parallel()
	cases := []struct {
		a, b string
		want int
	}{
		{"fast", "fast", 0},
		{"fast", "fst", 1},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
	}
	for _, c := range cases {
		if got := levenshtein(c.a, c.b); got != c.want {
			t.Errorf("levenshtein(%q,%q) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func contains(s, substr string) bool {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return true
		}
	}
	return false
}
