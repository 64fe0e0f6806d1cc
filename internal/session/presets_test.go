package session

import "testing"

func TestAllPresetsBuildValidPrograms(t *testing.T) {
	for _, name := range PresetNames() {
		preset, ok := FindPreset(name)
		if !ok {
			t.Fatalf("FindPreset(%q) missing", name)
		}
		program, err := preset.Program()
		if err != nil {
			t.Fatalf("preset %s: %v", name, err)
		}
		if program == nil {
			t.Fatalf("preset %s: nil program", name)
		}
		if preset.Description == "" {
			t.Errorf("preset %s: empty description", name)
		}
	}
}

func TestPresetNamesOrder(t *testing.T) {
	want := []string{
		"gamma", "alpha", "schumann", "focus-ramp",
		"wind-down", "gamma-burst", "split", "binaural-gamma",
	}
	got := PresetNames()
	if len(got) != len(want) {
		t.Fatalf("PresetNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("PresetNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestFindPresetCaseInsensitive(t *testing.T) {
	for _, name := range []string{"GAMMA", "Schumann", "binaural-GAMMA"} {
		if _, ok := FindPreset(name); !ok {
			t.Errorf("FindPreset(%q) not found", name)
		}
	}
}

func TestFindPresetUnknown(t *testing.T) {
	if _, ok := FindPreset("delta-plus"); ok {
		t.Fatal("FindPreset accepted an unknown name")
	}
}

func TestBinauralPresetCarriesBase(t *testing.T) {
	preset, ok := FindPreset("binaural-gamma")
	if !ok {
		t.Fatal("binaural-gamma preset missing")
	}
	if !preset.Binaural {
		t.Error("binaural-gamma should request binaural rendering")
	}
	if preset.BinauralBase != 200 {
		t.Errorf("BinauralBase = %g, want 200", preset.BinauralBase)
	}
}
