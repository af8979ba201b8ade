package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func tempManager(t *testing.T) *Manager {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	m, err := NewManager()
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	m := tempManager(t)

	settings, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if settings != DefaultSettings() {
		t.Errorf("settings = %+v, want defaults", settings)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := tempManager(t)

	want := UserSettings{
		SignalURL:  "wss://signal.example.com",
		Preset:     2,
		FrameRate:  60,
		ShareAudio: true,
	}
	if err := m.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got != want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestLoadInvalidJSONReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	path := filepath.Join(dir, "screenshare", "config.json")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager()
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	settings, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if settings != DefaultSettings() {
		t.Errorf("settings = %+v, want defaults", settings)
	}
}

func TestLoadClampsOutOfRangeValues(t *testing.T) {
	m := tempManager(t)

	if err := m.Save(UserSettings{Preset: 99, FrameRate: 500}); err != nil {
		t.Fatalf("Save: %v", err)
	}
	settings, err := m.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if settings.Preset != DefaultPresetIndex() {
		t.Errorf("Preset = %d, want default %d", settings.Preset, DefaultPresetIndex())
	}
	if settings.FrameRate != CapturePresets[DefaultPresetIndex()].FrameRate {
		t.Errorf("FrameRate = %d, want preset default", settings.FrameRate)
	}
}

func TestPresetByName(t *testing.T) {
	if p := PresetByName("ultra"); p.Name != "Ultra" {
		t.Errorf("PresetByName(ultra) = %s", p.Name)
	}
	if p := PresetByName("HIGH"); p.Name != "High" {
		t.Errorf("PresetByName(HIGH) = %s", p.Name)
	}
	if p := PresetByName("nonsense"); p.Name != CapturePresets[DefaultPresetIndex()].Name {
		t.Errorf("unknown preset should fall back to default, got %s", p.Name)
	}
}
