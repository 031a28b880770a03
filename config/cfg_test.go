package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigurationDefaults(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
	if cfg.Document.OutputNameTemplate == "" {
		t.Error("OutputNameTemplate is empty")
	}
	p := cfg.Document.Processors
	if !p.Footnotes || !p.Marginalia || !p.Extensions || !p.Markers {
		t.Errorf("Processors = %+v, want all enabled", p)
	}
	m := cfg.Document.Marginalia
	if m.DefaultVoice != 1 || m.DefaultFontScale != 1.0 || m.DefaultWidth != 30 || m.DefaultPosition != "right" {
		t.Errorf("Marginalia = %+v", m)
	}
	a := cfg.Document.Activation
	if a.ReadingZone != 0.3 {
		t.Errorf("ReadingZone = %v, want 0.3", a.ReadingZone)
	}
	if a.ActivationDelayMs != 100 || a.DeactivationDelayMs != 500 {
		t.Errorf("delays = %d/%d, want 100/500", a.ActivationDelayMs, a.DeactivationDelayMs)
	}
	if a.HysteresisPx != 300 {
		t.Errorf("HysteresisPx = %d, want 300", a.HysteresisPx)
	}
	if cfg.Document.Typing.FrameBudgetMs != 16 {
		t.Errorf("FrameBudgetMs = %d, want 16", cfg.Document.Typing.FrameBudgetMs)
	}
	if cfg.Logging.ConsoleLogger.Level != "normal" {
		t.Errorf("console level = %q, want normal", cfg.Logging.ConsoleLogger.Level)
	}
}

func TestLoadConfigurationOverride(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "margo.yaml")
	override := `
document:
  marginalia:
    default_voice: 3
  activation:
    reading_zone: 0.5
logging:
  console:
    level: debug
`
	if err := os.WriteFile(fname, []byte(override), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfiguration(fname)
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	if cfg.Document.Marginalia.DefaultVoice != 3 {
		t.Errorf("DefaultVoice = %d, want 3", cfg.Document.Marginalia.DefaultVoice)
	}
	if cfg.Document.Activation.ReadingZone != 0.5 {
		t.Errorf("ReadingZone = %v, want 0.5", cfg.Document.Activation.ReadingZone)
	}
	if cfg.Logging.ConsoleLogger.Level != "debug" {
		t.Errorf("console level = %q, want debug", cfg.Logging.ConsoleLogger.Level)
	}
	// untouched fields keep defaults
	if cfg.Document.Marginalia.DefaultWidth != 30 {
		t.Errorf("DefaultWidth = %d, want default 30", cfg.Document.Marginalia.DefaultWidth)
	}
}

func TestLoadConfigurationRejectsUnknownFields(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "margo.yaml")
	if err := os.WriteFile(fname, []byte("document:\n  no_such_knob: 1\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfiguration(fname); err == nil {
		t.Error("LoadConfiguration() accepted unknown field")
	}
}

func TestLoadConfigurationValidates(t *testing.T) {
	fname := filepath.Join(t.TempDir(), "margo.yaml")
	if err := os.WriteFile(fname, []byte("document:\n  marginalia:\n    default_voice: 99\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfiguration(fname); err == nil {
		t.Error("LoadConfiguration() accepted out of range default_voice")
	}
}

func TestDump(t *testing.T) {
	cfg, err := LoadConfiguration("")
	if err != nil {
		t.Fatalf("LoadConfiguration() error = %v", err)
	}
	data, err := Dump(cfg)
	if err != nil {
		t.Fatalf("Dump() error = %v", err)
	}
	for _, want := range []string{"output_name_template", "reading_zone", "default_voice"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("dump missing %q", want)
		}
	}
}
