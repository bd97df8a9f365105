package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Output.Format != "ntriples" {
		t.Errorf("default format = %q", cfg.Output.Format)
	}
	if cfg.Engine.Normalization != "NFC" {
		t.Errorf("default normalization = %q", cfg.Engine.Normalization)
	}
	if cfg.Engine.Timeout != 30*time.Second {
		t.Errorf("default timeout = %v", cfg.Engine.Timeout)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Output.Format = "rdfxml"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown output format should fail validation")
	}

	cfg = DefaultConfig()
	cfg.Engine.Normalization = "NFX"
	if err := cfg.Validate(); err == nil {
		t.Error("unknown normalization form should fail validation")
	}

	cfg = DefaultConfig()
	cfg.Engine.Timeout = 0
	if err := cfg.Validate(); err == nil {
		t.Error("zero timeout should fail validation")
	}
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	other := &Config{}
	other.Mapping.Files = []string{"mappings/**/*.ttl"}
	other.Output.Format = "turtle"
	other.Engine.Strict = true
	other.Engine.Timeout = time.Minute

	base.Merge(other)

	if len(base.Mapping.Files) != 1 || base.Mapping.Files[0] != "mappings/**/*.ttl" {
		t.Errorf("mapping files = %v", base.Mapping.Files)
	}
	if base.Output.Format != "turtle" {
		t.Errorf("format = %q", base.Output.Format)
	}
	if !base.Engine.Strict {
		t.Error("strict should merge")
	}
	if base.Engine.Timeout != time.Minute {
		t.Errorf("timeout = %v", base.Engine.Timeout)
	}
	// Unset fields keep defaults.
	if base.Engine.Normalization != "NFC" {
		t.Errorf("normalization = %q", base.Engine.Normalization)
	}
}

func TestMergeNil(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Merge(nil)
	if err := cfg.Validate(); err != nil {
		t.Errorf("merge(nil) should leave config valid: %v", err)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Mapping.SourceDir = "/data"
	cfg.Output.Format = "turtle"
	cfg.Engine.Strict = true
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Mapping.SourceDir != "/data" || loaded.Output.Format != "turtle" || !loaded.Engine.Strict {
		t.Errorf("round-trip mismatch: %+v", loaded)
	}
}

func TestLoadFromMissingFile(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("loading a missing file should fail")
	}
}
