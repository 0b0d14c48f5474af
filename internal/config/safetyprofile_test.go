package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSafetyProfileNames(t *testing.T) {
	tests := []struct {
		name       string
		profile    string
		wantBudget int
		wantErr    bool
	}{
		{"empty means default", "", 100, false},
		{"default", "default", 100, false},
		{"restrictive", "restrictive", 50, false},
		{"permissive", "permissive", 10_000, false},
		{"unknown", "paranoid", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := SafetyProfile(tt.profile)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("SafetyProfile(%q) expected error, got %+v", tt.profile, cfg)
				}
				return
			}
			if err != nil {
				t.Fatalf("SafetyProfile(%q): %v", tt.profile, err)
			}
			if cfg.SessionExecutionBudget != tt.wantBudget {
				t.Errorf("SessionExecutionBudget = %d, want %d", cfg.SessionExecutionBudget, tt.wantBudget)
			}
		})
	}
}

func TestLoadSafetyConfigMissingFile(t *testing.T) {
	cfg, err := loadSafetyConfigFrom("restrictive", filepath.Join(t.TempDir(), "gencode.toml"))
	if err != nil {
		t.Fatalf("missing file should fall back to the profile: %v", err)
	}
	if cfg.SessionExecutionBudget != 50 {
		t.Errorf("SessionExecutionBudget = %d, want restrictive's 50", cfg.SessionExecutionBudget)
	}
}

func TestLoadSafetyConfigFileOverridesKnobs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gencode.toml")
	content := `
[safety]
profile = "restrictive"
session_execution_budget = 25
stall_threshold = 4
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadSafetyConfigFrom("", path)
	if err != nil {
		t.Fatal(err)
	}

	// File's profile key selects the base when no explicit profile given.
	if cfg.MaxToolCallsPerTurn != 10 {
		t.Errorf("MaxToolCallsPerTurn = %d, want restrictive's 10", cfg.MaxToolCallsPerTurn)
	}
	// Explicit knobs override the base.
	if cfg.SessionExecutionBudget != 25 {
		t.Errorf("SessionExecutionBudget = %d, want file's 25", cfg.SessionExecutionBudget)
	}
	if cfg.StallThreshold != 4 {
		t.Errorf("StallThreshold = %d, want file's 4", cfg.StallThreshold)
	}
	// Untouched knobs keep the base profile's value.
	if cfg.CircuitBreakerFailureThreshold != 3 {
		t.Errorf("CircuitBreakerFailureThreshold = %d, want restrictive's 3", cfg.CircuitBreakerFailureThreshold)
	}
}

func TestLoadSafetyConfigFlagWinsOverFileProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gencode.toml")
	content := `
[safety]
profile = "permissive"
max_identical_calls = 7
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadSafetyConfigFrom("restrictive", path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.SessionExecutionBudget != 50 {
		t.Errorf("SessionExecutionBudget = %d, want restrictive's 50 (flag wins over file profile)", cfg.SessionExecutionBudget)
	}
	if cfg.MaxIdenticalCalls != 7 {
		t.Errorf("MaxIdenticalCalls = %d, want file's 7", cfg.MaxIdenticalCalls)
	}
}

func TestLoadSafetyConfigBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gencode.toml")
	if err := os.WriteFile(path, []byte("[safety\nnot toml"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := loadSafetyConfigFrom("", path); err == nil {
		t.Fatal("malformed TOML should be an error, not a silent fallback")
	}
}
