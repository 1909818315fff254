package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("FARM_ID", "farm-1")
	t.Setenv("FIGURED_CLIENT_ID", "client-id")
	t.Setenv("FIGURED_CLIENT_SECRET", "client-secret")
	t.Setenv("OUTPUT_ROOT", "/tmp/exports")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Figured.FarmID != "farm-1" {
		t.Errorf("FarmID = %q, expected farm-1", cfg.Figured.FarmID)
	}
	if cfg.Figured.ClientID != "client-id" {
		t.Errorf("ClientID = %q, expected client-id", cfg.Figured.ClientID)
	}
	if cfg.Output.Root != "/tmp/exports" {
		t.Errorf("Output.Root = %q, expected /tmp/exports", cfg.Output.Root)
	}
	if !cfg.Debug {
		t.Error("Debug should be true")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("FIGURED_API_URL", "")
	t.Setenv("OUTPUT_ROOT", "")
	t.Setenv("RULES_PATH", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Figured.APIURL != "https://api.figured.com" {
		t.Errorf("APIURL = %q, expected the default endpoint", cfg.Figured.APIURL)
	}
	if cfg.Output.Root != "./export" {
		t.Errorf("Output.Root = %q, expected ./export", cfg.Output.Root)
	}
	if cfg.Output.RulesPath != "config/convert.yaml" {
		t.Errorf("RulesPath = %q, expected config/convert.yaml", cfg.Output.RulesPath)
	}
}

func TestLoadFromEnvFile(t *testing.T) {
	// godotenv never overrides variables already present, even when empty.
	// Setenv registers the restore, Unsetenv clears it for the load.
	t.Setenv("FARM_ID", "")
	os.Unsetenv("FARM_ID")

	path := filepath.Join(t.TempDir(), ".env")
	content := "FARM_ID=farm-from-file\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.Figured.FarmID != "farm-from-file" {
		t.Errorf("FarmID = %q, expected farm-from-file", cfg.Figured.FarmID)
	}
}

func TestLoadMissingEnvFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.env")); err == nil {
		t.Error("Load() should fail when an explicit .env file is missing")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Figured: FiguredConfig{
			FarmID:   "farm-1",
			ClientID: "client-id",
		},
		Output: OutputConfig{Root: "./export"},
	}

	if err := cfg.Validate("figured.farmId", "output.root"); err != nil {
		t.Errorf("Validate() returned error for present keys: %v", err)
	}

	err := cfg.Validate("figured.farmId", "figured.clientSecret", "figured.redirectUri")
	if err == nil {
		t.Fatal("Validate() should report missing keys")
	}
	if !strings.Contains(err.Error(), "figured.clientSecret") || !strings.Contains(err.Error(), "figured.redirectUri") {
		t.Errorf("error %q should name every missing key", err.Error())
	}
	if strings.Contains(err.Error(), "figured.farmId") {
		t.Errorf("error %q should not name present keys", err.Error())
	}

	// Unknown keys are ignored rather than failing validation
	if err := cfg.Validate("figured.unknown"); err != nil {
		t.Errorf("Validate() returned error for an unknown key: %v", err)
	}
}
