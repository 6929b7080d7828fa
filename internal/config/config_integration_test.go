package config_test

import (
	"os"
	"path/filepath"
	"testing"

	appconfig "apollo67-api/internal/config"
	"apollo67-api/internal/svc"
)

func TestLoadAndServiceContext(t *testing.T) {
	dir := t.TempDir()

	marketYAML := []byte(`
providers:
  stub_primary:
    type: stub
  stub_fallback:
    type: stub
`)
	if err := os.WriteFile(filepath.Join(dir, "market.yaml"), marketYAML, 0o600); err != nil {
		t.Fatalf("write market.yaml: %v", err)
	}

	mainYAML := []byte("" +
		"Name: test\n" +
		"Host: 127.0.0.1\n" +
		"Port: 0\n" +
		"Env: local\n" +
		"DatabaseURL: sqlite://" + filepath.Join(dir, "test.db") + "\n" +
		"JournalDir: " + filepath.Join(dir, "journal") + "\n" +
		"TTL:\n  Short: 10\n  Medium: 60\n  Long: 300\n" +
		"Market:\n  File: market.yaml\n")

	mainPath := filepath.Join(dir, "apollo67.yaml")
	if err := os.WriteFile(mainPath, mainYAML, 0o600); err != nil {
		t.Fatalf("write main config: %v", err)
	}

	cfg, err := appconfig.Load(mainPath)
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	if cfg.Market.Value == nil {
		t.Fatalf("market section not hydrated")
	}

	sc := svc.NewServiceContext(*cfg)

	if len(sc.Providers) == 0 {
		t.Fatalf("no market providers built")
	}
	if sc.Primary == nil || sc.Fallback == nil {
		t.Fatalf("primary/fallback providers not wired")
	}
	if sc.Selector == nil {
		t.Fatalf("selector not initialised")
	}
	if sc.Ingest == nil || sc.Repos == nil {
		t.Fatalf("ingestion pipeline not initialised")
	}
	if sc.Cache != nil {
		t.Fatalf("redis cache should stay nil without a configured host")
	}
}
