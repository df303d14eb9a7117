package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitRunResolvesConfigOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctios.yaml")
	content := `
service:
  max_batch_size: 4
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	oldConfigPath, oldCfg, oldLogger := configPath, cfg, logger
	defer func() { configPath, cfg, logger = oldConfigPath, oldCfg, oldLogger }()
	configPath = path

	if err := initRun(enrichCmd, nil); err != nil {
		t.Fatalf("initRun failed: %v", err)
	}

	// The hook must leave both the config and the logger ready for the
	// command body; runEnrich does not load the file again.
	if cfg == nil {
		t.Fatal("cfg not resolved by initRun")
	}
	if cfg.Service.MaxBatchSize != 4 {
		t.Errorf("MaxBatchSize = %d, want 4", cfg.Service.MaxBatchSize)
	}
	if logger == nil {
		t.Fatal("logger not built by initRun")
	}
}

func TestInitRunBadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ctios.yaml")
	if err := os.WriteFile(path, []byte("service: ["), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	oldConfigPath, oldCfg, oldLogger := configPath, cfg, logger
	defer func() { configPath, cfg, logger = oldConfigPath, oldCfg, oldLogger }()
	configPath = path

	if err := initRun(enrichCmd, nil); err == nil {
		t.Fatal("initRun should fail on a malformed config file")
	}
}
