package batchflow_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xraph/batchflow"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "batchflow.yaml")
	data := []byte(`
queue_capacity: 128
shutdown_timeout: 10s
attempt_timeout: 2m
resource:
  enabled: true
  max_memory_percent: 70
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := batchflow.LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.QueueCapacity != 128 {
		t.Errorf("QueueCapacity = %d, want 128", cfg.QueueCapacity)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.ShutdownTimeout)
	}
	if cfg.AttemptTimeout != 2*time.Minute {
		t.Errorf("AttemptTimeout = %v, want 2m", cfg.AttemptTimeout)
	}
	if !cfg.Resource.Enabled {
		t.Error("Resource.Enabled = false, want true")
	}
	if cfg.Resource.MaxMemoryPercent != 70 {
		t.Errorf("Resource.MaxMemoryPercent = %v, want 70", cfg.Resource.MaxMemoryPercent)
	}

	// Unset keys keep their defaults.
	if cfg.AdmissionInterval != 500*time.Millisecond {
		t.Errorf("AdmissionInterval = %v, want default 500ms", cfg.AdmissionInterval)
	}
	if cfg.MaxConcurrentBatches != 4 {
		t.Errorf("MaxConcurrentBatches = %d, want default 4", cfg.MaxConcurrentBatches)
	}
	if cfg.Resource.MaxCPUPercent != 90 {
		t.Errorf("Resource.MaxCPUPercent = %v, want default 90", cfg.Resource.MaxCPUPercent)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := batchflow.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
