package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoad_OverlaysOntoDefaults(t *testing.T) {
	yamlDoc := `
host: 127.0.0.1
port: 2056
packetTimeout: 30m
debug: true
`
	cfg, err := Load(strings.NewReader(yamlDoc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Host != "127.0.0.1" {
		t.Errorf("expected host 127.0.0.1, got %s", cfg.Host)
	}
	if cfg.Port != 2056 {
		t.Errorf("expected port 2056, got %d", cfg.Port)
	}
	if cfg.PacketTimeout != 30*time.Minute {
		t.Errorf("expected packetTimeout 30m, got %s", cfg.PacketTimeout)
	}
	if !cfg.Debug {
		t.Errorf("expected debug true")
	}
	// Untouched defaults survive the overlay.
	if cfg.MetricsAddr != ":9090" {
		t.Errorf("expected default metricsAddr :9090 to survive, got %s", cfg.MetricsAddr)
	}
	if cfg.Shards != 4 {
		t.Errorf("expected default shards 4 to survive, got %d", cfg.Shards)
	}
}

func TestLoad_UnknownFieldRejected(t *testing.T) {
	_, err := Load(strings.NewReader("bogusField: true\n"))
	if err == nil {
		t.Fatalf("expected an error for an unknown config field")
	}
}

func TestLoadFile_MissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := LoadFile("/nonexistent/path/to/config.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("expected Default() for a missing file, got %+v", cfg)
	}
}

func TestListenAddr(t *testing.T) {
	cfg := Config{Host: "0.0.0.0", Port: 2055}
	if cfg.ListenAddr() != "0.0.0.0:2055" {
		t.Errorf("unexpected listen addr: %s", cfg.ListenAddr())
	}
}
