package logger

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestNewDefault(t *testing.T) {
	l := NewDefault()
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewInvalidLevel(t *testing.T) {
	l := New(Config{Level: "invalid-level", Format: "json"})
	if l == nil {
		t.Fatal("expected logger to be created even with invalid level")
	}
}

func TestNewSetsGlobalLevel(t *testing.T) {
	prev := zerolog.GlobalLevel()
	defer zerolog.SetGlobalLevel(prev)

	New(Config{Level: "warn", Format: "json"})
	if got := zerolog.GlobalLevel(); got != zerolog.WarnLevel {
		t.Errorf("global level = %v, want %v", got, zerolog.WarnLevel)
	}

	New(Config{Level: "debug", Format: "json"})
	if got := zerolog.GlobalLevel(); got != zerolog.DebugLevel {
		t.Errorf("global level = %v, want %v", got, zerolog.DebugLevel)
	}
}

func TestWithComponent(t *testing.T) {
	l := NewDefault()
	cl := l.WithComponent("transport")
	if cl == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestConfig_ApplyDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Level != "info" {
		t.Errorf("expected level info, got %q", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("expected format console, got %q", cfg.Format)
	}
	if cfg.Output != "stdout" {
		t.Errorf("expected output stdout, got %q", cfg.Output)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp enabled by default")
	}
}

func TestConfig_ValidateRejectsUnknownLevel(t *testing.T) {
	cfg := Config{Level: "loud", Format: "json", Output: "stdout"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestFields(t *testing.T) {
	m := Fields("item_key", "abc", "quantity", 3)
	if m["item_key"] != "abc" {
		t.Errorf("expected item_key=abc, got %v", m["item_key"])
	}
	if m["quantity"] != 3 {
		t.Errorf("expected quantity=3, got %v", m["quantity"])
	}
}

func TestFieldsOddArgs(t *testing.T) {
	m := Fields("only-key")
	if len(m) != 0 {
		t.Errorf("expected empty map for odd args, got %v", m)
	}
}
