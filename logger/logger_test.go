package logger

import (
	"strings"
	"testing"
)

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" {
		t.Errorf("expected level 'info', got %q", cfg.Level)
	}
	if cfg.Format != "console" {
		t.Errorf("expected format 'console', got %q", cfg.Format)
	}
	if !cfg.Timestamp {
		t.Error("expected timestamp enabled by default")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "debug", Format: "json"}, false},
		{"bad level", Config{Level: "loud", Format: "json"}, true},
		{"bad format", Config{Level: "info", Format: "xml"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestFields(t *testing.T) {
	m := Fields("backend", "native", "elements", 512)
	if m["backend"] != "native" {
		t.Errorf("expected backend=native, got %v", m["backend"])
	}
	if m["elements"] != 512 {
		t.Errorf("expected elements=512, got %v", m["elements"])
	}
}

func TestFields_OddArguments(t *testing.T) {
	m := Fields("only_key")
	if len(m) != 0 {
		t.Errorf("expected empty map for dangling key, got %v", m)
	}
}

func TestErrorFields(t *testing.T) {
	m := ErrorFields("sum", errTest("boom"))
	if m[FieldOperation] != "sum" {
		t.Errorf("expected operation field, got %v", m)
	}
	if !strings.Contains(m[FieldError].(string), "boom") {
		t.Errorf("expected error message, got %v", m)
	}
}

type errTest string

func (e errTest) Error() string { return string(e) }

func TestNop_Silent(t *testing.T) {
	l := Nop()
	// Must not panic and must not write anywhere.
	l.Debug("ignored")
	l.Error("ignored", Fields("k", "v"))
}

func TestGet_TagsComponent(t *testing.T) {
	l := Get("backend")
	if l == nil {
		t.Fatal("expected component logger")
	}
}
