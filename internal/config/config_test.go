package config

import "testing"

func TestValidate_AcceptsKnownLogLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "warning", "error"} {
		s := Settings{LogLevel: level, LogFormat: "text"}
		if err := s.Validate(); err != nil {
			t.Errorf("Validate() with log_level=%q: %v", level, err)
		}
	}
}

func TestValidate_RejectsUnknownLogLevel(t *testing.T) {
	s := Settings{LogLevel: "verbose", LogFormat: "text"}
	if err := s.Validate(); err == nil {
		t.Fatal("expected an error for an unrecognized log_level")
	}
}

func TestValidate_AcceptsKnownLogFormats(t *testing.T) {
	for _, format := range []string{"text", "json"} {
		s := Settings{LogLevel: "info", LogFormat: format}
		if err := s.Validate(); err != nil {
			t.Errorf("Validate() with log_format=%q: %v", format, err)
		}
	}
}

func TestValidate_RejectsUnknownLogFormat(t *testing.T) {
	s := Settings{LogLevel: "info", LogFormat: "xml"}
	if err := s.Validate(); err == nil {
		t.Fatal("expected an error for an unrecognized log_format")
	}
}

func TestInit_SetsDefaults(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("Init() error: %v", err)
	}
	s, err := Get()
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if s.LogLevel != "info" {
		t.Errorf("default log_level = %q, want %q", s.LogLevel, "info")
	}
	if s.LogFormat != "text" {
		t.Errorf("default log_format = %q, want %q", s.LogFormat, "text")
	}
}
