package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// TestSecureHandler_SanitizesSensitiveKeys tests that sensitive keys are sanitized.
func TestSecureHandler_SanitizesSensitiveKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		value    string
		wantMask bool
	}{
		{"signer key is sanitized", "signer", "Mario Rossi", true},
		{"Signer_Name key is sanitized", "Signer_Name", "Mario Rossi", true},
		{"name key is sanitized", "name", "Giulia Bianchi", true},
		{"path key is sanitized", "path", "/cases/rossi/q.png", true},
		{"label key is sanitized", "label", "rossi_contract.png", true},
		{"contact_email key is sanitized", "contact_email", "not-an-address", true},
		{"password key is sanitized", "password", "hunter2", true},
		{"image key is NOT sanitized", "image", "3f2b8c1e-1d2a-5b7c-9e0f-a1b2c3d4e5f6", false},
		{"project key is NOT sanitized", "project", "case-17", false},
		{"step key is NOT sanitized", "step", "calibrate", false},
		{"feature_name key is NOT sanitized", "feature_name", "loop_convexity", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewSecureLogger(&buf, true)

			logger.Info("test message", tt.key, tt.value)

			output := buf.String()

			if tt.wantMask {
				if strings.Contains(output, tt.value) {
					t.Errorf("expected value %q to be masked, but found in output: %s", tt.value, output)
				}
				if !strings.Contains(output, MaskValue) {
					t.Errorf("expected mask value %q in output, but not found: %s", MaskValue, output)
				}
			} else if !strings.Contains(output, tt.value) {
				t.Errorf("expected value %q to be present in output, but not found: %s", tt.value, output)
			}
		})
	}
}

// TestSecureHandler_SanitizesSensitivePatterns tests that values matching sensitive patterns are sanitized.
func TestSecureHandler_SanitizesSensitivePatterns(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
	}{
		{"email address", "mario.rossi@example.it"},
		{"fiscal code", "RSSMRA85T10A562S"},
		{"lowercase fiscal code", "rssmra85t10a562s"},
		{"iban", "IT60X0542811101000000123456"},
		{"bearer token", "Bearer abc.def"},
		{"jwt", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.sig"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewSecureLogger(&buf, true)

			logger.Info("test message", "note", tt.value)

			output := buf.String()
			if strings.Contains(output, tt.value) {
				t.Errorf("expected value %q to be masked, but found in output: %s", tt.value, output)
			}
		})
	}
}

// TestSecureHandler_LogLevels tests that verbose selects the level.
func TestSecureHandler_LogLevels(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		verbose    bool
		logLevel   slog.Level
		shouldShow bool
	}{
		{"debug message shown in verbose mode", true, slog.LevelDebug, true},
		{"debug message hidden in non-verbose mode", false, slog.LevelDebug, false},
		{"info message hidden in non-verbose mode", false, slog.LevelInfo, false},
		{"warn message shown in non-verbose mode", false, slog.LevelWarn, true},
		{"error message shown in non-verbose mode", false, slog.LevelError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewSecureLogger(&buf, tt.verbose)

			testMsg := "test_unique_message_12345"
			logger.Log(t.Context(), tt.logLevel, testMsg)

			hasMessage := strings.Contains(buf.String(), testMsg)
			if tt.shouldShow != hasMessage {
				t.Errorf("expected shown=%v, got output: %s", tt.shouldShow, buf.String())
			}
		})
	}
}

// TestSecureHandler_WithAttrs tests that WithAttrs sanitizes attributes.
func TestSecureHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, true)

	logger.With("signer", "Mario Rossi").Info("test message")

	output := buf.String()
	if strings.Contains(output, "Mario Rossi") {
		t.Errorf("expected signer to be masked in WithAttrs, but found in output: %s", output)
	}
	if !strings.Contains(output, MaskValue) {
		t.Errorf("expected mask value in output, but not found: %s", output)
	}
}

// TestSecureHandler_WithGroup tests that grouped attributes are sanitized.
func TestSecureHandler_WithGroup(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, true)

	logger.WithGroup("image").Info("test message",
		"role", "questioned",
		slog.Group("source", "path", "/cases/rossi/q.png"),
	)

	output := buf.String()
	if !strings.Contains(output, "questioned") {
		t.Errorf("expected role to be visible, but not found in output: %s", output)
	}
	if strings.Contains(output, "/cases/rossi/q.png") {
		t.Errorf("expected path to be masked, but found in output: %s", output)
	}
}

// TestNewSecureJSONLogger tests JSON logger creation.
func TestNewSecureJSONLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureJSONLogger(&buf, false)

	logger.Warn("test message", "email", "someone@example.com")

	output := buf.String()
	if !strings.HasPrefix(output, "{") {
		t.Errorf("expected JSON format, but got: %s", output)
	}
	if strings.Contains(output, "someone@example.com") {
		t.Errorf("expected email to be masked, but found in output: %s", output)
	}
}

// TestContainsSensitiveKeyword tests the containsSensitiveKeyword helper.
func TestContainsSensitiveKeyword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  string
		want bool
	}{
		{"signer_id", true},
		{"db_password", true},
		{"fiscalcode", true},
		{"work_phone", true},
		{"feature_name", false},
		{"image", false},
		{"stage", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Parallel()

			if got := containsSensitiveKeyword(tt.key); got != tt.want {
				t.Errorf("containsSensitiveKeyword(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

// TestNewSecureHandler_NilHandler tests that a nil handler falls back to the default.
func TestNewSecureHandler_NilHandler(t *testing.T) {
	t.Parallel()

	h := NewSecureHandler(nil)
	if h.handler == nil {
		t.Error("expected default handler, got nil")
	}
}

// TestIsSensitiveValue tests the isSensitiveValue helper.
func TestIsSensitiveValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		want  bool
	}{
		{"a@b.co", true},
		{" RSSMRA85T10A562S ", true},
		{"case-17", false},
		{"Authentic", false},
		{"3f2b8c1e-1d2a-5b7c-9e0f-a1b2c3d4e5f6", false},
		{"0.8731", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()

			if got := isSensitiveValue(tt.value); got != tt.want {
				t.Errorf("isSensitiveValue(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}
