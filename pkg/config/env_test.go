package config

import (
	"testing"
	"time"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("AUTHENTIFY_TEST_STR", "value")
	if got := GetEnv("AUTHENTIFY_TEST_STR", "fallback"); got != "value" {
		t.Errorf("GetEnv = %q, want %q", got, "value")
	}
	if got := GetEnv("AUTHENTIFY_TEST_UNSET", "fallback"); got != "fallback" {
		t.Errorf("GetEnv fallback = %q, want %q", got, "fallback")
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"valid int", "42", 42},
		{"invalid int", "not-a-number", 7},
		{"empty", "", 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value != "" {
				t.Setenv("AUTHENTIFY_TEST_INT", tt.value)
			}
			if got := GetEnvInt("AUTHENTIFY_TEST_INT", 7); got != tt.want {
				t.Errorf("GetEnvInt = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("AUTHENTIFY_TEST_BOOL", "true")
	if !GetEnvBool("AUTHENTIFY_TEST_BOOL", false) {
		t.Error("GetEnvBool = false, want true")
	}
	t.Setenv("AUTHENTIFY_TEST_BOOL", "garbage")
	if GetEnvBool("AUTHENTIFY_TEST_BOOL", false) {
		t.Error("GetEnvBool on garbage should use default")
	}
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("AUTHENTIFY_TEST_DUR", "90s")
	if got := GetEnvDuration("AUTHENTIFY_TEST_DUR", time.Minute); got != 90*time.Second {
		t.Errorf("GetEnvDuration = %v, want 90s", got)
	}
	t.Setenv("AUTHENTIFY_TEST_DUR", "bogus")
	if got := GetEnvDuration("AUTHENTIFY_TEST_DUR", time.Minute); got != time.Minute {
		t.Errorf("GetEnvDuration on garbage = %v, want default", got)
	}
}
