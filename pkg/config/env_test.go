package config

import (
	"testing"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_GET_ENV_VAR", "test_value")

	got := GetEnv("TEST_GET_ENV_VAR", "default")
	if got != "test_value" {
		t.Errorf("GetEnv() = %v, want %v", got, "test_value")
	}

	got = GetEnv("NON_EXISTING_VAR", "default_value")
	if got != "default_value" {
		t.Errorf("GetEnv() = %v, want %v", got, "default_value")
	}
}

func TestGetEnvironment(t *testing.T) {
	tests := []struct {
		envValue string
		want     string
	}{
		{"development", "development"},
		{"DEVELOPMENT", "development"},
		{"production", "production"},
		{"Staging", "staging"},
		{"", "development"},
	}

	for _, tt := range tests {
		t.Run(tt.envValue, func(t *testing.T) {
			t.Setenv("DOCINTAKE_SERVER_ENVIRONMENT", tt.envValue)
			if got := GetEnvironment(); got != tt.want {
				t.Errorf("GetEnvironment() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsDevelopment(t *testing.T) {
	t.Setenv("DOCINTAKE_SERVER_ENVIRONMENT", "development")
	if !IsDevelopment() {
		t.Error("IsDevelopment() should be true in development")
	}

	t.Setenv("DOCINTAKE_SERVER_ENVIRONMENT", "production")
	if IsDevelopment() {
		t.Error("IsDevelopment() should be false in production")
	}
}

func TestIsProductionLike(t *testing.T) {
	for env, want := range map[string]bool{
		"production":  true,
		"staging":     true,
		"development": false,
	} {
		t.Setenv("DOCINTAKE_SERVER_ENVIRONMENT", env)
		if got := IsProductionLike(); got != want {
			t.Errorf("IsProductionLike() in %s = %v, want %v", env, got, want)
		}
	}
}
