package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	// Set required env vars
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Devices.MaxDevices != 3 {
		t.Errorf("MaxDevices: got %d, want 3", cfg.Devices.MaxDevices)
	}
	if cfg.Streams.HeartbeatInterval != 30*time.Second {
		t.Errorf("HeartbeatInterval: got %v, want 30s", cfg.Streams.HeartbeatInterval)
	}
	if cfg.RateLimit.MaxRequests != 5 {
		t.Errorf("RateLimit.MaxRequests: got %d, want 5", cfg.RateLimit.MaxRequests)
	}
	if cfg.RateLimit.Window != 1*time.Minute {
		t.Errorf("RateLimit.Window: got %v, want 1m", cfg.RateLimit.Window)
	}
	if cfg.RateLimit.Backend != "memory" {
		t.Errorf("RateLimit.Backend: got %q, want memory", cfg.RateLimit.Backend)
	}
	if cfg.Email.Enabled {
		t.Error("Email.Enabled: got true, want false")
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("MAX_DEVICES", "5")
	os.Setenv("HEARTBEAT_INTERVAL", "45s")
	os.Setenv("RATE_LIMIT_MAX", "10")
	os.Setenv("RATE_LIMIT_WINDOW", "30s")
	os.Setenv("RATE_LIMIT_BACKEND", "redis")
	os.Setenv("REDIS_ADDR", "redis:6379")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Devices.MaxDevices != 5 {
		t.Errorf("MaxDevices: got %d, want 5", cfg.Devices.MaxDevices)
	}
	if cfg.Streams.HeartbeatInterval != 45*time.Second {
		t.Errorf("HeartbeatInterval: got %v, want 45s", cfg.Streams.HeartbeatInterval)
	}
	if cfg.RateLimit.MaxRequests != 10 {
		t.Errorf("RateLimit.MaxRequests: got %d, want 10", cfg.RateLimit.MaxRequests)
	}
	if cfg.RateLimit.Window != 30*time.Second {
		t.Errorf("RateLimit.Window: got %v, want 30s", cfg.RateLimit.Window)
	}
	if cfg.RateLimit.Backend != "redis" {
		t.Errorf("RateLimit.Backend: got %q, want redis", cfg.RateLimit.Backend)
	}
	if cfg.RateLimit.RedisAddr != "redis:6379" {
		t.Errorf("RateLimit.RedisAddr: got %q, want redis:6379", cfg.RateLimit.RedisAddr)
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Error("Load() = nil, want error for missing JWT_SECRET")
	}
}

func TestLoad_MissingDBPassword(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Error("Load() = nil, want error for missing DB_PASSWORD")
	}
}

func TestLoad_InvalidMaxDevices(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("MAX_DEVICES", "0")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Error("Load() = nil, want error for MAX_DEVICES=0")
	}
}

func TestLoad_InvalidRateLimitBackend(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("RATE_LIMIT_BACKEND", "memcached")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Error("Load() = nil, want error for unknown RATE_LIMIT_BACKEND")
	}
}

func TestLoad_EmailEnabledRequiresFrom(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("EMAIL_ENABLED", "true")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Error("Load() = nil, want error for EMAIL_ENABLED without EMAIL_FROM")
	}
}

func TestValidateJWTSecret(t *testing.T) {
	tests := []struct {
		name    string
		secret  string
		env     string
		wantErr bool
	}{
		{"dev short secret", "0123456789abcdef", "development", false},
		{"dev too short", "short", "development", true},
		{"prod requires 32 chars", "0123456789abcdef", "production", true},
		{"prod strong secret", "0123456789abcdef0123456789abcdef", "production", false},
		{"weak common value", "changeme", "development", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateJWTSecret(tt.secret, tt.env)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateJWTSecret(%q, %q) = %v, wantErr %v", tt.secret, tt.env, err, tt.wantErr)
			}
		})
	}
}
