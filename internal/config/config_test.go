package config

import (
	"os"
	"testing"
)

func clearEnv(t *testing.T, keys ...string) {
	for _, k := range keys {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t, "HOST", "PORT", "CORS_ORIGINS", "RATE_LIMIT", "TRUSTED_PROXIES")
	cfg := LoadConfig()
	if cfg.Host != DefaultHost {
		t.Errorf("expected default host, got %q", cfg.Host)
	}
	if cfg.Port != DefaultPort {
		t.Errorf("expected default port, got %q", cfg.Port)
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("expected default config to validate, got %v", err)
	}
}

func TestValidateConfigRejectsNonNumericPort(t *testing.T) {
	cfg := LoadConfig()
	cfg.Port = "not-a-port"
	if err := ValidateConfig(cfg); err == nil {
		t.Error("expected error for non-numeric port")
	}
}

func TestValidateConfigRejectsBadCORSOrigin(t *testing.T) {
	cfg := LoadConfig()
	cfg.CORSOrigins = []string{"not-a-url"}
	if err := ValidateConfig(cfg); err == nil {
		t.Error("expected error for invalid CORS origin")
	}
}

func TestValidateConfigAllowsWildcardCORS(t *testing.T) {
	cfg := LoadConfig()
	cfg.CORSOrigins = []string{"*"}
	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("expected wildcard CORS origin to validate, got %v", err)
	}
}

func TestValidateConfigTrustedProxies(t *testing.T) {
	cfg := LoadConfig()
	cfg.TrustedProxies = []string{"127.0.0.1", "::1", "10.0.0.0/8"}
	if err := ValidateConfig(cfg); err != nil {
		t.Errorf("expected trusted proxies to be valid, got %v", err)
	}

	cfg.TrustedProxies = []string{"invalid-proxy-value"}
	if err := ValidateConfig(cfg); err == nil {
		t.Error("expected error for invalid trusted proxy")
	}
}

func TestValidateConfigRejectsBadCreditStoreBackend(t *testing.T) {
	cfg := LoadConfig()
	cfg.CreditStoreEnabled = true
	cfg.CreditStoreBackend = "mongo"
	if err := ValidateConfig(cfg); err == nil {
		t.Error("expected error for unsupported credit store backend")
	}
}

func TestSplitCSVTrimsAndDropsEmpty(t *testing.T) {
	got := splitCSV(" a , b ,, c")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
