package internal

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func envMap(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := values[key]
		return v, ok
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig("/data", "", nil, envMap(nil))
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	if cfg.BackendURL != DefaultBackendURL {
		t.Errorf("BackendURL = %v, want %v", cfg.BackendURL, DefaultBackendURL)
	}
	if cfg.StoreDriver != StoreSQLite {
		t.Errorf("StoreDriver = %v, want %v", cfg.StoreDriver, StoreSQLite)
	}
	if cfg.DataDir != "/data" {
		t.Errorf("DataDir = %v, want /data", cfg.DataDir)
	}
	if cfg.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("RequestTimeout = %v, want %v", cfg.RequestTimeout, DefaultRequestTimeout)
	}
	if cfg.UseGuidance != nil {
		t.Errorf("UseGuidance = %v, want nil", *cfg.UseGuidance)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	dir := t.TempDir()

	configPath := filepath.Join(dir, "config.yaml")
	yamlData := "backend_url: http://yaml:8000/\nstore: badger\nrequest_timeout: 3s\nwelcome_text: Hi there\n"
	if err := os.WriteFile(configPath, []byte(yamlData), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	envPath := filepath.Join(dir, ".env")
	envData := "HORIZON_STORE=memory\nHORIZON_USE_GUIDANCE=true\n"
	if err := os.WriteFile(envPath, []byte(envData), 0644); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}

	env := envMap(map[string]string{
		EnvBackendURL: "http://env:9000/",
	})

	cfg, err := loadConfig(dir, configPath, []string{envPath}, env)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}

	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"backend from env, slash trimmed", cfg.BackendURL, "http://env:9000"},
		{"store from .env over yaml", cfg.StoreDriver, StoreMemory},
		{"timeout from yaml", cfg.RequestTimeout, 3 * time.Second},
		{"welcome from yaml", cfg.WelcomeText, "Hi there"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if cfg.UseGuidance == nil || !*cfg.UseGuidance {
		t.Errorf("UseGuidance = %v, want true", cfg.UseGuidance)
	}
}

func TestLoadConfigMissingEnvFileIgnored(t *testing.T) {
	missing := filepath.Join(t.TempDir(), ".env")
	if _, err := loadConfig("/data", "", []string{missing}, envMap(nil)); err != nil {
		t.Errorf("loadConfig() error = %v, want nil for missing .env", err)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()
	badYAML := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(badYAML, []byte("backend_url: [unterminated\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	tests := []struct {
		name       string
		configPath string
		env        map[string]string
	}{
		{"missing config file", filepath.Join(dir, "nope.yaml"), nil},
		{"malformed yaml", badYAML, nil},
		{"bad timeout", "", map[string]string{EnvRequestTimeout: "soon"}},
		{"bad guidance flag", "", map[string]string{EnvUseGuidance: "maybe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadConfig(dir, tt.configPath, nil, envMap(tt.env)); err == nil {
				t.Error("loadConfig() error = nil, want error")
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad url", func(c *Config) { c.BackendURL = "not a url" }, true},
		{"unknown store", func(c *Config) { c.StoreDriver = "redis" }, true},
		{"sqlite needs data dir", func(c *Config) { c.DataDir = "" }, true},
		{"memory needs no data dir", func(c *Config) { c.DataDir = ""; c.StoreDriver = StoreMemory }, false},
		{"negative timeout", func(c *Config) { c.RequestTimeout = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig("/data")
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
