package internal

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by LoadConfig
const (
	EnvBackendURL     = "HORIZON_BACKEND_URL"
	EnvStore          = "HORIZON_STORE"
	EnvDataDir        = "HORIZON_DATA_DIR"
	EnvRequestTimeout = "HORIZON_REQUEST_TIMEOUT"
	EnvUseGuidance    = "HORIZON_USE_GUIDANCE"
	EnvWelcomeText    = "HORIZON_WELCOME_TEXT"
)

// DefaultRequestTimeout bounds the non-streaming backend calls
const DefaultRequestTimeout = 15 * time.Second

var configValidate = validator.New()

// Config holds client settings
type Config struct {
	BackendURL     string        `yaml:"backend_url" validate:"required,url"`
	StoreDriver    string        `yaml:"store" validate:"oneof=sqlite badger memory"`
	DataDir        string        `yaml:"data_dir" validate:"required_unless=StoreDriver memory"`
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"gte=0"`
	UseGuidance    *bool         `yaml:"use_guidance,omitempty"`
	WelcomeText    string        `yaml:"welcome_text,omitempty"`
}

// DefaultConfig returns the settings used when nothing is configured
func DefaultConfig(dataDir string) *Config {
	return &Config{
		BackendURL:     DefaultBackendURL,
		StoreDriver:    StoreSQLite,
		DataDir:        dataDir,
		RequestTimeout: DefaultRequestTimeout,
		WelcomeText:    DefaultWelcomeText,
	}
}

// LoadConfig builds the configuration from defaults, the YAML config file,
// .env files and the environment, later sources winning. configPath may be
// empty to use config.yaml in the data directory when present.
func LoadConfig(configPath string) (*Config, error) {
	dataDir := ""
	paths, err := DetectDataPaths()
	if err != nil {
		LogWarn("Could not detect data directory: %v", err)
	} else {
		dataDir = paths.BasePath
	}
	if dir := os.Getenv(EnvDataDir); dir != "" {
		paths = NewDataPaths(dir)
		dataDir = dir
	}

	if configPath == "" && paths.HasConfigFile() {
		configPath = paths.ConfigFile
	}
	return loadConfig(dataDir, configPath, []string{".env", paths.EnvFile}, os.LookupEnv)
}

func loadConfig(dataDir, configPath string, envFiles []string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := DefaultConfig(dataDir)

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &ParseError{Source: "config", Key: configPath, Err: err}
		}
		LogDebug("Loaded config from %s", configPath)
	}

	dotenv := make(map[string]string)
	for _, file := range envFiles {
		if file == "" {
			continue
		}
		values, err := godotenv.Read(file)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, &ParseError{Source: "env", Key: file, Err: err}
		}
		for k, v := range values {
			if _, seen := dotenv[k]; !seen {
				dotenv[k] = v
			}
		}
	}

	get := func(key string) (string, bool) {
		if v, ok := lookup(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok && v != ""
	}

	if v, ok := get(EnvBackendURL); ok {
		cfg.BackendURL = v
	}
	if v, ok := get(EnvStore); ok {
		cfg.StoreDriver = strings.ToLower(v)
	}
	if v, ok := get(EnvDataDir); ok {
		cfg.DataDir = v
	}
	if v, ok := get(EnvRequestTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvRequestTimeout, err)
		}
		cfg.RequestTimeout = d
	}
	if v, ok := get(EnvUseGuidance); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvUseGuidance, err)
		}
		cfg.UseGuidance = &b
	}
	if v, ok := get(EnvWelcomeText); ok {
		cfg.WelcomeText = v
	}

	cfg.Normalize()
	return cfg, nil
}

// Normalize trims the backend URL's trailing slash and fills empty fields
func (c *Config) Normalize() {
	c.BackendURL = normalizeBaseURL(c.BackendURL)
	if c.StoreDriver == "" {
		c.StoreDriver = StoreSQLite
	}
	if c.WelcomeText == "" {
		c.WelcomeText = DefaultWelcomeText
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if err := configValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
