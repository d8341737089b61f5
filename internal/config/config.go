package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
	k8syaml "sigs.k8s.io/yaml"
)

// DefaultConfigFile is looked up in the working directory when no
// configuration file is given explicitly.
const DefaultConfigFile = "os-image-streams.yml"

//go:embed schema/global.schema.json
var globalSchemaText string

var globalSchema = jsonschema.MustCompileString("global.schema.json", globalSchemaText)

// GlobalConfig holds the tool-wide settings.
type GlobalConfig struct {
	RootDir     string        `yaml:"root_dir"`
	ReportDir   string        `yaml:"report_dir"`
	LockTimeout string        `yaml:"lock_timeout"`
	Progress    bool          `yaml:"progress"`
	Logging     LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds the logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultGlobalConfig returns the configuration used when no file exists.
func DefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		LockTimeout: "30s",
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadGlobalConfig reads the configuration at path. An empty path means
// DefaultConfigFile in the working directory, and a missing default file
// yields DefaultGlobalConfig.
func LoadGlobalConfig(path string) (*GlobalConfig, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return DefaultGlobalConfig(), nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg, err := parseGlobalConfig(data)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func parseGlobalConfig(data []byte) (*GlobalConfig, error) {
	if err := validateGlobalConfig(data); err != nil {
		return nil, err
	}

	cfg := DefaultGlobalConfig()
	if len(bytes.TrimSpace(data)) == 0 {
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing yaml: %w", err)
	}
	if _, err := cfg.LockTimeoutDuration(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validateGlobalConfig checks the YAML document against the embedded
// JSON schema.
func validateGlobalConfig(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	jsonData, err := k8syaml.YAMLToJSON(data)
	if err != nil {
		return fmt.Errorf("parsing yaml: %w", err)
	}

	var doc any
	dec := json.NewDecoder(bytes.NewReader(jsonData))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	if doc == nil {
		return nil
	}
	if err := globalSchema.Validate(doc); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// LockTimeoutDuration parses LockTimeout.
func (c *GlobalConfig) LockTimeoutDuration() (time.Duration, error) {
	if c.LockTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.LockTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid lock_timeout %q: %w", c.LockTimeout, err)
	}
	return d, nil
}

var (
	globalMu     sync.RWMutex
	globalConfig = DefaultGlobalConfig()
)

// SetGlobal replaces the process-wide configuration.
func SetGlobal(cfg *GlobalConfig) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig = cfg
}

// Global returns the process-wide configuration.
func Global() *GlobalConfig {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalConfig
}
