package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/jenian/mpci/internal/validation"
)

// FileName is the name of the per plugin configuration file
const FileName = ".mpci.yml"

// Config represents the .mpci.yml configuration file
type Config struct {
	MissingStrings MissingStringsConfig `yaml:"missingstrings"`
}

// MissingStringsConfig holds the defaults of the missingstrings command.
// Pointers distinguish an absent value from an explicit false.
type MissingStringsConfig struct {
	Lang            string   `yaml:"lang"`
	Strict          *bool    `yaml:"strict"`
	Unused          *bool    `yaml:"unused"`
	ExcludePatterns []string `yaml:"exclude_patterns"` // Wildcard patterns of string keys to skip
	Checkers        []string `yaml:"checkers"`
	DefaultCheckers *bool    `yaml:"default_checkers"`
	Usage           *bool    `yaml:"usage"` // Scan PHP, mustache and AMD sources for string calls
	AppVersion      string   `yaml:"app_version"`
	IgnoreDirs      []string `yaml:"ignore_dirs"`  // Directory names skipped during discovery
	IgnoreFiles     []string `yaml:"ignore_files"` // Glob patterns of files skipped during discovery
}

// LoadConfig loads the .mpci.yml file from the specified directory
func LoadConfig(rootPath string) (*Config, error) {
	configPath := filepath.Join(rootPath, FileName)

	// No config file, return default config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return &Config{}, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &config, nil
}

// Apply overlays the file settings on cfg. Command line flags are applied
// afterwards by the caller, so they win.
func (c *Config) Apply(cfg validation.Config) validation.Config {
	ms := c.MissingStrings
	if ms.Lang != "" {
		cfg.Language = ms.Lang
	}
	if ms.Strict != nil {
		cfg.Strict = *ms.Strict
	}
	if ms.Unused != nil {
		cfg.CheckUnused = *ms.Unused
	}
	if len(ms.ExcludePatterns) > 0 {
		cfg.ExcludePatterns = append([]string(nil), ms.ExcludePatterns...)
	}
	if len(ms.Checkers) > 0 {
		cfg.CustomCheckers = append([]string(nil), ms.Checkers...)
	}
	if ms.DefaultCheckers != nil {
		cfg.UseDefaultCheckers = *ms.DefaultCheckers
	}
	if ms.Usage != nil {
		cfg.ScanUsage = *ms.Usage
	}
	if ms.AppVersion != "" {
		cfg.AppVersion = ms.AppVersion
	}
	cfg.IgnoreDirs = append(cfg.IgnoreDirs, ms.IgnoreDirs...)
	cfg.IgnoreFiles = append(cfg.IgnoreFiles, ms.IgnoreFiles...)
	return cfg
}

// Template is the content written by init-config
const Template = `# .mpci.yml
# Configuration file for mpci

missingstrings:
  # Language pack to validate against
  lang: en

  # Fail on warnings as well as errors
  strict: false

  # Report strings defined in the language file but never used
  unused: false

  # String keys that are never reported, * matches any run of characters
  exclude_patterns:
    # - task_*
    # - privacy:metadata:*

  # Checkers to run, on top of the default set unless default_checkers is false
  checkers:
    # - capabilities
    # - privacy

  default_checkers: true

  # Scan PHP, mustache and AMD sources for string calls
  usage: true

  # Directories and file globs skipped during discovery
  ignore_dirs:
    # - tests
  ignore_files:
    # - "*.min.js"
`

// WriteTemplate creates a default .mpci.yml in dir
func WriteTemplate(dir string) (string, error) {
	configPath := filepath.Join(dir, FileName)
	if _, err := os.Stat(configPath); err == nil {
		return "", fmt.Errorf("%s already exists in %s", FileName, dir)
	}
	if err := os.WriteFile(configPath, []byte(Template), 0644); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", FileName, err)
	}
	return configPath, nil
}
