package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jenian/mpci/internal/checkers"
)

// Option keys understood by NewConfig
const (
	OptionLanguage        = "lang"
	OptionStrict          = "strict"
	OptionUnused          = "unused"
	OptionExcludePatterns = "exclude-patterns"
	OptionCheckers        = "checkers"
	OptionDefaultCheckers = "default-checkers"
	OptionUsage           = "usage"
	OptionDebug           = "debug"
	OptionAppVersion      = "app-version"
)

// Config controls one validation run
type Config struct {
	Language           string
	Strict             bool // Unused strings fail the run; applied by IsValid only
	CheckUnused        bool
	ExcludePatterns    []string // Wildcard patterns, * matches any run of characters
	CustomCheckers     []string
	UseDefaultCheckers bool
	ScanUsage          bool // Scan PHP, templates and AMD modules for string lookups
	Debug              bool // Log checker timings and cache statistics
	AppVersion         string
	IgnoreDirs         []string // Extra directory names skipped by discovery
	IgnoreFiles        []string // Glob patterns of files skipped by discovery
}

// DefaultConfig returns the configuration used when no option is given
func DefaultConfig() Config {
	return Config{
		Language:           "en",
		UseDefaultCheckers: true,
		ScanUsage:          true,
	}
}

// NewConfig builds a configuration from raw key-value options as received
// from the command layer. Lists are comma separated.
func NewConfig(options map[string]string) (Config, error) {
	return DefaultConfig().WithOptions(options)
}

// WithOptions returns a copy of cfg with the raw options applied on top
func (c Config) WithOptions(options map[string]string) (Config, error) {
	cfg := c
	for key, value := range options {
		var err error
		switch key {
		case OptionLanguage:
			if value = strings.TrimSpace(value); value != "" {
				cfg.Language = value
			}
		case OptionStrict:
			cfg.Strict, err = parseBool(value)
		case OptionUnused:
			cfg.CheckUnused, err = parseBool(value)
		case OptionExcludePatterns:
			cfg.ExcludePatterns = SplitList(value)
		case OptionCheckers:
			cfg.CustomCheckers = SplitList(value)
		case OptionDefaultCheckers:
			cfg.UseDefaultCheckers, err = parseBool(value)
		case OptionUsage:
			cfg.ScanUsage, err = parseBool(value)
		case OptionDebug:
			cfg.Debug, err = parseBool(value)
		case OptionAppVersion:
			cfg.AppVersion = strings.TrimSpace(value)
		default:
			return Config{}, fmt.Errorf("unknown option %q", key)
		}
		if err != nil {
			return Config{}, fmt.Errorf("invalid value for option %s: %w", key, err)
		}
	}
	return cfg, nil
}

// A bare flag means true
func parseBool(value string) (bool, error) {
	if strings.TrimSpace(value) == "" {
		return true, nil
	}
	return strconv.ParseBool(strings.TrimSpace(value))
}

// SplitList splits a comma separated list, dropping blanks
func SplitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

// WildcardRegexp compiles a wildcard pattern into an anchored regular
// expression. * matches any run of characters, everything else is literal.
func WildcardRegexp(pattern string) *regexp.Regexp {
	parts := strings.Split(pattern, "*")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.MustCompile(`(?s)^` + strings.Join(parts, ".*") + `$`)
}

// MatchesWildcard reports whether key matches any of the wildcard patterns
func MatchesWildcard(key string, patterns []string) bool {
	for _, pattern := range patterns {
		if WildcardRegexp(pattern).MatchString(key) {
			return true
		}
	}
	return false
}

// ShouldExcludeString reports whether key matches one of the exclusion
// patterns. Matching is case sensitive; an empty pattern matches only the
// empty key.
func (c Config) ShouldExcludeString(key string) bool {
	return MatchesWildcard(key, c.ExcludePatterns)
}

// Checkers returns the checkers selected by the configuration. The default
// set already contains every named checker, custom names are still validated.
func (c Config) Checkers() ([]checkers.Checker, error) {
	var custom []checkers.Checker
	if len(c.CustomCheckers) > 0 {
		var err error
		if custom, err = checkers.ByName(c.CustomCheckers); err != nil {
			return nil, err
		}
	}
	if c.UseDefaultCheckers {
		return checkers.All(), nil
	}
	return custom, nil
}
