package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jenian/mpci/internal/config"
	"github.com/jenian/mpci/internal/filecache"
	"github.com/jenian/mpci/internal/output"
	"github.com/jenian/mpci/internal/parser"
	"github.com/jenian/mpci/internal/plugin"
	"github.com/jenian/mpci/internal/validation"
)

// Version is set at build time via -ldflags
var Version = "dev"

// maxWorkers bounds the number of plugins validated at once
const maxWorkers = 4

var (
	rootCmd = &cobra.Command{
		Use:   "mpci",
		Short: "Continuous integration checks for Moodle plugins",
		Long:  "A CLI tool that runs continuous integration checks against Moodle plugins.",

		SilenceErrors: true,
	}

	missingStringsCmd = &cobra.Command{
		Use:   "missingstrings [plugin-dir]",
		Short: "Find language strings a plugin uses but does not define",
		Long: "Checks that every language string required by the plugin type, its database declarations, " +
			"its classes and its source code is defined in the plugin's language file.",
		Args: cobra.MaximumNArgs(1),
		RunE: runMissingStrings,
	}

	initConfigCmd = &cobra.Command{
		Use:   "init-config",
		Short: "Create a .mpci.yml file in the current directory",
		Long:  "Creates a .mpci.yml file with default configuration in the current directory.",
		RunE:  runInitConfig,
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Long:  "Print the version number of mpci",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(Version)
		},
	}

	// Flags
	language        string
	strict          bool
	unused          bool
	excludePatterns string
	checkerNames    string
	defaultCheckers bool
	noUsage         bool
	appVersion      string
	withSubplugins  bool
	jsonOutput      bool
	watch           bool
	debug           bool
	noHeader        bool
	ignoreDirs      []string
	ignoreFiles     []string
)

// flagOptions maps flag names to validation option keys
var flagOptions = map[string]string{
	"lang":             validation.OptionLanguage,
	"strict":           validation.OptionStrict,
	"unused":           validation.OptionUnused,
	"exclude-patterns": validation.OptionExcludePatterns,
	"checkers":         validation.OptionCheckers,
	"default-checkers": validation.OptionDefaultCheckers,
	"app-version":      validation.OptionAppVersion,
	"debug":            validation.OptionDebug,
}

func init() {
	flags := missingStringsCmd.Flags()
	flags.StringVar(&language, "lang", "en", "Language pack to validate against")
	flags.BoolVar(&strict, "strict", false, "Treat warnings as errors")
	flags.BoolVar(&unused, "unused", false, "Report strings defined but never used")
	flags.StringVar(&excludePatterns, "exclude-patterns", "", "Comma separated string keys to skip, * matches any run of characters")
	flags.StringVar(&checkerNames, "checkers", "", "Comma separated checkers to run")
	flags.BoolVar(&defaultCheckers, "default-checkers", true, "Run the default checkers in addition to --checkers")
	flags.BoolVar(&noUsage, "no-usage", false, "Skip scanning PHP, mustache and AMD sources for string calls")
	flags.StringVar(&appVersion, "app-version", "", "Moodle version the plugin targets")
	flags.BoolVar(&withSubplugins, "subplugins", false, "Also validate the subplugins shipped with the plugin")
	flags.BoolVar(&jsonOutput, "json", false, "Output results in JSON format")
	flags.BoolVar(&watch, "watch", false, "Re-run the validation whenever a plugin file changes")
	flags.BoolVar(&debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&noHeader, "no-header", false, "Skip printing the header")
	flags.StringSliceVar(&ignoreDirs, "ignore-dirs", []string{}, "Directory names to skip")
	flags.StringSliceVar(&ignoreFiles, "ignore-files", []string{}, "Glob patterns of files to skip")

	rootCmd.AddCommand(missingStringsCmd)
	rootCmd.AddCommand(initConfigCmd)
	rootCmd.AddCommand(versionCmd)
}

func setupLogger(debug bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	level := logrus.InfoLevel
	if debug {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	return logger
}

// buildConfig layers defaults, the .mpci.yml file and the flags that were
// set explicitly, in that order
func buildConfig(cmd *cobra.Command, root string, logger *logrus.Logger) (validation.Config, error) {
	fileCfg, err := config.LoadConfig(root)
	if err != nil {
		logger.WithError(err).Warnf("failed to load %s, using defaults", config.FileName)
		fileCfg = &config.Config{}
	}
	cfg := fileCfg.Apply(validation.DefaultConfig())

	flags := cmd.Flags()
	options := make(map[string]string)
	for flagName, option := range flagOptions {
		if flags.Changed(flagName) {
			options[option] = flags.Lookup(flagName).Value.String()
		}
	}
	if flags.Changed("no-usage") {
		options[validation.OptionUsage] = strconv.FormatBool(!noUsage)
	}
	cfg, err = cfg.WithOptions(options)
	if err != nil {
		return validation.Config{}, err
	}
	cfg.IgnoreDirs = append(cfg.IgnoreDirs, ignoreDirs...)
	cfg.IgnoreFiles = append(cfg.IgnoreFiles, ignoreFiles...)
	return cfg, nil
}

// collectPlugins returns the plugin at root followed by its subplugins when
// requested
func collectPlugins(root string, subplugins bool) ([]plugin.Plugin, error) {
	p, err := plugin.Load(root)
	if err != nil {
		return nil, err
	}
	plugins := []plugin.Plugin{p}
	if !subplugins {
		return plugins, nil
	}
	subs, err := plugin.Subplugins(p, filecache.New(), parser.NewParser())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve subplugins of %s: %w", p.Component, err)
	}
	return append(plugins, subs...), nil
}

// validateAll validates the plugins in parallel, keeping the input order
func validateAll(plugins []plugin.Plugin, cfg validation.Config, logger *logrus.Logger) ([]*validation.Result, error) {
	results := make([]*validation.Result, len(plugins))

	// Each validator owns its cache and parser, so runs share nothing
	var eg errgroup.Group
	eg.SetLimit(maxWorkers)

	for i, p := range plugins {
		eg.Go(func() error {
			logger.WithField("component", p.Component).Debug("validating")
			result, err := validation.New(p, cfg, validation.WithLogger(logger)).Validate()
			if err != nil {
				return fmt.Errorf("%s: %w", p.Component, err)
			}
			results[i] = result
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runMissingStrings(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", absPath)
	}

	logger := setupLogger(debug)

	plugins, err := collectPlugins(absPath, withSubplugins)
	if err != nil {
		return err
	}

	if !noHeader && !jsonOutput {
		printHeader()
	}

	// The configuration is rebuilt on every run so watch mode picks up
	// edits to .mpci.yml
	run := func() (bool, error) {
		cfg, err := buildConfig(cmd, absPath, logger)
		if err != nil {
			return false, err
		}
		results, err := validateAll(plugins, cfg, logger)
		if err != nil {
			return false, err
		}
		formatter := output.NewFormatter(os.Stdout, output.Options{
			JSON:     jsonOutput,
			Strict:   cfg.Strict,
			NoHeader: noHeader,
			Color:    !jsonOutput && output.ColorSupported(os.Stdout),
		})
		if err := formatter.Format(results); err != nil {
			return false, fmt.Errorf("failed to format output: %w", err)
		}
		return output.HasIssues(results, cfg.Strict), nil
	}

	if watch {
		return watchPlugin(cmd.Context(), absPath, logger, run)
	}

	failed, err := run()
	if err != nil {
		return err
	}
	if failed {
		os.Exit(1)
	}
	return nil
}

func runInitConfig(cmd *cobra.Command, args []string) error {
	configPath, err := config.WriteTemplate(".")
	if err != nil {
		return err
	}
	fmt.Printf("Created %s in the current directory\n", filepath.Base(configPath))
	return nil
}

func printHeader() {
	fmt.Printf("mpci missing strings validator\nVersion: %s\n\n", Version)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprint(os.Stderr, output.FormatError(err))
		stop()
		os.Exit(1)
	}
}
