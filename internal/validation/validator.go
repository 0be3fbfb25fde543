// Package validation cross-references the strings a plugin needs against the
// strings its language pack defines.
package validation

import (
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jenian/mpci/internal/checkers"
	"github.com/jenian/mpci/internal/discovery"
	"github.com/jenian/mpci/internal/filecache"
	"github.com/jenian/mpci/internal/langpack"
	"github.com/jenian/mpci/internal/parser"
	"github.com/jenian/mpci/internal/plugin"
	"github.com/jenian/mpci/internal/requirements"
	"github.com/jenian/mpci/internal/strerr"
	"github.com/jenian/mpci/internal/stringref"
	"github.com/jenian/mpci/internal/usage"
)

// Validator runs the missing strings validation for one plugin. It owns its
// file cache, so concurrent runs need separate validators.
type Validator struct {
	plugin plugin.Plugin
	config Config
	cache  *filecache.Cache
	parser *parser.Parser
	logger *logrus.Logger
}

// Option customises a Validator
type Option func(*Validator)

// WithLogger sets the logger used for progress and debug output
func WithLogger(logger *logrus.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

// WithCache sets the file cache, e.g. to keep it across watch mode runs
func WithCache(cache *filecache.Cache) Option {
	return func(v *Validator) {
		v.cache = cache
	}
}

// New creates a validator for p
func New(p plugin.Plugin, cfg Config, opts ...Option) *Validator {
	v := &Validator{
		plugin: p,
		config: cfg,
		cache:  filecache.New(),
		parser: parser.NewParser(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.logger == nil {
		v.logger = logrus.New()
		v.logger.SetOutput(io.Discard)
	}
	return v
}

// requirement is one string the plugin needs, with every place needing it
type requirement struct {
	key      string
	contexts []stringref.Context
	optional bool
}

// collector groups references by key in first seen order
type collector struct {
	order []string
	byKey map[string]*requirement
}

func newCollector() *collector {
	return &collector{byKey: make(map[string]*requirement)}
}

func (c *collector) add(key string, ctx stringref.Context, optional bool) {
	req, ok := c.byKey[key]
	if !ok {
		req = &requirement{key: key, optional: optional}
		c.byKey[key] = req
		c.order = append(c.order, key)
	}
	// A single mandatory use makes the string mandatory
	req.optional = req.optional && optional
	req.contexts = append(req.contexts, ctx)
}

func (c *collector) has(key string) bool {
	_, ok := c.byKey[key]
	return ok
}

// Validate runs the validation. Checker failures are recorded in the result;
// the returned error is reserved for configuration problems.
func (v *Validator) Validate() (*Result, error) {
	start := time.Now()
	p := v.plugin
	cfg := v.config
	result := NewResult(p.Component, cfg.Language)
	log := v.logger.WithField("component", p.Component)

	selected, err := cfg.Checkers()
	if err != nil {
		return nil, err
	}

	v.cache.Clear()
	files := discovery.New(p)
	files.AddExcludeDirs(cfg.IgnoreDirs)
	files.SetExcludeGlobs(cfg.IgnoreFiles)

	loader := langpack.NewLoader(v.cache, v.parser)
	pack, err := loader.Load(p, cfg.Language)
	if err != nil {
		return nil, fmt.Errorf("failed to load language pack: %w", err)
	}
	langFile := pack.File
	if !pack.Found {
		langFile = path.Join("lang", cfg.Language, p.Component+".php")
		result.AddWarning(Entry{
			Message:  fmt.Sprintf("language file %s not found", langFile),
			Contexts: []stringref.Context{{File: langFile}},
		})
	}

	needed := newCollector()
	set := requirements.Resolve(p, cfg.AppVersion)
	for _, key := range set.Required {
		needed.add(key, stringref.Context{
			File:        langFile,
			Description: fmt.Sprintf("required for plugin type `%s`", p.Type),
		}, false)
	}
	for _, key := range set.Recommended {
		needed.add(key, stringref.Context{
			File:        langFile,
			Description: fmt.Sprintf("recommended for plugin type `%s`", p.Type),
		}, true)
	}

	in := checkers.Input{Plugin: p, Files: files, Cache: v.cache, Parser: v.parser}
	for _, checker := range selected {
		checkerStart := time.Now()
		refs, err := checker.Check(in)
		if cfg.Debug {
			log.WithFields(logrus.Fields{
				"checker":    checker.Name(),
				"references": len(refs),
				"elapsed":    time.Since(checkerStart),
			}).Debug("checker finished")
		}
		if err != nil {
			v.recordCheckerFailure(result, checker.Name(), err)
		}
		// Hard failures return no references, warnings keep theirs
		v.collect(needed, refs)
	}

	if cfg.ScanUsage {
		refs, err := usage.NewFinder(v.cache, v.parser).Find(p, files)
		if err != nil {
			log.WithError(err).Warn("source scan failed")
			result.AddWarning(Entry{Message: fmt.Sprintf("source scan failed: %v", err)})
		} else {
			log.WithField("references", len(refs)).Debug("source scan finished")
			v.collect(needed, refs)
		}
	}

	for _, key := range needed.order {
		req := needed.byKey[key]
		if pack.Has(key) || cfg.ShouldExcludeString(key) {
			continue
		}
		if req.optional {
			result.AddWarning(Entry{
				Key:      key,
				Message:  fmt.Sprintf("recommended string `%s` is not defined", key),
				Contexts: req.contexts,
			})
			continue
		}
		result.AddError(Entry{
			Key:      key,
			Message:  fmt.Sprintf("missing string `%s`", key),
			Contexts: req.contexts,
		})
	}

	if cfg.CheckUnused {
		for _, def := range pack.Definitions {
			if needed.has(def.Key) || set.Contains(def.Key) || cfg.ShouldExcludeString(def.Key) ||
				MatchesWildcard(def.Key, set.ConventionPatterns) {
				continue
			}
			result.AddWarning(Entry{
				Key:      def.Key,
				Message:  fmt.Sprintf("unused string `%s`", def.Key),
				Contexts: []stringref.Context{{File: def.File, Line: def.Line, Description: "defined but never used"}},
			})
		}
	}

	if !cfg.Debug {
		return result, nil
	}
	stats := v.cache.Stats()
	metrics := files.Metrics()
	log.WithFields(logrus.Fields{
		"files":         files.Summary().String(),
		"dirs_visited":  metrics.DirsVisited,
		"files_visited": metrics.FilesVisited,
		"scan_elapsed":  metrics.Elapsed,
		"cache_entries": stats.Entries,
		"cache_bytes":   stats.MemoryBytes,
		"cache_reads":   stats.Reads,
		"elapsed":       time.Since(start),
	}).Debug("validation finished")

	return result, nil
}

// collect keeps the references to strings of the plugin itself
func (v *Validator) collect(needed *collector, refs []stringref.Reference) {
	for _, ref := range refs {
		if ref.Key == "" || (ref.Component != "" && !v.plugin.Owns(ref.Component)) {
			continue
		}
		needed.add(ref.Key, ref.Context, ref.Optional)
	}
}

func (v *Validator) recordCheckerFailure(result *Result, name string, err error) {
	entry := Entry{Checker: name, Message: err.Error()}
	var checkerErr *strerr.CheckerError
	if errors.As(err, &checkerErr) {
		if file, ok := checkerErr.Context["file"].(string); ok {
			entry.Contexts = []stringref.Context{{File: file}}
		}
		if checkerErr.IsWarning() {
			result.AddWarning(entry)
			return
		}
	}
	v.logger.WithError(err).WithField("checker", name).Warn("checker failed")
	result.AddError(entry)
}
