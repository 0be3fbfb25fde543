package parser

import (
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
)

// Language names understood by the parser
const (
	LanguagePHP        = "php"
	LanguageJavaScript = "javascript"
)

// LanguageLoader interface for loading language grammars
type LanguageLoader interface {
	LoadPHP() (*sitter.Language, error)
	LoadJavaScript() (*sitter.Language, error)
}

// DefaultLanguageLoader loads the grammars bundled with the binary
type DefaultLanguageLoader struct{}

func (l *DefaultLanguageLoader) LoadPHP() (*sitter.Language, error) {
	langPtr := tree_sitter_php.LanguagePHP()
	if langPtr == nil {
		return nil, fmt.Errorf("failed to load PHP language grammar")
	}
	return sitter.NewLanguage(langPtr), nil
}

func (l *DefaultLanguageLoader) LoadJavaScript() (*sitter.Language, error) {
	langPtr := tree_sitter_javascript.Language()
	if langPtr == nil {
		return nil, fmt.Errorf("failed to load JavaScript language grammar")
	}
	return sitter.NewLanguage(langPtr), nil
}

var defaultLoader LanguageLoader = &DefaultLanguageLoader{}

// SetLanguageLoader sets a custom language loader
func SetLanguageLoader(loader LanguageLoader) {
	defaultLoader = loader
}

// loadLanguage loads the Tree-Sitter language grammar for the given language
func loadLanguage(lang string) (*sitter.Language, error) {
	switch lang {
	case LanguagePHP:
		return defaultLoader.LoadPHP()
	case LanguageJavaScript:
		return defaultLoader.LoadJavaScript()
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}
