package parser

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

func parsePHP(t *testing.T, code string) *Tree {
	t.Helper()
	p := NewParser()
	tree, err := p.ParsePHP(code)
	if err != nil {
		t.Fatalf("ParsePHP failed: %v", err)
	}
	t.Cleanup(tree.Close)
	return tree
}

func TestLiteralArrayAssignment_Capabilities(t *testing.T) {
	code := `<?php
defined('MOODLE_INTERNAL') || die();

$capabilities = [
    'local/ci:view' => [
        'captype' => "read",
        'contextlevel' => CONTEXT_SYSTEM,
        'archetypes' => array('manager' => CAP_ALLOW),
    ],
    'local/ci:manage' => array(
        'captype' => 'write',
        'riskbitmask' => RISK_CONFIG | RISK_XSS,
    ),
];
`
	tree := parsePHP(t, code)

	value, found, ok := LiteralArrayAssignment(tree, "capabilities")
	if !found || !ok {
		t.Fatalf("expected literal array, found=%v ok=%v", found, ok)
	}

	var keys []string
	for _, key := range value.StringKeys() {
		keys = append(keys, key.Str)
	}
	expected := []string{"local/ci:view", "local/ci:manage"}
	if !reflect.DeepEqual(keys, expected) {
		t.Errorf("Expected keys %v, got %v", expected, keys)
	}

	if line := value.StringKeys()[1].Line; line != 10 {
		t.Errorf("Expected local/ci:manage on line 10, got %d", line)
	}

	view, _ := value.Get("local/ci:view")
	captype, ok := view.Get("captype")
	if !ok || !captype.IsString() || captype.Str != "read" {
		t.Errorf("Expected captype read, got %+v", captype)
	}
	contextlevel, _ := view.Get("contextlevel")
	if contextlevel.Kind != KindExpr || contextlevel.Str != "CONTEXT_SYSTEM" {
		t.Errorf("Expected constant expression, got %+v", contextlevel)
	}
	archetypes, _ := view.Get("archetypes")
	if archetypes.Kind != KindArray || len(archetypes.Items) != 1 {
		t.Errorf("Expected nested array with one item, got %+v", archetypes)
	}
}

func TestLiteralArrayAssignment_NotLiteral(t *testing.T) {
	tree := parsePHP(t, `<?php
$subplugins = get_subplugins();
`)
	_, found, ok := LiteralArrayAssignment(tree, "subplugins")
	if !found {
		t.Fatal("expected assignment to be found")
	}
	if ok {
		t.Error("function call result must not be treated as a literal array")
	}

	_, found, _ = LiteralArrayAssignment(tree, "definitions")
	if found {
		t.Error("unassigned variable must not be found")
	}
}

func TestStringLiteral(t *testing.T) {
	tree := parsePHP(t, `<?php
$a = ['it\'s', "say \"hi\"", "$interp", 'plain'];
`)
	value, _, ok := LiteralArrayAssignment(tree, "a")
	if !ok {
		t.Fatal("expected literal array")
	}
	list := value.List()
	if len(list) != 4 {
		t.Fatalf("Expected 4 items, got %d", len(list))
	}
	if !list[0].IsString() || list[0].Str != "it's" {
		t.Errorf("Expected it's, got %+v", list[0])
	}
	if !list[1].IsString() || list[1].Str != `say "hi"` {
		t.Errorf("Expected say \"hi\", got %+v", list[1])
	}
	if list[2].IsString() {
		t.Errorf("Interpolated string must not be a literal, got %+v", list[2])
	}
	if !list[3].IsString() || list[3].Str != "plain" {
		t.Errorf("Expected plain, got %+v", list[3])
	}
}

func TestClasses_ResolvesNamesAndMethods(t *testing.T) {
	code := `<?php
namespace mod_book\search;

use core_search\base_mod as base;
use core_privacy\local\metadata\null_provider;

class chapter extends base implements null_provider, \core\other {
    public static function get_reason(): string {
        $fn = function() { return 'closure'; };
        return 'privacy:metadata';
    }
}
`
	tree := parsePHP(t, code)
	classes := Classes(tree)
	if len(classes) != 1 {
		t.Fatalf("Expected 1 class, got %d", len(classes))
	}

	class := classes[0]
	if class.FullName() != `mod_book\search\chapter` {
		t.Errorf("Unexpected class name %q", class.FullName())
	}
	if class.Extends != `core_search\base_mod` {
		t.Errorf("Unexpected parent %q", class.Extends)
	}
	expectedIfaces := []string{`core_privacy\local\metadata\null_provider`, `core\other`}
	if !reflect.DeepEqual(class.Implements, expectedIfaces) {
		t.Errorf("Expected interfaces %v, got %v", expectedIfaces, class.Implements)
	}

	method := class.Method("GET_REASON")
	if method == nil {
		t.Fatal("expected get_reason method")
	}
	returns := ReturnValues(method)
	if len(returns) != 1 {
		t.Fatalf("Expected 1 return value outside the closure, got %d", len(returns))
	}
	if s, ok := StringLiteral(returns[0], tree.Source); !ok || s != "privacy:metadata" {
		t.Errorf("Expected privacy:metadata, got %q", s)
	}

	if class.Method("missing") != nil {
		t.Error("unexpected method found")
	}
}

func TestCalls_ArgumentsAndNames(t *testing.T) {
	tree := parsePHP(t, `<?php
$collection->add_user_preference('pref', 'privacy:metadata:pref');
parent::__construct('invalidthing', 'local_ci', '', $a);
$s = new \lang_string('key', 'local_ci');
`)
	calls := Calls(tree.Root)
	var names []string
	for _, call := range calls {
		names = append(names, CallName(call, tree.Source))
	}
	expected := []string{"add_user_preference", "__construct", "lang_string"}
	if !reflect.DeepEqual(names, expected) {
		t.Errorf("Expected calls %v, got %v", expected, names)
	}

	args := CallArguments(calls[1])
	if len(args) != 4 {
		t.Fatalf("Expected 4 arguments, got %d", len(args))
	}
	if s, ok := StringLiteral(args[1], tree.Source); !ok || s != "local_ci" {
		t.Errorf("Expected local_ci, got %q", s)
	}
}

func TestParser_JavaScriptQuery(t *testing.T) {
	p := NewParser()
	tree, err := p.Parse([]byte(`import {getString} from 'core/str';
getString('pluginname', 'local_ci');
`), LanguageJavaScript)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	defer tree.Close()

	matches, err := p.Query(tree, LanguageJavaScript, `
(call_expression
  function: (identifier) @fn
  arguments: (arguments (string) @key))
`)
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("expected at least one match")
	}
	if matches[0]["fn"].Text != "getString" || matches[0]["key"].Line != 2 {
		t.Errorf("Unexpected match %+v", matches[0])
	}
}

func TestParser_UnsupportedLanguage(t *testing.T) {
	p := NewParser()
	if _, err := p.Parse([]byte("x"), "cobol"); err == nil {
		t.Error("expected error for unsupported language")
	}
}

type failingLoader struct{}

func (failingLoader) LoadPHP() (*sitter.Language, error) {
	return nil, errors.New("grammar unavailable")
}

func (failingLoader) LoadJavaScript() (*sitter.Language, error) {
	return nil, errors.New("grammar unavailable")
}

func TestSetLanguageLoader(t *testing.T) {
	SetLanguageLoader(failingLoader{})
	t.Cleanup(func() { SetLanguageLoader(&DefaultLanguageLoader{}) })

	_, err := NewParser().ParsePHP("<?php echo 1;")
	if err == nil || !strings.Contains(err.Error(), "grammar unavailable") {
		t.Errorf("ParsePHP() error = %v, want the loader error", err)
	}
}
