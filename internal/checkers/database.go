package checkers

import (
	"strings"

	"github.com/jenian/mpci/internal/parser"
	"github.com/jenian/mpci/internal/plugin"
	"github.com/jenian/mpci/internal/strerr"
	"github.com/jenian/mpci/internal/stringref"
)

// Capabilities requires a string for every capability declared in
// db/access.php. Capability local/ci:view needs the string ci:view.
type Capabilities struct{ base }

func (c *Capabilities) Check(in Input) ([]stringref.Reference, error) {
	decl, err := openDeclaration(in, c.Name(), "access.php")
	if err != nil || decl == nil {
		return nil, err
	}
	defer decl.Close()

	capabilities, _, err := decl.array(c.Name(), "capabilities", true)
	if err != nil {
		return nil, err
	}

	prefix := in.Plugin.Type + "/" + in.Plugin.Name + ":"
	var refs []stringref.Reference
	for _, key := range capabilities.StringKeys() {
		if !strings.HasPrefix(key.Str, prefix) {
			continue
		}
		stringKey := strings.TrimPrefix(key.Str, in.Plugin.Type+"/")
		refs = append(refs, reference(in, stringKey, decl.rel, key.Line,
			"capability `%s` requires string `%s`", key.Str, stringKey))
	}
	return refs, nil
}

// Caches requires cachedef_{name} for every cache definition in db/caches.php
type Caches struct{ base }

func (c *Caches) Check(in Input) ([]stringref.Reference, error) {
	decl, err := openDeclaration(in, c.Name(), "caches.php")
	if err != nil || decl == nil {
		return nil, err
	}
	defer decl.Close()

	definitions, _, err := decl.array(c.Name(), "definitions", true)
	if err != nil {
		return nil, err
	}

	var refs []stringref.Reference
	for _, key := range definitions.StringKeys() {
		refs = append(refs, reference(in, "cachedef_"+key.Str, decl.rel, key.Line,
			"cache definition `%s`", key.Str))
	}
	return refs, nil
}

// Messages requires messageprovider:{name} for every message provider in
// db/messages.php
type Messages struct{ base }

func (c *Messages) Check(in Input) ([]stringref.Reference, error) {
	decl, err := openDeclaration(in, c.Name(), "messages.php")
	if err != nil || decl == nil {
		return nil, err
	}
	defer decl.Close()

	providers, _, err := decl.array(c.Name(), "messageproviders", true)
	if err != nil {
		return nil, err
	}

	var refs []stringref.Reference
	for _, key := range providers.StringKeys() {
		refs = append(refs, reference(in, "messageprovider:"+key.Str, decl.rel, key.Line,
			"message provider `%s`", key.Str))
	}
	return refs, nil
}

// Mobile requires the strings listed in the lang entries of the mobile
// add-ons declared in db/mobile.php. Only pairs naming this plugin count.
type Mobile struct{ base }

func (c *Mobile) Check(in Input) ([]stringref.Reference, error) {
	decl, err := openDeclaration(in, c.Name(), "mobile.php")
	if err != nil || decl == nil {
		return nil, err
	}
	defer decl.Close()

	addons, _, err := decl.array(c.Name(), "addons", true)
	if err != nil {
		return nil, err
	}

	var refs []stringref.Reference
	for _, addon := range addons.Items {
		addonName := ""
		if addon.Key != nil {
			addonName = addon.Key.Str
		}
		lang, ok := addon.Value.Get("lang")
		if !ok || lang.Kind != parser.KindArray {
			continue
		}
		for _, pair := range lang.List() {
			values := pair.List()
			if pair.Kind != parser.KindArray || len(values) < 2 || !values[0].IsString() || !values[1].IsString() {
				continue
			}
			if !in.Plugin.Owns(values[1].Str) {
				continue
			}
			refs = append(refs, reference(in, values[0].Str, decl.rel, values[0].Line,
				"mobile add-on `%s` language string", addonName))
		}
	}
	return refs, nil
}

// Subplugins requires a singular and a plural name for every declared
// subplugin type
type Subplugins struct{ base }

func (c *Subplugins) Check(in Input) ([]stringref.Reference, error) {
	types, err := plugin.SubpluginTypes(in.Plugin, in.Cache, in.Parser)
	if err != nil {
		return nil, strerr.NewCheckerError(c.Name(), "failed to read subplugin declarations", nil).WithCause(err)
	}

	var refs []stringref.Reference
	for _, t := range types {
		refs = append(refs,
			reference(in, "subplugintype_"+t.Type, t.File, t.Line, "subplugin type `%s`", t.Type),
			reference(in, "subplugintype_"+t.Type+"_plural", t.File, t.Line, "subplugin type `%s` plural", t.Type),
		)
	}
	return refs, nil
}

// Tags requires tagarea_{itemtype} for the tag areas and
// tagcollection_{name} for the tag collections of db/tag.php
type Tags struct{ base }

func (c *Tags) Check(in Input) ([]stringref.Reference, error) {
	decl, err := openDeclaration(in, c.Name(), "tag.php")
	if err != nil || decl == nil {
		return nil, err
	}
	defer decl.Close()

	areas, foundAreas, err := decl.array(c.Name(), "tagareas", false)
	if err != nil {
		return nil, err
	}
	collections, foundCollections, err := decl.array(c.Name(), "tagcollections", false)
	if err != nil {
		return nil, err
	}
	if !foundAreas && !foundCollections {
		return nil, strerr.NewCheckerError(c.Name(), "expected variable is not defined",
			map[string]any{"file": decl.rel, "variable": "$tagareas"})
	}

	var refs []stringref.Reference
	skipped := 0
	for _, area := range areas.List() {
		itemtype, ok := area.Get("itemtype")
		if !ok || !itemtype.IsString() {
			skipped++
			continue
		}
		refs = append(refs, reference(in, "tagarea_"+itemtype.Str, decl.rel, itemtype.Line,
			"tag area for item type `%s`", itemtype.Str))
	}
	for _, collection := range collections.List() {
		name, ok := collection.Get("name")
		if !ok || !name.IsString() {
			continue
		}
		refs = append(refs, reference(in, "tagcollection_"+name.Str, decl.rel, name.Line,
			"tag collection `%s`", name.Str))
	}
	if skipped > 0 {
		return refs, strerr.NewCheckerError(c.Name(), "tag area without a literal itemtype",
			map[string]any{"file": decl.rel, "variable": "$tagareas", "count": skipped}).AsWarning()
	}
	return refs, nil
}
