// Copyright 2025, the tscat contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"cmp"
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"path/filepath"
	"slices"

	"golang.org/x/text/language"
	"golang.org/x/tools/go/packages"

	"codeberg.org/tscat/tscat/catalog"
	"codeberg.org/tscat/tscat/catalog/plural"
)

// key identifies a message the way a catalog does. numerus is part of the
// key so a source used both ways yields two messages.
type key struct {
	ctx            string
	source         string
	disambiguation string
	numerus        bool
}

type ref struct {
	file string
	line int
}

// argLayout gives the argument positions of a lookup method. A negative
// position means the method has no such argument.
type argLayout struct {
	ctx, source, disambiguation int
	numerus                     bool
}

// registryMethods are the lookup methods of registry.Registry.
var registryMethods = map[string]argLayout{
	"Tr":   {ctx: 1, source: 2, disambiguation: -1},
	"TrD":  {ctx: 1, source: 2, disambiguation: 3},
	"TrN":  {ctx: 1, source: 2, disambiguation: -1, numerus: true},
	"TrND": {ctx: 1, source: 2, disambiguation: 3, numerus: true},
}

// catalogMethods are the lookup methods of catalog.Catalog and catalog.Translator.
var catalogMethods = map[string]argLayout{
	"Lookup":       {ctx: 0, source: 1, disambiguation: 2},
	"LookupPlural": {ctx: 0, source: 1, disambiguation: 2, numerus: true},
}

// lookupTypes holds the named types whose methods carry message keys.
type lookupTypes map[*types.TypeName]map[string]argLayout

// extractor holds the shared state and context for AST analysis within a package.
type extractor struct {
	refs   map[key][]ref
	relDir string
	fset   *token.FileSet
	info   *types.Info
	types  lookupTypes
}

// findLookupTypes returns the registry and catalog types found among pkgs
// and their dependencies, regardless of how they are imported or aliased.
func findLookupTypes(pkgs []*packages.Package) lookupTypes {
	out := lookupTypes{}

	packages.Visit(pkgs, nil, func(p *packages.Package) {
		if p.Types == nil {
			return
		}

		scope := p.Types.Scope()

		switch p.Name {
		case "registry":
			if tn, ok := scope.Lookup("Registry").(*types.TypeName); ok {
				out[tn] = registryMethods
			}
		case "catalog":
			for _, name := range []string{"Catalog", "Translator"} {
				if tn, ok := scope.Lookup(name).(*types.TypeName); ok {
					out[tn] = catalogMethods
				}
			}
		}
	})

	return out
}

// extractRefs traverses all Go source files in the given packages looking
// for lookup calls with constant keys. File names are made relative to relDir.
func extractRefs(pkgs []*packages.Package, relDir string, lt lookupTypes) map[key][]ref {
	refs := map[key][]ref{}

	for _, p := range pkgs {
		if p.TypesInfo == nil {
			continue
		}

		e := &extractor{
			refs:   refs,
			relDir: relDir,
			fset:   p.Fset,
			info:   p.TypesInfo,
			types:  lt,
		}

		for _, f := range p.Syntax {
			ast.Inspect(f, func(n ast.Node) bool {
				if x, ok := n.(*ast.CallExpr); ok {
					e.handleCallExpr(x)
				}

				return true
			})
		}
	}

	return refs
}

// constString evaluates expr to a constant string if possible using types.Info.
// Handles string literals, const identifiers, and constant expressions like "a" + "b".
func constString(info *types.Info, expr ast.Expr) (string, bool) {
	tv, ok := info.Types[expr]
	if !ok || tv.Value == nil || tv.Value.Kind() != constant.String {
		return "", false
	}

	return constant.StringVal(tv.Value), true
}

// receiverType returns the type name declaring method fn, unwrapping pointers.
func receiverType(fn *types.Func) *types.TypeName {
	sig, ok := fn.Type().(*types.Signature)
	if !ok || sig.Recv() == nil {
		return nil
	}

	t := sig.Recv().Type()
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}

	if named, ok := t.(*types.Named); ok {
		return named.Origin().Obj()
	}

	return nil
}

// handleCallExpr records the key of a lookup call whose key arguments are
// all constant.
func (e *extractor) handleCallExpr(x *ast.CallExpr) {
	sel, ok := x.Fun.(*ast.SelectorExpr)
	if !ok {
		return
	}

	fn, ok := e.info.Uses[sel.Sel].(*types.Func)
	if !ok {
		return
	}

	recv := receiverType(fn)
	if recv == nil {
		return
	}

	layout, ok := e.types[recv][fn.Name()]
	if !ok {
		return
	}

	arg := func(i int) (string, bool) {
		if i < 0 {
			return "", true
		}

		if i >= len(x.Args) {
			return "", false
		}

		return constString(e.info, x.Args[i])
	}

	ctx, ok1 := arg(layout.ctx)
	source, ok2 := arg(layout.source)
	disambiguation, ok3 := arg(layout.disambiguation)

	if !ok1 || !ok2 || !ok3 || source == "" {
		return
	}

	e.addRef(x.Args[layout.source].Pos(), key{
		ctx:            ctx,
		source:         source,
		disambiguation: disambiguation,
		numerus:        layout.numerus,
	})
}

// addRef records a reference to a message, normalising the file path
// relative to the output directory.
func (e *extractor) addRef(pos token.Pos, k key) {
	p := e.fset.Position(pos)

	file := p.Filename
	if rel, err := filepath.Rel(e.relDir, file); err == nil {
		file = rel
	}

	e.refs[k] = append(e.refs[k], ref{file: filepath.ToSlash(file), line: p.Line})
}

// buildCatalog turns refs into a catalog of unfinished messages. Contexts
// are sorted by name and messages by source, then disambiguation.
func buildCatalog(refs map[key][]ref, lang string) (*catalog.Catalog, error) {
	tag := language.Und

	if lang != "" {
		t, err := catalog.ParseLanguage(lang)
		if err != nil {
			return nil, err
		}

		tag = t
	}

	forms := plural.For(tag).Forms()

	keys := make([]key, 0, len(refs))
	for k := range refs {
		keys = append(keys, k)
	}

	slices.SortFunc(keys, func(a, b key) int {
		return cmp.Or(
			cmp.Compare(a.ctx, b.ctx),
			cmp.Compare(a.source, b.source),
			cmp.Compare(a.disambiguation, b.disambiguation),
		)
	})

	var contexts []*catalog.Context

	for _, k := range keys {
		if len(contexts) == 0 || contexts[len(contexts)-1].Name != k.ctx {
			contexts = append(contexts, &catalog.Context{Name: k.ctx})
		}

		rs := refs[k]
		slices.SortFunc(rs, func(a, b ref) int {
			return cmp.Or(cmp.Compare(a.file, b.file), cmp.Compare(a.line, b.line))
		})

		rs = slices.Compact(rs)

		m := &catalog.Message{
			Source:    k.source,
			Comment:   k.disambiguation,
			Numerus:   k.numerus,
			Status:    catalog.Unfinished,
			Locations: make([]catalog.Location, 0, len(rs)),
		}

		if m.Numerus {
			m.NumerusForms = make([]string, forms)
		}

		for _, r := range rs {
			m.Locations = append(m.Locations, catalog.Location{File: r.file, Line: r.line})
		}

		ctx := contexts[len(contexts)-1]
		ctx.Messages = append(ctx.Messages, m)
	}

	return catalog.New(catalog.DefaultVersion, lang, "en", contexts)
}
