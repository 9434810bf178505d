// Copyright 2025 CloudWeGo Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package surface

import (
	"fmt"
	"go/ast"
	"go/token"
	"go/types"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/minislice/minislice/internal/logsink"
	"github.com/minislice/minislice/symbol"
)

// GoWorkspace is the Workspace implementation built directly on
// golang.org/x/tools/go/packages, go/ast and go/types: the same stack the
// teacher's own parser.GoParser loads a repository with, minus the
// uniast-graph construction this module has no use for.
type GoWorkspace struct {
	fset *token.FileSet
	pkgs []*packages.Package
	sink logsink.Sink

	docsByPath map[string]*Document // lower-cased absolute path -> Document

	declSite       map[types.Object]DeclSite
	referencedBody map[types.Object]*types.Info // Info to resolve that decl's Uses
	containingType map[types.Object]types.Object
	members        map[types.Object][]types.Object
	pkgLevelObjs   map[*types.Package][]types.Object
	pkgTypesByName map[*types.Package]map[string]types.Object
	namedIfaces    []*types.Named
}

// LoadWorkspaceOption configures LoadWorkspace.
type LoadWorkspaceOption func(*loadOptions)

type loadOptions struct {
	sink logsink.Sink
}

// WithLogSink directs load-time diagnostics (package load errors for a
// partially broken repository are not fatal) to sink.
func WithLogSink(sink logsink.Sink) LoadWorkspaceOption {
	return func(o *loadOptions) { o.sink = sink }
}

// LoadWorkspace loads the Go module containing anyPath and indexes it into
// a GoWorkspace. anyPath may be a file or a directory inside the module.
func LoadWorkspace(anyPath string, opts ...LoadWorkspaceOption) (*GoWorkspace, error) {
	var lo loadOptions
	for _, opt := range opts {
		opt(&lo)
	}
	sink := logsink.Or(lo.sink)

	root, modPath, err := findModuleRoot(anyPath)
	if err != nil {
		return nil, fmt.Errorf("locate module root: %w", err)
	}
	logsink.Infof(sink, "loading module %s at %s", modPath, root)

	fset := token.NewFileSet()
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedFiles | packages.NeedCompiledGoFiles |
			packages.NeedSyntax | packages.NeedTypes | packages.NeedTypesInfo |
			packages.NeedImports | packages.NeedDeps | packages.NeedModule,
		Dir:  root,
		Fset: fset,
	}
	pkgs, err := packages.Load(cfg, "./...")
	if err != nil {
		return nil, fmt.Errorf("load packages under %s: %w", root, err)
	}
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			logsink.Errorf(sink, "%s: %v", pkg.PkgPath, e)
		}
	}

	ws := &GoWorkspace{
		fset:           fset,
		pkgs:           pkgs,
		sink:           sink,
		docsByPath:     map[string]*Document{},
		declSite:       map[types.Object]DeclSite{},
		referencedBody: map[types.Object]*types.Info{},
		containingType: map[types.Object]types.Object{},
		members:        map[types.Object][]types.Object{},
		pkgLevelObjs:   map[*types.Package][]types.Object{},
		pkgTypesByName: map[*types.Package]map[string]types.Object{},
	}
	ws.index()
	ws.resolveConstructors()
	return ws, nil
}

func (ws *GoWorkspace) index() {
	packages.Visit(ws.pkgs, nil, func(pkg *packages.Package) {
		if pkg.Types == nil || pkg.TypesInfo == nil {
			return
		}
		for i, file := range pkg.Syntax {
			path := pkg.CompiledGoFiles[i]
			content, err := os.ReadFile(path)
			if err != nil {
				logsink.Errorf(ws.sink, "read %s: %v", path, err)
				content = nil
			}
			doc := &Document{
				Path:  path,
				Fset:  ws.fset,
				File:  file,
				Bytes: content,
				Pkg:   pkg,
			}
			ws.docsByPath[normalizePath(path)] = doc
			ws.indexFile(pkg, file)
		}
	})
}

func (ws *GoWorkspace) indexFile(pkg *packages.Package, file *ast.File) {
	info := pkg.TypesInfo
	for _, decl := range file.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			ws.indexGenDecl(pkg, info, d)
		case *ast.FuncDecl:
			ws.indexFuncDecl(pkg, info, d)
		}
	}
}

func (ws *GoWorkspace) indexGenDecl(pkg *packages.Package, info *types.Info, d *ast.GenDecl) {
	switch d.Tok {
	case token.TYPE:
		for _, spec := range d.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			obj, ok := info.Defs[ts.Name]
			if !ok || obj == nil {
				continue
			}
			ws.declSite[obj] = ws.siteFor(pkg, ts)
			ws.recordTypeName(pkg, obj)
			ws.indexTypeBody(pkg, info, obj, ts)
		}
	case token.VAR, token.CONST:
		for _, spec := range d.Specs {
			vs, ok := spec.(*ast.ValueSpec)
			if !ok {
				continue
			}
			for _, name := range vs.Names {
				if name.Name == "_" {
					continue
				}
				obj, ok := info.Defs[name]
				if !ok || obj == nil {
					continue
				}
				ws.declSite[obj] = ws.siteFor(pkg, vs)
				ws.referencedBody[obj] = info
				ws.recordPackageLevel(pkg, obj)
			}
		}
	}
}

// indexTypeBody walks a type's own declaration for field owners (structs)
// and interface method elements, since Go never nests a method body inside
// a type's syntax but does nest field and interface-method declarations.
func (ws *GoWorkspace) indexTypeBody(pkg *packages.Package, info *types.Info, owner types.Object, ts *ast.TypeSpec) {
	switch t := ts.Type.(type) {
	case *ast.StructType:
		for _, field := range t.Fields.List {
			names := field.Names
			if len(names) == 0 {
				// embedded field: go/types still registers a Defs entry
				// keyed by the type name's trailing identifier.
				if id := embeddedFieldIdent(field.Type); id != nil {
					names = []*ast.Ident{id}
				}
			}
			for _, name := range names {
				obj, ok := info.Defs[name]
				if !ok || obj == nil {
					continue
				}
				ws.setContainingType(obj, owner)
				ws.declSite[obj] = ws.siteFor(pkg, field)
			}
		}
	case *ast.InterfaceType:
		for _, method := range t.Methods.List {
			for _, name := range method.Names {
				obj, ok := info.Defs[name]
				if !ok || obj == nil {
					continue
				}
				ws.setContainingType(obj, owner)
				ws.declSite[obj] = ws.siteFor(pkg, method)
			}
		}
	}
	if named, ok := owner.Type().(*types.Named); ok {
		if _, isIface := named.Underlying().(*types.Interface); isIface {
			ws.namedIfaces = append(ws.namedIfaces, named)
		}
	}
}

func embeddedFieldIdent(expr ast.Expr) *ast.Ident {
	switch e := expr.(type) {
	case *ast.Ident:
		return e
	case *ast.SelectorExpr:
		return e.Sel
	case *ast.StarExpr:
		return embeddedFieldIdent(e.X)
	default:
		return nil
	}
}

func (ws *GoWorkspace) indexFuncDecl(pkg *packages.Package, info *types.Info, d *ast.FuncDecl) {
	obj, ok := info.Defs[d.Name]
	if !ok || obj == nil {
		return
	}
	ws.declSite[obj] = ws.siteFor(pkg, d)
	ws.referencedBody[obj] = info

	if d.Recv == nil || len(d.Recv.List) == 0 {
		ws.recordPackageLevel(pkg, obj)
		return
	}
	recvType := d.Recv.List[0].Type
	if owner := ws.receiverOwner(info, recvType); owner != nil {
		ws.setContainingType(obj, owner)
	}
}

func (ws *GoWorkspace) setContainingType(obj, owner types.Object) {
	ws.containingType[obj] = owner
	ws.members[owner] = append(ws.members[owner], obj)
}

func (ws *GoWorkspace) receiverOwner(info *types.Info, expr ast.Expr) types.Object {
	if star, ok := expr.(*ast.StarExpr); ok {
		expr = star.X
	}
	switch e := expr.(type) {
	case *ast.Ident:
		if obj, ok := info.Defs[e]; ok && obj != nil {
			return obj
		}
		if obj, ok := info.Uses[e]; ok && obj != nil {
			return obj
		}
	case *ast.IndexExpr:
		return ws.receiverOwner(info, e.X)
	case *ast.IndexListExpr:
		return ws.receiverOwner(info, e.X)
	}
	return nil
}

func (ws *GoWorkspace) recordPackageLevel(pkg *packages.Package, obj types.Object) {
	ws.pkgLevelObjs[pkg.Types] = append(ws.pkgLevelObjs[pkg.Types], obj)
}

func (ws *GoWorkspace) recordTypeName(pkg *packages.Package, obj types.Object) {
	byName, ok := ws.pkgTypesByName[pkg.Types]
	if !ok {
		byName = map[string]types.Object{}
		ws.pkgTypesByName[pkg.Types] = byName
	}
	byName[obj.Name()] = obj
}

// resolveConstructors recognises the "func NewT(...) *T" convention this
// module treats as T's static-constructor equivalent (spec section 9), and,
// for a struct or interface T, the package-level var/const whose static
// type is exactly T as T's const/static-readonly-field equivalent, and
// retroactively gives each a
// containing type T. Run once, after every file is indexed, since the type
// and these declarations can appear in either order or in different files
// of the same package.
func (ws *GoWorkspace) resolveConstructors() {
	for pkg, funcs := range ws.pkgLevelObjs {
		byName := ws.pkgTypesByName[pkg]
		if len(byName) == 0 {
			continue
		}
		for _, obj := range funcs {
			if _, hasOwner := ws.containingType[obj]; hasOwner {
				continue
			}
			fn, ok := obj.(*types.Func)
			if !ok {
				if named, isNamed := obj.Type().(*types.Named); isNamed {
					switch named.Underlying().(type) {
					case *types.Struct, *types.Interface:
						if owner, found := byName[named.Obj().Name()]; found && types.Identical(named, owner.Type()) {
							ws.setContainingType(obj, owner)
						}
					}
				}
				continue
			}
			name := fn.Name()
			if !strings.HasPrefix(name, "New") || len(name) <= 3 {
				continue
			}
			owner, ok := byName[name[3:]]
			if !ok {
				continue
			}
			if !signatureMentionsType(fn, owner) {
				continue
			}
			ws.setContainingType(fn, owner)
		}
	}
}

// signatureMentionsType reports whether fn returns t or *t among its
// results, guarding against an unrelated "New<Word>" helper that happens
// to share a prefix with an unrelated type's name.
func signatureMentionsType(fn *types.Func, t types.Object) bool {
	sig, ok := fn.Type().(*types.Signature)
	if !ok || sig.Results() == nil {
		return false
	}
	named, ok := t.Type().(*types.Named)
	if !ok {
		return false
	}
	for i := 0; i < sig.Results().Len(); i++ {
		rt := sig.Results().At(i).Type()
		if ptr, ok := rt.(*types.Pointer); ok {
			rt = ptr.Elem()
		}
		if types.Identical(rt, named) {
			return true
		}
	}
	return false
}

func (ws *GoWorkspace) siteFor(pkg *packages.Package, node ast.Node) DeclSite {
	file := ""
	if len(pkg.CompiledGoFiles) > 0 {
		pos := ws.fset.Position(node.Pos())
		file = pos.Filename
	}
	return DeclSite{
		File:  file,
		Node:  node,
		Fset:  ws.fset,
		Bytes: sourceSlice(ws.fset, node),
	}
}

func sourceSlice(fset *token.FileSet, node ast.Node) []byte {
	f := fset.File(node.Pos())
	if f == nil {
		return nil
	}
	path := f.Name()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	start := fset.Position(node.Pos()).Offset
	end := fset.Position(node.End()).Offset
	if start < 0 || end > len(data) || start > end {
		return nil
	}
	return data[start:end]
}

// isPackageScopeVar reports whether obj is declared directly at package
// scope, as opposed to a parameter, local, or range variable nested inside
// a function body.
func isPackageScopeVar(obj types.Object) bool {
	p := obj.Parent()
	return p != nil && p.Parent() == types.Universe
}

func normalizePath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = p
	}
	return strings.ToLower(filepath.ToSlash(abs))
}

// --- Workspace interface ---

func (ws *GoWorkspace) LocateDocument(path string) (*Document, error) {
	doc, ok := ws.docsByPath[normalizePath(path)]
	if !ok {
		return nil, nil
	}
	return doc, nil
}

func (ws *GoWorkspace) DeclaredTypes(doc *Document) []types.Object {
	if doc == nil || doc.Pkg == nil || doc.Pkg.TypesInfo == nil {
		return nil
	}
	var out []types.Object
	for _, decl := range doc.File.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts, ok := spec.(*ast.TypeSpec)
			if !ok {
				continue
			}
			if obj, ok := doc.Pkg.TypesInfo.Defs[ts.Name]; ok && obj != nil {
				out = append(out, obj)
			}
		}
	}
	return out
}

func (ws *GoWorkspace) UseSites(doc *Document) []UseSite {
	if doc == nil || doc.Pkg == nil || doc.Pkg.TypesInfo == nil {
		return nil
	}
	info := doc.Pkg.TypesInfo
	var out []UseSite
	for _, unit := range ws.declScopes(info, doc.File.Decls) {
		enclosing, scope := unit.obj, unit.node
		ast.Inspect(scope, func(n ast.Node) bool {
			id, ok := n.(*ast.Ident)
			if !ok {
				return true
			}
			obj, ok := info.Uses[id]
			if !ok || obj == nil {
				return true
			}
			out = append(out, UseSite{
				Symbol:    obj,
				Enclosing: enclosing,
				Pos:       ws.locationOf(doc, id.Pos()),
			})
			return true
		})
	}
	return out
}

type scopeUnit struct {
	obj  types.Object
	node ast.Node
}

// declScopes breaks decls into one unit per symbol they declare: a
// function's whole declaration (receiver, params and body), one unit per
// name in a var/const block, or a type's own body — so that field type
// references are still visible to the crawler even though they have no
// executable "use site" in the traditional sense, and so a multi-name
// var/const block attributes each use site to the right name.
func (ws *GoWorkspace) declScopes(info *types.Info, decls []ast.Decl) []scopeUnit {
	var units []scopeUnit
	for _, decl := range decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if obj, ok := info.Defs[d.Name]; ok && obj != nil {
				units = append(units, scopeUnit{obj, d})
			}
		case *ast.GenDecl:
			for _, spec := range d.Specs {
				switch s := spec.(type) {
				case *ast.ValueSpec:
					for _, name := range s.Names {
						if obj, ok := info.Defs[name]; ok && obj != nil {
							units = append(units, scopeUnit{obj, s})
						}
					}
				case *ast.TypeSpec:
					if obj, ok := info.Defs[s.Name]; ok && obj != nil {
						units = append(units, scopeUnit{obj, s})
					}
				}
			}
		}
	}
	return units
}

func (ws *GoWorkspace) locationOf(doc *Document, pos token.Pos) Location {
	p := ws.fset.Position(pos)
	line := ""
	if doc.Bytes != nil {
		line = lineAt(doc.Bytes, p.Line)
	}
	return Location{
		File:       p.Filename,
		Line:       p.Line,
		Column:     p.Column,
		SourceLine: line,
	}
}

func lineAt(src []byte, lineNo int) string {
	n := 1
	start := 0
	for i, b := range src {
		if n == lineNo {
			end := i
			for end < len(src) && src[end] != '\n' {
				end++
			}
			return strings.TrimRight(string(src[start:end]), "\r")
		}
		if b == '\n' {
			n++
			start = i + 1
		}
	}
	if n == lineNo {
		return strings.TrimRight(string(src[start:]), "\r")
	}
	return ""
}

func (ws *GoWorkspace) ReferencedSymbols(sym types.Object) []types.Object {
	site, ok := ws.declSite[symbol.Canonicalize(sym)]
	if !ok {
		return nil
	}
	info, ok := ws.referencedBody[symbol.Canonicalize(sym)]
	if !ok {
		return nil
	}

	var body ast.Node
	switch n := site.Node.(type) {
	case *ast.FuncDecl:
		if n.Body == nil {
			return nil
		}
		body = n.Body
	case *ast.ValueSpec:
		if len(n.Values) == 0 {
			return nil
		}
		body = &wrappedExprList{exprs: n.Values}
	default:
		return nil
	}

	seen := map[types.Object]bool{}
	var out []types.Object
	walk := func(n ast.Node) bool {
		id, ok := n.(*ast.Ident)
		if !ok {
			return true
		}
		obj, ok := info.Uses[id]
		if !ok || obj == nil {
			return true
		}
		obj = symbol.Canonicalize(obj)
		if seen[obj] {
			return true
		}
		seen[obj] = true
		out = append(out, obj)
		return true
	}
	if list, ok := body.(*wrappedExprList); ok {
		for _, e := range list.exprs {
			ast.Inspect(e, walk)
		}
	} else {
		ast.Inspect(body, walk)
	}
	return out
}

// wrappedExprList lets ReferencedSymbols treat a ValueSpec's initializer
// list uniformly with a FuncDecl's body without inventing a fake ast.Node
// that other code might mistake for the real thing.
type wrappedExprList struct{ exprs []ast.Expr }

func (w *wrappedExprList) Pos() token.Pos { return token.NoPos }
func (w *wrappedExprList) End() token.Pos { return token.NoPos }

func (ws *GoWorkspace) OriginalDefinition(sym types.Object) types.Object {
	return symbol.Canonicalize(sym)
}

func (ws *GoWorkspace) DeclaringSyntax(sym types.Object) []DeclSite {
	site, ok := ws.declSite[symbol.Canonicalize(sym)]
	if !ok {
		return nil
	}
	return []DeclSite{site}
}

func (ws *GoWorkspace) KindOf(sym types.Object) Kind {
	sym = symbol.Canonicalize(sym)
	switch o := sym.(type) {
	case *types.TypeName:
		if _, isTypeParam := o.Type().(*types.TypeParam); isTypeParam {
			return KindExcluded
		}
		return KindType
	case *types.Func:
		owner, hasOwner := ws.containingType[o]
		if hasOwner {
			if named, ok := owner.Type().(*types.Named); ok {
				if _, isIface := named.Underlying().(*types.Interface); isIface {
					return KindInterfaceMethod
				}
			}
			return KindMethod
		}
		if sig, ok := o.Type().(*types.Signature); ok && sig.Recv() != nil {
			return KindMethod
		}
		return KindFunc
	case *types.Var:
		if o.IsField() {
			return KindField
		}
		if isPackageScopeVar(o) {
			return KindVar
		}
		return KindExcluded // parameter, local, or range variable
	case *types.Const:
		if !isPackageScopeVar(o) {
			return KindExcluded
		}
		return KindConst
	default:
		return KindExcluded
	}
}

func (ws *GoWorkspace) ContainingType(sym types.Object) types.Object {
	return ws.containingType[symbol.Canonicalize(sym)]
}

func (ws *GoWorkspace) ContainingNamespace(sym types.Object) string {
	return symbol.Namespace(sym)
}

func (ws *GoWorkspace) ImplementedInterfaces(sym types.Object) []types.Object {
	tn, ok := sym.(*types.TypeName)
	if !ok {
		return nil
	}
	named, ok := tn.Type().(*types.Named)
	if !ok {
		return nil
	}
	if _, isIface := named.Underlying().(*types.Interface); isIface {
		return nil
	}
	ptr := types.NewPointer(named)
	var out []types.Object
	for _, iface := range ws.namedIfaces {
		if iface == named {
			continue
		}
		ifaceType, ok := iface.Underlying().(*types.Interface)
		if !ok || ifaceType.NumMethods() == 0 {
			continue
		}
		if types.Implements(named, ifaceType) || types.Implements(ptr, ifaceType) {
			out = append(out, iface.Obj())
		}
	}
	return out
}

func (ws *GoWorkspace) PackageLevelObjects(pkg *types.Package) []types.Object {
	return ws.pkgLevelObjs[pkg]
}

func (ws *GoWorkspace) Members(t types.Object) []types.Object {
	return ws.members[t]
}
