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

// Package surface is the Semantic Surface: the one part of this module
// permitted to touch the host compiler. Everything above it (symbol, crawl,
// aggregate, emit) is written against the Workspace interface only, so a
// caller that already has its own way of loading a semantic model (an LSP
// client, a cached go/packages run) can supply it instead of GoWorkspace.
package surface

import (
	"go/ast"
	"go/token"
	"go/types"

	"golang.org/x/tools/go/packages"
)

// Kind classifies a Symbol for the purposes of seeding and registration.
type Kind int

const (
	KindType Kind = iota
	KindMethod
	KindInterfaceMethod
	KindFunc
	KindField
	KindVar
	KindConst
	// KindExcluded covers error-type symbols and the kinds spec section 4.3
	// names explicitly: Parameter, Local, RangeVariable, Label, TypeParameter.
	KindExcluded
)

func (k Kind) String() string {
	switch k {
	case KindType:
		return "Type"
	case KindMethod:
		return "Method"
	case KindInterfaceMethod:
		return "InterfaceMethod"
	case KindFunc:
		return "Func"
	case KindField:
		return "Field"
	case KindVar:
		return "Var"
	case KindConst:
		return "Const"
	default:
		return "Excluded"
	}
}

// Location is a single point of reference: (file, line, column, source-line
// text), exactly as spec section 4.1 requires for use_site_symbols.
type Location struct {
	File       string
	Line       int
	Column     int
	SourceLine string
}

// UseSite pairs a resolved symbol with the location of the syntactic
// occurrence that resolved to it, and the symbol whose body or
// initializer lexically contains that occurrence (nil if none; GoWorkspace
// attributes a use inside a type's field list to that type). Enclosing is what
// lets the crawler charge same-type hops as free starting from the very
// first hop out of the root document, not just for later hops along a
// referenced_symbols chain.
type UseSite struct {
	Symbol    types.Object
	Enclosing types.Object
	Pos       Location
}

// DeclSite is one partial declaration of a symbol: the syntax node, the
// file it lives in, and enough context to slice its original source text.
type DeclSite struct {
	File  string
	Node  ast.Node
	Fset  *token.FileSet
	Bytes []byte
}

// Document is a located source file together with the semantic model
// covering it.
type Document struct {
	Path  string
	Fset  *token.FileSet
	File  *ast.File
	Bytes []byte
	Pkg   *packages.Package
}

// Workspace is the external collaborator contract of spec section 4.1. The
// rest of this module is agnostic to how a Workspace is built; GoWorkspace
// is the one concrete implementation, built on go/packages and go/types.
type Workspace interface {
	// LocateDocument does a case-insensitive full-path match. A missing
	// document is (nil, nil), not an error — only a genuine I/O/load
	// failure is an error here.
	LocateDocument(path string) (*Document, error)

	// DeclaredTypes enumerates every type, enum, and delegate declared in
	// doc (every *ast.TypeSpec with a resolved TypeName).
	DeclaredTypes(doc *Document) []types.Object

	// UseSites enumerates every syntactic occurrence in doc that resolves
	// to a symbol and is not itself that symbol's declaration.
	UseSites(doc *Document) []UseSite

	// ReferencedSymbols returns the symbols directly referenced by sym's
	// body/initializer (a method, function, or package-level var/const).
	// Returns nil for a symbol that has no body (a field, an interface
	// method stub, a symbol with no in-source declaration).
	ReferencedSymbols(sym types.Object) []types.Object

	// OriginalDefinition canonicalises sym the same way package symbol
	// does; exposed on Workspace because spec section 4.1 requires it as
	// part of the Semantic Surface contract.
	OriginalDefinition(sym types.Object) types.Object

	// DeclaringSyntax returns one entry per partial declaration of sym.
	// Go types have exactly one; the slice shape is kept for hosts where
	// that is not true.
	DeclaringSyntax(sym types.Object) []DeclSite

	// KindOf classifies sym.
	KindOf(sym types.Object) Kind

	// ContainingType returns sym's owner type (the receiver of a method,
	// the struct of a field, T for a "New<T>" constructor-equivalent or a
	// package-level var/const whose static type is exactly the struct or
	// interface type T), or nil if
	// sym has no owner — as for every other package-level func/var/const.
	ContainingType(sym types.Object) types.Object

	// ContainingNamespace returns sym's import path, already dot
	// delimited; no further concatenation is needed in Go.
	ContainingNamespace(sym types.Object) string

	// ImplementedInterfaces returns every interface with at least one
	// method, known to this workspace, that sym's type (or a pointer to
	// it) implements. Interfaces with no methods are not returned.
	ImplementedInterfaces(sym types.Object) []types.Object

	// PackageLevelObjects returns every function, var, and const declared
	// at package scope in pkg. Used by the crawler's mandatory-inclusion
	// rule (spec section 4.3) to find a type's constructor-equivalent and
	// its const/static-readonly-equivalent fields.
	PackageLevelObjects(pkg *types.Package) []types.Object

	// Members returns every symbol owned by t: its fields for a struct,
	// its method elements for an interface, its methods, and the
	// constructor-equivalent and package-level vars/consts that
	// ContainingType attributes to t. Go has no lexical nesting for
	// methods, but the root-type full-registration rule (spec section 4.3) still needs "every member
	// T declares" as a single enumeration, so the workspace — the only
	// layer that indexed the receiver/field relationship in the first
	// place — provides it directly instead of making every caller re-walk
	// ContainingType over the whole package.
	Members(t types.Object) []types.Object
}
