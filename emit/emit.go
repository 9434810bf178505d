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

// Package emit turns a crawl.KeepSet back into source text: for a
// struct or interface it keeps only the members the crawl selected, for
// anything else it emits the declaration unchanged. Re-emission never
// reformats: the minifier only strips a uniform amount of leading
// whitespace, never reflows or re-prints through go/printer.
package emit

import (
	"fmt"
	"go/ast"
	"go/types"
	"sort"
	"strings"

	"github.com/minislice/minislice/crawl"
	"github.com/minislice/minislice/surface"
	"github.com/minislice/minislice/symbol"
)

// ExplainMode controls whether inclusion-path trivia is injected.
type ExplainMode int

const (
	ExplainNone ExplainMode = iota
	ExplainReasonForInclusion
)

// noMembersKeptPath is the placeholder path recorded for a non-root
// compound type whose keep-set bucket holds no member besides the type
// itself, making the attenuation visible instead of silently emitting an
// empty body.
const noMembersKeptPath = "(type kept, but no members directly used)"

// Definition is the emitter's output for a single owner symbol.
type Definition struct {
	File      string
	Symbol    string
	Namespace string
	Code      string
}

// Render produces one Definition per owner type in ks.
func Render(ws surface.Workspace, ks *crawl.KeepSet, mode ExplainMode) (map[string]Definition, error) {
	out := map[string]Definition{}
	for _, t := range ks.Types() {
		sites := ws.DeclaringSyntax(t)
		if len(sites) == 0 {
			continue
		}
		site := sites[0]
		code, err := renderSite(ws, ks, t, site, mode)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", symbol.Key(t), err)
		}
		key := fmt.Sprintf("%s:%s", site.File, symbol.Key(t))
		out[key] = Definition{
			File:      site.File,
			Symbol:    displayName(t),
			Namespace: ws.ContainingNamespace(t),
			Code:      code,
		}
	}
	return out, nil
}

func displayName(t types.Object) string {
	if t == nil {
		return ""
	}
	return t.Name()
}

func renderSite(ws surface.Workspace, ks *crawl.KeepSet, t types.Object, site surface.DeclSite, mode ExplainMode) (string, error) {
	switch node := site.Node.(type) {
	case *ast.TypeSpec:
		switch node.Type.(type) {
		case *ast.StructType, *ast.InterfaceType:
			return renderCompound(ws, ks, t, site, mode)
		default:
			// Enum/delegate-equivalent: emitted unchanged.
			return annotate(minify(string(site.Bytes)), t, ks, mode), nil
		}
	default:
		// Any other declaration form (func, var, const): emit as-is.
		return annotate(minify(string(site.Bytes)), t, ks, mode), nil
	}
}

// renderCompound implements the struct/interface case from t's first
// declaring site: the header keeps only the fields/methods the keep-set
// selected for t, in their original syntactic order. Go never nests a
// method body inside the type's own syntax, so the header is followed by
// each kept method, constructor-equivalent and var/const's own verbatim
// text, in source order (by file, then by offset).
func renderCompound(ws surface.Workspace, ks *crawl.KeepSet, t types.Object, site surface.DeclSite, mode ExplainMode) (string, error) {
	ts := site.Node.(*ast.TypeSpec)
	bucket := ks.OwnerMembers(t)

	var chunks []string

	switch body := ts.Type.(type) {
	case *ast.StructType:
		header, err := renderStructHeader(site, ts, body, bucket)
		if err != nil {
			return "", err
		}
		chunks = append(chunks, annotateHeader(header, t, ks, mode))
	case *ast.InterfaceType:
		header, err := renderInterfaceHeader(site, ts, body, bucket)
		if err != nil {
			return "", err
		}
		chunks = append(chunks, annotateHeader(header, t, ks, mode))
	}

	keys := sortedMemberKeys(bucket)
	declPos := func(key string) (string, int) {
		if sites := ws.DeclaringSyntax(bucket[key].Symbol); len(sites) > 0 {
			p := sites[0].Fset.Position(sites[0].Node.Pos())
			return p.Filename, p.Offset
		}
		return "", 0
	}
	sort.SliceStable(keys, func(i, j int) bool {
		fi, oi := declPos(keys[i])
		fj, oj := declPos(keys[j])
		if fi != fj {
			return fi < fj
		}
		return oi < oj
	})
	for _, key := range keys {
		mi := bucket[key]
		if symbol.Key(mi.Symbol) == symbol.Key(t) {
			continue // the type's own self-registration, not a method/func to render
		}
		kind := ws.KindOf(mi.Symbol)
		if kind != surface.KindMethod && kind != surface.KindFunc && kind != surface.KindVar && kind != surface.KindConst {
			continue // fields/interface methods already rendered in the header
		}
		sites := ws.DeclaringSyntax(mi.Symbol)
		if len(sites) == 0 {
			continue
		}
		text := minify(string(sites[0].Bytes))
		chunks = append(chunks, annotate(text, mi.Symbol, ks, mode))
	}

	return strings.Join(chunks, "\n\n"), nil
}

func renderStructHeader(site surface.DeclSite, ts *ast.TypeSpec, st *ast.StructType, bucket map[string]*crawl.MemberInfo) (string, error) {
	var kept []*ast.Field
	for _, field := range st.Fields.List {
		if fieldKept(field, bucket) {
			kept = append(kept, field)
		}
	}
	return sliceTypeSpec(site, ts, kept, "struct"), nil
}

func renderInterfaceHeader(site surface.DeclSite, ts *ast.TypeSpec, it *ast.InterfaceType, bucket map[string]*crawl.MemberInfo) (string, error) {
	var kept []*ast.Field
	for _, method := range it.Methods.List {
		if fieldKept(method, bucket) {
			kept = append(kept, method)
		}
	}
	return sliceTypeSpec(site, ts, kept, "interface"), nil
}

// fieldKept reports whether any name declared by field resolves to a key
// present in bucket — a field/method declaration binds one display key
// per name it declares (a Go struct field such as "X, Y int" binds
// several), so the field is kept if any one of its names is.
func fieldKept(field *ast.Field, bucket map[string]*crawl.MemberInfo) bool {
	if bucket == nil {
		return false
	}
	if len(field.Names) == 0 {
		// embedded field/interface: match on the trailing identifier text.
		name := embeddedTypeText(field.Type)
		for key := range bucket {
			if strings.HasSuffix(key, "."+name) || key == name {
				return true
			}
		}
		return false
	}
	for _, n := range field.Names {
		for key := range bucket {
			if strings.HasSuffix(key, "."+n.Name) || key == n.Name {
				return true
			}
		}
	}
	return false
}

func embeddedTypeText(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.Ident:
		return e.Name
	case *ast.SelectorExpr:
		return e.Sel.Name
	case *ast.StarExpr:
		return embeddedTypeText(e.X)
	default:
		return ""
	}
}

// sliceTypeSpec rebuilds the textual header "type Name struct { ... }" (or
// interface) from the original source, slicing out the fields/methods not
// in kept. It works on source offsets rather than go/printer so comments,
// tags and exact spacing of the retained members survive untouched.
func sliceTypeSpec(site surface.DeclSite, ts *ast.TypeSpec, kept []*ast.Field, keyword string) string {
	if len(kept) == 0 {
		return fmt.Sprintf("type %s %s {\n}", ts.Name.Name, keyword)
	}

	fset := site.Fset
	base := ts.Pos()
	baseOffset := fset.Position(base).Offset

	var b strings.Builder
	fmt.Fprintf(&b, "type %s %s {\n", ts.Name.Name, keyword)
	for _, field := range kept {
		startPos, endPos := field.Pos(), field.End()
		if field.Doc != nil {
			startPos = field.Doc.Pos()
		}
		if field.Comment != nil {
			endPos = field.Comment.End()
		}
		start := fset.Position(startPos).Offset - baseOffset
		end := fset.Position(endPos).Offset - baseOffset
		if start < 0 || end > len(site.Bytes) || start > end {
			continue
		}
		line := strings.TrimRight(string(site.Bytes[start:end]), " \t")
		b.WriteString("\t")
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

func sortedMemberKeys(bucket map[string]*crawl.MemberInfo) []string {
	keys := make([]string, 0, len(bucket))
	for k := range bucket {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// minify computes the minimum leading-whitespace count over all non-blank
// lines of src and strips that many characters from every line, then
// trims surrounding blank lines.
func minify(src string) string {
	lines := strings.Split(src, "\n")
	min := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		indent := len(l) - len(strings.TrimLeft(l, " \t"))
		if min == -1 || indent < min {
			min = indent
		}
	}
	if min <= 0 {
		min = 0
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		if len(l) >= min {
			out[i] = l[min:]
		} else {
			out[i] = strings.TrimLeft(l, " \t")
		}
	}
	start, end := 0, len(out)
	for start < end && strings.TrimSpace(out[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(out[end-1]) == "" {
		end--
	}
	return strings.Join(out[start:end], "\n")
}

func annotate(text string, sym types.Object, ks *crawl.KeepSet, mode ExplainMode) string {
	if mode != ExplainReasonForInclusion {
		return text
	}
	paths := pathsFor(sym, ks)
	if len(paths) == 0 {
		return text
	}
	var b strings.Builder
	for _, p := range paths {
		b.WriteString("// path: ")
		b.WriteString(p)
		b.WriteString("\n")
	}
	b.WriteString(text)
	return b.String()
}

func annotateHeader(header string, t types.Object, ks *crawl.KeepSet, mode ExplainMode) string {
	if mode != ExplainReasonForInclusion {
		return header
	}
	paths := pathsFor(t, ks)
	if !ks.IsRoot(t) {
		membersKept := false
		for key := range ks.OwnerMembers(t) {
			if key != symbol.Key(t) {
				membersKept = true
				break
			}
		}
		if !membersKept {
			paths = []string{noMembersKeptPath}
		}
	}
	if len(paths) == 0 {
		return header
	}
	var b strings.Builder
	for _, p := range paths {
		b.WriteString("// path: ")
		b.WriteString(p)
		b.WriteString("\n")
	}
	b.WriteString(header)
	return b.String()
}

func pathsFor(sym types.Object, ks *crawl.KeepSet) []string {
	bucket := ks.OwnerMembers(sym)
	if bucket == nil {
		return nil
	}
	mi, ok := bucket[symbol.Key(sym)]
	if !ok {
		return nil
	}
	return mi.SortedPaths()
}
