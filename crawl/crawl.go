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

// Package crawl implements the bounded breadth-first reachability crawl:
// starting from a root document's use sites, it walks referenced_symbols
// edges outward, charging one unit of depth budget per cross-type hop and
// nothing for a same-type hop, registering everything it touches into a
// Registry.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"go/types"
	"path/filepath"
	"strings"

	"github.com/minislice/minislice/internal/logsink"
	"github.com/minislice/minislice/surface"
	"github.com/minislice/minislice/symbol"
)

// ErrNegativeDepth is returned when Config.Depth is negative.
var ErrNegativeDepth = errors.New("crawl: depth must be >= 0")

// ErrNoRootDocument is returned when the root document is nil.
var ErrNoRootDocument = errors.New("crawl: root document not found in workspace")

// Config holds the crawler's tunables, matching spec section 6's
// enumerated configuration options.
type Config struct {
	Depth                     int
	ExcludeRootDefinitions    bool
	ExcludedNamespacePrefixes []string
	Logger                    logsink.Sink
}

// Frontier is one pending BFS work item.
type Frontier struct {
	Symbol    types.Object
	DepthLeft int
	Path      string
}

// Crawl runs the bounded reachability crawl described in spec section 4.3,
// writing every discovered symbol into reg. A context cancellation is the
// only abort path once the root-document checks have passed, and it is
// surfaced immediately; reg then still holds whatever was registered
// before the abort, so a caller discards it on error.
func Crawl(ctx context.Context, ws surface.Workspace, root *surface.Document, cfg Config, reg Registry) error {
	if cfg.Depth < 0 {
		return ErrNegativeDepth
	}
	if root == nil {
		return ErrNoRootDocument
	}

	excluded := func(sym types.Object) bool {
		return namespaceExcluded(ws.ContainingNamespace(sym), cfg.ExcludedNamespacePrefixes)
	}

	// 1. Root-type identification. Root-set membership is unconditional
	// on the namespace filter: a type is root iff it is declared in an
	// entry document, regardless of whether any of its members survive
	// into the keep-set.
	for _, t := range ws.DeclaredTypes(root) {
		reg.MarkRoot(t)
		if excluded(t) || cfg.ExcludeRootDefinitions {
			continue
		}
		// Self-registration guarantees T gets a (possibly empty beyond
		// this one entry) bucket even when it declares zero members, so
		// an empty root struct still surfaces in the emitted output.
		reg.Register(t, t, "declared in source file")
		for _, m := range ws.Members(t) {
			if ws.KindOf(m) == surface.KindExcluded || excluded(m) {
				continue
			}
			reg.Register(t, m, "declared in source file")
		}
		applyMandatoryInclusion(ws, reg, t)

		for _, iface := range ws.ImplementedInterfaces(t) {
			if excluded(iface) {
				continue
			}
			path := fmt.Sprintf("%s implements %s", displayName(t), displayName(iface))
			for _, m := range ws.Members(iface) {
				reg.Register(iface, m, path)
			}
			applyMandatoryInclusion(ws, reg, iface)
		}
	}

	// 2. Use-site seeding. A use site charges the same same-type-free /
	// cross-type-costs-one rule as a later referenced_symbols hop, using
	// the use site's enclosing declaration as the "from" type — this is
	// what keeps a depth-0 slice limited to the root document's own
	// types (see the doc comment on seedDepth).
	var queue []Frontier
	for _, use := range ws.UseSites(root) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		sym := use.Symbol
		if ws.KindOf(sym) == surface.KindExcluded || excluded(sym) {
			continue
		}
		depth, ok := seedDepth(ws, use, sym, cfg.Depth)
		if !ok {
			continue
		}
		queue = append(queue, Frontier{
			Symbol:    sym,
			DepthLeft: depth,
			Path:      formatLocation(use.Pos),
		})
	}

	// 3. BFS.
	processed := map[symbol.ID]bool{}
	for len(queue) > 0 {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		f := queue[0]
		queue = queue[1:]

		id := symbol.Of(f.Symbol)
		if processed[id] {
			continue
		}
		processed[id] = true

		if len(ws.DeclaringSyntax(f.Symbol)) == 0 {
			logsink.Infof(cfg.Logger, "skipping metadata-only symbol %s", symbol.Key(f.Symbol))
			continue
		}

		owner := ownerOf(ws, f.Symbol)
		if owner == nil {
			logsink.Infof(cfg.Logger, "skipping symbol with no containing type: %s", symbol.Key(f.Symbol))
			continue
		}
		if excluded(owner) {
			continue
		}

		if cfg.ExcludeRootDefinitions && reg.IsRoot(owner) {
			continue
		}

		reg.Register(owner, f.Symbol, f.Path)
		applyMandatoryInclusion(ws, reg, owner)

		if f.DepthLeft == 0 {
			continue
		}

		for _, c := range ws.ReferencedSymbols(f.Symbol) {
			if ws.KindOf(c) == surface.KindExcluded || excluded(c) {
				continue
			}
			childOwner := ownerOf(ws, c)
			if childOwner == nil {
				continue
			}
			nextDepth := f.DepthLeft
			if symbol.Of(childOwner) != symbol.Of(owner) {
				nextDepth--
			}
			if nextDepth < 0 {
				continue
			}
			queue = append(queue, Frontier{
				Symbol:    c,
				DepthLeft: nextDepth,
				Path:      f.Path + " -> " + signatureWithLine(ws, c),
			})
		}
	}
	return nil
}

// seedDepth computes the depth budget for a use site exactly the way a
// later referenced_symbols hop is costed: free if the use site's
// enclosing declaration has the same owner as the target symbol, one unit
// otherwise. Returns ok=false if the hop would already exceed the budget
// (only possible when depth is 0 and the hop is cross-type), matching the
// "same-type hops are free" testable property from the very first hop out
// of the root document, not only for hops further down a chain.
func seedDepth(ws surface.Workspace, use surface.UseSite, sym types.Object, depth int) (int, bool) {
	if use.Enclosing == nil {
		return depth, true
	}
	fromOwner := ownerOf(ws, use.Enclosing)
	toOwner := ownerOf(ws, sym)
	if symbol.Of(fromOwner) == symbol.Of(toOwner) {
		return depth, true
	}
	if depth == 0 {
		return 0, false
	}
	return depth - 1, true
}

// ownerOf determines the owner type of sym: itself if it is a type,
// otherwise its containing type. Implements the tie-break rule that a
// symbol which is both a type and a member registers against itself.
func ownerOf(ws surface.Workspace, sym types.Object) types.Object {
	if ws.KindOf(sym) == surface.KindType {
		return sym
	}
	if owner := ws.ContainingType(sym); owner != nil {
		return owner
	}
	// Go has no member without a containing type other than a
	// package-level func/var/const, which is never "missing an owner" —
	// it registers against itself.
	return sym
}

// applyMandatoryInclusion registers T's constructor-equivalent
// (package-level func named "New<T>") and its const/static-readonly
// equivalents (package-level const/var declared with static type exactly
// T), exactly once per type, regardless of how many times T is registered.
func applyMandatoryInclusion(ws surface.Workspace, reg Registry, t types.Object) {
	if reg.HasRunMandatoryInclusion(t) {
		return
	}
	reg.MarkMandatoryInclusionRun(t)

	named, ok := t.Type().(*types.Named)
	if !ok || t.Pkg() == nil {
		return
	}
	ctorName := "New" + t.Name()
	for _, obj := range ws.PackageLevelObjects(t.Pkg()) {
		switch o := obj.(type) {
		case *types.Func:
			if o.Name() == ctorName {
				reg.Register(t, o, "mandatory: constructor of "+t.Name())
			}
		case *types.Var:
			if types.Identical(o.Type(), named) {
				reg.Register(t, o, "mandatory: static field of "+t.Name())
			}
		case *types.Const:
			if types.Identical(o.Type(), named) {
				reg.Register(t, o, "mandatory: const field of "+t.Name())
			}
		}
	}
}

func namespaceExcluded(ns string, prefixes []string) bool {
	if ns == "" {
		return false
	}
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(ns, p) {
			return true
		}
	}
	return false
}

func displayName(obj types.Object) string {
	return symbol.Key(obj)
}

func formatLocation(loc surface.Location) string {
	return fmt.Sprintf("%s:%d: %s", filepath.Base(loc.File), loc.Line, strings.TrimSpace(loc.SourceLine))
}

func signatureWithLine(ws surface.Workspace, sym types.Object) string {
	sites := ws.DeclaringSyntax(sym)
	if len(sites) == 0 {
		return displayName(sym)
	}
	site := sites[0]
	pos := site.Fset.Position(site.Node.Pos())
	return fmt.Sprintf("%s (%s:%d)", displayName(sym), filepath.Base(pos.Filename), pos.Line)
}
