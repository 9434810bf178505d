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

// Package slicekit wires the Symbol Index, Reachability Crawler,
// Aggregator and Emitter behind the three entry points a caller actually
// needs: a full reachable-declaration walk, a minimal single-root slice,
// and an aggregated minimal slice over several roots.
package slicekit

import (
	"context"
	"errors"

	"github.com/minislice/minislice/aggregate"
	"github.com/minislice/minislice/crawl"
	"github.com/minislice/minislice/emit"
	"github.com/minislice/minislice/internal/logsink"
	"github.com/minislice/minislice/surface"
)

// Config carries the ambient options shared by every entry point in this
// package: namespace exclusion and the logging sink. Depth, explain mode
// and exclude_root_definitions are per-call parameters, matching spec
// section 6's three named entry points one for one.
type Config struct {
	ExcludedNamespacePrefixes []string
	Logger                    logsink.Sink
}

// LoadWorkspace opens the Go module containing anyPath. It is a thin
// pass-through to surface.LoadWorkspace, re-exported here so a caller of
// this package never has to import the surface package directly for the
// common case of "I have no Workspace of my own yet."
func LoadWorkspace(anyPath string, cfg Config) (surface.Workspace, error) {
	ws, err := surface.LoadWorkspace(anyPath, surface.WithLogSink(cfg.Logger))
	if err != nil {
		return nil, newError(WorkspaceLoad, err, "load workspace at %s", anyPath)
	}
	return ws, nil
}

// FindAllDefinitions performs a full walk ignoring minimisation: every
// type reachable from root within depth levels is returned with all of
// its members, not just the ones actually used.
func FindAllDefinitions(ctx context.Context, ws surface.Workspace, rootFile string, depth int, cfg Config) (map[string]emit.Definition, error) {
	doc, err := locateRoot(ws, rootFile)
	if err != nil {
		return nil, err
	}
	if depth < 0 {
		return nil, newError(InvalidArgument, nil, "depth must be >= 0, got %d", depth)
	}

	ks := crawl.NewKeepSet()
	crawlCfg := crawl.Config{
		Depth:                     depth,
		ExcludeRootDefinitions:    false,
		ExcludedNamespacePrefixes: cfg.ExcludedNamespacePrefixes,
		Logger:                    cfg.Logger,
	}
	if err := crawl.Crawl(ctx, ws, doc, crawlCfg, ks); err != nil {
		return nil, crawlErr(err)
	}

	full := crawl.NewKeepSet()
	for _, t := range ks.Types() {
		full.MarkRoot(t)
		full.Register(t, t, "full walk (minimisation ignored)")
		for _, m := range ws.Members(t) {
			full.Register(t, m, "full walk (minimisation ignored)")
		}
	}

	defs, err := emit.Render(ws, full, emit.ExplainNone)
	if err != nil {
		return nil, newError(Internal, err, "render full walk for %s", rootFile)
	}
	return defs, nil
}

// FindMinimalDefinitions runs the crawler and emitter over a single root
// document, returning the minimal member-attenuated slice.
func FindMinimalDefinitions(ctx context.Context, ws surface.Workspace, rootFile string, depth int, explainMode emit.ExplainMode, excludeRootDefinitions bool, cfg Config) (map[string]emit.Definition, error) {
	doc, err := locateRoot(ws, rootFile)
	if err != nil {
		return nil, err
	}
	if depth < 0 {
		return nil, newError(InvalidArgument, nil, "depth must be >= 0, got %d", depth)
	}

	ks := crawl.NewKeepSet()
	crawlCfg := crawl.Config{
		Depth:                     depth,
		ExcludeRootDefinitions:    excludeRootDefinitions,
		ExcludedNamespacePrefixes: cfg.ExcludedNamespacePrefixes,
		Logger:                    cfg.Logger,
	}
	if err := crawl.Crawl(ctx, ws, doc, crawlCfg, ks); err != nil {
		return nil, crawlErr(err)
	}

	defs, err := emit.Render(ws, ks, explainMode)
	if err != nil {
		return nil, newError(Internal, err, "render minimal slice for %s", rootFile)
	}
	return defs, nil
}

// FindAggregatedMinimalDefinitions runs the crawler once per entry
// document and merges the resulting keep-sets before rendering, so a
// declaration referenced from several roots appears once with the union
// of its inclusion paths.
func FindAggregatedMinimalDefinitions(ctx context.Context, ws surface.Workspace, rootFiles []string, depth int, explainMode emit.ExplainMode, excludeRootDefinitionsPerFile map[string]bool, cfg Config) (map[string]emit.Definition, error) {
	if len(rootFiles) == 0 {
		return nil, newError(InvalidArgument, nil, "aggregation requires at least one root file")
	}
	if depth < 0 {
		return nil, newError(InvalidArgument, nil, "depth must be >= 0, got %d", depth)
	}

	sets := make([]*crawl.KeepSet, 0, len(rootFiles))
	for _, rootFile := range rootFiles {
		doc, err := locateRoot(ws, rootFile)
		if err != nil {
			return nil, err
		}
		ks := crawl.NewKeepSet()
		crawlCfg := crawl.Config{
			Depth:                     depth,
			ExcludeRootDefinitions:    excludeRootDefinitionsPerFile[rootFile],
			ExcludedNamespacePrefixes: cfg.ExcludedNamespacePrefixes,
			Logger:                    cfg.Logger,
		}
		if err := crawl.Crawl(ctx, ws, doc, crawlCfg, ks); err != nil {
			return nil, crawlErr(err)
		}
		sets = append(sets, ks)
	}

	merged := aggregate.Merge(sets...)
	defs, err := emit.Render(ws, merged, explainMode)
	if err != nil {
		return nil, newError(Internal, err, "render aggregated slice over %d roots", len(rootFiles))
	}
	return defs, nil
}

func locateRoot(ws surface.Workspace, path string) (*surface.Document, error) {
	doc, err := ws.LocateDocument(path)
	if err != nil {
		return nil, newError(WorkspaceLoad, err, "locate %s", path)
	}
	if doc == nil {
		return nil, newError(NotFound, nil, "root file not present in workspace: %s", path)
	}
	return doc, nil
}

func crawlErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return newError(Cancelled, err, "crawl cancelled")
	}
	if errors.Is(err, crawl.ErrNegativeDepth) {
		return newError(InvalidArgument, err, "invalid depth")
	}
	if errors.Is(err, crawl.ErrNoRootDocument) {
		return newError(NotFound, err, "root document not found")
	}
	return newError(Internal, err, "crawl failed")
}
