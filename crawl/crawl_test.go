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

package crawl_test

import (
	"context"
	"go/types"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minislice/minislice/crawl"
	"github.com/minislice/minislice/surface"
)

func fixtureDir(t *testing.T) string {
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "testdata", "fixture")
}

func loadFixture(t *testing.T) (*surface.GoWorkspace, *surface.Document, *surface.Document) {
	ws, err := surface.LoadWorkspace(fixtureDir(t))
	require.NoError(t, err)
	docA, err := ws.LocateDocument(filepath.Join(fixtureDir(t), "a.go"))
	require.NoError(t, err)
	require.NotNil(t, docA)
	docD, err := ws.LocateDocument(filepath.Join(fixtureDir(t), "d.go"))
	require.NoError(t, err)
	require.NotNil(t, docD)
	return ws, docA, docD
}

func memberNames(ks *crawl.KeepSet, owner types.Object) []string {
	var out []string
	for _, mi := range ks.OwnerMembers(owner) {
		out = append(out, mi.Symbol.Name())
	}
	return out
}

func ownerNames(ks *crawl.KeepSet) []string {
	var out []string
	for _, t := range ks.Types() {
		out = append(out, t.Name())
	}
	return out
}

// Scenario 1: depth=1 from A keeps A in full plus only B.G (not B.H).
func TestCrawl_Scenario1_DepthOneKeepsDirectCrossTypeHop(t *testing.T) {
	ws, docA, _ := loadFixture(t)
	ks := crawl.NewKeepSet()
	err := crawl.Crawl(context.Background(), ws, docA, crawl.Config{Depth: 1}, ks)
	require.NoError(t, err)

	require.Contains(t, ownerNames(ks), "A")
	require.Contains(t, ownerNames(ks), "B")
	bNames := memberNames(ks, findOwner(ks, "B"))
	require.Contains(t, bNames, "G")
	require.NotContains(t, bNames, "H")
}

// Scenario 2: depth=0 from A keeps A (and the Speaker interface it
// implements) but not B; the cross-type hop into B never happens because
// there is no budget left to seed it.
func TestCrawl_Scenario2_DepthZeroKeepsOnlyRoot(t *testing.T) {
	ws, docA, _ := loadFixture(t)
	ks := crawl.NewKeepSet()
	err := crawl.Crawl(context.Background(), ws, docA, crawl.Config{Depth: 0}, ks)
	require.NoError(t, err)

	require.Contains(t, ownerNames(ks), "A")
	require.NotContains(t, ownerNames(ks), "B")
}

// Scenario 3: C, reached from A, retains its constructor (NewC) and its
// static-readonly-equivalent (K) via mandatory inclusion, but not M (never
// referenced at depth 1).
func TestCrawl_Scenario3_MandatoryInclusionOnReachedType(t *testing.T) {
	ws, docA, _ := loadFixture(t)
	ks := crawl.NewKeepSet()
	err := crawl.Crawl(context.Background(), ws, docA, crawl.Config{Depth: 1}, ks)
	require.NoError(t, err)

	cNames := memberNames(ks, findOwner(ks, "C"))
	require.Contains(t, cNames, "NewC")
	require.Contains(t, cNames, "K")
	require.NotContains(t, cNames, "M")
}

// Scenario 4: two distinct instantiations of the generic Do, one from
// each root document, collapse to a single keep-set entry.
func TestCrawl_Scenario4_GenericInstantiationsCollapse(t *testing.T) {
	ws, docA, docD := loadFixture(t)
	ks := crawl.NewKeepSet()
	require.NoError(t, crawl.Crawl(context.Background(), ws, docA, crawl.Config{Depth: 1}, ks))
	require.NoError(t, crawl.Crawl(context.Background(), ws, docD, crawl.Config{Depth: 1}, ks))

	// Do is a free generic function (no receiver), so it owns itself —
	// U itself is never referenced and must not appear at all.
	do := findOwner(ks, "Do")
	require.NotNil(t, do)
	require.NotContains(t, ownerNames(ks), "U")

	doEntries := 0
	for _, mi := range ks.OwnerMembers(do) {
		if mi.Symbol.Name() == "Do" {
			doEntries++
		}
	}
	require.Equal(t, 1, doEntries, "Do[int] and Do[string] must canonicalize to one entry")
}

// Scenario 5: aggregating a.go and d.go's crawls over X produces both P and
// Q.
func TestCrawl_Scenario5_AggregationUnionsDistinctMembers(t *testing.T) {
	ws, docA, docD := loadFixture(t)
	ks := crawl.NewKeepSet()
	require.NoError(t, crawl.Crawl(context.Background(), ws, docA, crawl.Config{Depth: 1}, ks))
	require.NoError(t, crawl.Crawl(context.Background(), ws, docD, crawl.Config{Depth: 1}, ks))

	xNames := memberNames(ks, findOwner(ks, "X"))
	require.Contains(t, xNames, "P")
	require.Contains(t, xNames, "Q")
}

// Scenario 6: fmt.Println is excluded by an "fmt" namespace prefix.
func TestCrawl_Scenario6_NamespaceExclusionDropsStdlibCall(t *testing.T) {
	ws, docA, _ := loadFixture(t)
	ks := crawl.NewKeepSet()
	err := crawl.Crawl(context.Background(), ws, docA, crawl.Config{
		Depth:                     1,
		ExcludedNamespacePrefixes: []string{"fmt"},
	}, ks)
	require.NoError(t, err)
	require.NotContains(t, ownerNames(ks), "Println")
}

// Scenario 7: exclude_root_definitions=true on a depth-1 crawl from A
// leaves A entirely absent from the emitted keep-set, while B (reached
// through a cross-type hop) still appears.
func TestCrawl_Scenario7_ExcludeRootDefinitionsOmitsRootEntirely(t *testing.T) {
	ws, docA, _ := loadFixture(t)
	ks := crawl.NewKeepSet()
	err := crawl.Crawl(context.Background(), ws, docA, crawl.Config{
		Depth:                  1,
		ExcludeRootDefinitions: true,
	}, ks)
	require.NoError(t, err)

	require.NotContains(t, ownerNames(ks), "A")
	require.Contains(t, ownerNames(ks), "B")
}

// Scenario 8: a depth-2 crawl from A reaches the full A -> B -> C chain,
// with C.M registered via the B.G -> C.M hop. At depth 1, C is still
// present (A.F calls NewC() directly, one cross-type hop away) but M, two
// cross-type hops from A, must not appear.
func TestCrawl_Scenario8_DepthTwoChainReachesFullPath(t *testing.T) {
	ws, docA, _ := loadFixture(t)
	ks2 := crawl.NewKeepSet()
	require.NoError(t, crawl.Crawl(context.Background(), ws, docA, crawl.Config{Depth: 2}, ks2))

	require.Contains(t, ownerNames(ks2), "A")
	require.Contains(t, ownerNames(ks2), "B")
	require.Contains(t, ownerNames(ks2), "C")
	cNames := memberNames(ks2, findOwner(ks2, "C"))
	require.Contains(t, cNames, "M")

	ks1 := crawl.NewKeepSet()
	require.NoError(t, crawl.Crawl(context.Background(), ws, docA, crawl.Config{Depth: 1}, ks1))
	cNames1 := memberNames(ks1, findOwner(ks1, "C"))
	require.NotContains(t, cNames1, "M", "M is two cross-type hops from A and must not appear at depth 1")
}

func TestCrawl_NegativeDepthRejected(t *testing.T) {
	ws, docA, _ := loadFixture(t)
	ks := crawl.NewKeepSet()
	err := crawl.Crawl(context.Background(), ws, docA, crawl.Config{Depth: -1}, ks)
	require.ErrorIs(t, err, crawl.ErrNegativeDepth)
}

func TestCrawl_NilRootDocumentRejected(t *testing.T) {
	ws, _, _ := loadFixture(t)
	ks := crawl.NewKeepSet()
	err := crawl.Crawl(context.Background(), ws, nil, crawl.Config{Depth: 1}, ks)
	require.ErrorIs(t, err, crawl.ErrNoRootDocument)
}

func findOwner(ks *crawl.KeepSet, name string) types.Object {
	for _, t := range ks.Types() {
		if t.Name() == name {
			return t
		}
	}
	return nil
}
