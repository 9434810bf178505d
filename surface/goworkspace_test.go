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

package surface_test

import (
	"go/types"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minislice/minislice/surface"
)

func fixtureDir(t *testing.T) string {
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "testdata", "fixture")
}

func loadFixture(t *testing.T) *surface.GoWorkspace {
	ws, err := surface.LoadWorkspace(fixtureDir(t))
	require.NoError(t, err)
	return ws
}

func findType(t *testing.T, ws *surface.GoWorkspace, doc *surface.Document, name string) types.Object {
	for _, obj := range ws.DeclaredTypes(doc) {
		if obj.Name() == name {
			return obj
		}
	}
	t.Fatalf("type %s not found in %s", name, doc.Path)
	return nil
}

func TestLoadWorkspace_IndexesAllFixtureFiles(t *testing.T) {
	ws := loadFixture(t)
	for _, f := range []string{"a.go", "b.go", "c.go", "d.go", "u.go", "x.go", "speaker.go"} {
		doc, err := ws.LocateDocument(filepath.Join(fixtureDir(t), f))
		require.NoError(t, err)
		require.NotNil(t, doc, "expected %s to be indexed", f)
	}
}

func TestLocateDocument_MissingPathReturnsNilNotError(t *testing.T) {
	ws := loadFixture(t)
	doc, err := ws.LocateDocument(filepath.Join(fixtureDir(t), "does-not-exist.go"))
	require.NoError(t, err)
	require.Nil(t, doc)
}

func TestDeclaredTypes_FindsA(t *testing.T) {
	ws := loadFixture(t)
	doc, err := ws.LocateDocument(filepath.Join(fixtureDir(t), "a.go"))
	require.NoError(t, err)
	require.NotNil(t, doc)
	a := findType(t, ws, doc, "A")
	require.Equal(t, surface.KindType, ws.KindOf(a))
}

func TestKindOf_ClassifiesMethodsFuncsAndMandatoryMembers(t *testing.T) {
	ws := loadFixture(t)
	docA, err := ws.LocateDocument(filepath.Join(fixtureDir(t), "a.go"))
	require.NoError(t, err)
	a := findType(t, ws, docA, "A")

	var fMethod, newC, k types.Object
	for _, obj := range ws.Members(a) {
		if obj.Name() == "F" {
			fMethod = obj
		}
	}
	require.NotNil(t, fMethod)
	require.Equal(t, surface.KindMethod, ws.KindOf(fMethod))

	docC, err := ws.LocateDocument(filepath.Join(fixtureDir(t), "c.go"))
	require.NoError(t, err)
	c := findType(t, ws, docC, "C")
	for _, obj := range ws.Members(c) {
		switch obj.Name() {
		case "NewC":
			newC = obj
		case "K":
			k = obj
		}
	}
	require.NotNil(t, newC, "constructor-equivalent NewC must be resolved as a member of C")
	require.Equal(t, surface.KindMethod, ws.KindOf(newC))
	require.NotNil(t, k, "package-level var K of type C must be resolved as a member of C")
}

func TestContainingType_MethodPointsBackToReceiver(t *testing.T) {
	ws := loadFixture(t)
	docB, err := ws.LocateDocument(filepath.Join(fixtureDir(t), "b.go"))
	require.NoError(t, err)
	b := findType(t, ws, docB, "B")

	var g types.Object
	for _, obj := range ws.Members(b) {
		if obj.Name() == "G" {
			g = obj
		}
	}
	require.NotNil(t, g)
	require.Equal(t, b, ws.ContainingType(g))
}

func TestImplementedInterfaces_AIncludesSpeaker(t *testing.T) {
	ws := loadFixture(t)
	docA, err := ws.LocateDocument(filepath.Join(fixtureDir(t), "a.go"))
	require.NoError(t, err)
	a := findType(t, ws, docA, "A")

	var names []string
	for _, iface := range ws.ImplementedInterfaces(a) {
		names = append(names, iface.Name())
	}
	require.Contains(t, names, "Speaker")
}

func TestReferencedSymbols_WalksMethodBody(t *testing.T) {
	ws := loadFixture(t)
	docB, err := ws.LocateDocument(filepath.Join(fixtureDir(t), "b.go"))
	require.NoError(t, err)
	b := findType(t, ws, docB, "B")

	var g types.Object
	for _, obj := range ws.Members(b) {
		if obj.Name() == "G" {
			g = obj
		}
	}
	require.NotNil(t, g)

	var sawM bool
	for _, ref := range ws.ReferencedSymbols(g) {
		if ref.Name() == "M" {
			sawM = true
		}
	}
	require.True(t, sawM, "B.G's body calls C.M")
}
