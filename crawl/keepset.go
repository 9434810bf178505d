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

package crawl

import (
	"go/types"

	"github.com/minislice/minislice/symbol"
)

// MemberInfo is a symbol chosen to be kept, together with its provenance:
// the set of distinct inclusion paths that led to it.
type MemberInfo struct {
	Symbol types.Object
	Owner  types.Object
	Paths  map[string]struct{}
}

// SortedPaths returns m's paths in a deterministic order, for emission.
func (m *MemberInfo) SortedPaths() []string {
	out := make([]string, 0, len(m.Paths))
	for p := range m.Paths {
		out = append(out, p)
	}
	sortStrings(out)
	return out
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// Registry is the crawler's write-side collaborator (spec DESIGN NOTES:
// an explicit registry rather than a closure capturing the keep-set).
// *KeepSet is the only implementation in this module, but the crawler
// itself depends only on this interface.
type Registry interface {
	MarkRoot(t types.Object)
	IsRoot(t types.Object) bool
	Register(owner, member types.Object, path string)
	HasRunMandatoryInclusion(t types.Object) bool
	MarkMandatoryInclusionRun(t types.Object)
	OwnerMembers(t types.Object) map[string]*MemberInfo
}

// KeepSet is the crawler's output: a mapping from owner TypeSymbol to a
// mapping from member display key to MemberInfo, plus the set of root
// types (those declared in an entry document, whether or not any of
// their members survived crawling).
type KeepSet struct {
	RootTypes map[symbol.ID]types.Object
	Members   map[symbol.ID]map[string]*MemberInfo

	mandatoryRun map[symbol.ID]bool
}

// NewKeepSet returns an empty KeepSet.
func NewKeepSet() *KeepSet {
	return &KeepSet{
		RootTypes:    map[symbol.ID]types.Object{},
		Members:      map[symbol.ID]map[string]*MemberInfo{},
		mandatoryRun: map[symbol.ID]bool{},
	}
}

func (ks *KeepSet) MarkRoot(t types.Object) {
	ks.RootTypes[symbol.Of(t)] = symbol.Canonicalize(t)
}

func (ks *KeepSet) IsRoot(t types.Object) bool {
	_, ok := ks.RootTypes[symbol.Of(t)]
	return ok
}

func (ks *KeepSet) Register(owner, member types.Object, path string) {
	oid := symbol.Of(owner)
	bucket, ok := ks.Members[oid]
	if !ok {
		bucket = map[string]*MemberInfo{}
		ks.Members[oid] = bucket
	}
	key := symbol.Key(member)
	mi, ok := bucket[key]
	if !ok {
		mi = &MemberInfo{
			Symbol: symbol.Canonicalize(member),
			Owner:  symbol.Canonicalize(owner),
			Paths:  map[string]struct{}{},
		}
		bucket[key] = mi
	}
	mi.Paths[path] = struct{}{}
}

func (ks *KeepSet) HasRunMandatoryInclusion(t types.Object) bool {
	return ks.mandatoryRun[symbol.Of(t)]
}

func (ks *KeepSet) MarkMandatoryInclusionRun(t types.Object) {
	ks.mandatoryRun[symbol.Of(t)] = true
}

func (ks *KeepSet) OwnerMembers(t types.Object) map[string]*MemberInfo {
	return ks.Members[symbol.Of(t)]
}

// Types returns every owner type that has at least one registered
// member. Root-type status alone is not enough: exclude_root_definitions
// means a root's own declarations are never registered from its own
// crawl, so it must not appear in the emitted output either — unlike a
// root type that *is* fully registered, which gets a self-entry (see
// crawl.Crawl) precisely so an empty-bodied root type still gets one.
func (ks *KeepSet) Types() []types.Object {
	out := make([]types.Object, 0, len(ks.Members))
	for _, bucket := range ks.Members {
		if len(bucket) == 0 {
			continue
		}
		for _, mi := range bucket {
			out = append(out, mi.Owner)
			break
		}
	}
	return out
}
