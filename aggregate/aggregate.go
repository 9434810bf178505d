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

// Package aggregate merges the per-document keep-sets produced by running
// the crawler once per entry document into a single keep-set, as spec
// section 4.4 requires for multi-root extraction.
package aggregate

import "github.com/minislice/minislice/crawl"

// Merge unions root-type sets and, for every (owner, member) pair present
// in any input keep-set, unions its path set into the merged keep-set.
// exclude_root_definitions already applied independently per document
// during crawling, so Merge itself has no policy to apply — it is a pure
// union.
func Merge(sets ...*crawl.KeepSet) *crawl.KeepSet {
	out := crawl.NewKeepSet()
	for _, ks := range sets {
		if ks == nil {
			continue
		}
		for _, t := range ks.RootTypes {
			out.MarkRoot(t)
		}
		for _, bucket := range ks.Members {
			for _, mi := range bucket {
				for path := range mi.Paths {
					out.Register(mi.Owner, mi.Symbol, path)
				}
			}
		}
	}
	return out
}
