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
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// findModuleRoot walks up from anyPath looking for the nearest go.mod,
// mirroring the teacher's own repository-boundary discovery.
func findModuleRoot(anyPath string) (dir string, modulePath string, err error) {
	start, err := filepath.Abs(anyPath)
	if err != nil {
		return "", "", fmt.Errorf("resolve %q: %w", anyPath, err)
	}
	info, err := os.Stat(start)
	if err != nil {
		return "", "", fmt.Errorf("stat %q: %w", anyPath, err)
	}
	if !info.IsDir() {
		start = filepath.Dir(start)
	}
	for dir := start; ; {
		candidate := filepath.Join(dir, "go.mod")
		if data, readErr := os.ReadFile(candidate); readErr == nil {
			mf, parseErr := modfile.Parse(candidate, data, nil)
			if parseErr != nil {
				return "", "", fmt.Errorf("parse %s: %w", candidate, parseErr)
			}
			modPath := ""
			if mf.Module != nil {
				modPath = mf.Module.Mod.Path
			}
			return dir, modPath, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", fmt.Errorf("no go.mod found above %s", start)
		}
		dir = parent
	}
}
