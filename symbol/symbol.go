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

// Package symbol canonicalises go/types symbols to their original,
// un-instantiated definition so that identity comparisons stay stable
// across generic instantiations, and derives the deterministic display
// key used to key a member inside a KeepSet.
package symbol

import (
	"go/types"
	"strings"
)

// ID is the canonicalised identity of a Symbol. Two IDs compare equal with
// == iff their original definitions are the same declaration, even if one
// was reached through a generic instantiation or the other through a raw
// reference. ID is safe to use as a map key.
type ID struct {
	obj types.Object
}

// Of canonicalises obj to its original definition and wraps it as an ID.
func Of(obj types.Object) ID {
	return ID{obj: Canonicalize(obj)}
}

// Object returns the canonicalised types.Object backing this ID.
func (id ID) Object() types.Object { return id.obj }

// IsZero reports whether id was never assigned a symbol.
func (id ID) IsZero() bool { return id.obj == nil }

// Key returns the stable display string used as a KeepSet member key:
// "<namespace>.<Type.Member>" for a method, "<namespace>.<Name>" otherwise.
func (id ID) Key() string {
	return Key(id.obj)
}

func (id ID) String() string { return id.Key() }

// Canonicalize returns obj's original definition: the un-instantiated,
// un-substituted form that is stable across generic instantiations and
// across partial declarations. Canonicalizing an already-canonical object
// is a no-op.
func Canonicalize(obj types.Object) types.Object {
	switch o := obj.(type) {
	case *types.Func:
		if orig, ok := originOf(o); ok {
			return orig
		}
	case *types.Var:
		if orig, ok := originOfVar(o); ok {
			return orig
		}
	case *types.TypeName:
		if named, ok := o.Type().(*types.Named); ok {
			if origNamed := named.Origin(); origNamed != named {
				return origNamed.Obj()
			}
		}
	}
	return obj
}

// originOf reports f's generic origin when f is a generic instantiation,
// via the standard library's own (*types.Func).Origin.
func originOf(f *types.Func) (types.Object, bool) {
	orig := f.Origin()
	if orig == nil || orig == f {
		return nil, false
	}
	return orig, true
}

// originOfVar mirrors originOf for fields/parameters reached through a
// generic instantiation of their enclosing type.
func originOfVar(v *types.Var) (types.Object, bool) {
	orig := v.Origin()
	if orig == nil || orig == v {
		return nil, false
	}
	return orig, true
}

// Key computes the display key for obj directly, without constructing an
// ID. Exported separately because some callers (the emitter) need the key
// for a symbol whose ID they never otherwise need to hold onto.
func Key(obj types.Object) string {
	if obj == nil {
		return ""
	}
	ns := Namespace(obj)
	name := QualifiedName(obj)
	if ns == "" {
		return name
	}
	return ns + "." + name
}

// Namespace returns obj's containing import path, or "" for universe
// objects (builtins) that belong to no package.
func Namespace(obj types.Object) string {
	if obj == nil || obj.Pkg() == nil {
		return ""
	}
	return obj.Pkg().Path()
}

// QualifiedName returns "Receiver.Name" for a method and "Name" for
// anything else, matching the "{Type}.{Member}" shape methods already use
// in this codebase's display names.
func QualifiedName(obj types.Object) string {
	if fn, ok := obj.(*types.Func); ok {
		if sig, ok := fn.Type().(*types.Signature); ok && sig.Recv() != nil {
			recvName := recvTypeName(sig.Recv().Type())
			if recvName != "" {
				return recvName + "." + fn.Name()
			}
		}
	}
	return obj.Name()
}

func recvTypeName(t types.Type) string {
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	switch tt := t.(type) {
	case *types.Named:
		return tt.Obj().Name()
	default:
		s := t.String()
		if i := strings.LastIndexByte(s, '.'); i >= 0 {
			return s[i+1:]
		}
		return s
	}
}
