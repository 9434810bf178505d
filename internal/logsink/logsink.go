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

// Package logsink holds the single "write one line" logging sink that the
// rest of the module depends on. Unlike a global logger, a Sink is a value
// the caller hands in, so one process can run several extractions (e.g. one
// per pull request) each with its own sink.
package logsink

import (
	"fmt"
	"log"
	"os"
)

// Sink is the logging capability described by spec section 6: "a single
// 'write one line' operation; side effects observable but not part of the
// result."
type Sink func(line string)

// Discard drops every line. It is the default when a caller passes a nil Sink.
func Discard(string) {}

// Std returns a Sink that writes through the standard library logger with a
// level prefix, mirroring the teacher's lang/log package but as an injectable
// value instead of process-wide mutable state.
func Std(prefix string) Sink {
	l := log.New(os.Stderr, prefix, log.Ltime|log.Lshortfile)
	return func(line string) {
		l.Output(3, line)
	}
}

// Or returns s if non-nil, else Discard.
func Or(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}

// Errorf formats and writes at "[ERROR]" severity.
func Errorf(s Sink, format string, args ...interface{}) {
	Or(s)("[ERROR] " + fmt.Sprintf(format, args...))
}

// Infof formats and writes at "[INFO]" severity.
func Infof(s Sink, format string, args ...interface{}) {
	Or(s)("[INFO] " + fmt.Sprintf(format, args...))
}
