/*
Copyright The Serde Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package sdklog wires up a single structured logger for the small
// demo binaries that drive the codec engines. The engines themselves
// stay pure and never log; this package exists for their callers.
package sdklog

import (
	"io"
	"log/slog"
	"os"
)

// New builds a slog.Logger appropriate for the given environment. In
// "production" it emits one JSON object per line at Info level and
// above; anywhere else it emits human-readable text at Debug level
// and above, which is friendlier while iterating on a codec.
func New(env string) *slog.Logger {
	return newWithWriter(env, os.Stderr)
}

// newWithWriter is the test seam behind New: it lets tests capture
// output without touching the real stderr.
func newWithWriter(env string, w io.Writer) *slog.Logger {
	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler)
}
