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

package sdklog

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewWithWriterProductionEmitsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter("production", &buf)
	logger.Info("encoded widget", "codec", "cbor", "bytes", 42)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected a single JSON object, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "encoded widget" {
		t.Fatalf("msg = %v, want %q", entry["msg"], "encoded widget")
	}
	if entry["codec"] != "cbor" {
		t.Fatalf("codec = %v, want cbor", entry["codec"])
	}
}

func TestNewWithWriterDevelopmentEmitsText(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter("development", &buf)
	logger.Debug("decoded widget", "codec", "json")

	out := buf.String()
	if !strings.Contains(out, "decoded widget") || !strings.Contains(out, "codec=json") {
		t.Fatalf("unexpected text output: %q", out)
	}
}
