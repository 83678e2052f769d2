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

package buffer

import (
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// StripBOM removes a leading byte-order mark, if any, using
// golang.org/x/text's BOM-aware transformer. RFC 8259 §8.1 permits but
// does not require a leading UTF-8 BOM on a JSON document; this repo
// extends the same tolerant-strip policy to XML payloads. The fallback
// decoder is plain UTF-8, so valid UTF-8 text with no BOM passes through
// unchanged; invalid UTF-8 bytes are replaced with U+FFFD.
func StripBOM(data []byte) ([]byte, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(unicode.UTF8.NewDecoder()), data)
	if err != nil {
		return nil, err
	}
	return out, nil
}
