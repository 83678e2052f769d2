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

package schema

// CborSerialName overrides the text-string map key used for a field.
type CborSerialName struct{ Name string }

func (CborSerialName) traitName() string { return "CborSerialName" }

// TimestampFormat names the wire representation of a Timestamp field
// for the XML, JSON, and form-URL codecs (CBOR always uses tag 1).
type TimestampFormat string

const (
	// TimestampEpochSeconds is the default: seconds since the Unix
	// epoch, textual for JSON/XML/form-URL.
	TimestampEpochSeconds TimestampFormat = "epoch-seconds"
	// TimestampDateTime is RFC 3339 / ISO-8601 extended format.
	TimestampDateTime TimestampFormat = "date-time"
	// TimestampHttpDate is the RFC 7231 IMF-fixdate format used by HTTP.
	TimestampHttpDate TimestampFormat = "http-date"
)

func (TimestampFormat) traitName() string { return "TimestampFormat" }
