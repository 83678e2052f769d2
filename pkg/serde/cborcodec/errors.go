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

package cborcodec

import "fmt"

// TruncatedArgumentError reports that a head byte's argument (the
// 1/2/4/8-byte big-endian integer following minor 24-27) ran off the
// end of the payload.
type TruncatedArgumentError struct {
	Wanted int
	Err    error
}

func (e *TruncatedArgumentError) Error() string {
	return fmt.Sprintf("cbor: truncated %d-byte argument: %v", e.Wanted, e.Err)
}

func (e *TruncatedArgumentError) Unwrap() error { return e.Err }

// UnexpectedMinorError reports a head byte the decoder does not accept
// in the position it was found: a reserved minor value (e.g. 28-30), or
// a major type other than the one the caller asked for.
type UnexpectedMinorError struct {
	Major, Minor byte
}

func (e *UnexpectedMinorError) Error() string {
	return fmt.Sprintf("cbor: unexpected minor %d on major %d", e.Minor, e.Major)
}

// UnsupportedTagError reports that a schema deserializer narrowed a
// CBOR tag it does not expect (e.g. asking for a Timestamp where a
// non-timestamp tag was written). It is never raised for an
// undirected Value read — an unrecognized tag there decodes to a
// Tag{ID, Value} instead.
type UnsupportedTagError struct {
	TagID uint64
}

func (e *UnsupportedTagError) Error() string {
	return fmt.Sprintf("cbor: unsupported tag %d for the requested type", e.TagID)
}

// ExpectedBreakError reports that an indefinite-length container's
// terminating 0xFF break byte was not found where expected.
type ExpectedBreakError struct {
	Got byte
}

func (e *ExpectedBreakError) Error() string {
	return fmt.Sprintf("cbor: expected break (0xFF), got head byte 0x%02X", e.Got)
}

// NestedIndefiniteError reports an indefinite-length byte or text
// string containing a chunk that is itself indefinite-length, which
// RFC 8949 disallows.
type NestedIndefiniteError struct{}

func (e *NestedIndefiniteError) Error() string {
	return "cbor: indefinite-length chunk inside an indefinite-length string"
}

// NonTextMapKeyError reports a map key whose major type is not 3
// (text string); this engine requires text-string map keys for
// schema-directed map deserialization.
type NonTextMapKeyError struct {
	Major byte
}

func (e *NonTextMapKeyError) Error() string {
	return fmt.Sprintf("cbor: map key has major type %d, want text string", e.Major)
}

// OverflowError reports that a logical CBOR integer did not fit in the
// host integer type requested (DeserializeByte/Short/Integer/Long).
type OverflowError struct {
	Kind  string
	Value int64
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("cbor: value %d overflows %s", e.Value, e.Kind)
}

// InvalidMantissaError reports that a decimal fraction's (tag 4)
// mantissa element was neither an integer nor a bignum-tagged byte
// string.
type InvalidMantissaError struct {
	Major byte
}

func (e *InvalidMantissaError) Error() string {
	return fmt.Sprintf("cbor: decimal fraction mantissa has unsupported major type %d", e.Major)
}
