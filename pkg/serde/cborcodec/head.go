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

// Package cborcodec implements the CBOR (RFC 8949) wire engine: direct
// byte-level encode/decode with no intermediate token buffer, schema
// traits for tag/map-key naming, and a Value model for tagged/untyped
// round-trips.
package cborcodec

import (
	"encoding/binary"

	"github.com/k8s-serde/serde/pkg/serde/buffer"
)

// major is the 3-bit type tag of a CBOR head byte.
type major byte

const (
	majorUnsigned major = 0
	majorNegative major = 1
	majorBytes    major = 2
	majorText     major = 3
	majorList     major = 4
	majorMap      major = 5
	majorTag      major = 6
	majorSimple   major = 7
)

// Minor-31 marks an indefinite-length byte string, text string, list,
// or map (majors 2-5).
const minorIndefinite = 31

// Major-7 minor subtypes (§4.6.1).
const (
	simpleFalse     = 20
	simpleTrue      = 21
	simpleNull      = 22
	simpleUndefined = 23
	simpleFloat16   = 25
	simpleFloat32   = 26
	simpleFloat64   = 27
	simpleBreak     = 31
)

// head is one decoded CBOR head byte: the major type and the raw
// 5-bit minor value (0-23 is itself the argument; 24-27 mean "argument
// follows in 1/2/4/8 bytes"; 31 means indefinite length or break).
type head struct {
	major major
	minor byte
}

func decodeHeadByte(b byte) head {
	return head{major: major(b >> 5), minor: b & 0x1F}
}

func (h head) byte() byte { return byte(h.major)<<5 | h.minor }

// writeHeadArgument writes a head byte for the given major with the
// given 64-bit argument, choosing the shortest encoding the §4.6.1
// table allows.
func writeHeadArgument(buf *buffer.Buffer, m major, arg uint64) {
	switch {
	case arg <= 23:
		buf.WriteByte(head{major: m, minor: byte(arg)}.byte())
	case arg <= 0xFF:
		buf.WriteByte(head{major: m, minor: 24}.byte())
		buf.WriteByte(byte(arg))
	case arg <= 0xFFFF:
		buf.WriteByte(head{major: m, minor: 25}.byte())
		var b [2]byte
		binary.BigEndian.PutUint16(b[:], uint16(arg))
		buf.Write(b[:])
	case arg <= 0xFFFFFFFF:
		buf.WriteByte(head{major: m, minor: 26}.byte())
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(arg))
		buf.Write(b[:])
	default:
		buf.WriteByte(head{major: m, minor: 27}.byte())
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], arg)
		buf.Write(b[:])
	}
}

// writeIndefiniteHead writes a head byte for major m with minor 31
// (indefinite length), used for indefinite byte/text strings, lists,
// and maps.
func writeIndefiniteHead(buf *buffer.Buffer, m major) {
	buf.WriteByte(head{major: m, minor: minorIndefinite}.byte())
}

func writeBreak(buf *buffer.Buffer) {
	buf.WriteByte(head{major: majorSimple, minor: simpleBreak}.byte())
}

// readArgument decodes the argument that follows a head byte whose
// minor is 24-27 (1/2/4/8 byte big-endian integer) or returns the
// minor itself when it already is the argument (minor <= 23).
// minor == 31 (indefinite) is handled by the caller, not here.
func readArgument(buf *buffer.Buffer, h head) (uint64, error) {
	switch {
	case h.minor <= 23:
		return uint64(h.minor), nil
	case h.minor == 24:
		b, err := buf.ReadByte()
		if err != nil {
			return 0, &TruncatedArgumentError{Wanted: 1, Err: err}
		}
		return uint64(b), nil
	case h.minor == 25:
		b, err := buf.ReadByteArray(2)
		if err != nil {
			return 0, &TruncatedArgumentError{Wanted: 2, Err: err}
		}
		return uint64(binary.BigEndian.Uint16(b)), nil
	case h.minor == 26:
		b, err := buf.ReadByteArray(4)
		if err != nil {
			return 0, &TruncatedArgumentError{Wanted: 4, Err: err}
		}
		return uint64(binary.BigEndian.Uint32(b)), nil
	case h.minor == 27:
		b, err := buf.ReadByteArray(8)
		if err != nil {
			return 0, &TruncatedArgumentError{Wanted: 8, Err: err}
		}
		return binary.BigEndian.Uint64(b), nil
	default:
		return 0, &UnexpectedMinorError{Major: byte(h.major), Minor: h.minor}
	}
}
