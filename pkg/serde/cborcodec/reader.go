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

import (
	"github.com/k8s-serde/serde/pkg/serde/buffer"
)

// Reader decodes arbitrary, well-formed CBOR into the untyped Value
// model (§4.6.1). It is also used internally by the schema Deserializer
// to skip unknown fields and to materialize Document values, since both
// operations need to walk a value of unknown shape.
type Reader struct {
	buf *buffer.Buffer
}

// NewReader wraps data for decoding, stripping a self-described CBOR
// tag prefix (0xD9 0xD9 0xF7, RFC 8949 §3.4.6) if present.
func NewReader(data []byte) *Reader {
	if LooksLikeCBOR(data) && len(data) >= 3 {
		data = data[3:]
	}
	return &Reader{buf: buffer.NewFromBytes(data)}
}

// selfDescribePrefix is the RFC 8949 §3.4.6 tag-55799 encoding used to
// self-identify a byte stream as CBOR.
var selfDescribePrefix = [3]byte{0xD9, 0xD9, 0xF7}

// LooksLikeCBOR reports whether data begins with the self-described
// CBOR tag prefix. Supplements the codec-selection story implied but
// not specified by the external interfaces section: a caller juggling
// multiple wire formats can sniff CBOR the way the teacher's
// Serializer.RecognizesData sniffs its own formats.
func LooksLikeCBOR(data []byte) bool {
	return len(data) >= 3 && data[0] == selfDescribePrefix[0] && data[1] == selfDescribePrefix[1] && data[2] == selfDescribePrefix[2]
}

func (r *Reader) peekHead() (head, error) {
	b, err := r.buf.Peek(1)
	if err != nil {
		return head{}, &TruncatedArgumentError{Wanted: 1, Err: err}
	}
	return decodeHeadByte(b[0]), nil
}

func (r *Reader) readHead() (head, error) {
	b, err := r.buf.ReadByte()
	if err != nil {
		return head{}, &TruncatedArgumentError{Wanted: 1, Err: err}
	}
	return decodeHeadByte(b), nil
}

// ReadValue decodes one complete CBOR value, recursing into lists,
// maps, and tags.
func (r *Reader) ReadValue() (Value, error) {
	h, err := r.readHead()
	if err != nil {
		return Value{}, err
	}
	return r.readValueAfterHead(h)
}

func (r *Reader) readValueAfterHead(h head) (Value, error) {
	switch h.major {
	case majorUnsigned:
		arg, err := readArgument(r.buf, h)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindUInt, UInt: arg}, nil

	case majorNegative:
		arg, err := readArgument(r.buf, h)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindNegInt, UInt: arg}, nil

	case majorBytes:
		b, err := r.readByteOrTextPayload(h, majorBytes)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindByteString, Bytes: b}, nil

	case majorText:
		b, err := r.readByteOrTextPayload(h, majorText)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindTextString, Text: string(b)}, nil

	case majorList:
		return r.readList(h)

	case majorMap:
		return r.readMap(h)

	case majorTag:
		return r.readTag(h)

	case majorSimple:
		return r.readSimple(h)

	default:
		return Value{}, &UnexpectedMinorError{Major: byte(h.major), Minor: h.minor}
	}
}

// readByteOrTextPayload reads the payload of a definite-length byte or
// text string, or concatenates the chunks of an indefinite one. Chunks
// of an indefinite string must be definite-length and of the same
// major; a nested indefinite chunk is rejected.
func (r *Reader) readByteOrTextPayload(h head, want major) ([]byte, error) {
	if h.minor != minorIndefinite {
		n, err := readArgument(r.buf, h)
		if err != nil {
			return nil, err
		}
		return r.buf.ReadByteArray(int(n))
	}
	var out []byte
	for {
		ch, err := r.peekHead()
		if err != nil {
			return nil, err
		}
		if ch.major == majorSimple && ch.minor == simpleBreak {
			r.buf.ReadByte()
			return out, nil
		}
		if ch.major != want {
			return nil, &UnexpectedMinorError{Major: byte(ch.major), Minor: ch.minor}
		}
		if ch.minor == minorIndefinite {
			return nil, &NestedIndefiniteError{}
		}
		r.buf.ReadByte()
		n, err := readArgument(r.buf, ch)
		if err != nil {
			return nil, err
		}
		chunk, err := r.buf.ReadByteArray(int(n))
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
	}
}

func (r *Reader) readList(h head) (Value, error) {
	if h.minor == minorIndefinite {
		var items []Value
		for {
			ch, err := r.peekHead()
			if err != nil {
				return Value{}, err
			}
			if ch.major == majorSimple && ch.minor == simpleBreak {
				r.buf.ReadByte()
				return Value{Kind: KindList, List: items}, nil
			}
			v, err := r.ReadValue()
			if err != nil {
				return Value{}, err
			}
			items = append(items, v)
		}
	}
	n, err := readArgument(r.buf, h)
	if err != nil {
		return Value{}, err
	}
	items := make([]Value, 0, n)
	for i := uint64(0); i < n; i++ {
		v, err := r.ReadValue()
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
	}
	return Value{Kind: KindList, List: items}, nil
}

func (r *Reader) readMap(h head) (Value, error) {
	readEntry := func() (MapEntry, error) {
		k, err := r.ReadValue()
		if err != nil {
			return MapEntry{}, err
		}
		v, err := r.ReadValue()
		if err != nil {
			return MapEntry{}, err
		}
		return MapEntry{Key: k, Value: v}, nil
	}
	if h.minor == minorIndefinite {
		var entries []MapEntry
		for {
			ch, err := r.peekHead()
			if err != nil {
				return Value{}, err
			}
			if ch.major == majorSimple && ch.minor == simpleBreak {
				r.buf.ReadByte()
				return Value{Kind: KindMap, Map: entries}, nil
			}
			e, err := readEntry()
			if err != nil {
				return Value{}, err
			}
			entries = append(entries, e)
		}
	}
	n, err := readArgument(r.buf, h)
	if err != nil {
		return Value{}, err
	}
	entries := make([]MapEntry, 0, n)
	for i := uint64(0); i < n; i++ {
		e, err := readEntry()
		if err != nil {
			return Value{}, err
		}
		entries = append(entries, e)
	}
	return Value{Kind: KindMap, Map: entries}, nil
}

func (r *Reader) readSimple(h head) (Value, error) {
	switch h.minor {
	case simpleFalse:
		return Value{Kind: KindBool, Bool: false}, nil
	case simpleTrue:
		return Value{Kind: KindBool, Bool: true}, nil
	case simpleNull:
		return Value{Kind: KindNull}, nil
	case simpleUndefined:
		return Value{Kind: KindUndefined}, nil
	case simpleFloat16:
		b, err := r.buf.ReadByteArray(2)
		if err != nil {
			return Value{}, &TruncatedArgumentError{Wanted: 2, Err: err}
		}
		return Value{Kind: KindFloat16, Float: decodeFloat16(beUint16(b))}, nil
	case simpleFloat32:
		b, err := r.buf.ReadByteArray(4)
		if err != nil {
			return Value{}, &TruncatedArgumentError{Wanted: 4, Err: err}
		}
		return Value{Kind: KindFloat32, Float: float64(beFloat32(b))}, nil
	case simpleFloat64:
		b, err := r.buf.ReadByteArray(8)
		if err != nil {
			return Value{}, &TruncatedArgumentError{Wanted: 8, Err: err}
		}
		return Value{Kind: KindFloat64, Float: beFloat64(b)}, nil
	default:
		return Value{}, &UnexpectedMinorError{Major: byte(majorSimple), Minor: h.minor}
	}
}
