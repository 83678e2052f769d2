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
	"fmt"
	"time"

	"github.com/k8s-serde/serde/pkg/serde"
	"github.com/k8s-serde/serde/pkg/serde/schema"
)

// Deserializer is the schema-directed CBOR consumer (§4.6.3): it
// dispatches by peeking the next head byte's major/minor and
// materializes primitives directly, with no intermediate token buffer.
type Deserializer struct {
	r *Reader
}

var _ serde.Deserializer = (*Deserializer)(nil)

func NewDeserializer(data []byte) *Deserializer { return &Deserializer{r: NewReader(data)} }

func matchesField(f schema.FieldDescriptor, name string) bool {
	if n, ok := schema.Find[schema.CborSerialName](f.Traits); ok {
		return n.Name == name
	}
	return f.SerialName == name
}

// container tracks a map or list head already consumed: either an
// indefinite-length container (terminated by a 0xFF break) or a
// definite-length one (terminated once remaining reaches zero).
type container struct {
	indefinite bool
	remaining  uint64
}

func (d *Deserializer) readContainerHead(want major) (container, error) {
	h, err := d.r.readHead()
	if err != nil {
		return container{}, err
	}
	if h.major != want {
		return container{}, &UnexpectedMinorError{Major: byte(h.major), Minor: h.minor}
	}
	if h.minor == minorIndefinite {
		return container{indefinite: true}, nil
	}
	n, err := readArgument(d.r.buf, h)
	if err != nil {
		return container{}, err
	}
	return container{remaining: n}, nil
}

// hasNext reports whether another element/entry follows, consuming the
// terminating break for an indefinite container or decrementing the
// remaining count for a definite one.
func (d *Deserializer) hasNext(c *container) (bool, error) {
	if c.indefinite {
		h, err := d.r.peekHead()
		if err != nil {
			return false, err
		}
		if h.major == majorSimple && h.minor == simpleBreak {
			d.r.buf.ReadByte()
			return false, nil
		}
		return true, nil
	}
	if c.remaining == 0 {
		return false, nil
	}
	c.remaining--
	return true, nil
}

// peekHasValue reports whether the next value about to be read is
// non-null, without consuming it.
func (d *Deserializer) peekHasValue() (bool, error) {
	h, err := d.r.peekHead()
	if err != nil {
		return false, err
	}
	if h.major == majorSimple && (h.minor == simpleNull || h.minor == simpleUndefined) {
		return false, nil
	}
	return true, nil
}

func (d *Deserializer) DeserializeStruct(desc *schema.ObjectDescriptor) (serde.StructIterator, error) {
	c, err := d.readContainerHead(majorMap)
	if err != nil {
		return nil, err
	}
	return &structIterator{d: d, desc: desc, c: c}, nil
}

type structIterator struct {
	d    *Deserializer
	desc *schema.ObjectDescriptor
	c    container
}

func (si *structIterator) FindNextFieldIndex() (int, serde.FieldStatus, error) {
	has, err := si.d.hasNext(&si.c)
	if err != nil {
		return -1, serde.FieldExhausted, err
	}
	if !has {
		return -1, serde.FieldExhausted, nil
	}
	key, err := si.d.r.ReadValue()
	if err != nil {
		return -1, serde.FieldExhausted, err
	}
	if key.Kind != KindTextString {
		return -1, serde.FieldExhausted, &NonTextMapKeyError{Major: byte(majorToKind(key.Kind))}
	}
	for _, f := range si.desc.Fields {
		if matchesField(f, key.Text) {
			return f.Index, serde.FieldKnown, nil
		}
	}
	return -1, serde.FieldUnknown, nil
}

func (si *structIterator) SkipValue() error {
	_, err := si.d.r.ReadValue()
	return err
}

// majorToKind is a best-effort mapping back from a decoded Value's Kind
// to the wire major byte, used only to report which major type was
// found in place of an expected text-string map key or decimal-fraction
// mantissa.
func majorToKind(k Kind) major {
	switch k {
	case KindUInt:
		return majorUnsigned
	case KindNegInt:
		return majorNegative
	case KindByteString:
		return majorBytes
	case KindTextString:
		return majorText
	case KindList:
		return majorList
	case KindMap:
		return majorMap
	case KindTag, KindTimestamp, KindBignum, KindDecimalFraction:
		return majorTag
	default:
		return majorSimple
	}
}

func (d *Deserializer) DeserializeList(desc schema.FieldDescriptor) (serde.ListIterator, error) {
	c, err := d.readContainerHead(majorList)
	if err != nil {
		return nil, err
	}
	return &listIterator{d: d, c: c}, nil
}

type listIterator struct {
	d *Deserializer
	c container
}

func (li *listIterator) HasNextElement() (bool, error)     { return li.d.hasNext(&li.c) }
func (li *listIterator) NextElementHasValue() (bool, error) { return li.d.peekHasValue() }

func (d *Deserializer) DeserializeMap(desc schema.FieldDescriptor) (serde.MapIterator, error) {
	c, err := d.readContainerHead(majorMap)
	if err != nil {
		return nil, err
	}
	return &mapIterator{d: d, c: c}, nil
}

type mapIterator struct {
	d *Deserializer
	c container
}

func (mi *mapIterator) HasNextEntry() (bool, error) { return mi.d.hasNext(&mi.c) }

func (mi *mapIterator) Key() (string, error) {
	key, err := mi.d.r.ReadValue()
	if err != nil {
		return "", err
	}
	if key.Kind != KindTextString {
		return "", &NonTextMapKeyError{Major: byte(majorToKind(key.Kind))}
	}
	return key.Text, nil
}

func (mi *mapIterator) NextEntryHasValue() (bool, error) { return mi.d.peekHasValue() }

func (d *Deserializer) DeserializeBoolean() (bool, error) {
	h, err := d.r.readHead()
	if err != nil {
		return false, err
	}
	switch {
	case h.major == majorSimple && h.minor == simpleFalse:
		return false, nil
	case h.major == majorSimple && h.minor == simpleTrue:
		return true, nil
	default:
		return false, &UnexpectedMinorError{Major: byte(h.major), Minor: h.minor}
	}
}

// deserializeSignedInt reads a major-0 or major-1 integer and returns
// its logical int64 value.
func (d *Deserializer) deserializeSignedInt() (int64, error) {
	h, err := d.r.readHead()
	if err != nil {
		return 0, err
	}
	arg, err := readArgument(d.r.buf, h)
	if err != nil {
		return 0, err
	}
	switch h.major {
	case majorUnsigned:
		if arg > 1<<63-1 {
			return 0, &OverflowError{Kind: "int64", Value: 0}
		}
		return int64(arg), nil
	case majorNegative:
		if arg > 1<<63-1 {
			return 0, &OverflowError{Kind: "int64", Value: 0}
		}
		return negIntToInt64(arg), nil
	default:
		return 0, &UnexpectedMinorError{Major: byte(h.major), Minor: h.minor}
	}
}

func (d *Deserializer) DeserializeByte() (int8, error) {
	v, err := d.deserializeSignedInt()
	if err != nil {
		return 0, err
	}
	if v < -128 || v > 127 {
		return 0, &OverflowError{Kind: "int8", Value: v}
	}
	return int8(v), nil
}

func (d *Deserializer) DeserializeShort() (int16, error) {
	v, err := d.deserializeSignedInt()
	if err != nil {
		return 0, err
	}
	if v < -32768 || v > 32767 {
		return 0, &OverflowError{Kind: "int16", Value: v}
	}
	return int16(v), nil
}

func (d *Deserializer) DeserializeInteger() (int32, error) {
	v, err := d.deserializeSignedInt()
	if err != nil {
		return 0, err
	}
	if v < -(1<<31) || v > (1<<31-1) {
		return 0, &OverflowError{Kind: "int32", Value: v}
	}
	return int32(v), nil
}

func (d *Deserializer) DeserializeLong() (int64, error) { return d.deserializeSignedInt() }

func (d *Deserializer) deserializeFloatValue() (float64, error) {
	h, err := d.r.readHead()
	if err != nil {
		return 0, err
	}
	if h.major != majorSimple {
		return 0, &UnexpectedMinorError{Major: byte(h.major), Minor: h.minor}
	}
	switch h.minor {
	case simpleFloat16:
		b, err := d.r.buf.ReadByteArray(2)
		if err != nil {
			return 0, &TruncatedArgumentError{Wanted: 2, Err: err}
		}
		return decodeFloat16(beUint16(b)), nil
	case simpleFloat32:
		b, err := d.r.buf.ReadByteArray(4)
		if err != nil {
			return 0, &TruncatedArgumentError{Wanted: 4, Err: err}
		}
		return float64(beFloat32(b)), nil
	case simpleFloat64:
		b, err := d.r.buf.ReadByteArray(8)
		if err != nil {
			return 0, &TruncatedArgumentError{Wanted: 8, Err: err}
		}
		return beFloat64(b), nil
	default:
		return 0, &UnexpectedMinorError{Major: byte(h.major), Minor: h.minor}
	}
}

func (d *Deserializer) DeserializeFloat() (float32, error) {
	v, err := d.deserializeFloatValue()
	return float32(v), err
}

func (d *Deserializer) DeserializeDouble() (float64, error) { return d.deserializeFloatValue() }

func (d *Deserializer) DeserializeChar() (rune, error) {
	s, err := d.DeserializeString()
	if err != nil {
		return 0, err
	}
	runes := []rune(s)
	if len(runes) != 1 {
		return 0, fmt.Errorf("cbor: DeserializeChar expected exactly one character, got %q", s)
	}
	return runes[0], nil
}

func (d *Deserializer) DeserializeString() (string, error) {
	h, err := d.r.readHead()
	if err != nil {
		return "", err
	}
	if h.major != majorText {
		return "", &UnexpectedMinorError{Major: byte(h.major), Minor: h.minor}
	}
	b, err := d.r.readByteOrTextPayload(h, majorText)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (d *Deserializer) DeserializeBlob() ([]byte, error) {
	h, err := d.r.readHead()
	if err != nil {
		return nil, err
	}
	if h.major != majorBytes {
		return nil, &UnexpectedMinorError{Major: byte(h.major), Minor: h.minor}
	}
	return d.r.readByteOrTextPayload(h, majorBytes)
}

// DeserializeTimestamp always expects tag 1 regardless of the field's
// TimestampFormat trait, mirroring the encode side.
func (d *Deserializer) DeserializeTimestamp(format schema.TimestampFormat) (time.Time, error) {
	v, err := d.r.ReadValue()
	if err != nil {
		return time.Time{}, err
	}
	if v.Kind != KindTimestamp {
		return time.Time{}, &UnsupportedTagError{TagID: tagTimestamp}
	}
	return v.Timestamp, nil
}

func (d *Deserializer) DeserializeDocument() (any, error) {
	v, err := d.r.ReadValue()
	if err != nil {
		return nil, err
	}
	return documentFromValue(v), nil
}

func documentFromValue(v Value) any {
	switch v.Kind {
	case KindUInt:
		return int64(v.UInt)
	case KindNegInt:
		return negIntToInt64(v.UInt)
	case KindByteString:
		return v.Bytes
	case KindTextString:
		return v.Text
	case KindBool:
		return v.Bool
	case KindNull, KindUndefined:
		return nil
	case KindFloat16, KindFloat32, KindFloat64:
		return v.Float
	case KindList:
		out := make([]any, len(v.List))
		for i, item := range v.List {
			out[i] = documentFromValue(item)
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.Map))
		for _, e := range v.Map {
			out[e.Key.Text] = documentFromValue(e.Value)
		}
		return out
	case KindTimestamp:
		return v.Timestamp
	case KindBignum:
		return v.Bignum
	case KindDecimalFraction:
		return v.Decimal
	case KindTag:
		if v.Tagged != nil {
			return documentFromValue(*v.Tagged)
		}
		return nil
	default:
		return nil
	}
}

// DeserializeNull consumes either null or undefined (§4.6.3).
func (d *Deserializer) DeserializeNull() error {
	h, err := d.r.readHead()
	if err != nil {
		return err
	}
	if h.major == majorSimple && (h.minor == simpleNull || h.minor == simpleUndefined) {
		return nil
	}
	return &UnexpectedMinorError{Major: byte(h.major), Minor: h.minor}
}
