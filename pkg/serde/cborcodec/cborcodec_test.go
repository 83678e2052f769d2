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
	"encoding/hex"
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/k8s-serde/serde/pkg/serde"
	"github.com/k8s-serde/serde/pkg/serde/schema"
)

func hexBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex string %q: %v", s, err)
	}
	return b
}

// TestDecimalFractionRoundTrip matches spec §8 scenario 3: BigDecimal
// 273.15 is tag 4 over [exponent -2, mantissa 27315], wire
// c4 82 21 19 6a b3.
func TestDecimalFractionRoundTrip(t *testing.T) {
	want := hexBytes(t, "c48221196ab3")

	w := NewWriter()
	writeDecimalFractionTag(w, DecimalFraction{Exponent: -2, Mantissa: big.NewInt(27315)})
	got := w.Bytes()
	if string(got) != string(want) {
		t.Fatalf("encode mismatch: got % x, want % x", got, want)
	}

	r := NewReader(want)
	v, err := r.ReadValue()
	if err != nil {
		t.Fatalf("ReadValue: %v", err)
	}
	if v.Kind != KindDecimalFraction {
		t.Fatalf("Kind = %v, want KindDecimalFraction", v.Kind)
	}
	if v.Decimal.Exponent != -2 {
		t.Fatalf("Exponent = %d, want -2", v.Decimal.Exponent)
	}
	if v.Decimal.Mantissa.Cmp(big.NewInt(27315)) != 0 {
		t.Fatalf("Mantissa = %v, want 27315", v.Decimal.Mantissa)
	}
	if got, want := v.Decimal.Float64(), 273.15; math.Abs(got-want) > 1e-9 {
		t.Fatalf("Float64() = %v, want %v", got, want)
	}
}

// TestNegativeBignumDecode matches spec §8 scenario 4: wire
// 3b fffffffffffffffe decodes as major-1 (negative int) with an 8-byte
// argument. The logical value is -1-argument, i.e. -18446744073709551615,
// far below the int64 range (hence modeled as KindNegInt, not a plain
// Go int64).
func TestNegativeBignumDecode(t *testing.T) {
	wire := hexBytes(t, "3bfffffffffffffffe")
	r := NewReader(wire)
	v, err := r.ReadValue()
	if err != nil {
		t.Fatalf("ReadValue: %v", err)
	}
	if v.Kind != KindNegInt {
		t.Fatalf("Kind = %v, want KindNegInt", v.Kind)
	}
	if v.UInt != 0xfffffffffffffffe {
		t.Fatalf("stored argument = %#x, want %#x", v.UInt, uint64(0xfffffffffffffffe))
	}
	logical := v.NegIntValue()
	want, ok := new(big.Int).SetString("-18446744073709551615", 10)
	if !ok {
		t.Fatal("bad test constant")
	}
	if logical.Cmp(want) != 0 {
		t.Fatalf("logical value = %v, want %v", logical, want)
	}
}

func TestHeadByteEncodingSizeSelection(t *testing.T) {
	cases := []struct {
		arg  uint64
		want string
	}{
		{0, "00"},
		{23, "17"},
		{24, "1818"},
		{255, "18ff"},
		{256, "190100"},
		{65535, "19ffff"},
		{65536, "1a00010000"},
		{4294967296, "1b0000000100000000"},
	}
	for _, c := range cases {
		buf := NewWriter()
		buf.WriteUnsigned(c.arg)
		got := buf.Bytes()
		want := hexBytes(t, c.want)
		if string(got) != string(want) {
			t.Errorf("arg %d: got % x, want % x", c.arg, got, want)
		}
	}
}

func TestIndefiniteStructRoundTrip(t *testing.T) {
	nameField := schema.NewField(schema.KindString, "name")
	countField := schema.NewField(schema.KindInteger, "count")
	desc := schema.BuildObjectDescriptor(nil, nameField, countField)

	s := NewSerializer()
	ss := s.BeginStruct(desc)
	ss.Field(nameField, func(ser serde.Serializer) { ser.SerializeString("ann") })
	ss.Field(countField, func(ser serde.Serializer) { ser.SerializeInteger(3) })
	ss.EndStruct()

	raw, err := s.ToByteArray()
	if err != nil {
		t.Fatalf("ToByteArray: %v", err)
	}
	if raw[0] != 0xbf {
		t.Fatalf("expected indefinite-map head 0xbf, got % x", raw)
	}

	d := NewDeserializer(raw)
	it, err := d.DeserializeStruct(desc)
	if err != nil {
		t.Fatalf("DeserializeStruct: %v", err)
	}
	got := map[string]any{}
	for {
		idx, status, err := it.FindNextFieldIndex()
		if err != nil {
			t.Fatalf("FindNextFieldIndex: %v", err)
		}
		if status == serde.FieldExhausted {
			break
		}
		if status == serde.FieldUnknown {
			if err := it.SkipValue(); err != nil {
				t.Fatalf("SkipValue: %v", err)
			}
			continue
		}
		switch idx {
		case 0:
			v, err := d.DeserializeString()
			if err != nil {
				t.Fatalf("DeserializeString: %v", err)
			}
			got["name"] = v
		case 1:
			v, err := d.DeserializeInteger()
			if err != nil {
				t.Fatalf("DeserializeInteger: %v", err)
			}
			got["count"] = v
		}
	}
	if got["name"] != "ann" || got["count"] != int32(3) {
		t.Fatalf("got %+v, want name=ann count=3", got)
	}
}

func TestIndefiniteListRoundTripViaSchema(t *testing.T) {
	itemField := schema.NewField(schema.KindList, "items")

	s := NewSerializer()
	ls := s.BeginList(itemField)
	ls.Element(func(ser serde.Serializer) { ser.SerializeString("a") })
	ls.Element(func(ser serde.Serializer) { ser.SerializeString("b") })
	ls.EndList()

	raw, err := s.ToByteArray()
	if err != nil {
		t.Fatalf("ToByteArray: %v", err)
	}
	d := NewDeserializer(raw)
	it, err := d.DeserializeList(itemField)
	if err != nil {
		t.Fatalf("DeserializeList: %v", err)
	}
	var got []string
	for {
		has, err := it.HasNextElement()
		if err != nil {
			t.Fatalf("HasNextElement: %v", err)
		}
		if !has {
			break
		}
		v, err := d.DeserializeString()
		if err != nil {
			t.Fatalf("DeserializeString: %v", err)
		}
		got = append(got, v)
	}
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Fatalf("got %v, want [a b]", got)
	}
}

func TestFloat16DecodeIncludingSubnormalAndNaN(t *testing.T) {
	cases := []struct {
		name string
		bits uint16
		want float64
		nan  bool
	}{
		{"zero", 0x0000, 0, false},
		{"one", 0x3c00, 1.0, false},
		{"negativeTwo", 0xc000, -2.0, false},
		{"subnormalMin", 0x0001, 5.960464477539063e-08, false},
		{"nan", 0x7e00, 0, true},
		{"infinity", 0x7c00, math.Inf(1), false},
	}
	for _, c := range cases {
		got := decodeFloat16(c.bits)
		if c.nan {
			if !math.IsNaN(got) {
				t.Errorf("%s: got %v, want NaN", c.name, got)
			}
			continue
		}
		if got != c.want {
			t.Errorf("%s: got %v, want %v", c.name, got, c.want)
		}
	}
}

func TestLooksLikeCBORSniffsSelfDescribePrefix(t *testing.T) {
	s := NewSelfDescribingSerializer()
	s.SerializeString("hi")
	raw, err := s.ToByteArray()
	if err != nil {
		t.Fatalf("ToByteArray: %v", err)
	}
	if !LooksLikeCBOR(raw) {
		t.Fatalf("LooksLikeCBOR(% x) = false, want true", raw)
	}
	d := NewDeserializer(raw)
	got, err := d.DeserializeString()
	if err != nil {
		t.Fatalf("DeserializeString: %v", err)
	}
	if got != "hi" {
		t.Fatalf("got %q, want %q", got, "hi")
	}
}

func TestNonTextMapKeyRejected(t *testing.T) {
	w := NewWriter()
	w.BeginIndefiniteMap()
	w.writeSignedInt(1) // integer key, not text
	w.WriteText("v")
	w.WriteBreak()

	d := NewDeserializer(w.Bytes())
	mi, err := d.DeserializeMap(schema.NewField(schema.KindMap, "m"))
	if err != nil {
		t.Fatalf("DeserializeMap: %v", err)
	}
	has, err := mi.HasNextEntry()
	if err != nil || !has {
		t.Fatalf("HasNextEntry = %v, %v", has, err)
	}
	_, err = mi.Key()
	var keyErr *NonTextMapKeyError
	if !errors.As(err, &keyErr) {
		t.Fatalf("Key() error = %v, want *NonTextMapKeyError", err)
	}
}

func TestNestedIndefiniteChunkRejected(t *testing.T) {
	w := NewWriter()
	// Outer indefinite text string (0x7f) containing a nested
	// indefinite text string chunk, which RFC 8949 disallows.
	w.buf.WriteByte(0x7f)
	w.buf.WriteByte(0x7f)

	r := NewReader(w.Bytes())
	_, err := r.ReadValue()
	var nestedErr *NestedIndefiniteError
	if !errors.As(err, &nestedErr) {
		t.Fatalf("ReadValue error = %v, want *NestedIndefiniteError", err)
	}
}

func TestDeserializeByteOverflow(t *testing.T) {
	w := NewWriter()
	w.writeSignedInt(200) // does not fit in int8

	d := NewDeserializer(w.Bytes())
	_, err := d.DeserializeByte()
	var overflow *OverflowError
	if !errors.As(err, &overflow) {
		t.Fatalf("DeserializeByte error = %v, want *OverflowError", err)
	}
}

func TestSerializeNullWritesSimpleNull(t *testing.T) {
	s := NewSerializer()
	s.SerializeNull()
	raw, err := s.ToByteArray()
	if err != nil {
		t.Fatalf("ToByteArray: %v", err)
	}
	want := hexBytes(t, "f6")
	if string(raw) != string(want) {
		t.Fatalf("got % x, want % x", raw, want)
	}
	d := NewDeserializer(raw)
	if err := d.DeserializeNull(); err != nil {
		t.Fatalf("DeserializeNull: %v", err)
	}
}

func TestBignumRoundTripViaValue(t *testing.T) {
	big2pow64, _ := new(big.Int).SetString("18446744073709551616", 10)
	w := NewWriter()
	writeBignumTag(w, big2pow64)
	r := NewReader(w.Bytes())
	v, err := r.ReadValue()
	if err != nil {
		t.Fatalf("ReadValue: %v", err)
	}
	if v.Kind != KindBignum {
		t.Fatalf("Kind = %v, want KindBignum", v.Kind)
	}
	if v.Bignum.Cmp(big2pow64) != 0 {
		t.Fatalf("Bignum = %v, want %v", v.Bignum, big2pow64)
	}
}
