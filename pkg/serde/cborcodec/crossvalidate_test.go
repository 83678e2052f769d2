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
	"bytes"
	"testing"

	"github.com/fxamacker/cbor/v2"

	"github.com/k8s-serde/serde/pkg/serde"
	"github.com/k8s-serde/serde/pkg/serde/schema"
)

// These tests check this package's from-scratch wire engine against an
// independent implementation (fxamacker/cbor/v2), in both directions:
// bytes this package writes must mean the same thing to fxamacker, and
// bytes fxamacker writes must mean the same thing to this package.

func TestCrossValidateScalarsDecodeWithFxamacker(t *testing.T) {
	w := NewWriter()
	w.writeSignedInt(-42)
	w.WriteText("hello")
	w.WriteBool(true)
	w.WriteFloat64(3.5)
	raw := w.Bytes()

	dec := cbor.NewDecoder(bytes.NewReader(raw))

	var i int64
	if err := dec.Decode(&i); err != nil {
		t.Fatalf("decode int: %v", err)
	}
	if i != -42 {
		t.Fatalf("int = %d, want -42", i)
	}

	var s string
	if err := dec.Decode(&s); err != nil {
		t.Fatalf("decode string: %v", err)
	}
	if s != "hello" {
		t.Fatalf("string = %q, want hello", s)
	}

	var b bool
	if err := dec.Decode(&b); err != nil {
		t.Fatalf("decode bool: %v", err)
	}
	if !b {
		t.Fatal("bool = false, want true")
	}

	var f float64
	if err := dec.Decode(&f); err != nil {
		t.Fatalf("decode float: %v", err)
	}
	if f != 3.5 {
		t.Fatalf("float = %v, want 3.5", f)
	}
}

func TestCrossValidateIndefiniteStructDecodesWithFxamacker(t *testing.T) {
	nameField := schema.NewField(schema.KindString, "name")
	ageField := schema.NewField(schema.KindInteger, "age")
	desc := schema.BuildObjectDescriptor(nil, nameField, ageField)

	s := NewSerializer()
	ss := s.BeginStruct(desc)
	ss.Field(nameField, func(ser serde.Serializer) { ser.SerializeString("ada") })
	ss.Field(ageField, func(ser serde.Serializer) { ser.SerializeInteger(36) })
	ss.EndStruct()
	raw, err := s.ToByteArray()
	if err != nil {
		t.Fatalf("ToByteArray: %v", err)
	}

	var got map[string]any
	if err := cbor.Unmarshal(raw, &got); err != nil {
		t.Fatalf("fxamacker Unmarshal of our indefinite map: %v", err)
	}
	if got["name"] != "ada" {
		t.Fatalf("name = %v, want ada", got["name"])
	}
	// fxamacker decodes CBOR integers into uint64/int64 depending on
	// sign; our age field is non-negative so it comes back as uint64.
	switch v := got["age"].(type) {
	case uint64:
		if v != 36 {
			t.Fatalf("age = %d, want 36", v)
		}
	case int64:
		if v != 36 {
			t.Fatalf("age = %d, want 36", v)
		}
	default:
		t.Fatalf("age has unexpected type %T", got["age"])
	}
}

func TestCrossValidateFxamackerEncodingDecodesWithOurReader(t *testing.T) {
	type payload struct {
		Name  string         `cbor:"name"`
		Count int64          `cbor:"count"`
		Tags  []string       `cbor:"tags"`
		Meta  map[string]any `cbor:"meta"`
	}
	p := payload{
		Name:  "widget",
		Count: 7,
		Tags:  []string{"a", "b"},
		Meta:  map[string]any{"k": "v"},
	}
	raw, err := cbor.Marshal(p)
	if err != nil {
		t.Fatalf("fxamacker Marshal: %v", err)
	}

	r := NewReader(raw)
	v, err := r.ReadValue()
	if err != nil {
		t.Fatalf("ReadValue: %v", err)
	}
	if v.Kind != KindMap {
		t.Fatalf("Kind = %v, want KindMap", v.Kind)
	}
	found := map[string]Value{}
	for _, e := range v.Map {
		found[e.Key.Text] = e.Value
	}
	if found["name"].Text != "widget" {
		t.Fatalf("name = %q, want widget", found["name"].Text)
	}
	if found["count"].UInt != 7 {
		t.Fatalf("count = %d, want 7", found["count"].UInt)
	}
	if len(found["tags"].List) != 2 || found["tags"].List[0].Text != "a" || found["tags"].List[1].Text != "b" {
		t.Fatalf("tags = %+v, want [a b]", found["tags"].List)
	}
}

func TestCrossValidateFloat16DecodesSameAsFxamacker(t *testing.T) {
	// 0x3e00 is CBOR half-float 1.5.
	raw := []byte{0xf9, 0x3e, 0x00}

	var want float64
	if err := cbor.Unmarshal(raw, &want); err != nil {
		t.Fatalf("fxamacker Unmarshal: %v", err)
	}

	r := NewReader(raw)
	v, err := r.ReadValue()
	if err != nil {
		t.Fatalf("ReadValue: %v", err)
	}
	if v.Kind != KindFloat16 {
		t.Fatalf("Kind = %v, want KindFloat16", v.Kind)
	}
	if v.Float != want {
		t.Fatalf("Float = %v, want %v", v.Float, want)
	}
}
