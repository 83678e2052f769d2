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

package xmlcodec

import (
	"errors"
	"testing"

	"github.com/k8s-serde/serde/pkg/serde"
	"github.com/k8s-serde/serde/pkg/serde/schema"
)

var fooMemberDesc = schema.BuildObjectDescriptor(nil,
	schema.NewField(schema.KindString, "fooMember"),
	schema.NewField(schema.KindInteger, "someInt"),
)

var parentListField = schema.NewField(schema.KindList, "parentList")

var fooResponseDesc = schema.BuildObjectDescriptor(
	schema.Traits{schema.XmlSerialName{Name: "FooResponse"}},
	parentListField,
)

type fooMember struct {
	Foo string
	Int int32
}

// TestDeserializeXmlListOfStructs matches spec §8 scenario 5.
func TestDeserializeXmlListOfStructs(t *testing.T) {
	payload := `<FooResponse><parentList><member><fooMember>a</fooMember><someInt>3</someInt></member>` +
		`<member><fooMember>c</fooMember><someInt>6</someInt></member></parentList></FooResponse>`
	d, err := NewDeserializer([]byte(payload))
	if err != nil {
		t.Fatalf("NewDeserializer: %v", err)
	}
	it, err := d.DeserializeStruct(fooResponseDesc)
	if err != nil {
		t.Fatalf("DeserializeStruct: %v", err)
	}
	var got []fooMember
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
		if idx != 0 {
			t.Fatalf("unexpected field index %d", idx)
		}
		li, err := d.DeserializeList(parentListField)
		if err != nil {
			t.Fatalf("DeserializeList: %v", err)
		}
		for {
			has, err := li.HasNextElement()
			if err != nil {
				t.Fatalf("HasNextElement: %v", err)
			}
			if !has {
				break
			}
			mit, err := d.DeserializeStruct(fooMemberDesc)
			if err != nil {
				t.Fatalf("DeserializeStruct(member): %v", err)
			}
			var m fooMember
			for {
				fidx, fstatus, err := mit.FindNextFieldIndex()
				if err != nil {
					t.Fatalf("member FindNextFieldIndex: %v", err)
				}
				if fstatus == serde.FieldExhausted {
					break
				}
				switch fidx {
				case 0:
					m.Foo, err = d.DeserializeString()
				case 1:
					m.Int, err = d.DeserializeInteger()
				}
				if err != nil {
					t.Fatalf("member field %d: %v", fidx, err)
				}
			}
			got = append(got, m)
		}
	}
	if len(got) != 2 || got[0] != (fooMember{"a", 3}) || got[1] != (fooMember{"c", 6}) {
		t.Fatalf("got %+v", got)
	}
}

// TestEntitySafetyRejectsDoctype matches spec §8 scenario 6: a DOCTYPE
// declaring an external entity is rejected outright, with no I/O.
func TestEntitySafetyRejectsDoctype(t *testing.T) {
	payload := `<?xml version="1.0"?>
<!DOCTYPE foo [ <!ENTITY xxe SYSTEM "file:///etc/passwd"> ]>
<foo>&xxe;</foo>`
	_, err := NewReader([]byte(payload))
	if err == nil {
		t.Fatal("expected an error for a DOCTYPE declaration, got nil")
	}
	var refErr *InvalidReferenceError
	if !errors.As(err, &refErr) {
		t.Fatalf("got %v (%T), want *InvalidReferenceError", err, err)
	}
}

func TestUnknownEntityReferenceIsRejected(t *testing.T) {
	_, err := NewReader([]byte(`<foo>&undefined;</foo>`))
	var refErr *InvalidReferenceError
	if !errors.As(err, &refErr) {
		t.Fatalf("got %v, want *InvalidReferenceError", err)
	}
}

func TestWhitespaceOnlyTextIsSuppressedBetweenChildElements(t *testing.T) {
	r, err := NewReader([]byte("<a>\n  <b>x</b>\n  <c>y</c>\n</a>"))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	var kinds []TokenKind
	for {
		tok, err := r.Next()
		if err != nil {
			break
		}
		kinds = append(kinds, tok.Kind)
	}
	want := []TokenKind{BeginElement, BeginElement, Text, EndElement, BeginElement, Text, EndElement, EndElement}
	if len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestEmptyElementIsWrittenSelfClosing(t *testing.T) {
	w := NewWriter()
	w.BeginElement(QName{Local: "root"}, nil, nil)
	w.BeginElement(QName{Local: "empty"}, nil, nil)
	w.EndElement()
	w.EndElement()
	got := string(w.Bytes())
	want := "<root>\n    <empty/>\n</root>"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestAttributesAndNamespaceOnRoot(t *testing.T) {
	w := NewWriter()
	w.BeginElement(QName{Local: "root"}, nil, []NSDeclaration{{URI: "urn:example"}})
	w.SetAttribute(QName{Local: "id"}, "7")
	w.WriteText("hi")
	w.EndElement()
	got := string(w.Bytes())
	want := `<root xmlns="urn:example" id="7">hi</root>`
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

// TestListElementNullRejectedWithoutSparseTrait matches spec.md:193: a
// null written into a list element without the SparseValues trait is a
// SerializationError, not a silently-emitted empty element.
func TestListElementNullRejectedWithoutSparseTrait(t *testing.T) {
	listField := schema.NewField(schema.KindList, "items")
	s := NewSerializer()
	ls := s.BeginList(listField)
	ls.Element(func(ser serde.Serializer) { ser.SerializeString("a") })
	ls.Element(func(ser serde.Serializer) { ser.SerializeNull() })
	ls.EndList()

	if _, err := s.ToByteArray(); err == nil {
		t.Fatal("ToByteArray: expected an error, got nil")
	} else {
		var target *serde.SparseNotAllowedError
		if !errors.As(err, &target) {
			t.Fatalf("got %v, want a SparseNotAllowedError", err)
		}
	}
}

func TestListElementNullAllowedWithSparseTrait(t *testing.T) {
	listField := schema.NewField(schema.KindList, "items", schema.SparseValues{})
	s := NewSerializer()
	ls := s.BeginList(listField)
	ls.Element(func(ser serde.Serializer) { ser.SerializeString("a") })
	ls.Element(func(ser serde.Serializer) { ser.SerializeNull() })
	ls.EndList()

	raw, err := s.ToByteArray()
	if err != nil {
		t.Fatalf("ToByteArray: %v", err)
	}
	want := "<member>a</member><member/>"
	if string(raw) != want {
		t.Fatalf("got %q, want %q", raw, want)
	}
}

// TestMapEntryValueNullRejectedWithoutSparseTrait is the map-entry
// analog of TestListElementNullRejectedWithoutSparseTrait. That a
// struct field's own null stays unaffected is covered separately by
// TestStructFieldNullStaysUnaffectedByEnclosingListSparseness.
func TestMapEntryValueNullRejectedWithoutSparseTrait(t *testing.T) {
	mapField := schema.NewField(schema.KindMap, "tags")
	s := NewSerializer()
	ms := s.BeginMap(mapField)
	ms.Entry("k", func(ser serde.Serializer) { ser.SerializeNull() })
	ms.EndMap()

	if _, err := s.ToByteArray(); err == nil {
		t.Fatal("ToByteArray: expected an error, got nil")
	} else {
		var target *serde.SparseNotAllowedError
		if !errors.As(err, &target) {
			t.Fatalf("got %v, want a SparseNotAllowedError", err)
		}
	}
}

func TestMapEntryValueNullAllowedWithSparseTrait(t *testing.T) {
	mapField := schema.NewField(schema.KindMap, "tags", schema.SparseValues{})
	s := NewSerializer()
	ms := s.BeginMap(mapField)
	ms.Entry("k", func(ser serde.Serializer) { ser.SerializeNull() })
	ms.EndMap()

	raw, err := s.ToByteArray()
	if err != nil {
		t.Fatalf("ToByteArray: %v", err)
	}
	want := "<entry>\n    <key>k</key>\n    <value/>\n</entry>"
	if string(raw) != want {
		t.Fatalf("got %q, want %q", raw, want)
	}
}

// TestStructFieldNullStaysUnaffectedByEnclosingListSparseness covers the
// nested case: a struct-typed list element (non-sparse list) containing
// a field whose own value is null must not inherit the list's
// no-null policy — only the direct list/map value is constrained.
func TestStructFieldNullStaysUnaffectedByEnclosingListSparseness(t *testing.T) {
	listField := schema.NewField(schema.KindList, "items")
	s := NewSerializer()
	ls := s.BeginList(listField)
	ls.Element(func(ser serde.Serializer) {
		ss := ser.BeginStruct(fooMemberDesc)
		ss.Field(schema.NewField(schema.KindString, "fooMember"), func(v serde.Serializer) { v.SerializeNull() })
		ss.EndStruct()
	})
	ls.EndList()

	if _, err := s.ToByteArray(); err != nil {
		t.Fatalf("ToByteArray: %v", err)
	}
}

// TestSubtreeChildVariantAdvancesParentLastToken matches spec.md:103:
// consuming a SubtreeStartChild subtree to exhaustion must advance the
// parent reader's lastToken to the element's matching EndElement, and
// leave the parent positioned right after it.
func TestSubtreeChildVariantAdvancesParentLastToken(t *testing.T) {
	r, err := NewReader([]byte("<a><b>x</b><c/></a>"))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, err := r.Next(); err != nil { // <a>
		t.Fatalf("Next a: %v", err)
	}
	if _, err := r.Next(); err != nil { // <b>
		t.Fatalf("Next b: %v", err)
	}

	child, err := r.Subtree(SubtreeStartChild)
	if err != nil {
		t.Fatalf("Subtree: %v", err)
	}
	if child.AtEnd() {
		t.Fatal("child should have content before it is consumed")
	}
	tok, err := child.Next()
	if err != nil {
		t.Fatalf("child.Next: %v", err)
	}
	if tok.Kind != Text || tok.Value != "x" {
		t.Fatalf("got %+v, want Text \"x\"", tok)
	}
	if !child.AtEnd() {
		t.Fatal("child should be exhausted once its content is consumed")
	}

	last, ok := r.LastToken()
	if !ok || last.Kind != EndElement || last.Name.Local != "b" {
		t.Fatalf("parent lastToken = %+v, %v, want EndElement b", last, ok)
	}

	tok, err = r.Next() // <c/>
	if err != nil {
		t.Fatalf("parent Next c: %v", err)
	}
	if tok.Kind != BeginElement || tok.Name.Local != "c" {
		t.Fatalf("got %+v, want BeginElement c", tok)
	}
}

// TestSubtreeChildVariantEmptyElementYieldsEmptySubtree is the
// self-closing-element case spec.md:103 calls out explicitly.
func TestSubtreeChildVariantEmptyElementYieldsEmptySubtree(t *testing.T) {
	r, err := NewReader([]byte("<a><empty/></a>"))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, err := r.Next(); err != nil { // <a>
		t.Fatalf("Next a: %v", err)
	}
	if _, err := r.Next(); err != nil { // <empty>
		t.Fatalf("Next empty: %v", err)
	}

	child, err := r.Subtree(SubtreeStartChild)
	if err != nil {
		t.Fatalf("Subtree: %v", err)
	}
	if !child.AtEnd() {
		t.Fatal("an empty element should yield an immediately-exhausted subtree")
	}

	last, ok := r.LastToken()
	if !ok || last.Kind != EndElement || last.Name.Local != "empty" {
		t.Fatalf("parent lastToken = %+v, %v, want EndElement empty", last, ok)
	}
}

// TestSubtreeCurrentVariantStartsAtBeginElement covers the
// SubtreeStartCurrent mode: the subtree's first token is the
// BeginElement itself, even though the parent already consumed it.
func TestSubtreeCurrentVariantStartsAtBeginElement(t *testing.T) {
	r, err := NewReader([]byte("<a><b>x</b></a>"))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	if _, err := r.Next(); err != nil { // <a>
		t.Fatalf("Next a: %v", err)
	}
	if _, err := r.Next(); err != nil { // <b>
		t.Fatalf("Next b: %v", err)
	}

	child, err := r.Subtree(SubtreeStartCurrent)
	if err != nil {
		t.Fatalf("Subtree: %v", err)
	}
	var kinds []TokenKind
	for !child.AtEnd() {
		tok, err := child.Next()
		if err != nil {
			t.Fatalf("child.Next: %v", err)
		}
		kinds = append(kinds, tok.Kind)
	}
	want := []TokenKind{BeginElement, Text, EndElement}
	if len(kinds) != len(want) {
		t.Fatalf("got %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("token %d: got %s, want %s", i, kinds[i], want[i])
		}
	}
}
