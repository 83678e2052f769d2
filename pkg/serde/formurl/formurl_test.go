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

package formurl

import (
	"errors"
	"testing"

	"github.com/k8s-serde/serde/pkg/serde"
	"github.com/k8s-serde/serde/pkg/serde/schema"
)

var tagsField = schema.NewField(schema.KindMap, "Tags")

var requestDesc = schema.BuildObjectDescriptor(
	schema.Traits{
		schema.QueryLiteral{Key: "Action", Value: "FooOperation"},
		schema.QueryLiteral{Key: "Version", Value: "2015-03-31"},
	},
	tagsField,
)

// TestFormUrlNestedStructWithTagsMap matches spec §8 scenario 2.
func TestFormUrlNestedStructWithTagsMap(t *testing.T) {
	s := NewSerializer()
	ss := s.BeginStruct(requestDesc)
	ss.Field(requestDesc.Fields[0], func(w serde.Serializer) {
		ms := w.BeginMap(requestDesc.Fields[0])
		ms.Entry("k1", func(w serde.Serializer) { w.SerializeString("v1") })
		ms.Entry("k2", func(w serde.Serializer) { w.SerializeString("v2") })
		ms.EndMap()
	})
	ss.EndStruct()

	got, err := s.ToByteArray()
	if err != nil {
		t.Fatalf("ToByteArray: %v", err)
	}
	want := "Action=FooOperation&Version=2015-03-31&" +
		"Tags.entry.1.key=k1&Tags.entry.1.value=v1&Tags.entry.2.key=k2&Tags.entry.2.value=v2"
	if string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

var flattenedTagsField = schema.NewField(schema.KindList, "Tags", schema.FormUrlFlattened{})

var flattenedListDesc = schema.BuildObjectDescriptor(nil, flattenedTagsField)

func TestFormUrlFlattenedListDropsMemberSegment(t *testing.T) {
	s := NewSerializer()
	ss := s.BeginStruct(flattenedListDesc)
	ss.Field(flattenedTagsField, func(w serde.Serializer) {
		ls := w.BeginList(flattenedTagsField)
		ls.Element(func(w serde.Serializer) { w.SerializeString("a") })
		ls.Element(func(w serde.Serializer) { w.SerializeString("b") })
		ls.EndList()
	})
	ss.EndStruct()

	got, err := s.ToByteArray()
	if err != nil {
		t.Fatalf("ToByteArray: %v", err)
	}
	want := "Tags.1=a&Tags.2=b"
	if string(got) != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

var memberField = schema.NewField(schema.KindList, "Tags")

var memberListDesc = schema.BuildObjectDescriptor(nil, memberField)

func TestFormUrlNonFlattenedListUsesMemberSegment(t *testing.T) {
	s := NewSerializer()
	ss := s.BeginStruct(memberListDesc)
	ss.Field(memberField, func(w serde.Serializer) {
		ls := w.BeginList(memberField)
		ls.Element(func(w serde.Serializer) { w.SerializeString("a") })
		ls.EndList()
	})
	ss.EndStruct()

	got, err := s.ToByteArray()
	if err != nil {
		t.Fatalf("ToByteArray: %v", err)
	}
	if string(got) != "Tags.member.1=a" {
		t.Fatalf("got %q", got)
	}
}

var nestedStructField = schema.NewField(schema.KindStruct, "Owner")
var nestedNameField = schema.NewField(schema.KindString, "Name")
var ownerDesc = schema.BuildObjectDescriptor(nil, nestedNameField)
var outerDesc = schema.BuildObjectDescriptor(nil, nestedStructField)

func TestFormUrlNestedStructAppendsDotPrefix(t *testing.T) {
	s := NewSerializer()
	ss := s.BeginStruct(outerDesc)
	ss.Field(nestedStructField, func(w serde.Serializer) {
		inner := w.BeginStruct(ownerDesc)
		inner.Field(nestedNameField, func(w serde.Serializer) { w.SerializeString("Ann") })
		inner.EndStruct()
	})
	ss.EndStruct()

	got, err := s.ToByteArray()
	if err != nil {
		t.Fatalf("ToByteArray: %v", err)
	}
	if string(got) != "Owner.Name=Ann" {
		t.Fatalf("got %q", got)
	}
}

func TestFormUrlEscapesSpaceAsPercent20(t *testing.T) {
	if got := escapeComponent("a b/c"); got != "a%20b%2Fc" {
		t.Fatalf("got %q", got)
	}
}

var nullField = schema.NewField(schema.KindString, "Name")
var nullDesc = schema.BuildObjectDescriptor(nil, nullField)

func TestFormUrlNullRaisesSparseNotAllowed(t *testing.T) {
	s := NewSerializer()
	ss := s.BeginStruct(nullDesc)
	ss.Field(nullField, func(w serde.Serializer) { w.SerializeNull() })
	ss.EndStruct()

	_, err := s.ToByteArray()
	var sparseErr *serde.SparseNotAllowedError
	if !errors.As(err, &sparseErr) {
		t.Fatalf("got %v, want *SparseNotAllowedError", err)
	}
}
