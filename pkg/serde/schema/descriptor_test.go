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

import "testing"

func TestBuildObjectDescriptorAssignsStableIndices(t *testing.T) {
	od := BuildObjectDescriptor(nil,
		NewField(KindString, "foo"),
		NewField(KindInteger, "bar"),
		NewField(KindBoolean, "baz"),
	)
	for i, f := range od.Fields {
		if f.Index != i {
			t.Fatalf("field %q has index %d, want %d", f.SerialName, f.Index, i)
		}
	}
}

func TestFindAndExpectTrait(t *testing.T) {
	f := NewField(KindString, "foo", XmlAttribute{}, XmlSerialName{Name: "Foo"})
	if !Has[XmlAttribute](f.Traits) {
		t.Fatal("expected XmlAttribute trait to be present")
	}
	name, err := Expect[XmlSerialName](f.Traits, "foo")
	if err != nil {
		t.Fatalf("Expect: %v", err)
	}
	if name.Name != "Foo" {
		t.Fatalf("XmlSerialName.Name = %q, want Foo", name.Name)
	}
	if _, err := Expect[XmlNamespace](f.Traits, "foo"); err == nil {
		t.Fatal("expected MissingTraitError for absent XmlNamespace trait")
	}
}

func TestFieldByIndexAndFindBySerialName(t *testing.T) {
	od := BuildObjectDescriptor(nil,
		NewField(KindString, "foo"),
		NewField(KindInteger, "bar"),
	)
	if _, ok := od.FieldByIndex(5); ok {
		t.Fatal("expected FieldByIndex(5) to report out of range")
	}
	f, ok := od.FindFieldBySerialName("bar")
	if !ok || f.Kind != KindInteger {
		t.Fatalf("FindFieldBySerialName(bar) = %+v, %v", f, ok)
	}
}
