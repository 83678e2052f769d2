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

import "fmt"

// FieldDescriptor binds a logical name and Kind to an ordered set of
// Traits. Index is assigned by BuildObjectDescriptor and is immutable
// thereafter.
type FieldDescriptor struct {
	Kind       Kind
	SerialName string
	Traits     Traits
	Index      int
}

// NewField constructs a FieldDescriptor with Index left unset; it is
// assigned when the field is registered into an ObjectDescriptor.
func NewField(kind Kind, serialName string, traits ...Trait) FieldDescriptor {
	return FieldDescriptor{Kind: kind, SerialName: serialName, Traits: Traits(traits), Index: -1}
}

// ObjectDescriptor is a sequence of FieldDescriptor plus object-level
// traits. Fields[i].Index == i is an invariant maintained by
// BuildObjectDescriptor.
type ObjectDescriptor struct {
	Fields []FieldDescriptor
	Traits Traits
}

// BuildObjectDescriptor assigns stable zero-based indices to fields in
// declaration order and returns the resulting descriptor. Field names
// need not be unique at the schema level.
func BuildObjectDescriptor(objectTraits Traits, fields ...FieldDescriptor) *ObjectDescriptor {
	out := make([]FieldDescriptor, len(fields))
	for i, f := range fields {
		f.Index = i
		out[i] = f
	}
	od := &ObjectDescriptor{Fields: out, Traits: objectTraits}
	od.mustBeConsistent()
	return od
}

// mustBeConsistent panics if the builder itself produced an
// inconsistent descriptor. This can only happen from a bug in
// BuildObjectDescriptor, never from caller input, so a panic (rather
// than a returned error) is appropriate here.
func (od *ObjectDescriptor) mustBeConsistent() {
	for i, f := range od.Fields {
		if f.Index != i {
			panic(fmt.Sprintf("schema: field %q has index %d at position %d", f.SerialName, f.Index, i))
		}
	}
}

// FieldByIndex returns the field at the given index, or false if out of
// range.
func (od *ObjectDescriptor) FieldByIndex(i int) (FieldDescriptor, bool) {
	if i < 0 || i >= len(od.Fields) {
		return FieldDescriptor{}, false
	}
	return od.Fields[i], true
}

// FindFieldBySerialName returns the first field whose SerialName
// matches, scanning in declaration order. Used by deserializers doing
// a linear lookup for small objects; larger generated code may prefer
// to build its own map keyed by the format's resolved name.
func (od *ObjectDescriptor) FindFieldBySerialName(name string) (FieldDescriptor, bool) {
	for _, f := range od.Fields {
		if f.SerialName == name {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}
