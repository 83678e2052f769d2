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

package serde

import (
	"time"

	"github.com/k8s-serde/serde/pkg/serde/schema"
)

// FieldStatus is the three-way result of StructIterator.FindNextFieldIndex:
// a known field index, the UnknownField sentinel, or Exhausted once the
// object has no more fields to offer.
type FieldStatus int

const (
	// FieldKnown means Index names a field in the ObjectDescriptor.
	FieldKnown FieldStatus = iota
	// FieldUnknown means the wire carried a field the descriptor does
	// not know about; the caller must explicitly SkipValue it.
	FieldUnknown
	// FieldExhausted means the enclosing struct has no more fields.
	FieldExhausted
)

// Deserializer is the format-agnostic consumer surface (§6).
type Deserializer interface {
	DeserializeStruct(desc *schema.ObjectDescriptor) (StructIterator, error)
	DeserializeList(desc schema.FieldDescriptor) (ListIterator, error)
	DeserializeMap(desc schema.FieldDescriptor) (MapIterator, error)

	DeserializeBoolean() (bool, error)
	DeserializeByte() (int8, error)
	DeserializeShort() (int16, error)
	DeserializeInteger() (int32, error)
	DeserializeLong() (int64, error)
	DeserializeFloat() (float32, error)
	DeserializeDouble() (float64, error)
	DeserializeChar() (rune, error)
	DeserializeString() (string, error)
	DeserializeBlob() ([]byte, error)
	DeserializeTimestamp(format schema.TimestampFormat) (time.Time, error)
	DeserializeDocument() (any, error)
	DeserializeNull() error
}

// StructIterator drives field-by-field consumption of an object without
// growing the Go call stack per nesting level: the caller loops calling
// FindNextFieldIndex until it reports FieldExhausted.
type StructIterator interface {
	// FindNextFieldIndex returns the descriptor index of the next field
	// on the wire (status FieldKnown), or FieldUnknown with index -1,
	// or FieldExhausted with index -1.
	FindNextFieldIndex() (index int, status FieldStatus, err error)
	// SkipValue consumes and discards the value of the current field,
	// including any nested structure. Required after an unknown field.
	SkipValue() error
}

// ListIterator drives element-by-element consumption of a list.
type ListIterator interface {
	// HasNextElement reports whether another element follows.
	HasNextElement() (bool, error)
	// NextElementHasValue reports whether the next element is present
	// (true) or null (false); only meaningful for sparse lists.
	NextElementHasValue() (bool, error)
}

// MapIterator drives entry-by-entry consumption of a map.
type MapIterator interface {
	HasNextEntry() (bool, error)
	Key() (string, error)
	NextEntryHasValue() (bool, error)
}
