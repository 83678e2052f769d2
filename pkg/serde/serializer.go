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

// SdkSerializable is implemented by hand-written or generated types
// that know how to drive a Serializer/Deserializer themselves, the way
// a generated client type would. It mirrors the MarshalJSON/MarshalCBOR
// method-pairing convention used throughout the teacher's codebase for
// custom (un)marshaling, generalized across formats.
type SdkSerializable interface {
	SerializeSdk(s Serializer) error
}

// Serializer is the format-agnostic producer surface consumed by
// generated or hand-written client code (§6). Every codec engine
// (jsoncodec, xmlcodec, formurl, cborcodec) implements it.
type Serializer interface {
	BeginStruct(desc *schema.ObjectDescriptor) StructSerializer
	BeginList(desc schema.FieldDescriptor) ListSerializer
	BeginMap(desc schema.FieldDescriptor) MapSerializer

	SerializeBoolean(v bool)
	SerializeByte(v int8)
	SerializeShort(v int16)
	SerializeInteger(v int32)
	SerializeLong(v int64)
	SerializeFloat(v float32)
	SerializeDouble(v float64)
	SerializeChar(v rune)
	SerializeString(v string)
	SerializeBlob(v []byte)
	SerializeTimestamp(v time.Time, format schema.TimestampFormat)
	SerializeDocument(v any)
	SerializeNull()
	SerializeSdkSerializable(v SdkSerializable) error

	// Err returns the first error encountered by any Begin*/Serialize*
	// call so far (a "sticky error", the same pattern bufio.Writer
	// uses), or nil. Once set it is returned by every subsequent call
	// to Err and by ToByteArray.
	Err() error

	// ToByteArray finalizes the engine and returns the encoded payload.
	// Only valid on the top-level engine, never on a struct/list/map
	// sub-serializer. Returns Err() if it is non-nil.
	ToByteArray() ([]byte, error)
}

// StructSerializer is returned by Serializer.BeginStruct. Field writes
// a named value by passing write the Serializer for that value;
// EndStruct closes the object.
type StructSerializer interface {
	Field(desc schema.FieldDescriptor, write func(Serializer))
	EndStruct()
}

// ListSerializer is returned by Serializer.BeginList.
type ListSerializer interface {
	Element(write func(Serializer))
	EndList()
}

// MapSerializer is returned by Serializer.BeginMap.
type MapSerializer interface {
	Entry(key string, write func(Serializer))
	EndMap()
}
