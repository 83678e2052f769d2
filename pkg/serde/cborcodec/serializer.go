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

// Serializer is the schema-directed CBOR producer (§4.6.2): it writes
// wire bytes directly through Writer, with no intermediate token
// buffer. Structs, lists, and maps are all written as indefinite-length
// containers (minor 31) since the element count is never known up
// front from the Begin*/Field/Element/Entry call sequence; EndStruct/
// EndList/EndMap close them with a 0xFF break.
type Serializer struct {
	w   *Writer
	err error
}

var _ serde.Serializer = (*Serializer)(nil)

// NewSerializer returns a Serializer with no self-description prefix.
func NewSerializer() *Serializer { return &Serializer{w: NewWriter()} }

// NewSelfDescribingSerializer returns a Serializer that emits the
// RFC 8949 tag-55799 prefix before the first value.
func NewSelfDescribingSerializer() *Serializer { return &Serializer{w: NewSelfDescribingWriter()} }

func (s *Serializer) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

func (s *Serializer) Err() error { return s.err }

func fieldName(desc schema.FieldDescriptor) string {
	if n, ok := schema.Find[schema.CborSerialName](desc.Traits); ok {
		return n.Name
	}
	return desc.SerialName
}

func (s *Serializer) BeginStruct(desc *schema.ObjectDescriptor) serde.StructSerializer {
	s.w.BeginIndefiniteMap()
	return &structSerializer{s: s}
}

func (s *Serializer) BeginList(desc schema.FieldDescriptor) serde.ListSerializer {
	s.w.BeginIndefiniteList()
	return &listSerializer{s: s}
}

func (s *Serializer) BeginMap(desc schema.FieldDescriptor) serde.MapSerializer {
	s.w.BeginIndefiniteMap()
	return &mapSerializer{s: s}
}

func (s *Serializer) SerializeBoolean(v bool) { s.w.WriteBool(v) }
func (s *Serializer) SerializeByte(v int8)    { s.w.writeSignedInt(int64(v)) }
func (s *Serializer) SerializeShort(v int16)  { s.w.writeSignedInt(int64(v)) }
func (s *Serializer) SerializeInteger(v int32) { s.w.writeSignedInt(int64(v)) }
func (s *Serializer) SerializeLong(v int64)   { s.w.writeSignedInt(v) }
func (s *Serializer) SerializeFloat(v float32) { s.w.WriteFloat32(v) }
func (s *Serializer) SerializeDouble(v float64) { s.w.WriteFloat64(v) }
func (s *Serializer) SerializeChar(v rune)    { s.w.WriteText(string(v)) }
func (s *Serializer) SerializeString(v string) { s.w.WriteText(v) }
func (s *Serializer) SerializeBlob(v []byte)  { s.w.WriteBlob(v) }

// SerializeTimestamp always writes tag 1 with a Float64 seconds-since-epoch
// payload, regardless of the field's TimestampFormat trait: CBOR has its
// own native timestamp tag, so the textual TimestampFormat choices that
// matter for JSON/XML/form-URL do not apply here (Open Question decision,
// see SPEC_FULL.md).
func (s *Serializer) SerializeTimestamp(v time.Time, format schema.TimestampFormat) {
	s.w.writeTagHead(tagTimestamp)
	s.w.WriteFloat64(float64(v.UnixNano()) / 1e9)
}

func (s *Serializer) SerializeDocument(v any) {
	if err := s.writeDocument(v); err != nil {
		s.fail(err)
	}
}

func (s *Serializer) writeDocument(v any) error {
	switch vv := v.(type) {
	case nil:
		s.w.WriteNull()
	case bool:
		s.w.WriteBool(vv)
	case string:
		s.w.WriteText(vv)
	case int:
		s.w.writeSignedInt(int64(vv))
	case int64:
		s.w.writeSignedInt(vv)
	case float64:
		s.w.WriteFloat64(vv)
	case []byte:
		s.w.WriteBlob(vv)
	case []any:
		s.w.WriteDefiniteList(len(vv))
		for _, elem := range vv {
			if err := s.writeDocument(elem); err != nil {
				return err
			}
		}
	case map[string]any:
		s.w.WriteDefiniteMap(len(vv))
		for k, val := range vv {
			s.w.WriteText(k)
			if err := s.writeDocument(val); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("cborcodec: unsupported Document value of type %T", v)
	}
	return nil
}

func (s *Serializer) SerializeNull() { s.w.WriteNull() }

func (s *Serializer) SerializeSdkSerializable(v serde.SdkSerializable) error {
	if err := v.SerializeSdk(s); err != nil {
		s.fail(err)
		return err
	}
	return nil
}

func (s *Serializer) ToByteArray() ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.w.Bytes(), nil
}

type structSerializer struct{ s *Serializer }

func (ss *structSerializer) Field(desc schema.FieldDescriptor, write func(serde.Serializer)) {
	ss.s.w.WriteText(fieldName(desc))
	write(ss.s)
}

func (ss *structSerializer) EndStruct() { ss.s.w.WriteBreak() }

type listSerializer struct{ s *Serializer }

func (ls *listSerializer) Element(write func(serde.Serializer)) { write(ls.s) }
func (ls *listSerializer) EndList()                              { ls.s.w.WriteBreak() }

type mapSerializer struct{ s *Serializer }

func (ms *mapSerializer) Entry(key string, write func(serde.Serializer)) {
	ms.s.w.WriteText(key)
	write(ms.s)
}

func (ms *mapSerializer) EndMap() { ms.s.w.WriteBreak() }
