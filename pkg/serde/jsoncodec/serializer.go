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

package jsoncodec

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/k8s-serde/serde/pkg/serde"
	"github.com/k8s-serde/serde/pkg/serde/schema"
)

// Serializer is the schema-directed JSON producer (§4.3.3). A single
// instance owns one Writer for the lifetime of one top-level Encode
// call; BeginStruct/BeginList/BeginMap return thin wrappers around the
// same instance rather than independent sub-engines, since JSON is a
// single interleaved token stream.
type Serializer struct {
	w   *Writer
	err error
}

var _ serde.Serializer = (*Serializer)(nil)

// NewSerializer returns a minifying top-level Serializer.
func NewSerializer() *Serializer { return &Serializer{w: NewWriter()} }

// NewPrettySerializer returns a pretty-printing top-level Serializer.
func NewPrettySerializer() *Serializer { return &Serializer{w: NewPrettyWriter()} }

func (s *Serializer) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

func (s *Serializer) Err() error { return s.err }

func fieldName(desc schema.FieldDescriptor) string {
	if n, ok := schema.Find[schema.JsonSerialName](desc.Traits); ok {
		return n.Name
	}
	return desc.SerialName
}

func (s *Serializer) BeginStruct(desc *schema.ObjectDescriptor) serde.StructSerializer {
	if err := s.w.BeginObject(); err != nil {
		s.fail(err)
	}
	return &structSerializer{s: s}
}

func (s *Serializer) BeginList(desc schema.FieldDescriptor) serde.ListSerializer {
	if err := s.w.BeginArray(); err != nil {
		s.fail(err)
	}
	return &listSerializer{s: s}
}

func (s *Serializer) BeginMap(desc schema.FieldDescriptor) serde.MapSerializer {
	if err := s.w.BeginObject(); err != nil {
		s.fail(err)
	}
	return &mapSerializer{s: s}
}

func (s *Serializer) SerializeBoolean(v bool) {
	if err := s.w.WriteBool(v); err != nil {
		s.fail(err)
	}
}

func (s *Serializer) SerializeByte(v int8)   { s.writeInt(int64(v)) }
func (s *Serializer) SerializeShort(v int16) { s.writeInt(int64(v)) }
func (s *Serializer) SerializeInteger(v int32) { s.writeInt(int64(v)) }
func (s *Serializer) SerializeLong(v int64)  { s.writeInt(v) }

func (s *Serializer) writeInt(v int64) {
	if err := s.w.WriteNumber(strconv.FormatInt(v, 10)); err != nil {
		s.fail(err)
	}
}

func (s *Serializer) SerializeFloat(v float32) {
	if err := s.w.WriteNumber(formatFloat(float64(v), 32)); err != nil {
		s.fail(err)
	}
}

func (s *Serializer) SerializeDouble(v float64) {
	if err := s.w.WriteNumber(formatFloat(v, 64)); err != nil {
		s.fail(err)
	}
}

// formatFloat renders v the way the spec's all-primitives fixture
// expects (§8 scenario 1: 50.0, not 50) — JSON has no separate integer
// and float number grammar, so a trailing ".0" is what signals "this
// was encoded from a floating point field" to a human or a strict
// reader.
func formatFloat(v float64, bitSize int) string {
	s := strconv.FormatFloat(v, 'g', -1, bitSize)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

func (s *Serializer) SerializeChar(v rune) {
	if err := s.w.WriteString(string(v)); err != nil {
		s.fail(err)
	}
}

func (s *Serializer) SerializeString(v string) {
	if err := s.w.WriteString(v); err != nil {
		s.fail(err)
	}
}

func (s *Serializer) SerializeBlob(v []byte) {
	if err := s.w.WriteString(base64.StdEncoding.EncodeToString(v)); err != nil {
		s.fail(err)
	}
}

func (s *Serializer) SerializeTimestamp(v time.Time, format schema.TimestampFormat) {
	switch format {
	case schema.TimestampDateTime:
		if err := s.w.WriteString(v.UTC().Format(time.RFC3339Nano)); err != nil {
			s.fail(err)
		}
	case schema.TimestampHttpDate:
		if err := s.w.WriteString(v.UTC().Format(http.TimeFormat)); err != nil {
			s.fail(err)
		}
	default: // TimestampEpochSeconds
		secs := float64(v.UnixNano()) / 1e9
		if err := s.w.WriteNumber(formatFloat(secs, 64)); err != nil {
			s.fail(err)
		}
	}
}

func (s *Serializer) SerializeDocument(v any) {
	if err := s.writeDocument(v); err != nil {
		s.fail(err)
	}
}

func (s *Serializer) writeDocument(v any) error {
	switch vv := v.(type) {
	case nil:
		return s.w.WriteNull()
	case bool:
		return s.w.WriteBool(vv)
	case string:
		return s.w.WriteString(vv)
	case int:
		return s.w.WriteNumber(strconv.FormatInt(int64(vv), 10))
	case int64:
		return s.w.WriteNumber(strconv.FormatInt(vv, 10))
	case float64:
		return s.w.WriteNumber(formatFloat(vv, 64))
	case []any:
		if err := s.w.BeginArray(); err != nil {
			return err
		}
		for _, elem := range vv {
			if err := s.writeDocument(elem); err != nil {
				return err
			}
		}
		return s.w.EndArray()
	case map[string]any:
		if err := s.w.BeginObject(); err != nil {
			return err
		}
		for k, val := range vv {
			if err := s.w.Name(k); err != nil {
				return err
			}
			if err := s.writeDocument(val); err != nil {
				return err
			}
		}
		return s.w.EndObject()
	default:
		return fmt.Errorf("jsoncodec: unsupported Document value of type %T", v)
	}
}

func (s *Serializer) SerializeNull() {
	if err := s.w.WriteNull(); err != nil {
		s.fail(err)
	}
}

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
	if err := ss.s.w.Name(fieldName(desc)); err != nil {
		ss.s.fail(err)
		return
	}
	write(ss.s)
}

func (ss *structSerializer) EndStruct() {
	if err := ss.s.w.EndObject(); err != nil {
		ss.s.fail(err)
	}
}

type listSerializer struct{ s *Serializer }

func (ls *listSerializer) Element(write func(serde.Serializer)) { write(ls.s) }

func (ls *listSerializer) EndList() {
	if err := ls.s.w.EndArray(); err != nil {
		ls.s.fail(err)
	}
}

type mapSerializer struct{ s *Serializer }

func (ms *mapSerializer) Entry(key string, write func(serde.Serializer)) {
	if err := ms.s.w.Name(key); err != nil {
		ms.s.fail(err)
		return
	}
	write(ms.s)
}

func (ms *mapSerializer) EndMap() {
	if err := ms.s.w.EndObject(); err != nil {
		ms.s.fail(err)
	}
}
