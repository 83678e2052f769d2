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

// Package formurl implements the encode-only application/x-www-form-urlencoded
// engine: a flat sequence of percent-encoded key=value pairs, where
// struct/list/map nesting is flattened into dotted key segments rather
// than a nested wire shape.
package formurl

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/k8s-serde/serde/pkg/serde"
	"github.com/k8s-serde/serde/pkg/serde/schema"
)

// Serializer accumulates key=value pairs in emission order. Unlike
// jsoncodec/xmlcodec, there is no underlying token stream to push onto
// a stack: the "current position" is just the dotted key prefix that
// the next scalar write lands on, threaded through nested Field/Element/Entry
// calls by save-and-restore around each write callback.
type Serializer struct {
	pairs  []string
	prefix string
	err    error
}

var _ serde.Serializer = (*Serializer)(nil)

// NewSerializer returns an empty Serializer positioned at the root.
func NewSerializer() *Serializer { return &Serializer{} }

func (s *Serializer) fail(err error) {
	if s.err == nil {
		s.err = err
	}
}

func (s *Serializer) Err() error { return s.err }

func fieldName(desc schema.FieldDescriptor) string {
	if n, ok := schema.Find[schema.FormUrlSerialName](desc.Traits); ok {
		return n.Name
	}
	return desc.SerialName
}

func joinKey(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return prefix + "." + segment
}

// emit appends one key=value pair keyed by the current prefix. Every
// scalar Serialize* call goes through this; BeginStruct/BeginList/BeginMap
// never write a pair of their own, since form-URL has no wrapper token
// for an object, list, or map — only its leaves are ever written.
func (s *Serializer) emit(value string) {
	if s.err != nil {
		return
	}
	if s.prefix == "" {
		s.fail(&serde.ProgrammerError{Msg: "formurl: scalar value serialized outside any field"})
		return
	}
	s.pairs = append(s.pairs, escapeComponent(s.prefix)+"="+escapeComponent(value))
}

func (s *Serializer) BeginStruct(desc *schema.ObjectDescriptor) serde.StructSerializer {
	if s.err == nil {
		for _, t := range desc.Traits {
			if lit, ok := t.(schema.QueryLiteral); ok {
				s.pairs = append(s.pairs, escapeComponent(lit.Key)+"="+escapeComponent(lit.Value))
			}
		}
	}
	return &structSerializer{s: s}
}

func (s *Serializer) BeginList(desc schema.FieldDescriptor) serde.ListSerializer {
	member := "member"
	if n, ok := schema.Find[schema.FormUrlCollectionName](desc.Traits); ok && n.Member != "" {
		member = n.Member
	}
	return &listSerializer{
		s:         s,
		base:      s.prefix,
		member:    member,
		flattened: schema.Has[schema.FormUrlFlattened](desc.Traits),
	}
}

func (s *Serializer) BeginMap(desc schema.FieldDescriptor) serde.MapSerializer {
	keyName, valueName := "key", "value"
	if n, ok := schema.Find[schema.FormUrlMapName](desc.Traits); ok {
		if n.Key != "" {
			keyName = n.Key
		}
		if n.Value != "" {
			valueName = n.Value
		}
	}
	return &mapSerializer{
		s:         s,
		base:      s.prefix,
		keyName:   keyName,
		valueName: valueName,
		flattened: schema.Has[schema.FormUrlFlattened](desc.Traits),
	}
}

func (s *Serializer) SerializeBoolean(v bool) { s.emit(strconv.FormatBool(v)) }
func (s *Serializer) SerializeByte(v int8)    { s.emit(strconv.FormatInt(int64(v), 10)) }
func (s *Serializer) SerializeShort(v int16)  { s.emit(strconv.FormatInt(int64(v), 10)) }
func (s *Serializer) SerializeInteger(v int32) { s.emit(strconv.FormatInt(int64(v), 10)) }
func (s *Serializer) SerializeLong(v int64)   { s.emit(strconv.FormatInt(v, 10)) }
func (s *Serializer) SerializeFloat(v float32) { s.emit(strconv.FormatFloat(float64(v), 'g', -1, 32)) }
func (s *Serializer) SerializeDouble(v float64) { s.emit(strconv.FormatFloat(v, 'g', -1, 64)) }
func (s *Serializer) SerializeChar(v rune)    { s.emit(string(v)) }
func (s *Serializer) SerializeString(v string) { s.emit(v) }
func (s *Serializer) SerializeBlob(v []byte)  { s.emit(base64.StdEncoding.EncodeToString(v)) }

func (s *Serializer) SerializeTimestamp(v time.Time, format schema.TimestampFormat) {
	switch format {
	case schema.TimestampDateTime:
		s.emit(v.UTC().Format(time.RFC3339Nano))
	case schema.TimestampHttpDate:
		s.emit(v.UTC().Format(http.TimeFormat))
	default: // TimestampEpochSeconds
		s.emit(strconv.FormatFloat(float64(v.UnixNano())/1e9, 'g', -1, 64))
	}
}

// SerializeDocument has no form-URL representation (§4.5: structured,
// self-describing Document values require a nested wire shape this
// format doesn't have).
func (s *Serializer) SerializeDocument(v any) {
	s.fail(&serde.ProgrammerError{Msg: "formurl: Document values are not supported"})
}

// SerializeNull always fails: §4.5 chooses throw over silent-drop for
// null in every position, not just inside lists and maps.
func (s *Serializer) SerializeNull() {
	s.fail(&serde.SparseNotAllowedError{Field: s.prefix})
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
	return []byte(strings.Join(s.pairs, "&")), nil
}

type structSerializer struct{ s *Serializer }

func (ss *structSerializer) Field(desc schema.FieldDescriptor, write func(serde.Serializer)) {
	s := ss.s
	if s.err != nil {
		return
	}
	saved := s.prefix
	s.prefix = joinKey(s.prefix, fieldName(desc))
	write(s)
	s.prefix = saved
}

func (ss *structSerializer) EndStruct() {}

type listSerializer struct {
	s         *Serializer
	base      string
	member    string
	flattened bool
	index     int
}

func (ls *listSerializer) Element(write func(serde.Serializer)) {
	s := ls.s
	if s.err != nil {
		return
	}
	ls.index++
	saved := s.prefix
	if ls.flattened {
		s.prefix = ls.base + "." + strconv.Itoa(ls.index)
	} else {
		s.prefix = ls.base + "." + ls.member + "." + strconv.Itoa(ls.index)
	}
	write(s)
	s.prefix = saved
}

func (ls *listSerializer) EndList() {}

type mapSerializer struct {
	s                  *Serializer
	base               string
	keyName, valueName string
	flattened          bool
	index              int
}

func (ms *mapSerializer) Entry(key string, write func(serde.Serializer)) {
	s := ms.s
	if s.err != nil {
		return
	}
	ms.index++
	var entryPrefix string
	if ms.flattened {
		entryPrefix = ms.base + "." + strconv.Itoa(ms.index)
	} else {
		entryPrefix = ms.base + ".entry." + strconv.Itoa(ms.index)
	}
	s.pairs = append(s.pairs, escapeComponent(entryPrefix+"."+ms.keyName)+"="+escapeComponent(key))
	saved := s.prefix
	s.prefix = entryPrefix + "." + ms.valueName
	write(s)
	s.prefix = saved
}

func (ms *mapSerializer) EndMap() {}
