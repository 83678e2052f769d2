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
	"encoding/base64"
	"net/http"
	"strconv"
	"time"

	"github.com/k8s-serde/serde/pkg/serde"
	"github.com/k8s-serde/serde/pkg/serde/schema"
)

// Serializer is the schema-directed XML producer (§4.4.3). Unlike
// jsoncodec, element opening is context-sensitive: BeginStruct opens a
// new element only when none is currently open (the standalone/root
// case); otherwise it writes directly into whatever element a Field,
// Element, or Entry call already opened for it, so a struct-typed
// field is never double-wrapped in its own name and the field's name.
type Serializer struct {
	w    *Writer
	err  error
	null nullPolicy
}

// nullPolicy governs what SerializeNull does for the value currently
// being written. It is active only for the direct value of a list
// Element or a map Entry; struct fields reset it while their own write
// callback runs, since a field's own nullability has nothing to do
// with the sparseness of whatever list/map happens to enclose it.
type nullPolicy struct {
	active bool
	sparse bool
	field  string
}

var _ serde.Serializer = (*Serializer)(nil)

// NewSerializer returns a Serializer with no XML prologue.
func NewSerializer() *Serializer { return &Serializer{w: NewWriter()} }

// NewDocumentSerializer returns a Serializer that emits an
// <?xml version="1.0"?> prologue before the root element.
func NewDocumentSerializer() *Serializer { return &Serializer{w: NewWriterWithProlog()} }

func (s *Serializer) fail(err error) {
	if s.err == nil && err != nil {
		s.err = err
	}
}

func (s *Serializer) Err() error { return s.err }

func fieldName(desc schema.FieldDescriptor) QName {
	if n, ok := schema.Find[schema.XmlSerialName](desc.Traits); ok {
		return parseQNameLiteral(n.Name)
	}
	return QName{Local: desc.SerialName}
}

func objectElementName(desc *schema.ObjectDescriptor) QName {
	if n, ok := schema.Find[schema.XmlSerialName](desc.Traits); ok {
		return parseQNameLiteral(n.Name)
	}
	return QName{Local: "value"}
}

func objectNamespaceDecl(desc *schema.ObjectDescriptor) []NSDeclaration {
	if ns, ok := schema.Find[schema.XmlNamespace](desc.Traits); ok {
		return []NSDeclaration{{Prefix: ns.Prefix, URI: ns.URI}}
	}
	return nil
}

// parseQNameLiteral splits a trait-supplied "prefix:local" name; a
// bare name (the common case) has no prefix.
func parseQNameLiteral(s string) QName {
	for i := 0; i < len(s); i++ {
		if s[i] == ':' {
			return QName{Prefix: s[:i], Local: s[i+1:]}
		}
	}
	return QName{Local: s}
}

func (s *Serializer) BeginStruct(desc *schema.ObjectDescriptor) serde.StructSerializer {
	openedHere := false
	if len(s.w.stack) == 0 {
		if err := s.w.BeginElement(objectElementName(desc), nil, objectNamespaceDecl(desc)); err != nil {
			s.fail(err)
		}
		openedHere = true
	}
	return &structSerializer{s: s, openedHere: openedHere}
}

// fieldNeedsWrapper reports whether Field should open (and later
// close) an element named for fieldDesc before invoking its write
// callback. Attribute fields never get one; flattened list/map fields
// don't either, since their own Element/Entry calls open one element
// per item directly on the enclosing element.
func fieldNeedsWrapper(desc schema.FieldDescriptor) bool {
	if schema.Has[schema.XmlAttribute](desc.Traits) {
		return false
	}
	if desc.Kind == schema.KindList || desc.Kind == schema.KindMap {
		return !schema.Has[schema.Flattened](desc.Traits)
	}
	return true
}

func (s *Serializer) BeginList(desc schema.FieldDescriptor) serde.ListSerializer {
	memberName := QName{Local: "member"}
	if cn, ok := schema.Find[schema.XmlCollectionName](desc.Traits); ok {
		memberName = parseQNameLiteral(cn.Element)
	}
	flattened := schema.Has[schema.Flattened](desc.Traits)
	name := fieldName(desc)
	if flattened {
		memberName = name
	}
	return &listSerializer{s: s, itemName: memberName, sparse: schema.Has[schema.SparseValues](desc.Traits)}
}

func (s *Serializer) BeginMap(desc schema.FieldDescriptor) serde.MapSerializer {
	entryName, keyName, valueName := QName{Local: "entry"}, QName{Local: "key"}, QName{Local: "value"}
	if mn, ok := schema.Find[schema.XmlMapName](desc.Traits); ok {
		if mn.Entry != "" {
			entryName = parseQNameLiteral(mn.Entry)
		}
		if mn.Key != "" {
			keyName = parseQNameLiteral(mn.Key)
		}
		if mn.Value != "" {
			valueName = parseQNameLiteral(mn.Value)
		}
	}
	return &mapSerializer{s: s, entryName: entryName, keyName: keyName, valueName: valueName,
		sparse: schema.Has[schema.SparseValues](desc.Traits)}
}

func (s *Serializer) SerializeBoolean(v bool) { s.writeText(strconv.FormatBool(v)) }
func (s *Serializer) SerializeByte(v int8)    { s.writeText(strconv.FormatInt(int64(v), 10)) }
func (s *Serializer) SerializeShort(v int16)  { s.writeText(strconv.FormatInt(int64(v), 10)) }
func (s *Serializer) SerializeInteger(v int32) { s.writeText(strconv.FormatInt(int64(v), 10)) }
func (s *Serializer) SerializeLong(v int64)   { s.writeText(strconv.FormatInt(v, 10)) }
func (s *Serializer) SerializeFloat(v float32) {
	s.writeText(strconv.FormatFloat(float64(v), 'g', -1, 32))
}
func (s *Serializer) SerializeDouble(v float64) { s.writeText(strconv.FormatFloat(v, 'g', -1, 64)) }
func (s *Serializer) SerializeChar(v rune)      { s.writeText(string(v)) }
func (s *Serializer) SerializeString(v string)  { s.writeText(v) }
func (s *Serializer) SerializeBlob(v []byte)    { s.writeText(base64.StdEncoding.EncodeToString(v)) }

func (s *Serializer) SerializeTimestamp(v time.Time, format schema.TimestampFormat) {
	switch format {
	case schema.TimestampHttpDate:
		s.writeText(v.UTC().Format(http.TimeFormat))
	case schema.TimestampEpochSeconds:
		s.writeText(strconv.FormatFloat(float64(v.UnixNano())/1e9, 'f', -1, 64))
	default:
		s.writeText(v.UTC().Format(time.RFC3339Nano))
	}
}

func (s *Serializer) SerializeDocument(v any) {
	s.fail(&serde.ProgrammerError{Msg: "xmlcodec: SerializeDocument is not supported by the XML codec"})
}

func (s *Serializer) SerializeNull() {
	if s.null.active && !s.null.sparse {
		s.fail(&serde.SparseNotAllowedError{Field: s.null.field})
		return
	}
	// A sparse null (or a null outside any list/map context) is
	// represented by an empty element; since the enclosing wrapper
	// element is already open and nothing is written into it, the
	// writer naturally self-closes it as <elem/>.
}

func (s *Serializer) SerializeSdkSerializable(v serde.SdkSerializable) error {
	if err := v.SerializeSdk(s); err != nil {
		s.fail(err)
		return err
	}
	return nil
}

func (s *Serializer) writeText(text string) {
	if err := s.w.WriteText(text); err != nil {
		s.fail(err)
	}
}

func (s *Serializer) ToByteArray() ([]byte, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.w.Bytes(), nil
}

type structSerializer struct {
	s          *Serializer
	openedHere bool
}

func (ss *structSerializer) Field(desc schema.FieldDescriptor, write func(serde.Serializer)) {
	if schema.Has[schema.XmlAttribute](desc.Traits) {
		capture := &attrCapture{}
		write(capture)
		if capture.err != nil {
			ss.s.fail(capture.err)
			return
		}
		if capture.isNull {
			return // sparse null attribute: simply omitted
		}
		if err := ss.s.w.SetAttribute(fieldName(desc), capture.value); err != nil {
			ss.s.fail(err)
		}
		return
	}
	saved := ss.s.null
	ss.s.null = nullPolicy{}
	defer func() { ss.s.null = saved }()

	if !fieldNeedsWrapper(desc) {
		write(ss.s)
		return
	}
	if err := ss.s.w.BeginElement(fieldName(desc), nil, nil); err != nil {
		ss.s.fail(err)
		return
	}
	write(ss.s)
	if err := ss.s.w.EndElement(); err != nil {
		ss.s.fail(err)
	}
}

func (ss *structSerializer) EndStruct() {
	if ss.openedHere {
		if err := ss.s.w.EndElement(); err != nil {
			ss.s.fail(err)
		}
	}
}

type listSerializer struct {
	s        *Serializer
	itemName QName
	sparse   bool
}

func (ls *listSerializer) Element(write func(serde.Serializer)) {
	if err := ls.s.w.BeginElement(ls.itemName, nil, nil); err != nil {
		ls.s.fail(err)
		return
	}
	saved := ls.s.null
	ls.s.null = nullPolicy{active: true, sparse: ls.sparse, field: ls.itemName.Local}
	write(ls.s)
	ls.s.null = saved
	if err := ls.s.w.EndElement(); err != nil {
		ls.s.fail(err)
	}
}

func (ls *listSerializer) EndList() {}

type mapSerializer struct {
	s                              *Serializer
	entryName, keyName, valueName  QName
	sparse                         bool
}

func (ms *mapSerializer) Entry(key string, write func(serde.Serializer)) {
	if err := ms.s.w.BeginElement(ms.entryName, nil, nil); err != nil {
		ms.s.fail(err)
		return
	}
	if err := ms.s.w.BeginElement(ms.keyName, nil, nil); err != nil {
		ms.s.fail(err)
		return
	}
	ms.s.writeText(key)
	if err := ms.s.w.EndElement(); err != nil {
		ms.s.fail(err)
		return
	}
	if err := ms.s.w.BeginElement(ms.valueName, nil, nil); err != nil {
		ms.s.fail(err)
		return
	}
	saved := ms.s.null
	ms.s.null = nullPolicy{active: true, sparse: ms.sparse, field: ms.valueName.Local}
	write(ms.s)
	ms.s.null = saved
	if err := ms.s.w.EndElement(); err != nil {
		ms.s.fail(err)
		return
	}
	if err := ms.s.w.EndElement(); err != nil {
		ms.s.fail(err)
	}
}

func (ms *mapSerializer) EndMap() {}

// attrCapture is a minimal serde.Serializer used only to evaluate the
// write callback of an attribute-valued field: attributes are always
// scalar text, so every structural method is a programmer error.
type attrCapture struct {
	value  string
	isNull bool
	err    error
}

var _ serde.Serializer = (*attrCapture)(nil)

func (a *attrCapture) fail(msg string) { a.err = &serde.ProgrammerError{Msg: msg} }

func (a *attrCapture) BeginStruct(*schema.ObjectDescriptor) serde.StructSerializer {
	a.fail("xmlcodec: an XmlAttribute field must be scalar, got a struct")
	return nil
}
func (a *attrCapture) BeginList(schema.FieldDescriptor) serde.ListSerializer {
	a.fail("xmlcodec: an XmlAttribute field must be scalar, got a list")
	return nil
}
func (a *attrCapture) BeginMap(schema.FieldDescriptor) serde.MapSerializer {
	a.fail("xmlcodec: an XmlAttribute field must be scalar, got a map")
	return nil
}
func (a *attrCapture) SerializeBoolean(v bool)   { a.value = strconv.FormatBool(v) }
func (a *attrCapture) SerializeByte(v int8)      { a.value = strconv.FormatInt(int64(v), 10) }
func (a *attrCapture) SerializeShort(v int16)    { a.value = strconv.FormatInt(int64(v), 10) }
func (a *attrCapture) SerializeInteger(v int32)  { a.value = strconv.FormatInt(int64(v), 10) }
func (a *attrCapture) SerializeLong(v int64)     { a.value = strconv.FormatInt(v, 10) }
func (a *attrCapture) SerializeFloat(v float32)  { a.value = strconv.FormatFloat(float64(v), 'g', -1, 32) }
func (a *attrCapture) SerializeDouble(v float64) { a.value = strconv.FormatFloat(v, 'g', -1, 64) }
func (a *attrCapture) SerializeChar(v rune)      { a.value = string(v) }
func (a *attrCapture) SerializeString(v string)  { a.value = v }
func (a *attrCapture) SerializeBlob(v []byte)    { a.value = base64.StdEncoding.EncodeToString(v) }
func (a *attrCapture) SerializeTimestamp(v time.Time, format schema.TimestampFormat) {
	switch format {
	case schema.TimestampHttpDate:
		a.value = v.UTC().Format(http.TimeFormat)
	case schema.TimestampEpochSeconds:
		a.value = strconv.FormatFloat(float64(v.UnixNano())/1e9, 'f', -1, 64)
	default:
		a.value = v.UTC().Format(time.RFC3339Nano)
	}
}
func (a *attrCapture) SerializeDocument(v any) {
	a.fail("xmlcodec: an XmlAttribute field must be scalar, got a document")
}
func (a *attrCapture) SerializeNull()                                 { a.isNull = true }
func (a *attrCapture) SerializeSdkSerializable(v serde.SdkSerializable) error {
	a.fail("xmlcodec: an XmlAttribute field must be scalar, got an SdkSerializable")
	return a.err
}
func (a *attrCapture) Err() error                  { return a.err }
func (a *attrCapture) ToByteArray() ([]byte, error) { return nil, a.err }
