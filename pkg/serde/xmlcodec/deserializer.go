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
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/k8s-serde/serde/pkg/serde"
	"github.com/k8s-serde/serde/pkg/serde/schema"
)

// Deserializer is the schema-directed XML consumer (§4.4.3), built
// directly on Reader's token stream. Like Serializer, it is
// context-sensitive: DeserializeStruct consumes a fresh BeginElement
// only at the very start of the document; every nested call reuses
// whichever element a StructIterator/ListIterator/MapIterator already
// opened for it.
type Deserializer struct {
	r *Reader

	// pendingLiteral, when non-nil, redirects the next scalar
	// DeserializeX call to this text instead of the token stream. Used
	// to surface an XmlAttribute field's value, which lives on the
	// enclosing BeginElement token rather than in the child stream.
	pendingLiteral *string
}

var _ serde.Deserializer = (*Deserializer)(nil)

// NewDeserializer wraps a complete XML payload.
func NewDeserializer(data []byte) (*Deserializer, error) {
	r, err := NewReader(data)
	if err != nil {
		return nil, wrapErr("NewDeserializer", err)
	}
	return &Deserializer{r: r}, nil
}

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &serde.DeserializationError{Op: op, Err: err}
}

func matchesField(f schema.FieldDescriptor, name QName) bool {
	if f.Kind == schema.KindMap && schema.Has[schema.Flattened](f.Traits) {
		return name == mapEntryName(f)
	}
	return name == fieldName(f)
}

func mapEntryName(f schema.FieldDescriptor) QName {
	if mn, ok := schema.Find[schema.XmlMapName](f.Traits); ok && mn.Entry != "" {
		return parseQNameLiteral(mn.Entry)
	}
	return QName{Local: "entry"}
}

func (d *Deserializer) DeserializeStruct(desc *schema.ObjectDescriptor) (serde.StructIterator, error) {
	var enclosing Token
	openedHere := false
	if last, ok := d.r.LastToken(); !ok {
		tok, err := d.r.Next()
		if err != nil {
			return nil, wrapErr("DeserializeStruct", err)
		}
		if tok.Kind != BeginElement {
			return nil, wrapErr("DeserializeStruct", fmt.Errorf("expected the document's root element, got %s", tok.Kind))
		}
		enclosing = tok
		openedHere = true
	} else {
		if last.Kind != BeginElement {
			return nil, wrapErr("DeserializeStruct", fmt.Errorf("no enclosing element open for this struct"))
		}
		enclosing = last
	}

	si := &structIterator{d: d, desc: desc, enclosing: enclosing, openedHere: openedHere}
	for _, f := range desc.Fields {
		if schema.Has[schema.XmlAttribute](f.Traits) {
			for _, a := range enclosing.Attributes {
				if a.Name == fieldName(f) {
					si.pendingAttrs = append(si.pendingAttrs, pendingAttr{index: f.Index, value: a.Value})
					break
				}
			}
		}
	}
	return si, nil
}

type pendingAttr struct {
	index int
	value string
}

type structIterator struct {
	d            *Deserializer
	desc         *schema.ObjectDescriptor
	enclosing    Token
	openedHere   bool
	pendingAttrs []pendingAttr
}

func (si *structIterator) FindNextFieldIndex() (int, serde.FieldStatus, error) {
	if len(si.pendingAttrs) > 0 {
		a := si.pendingAttrs[0]
		si.pendingAttrs = si.pendingAttrs[1:]
		v := a.value
		si.d.pendingLiteral = &v
		return a.index, serde.FieldKnown, nil
	}

	childDepth := si.enclosing.Depth + 1
	for {
		tok, err := si.d.r.Peek()
		if err != nil {
			return -1, 0, wrapErr("FindNextFieldIndex", err)
		}
		switch {
		case tok.Kind == Text:
			si.d.r.Next()
			continue
		case tok.Kind == EndElement && tok.Depth == si.enclosing.Depth:
			si.d.r.Next()
			return -1, serde.FieldExhausted, nil
		case tok.Kind == BeginElement && tok.Depth == childDepth:
			si.d.r.Next()
			for _, f := range si.desc.Fields {
				if matchesField(f, tok.Name) {
					return f.Index, serde.FieldKnown, nil
				}
			}
			return -1, serde.FieldUnknown, nil
		default:
			return -1, 0, wrapErr("FindNextFieldIndex", fmt.Errorf("unexpected token %s at depth %d", tok.Kind, tok.Depth))
		}
	}
}

func (si *structIterator) SkipValue() error {
	if si.d.pendingLiteral != nil {
		si.d.pendingLiteral = nil
		return nil
	}
	last, ok := si.d.r.LastToken()
	if !ok || last.Kind != BeginElement {
		return wrapErr("SkipValue", fmt.Errorf("no open element to skip"))
	}
	for {
		tok, err := si.d.r.Next()
		if err != nil {
			return wrapErr("SkipValue", err)
		}
		if tok.Kind == EndElement && tok.Depth == last.Depth {
			return nil
		}
	}
}

func (d *Deserializer) DeserializeList(desc schema.FieldDescriptor) (serde.ListIterator, error) {
	flattened := schema.Has[schema.Flattened](desc.Traits)
	last, ok := d.r.LastToken()
	if !ok || last.Kind != BeginElement {
		return nil, wrapErr("DeserializeList", fmt.Errorf("no enclosing element open for this list"))
	}
	if flattened {
		return &listIterator{d: d, name: fieldName(desc), depth: last.Depth, flattened: true, started: false}, nil
	}
	memberName := QName{Local: "member"}
	if cn, ok := schema.Find[schema.XmlCollectionName](desc.Traits); ok {
		memberName = parseQNameLiteral(cn.Element)
	}
	return &listIterator{d: d, name: memberName, depth: last.Depth + 1, flattened: false, wrapperDepth: last.Depth}, nil
}

type listIterator struct {
	d            *Deserializer
	name         QName
	depth        int
	wrapperDepth int
	flattened    bool
	started      bool
}

func (li *listIterator) HasNextElement() (bool, error) {
	if li.flattened {
		if !li.started {
			li.started = true
			return true, nil
		}
		tok, err := li.d.r.Next() // consume the previous element's EndElement
		if err != nil {
			return false, wrapErr("HasNextElement", err)
		}
		if tok.Kind != EndElement {
			return false, wrapErr("HasNextElement", fmt.Errorf("expected EndElement, got %s", tok.Kind))
		}
		peek, err := li.d.r.Peek()
		if err != nil {
			return false, wrapErr("HasNextElement", err)
		}
		if peek.Kind == BeginElement && peek.Depth == li.depth && peek.Name == li.name {
			li.d.r.Next()
			return true, nil
		}
		return false, nil
	}

	peek, err := li.d.r.Peek()
	if err != nil {
		return false, wrapErr("HasNextElement", err)
	}
	if peek.Kind == EndElement && peek.Depth == li.wrapperDepth {
		li.d.r.Next()
		return false, nil
	}
	if peek.Kind == BeginElement && peek.Depth == li.depth && peek.Name == li.name {
		li.d.r.Next()
		return true, nil
	}
	return false, wrapErr("HasNextElement", fmt.Errorf("unexpected token %s at depth %d", peek.Kind, peek.Depth))
}

func (li *listIterator) NextElementHasValue() (bool, error) {
	peek, err := li.d.r.Peek()
	if err != nil {
		return false, wrapErr("NextElementHasValue", err)
	}
	return peek.Kind != EndElement, nil
}

func (d *Deserializer) DeserializeMap(desc schema.FieldDescriptor) (serde.MapIterator, error) {
	flattened := schema.Has[schema.Flattened](desc.Traits)
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
	last, ok := d.r.LastToken()
	if !ok || last.Kind != BeginElement {
		return nil, wrapErr("DeserializeMap", fmt.Errorf("no enclosing element open for this map"))
	}
	if flattened {
		return &mapIterator{d: d, entryName: entryName, keyName: keyName, valueName: valueName,
			depth: last.Depth, flattened: true}, nil
	}
	return &mapIterator{d: d, entryName: entryName, keyName: keyName, valueName: valueName,
		depth: last.Depth + 1, wrapperDepth: last.Depth}, nil
}

type mapIterator struct {
	d                              *Deserializer
	entryName, keyName, valueName  QName
	depth, wrapperDepth            int
	flattened                      bool
	started                        bool
	entryDepth                     int
}

func (mi *mapIterator) HasNextEntry() (bool, error) {
	if mi.flattened {
		if !mi.started {
			mi.started = true
			last, _ := mi.d.r.LastToken()
			mi.entryDepth = last.Depth
			return true, nil
		}
		tok, err := mi.d.r.Next() // consume previous entry's EndElement
		if err != nil {
			return false, wrapErr("HasNextEntry", err)
		}
		if tok.Kind != EndElement {
			return false, wrapErr("HasNextEntry", fmt.Errorf("expected EndElement, got %s", tok.Kind))
		}
		peek, err := mi.d.r.Peek()
		if err != nil {
			return false, wrapErr("HasNextEntry", err)
		}
		if peek.Kind == BeginElement && peek.Depth == mi.entryDepth && peek.Name == mi.entryName {
			mi.d.r.Next()
			return true, nil
		}
		return false, nil
	}

	peek, err := mi.d.r.Peek()
	if err != nil {
		return false, wrapErr("HasNextEntry", err)
	}
	if peek.Kind == EndElement && peek.Depth == mi.wrapperDepth {
		mi.d.r.Next()
		return false, nil
	}
	if peek.Kind == BeginElement && peek.Depth == mi.depth && peek.Name == mi.entryName {
		mi.d.r.Next()
		mi.entryDepth = mi.depth
		return true, nil
	}
	return false, wrapErr("HasNextEntry", fmt.Errorf("unexpected token %s at depth %d", peek.Kind, peek.Depth))
}

func (mi *mapIterator) Key() (string, error) {
	tok, err := mi.d.r.Next()
	if err != nil {
		return "", wrapErr("Key", err)
	}
	if tok.Kind != BeginElement || tok.Name != mi.keyName {
		return "", wrapErr("Key", fmt.Errorf("expected <%s>, got %s %s", mi.keyName, tok.Kind, tok.Name))
	}
	text, err := readElementText(mi.d.r)
	if err != nil {
		return "", wrapErr("Key", err)
	}
	end, err := mi.d.r.Next()
	if err != nil {
		return "", wrapErr("Key", err)
	}
	if end.Kind != EndElement {
		return "", wrapErr("Key", fmt.Errorf("expected </%s>, got %s", mi.keyName, end.Kind))
	}
	valueStart, err := mi.d.r.Peek()
	if err != nil {
		return "", wrapErr("Key", err)
	}
	if valueStart.Kind != BeginElement || valueStart.Name != mi.valueName {
		return "", wrapErr("Key", fmt.Errorf("expected <%s> after key, got %s %s", mi.valueName, valueStart.Kind, valueStart.Name))
	}
	mi.d.r.Next()
	return text, nil
}

func (mi *mapIterator) NextEntryHasValue() (bool, error) {
	peek, err := mi.d.r.Peek()
	if err != nil {
		return false, wrapErr("NextEntryHasValue", err)
	}
	return peek.Kind != EndElement, nil
}

// readElementText reads Text tokens until the matching end of the
// element most recently opened, concatenating them. It does not
// consume the EndElement.
func readElementText(r *Reader) (string, error) {
	var text string
	for {
		tok, err := r.Peek()
		if err != nil {
			return "", err
		}
		if tok.Kind != Text {
			return text, nil
		}
		r.Next()
		text += tok.Value
	}
}

// scalarText reads the current element's text content and consumes its
// matching EndElement, leaving the cursor exactly where the enclosing
// iterator expects it for the next field/element/entry. When a pending
// attribute literal is set there is no element to close.
func (d *Deserializer) scalarText(op string) (string, error) {
	if d.pendingLiteral != nil {
		v := *d.pendingLiteral
		d.pendingLiteral = nil
		return v, nil
	}
	text, err := readElementText(d.r)
	if err != nil {
		return "", err
	}
	end, err := d.r.Next()
	if err != nil {
		return "", err
	}
	if end.Kind != EndElement {
		return "", fmt.Errorf("xmlcodec: %s: expected EndElement, got %s", op, end.Kind)
	}
	return text, nil
}

func (d *Deserializer) DeserializeBoolean() (bool, error) {
	s, err := d.scalarText("DeserializeBoolean")
	if err != nil {
		return false, wrapErr("DeserializeBoolean", err)
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, wrapErr("DeserializeBoolean", err)
	}
	return v, nil
}

func (d *Deserializer) deserializeInt(bits int) (int64, error) {
	s, err := d.scalarText("deserializeInt")
	if err != nil {
		return 0, wrapErr("deserializeInt", err)
	}
	v, err := strconv.ParseInt(s, 10, bits)
	if err != nil {
		return 0, wrapErr("deserializeInt", err)
	}
	return v, nil
}

func (d *Deserializer) DeserializeByte() (int8, error) {
	v, err := d.deserializeInt(8)
	return int8(v), err
}

func (d *Deserializer) DeserializeShort() (int16, error) {
	v, err := d.deserializeInt(16)
	return int16(v), err
}

func (d *Deserializer) DeserializeInteger() (int32, error) {
	v, err := d.deserializeInt(32)
	return int32(v), err
}

func (d *Deserializer) DeserializeLong() (int64, error) { return d.deserializeInt(64) }

func (d *Deserializer) DeserializeFloat() (float32, error) {
	s, err := d.scalarText("DeserializeFloat")
	if err != nil {
		return 0, wrapErr("DeserializeFloat", err)
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		return 0, wrapErr("DeserializeFloat", err)
	}
	return float32(v), nil
}

func (d *Deserializer) DeserializeDouble() (float64, error) {
	s, err := d.scalarText("DeserializeDouble")
	if err != nil {
		return 0, wrapErr("DeserializeDouble", err)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, wrapErr("DeserializeDouble", err)
	}
	return v, nil
}

func (d *Deserializer) DeserializeChar() (rune, error) {
	s, err := d.scalarText("DeserializeChar")
	if err != nil {
		return 0, wrapErr("DeserializeChar", err)
	}
	runes := []rune(s)
	if len(runes) != 1 {
		return 0, wrapErr("DeserializeChar", fmt.Errorf("expected exactly one character, got %q", s))
	}
	return runes[0], nil
}

func (d *Deserializer) DeserializeString() (string, error) {
	s, err := d.scalarText("DeserializeString")
	if err != nil {
		return "", wrapErr("DeserializeString", err)
	}
	return s, nil
}

func (d *Deserializer) DeserializeBlob() ([]byte, error) {
	s, err := d.scalarText("DeserializeBlob")
	if err != nil {
		return nil, wrapErr("DeserializeBlob", err)
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, wrapErr("DeserializeBlob", err)
	}
	return b, nil
}

func (d *Deserializer) DeserializeTimestamp(format schema.TimestampFormat) (time.Time, error) {
	s, err := d.scalarText("DeserializeTimestamp")
	if err != nil {
		return time.Time{}, wrapErr("DeserializeTimestamp", err)
	}
	switch format {
	case schema.TimestampHttpDate:
		t, err := time.Parse(http.TimeFormat, s)
		if err != nil {
			return time.Time{}, wrapErr("DeserializeTimestamp", err)
		}
		return t, nil
	case schema.TimestampEpochSeconds:
		secs, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return time.Time{}, wrapErr("DeserializeTimestamp", err)
		}
		whole := math.Trunc(secs)
		frac := secs - whole
		return time.Unix(int64(whole), int64(frac*1e9)).UTC(), nil
	default:
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, wrapErr("DeserializeTimestamp", err)
		}
		return t, nil
	}
}

func (d *Deserializer) DeserializeDocument() (any, error) {
	return nil, wrapErr("DeserializeDocument", fmt.Errorf("xmlcodec: Document values are not supported by the XML codec"))
}

// DeserializeNull consumes a sparse null value: an already-open,
// content-free element whose next token is its own EndElement.
func (d *Deserializer) DeserializeNull() error {
	if d.pendingLiteral != nil {
		d.pendingLiteral = nil
		return nil
	}
	end, err := d.r.Next()
	if err != nil {
		return wrapErr("DeserializeNull", err)
	}
	if end.Kind != EndElement {
		return wrapErr("DeserializeNull", fmt.Errorf("expected EndElement for a sparse null, got %s", end.Kind))
	}
	return nil
}
