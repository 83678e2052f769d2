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
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/k8s-serde/serde/pkg/serde"
	"github.com/k8s-serde/serde/pkg/serde/schema"
)

// Deserializer is the schema-directed JSON consumer (§4.3.3), built
// directly on Reader's token stream.
type Deserializer struct {
	r    *Reader
	desc *schema.ObjectDescriptor // not set by DeserializeStruct; field lookups use the struct iterator's own descriptor
}

var _ serde.Deserializer = (*Deserializer)(nil)

// NewDeserializer wraps a complete JSON payload.
func NewDeserializer(data []byte) *Deserializer { return &Deserializer{r: NewReader(data)} }

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &serde.DeserializationError{Op: op, Err: err}
}

func (d *Deserializer) expect(kind TokenKind) (Token, error) {
	tok, err := d.r.Next()
	if err != nil {
		return Token{}, err
	}
	if tok.Kind != kind {
		return Token{}, fmt.Errorf("jsoncodec: expected %s, got %s", kind, tok.Kind)
	}
	return tok, nil
}

func (d *Deserializer) DeserializeStruct(desc *schema.ObjectDescriptor) (serde.StructIterator, error) {
	if _, err := d.expect(BeginObject); err != nil {
		return nil, wrapErr("DeserializeStruct", err)
	}
	return &structIterator{d: d, desc: desc}, nil
}

type structIterator struct {
	d    *Deserializer
	desc *schema.ObjectDescriptor
}

func (si *structIterator) FindNextFieldIndex() (int, serde.FieldStatus, error) {
	tok, err := si.d.r.Peek()
	if err != nil {
		return -1, 0, wrapErr("FindNextFieldIndex", err)
	}
	if tok.Kind == EndObject {
		si.d.r.Next()
		return -1, serde.FieldExhausted, nil
	}
	if tok.Kind != Name {
		return -1, 0, wrapErr("FindNextFieldIndex", fmt.Errorf("expected Name or EndObject, got %s", tok.Kind))
	}
	si.d.r.Next()
	for _, f := range si.desc.Fields {
		if fieldName(f) == tok.Text {
			return f.Index, serde.FieldKnown, nil
		}
	}
	return -1, serde.FieldUnknown, nil
}

func (si *structIterator) SkipValue() error {
	return wrapErr("SkipValue", si.d.r.SkipNext())
}

func (d *Deserializer) DeserializeList(desc schema.FieldDescriptor) (serde.ListIterator, error) {
	if _, err := d.expect(BeginArray); err != nil {
		return nil, wrapErr("DeserializeList", err)
	}
	return &listIterator{d: d}, nil
}

type listIterator struct{ d *Deserializer }

func (li *listIterator) HasNextElement() (bool, error) {
	tok, err := li.d.r.Peek()
	if err != nil {
		return false, wrapErr("HasNextElement", err)
	}
	if tok.Kind == EndArray {
		li.d.r.Next()
		return false, nil
	}
	return true, nil
}

func (li *listIterator) NextElementHasValue() (bool, error) {
	tok, err := li.d.r.Peek()
	if err != nil {
		return false, wrapErr("NextElementHasValue", err)
	}
	return tok.Kind != Null, nil
}

func (d *Deserializer) DeserializeMap(desc schema.FieldDescriptor) (serde.MapIterator, error) {
	if _, err := d.expect(BeginObject); err != nil {
		return nil, wrapErr("DeserializeMap", err)
	}
	return &mapIterator{d: d}, nil
}

type mapIterator struct{ d *Deserializer }

func (mi *mapIterator) HasNextEntry() (bool, error) {
	tok, err := mi.d.r.Peek()
	if err != nil {
		return false, wrapErr("HasNextEntry", err)
	}
	if tok.Kind == EndObject {
		mi.d.r.Next()
		return false, nil
	}
	return true, nil
}

func (mi *mapIterator) Key() (string, error) {
	tok, err := mi.d.expect(Name)
	if err != nil {
		return "", wrapErr("Key", err)
	}
	return tok.Text, nil
}

func (mi *mapIterator) NextEntryHasValue() (bool, error) {
	tok, err := mi.d.r.Peek()
	if err != nil {
		return false, wrapErr("NextEntryHasValue", err)
	}
	return tok.Kind != Null, nil
}

func (d *Deserializer) DeserializeBoolean() (bool, error) {
	tok, err := d.expect(Bool)
	if err != nil {
		return false, wrapErr("DeserializeBoolean", err)
	}
	return tok.BoolValue, nil
}

func (d *Deserializer) deserializeInt(bits int) (int64, error) {
	tok, err := d.expect(Number)
	if err != nil {
		return 0, wrapErr("deserializeInt", err)
	}
	if strings.ContainsAny(tok.Text, ".eE") {
		f, ferr := strconv.ParseFloat(tok.Text, 64)
		if ferr != nil || f != math.Trunc(f) {
			return 0, wrapErr("deserializeInt", fmt.Errorf("numeric text %q has a fractional component", tok.Text))
		}
		tok.Text = strconv.FormatInt(int64(f), 10)
	}
	v, err := strconv.ParseInt(tok.Text, 10, bits)
	if err != nil {
		return 0, wrapErr("deserializeInt", fmt.Errorf("overflow narrowing %q to %d bits: %w", tok.Text, bits, err))
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

func (d *Deserializer) DeserializeLong() (int64, error) {
	return d.deserializeInt(64)
}

func (d *Deserializer) DeserializeFloat() (float32, error) {
	tok, err := d.expect(Number)
	if err != nil {
		return 0, wrapErr("DeserializeFloat", err)
	}
	v, err := strconv.ParseFloat(tok.Text, 32)
	if err != nil {
		return 0, wrapErr("DeserializeFloat", err)
	}
	return float32(v), nil
}

func (d *Deserializer) DeserializeDouble() (float64, error) {
	tok, err := d.expect(Number)
	if err != nil {
		return 0, wrapErr("DeserializeDouble", err)
	}
	v, err := strconv.ParseFloat(tok.Text, 64)
	if err != nil {
		return 0, wrapErr("DeserializeDouble", err)
	}
	return v, nil
}

func (d *Deserializer) DeserializeChar() (rune, error) {
	tok, err := d.expect(String)
	if err != nil {
		return 0, wrapErr("DeserializeChar", err)
	}
	runes := []rune(tok.Text)
	if len(runes) != 1 {
		return 0, wrapErr("DeserializeChar", fmt.Errorf("expected exactly one character, got %q", tok.Text))
	}
	return runes[0], nil
}

// DeserializeString accepts any scalar token, per the spec's explicit
// Open Question resolution (§9): callers that need custom coercion
// (e.g. a timestamp stored as either a string or a number) can always
// read the literal text and parse it themselves. A JSON null is
// returned as the literal text "null".
func (d *Deserializer) DeserializeString() (string, error) {
	tok, err := d.r.Next()
	if err != nil {
		return "", wrapErr("DeserializeString", err)
	}
	switch tok.Kind {
	case String, Number:
		return tok.Text, nil
	case Bool:
		return strconv.FormatBool(tok.BoolValue), nil
	case Null:
		return "null", nil
	default:
		return "", wrapErr("DeserializeString", fmt.Errorf("expected a scalar token, got %s", tok.Kind))
	}
}

func (d *Deserializer) DeserializeBlob() ([]byte, error) {
	tok, err := d.expect(String)
	if err != nil {
		return nil, wrapErr("DeserializeBlob", err)
	}
	b, err := base64.StdEncoding.DecodeString(tok.Text)
	if err != nil {
		return nil, wrapErr("DeserializeBlob", err)
	}
	return b, nil
}

func (d *Deserializer) DeserializeTimestamp(format schema.TimestampFormat) (time.Time, error) {
	switch format {
	case schema.TimestampDateTime:
		tok, err := d.expect(String)
		if err != nil {
			return time.Time{}, wrapErr("DeserializeTimestamp", err)
		}
		t, err := time.Parse(time.RFC3339Nano, tok.Text)
		if err != nil {
			return time.Time{}, wrapErr("DeserializeTimestamp", err)
		}
		return t, nil
	case schema.TimestampHttpDate:
		tok, err := d.expect(String)
		if err != nil {
			return time.Time{}, wrapErr("DeserializeTimestamp", err)
		}
		t, err := time.Parse(http.TimeFormat, tok.Text)
		if err != nil {
			return time.Time{}, wrapErr("DeserializeTimestamp", err)
		}
		return t, nil
	default: // epoch seconds, possibly fractional
		tok, err := d.expect(Number)
		if err != nil {
			return time.Time{}, wrapErr("DeserializeTimestamp", err)
		}
		secs, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return time.Time{}, wrapErr("DeserializeTimestamp", err)
		}
		whole := math.Trunc(secs)
		frac := secs - whole
		return time.Unix(int64(whole), int64(frac*1e9)).UTC(), nil
	}
}

func (d *Deserializer) DeserializeDocument() (any, error) {
	tok, err := d.r.Next()
	if err != nil {
		return nil, wrapErr("DeserializeDocument", err)
	}
	return d.readDocumentFrom(tok)
}

func (d *Deserializer) readDocumentFrom(tok Token) (any, error) {
	switch tok.Kind {
	case Null:
		return nil, nil
	case Bool:
		return tok.BoolValue, nil
	case String:
		return tok.Text, nil
	case Number:
		v, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			return nil, wrapErr("DeserializeDocument", err)
		}
		return v, nil
	case BeginArray:
		var out []any
		for {
			next, err := d.r.Next()
			if err != nil {
				return nil, wrapErr("DeserializeDocument", err)
			}
			if next.Kind == EndArray {
				return out, nil
			}
			v, err := d.readDocumentFrom(next)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	case BeginObject:
		out := map[string]any{}
		for {
			next, err := d.r.Next()
			if err != nil {
				return nil, wrapErr("DeserializeDocument", err)
			}
			if next.Kind == EndObject {
				return out, nil
			}
			if next.Kind != Name {
				return nil, wrapErr("DeserializeDocument", fmt.Errorf("expected Name, got %s", next.Kind))
			}
			valTok, err := d.r.Next()
			if err != nil {
				return nil, wrapErr("DeserializeDocument", err)
			}
			v, err := d.readDocumentFrom(valTok)
			if err != nil {
				return nil, err
			}
			out[next.Text] = v
		}
	default:
		return nil, wrapErr("DeserializeDocument", fmt.Errorf("unexpected token %s", tok.Kind))
	}
}

func (d *Deserializer) DeserializeNull() error {
	_, err := d.expect(Null)
	return wrapErr("DeserializeNull", err)
}
