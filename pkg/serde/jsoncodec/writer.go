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
	"strconv"
	"strings"

	"github.com/k8s-serde/serde/pkg/serde"
	"github.com/k8s-serde/serde/pkg/serde/buffer"
)

type writerFrame struct {
	isObject      bool
	wroteAny      bool
	awaitingValue bool // object only: true right after Name(), before the value is written
}

// Writer emits the JSON token stream defined in §3, minified by
// default or pretty-printed with a 4-space indent and LF newlines.
type Writer struct {
	buf    *buffer.Buffer
	stack  []writerFrame
	pretty bool
}

// NewWriter returns a minifying Writer.
func NewWriter() *Writer { return &Writer{buf: buffer.New(256)} }

// NewPrettyWriter returns a Writer that indents nested structure with
// 4 spaces per level and LF newlines (§4.3.2).
func NewPrettyWriter() *Writer { return &Writer{buf: buffer.New(256), pretty: true} }

func (w *Writer) top() *writerFrame {
	if len(w.stack) == 0 {
		return nil
	}
	return &w.stack[len(w.stack)-1]
}

// beforeValue emits the comma/indentation needed before the next value
// token and validates that a primitive isn't being written inside an
// object without a preceding Name.
func (w *Writer) beforeValue() error {
	f := w.top()
	if f == nil {
		return nil
	}
	if f.isObject && !f.awaitingValue {
		return &serde.ProgrammerError{Msg: "jsoncodec: wrote a value inside an object without a preceding Name"}
	}
	if f.wroteAny {
		w.buf.WriteByte(',')
	}
	f.wroteAny = true
	f.awaitingValue = false
	w.newlineIndent()
	return nil
}

func (w *Writer) newlineIndent() {
	if !w.pretty {
		return
	}
	if len(w.stack) == 0 {
		return
	}
	w.buf.WriteByte('\n')
	for i := 0; i < len(w.stack); i++ {
		w.buf.WriteString("    ")
	}
}

func (w *Writer) newlineIndentForClose() {
	if !w.pretty {
		return
	}
	f := w.top()
	if f != nil && !f.wroteAny {
		return // empty container: no newline before the closing brace
	}
	w.buf.WriteByte('\n')
	for i := 0; i < len(w.stack)-1; i++ {
		w.buf.WriteString("    ")
	}
}

// BeginObject opens a JSON object.
func (w *Writer) BeginObject() error {
	if err := w.beforeValue(); err != nil {
		return err
	}
	w.buf.WriteByte('{')
	w.stack = append(w.stack, writerFrame{isObject: true})
	return nil
}

// EndObject closes the innermost open object.
func (w *Writer) EndObject() error {
	if f := w.top(); f == nil || !f.isObject {
		return &serde.ProgrammerError{Msg: "jsoncodec: EndObject without matching BeginObject"}
	}
	w.newlineIndentForClose()
	w.stack = w.stack[:len(w.stack)-1]
	w.buf.WriteByte('}')
	return nil
}

// BeginArray opens a JSON array.
func (w *Writer) BeginArray() error {
	if err := w.beforeValue(); err != nil {
		return err
	}
	w.buf.WriteByte('[')
	w.stack = append(w.stack, writerFrame{isObject: false})
	return nil
}

// EndArray closes the innermost open array.
func (w *Writer) EndArray() error {
	if f := w.top(); f == nil || f.isObject {
		return &serde.ProgrammerError{Msg: "jsoncodec: EndArray without matching BeginArray"}
	}
	w.newlineIndentForClose()
	w.stack = w.stack[:len(w.stack)-1]
	w.buf.WriteByte(']')
	return nil
}

// Name writes a field name; duplicates are allowed and preserved in
// insertion order (§4.3.2).
func (w *Writer) Name(name string) error {
	f := w.top()
	if f == nil || !f.isObject {
		return &serde.ProgrammerError{Msg: "jsoncodec: Name outside of an object"}
	}
	if f.wroteAny {
		w.buf.WriteByte(',')
	}
	f.wroteAny = true
	w.newlineIndent()
	writeQuotedString(w.buf, name)
	if w.pretty {
		w.buf.WriteString(": ")
	} else {
		w.buf.WriteByte(':')
	}
	f.awaitingValue = true
	return nil
}

// WriteString writes a quoted, escaped JSON string value.
func (w *Writer) WriteString(v string) error {
	if err := w.beforeValue(); err != nil {
		return err
	}
	writeQuotedString(w.buf, v)
	return nil
}

// WriteNumber writes a pre-formatted numeric literal verbatim.
func (w *Writer) WriteNumber(text string) error {
	if err := w.beforeValue(); err != nil {
		return err
	}
	w.buf.WriteString(text)
	return nil
}

// WriteBool writes true or false.
func (w *Writer) WriteBool(v bool) error {
	if err := w.beforeValue(); err != nil {
		return err
	}
	w.buf.WriteString(strconv.FormatBool(v))
	return nil
}

// WriteNull writes the null literal.
func (w *Writer) WriteNull() error {
	if err := w.beforeValue(); err != nil {
		return err
	}
	w.buf.WriteString("null")
	return nil
}

// Bytes returns the encoded payload so far.
func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

func writeQuotedString(b *buffer.Buffer, s string) {
	b.WriteByte('"')
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if r < 0x20 {
				sb.WriteString("\\u")
				const hex = "0123456789abcdef"
				sb.WriteByte(hex[(r>>12)&0xf])
				sb.WriteByte(hex[(r>>8)&0xf])
				sb.WriteByte(hex[(r>>4)&0xf])
				sb.WriteByte(hex[r&0xf])
			} else {
				sb.WriteRune(r)
			}
		}
	}
	b.WriteString(sb.String())
	b.WriteByte('"')
}
