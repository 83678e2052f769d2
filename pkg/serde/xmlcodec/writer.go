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
	"fmt"
	"strings"

	"github.com/k8s-serde/serde/pkg/serde/buffer"
)

// writerElem tracks one open element on the writer's stack: whether it
// has emitted any content yet (so the start tag can still be closed as
// "/>") and whether that content was a child element (controls
// indentation of the end tag).
type writerElem struct {
	name         QName
	wroteContent bool
	wroteChild   bool
}

// Writer is a pretty-printing XML token writer (§4.4.1): four-space
// indentation, LF line endings, empty elements rendered as <tag/>.
type Writer struct {
	buf      *buffer.Buffer
	stack    []writerElem
	pretty   bool
	prologue bool
}

// NewWriter returns a pretty-printing Writer with no XML prologue.
func NewWriter() *Writer {
	return &Writer{buf: buffer.New(256), pretty: true}
}

// NewWriterWithProlog returns a pretty-printing Writer that emits an
// <?xml version="1.0"?> declaration before the root element.
func NewWriterWithProlog() *Writer {
	w := NewWriter()
	w.prologue = true
	return w
}

func (w *Writer) indent(depth int) {
	if !w.pretty {
		return
	}
	w.buf.WriteByte('\n')
	for i := 0; i < depth; i++ {
		w.buf.WriteString("    ")
	}
}

// BeginElement opens a start tag with the given name, attributes, and
// namespace declarations (rendered xmlns/xmlns:prefix first, in
// declaration order, then attributes in the order given).
func (w *Writer) BeginElement(name QName, attrs []Attribute, nsDecls []NSDeclaration) error {
	if len(w.stack) > 0 {
		top := &w.stack[len(w.stack)-1]
		if !top.wroteContent {
			w.buf.WriteString(">")
		}
		top.wroteContent = true
		top.wroteChild = true
		w.indent(len(w.stack))
	} else if w.prologue {
		w.buf.WriteString(`<?xml version="1.0"?>`)
		w.indent(0)
	}
	w.buf.WriteByte('<')
	w.buf.WriteString(name.String())
	for _, d := range nsDecls {
		if d.Prefix == "" {
			fmt.Fprintf(w.buf, ` xmlns="%s"`, escapeAttr(d.URI))
		} else {
			fmt.Fprintf(w.buf, ` xmlns:%s="%s"`, d.Prefix, escapeAttr(d.URI))
		}
	}
	for _, a := range attrs {
		fmt.Fprintf(w.buf, ` %s="%s"`, a.Name.String(), escapeAttr(a.Value))
	}
	w.stack = append(w.stack, writerElem{name: name})
	return nil
}

// SetAttribute appends one attribute to the innermost open element's
// start tag. It must be called before any child content (WriteText or
// a nested BeginElement) is written for that element, since the start
// tag is flushed to the buffer lazily on first content.
func (w *Writer) SetAttribute(name QName, value string) error {
	if len(w.stack) == 0 {
		return fmt.Errorf("xmlcodec: SetAttribute with no open element")
	}
	top := &w.stack[len(w.stack)-1]
	if top.wroteContent {
		return fmt.Errorf("xmlcodec: SetAttribute %s called after content was already written on <%s>", name, top.name)
	}
	fmt.Fprintf(w.buf, ` %s="%s"`, name.String(), escapeAttr(value))
	return nil
}

// EndElement closes the innermost open element.
func (w *Writer) EndElement() error {
	if len(w.stack) == 0 {
		return fmt.Errorf("xmlcodec: EndElement with no open element")
	}
	top := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	if !top.wroteContent {
		w.buf.WriteString("/>")
		return nil
	}
	if top.wroteChild {
		w.indent(len(w.stack))
	}
	w.buf.WriteString("</")
	w.buf.WriteString(top.name.String())
	w.buf.WriteByte('>')
	return nil
}

// WriteText writes character content inside the current element,
// escaping markup-significant characters and the End-of-Line
// characters the specification requires to round-trip exactly
// (CR, NEL, LS).
func (w *Writer) WriteText(s string) error {
	if len(w.stack) == 0 {
		return fmt.Errorf("xmlcodec: WriteText with no open element")
	}
	top := &w.stack[len(w.stack)-1]
	if !top.wroteContent {
		w.buf.WriteString(">")
	}
	top.wroteContent = true
	w.buf.WriteString(escapeText(s))
	return nil
}

func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

const (
	runeNEL = '\u0085'
	runeLS  = '\u2028'
)

func escapeAttr(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '<':
			sb.WriteString("&lt;")
		case '&':
			sb.WriteString("&amp;")
		case '"':
			sb.WriteString("&quot;")
		case '\r':
			sb.WriteString("&#xD;")
		case '\n':
			sb.WriteString("&#xA;")
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// escapeText escapes the markup-significant characters plus the
// end-of-line characters NEL (U+0085) and LS (U+2028) as numeric
// character references, so a reader reconstructs the exact original
// text rather than having a conforming XML parser normalize them away.
func escapeText(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '<':
			sb.WriteString("&lt;")
		case '>':
			sb.WriteString("&gt;")
		case '&':
			sb.WriteString("&amp;")
		case '\r':
			sb.WriteString("&#xD;")
		case '\n':
			sb.WriteString("&#xA;")
		case runeNEL:
			sb.WriteString("&#x85;")
		case runeLS:
			sb.WriteString("&#x2028;")
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
