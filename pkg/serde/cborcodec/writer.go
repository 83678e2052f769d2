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
	"github.com/k8s-serde/serde/pkg/serde/buffer"
)

// Writer is the low-level CBOR byte writer: one primitive method per
// major type, no intermediate token buffer (§4.6.2). The schema
// Serializer calls straight through to these.
type Writer struct {
	buf          *buffer.Buffer
	SelfDescribe bool
	wroteFirst   bool
}

// NewWriter returns a Writer with no self-description prefix.
func NewWriter() *Writer { return &Writer{buf: buffer.New(256)} }

// NewSelfDescribingWriter returns a Writer that emits the RFC 8949
// §3.4.6 tag-55799 prefix (0xD9 0xD9 0xF7) before the first value,
// the way the teacher's cbor.go does for every encoded document.
func NewSelfDescribingWriter() *Writer {
	w := NewWriter()
	w.SelfDescribe = true
	return w
}

func (w *Writer) maybeWritePrefix() {
	if w.SelfDescribe && !w.wroteFirst {
		w.buf.Write(selfDescribePrefix[:])
	}
	w.wroteFirst = true
}

func (w *Writer) Bytes() []byte { return w.buf.Bytes() }

func (w *Writer) writeTagHead(id uint64) {
	w.maybeWritePrefix()
	writeHeadArgument(w.buf, majorTag, id)
}

// writeSignedInt writes v as major 0 (v >= 0) or major 1 (v < 0),
// storing -1-v per §4.6.1.
func (w *Writer) writeSignedInt(v int64) {
	w.maybeWritePrefix()
	if v >= 0 {
		writeHeadArgument(w.buf, majorUnsigned, uint64(v))
		return
	}
	stored := uint64(-(v + 1))
	writeHeadArgument(w.buf, majorNegative, stored)
}

// WriteUnsigned writes an already-non-negative value as major 0,
// allowing the full uint64 range (writeSignedInt tops out at int64).
func (w *Writer) WriteUnsigned(v uint64) {
	w.maybeWritePrefix()
	writeHeadArgument(w.buf, majorUnsigned, v)
}

func (w *Writer) WriteBool(v bool) {
	w.maybeWritePrefix()
	minor := byte(simpleFalse)
	if v {
		minor = simpleTrue
	}
	w.buf.WriteByte(head{major: majorSimple, minor: minor}.byte())
}

func (w *Writer) WriteNull() {
	w.maybeWritePrefix()
	w.buf.WriteByte(head{major: majorSimple, minor: simpleNull}.byte())
}

func (w *Writer) WriteUndefined() {
	w.maybeWritePrefix()
	w.buf.WriteByte(head{major: majorSimple, minor: simpleUndefined}.byte())
}

func (w *Writer) WriteFloat32(v float32) {
	w.maybeWritePrefix()
	w.buf.WriteByte(head{major: majorSimple, minor: simpleFloat32}.byte())
	var b [4]byte
	putFloat32(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteFloat64(v float64) {
	w.maybeWritePrefix()
	w.buf.WriteByte(head{major: majorSimple, minor: simpleFloat64}.byte())
	var b [8]byte
	putFloat64(b[:], v)
	w.buf.Write(b[:])
}

func (w *Writer) WriteBlob(v []byte) {
	w.maybeWritePrefix()
	writeHeadArgument(w.buf, majorBytes, uint64(len(v)))
	w.buf.Write(v)
}

func (w *Writer) WriteText(v string) {
	w.maybeWritePrefix()
	writeHeadArgument(w.buf, majorText, uint64(len(v)))
	w.buf.WriteString(v)
}

// BeginIndefiniteList opens an indefinite-length list (major 4, minor
// 31); the schema Serializer uses this rather than a definite-length
// list since it does not know the element count in advance.
func (w *Writer) BeginIndefiniteList() {
	w.maybeWritePrefix()
	writeIndefiniteHead(w.buf, majorList)
}

// BeginIndefiniteMap opens an indefinite-length map (major 5, minor 31).
func (w *Writer) BeginIndefiniteMap() {
	w.maybeWritePrefix()
	writeIndefiniteHead(w.buf, majorMap)
}

// WriteBreak closes the innermost open indefinite-length container.
func (w *Writer) WriteBreak() {
	writeBreak(w.buf)
}

// WriteDefiniteList opens a definite-length list header for n items;
// used when the full Value tree (and hence its length) is already
// known, e.g. re-encoding a decoded Value or writing a decimal
// fraction's fixed two-element list.
func (w *Writer) WriteDefiniteList(n int) {
	w.maybeWritePrefix()
	writeHeadArgument(w.buf, majorList, uint64(n))
}

// WriteDefiniteMap opens a definite-length map header for n entries.
func (w *Writer) WriteDefiniteMap(n int) {
	w.maybeWritePrefix()
	writeHeadArgument(w.buf, majorMap, uint64(n))
}

// WriteValue re-encodes an already-decoded Value, always using
// definite lengths (the original indefinite/definite distinction is
// not preserved by the Value model).
func (w *Writer) WriteValue(v Value) {
	switch v.Kind {
	case KindUInt:
		w.WriteUnsigned(v.UInt)
	case KindNegInt:
		w.maybeWritePrefix()
		writeHeadArgument(w.buf, majorNegative, v.UInt)
	case KindByteString:
		w.WriteBlob(v.Bytes)
	case KindTextString:
		w.WriteText(v.Text)
	case KindList:
		w.WriteDefiniteList(len(v.List))
		for _, item := range v.List {
			w.WriteValue(item)
		}
	case KindMap:
		w.WriteDefiniteMap(len(v.Map))
		for _, e := range v.Map {
			w.WriteValue(e.Key)
			w.WriteValue(e.Value)
		}
	case KindTag:
		w.writeTagHead(v.TagID)
		if v.Tagged != nil {
			w.WriteValue(*v.Tagged)
		}
	case KindBool:
		w.WriteBool(v.Bool)
	case KindNull:
		w.WriteNull()
	case KindUndefined:
		w.WriteUndefined()
	case KindFloat16:
		// Encoding never produces Float16 (§4.6.1).
		w.WriteFloat32(float32(v.Float))
	case KindFloat32:
		w.WriteFloat32(float32(v.Float))
	case KindFloat64:
		w.WriteFloat64(v.Float)
	case KindTimestamp:
		w.writeTagHead(tagTimestamp)
		w.WriteFloat64(float64(v.Timestamp.UnixNano()) / 1e9)
	case KindBignum:
		writeBignumTag(w, v.Bignum)
	case KindDecimalFraction:
		writeDecimalFractionTag(w, v.Decimal)
	}
}
