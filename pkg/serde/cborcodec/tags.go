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
	"math/big"
	"time"
)

const (
	tagTimestamp       = 1
	tagUnsignedBignum  = 2
	tagNegativeBignum  = 3
	tagDecimalFraction = 4
)

// readTag decodes a major-6 value. Tags 1-4 are resolved into their
// own Value fields (§4.6.1); every other tag id is preserved verbatim
// as KindTag so the caller can re-interpret it.
func (r *Reader) readTag(h head) (Value, error) {
	id, err := readArgument(r.buf, h)
	if err != nil {
		return Value{}, err
	}
	switch id {
	case tagTimestamp:
		return r.readTimestampTag()
	case tagUnsignedBignum:
		b, err := r.readBignumPayload()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindBignum, Bignum: new(big.Int).SetBytes(b)}, nil
	case tagNegativeBignum:
		b, err := r.readBignumPayload()
		if err != nil {
			return Value{}, err
		}
		mag := new(big.Int).SetBytes(b)
		out := new(big.Int).Neg(mag)
		out.Sub(out, big.NewInt(1))
		return Value{Kind: KindBignum, Bignum: out}, nil
	case tagDecimalFraction:
		return r.readDecimalFractionTag()
	default:
		inner, err := r.ReadValue()
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindTag, TagID: id, Tagged: &inner}, nil
	}
}

func (r *Reader) readBignumPayload() ([]byte, error) {
	h, err := r.readHead()
	if err != nil {
		return nil, err
	}
	if h.major != majorBytes {
		return nil, &UnexpectedMinorError{Major: byte(h.major), Minor: h.minor}
	}
	return r.readByteOrTextPayload(h, majorBytes)
}

// readTimestampTag resolves tag 1: payload is a number (unsigned,
// negative, or float) of seconds since the Unix epoch. Sub-second
// precision survives only through the float path.
func (r *Reader) readTimestampTag() (Value, error) {
	inner, err := r.ReadValue()
	if err != nil {
		return Value{}, err
	}
	var t time.Time
	switch inner.Kind {
	case KindUInt:
		t = time.Unix(int64(inner.UInt), 0).UTC()
	case KindNegInt:
		t = time.Unix(negIntToInt64(inner.UInt), 0).UTC()
	case KindFloat16, KindFloat32, KindFloat64:
		secs := inner.Float
		whole := int64(secs)
		frac := secs - float64(whole)
		t = time.Unix(whole, int64(frac*1e9)).UTC()
	default:
		return Value{}, &UnsupportedTagError{TagID: tagTimestamp}
	}
	return Value{Kind: KindTimestamp, Timestamp: t}, nil
}

func negIntToInt64(stored uint64) int64 {
	// logical = -1 - stored. Only stored values up to math.MaxInt64 fit
	// in an int64; larger ones wrap around. deserializeSignedInt rejects
	// them with an OverflowError before calling here; the other callers
	// do not check.
	return -1 - int64(stored)
}

// readDecimalFractionTag resolves tag 4: a two-element list
// [exponent, mantissa], where exponent is a signed integer and
// mantissa is an integer or bignum (§4.6.1).
func (r *Reader) readDecimalFractionTag() (Value, error) {
	inner, err := r.ReadValue()
	if err != nil {
		return Value{}, err
	}
	if inner.Kind != KindList || len(inner.List) != 2 {
		return Value{}, &InvalidMantissaError{Major: byte(majorList)}
	}
	expVal, mantissaVal := inner.List[0], inner.List[1]

	var exponent int64
	switch expVal.Kind {
	case KindUInt:
		exponent = int64(expVal.UInt)
	case KindNegInt:
		exponent = negIntToInt64(expVal.UInt)
	default:
		return Value{}, &InvalidMantissaError{Major: byte(majorList)}
	}

	var mantissa *big.Int
	switch mantissaVal.Kind {
	case KindUInt:
		mantissa = new(big.Int).SetUint64(mantissaVal.UInt)
	case KindNegInt:
		mantissa = mantissaVal.NegIntValue()
	case KindBignum:
		mantissa = mantissaVal.Bignum
	default:
		return Value{}, &InvalidMantissaError{Major: byte(majorToKind(mantissaVal.Kind))}
	}

	return Value{
		Kind:    KindDecimalFraction,
		Decimal: DecimalFraction{Exponent: exponent, Mantissa: mantissa},
	}, nil
}

// writeBignumTag writes tag 2 or 3 plus a big-endian magnitude
// byte string, choosing the tag based on sign (§4.6.1).
func writeBignumTag(w *Writer, v *big.Int) {
	if v.Sign() >= 0 {
		w.writeTagHead(tagUnsignedBignum)
		w.WriteBlob(v.Bytes())
		return
	}
	w.writeTagHead(tagNegativeBignum)
	mag := new(big.Int).Neg(v)
	mag.Sub(mag, big.NewInt(1))
	w.WriteBlob(mag.Bytes())
}

// writeDecimalFractionTag writes tag 4 plus its [exponent, mantissa]
// list (§4.6.1).
func writeDecimalFractionTag(w *Writer, d DecimalFraction) {
	w.writeTagHead(tagDecimalFraction)
	writeHeadArgument(w.buf, majorList, 2)
	w.writeSignedInt(d.Exponent)
	if d.Mantissa.IsInt64() {
		w.writeSignedInt(d.Mantissa.Int64())
	} else {
		writeBignumTag(w, d.Mantissa)
	}
}
