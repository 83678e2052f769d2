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
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/k8s-serde/serde/pkg/serde/buffer"
)

// frame tracks whether the current container is an object (in which
// case strings alternate key/value) or an array (always values).
type frame struct {
	isObject bool
	keyNext  bool
}

// Reader is a single-pass JSON tokenizer over a byte payload,
// following RFC 8259's lexical rules (§4.3.1).
type Reader struct {
	buf      *buffer.Buffer
	stack    []frame
	done     bool
	lookhead *Token
}

// NewReader wraps data for tokenizing. A UTF-8 byte-order mark, if
// present, is stripped before the first token is read (RFC 8259 §8.1).
func NewReader(data []byte) *Reader {
	if stripped, err := buffer.StripBOM(data); err == nil {
		data = stripped
	}
	return &Reader{buf: buffer.NewFromBytes(data)}
}

func (r *Reader) peekByte() (byte, bool) {
	b, err := r.buf.Peek(1)
	if err != nil {
		return 0, false
	}
	return b[0], true
}

func (r *Reader) skipWS() {
	for {
		b, ok := r.peekByte()
		if !ok {
			return
		}
		switch b {
		case ' ', '\t', '\n', '\r':
			r.buf.ReadByte()
		default:
			return
		}
	}
}

// Peek returns the next token without consuming it. Two consecutive
// Peek calls return identical tokens.
func (r *Reader) Peek() (Token, error) {
	if r.lookhead != nil {
		return *r.lookhead, nil
	}
	tok, err := r.next()
	if err != nil {
		return Token{}, err
	}
	r.lookhead = &tok
	return tok, nil
}

// Next returns and consumes the next token.
func (r *Reader) Next() (Token, error) {
	if r.lookhead != nil {
		tok := *r.lookhead
		r.lookhead = nil
		return tok, nil
	}
	return r.next()
}

func (r *Reader) top() *frame {
	if len(r.stack) == 0 {
		return nil
	}
	return &r.stack[len(r.stack)-1]
}

func (r *Reader) afterValue() {
	if f := r.top(); f != nil && f.isObject {
		f.keyNext = true
	}
}

func (r *Reader) next() (Token, error) {
	for {
		r.skipWS()
		b, ok := r.peekByte()
		if !ok {
			if r.done {
				return Token{Kind: EndDocument}, nil
			}
			r.done = true
			return Token{Kind: EndDocument}, nil
		}
		switch b {
		case '{':
			r.buf.ReadByte()
			r.stack = append(r.stack, frame{isObject: true, keyNext: true})
			return Token{Kind: BeginObject}, nil
		case '}':
			r.buf.ReadByte()
			if len(r.stack) == 0 {
				return Token{}, fmt.Errorf("jsoncodec: unmatched '}'")
			}
			r.stack = r.stack[:len(r.stack)-1]
			r.afterValue()
			return Token{Kind: EndObject}, nil
		case '[':
			r.buf.ReadByte()
			r.stack = append(r.stack, frame{isObject: false})
			return Token{Kind: BeginArray}, nil
		case ']':
			r.buf.ReadByte()
			if len(r.stack) == 0 {
				return Token{}, fmt.Errorf("jsoncodec: unmatched ']'")
			}
			r.stack = r.stack[:len(r.stack)-1]
			r.afterValue()
			return Token{Kind: EndArray}, nil
		case ',', ':':
			r.buf.ReadByte()
			continue
		case '"':
			s, err := r.readStringLiteral()
			if err != nil {
				return Token{}, err
			}
			if f := r.top(); f != nil && f.isObject && f.keyNext {
				f.keyNext = false
				return Token{Kind: Name, Text: s}, nil
			}
			r.afterValue()
			return Token{Kind: String, Text: s}, nil
		case 't':
			if err := r.expectLiteral("true"); err != nil {
				return Token{}, err
			}
			r.afterValue()
			return Token{Kind: Bool, BoolValue: true}, nil
		case 'f':
			if err := r.expectLiteral("false"); err != nil {
				return Token{}, err
			}
			r.afterValue()
			return Token{Kind: Bool, BoolValue: false}, nil
		case 'n':
			if err := r.expectLiteral("null"); err != nil {
				return Token{}, err
			}
			r.afterValue()
			return Token{Kind: Null}, nil
		default:
			text, err := r.readNumberLiteral()
			if err != nil {
				return Token{}, err
			}
			r.afterValue()
			return Token{Kind: Number, Text: text}, nil
		}
	}
}

func (r *Reader) expectLiteral(lit string) error {
	got, err := r.buf.ReadByteArray(len(lit))
	if err != nil || string(got) != lit {
		return fmt.Errorf("jsoncodec: expected literal %q", lit)
	}
	return nil
}

func (r *Reader) readStringLiteral() (string, error) {
	if _, err := r.buf.ReadByte(); err != nil { // opening quote
		return "", err
	}
	var sb strings.Builder
	for {
		b, err := r.buf.ReadByte()
		if err != nil {
			return "", fmt.Errorf("jsoncodec: unterminated string: %w", err)
		}
		switch b {
		case '"':
			return sb.String(), nil
		case '\\':
			esc, err := r.buf.ReadByte()
			if err != nil {
				return "", fmt.Errorf("jsoncodec: truncated escape: %w", err)
			}
			switch esc {
			case '"':
				sb.WriteByte('"')
			case '\\':
				sb.WriteByte('\\')
			case '/':
				sb.WriteByte('/')
			case 'b':
				sb.WriteByte('\b')
			case 'f':
				sb.WriteByte('\f')
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'u':
				r1, err := r.readHex4()
				if err != nil {
					return "", err
				}
				if utf16.IsSurrogate(rune(r1)) {
					b2, err := r.buf.Peek(2)
					if err == nil && string(b2) == `\u` {
						r.buf.ReadByteArray(2)
						r2, err := r.readHex4()
						if err != nil {
							return "", err
						}
						dec := utf16.DecodeRune(rune(r1), rune(r2))
						sb.WriteRune(dec)
						continue
					}
				}
				sb.WriteRune(rune(r1))
			default:
				return "", fmt.Errorf("jsoncodec: invalid escape \\%c", esc)
			}
		default:
			sb.WriteByte(b)
		}
	}
}

func (r *Reader) readHex4() (int32, error) {
	b, err := r.buf.ReadByteArray(4)
	if err != nil {
		return 0, fmt.Errorf("jsoncodec: truncated \\u escape: %w", err)
	}
	v, err := strconv.ParseInt(string(b), 16, 32)
	if err != nil {
		return 0, fmt.Errorf("jsoncodec: invalid \\u escape %q: %w", b, err)
	}
	return int32(v), nil
}

func (r *Reader) readNumberLiteral() (string, error) {
	var sb strings.Builder
	isNumberByte := func(b byte) bool {
		switch {
		case b >= '0' && b <= '9':
			return true
		case b == '-' || b == '+' || b == '.' || b == 'e' || b == 'E':
			return true
		}
		return false
	}
	for {
		b, ok := r.peekByte()
		if !ok || !isNumberByte(b) {
			break
		}
		r.buf.ReadByte()
		sb.WriteByte(b)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("jsoncodec: invalid token at byte offset")
	}
	return sb.String(), nil
}

// SkipNext recursively consumes the next value (primitive, array, or
// object), including all nested structure, without returning any of
// its tokens to the caller.
func (r *Reader) SkipNext() error {
	tok, err := r.Next()
	if err != nil {
		return err
	}
	switch tok.Kind {
	case BeginObject, BeginArray:
		depth := 1
		for depth > 0 {
			t, err := r.Next()
			if err != nil {
				return err
			}
			switch t.Kind {
			case BeginObject, BeginArray:
				depth++
			case EndObject, EndArray:
				depth--
			case EndDocument:
				return fmt.Errorf("jsoncodec: truncated input while skipping value")
			}
		}
	}
	return nil
}

// ValidUTF8 reports whether s is valid UTF-8. The Deserializer does not
// call it.
func ValidUTF8(s string) bool { return utf8.ValidString(s) }
