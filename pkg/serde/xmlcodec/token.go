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

// Package xmlcodec implements the XML token stream reader/writer with
// namespace resolution, subtree scoping, peek lookahead, and the
// schema-directed Serializer/Deserializer built on top of them (§4.4).
package xmlcodec

// TokenKind enumerates the XML Token model of the specification §3.
type TokenKind int

const (
	BeginElement TokenKind = iota
	EndElement
	Text
)

func (k TokenKind) String() string {
	switch k {
	case BeginElement:
		return "BeginElement"
	case EndElement:
		return "EndElement"
	case Text:
		return "Text"
	default:
		return "Unknown"
	}
}

// QName is a qualified name: a local part plus an optional prefix.
type QName struct {
	Local  string
	Prefix string // empty means unprefixed
}

// String renders prefix:local, or just local when unprefixed.
func (q QName) String() string {
	if q.Prefix == "" {
		return q.Local
	}
	return q.Prefix + ":" + q.Local
}

// Attribute is a single start-tag attribute.
type Attribute struct {
	Name  QName
	Value string
}

// NSDeclaration is one xmlns / xmlns:prefix declaration carried on a
// BeginElement token.
type NSDeclaration struct {
	Prefix string // empty means the default namespace
	URI    string
}

// Token is one lexical unit of the XML token stream (§3, §4.4.1).
// Depth equals the current element nesting level, starting at 1 for
// the document root; a self-closing tag yields a BeginElement and an
// EndElement at the same depth.
type Token struct {
	Kind  TokenKind
	Depth int

	// BeginElement / EndElement only.
	Name           QName
	ResolvedURI    string // namespace URI resolved against the element stack
	Attributes     []Attribute
	NSDeclarations []NSDeclaration

	// Text only.
	Value string
}
