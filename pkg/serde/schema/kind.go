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

// Package schema holds the immutable, format-agnostic metadata that
// drives every codec: Serial Kind, Field Descriptor, Object Descriptor,
// and Trait.
package schema

// Kind is the closed set of logical types the core understands. It
// drives default encoding and type-check diagnostics; codecs never
// branch on Go's reflect.Kind, only on this enum.
type Kind int

const (
	KindBoolean Kind = iota
	KindByte
	KindShort
	KindInteger
	KindLong
	KindFloat
	KindDouble
	KindChar
	KindString
	KindBlob
	KindTimestamp
	KindDocument
	KindList
	KindMap
	KindStruct
)

func (k Kind) String() string {
	switch k {
	case KindBoolean:
		return "Boolean"
	case KindByte:
		return "Byte"
	case KindShort:
		return "Short"
	case KindInteger:
		return "Integer"
	case KindLong:
		return "Long"
	case KindFloat:
		return "Float"
	case KindDouble:
		return "Double"
	case KindChar:
		return "Char"
	case KindString:
		return "String"
	case KindBlob:
		return "Blob"
	case KindTimestamp:
		return "Timestamp"
	case KindDocument:
		return "Document"
	case KindList:
		return "List"
	case KindMap:
		return "Map"
	case KindStruct:
		return "Struct"
	default:
		return "Unknown"
	}
}
