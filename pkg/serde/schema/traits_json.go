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

package schema

// JsonSerialName overrides the JSON field name emitted for "name":value.
type JsonSerialName struct{ Name string }

func (JsonSerialName) traitName() string { return "JsonSerialName" }

// JsonUnknownField marks a field (typically a Document/Map) as the
// catch-all for fields the schema does not otherwise recognize.
type JsonUnknownField struct{}

func (JsonUnknownField) traitName() string { return "JsonUnknownField" }
