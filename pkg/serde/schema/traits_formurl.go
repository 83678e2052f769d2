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

// FormUrlSerialName overrides the key segment used for a field.
type FormUrlSerialName struct{ Name string }

func (FormUrlSerialName) traitName() string { return "FormUrlSerialName" }

// FormUrlFlattened omits the wrapper segment for a list or map field,
// the form-URL analog of Flattened.
type FormUrlFlattened struct{}

func (FormUrlFlattened) traitName() string { return "FormUrlFlattened" }

// FormUrlCollectionName names the member segment of a non-flattened
// list; defaults to "member".
type FormUrlCollectionName struct{ Member string }

func (FormUrlCollectionName) traitName() string { return "FormUrlCollectionName" }

// FormUrlMapName names the key/value segments of a map entry; defaults
// to key="key", value="value".
type FormUrlMapName struct{ Key, Value string }

func (FormUrlMapName) traitName() string { return "FormUrlMapName" }

// QueryLiteral is an object-level trait emitting a fixed key=value
// pair verbatim, before any field is serialized.
type QueryLiteral struct{ Key, Value string }

func (QueryLiteral) traitName() string { return "QueryLiteral" }
