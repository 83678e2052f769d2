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

import "fmt"

// Trait is a tagged value attached to a field or object descriptor.
// Traits separate what a field *is* from how each wire format encodes
// it, so a single descriptor can drive every codec without per-format
// branching in generated code.
//
// Concrete trait types are plain structs; codecs that don't recognize
// a trait silently ignore it (§3 of the spec).
type Trait interface {
	traitName() string
}

// Traits is an ordered set of Trait values attached to a descriptor.
type Traits []Trait

// Has reports whether a trait of type T is present.
func Has[T Trait](ts Traits) bool {
	_, ok := Find[T](ts)
	return ok
}

// Find returns the first trait of type T, if any.
func Find[T Trait](ts Traits) (T, bool) {
	for _, t := range ts {
		if v, ok := t.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// MissingTraitError reports that a required trait was absent from a
// descriptor; it is a SchemaError per §7.
type MissingTraitError struct {
	Trait string
	On    string
}

func (e *MissingTraitError) Error() string {
	return fmt.Sprintf("schema: descriptor %q is missing required trait %s", e.On, e.Trait)
}

// Expect returns the first trait of type T, or a *MissingTraitError if
// none is present.
func Expect[T Trait](ts Traits, on string) (T, error) {
	v, ok := Find[T](ts)
	if !ok {
		var zero T
		return zero, &MissingTraitError{Trait: fmt.Sprintf("%T", zero), On: on}
	}
	return v, nil
}
