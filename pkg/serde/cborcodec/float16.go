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

import "github.com/x448/float16"

// decodeFloat16 widens an IEEE-754 half-precision bit pattern to
// float64, reconstructing subnormals bit-exactly and quieting NaN to a
// canonical bit pattern (§4.6.1). x448/float16 is the ecosystem's
// canonical half-float routine (also a transitive dependency of
// fxamacker/cbor); hand-rolling this bit manipulation would just be a
// worse copy of it.
func decodeFloat16(bits uint16) float64 {
	f16 := float16.Frombits(bits)
	if f16.IsNaN() {
		return float64(float16.NaN().Float32())
	}
	return float64(f16.Float32())
}

// Encoding never produces Float16 (§4.6.1): Float32 is used whenever
// the source value is 32-bit, so there is no encodeFloat16 counterpart.
