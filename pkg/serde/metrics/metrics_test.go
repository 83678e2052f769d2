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

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewMetrics(t *testing.T) {
	m := NewMetrics()
	if m.bytesEncoded == nil || m.bytesDecoded == nil || m.errors == nil {
		t.Fatal("NewMetrics() left a collector nil")
	}
}

func TestMetricsRegisterAndObserve(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()

	if err := m.Register(reg); err != nil {
		t.Fatalf("Register() failed: %v", err)
	}

	m.AddBytesEncoded("cbor", 128)
	m.AddBytesDecoded("cbor", 64)
	m.IncErrors("xml")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() failed: %v", err)
	}

	found := map[string]bool{}
	for _, mf := range families {
		found[mf.GetName()] = true
	}
	for _, name := range []string{MetricBytesEncoded, MetricBytesDecoded, MetricErrorsTotal} {
		if !found[name] {
			t.Errorf("metric %s not found in registry", name)
		}
	}
}

func TestMetricsRegisterTwiceFails(t *testing.T) {
	m := NewMetrics()
	reg := prometheus.NewRegistry()
	if err := m.Register(reg); err != nil {
		t.Fatalf("first Register() failed: %v", err)
	}
	if err := m.Register(reg); err == nil {
		t.Fatal("second Register() on the same registry should fail with AlreadyRegisteredError")
	}
}
