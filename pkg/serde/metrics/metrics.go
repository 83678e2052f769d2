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

// Package metrics exposes Prometheus counters for the serialization
// core, vectored by codec name so a caller operating several codecs in
// the same process gets a per-format breakdown.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	MetricBytesEncoded = "serde_bytes_encoded_total"
	MetricBytesDecoded = "serde_bytes_decoded_total"
	MetricErrorsTotal  = "serde_errors_total"
)

// Metrics holds the counters shared across every codec package. All
// operations are thread-safe (the underlying CounterVecs are).
type Metrics struct {
	bytesEncoded *prometheus.CounterVec
	bytesDecoded *prometheus.CounterVec
	errors       *prometheus.CounterVec
}

// NewMetrics creates and returns a new Metrics instance with all
// collectors initialized. The metrics are not registered; call
// Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		bytesEncoded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricBytesEncoded,
				Help: "Total number of bytes written by a codec's Serializer.",
			},
			[]string{"codec"},
		),
		bytesDecoded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricBytesDecoded,
				Help: "Total number of bytes consumed by a codec's Deserializer.",
			},
			[]string{"codec"},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricErrorsTotal,
				Help: "Total number of serialization/deserialization errors by codec.",
			},
			[]string{"codec"},
		),
	}
}

// Register registers all metrics with the given registry.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all Prometheus collectors, for testing or manual
// registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.bytesEncoded, m.bytesDecoded, m.errors}
}

// AddBytesEncoded records n bytes written by the named codec's Serializer.
func (m *Metrics) AddBytesEncoded(codec string, n int) {
	m.bytesEncoded.WithLabelValues(codec).Add(float64(n))
}

// AddBytesDecoded records n bytes consumed by the named codec's Deserializer.
func (m *Metrics) AddBytesDecoded(codec string, n int) {
	m.bytesDecoded.WithLabelValues(codec).Add(float64(n))
}

// IncErrors increments the error counter for the named codec.
func (m *Metrics) IncErrors(codec string) {
	m.errors.WithLabelValues(codec).Inc()
}
