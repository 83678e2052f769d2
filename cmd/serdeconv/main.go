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

// Command serdeconv is a small illustrative client of the schema-directed
// API (§6 of the serialization core): it reads a fixed "widget" object as
// JSON on stdin and re-encodes it to CBOR, XML, or form-URL on stdout,
// driving every codec's Serializer through the exact same descriptor.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/k8s-serde/serde/pkg/serde"
	"github.com/k8s-serde/serde/pkg/serde/cborcodec"
	"github.com/k8s-serde/serde/pkg/serde/formurl"
	"github.com/k8s-serde/serde/pkg/serde/jsoncodec"
	"github.com/k8s-serde/serde/pkg/serde/metrics"
	"github.com/k8s-serde/serde/pkg/serde/schema"
	"github.com/k8s-serde/serde/pkg/serde/sdklog"
	"github.com/k8s-serde/serde/pkg/serde/xmlcodec"
)

var (
	nameField  = schema.NewField(schema.KindString, "name")
	countField = schema.NewField(schema.KindInteger, "count")
	tagsField  = schema.NewField(schema.KindList, "tags")

	widgetDesc = schema.BuildObjectDescriptor(
		schema.Traits{schema.XmlSerialName{Name: "Widget"}},
		nameField, countField, tagsField,
	)
)

type widget struct {
	Name  string
	Count int32
	Tags  []string
}

func readWidget(data []byte) (widget, error) {
	d := jsoncodec.NewDeserializer(data)
	it, err := d.DeserializeStruct(widgetDesc)
	if err != nil {
		return widget{}, err
	}
	var w widget
	for {
		idx, status, err := it.FindNextFieldIndex()
		if err != nil {
			return widget{}, err
		}
		if status == serde.FieldExhausted {
			return w, nil
		}
		if status == serde.FieldUnknown {
			if err := it.SkipValue(); err != nil {
				return widget{}, err
			}
			continue
		}
		switch idx {
		case nameField.Index:
			if w.Name, err = d.DeserializeString(); err != nil {
				return widget{}, err
			}
		case countField.Index:
			if w.Count, err = d.DeserializeInteger(); err != nil {
				return widget{}, err
			}
		case tagsField.Index:
			li, err := d.DeserializeList(tagsField)
			if err != nil {
				return widget{}, err
			}
			for {
				has, err := li.HasNextElement()
				if err != nil {
					return widget{}, err
				}
				if !has {
					break
				}
				tag, err := d.DeserializeString()
				if err != nil {
					return widget{}, err
				}
				w.Tags = append(w.Tags, tag)
			}
		}
	}
}

func writeWidget(w widget, s serde.Serializer) ([]byte, error) {
	ss := s.BeginStruct(widgetDesc)
	ss.Field(nameField, func(ser serde.Serializer) { ser.SerializeString(w.Name) })
	ss.Field(countField, func(ser serde.Serializer) { ser.SerializeInteger(w.Count) })
	ss.Field(tagsField, func(ser serde.Serializer) {
		ls := ser.BeginList(tagsField)
		for _, tag := range w.Tags {
			ls.Element(func(elem serde.Serializer) { elem.SerializeString(tag) })
		}
		ls.EndList()
	})
	ss.EndStruct()
	return s.ToByteArray()
}

func run(format string, m *metrics.Metrics, log *slog.Logger, in io.Reader, out io.Writer) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}

	w, err := readWidget(data)
	if err != nil {
		m.IncErrors("json")
		log.Error("decode failed", "codec", "json", "error", err)
		return fmt.Errorf("decode json: %w", err)
	}
	m.AddBytesDecoded("json", len(data))
	log.Debug("decoded widget", "codec", "json", "bytes", len(data))

	var s serde.Serializer
	switch format {
	case "cbor":
		s = cborcodec.NewSerializer()
	case "xml":
		s = xmlcodec.NewDocumentSerializer()
	case "formurl":
		s = formurl.NewSerializer()
	case "json":
		s = jsoncodec.NewPrettySerializer()
	default:
		return fmt.Errorf("unknown -to format %q (want cbor, xml, formurl, or json)", format)
	}

	raw, err := writeWidget(w, s)
	if err != nil {
		m.IncErrors(format)
		log.Error("encode failed", "codec", format, "error", err)
		return fmt.Errorf("encode %s: %w", format, err)
	}
	m.AddBytesEncoded(format, len(raw))
	log.Info("encoded widget", "codec", format, "bytes", len(raw))

	_, err = out.Write(raw)
	return err
}

func main() {
	to := flag.String("to", "cbor", "output format: cbor, xml, formurl, or json")
	env := flag.String("env", "development", "logging environment: development or production")
	flag.Parse()

	log := sdklog.New(*env)
	m := metrics.NewMetrics()
	if err := run(*to, m, log, os.Stdin, os.Stdout); err != nil {
		log.Error("serdeconv failed", "error", err)
		os.Exit(1)
	}
}
