/*
Copyright 2023 Alexander Bartolomey (github@alexanderbartolomey.de)

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

package reconcile

import (
	"context"
	"time"

	"github.com/flowforge/netflow-collector/internal/wire"
)

// Export is the decoded, flattened content of one datagram, matching the
// egress contract's "export" shape: a serializable header, an ordered
// sequence of flow records as name->value mappings, a snapshot of the
// exporter's template map taken right after this packet was applied, and
// whether this packet introduced a new or changed template.
type Export struct {
	Header               interface{}            `json:"header"`
	Flows                []map[string]interface{} `json:"flows"`
	Templates             map[uint16]interface{} `json:"templates,omitempty"`
	ContainsNewTemplates  bool                    `json:"contains_new_templates"`
}

// ParsedPacket is one fully decoded datagram, ready for the downstream
// sink, named after collector.py's ParsedPacket(ts, client, export).
type ParsedPacket struct {
	ReceiveTimestamp time.Time `json:"receive_ts"`
	ExporterKey      string    `json:"client"`
	Version          uint16    `json:"version"`
	Export           Export    `json:"export"`
}

// Sink is the downstream consumer of parsed packets. internal/sink
// implements this against a gzip newline-delimited JSON file, matching
// collector.py's __main__ output loop.
type Sink interface {
	Write(ctx context.Context, p ParsedPacket) error
}

// templateSnapshot describes every template currently known for exporterKey
// under protocol, keyed by template id, as the (id, length, pen) tuples
// that make up its field list — the same structural shape used for
// change detection, reused here so the snapshot in Export.Templates is
// cheap to build from what the engine already tracks.
func templateSnapshot(ctx context.Context, templates wire.TemplateCache, exporterKey, protocol string) map[uint16]interface{} {
	out := make(map[uint16]interface{})
	for key, t := range templates.GetAll(ctx) {
		if key.ExporterKey != exporterKey || key.Protocol != protocol {
			continue
		}
		switch rec := t.Record.(type) {
		case *wire.TemplateRecord:
			out[key.TemplateId] = fieldTuples(rec.Fields)
		case *wire.OptionsTemplateRecord:
			out[key.TemplateId] = map[string]interface{}{
				"scopes":  fieldTuples(rec.Scopes),
				"options": fieldTuples(rec.Options),
			}
		}
	}
	return out
}
