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

// Package v9 decodes NetFlow v9 (RFC 3954) export packets. It reuses
// internal/wire's Field, Template, FieldCache and TemplateCache machinery
// wherever v9's wire format coincides with IPFIX's (flowset/set headers,
// data record decoding against a learned template), and only reimplements
// the parts that differ: the 20-byte packet header, the field-id encoding
// (no private-enterprise bit, no variable-length marker), and the options
// template's byte-length-delimited scope/option sections.
package v9

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/flowforge/netflow-collector/internal/wire"
)

// Decoder decodes NetFlow v9 packets, learning templates into templateManager
// and fields into fieldManager as it goes.
type Decoder struct {
	fieldManager    wire.FieldCache
	templateManager wire.TemplateCache

	metrics *decoderMetrics
}

type decoderMetrics struct {
	TotalLength    int64
	DecodedSets    int64
	DecodedRecords int64
}

// NewDecoder creates a v9 Decoder bound to a template cache and field
// manager. Callers that also decode IPFIX should use a dedicated
// FieldCache here (see NewFieldManager) rather than internal/wire's
// IANA()-backed one, per the field-id collision note in fields.go; the
// TemplateCache, in contrast, may safely be shared with an IPFIX decoder,
// since TemplateKey scopes entries by protocol.
func NewDecoder(templates wire.TemplateCache, fields wire.FieldCache) *Decoder {
	d := &Decoder{
		fieldManager:    fields,
		templateManager: templates,
		metrics:         &decoderMetrics{},
	}
	d.initMetrics()
	return d
}

func (d *Decoder) initMetrics() {
	PacketsTotal.Add(0)
	ErrorsTotal.Add(0)
	DurationMicroseconds.Observe(0)
	for _, kind := range []string{wire.KindDataSet, wire.KindTemplateSet, wire.KindOptionsTemplateSet} {
		DecodedSets.WithLabelValues(kind).Add(0)
		DecodedRecords.WithLabelValues(kind).Add(0)
	}
}

// pendingSet is a v9 data flowset whose template id wasn't known yet when
// its bytes were consumed in the first decoding pass.
type pendingSet struct {
	header wire.SetHeader
	body   []byte
}

// Decode consumes a full v9 export packet. Like internal/wire's IPFIX
// Decoder, it runs two passes over the flowsets it contains: the first
// applies every template/options-template flowset and defers data flowsets
// whose template id isn't known yet; the second retries those deferred data
// flowsets now that every template this packet carries has been learned. A
// data flowset whose template remains unknown after the second pass
// produces wire.TemplateNotRecognized, for the reconciliation engine to
// handle by deferring the whole packet.
func (d *Decoder) Decode(ctx context.Context, exporterKey string, payload *bytes.Buffer) (msg *Message, err error) {
	start := time.Now()
	defer func() {
		DurationMicroseconds.Observe(float64(time.Since(start).Nanoseconds()) / 1000)
		PacketsTotal.Inc()
		if err != nil {
			ErrorsTotal.Inc()
		}
	}()
	defer d.resetMetrics()

	if d.templateManager == nil {
		return nil, fmt.Errorf("used v9 decoder before template cache was initialized")
	}

	msg = &Message{}
	n, err := msg.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to read NetFlow v9 packet header, %w", err)
	}
	d.metrics.TotalLength += int64(n)

	pending := make([]pendingSet, 0)

	for i := 1; payload.Len() > 0; i++ {
		h := wire.SetHeader{}
		_, err := h.Decode(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to read v9 flowset header, %w", err)
		}
		d.metrics.TotalLength += 4

		offset := int(h.Length) - binary.Size(h)
		if offset < 0 {
			return nil, wire.MalformedPacket("v9 flowset length shorter than its own header")
		}
		d.metrics.TotalLength += int64(offset)

		body := payload.Next(offset)

		switch {
		case h.Id == wire.NFv9:
			tr := bytes.NewBuffer(body)
			set, err := d.decodeTemplateSet(ctx, exporterKey, msg, h, tr, i)
			if err != nil {
				return msg, err
			}
			msg.Sets = append(msg.Sets, set)
		case h.Id == wire.NFv9Options:
			tr := bytes.NewBuffer(body)
			set, err := d.decodeOptionsTemplateSet(ctx, exporterKey, msg, h, tr, i)
			if err != nil {
				return msg, err
			}
			msg.Sets = append(msg.Sets, set)
		case h.Id >= 256:
			bodyCopy := make([]byte, len(body))
			copy(bodyCopy, body)
			pending = append(pending, pendingSet{header: h, body: bodyCopy})
		default:
			return msg, wire.UnknownFlowId(h.Id)
		}
	}

	var unresolved []uint16
	for _, ps := range pending {
		template, gerr := d.templateManager.Get(ctx, wire.NewExporterKey(exporterKey, "v9", msg.SourceId, ps.header.Id))
		if gerr != nil {
			unresolved = append(unresolved, ps.header.Id)
			continue
		}

		ds := &wire.DataSet{}
		if _, derr := ds.With(template).Decode(bytes.NewBuffer(ps.body)); derr != nil {
			return msg, derr
		}

		set := wire.Set{SetHeader: ps.header, Kind: wire.KindDataSet, Set: ds}
		d.metrics.DecodedSets++
		DecodedSets.WithLabelValues(wire.KindDataSet).Inc()
		DecodedRecords.WithLabelValues(wire.KindDataSet).Add(float64(ds.Length()))
		msg.Sets = append(msg.Sets, set)
	}

	if len(unresolved) > 0 {
		return msg, wire.TemplateNotRecognized(exporterKey, unresolved[0])
	}

	return msg, nil
}

func (d *Decoder) decodeTemplateSet(ctx context.Context, exporterKey string, msg *Message, h wire.SetHeader, r *bytes.Buffer, i int) (wire.Set, error) {
	records := make([]wire.TemplateRecord, 0)
	for r.Len() > 0 {
		tr, _, err := decodeTemplateRecord(r, d.fieldManager, d.templateManager)
		if err != nil {
			return wire.Set{}, fmt.Errorf("failed to decode v9 template set at index %d, %w", i, err)
		}
		records = append(records, *tr)
	}
	d.metrics.DecodedRecords += int64(len(records))

	for idx := range records {
		rec := records[idx]
		if rec.IsWithdrawal() {
			d.templateManager.Delete(ctx, wire.NewExporterKey(exporterKey, "v9", msg.SourceId, rec.TemplateId))
			d.templateManager.Delete(ctx, wire.NewKey(msg.SourceId, rec.TemplateId))
			continue
		}
		t := &wire.Template{
			TemplateMetadata: &wire.TemplateMetadata{
				TemplateId:          rec.TemplateId,
				ObservationDomainId: msg.SourceId,
				CreationTimestamp:   time.Now(),
			},
			Record: &rec,
		}
		d.templateManager.Add(ctx, wire.NewExporterKey(exporterKey, "v9", msg.SourceId, rec.TemplateId), t)
		d.templateManager.Add(ctx, wire.NewKey(msg.SourceId, rec.TemplateId), t)
	}

	d.metrics.DecodedSets++
	DecodedSets.WithLabelValues(wire.KindTemplateSet).Inc()
	DecodedRecords.WithLabelValues(wire.KindTemplateSet).Add(float64(len(records)))

	return wire.Set{SetHeader: h, Kind: wire.KindTemplateSet, Set: &wire.TemplateSet{Records: records}}, nil
}

func (d *Decoder) decodeOptionsTemplateSet(ctx context.Context, exporterKey string, msg *Message, h wire.SetHeader, r *bytes.Buffer, i int) (wire.Set, error) {
	records := make([]wire.OptionsTemplateRecord, 0)
	for r.Len() > 0 {
		otr, _, err := decodeOptionsTemplateRecord(r, d.fieldManager, d.templateManager)
		if err != nil {
			return wire.Set{}, fmt.Errorf("failed to decode v9 options template set at index %d, %w", i, err)
		}
		records = append(records, *otr)
	}
	d.metrics.DecodedRecords += int64(len(records))

	for idx := range records {
		rec := records[idx]
		if rec.IsWithdrawal() {
			d.templateManager.Delete(ctx, wire.NewExporterKey(exporterKey, "v9", msg.SourceId, rec.TemplateId))
			d.templateManager.Delete(ctx, wire.NewKey(msg.SourceId, rec.TemplateId))
			continue
		}
		t := &wire.Template{
			TemplateMetadata: &wire.TemplateMetadata{
				TemplateId:          rec.TemplateId,
				ObservationDomainId: msg.SourceId,
				CreationTimestamp:   time.Now(),
			},
			Record: &rec,
		}
		d.templateManager.Add(ctx, wire.NewExporterKey(exporterKey, "v9", msg.SourceId, rec.TemplateId), t)
		d.templateManager.Add(ctx, wire.NewKey(msg.SourceId, rec.TemplateId), t)
	}

	d.metrics.DecodedSets++
	DecodedSets.WithLabelValues(wire.KindOptionsTemplateSet).Inc()
	DecodedRecords.WithLabelValues(wire.KindOptionsTemplateSet).Add(float64(len(records)))

	return wire.Set{SetHeader: h, Kind: wire.KindOptionsTemplateSet, Set: &wire.OptionsTemplateSet{Records: records}}, nil
}

func (d *Decoder) resetMetrics() {
	d.metrics = &decoderMetrics{}
}
