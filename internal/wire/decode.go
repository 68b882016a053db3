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

package wire

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// Decoder is instantiated with a fieldManager and a templateManager
// such that it can decode IPFIX packets into Records containing fields
// and additionally learn new fields and templates.
type Decoder struct {
	// fieldManager stores and manages field definitions for IEs to decode into. It is injected into the decoder at creation.
	// Particularly, fieldManager is able to learn new fields from options templates and subsequent data records.
	fieldManager FieldCache

	// templateManager stores and manages templates. It is injected into the decoder at creation
	templateManager TemplateCache

	completionHook completionHook

	options DecoderOptions

	metrics *decoderMetrics
}

type DecoderOptions struct {
	OmitRFC5610Records bool
}

var (
	DefaultDecoderOptions = DecoderOptions{
		OmitRFC5610Records: false,
	}
)

func (o *DecoderOptions) Merge(opts ...DecoderOptions) {
	for _, opt := range opts {
		o.OmitRFC5610Records = o.OmitRFC5610Records || opt.OmitRFC5610Records
	}
}

type completionHook func(*decoderMetrics)

type decoderMetrics struct {
	TotalLength    int64 `json:"total_length,omitempty"`
	DecodedSets    int64 `json:"decoded_messages,omitempty"`
	DecodedRecords int64 `json:"decoded_records,omitempty"`
	DroppedRecords int64 `json:"dropped_records,omitempty"`
}

// NewDecoder creates a new Decoder for a given template cache and field manager
func NewDecoder(templates TemplateCache, fields FieldCache, opts ...DecoderOptions) *Decoder {
	options := DefaultDecoderOptions
	options.Merge(opts...)

	d := &Decoder{
		fieldManager:    fields,
		templateManager: templates,
		options:         options,
		metrics:         &decoderMetrics{},
	}

	d.initMetrics()

	return d
}

func (d *Decoder) WithCompletionHook(hook func(*decoderMetrics)) *Decoder {
	d.completionHook = hook
	return d
}

// pendingSet is a data set whose template was not yet known when its bytes
// were consumed in the first decoding pass.
type pendingSet struct {
	header SetHeader
	body   []byte
}

// Decode takes payload as a buffer and consumes it to construct an IPFIX packet
// containing records containing decoded fields.
//
// Decoding happens in two passes over the sets in the packet, exactly as
// required for out-of-order template/data reconciliation within a single
// datagram: the first pass applies every template and options-template set
// it encounters and stashes data sets whose template id isn't known *yet*;
// the second pass retries those stashed data sets now that every template
// carried by this packet has been applied. A data set whose template is
// still unknown after the second pass surfaces ErrTemplateNotRecognized,
// which callers (the reconciliation engine) may use to defer the whole
// packet for replay once a later packet defines that template.
func (d *Decoder) Decode(ctx context.Context, exporterKey string, payload *bytes.Buffer) (msg *Message, err error) {
	decoderStart := time.Now()

	// update metrics at the end of decoding depending on the outcome
	defer func() {
		DurationMicroseconds.Observe(float64(time.Since(decoderStart).Nanoseconds()) / 1000) // use nanoseconds for higher precision and then convert it back to microseconds
		PacketsTotal.Inc()
		if err != nil {
			ErrorsTotal.Inc()
		}
	}()

	defer func() {
		if d.completionHook != nil {
			d.completionHook(d.metrics)
		}
		d.resetMetrics()
	}()

	if d.templateManager == nil {
		return nil, errors.New("used decoder before template cache was initialized")
	}

	msg = &Message{}
	n, err := msg.Decode(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to read IPFIX packet header, %w", err)
	}
	d.metrics.TotalLength += int64(n) // IPFIX header length

	pending := make([]pendingSet, 0)

	for i := 1; payload.Len() > 0; i++ {
		// set decoding loop
		h := SetHeader{}
		_, err := h.Decode(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to read SetHeader, %w", err)
		}
		d.metrics.TotalLength += 4
		// offset is the number of bytes in the record's payload without the
		// 4 header (2x2 bytes, templateId and set length) bytes included
		// by the protocol in the length field; binary.Size(h) captures exactly
		// that inclusion
		offset := int(h.Length) - binary.Size(h)
		if offset < 0 {
			return nil, MalformedPacket("set length shorter than its own header")
		}
		d.metrics.TotalLength += int64(offset)

		// create a fresh buffer with only the bytes of the set contents
		body := payload.Next(offset)

		if h.Id == IPFIX {
			tr := bytes.NewBuffer(body)
			set, err := d.decodeTemplateSet(ctx, exporterKey, msg, h, tr, i)
			if err != nil {
				return msg, err
			}
			msg.Sets = append(msg.Sets, set)
		} else if h.Id == IPFIXOptions {
			tr := bytes.NewBuffer(body)
			set, err := d.decodeOptionsTemplateSet(ctx, exporterKey, msg, h, tr, i)
			if err != nil {
				return msg, err
			}
			msg.Sets = append(msg.Sets, set)
		} else if h.Id >= 256 {
			// Ids lower than 256 are reserved and not to be used for template definition.
			// Defer decoding: the template may arrive later in this same packet.
			bodyCopy := make([]byte, len(body))
			copy(bodyCopy, body)
			pending = append(pending, pendingSet{header: h, body: bodyCopy})
		} else {
			return msg, UnknownFlowId(h.Id)
		}
	}

	var unresolved []uint16
	for _, ps := range pending {
		template, gerr := d.templateManager.Get(ctx, NewExporterKey(exporterKey, "ipfix", msg.ObservationDomainId, ps.header.Id))
		if gerr != nil {
			unresolved = append(unresolved, ps.header.Id)
			continue
		}

		ds := &DataSet{
			fieldCache:    d.fieldManager,
			templateCache: d.templateManager,
		}
		if _, derr := ds.With(template).Decode(bytes.NewBuffer(ps.body)); derr != nil {
			return msg, derr
		}

		set := Set{SetHeader: ps.header, Kind: KindDataSet, Set: ds}
		d.metrics.DecodedSets++
		DecodedSets.WithLabelValues(KindDataSet).Inc()
		DecodedRecords.WithLabelValues(KindDataSet).Add(float64(len(ds.Records)))
		msg.Sets = append(msg.Sets, set)
	}

	if len(unresolved) > 0 {
		return msg, TemplateNotRecognized(exporterKey, unresolved[0])
	}

	return msg, nil
}

func (d *Decoder) decodeTemplateSet(ctx context.Context, exporterKey string, msg *Message, h SetHeader, tr *bytes.Buffer, i int) (Set, error) {
	ts := TemplateSet{
		fieldCache:    d.fieldManager,
		templateCache: d.templateManager,
	}
	_, err := ts.Decode(tr)
	if err != nil {
		return Set{}, fmt.Errorf("failed to decode template set at index %d, %w", i, err)
	}
	d.metrics.DecodedRecords += int64(len(ts.Records))

	for _, record := range ts.Records {
		r := record
		if r.IsWithdrawal() {
			d.templateManager.Delete(ctx, NewExporterKey(exporterKey, "ipfix", msg.ObservationDomainId, record.TemplateId))
			d.templateManager.Delete(ctx, NewKey(msg.ObservationDomainId, record.TemplateId))
			continue
		}
		t := &Template{
			TemplateMetadata: &TemplateMetadata{
				TemplateId:          record.TemplateId,
				ObservationDomainId: msg.ObservationDomainId,
				CreationTimestamp:   time.Now(),
			},
			Record: &r,
		}
		d.templateManager.Add(ctx, NewExporterKey(exporterKey, "ipfix", msg.ObservationDomainId, record.TemplateId), t)
		// also register under the unscoped legacy key: basicList/subTemplateList
		// fields decode without exporter context (see sub_template_list.go), so
		// they can only ever look templates up by (observationDomainId, templateId).
		d.templateManager.Add(ctx, NewKey(msg.ObservationDomainId, record.TemplateId), t)
	}

	d.metrics.DecodedSets++
	DecodedSets.WithLabelValues(KindTemplateSet).Inc()
	DecodedRecords.WithLabelValues(KindTemplateSet).Add(float64(len(ts.Records)))

	return Set{SetHeader: h, Kind: KindTemplateSet, Set: &ts}, nil
}

func (d *Decoder) decodeOptionsTemplateSet(ctx context.Context, exporterKey string, msg *Message, h SetHeader, tr *bytes.Buffer, i int) (Set, error) {
	ots := &OptionsTemplateSet{
		templateCache: d.templateManager,
		fieldCache:    d.fieldManager,
	}

	_, err := ots.Decode(tr)
	if err != nil {
		return Set{}, fmt.Errorf("failed to decode options template set %d, %w", i, err)
	}
	d.metrics.DecodedRecords += int64(len(ots.Records))

	for _, record := range ots.Records {
		r := record
		if r.IsWithdrawal() {
			d.templateManager.Delete(ctx, NewExporterKey(exporterKey, "ipfix", msg.ObservationDomainId, record.TemplateId))
			d.templateManager.Delete(ctx, NewKey(msg.ObservationDomainId, record.TemplateId))
			continue
		}
		t := &Template{
			TemplateMetadata: &TemplateMetadata{
				TemplateId:          record.TemplateId,
				ObservationDomainId: msg.ObservationDomainId,
				CreationTimestamp:   time.Now(),
			},
			Record: &r,
		}
		d.templateManager.Add(ctx, NewExporterKey(exporterKey, "ipfix", msg.ObservationDomainId, record.TemplateId), t)
		d.templateManager.Add(ctx, NewKey(msg.ObservationDomainId, record.TemplateId), t)
	}

	d.metrics.DecodedSets++
	DecodedSets.WithLabelValues(KindOptionsTemplateSet).Inc()
	DecodedRecords.WithLabelValues(KindOptionsTemplateSet).Add(float64(len(ots.Records)))

	return Set{SetHeader: h, Kind: KindOptionsTemplateSet, Set: ots}, nil
}

// decodeTemplateField reads from a buffer reference to decode a field. It decodes the field's id
// first, and then looks up the FieldBuilder prototype for the field for
// further decoding the data type accordingly. It injects managers and the length decoded from
// the template. Note that for variable-length encoded fields have length of 0xFFFF set, and
// the actual length is only decoded as soon as Field.Decode() is called on VariableLengthField.
//
// decodeTemplateField is effectively only used by decoding methods for Templates and OptionsTemplates.
// Data records of a data set are decoded by DataRecord.Decode against the fields of the bound template.
func decodeTemplateField(r io.Reader, fieldCache FieldCache, templateCache TemplateCache) (Field, error) {
	var rawFieldId, fieldId, fieldLength uint16
	var enterpriseId uint32
	var reverse bool

	err := binary.Read(r, binary.BigEndian, &rawFieldId)
	if err != nil {
		return nil, err
	}

	penMask := uint16(0x8000)
	fieldId = (^penMask) & rawFieldId

	// length announcement via the template: this is either fixed or variable (i.e., 0xFFFF).
	// The FieldBuilder will therefore either create a fixed-length or variable-length field
	// on FieldBuilder.Complete()
	err = binary.Read(r, binary.BigEndian, &fieldLength)
	if err != nil {
		return nil, err
	}

	// private enterprise number parsing
	if rawFieldId >= 0x8000 {
		// first bit is 1, therefore this is a enterprise-specific IE
		err = binary.Read(r, binary.BigEndian, &enterpriseId)
		if err != nil {
			return nil, err
		}

		if enterpriseId == ReversePEN && Reversible(fieldId) {
			reverse = true
			// clear enterprise id, because this would obscure lookup
			enterpriseId = 0
		}
	}

	fieldBuilder, err := fieldCache.GetBuilder(context.TODO(), NewFieldKey(enterpriseId, fieldId))
	if err != nil {
		return nil, err
	}

	return fieldBuilder.
		SetLength(fieldLength).
		SetPEN(enterpriseId).
		SetReversed(reverse).
		SetFieldManager(fieldCache).
		SetTemplateManager(templateCache).
		Complete(), nil
}

func (d *Decoder) initMetrics() {
	// set this so that we don't get too many empty data points in prometheus
	PacketsTotal.Add(0)
	ErrorsTotal.Add(0)
	DurationMicroseconds.Observe(0)
	for _, kind := range []string{KindDataSet, KindTemplateSet, KindOptionsTemplateSet} {
		DecodedSets.WithLabelValues(kind).Add(0)
		DecodedRecords.WithLabelValues(kind).Add(0)
		DroppedRecords.WithLabelValues(kind).Add(0)
	}
}

func (d *Decoder) resetMetrics() {
	d.metrics = &decoderMetrics{
		TotalLength:    0,
		DecodedSets:    0,
		DecodedRecords: 0,
		DroppedRecords: 0,
	}
}
