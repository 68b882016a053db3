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

package v9

import (
	"context"
	"encoding/binary"
	"errors"
	"io"

	"github.com/flowforge/netflow-collector/internal/iana/semantics"
	"github.com/flowforge/netflow-collector/internal/iana/status"
	"github.com/flowforge/netflow-collector/internal/wire"
)

// decodeTemplateField reads a single v9 template field (field type, field
// length; RFC 3954 section 6.1). Unlike IPFIX, v9 field ids never carry a
// private-enterprise bit: every id is a plain 16-bit value, and several
// vendor extensions (e.g. PANOS_USERID at 56702) use the top bit themselves,
// so treating bit 15 as a PEN marker the way internal/wire's IPFIX decoder
// does would misparse them. enterpriseId is therefore always zero here.
func decodeTemplateField(r io.Reader, fieldCache wire.FieldCache, templateCache wire.TemplateCache) (wire.Field, int, error) {
	var fieldId, fieldLength uint16

	b := make([]byte, 2)
	n, err := r.Read(b)
	if err != nil {
		return nil, n, err
	}
	fieldId = binary.BigEndian.Uint16(b)

	m, err := r.Read(b)
	n += m
	if err != nil {
		return nil, n, err
	}
	fieldLength = binary.BigEndian.Uint16(b)

	builder, err := fieldCache.GetBuilder(context.TODO(), wire.NewFieldKey(0, fieldId))
	if err != nil {
		return nil, n, err
	}

	f := builder.
		SetLength(fieldLength).
		SetFieldManager(fieldCache).
		SetTemplateManager(templateCache).
		Complete()

	return f, n, nil
}

// decodeTemplateRecord reads a v9 Template FlowSet record (RFC 3954 section
// 6.1) into a wire.TemplateRecord, reusing internal/wire's existing
// TemplateRecord/DataRecord/DataSet machinery downstream: a v9 data flowset
// decodes against this record exactly the way an IPFIX data set decodes
// against a wire-native template, since DataRecord.Decode only cares that
// the template is a *wire.TemplateRecord, not which package built it.
func decodeTemplateRecord(r io.Reader, fieldCache wire.FieldCache, templateCache wire.TemplateCache) (*wire.TemplateRecord, int, error) {
	header := make([]byte, 2)
	n, err := r.Read(header)
	if err != nil {
		return nil, n, err
	}
	templateId := binary.BigEndian.Uint16(header)

	m, err := r.Read(header)
	n += m
	if err != nil {
		return nil, n, err
	}
	fieldCount := binary.BigEndian.Uint16(header)

	// a template record with a zero field count carries no field
	// definitions: by analogy with IPFIX's template withdrawal (RFC 7011
	// §8.1, which v9's own RFC 3954 is silent on), the caller registering
	// this record treats a zero field count as a withdrawal of templateId
	// rather than storing an empty template.
	if fieldCount == 0 {
		return &wire.TemplateRecord{TemplateId: templateId, FieldCount: 0}, n, nil
	}

	fields := make([]wire.Field, 0, int(fieldCount))
	for i := 0; i < int(fieldCount); i++ {
		f, fn, err := decodeTemplateField(r, fieldCache, templateCache)
		n += fn
		if err != nil {
			return nil, n, err
		}
		fields = append(fields, f)
	}

	return &wire.TemplateRecord{
		TemplateId: templateId,
		FieldCount: fieldCount,
		Fields:     fields,
	}, n, nil
}

// decodeScopeField reads a single v9 options scope field (RFC 3954 section
// 8): a 2-byte scope type (1-5, see ScopeName) plus a 2-byte length. Scope
// types live in their own small numeric space, disjoint from the data field
// registry in fields.go, even though the numbers themselves overlap (scope
// type 1, "System", is unrelated to field id 1, "IN_BYTES"). So scope fields
// are built directly via NewFieldBuilder rather than looked up in
// fieldCache, mirroring how internal/wire's NewUnassignedFieldBuilder builds
// a field straight from an ad-hoc InformationElement.
func decodeScopeField(r io.Reader, fieldCache wire.FieldCache, templateCache wire.TemplateCache) (wire.Field, int, error) {
	b := make([]byte, 2)
	n, err := r.Read(b)
	if err != nil {
		return nil, n, err
	}
	scopeType := binary.BigEndian.Uint16(b)

	m, err := r.Read(b)
	n += m
	if err != nil {
		return nil, n, err
	}
	scopeLength := binary.BigEndian.Uint16(b)

	f := wire.NewFieldBuilder(&wire.InformationElement{
		Name:        ScopeName(scopeType),
		Id:          scopeType,
		Constructor: wire.NewUnsigned64,
		Semantics:   semantics.Undefined,
		Status:      status.Undefined,
	}).
		SetLength(scopeLength).
		SetFieldManager(fieldCache).
		SetTemplateManager(templateCache).
		Complete().
		SetScoped()

	return f, n, nil
}

// decodeOptionsTemplateRecord reads a v9 Options Template FlowSet record
// (RFC 3954 section 8) into a wire.OptionsTemplateRecord. v9 delimits scopes
// and options by byte length rather than by field count as IPFIX does;
// since every v9 template field occupies exactly 4 bytes on the wire (a
// 2-byte id plus a 2-byte length, never a PEN), dividing each length by 4
// recovers a field count directly comparable to IPFIX's
// FieldCount/ScopeFieldCount.
func decodeOptionsTemplateRecord(r io.Reader, fieldCache wire.FieldCache, templateCache wire.TemplateCache) (*wire.OptionsTemplateRecord, int, error) {
	header := make([]byte, 2)
	n, err := r.Read(header)
	if err != nil {
		return nil, n, err
	}
	templateId := binary.BigEndian.Uint16(header)

	m, err := r.Read(header)
	n += m
	if err != nil {
		return nil, n, err
	}
	optionScopeLength := binary.BigEndian.Uint16(header)

	m, err = r.Read(header)
	n += m
	if err != nil {
		return nil, n, err
	}
	optionTemplateLength := binary.BigEndian.Uint16(header)

	// a zero scope length and zero option length together mean this record
	// withdraws templateId (by analogy with IPFIX's template withdrawal,
	// RFC 7011 §8.1) rather than defining a new options template.
	if optionScopeLength == 0 && optionTemplateLength == 0 {
		return &wire.OptionsTemplateRecord{TemplateId: templateId}, n, nil
	}

	if optionScopeLength == 0 || optionScopeLength%4 != 0 {
		return nil, n, errors.New("v9 options template record scope length must be a non-zero multiple of 4")
	}
	if optionTemplateLength%4 != 0 {
		return nil, n, errors.New("v9 options template record option length must be a multiple of 4")
	}

	scopeFieldCount := optionScopeLength / 4
	optionFieldCount := optionTemplateLength / 4

	scopes := make([]wire.Field, 0, int(scopeFieldCount))
	for i := 0; i < int(scopeFieldCount); i++ {
		f, fn, err := decodeScopeField(r, fieldCache, templateCache)
		n += fn
		if err != nil {
			return nil, n, err
		}
		scopes = append(scopes, f)
	}

	options := make([]wire.Field, 0, int(optionFieldCount))
	for i := 0; i < int(optionFieldCount); i++ {
		f, fn, err := decodeTemplateField(r, fieldCache, templateCache)
		n += fn
		if err != nil {
			return nil, n, err
		}
		options = append(options, f)
	}

	return &wire.OptionsTemplateRecord{
		TemplateId:      templateId,
		FieldCount:      scopeFieldCount + optionFieldCount,
		ScopeFieldCount: scopeFieldCount,
		Scopes:          scopes,
		Options:         options,
	}, n, nil
}
