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
	"errors"
	"fmt"

	"github.com/flowforge/netflow-collector/internal/iana/version"
)

var (
	ErrTemplateNotFound error = errors.New("template not found")
	ErrUnknownVersion   error = errors.New("unknown version")
	ErrUnknownFlowId    error = errors.New("unknown flow id")

	// ErrTemplateNotRecognized is returned by a decoder when a data set
	// arrives referencing a template id not yet known to the template cache.
	// Unlike ErrTemplateNotFound (a cache miss on an explicit Get), this is
	// surfaced by the two-pass intra-packet decode only once the packet's
	// template sets have all been applied and the id is still unresolved; the
	// reconciliation engine is the only caller allowed to defer on it.
	ErrTemplateNotRecognized error = errors.New("template not recognized")

	// ErrMalformedPacket marks a packet whose header or set-walk boundaries
	// don't add up (e.g. final offset doesn't land on the declared length).
	ErrMalformedPacket error = errors.New("malformed packet")

	// ErrMalformedRecord marks a record that failed to decode against its
	// template (e.g. a reduced-size numeric field width outside {1,2,4,8}).
	ErrMalformedRecord error = errors.New("malformed record")

	// ErrTemplateError marks a structurally invalid template record, such as
	// one with a field count that can't be satisfied by the bytes on hand.
	ErrTemplateError error = errors.New("template error")

	// ErrPaddingCalculationError marks a data set whose trailing padding
	// bytes can't be explained by dividing the set payload evenly by the
	// bound template's record size.
	ErrPaddingCalculationError error = errors.New("padding calculation error")
)

func TemplateNotFound(observationDomainId uint32, templateId uint16) error {
	return fmt.Errorf("%w for %d in observation domain %d", ErrTemplateNotFound, templateId, observationDomainId)
}

func UnknownVersion(version version.ProtocolVersion) error {
	return fmt.Errorf("%w %d, only 1, 5, 9 and 10 are supported", ErrUnknownVersion, version)
}

func UnknownFlowId(id uint16) error {
	return fmt.Errorf("%w %d", ErrUnknownFlowId, id)
}

// TemplateNotRecognized builds the deferred-retry error surfaced by a
// template-driven decoder for a still-unresolved template id.
func TemplateNotRecognized(exporterKey string, templateId uint16) error {
	return fmt.Errorf("%w: template %d from exporter %s", ErrTemplateNotRecognized, templateId, exporterKey)
}

// MalformedPacket wraps a lower-level decode error with packet-walk context.
func MalformedPacket(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedPacket, reason)
}

// MalformedRecord wraps a lower-level decode error with record context.
func MalformedRecord(reason string) error {
	return fmt.Errorf("%w: %s", ErrMalformedRecord, reason)
}

// TemplateErrorf wraps a lower-level decode error with template context.
func TemplateErrorf(reason string) error {
	return fmt.Errorf("%w: %s", ErrTemplateError, reason)
}

// PaddingCalculationError reports a data set whose length cannot be evenly
// explained by full records plus zero padding.
func PaddingCalculationError(setLength int, recordLength int) error {
	return fmt.Errorf("%w: set length %d not reconcilable with record length %d", ErrPaddingCalculationError, setLength, recordLength)
}
