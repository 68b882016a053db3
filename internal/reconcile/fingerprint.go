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
	"fmt"
	"strings"

	"github.com/flowforge/netflow-collector/internal/wire"
)

// fieldTuple is the structural identity of one template field: its id,
// length, and private enterprise number. Two templates are "the same
// layout", per spec.md §4.D's state-change detection rule, iff their
// ordered field-tuple sequences are equal.
type fieldTuple struct {
	PEN    uint32 `json:"pen,omitempty"`
	Id     uint16 `json:"id"`
	Length uint16 `json:"length"`
}

func fieldTuples(fields []wire.Field) []fieldTuple {
	out := make([]fieldTuple, 0, len(fields))
	for _, f := range fields {
		out = append(out, fieldTuple{PEN: f.PEN(), Id: f.Id(), Length: f.Length()})
	}
	return out
}

// fingerprint renders an ordered field-tuple sequence as a comparable
// string. Options templates fingerprint scope fields first, then option
// fields, matching spec.md §4.D's "scope-fields-first, then
// option-fields" comparison order.
func fingerprint(fields ...[]wire.Field) string {
	var b strings.Builder
	for _, group := range fields {
		for _, t := range fieldTuples(group) {
			fmt.Fprintf(&b, "%d/%d/%d;", t.PEN, t.Id, t.Length)
		}
		b.WriteByte('|')
	}
	return b.String()
}
