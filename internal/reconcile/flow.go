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

	"github.com/flowforge/netflow-collector/internal/wire"
)

// flowMap converts a decoded wire.DataRecord into the egress contract's
// "mapping name -> value" shape: canonical NetFlow v9 mnemonics for
// v1/v5/v9 records, IANA element names for IPFIX, since both protocol
// families already name their fields that way in the field tables that
// built them.
func flowMap(rec wire.DataRecord) map[string]interface{} {
	m := make(map[string]interface{}, len(rec.Fields))
	for _, f := range rec.Fields {
		name := f.Name()
		if f.IsScope() {
			name = fmt.Sprintf("scope:%s", name)
		}
		m[name] = f.Value().Value()
	}
	return m
}

func flowMaps(recs []wire.DataRecord) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(recs))
	for _, r := range recs {
		out = append(out, flowMap(r))
	}
	return out
}
