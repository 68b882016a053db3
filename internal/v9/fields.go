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
	"fmt"

	"github.com/flowforge/netflow-collector/internal/wire"
)

// fieldTypes is NetFlow v9's own field type registry (RFC 3954 plus the
// common Cisco ASA and PaloAlto PAN-OS vendor extensions). v9 predates and
// seeded the IANA IPFIX Information Element registry, and ids below ~127
// mostly coincide with IPFIX ids of the same number, but the vendor
// extensions above do not reliably: e.g. 33000-33002, 40000, 56701-56702
// are ASA/PaloAlto-specific and collide with unrelated modern IANA
// assignments of the same numeric ids. Rather than share the IPFIX field
// cache and risk exactly that collision, this package keeps its own field
// table and its own FieldCache instance (see NewFieldManager), entirely
// independent of internal/wire's IANA() registry.
//
// v9 has no concept of variable-length fields: every field's length is
// fixed and carried explicitly in the template. Reduced-size encoding
// (e.g. a counter declared 4 bytes wide in the template even though its
// "natural" width is 8) is handled the same way internal/wire already
// handles IPFIX's reduced-length fields, so every numeric entry below uses
// NewUnsigned64 as its prototype constructor regardless of its usual wire
// width; FieldBuilder.Complete() narrows it to the template's declared
// length. This also mirrors v9.py's own decoding, which always treats
// numeric fields as unsigned regardless of nominal size.
var fieldTypes = []struct {
	id          uint16
	name        string
	constructor wire.DataTypeConstructor
}{
	{1, "IN_BYTES", wire.NewUnsigned64},
	{2, "IN_PKTS", wire.NewUnsigned64},
	{3, "FLOWS", wire.NewUnsigned64},
	{4, "PROTOCOL", wire.NewUnsigned64},
	{5, "SRC_TOS", wire.NewUnsigned64},
	{6, "TCP_FLAGS", wire.NewUnsigned64},
	{7, "L4_SRC_PORT", wire.NewUnsigned64},
	{8, "IPV4_SRC_ADDR", wire.NewIPv4Address},
	{9, "SRC_MASK", wire.NewUnsigned64},
	{10, "INPUT_SNMP", wire.NewUnsigned64},
	{11, "L4_DST_PORT", wire.NewUnsigned64},
	{12, "IPV4_DST_ADDR", wire.NewIPv4Address},
	{13, "DST_MASK", wire.NewUnsigned64},
	{14, "OUTPUT_SNMP", wire.NewUnsigned64},
	{15, "IPV4_NEXT_HOP", wire.NewIPv4Address},
	{16, "SRC_AS", wire.NewUnsigned64},
	{17, "DST_AS", wire.NewUnsigned64},
	{18, "BGP_IPV4_NEXT_HOP", wire.NewIPv4Address},
	{19, "MUL_DST_PKTS", wire.NewUnsigned64},
	{20, "MUL_DST_BYTES", wire.NewUnsigned64},
	{21, "LAST_SWITCHED", wire.NewUnsigned64},
	{22, "FIRST_SWITCHED", wire.NewUnsigned64},
	{23, "OUT_BYTES", wire.NewUnsigned64},
	{24, "OUT_PKTS", wire.NewUnsigned64},
	{25, "MIN_PKT_LNGTH", wire.NewUnsigned64},
	{26, "MAX_PKT_LNGTH", wire.NewUnsigned64},
	{27, "IPV6_SRC_ADDR", wire.NewIPv6Address},
	{28, "IPV6_DST_ADDR", wire.NewIPv6Address},
	{29, "IPV6_SRC_MASK", wire.NewUnsigned64},
	{30, "IPV6_DST_MASK", wire.NewUnsigned64},
	{31, "IPV6_FLOW_LABEL", wire.NewUnsigned64},
	{32, "ICMP_TYPE", wire.NewUnsigned64},
	{33, "MUL_IGMP_TYPE", wire.NewUnsigned64},
	{34, "SAMPLING_INTERVAL", wire.NewUnsigned64},
	{35, "SAMPLING_ALGORITHM", wire.NewUnsigned64},
	{36, "FLOW_ACTIVE_TIMEOUT", wire.NewUnsigned64},
	{37, "FLOW_INACTIVE_TIMEOUT", wire.NewUnsigned64},
	{38, "ENGINE_TYPE", wire.NewUnsigned64},
	{39, "ENGINE_ID", wire.NewUnsigned64},
	{40, "TOTAL_BYTES_EXP", wire.NewUnsigned64},
	{41, "TOTAL_PKTS_EXP", wire.NewUnsigned64},
	{42, "TOTAL_FLOWS_EXP", wire.NewUnsigned64},
	{44, "IPV4_SRC_PREFIX", wire.NewUnsigned64},
	{45, "IPV4_DST_PREFIX", wire.NewUnsigned64},
	{46, "MPLS_TOP_LABEL_TYPE", wire.NewUnsigned64},
	{47, "MPLS_TOP_LABEL_IP_ADDR", wire.NewIPv4Address},
	{48, "FLOW_SAMPLER_ID", wire.NewUnsigned64},
	{49, "FLOW_SAMPLER_MODE", wire.NewUnsigned64},
	{50, "FLOW_SAMPLER_RANDOM_INTERVAL", wire.NewUnsigned64},
	{52, "MIN_TTL", wire.NewUnsigned64},
	{53, "MAX_TTL", wire.NewUnsigned64},
	{54, "IPV4_IDENT", wire.NewUnsigned64},
	{55, "DST_TOS", wire.NewUnsigned64},
	{56, "IN_SRC_MAC", wire.NewMacAddress},
	{57, "OUT_DST_MAC", wire.NewMacAddress},
	{58, "SRC_VLAN", wire.NewUnsigned64},
	{59, "DST_VLAN", wire.NewUnsigned64},
	{60, "IP_PROTOCOL_VERSION", wire.NewUnsigned64},
	{61, "DIRECTION", wire.NewUnsigned64},
	{62, "IPV6_NEXT_HOP", wire.NewIPv6Address},
	{63, "BPG_IPV6_NEXT_HOP", wire.NewIPv6Address},
	{64, "IPV6_OPTION_HEADERS", wire.NewUnsigned64},
	{70, "MPLS_LABEL_1", wire.NewOctetArray},
	{71, "MPLS_LABEL_2", wire.NewOctetArray},
	{72, "MPLS_LABEL_3", wire.NewOctetArray},
	{73, "MPLS_LABEL_4", wire.NewOctetArray},
	{74, "MPLS_LABEL_5", wire.NewOctetArray},
	{75, "MPLS_LABEL_6", wire.NewOctetArray},
	{76, "MPLS_LABEL_7", wire.NewOctetArray},
	{77, "MPLS_LABEL_8", wire.NewOctetArray},
	{78, "MPLS_LABEL_9", wire.NewOctetArray},
	{79, "MPLS_LABEL_10", wire.NewOctetArray},
	{80, "IN_DST_MAC", wire.NewMacAddress},
	{81, "OUT_SRC_MAC", wire.NewMacAddress},
	{82, "IF_NAME", wire.NewString},
	{83, "IF_DESC", wire.NewString},
	{84, "SAMPLER_NAME", wire.NewString},
	{85, "IN_PERMANENT_BYTES", wire.NewUnsigned64},
	{86, "IN_PERMANENT_PKTS", wire.NewUnsigned64},
	{88, "FRAGMENT_OFFSET", wire.NewUnsigned64},
	{89, "FORWARDING_STATUS", wire.NewUnsigned64},
	{90, "MPLS_PAL_RD", wire.NewOctetArray},
	{91, "MPLS_PREFIX_LEN", wire.NewUnsigned64},
	{92, "SRC_TRAFFIC_INDEX", wire.NewUnsigned64},
	{93, "DST_TRAFFIC_INDEX", wire.NewUnsigned64},
	{94, "APPLICATION_DESCRIPTION", wire.NewString},
	{95, "APPLICATION_TAG", wire.NewOctetArray},
	{96, "APPLICATION_NAME", wire.NewString},
	{98, "postipDiffServCodePoint", wire.NewUnsigned64},
	{99, "replication_factor", wire.NewUnsigned64},
	{102, "layer2packetSectionOffset", wire.NewUnsigned64},
	{103, "layer2packetSectionSize", wire.NewUnsigned64},
	{104, "layer2packetSectionData", wire.NewOctetArray},

	// Cisco ASA extensions
	{148, "NF_F_CONN_ID", wire.NewUnsigned64},
	{152, "NF_F_FLOW_CREATE_TIME_MSEC", wire.NewUnsigned64},
	{176, "NF_F_ICMP_TYPE", wire.NewUnsigned64},
	{177, "NF_F_ICMP_CODE", wire.NewUnsigned64},
	{178, "NF_F_ICMP_TYPE_IPV6", wire.NewUnsigned64},
	{179, "NF_F_ICMP_CODE_IPV6", wire.NewUnsigned64},
	{225, "NF_F_XLATE_SRC_ADDR_IPV4", wire.NewIPv4Address},
	{226, "NF_F_XLATE_DST_ADDR_IPV4", wire.NewIPv4Address},
	{227, "NF_F_XLATE_SRC_PORT", wire.NewUnsigned64},
	{228, "NF_F_XLATE_DST_PORT", wire.NewUnsigned64},
	{231, "NF_F_FWD_FLOW_DELTA_BYTES", wire.NewUnsigned64},
	{232, "NF_F_REV_FLOW_DELTA_BYTES", wire.NewUnsigned64},
	{233, "NF_F_FW_EVENT", wire.NewUnsigned64},
	{281, "NF_F_XLATE_SRC_ADDR_IPV6", wire.NewIPv6Address},
	{282, "NF_F_XLATE_DST_ADDR_IPV6", wire.NewIPv6Address},
	{323, "NF_F_EVENT_TIME_MSEC", wire.NewUnsigned64},
	{33000, "NF_F_INGRESS_ACL_ID", wire.NewOctetArray},
	{33001, "NF_F_EGRESS_ACL_ID", wire.NewOctetArray},
	{33002, "NF_F_FW_EXT_EVENT", wire.NewUnsigned64},
	{40000, "NF_F_USERNAME", wire.NewString},

	// PaloAlto PAN-OS 8.0 extensions
	{346, "PANOS_privateEnterpriseNumber", wire.NewUnsigned64},
	{56701, "PANOS_APPID", wire.NewString},
	{56702, "PANOS_USERID", wire.NewString},
}

// scopeTypes is NetFlow v9's fixed scope-field registry, used only by
// Options Template Records (RFC 3954 section 8).
var scopeTypes = map[uint16]string{
	1: "System",
	2: "Interface",
	3: "Line Card",
	4: "Cache",
	5: "Template",
}

// NewFieldManager returns a FieldCache pre-seeded with the v9 field type
// registry, independent of internal/wire's IANA()-backed IPFIX field
// cache. Panics if seeding fails, same convention as internal/wire's own
// newIPFIXFieldManager test helper, since this only ever fails on a
// programmer error in fieldTypes.
func NewFieldManager(templates wire.TemplateCache) wire.FieldCache {
	fm := wire.NewEphemeralFieldCache(templates)
	for _, ft := range fieldTypes {
		err := fm.Add(context.Background(), wire.InformationElement{
			Id:          ft.id,
			Name:        ft.name,
			Constructor: ft.constructor,
		})
		if err != nil {
			panic(fmt.Errorf("failed to add v9 field %d (%s) to field manager: %w", ft.id, ft.name, err))
		}
	}
	return fm
}

// ScopeName returns the human-readable name of a v9 options scope type, or
// "unknown" if id isn't one of the five scope types RFC 3954 defines.
func ScopeName(id uint16) string {
	if name, ok := scopeTypes[id]; ok {
		return name
	}
	return "unknown"
}
