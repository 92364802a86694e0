package netflow9

// FieldID identifies a field within a template or a decoded record. The low
// 16 bits carry the IANA-registered NetFlow v9 field type. Bit 31 is set for
// scope fields, which only occur inside options templates.
type FieldID uint32

// scopeBit marks scope fields inside options templates.
const scopeBit FieldID = 1 << 31

// DataField returns the field identifier for a regular data field type.
func DataField(t uint16) FieldID {
	return FieldID(t)
}

// ScopeField returns the field identifier for an options-template scope
// field type.
func ScopeField(t uint16) FieldID {
	return FieldID(t) | scopeBit
}

// IsScope reports whether f is a scope field.
func (f FieldID) IsScope() bool {
	return f&scopeBit != 0
}

// Type returns the IANA field type of f.
func (f FieldID) Type() uint16 {
	return uint16(f)
}

// Field types registered for NetFlow v9 (RFC 3954 and the Cisco registry).
const (
	FieldInBytes                   FieldID = 1
	FieldInPkts                    FieldID = 2
	FieldFlows                     FieldID = 3
	FieldProtocol                  FieldID = 4
	FieldTOS                       FieldID = 5
	FieldTCPFlags                  FieldID = 6
	FieldL4SrcPort                 FieldID = 7
	FieldIPv4SrcAddr               FieldID = 8
	FieldSrcMask                   FieldID = 9
	FieldInputSnmp                 FieldID = 10
	FieldL4DstPort                 FieldID = 11
	FieldIPv4DstAddr               FieldID = 12
	FieldDstMask                   FieldID = 13
	FieldOutputSnmp                FieldID = 14
	FieldIPv4NextHop               FieldID = 15
	FieldSrcAS                     FieldID = 16
	FieldDstAS                     FieldID = 17
	FieldBGPIPv4NextHop            FieldID = 18
	FieldMulDstPkts                FieldID = 19
	FieldMulDstBytes               FieldID = 20
	FieldLastSwitched              FieldID = 21
	FieldFirstSwitched             FieldID = 22
	FieldOutBytes                  FieldID = 23
	FieldOutPkts                   FieldID = 24
	FieldIPv6SrcAddr               FieldID = 27
	FieldIPv6DstAddr               FieldID = 28
	FieldIPv6SrcMask               FieldID = 29
	FieldIPv6DstMask               FieldID = 30
	FieldIPv6FlowLabel             FieldID = 31
	FieldICMPType                  FieldID = 32
	FieldMulIGMPType               FieldID = 33
	FieldSamplingInterval          FieldID = 34
	FieldSamplingAlgorithm         FieldID = 35
	FieldFlowActiveTimeout         FieldID = 36
	FieldFlowInactiveTimeout       FieldID = 37
	FieldEngineType                FieldID = 38
	FieldEngineID                  FieldID = 39
	FieldTotalBytesExp             FieldID = 40
	FieldTotalPktsExp              FieldID = 41
	FieldTotalFlowsExp             FieldID = 42
	FieldMPLSTopLabelType          FieldID = 46
	FieldMPLSTopLabelIPAddr        FieldID = 47
	FieldFlowSamplerID             FieldID = 48
	FieldFlowSamplerMode           FieldID = 49
	FieldFlowSamplerRandomInterval FieldID = 50
	FieldDstTOS                    FieldID = 55
	FieldSrcMac                    FieldID = 56
	FieldDstMac                    FieldID = 57
	FieldSrcVlan                   FieldID = 58
	FieldDstVlan                   FieldID = 59
	FieldIPProtocolVersion         FieldID = 60
	FieldDirection                 FieldID = 61
	FieldIPv6NextHop               FieldID = 62
	FieldBGPIPv6NextHop            FieldID = 63
	FieldIPv6OptionHeaders         FieldID = 64
	FieldMPLSLabel1                FieldID = 70
	FieldMPLSLabel2                FieldID = 71
	FieldMPLSLabel3                FieldID = 72
	FieldMPLSLabel4                FieldID = 73
	FieldMPLSLabel5                FieldID = 74
	FieldMPLSLabel6                FieldID = 75
	FieldMPLSLabel7                FieldID = 76
	FieldMPLSLabel8                FieldID = 77
	FieldMPLSLabel9                FieldID = 78
	FieldMPLSLabel10               FieldID = 79
	FieldInDstMac                  FieldID = 80
	FieldOutSrcMac                 FieldID = 81
	FieldIfName                    FieldID = 82
	FieldIfDesc                    FieldID = 83
	FieldSamplerName               FieldID = 84
	FieldInPermanentBytes          FieldID = 85
	FieldInPermanentPkts           FieldID = 86
	FieldFragmentOffset            FieldID = 88
	FieldForwardingStatus          FieldID = 89
	FieldMPLSPalRD                 FieldID = 90
	FieldMPLSPrefixLen             FieldID = 91
	FieldSrcTrafficIndex           FieldID = 92
	FieldDstTrafficIndex           FieldID = 93
	FieldApplicationDescription    FieldID = 94
	FieldApplicationTag            FieldID = 95
	FieldApplicationName           FieldID = 96
	FieldPostIPDiffServCodePoint   FieldID = 98
	FieldReplicationFactor         FieldID = 99
	FieldLayer2PacketSectionOffset FieldID = 102
	FieldLayer2PacketSectionSize   FieldID = 103
	FieldLayer2PacketSectionData   FieldID = 104
	FieldIngressVRFID              FieldID = 234
	FieldEgressVRFID               FieldID = 235
)
