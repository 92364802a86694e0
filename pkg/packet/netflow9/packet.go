// Package netflow9 contains the wire-level grammar of NetFlow v9 export
// packets (RFC 3954): the packet header, flowset framing, templates and
// field identifiers. All multi-byte integers on the wire are big-endian.
package netflow9

// Version is the only protocol version this package accepts.
const Version = 9

// HeaderLength is the fixed size of the packet header in bytes.
const HeaderLength = 20

// FlowSetHeaderLength is the fixed size of a flowset header in bytes.
const FlowSetHeaderLength = 4

// Flowset IDs 0 and 1 are reserved for template definitions, 2-255 are
// reserved and invalid on the wire. Everything above is a data flowset
// whose ID doubles as the template ID.
const (
	TemplateFlowSetID        = 0
	OptionsTemplateFlowSetID = 1
	MinDataFlowSetID         = 256
)

// Header is the NetFlow v9 packet header.
type Header struct {
	Version   uint16
	Count     uint16
	SysUptime uint32
	UnixSecs  uint32
	Sequence  uint32
	SourceID  uint32
}

// DecodeHeader reads the packet header from buf. It returns false if the
// buffer holds fewer than HeaderLength bytes.
func DecodeHeader(buf *Buffer) (Header, bool) {
	var h Header
	var ok bool

	if h.Version, ok = buf.Uint16(); !ok {
		return h, false
	}
	if h.Count, ok = buf.Uint16(); !ok {
		return h, false
	}
	if h.SysUptime, ok = buf.Uint32(); !ok {
		return h, false
	}
	if h.UnixSecs, ok = buf.Uint32(); !ok {
		return h, false
	}
	if h.Sequence, ok = buf.Uint32(); !ok {
		return h, false
	}
	if h.SourceID, ok = buf.Uint32(); !ok {
		return h, false
	}

	return h, true
}

// FlowSetHeader precedes every flowset. Length includes the four header
// bytes.
type FlowSetHeader struct {
	FlowSetID uint16
	Length    uint16
}

// DecodeFlowSetHeader reads a flowset header from buf.
func DecodeFlowSetHeader(buf *Buffer) (FlowSetHeader, bool) {
	var h FlowSetHeader
	var ok bool

	if h.FlowSetID, ok = buf.Uint16(); !ok {
		return h, false
	}
	if h.Length, ok = buf.Uint16(); !ok {
		return h, false
	}

	return h, true
}
