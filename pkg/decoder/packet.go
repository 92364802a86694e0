package decoder

import (
	"github.com/pkg/errors"

	"github.com/flowshed/nf9/pkg/packet/netflow9"
	"github.com/flowshed/nf9/pkg/store"
)

// FlowSetKind classifies a decoded flowset.
type FlowSetKind int

const (
	// FlowSetTemplate is a flowset defining data templates.
	FlowSetTemplate FlowSetKind = iota
	// FlowSetOptionsTemplate is a flowset defining an options template.
	FlowSetOptionsTemplate
	// FlowSetData is a flowset carrying data records.
	FlowSetData
)

func (k FlowSetKind) String() string {
	switch k {
	case FlowSetTemplate:
		return "template"
	case FlowSetOptionsTemplate:
		return "options-template"
	case FlowSetData:
		return "data"
	}
	return "unknown"
}

// Record is one decoded data row. Fields appear in template order and own
// their value buffers; values are raw network-order bytes as on the wire.
type Record struct {
	fields []netflow9.RecordField
}

// FlowSet is one decoded flowset in wire order. Template is set for the two
// template kinds, Records for the data kind.
type FlowSet struct {
	Kind     FlowSetKind
	Template *netflow9.Template
	Records  []Record
}

// Packet is the result of decoding one NetFlow v9 packet. It keeps an
// observing reference to the decoder's store to answer option and sampling
// queries and must not be used after the decoder is gone.
type Packet struct {
	dec      *Decoder
	device   store.DeviceID
	header   netflow9.Header
	flowsets []FlowSet
}

// Exporter returns the address the packet was received from.
func (p *Packet) Exporter() store.Exporter {
	return p.device.Exporter
}

// Timestamp returns the unix timestamp from the packet header.
func (p *Packet) Timestamp() uint32 {
	return p.header.UnixSecs
}

// SourceID returns the source ID from the packet header.
func (p *Packet) SourceID() uint32 {
	return p.header.SourceID
}

// Uptime returns the exporter's system uptime in milliseconds from the
// packet header.
func (p *Packet) Uptime() uint32 {
	return p.header.SysUptime
}

// NumFlowsets returns the number of flowsets, in wire order.
func (p *Packet) NumFlowsets() int {
	return len(p.flowsets)
}

// FlowSetKind returns the kind of the i-th flowset.
func (p *Packet) FlowSetKind(i int) (FlowSetKind, error) {
	if i < 0 || i >= len(p.flowsets) {
		return 0, errors.Wrapf(ErrInvalidArgument, "flowset index %d out of range", i)
	}

	return p.flowsets[i].Kind, nil
}

// Template returns the template defined by the i-th flowset, or
// ErrNotFound if the flowset is a data flowset.
func (p *Packet) Template(i int) (*netflow9.Template, error) {
	if i < 0 || i >= len(p.flowsets) {
		return nil, errors.Wrapf(ErrInvalidArgument, "flowset index %d out of range", i)
	}

	if p.flowsets[i].Template == nil {
		return nil, ErrNotFound
	}
	return p.flowsets[i].Template, nil
}

// NumRecords returns the number of data records in the i-th flowset. It is
// zero for template flowsets.
func (p *Packet) NumRecords(i int) (int, error) {
	if i < 0 || i >= len(p.flowsets) {
		return 0, errors.Wrapf(ErrInvalidArgument, "flowset index %d out of range", i)
	}

	return len(p.flowsets[i].Records), nil
}

func (p *Packet) record(i, j int) (*Record, error) {
	if i < 0 || i >= len(p.flowsets) {
		return nil, errors.Wrapf(ErrInvalidArgument, "flowset index %d out of range", i)
	}
	if j < 0 || j >= len(p.flowsets[i].Records) {
		return nil, errors.Wrapf(ErrInvalidArgument, "record index %d out of range", j)
	}

	return &p.flowsets[i].Records[j], nil
}

// GetField returns a copy of the value of the given field in record j of
// flowset i. The bytes are in network order, as they appeared on the wire.
func (p *Packet) GetField(i, j int, id netflow9.FieldID) ([]byte, error) {
	r, err := p.record(i, j)
	if err != nil {
		return nil, err
	}

	v := netflow9.Lookup(r.fields, id)
	if v == nil {
		return nil, ErrNotFound
	}

	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// GetAllFields returns views of all fields of record j of flowset i, in
// template order. The views stay valid as long as the packet is held; they
// must not be mutated.
func (p *Packet) GetAllFields(i, j int) ([]netflow9.RecordField, error) {
	r, err := p.record(i, j)
	if err != nil {
		return nil, err
	}

	return r.fields, nil
}

// GetOption returns a copy of the value of the given field from the current
// option record of the packet's device, read from the store.
func (p *Packet) GetOption(id netflow9.FieldID) ([]byte, error) {
	return p.dec.store.GetOption(p.device, id)
}
