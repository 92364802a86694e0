package decoder

import (
	"bytes"
	"encoding/binary"
	"testing"

	bnet "github.com/bio-routing/bio-rd/net"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowshed/nf9/pkg/packet/netflow9"
	"github.com/flowshed/nf9/pkg/store"
)

type packetBuilder struct {
	buf bytes.Buffer
}

func newPacket(count uint16, ts uint32, srcID uint32) *packetBuilder {
	b := &packetBuilder{}
	b.u16(9)
	b.u16(count)
	b.u32(0)
	b.u32(ts)
	b.u32(0)
	b.u32(srcID)
	return b
}

func (b *packetBuilder) u16(v uint16) *packetBuilder {
	binary.Write(&b.buf, binary.BigEndian, v)
	return b
}

func (b *packetBuilder) u32(v uint32) *packetBuilder {
	binary.Write(&b.buf, binary.BigEndian, v)
	return b
}

func (b *packetBuilder) raw(v []byte) *packetBuilder {
	b.buf.Write(v)
	return b
}

func (b *packetBuilder) bytes() []byte {
	return b.buf.Bytes()
}

func exporter(o1, o2, o3, o4 uint8) store.Exporter {
	return store.Exporter{
		Addr: bnet.IPv4FromBytes([]byte{o1, o2, o3, o4}),
		Port: 2055,
	}
}

// templateFlowSet appends a template flowset defining one template with the
// given (type, length) pairs.
func (b *packetBuilder) templateFlowSet(templateID uint16, fields ...uint16) *packetBuilder {
	b.u16(0)
	b.u16(uint16(4 + 4 + 2*len(fields)))
	b.u16(templateID)
	b.u16(uint16(len(fields) / 2))
	for _, v := range fields {
		b.u16(v)
	}
	return b
}

// optionsTemplateFlowSet appends an options template flowset. scope and
// options are (type, length) pairs.
func (b *packetBuilder) optionsTemplateFlowSet(templateID uint16, scope, options []uint16) *packetBuilder {
	b.u16(1)
	b.u16(uint16(4 + 6 + 2*len(scope) + 2*len(options)))
	b.u16(templateID)
	b.u16(uint16(2 * len(scope)))
	b.u16(uint16(2 * len(options)))
	for _, v := range scope {
		b.u16(v)
	}
	for _, v := range options {
		b.u16(v)
	}
	return b
}

// dataFlowSet appends a data flowset with the given body.
func (b *packetBuilder) dataFlowSet(templateID uint16, body []byte) *packetBuilder {
	b.u16(templateID)
	b.u16(uint16(4 + len(body)))
	b.raw(body)
	return b
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{
			name: "empty packet",
			data: []byte{},
		},
		{
			name: "short header",
			data: newPacket(0, 0, 0).bytes()[:19],
		},
		{
			name: "wrong version",
			data: (&packetBuilder{}).u16(5).u16(0).u32(0).u32(0).u32(0).u32(0).bytes(),
		},
		{
			name: "flowset length below header size",
			data: newPacket(1, 0, 0).u16(0).u16(3).bytes(),
		},
		{
			name: "flowset length exceeds packet",
			data: newPacket(1, 0, 0).u16(0).u16(30).u16(256).u16(1).u16(1).u16(4).bytes(),
		},
		{
			name: "reserved flowset id",
			data: newPacket(1, 0, 0).u16(2).u16(4).bytes(),
		},
		{
			name: "template field with zero length",
			data: newPacket(1, 0, 0).templateFlowSet(256, 1, 0).bytes(),
		},
		{
			name: "reserved template id",
			data: newPacket(1, 0, 0).templateFlowSet(255, 1, 4).bytes(),
		},
		{
			name: "template with zero total length",
			data: newPacket(1, 0, 0).templateFlowSet(256).bytes(),
		},
		{
			name: "truncated options template header",
			data: newPacket(1, 0, 0).u16(1).u16(8).u16(257).u16(4).bytes(),
		},
		{
			name: "options template scope section exceeds body",
			data: newPacket(1, 0, 0).u16(1).u16(10).u16(257).u16(8).u16(0).bytes(),
		},
	}

	for _, test := range tests {
		d := New(nil)

		pkt, err := d.Decode(test.data, exporter(10, 0, 0, 1))
		assert.Error(t, err, test.name)
		assert.Nil(t, pkt, test.name)

		s := d.Stats()
		assert.Equal(t, uint64(1), s.ProcessedPackets, test.name)
		assert.Equal(t, uint64(1), s.MalformedPackets, test.name)
	}
}

func TestTemplateThenData(t *testing.T) {
	d := New(nil)
	e := exporter(10, 0, 0, 1)

	pktA, err := d.Decode(newPacket(1, 1000, 1).templateFlowSet(256,
		uint16(netflow9.FieldIPv4SrcAddr), 4,
		uint16(netflow9.FieldIPv4DstAddr), 4).bytes(), e)
	require.NoError(t, err)
	require.Equal(t, 1, pktA.NumFlowsets())

	kind, err := pktA.FlowSetKind(0)
	require.NoError(t, err)
	assert.Equal(t, FlowSetTemplate, kind)

	tmpl, err := pktA.Template(0)
	require.NoError(t, err)
	assert.Equal(t, 8, tmpl.TotalLength)
	assert.False(t, tmpl.IsOptions)

	body := append([]byte("12345678"), []byte("ABCDEFGH")...)
	pktB, err := d.Decode(newPacket(1, 1001, 1).dataFlowSet(256, body).bytes(), e)
	require.NoError(t, err)
	require.Equal(t, 1, pktB.NumFlowsets())

	kind, err = pktB.FlowSetKind(0)
	require.NoError(t, err)
	assert.Equal(t, FlowSetData, kind)

	n, err := pktB.NumRecords(0)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	src, err := pktB.GetField(0, 0, netflow9.FieldIPv4SrcAddr)
	require.NoError(t, err)
	assert.Equal(t, []byte("1234"), src)

	dst, err := pktB.GetField(0, 1, netflow9.FieldIPv4DstAddr)
	require.NoError(t, err)
	assert.Equal(t, []byte("EFGH"), dst)

	// GetField is idempotent and side-effect free.
	src2, err := pktB.GetField(0, 0, netflow9.FieldIPv4SrcAddr)
	require.NoError(t, err)
	assert.Equal(t, src, src2)

	fields, err := pktB.GetAllFields(0, 0)
	require.NoError(t, err)
	require.Len(t, fields, 2)
	assert.Equal(t, netflow9.FieldIPv4SrcAddr, fields[0].ID)
	assert.Equal(t, netflow9.FieldIPv4DstAddr, fields[1].ID)

	s := d.Stats()
	assert.Equal(t, uint64(2), s.ProcessedPackets)
	assert.Equal(t, uint64(0), s.MalformedPackets)
	assert.Equal(t, uint64(1), s.DataTemplates)
	assert.Equal(t, uint64(1), s.Records)
}

func TestMissingTemplate(t *testing.T) {
	d := New(nil)

	body := append([]byte("12345678"), []byte("ABCDEFGH")...)
	pkt, err := d.Decode(newPacket(1, 1000, 1).dataFlowSet(256, body).bytes(), exporter(10, 0, 0, 1))
	require.NoError(t, err)
	require.Equal(t, 1, pkt.NumFlowsets())

	n, err := pkt.NumRecords(0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	assert.Equal(t, uint64(1), d.Stats().MissingTemplateErrors)
}

func TestPerDeviceIsolation(t *testing.T) {
	d := New(nil)

	_, err := d.Decode(newPacket(1, 1000, 1).templateFlowSet(256,
		uint16(netflow9.FieldIPv4SrcAddr), 4).bytes(), exporter(10, 0, 0, 1))
	require.NoError(t, err)

	pkt, err := d.Decode(newPacket(1, 1001, 1).dataFlowSet(256, []byte("1234")).bytes(), exporter(10, 0, 0, 2))
	require.NoError(t, err)

	n, err := pkt.NumRecords(0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, uint64(1), d.Stats().MissingTemplateErrors)
}

func TestTemplateExpiry(t *testing.T) {
	d := New(nil)
	require.NoError(t, d.SetTemplateExpireTime(100))
	e := exporter(10, 0, 0, 1)

	_, err := d.Decode(newPacket(1, 1000, 1).templateFlowSet(256,
		uint16(netflow9.FieldIPv4SrcAddr), 4).bytes(), e)
	require.NoError(t, err)

	pkt, err := d.Decode(newPacket(1, 1200, 1).dataFlowSet(256, []byte("1234")).bytes(), e)
	require.NoError(t, err)

	n, err := pkt.NumRecords(0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, uint64(1), d.Stats().ExpiredObjects)
}

func TestDataFlowSetUnderrun(t *testing.T) {
	d := New(nil)
	e := exporter(10, 0, 0, 1)

	_, err := d.Decode(newPacket(1, 1000, 1).templateFlowSet(256,
		uint16(netflow9.FieldIPv4SrcAddr), 4,
		uint16(netflow9.FieldIPv4DstAddr), 4).bytes(), e)
	require.NoError(t, err)

	// Six body bytes cannot hold an eight byte record.
	pkt, err := d.Decode(newPacket(1, 1001, 1).dataFlowSet(256, []byte("123456")).bytes(), e)
	require.NoError(t, err)
	require.Equal(t, 1, pkt.NumFlowsets())

	n, err := pkt.NumRecords(0)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, uint64(0), d.Stats().MalformedPackets)
}

func TestTemplateRefreshOlderTimestampIgnored(t *testing.T) {
	d := New(nil)
	e := exporter(10, 0, 0, 1)

	_, err := d.Decode(newPacket(1, 1000, 1).templateFlowSet(256,
		uint16(netflow9.FieldIPv4SrcAddr), 4).bytes(), e)
	require.NoError(t, err)

	// An older definition with a different layout must not replace the
	// stored one.
	_, err = d.Decode(newPacket(1, 900, 1).templateFlowSet(256,
		uint16(netflow9.FieldInBytes), 8).bytes(), e)
	require.NoError(t, err)

	pkt, err := d.Decode(newPacket(1, 1001, 1).dataFlowSet(256, []byte("1234")).bytes(), e)
	require.NoError(t, err)

	n, err := pkt.NumRecords(0)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	v, err := pkt.GetField(0, 0, netflow9.FieldIPv4SrcAddr)
	require.NoError(t, err)
	assert.Equal(t, []byte("1234"), v)
}

func TestMultipleTemplatesPerFlowSet(t *testing.T) {
	d := New(nil)
	e := exporter(10, 0, 0, 1)

	b := newPacket(2, 1000, 1)
	b.u16(0)
	b.u16(4 + 8 + 8)
	b.u16(256).u16(1).u16(uint16(netflow9.FieldIPv4SrcAddr)).u16(4)
	b.u16(257).u16(1).u16(uint16(netflow9.FieldInBytes)).u16(4)

	pkt, err := d.Decode(b.bytes(), e)
	require.NoError(t, err)
	assert.Equal(t, 2, pkt.NumFlowsets())

	pkt, err = d.Decode(newPacket(1, 1001, 1).dataFlowSet(257, []byte{0, 0, 0, 55}).bytes(), e)
	require.NoError(t, err)

	n, err := pkt.NumRecords(0)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOptionsRecordAndGetOption(t *testing.T) {
	d := New(nil)
	e := exporter(10, 0, 0, 1)

	pkt, err := d.Decode(newPacket(1, 1000, 1).optionsTemplateFlowSet(257,
		[]uint16{1, 4},
		[]uint16{uint16(netflow9.FieldFlowSamplerID), 2, uint16(netflow9.FieldFlowSamplerRandomInterval), 4},
	).bytes(), e)
	require.NoError(t, err)

	kind, err := pkt.FlowSetKind(0)
	require.NoError(t, err)
	assert.Equal(t, FlowSetOptionsTemplate, kind)

	tmpl, err := pkt.Template(0)
	require.NoError(t, err)
	assert.True(t, tmpl.IsOptions)
	assert.True(t, tmpl.Fields[0].ID.IsScope())
	assert.Equal(t, 10, tmpl.TotalLength)

	// Scope 0, sampler id 1, interval 100.
	body := (&packetBuilder{}).u32(0).u16(1).u32(100).bytes()
	pkt, err = d.Decode(newPacket(1, 1001, 1).dataFlowSet(257, body).bytes(), e)
	require.NoError(t, err)

	n, err := pkt.NumRecords(0)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	v, err := pkt.GetOption(netflow9.FieldFlowSamplerID)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1}, v)

	v, err = pkt.GetOption(netflow9.FieldFlowSamplerRandomInterval)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 100}, v)

	_, err = pkt.GetOption(netflow9.FieldInBytes)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, uint64(1), d.Stats().OptionTemplates)
}

func TestAccessorInvalidArguments(t *testing.T) {
	d := New(nil)
	e := exporter(10, 0, 0, 1)

	pkt, err := d.Decode(newPacket(0, 1000, 1).bytes(), e)
	require.NoError(t, err)
	assert.Equal(t, 0, pkt.NumFlowsets())

	_, err = pkt.FlowSetKind(0)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = pkt.NumRecords(-1)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = pkt.GetField(0, 0, netflow9.FieldInBytes)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Equal(t, uint32(1000), pkt.Timestamp())
	assert.Equal(t, uint32(1), pkt.SourceID())
	assert.Equal(t, uint32(0), pkt.Uptime())
	assert.Equal(t, e, pkt.Exporter())
}
