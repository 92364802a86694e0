package decoder

import (
	"github.com/pkg/errors"

	log "github.com/sirupsen/logrus"

	"github.com/flowshed/nf9/pkg/packet/netflow9"
	"github.com/flowshed/nf9/pkg/store"
)

// Decode consumes exactly one NetFlow v9 packet received from the given
// exporter. Per-flowset problems that are local (missing template,
// under-filled data flowset) do not fail the packet; anything that corrupts
// the cursor does, and no packet is returned.
func (d *Decoder) Decode(data []byte, exporter store.Exporter) (*Packet, error) {
	d.counters.processedPackets.Add(1)

	p, err := d.decode(data, exporter)
	if err != nil {
		d.counters.malformedPackets.Add(1)
		return nil, err
	}

	return p, nil
}

func (d *Decoder) decode(data []byte, exporter store.Exporter) (*Packet, error) {
	buf := netflow9.NewBuffer(data)

	hdr, ok := netflow9.DecodeHeader(buf)
	if !ok {
		return nil, errors.Wrap(ErrMalformed, "packet shorter than the header")
	}
	if hdr.Version != netflow9.Version {
		return nil, errors.Wrapf(ErrMalformed, "unsupported version %d", hdr.Version)
	}

	p := &Packet{
		dec:    d,
		device: store.DeviceID{Exporter: exporter, SourceID: hdr.SourceID},
		header: hdr,
	}

	// The header count is an upper bound: a packet may carry fewer
	// flowsets than announced.
	for i := 0; i < int(hdr.Count) && buf.Remaining() > 0; i++ {
		if err := d.decodeFlowSet(buf, p); err != nil {
			return nil, err
		}
	}

	return p, nil
}

func (d *Decoder) decodeFlowSet(buf *netflow9.Buffer, p *Packet) error {
	hdr, ok := netflow9.DecodeFlowSetHeader(buf)
	if !ok {
		return errors.Wrap(ErrMalformed, "truncated flowset header")
	}

	// Length includes the four header bytes just read.
	if hdr.Length < netflow9.FlowSetHeaderLength {
		return errors.Wrapf(ErrMalformed, "flowset length %d below header size", hdr.Length)
	}

	body, ok := buf.Sub(int(hdr.Length) - netflow9.FlowSetHeaderLength)
	if !ok {
		return errors.Wrapf(ErrMalformed, "flowset length %d exceeds packet", hdr.Length)
	}

	switch {
	case hdr.FlowSetID == netflow9.TemplateFlowSetID:
		d.counters.dataTemplates.Add(1)
		return d.decodeTemplateFlowSet(body, p)
	case hdr.FlowSetID == netflow9.OptionsTemplateFlowSetID:
		d.counters.optionTemplates.Add(1)
		return d.decodeOptionsTemplateFlowSet(body, p)
	case hdr.FlowSetID < netflow9.MinDataFlowSetID:
		return errors.Wrapf(ErrMalformed, "reserved flowset id %d", hdr.FlowSetID)
	default:
		d.counters.records.Add(1)
		return d.decodeDataFlowSet(body, p, hdr.FlowSetID)
	}
}

func decodeTemplateField(buf *netflow9.Buffer) (uint16, uint16, error) {
	typ, ok := buf.Uint16()
	if !ok {
		return 0, 0, errors.Wrap(ErrMalformed, "truncated template field")
	}

	length, ok := buf.Uint16()
	if !ok {
		return 0, 0, errors.Wrap(ErrMalformed, "truncated template field")
	}

	if length == 0 {
		return 0, 0, errors.Wrapf(ErrMalformed, "zero length for field type %d", typ)
	}

	return typ, length, nil
}

// decodeTemplateFlowSet reads the concatenated templates of a template
// flowset, saving each and emitting one template flowset per definition.
func (d *Decoder) decodeTemplateFlowSet(buf *netflow9.Buffer, p *Packet) error {
	for buf.Remaining() > 0 {
		templateID, ok := buf.Uint16()
		if !ok {
			return errors.Wrap(ErrMalformed, "truncated template header")
		}
		fieldCount, ok := buf.Uint16()
		if !ok {
			return errors.Wrap(ErrMalformed, "truncated template header")
		}

		if templateID < netflow9.MinDataFlowSetID {
			return errors.Wrapf(ErrMalformed, "template id %d is reserved", templateID)
		}

		tmpl := &netflow9.Template{
			Fields:    make([]netflow9.TemplateField, 0, fieldCount),
			Timestamp: p.header.UnixSecs,
		}

		for n := fieldCount; n > 0 && buf.Remaining() > 0; n-- {
			typ, length, err := decodeTemplateField(buf)
			if err != nil {
				return err
			}

			tmpl.Fields = append(tmpl.Fields, netflow9.TemplateField{
				ID:     netflow9.DataField(typ),
				Length: length,
			})
			tmpl.TotalLength += int(length)
		}

		if err := d.saveTemplate(p, templateID, tmpl); err != nil {
			return err
		}

		p.flowsets = append(p.flowsets, FlowSet{Kind: FlowSetTemplate, Template: tmpl})
	}

	return nil
}

// decodeOptionsTemplateFlowSet reads one options template. The scope and
// option section lengths are byte counts; trailing bytes of the flowset are
// padding.
func (d *Decoder) decodeOptionsTemplateFlowSet(buf *netflow9.Buffer, p *Packet) error {
	templateID, ok := buf.Uint16()
	if !ok {
		return errors.Wrap(ErrMalformed, "truncated options template header")
	}
	scopeLen, ok := buf.Uint16()
	if !ok {
		return errors.Wrap(ErrMalformed, "truncated options template header")
	}
	optionLen, ok := buf.Uint16()
	if !ok {
		return errors.Wrap(ErrMalformed, "truncated options template header")
	}

	tmpl := &netflow9.Template{
		Timestamp: p.header.UnixSecs,
		IsOptions: true,
	}

	if err := decodeOptionSection(buf, tmpl, scopeLen, true); err != nil {
		return err
	}
	if err := decodeOptionSection(buf, tmpl, optionLen, false); err != nil {
		return err
	}

	if err := d.saveTemplate(p, templateID, tmpl); err != nil {
		return err
	}

	p.flowsets = append(p.flowsets, FlowSet{Kind: FlowSetOptionsTemplate, Template: tmpl})

	buf.Skip()
	return nil
}

func decodeOptionSection(buf *netflow9.Buffer, tmpl *netflow9.Template, sectionLen uint16, scope bool) error {
	for sectionLen > 0 {
		if sectionLen < 4 || buf.Remaining() == 0 {
			return errors.Wrap(ErrMalformed, "options template section inconsistent with flowset body")
		}
		sectionLen -= 4

		typ, length, err := decodeTemplateField(buf)
		if err != nil {
			return err
		}

		id := netflow9.DataField(typ)
		if scope {
			id = netflow9.ScopeField(typ)
		}

		tmpl.Fields = append(tmpl.Fields, netflow9.TemplateField{ID: id, Length: length})
		tmpl.TotalLength += int(length)
	}

	return nil
}

func (d *Decoder) saveTemplate(p *Packet, templateID uint16, tmpl *netflow9.Template) error {
	if tmpl.TotalLength == 0 {
		return errors.Wrapf(ErrMalformed, "template %d has zero record length", templateID)
	}

	key := store.TemplateKey{Device: p.device, TemplateID: templateID}
	return d.store.SaveTemplate(key, tmpl, p.header.UnixSecs)
}

// decodeDataFlowSet decodes the records of a data flowset against the
// stored template. Without a usable template the flowset yields zero
// records and the packet stays valid.
func (d *Decoder) decodeDataFlowSet(buf *netflow9.Buffer, p *Packet, flowsetID uint16) error {
	fs := FlowSet{Kind: FlowSetData}

	key := store.TemplateKey{Device: p.device, TemplateID: flowsetID}
	tmpl, err := d.store.LookupTemplate(key, p.header.UnixSecs)
	if err != nil {
		log.WithError(err).Debugf("No usable template %d for %s", flowsetID, p.device.Exporter.Addr.String())
		buf.Skip()
		p.flowsets = append(p.flowsets, fs)
		return nil
	}

	for buf.Remaining() > 0 {
		rec, err := d.decodeRecord(buf, p, tmpl)
		if err != nil {
			return err
		}
		if rec == nil {
			break
		}

		fs.Records = append(fs.Records, *rec)
	}

	p.flowsets = append(p.flowsets, fs)
	return nil
}

// decodeRecord reads one data record. A nil record without error means the
// remaining bytes were an under-filled trailer and have been discarded.
func (d *Decoder) decodeRecord(buf *netflow9.Buffer, p *Packet, tmpl *netflow9.Template) (*Record, error) {
	if len(tmpl.Fields) == 0 || tmpl.TotalLength > buf.Remaining() {
		buf.Skip()
		return nil, nil
	}

	fields := make([]netflow9.RecordField, 0, len(tmpl.Fields))
	for _, tf := range tmpl.Fields {
		if tf.Length == 0 {
			break
		}

		v, ok := buf.Bytes(int(tf.Length))
		if !ok {
			return nil, errors.Wrap(ErrMalformed, "field extends past flowset body")
		}

		value := make([]byte, len(v))
		copy(value, v)
		fields = append(fields, netflow9.RecordField{ID: tf.ID, Value: value})
	}

	if tmpl.IsOptions {
		opt := &netflow9.OptionRecord{
			Fields:    copyFields(fields),
			Timestamp: p.header.UnixSecs,
		}
		if err := d.store.SaveOption(p.device, opt); err != nil {
			return nil, err
		}

		if d.storeSamplingRates {
			d.saveSamplingInfo(p, fields)
		}
	}

	return &Record{fields: fields}, nil
}

// copyFields deep-copies record fields so the store's option record does
// not alias buffers owned by a packet.
func copyFields(fields []netflow9.RecordField) []netflow9.RecordField {
	out := make([]netflow9.RecordField, len(fields))
	for i, f := range fields {
		v := make([]byte, len(f.Value))
		copy(v, f.Value)
		out[i] = netflow9.RecordField{ID: f.ID, Value: v}
	}
	return out
}
