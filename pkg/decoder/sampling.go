package decoder

import (
	"github.com/bio-routing/tflow2/convert"
	"github.com/pkg/errors"

	"github.com/flowshed/nf9/pkg/packet/netflow9"
)

// SamplingInfo tells how a sampling rate query was resolved.
type SamplingInfo int

const (
	// SamplingMatchIPSourceIDSamplerID means the rate was found under the
	// exact device identity.
	SamplingMatchIPSourceIDSamplerID SamplingInfo = iota
	// SamplingMatchIPSamplerID means the rate was found under the
	// fallback keying that ignores the source ID.
	SamplingMatchIPSamplerID
	// SamplingSamplerIDNotFound means the record carries no usable
	// FLOW_SAMPLER_ID field.
	SamplingSamplerIDNotFound
	// SamplingOptionRecordNotFound means no option record supplied a rate
	// for this sampler.
	SamplingOptionRecordNotFound
)

func (i SamplingInfo) String() string {
	switch i {
	case SamplingMatchIPSourceIDSamplerID:
		return "matched on address, source id and sampler id"
	case SamplingMatchIPSamplerID:
		return "matched on address and sampler id"
	case SamplingSamplerIDNotFound:
		return "sampler id not found in record"
	case SamplingOptionRecordNotFound:
		return "no option record for sampler"
	}
	return "unknown"
}

// samplerValue converts a 1 to 4 byte network-order field value to a host
// uint32, so a sampler id of 1 encoded in 1, 2 or 4 bytes resolves to the
// same key.
func samplerValue(v []byte) (uint32, bool) {
	if len(v) == 0 || len(v) > 4 {
		return 0, false
	}

	b := make([]byte, len(v))
	copy(b, v)
	return convert.Uint32(convert.Reverse(b)), true
}

// saveSamplingInfo extracts the sampler parameters from an options record
// and stores the rate under both sampler keyings. Records without the two
// sampler fields are not an error, they are simply not about sampling.
func (d *Decoder) saveSamplingInfo(p *Packet, fields []netflow9.RecordField) {
	id := netflow9.Lookup(fields, netflow9.FieldFlowSamplerID)
	interval := netflow9.Lookup(fields, netflow9.FieldFlowSamplerRandomInterval)
	if id == nil || interval == nil {
		return
	}

	samplerID, ok := samplerValue(id)
	if !ok {
		return
	}
	rate, ok := samplerValue(interval)
	if !ok {
		return
	}

	d.store.SaveSamplingRate(p.device, samplerID, rate)
}

// GetSamplingRate resolves the sampling rate applying to record j of
// flowset i. The record's FLOW_SAMPLER_ID is looked up first under the
// exact device identity, then under the exporter address alone.
func (p *Packet) GetSamplingRate(i, j int) (uint32, SamplingInfo, error) {
	r, err := p.record(i, j)
	if err != nil {
		return 0, SamplingSamplerIDNotFound, err
	}

	v := netflow9.Lookup(r.fields, netflow9.FieldFlowSamplerID)
	if v == nil {
		return 0, SamplingSamplerIDNotFound, errors.Wrap(ErrNotFound, "record carries no sampler id")
	}

	samplerID, ok := samplerValue(v)
	if !ok {
		return 0, SamplingSamplerIDNotFound, errors.Wrap(ErrNotFound, "sampler id wider than 4 bytes")
	}

	if rate, ok := p.dec.store.SamplingRate(p.device, samplerID); ok {
		return rate, SamplingMatchIPSourceIDSamplerID, nil
	}

	if rate, ok := p.dec.store.ExporterSamplingRate(p.device.Exporter, samplerID); ok {
		return rate, SamplingMatchIPSamplerID, nil
	}

	return 0, SamplingOptionRecordNotFound, errors.Wrapf(ErrNotFound, "no rate for sampler %d", samplerID)
}
