package store

import (
	bnet "github.com/bio-routing/bio-rd/net"
)

// Exporter identifies the device a packet was received from. All key types
// below are comparable structs, so two equal keys hash equal by
// construction when used as map keys.
type Exporter struct {
	Addr bnet.IP
	Port uint16
}

// DeviceID identifies one NetFlow instance: the exporter address combined
// with the source ID from the packet header.
type DeviceID struct {
	Exporter Exporter
	SourceID uint32
}

// TemplateKey locates a template: a device plus the 16 bit template ID.
type TemplateKey struct {
	Device     DeviceID
	TemplateID uint16
}

// SamplerKey identifies a sampler on a specific NetFlow instance.
type SamplerKey struct {
	Device    DeviceID
	SamplerID uint32
}

// ExporterSamplerKey is the weaker sampler identity that ignores the source
// ID, for exporters that report options and data under different source IDs.
type ExporterSamplerKey struct {
	Exporter  Exporter
	SamplerID uint32
}
