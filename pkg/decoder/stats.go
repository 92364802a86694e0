package decoder

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

// Stats is a snapshot of the decoder's counters. All values except
// MemoryUsage increase monotonically over the decoder's lifetime.
type Stats struct {
	ProcessedPackets      uint64
	MalformedPackets      uint64
	Records               uint64
	DataTemplates         uint64
	OptionTemplates       uint64
	MissingTemplateErrors uint64
	ExpiredObjects        uint64
	MemoryUsage           uint64
}

type counters struct {
	processedPackets atomic.Uint64
	malformedPackets atomic.Uint64
	records          atomic.Uint64
	dataTemplates    atomic.Uint64
	optionTemplates  atomic.Uint64
}

// Stats returns a snapshot of all counters.
func (d *Decoder) Stats() Stats {
	return Stats{
		ProcessedPackets:      d.counters.processedPackets.Load(),
		MalformedPackets:      d.counters.malformedPackets.Load(),
		Records:               d.counters.records.Load(),
		DataTemplates:         d.counters.dataTemplates.Load(),
		OptionTemplates:       d.counters.optionTemplates.Load(),
		MissingTemplateErrors: d.store.MissingTemplateErrors(),
		ExpiredObjects:        d.store.ExpiredObjects(),
		MemoryUsage:           d.store.MemoryUsage(),
	}
}

var (
	processedPacketsDesc = prometheus.NewDesc(
		"nf9_processed_packets_total",
		"Number of packets handed to the decoder, including malformed ones.",
		nil, nil,
	)
	malformedPacketsDesc = prometheus.NewDesc(
		"nf9_malformed_packets_total",
		"Number of packets rejected as malformed.",
		nil, nil,
	)
	recordsDesc = prometheus.NewDesc(
		"nf9_data_flowsets_total",
		"Number of data flowsets seen.",
		nil, nil,
	)
	dataTemplatesDesc = prometheus.NewDesc(
		"nf9_template_flowsets_total",
		"Number of template flowsets seen.",
		nil, nil,
	)
	optionTemplatesDesc = prometheus.NewDesc(
		"nf9_options_template_flowsets_total",
		"Number of options template flowsets seen.",
		nil, nil,
	)
	missingTemplatesDesc = prometheus.NewDesc(
		"nf9_missing_template_errors_total",
		"Number of data flowsets without a matching template.",
		nil, nil,
	)
	expiredObjectsDesc = prometheus.NewDesc(
		"nf9_expired_objects_total",
		"Number of templates and option records evicted by expiry.",
		nil, nil,
	)
	memoryUsageDesc = prometheus.NewDesc(
		"nf9_memory_usage_bytes",
		"Bytes currently held by the template and option caches.",
		nil, nil,
	)
)

// Describe implements prometheus.Collector.
func (d *Decoder) Describe(ch chan<- *prometheus.Desc) {
	ch <- processedPacketsDesc
	ch <- malformedPacketsDesc
	ch <- recordsDesc
	ch <- dataTemplatesDesc
	ch <- optionTemplatesDesc
	ch <- missingTemplatesDesc
	ch <- expiredObjectsDesc
	ch <- memoryUsageDesc
}

// Collect implements prometheus.Collector.
func (d *Decoder) Collect(ch chan<- prometheus.Metric) {
	s := d.Stats()

	ch <- prometheus.MustNewConstMetric(processedPacketsDesc, prometheus.CounterValue, float64(s.ProcessedPackets))
	ch <- prometheus.MustNewConstMetric(malformedPacketsDesc, prometheus.CounterValue, float64(s.MalformedPackets))
	ch <- prometheus.MustNewConstMetric(recordsDesc, prometheus.CounterValue, float64(s.Records))
	ch <- prometheus.MustNewConstMetric(dataTemplatesDesc, prometheus.CounterValue, float64(s.DataTemplates))
	ch <- prometheus.MustNewConstMetric(optionTemplatesDesc, prometheus.CounterValue, float64(s.OptionTemplates))
	ch <- prometheus.MustNewConstMetric(missingTemplatesDesc, prometheus.CounterValue, float64(s.MissingTemplateErrors))
	ch <- prometheus.MustNewConstMetric(expiredObjectsDesc, prometheus.CounterValue, float64(s.ExpiredObjects))
	ch <- prometheus.MustNewConstMetric(memoryUsageDesc, prometheus.GaugeValue, float64(s.MemoryUsage))
}
