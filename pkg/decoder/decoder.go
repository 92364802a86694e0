// Package decoder implements a stateful NetFlow v9 decoder. A Decoder keeps
// the per-exporter templates, option records and sampling rates that make
// data records interpretable; callers feed it one packet at a time together
// with the exporter's address.
package decoder

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/flowshed/nf9/pkg/store"
)

// Config carries the initial decoder settings. The zero value is usable:
// sampling rates are not stored, memory is unlimited and expiry times are
// the defaults.
type Config struct {
	// StoreSamplingRates enables the sampling resolver: sampler options
	// are captured from options records and data records can be matched
	// to their sampling rate.
	StoreSamplingRates bool

	// MaxMemoryUsage is the ceiling in bytes for cached templates and
	// option records. Zero means unlimited.
	MaxMemoryUsage uint64

	// TemplateExpireTime is the template lifetime in seconds of header
	// time. Zero selects the default of 15 minutes.
	TemplateExpireTime uint32

	// OptionExpireTime is the option record lifetime in seconds of
	// header time. Zero selects the default of 15 minutes.
	OptionExpireTime uint32
}

// Decoder is an isolated decoding state container. One instance may be
// shared by multiple goroutines each feeding their own packets; template,
// option and sampling state is internally locked and the counters are
// atomic.
type Decoder struct {
	store              *store.Store
	storeSamplingRates bool

	counters counters
}

var _ prometheus.Collector = &Decoder{}

// New creates a decoder. A nil cfg selects all defaults.
func New(cfg *Config) *Decoder {
	d := &Decoder{
		store: store.New(),
	}

	if cfg == nil {
		return d
	}

	d.storeSamplingRates = cfg.StoreSamplingRates
	if cfg.MaxMemoryUsage != 0 {
		d.store.SetMaxMemoryUsage(cfg.MaxMemoryUsage)
	}
	if cfg.TemplateExpireTime != 0 {
		d.store.SetTemplateExpireTime(cfg.TemplateExpireTime)
	}
	if cfg.OptionExpireTime != 0 {
		d.store.SetOptionExpireTime(cfg.OptionExpireTime)
	}

	return d
}

// SetMaxMemoryUsage adjusts the memory ceiling in bytes. Zero means
// unlimited.
func (d *Decoder) SetMaxMemoryUsage(n uint64) {
	d.store.SetMaxMemoryUsage(n)
}

// SetTemplateExpireTime adjusts the template lifetime in seconds of header
// time.
func (d *Decoder) SetTemplateExpireTime(seconds uint32) error {
	if seconds == 0 {
		return ErrInvalidArgument
	}

	d.store.SetTemplateExpireTime(seconds)
	return nil
}

// SetOptionExpireTime adjusts the option record lifetime in seconds of
// header time.
func (d *Decoder) SetOptionExpireTime(seconds uint32) error {
	if seconds == 0 {
		return ErrInvalidArgument
	}

	d.store.SetOptionExpireTime(seconds)
	return nil
}
