// Package store holds the per-exporter state that makes NetFlow v9 data
// records interpretable: templates, the latest option record per device and
// sampling rates, all behind a configurable memory ceiling with time-based
// expiry.
package store

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/flowshed/nf9/pkg/packet/netflow9"
)

var (
	// ErrNotFound is returned when a template, option or sampling rate is
	// not present in the store.
	ErrNotFound = errors.New("not found")

	// ErrOutdated is returned when a template was located but has aged
	// past the template expire time.
	ErrOutdated = errors.New("template expired")

	// ErrMalformed is returned for templates that violate the protocol,
	// e.g. a total record length of zero.
	ErrMalformed = errors.New("malformed template")
)

// DefaultTemplateExpireTime is the default template lifetime in seconds of
// header time.
const DefaultTemplateExpireTime = 15 * 60

// DefaultOptionExpireTime is the default option record lifetime in seconds
// of header time.
const DefaultOptionExpireTime = 15 * 60

// Store is the per-exporter cache. Templates are gated by header-timestamp
// monotonicity; option records and sampling rates are last-write-wins.
// Option and sampling maps are read by accessors on potentially concurrent
// packets and are guarded by their own locks.
type Store struct {
	templatesMu sync.RWMutex
	templates   map[TemplateKey]*netflow9.Template

	optionsMu sync.Mutex
	options   map[DeviceID]*netflow9.OptionRecord

	ratesMu       sync.RWMutex
	rates         map[SamplerKey]uint32
	exporterRates map[ExporterSamplerKey]uint32

	mem ledger

	templateExpireTime atomic.Uint32
	optionExpireTime   atomic.Uint32

	missingTemplates atomic.Uint64
	expiredObjects   atomic.Uint64
}

// New creates an empty store with default expiry times and no memory limit.
func New() *Store {
	s := &Store{
		templates:     make(map[TemplateKey]*netflow9.Template),
		options:       make(map[DeviceID]*netflow9.OptionRecord),
		rates:         make(map[SamplerKey]uint32),
		exporterRates: make(map[ExporterSamplerKey]uint32),
	}

	s.templateExpireTime.Store(DefaultTemplateExpireTime)
	s.optionExpireTime.Store(DefaultOptionExpireTime)
	return s
}

// SetMaxMemoryUsage sets the memory ceiling in bytes. Zero means unlimited.
func (s *Store) SetMaxMemoryUsage(n uint64) {
	s.mem.setLimit(n)
}

// SetTemplateExpireTime sets the template lifetime in seconds of header
// time.
func (s *Store) SetTemplateExpireTime(seconds uint32) {
	s.templateExpireTime.Store(seconds)
}

// SetOptionExpireTime sets the option record lifetime in seconds of header
// time.
func (s *Store) SetOptionExpireTime(seconds uint32) {
	s.optionExpireTime.Store(seconds)
}

// MemoryUsage returns the bytes currently charged to the ledger.
func (s *Store) MemoryUsage() uint64 {
	return s.mem.current()
}

// MissingTemplateErrors returns how many data flowsets arrived without a
// matching template.
func (s *Store) MissingTemplateErrors() uint64 {
	return s.missingTemplates.Load()
}

// ExpiredObjects returns how many templates and option records have been
// evicted because they aged out.
func (s *Store) ExpiredObjects() uint64 {
	return s.expiredObjects.Load()
}

// NumTemplates returns the number of cached templates.
func (s *Store) NumTemplates() int {
	s.templatesMu.RLock()
	defer s.templatesMu.RUnlock()

	return len(s.templates)
}

// SaveTemplate installs tmpl under key with headerTS as its timestamp. A
// template with total length zero is malformed. If a newer template is
// already stored under key the call is a no-op and succeeds. If the memory
// ceiling refuses the allocation, one expiry sweep over the template map is
// performed and the allocation retried once.
func (s *Store) SaveTemplate(key TemplateKey, tmpl *netflow9.Template, headerTS uint32) error {
	if tmpl.TotalLength == 0 {
		return errors.Wrap(ErrMalformed, "template with zero record length")
	}

	s.templatesMu.Lock()
	defer s.templatesMu.Unlock()

	if old, ok := s.templates[key]; ok && old.Timestamp > headerTS {
		return nil
	}

	size := tmpl.Size()
	if err := s.mem.allocate(size); err != nil {
		if s.expireTemplates(headerTS) == 0 {
			return err
		}
		if err := s.mem.allocate(size); err != nil {
			return err
		}
	}

	// The sweep above may have evicted the entry being replaced, so look
	// it up again before releasing its bytes.
	if old, ok := s.templates[key]; ok {
		s.mem.release(old.Size())
	}

	tmpl.Timestamp = headerTS
	s.templates[key] = tmpl
	return nil
}

// LookupTemplate returns the template stored under key. A missing template
// counts as a missing-template error. A template older than the expire time
// relative to headerTS is evicted and reported as outdated.
func (s *Store) LookupTemplate(key TemplateKey, headerTS uint32) (*netflow9.Template, error) {
	s.templatesMu.Lock()
	defer s.templatesMu.Unlock()

	tmpl, ok := s.templates[key]
	if !ok {
		s.missingTemplates.Add(1)
		return nil, ErrNotFound
	}

	if headerTS > tmpl.Timestamp && headerTS-tmpl.Timestamp > s.templateExpireTime.Load() {
		delete(s.templates, key)
		s.mem.release(tmpl.Size())
		s.expiredObjects.Add(1)
		return nil, ErrOutdated
	}

	return tmpl, nil
}

// SaveOption replaces the option record stored for dev. The allocation
// protocol is the same as for templates, sweeping the option map with the
// option expire time.
func (s *Store) SaveOption(dev DeviceID, rec *netflow9.OptionRecord) error {
	s.optionsMu.Lock()
	defer s.optionsMu.Unlock()

	size := rec.Size()
	if err := s.mem.allocate(size); err != nil {
		if s.expireOptions(rec.Timestamp) == 0 {
			return err
		}
		if err := s.mem.allocate(size); err != nil {
			return err
		}
	}

	if old, ok := s.options[dev]; ok {
		s.mem.release(old.Size())
	}

	s.options[dev] = rec
	return nil
}

// GetOption returns a copy of the value of the given field from the current
// option record of dev.
func (s *Store) GetOption(dev DeviceID, id netflow9.FieldID) ([]byte, error) {
	s.optionsMu.Lock()
	defer s.optionsMu.Unlock()

	rec, ok := s.options[dev]
	if !ok {
		return nil, ErrNotFound
	}

	v := netflow9.Lookup(rec.Fields, id)
	if v == nil {
		return nil, ErrNotFound
	}

	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

// SaveSamplingRate stores rate under both sampler keyings. Updates
// overwrite.
func (s *Store) SaveSamplingRate(dev DeviceID, samplerID uint32, rate uint32) {
	s.ratesMu.Lock()
	defer s.ratesMu.Unlock()

	s.rates[SamplerKey{Device: dev, SamplerID: samplerID}] = rate
	s.exporterRates[ExporterSamplerKey{Exporter: dev.Exporter, SamplerID: samplerID}] = rate
}

// SamplingRate looks up the rate under the primary keying.
func (s *Store) SamplingRate(dev DeviceID, samplerID uint32) (uint32, bool) {
	s.ratesMu.RLock()
	defer s.ratesMu.RUnlock()

	rate, ok := s.rates[SamplerKey{Device: dev, SamplerID: samplerID}]
	return rate, ok
}

// ExporterSamplingRate looks up the rate under the fallback keying that
// ignores the source ID.
func (s *Store) ExporterSamplingRate(exp Exporter, samplerID uint32) (uint32, bool) {
	s.ratesMu.RLock()
	defer s.ratesMu.RUnlock()

	rate, ok := s.exporterRates[ExporterSamplerKey{Exporter: exp, SamplerID: samplerID}]
	return rate, ok
}

// expireTemplates evicts all templates whose timestamp is at or before
// now minus the template expire time. The caller holds templatesMu.
func (s *Store) expireTemplates(now uint32) int {
	var cutoff uint32
	if expire := s.templateExpireTime.Load(); now > expire {
		cutoff = now - expire
	}

	deleted := 0
	for k, t := range s.templates {
		if t.Timestamp <= cutoff {
			delete(s.templates, k)
			s.mem.release(t.Size())
			s.expiredObjects.Add(1)
			deleted++
		}
	}

	return deleted
}

// expireOptions evicts all option records whose timestamp is at or before
// now minus the option expire time. The caller holds optionsMu.
func (s *Store) expireOptions(now uint32) int {
	var cutoff uint32
	if expire := s.optionExpireTime.Load(); now > expire {
		cutoff = now - expire
	}

	deleted := 0
	for k, o := range s.options {
		if o.Timestamp <= cutoff {
			delete(s.options, k)
			s.mem.release(o.Size())
			s.expiredObjects.Add(1)
			deleted++
		}
	}

	return deleted
}
