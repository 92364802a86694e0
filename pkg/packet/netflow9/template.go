package netflow9

// TemplateField is one entry of a template: a field identifier and the
// number of bytes the field occupies in a data record.
type TemplateField struct {
	ID     FieldID
	Length uint16
}

// Template is the decoding recipe for data records sharing its template ID.
// Scope fields of options templates carry the scope bit in their ID.
type Template struct {
	Fields []TemplateField

	// TotalLength is the sum of all field lengths, i.e. the wire size of
	// one data record described by this template.
	TotalLength int

	// Timestamp is the header timestamp of the packet that most recently
	// defined this template.
	Timestamp uint32

	// IsOptions marks templates defined by an options template flowset.
	IsOptions bool
}

// Per-entry cost model for the memory ledger. The ledger does not measure
// the allocator; it charges a deterministic estimate so that the memory
// ceiling is enforceable and testable.
const (
	templateOverhead     = 48
	templateFieldCost    = 8
	optionRecordOverhead = 48
	optionFieldCost      = 24
)

// Size returns the number of bytes the template is charged against the
// memory ledger.
func (t *Template) Size() int {
	return templateOverhead + templateFieldCost*len(t.Fields)
}

// OptionRecord is the latest set of option values reported by one exporter
// device: a snapshot of the fields of the most recent options data record.
type OptionRecord struct {
	Fields []RecordField

	// Timestamp is the header timestamp of the packet that carried the
	// record.
	Timestamp uint32
}

// RecordField is one field of a decoded record: the field identifier from
// the template and the raw value bytes in network order, as on the wire.
type RecordField struct {
	ID    FieldID
	Value []byte
}

// Size returns the number of bytes the option record is charged against the
// memory ledger.
func (o *OptionRecord) Size() int {
	n := optionRecordOverhead
	for i := range o.Fields {
		n += optionFieldCost + len(o.Fields[i].Value)
	}
	return n
}

// Lookup returns the value of the given field, or nil if the record does
// not carry it. Later occurrences win if a template listed a field twice.
func Lookup(fields []RecordField, id FieldID) []byte {
	for i := len(fields) - 1; i >= 0; i-- {
		if fields[i].ID == id {
			return fields[i].Value
		}
	}
	return nil
}
