package dlibra

import (
	"slices"
)

// Record is a harvested record, resolved and enriched, ready to be published.
type Record struct {
	RecordID       string   `json:"record_id"` // oai:mbc.cyfrowemazowsze.pl:59990
	SourceID       string   `json:"source_id"` // mbc.cyfrowemazowsze.pl
	Title          string   `json:"title"`
	MediumRaw      string   `json:"medium_raw"` // grafika, fotografia, ...
	Date           string   `json:"date"`
	ContentURL     string   `json:"content_url"`
	Tags           []string `json:"tags"`
	Creator        string   `json:"creator,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	SourceCitation string   `json:"source_citation,omitempty"`
}

// NumericID derives the numeric id from the record id, e.g.
// oai:mbc.cyfrowemazowsze.pl:59990 -> 59990.
func (r *Record) NumericID() (int, error) {
	_, id, err := ParseIdentifier(r.RecordID)
	return id, err
}

// HasTag reports exact membership of a tag.
func (r *Record) HasTag(tag string) bool {
	_, ok := slices.BinarySearch(r.Tags, tag)
	return ok
}

// sortedSet deduplicates and sorts values; never returns nil.
func sortedSet(values []string) []string {
	result := make([]string, 0, len(values))
	result = append(result, values...)
	slices.Sort(result)
	return slices.Compact(result)
}

// Status of a single record after assembly.
type Status int

const (
	StatusAssembled Status = iota
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusAssembled:
		return "assembled"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Result is the outcome for one raw record. Record is set only if the record
// was fully assembled; Err carries the skip reason or the failure.
type Result struct {
	Identifier string
	Status     Status
	Record     *Record
	Err        error
}

// NewResult classifies the outcome of an assembly.
func NewResult(identifier string, record *Record, err error) Result {
	switch {
	case err == nil:
		return Result{Identifier: identifier, Status: StatusAssembled, Record: record}
	case IsSkip(err):
		return Result{Identifier: identifier, Status: StatusSkipped, Err: err}
	default:
		return Result{Identifier: identifier, Status: StatusFailed, Err: err}
	}
}
