package dlibra

import (
	"errors"
	"fmt"
)

// Skip marks a record that cannot be published for an expected reason. It is
// reported, but not counted as a failure.
type Skip struct {
	err error
}

func (s Skip) Error() string {
	return s.err.Error()
}

func (s Skip) Unwrap() error {
	return s.err
}

var (
	// ErrNoContent means neither presentation data nor an image redirect was found.
	ErrNoContent = Skip{err: errors.New("no content resolvable")}
	// ErrDeleted is a record the repository reports as deleted.
	ErrDeleted = Skip{err: errors.New("record deleted")}

	ErrMalformedIdentifier = errors.New("malformed identifier")
	ErrMissingTitle        = errors.New("record has no title")
	ErrNoFullImage         = errors.New("presentation data without full-image element")
)

// IsSkip reports whether err, or any error it wraps, is a Skip.
func IsSkip(err error) bool {
	var s Skip
	return errors.As(err, &s)
}

// MalformedIdentifierError is returned for identifiers not of the form
// oai:<host>:<digits>.
type MalformedIdentifierError struct {
	Identifier string
	Reason     string
}

func (e *MalformedIdentifierError) Error() string {
	return fmt.Sprintf("malformed identifier %q: %s", e.Identifier, e.Reason)
}

func (e *MalformedIdentifierError) Is(target error) bool {
	return target == ErrMalformedIdentifier
}

// RdfFetchError is returned if the RDF document cannot be parsed. No field of
// the document is applied in that case.
type RdfFetchError struct {
	URL string
	Err error
}

func (e *RdfFetchError) Error() string {
	return fmt.Sprintf("rdf %s: %v", e.URL, e.Err)
}

func (e *RdfFetchError) Unwrap() error {
	return e.Err
}

// NetworkError wraps a request that did not complete, or completed with a
// server error after the client gave up retrying.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
