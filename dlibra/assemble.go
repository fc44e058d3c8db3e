package dlibra

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/wikimedia-pl/mbckit/schema/oaidc"
)

// DefaultBoilerplateMarker identifies the institutional attribution dLibra
// puts into dc:description, e.g. "Biblioteka Publiczna m.st. Warszawy -
// Biblioteka Główna Województwa Mazowieckiego".
const DefaultBoilerplateMarker = "Biblioteka"

// Assembler turns a raw OAI record into a Record.
type Assembler struct {
	Resolver *Resolver
	Enricher *Enricher
	// BoilerplateMarker, descriptions containing it do not become notes.
	BoilerplateMarker string
}

// Assemble runs identifier parsing, content resolution, Dublin Core mapping
// and RDF enrichment for a single record. The record in the result is only
// set if all steps succeeded.
func (a *Assembler) Assemble(ctx context.Context, raw *oaidc.Record) Result {
	record, err := a.assemble(ctx, raw)
	return NewResult(raw.Header.Identifier, record, err)
}

func (a *Assembler) assemble(ctx context.Context, raw *oaidc.Record) (*Record, error) {
	identifier := raw.Header.Identifier
	host, id, err := ParseIdentifier(identifier)
	if err != nil {
		return nil, err
	}
	if raw.Header.Deleted() {
		return nil, ErrDeleted
	}
	contentURL, err := a.Resolver.ResolveContentURL(ctx, raw)
	if err != nil {
		return nil, err
	}
	if !raw.Has("title") {
		return nil, ErrMissingTitle
	}
	fields := raw.Fields()
	record := &Record{
		RecordID:   identifier,
		SourceID:   host,
		Title:      first(fields["title"]),
		MediumRaw:  first(fields["type"]), // e.g. grafika
		Date:       strings.Trim(first(fields["date"]), "[]"),
		ContentURL: contentURL,
		Tags:       sortedSet(fields["subject"]),
	}
	pairs, err := a.Enricher.FetchFields(ctx, host, id)
	if err != nil {
		return nil, err
	}
	marker := a.BoilerplateMarker
	if marker == "" {
		marker = DefaultBoilerplateMarker
	}
	for key, value := range pairs {
		if value == "" {
			continue
		}
		switch key {
		case "description":
			if !strings.Contains(value, marker) {
				record.Notes = value
			}
		case "relation":
			record.SourceCitation = value
		case "creator":
			record.Creator = value
		}
	}
	log.WithFields(log.Fields{
		"id":          identifier,
		"content_url": record.ContentURL,
		"tags":        len(record.Tags),
	}).Debug("assembled record")
	return record, nil
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
