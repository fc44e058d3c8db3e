package dlibra

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/wikimedia-pl/mbckit/feeds"
	"github.com/wikimedia-pl/mbckit/xmltree"
)

// Enricher fetches the RDF description of a record, which is richer than the
// Dublin Core served over OAI-PMH.
type Enricher struct {
	Client feeds.Doer
	// Scheme is used for hosts given without one, defaults to https.
	Scheme string
	// Namespaces to strip from field names, defaults to
	// xmltree.DefaultNamespaces.
	Namespaces xmltree.NamespaceTable
}

// RdfURL returns the RDF document location, e.g.
// https://mbc.cyfrowemazowsze.pl/dlibra/rdf.xml?type=e&id=77150
func (e *Enricher) RdfURL(host string, id int) string {
	server := strings.TrimRight(host, "/")
	if !strings.Contains(server, "://") {
		scheme := e.Scheme
		if scheme == "" {
			scheme = "https"
		}
		server = scheme + "://" + server
	}
	return fmt.Sprintf("%s/dlibra/rdf.xml?type=e&id=%d", server, id)
}

// FetchFields fetches and parses the RDF document of a record. The returned
// sequence yields (field, value) pairs of the record description in document
// order, e.g. ("relation", "Kłosy. 1886, t.43 nr 1105 s. 149"). The document
// is parsed completely before FetchFields returns, so a broken document never
// yields partial data.
func (e *Enricher) FetchFields(ctx context.Context, host string, id int) (iter.Seq2[string, string], error) {
	link := e.RdfURL(host, id)
	log.WithField("url", link).Debug("fetching rdf")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	resp, err := e.Client.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: link, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return nil, &NetworkError{URL: link, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, &NetworkError{URL: link, Err: err}
	}
	root, err := xmltree.Parse(b)
	if err != nil {
		return nil, &RdfFetchError{URL: link, Err: err}
	}
	description := root.FirstChild()
	if description == nil {
		return nil, &RdfFetchError{URL: link, Err: errors.New("no record description")}
	}
	ns := e.Namespaces
	if ns == nil {
		ns = xmltree.DefaultNamespaces
	}
	return func(yield func(string, string) bool) {
		for _, field := range description.Children {
			if !yield(ns.Tag(field.Name), strings.TrimSpace(field.Text)) {
				return
			}
		}
	}, nil
}
