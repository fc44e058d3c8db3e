package dlibra

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/wikimedia-pl/mbckit/feeds"
	"github.com/wikimedia-pl/mbckit/schema/oaidc"
	"github.com/wikimedia-pl/mbckit/xmltree"
)

// maxDocumentSize limits how much of a presentation data or RDF response is
// read into memory.
const maxDocumentSize = 8 << 20

// ResolveMode selects how the presentation data document is located.
type ResolveMode int

const (
	// ResolvePresentationData derives
	// https://<host>/Content/<id>/PresentationData.xml from the identifier.
	ResolvePresentationData ResolveMode = iota
	// ResolveIdentifierField takes the /Content/<id> link from the Dublin Core
	// identifier field, as older dLibra instances advertise it.
	ResolveIdentifierField
)

// Resolver finds the URL of the binary content of a record.
type Resolver struct {
	Client feeds.Doer
	// Scheme for derived URLs, defaults to https.
	Scheme string
	Mode   ResolveMode
}

func (r *Resolver) scheme() string {
	if r.Scheme == "" {
		return "https"
	}
	return r.Scheme
}

// ContentBaseURL returns https://<host>/Content/<id>.
func (r *Resolver) ContentBaseURL(host string, id int) string {
	return fmt.Sprintf("%s://%s/Content/%d", r.scheme(), host, id)
}

// PresentationDataURL returns the URL of the XML document describing which
// files realize a record, e.g.
// https://mbc.cyfrowemazowsze.pl/Content/59154/PresentationData.xml
func (r *Resolver) PresentationDataURL(host string, id int) string {
	return r.ContentBaseURL(host, id) + "/PresentationData.xml"
}

// ResolveContentURL returns the URL of the image of a record. If the server
// answers with presentation data, the full-image file name is joined onto the
// content base URL. If it answers with an image, the request was redirected to
// the binary itself and the final URL is returned. Anything else is
// ErrNoContent.
func (r *Resolver) ResolveContentURL(ctx context.Context, record *oaidc.Record) (string, error) {
	base, docURL, err := r.locate(record)
	if err != nil {
		return "", err
	}
	logger := log.WithFields(log.Fields{"id": record.Header.Identifier, "url": docURL})
	logger.Debug("fetching presentation data")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, docURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := r.Client.Do(req)
	if err != nil {
		return "", &NetworkError{URL: docURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return "", &NetworkError{URL: docURL, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}
	contentType := resp.Header.Get("Content-Type")
	if strings.HasPrefix(strings.ToLower(contentType), "image/") {
		// e.g. https://mbc.cyfrowemazowsze.pl/Content/54192/Galeria/00059118-0001.jpg
		finalURL := docURL
		if resp.Request != nil && resp.Request.URL != nil {
			finalURL = resp.Request.URL.String()
		}
		logger.WithField("content_url", finalURL).Debug("redirected to image")
		return finalURL, nil
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return "", &NetworkError{URL: docURL, Err: err}
	}
	root, err := xmltree.Parse(b)
	if err != nil {
		logger.WithFields(log.Fields{
			"status":       resp.StatusCode,
			"content_type": contentType,
		}).Warn("no XML found")
		return "", ErrNoContent
	}
	node := root.Find("full-image")
	if node == nil || strings.TrimSpace(node.Text) == "" {
		return "", fmt.Errorf("%s: %w", docURL, ErrNoFullImage)
	}
	// 00064995_0000.jpg
	contentURL := base + "/" + strings.TrimSpace(node.Text)
	logger.WithField("content_url", contentURL).Debug("resolved content url")
	return contentURL, nil
}

// locate returns the content base URL and the URL to request.
func (r *Resolver) locate(record *oaidc.Record) (base, docURL string, err error) {
	switch r.Mode {
	case ResolveIdentifierField:
		for _, v := range record.URLs() {
			if strings.Contains(v, "/Content/") {
				base = strings.TrimRight(v, "/")
				return base, base, nil
			}
		}
		return "", "", ErrNoContent
	default:
		host, id, err := ParseIdentifier(record.Header.Identifier)
		if err != nil {
			return "", "", err
		}
		return r.ContentBaseURL(host, id), r.PresentationDataURL(host, id), nil
	}
}
