package feeds

import (
	"context"
	"encoding/xml"
	"fmt"
	"iter"
	"net/http"
	"net/url"

	log "github.com/sirupsen/logrus"
	"github.com/wikimedia-pl/mbckit/schema/oaidc"
	"golang.org/x/net/html/charset"
)

// DefaultMetadataPrefix is the only format dLibra reliably serves.
const DefaultMetadataPrefix = "oai_dc"

// OAIError is an error reported by the repository inside a valid OAI-PMH
// response.
type OAIError struct {
	Code    string
	Message string
}

func (e *OAIError) Error() string {
	return fmt.Sprintf("oai: %s: %s", e.Code, e.Message)
}

// Harvester pages through a ListRecords response of a single set.
type Harvester struct {
	Client         Doer
	Endpoint       string
	Set            string
	MetadataPrefix string
}

// Records yields records in repository order, following resumption tokens
// until the last page. An error ends the sequence; noRecordsMatch is treated
// as an empty set.
func (h *Harvester) Records(ctx context.Context) iter.Seq2[*oaidc.Record, error] {
	return func(yield func(*oaidc.Record, error) bool) {
		prefix := h.MetadataPrefix
		if prefix == "" {
			prefix = DefaultMetadataPrefix
		}
		vs := url.Values{}
		vs.Set("verb", "ListRecords")
		vs.Set("metadataPrefix", prefix)
		if h.Set != "" {
			vs.Set("set", h.Set)
		}
		var page int
		for {
			page++
			resp, err := h.fetch(ctx, vs)
			if err != nil {
				if e, ok := err.(*OAIError); ok && e.Code == "noRecordsMatch" {
					return
				}
				yield(nil, err)
				return
			}
			records := resp.ListRecords.Records
			token := resp.ListRecords.ResumptionToken
			log.WithFields(log.Fields{
				"page":    page,
				"records": len(records),
				"total":   token.CompleteListSize,
				"cursor":  token.Cursor,
			}).Debug("oai page")
			for i := range records {
				if !yield(&records[i], nil) {
					return
				}
			}
			if token.Value == "" {
				return
			}
			vs = url.Values{}
			vs.Set("verb", "ListRecords")
			vs.Set("resumptionToken", token.Value)
		}
	}
}

func (h *Harvester) fetch(ctx context.Context, vs url.Values) (*oaidc.Response, error) {
	link := fmt.Sprintf("%s?%s", h.Endpoint, vs.Encode())
	log.WithField("url", link).Debug("fetching oai page")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oai: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oai: HTTP %d while fetching %s", resp.StatusCode, link)
	}
	var or oaidc.Response
	dec := xml.NewDecoder(resp.Body)
	dec.CharsetReader = charset.NewReaderLabel
	if err := dec.Decode(&or); err != nil {
		return nil, fmt.Errorf("oai: decode: %w", err)
	}
	if or.Error != nil {
		return nil, &OAIError{Code: or.Error.Code, Message: or.Error.Message}
	}
	return &or, nil
}
