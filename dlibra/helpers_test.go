package dlibra

import (
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"

	"github.com/wikimedia-pl/mbckit/schema/oaidc"
)

// fakeResponse is what fakeDoer answers for a URL. A non-empty finalURL
// simulates a followed redirect.
type fakeResponse struct {
	status      int
	contentType string
	body        string
	finalURL    string
	err         error
}

// fakeDoer routes requests by their full URL and records them.
type fakeDoer struct {
	routes   map[string]fakeResponse
	requests []string
}

func (d *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	link := req.URL.String()
	d.requests = append(d.requests, link)
	r, ok := d.routes[link]
	if !ok {
		r = fakeResponse{status: http.StatusNotFound, contentType: "text/html", body: "<html><body>not found<br></body></html>"}
	}
	if r.err != nil {
		return nil, r.err
	}
	final := req
	if r.finalURL != "" {
		u, err := url.Parse(r.finalURL)
		if err != nil {
			return nil, err
		}
		final = req.Clone(req.Context())
		final.URL = u
	}
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return &http.Response{
		StatusCode: r.status,
		Header:     http.Header{"Content-Type": []string{r.contentType}},
		Body:       io.NopCloser(strings.NewReader(r.body)),
		Request:    final,
	}, nil
}

func mustReadFile(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

// makeRecord builds a raw record from an identifier and Dublin Core
// name/value pairs.
func makeRecord(t *testing.T, identifier string, kv ...string) *oaidc.Record {
	t.Helper()
	if len(kv)%2 != 0 {
		t.Fatalf("odd number of key values")
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, `<record><header><identifier>%s</identifier></header><metadata>`, identifier)
	sb.WriteString(`<oai_dc:dc xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:oai_dc="http://www.openarchives.org/OAI/2.0/oai_dc/">`)
	for i := 0; i < len(kv); i += 2 {
		fmt.Fprintf(&sb, "<dc:%s><![CDATA[%s]]></dc:%s>", kv[i], kv[i+1], kv[i])
	}
	sb.WriteString(`</oai_dc:dc></metadata></record>`)
	var rec oaidc.Record
	if err := xml.Unmarshal([]byte(sb.String()), &rec); err != nil {
		t.Fatal(err)
	}
	return &rec
}
