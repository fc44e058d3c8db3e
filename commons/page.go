package commons

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"text/template"

	"github.com/wikimedia-pl/mbckit/classify"
	"github.com/wikimedia-pl/mbckit/dlibra"
	"github.com/wikimedia-pl/mbckit/normal"
)

// DefaultComment is the edit summary of an upload.
const DefaultComment = "Import MBC content"

// BaseCategories are added to every file page.
var BaseCategories = []string{
	"Media contributed by the Mazovian Digital Library",
	"Media contributed by the Mazovian Digital Library – needing category",
	"Uploaded with mbc-harvester",
}

var extPattern = regexp.MustCompile(`^[a-z0-9]{2,5}$`)

// FileName returns the name of the file on Commons, e.g.
// "Portret Leona Wagenfisza (73487).jpg". The extension is taken from the
// content URL and defaults to jpg.
func FileName(r *dlibra.Record) (string, error) {
	id, err := r.NumericID()
	if err != nil {
		return "", err
	}
	ext := "jpg"
	if u, err := url.Parse(r.ContentURL); err == nil {
		e := strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), "."))
		if extPattern.MatchString(e) {
			ext = e
		}
	}
	return normal.FileTitle.Normalize(fmt.Sprintf("%s (%d).%s", r.Title, id, ext)), nil
}

// pageTemplate uses <% %> delimiters, as wikitext is full of braces.
var pageTemplate = template.Must(template.New("page").Delims("<%", "%>").Parse(strings.TrimSpace(`
=={{int:filedesc}}==
{{Artwork
 |artist = <% .Record.Creator %>
 |description = {{pl|<% .Record.Title %>}}
 |date = <% .Record.Date %>
 |medium = <% .Medium %>
 |institution = {{Institution:Mazovian Digital Library}}
 |notes = <% .Record.Notes %>
 |accession number = [http://fbc.pionier.net.pl/id/<% .Record.RecordID %> <% .Record.RecordID %>]
 |source =
* https://<% .Record.SourceID %>/dlibra/docmetadata?id=<% .ID %>
<%- with .Record.SourceCitation %>
* <% . %>
<%- end %>
}}

=={{int:license-header}}==
{{PD-old-auto}}
{{Mazovian Digital Library partnership}}
<% range .Categories %>
[[Category:<% . %>]]
<%- end %>
`)))

// Page is everything rendered into a file description page.
type Page struct {
	Record     *dlibra.Record
	ID         int
	Medium     string
	Categories []string
}

// NewPage classifies a record. The medium falls back to the raw type, if it
// cannot be classified.
func NewPage(r *dlibra.Record, table classify.Table) (*Page, error) {
	id, err := r.NumericID()
	if err != nil {
		return nil, err
	}
	medium := classify.Medium(r.MediumRaw, r.Tags)
	if medium == "" {
		medium = r.MediumRaw
	}
	categories := append([]string{}, BaseCategories...)
	categories = append(categories, table.Categories(r.Tags)...)
	return &Page{
		Record:     r,
		ID:         id,
		Medium:     medium,
		Categories: categories,
	}, nil
}

// Wikitext renders the file description page.
func (p *Page) Wikitext() (string, error) {
	var sb strings.Builder
	if err := pageTemplate.Execute(&sb, p); err != nil {
		return "", err
	}
	return sb.String(), nil
}
