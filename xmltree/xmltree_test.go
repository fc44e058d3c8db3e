package xmltree

import (
	"encoding/xml"
	"fmt"
	"strings"
	"testing"
)

const presentationData = `<?xml version="1.0" encoding="UTF-8" standalone="no"?>
<object-presentation>
<presentation-elements>
<presentation-element position="0">
<full-image><![CDATA[00064995_0000.jpg]]></full-image>
</presentation-element>
<presentation-element position="1">
<full-image><![CDATA[00064995_0001.jpg]]></full-image>
</presentation-element>
</presentation-elements>
</object-presentation>`

func TestParseFind(t *testing.T) {
	root, err := Parse([]byte(presentationData))
	if err != nil {
		t.Fatal(err)
	}
	if root.Name.Local != "object-presentation" {
		t.Errorf("got root %q, want object-presentation", root.Name.Local)
	}
	n := root.Find("full-image")
	if n == nil {
		t.Fatal("full-image not found")
	}
	if n.Text != "00064995_0000.jpg" {
		t.Errorf("got %q, want first image by document order", n.Text)
	}
	if root.Find("missing") != nil {
		t.Errorf("expected nil for missing element")
	}
	pe := root.FirstChild().FirstChild()
	if v, ok := pe.AttrValue("position"); !ok || v != "0" {
		t.Errorf("got position %q (%v), want 0", v, ok)
	}
}

func TestParseNested(t *testing.T) {
	// Enough open elements to grow the internal stacks several times.
	var sb strings.Builder
	depth := 40
	for i := 0; i < depth; i++ {
		fmt.Fprintf(&sb, "%s<level n=\"%d\">\n", strings.Repeat("  ", i), i)
	}
	sb.WriteString("<full-image><![CDATA[00064692_0000.jpg]]></full-image>\n")
	for i := depth - 1; i >= 0; i-- {
		fmt.Fprintf(&sb, "%s</level>\n", strings.Repeat("  ", i))
	}
	root, err := Parse([]byte(sb.String()))
	if err != nil {
		t.Fatal(err)
	}
	n := root.Find("full-image")
	if n == nil || n.Text != "00064692_0000.jpg" {
		t.Fatalf("got %v, want full-image 00064692_0000.jpg", n)
	}
	var count int
	for range root.Descendants() {
		count++
	}
	if count != depth {
		t.Errorf("got %d descendants, want %d", count, depth)
	}
}

func TestParseRDFDescription(t *testing.T) {
	doc := `<?xml version="1.0" encoding="UTF-8"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <rdf:Description rdf:about="https://mbc.cyfrowemazowsze.pl/dlibra/publication/edition/77150">
    <dc:title xml:lang="pl">Widok</dc:title>
    <dc:relation xml:lang="pl">Kłosy. 1886, t.43 nr 1105 s. 149</dc:relation>
    <dc:description xml:lang="pl">1 grafika : drzewor. ; 11,2x13,8 cm</dc:description>
  </rdf:Description>
</rdf:RDF>`
	root, err := Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, c := range root.FirstChild().Children {
		got = append(got, c.Name.Local+"="+c.Text)
	}
	want := "title=Widok relation=Kłosy. 1886, t.43 nr 1105 s. 149 description=1 grafika : drzewor. ; 11,2x13,8 cm"
	if strings.Join(got, " ") != want {
		t.Errorf("got %v, want %s", got, want)
	}
}

func TestParseLegacyCharset(t *testing.T) {
	// "Kłosy, Warszawa, Łódź" in ISO-8859-2.
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-2\"?>\n" +
		"<rdf><d><relation>K\xb3osy, Warszawa, \xa3\xf3d\xbc</relation></d></rdf>"
	root, err := Parse([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	n := root.Find("relation")
	if n == nil || n.Text != "Kłosy, Warszawa, Łódź" {
		t.Errorf("got %v, want decoded text", n)
	}
}

func TestParseFails(t *testing.T) {
	var cases = []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace", "  \n "},
		{"binary", "\xff\xd8\xff\xe0\x00\x10JFIF"},
		{"html", "<!DOCTYPE html><html><body><br></body></html>"},
		{"unclosed", "<a><b></a>"},
		{"two roots", "<a/><b/>"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := Parse([]byte(c.input)); err == nil {
				t.Errorf("expected error for %q", c.input)
			}
		})
	}
}

func TestNamespaceTableTag(t *testing.T) {
	table := NamespaceTable{
		DublinCore: "",
		"urn:x":    "x",
	}
	var cases = []struct {
		name xml.Name
		want string
	}{
		{xml.Name{Space: DublinCore, Local: "relation"}, "relation"},
		{xml.Name{Space: "urn:x", Local: "thing"}, "x:thing"},
		{xml.Name{Space: "urn:other", Local: "thing"}, "{urn:other}thing"},
		{xml.Name{Local: "plain"}, "plain"},
	}
	for _, c := range cases {
		if got := table.Tag(c.name); got != c.want {
			t.Errorf("got %q, want %q", got, c.want)
		}
	}
}
