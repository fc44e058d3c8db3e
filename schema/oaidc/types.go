// Package oaidc contains OAI-PMH response types for the oai_dc metadata
// format. Dublin Core elements are kept generic, since dLibra repositories
// differ in which elements they fill.
package oaidc

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/wikimedia-pl/mbckit/dateutil"
)

// Response is an OAI-PMH response envelope, reduced to what a ListRecords
// harvest needs.
type Response struct {
	XMLName      xml.Name `xml:"OAI-PMH"`
	ResponseDate string   `xml:"responseDate"`
	Request      struct {
		Verb           string `xml:"verb,attr"`
		Set            string `xml:"set,attr"`
		MetadataPrefix string `xml:"metadataPrefix,attr"`
		URL            string `xml:",chardata"`
	} `xml:"request"`
	Error       *Error `xml:"error"`
	ListRecords struct {
		Records         []Record        `xml:"record"`
		ResumptionToken ResumptionToken `xml:"resumptionToken"`
	} `xml:"ListRecords"`
}

// Error is an OAI-PMH protocol error, e.g. noRecordsMatch or badResumptionToken.
type Error struct {
	Code    string `xml:"code,attr"`
	Message string `xml:",chardata"`
}

// ResumptionToken for paginated responses; an empty token marks the last page.
type ResumptionToken struct {
	Value            string `xml:",chardata"`
	CompleteListSize int    `xml:"completeListSize,attr"`
	Cursor           int    `xml:"cursor,attr"`
}

// Record is a single harvested record.
type Record struct {
	XMLName  xml.Name `xml:"record"`
	Header   Header   `xml:"header"`
	Metadata struct {
		DC struct {
			Elements []Element `xml:",any"`
		} `xml:"dc"`
	} `xml:"metadata"`
}

// Header of a record.
type Header struct {
	Status     string   `xml:"status,attr"`
	Identifier string   `xml:"identifier"` // oai:mbc.cyfrowemazowsze.pl:59154
	Datestamp  string   `xml:"datestamp"`  // 2024-02-27T08:55:31Z
	SetSpec    []string `xml:"setSpec"`    // MDL:CD:Warwilustrpras, MDL, ...
}

// Element is a single Dublin Core element, e.g. dc:title or dc:subject.
type Element struct {
	XMLName xml.Name
	Lang    string `xml:"lang,attr"`
	Value   string `xml:",chardata"`
}

// Deleted reports whether the repository marked the record as deleted.
func (h Header) Deleted() bool {
	return h.Status == "deleted"
}

// Time parses the datestamp.
func (h Header) Time() (time.Time, error) {
	return dateutil.Parse(h.Datestamp)
}

// Fields groups the Dublin Core elements by their bare name. Values keep
// document order, absent elements are absent keys.
func (r *Record) Fields() map[string][]string {
	fields := make(map[string][]string)
	for _, e := range r.Metadata.DC.Elements {
		fields[e.XMLName.Local] = append(fields[e.XMLName.Local], e.Value)
	}
	return fields
}

// First returns the first value of a field, or the empty string.
func (r *Record) First(name string) string {
	for _, e := range r.Metadata.DC.Elements {
		if e.XMLName.Local == name {
			return e.Value
		}
	}
	return ""
}

// Has reports whether the record carries at least one element of the given name.
func (r *Record) Has(name string) bool {
	for _, e := range r.Metadata.DC.Elements {
		if e.XMLName.Local == name {
			return true
		}
	}
	return false
}

// URLs returns all identifier values that look like links.
func (r *Record) URLs() (result []string) {
	for _, v := range r.Fields()["identifier"] {
		if strings.HasPrefix(v, "http") {
			result = append(result, v)
		}
	}
	return result
}
