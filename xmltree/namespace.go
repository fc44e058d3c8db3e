package xmltree

import "encoding/xml"

// Namespace URIs seen in dLibra documents.
const (
	DublinCore      = "http://purl.org/dc/elements/1.1/"
	DublinCoreTerms = "http://purl.org/dc/terms/"
	RDFSyntax       = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
)

// NamespaceTable maps namespace URIs to the prefix used when rendering a tag
// name. An empty prefix yields the bare local name.
type NamespaceTable map[string]string

// DefaultNamespaces strips the namespaces dLibra uses for metadata fields.
var DefaultNamespaces = NamespaceTable{
	DublinCore:      "",
	DublinCoreTerms: "",
	RDFSyntax:       "",
}

// Tag renders name using the table. Names in namespaces missing from the
// table keep the {uri}local notation.
func (t NamespaceTable) Tag(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	prefix, ok := t[name.Space]
	switch {
	case !ok:
		return "{" + name.Space + "}" + name.Local
	case prefix == "":
		return name.Local
	default:
		return prefix + ":" + name.Local
	}
}
