// Package dlibra resolves and enriches records harvested from dLibra
// digital libraries (http://dingo.psnc.pl/).
package dlibra

import (
	"strconv"
	"strings"
)

// ParseIdentifier splits an OAI identifier like
// oai:mbc.cyfrowemazowsze.pl:59154 into the source host and the numeric
// record id.
func ParseIdentifier(identifier string) (host string, id int, err error) {
	parts := strings.Split(identifier, ":")
	if len(parts) < 3 {
		return "", 0, &MalformedIdentifierError{Identifier: identifier, Reason: "too few segments"}
	}
	host, last := parts[1], parts[len(parts)-1]
	if host == "" {
		return "", 0, &MalformedIdentifierError{Identifier: identifier, Reason: "empty host"}
	}
	if last == "" || strings.TrimLeft(last, "0123456789") != "" {
		return "", 0, &MalformedIdentifierError{Identifier: identifier, Reason: "non-numeric id"}
	}
	id, err = strconv.Atoi(last)
	if err != nil {
		return "", 0, &MalformedIdentifierError{Identifier: identifier, Reason: err.Error()}
	}
	return host, id, nil
}
