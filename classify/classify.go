// Package classify maps the free-form type and subject values of a record to
// the vocabulary used on Wikimedia Commons.
package classify

import (
	"slices"
	"strings"
)

const (
	MediumPhotography = "black and white photography"
	MediumWoodcut     = "woodcut"
	MediumLithography = "lithography"
	MediumDrawing     = "drawing"
)

// Medium returns a label for the medium of a record, or the empty string, if
// the raw type is not one we can classify. Tags are checked in order, a
// woodcut wins over a lithography.
func Medium(mediumRaw string, tags []string) string {
	switch mediumRaw {
	case "fotografia":
		return MediumPhotography
	case "grafika":
		switch {
		case anyContains(tags, "Drzeworyt"):
			return MediumWoodcut
		case anyContains(tags, "Litografia"):
			return MediumLithography
		default:
			return MediumDrawing
		}
	default:
		return ""
	}
}

func anyContains(tags []string, s string) bool {
	return slices.ContainsFunc(tags, func(tag string) bool {
		return strings.Contains(tag, s)
	})
}
