// Package dateutil parses the dates found in OAI-PMH responses.
package dateutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// Granularity layouts an OAI-PMH repository may advertise.
const (
	DayLayout    = "2006-01-02"
	SecondLayout = "2006-01-02T15:04:05Z"
)

// Parse parses a datestamp, trying the two OAI-PMH granularities first and
// falling back to dateparse for the odd repository that does its own thing.
func Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty datestamp")
	}
	for _, layout := range []string{SecondLayout, DayLayout} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return dateparse.ParseStrict(value)
}

