// Package normal contains string normalizers, composable into a pipeline.
package normal

import (
	"strings"
	"unicode"
)

// Pipeline applies normalizers in order.
type Pipeline struct {
	Normalizer []Normalizer
}

func (p *Pipeline) Normalize(s string) string {
	for _, n := range p.Normalizer {
		s = n.Normalize(s)
	}
	return s
}

type Normalizer interface {
	Normalize(string) string
}

// Func adapts a plain function to a Normalizer.
type Func func(string) string

func (f Func) Normalize(s string) string {
	return f(s)
}

// RemoveCharsNormalizer drops every occurrence of the given characters.
type RemoveCharsNormalizer struct {
	Chars string
}

func (r *RemoveCharsNormalizer) Normalize(v string) string {
	return strings.Map(func(c rune) rune {
		if strings.ContainsRune(r.Chars, c) {
			return -1
		}
		return c
	}, v)
}

// CollapseWSNormalizer replaces runs of whitespace with a single space and
// trims the result.
type CollapseWSNormalizer struct{}

func (s *CollapseWSNormalizer) Normalize(v string) string {
	return strings.Join(strings.FieldsFunc(v, unicode.IsSpace), " ")
}

// ReplaceNewlineAndTab replaces newlines and tabs with a space.
func ReplaceNewlineAndTab(s string) string {
	var sb strings.Builder
	for _, c := range s {
		if c == '\n' || c == '\t' {
			sb.WriteString(" ")
		} else {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// FileTitle prepares a string for use as a wiki page title: ":", "[" and "]"
// are removed, whitespace is collapsed.
var FileTitle = &Pipeline{
	Normalizer: []Normalizer{
		Func(ReplaceNewlineAndTab),
		&RemoveCharsNormalizer{Chars: ":[]"},
		&CollapseWSNormalizer{},
	},
}
