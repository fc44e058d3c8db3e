package classify

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Entry maps a subject tag to an additional Commons category.
type Entry struct {
	Tag      string `yaml:"tag"`
	Category string `yaml:"category"`
}

// Table is an ordered list of tag to category entries.
type Table []Entry

// DefaultTable lists the topic categories of the Mazovian Digital Library, see
// https://commons.wikimedia.org/wiki/Category:Media_contributed_by_the_Mazovian_Digital_Library_by_topic
var DefaultTable = Table{
	{
		Tag:      "Portrety - Polska - 19-20 w.",
		Category: "Media contributed by the Mazovian Digital Library (Portrety XIX wiek)",
	},
	{
		Tag:      "Warszawa - służba zdrowia - 19 w.",
		Category: "Media contributed by the Mazovian Digital Library (służba zdrowia)",
	},
}

// Categories returns the categories of all entries whose tag is one of tags,
// in table order and without duplicates.
func (t Table) Categories(tags []string) []string {
	var result []string
	for _, e := range t {
		if !slices.Contains(tags, e.Tag) {
			continue
		}
		if slices.Contains(result, e.Category) {
			continue
		}
		result = append(result, e.Category)
	}
	return result
}

// Merge returns a new table with the entries of other appended.
func (t Table) Merge(other Table) Table {
	return append(slices.Clone(t), other...)
}

// LoadTable reads entries from a YAML file, which contains a list like:
//
//	- tag: "Portrety - Polska - 19-20 w."
//	  category: "Media contributed by the Mazovian Digital Library (Portrety XIX wiek)"
func LoadTable(filename string) (Table, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	var table Table
	if err := yaml.Unmarshal(b, &table); err != nil {
		return nil, fmt.Errorf("category table %s: %w", filename, err)
	}
	for i, e := range table {
		if e.Tag == "" || e.Category == "" {
			return nil, fmt.Errorf("category table %s: entry %d needs tag and category", filename, i)
		}
	}
	return table, nil
}
