// Package records defines the shapes handed from the extractor to the store.
package records

import "strings"

// Ascendancy is a character specialization, identified by its display name.
type Ascendancy struct {
	Name string
}

// Gem is a skill gem with its tags in page order and the link to its page.
type Gem struct {
	Name string
	Tags []string
	// Link is empty when the page did not provide one.
	Link string
}

// TagText is the comma-delimited form tags are stored and matched in.
func (g Gem) TagText() string {
	return strings.Join(g.Tags, ", ")
}

// ParseTags splits comma-delimited tag text, trimming each piece and
// dropping empty ones. Order is preserved.
func ParseTags(text string) []string {
	var tags []string
	for _, piece := range strings.Split(text, ",") {
		piece = strings.TrimSpace(piece)
		if piece == "" {
			continue
		}
		tags = append(tags, piece)
	}
	return tags
}

// AscendancyNames returns the names in order.
func AscendancyNames(list []Ascendancy) []string {
	names := make([]string, len(list))
	for i, a := range list {
		names[i] = a.Name
	}
	return names
}
