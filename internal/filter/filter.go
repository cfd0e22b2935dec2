// Package filter holds the include/exclude tag rules a roll is filtered by.
package filter

import (
	"fmt"
	"strings"

	"github.com/antzucaro/matchr"
)

type Kind int

const (
	Include Kind = iota
	Exclude
)

func (k Kind) String() string {
	switch k {
	case Include:
		return "include"
	case Exclude:
		return "exclude"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// ParseKind accepts "include", "+", "exclude" and "-", case insensitive.
func ParseKind(text string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "include", "+":
		return Include, nil
	case "exclude", "-":
		return Exclude, nil
	}
	return 0, fmt.Errorf("unknown filter kind %q", text)
}

type Rule struct {
	Tag  string
	Kind Kind
}

// Rules is an ordered set of rules, a tag appears in at most one rule.
type Rules struct {
	list []Rule
}

func (r *Rules) index(tag string) int {
	for i, rule := range r.list {
		if rule.Tag == tag {
			return i
		}
	}
	return -1
}

// Add appends a rule for tag, reporting false if the tag is blank or
// already has a rule.
func (r *Rules) Add(tag string, kind Kind) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" || r.index(tag) >= 0 {
		return false
	}
	r.list = append(r.list, Rule{Tag: tag, Kind: kind})
	return true
}

func (r *Rules) Remove(tag string) bool {
	i := r.index(strings.TrimSpace(tag))
	if i < 0 {
		return false
	}
	r.list = append(r.list[:i], r.list[i+1:]...)
	return true
}

func (r *Rules) Clear() {
	r.list = nil
}

func (r *Rules) tags(kind Kind) []string {
	var out []string
	for _, rule := range r.list {
		if rule.Kind == kind {
			out = append(out, rule.Tag)
		}
	}
	return out
}

func (r *Rules) Include() []string {
	return r.tags(Include)
}

func (r *Rules) Exclude() []string {
	return r.tags(Exclude)
}

func (r *Rules) List() []Rule {
	out := make([]Rule, len(r.list))
	copy(out, r.list)
	return out
}

func (r *Rules) Len() int {
	return len(r.list)
}

const suggestionThreshold = 0.8

// Unknown is a rule tag that no known tag contains.
type Unknown struct {
	Rule Rule
	// Suggestion is the closest known tag, empty if nothing is close.
	Suggestion string
}

func (u Unknown) String() string {
	if u.Suggestion == "" {
		return fmt.Sprintf("unknown tag %q", u.Rule.Tag)
	}
	return fmt.Sprintf("unknown tag %q, did you mean %q?", u.Rule.Tag, u.Suggestion)
}

// Validate returns the rules that cannot match any of the known tags.
// A rule matches if its tag is a substring of a known tag.
func (r *Rules) Validate(known []string) []Unknown {
	var unknown []Unknown
	for _, rule := range r.list {
		found := false
		for _, tag := range known {
			if strings.Contains(tag, rule.Tag) {
				found = true
				break
			}
		}
		if found {
			continue
		}

		var mostSimilarity float64
		var mostSimilar string
		for _, tag := range known {
			similarity := matchr.JaroWinkler(rule.Tag, tag, false)
			if similarity > mostSimilarity {
				mostSimilarity = similarity
				mostSimilar = tag
			}
		}
		if mostSimilarity < suggestionThreshold {
			mostSimilar = ""
		}
		unknown = append(unknown, Unknown{Rule: rule, Suggestion: mostSimilar})
	}
	return unknown
}
