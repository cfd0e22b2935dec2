package records

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseTags(t *testing.T) {
	testCases := []struct {
		input    string
		expected []string
	}{
		{input: "Attack, AoE, Melee", expected: []string{"Attack", "AoE", "Melee"}},
		{input: "b,c", expected: []string{"b", "c"}},
		{input: " 法術 ,, 投射物 ,", expected: []string{"法術", "投射物"}},
		{input: "", expected: nil},
		{input: " , ", expected: nil},
	}

	for _, test := range testCases {
		diff := cmp.Diff(test.expected, ParseTags(test.input))
		if diff != "" {
			t.Fatalf("ParseTags(%q): %s", test.input, diff)
		}
	}
}

func TestTagText(t *testing.T) {
	gem := Gem{Name: "Cleave", Tags: ParseTags("Attack,AoE , Melee")}
	if gem.TagText() != "Attack, AoE, Melee" {
		t.Fatalf("unexpected tag text %q", gem.TagText())
	}
	if (Gem{}).TagText() != "" {
		t.Fatal("expected empty tag text for a gem without tags")
	}
}
