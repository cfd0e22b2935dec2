package htmlutil

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// GetText concatenates every text node under node.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) || unicode.IsSpace(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

// CleanText strips non-printable runes, trims the ends and collapses runs of
// whitespace into a single space.
func CleanText(s string) string {
	s = removeNonPrintable(s)
	s = strings.TrimSpace(s)
	return innerWhitespace.ReplaceAllString(s, " ")
}

// Text is CleanText over the text of every node in the selection.
func Text(sel *goquery.Selection) string {
	var buffer bytes.Buffer
	for _, n := range sel.Nodes {
		getTextRecursive(n, &buffer)
	}
	return CleanText(buffer.String())
}

var ErrNoAnchor = errors.New("no anchor element")

type Anchor struct {
	Name string
	// Url is nil when the anchor has no href.
	Url *url.URL
}

// GetAnchor reads the first node of sel as an anchor, resolving its href against base.
func GetAnchor(base *url.URL, sel *goquery.Selection) (Anchor, error) {
	if sel.Length() == 0 {
		return Anchor{}, ErrNoAnchor
	}
	first := sel.First()

	anchor := Anchor{Name: Text(first)}
	href, exists := first.Attr("href")
	href = strings.TrimSpace(href)
	if !exists || href == "" {
		return anchor, nil
	}

	link, err := url.Parse(href)
	if err != nil {
		return anchor, fmt.Errorf("parse href %q: %w", href, err)
	}
	if base != nil {
		link = base.ResolveReference(link)
	}
	anchor.Url = link
	return anchor, nil
}
