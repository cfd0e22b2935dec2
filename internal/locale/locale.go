// Package locale holds the language codes poedb.tw serves and composes the
// page locators the extractor loads.
package locale

import (
	"fmt"
	"net/url"
	"strings"
)

type Lang string

const (
	// Traditional Chinese
	TW Lang = "tw"
	// English
	US Lang = "us"
)

const Default = TW

const DefaultBaseUrl = "https://poedb.tw"

var supported = []Lang{TW, US}

// Supported lists every language code in display order.
func Supported() []Lang {
	return append([]Lang(nil), supported...)
}

// Parse accepts a language code case-insensitively.
func Parse(code string) (Lang, error) {
	normalized := Lang(strings.ToLower(strings.TrimSpace(code)))
	for _, l := range supported {
		if l == normalized {
			return l, nil
		}
	}
	return "", fmt.Errorf("unsupported language %q (expected one of %v)", code, supported)
}

func (l Lang) Name() string {
	switch l {
	case TW:
		return "Traditional Chinese"
	case US:
		return "English"
	}
	return string(l)
}

const (
	ascendancyPath = "Ascendancy_class"
	gemPath        = "Skill_Gems"
)

// Locator composes the two page addresses from a base address and a language.
type Locator struct {
	BaseUrl string
}

func NewLocator(baseUrl string) Locator {
	if baseUrl == "" {
		baseUrl = DefaultBaseUrl
	}
	return Locator{BaseUrl: strings.TrimRight(baseUrl, "/")}
}

func (l Locator) page(lang Lang, path string) (string, error) {
	base, err := url.Parse(l.BaseUrl)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	return base.JoinPath(string(lang), path).String(), nil
}

// Ascendancies is the class list page, ex. https://poedb.tw/tw/Ascendancy_class
func (l Locator) Ascendancies(lang Lang) (string, error) {
	return l.page(lang, ascendancyPath)
}

// Gems is the skill gem table page, ex. https://poedb.tw/us/Skill_Gems
func (l Locator) Gems(lang Lang) (string, error) {
	return l.page(lang, gemPath)
}
