// Package extractor turns the poedb.tw class list and gem table into record
// collections. Every failure to reach a page degrades to an empty result, a
// malformed gem row only costs that row.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"poeroll/internal/components/assert"
	"poeroll/internal/components/htmlutil"
	"poeroll/internal/components/telemetry"
	"poeroll/internal/locale"
	"poeroll/internal/records"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("poeroll/extractor")

const (
	report_extractor_ascendancies = "extractor.ascendancies"
	report_extractor_gems         = "extractor.gems"
	report_extractor_gem_row      = "extractor.gem-row"
	report_extractor_shutdown     = "extractor.shutdown"
)

const (
	AscendancySelector = "div.flex-grow-1 figcaption a"
	GemRowSelector     = "table.filters tbody tr"
	GemNameSelector    = "td:nth-child(2) a"
	GemTagsSelector    = ".gem_tags"
	GemTagsAttr        = "data-tags"
)

const DefaultWaitTimeout = time.Second * 10

var (
	ErrMissingName = errors.New("missing name element")
	ErrEmptyName   = errors.New("empty name")
	ErrBadLink     = errors.New("unparsable link")
)

// RowResult is the outcome of one gem table row, either a Gem or the reason
// the row was skipped.
type RowResult struct {
	// Row is the zero based index of the row in the table.
	Row int
	Gem records.Gem
	// Skip is nil when the row produced Gem.
	Skip error
}

func (r RowResult) Ok() bool {
	return r.Skip == nil
}

type Options struct {
	Lang        locale.Lang
	Locator     locale.Locator
	WaitTimeout time.Duration
}

type Extractor struct {
	session Session
	opts    Options
	tel     telemetry.API

	mutex  sync.Mutex
	closed bool
}

// New takes ownership of session, it is released by Shutdown.
func New(session Session, opts Options, tel telemetry.API) *Extractor {
	assert.NotNil(session, "session")
	assert.NotNil(tel, "telemetry")

	if opts.Lang == "" {
		opts.Lang = locale.Default
	}
	if opts.Locator.BaseUrl == "" {
		opts.Locator = locale.NewLocator("")
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = DefaultWaitTimeout
	}

	return &Extractor{
		session: session,
		opts:    opts,
		tel:     telemetry.NewScopedAPI("extractor", tel),
	}
}

func (e *Extractor) load(ctx context.Context, id, endpoint, waitSelector string) (*goquery.Document, bool) {
	e.mutex.Lock()
	closed := e.closed
	e.mutex.Unlock()
	if closed {
		e.tel.ReportWarning(id, fmt.Errorf("session already shut down"), endpoint)
		return nil, false
	}

	e.tel.ReportDebug("load", endpoint, e.session.Name())
	doc, err := e.session.Load(ctx, endpoint, waitSelector, e.opts.WaitTimeout)
	if err != nil {
		e.tel.ReportWarning(id, fmt.Errorf("load: %w", err), endpoint)
		return nil, false
	}
	return doc, true
}

// Ascendancies loads the class list and returns every distinct name in page
// order. An unreachable page yields an empty slice.
func (e *Extractor) Ascendancies(ctx context.Context) []records.Ascendancy {
	ctx, span := tracer.Start(ctx, "Ascendancies")
	defer span.End()

	endpoint, err := e.opts.Locator.Ascendancies(e.opts.Lang)
	if err != nil {
		e.tel.ReportBroken(report_extractor_ascendancies, err)
		span.SetStatus(codes.Error, err.Error())
		return nil
	}
	doc, ok := e.load(ctx, report_extractor_ascendancies, endpoint, AscendancySelector)
	if !ok {
		span.SetStatus(codes.Error, "page unavailable")
		return nil
	}

	list := ParseAscendancies(doc)
	span.SetAttributes(attribute.Int("count", len(list)))
	e.tel.ReportCount(report_extractor_ascendancies, int64(len(list)))
	return list
}

// GemRows loads the gem table and returns the result of every row,
// including skipped ones.
func (e *Extractor) GemRows(ctx context.Context) []RowResult {
	ctx, span := tracer.Start(ctx, "GemRows")
	defer span.End()

	endpoint, err := e.opts.Locator.Gems(e.opts.Lang)
	if err != nil {
		e.tel.ReportBroken(report_extractor_gems, err)
		span.SetStatus(codes.Error, err.Error())
		return nil
	}
	doc, ok := e.load(ctx, report_extractor_gems, endpoint, GemRowSelector)
	if !ok {
		span.SetStatus(codes.Error, "page unavailable")
		return nil
	}

	rows := ParseGemRows(doc)
	skipped := 0
	for _, r := range rows {
		if !r.Ok() {
			skipped++
			e.tel.ReportDebug(report_extractor_gem_row, r.Row, r.Skip)
		}
	}
	span.SetAttributes(
		attribute.Int("rows", len(rows)),
		attribute.Int("skipped", skipped),
	)
	return rows
}

// Gems is GemRows without the skipped rows.
func (e *Extractor) Gems(ctx context.Context) []records.Gem {
	gems := CollectGems(e.GemRows(ctx))
	e.tel.ReportCount(report_extractor_gems, int64(len(gems)))
	return gems
}

// Shutdown releases the session. Calling it again, or without ever
// extracting, is a no-op.
func (e *Extractor) Shutdown() error {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true

	err := e.session.Close()
	if err != nil {
		e.tel.ReportWarning(report_extractor_shutdown, err)
		return fmt.Errorf("close %s session: %w", e.session.Name(), err)
	}
	return nil
}

// ParseAscendancies reads every ascendancy name in doc, trimmed, deduplicated
// by exact match and in first-seen order.
func ParseAscendancies(doc *goquery.Document) []records.Ascendancy {
	var list []records.Ascendancy
	seen := make(map[string]struct{})

	doc.Find(AscendancySelector).Each(func(_ int, sel *goquery.Selection) {
		name := htmlutil.Text(sel)
		if name == "" {
			return
		}
		if _, dup := seen[name]; dup {
			return
		}
		seen[name] = struct{}{}
		list = append(list, records.Ascendancy{Name: name})
	})
	return list
}

// ParseGemRows parses each row of the gem table on its own.
func ParseGemRows(doc *goquery.Document) []RowResult {
	var results []RowResult
	doc.Find(GemRowSelector).Each(func(i int, row *goquery.Selection) {
		gem, err := parseGemRow(doc.Url, row)
		results = append(results, RowResult{Row: i, Gem: gem, Skip: err})
	})
	return results
}

func parseGemRow(base *url.URL, row *goquery.Selection) (records.Gem, error) {
	anchor, err := htmlutil.GetAnchor(base, row.Find(GemNameSelector))
	if errors.Is(err, htmlutil.ErrNoAnchor) {
		return records.Gem{}, ErrMissingName
	}
	if err != nil {
		return records.Gem{}, fmt.Errorf("%w: %w", ErrBadLink, err)
	}
	if anchor.Name == "" {
		return records.Gem{}, ErrEmptyName
	}

	var tagText string
	tagElem := row.Find(GemTagsSelector)
	if tagElem.Length() > 0 {
		tagText = htmlutil.Text(tagElem.First())
	} else {
		tagText = row.AttrOr(GemTagsAttr, "")
	}

	gem := records.Gem{
		Name: anchor.Name,
		Tags: records.ParseTags(tagText),
	}
	if anchor.Url != nil {
		gem.Link = anchor.Url.String()
	}
	return gem, nil
}

// CollectGems keeps the gems of successful rows.
func CollectGems(rows []RowResult) []records.Gem {
	var gems []records.Gem
	for _, r := range rows {
		if r.Ok() {
			gems = append(gems, r.Gem)
		}
	}
	return gems
}
