package extractor

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"poeroll/internal/components/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

const (
	report_chrome_session_start = "chrome_session.start"
	report_chrome_session_load  = "chrome_session.load"
)

// ChromeSession drives a single headless Chrome instance through chromedp.
// The browser process lives from NewChromeSession until Close.
type ChromeSession struct {
	browserCtx context.Context
	cancel     func()
	tel        telemetry.API

	closeOnce sync.Once
}

func NewChromeSession(ctx context.Context, opts SessionOptions, tel telemetry.API) (*ChromeSession, error) {
	tel = telemetry.NewScopedAPI("chrome_session", tel)

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.UserAgent(opts.UserAgent),
	)
	if os.Geteuid() == 0 {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}
	// the browser must outlive ctx, which only bounds startup
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	cancel := func() {
		cancelBrowser()
		cancelAlloc()
	}

	// the first Run starts the browser process and binds it to browserCtx,
	// ctx may only abort the startup itself
	stop := context.AfterFunc(ctx, cancel)
	err := chromedp.Run(browserCtx)
	if !stop() {
		err = errors.Join(err, ctx.Err())
	}
	if err != nil {
		cancel()
		tel.ReportBroken(report_chrome_session_start, err)
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	return &ChromeSession{
		browserCtx: browserCtx,
		cancel:     cancel,
		tel:        tel,
	}, nil
}

func (s *ChromeSession) Name() string {
	return BrowserChrome
}

func (s *ChromeSession) Load(ctx context.Context, endpoint, waitSelector string, timeout time.Duration) (*goquery.Document, error) {
	pageUrl, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}

	tabCtx, cancel := context.WithTimeout(s.browserCtx, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	s.tel.ReportDebug(report_chrome_session_load, endpoint, waitSelector)

	var outerHtml string
	err = chromedp.Run(
		tabCtx,
		chromedp.Navigate(endpoint),
		chromedp.WaitReady(waitSelector, chromedp.ByQuery),
		chromedp.OuterHTML("html", &outerHtml, chromedp.ByQuery),
	)
	if errors.Is(tabCtx.Err(), context.DeadlineExceeded) {
		return nil, fmt.Errorf("%w: %s", ErrWaitTimeout, waitSelector)
	}
	if err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(outerHtml))
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	doc.Url = pageUrl
	return doc, nil
}

func (s *ChromeSession) Close() error {
	s.closeOnce.Do(s.cancel)
	return nil
}
