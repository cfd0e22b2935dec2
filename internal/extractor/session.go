package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"poeroll/internal/components/telemetry"

	"github.com/PuerkitoBio/goquery"
)

// ErrWaitTimeout is returned by Session.Load when the page never contained
// the awaited element within the timeout.
var ErrWaitTimeout = errors.New("expected element did not appear in time")

// Session is an owned handle on something that can render pages. It is
// acquired by its constructor and must be released with Close on every path.
type Session interface {
	Name() string
	// Load navigates to url and waits up to timeout for waitSelector to match
	// at least one element, returning the document at that point.
	Load(ctx context.Context, url, waitSelector string, timeout time.Duration) (*goquery.Document, error)
	// Close releases the session, it is safe to call more than once.
	Close() error
}

const (
	BrowserChrome = "chrome"
	BrowserHttp   = "http"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type SessionOptions struct {
	// Browser is BrowserChrome or BrowserHttp, defaults to BrowserHttp.
	Browser   string
	UserAgent string
	// Headless only applies to BrowserChrome.
	Headless bool
	// RequestsPerSecond only applies to BrowserHttp, 0 disables limiting.
	RequestsPerSecond float64
	// PollInterval is how often BrowserHttp refetches while waiting for an element.
	PollInterval time.Duration
}

// SessionFactory acquires a new session, refresh cycles acquire one per run.
type SessionFactory func(ctx context.Context) (Session, error)

// NewSessionFactory returns a factory for the browser named in opts.
func NewSessionFactory(opts SessionOptions, tel telemetry.API) (SessionFactory, error) {
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	switch opts.Browser {
	case BrowserChrome:
		return func(ctx context.Context) (Session, error) {
			return NewChromeSession(ctx, opts, tel)
		}, nil
	case BrowserHttp, "":
		return func(context.Context) (Session, error) {
			return NewHttpSession(opts, tel), nil
		}, nil
	}
	return nil, fmt.Errorf("unknown browser %q (expected %q or %q)", opts.Browser, BrowserChrome, BrowserHttp)
}
