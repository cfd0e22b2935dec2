package extractor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"poeroll/internal/components/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

const report_http_session_load = "http_session.load"

// HttpSession loads pages with plain HTTP requests. Waiting for an element
// means refetching the page until the element is present.
type HttpSession struct {
	http         *resty.Client
	pollInterval time.Duration
	tel          telemetry.API

	closeOnce sync.Once
}

func NewHttpSession(opts SessionOptions, tel telemetry.API) *HttpSession {
	tel = telemetry.NewScopedAPI("http_session", tel)

	httpClient := resty.New()
	jar, err := cookiejar.New(nil)
	if err == nil {
		httpClient.SetCookieJar(jar)
	}
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	httpClient.SetHeader("user-agent", userAgent)
	httpClient.SetTimeout(time.Second * 30)

	if opts.RequestsPerSecond > 0 {
		rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
		httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
			return rateLimiter.Wait(req.Context())
		})
	}

	telemetry.InstrumentResty(httpClient, tel)

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = time.Second
	}

	return &HttpSession{
		http:         httpClient,
		pollInterval: pollInterval,
		tel:          tel,
	}
}

func (s *HttpSession) Name() string {
	return BrowserHttp
}

func (s *HttpSession) fetch(ctx context.Context, endpoint string) (*goquery.Document, error) {
	res, err := s.http.R().
		SetContext(ctx).
		Get(endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("fetch: unexpected status %s", res.Status())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return doc, nil
}

func (s *HttpSession) Load(ctx context.Context, endpoint, waitSelector string, timeout time.Duration) (*goquery.Document, error) {
	pageUrl, err := url.Parse(endpoint)
	if err != nil {
		return nil, err
	}

	// timeout bounds the wait for waitSelector, a fetch in flight is only
	// bounded by the client timeout
	deadline := time.Now().Add(timeout)

	var lastErr error
	for {
		doc, err := s.fetch(ctx, endpoint)
		if err == nil {
			doc.Url = pageUrl
			if doc.Find(waitSelector).Length() > 0 {
				return doc, nil
			}
			lastErr = fmt.Errorf("%w: %s", ErrWaitTimeout, waitSelector)
		} else {
			lastErr = err
			s.tel.ReportDebug(report_http_session_load, endpoint, err)
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			if errors.Is(lastErr, ErrWaitTimeout) {
				return nil, lastErr
			}
			return nil, fmt.Errorf("%w: %s: %w", ErrWaitTimeout, waitSelector, lastErr)
		}

		wait := time.NewTimer(min(s.pollInterval, remaining))
		select {
		case <-ctx.Done():
			wait.Stop()
			return nil, fmt.Errorf("load %s: %w", endpoint, ctx.Err())
		case <-wait.C:
		}
	}
}

func (s *HttpSession) Close() error {
	s.closeOnce.Do(func() {
		s.http.GetClient().CloseIdleConnections()
	})
	return nil
}
