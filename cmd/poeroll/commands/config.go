package commands

import (
	"context"
	"time"

	"poeroll/internal/components/cliutil"
	"poeroll/internal/components/configutil"
	"poeroll/internal/components/notify"
	"poeroll/internal/components/telemetry"
	"poeroll/internal/extractor"
	"poeroll/internal/locale"
	"poeroll/internal/refresh"
	"poeroll/internal/store"
)

// ScraperConfig picks the session pages are loaded with. Browser is "chrome"
// or "http", ShowBrowser opens a visible chrome window instead of a headless one.
type ScraperConfig struct {
	Browser            string  `json:"browser"`
	BaseUrl            string  `json:"base_url"`
	WaitTimeoutSeconds int     `json:"wait_timeout_seconds"`
	ShowBrowser        bool    `json:"show_browser"`
	RequestsPerSecond  float64 `json:"requests_per_second"`
}

type NotifyConfig struct {
	Smtp notify.SmtpConfig `json:"smtp"`
}

type Config struct {
	Lang     locale.Lang   `json:"lang"`
	Db       store.Config  `json:"db"`
	Scraper  ScraperConfig `json:"scraper"`
	Schedule string        `json:"schedule"`
	Notify   NotifyConfig  `json:"notify"`
}

func defaultConfig() Config {
	return Config{
		Lang: locale.Default,
		Db: store.Config{
			File: "poe_builds.db",
		},
		Scraper: ScraperConfig{
			Browser:            extractor.BrowserHttp,
			BaseUrl:            locale.DefaultBaseUrl,
			WaitTimeoutSeconds: int(extractor.DefaultWaitTimeout / time.Second),
			RequestsPerSecond:  1,
		},
		Schedule: refresh.DefaultSchedule,
	}
}

func readConfig(path string) (Config, error) {
	cfg, err := configutil.ReadConfigOr(path, defaultConfig())
	if err != nil {
		return Config{}, err
	}
	lang, err := locale.Parse(string(cfg.Lang))
	if err != nil {
		return Config{}, err
	}
	cfg.Lang = lang
	return cfg, nil
}

func loadConfig() Config {
	cfg, err := readConfig(*configPath)
	if err != nil {
		cliutil.Fatal("failed to read config", err)
	}
	return cfg
}

func (c ScraperConfig) SessionOptions() extractor.SessionOptions {
	return extractor.SessionOptions{
		Browser:           c.Browser,
		Headless:          !c.ShowBrowser,
		RequestsPerSecond: c.RequestsPerSecond,
	}
}

func (c ScraperConfig) WaitTimeout() time.Duration {
	return time.Duration(c.WaitTimeoutSeconds) * time.Second
}

func openStore(ctx context.Context, cfg Config, tel telemetry.API) *store.Store {
	st, err := store.Open(ctx, cfg.Db, tel)
	if err != nil {
		cliutil.Fatal("failed to open store", err)
	}
	return st
}

func newRefresher(cfg Config, st *store.Store, tel telemetry.API) (*refresh.Refresher, error) {
	factory, err := extractor.NewSessionFactory(cfg.Scraper.SessionOptions(), tel)
	if err != nil {
		return nil, err
	}
	return refresh.NewRefresher(
		factory,
		st,
		notify.FromConfig(cfg.Notify.Smtp),
		nil,
		refresh.Options{
			Lang:        cfg.Lang,
			Locator:     locale.NewLocator(cfg.Scraper.BaseUrl),
			WaitTimeout: cfg.Scraper.WaitTimeout(),
		},
		tel,
	), nil
}
