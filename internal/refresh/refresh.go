// Package refresh runs the scrape-then-commit cycle that repopulates the
// store, on demand or on a cron schedule.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"poeroll/internal/components/assert"
	"poeroll/internal/components/chrono"
	"poeroll/internal/components/notify"
	"poeroll/internal/components/telemetry"
	"poeroll/internal/extractor"
	"poeroll/internal/locale"
	"poeroll/internal/store"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("poeroll/refresh")

const (
	report_refresh_run      = "refresh.run"
	report_refresh_notify   = "refresh.notify"
	report_refresh_shutdown = "refresh.shutdown"
	report_refresh_skipped  = "refresh.skipped-rows"
)

// ErrDataUnavailable means an extraction came back empty, the store was
// left untouched.
var ErrDataUnavailable = errors.New("data unavailable")

// Committer is the part of store.Store a refresh writes to.
type Committer interface {
	Commit(ctx context.Context, snapshot store.Snapshot) error
}

type Options struct {
	Lang        locale.Lang
	Locator     locale.Locator
	WaitTimeout time.Duration
}

type Result struct {
	Info store.RefreshInfo
	// SkippedRows counts gem table rows that could not be read.
	SkippedRows int
}

type Refresher struct {
	newSession extractor.SessionFactory
	store      Committer
	notifier   notify.Notifier
	clock      chrono.API
	opts       Options
	tel        telemetry.API
}

func NewRefresher(
	newSession extractor.SessionFactory,
	committer Committer,
	notifier notify.Notifier,
	clock chrono.API,
	opts Options,
	tel telemetry.API,
) *Refresher {
	assert.NotNil(newSession, "session factory")
	assert.NotNil(committer, "committer")
	assert.NotNil(tel, "telemetry")

	if notifier == nil {
		notifier = notify.Noop{}
	}
	if clock == nil {
		clock = chrono.StandardImpl{}
	}
	if opts.Lang == "" {
		opts.Lang = locale.Default
	}

	return &Refresher{
		newSession: newSession,
		store:      committer,
		notifier:   notifier,
		clock:      clock,
		opts:       opts,
		tel:        telemetry.NewScopedAPI("refresh", tel),
	}
}

func newRunId() string {
	id, err := random.String(8)
	if err != nil {
		return fmt.Sprintf("t%d", time.Now().UnixNano())
	}
	return id
}

// Run extracts both collections and, only if neither is empty, commits them
// to the store in one transaction. The session is released before
// returning, whatever the outcome.
func (r *Refresher) Run(ctx context.Context) (result Result, err error) {
	runId := newRunId()
	tel := telemetry.NewScopedAPI(runId, r.tel)

	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", runId),
		attribute.String("lang", string(r.opts.Lang)),
	)

	defer func() {
		if err == nil {
			return
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		tel.ReportWarning(report_refresh_run, err)
		r.notifyFailure(ctx, tel, runId, err)
	}()

	tel.ReportDebug("start", string(r.opts.Lang))
	session, err := r.newSession(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("open session: %w", err)
	}

	ext := extractor.New(session, extractor.Options{
		Lang:        r.opts.Lang,
		Locator:     r.opts.Locator,
		WaitTimeout: r.opts.WaitTimeout,
	}, tel)
	defer func() {
		shutdownErr := ext.Shutdown()
		if shutdownErr != nil {
			tel.ReportWarning(report_refresh_shutdown, shutdownErr)
		}
	}()

	ascendancies := ext.Ascendancies(ctx)
	if len(ascendancies) == 0 {
		return Result{}, fmt.Errorf("%w: no ascendancies extracted", ErrDataUnavailable)
	}
	rows := ext.GemRows(ctx)
	gems := extractor.CollectGems(rows)
	if len(gems) == 0 {
		return Result{}, fmt.Errorf("%w: no skill gems extracted", ErrDataUnavailable)
	}

	shutdownErr := ext.Shutdown()
	if shutdownErr != nil {
		tel.ReportWarning(report_refresh_shutdown, shutdownErr)
	}

	result = Result{
		Info: store.RefreshInfo{
			RunId:        runId,
			Lang:         r.opts.Lang,
			Time:         r.clock.Now(),
			Ascendancies: len(ascendancies),
			Gems:         len(gems),
		},
		SkippedRows: len(rows) - len(gems),
	}
	if result.SkippedRows > 0 {
		tel.ReportCount(report_refresh_skipped, int64(result.SkippedRows))
	}

	err = r.store.Commit(ctx, store.Snapshot{
		Ascendancies: ascendancies,
		Gems:         gems,
		Info:         result.Info,
	})
	if err != nil {
		return Result{}, err
	}

	tel.ReportCount("ascendancies", int64(len(ascendancies)))
	tel.ReportCount("gems", int64(len(gems)))
	return result, nil
}

func (r *Refresher) notifyFailure(ctx context.Context, tel telemetry.API, runId string, runErr error) {
	body := strings.Join([]string{
		fmt.Sprintf("run: %s", runId),
		fmt.Sprintf("lang: %s", r.opts.Lang),
		fmt.Sprintf("time: %s", r.clock.Now().Format(time.RFC3339)),
		fmt.Sprintf("error: %v", runErr),
	}, "\n")

	err := r.notifier.Notify(
		context.WithoutCancel(ctx),
		fmt.Sprintf("poeroll: refresh %s failed", runId),
		body,
	)
	if err != nil {
		tel.ReportWarning(report_refresh_notify, err)
	}
}
