// Package roller draws a random build from the stored collections.
package roller

import (
	"context"
	"fmt"

	"poeroll/internal/components/assert"
	"poeroll/internal/components/telemetry"
	"poeroll/internal/filter"
	"poeroll/internal/records"
)

const report_roller_roll = "roller.roll"

// Source is the part of store.Store a roll reads from.
type Source interface {
	Counts(ctx context.Context) (ascendancies, gems int, err error)
	SampleAscendancies(ctx context.Context, count int) ([]string, error)
	SampleGems(ctx context.Context, include, exclude []string, count int) ([]records.Gem, error)
}

type Request struct {
	Ascendancies int
	Gems         int
	// Rules filter the gems, nil means no filtering.
	Rules *filter.Rules
}

type Result struct {
	Ascendancies []string
	Gems         []records.Gem
	// NoData is set when a requested collection has never been refreshed,
	// as opposed to nothing matching the rules.
	NoData bool
}

type Roller struct {
	source Source
	tel    telemetry.API
}

func New(source Source, tel telemetry.API) Roller {
	assert.NotNil(source, "source")
	assert.NotNil(tel, "telemetry")
	return Roller{
		source: source,
		tel:    telemetry.NewScopedAPI("roller", tel),
	}
}

func (r Roller) Roll(ctx context.Context, req Request) (Result, error) {
	ascCount, gemCount, err := r.source.Counts(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("count stored records: %w", err)
	}

	var result Result
	if (req.Ascendancies > 0 && ascCount == 0) || (req.Gems > 0 && gemCount == 0) {
		result.NoData = true
	}

	result.Ascendancies, err = r.source.SampleAscendancies(ctx, req.Ascendancies)
	if err != nil {
		return Result{}, err
	}

	var include, exclude []string
	if req.Rules != nil {
		include = req.Rules.Include()
		exclude = req.Rules.Exclude()
	}
	result.Gems, err = r.source.SampleGems(ctx, include, exclude, req.Gems)
	if err != nil {
		return Result{}, err
	}

	r.tel.ReportDebug(
		report_roller_roll,
		"ascendancies", len(result.Ascendancies),
		"gems", len(result.Gems),
		"no_data", result.NoData,
	)
	return result, nil
}
