// Package store keeps the last refreshed ascendancies and skill gems and
// draws uniformly random, tag filtered samples from them.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"poeroll/internal/components/assert"
	"poeroll/internal/components/telemetry"
	"poeroll/internal/db"
	"poeroll/internal/locale"
	"poeroll/internal/records"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("poeroll/store")

const (
	report_store_commit = "store.commit"
	report_store_sample = "store.sample"
)

const metaLastRefresh = "last_refresh"

// RefreshInfo describes the refresh that produced the stored collections.
type RefreshInfo struct {
	RunId        string      `json:"run_id"`
	Lang         locale.Lang `json:"lang"`
	Time         time.Time   `json:"time"`
	Ascendancies int         `json:"ascendancies"`
	Gems         int         `json:"gems"`
}

// Snapshot is everything a refresh writes at once.
type Snapshot struct {
	Ascendancies []records.Ascendancy
	Gems         []records.Gem
	Info         RefreshInfo
}

type Store struct {
	db     *sql.DB
	qry    *db.Queries
	makeTx db.MakeTx
	tel    telemetry.API

	// writers hold it for their whole transaction so readers never see a
	// half applied refresh
	lock sync.RWMutex
}

func New(database *sql.DB, tel telemetry.API) *Store {
	assert.NotNil(database, "database")
	assert.NotNil(tel, "telemetry")
	return &Store{
		db:     database,
		qry:    db.New(database),
		makeTx: db.NewMakeTx(database),
		tel:    telemetry.NewScopedAPI("store", tel),
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}

func fail(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// write runs fn inside one transaction while holding the exclusive lock.
func (s *Store) write(ctx context.Context, fn func(txqry *db.Queries) error) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	txqry, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer discard()

	err = fn(txqry)
	if err != nil {
		return err
	}
	err = commit()
	if err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertAscendancies(ctx context.Context, txqry *db.Queries, list []records.Ascendancy) error {
	err := txqry.DeleteAllAscendancies(ctx)
	if err != nil {
		return fmt.Errorf("clear ascendancies: %w", err)
	}
	for _, a := range list {
		err = txqry.InsertAscendancy(ctx, a.Name)
		if err != nil {
			return fmt.Errorf("insert ascendancy %q: %w", a.Name, err)
		}
	}
	return nil
}

func upsertGems(ctx context.Context, txqry *db.Queries, gems []records.Gem) error {
	for _, g := range gems {
		err := txqry.UpsertSkillGem(ctx, db.UpsertSkillGemParams{
			Name: g.Name,
			Tags: g.TagText(),
			Link: sql.NullString{
				String: g.Link,
				Valid:  g.Link != "",
			},
		})
		if err != nil {
			return fmt.Errorf("upsert gem %q: %w", g.Name, err)
		}
	}
	return nil
}

// ReplaceAscendancies swaps the stored ascendancies for list, duplicate
// names collapse into one row.
func (s *Store) ReplaceAscendancies(ctx context.Context, list []records.Ascendancy) error {
	ctx, span := tracer.Start(ctx, "ReplaceAscendancies")
	defer span.End()
	span.SetAttributes(attribute.Int("count", len(list)))

	err := s.write(ctx, func(txqry *db.Queries) error {
		return insertAscendancies(ctx, txqry, list)
	})
	if err != nil {
		return fail(span, fmt.Errorf("replace ascendancies: %w", err))
	}
	return nil
}

// UpsertGems inserts gems, replacing the tags and link of gems already
// stored under the same name.
func (s *Store) UpsertGems(ctx context.Context, gems []records.Gem) error {
	ctx, span := tracer.Start(ctx, "UpsertGems")
	defer span.End()
	span.SetAttributes(attribute.Int("count", len(gems)))

	err := s.write(ctx, func(txqry *db.Queries) error {
		return upsertGems(ctx, txqry, gems)
	})
	if err != nil {
		return fail(span, fmt.Errorf("upsert gems: %w", err))
	}
	return nil
}

// Commit replaces both collections with the snapshot and records its
// RefreshInfo, all or nothing.
func (s *Store) Commit(ctx context.Context, snapshot Snapshot) error {
	ctx, span := tracer.Start(ctx, "Commit")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", snapshot.Info.RunId),
		attribute.Int("ascendancies", len(snapshot.Ascendancies)),
		attribute.Int("gems", len(snapshot.Gems)),
	)

	info, err := json.Marshal(snapshot.Info)
	if err != nil {
		return fail(span, fmt.Errorf("encode refresh info: %w", err))
	}

	err = s.write(ctx, func(txqry *db.Queries) error {
		err := insertAscendancies(ctx, txqry, snapshot.Ascendancies)
		if err != nil {
			return err
		}
		err = txqry.DeleteAllSkillGems(ctx)
		if err != nil {
			return fmt.Errorf("clear gems: %w", err)
		}
		err = upsertGems(ctx, txqry, snapshot.Gems)
		if err != nil {
			return err
		}
		return txqry.SetMeta(ctx, db.SetMetaParams{
			Key:   metaLastRefresh,
			Value: string(info),
		})
	})
	if err != nil {
		s.tel.ReportBroken(report_store_commit, err, snapshot.Info.RunId)
		return fail(span, fmt.Errorf("commit snapshot: %w", err))
	}
	return nil
}

// RefreshInfo returns the info of the last committed snapshot, ok is false
// if there never was one.
func (s *Store) RefreshInfo(ctx context.Context) (info RefreshInfo, ok bool, err error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	value, err := s.qry.GetMeta(ctx, metaLastRefresh)
	if errors.Is(err, sql.ErrNoRows) {
		return RefreshInfo{}, false, nil
	}
	if err != nil {
		return RefreshInfo{}, false, fmt.Errorf("get refresh info: %w", err)
	}
	err = json.Unmarshal([]byte(value), &info)
	if err != nil {
		return RefreshInfo{}, false, fmt.Errorf("decode refresh info: %w", err)
	}
	return info, true, nil
}

func (s *Store) Counts(ctx context.Context) (ascendancies, gems int, err error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	ascCount, err := s.qry.CountAscendancies(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("count ascendancies: %w", err)
	}
	gemCount, err := s.qry.CountSkillGems(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("count gems: %w", err)
	}
	return int(ascCount), int(gemCount), nil
}

// ListDistinctTags returns every tag used by a stored gem, sorted.
func (s *Store) ListDistinctTags(ctx context.Context) ([]string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	tagTexts, err := s.qry.ListSkillGemTags(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	seen := make(map[string]struct{})
	var tags []string
	for _, text := range tagTexts {
		for _, tag := range records.ParseTags(text) {
			if _, dup := seen[tag]; dup {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
		}
	}
	slices.Sort(tags)
	return tags, nil
}

// SampleAscendancies picks up to count distinct names, every name equally
// likely.
func (s *Store) SampleAscendancies(ctx context.Context, count int) ([]string, error) {
	if count <= 0 {
		return nil, nil
	}

	ctx, span := tracer.Start(ctx, "SampleAscendancies")
	defer span.End()

	s.lock.RLock()
	defer s.lock.RUnlock()

	names, err := s.qry.SampleAscendancies(ctx, int64(count))
	if err != nil {
		s.tel.ReportWarning(report_store_sample, err)
		return nil, fail(span, fmt.Errorf("sample ascendancies: %w", err))
	}
	span.SetAttributes(attribute.Int("count", len(names)))
	return names, nil
}

// fragments drops empty tags, instr(tags, '') matches every gem.
func fragments(tags []string) string {
	out := []string{}
	for _, t := range tags {
		if t == "" {
			continue
		}
		out = append(out, t)
	}
	encoded, _ := json.Marshal(out)
	return string(encoded)
}

// SampleGems picks up to count gems whose tag text contains every include
// tag and no exclude tag. Matching is case sensitive substring containment,
// so "Attack" also matches "Attack Damage".
func (s *Store) SampleGems(ctx context.Context, include, exclude []string, count int) ([]records.Gem, error) {
	if count <= 0 {
		return nil, nil
	}

	ctx, span := tracer.Start(ctx, "SampleGems")
	defer span.End()
	span.SetAttributes(
		attribute.StringSlice("include", include),
		attribute.StringSlice("exclude", exclude),
	)

	s.lock.RLock()
	defer s.lock.RUnlock()

	rows, err := s.qry.SampleSkillGems(ctx, db.SampleSkillGemsParams{
		Include: fragments(include),
		Exclude: fragments(exclude),
		Limit:   int64(count),
	})
	if err != nil {
		s.tel.ReportWarning(report_store_sample, err)
		return nil, fail(span, fmt.Errorf("sample gems: %w", err))
	}

	gems := make([]records.Gem, len(rows))
	for i, row := range rows {
		gems[i] = records.Gem{
			Name: row.Name,
			Tags: records.ParseTags(row.Tags),
			Link: row.Link.String,
		}
	}
	span.SetAttributes(attribute.Int("count", len(gems)))
	return gems, nil
}
