package store

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"poeroll/internal/components/telemetry"
	"poeroll/internal/locale"
	"poeroll/internal/records"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
)

func setup(t testing.TB) *Store {
	s, err := Open(context.Background(), Config{File: MemoryFile}, &telemetry.Recorder{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func ascendancies(names ...string) []records.Ascendancy {
	list := make([]records.Ascendancy, len(names))
	for i, n := range names {
		list[i] = records.Ascendancy{Name: n}
	}
	return list
}

func gemNames(gems []records.Gem) []string {
	names := make([]string, len(gems))
	for i, g := range gems {
		names[i] = g.Name
	}
	return names
}

var sortStrings = cmpopts.SortSlices(func(a, b string) bool { return a < b })

func TestReplaceAscendanciesDeduplicates(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	err := s.ReplaceAscendancies(ctx, ascendancies("Juggernaut", "Juggernaut", "Slayer"))
	require.NoError(t, err)

	asc, gems, err := s.Counts(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, asc)
	require.Equal(t, 0, gems)

	err = s.ReplaceAscendancies(ctx, ascendancies("Occultist"))
	require.NoError(t, err)
	names, err := s.SampleAscendancies(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"Occultist"}, names)
}

func TestSampleAscendanciesSize(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	stored := []string{"Juggernaut", "Berserker", "Chieftain", "Slayer", "Gladiator"}
	require.NoError(t, s.ReplaceAscendancies(ctx, ascendancies(stored...)))

	for _, count := range []int{-3, 0, 1, 2, 5, 6, 100} {
		t.Run(fmt.Sprint(count), func(t *testing.T) {
			names, err := s.SampleAscendancies(ctx, count)
			require.NoError(t, err)

			expected := min(max(count, 0), len(stored))
			require.Len(t, names, expected)

			seen := make(map[string]bool)
			for _, n := range names {
				require.Contains(t, stored, n)
				require.False(t, seen[n], "duplicate %s", n)
				seen[n] = true
			}
		})
	}
}

func TestSampleAscendanciesUniform(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	stored := []string{"Juggernaut", "Berserker", "Chieftain"}
	require.NoError(t, s.ReplaceAscendancies(ctx, ascendancies(stored...)))

	const trials = 3000
	counts := make(map[string]int)
	for range trials {
		names, err := s.SampleAscendancies(ctx, 1)
		require.NoError(t, err)
		require.Len(t, names, 1)
		counts[names[0]]++
	}

	// one standard deviation is about 26 draws
	for _, name := range stored {
		require.InDelta(t, trials/len(stored), counts[name], 150, "%s drawn %d times", name, counts[name])
	}
}

func TestUpsertGemsKeepsLatest(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	err := s.UpsertGems(ctx, []records.Gem{{Name: "Cleave", Tags: []string{"Attack"}, Link: "https://poedb.tw/us/Cleave"}})
	require.NoError(t, err)
	err = s.UpsertGems(ctx, []records.Gem{{Name: "Cleave", Tags: []string{"Attack", "Melee"}}})
	require.NoError(t, err)

	_, count, err := s.Counts(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	gems, err := s.SampleGems(ctx, nil, nil, 10)
	require.NoError(t, err)
	expected := []records.Gem{{Name: "Cleave", Tags: []string{"Attack", "Melee"}}}
	diff := cmp.Diff(expected, gems)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestListDistinctTags(t *testing.T) {
	ctx := context.Background()
	first := records.Gem{Name: "First", Tags: []string{"a", "b"}}
	second := records.Gem{Name: "Second", Tags: []string{"b,c"}}
	untagged := records.Gem{Name: "Untagged"}

	orders := [][]records.Gem{
		{first, second, untagged},
		{untagged, second, first},
	}
	for i, order := range orders {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			s := setup(t)
			require.NoError(t, s.UpsertGems(ctx, order))

			for range 2 {
				tags, err := s.ListDistinctTags(ctx)
				require.NoError(t, err)
				require.Equal(t, []string{"a", "b", "c"}, tags)
			}
		})
	}

	empty := setup(t)
	tags, err := empty.ListDistinctTags(ctx)
	require.NoError(t, err)
	require.Empty(t, tags)
}

var filterGems = []records.Gem{
	{Name: "Cleave", Tags: []string{"Attack", "AoE", "Melee", "Strike"}},
	{Name: "Fireball", Tags: []string{"Spell", "Projectile", "AoE", "Fire"}},
	{Name: "Raise Zombie", Tags: []string{"Spell", "Minion"}},
	{Name: "Split Arrow", Tags: []string{"Attack", "Projectile", "Bow"}},
	{Name: "Herald of Ash", Tags: []string{"Spell", "Herald", "Fire", "AoE"}},
	{Name: "Vaal Arc"},
}

func TestSampleGemsFilterSubset(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertGems(ctx, filterGems))

	cases := []struct {
		include []string
		exclude []string
	}{
		{},
		{include: []string{"Spell"}},
		{include: []string{"Spell", "AoE"}},
		{exclude: []string{"Spell"}},
		{include: []string{"AoE"}, exclude: []string{"Fire"}},
		// substring containment
		{include: []string{"Pro"}},
		{include: []string{"spell"}},
		{include: []string{"Attack", "Spell"}},
		{include: []string{""}, exclude: []string{""}},
		// whitespace is a fragment like any other
		{include: []string{" "}},
		{include: []string{"  "}},
		{exclude: []string{"Attack", "Spell"}},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("%v-%v", tc.include, tc.exclude), func(t *testing.T) {
			var expected []string
			for _, g := range filterGems {
				if matches(g.TagText(), tc.include, tc.exclude) {
					expected = append(expected, g.Name)
				}
			}

			gems, err := s.SampleGems(ctx, tc.include, tc.exclude, len(filterGems)+1)
			require.NoError(t, err)
			diff := cmp.Diff(expected, gemNames(gems), sortStrings, cmpopts.EquateEmpty())
			if diff != "" {
				t.Fatal(diff)
			}

			if len(expected) > 1 {
				gems, err := s.SampleGems(ctx, tc.include, tc.exclude, 1)
				require.NoError(t, err)
				require.Len(t, gems, 1)
				require.Contains(t, expected, gems[0].Name)
			}
		})
	}
}

func matches(tagText string, include, exclude []string) bool {
	for _, tag := range include {
		if tag != "" && !strings.Contains(tagText, tag) {
			return false
		}
	}
	for _, tag := range exclude {
		if tag != "" && strings.Contains(tagText, tag) {
			return false
		}
	}
	return true
}

func TestSampleGemsNonPositiveCount(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertGems(ctx, filterGems))

	for _, count := range []int{0, -1} {
		gems, err := s.SampleGems(ctx, nil, nil, count)
		require.NoError(t, err)
		require.Empty(t, gems)
	}
}

func TestCommitReplacesEverything(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	_, ok, err := s.RefreshInfo(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.ReplaceAscendancies(ctx, ascendancies("Guardian")))
	require.NoError(t, s.UpsertGems(ctx, []records.Gem{{Name: "Stale Gem"}}))

	info := RefreshInfo{
		RunId:        "abcd1234",
		Lang:         locale.US,
		Time:         time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Ascendancies: 2,
		Gems:         len(filterGems),
	}
	err = s.Commit(ctx, Snapshot{
		Ascendancies: ascendancies("Juggernaut", "Slayer"),
		Gems:         filterGems,
		Info:         info,
	})
	require.NoError(t, err)

	asc, gems, err := s.Counts(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, asc)
	require.Equal(t, len(filterGems), gems)

	names, err := s.SampleAscendancies(ctx, 10)
	require.NoError(t, err)
	diff := cmp.Diff([]string{"Juggernaut", "Slayer"}, names, sortStrings)
	if diff != "" {
		t.Fatal(diff)
	}

	got, ok, err := s.RefreshInfo(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	diff = cmp.Diff(info, got)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestCommitRollsBackOnFailure(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceAscendancies(ctx, ascendancies("Guardian")))

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	err := s.Commit(canceled, Snapshot{Ascendancies: ascendancies("Juggernaut")})
	require.Error(t, err)

	names, err := s.SampleAscendancies(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"Guardian"}, names)
}

func TestConcurrentReadsDuringCommit(t *testing.T) {
	s := setup(t)
	ctx := context.Background()

	snapshot := func(prefix string) Snapshot {
		var list []records.Ascendancy
		for i := range 20 {
			list = append(list, records.Ascendancy{Name: fmt.Sprintf("%s-%d", prefix, i)})
		}
		return Snapshot{Ascendancies: list}
	}
	require.NoError(t, s.Commit(ctx, snapshot("a")))

	done := make(chan error)
	go func() {
		for i := range 20 {
			err := s.Commit(ctx, snapshot(fmt.Sprint(i%2 == 0)))
			if err != nil {
				done <- err
				return
			}
		}
		done <- nil
	}()

	for {
		select {
		case err := <-done:
			require.NoError(t, err)
			return
		default:
		}
		names, err := s.SampleAscendancies(ctx, 100)
		require.NoError(t, err)
		// a half applied commit would show fewer rows or mixed prefixes
		require.Len(t, names, 20)
		prefix := strings.Split(names[0], "-")[0]
		for _, n := range names {
			require.True(t, strings.HasPrefix(n, prefix+"-"), n)
		}
	}
}

func TestSampleGemsWhitespaceFragment(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	require.NoError(t, s.UpsertGems(ctx, filterGems))

	gems, err := s.SampleGems(ctx, []string{" "}, nil, 100)
	require.NoError(t, err)
	require.Len(t, gems, len(filterGems)-1)
	require.NotContains(t, gemNames(gems), "Vaal Arc")
}

func TestCommitRollsBackPartialWrite(t *testing.T) {
	s := setup(t)
	ctx := context.Background()
	require.NoError(t, s.ReplaceAscendancies(ctx, ascendancies("Guardian")))

	// ascendancies are cleared and inserted before the gem table is touched
	_, err := s.db.ExecContext(ctx, "drop table skill_gems")
	require.NoError(t, err)

	err = s.Commit(ctx, Snapshot{
		Ascendancies: ascendancies("Juggernaut", "Slayer"),
		Gems:         filterGems,
	})
	require.ErrorContains(t, err, "clear gems")

	names, err := s.SampleAscendancies(ctx, 10)
	require.NoError(t, err)
	require.Equal(t, []string{"Guardian"}, names)
}
