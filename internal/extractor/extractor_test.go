package extractor

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"poeroll/internal/components/telemetry"
	"poeroll/internal/locale"
	"poeroll/internal/records"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func readFixture(t testing.TB, name string) []byte {
	body, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	return body
}

func fixtureDoc(t testing.TB, name, pageUrl string) *goquery.Document {
	body := readFixture(t, name)
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	doc.Url, err = url.Parse(pageUrl)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestParseAscendancies(t *testing.T) {
	doc := fixtureDoc(t, "ascendancy_class.html", "https://poedb.tw/us/Ascendancy_class")
	list := ParseAscendancies(doc)

	expected := []string{"Juggernaut", "Berserker", "Chieftain", "Slayer"}
	diff := cmp.Diff(expected, records.AscendancyNames(list))
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestParseGemRows(t *testing.T) {
	doc := fixtureDoc(t, "skill_gems.html", "https://poedb.tw/us/Skill_Gems")
	rows := ParseGemRows(doc)
	require.Len(t, rows, 5)

	require.False(t, rows[2].Ok())
	require.ErrorIs(t, rows[2].Skip, ErrMissingName)
	require.Equal(t, 2, rows[2].Row)

	gems := CollectGems(rows)
	expected := []records.Gem{
		{
			Name: "Cleave",
			Tags: []string{"Attack", "AoE", "Melee", "Strike"},
			Link: "https://poedb.tw/us/Cleave",
		},
		{
			Name: "Fireball",
			Tags: []string{"Spell", "Projectile", "AoE", "Fire"},
			Link: "https://poedb.tw/us/Fireball",
		},
		{
			Name: "Raise Zombie",
			Tags: []string{"Spell", "Minion"},
			Link: "https://poedb.tw/us/Raise_Zombie",
		},
		{
			Name: "Vaal Arc",
			Link: "https://poedb.tw/us/Vaal_Arc",
		},
	}
	diff := cmp.Diff(expected, gems)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestParseGemRowsSkipReasons(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<table class="filters"><tbody>
		<tr><td></td><td><a href="/us/Cleave">Cleave</a></td></tr>
		<tr><td></td><td><a href="/us/Blank">   </a></td></tr>
		<tr><td></td><td><a href="http://[::1">Bad Link</a></td></tr>
		<tr><td></td><td>no anchor</td></tr>
	</tbody></table>`))
	require.NoError(t, err)

	rows := ParseGemRows(doc)
	require.Len(t, rows, 4)
	require.True(t, rows[0].Ok())
	require.ErrorIs(t, rows[1].Skip, ErrEmptyName)
	require.ErrorIs(t, rows[2].Skip, ErrBadLink)
	require.ErrorIs(t, rows[3].Skip, ErrMissingName)
	require.Len(t, CollectGems(rows), 1)
}

type poedbServer struct {
	*httptest.Server
	gemRequests atomic.Int64
}

// newPoedbServer serves fixture pages under /<lang>/..., gemPage replaces the
// gem table fixture when non-empty.
func newPoedbServer(t testing.TB, gemPage string) *poedbServer {
	if gemPage == "" {
		gemPage = "skill_gems.html"
	}
	ascendancies := readFixture(t, "ascendancy_class.html")
	gems := readFixture(t, gemPage)

	s := &poedbServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/tw/Ascendancy_class", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(ascendancies)
	})
	mux.HandleFunc("/tw/Skill_Gems", func(w http.ResponseWriter, r *http.Request) {
		s.gemRequests.Add(1)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(gems)
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

func newTestExtractor(baseUrl string, tel telemetry.API) *Extractor {
	session := NewHttpSession(SessionOptions{PollInterval: time.Millisecond * 20}, tel)
	return New(session, Options{
		Lang:        locale.TW,
		Locator:     locale.NewLocator(baseUrl),
		WaitTimeout: time.Millisecond * 300,
	}, tel)
}

func TestExtractorOverHttp(t *testing.T) {
	server := newPoedbServer(t, "")
	tel := &telemetry.Recorder{}
	extractor := newTestExtractor(server.URL, tel)
	defer extractor.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	asc := extractor.Ascendancies(ctx)
	require.Equal(t, []string{"Juggernaut", "Berserker", "Chieftain", "Slayer"}, records.AscendancyNames(asc))

	gems := extractor.Gems(ctx)
	require.Len(t, gems, 4)
	require.Equal(t, server.URL+"/us/Cleave", gems[0].Link)
	require.True(t, tel.Has("debug", report_extractor_gem_row))
	require.Empty(t, tel.Reports("warning"))
}

func TestExtractorContainerNeverAppears(t *testing.T) {
	server := newPoedbServer(t, "loading.html")
	tel := &telemetry.Recorder{}
	extractor := newTestExtractor(server.URL, tel)
	defer extractor.Shutdown()

	gems := extractor.Gems(context.Background())
	require.Empty(t, gems)
	require.True(t, tel.Has("warning", report_extractor_gems))
	// the session keeps polling until the wait timeout runs out
	require.Greater(t, server.gemRequests.Load(), int64(1))
}

func TestExtractorUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	baseUrl := server.URL
	server.Close()

	tel := &telemetry.Recorder{}
	extractor := newTestExtractor(baseUrl, tel)
	defer extractor.Shutdown()

	require.Empty(t, extractor.Ascendancies(context.Background()))
	require.Empty(t, extractor.Gems(context.Background()))
	require.True(t, tel.Has("warning", report_extractor_ascendancies))
	require.True(t, tel.Has("warning", report_extractor_gems))
}

type fakeSession struct {
	doc    *goquery.Document
	err    error
	closed int
}

func (f *fakeSession) Name() string { return "fake" }

func (f *fakeSession) Load(context.Context, string, string, time.Duration) (*goquery.Document, error) {
	return f.doc, f.err
}

func (f *fakeSession) Close() error {
	f.closed++
	return nil
}

func TestShutdownIsIdempotent(t *testing.T) {
	session := &fakeSession{err: errors.New("never loaded")}
	extractor := New(session, Options{}, &telemetry.Recorder{})

	require.NoError(t, extractor.Shutdown())
	require.NoError(t, extractor.Shutdown())
	require.Equal(t, 1, session.closed)

	// extracting after shutdown degrades like any other unavailable page
	require.Empty(t, extractor.Ascendancies(context.Background()))
}

func TestLoadErrorIsWaitTimeout(t *testing.T) {
	server := newPoedbServer(t, "loading.html")
	session := NewHttpSession(SessionOptions{PollInterval: time.Millisecond * 20}, &telemetry.Recorder{})
	defer session.Close()

	_, err := session.Load(context.Background(), server.URL+"/tw/Skill_Gems", GemRowSelector, time.Millisecond*100)
	require.ErrorIs(t, err, ErrWaitTimeout)
}

func TestLoadSlowPageOutlastsWaitTimeout(t *testing.T) {
	page := readFixture(t, "skill_gems.html")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Millisecond * 250)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write(page)
	}))
	defer server.Close()

	session := NewHttpSession(SessionOptions{PollInterval: time.Millisecond * 20}, &telemetry.Recorder{})
	defer session.Close()

	// the wait timeout only bounds polling, a download in flight finishes
	doc, err := session.Load(context.Background(), server.URL+"/tw/Skill_Gems", GemRowSelector, time.Millisecond*50)
	require.NoError(t, err)
	require.Len(t, CollectGems(ParseGemRows(doc)), 4)
}

func TestLoadCanceled(t *testing.T) {
	server := newPoedbServer(t, "loading.html")
	session := NewHttpSession(SessionOptions{PollInterval: time.Millisecond * 20}, &telemetry.Recorder{})
	defer session.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*100)
	defer cancel()
	_, err := session.Load(ctx, server.URL+"/tw/Skill_Gems", GemRowSelector, time.Second*10)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
