package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/ebookdealworker/config"
	"sjsage522/ebookdealworker/internal/crawler"
	"sjsage522/ebookdealworker/internal/snapshot"
)

const scoredPage = `<html><head><title>活動列表</title></head><body>
	<nav><a href="/login">會員登入</a></nav>
	<a href="/e/1">春季書展 全館85折</a>
	<a href="/e/2">輕小說 滿499折50</a>
</body></html>`

const structuredPage = `<html><head><title>進行中活動</title></head><body>
	<script>window.campaigns = [{name: '讀墨週年慶', start_date: '2025-01-01', end_date: '2025-01-31'}];</script>
</body></html>`

const ancestorPage = `<html><head><title>熱門活動</title></head><body><ul>
	<li><a href="/event/1"><img src="a.jpg"></a><div>暑期書展 強檔推薦</div><div>全書系 79折</div></li>
</ul></body></html>`

const datedPage = `<html><head><title>全站活動</title></head><body>
	<div><h3>夏日祭典 電子書全面特價</h3><p>活動期間：2025-07-01 ~ 2025-07-31</p></div>
</body></html>`

const portalPage = `<html><head><title>Kobo</title></head><body>
	<a href="/a">春季書展 限時特價</a><p>活動</p>
</body></html>`

// retailers serves one fixture per path and lets a test swap pages between runs
type retailers struct {
	mu    sync.Mutex
	pages map[string]string
}

func (r *retailers) set(path, page string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages[path] = page
}

func (r *retailers) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mu.Lock()
	page, ok := r.pages[req.URL.Path]
	r.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(page))
}

func writeSources(t *testing.T, dir, base string) string {
	t.Helper()
	yaml := `sources:
  - platform: BookWalker
    url: ` + base + `/event
    note: 主題&活動列表
    strategy: scored_keyword
  - platform: Readmoo
    url: ` + base + `/campaign
    strategy: structured_data
  - platform: HyRead
    url: ` + base + `/hyread
    strategy: dom_ancestor
    href_marker: event
  - platform: Pubu
    url: ` + base + `/pubu
    strategy: date_anchored
  - platform: Kobo
    url: ` + base + `/kobo
    strategy: keyword_link
    entry_portal: true
  - platform: 博客來
    url: ` + base + `/down
    strategy: keyword_link
`
	path := filepath.Join(dir, "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	return path
}

func testConfig(t *testing.T, dir, sourcesFile string) *config.Config {
	t.Helper()
	cfg := config.LoadConfig()
	cfg.DataPath = filepath.Join(dir, "data", "deals.json")
	cfg.HTMLPath = filepath.Join(dir, "index.html")
	cfg.MarkdownPath = filepath.Join(dir, "deals.md")
	cfg.ErrorLogPath = filepath.Join(dir, "data", "error.log")
	cfg.MetricsFile = filepath.Join(dir, "ebookdeal.prom")
	cfg.SourcesFile = sourcesFile
	cfg.RedisAddr = ""
	cfg.MemcacheAddr = ""
	cfg.CrawlInterval = 0
	return cfg
}

func loadSnapshot(t *testing.T, path string) *snapshot.Snapshot {
	t.Helper()
	s, err := snapshot.NewFileStore(path).Load()
	require.NoError(t, err)
	return s
}

func itemFor(t *testing.T, s *snapshot.Snapshot, platform string) snapshot.Entry {
	t.Helper()
	for _, item := range s.Items {
		if item.Platform == platform {
			return item
		}
	}
	t.Fatalf("platform %s missing from snapshot", platform)
	return snapshot.Entry{}
}

func TestRunEndToEnd(t *testing.T) {
	shops := &retailers{pages: map[string]string{
		"/event":    scoredPage,
		"/campaign": structuredPage,
		"/hyread":   ancestorPage,
		"/pubu":     datedPage,
		"/kobo":     portalPage,
	}}
	server := httptest.NewServer(shops)
	defer server.Close()

	dir := t.TempDir()
	cfg := testConfig(t, dir, writeSources(t, dir, server.URL))

	// First run has no prior snapshot
	require.NoError(t, run(context.Background(), cfg))
	first := loadSnapshot(t, cfg.DataPath)

	assert.Equal(t, snapshot.ParserVersion, first.ParserVersion)
	assert.False(t, first.HasNewChanges)
	assert.Empty(t, first.ChangedPlatforms)
	require.Len(t, first.Items, 6)

	var order []string
	for _, item := range first.Items {
		order = append(order, item.Platform)
	}
	assert.Equal(t, []string{"BookWalker", "Readmoo", "HyRead", "Pubu", "Kobo", "博客來"}, order)

	bookwalker := itemFor(t, first, "BookWalker")
	assert.Equal(t, 200, bookwalker.HTTPStatus)
	assert.Equal(t, "活動列表", bookwalker.PageTitle)
	assert.Contains(t, bookwalker.CardTitles, "春季書展 全館85折")
	assert.NotContains(t, bookwalker.CardTitles, "會員登入")
	assert.False(t, bookwalker.Blocked)

	assert.Equal(t, []string{"讀墨週年慶 2025-01-01–2025-01-31"}, itemFor(t, first, "Readmoo").CardTitles)
	assert.Equal(t, []string{"暑期書展 強檔推薦｜全書系 79折"}, itemFor(t, first, "HyRead").CardTitles)
	assert.Equal(t, []string{"夏日祭典 電子書全面特價｜活動期間：2025-07-01 ~ 2025-07-31"}, itemFor(t, first, "Pubu").CardTitles)

	kobo := itemFor(t, first, "Kobo")
	assert.True(t, kobo.Blocked)
	assert.Equal(t, crawler.ReasonEntryPortal, kobo.BlockedReason)

	down := itemFor(t, first, "博客來")
	assert.Equal(t, 503, down.HTTPStatus)
	assert.Contains(t, down.Error, "503")
	assert.Empty(t, down.CardTitles)
	assert.NotEmpty(t, down.Signature)

	page, err := os.ReadFile(cfg.HTMLPath)
	require.NoError(t, err)
	assert.Contains(t, string(page), "春季書展 全館85折")
	assert.Contains(t, string(page), "抓取失敗")

	md, err := os.ReadFile(cfg.MarkdownPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "## HyRead")

	metricsText, err := os.ReadFile(cfg.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metricsText), "ebookdeal_runs_total")

	errorLog, err := os.ReadFile(cfg.ErrorLogPath)
	require.NoError(t, err)
	assert.Contains(t, string(errorLog), "博客來")

	// Unchanged pages produce the same signatures and no changes
	require.NoError(t, run(context.Background(), testConfig(t, dir, cfg.SourcesFile)))
	second := loadSnapshot(t, cfg.DataPath)
	assert.False(t, second.HasNewChanges)
	assert.Empty(t, second.ChangedPlatforms)
	assert.Equal(t, first.Signatures(), second.Signatures())

	// A changed campaign flags only that platform
	shops.set("/campaign", strings.Replace(structuredPage, "2025-01-31", "2025-02-14", 1))
	require.NoError(t, run(context.Background(), testConfig(t, dir, cfg.SourcesFile)))
	third := loadSnapshot(t, cfg.DataPath)
	assert.True(t, third.HasNewChanges)
	assert.Equal(t, []string{"Readmoo"}, third.ChangedPlatforms)
	assert.Equal(t, []string{"讀墨週年慶 2025-01-01–2025-02-14"}, itemFor(t, third, "Readmoo").CardTitles)
}

func TestRunRejectsInvalidSources(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources:\n  - platform: X\n    url: ftp://example.com\n    strategy: keyword_link\n"), 0o644))

	err := run(context.Background(), testConfig(t, dir, path))
	assert.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "data", "deals.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	dataPath := filepath.Join(dir, "deals.json")
	htmlPath := filepath.Join(dir, "out", "index.html")

	s := snapshot.New([]snapshot.Entry{{
		Platform:   "Pubu",
		URL:        "https://www.pubu.com.tw/activity/ongoing",
		CardTitles: []string{"全站活動 85折"},
		HTTPStatus: 200,
	}}, nil, time.Date(2025, 1, 15, 4, 30, 0, 0, time.UTC))
	require.NoError(t, snapshot.NewFileStore(dataPath).Save(s))

	t.Setenv("DEALS_JSON_PATH", dataPath)
	t.Setenv("INDEX_HTML_PATH", htmlPath)
	t.Setenv("DEALS_MD_PATH", "")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"render"})
	require.NoError(t, cmd.Execute())

	page, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(page), "全站活動 85折")
}
