package web

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sjsage522/ebookdealworker/internal/crawler"
	"sjsage522/ebookdealworker/internal/snapshot"
)

func testSnapshot() *snapshot.Snapshot {
	return snapshot.New([]snapshot.Entry{
		{
			Platform:   "BookWalker",
			URL:        "https://www.bookwalker.com.tw/event",
			Note:       "主題&活動列表",
			PageTitle:  "活動列表 <BOOK☆WALKER>",
			CardTitles: []string{"春季書展 全館85折"},
			HTTPStatus: 200,
		},
		{
			Platform:      "Kobo",
			URL:           "https://www.kobo.com/tw/zh",
			CardTitles:    []string{"portal noise card"},
			HTTPStatus:    200,
			Blocked:       true,
			BlockedReason: crawler.ReasonEntryPortal,
		},
		{
			Platform: "Pubu",
			URL:      "https://www.pubu.com.tw/activity/ongoing",
			Error:    "[fetch] Pubu: unexpected status code: 503",
		},
	}, []string{"BookWalker"}, time.Date(2025, 1, 15, 4, 30, 0, 0, time.UTC))
}

func TestRenderSnapshot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderSnapshot(&buf, testSnapshot()))
	page := buf.String()

	assert.Contains(t, page, `<html lang="zh-Hant">`)
	assert.Contains(t, page, "更新時間（台灣）：<b>2025-01-15 12:30</b>")
	assert.Contains(t, page, "本次有更新：BookWalker")
	assert.Contains(t, page, "<li>春季書展 全館85折</li>")
	assert.Contains(t, page, "活動列表 &lt;BOOK☆WALKER&gt;")
	assert.Contains(t, page, crawler.ReasonEntryPortal)
	assert.NotContains(t, page, "portal noise card")
	assert.Contains(t, page, "（抓取失敗：[fetch] Pubu: unexpected status code: 503）")
	assert.Equal(t, 3, strings.Count(page, "→ 點我查看活動"))
}

func TestRenderSnapshotWithoutChanges(t *testing.T) {
	s := testSnapshot()
	s.HasNewChanges = false
	s.ChangedPlatforms = []string{}

	var buf bytes.Buffer
	require.NoError(t, RenderSnapshot(&buf, s))
	assert.NotContains(t, buf.String(), "本次有更新")
}

func TestRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderSnapshot(&buf, testSnapshot()))

	md, err := RenderMarkdown(buf.String())
	require.NoError(t, err)
	assert.Contains(t, md, "# 📚 電子書平台活動快照")
	assert.Contains(t, md, "## BookWalker")
	assert.Contains(t, md, "春季書展 全館85折")
	assert.Contains(t, md, "(https://www.bookwalker.com.tw/event)")
}

func TestRendererWritesFiles(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(filepath.Join(dir, "site", "index.html"), filepath.Join(dir, "site", "deals.md"))

	require.NoError(t, r.Render(testSnapshot()))

	page, err := os.ReadFile(r.HTMLPath)
	require.NoError(t, err)
	assert.Contains(t, string(page), "電子書平台活動快照")

	md, err := os.ReadFile(r.MarkdownPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "BookWalker")

	htmlOnly := NewRenderer(filepath.Join(dir, "only.html"), "")
	require.NoError(t, htmlOnly.Render(testSnapshot()))
	_, err = os.Stat(filepath.Join(dir, "deals.md"))
	assert.True(t, os.IsNotExist(err))
}
