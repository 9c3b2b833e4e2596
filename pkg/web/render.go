// Package web renders snapshots as the public listing page and its markdown export.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"

	"sjsage522/ebookdealworker/internal/crawler"
	"sjsage522/ebookdealworker/internal/snapshot"
	"sjsage522/ebookdealworker/logger"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(
	template.New("snapshot.html.tmpl").
		Funcs(template.FuncMap{"join": strings.Join}).
		ParseFS(templateFS, "templates/snapshot.html.tmpl"),
)

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
	),
)

type pageItem struct {
	snapshot.Entry
	ShowCards bool
}

type pageData struct {
	*snapshot.Snapshot
	Items []pageItem
}

// RenderSnapshot writes the listing page for s to w
func RenderSnapshot(w io.Writer, s *snapshot.Snapshot) error {
	data := pageData{Snapshot: s, Items: make([]pageItem, 0, len(s.Items))}
	for _, item := range s.Items {
		data.Items = append(data.Items, pageItem{
			Entry:     item,
			ShowCards: len(item.CardTitles) > 0 && !isEntryPortal(item),
		})
	}
	return pageTemplate.Execute(w, data)
}

// entry portals keep their cards in the data file but not on the page
func isEntryPortal(e snapshot.Entry) bool {
	return e.Blocked && e.BlockedReason == crawler.ReasonEntryPortal
}

// RenderMarkdown converts a rendered listing page to markdown
func RenderMarkdown(page string) (string, error) {
	md, err := mdConverter.ConvertString(page)
	if err != nil {
		return "", fmt.Errorf("failed to convert listing to markdown: %w", err)
	}
	return strings.TrimSpace(md) + "\n", nil
}

// Renderer writes the listing page, and optionally its markdown export, to files
type Renderer struct {
	HTMLPath     string
	MarkdownPath string
}

// NewRenderer creates a new file renderer. An empty markdownPath skips the export.
func NewRenderer(htmlPath, markdownPath string) *Renderer {
	return &Renderer{HTMLPath: htmlPath, MarkdownPath: markdownPath}
}

// Render writes s to the configured paths
func (r *Renderer) Render(s *snapshot.Snapshot) error {
	var buf bytes.Buffer
	if err := RenderSnapshot(&buf, s); err != nil {
		return fmt.Errorf("failed to render listing: %w", err)
	}
	if err := writeFile(r.HTMLPath, buf.Bytes()); err != nil {
		return err
	}

	log := logger.ForRender()
	log.Debug().Str("path", r.HTMLPath).Int("bytes", buf.Len()).Msg("listing written")

	if r.MarkdownPath == "" {
		return nil
	}
	md, err := RenderMarkdown(buf.String())
	if err != nil {
		return err
	}
	if err := writeFile(r.MarkdownPath, []byte(md)); err != nil {
		return err
	}
	log.Debug().Str("path", r.MarkdownPath).Msg("markdown written")
	return nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
