package helpers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html/charset"

	"sjsage522/ebookdealworker/pkg/errors"
)

// HTTP client and header configurations
var (
	userAgents = []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	}

	referers = []string{
		"https://www.google.com/",
		"https://www.google.com.tw/",
		"https://tw.search.yahoo.com/",
	}
)

// Page is the raw result of fetching one activity page
type Page struct {
	HTML        string
	StatusCode  int
	ContentType string
}

// Fetcher retrieves activity pages
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// HTTPFetcher fetches pages with browser-like headers over resty
type HTTPFetcher struct {
	client    *resty.Client
	userAgent string
}

// NewHTTPFetcher creates a fetcher with a fixed per-request timeout.
// An empty userAgent rotates between common browser agents.
func NewHTTPFetcher(timeout time.Duration, userAgent string) *HTTPFetcher {
	client := resty.New().
		SetTimeout(timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	return &HTTPFetcher{
		client:    client,
		userAgent: userAgent,
	}
}

// Fetch sends a GET request with randomized headers and returns the body converted to UTF-8.
// A non-2xx response still returns the page alongside the error so the caller keeps the status.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*Page, error) {
	ua := f.userAgent
	if ua == "" {
		ua = userAgents[rand.IntN(len(userAgents))]
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetHeaders(map[string]string{
			"User-Agent":                ua,
			"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
			"Accept-Language":           "zh-TW,zh;q=0.9,en-US;q=0.8,en;q=0.7",
			"Cache-Control":             "no-cache",
			"Pragma":                    "no-cache",
			"Referer":                   referers[rand.IntN(len(referers))],
			"Upgrade-Insecure-Requests": "1",
			"Sec-Fetch-Mode":            "navigate",
			"Sec-Fetch-Site":            "cross-site",
		}).
		Get(url)
	if err != nil {
		return &Page{}, errors.NewFetch("", "failed to fetch URL", 0, err)
	}

	status := resp.StatusCode()
	contentType := resp.Header().Get("Content-Type")

	body, err := decodeBody(resp.Body(), contentType)
	if err != nil {
		return &Page{StatusCode: status, ContentType: contentType}, errors.NewFetch("", "failed to decode response body", status, err)
	}
	page := &Page{HTML: body, StatusCode: status, ContentType: contentType}

	// Check for rate limiting
	if slices.Contains([]int{http.StatusTooManyRequests, 430}, status) {
		retryAfter := parseRetryAfter(resp.Header().Get("Retry-After"))
		return page, errors.NewRateLimit("", status, retryAfter)
	}

	if status < 200 || status >= 300 {
		return page, errors.NewFetch("", fmt.Sprintf("unexpected status code: %d", status), status, nil)
	}

	return page, nil
}

// decodeBody converts the body to UTF-8 based on the Content-Type header and body sniffing
func decodeBody(bodyBytes []byte, contentType string) (string, error) {
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, contentType)

	if strings.EqualFold(name, "utf-8") {
		return string(bodyBytes), nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return "", fmt.Errorf("failed to read converted UTF-8 body: %w", err)
	}

	return buf.String(), nil
}

// parseRetryAfter reads a Retry-After header in seconds; zero when absent or not numeric
func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	d, err := time.ParseDuration(value + "s")
	if err != nil {
		return 0
	}
	return d
}
