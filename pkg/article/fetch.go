package article

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/go-shiori/go-readability"
)

// DefaultMaxBodySize bounds how much HTML Fetch reads from one response.
const DefaultMaxBodySize = 10 * 1024 * 1024

// ErrBodyTooLarge is returned when a page exceeds the fetcher's size limit.
var ErrBodyTooLarge = errors.New("response body exceeds size limit")

// Article is the readable content extracted from a page.
type Article struct {
	URL      string
	Title    string
	Byline   string
	SiteName string
	Text     string
}

// Fetcher downloads pages and extracts their main text.
type Fetcher struct {
	Client      *http.Client
	Logger      *slog.Logger
	MaxBodySize int64
}

// NewFetcher returns a Fetcher with a 30 second timeout.
func NewFetcher(logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fetcher{
		Client:      &http.Client{Timeout: 30 * time.Second},
		Logger:      logger,
		MaxBodySize: DefaultMaxBodySize,
	}
}

// browserHeaders mimic a desktop browser; some news sites refuse bare clients.
var browserHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language":           "ja,en-US;q=0.9,en;q=0.8",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Upgrade-Insecure-Requests": "1",
}

// Fetch downloads rawURL and extracts its article text.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Article, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Article{}, fmt.Errorf("parse url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Article{}, fmt.Errorf("create request: %w", err)
	}
	for k, v := range browserHeaders {
		req.Header.Set(k, v)
	}

	f.Logger.InfoContext(ctx, "fetching article", slog.String("url", rawURL))
	resp, err := f.Client.Do(req)
	if err != nil {
		return Article{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Article{}, fmt.Errorf("fetch %s: unexpected status %s", rawURL, resp.Status)
	}

	limit := f.MaxBodySize
	if limit <= 0 {
		limit = DefaultMaxBodySize
	}
	if resp.ContentLength > limit {
		return Article{}, fmt.Errorf("%w: content-length %d > %d", ErrBodyTooLarge, resp.ContentLength, limit)
	}
	// Read one byte past the limit to tell a full body from a truncated one.
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return Article{}, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > limit {
		return Article{}, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, limit)
	}

	a, err := Extract(body, u)
	if err != nil {
		return Article{}, err
	}
	f.Logger.InfoContext(ctx, "article extracted",
		slog.String("title", a.Title),
		slog.Int("chars", len([]rune(a.Text))),
	)
	return a, nil
}

// Extract strips ruby annotations from an HTML page and returns its
// readable content. u may be nil.
func Extract(html []byte, u *url.URL) (Article, error) {
	parsed, err := readability.FromReader(bytes.NewReader(SanitizeRuby(html)), u)
	if err != nil {
		return Article{}, fmt.Errorf("extract article: %w", err)
	}
	a := Article{
		Title:    parsed.Title,
		Byline:   parsed.Byline,
		SiteName: parsed.SiteName,
		Text:     parsed.TextContent,
	}
	if u != nil {
		a.URL = u.String()
	}
	return a, nil
}

var (
	reRT = regexp.MustCompile(`(?si)<rt\b[^>]*>.*?</rt>`)
	reRP = regexp.MustCompile(`(?si)<rp\b[^>]*>.*?</rp>`)
)

// SanitizeRuby removes ruby text (<rt>...</rt>) and ruby parentheses (<rp>...</rp>)
// from HTML content. Readability keeps furigana as plain text, so "漢字" would
// otherwise come out as "漢字かんじ".
// It operates on bytes and is safe for Shift_JIS input as well, because the
// matched characters are ASCII and '<' is never a Shift_JIS trailing byte.
func SanitizeRuby(content []byte) []byte {
	cleaned := reRT.ReplaceAll(content, nil)
	return reRP.ReplaceAll(cleaned, nil)
}
