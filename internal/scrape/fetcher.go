// internal/scrape/fetcher.go
package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
)

const (
	// titleSuffix is appended by the site to every page title.
	titleSuffix = " | FINN.no"

	// itemPath is the detail-page path for a listing code.
	itemPath = "/recommerce/forsale/item/"

	titleUnknown = "Ukjent"
	priceAbsent  = "N/A"
)

// ExtractState tags the outcome of a structural lookup so callers can tell
// "element missing" apart from "found but empty" and from a broken document.
type ExtractState int

const (
	Found ExtractState = iota
	NotFound
	ParseError
)

// Extract is the tagged result of one parsing step.
type Extract struct {
	State ExtractState
	Value string
	Err   error
}

// Details is what a listing detail page yields.
type Details struct {
	Title string
	Price string
}

// Fetcher retrieves and parses single listing pages. All structural
// assumptions about the site's HTML live here.
type Fetcher struct {
	client    *http.Client
	baseURL   string
	userAgent string
	debugDir  string
	log       *zap.SugaredLogger
}

// NewFetcher builds a Fetcher. The client is expected to carry the network
// timeout so a stuck request can block at most that long.
func NewFetcher(client *http.Client, baseURL, userAgent, debugDir string, log *zap.SugaredLogger) *Fetcher {
	return &Fetcher{
		client:    client,
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		debugDir:  debugDir,
		log:       log,
	}
}

// get performs one page fetch with the browser-like header.
func (f *Fetcher) get(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("fetch: build request %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch: get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch: get %s: unexpected status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("fetch: read %s: %w", url, err)
	}
	return string(body), nil
}

// ItemURL returns the detail-page URL for a listing code.
func (f *Fetcher) ItemURL(code string) string {
	return f.baseURL + itemPath + code
}

// Details fetches one listing page and parses title and price. A network or
// parse failure is returned as an error; the caller logs it and moves on to
// the next listing.
func (f *Fetcher) Details(ctx context.Context, code, url string) (Details, error) {
	html, err := f.get(ctx, url)
	if err != nil {
		return Details{}, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Details{}, fmt.Errorf("fetch: parse %s: %w", code, err)
	}

	return Details{
		Title: parseTitle(doc),
		Price: parsePrice(doc),
	}, nil
}

// Category fetches the listing page and extracts the last breadcrumb link's
// text. The raw HTML is kept under the debug dir for offline inspection; a
// failed write is logged and ignored.
func (f *Fetcher) Category(ctx context.Context, code string) (string, error) {
	url := f.ItemURL(code)
	html, err := f.get(ctx, url)
	if err != nil {
		return "", err
	}

	f.dumpDebugHTML(code, html)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("fetch: parse %s: %w", code, err)
	}

	ex := parseBreadcrumbCategory(doc)
	switch ex.State {
	case Found:
		return ex.Value, nil
	case NotFound:
		f.log.Infow("no breadcrumb category found", "finn_code", code)
		return "", nil
	default:
		return "", fmt.Errorf("fetch: breadcrumb %s: %w", code, ex.Err)
	}
}

func (f *Fetcher) dumpDebugHTML(code, html string) {
	if f.debugDir == "" {
		return
	}
	path := filepath.Join(f.debugDir, code+".html")
	if err := os.WriteFile(path, []byte(html), 0o644); err != nil {
		f.log.Warnw("failed to save debug HTML", "finn_code", code, "error", err)
	}
}

// parseTitle reads the page title and strips the site suffix.
func parseTitle(doc *goquery.Document) string {
	title := strings.TrimSpace(doc.Find("title").First().Text())
	title = strings.TrimSuffix(title, titleSuffix)
	if title == "" {
		return titleUnknown
	}
	return title
}

// parsePrice reads the first price-styled span.
func parsePrice(doc *goquery.Document) string {
	price := strings.TrimSpace(doc.Find("span[class*='price']").First().Text())
	if price == "" {
		return priceAbsent
	}
	return strings.ReplaceAll(price, "\u00a0", " ")
}

// parseBreadcrumbCategory walks the breadcrumb structure layer by layer:
// named nav element, child container by class, anchor list by class. Each
// missing layer yields NotFound rather than an error so structure drift on
// the site fails softly.
func parseBreadcrumbCategory(doc *goquery.Document) Extract {
	nav := doc.Find("nav#breadcrumbs").First()
	if nav.Length() == 0 {
		return Extract{State: NotFound}
	}

	container := nav.Find("div.flex.space-x-8").First()
	if container.Length() == 0 {
		return Extract{State: NotFound}
	}

	links := container.Find("a.s-text-link")
	if links.Length() == 0 {
		return Extract{State: NotFound}
	}

	last := strings.TrimSpace(links.Last().Text())
	return Extract{State: Found, Value: last}
}
