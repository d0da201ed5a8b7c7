// internal/scrape/paginator.go
package scrape

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/tomanasmo/finnmonitor/internal/domain"
	"github.com/tomanasmo/finnmonitor/internal/metrics"
	"github.com/tomanasmo/finnmonitor/internal/repositories"
)

// noResultsMarker appears in the page body when a search has been drained.
const noResultsMarker = "Ingen treff"

var (
	itemCodeRe  = regexp.MustCompile(`/recommerce/forsale/item/(\d+)`)
	pageParamRe = regexp.MustCompile(`([?&]page=)\d+`)
)

// DetailFetcher is the slice of Fetcher the paginator needs.
type DetailFetcher interface {
	Details(ctx context.Context, code, url string) (Details, error)
}

// PageGetter fetches a raw search results page.
type PageGetter interface {
	Page(ctx context.Context, url string) (string, error)
}

// searchAnchor is one listing reference extracted from a results page.
type searchAnchor struct {
	code      string
	href      string
	published time.Time
}

// Paginator walks a base search URL page by page until the site reports no
// more results, delegating every discovered listing to the detail fetcher
// and persisting it.
type Paginator struct {
	fetcher DetailFetcher
	pages   PageGetter
	repo    repositories.ListingRepository
	delay   DelayPolicy
	log     *zap.SugaredLogger
}

// NewPaginator wires the paginator's collaborators.
func NewPaginator(fetcher DetailFetcher, pages PageGetter, repo repositories.ListingRepository, delay DelayPolicy, log *zap.SugaredLogger) *Paginator {
	return &Paginator{
		fetcher: fetcher,
		pages:   pages,
		repo:    repo,
		delay:   delay,
		log:     log,
	}
}

// Page implements PageGetter on the Fetcher.
func (f *Fetcher) Page(ctx context.Context, url string) (string, error) {
	return f.get(ctx, url)
}

// Drain consumes every result page of baseURL. It terminates when the site
// shows the no-results marker (success) or on a fetch failure (the base URL
// is retried next cycle). Each page either terminates the walk or advances
// the page number, so the loop cannot revisit a page.
func (p *Paginator) Drain(ctx context.Context, baseURL string) error {
	pageURL := baseURL
	for n := 1; ; n++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		p.log.Infow("fetching results page", "url", pageURL, "page", n)
		html, err := p.pages.Page(ctx, pageURL)
		if err != nil {
			metrics.FetchErrors.Inc()
			return fmt.Errorf("paginator: page %d of %s: %w", n, baseURL, err)
		}
		metrics.PagesFetched.Inc()

		anchors, err := parseSearchAnchors(html, pageURL)
		if err != nil {
			return fmt.Errorf("paginator: parse page %d of %s: %w", n, baseURL, err)
		}

		if len(anchors) == 0 {
			if strings.Contains(html, noResultsMarker) {
				p.log.Infow("search drained", "url", baseURL, "pages", n)
				return nil
			}
			// No anchors and no marker reads like a half-loaded page; stop
			// without declaring the search drained.
			return fmt.Errorf("paginator: page %d of %s: no anchors and no %q marker", n, baseURL, noResultsMarker)
		}

		for _, a := range anchors {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.processAnchor(ctx, a)
			p.delay.Wait(ctx)
		}

		pageURL = nextPageURL(pageURL, n+1)
	}
}

// processAnchor fetches one listing's details and persists them. Failures
// are logged and skipped so one broken listing never aborts the page.
func (p *Paginator) processAnchor(ctx context.Context, a searchAnchor) {
	details, err := p.fetcher.Details(ctx, a.code, a.href)
	if err != nil {
		metrics.FetchErrors.Inc()
		p.log.Warnw("failed to fetch listing details", "finn_code", a.code, "error", err)
		return
	}

	listing := domain.Listing{
		FinnCode:  a.code,
		Title:     details.Title,
		Price:     details.Price,
		CreatedAt: a.published,
	}
	if err := p.repo.Upsert(ctx, listing); err != nil {
		p.log.Errorw("failed to persist listing", "finn_code", a.code, "error", err)
		return
	}
	metrics.ListingsUpserted.Inc()
	p.log.Infow("stored listing", "finn_code", a.code, "title", details.Title, "price", details.Price)
}

// parseSearchAnchors extracts listing codes and absolute hrefs from a
// results page. The publish time comes from the result card's <time> element
// when the site provides one.
func parseSearchAnchors(html, pageURL string) ([]searchAnchor, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var anchors []searchAnchor
	doc.Find("a[href*='" + itemPath + "']").Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		m := itemCodeRe.FindStringSubmatch(href)
		if m == nil {
			return
		}
		code := m[1]
		if _, dup := seen[code]; dup {
			return
		}
		seen[code] = struct{}{}

		abs := href
		if u, err := url.Parse(href); err == nil {
			abs = base.ResolveReference(u).String()
		}

		anchors = append(anchors, searchAnchor{
			code:      code,
			href:      abs,
			published: parsePublished(sel),
		})
	})
	return anchors, nil
}

// parsePublished reads the datetime attribute off the card's <time> element.
// A zero time means "unknown"; the store falls back to the discovery time.
func parsePublished(sel *goquery.Selection) time.Time {
	card := sel.Closest("article")
	if card.Length() == 0 {
		return time.Time{}
	}
	raw, ok := card.Find("time").First().Attr("datetime")
	if !ok {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts
	}
	return time.Time{}
}

// nextPageURL computes the URL of page next. A URL without a page parameter
// gets one appended; an existing parameter has its value replaced.
func nextPageURL(current string, next int) string {
	if pageParamRe.MatchString(current) {
		return pageParamRe.ReplaceAllString(current, "${1}"+strconv.Itoa(next))
	}
	return current + "&page=" + strconv.Itoa(next)
}
