// internal/scrape/fetcher_test.go
package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomanasmo/finnmonitor/pkg/logger"
)

const detailPage = `<!DOCTYPE html>
<html><head><title>Varmepumpe LG 12kW | FINN.no</title></head>
<body>
<nav id="breadcrumbs"><div class="flex space-x-8">
<a class="s-text-link" href="/">Torget</a>
<a class="s-text-link" href="/x">Elektronikk og hvitevarer</a>
<a class="s-text-link" href="/y">Varmepumpe og ventilasjon</a>
</div></nav>
<span class="mt-16 price-text">5` + "\u00a0" + `000 kr</span>
</body></html>`

func newTestFetcher(t *testing.T, srv *httptest.Server, debugDir string) *Fetcher {
	t.Helper()
	return NewFetcher(srv.Client(), srv.URL, "test-agent", debugDir, logger.Nop())
}

func TestDetailsParsesTitleAndPrice(t *testing.T) {
	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(detailPage))
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv, "")
	details, err := f.Details(context.Background(), "100001100", srv.URL+"/recommerce/forsale/item/100001100")
	require.NoError(t, err)

	assert.Equal(t, "Varmepumpe LG 12kW", details.Title)
	assert.Equal(t, "5 000 kr", details.Price)
	assert.Equal(t, "test-agent", gotAgent)
}

func TestDetailsMissingElements(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><head></head><body><p>tom side</p></body></html>`))
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv, "")
	details, err := f.Details(context.Background(), "1", srv.URL+"/item")
	require.NoError(t, err)

	assert.Equal(t, "Ukjent", details.Title)
	assert.Equal(t, "N/A", details.Price)
}

func TestDetailsNon2xxIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv, "")
	_, err := f.Details(context.Background(), "1", srv.URL+"/item")
	assert.Error(t, err)
}

func TestCategoryExtractsLastBreadcrumbAndDumpsHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/recommerce/forsale/item/100001100", r.URL.Path)
		_, _ = w.Write([]byte(detailPage))
	}))
	defer srv.Close()

	debugDir := t.TempDir()
	f := newTestFetcher(t, srv, debugDir)

	category, err := f.Category(context.Background(), "100001100")
	require.NoError(t, err)
	assert.Equal(t, "Varmepumpe og ventilasjon", category)

	raw, err := os.ReadFile(filepath.Join(debugDir, "100001100.html"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "breadcrumbs")
}

func TestCategoryNoBreadcrumbIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>ingen breadcrumbs her</p></body></html>`))
	}))
	defer srv.Close()

	f := newTestFetcher(t, srv, "")
	category, err := f.Category(context.Background(), "1")
	require.NoError(t, err)
	assert.Empty(t, category)
}

func TestParseBreadcrumbFallbackChain(t *testing.T) {
	tests := []struct {
		name string
		html string
		want ExtractState
	}{
		{
			name: "no nav element",
			html: `<html><body></body></html>`,
			want: NotFound,
		},
		{
			name: "nav without container div",
			html: `<html><body><nav id="breadcrumbs"><span>x</span></nav></body></html>`,
			want: NotFound,
		},
		{
			name: "container without anchor links",
			html: `<html><body><nav id="breadcrumbs"><div class="flex space-x-8"><a href="/">uten klasse</a></div></nav></body></html>`,
			want: NotFound,
		},
		{
			name: "full chain",
			html: detailPage,
			want: Found,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(tt.html))
			require.NoError(t, err)

			ex := parseBreadcrumbCategory(doc)
			assert.Equal(t, tt.want, ex.State)
		})
	}
}
