// internal/scrape/paginator_test.go
package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomanasmo/finnmonitor/internal/domain"
	"github.com/tomanasmo/finnmonitor/pkg/logger"
)

// fakeRepo records store interactions for assertions.
type fakeRepo struct {
	mu       sync.Mutex
	upserts  []domain.Listing
	missing  []string
	calls    int
	upsertFn func(domain.Listing) error
}

func (f *fakeRepo) Upsert(_ context.Context, l domain.Listing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.upsertFn != nil {
		if err := f.upsertFn(l); err != nil {
			return err
		}
	}
	f.upserts = append(f.upserts, l)
	return nil
}

func (f *fakeRepo) FindAll(context.Context) ([]domain.Listing, error) {
	f.calls++
	return f.upserts, nil
}

func (f *fakeRepo) MissingCategory(context.Context) ([]string, error) {
	f.calls++
	return f.missing, nil
}

func (f *fakeRepo) MissingKategoriTest(context.Context) ([]string, error) {
	f.calls++
	return f.missing, nil
}

func (f *fakeRepo) SetCategory(context.Context, string, domain.Category) (bool, error) {
	f.calls++
	return true, nil
}

func (f *fakeRepo) SetKategoriTest(context.Context, string, string) error {
	f.calls++
	return nil
}

func (f *fakeRepo) SetOCR(context.Context, string, string, domain.Category) error {
	f.calls++
	return nil
}

func searchPage(codes ...string) string {
	page := `<html><body>`
	for _, code := range codes {
		page += fmt.Sprintf(
			`<article><time datetime="2025-06-01T10:00:00Z"></time>`+
				`<a href="/recommerce/forsale/item/%s">annonse</a></article>`, code)
	}
	page += `</body></html>`
	return page
}

const emptyPage = `<html><body><h2>Ingen treff</h2></body></html>`

// newSearchSite serves a two-page search plus detail pages and records every
// requested URL.
func newSearchSite(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()

	var mu sync.Mutex
	var requested []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requested = append(requested, r.URL.String())
		mu.Unlock()

		switch {
		case r.URL.Path == "/recommerce/forsale/search":
			switch r.URL.Query().Get("page") {
			case "":
				_, _ = w.Write([]byte(searchPage("100001100", "100001101")))
			default:
				_, _ = w.Write([]byte(emptyPage))
			}
		default:
			_, _ = w.Write([]byte(detailPage))
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &requested
}

func newTestPaginator(t *testing.T, srv *httptest.Server, repo *fakeRepo) *Paginator {
	t.Helper()
	f := newTestFetcher(t, srv, "")
	return NewPaginator(f, f, repo, NoDelay{}, logger.Nop())
}

func TestDrainWalksUntilNoResults(t *testing.T) {
	srv, requested := newSearchSite(t)
	repo := &fakeRepo{}
	p := newTestPaginator(t, srv, repo)

	err := p.Drain(context.Background(), srv.URL+"/recommerce/forsale/search?q=varmepumpe")
	require.NoError(t, err)

	require.Len(t, repo.upserts, 2)
	assert.Equal(t, "100001100", repo.upserts[0].FinnCode)
	assert.Equal(t, "Varmepumpe LG 12kW", repo.upserts[0].Title)
	assert.Equal(t, "5 000 kr", repo.upserts[0].Price)
	assert.True(t, repo.upserts[0].CreatedAt.Equal(time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)))
	assert.Equal(t, "100001101", repo.upserts[1].FinnCode)

	// Page 1, two detail pages, page 2. No page 3.
	require.Len(t, *requested, 4)
	assert.Contains(t, (*requested)[3], "page=2")
}

func TestDrainEmptyFirstPageTerminatesAfterOneFetch(t *testing.T) {
	var fetches int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		_, _ = w.Write([]byte(emptyPage))
	}))
	defer srv.Close()

	repo := &fakeRepo{}
	p := newTestPaginator(t, srv, repo)

	err := p.Drain(context.Background(), srv.URL+"/recommerce/forsale/search?q=varmepumpe")
	require.NoError(t, err)
	assert.Equal(t, 1, fetches)
	assert.Empty(t, repo.upserts)
}

func TestDrainNoAnchorsWithoutMarkerIsSoftFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>halvlastet side</p></body></html>`))
	}))
	defer srv.Close()

	p := newTestPaginator(t, srv, &fakeRepo{})
	err := p.Drain(context.Background(), srv.URL+"/recommerce/forsale/search?q=varmepumpe")
	assert.Error(t, err)
}

func TestDrainFetchFailureStopsWithoutSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := newTestPaginator(t, srv, &fakeRepo{})
	err := p.Drain(context.Background(), srv.URL+"/recommerce/forsale/search?q=varmepumpe")
	assert.Error(t, err)
}

func TestDrainDetailFailureDoesNotAbortPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/recommerce/forsale/search":
			if r.URL.Query().Get("page") == "" {
				_, _ = w.Write([]byte(searchPage("100001100", "100001101")))
			} else {
				_, _ = w.Write([]byte(emptyPage))
			}
		case "/recommerce/forsale/item/100001100":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte(detailPage))
		}
	}))
	defer srv.Close()

	repo := &fakeRepo{}
	p := newTestPaginator(t, srv, repo)

	err := p.Drain(context.Background(), srv.URL+"/recommerce/forsale/search?q=varmepumpe")
	require.NoError(t, err)

	require.Len(t, repo.upserts, 1)
	assert.Equal(t, "100001101", repo.upserts[0].FinnCode)
}

func TestNextPageURL(t *testing.T) {
	tests := []struct {
		current string
		next    int
		want    string
	}{
		{"https://x/search?q=varmepumpe", 2, "https://x/search?q=varmepumpe&page=2"},
		{"https://x/search?q=varmepumpe&page=2", 3, "https://x/search?q=varmepumpe&page=3"},
		{"https://x/search?page=9&q=varmepumpe", 10, "https://x/search?page=10&q=varmepumpe"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, nextPageURL(tt.current, tt.next))
	}
}
