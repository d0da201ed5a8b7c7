// internal/workers/category.go
package workers

import (
	"context"

	"go.uber.org/zap"

	"github.com/tomanasmo/finnmonitor/internal/repositories"
	"github.com/tomanasmo/finnmonitor/internal/status"
)

// CategoryFetcher retrieves the breadcrumb category for one listing.
type CategoryFetcher interface {
	Category(ctx context.Context, code string) (string, error)
}

// CategoryWorker fills kategori_test for listings that do not have a
// breadcrumb-derived category guess yet. It is invoked once per scheduling
// period by an external scheduler.
type CategoryWorker struct {
	repo        repositories.ListingRepository
	fetcher     CategoryFetcher
	statusStore status.Store
	log         *zap.SugaredLogger
}

// NewCategoryWorker wires the worker's collaborators.
func NewCategoryWorker(repo repositories.ListingRepository, fetcher CategoryFetcher, statusStore status.Store, log *zap.SugaredLogger) *CategoryWorker {
	return &CategoryWorker{
		repo:        repo,
		fetcher:     fetcher,
		statusStore: statusStore,
		log:         log,
	}
}

// Run processes one batch. The Idle reset is deferred so it executes on
// every exit path, including panics and store failures.
func (w *CategoryWorker) Run(ctx context.Context) error {
	w.setStatus(status.Running)
	defer w.setStatus(status.Idle)

	codes, err := w.repo.MissingKategoriTest(ctx)
	if err != nil {
		w.log.Errorw("failed to select listings for category update", "error", err)
		return err
	}
	w.log.Infow("starting kategori_test update", "pending", len(codes))

	for _, code := range codes {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		category, err := w.fetcher.Category(ctx, code)
		if err != nil {
			w.log.Warnw("failed to fetch category", "finn_code", code, "error", err)
			continue
		}
		if category == "" {
			w.log.Infow("no category found", "finn_code", code)
			continue
		}

		if err := w.repo.SetKategoriTest(ctx, code, category); err != nil {
			w.log.Errorw("failed to store kategori_test", "finn_code", code, "error", err)
			continue
		}
		w.log.Infow("updated kategori_test", "finn_code", code, "category", category)
	}

	w.log.Info("kategori_test update finished")
	return nil
}

func (w *CategoryWorker) setStatus(s status.State) {
	if err := w.statusStore.Set(status.WorkerCategory, s); err != nil {
		w.log.Warnw("failed to write category status", "state", s, "error", err)
	}
}
