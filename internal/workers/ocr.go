// internal/workers/ocr.go
package workers

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/tomanasmo/finnmonitor/internal/domain"
	"github.com/tomanasmo/finnmonitor/internal/ocrengine"
	"github.com/tomanasmo/finnmonitor/internal/repositories"
	"github.com/tomanasmo/finnmonitor/internal/status"
)

// OCRWorker classifies listings whose category is still default by running
// text recognition over the locally cached listing image. A listing is only
// marked processed once a definitive classification was written, so
// transient image or recognition failures are retried on the next run.
type OCRWorker struct {
	repo        repositories.ListingRepository
	engine      ocrengine.Engine
	statusStore status.Store
	imageDir    string
	keyword     string
	log         *zap.SugaredLogger
}

// NewOCRWorker wires the worker's collaborators. keyword is matched
// case-insensitively against the extracted text.
func NewOCRWorker(repo repositories.ListingRepository, engine ocrengine.Engine, statusStore status.Store, imageDir, keyword string, log *zap.SugaredLogger) *OCRWorker {
	return &OCRWorker{
		repo:        repo,
		engine:      engine,
		statusStore: statusStore,
		imageDir:    imageDir,
		keyword:     strings.ToLower(keyword),
		log:         log,
	}
}

// Run processes one batch. One bad image must not abort the rest, so every
// per-listing failure is logged and skipped.
func (w *OCRWorker) Run(ctx context.Context) error {
	w.setStatus(status.Running)
	defer w.setStatus(status.Idle)

	codes, err := w.repo.MissingCategory(ctx)
	if err != nil {
		w.log.Errorw("failed to select listings for OCR", "error", err)
		return err
	}
	w.log.Infow("starting OCR batch", "pending", len(codes))

	for _, code := range codes {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.processOne(ctx, code)
	}

	w.log.Info("OCR batch finished")
	return nil
}

func (w *OCRWorker) processOne(ctx context.Context, code string) {
	imagePath := filepath.Join(w.imageDir, code+".jpg")
	if _, err := os.Stat(imagePath); err != nil {
		w.log.Infow("image not found, skipping", "finn_code", code, "path", imagePath)
		return
	}

	text, err := w.engine.Recognize(imagePath)
	if err != nil {
		w.log.Warnw("OCR failed", "finn_code", code, "error", err)
		return
	}

	category := w.Classify(text)
	if err := w.repo.SetOCR(ctx, code, text, category); err != nil {
		w.log.Errorw("failed to store OCR result", "finn_code", code, "error", err)
		return
	}
	w.log.Infow("OCR complete", "finn_code", code, "category", category)
}

// Classify maps extracted text to a category by keyword match.
func (w *OCRWorker) Classify(text string) domain.Category {
	if strings.Contains(strings.ToLower(text), w.keyword) {
		return domain.CategoryVarmepumpe
	}
	return domain.CategoryUbehandlet
}
