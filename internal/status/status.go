// internal/status/status.go
package status

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// State is the run state a worker advertises to the API.
type State string

const (
	Idle    State = "Idle"
	Running State = "Running"
	Error   State = "Error"
)

// Worker identifies which process a status flag belongs to.
type Worker string

const (
	WorkerScraper  Worker = "scraper"
	WorkerCategory Worker = "category"
	WorkerOCR      Worker = "ocr"
)

// Store is the per-worker status signal written around each run and read
// back by the API.
type Store interface {
	Set(worker Worker, state State) error
	Get(worker Worker) (State, error)
}

// FileStore keeps one <worker>_status.txt per worker under a shared
// directory. Concurrent worker processes each own their single file, so no
// cross-process locking is needed.
type FileStore struct {
	dir string
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates the status directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("status: create dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(worker Worker) string {
	return filepath.Join(s.dir, string(worker)+"_status.txt")
}

func (s *FileStore) Set(worker Worker, state State) error {
	if err := os.WriteFile(s.path(worker), []byte(state), 0o644); err != nil {
		return fmt.Errorf("status: write %s: %w", worker, err)
	}
	return nil
}

// Get reads the worker's flag. A missing file means the worker has never run
// or finished cleanly, which the API surfaces as Idle.
func (s *FileStore) Get(worker Worker) (State, error) {
	raw, err := os.ReadFile(s.path(worker))
	if err != nil {
		if os.IsNotExist(err) {
			return Idle, nil
		}
		return "", fmt.Errorf("status: read %s: %w", worker, err)
	}
	return State(strings.TrimSpace(string(raw))), nil
}
