package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

// report is the JSON document written after each completed session.
type report struct {
	CreatedAt time.Time `json:"created_at"`
	Result    *Result   `json:"result"`
}

// writeReport persists the run report under dir, holding a file lock so
// concurrent builds on the same machine don't interleave writes.
func writeReport(dir string, result *Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	lock := flock.New(filepath.Join(dir, ".report.lock"))
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquire report lock: %w", err)
	}
	defer func() { _ = lock.Unlock() }()

	data, err := json.MarshalIndent(report{CreatedAt: time.Now(), Result: result}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	path := filepath.Join(dir, "report.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report %s: %w", path, err)
	}

	return nil
}
