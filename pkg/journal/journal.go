package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RunRecord captures one end-to-end ingestion run for audit and replay.
type RunRecord struct {
	Timestamp         time.Time        `json:"timestamp"`
	Dataset           string           `json:"dataset"`
	Provider          string           `json:"provider,omitempty"`
	UsedFallback      bool             `json:"used_fallback"`
	Records           int              `json:"records"`
	Warnings          []string         `json:"warnings,omitempty"`
	PipelineLatencyMS float64          `json:"pipeline_latency_ms"`
	Success           bool             `json:"success"`
	ErrorMessage      string           `json:"error_message,omitempty"`
	Metrics           map[string]int64 `json:"metrics,omitempty"`
}

// Writer persists run records to a directory as JSON files. Safe for
// concurrent use; the sequence counter keeps same-second filenames distinct.
type Writer struct {
	dir   string
	nowFn func() time.Time

	mu  sync.Mutex
	seq int
}

// NewWriter constructs a journal writer rooted at dir.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "journal"
	}
	_ = os.MkdirAll(dir, 0o755)
	return &Writer{dir: dir, nowFn: time.Now}
}

// WriteRun writes a run record to a timestamped JSON file and returns its
// path.
func (w *Writer) WriteRun(rec *RunRecord) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("journal: nil record")
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = w.nowFn()
	}
	w.mu.Lock()
	w.seq++
	seq := w.seq
	w.mu.Unlock()
	name := fmt.Sprintf("ingest_%s_%05d.json", rec.Timestamp.UTC().Format("20060102_150405"), seq)
	path := filepath.Join(w.dir, name)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
