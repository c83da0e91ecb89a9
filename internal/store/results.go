package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ResultEntry is one simulation outcome, appended once per machine per run.
type ResultEntry struct {
	MachineID  string `json:"machine_id"`
	StepsTaken int    `json:"steps_taken"`
	Halted     bool   `json:"halted"`
	Error      string `json:"error,omitempty"`
}

// ResultWriter appends ResultEntry lines to a results log. Writes are
// buffered; the runner flushes once per batch so a crash loses at most the
// in-flight batch.
type ResultWriter struct {
	f *os.File
	w *bufio.Writer
}

func NewResultWriter(path string) (*ResultWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create results dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open results %s: %w", path, err)
	}
	return &ResultWriter{f: f, w: bufio.NewWriter(f)}, nil
}

func (w *ResultWriter) Append(entry ResultEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal result entry: %w", err)
	}
	if _, err := w.w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append result entry: %w", err)
	}
	return nil
}

// Flush pushes buffered entries through to the file and syncs. Completed
// work must never be marked checkpointed before this succeeds.
func (w *ResultWriter) Flush() error {
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("flush results: %w", err)
	}
	if err := w.f.Sync(); err != nil {
		return fmt.Errorf("sync results: %w", err)
	}
	return nil
}

func (w *ResultWriter) Close() error {
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return fmt.Errorf("flush results: %w", err)
	}
	return w.f.Close()
}

// ReadResults loads every entry of a results log, in file order.
func ReadResults(path string) ([]ResultEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open results %s: %w", path, err)
	}
	defer f.Close()

	var out []ResultEntry
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var entry ResultEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return nil, fmt.Errorf("results %s line %d: %w", path, lineNo, err)
		}
		out = append(out, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read results %s: %w", path, err)
	}
	return out, nil
}
