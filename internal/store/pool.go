package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadPool reads an ordered machine pool from a flat newline-separated
// file, dropping blank lines and duplicate ids while preserving first-seen
// order.
func LoadPool(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pool %s: %w", path, err)
	}
	defer f.Close()

	var ids []string
	seen := make(map[string]struct{})
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		id := strings.TrimSpace(scanner.Text())
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read pool %s: %w", path, err)
	}
	return ids, nil
}

// WritePool writes a pool file, one machine id per line, replacing any
// existing file.
func WritePool(path string, ids []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create pools dir: %w", err)
	}
	var b strings.Builder
	for _, id := range ids {
		b.WriteString(id)
		b.WriteByte('\n')
	}
	if err := writeFileAtomic(path, []byte(b.String())); err != nil {
		return fmt.Errorf("write pool %s: %w", path, err)
	}
	return nil
}

// AppendToPool appends machine ids to an append-only pool file (the
// long-runner pool). This layer never deduplicates: the file grows
// monotonically across runs.
func AppendToPool(path string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create pools dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open pool %s: %w", path, err)
	}
	defer f.Close()
	for _, id := range ids {
		if _, err := fmt.Fprintln(f, id); err != nil {
			return fmt.Errorf("append to pool %s: %w", path, err)
		}
	}
	return nil
}

// WritePoolFromIndex builds a pool containing every machine id in an index
// log, in index order. Generation uses this to auto-create the full case
// pool.
func WritePoolFromIndex(indexPath, poolPath string) (int, error) {
	var ids []string
	err := ReadIndex(indexPath, func(entry IndexEntry) error {
		ids = append(ids, entry.MachineID)
		return nil
	})
	if err != nil {
		return 0, err
	}
	if err := WritePool(poolPath, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// ListPools returns the pool names present under the pools directory.
func ListPools(poolsDir string) ([]string, error) {
	entries, err := os.ReadDir(poolsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list pools: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".txt"))
	}
	return names, nil
}
