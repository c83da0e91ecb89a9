package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// IndexEntry is one line of the append-only machine index. IsCanonical is
// true on the first entry within a run to reference its hash; later
// duplicates point at the same stored block.
type IndexEntry struct {
	MachineID   string    `json:"machine_id"`
	States      int       `json:"states"`
	Symbols     int       `json:"symbols"`
	RulesetHash string    `json:"ruleset_hash"`
	IsCanonical bool      `json:"is_canonical"`
	Timestamp   time.Time `json:"timestamp"`
}

// MachineID formats the dense sequential identifier for enumeration
// position n, e.g. TM_000042. Stable within one generation run only.
func MachineID(n int) string {
	return fmt.Sprintf("TM_%06d", n)
}

// IndexWriter appends entries to a jsonl index log. Not safe for
// concurrent use; partitioned generation gives each worker its own log
// and merges afterward.
type IndexWriter struct {
	f *os.File
	w *bufio.Writer
}

func NewIndexWriter(path string) (*IndexWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open index %s: %w", path, err)
	}
	return &IndexWriter{f: f, w: bufio.NewWriter(f)}, nil
}

func (w *IndexWriter) Append(entry IndexEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal index entry: %w", err)
	}
	if _, err := w.w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append index entry: %w", err)
	}
	return nil
}

func (w *IndexWriter) Close() error {
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return fmt.Errorf("flush index: %w", err)
	}
	return w.f.Close()
}

// ReadIndex streams every entry of an index log through fn, in file order.
func ReadIndex(path string, fn func(IndexEntry) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open index %s: %w", path, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var entry IndexEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			return fmt.Errorf("index %s line %d: %w", path, lineNo, err)
		}
		if err := fn(entry); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read index %s: %w", path, err)
	}
	return nil
}

// LoadIndex reads a full index log into a machine_id lookup map plus the
// original file order.
func LoadIndex(path string) (*Index, error) {
	idx := &Index{byID: make(map[string]IndexEntry)}
	err := ReadIndex(path, func(entry IndexEntry) error {
		idx.order = append(idx.order, entry.MachineID)
		idx.byID[entry.MachineID] = entry
		return nil
	})
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// Index is an in-memory view of one index log.
type Index struct {
	order []string
	byID  map[string]IndexEntry
}

// Lookup resolves a machine id. Returns ErrNotFound for unknown ids.
func (i *Index) Lookup(machineID string) (IndexEntry, error) {
	entry, ok := i.byID[machineID]
	if !ok {
		return IndexEntry{}, fmt.Errorf("machine %s: %w", machineID, ErrNotFound)
	}
	return entry, nil
}

// MachineIDs returns every machine id in index order.
func (i *Index) MachineIDs() []string {
	out := make([]string, len(i.order))
	copy(out, i.order)
	return out
}

func (i *Index) Len() int { return len(i.order) }

// CanonicalCount returns how many entries are flagged canonical, which
// equals the number of distinct stored blocks when the index was produced
// by a single sequential dedup pass.
func (i *Index) CanonicalCount() int {
	n := 0
	for _, id := range i.order {
		if i.byID[id].IsCanonical {
			n++
		}
	}
	return n
}

// MergeIndexLogs concatenates per-worker shard logs into the final index,
// renumbering machine ids densely in shard order and recomputing
// IsCanonical as first-seen across the merged stream. Shard files are
// removed on success. Worker-local canonical flags are discarded: the
// merge is the single sequential pass that owns global dedup status.
func MergeIndexLogs(dst string, shards []string) (total, canonical int, err error) {
	// A generation run owns the whole index; stale entries from a previous
	// run must not survive the merge.
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return 0, 0, fmt.Errorf("reset index %s: %w", dst, err)
	}
	out, err := NewIndexWriter(dst)
	if err != nil {
		return 0, 0, err
	}
	seen := make(map[string]struct{})
	counter := 0
	for _, shard := range shards {
		err := ReadIndex(shard, func(entry IndexEntry) error {
			entry.MachineID = MachineID(counter)
			_, dup := seen[entry.RulesetHash]
			entry.IsCanonical = !dup
			if !dup {
				seen[entry.RulesetHash] = struct{}{}
				canonical++
			}
			counter++
			return out.Append(entry)
		})
		if err != nil {
			out.Close()
			return 0, 0, fmt.Errorf("merge shard %s: %w", shard, err)
		}
	}
	if err := out.Close(); err != nil {
		return 0, 0, err
	}
	for _, shard := range shards {
		if err := os.Remove(shard); err != nil && !os.IsNotExist(err) {
			return 0, 0, fmt.Errorf("remove shard %s: %w", shard, err)
		}
	}
	return counter, canonical, nil
}
