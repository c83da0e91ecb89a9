package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/larrywigington/busybeaverGPU/internal/machine"
	"github.com/larrywigington/busybeaverGPU/internal/metrics"
)

// HashRuleTable computes the content hash of a table: sha256 over the
// canonical encoding. Identical content always hashes identically, no
// matter which generation path produced it; cross-run dedup depends on it.
func HashRuleTable(table machine.RuleTable) (string, error) {
	encoded, err := table.Encode()
	if err != nil {
		return "", fmt.Errorf("encode rule table: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

// BlockStore holds rule tables addressed by content hash, sharded two
// directory levels deep by hash prefix to bound fan-out. Blocks are
// write-once: storing content that already exists is a no-op, so
// concurrent writers racing on the same hash are harmless.
type BlockStore struct {
	root string
}

func NewBlockStore(root string) *BlockStore {
	return &BlockStore{root: root}
}

func (s *BlockStore) blockPath(hash string) string {
	return filepath.Join(s.root, hash[0:2], hash[2:4], hash+".json")
}

// Store writes the table's block if absent. Returns the content hash and
// whether this call created the block.
func (s *BlockStore) Store(table machine.RuleTable) (hash string, stored bool, err error) {
	hash, err = HashRuleTable(table)
	if err != nil {
		return "", false, err
	}
	path := s.blockPath(hash)
	if _, err := os.Stat(path); err == nil {
		metrics.BlockDedupHits.Inc()
		return hash, false, nil
	} else if !os.IsNotExist(err) {
		return "", false, fmt.Errorf("stat block %s: %w", hash, err)
	}

	encoded, err := table.Encode()
	if err != nil {
		return "", false, err
	}
	if err := writeFileAtomic(path, encoded); err != nil {
		return "", false, fmt.Errorf("write block %s: %w", hash, err)
	}
	metrics.BlocksWritten.Inc()
	return hash, true, nil
}

// Load reads the block for hash and decodes it with the given shape.
// Returns ErrNotFound when no block exists at the hash's shard path.
func (s *BlockStore) Load(hash string, states, symbols int) (machine.RuleTable, error) {
	if len(hash) < 4 {
		return machine.RuleTable{}, fmt.Errorf("block %q: %w", hash, ErrNotFound)
	}
	data, err := os.ReadFile(s.blockPath(hash))
	if os.IsNotExist(err) {
		return machine.RuleTable{}, fmt.Errorf("block %s: %w", hash, ErrNotFound)
	}
	if err != nil {
		return machine.RuleTable{}, fmt.Errorf("read block %s: %w", hash, err)
	}
	table, err := machine.DecodeRuleTable(states, symbols, data)
	if err != nil {
		return machine.RuleTable{}, fmt.Errorf("block %s: %w", hash, err)
	}
	return table, nil
}

// Exists reports whether a block for hash is present.
func (s *BlockStore) Exists(hash string) bool {
	if len(hash) < 4 {
		return false
	}
	_, err := os.Stat(s.blockPath(hash))
	return err == nil
}

// writeFileAtomic writes data via a temp file and rename so a crashed
// writer never leaves a truncated file behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
