package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gloveiq-importer/models"
)

// CheckpointFileName is hidden next to the export artifacts.
const CheckpointFileName = ".library_import.checkpoint.json"

// FileFingerprint signs the input file by absolute path, byte size and mtime.
// This is a short-circuit, not a cryptographic guarantee: a rewrite with
// identical size inside the mtime granularity reads as unchanged.
func FileFingerprint(path string) (models.Fingerprint, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return models.Fingerprint{}, fmt.Errorf("checkpoint: resolve %q: %w", path, err)
	}
	st, err := os.Stat(abs)
	if err != nil {
		return models.Fingerprint{}, fmt.Errorf("checkpoint: stat %q: %w", abs, err)
	}
	return models.Fingerprint{
		Path:  abs,
		Size:  st.Size(),
		MTime: st.ModTime().Unix(),
	}, nil
}

// BuildCheckpoint assembles the checkpoint payload for a committed export.
func BuildCheckpoint(fp models.Fingerprint, exports *models.Exports) *models.Checkpoint {
	return &models.Checkpoint{
		GeneratedAt:      time.Now().UTC().Format("2006-01-02T15:04:05Z"),
		InputFingerprint: fp,
		Counts: map[string]int{
			"listings":   len(exports.Listings),
			"media_rows": len(exports.MediaManifest),
		},
	}
}

// CheckpointManager loads and persists the run checkpoint.
type CheckpointManager struct {
	path string
}

func NewCheckpointManager(outDir string) *CheckpointManager {
	return &CheckpointManager{path: filepath.Join(outDir, CheckpointFileName)}
}

// Path returns the checkpoint file location.
func (m *CheckpointManager) Path() string { return m.path }

// Load reads the prior checkpoint. A missing or unreadable checkpoint is not
// an error, just absent.
func (m *CheckpointManager) Load() *models.Checkpoint {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return nil
	}
	var cp models.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil
	}
	return &cp
}

// ShouldSkip reports whether the whole run can be skipped: resume enabled,
// not forced, all required output artifacts still on disk, and the recorded
// fingerprint equal to the current one.
func (m *CheckpointManager) ShouldSkip(fp models.Fingerprint, resume, force bool, requiredFiles []string) bool {
	if !resume || force {
		return false
	}
	for _, f := range requiredFiles {
		if _, err := os.Stat(f); err != nil {
			return false
		}
	}
	prior := m.Load()
	return prior != nil && prior.InputFingerprint == fp
}

// Persist writes a fresh checkpoint atomically. Callers invoke this only
// after every export artifact committed, so the checkpoint never claims an
// export that did not finish.
func (m *CheckpointManager) Persist(cp *models.Checkpoint) error {
	data, err := encodeCanonical(cp, true)
	if err != nil {
		return fmt.Errorf("checkpoint: encode: %w", err)
	}
	if err := writeAtomic(m.path, data); err != nil {
		return fmt.Errorf("checkpoint: persist: %w", err)
	}
	return nil
}
