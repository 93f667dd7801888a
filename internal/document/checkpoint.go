package document

import (
	"fmt"
	"path"
	"time"

	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/devidw/rem/internal/catalog"
)

// CheckpointsDir holds point-in-time copies of the document blob. Assets
// are content-addressed and never rewritten, so checkpoints don't copy them.
const CheckpointsDir = "checkpoints"

func checkpointPath(id string) string {
	return path.Join(CheckpointsDir, id+".json")
}

// CreateCheckpoint writes a point-in-time copy of the document and records
// it in the catalog.
func (s *Store) CreateCheckpoint(note string) (catalog.Checkpoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.serializeLocked()
	cp := catalog.Checkpoint{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		Note:      note,
		Size:      int64(len(data)),
		Pages:     len(s.listPagesLocked()),
	}

	if err := s.fs.MkdirAll(CheckpointsDir, 0o755); err != nil {
		return catalog.Checkpoint{}, fmt.Errorf("mkdir %s: %w", CheckpointsDir, err)
	}
	if err := util.WriteFile(s.fs, checkpointPath(cp.ID), data, 0o644); err != nil {
		return catalog.Checkpoint{}, fmt.Errorf("write checkpoint: %w", err)
	}
	if err := s.catalog.InsertCheckpoint(cp); err != nil {
		return catalog.Checkpoint{}, err
	}
	s.log.Info("checkpoint created",
		zap.String("id", cp.ID),
		zap.Int64("bytes", cp.Size),
		zap.Int("pages", cp.Pages),
	)
	return cp, nil
}

// ListCheckpoints returns checkpoint history, newest first.
func (s *Store) ListCheckpoints() ([]catalog.Checkpoint, error) {
	return s.catalog.ListCheckpoints()
}

// RestoreCheckpoint replaces the live document with a checkpoint's copy and
// persists immediately; the debounce does not apply to restores.
func (s *Store) RestoreCheckpoint(id string) error {
	cp, err := s.catalog.GetCheckpoint(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := util.ReadFile(s.fs, checkpointPath(cp.ID))
	if err != nil {
		return fmt.Errorf("read checkpoint %s: %w", cp.ID, err)
	}
	doc, err := parseSnapshot(data)
	if err != nil {
		return fmt.Errorf("checkpoint %s: %w", cp.ID, err)
	}
	s.doc = doc
	s.dirty = true
	if err := s.saveLocked(); err != nil {
		return err
	}
	s.log.Info("checkpoint restored", zap.String("id", cp.ID))
	return nil
}
