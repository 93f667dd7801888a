// Package document owns the editor snapshot: one JSON blob persisted to the
// data directory, last write wins. Page records live inside the snapshot's
// store object; this package exposes them through the primitive operations
// the session layer drives (list, create, rename, delete, current page).
package document

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"go.uber.org/zap"

	"github.com/devidw/rem/internal/catalog"
	"github.com/devidw/rem/internal/pagetree"
)

// DocumentFile is the snapshot blob's name inside the data directory.
const DocumentFile = "document.json"

var (
	ErrMalformedSnapshot = errors.New("malformed snapshot")
	ErrPageNotFound      = errors.New("page not found in document")
)

// pagesQuery selects every page record out of the snapshot's store object.
var pagesQuery = jp.MustParseString("store[?(@.typeName == 'page')]")

// Store is the live snapshot plus its persistence. Saves triggered by
// mutations are debounced; Flush forces one out, and Close flushes.
type Store struct {
	mu       sync.Mutex
	fs       billy.Filesystem
	catalog  *catalog.Catalog
	log      *zap.Logger
	debounce time.Duration

	doc       map[string]any
	dirty     bool
	saveTimer *time.Timer
}

// Open loads the snapshot from fs, bootstrapping an empty document on first
// run. A zero debounce makes every mutation write through immediately.
func Open(fs billy.Filesystem, cat *catalog.Catalog, debounce time.Duration, log *zap.Logger) (*Store, error) {
	s := &Store{
		fs:       fs,
		catalog:  cat,
		log:      log,
		debounce: debounce,
	}

	data, err := util.ReadFile(fs, DocumentFile)
	switch {
	case err == nil:
		doc, err := parseSnapshot(data)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", DocumentFile, err)
		}
		s.doc = doc
	case errors.Is(err, os.ErrNotExist):
		s.doc = emptyDocument()
		if err := s.saveLocked(); err != nil {
			return nil, err
		}
		log.Info("bootstrapped empty document")
	default:
		return nil, fmt.Errorf("read %s: %w", DocumentFile, err)
	}
	return s, nil
}

func emptyDocument() map[string]any {
	return map[string]any{
		"schemaVersion": int64(2),
		"session":       map[string]any{"currentPageId": ""},
		"store":         map[string]any{},
	}
}

func parseSnapshot(data []byte) (map[string]any, error) {
	v, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSnapshot, err)
	}
	doc, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top level is not an object", ErrMalformedSnapshot)
	}
	if _, ok := doc["store"].(map[string]any); !ok {
		doc["store"] = map[string]any{}
	}
	if _, ok := doc["session"].(map[string]any); !ok {
		doc["session"] = map[string]any{}
	}
	return doc, nil
}

// Snapshot serializes the current document.
func (s *Store) Snapshot() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.serializeLocked()
}

// Replace swaps in a whole new snapshot blob, as posted by the editor.
func (s *Store) Replace(data []byte) error {
	doc, err := parseSnapshot(data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	return s.markDirtyLocked()
}

func (s *Store) serializeLocked() []byte {
	return []byte(oj.JSON(s.doc, 2))
}

func (s *Store) storeLocked() map[string]any {
	return s.doc["store"].(map[string]any)
}

func (s *Store) sessionLocked() map[string]any {
	return s.doc["session"].(map[string]any)
}

// markDirtyLocked schedules a debounced save, or writes through when no
// debounce is configured.
func (s *Store) markDirtyLocked() error {
	s.dirty = true
	if s.debounce <= 0 {
		return s.saveLocked()
	}
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(s.debounce, func() {
		if err := s.Flush(); err != nil {
			s.log.Error("debounced save failed", zap.Error(err))
		}
	})
	return nil
}

func (s *Store) saveLocked() error {
	data := s.serializeLocked()
	if err := util.WriteFile(s.fs, DocumentFile, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", DocumentFile, err)
	}
	s.dirty = false
	s.log.Debug("document saved", zap.Int("bytes", len(data)))
	return nil
}

// Flush writes the document out now if there are unsaved changes.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	return s.saveLocked()
}

// Close stops the save timer and flushes pending changes.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	if s.dirty {
		return s.saveLocked()
	}
	return nil
}

// ---------------------------------------------------------------------------
// Page store primitives (the session layer's contract)
// ---------------------------------------------------------------------------

// ListPages returns every page record as (id, path) pairs. Page names are
// stored without a leading slash; pagetree.Parse normalizes either way.
func (s *Store) ListPages() ([]pagetree.RawNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listPagesLocked(), nil
}

func (s *Store) listPagesLocked() []pagetree.RawNode {
	var out []pagetree.RawNode
	for _, v := range pagesQuery.Get(s.doc) {
		rec, ok := v.(map[string]any)
		if !ok {
			continue
		}
		id, _ := rec["id"].(string)
		name, _ := rec["name"].(string)
		if id == "" {
			continue
		}
		out = append(out, pagetree.RawNode{ID: id, Path: name})
	}
	return out
}

// PageCount returns the number of page records in the snapshot.
func (s *Store) PageCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listPagesLocked())
}

// CreatePage materializes one new page record at the given path.
func (s *Store) CreatePage(path string) (pagetree.RawNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := "page:" + uuid.NewString()
	name := strings.TrimPrefix(pagetree.Normalize(path), "/")
	s.storeLocked()[id] = map[string]any{
		"id":       id,
		"typeName": "page",
		"name":     name,
	}
	if err := s.markDirtyLocked(); err != nil {
		return pagetree.RawNode{}, err
	}
	s.log.Info("page created", zap.String("id", id), zap.String("path", "/"+name))
	return pagetree.RawNode{ID: id, Path: name}, nil
}

// RenamePage rewrites one page record's path. Identity is unchanged.
func (s *Store) RenamePage(id, newPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.storeLocked()[id].(map[string]any)
	if !ok || rec["typeName"] != "page" {
		return ErrPageNotFound
	}
	rec["name"] = strings.TrimPrefix(pagetree.Normalize(newPath), "/")
	return s.markDirtyLocked()
}

// DeletePage removes one page record and every shape record parented to it.
func (s *Store) DeletePage(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	store := s.storeLocked()
	rec, ok := store[id].(map[string]any)
	if !ok || rec["typeName"] != "page" {
		return ErrPageNotFound
	}
	delete(store, id)
	for key, v := range store {
		if child, ok := v.(map[string]any); ok && child["parentId"] == id {
			delete(store, key)
		}
	}
	return s.markDirtyLocked()
}

// CurrentPage returns the current page record id; "" means the root.
func (s *Store) CurrentPage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, _ := s.sessionLocked()["currentPageId"].(string)
	return id
}

// SetCurrentPage records the focused page; "" focuses the root.
func (s *Store) SetCurrentPage(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		rec, ok := s.storeLocked()[id].(map[string]any)
		if !ok || rec["typeName"] != "page" {
			return ErrPageNotFound
		}
	}
	s.sessionLocked()["currentPageId"] = id
	return s.markDirtyLocked()
}
