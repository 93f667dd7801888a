// Package assets stores the binary blobs the editor uploads (images,
// video, anything embedded on the canvas) under opaque ids. Blobs live on
// the filesystem; metadata lives in the catalog.
package assets

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"time"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/devidw/rem/internal/catalog"
)

// Dir holds asset blobs inside the data directory.
const Dir = "assets"

var ErrTooLarge = errors.New("asset exceeds maximum size")

// Store writes and serves asset blobs.
type Store struct {
	fs       billy.Filesystem
	catalog  *catalog.Catalog
	log      *zap.Logger
	maxBytes int64
}

func New(fs billy.Filesystem, cat *catalog.Catalog, maxBytes int64, log *zap.Logger) *Store {
	return &Store{fs: fs, catalog: cat, log: log, maxBytes: maxBytes}
}

func blobPath(id, name string) string {
	return path.Join(Dir, id+path.Ext(name))
}

// Put stores one uploaded blob and returns its metadata. The content type
// comes from the extension table, with sniffing as fallback.
func (s *Store) Put(name string, r io.Reader) (catalog.Asset, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return catalog.Asset{}, fmt.Errorf("read asset body: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return catalog.Asset{}, ErrTooLarge
	}

	if name == "" {
		name = "asset"
	}
	mime, ok := MIMEForExt(path.Ext(name))
	if !ok {
		mime = http.DetectContentType(data)
	}

	a := catalog.Asset{
		ID:        uuid.NewString(),
		Name:      path.Base(name),
		MIME:      mime,
		Size:      int64(len(data)),
		CreatedAt: time.Now(),
	}

	if err := s.fs.MkdirAll(Dir, 0o755); err != nil {
		return catalog.Asset{}, fmt.Errorf("mkdir %s: %w", Dir, err)
	}
	if err := util.WriteFile(s.fs, blobPath(a.ID, a.Name), data, 0o644); err != nil {
		return catalog.Asset{}, fmt.Errorf("write asset blob: %w", err)
	}
	if err := s.catalog.InsertAsset(a); err != nil {
		return catalog.Asset{}, err
	}
	s.log.Info("asset stored",
		zap.String("id", a.ID),
		zap.String("mime", a.MIME),
		zap.Int64("bytes", a.Size),
	)
	return a, nil
}

// Open returns the blob stream and metadata for one asset.
func (s *Store) Open(id string) (io.ReadCloser, catalog.Asset, error) {
	a, err := s.catalog.GetAsset(id)
	if err != nil {
		return nil, catalog.Asset{}, err
	}
	f, err := s.fs.Open(blobPath(a.ID, a.Name))
	if err != nil {
		return nil, catalog.Asset{}, fmt.Errorf("open asset blob %s: %w", a.ID, err)
	}
	return f, a, nil
}

// Stat returns metadata without touching the blob.
func (s *Store) Stat(id string) (catalog.Asset, error) {
	return s.catalog.GetAsset(id)
}

// Delete removes the blob and its metadata row.
func (s *Store) Delete(id string) error {
	a, err := s.catalog.GetAsset(id)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(blobPath(a.ID, a.Name)); err != nil {
		s.log.Warn("asset blob removal failed", zap.String("id", id), zap.Error(err))
	}
	return s.catalog.DeleteAsset(id)
}

// List returns all asset metadata, newest first.
func (s *Store) List() ([]catalog.Asset, error) {
	return s.catalog.ListAssets()
}
