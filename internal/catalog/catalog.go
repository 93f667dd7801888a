// Package catalog is the SQLite index over everything the data directory
// holds besides the live document: checkpoint history and asset metadata.
// The blobs themselves live on the filesystem; the catalog only answers
// "what exists" queries without touching them.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

var (
	ErrCheckpointNotFound = errors.New("checkpoint not found")
	ErrAssetNotFound      = errors.New("asset not found")
)

// Checkpoint is one row of checkpoint history.
type Checkpoint struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Note      string    `json:"note"`
	Size      int64     `json:"size"`
	Pages     int       `json:"pages"`
}

// Asset is the metadata row for one uploaded blob.
type Asset struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	MIME      string    `json:"mime"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

const schema = `
CREATE TABLE IF NOT EXISTS checkpoints (
	id         TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	note       TEXT NOT NULL DEFAULT '',
	size       INTEGER NOT NULL,
	pages      INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS assets (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	mime       TEXT NOT NULL,
	size       INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
`

// Catalog wraps the SQLite handle.
type Catalog struct {
	db *sql.DB
}

// Open opens or creates the catalog database at path.
func Open(path string) (*Catalog, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	db.SetMaxOpenConns(2)

	// journal_mode=DELETE: after commit the .db file is the whole database,
	// so checkpointed data dirs can be copied around without WAL sidecars.
	if _, err := db.Exec("PRAGMA journal_mode=DELETE"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set journal mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set synchronous: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create catalog schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

func (c *Catalog) Close() error {
	return c.db.Close()
}

// ---------------------------------------------------------------------------
// Checkpoints
// ---------------------------------------------------------------------------

func (c *Catalog) InsertCheckpoint(cp Checkpoint) error {
	_, err := c.db.Exec(
		"INSERT INTO checkpoints (id, created_at, note, size, pages) VALUES (?, ?, ?, ?, ?)",
		cp.ID, cp.CreatedAt.UnixNano(), cp.Note, cp.Size, cp.Pages,
	)
	if err != nil {
		return fmt.Errorf("insert checkpoint: %w", err)
	}
	return nil
}

func (c *Catalog) GetCheckpoint(id string) (Checkpoint, error) {
	var cp Checkpoint
	var createdAt int64
	err := c.db.QueryRow(
		"SELECT id, created_at, note, size, pages FROM checkpoints WHERE id = ?", id,
	).Scan(&cp.ID, &createdAt, &cp.Note, &cp.Size, &cp.Pages)
	if err == sql.ErrNoRows {
		return Checkpoint{}, ErrCheckpointNotFound
	}
	if err != nil {
		return Checkpoint{}, err
	}
	cp.CreatedAt = time.Unix(0, createdAt)
	return cp, nil
}

// ListCheckpoints returns all checkpoints, newest first.
func (c *Catalog) ListCheckpoints() ([]Checkpoint, error) {
	rows, err := c.db.Query(
		"SELECT id, created_at, note, size, pages FROM checkpoints ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Checkpoint
	for rows.Next() {
		var cp Checkpoint
		var createdAt int64
		if err := rows.Scan(&cp.ID, &createdAt, &cp.Note, &cp.Size, &cp.Pages); err != nil {
			return nil, err
		}
		cp.CreatedAt = time.Unix(0, createdAt)
		out = append(out, cp)
	}
	return out, rows.Err()
}

// ---------------------------------------------------------------------------
// Assets
// ---------------------------------------------------------------------------

func (c *Catalog) InsertAsset(a Asset) error {
	_, err := c.db.Exec(
		"INSERT INTO assets (id, name, mime, size, created_at) VALUES (?, ?, ?, ?, ?)",
		a.ID, a.Name, a.MIME, a.Size, a.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

func (c *Catalog) GetAsset(id string) (Asset, error) {
	var a Asset
	var createdAt int64
	err := c.db.QueryRow(
		"SELECT id, name, mime, size, created_at FROM assets WHERE id = ?", id,
	).Scan(&a.ID, &a.Name, &a.MIME, &a.Size, &createdAt)
	if err == sql.ErrNoRows {
		return Asset{}, ErrAssetNotFound
	}
	if err != nil {
		return Asset{}, err
	}
	a.CreatedAt = time.Unix(0, createdAt)
	return a, nil
}

func (c *Catalog) DeleteAsset(id string) error {
	res, err := c.db.Exec("DELETE FROM assets WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrAssetNotFound
	}
	return nil
}

// ListAssets returns all asset rows, newest first.
func (c *Catalog) ListAssets() ([]Asset, error) {
	rows, err := c.db.Query(
		"SELECT id, name, mime, size, created_at FROM assets ORDER BY created_at DESC",
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Asset
	for rows.Next() {
		var a Asset
		var createdAt int64
		if err := rows.Scan(&a.ID, &a.Name, &a.MIME, &a.Size, &createdAt); err != nil {
			return nil, err
		}
		a.CreatedAt = time.Unix(0, createdAt)
		out = append(out, a)
	}
	return out, rows.Err()
}
