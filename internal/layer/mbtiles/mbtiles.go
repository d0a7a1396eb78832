// Package mbtiles implements ImageLayer and ElevationLayer drivers over a
// real MBTiles SQLite file — the wire-exact tile pyramid store spec.md §6
// describes. Grounded on original_source/src/rocky/MBTiles.{h,cpp},
// MBTilesImageLayer.*/MBTilesElevationLayer.*, and on the teacher's own
// internal/pmtiles reader/writer for "this is how we wrap a tiled store in
// our own driver" shape. Uses mattn/go-sqlite3 for the database and
// gen2brain/webp for WebP-compressed blobs (in addition to the teacher's
// own image/png, image/jpeg decoders), satisfying the "format" metadata key.
package mbtiles

import (
	"bytes"
	"compress/zlib"
	"context"
	"database/sql"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strings"
	"sync"

	webpdecode "github.com/gen2brain/webp"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pelicanmapping/rocky-terrain/internal/geo"
	"github.com/pelicanmapping/rocky-terrain/internal/status"
)

// Schema is the wire-exact DDL spec.md §6 requires.
const Schema = `
CREATE TABLE IF NOT EXISTS metadata (name text PRIMARY KEY, value text);
CREATE TABLE IF NOT EXISTS tiles    (zoom_level int, tile_column int, tile_row int, tile_data blob);
CREATE UNIQUE INDEX IF NOT EXISTS tile_index ON tiles(zoom_level, tile_column, tile_row);
`

// store wraps the shared SQLite handle and metadata both the image and
// elevation layer variants read from. A *sql.DB is already connection-
// pooled/goroutine-safe, so the only additional guard needed is around
// metadata caching.
type store struct {
	db *sql.DB

	mu          sync.RWMutex
	format      string // "png", "jpg", "webp", "terrarium"
	compression string // "" or "zlib"
	profile     geo.Profile
}

func openStore(path string) (*store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("mbtiles: opening %s: %w", path, err)
	}
	s := &store{db: db}
	if err := s.loadMetadata(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *store) loadMetadata() error {
	rows, err := s.db.Query(`SELECT name, value FROM metadata`)
	if err != nil {
		return fmt.Errorf("mbtiles: reading metadata: %w", err)
	}
	defer rows.Close()

	meta := map[string]string{}
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return err
		}
		meta[name] = value
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.format = meta["format"]
	s.compression = meta["compression"]
	if p, ok := geo.NamedProfile(meta["profile"]); ok {
		s.profile = p
	} else {
		s.profile = geo.SphericalMercatorProfile
	}
	return nil
}

// numRowsAtLOD returns the number of tile rows at the given LOD, used for
// the MBTiles Y-row inversion (stored tile_row = numRows - tileY - 1).
func (s *store) numRowsAtLOD(lod uint32) uint32 {
	_, ty := s.profile.NumTiles(lod)
	return ty
}

// readTileBlob fetches the raw tile blob for key, or sql.ErrNoRows if absent.
func (s *store) readTileBlob(ctx context.Context, key geo.TileKey) ([]byte, error) {
	row := s.numRowsAtLOD(key.LOD) - key.Y - 1
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT tile_data FROM tiles WHERE zoom_level = ? AND tile_column = ? AND tile_row = ?`,
		key.LOD, key.X, row,
	).Scan(&blob)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	compressed := s.compression == "zlib"
	s.mu.RUnlock()
	if compressed {
		zr, err := zlib.NewReader(bytes.NewReader(blob))
		if err != nil {
			return nil, fmt.Errorf("mbtiles: zlib decompress: %w", err)
		}
		defer zr.Close()
		return io.ReadAll(zr)
	}
	return blob, nil
}

func (s *store) decodeImage(blob []byte) (image.Image, error) {
	s.mu.RLock()
	format := s.format
	s.mu.RUnlock()

	if strings.EqualFold(format, "webp") {
		return webpdecode.Decode(bytes.NewReader(blob))
	}
	img, _, err := image.Decode(bytes.NewReader(blob))
	return img, err
}

func (s *store) close() error { return s.db.Close() }

// sqlFailureStatus classifies a sqlite read failure per spec.md §6's
// data-source contract: absent rows mean "no data, try parent"; anything
// else is a general failure.
func sqlFailureStatus(err error) status.Status {
	if err == sql.ErrNoRows {
		return status.Error(status.ResourceUnavailable)
	}
	return status.Errorf(status.GeneralError, "mbtiles: %v", err)
}
