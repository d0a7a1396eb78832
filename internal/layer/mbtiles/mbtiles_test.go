package mbtiles

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pelicanmapping/rocky-terrain/internal/geo"
	"github.com/pelicanmapping/rocky-terrain/internal/status"
)

func createTestMBTiles(t *testing.T, pixels map[[3]uint32]color.RGBA) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.mbtiles")

	s, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	defer s.Close()

	if _, err := s.Exec(Schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}
	if _, err := s.Exec(`INSERT INTO metadata (name, value) VALUES ('profile', 'global-geodetic'), ('format', 'png')`); err != nil {
		t.Fatalf("inserting metadata: %v", err)
	}

	for coords, c := range pixels {
		img := image.NewRGBA(image.Rect(0, 0, 2, 2))
		for y := 0; y < 2; y++ {
			for x := 0; x < 2; x++ {
				img.SetRGBA(x, y, c)
			}
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			t.Fatalf("encoding test png: %v", err)
		}
		if _, err := s.Exec(
			`INSERT INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)`,
			coords[0], coords[1], coords[2], buf.Bytes(),
		); err != nil {
			t.Fatalf("inserting tile: %v", err)
		}
	}

	return path
}

func TestImageLayerOpenReadsMetadata(t *testing.T) {
	path := createTestMBTiles(t, map[[3]uint32]color.RGBA{
		{0, 0, 0}: {R: 255, G: 0, B: 0, A: 255},
	})
	l := NewImageLayer("test", path)
	defer l.Close()

	s := l.Open(context.Background())
	if s.Failed() {
		t.Fatalf("open failed: %v", s)
	}
	p, _ := geo.NamedProfile("global-geodetic")
	if !l.Profile().Equivalent(p) {
		t.Errorf("expected global-geodetic profile from metadata, got %+v", l.Profile())
	}
}

func TestImageLayerCreateImageInvertsRow(t *testing.T) {
	// At LOD 1 there are 2 rows; TileKey row 0 (top) maps to stored tile_row 1.
	path := createTestMBTiles(t, map[[3]uint32]color.RGBA{
		{1, 0, 1}: {R: 10, G: 20, B: 30, A: 255}, // stored row for TileKey Y=0
	})
	l := NewImageLayer("test", path)
	defer l.Close()
	if s := l.Open(context.Background()); s.Failed() {
		t.Fatalf("open failed: %v", s)
	}

	key := geo.TileKey{LOD: 1, X: 0, Y: 0, Profile: l.Profile()}
	result := l.CreateImage(context.Background(), key)
	if result.Failed() {
		t.Fatalf("CreateImage failed: %v", result.Status)
	}
	got := result.Value.Image.At(0, 0)
	if got[0] < 0.03 || got[0] > 0.05 {
		t.Errorf("unexpected red channel %v, want ~10/255", got[0])
	}
}

func TestImageLayerCreateImageMissingTileIsResourceUnavailable(t *testing.T) {
	path := createTestMBTiles(t, nil)
	l := NewImageLayer("test", path)
	defer l.Close()
	l.Open(context.Background())

	key := geo.TileKey{LOD: 5, X: 1, Y: 1, Profile: l.Profile()}
	result := l.CreateImage(context.Background(), key)
	if !result.Failed() {
		t.Fatal("expected failure for missing tile")
	}
	if result.Status.Kind != status.ResourceUnavailable {
		t.Errorf("expected ResourceUnavailable, got %v", result.Status)
	}
}

