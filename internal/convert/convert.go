// Package convert builds a COTAR-ready tar archive from an MBTiles (SQLite)
// tileset, the external converter described by the index's domain contract.
//
// It uses database/sql with the mattn/go-sqlite3 driver to read tile rows,
// then writes a standard tar via archive/tar, so the resulting archive can
// be walked by internal/tarscan and indexed by pkg/cotaridx.Builder exactly
// like any other tar.
package convert

import (
	"archive/tar"
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/blacha/cotar/pkg/cotaridx"
)

// ErrConverterInputMismatch indicates the source or destination path does
// not carry the expected extension (.mbtiles / .tar).
var ErrConverterInputMismatch = errors.New("convert: input/output extension mismatch")

// ErrConflictingOptions indicates DropDuplicates was requested without Dedup.
var ErrConflictingOptions = errors.New("convert: drop_duplicates requires dedup")

// gzipMagic is the two-byte gzip stream signature.
var gzipMagic = [2]byte{0x1F, 0x8B}

// Options controls MBTiles→tar conversion.
type Options struct {
	// Dedup enables content-dedup by (size, fingerprint): repeated payloads
	// are written once and referenced by hard-link entries thereafter.
	Dedup bool

	// DropDuplicates, when combined with Dedup, omits duplicate payloads
	// entirely instead of emitting hard-link entries for them. Rejected
	// unless Dedup is also set.
	DropDuplicates bool
}

// Stats summarizes one conversion run.
type Stats struct {
	TilesRead      int
	RegularEntries int
	LinkEntries    int
	DroppedEntries int
}

// contentKey identifies a tile payload for dedup purposes: the spec defines
// this as (payload_size, fnv1a_64(payload)), not a full content hash, since
// the fingerprint alone is enough to catch duplicates from a fixed tile set
// in practice.
type contentKey struct {
	size uint64
	hash uint64
}

// Convert reads the MBTiles database at srcPath and writes a tar archive to
// dstPath. Both paths are validated by extension before anything is opened.
func Convert(ctx context.Context, srcPath, dstPath string, opts Options) (Stats, error) {
	var stats Stats

	if !strings.HasSuffix(srcPath, ".mbtiles") || !strings.HasSuffix(dstPath, ".tar") {
		return stats, fmt.Errorf("%w: src=%q dst=%q", ErrConverterInputMismatch, srcPath, dstPath)
	}

	if opts.DropDuplicates && !opts.Dedup {
		return stats, ErrConflictingOptions
	}

	db, err := openMBTiles(ctx, srcPath)
	if err != nil {
		return stats, err
	}
	defer db.Close()

	ext, err := tileExtension(ctx, db)
	if err != nil {
		return stats, err
	}

	out, err := os.Create(dstPath)
	if err != nil {
		return stats, fmt.Errorf("convert: create %s: %w", dstPath, err)
	}
	defer out.Close()

	tw := tar.NewWriter(out)
	defer tw.Close()

	if err := writeTiles(ctx, db, tw, ext, opts, &stats); err != nil {
		return stats, err
	}

	if err := tw.Close(); err != nil {
		return stats, fmt.Errorf("convert: finalize tar: %w", err)
	}

	return stats, nil
}

func openMBTiles(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?mode=ro&immutable=1")
	if err != nil {
		return nil, fmt.Errorf("convert: open mbtiles: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("convert: ping mbtiles: %w", err)
	}

	return db, nil
}

// tileExtension reads metadata.format, defaulting to "pbf" when absent, the
// way MBTiles readers conventionally fall back.
func tileExtension(ctx context.Context, db *sql.DB) (string, error) {
	row := db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE name = 'format'`)

	var format string

	err := row.Scan(&format)
	if errors.Is(err, sql.ErrNoRows) {
		return "pbf", nil
	}

	if err != nil {
		return "", fmt.Errorf("convert: read metadata.format: %w", err)
	}

	if format == "" {
		return "pbf", nil
	}

	return format, nil
}

func writeTiles(ctx context.Context, db *sql.DB, tw *tar.Writer, ext string, opts Options, stats *Stats) error {
	rows, err := db.QueryContext(ctx, `
		SELECT zoom_level, tile_column, tile_row, tile_data
		FROM tiles
		ORDER BY zoom_level, tile_column, tile_row
	`)
	if err != nil {
		return fmt.Errorf("convert: query tiles: %w", err)
	}
	defer rows.Close()

	seen := make(map[contentKey]string) // contentKey -> first path written

	for rows.Next() {
		var (
			z, x, y int
			data    []byte
		)

		if err := rows.Scan(&z, &x, &y, &data); err != nil {
			return fmt.Errorf("convert: scan tile row: %w", err)
		}

		stats.TilesRead++

		yFlipped := (1 << uint(z)) - 1 - y
		path := tilePath(z, x, yFlipped, ext, data)

		if !opts.Dedup {
			if err := writeRegular(tw, path, data); err != nil {
				return err
			}

			stats.RegularEntries++

			continue
		}

		key := contentKey{size: uint64(len(data)), hash: cotaridx.HashBytes(data)}

		if first, ok := seen[key]; ok {
			if opts.DropDuplicates {
				stats.DroppedEntries++
				continue
			}

			if err := writeLink(tw, path, first); err != nil {
				return err
			}

			stats.LinkEntries++

			continue
		}

		if err := writeRegular(tw, path, data); err != nil {
			return err
		}

		seen[key] = path
		stats.RegularEntries++
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("convert: iterate tile rows: %w", err)
	}

	return nil
}

// tilePath builds tiles/{z}/{x}/{y}.<ext>[.gz], appending .gz when the
// payload starts with the gzip magic bytes.
func tilePath(z, x, y int, ext string, data []byte) string {
	path := fmt.Sprintf("tiles/%d/%d/%d.%s", z, x, y, ext)

	if isGzip(data) {
		path += ".gz"
	}

	return path
}

func isGzip(data []byte) bool {
	return len(data) >= 2 && data[0] == gzipMagic[0] && data[1] == gzipMagic[1]
}

func writeRegular(tw *tar.Writer, path string, data []byte) error {
	hdr := &tar.Header{
		Name:     path,
		Typeflag: tar.TypeReg,
		Mode:     0o644,
		Size:     int64(len(data)),
	}

	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("convert: write header %s: %w", path, err)
	}

	if _, err := io.Copy(tw, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("convert: write payload %s: %w", path, err)
	}

	return nil
}

func writeLink(tw *tar.Writer, path, target string) error {
	hdr := &tar.Header{
		Name:     path,
		Typeflag: tar.TypeLink,
		Linkname: target,
		Mode:     0o644,
	}

	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("convert: write link header %s: %w", path, err)
	}

	return nil
}
