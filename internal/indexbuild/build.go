// Package indexbuild wires internal/tarscan, pkg/cotaridx.Builder and
// pkg/cotaridx.AutoTune together into the single "scan a tar, build a sidecar
// index" operation the index/create CLI commands share.
package indexbuild

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/natefinch/atomic"

	"github.com/blacha/cotar/internal/buildlock"
	"github.com/blacha/cotar/internal/tarscan"
	"github.com/blacha/cotar/pkg/cotaridx"
)

const tarBlockSize = 512

// Result summarizes a completed build.
type Result struct {
	Stats     cotaridx.PackStats
	IndexPath string
}

// BuildSidecar scans tarPath, builds an index auto-tuned to maxProbe, and
// atomically writes it to tarPath+".index". It refuses to overwrite an
// existing sidecar unless force is true.
func BuildSidecar(tarPath string, maxProbe int, packingFactorStep float64, force bool) (Result, error) {
	indexPath := tarPath + ".index"

	if !force {
		if _, err := os.Stat(indexPath); err == nil {
			return Result{}, fmt.Errorf("indexbuild: %s already exists (use -f to overwrite)", indexPath)
		}
	}

	var result Result

	err := buildlock.WithLock(tarPath, buildlock.DefaultTimeout, func() error {
		b, err := scanIntoBuilder(tarPath)
		if err != nil {
			return err
		}

		img, stats, err := cotaridx.AutoTune(b, maxProbe, packingFactorStep)
		if err != nil {
			return err
		}

		if err := atomic.WriteFile(indexPath, bytes.NewReader(img)); err != nil {
			return fmt.Errorf("indexbuild: write %s: %w", indexPath, err)
		}

		result = Result{Stats: stats, IndexPath: indexPath}

		return nil
	})
	if err != nil {
		return Result{}, err
	}

	return result, nil
}

// scanIntoBuilder walks tarPath with tarscan.Scanner and feeds every
// Regular/HardLink member into a fresh Builder.
func scanIntoBuilder(tarPath string) (*cotaridx.Builder, error) {
	f, err := os.Open(tarPath)
	if err != nil {
		return nil, fmt.Errorf("indexbuild: open %s: %w", tarPath, err)
	}
	defer f.Close()

	b := cotaridx.NewBuilder()
	scanner := tarscan.NewScanner(f)

	links := make([]tarscan.Entry, 0)

	for {
		entry, err := scanner.Next()
		if err == io.EOF {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("indexbuild: scan %s: %w", tarPath, err)
		}

		switch entry.Kind {
		case tarscan.Regular:
			fileOffset := entry.HeaderOffset + tarBlockSize
			if err := b.Add(entry.Path, fileOffset, uint32(entry.Size)); err != nil {
				return nil, fmt.Errorf("indexbuild: add %s: %w", entry.Path, err)
			}
		case tarscan.HardLink:
			links = append(links, *entry)
		case tarscan.Other:
			// not indexed
		}
	}

	for _, link := range links {
		if err := b.Link(link.Path, link.LinkTarget); err != nil {
			return nil, fmt.Errorf("indexbuild: link %s -> %s: %w", link.Path, link.LinkTarget, err)
		}
	}

	return b, nil
}
