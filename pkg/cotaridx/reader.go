package cotaridx

import "fmt"

// Reader resolves tar member paths to byte ranges and reads their payloads.
// It borrows a DataView over the tar file (and, for sidecar indexes, a
// second DataView over the index file) for its lifetime.
//
// Reader is not safe for concurrent use by multiple goroutines; open an
// independent Reader per goroutine over the same files instead.
type Reader struct {
	tar       *DataView
	index     *DataView // may alias tar, for embedded indexes
	indexBase int64      // byte offset of the index image within `index`
	slotCount uint32
}

// OpenEmbedded opens tarPath, treating its final 16+16*SlotCount bytes as
// the COTAR v2 index image. Returns [ErrInvalidMagic] if the footer's magic
// does not match, or [ErrTruncatedIndex] if the file is too small to hold a
// valid image.
func OpenEmbedded(tarPath string) (*Reader, error) {
	tar, err := OpenDataView(tarPath)
	if err != nil {
		return nil, err
	}

	if tar.Size() < footerSize {
		_ = tar.Close()

		return nil, fmt.Errorf("cotaridx: file too small for an embedded index: %w", ErrTruncatedIndex)
	}

	footer, err := tar.ReadExact(tar.Size()-footerSize, footerSize)
	if err != nil {
		_ = tar.Close()

		return nil, fmt.Errorf("cotaridx: read embedded footer: %w", err)
	}

	slotCount, err := decodeHeaderFooter(footer)
	if err != nil {
		_ = tar.Close()

		return nil, err
	}

	indexBase := tar.Size() - imageSize(slotCount)
	if indexBase < 0 {
		_ = tar.Close()

		return nil, fmt.Errorf("cotaridx: embedded index larger than file: %w", ErrTruncatedIndex)
	}

	return &Reader{tar: tar, index: tar, indexBase: indexBase, slotCount: slotCount}, nil
}

// OpenSidecar opens tarPath for payload reads and indexPath (conventionally
// "<tar>.index") as the entire COTAR v2 index image. Returns
// [ErrInvalidMagic] if the header's magic does not match, or
// [ErrTruncatedIndex] if indexPath is too small to hold a valid image.
func OpenSidecar(tarPath, indexPath string) (*Reader, error) {
	tar, err := OpenDataView(tarPath)
	if err != nil {
		return nil, err
	}

	index, err := OpenDataView(indexPath)
	if err != nil {
		_ = tar.Close()

		return nil, err
	}

	if index.Size() < headerSize {
		_ = tar.Close()
		_ = index.Close()

		return nil, fmt.Errorf("cotaridx: sidecar too small for a header: %w", ErrTruncatedIndex)
	}

	header, err := index.ReadExact(0, headerSize)
	if err != nil {
		_ = tar.Close()
		_ = index.Close()

		return nil, fmt.Errorf("cotaridx: read sidecar header: %w", err)
	}

	slotCount, err := decodeHeaderFooter(header)
	if err != nil {
		_ = tar.Close()
		_ = index.Close()

		return nil, err
	}

	if index.Size() < imageSize(slotCount) {
		_ = tar.Close()
		_ = index.Close()

		return nil, fmt.Errorf("cotaridx: sidecar shorter than declared slot count: %w", ErrTruncatedIndex)
	}

	return &Reader{tar: tar, index: index, indexBase: 0, slotCount: slotCount}, nil
}

// ValidateFooter cross-checks the footer of a sidecar/embedded image
// against its header, returning [ErrTruncatedIndex] on mismatch. Open does
// not call this automatically; callers who want the extra check (e.g. the
// `validate` CLI command) call it explicitly.
func (r *Reader) ValidateFooter() error {
	header, err := r.index.ReadExact(r.indexBase, headerSize)
	if err != nil {
		return fmt.Errorf("cotaridx: read header: %w", err)
	}

	headerSlotCount, err := decodeHeaderFooter(header)
	if err != nil {
		return err
	}

	footerOff := r.indexBase + imageSize(r.slotCount) - footerSize

	footer, err := r.index.ReadExact(footerOff, footerSize)
	if err != nil {
		return fmt.Errorf("cotaridx: read footer: %w", err)
	}

	footerSlotCount, err := decodeHeaderFooter(footer)
	if err != nil {
		return err
	}

	if footerSlotCount != headerSlotCount {
		return fmt.Errorf("cotaridx: header/footer slot_count mismatch (%d != %d): %w",
			headerSlotCount, footerSlotCount, ErrTruncatedIndex)
	}

	return nil
}

// SlotCount returns the number of slots in the open index.
func (r *Reader) SlotCount() uint32 {
	return r.slotCount
}

// Close releases the tar and (if distinct) index file handles.
func (r *Reader) Close() error {
	var err error

	if r.index != r.tar {
		if cerr := r.index.Close(); cerr != nil {
			err = cerr
		}
	}

	if cerr := r.tar.Close(); cerr != nil && err == nil {
		err = cerr
	}

	return err
}

// Info resolves path to its Entry via linear probing from its home bucket.
// Returns (nil, nil) if path is not present; any other error is I/O.
func (r *Reader) Info(path string) (*Entry, error) {
	if r.slotCount == 0 {
		return nil, nil
	}

	fp := Hash(path)
	start := homeBucket(fp, r.slotCount)
	i := start

	for {
		off := r.indexBase + headerSize + int64(i)*slotSize

		buf, err := r.index.ReadExact(off, slotSize)
		if err != nil {
			return nil, fmt.Errorf("cotaridx: read slot %d: %w", i, err)
		}

		slotFP := slotFingerprint(buf)
		if slotFP == 0 {
			return nil, nil
		}

		if slotFP == fp {
			e := decodeSlot(buf)
			return &e, nil
		}

		i = (i + 1) % uint64(r.slotCount)
		if i == start {
			return nil, nil
		}
	}
}

// Get resolves path and reads its payload bytes from the tar file. Returns
// (nil, nil) if path is not present.
func (r *Reader) Get(path string) ([]byte, error) {
	entry, err := r.Info(path)
	if err != nil {
		return nil, err
	}

	if entry == nil {
		return nil, nil
	}

	data, err := r.tar.ReadExact(entry.ByteOffset(), int64(entry.FileSize))
	if err != nil {
		return nil, fmt.Errorf("cotaridx: read payload for %q: %w", path, err)
	}

	return data, nil
}
