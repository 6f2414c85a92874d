package cotaridx

import (
	"fmt"
	"io"
	"os"
)

// DataView is a scoped, random-access byte reader over a file of known
// length. It seeks only when the current position differs from the
// requested offset, so a sequential scan (the build-time read-back path)
// never pays for a redundant seek syscall.
//
// DataView is not safe for concurrent use: it mutates the file's read
// cursor. Callers that need parallel lookups should open independent
// DataViews over the same path - the files COTAR reads are never mutated
// after creation, so multiple DataViews over one path are always coherent.
type DataView struct {
	file *os.File
	size int64
	pos  int64
}

// OpenDataView opens path and stats its size. The returned DataView owns
// the file handle; callers must call Close.
func OpenDataView(path string) (*DataView, error) {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled by design
	if err != nil {
		return nil, fmt.Errorf("cotaridx: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()

		return nil, fmt.Errorf("cotaridx: stat %s: %w", path, err)
	}

	return &DataView{file: f, size: info.Size()}, nil
}

// NewDataView wraps an already-open file whose size is known, without
// taking ownership of closing it twice - Close still closes the handle.
func NewDataView(f *os.File, size int64) *DataView {
	return &DataView{file: f, size: size}
}

// Size returns the total byte length of the underlying file.
func (v *DataView) Size() int64 {
	return v.size
}

// Close releases the underlying file handle.
func (v *DataView) Close() error {
	if v.file == nil {
		return nil
	}

	return v.file.Close()
}

// ReadExact reads exactly length bytes starting at offset. It returns
// io.ErrUnexpectedEOF if the file does not have length bytes remaining from
// offset, and a wrapped I/O error for any other read failure.
func (v *DataView) ReadExact(offset, length int64) ([]byte, error) {
	if offset < 0 || length < 0 || offset+length > v.size {
		return nil, fmt.Errorf("cotaridx: read [%d,%d) out of bounds (size=%d): %w",
			offset, offset+length, v.size, io.ErrUnexpectedEOF)
	}

	if v.pos != offset {
		if _, err := v.file.Seek(offset, io.SeekStart); err != nil {
			return nil, fmt.Errorf("cotaridx: seek to %d: %w", offset, err)
		}

		v.pos = offset
	}

	buf := make([]byte, length)

	n, err := io.ReadFull(v.file, buf)
	v.pos += int64(n)

	if err != nil {
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, fmt.Errorf("cotaridx: short read at %d: %w", offset, io.ErrUnexpectedEOF)
		}

		return nil, fmt.Errorf("cotaridx: read at %d: %w", offset, err)
	}

	return buf, nil
}
