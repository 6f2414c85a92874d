package tarscan

import (
	"bytes"
	"io"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ustarMember builds one well-formed 512-byte USTAR header plus its padded
// payload, mirroring just enough of the format for the scanner under test.
func ustarMember(t *testing.T, name string, typeflag byte, linkname string, payload []byte) []byte {
	t.Helper()

	header := make([]byte, blockSize)
	copy(header[offName:], name)
	copy(header[offSize:], fmtOctal(int64(len(payload)), sizeLen))
	header[offTypeflag] = typeflag
	copy(header[offLinkname:], linkname)

	var buf bytes.Buffer
	buf.Write(header)
	buf.Write(payload)

	pad := paddingFor(int64(len(payload)))
	buf.Write(make([]byte, pad))

	return buf.Bytes()
}

// fmtOctal renders v as a NUL-terminated, space-padded ASCII octal field of
// the given width, the way USTAR headers encode numeric fields.
func fmtOctal(v int64, width int) []byte {
	s := strconv.FormatInt(v, 8)
	field := make([]byte, width)

	for i := range field {
		field[i] = ' '
	}

	copy(field[width-len(s)-1:], s)
	field[width-1] = 0

	return field
}

func Test_Scanner_YieldsRegularMembersWithHeaderOffsets(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	buf.Write(ustarMember(t, "tiles/0/0/0.pbf", typeflagRegular, "", []byte("abc")))
	buf.Write(ustarMember(t, "tiles/0/0/1.pbf", typeflagRegular, "", []byte("defgh")))
	buf.Write(make([]byte, 1024)) // trailer

	s := NewScanner(&buf)

	e1, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "tiles/0/0/0.pbf", e1.Path)
	assert.Equal(t, Regular, e1.Kind)
	assert.Equal(t, int64(0), e1.HeaderOffset)
	assert.Equal(t, int64(3), e1.Size)

	e2, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, "tiles/0/0/1.pbf", e2.Path)
	assert.Equal(t, int64(blockSize+blockSize), e2.HeaderOffset) // header + one padded payload block

	_, err = s.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func Test_Scanner_ClassifiesHardLinkAndSkipsOtherTypes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	buf.Write(ustarMember(t, "a", typeflagRegular, "", []byte("x")))
	buf.Write(ustarMember(t, "b", typeflagHardLink, "a", nil))
	buf.Write(ustarMember(t, "subdir/", '5', "", nil)) // directory, typeflag '5'
	buf.Write(make([]byte, 1024))

	s := NewScanner(&buf)

	a, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, Regular, a.Kind)

	b, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, HardLink, b.Kind)
	assert.Equal(t, "a", b.LinkTarget)
	assert.Equal(t, int64(0), b.Size)

	dir, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, Other, dir.Kind)

	_, err = s.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func Test_Scanner_PayloadOffsetIsHeaderOffsetPlusBlockSize(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	buf.Write(ustarMember(t, "a", typeflagRegular, "", []byte("hello")))
	buf.Write(make([]byte, 1024))

	raw := append([]byte(nil), buf.Bytes()...)

	s := NewScanner(&buf)

	e, err := s.Next()
	require.NoError(t, err)

	// The builder derives the payload's file offset as HeaderOffset+512;
	// this is the contract tarscan promises callers.
	assert.Equal(t, int64(0), e.HeaderOffset)

	payloadOff := e.HeaderOffset + blockSize
	assert.Equal(t, []byte("hello"), raw[payloadOff:payloadOff+e.Size])
}

func Test_Scanner_TruncatedHeaderReturnsError(t *testing.T) {
	t.Parallel()

	buf := bytes.NewBuffer(make([]byte, 100)) // short of one full block

	s := NewScanner(buf)

	_, err := s.Next()
	assert.ErrorIs(t, err, ErrTruncatedHeader)
}

func Test_Scanner_TruncatedPayloadReturnsError(t *testing.T) {
	t.Parallel()

	member := ustarMember(t, "a", typeflagRegular, "", []byte("0123456789"))
	truncated := member[:blockSize+4] // header intact, payload cut short

	s := NewScanner(bytes.NewReader(truncated))

	_, err := s.Next()
	assert.ErrorIs(t, err, ErrTruncatedHeader)
}

func Test_Scanner_EmptyStreamIsImmediateEOF(t *testing.T) {
	t.Parallel()

	s := NewScanner(bytes.NewReader(nil))

	_, err := s.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func Test_ParseOctal_HandlesGNUBase256ForLargeSizes(t *testing.T) {
	t.Parallel()

	field := make([]byte, 12)
	field[0] = 0x80 // base-256 marker
	field[11] = 42

	v, err := parseOctal(field)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)
}
