package cotaridx

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	return path
}

func Test_DataView_ReadExact_SequentialAndRandomAccess(t *testing.T) {
	t.Parallel()

	content := make([]byte, 4096)
	for i := range content {
		content[i] = byte(i)
	}

	path := writeTempFile(t, content)

	v, err := OpenDataView(path)
	require.NoError(t, err)
	defer v.Close()

	assert.Equal(t, int64(4096), v.Size())

	// Sequential reads should not require re-seeking.
	first, err := v.ReadExact(0, 16)
	require.NoError(t, err)
	assert.Equal(t, content[0:16], first)

	second, err := v.ReadExact(16, 16)
	require.NoError(t, err)
	assert.Equal(t, content[16:32], second)

	// Random access after a sequential run.
	jump, err := v.ReadExact(2000, 100)
	require.NoError(t, err)
	assert.Equal(t, content[2000:2100], jump)
}

func Test_DataView_ReadExact_RejectsOutOfBounds(t *testing.T) {
	t.Parallel()

	path := writeTempFile(t, []byte("hello"))

	v, err := OpenDataView(path)
	require.NoError(t, err)
	defer v.Close()

	_, err = v.ReadExact(3, 10)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)

	_, err = v.ReadExact(-1, 1)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func Test_OpenDataView_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := OpenDataView(filepath.Join(t.TempDir(), "nope.bin"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
