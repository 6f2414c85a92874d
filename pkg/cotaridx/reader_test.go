package cotaridx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Reader_Get_ReturnsPayloadBytes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tarPath, offsets := writeRawTar(t, dir, []tarFixtureFile{
		{path: "tiles/0/0/0.pbf", payload: []byte("tile-bytes")},
	})

	b := NewBuilder()
	require.NoError(t, b.Add("tiles/0/0/0.pbf", offsets[0], 10))

	img, _, err := b.Pack(1.0)
	require.NoError(t, err)

	idxPath := tarPath + ".index"
	require.NoError(t, os.WriteFile(idxPath, img, 0o644))

	r, err := OpenSidecar(tarPath, idxPath)
	require.NoError(t, err)
	defer r.Close()

	data, err := r.Get("tiles/0/0/0.pbf")
	require.NoError(t, err)
	assert.Equal(t, []byte("tile-bytes"), data)

	missing, err := r.Get("tiles/0/0/1.pbf")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func Test_OpenEmbedded_RejectsTooSmallFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "tiny.tar")
	require.NoError(t, os.WriteFile(path, []byte("short"), 0o644))

	_, err := OpenEmbedded(path)
	require.Error(t, err)
}

func Test_OpenSidecar_RejectsWrongMagicHeader(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tarPath, _ := writeRawTar(t, dir, []tarFixtureFile{{path: "a", payload: []byte("x")}})

	idxPath := tarPath + ".index"
	require.NoError(t, os.WriteFile(idxPath, []byte{0, 0, 0, 0, 1, 0, 0, 0}, 0o644))

	_, err := OpenSidecar(tarPath, idxPath)
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func Test_Reader_Close_IsSafeForEmbeddedAliasing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tarPath, offsets := writeRawTar(t, dir, []tarFixtureFile{{path: "a", payload: []byte("x")}})

	b := NewBuilder()
	require.NoError(t, b.Add("a", offsets[0], 1))

	img, _, err := b.Pack(1.0)
	require.NoError(t, err)

	appendImage(t, tarPath, img)

	r, err := OpenEmbedded(tarPath)
	require.NoError(t, err)
	require.NoError(t, r.Close())
}
