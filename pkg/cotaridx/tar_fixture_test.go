package cotaridx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// tarFixtureFile is one member to embed in a hand-built test tar.
type tarFixtureFile struct {
	path    string
	payload []byte
}

// writeRawTar writes a minimal USTAR-shaped tar containing files at
// predictable 512-byte-aligned offsets: each member is one 512-byte header
// block followed by ceil(len(payload)/512) data blocks, plus two trailing
// zero blocks. It returns the tar's path and, for each input file, the
// byte offset of its payload (what Builder.Add expects).
func writeRawTar(t *testing.T, dir string, files []tarFixtureFile) (tarPath string, offsets []int64) {
	t.Helper()

	var buf []byte

	offsets = make([]int64, len(files))

	for i, f := range files {
		header := make([]byte, 512)
		copy(header, f.path) // not a spec-faithful USTAR header, just a placeholder block

		buf = append(buf, header...)
		offsets[i] = int64(len(buf))

		buf = append(buf, f.payload...)

		pad := (512 - len(f.payload)%512) % 512
		buf = append(buf, make([]byte, pad)...)
	}

	buf = append(buf, make([]byte, 1024)...) // two zero trailer blocks

	tarPath = filepath.Join(dir, "fixture.tar")
	require.NoError(t, os.WriteFile(tarPath, buf, 0o644))

	return tarPath, offsets
}

// appendImage writes img immediately after the current contents of path
// (used to simulate an embedded index appended to a tar).
func appendImage(t *testing.T, path string, img []byte) {
	t.Helper()

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)

	defer f.Close()

	_, err = f.Write(img)
	require.NoError(t, err)
}
