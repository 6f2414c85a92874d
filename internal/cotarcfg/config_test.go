package cotarcfg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Load_UsesDefaultsWithNoFilesPresent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cfg, err := Load(LoadInput{WorkDir: dir, Env: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxProbe, cfg.MaxProbe)
	assert.InDelta(t, DefaultPackingFactorStep, cfg.PackingFactorStep, 1e-9)
	assert.True(t, cfg.Dedup)
}

func Test_Load_ProjectConfigOverridesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileName), `{
		// a comment, since this is JSONC
		"max_probe": 50,
		"dedup": false,
	}`)

	cfg, err := Load(LoadInput{WorkDir: dir, Env: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.MaxProbe)
	assert.False(t, cfg.Dedup)
	assert.InDelta(t, DefaultPackingFactorStep, cfg.PackingFactorStep, 1e-9)
	assert.Equal(t, filepath.Join(dir, ConfigFileName), cfg.Sources.Project)
}

func Test_Load_ExplicitConfigPathMustExist(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := Load(LoadInput{WorkDir: dir, ConfigPath: "missing.json", Env: map[string]string{}})
	assert.ErrorIs(t, err, ErrConfigFileNotFound)
}

func Test_Load_RejectsNonPositiveMaxProbe(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, ConfigFileName), `{"max_probe": 0}`)

	_, err := Load(LoadInput{WorkDir: dir, Env: map[string]string{}})
	assert.ErrorIs(t, err, ErrConfigInvalid)
}

func Test_Load_GlobalThenProjectPrecedence(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".config", "cotar"), 0o755))
	writeFile(t, filepath.Join(home, ".config", "cotar", "config.json"), `{"max_probe": 10, "dedup": false}`)

	projectDir := t.TempDir()
	writeFile(t, filepath.Join(projectDir, ConfigFileName), `{"max_probe": 20}`)

	cfg, err := Load(LoadInput{WorkDir: projectDir, Env: map[string]string{"HOME": home}})
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.MaxProbe) // project overrides global
	assert.False(t, cfg.Dedup)        // global value carries through, project didn't set it
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
