package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Timeout int      `json:"timeout"`
	Sources []string `json:"sources"`
}

func write(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
}

func TestReadConfigMergesLocalOverrides(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "config.json5"),
		`{ timeout: 30, sources: ["amazon", "flipkart"] }`)
	write(t, filepath.Join(dir, "config.local.json5"),
		`{ timeout: 5 }`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, 5, cfg.Timeout)
	require.Equal(t, []string{"amazon", "flipkart"}, cfg.Sources)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadConfigLocalOnly(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "config.local.json5"), `{ timeout: 7 }`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, 7, cfg.Timeout)
}
