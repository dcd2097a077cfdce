package audiox

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// wavHeader is a minimal valid RIFF/WAVE preamble.
var wavHeader = []byte("RIFF\x24\x00\x00\x00WAVEfmt ")

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0600))
	return path
}

func TestDetectType(t *testing.T) {
	t.Parallel()

	t.Run("sniffs wav content", func(t *testing.T) {
		path := writeFile(t, "clip.bin", wavHeader)
		typ, err := DetectType(path)
		require.NoError(t, err)
		require.Equal(t, TypeWav, typ)
	})

	t.Run("falls back to extension for unknown content", func(t *testing.T) {
		path := writeFile(t, "clip.flac", []byte("not really flac content"))
		typ, err := DetectType(path)
		require.NoError(t, err)
		require.Equal(t, TypeFlac, typ)
	})

	t.Run("missing file errors", func(t *testing.T) {
		_, err := DetectType(filepath.Join(t.TempDir(), "absent.wav"))
		require.Error(t, err)
	})
}

func TestMD5File(t *testing.T) {
	t.Parallel()

	content := []byte("some audio bytes")
	path := writeFile(t, "clip.wav", content)

	sum, err := MD5File(path)
	require.NoError(t, err)

	expected := md5.Sum(content)
	require.Equal(t, hex.EncodeToString(expected[:]), sum)

	_, err = MD5File(filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
}
