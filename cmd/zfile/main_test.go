package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasky/zfile"
	"github.com/rasky/zfile/internal/logging"
)

func setup(t *testing.T, mode int) {
	t.Helper()
	log = logging.NewLoggerWithWriter(logging.DefaultConfig(), io.Discard)
	Mode, Level, Suffix = mode, 6, ".gz"
	*flagForce, *flagKeep, *flagStdout = true, true, false
	t.Cleanup(func() { Mode = ModeCompress })
}

func TestCompressDecompress(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "data.txt")
	data := []byte(strings.Repeat("line of text\n", 5000))
	require.NoError(t, os.WriteFile(src, data, 0o640))

	setup(t, ModeCompress)
	in, out, err := processFile(src)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), in)
	assert.Less(t, out, in)

	info, err := zfile.Probe(src + ".gz")
	require.NoError(t, err)
	assert.True(t, info.Compressed)
	assert.Equal(t, int64(len(data)), info.Size)
	st, err := os.Stat(src + ".gz")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), st.Mode().Perm())

	n, err := testFile(src + ".gz")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)

	require.NoError(t, os.Remove(src))
	Mode = ModeDecompress
	*flagKeep = false
	_, _, err = processFile(src + ".gz")
	require.NoError(t, err)

	got, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, data, got)
	_, err = os.Stat(src + ".gz")
	assert.True(t, os.IsNotExist(err))
}

func TestTestFileCorrupt(t *testing.T) {
	setup(t, ModeTest)
	dir := t.TempDir()
	name := filepath.Join(dir, "bad.gz")

	f, err := zfile.Open(name, "w9")
	require.NoError(t, err)
	_, err = f.WriteString(strings.Repeat("abc", 1000))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	raw, err := os.ReadFile(name)
	require.NoError(t, err)
	raw[len(raw)-5] ^= 0xff
	require.NoError(t, os.WriteFile(name, raw, 0o644))

	_, err = testFile(name)
	require.Error(t, err)
	kind, ok := zfile.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, zfile.KindFormat, kind)
}

func TestDecompressUnknownSuffix(t *testing.T) {
	setup(t, ModeDecompress)
	name := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(name, []byte("x"), 0o644))

	_, _, err := processFile(name)
	require.NoError(t, err)
	_, err = os.Stat(name)
	assert.NoError(t, err, "input kept")
}
