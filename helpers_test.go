package zfile

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"hash/crc32"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/stretchr/testify/require"
)

func randomBytes(seed int64, n int) []byte {
	r := rand.New(rand.NewSource(seed))
	p := make([]byte, n)
	// Text-like data keeps the deflate output small but non-trivial.
	const alphabet = "abcdefghij klmnop\nqrstuvwxyz0123456789\r\n"
	for i := range p {
		p[i] = alphabet[r.Intn(len(alphabet))]
	}
	return p
}

func calcHash(p []byte) string {
	sum := sha1.Sum(p)
	return hex.EncodeToString(sum[:])
}

func writeFile(t *testing.T, name, mode string, data []byte) {
	t.Helper()
	f, err := Open(name, mode)
	require.NoError(t, err)
	n, err := f.Write(data)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.NoError(t, f.Close())
}

func readFile(t *testing.T, name string) []byte {
	t.Helper()
	f, err := Open(name, "r")
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	return data
}

func tempName(t *testing.T, name string) string {
	return filepath.Join(t.TempDir(), name)
}

// gzipMember builds a gzip member by hand, with optional header fields
// selected by flg.
func gzipMember(t *testing.T, data []byte, flg byte) []byte {
	t.Helper()
	var out bytes.Buffer
	out.Write([]byte{gzipID1, gzipID2, gzipDeflate, flg, 0, 0, 0, 0, 0, gzipOSUnix})
	if flg&flagExtra != 0 {
		extra := []byte("AB\x02\x00xy")
		var l [2]byte
		binary.LittleEndian.PutUint16(l[:], uint16(len(extra)))
		out.Write(l[:])
		out.Write(extra)
	}
	if flg&flagName != 0 {
		out.WriteString("original.txt\x00")
	}
	if flg&flagComment != 0 {
		out.WriteString("a comment\x00")
	}
	if flg&flagHdrCrc != 0 {
		var c [2]byte
		binary.LittleEndian.PutUint16(c[:], uint16(crc32.ChecksumIEEE(out.Bytes())))
		out.Write(c[:])
	}

	zw, err := flate.NewWriter(&out, flate.DefaultCompression)
	require.NoError(t, err)
	_, err = zw.Write(data)
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	var trailer [8]byte
	binary.LittleEndian.PutUint32(trailer[0:4], crc32.ChecksumIEEE(data))
	binary.LittleEndian.PutUint32(trailer[4:8], uint32(len(data)))
	out.Write(trailer[:])
	return out.Bytes()
}

func writeRaw(t *testing.T, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(name, data, 0o644))
}
