package zfile

import (
	"bytes"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConcatenatedMembers(t *testing.T) {
	dir := t.TempDir()
	first := randomBytes(1, 10000)
	second := randomBytes(2, 3000)

	writeFile(t, dir+"/a.gz", "w6", first)
	writeFile(t, dir+"/b.gz", "w1", second)
	a, err := os.ReadFile(dir + "/a.gz")
	require.NoError(t, err)
	b, err := os.ReadFile(dir + "/b.gz")
	require.NoError(t, err)

	name := dir + "/ab.gz"
	writeRaw(t, name, append(a, b...))

	f, err := Open(name, "r")
	require.NoError(t, err)
	defer f.Close()
	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, append(first, second...), got)
	assert.Equal(t, 2, f.Members())
	assert.Equal(t, 1, f.HeaderLevel())
	assert.True(t, f.EOF())
	assert.False(t, f.IsCompressed())
}

func TestHeaderFields(t *testing.T) {
	data := randomBytes(5, 2*bufSize+100)
	for _, flg := range []byte{
		0,
		flagExtra,
		flagName,
		flagComment,
		flagHdrCrc,
		flagExtra | flagName | flagComment | flagHdrCrc,
	} {
		name := tempName(t, "hdr.gz")
		writeRaw(t, name, gzipMember(t, data, flg))
		assert.Equal(t, data, readFile(t, name), "flags %#x", flg)
	}
}

func TestPassthrough(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"text", []byte("just some text\nwith lines\n")},
		{"short-magic", []byte{0x1f, 0x8b, 0x08}},
		{"bad-method", []byte{0x1f, 0x8b, 0x07, 0, 0, 0, 0, 0, 0, 3, 'x', 'y'}},
		{"reserved-flags", []byte{0x1f, 0x8b, 0x08, 0xe0, 0, 0, 0, 0, 0, 3, 'x', 'y'}},
		{"large", randomBytes(9, 3*bufSize+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name := tempName(t, "plain")
			writeRaw(t, name, tt.data)

			f, err := Open(name, "r")
			require.NoError(t, err)
			defer f.Close()
			got, err := io.ReadAll(f)
			require.NoError(t, err)
			assert.Equal(t, tt.data, got)
			assert.Equal(t, 0, f.Members())
			assert.False(t, f.IsCompressed())
		})
	}
}

func TestTrailingPlainData(t *testing.T) {
	data := randomBytes(4, 5000)
	tail := []byte("not compressed at all")
	name := tempName(t, "tail.gz")
	writeRaw(t, name, append(gzipMember(t, data, 0), tail...))

	f, err := Open(name, "r")
	require.NoError(t, err)
	defer f.Close()
	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, append(data, tail...), got)
	assert.Equal(t, 1, f.Members())
}

func TestCorruptTrailer(t *testing.T) {
	data := randomBytes(6, 6000)
	member := gzipMember(t, data, 0)
	trailer := len(member) - gzipTrailerLen

	for bit := 0; bit < gzipTrailerLen*8; bit++ {
		corrupt := bytes.Clone(member)
		corrupt[trailer+bit/8] ^= 1 << (bit % 8)
		name := tempName(t, "corrupt.gz")
		writeRaw(t, name, corrupt)

		f, err := Open(name, "r")
		require.NoError(t, err)
		_, err = io.ReadAll(f)
		require.Error(t, err, "bit %d", bit)
		assert.True(t, errors.Is(err, ErrChecksum), "bit %d: %v", bit, err)
		kind, ok := KindOf(err)
		assert.True(t, ok)
		assert.Equal(t, KindFormat, kind)

		// The error is sticky.
		_, err2 := f.Read(make([]byte, 10))
		assert.Equal(t, err, err2)
		assert.True(t, f.EOF())
		require.NoError(t, f.Close())
	}
}

func TestTruncatedStream(t *testing.T) {
	member := gzipMember(t, randomBytes(8, 9000), 0)

	t.Run("trailer", func(t *testing.T) {
		name := tempName(t, "trunc.gz")
		writeRaw(t, name, member[:len(member)-3])
		f, err := Open(name, "r")
		require.NoError(t, err)
		defer f.Close()
		_, err = io.ReadAll(f)
		require.Error(t, err)
		kind, _ := KindOf(err)
		assert.Equal(t, KindFormat, kind)
	})

	t.Run("header", func(t *testing.T) {
		name := tempName(t, "hdr.gz")
		writeRaw(t, name, []byte("\x1f\x8b\x08\x08\x00\x00\x00\x00\x00\x03name"))
		f, err := Open(name, "r")
		require.NoError(t, err)
		defer f.Close()
		_, err = io.ReadAll(f)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrHeader))
		kind, _ := KindOf(err)
		assert.Equal(t, KindFormat, kind)
	})

	t.Run("deflate", func(t *testing.T) {
		name := tempName(t, "body.gz")
		writeRaw(t, name, member[:len(member)/2])
		f, err := Open(name, "r")
		require.NoError(t, err)
		defer f.Close()
		_, err = io.ReadAll(f)
		require.Error(t, err)
		kind, _ := KindOf(err)
		assert.Equal(t, KindFormat, kind)
	})
}

func TestHeaderLen(t *testing.T) {
	h := []byte{0x1f, 0x8b, 0x08, flagName | flagHdrCrc, 0, 0, 0, 0, 0, 3}
	_, ok := headerLen(h)
	assert.False(t, ok)

	h = append(h, "abc\x00"...)
	_, ok = headerLen(h)
	assert.False(t, ok)

	h = append(h, 0x12, 0x34)
	n, ok := headerLen(h)
	assert.True(t, ok)
	assert.Equal(t, 16, n)
}
