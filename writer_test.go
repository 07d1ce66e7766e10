package zfile

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestPrintf(t *testing.T) {
	name := tempName(t, "printf.gz")
	f, err := Open(name, "w6")
	require.NoError(t, err)

	n, err := f.Printf("%s=%d\n", "a", 1)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	big := strings.Repeat("y", 5000)
	n, err = f.Printf("%s\n", big)
	require.NoError(t, err)
	assert.Equal(t, 5001, n)

	_, err = f.Printf("%s", strings.Repeat("x", printfMax+1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooLarge))
	kind, _ := KindOf(err)
	assert.Equal(t, KindUsage, kind)

	assert.Equal(t, int64(5005), f.Tell())
	require.NoError(t, f.Close())

	assert.Equal(t, "a=1\n"+big+"\n", string(readFile(t, name)))
}

func TestCompressedSize(t *testing.T) {
	data := []byte(strings.Repeat("compressible ", 10000))
	name := tempName(t, "size.gz")
	f, err := Open(name, "w9")
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	size := f.CompressedSize()
	assert.Greater(t, size, int64(gzipHeaderLen+gzipTrailerLen))
	assert.Less(t, size, int64(len(data)/10))

	info, err := Probe(name)
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), info.Size)
}

func TestSocketPair(t *testing.T) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)

	a, err := OpenFd(fds[0], "s")
	require.NoError(t, err)
	b, err := OpenFd(fds[1], "s")
	require.NoError(t, err)
	defer b.Close()

	_, err = a.WriteString("hello\n")
	require.NoError(t, err)
	_, err = a.Printf("%s %d\n", "world", 42)
	require.NoError(t, err)

	buf := make([]byte, 64)
	line, err := b.Gets(buf)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(line))
	line, err = b.Gets(buf)
	require.NoError(t, err)
	assert.Equal(t, "world 42", string(line))

	_, err = b.Seek(0, io.SeekStart)
	assert.True(t, errors.Is(err, ErrMode))
	assert.True(t, errors.Is(b.Lock(false), ErrMode))
	assert.True(t, errors.Is(b.Flush(), ErrMode))

	require.NoError(t, a.Close())
	_, err = b.Gets(buf)
	assert.Equal(t, io.EOF, err)
}

func TestSocketNonBlocking(t *testing.T) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	require.NoError(t, unix.SetNonblock(fds[0], true))

	a, err := OpenFd(fds[0], "s")
	require.NoError(t, err)
	b, err := OpenFd(fds[1], "s")
	require.NoError(t, err)
	defer b.Close()

	// The read starts before the peer writes anything.
	wrote := make(chan error, 1)
	go func() {
		time.Sleep(50 * time.Millisecond)
		_, err := b.WriteString("late\n")
		wrote <- err
	}()

	buf := make([]byte, 16)
	line, err := a.Gets(buf)
	require.NoError(t, err)
	assert.Equal(t, "late", string(line))
	require.NoError(t, <-wrote)

	// A send larger than the socket buffer waits for the peer to drain it.
	big := randomBytes(51, 4<<20)
	done := make(chan []byte, 1)
	go func() {
		got, _ := io.ReadAll(b)
		done <- got
	}()
	n, err := a.Write(big)
	require.NoError(t, err)
	assert.Equal(t, len(big), n)
	require.NoError(t, a.Close())
	assert.Equal(t, big, <-done)
}

func TestSocketDial(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	reply := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			reply <- err.Error()
			return
		}
		defer conn.Close()
		conn.Write([]byte("ping\n"))
		line, _ := bufio.NewReader(conn).ReadString('\n')
		reply <- line
	}()

	f, err := Open(ln.Addr().String(), "s")
	require.NoError(t, err)

	buf := make([]byte, 16)
	line, err := f.Gets(buf)
	require.NoError(t, err)
	assert.Equal(t, "ping", string(line))
	require.NoError(t, f.WriteByte('p'))
	_, err = f.WriteString("ong\n")
	require.NoError(t, err)

	assert.Equal(t, "pong\n", <-reply)
	require.NoError(t, f.Close())
}

func TestSocketBadAddress(t *testing.T) {
	_, err := Open("no-port-here", "s")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))
	kind, _ := KindOf(err)
	assert.Equal(t, KindUsage, kind)
}
