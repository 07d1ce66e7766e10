package zfile

import (
	"errors"
	"io"

	"golang.org/x/sys/unix"
)

const bufSize = 4096

type fileMode byte

const (
	modeRead   fileMode = 'r'
	modeWrite  fileMode = 'w'
	modeSocket fileMode = 's'
)

// File is a buffered stream over a file descriptor, optionally compressed.
//
// A File is not safe for concurrent use.
type File struct {
	fd     int
	mode   fileMode
	name   string
	stdio  bool
	closed bool

	// compressed is true while positioned inside a gzip member.
	compressed bool
	eof        bool
	err        error

	// Read side: buf[ptr:end] is unread data and bufpos is the logical
	// position of buf[0]. Write side: buf[:ptr] is unflushed data.
	buf    []byte
	ptr    int
	end    int
	filled bool
	pos    int64
	bufpos int64

	// At most one of these is set, matching the direction of the handle.
	enc *encoder
	dec *decoder

	printf []byte
}

// Open opens a file, or connects to a "host:port" address in socket mode.
//
// The mode is "r" (read), "w" (write, truncating), "a" (append) or "s"
// (bidirectional socket). "w" may be followed by a digit 1-9 to write a
// gzip stream at that compression level. "w" and "a" accept a trailing
// "m" and octal permissions for a newly created file, as in "w9m600".
//
// Write and append opens refuse directories, hard-linked files and
// symlinks; the error then matches ErrUnsafe and fs.ErrPermission.
//
// Read handles detect gzip data lazily on the first read and decompress
// it transparently; anything else is returned as-is.
func Open(name, mode string) (*File, error) {
	ms, err := parseMode(mode)
	if err != nil {
		return nil, &Error{Op: "open", Path: name, Kind: KindUsage, Err: err}
	}

	var fd int
	switch ms.dir {
	case 'r':
		fd, err = openRetry(name, unix.O_RDONLY, 0)
	case 'w':
		fd, err = openForWrite(name, ms.perm)
	case 'a':
		fd, err = openForAppend(name, ms.perm)
	case 's':
		fd, err = dialSocket(name)
	}
	if err != nil {
		kind := KindIO
		if errors.Is(err, ErrUnsafe) {
			kind = KindSafety
		} else if errors.Is(err, ErrInvalid) {
			kind = KindUsage
		}
		return nil, &Error{Op: "open", Path: name, Kind: kind, Err: err}
	}

	f, err := newFile(fd, ms, name)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	return f, nil
}

// OpenFd wraps an already open descriptor. The mode has the same syntax
// as for Open; "a" seeks to the end of the file first. The File takes
// ownership of fd and closes it on Close.
func OpenFd(fd int, mode string) (*File, error) {
	if fd < 0 {
		return nil, usageError("open", ErrInvalid)
	}
	ms, err := parseMode(mode)
	if err != nil {
		return nil, usageError("open", err)
	}
	return newFile(fd, ms, "")
}

func newFile(fd int, ms modeSpec, name string) (*File, error) {
	f := &File{
		fd:   fd,
		name: name,
		buf:  make([]byte, bufSize),
	}

	switch ms.dir {
	case 'a', 'w':
		f.mode = modeWrite
		if ms.dir == 'a' {
			pos, err := f.rawSeek(0, io.SeekEnd)
			if err != nil {
				return nil, &Error{Op: "open", Path: name, Kind: KindIO, Err: err}
			}
			f.pos = pos
		}
		if ms.level > 0 {
			enc, err := newEncoder(f, ms.level)
			if err != nil {
				return nil, &Error{Op: "open", Path: name, Kind: KindIO, Err: err}
			}
			f.enc = enc
			f.compressed = true
		}
	case 'r':
		f.mode = modeRead
		f.dec = newDecoder(f)
	case 's':
		f.mode = modeSocket
		f.dec = newDecoder(f)
	}

	if fd > 2 {
		unix.CloseOnExec(fd)
	}
	return f, nil
}

// Close flushes pending output, finishes a compressed stream with its
// trailer and closes the descriptor. The descriptor is released even when
// flushing fails. Closing one of the standard streams only flushes it.
func (f *File) Close() error {
	if f == nil || f.closed {
		return usageError("close", ErrClosed)
	}

	var err error
	if f.mode == modeWrite {
		err = f.flush()
	}
	if f.stdio {
		if err != nil {
			return ioError("close", err)
		}
		return nil
	}

	if f.enc != nil {
		if err == nil {
			err = f.enc.finish()
		}
		f.compressed = false
	}
	if f.dec != nil {
		f.dec.release()
		f.compressed = false
	}

	f.closed = true
	f.printf = nil
	if cerr := unix.Close(f.fd); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return &Error{Op: "close", Path: f.name, Kind: KindIO, Err: err}
	}
	return nil
}

// Fd returns the underlying descriptor.
func (f *File) Fd() int {
	if f == nil {
		return -1
	}
	return f.fd
}

// Name returns the name passed to Open, or "" for descriptors.
func (f *File) Name() string { return f.name }

// IsCompressed reports whether the handle is currently inside a gzip
// member. It is false on a read handle before the first read and between
// concatenated members.
func (f *File) IsCompressed() bool {
	return f != nil && f.compressed
}

// Tell returns the logical position in the uncompressed content.
func (f *File) Tell() int64 {
	if f == nil {
		return 0
	}
	return f.pos
}

// EOF reports whether the end of the stream (or a read error) was reached.
func (f *File) EOF() bool {
	return f == nil || f.eof
}

// Lock places an advisory lock on the whole file, waiting for it if block
// is true. Sockets cannot be locked.
func (f *File) Lock(block bool) error {
	if err := f.check("lock", modeRead, modeWrite); err != nil {
		return err
	}
	how := unix.LOCK_EX
	if !block {
		how |= unix.LOCK_NB
	}
	for {
		err := unix.Flock(f.fd, how)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return &Error{Op: "lock", Path: f.name, Kind: KindIO, Err: err}
		}
		return nil
	}
}

// Unlock releases a lock taken with Lock.
func (f *File) Unlock() error {
	if err := f.check("unlock", modeRead, modeWrite); err != nil {
		return err
	}
	if err := unix.Flock(f.fd, unix.LOCK_UN); err != nil {
		return &Error{Op: "unlock", Path: f.name, Kind: KindIO, Err: err}
	}
	return nil
}

func (f *File) check(op string, modes ...fileMode) error {
	if f == nil || f.closed {
		return usageError(op, ErrClosed)
	}
	for _, m := range modes {
		if f.mode == m {
			return nil
		}
	}
	return usageError(op, ErrMode)
}
