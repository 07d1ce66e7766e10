package zfile

import (
	"bytes"
	"io"
)

func (f *File) readErr() error {
	if f.err != nil {
		return f.err
	}
	return io.EOF
}

// Read reads up to len(p) bytes of uncompressed content. It refills the
// buffer at most once per call, so on sockets it returns whatever arrived
// instead of waiting for len(p) bytes.
func (f *File) Read(p []byte) (int, error) {
	if err := f.check("read", modeRead, modeSocket); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if f.eof && f.ptr >= f.end {
		return 0, f.readErr()
	}
	if f.ptr >= f.end {
		n, err := f.fill()
		if n <= 0 {
			if err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
	}
	n := copy(p, f.buf[f.ptr:f.end])
	f.ptr += n
	f.pos += int64(n)
	return n, nil
}

// ReadByte reads a single byte.
func (f *File) ReadByte() (byte, error) {
	if err := f.check("read", modeRead, modeSocket); err != nil {
		return 0, err
	}
	if f.ptr >= f.end {
		n, err := f.fill()
		if n <= 0 {
			if err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
	}
	c := f.buf[f.ptr]
	f.ptr++
	f.pos++
	return c, nil
}

// PeekByte returns the next byte without consuming it.
func (f *File) PeekByte() (byte, error) {
	if err := f.check("peek", modeRead, modeSocket); err != nil {
		return 0, err
	}
	if f.ptr >= f.end {
		n, err := f.fill()
		if n <= 0 {
			if err != nil {
				return 0, err
			}
			return 0, io.EOF
		}
	}
	return f.buf[f.ptr], nil
}

// PeekAhead reports whether c is among the bytes already buffered, i.e.
// whether reading up to it will not block.
func (f *File) PeekAhead(c byte) bool {
	if f == nil || f.ptr >= f.end || f.mode == modeWrite {
		return false
	}
	return bytes.IndexByte(f.buf[f.ptr:f.end], c) >= 0
}

// Gets reads a line terminated by LF, CR or CR LF into buf and returns it
// without the terminator. A line longer than buf is returned in pieces.
// It returns io.EOF only when no byte at all could be read.
func (f *File) Gets(buf []byte) ([]byte, error) {
	if err := f.check("gets", modeRead, modeSocket); err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		return nil, usageError("gets", ErrInvalid)
	}

	n := 0
	for n < len(buf) {
		if f.ptr >= f.end {
			if k, err := f.fill(); k <= 0 {
				if n == 0 {
					if err != nil {
						return nil, err
					}
					return nil, io.EOF
				}
				break
			}
		}

		ch := f.buf[f.ptr]
		f.ptr++
		f.pos++

		if ch == '\r' {
			if f.ptr >= f.end {
				if k, _ := f.fill(); k <= 0 {
					break
				}
			}
			if f.buf[f.ptr] == '\n' {
				f.ptr++
				f.pos++
			}
			break
		} else if ch == '\n' {
			break
		}
		buf[n] = ch
		n++
	}
	return buf[:n], nil
}

// GetLine is like Gets but keeps the CR and/or LF terminator and any
// binary data in the line. It returns the number of bytes stored in buf,
// which must hold at least 2 bytes; 0 comes with io.EOF.
func (f *File) GetLine(buf []byte) (int, error) {
	if err := f.check("getline", modeRead, modeSocket); err != nil {
		return 0, err
	}
	if len(buf) < 2 {
		return 0, usageError("getline", ErrInvalid)
	}

	n := 0
	for n < len(buf)-1 {
		if f.ptr >= f.end {
			if k, err := f.fill(); k <= 0 {
				if n == 0 {
					if err != nil {
						return 0, err
					}
					return 0, io.EOF
				}
				break
			}
		}

		ch := f.buf[f.ptr]
		f.ptr++
		f.pos++
		buf[n] = ch
		n++

		if ch == '\r' {
			if f.ptr >= f.end {
				if k, _ := f.fill(); k <= 0 {
					break
				}
			}
			if f.buf[f.ptr] == '\n' {
				buf[n] = '\n'
				n++
				f.ptr++
				f.pos++
			}
			break
		} else if ch == '\n' {
			break
		}
	}
	return n, nil
}
