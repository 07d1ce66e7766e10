package zfile

import (
	"fmt"
	"strings"
)

const (
	printfInitial = 1024
	printfMax     = 65535
)

// Write buffers p, flushing first when it does not fit. Writes larger than
// the buffer go straight to the compressor or the descriptor. On sockets
// every write is sent immediately.
func (f *File) Write(p []byte) (int, error) {
	if err := f.check("write", modeWrite, modeSocket); err != nil {
		return 0, err
	}
	if len(p) == 0 {
		return 0, nil
	}
	if err := f.put(p); err != nil {
		return 0, &Error{Op: "write", Path: f.name, Kind: KindIO, Err: err}
	}
	return len(p), nil
}

// WriteString is like Write, but also flushes the standard streams.
func (f *File) WriteString(s string) (int, error) {
	if err := f.check("write", modeWrite, modeSocket); err != nil {
		return 0, err
	}
	if err := f.put([]byte(s)); err != nil {
		return 0, &Error{Op: "write", Path: f.name, Kind: KindIO, Err: err}
	}
	if err := f.flushStdio(); err != nil {
		return 0, err
	}
	return len(s), nil
}

// WriteByte writes a single byte.
func (f *File) WriteByte(c byte) error {
	if err := f.check("write", modeWrite, modeSocket); err != nil {
		return err
	}
	if f.mode == modeSocket {
		if err := f.rawWrite([]byte{c}); err != nil {
			return &Error{Op: "write", Path: f.name, Kind: KindIO, Err: err}
		}
	} else {
		if f.ptr >= len(f.buf) {
			if err := f.flush(); err != nil {
				return &Error{Op: "write", Path: f.name, Kind: KindIO, Err: err}
			}
		}
		f.buf[f.ptr] = c
		f.ptr++
	}
	f.pos++
	return nil
}

// Printf writes formatted output and returns the number of bytes written.
// A single call may not produce more than 64KiB.
func (f *File) Printf(format string, args ...any) (int, error) {
	if err := f.check("printf", modeWrite, modeSocket); err != nil {
		return 0, err
	}
	if f.printf == nil {
		f.printf = make([]byte, 0, printfInitial)
	}

	out := fmt.Appendf(f.printf[:0], format, args...)
	if len(out) > printfMax {
		return 0, usageError("printf", fmt.Errorf("%w: %d bytes", ErrTooLarge, len(out)))
	}
	f.printf = out

	if err := f.put(out); err != nil {
		return 0, &Error{Op: "printf", Path: f.name, Kind: KindIO, Err: err}
	}
	if err := f.flushStdio(); err != nil {
		return 0, err
	}
	return len(out), nil
}

// PutConf writes a "directive value" configuration line, escaping the
// first '#' of the value so that GetConf reads it back unchanged.
func (f *File) PutConf(directive, value string) error {
	if directive == "" {
		return usageError("putconf", ErrInvalid)
	}
	if _, err := f.WriteString(directive); err != nil {
		return err
	}
	if err := f.WriteByte(' '); err != nil {
		return err
	}
	if i := strings.IndexByte(value, '#'); i >= 0 {
		if _, err := f.WriteString(value[:i]); err != nil {
			return err
		}
		if err := f.WriteByte('\\'); err != nil {
			return err
		}
		value = value[i:]
	}
	if value != "" {
		if _, err := f.WriteString(value); err != nil {
			return err
		}
	}
	return f.WriteByte('\n')
}

// Flush pushes buffered output to the compressor or the descriptor.
func (f *File) Flush() error {
	if err := f.check("flush", modeWrite); err != nil {
		return err
	}
	if err := f.flush(); err != nil {
		return &Error{Op: "flush", Path: f.name, Kind: KindIO, Err: err}
	}
	return nil
}

func (f *File) put(p []byte) error {
	if f.mode == modeSocket {
		if err := f.rawWrite(p); err != nil {
			return err
		}
		f.pos += int64(len(p))
		return nil
	}

	if f.ptr+len(p) > len(f.buf) {
		if err := f.flush(); err != nil {
			return err
		}
	}
	f.pos += int64(len(p))

	if len(p) > len(f.buf) {
		if f.enc != nil {
			return f.enc.compress(p)
		}
		return f.rawWrite(p)
	}
	f.ptr += copy(f.buf[f.ptr:], p)
	return nil
}

func (f *File) flush() error {
	if f.mode != modeWrite || f.ptr == 0 {
		return nil
	}
	p := f.buf[:f.ptr]
	f.ptr = 0
	if f.enc != nil {
		return f.enc.compress(p)
	}
	return f.rawWrite(p)
}

func (f *File) flushStdio() error {
	if !f.stdio || f.mode != modeWrite {
		return nil
	}
	if err := f.flush(); err != nil {
		return &Error{Op: "flush", Path: f.name, Kind: KindIO, Err: err}
	}
	return nil
}
