package zfile

import (
	"fmt"
	"io"
)

// Seek sets the logical position for the next read. Only io.SeekStart and
// io.SeekCurrent are supported, and only on read handles.
//
// Positions inside the current buffer cost nothing. Uncompressed files seek
// the descriptor. Compressed streams have no random access: seeking forward
// decompresses up to the target and seeking backward replays the stream
// from the beginning.
func (f *File) Seek(offset int64, whence int) (int64, error) {
	if err := f.check("seek", modeRead); err != nil {
		return -1, err
	}
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += f.pos
	default:
		return -1, usageError("seek", fmt.Errorf("%w: whence %d", ErrInvalid, whence))
	}
	if offset < 0 {
		return -1, usageError("seek", fmt.Errorf("%w: negative position", ErrInvalid))
	}

	if offset == 0 {
		return f.rewind()
	}
	if f.inBuffer(offset) {
		return offset, nil
	}

	if !f.filled && !f.engaged() {
		// Classify the stream before choosing how to seek.
		if n, err := f.fill(); n <= 0 {
			return -1, f.seekError(offset, err)
		}
		if f.inBuffer(offset) {
			return offset, nil
		}
	}

	if !f.engaged() {
		if _, err := f.rawSeek(offset, io.SeekStart); err != nil {
			return -1, &Error{Op: "seek", Path: f.name, Kind: KindIO, Err: err}
		}
		f.dec.in.reset()
		f.bufpos, f.pos = offset, offset
		f.ptr, f.end = 0, 0
		f.filled = false
		f.eof, f.err = false, nil
		return offset, nil
	}

	if offset < f.bufpos || f.err != nil {
		if err := f.restart(); err != nil {
			return -1, err
		}
	}
	for {
		n, err := f.fill()
		if n <= 0 {
			// The window moved to the end of the stream.
			f.pos = f.bufpos
			return -1, f.seekError(offset, err)
		}
		if offset < f.bufpos+int64(n) {
			break
		}
	}
	f.ptr = int(offset - f.bufpos)
	f.pos = offset
	return offset, nil
}

// Rewind moves back to the start of the stream.
func (f *File) Rewind() (int64, error) {
	if err := f.check("rewind", modeRead); err != nil {
		return -1, err
	}
	return f.rewind()
}

func (f *File) rewind() (int64, error) {
	if f.bufpos == 0 && f.err == nil {
		f.pos = 0
		if f.filled {
			f.ptr = 0
			f.eof = false
		}
		return 0, nil
	}
	if err := f.restart(); err != nil {
		return -1, err
	}
	return 0, nil
}

// restart repositions the descriptor at offset 0 and drops all buffered and
// decoding state; the next fill sniffs for gzip again.
func (f *File) restart() error {
	if _, err := f.rawSeek(0, io.SeekStart); err != nil {
		return &Error{Op: "seek", Path: f.name, Kind: KindIO, Err: err}
	}
	f.dec.restart()
	f.compressed = false
	f.bufpos, f.pos = 0, 0
	f.ptr, f.end = 0, 0
	f.filled = false
	f.eof, f.err = false, nil
	return nil
}

func (f *File) inBuffer(offset int64) bool {
	if !f.filled || offset < f.bufpos || offset >= f.bufpos+int64(f.end) {
		return false
	}
	f.ptr = int(offset - f.bufpos)
	f.pos = offset
	f.eof = f.err != nil
	return true
}

// engaged reports whether gzip data was seen since the last restart, in
// which case logical positions no longer map to descriptor offsets.
func (f *File) engaged() bool {
	return f.dec.members > 0
}

func (f *File) seekError(offset int64, err error) error {
	if err != nil {
		return err
	}
	return &Error{Op: "seek", Path: f.name, Kind: KindUsage,
		Err: fmt.Errorf("%w: position %d beyond end of stream", ErrInvalid, offset)}
}
