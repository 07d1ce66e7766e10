package zfile

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/flate"
	"golang.org/x/sys/unix"
)

const (
	flagHdrCrc   = 1 << 1
	flagExtra    = 1 << 2
	flagName     = 1 << 3
	flagComment  = 1 << 4
	flagReserved = 0xe0
)

type fillState int

const (
	// stateSniff: the next fill inspects the input for a gzip header.
	stateSniff fillState = iota
	// stateMember: inflating a gzip member.
	stateMember
	// stateRaw: the rest of the stream is passed through unchanged.
	stateRaw
)

// inbuf holds raw bytes read from the descriptor that were not consumed
// yet. It implements io.ByteReader so the inflater never reads past the end
// of a member, which leaves the trailer and any following member here.
type inbuf struct {
	f    *File
	buf  []byte
	r, w int
}

func (b *inbuf) buffered() []byte { return b.buf[b.r:b.w] }

func (b *inbuf) full() bool { return b.r == 0 && b.w == len(b.buf) }

func (b *inbuf) reset() { b.r, b.w = 0, 0 }

// more issues one read into the free space of the buffer.
func (b *inbuf) more() (int, error) {
	if b.r > 0 {
		copy(b.buf, b.buf[b.r:b.w])
		b.w -= b.r
		b.r = 0
	}
	if b.w == len(b.buf) {
		return 0, nil
	}
	n, err := b.f.rawRead(b.buf[b.w:])
	b.w += n
	return n, err
}

func (b *inbuf) ReadByte() (byte, error) {
	if b.r == b.w {
		n, err := b.more()
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, io.EOF
		}
	}
	c := b.buf[b.r]
	b.r++
	return c, nil
}

func (b *inbuf) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if b.r == b.w {
		if len(p) >= len(b.buf) {
			n, err := b.f.rawRead(p)
			if err == nil && n == 0 {
				err = io.EOF
			}
			return n, err
		}
		n, err := b.more()
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, io.EOF
		}
	}
	n := copy(p, b.buf[b.r:b.w])
	b.r += n
	return n, nil
}

// decoder is the read-side codec state: the raw input scratch buffer, the
// inflater (created on the first gzip member and reset for later ones) and
// the running CRC32 and size of the current member.
type decoder struct {
	in      inbuf
	zr      io.ReadCloser
	state   fillState
	crc     uint32
	size    uint32
	members int
	xfl     byte
}

func newDecoder(f *File) *decoder {
	return &decoder{in: inbuf{f: f, buf: make([]byte, bufSize)}}
}

// restart drops all decoding state so the stream can be read again from
// the start of the descriptor.
func (d *decoder) restart() {
	d.in.reset()
	d.state = stateSniff
	d.crc, d.size = 0, 0
	d.members = 0
	d.xfl = 0
}

func (d *decoder) release() {
	if d.zr != nil {
		d.zr.Close()
		d.zr = nil
	}
}

// fill refills the read buffer and returns the number of bytes now in it.
// It returns 0 and a nil error at end of stream; both cases and every error
// are sticky until the next seek.
func (f *File) fill() (int, error) {
	if f.filled {
		f.bufpos += int64(f.end)
	}
	f.ptr, f.end = 0, 0
	f.filled = true

	if f.eof {
		return 0, f.err
	}

	d := f.dec
	for {
		switch d.state {
		case stateSniff:
			gz, err := f.sniff()
			if err != nil {
				return 0, f.fail(err)
			}
			if !gz {
				d.state = stateRaw
				n := copy(f.buf, d.in.buffered())
				d.in.r += n
				if n == 0 {
					f.eof = true
					return 0, nil
				}
				f.end = n
				return n, nil
			}

		case stateMember:
			n, err := f.inflate()
			if err != nil {
				return 0, f.fail(err)
			}
			if n > 0 {
				f.end = n
				return n, nil
			}

		case stateRaw:
			n, err := d.in.Read(f.buf)
			if err == io.EOF || (err == nil && n == 0) {
				f.eof = true
				return 0, nil
			}
			if err != nil {
				return 0, f.fail(ioError("read", err))
			}
			f.end = n
			return n, nil
		}
	}
}

func (f *File) fail(err error) error {
	var e *Error
	if !errors.As(err, &e) {
		err = &Error{Op: "read", Path: f.name, Kind: KindIO, Err: err}
	} else if e.Path == "" {
		e.Path = f.name
	}
	f.eof = true
	f.err = err
	return err
}

// sniff looks at the start of the pending input. If it is a gzip header,
// the header is consumed, a new member is started and sniff returns true.
// Otherwise the input is left untouched for raw passthrough.
func (f *File) sniff() (bool, error) {
	d := f.dec
	in := &d.in

	if len(in.buffered()) == 0 {
		if _, err := in.more(); err != nil {
			return false, ioError("read", err)
		}
	}
	for len(in.buffered()) < gzipHeaderLen && isMagicPrefix(in.buffered()) {
		n, err := in.more()
		if err != nil {
			return false, ioError("read", err)
		}
		if n == 0 {
			break
		}
	}

	hdr := in.buffered()
	if len(hdr) < gzipHeaderLen || hdr[0] != gzipID1 || hdr[1] != gzipID2 ||
		hdr[2] != gzipDeflate || hdr[3]&flagReserved != 0 {
		return false, nil
	}

	var hlen int
	for {
		var ok bool
		hlen, ok = headerLen(in.buffered())
		if ok {
			break
		}
		if in.full() {
			return false, formatError("read", fmt.Errorf("%w: header does not fit the buffer", ErrHeader))
		}
		n, err := in.more()
		if err != nil {
			return false, ioError("read", err)
		}
		if n == 0 {
			return false, formatError("read", fmt.Errorf("%w: truncated", ErrHeader))
		}
	}
	d.xfl = in.buffered()[8]
	in.r += hlen

	if d.zr == nil {
		d.zr = flate.NewReader(in)
	} else if err := d.zr.(flate.Resetter).Reset(in, nil); err != nil {
		return false, formatError("read", err)
	}
	d.crc, d.size = 0, 0
	d.members++
	d.state = stateMember
	f.compressed = true
	logger().Debug("zfile: gzip member start", "path", f.name, "member", d.members, "pos", f.bufpos)
	return true, nil
}

func isMagicPrefix(p []byte) bool {
	return len(p) > 0 && p[0] == gzipID1 && (len(p) < 2 || p[1] == gzipID2)
}

// headerLen returns the length of the gzip header at the start of h, or
// false if h ends before the header does.
func headerLen(h []byte) (int, bool) {
	flg := h[3]
	p := gzipHeaderLen
	if flg&flagExtra != 0 {
		if p+2 > len(h) {
			return 0, false
		}
		p += 2 + int(binary.LittleEndian.Uint16(h[p:]))
		if p > len(h) {
			return 0, false
		}
	}
	if flg&flagName != 0 {
		i := bytes.IndexByte(h[p:], 0)
		if i < 0 {
			return 0, false
		}
		p += i + 1
	}
	if flg&flagComment != 0 {
		i := bytes.IndexByte(h[p:], 0)
		if i < 0 {
			return 0, false
		}
		p += i + 1
	}
	if flg&flagHdrCrc != 0 {
		p += 2
		if p > len(h) {
			return 0, false
		}
	}
	return p, true
}

// inflate decompresses into the read buffer. At the end of a member it
// verifies the trailer and arranges for the next fill to sniff again.
func (f *File) inflate() (int, error) {
	d := f.dec

	n, err := d.zr.Read(f.buf)
	if n > 0 {
		d.crc = crc32.Update(d.crc, crc32.IEEETable, f.buf[:n])
		d.size += uint32(n)
	}
	if err == io.EOF {
		if err := f.endMember(); err != nil {
			return 0, err
		}
		return n, nil
	}
	if err != nil {
		var errno unix.Errno
		if errors.As(err, &errno) {
			return 0, ioError("read", err)
		}
		return 0, formatError("read", err)
	}
	return n, nil
}

func (f *File) endMember() error {
	d := f.dec

	var trailer [gzipTrailerLen]byte
	if _, err := io.ReadFull(&d.in, trailer[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return formatError("read", fmt.Errorf("%w: truncated trailer", ErrChecksum))
		}
		return ioError("read", err)
	}
	crc := binary.LittleEndian.Uint32(trailer[0:4])
	size := binary.LittleEndian.Uint32(trailer[4:8])
	if crc != d.crc || size != d.size {
		logger().Debug("zfile: gzip trailer mismatch", "path", f.name, "member", d.members,
			"crc", crc, "want_crc", d.crc, "size", size, "want_size", d.size)
		return formatError("read", ErrChecksum)
	}

	d.state = stateSniff
	f.compressed = false
	logger().Debug("zfile: gzip member end", "path", f.name, "member", d.members, "size", d.size)
	return nil
}

// Members returns the number of gzip members started so far on a read
// handle.
func (f *File) Members() int {
	if f == nil || f.dec == nil {
		return 0
	}
	return f.dec.members
}
