package zfile

import (
	"encoding/binary"
	"hash/crc32"
	"time"

	"github.com/klauspost/compress/flate"
)

const (
	gzipID1     = 0x1f
	gzipID2     = 0x8b
	gzipDeflate = 8
	gzipOSUnix  = 3

	gzipHeaderLen  = 10
	gzipTrailerLen = 8
)

// countWriter collects deflate output in a fixed scratch buffer and pushes
// it to the descriptor once less than an eighth of the buffer is free, so
// memory stays bounded whatever the input size.
type countWriter struct {
	f   *File
	buf []byte
	off int64
}

func (cw *countWriter) Write(data []byte) (int, error) {
	n := 0
	for len(data) > 0 {
		c := copy(cw.buf[len(cw.buf):cap(cw.buf)], data)
		cw.buf = cw.buf[:len(cw.buf)+c]
		data = data[c:]
		n += c
		if cap(cw.buf)-len(cw.buf) < cap(cw.buf)/8 {
			if err := cw.flush(); err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

func (cw *countWriter) flush() error {
	if len(cw.buf) == 0 {
		return nil
	}
	err := cw.f.rawWrite(cw.buf)
	if err == nil {
		cw.off += int64(len(cw.buf))
	}
	cw.buf = cw.buf[:0]
	return err
}

// encoder is the write-side codec state of a compressed handle: one gzip
// member whose header is written at open and trailer at close.
type encoder struct {
	zw   *flate.Writer
	out  *countWriter
	crc  uint32
	size uint32
}

func newEncoder(f *File, level int) (*encoder, error) {
	out := &countWriter{f: f, buf: make([]byte, 0, bufSize)}
	zw, err := flate.NewWriter(out, level)
	if err != nil {
		return nil, err
	}

	var hdr [gzipHeaderLen]byte
	hdr[0] = gzipID1
	hdr[1] = gzipID2
	hdr[2] = gzipDeflate
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(time.Now().Unix()))
	switch level {
	case flate.BestCompression:
		hdr[8] = 2
	case flate.BestSpeed:
		hdr[8] = 4
	}
	hdr[9] = gzipOSUnix
	if err := f.rawWrite(hdr[:]); err != nil {
		return nil, err
	}
	out.off = gzipHeaderLen

	return &encoder{zw: zw, out: out}, nil
}

func (e *encoder) compress(p []byte) error {
	e.crc = crc32.Update(e.crc, crc32.IEEETable, p)
	e.size += uint32(len(p))
	_, err := e.zw.Write(p)
	return err
}

// finish drains the deflate stream and appends the CRC32/ISIZE trailer.
func (e *encoder) finish() error {
	if err := e.zw.Close(); err != nil {
		return err
	}
	if err := e.out.flush(); err != nil {
		return err
	}
	var trailer [gzipTrailerLen]byte
	binary.LittleEndian.PutUint32(trailer[0:4], e.crc)
	binary.LittleEndian.PutUint32(trailer[4:8], e.size)
	if err := e.out.f.rawWrite(trailer[:]); err != nil {
		return err
	}
	e.out.off += gzipTrailerLen
	return nil
}

// CompressedSize returns the number of bytes written to the descriptor by
// a compressed write handle so far, header included. It is 0 for other
// handles.
func (f *File) CompressedSize() int64 {
	if f == nil || f.enc == nil {
		return 0
	}
	return f.enc.out.off
}
