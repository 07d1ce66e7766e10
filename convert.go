package zfile

import (
	"errors"
	"fmt"
	"io"
)

// Copy copies the uncompressed content of src into dst until end of
// stream, returning the number of bytes copied.
func Copy(dst, src *File) (int64, error) {
	if err := src.check("copy", modeRead, modeSocket); err != nil {
		return 0, err
	}
	if err := dst.check("copy", modeWrite, modeSocket); err != nil {
		return 0, err
	}

	buf := make([]byte, bufSize)
	var written int64
	for {
		n, err := src.Read(buf)
		if n > 0 {
			if _, werr := dst.Write(buf[:n]); werr != nil {
				return written, werr
			}
			written += int64(n)
		}
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, err
		}
	}
}

// Convert copies the file srcName to dstName, opened with mode ("w",
// "w1".."w9", "a" ...). An empty mode keeps the storage of the source: a
// gzip source is recompressed at the level its header advertises, anything
// else is copied as-is.
func Convert(dstName, srcName, mode string) (int64, error) {
	src, err := Open(srcName, "r")
	if err != nil {
		return 0, err
	}
	defer src.Close()

	if mode == "" {
		// Force the first fill so the header, if any, has been seen.
		if _, err := src.PeekByte(); err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}
		mode = "w"
		if lvl := src.HeaderLevel(); lvl > 0 {
			mode = fmt.Sprintf("w%d", lvl)
		}
	}

	dst, err := Open(dstName, mode)
	if err != nil {
		return 0, err
	}
	n, err := Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	return n, err
}
