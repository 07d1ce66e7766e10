package zfile

import (
	"io"
)

// Info describes the content of a file as seen through a read handle.
type Info struct {
	// Compressed is true if at least one gzip member was found.
	Compressed bool
	// Members is the number of concatenated gzip members.
	Members int
	// Size is the uncompressed size.
	Size int64
	// Level is the compression level advertised by the first member
	// header: 9, 1, or 6 when the header does not say.
	Level int
}

// Probe reads name to its end and reports how it is stored. A corrupt
// gzip stream returns the information gathered so far and the error.
func Probe(name string) (Info, error) {
	f, err := Open(name, "r")
	if err != nil {
		return Info{}, err
	}
	defer f.Close()

	n, err := io.Copy(io.Discard, f)
	info := Info{
		Compressed: f.Members() > 0,
		Members:    f.Members(),
		Size:       n,
		Level:      f.HeaderLevel(),
	}
	return info, err
}

// HeaderLevel returns the compression level advertised by the extra-flags
// byte of the last gzip header read: 9 for maximum compression, 1 for
// fastest and 6 otherwise. It is 0 if no gzip header was read.
func (f *File) HeaderLevel() int {
	if f == nil || f.dec == nil || f.dec.members == 0 {
		return 0
	}
	switch f.dec.xfl {
	case 2:
		return 9
	case 4:
		return 1
	}
	return 6
}
