package zfile

import "bytes"

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func trimLeft(p []byte) []byte {
	for len(p) > 0 && isSpace(p[0]) {
		p = p[1:]
	}
	return p
}

func trimRight(p []byte) []byte {
	for len(p) > 0 && isSpace(p[len(p)-1]) {
		p = p[:len(p)-1]
	}
	return p
}

// GetConf reads the next non-blank, non-comment line of a configuration
// file and splits it into a directive and an optional value. Both slices
// alias buf. linenum, if not nil, is incremented for every line read.
//
// A '#' starts a comment unless preceded by a backslash, in which case the
// backslash is dropped. For directives starting with '<' the value must
// end with '>', which is removed; if the line does not end with it (not
// even followed by blanks) it is a syntax error and value is nil. A
// directive without value also has a nil value.
func (f *File) GetConf(buf []byte, linenum *int) (directive, value []byte, err error) {
	if err := f.check("getconf", modeRead, modeSocket); err != nil {
		return nil, nil, err
	}
	if len(buf) == 0 {
		return nil, nil, usageError("getconf", ErrInvalid)
	}

	for {
		line, err := f.Gets(buf)
		if err != nil {
			return nil, nil, err
		}
		if linenum != nil {
			*linenum++
		}

		if i := bytes.IndexByte(line, '#'); i >= 0 {
			if i > 0 && line[i-1] == '\\' {
				copy(line[i-1:], line[i:])
				line = line[:len(line)-1]
			} else {
				line = trimRight(line[:i])
			}
		}
		line = trimLeft(line)
		if len(line) == 0 {
			continue
		}

		i := 0
		for i < len(line) && !isSpace(line[i]) {
			i++
		}
		directive = line[:i]
		value = trimLeft(line[i:])
		if len(value) == 0 {
			return directive, nil, nil
		}

		if directive[0] == '<' {
			if value[len(value)-1] != '>' {
				return directive, nil, nil
			}
			value = value[:len(value)-1]
		}
		return directive, trimRight(value), nil
	}
}
