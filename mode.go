package zfile

import (
	"fmt"
	"strconv"
)

const defaultPerm = 0o664

// modeSpec is a parsed open mode string.
//
// Grammar: one of 'r', 'w', 'a', 's'; for 'w' an optional digit selects the
// compression level ('0' or none disables it); for 'w' and 'a' an optional
// "m" followed by octal digits sets the permissions of a created file.
type modeSpec struct {
	dir   byte
	level int
	perm  uint32
}

func parseMode(mode string) (modeSpec, error) {
	ms := modeSpec{perm: defaultPerm}
	if mode == "" {
		return ms, fmt.Errorf("%w: empty mode", ErrInvalid)
	}
	ms.dir = mode[0]
	switch ms.dir {
	case 'r', 'w', 'a', 's':
	default:
		return ms, fmt.Errorf("%w: mode %q", ErrInvalid, mode)
	}

	rest := mode[1:]
	if len(rest) > 0 && rest[0] >= '0' && rest[0] <= '9' {
		if ms.dir != 'w' {
			return ms, fmt.Errorf("%w: compression level only valid for write, mode %q", ErrInvalid, mode)
		}
		ms.level = int(rest[0] - '0')
		rest = rest[1:]
	}

	if len(rest) > 0 {
		if rest[0] != 'm' || len(rest) == 1 || (ms.dir != 'w' && ms.dir != 'a') {
			return ms, fmt.Errorf("%w: mode %q", ErrInvalid, mode)
		}
		perm, err := strconv.ParseUint(rest[1:], 8, 32)
		if err != nil || perm > 0o7777 {
			return ms, fmt.Errorf("%w: permissions in mode %q", ErrInvalid, mode)
		}
		ms.perm = uint32(perm)
	}
	return ms, nil
}
