package zfile

import (
	"errors"

	"golang.org/x/sys/unix"
)

func openRetry(name string, flags int, perm uint32) (int, error) {
	for {
		fd, err := unix.Open(name, flags|unix.O_CLOEXEC, perm)
		if err == unix.EINTR {
			continue
		}
		return fd, err
	}
}

// safeOpen opens name for writing and refuses directories, files with more
// than one hard link and paths that resolve through a symlink. The checks
// compare fstat of the opened descriptor with lstat of the path, so a
// target swapped between the two calls is detected as well.
func safeOpen(name string, flags int, perm uint32) (int, error) {
	fd, err := openRetry(name, flags, perm)
	if err != nil {
		if err == unix.EISDIR {
			return -1, unsafeError{unix.EISDIR}
		}
		return -1, err
	}

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if st.Nlink != 1 {
		unix.Close(fd)
		logger().Debug("zfile: refusing hard-linked file", "path", name, "nlink", st.Nlink)
		return -1, unsafeError{unix.EPERM}
	}
	if st.Mode&unix.S_IFMT == unix.S_IFDIR {
		unix.Close(fd)
		return -1, unsafeError{unix.EISDIR}
	}

	var lst unix.Stat_t
	if err := unix.Lstat(name, &lst); err != nil {
		unix.Close(fd)
		return -1, err
	}
	if lst.Mode&unix.S_IFMT == unix.S_IFLNK ||
		st.Dev != lst.Dev ||
		st.Ino != lst.Ino ||
		st.Nlink != lst.Nlink ||
		st.Mode != lst.Mode {
		unix.Close(fd)
		logger().Debug("zfile: refusing symlinked or replaced file", "path", name)
		return -1, unsafeError{unix.EPERM}
	}
	return fd, nil
}

// openForWrite opens an existing file or creates a new one, without ever
// following a symlink planted between the two attempts, and truncates it.
func openForWrite(name string, perm uint32) (int, error) {
	fd, err := safeOpen(name, unix.O_WRONLY, perm)
	if errors.Is(err, unix.ENOENT) {
		fd, err = safeOpen(name, unix.O_WRONLY|unix.O_CREAT|unix.O_EXCL, perm)
		if errors.Is(err, unix.EEXIST) {
			fd, err = safeOpen(name, unix.O_WRONLY, perm)
		}
	}
	if err != nil {
		return -1, err
	}
	for {
		err = unix.Ftruncate(fd, 0)
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

func openForAppend(name string, perm uint32) (int, error) {
	return safeOpen(name, unix.O_WRONLY|unix.O_CREAT|unix.O_APPEND, perm)
}
