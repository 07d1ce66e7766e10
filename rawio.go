package zfile

import (
	"io"

	"golang.org/x/sys/unix"
)

// retry runs op until it stops failing with EINTR or EAGAIN. On EAGAIN the
// descriptor is polled for the given events instead of spinning, so a
// non-blocking descriptor behaves like a blocking one.
func retry(fd int, events int16, op func() (int, error)) (int, error) {
	for {
		n, err := op()
		switch err {
		case unix.EINTR:
			continue
		case unix.EAGAIN:
			waitFd(fd, events)
			continue
		}
		return n, err
	}
}

func waitFd(fd int, events int16) {
	fds := []unix.PollFd{{Fd: int32(fd), Events: events}}
	for {
		_, err := unix.Poll(fds, -1)
		if err != unix.EINTR {
			return
		}
	}
}

// rawRead issues a single read (recv for sockets) on the descriptor. It
// returns 0, nil at end of file.
func (f *File) rawRead(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	n, err := retry(f.fd, unix.POLLIN, func() (int, error) {
		if f.mode == modeSocket {
			n, _, err := unix.Recvfrom(f.fd, p, 0)
			return n, err
		}
		return unix.Read(f.fd, p)
	})
	if err != nil {
		return 0, err
	}
	if n < 0 {
		n = 0
	}
	return n, nil
}

// rawWrite writes all of p (send for sockets).
func (f *File) rawWrite(p []byte) error {
	for len(p) > 0 {
		n, err := retry(f.fd, unix.POLLOUT, func() (int, error) {
			if f.mode == modeSocket {
				return unix.SendmsgN(f.fd, p, nil, nil, 0)
			}
			return unix.Write(f.fd, p)
		})
		if err != nil {
			return err
		}
		if n <= 0 {
			return io.ErrShortWrite
		}
		p = p[n:]
	}
	return nil
}

func (f *File) rawSeek(off int64, whence int) (int64, error) {
	return unix.Seek(f.fd, off, whence)
}
