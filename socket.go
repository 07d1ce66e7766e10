package zfile

import (
	"fmt"
	"net"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

const dialTimeout = 30 * time.Second

// dialSocket connects to "host:port" or "[address]:port" and returns a
// descriptor owned by the caller, independent of the Go network poller.
func dialSocket(addr string) (int, error) {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		return -1, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return -1, err
	}
	defer conn.Close()

	sc, ok := conn.(syscall.Conn)
	if !ok {
		return -1, fmt.Errorf("%w: connection has no descriptor", ErrInvalid)
	}
	rc, err := sc.SyscallConn()
	if err != nil {
		return -1, err
	}
	fd := -1
	var dupErr error
	err = rc.Control(func(s uintptr) {
		fd, dupErr = unix.Dup(int(s))
	})
	if err != nil {
		return -1, err
	}
	if dupErr != nil {
		return -1, dupErr
	}
	return fd, nil
}
