package zfile

import "sync"

type stdStream struct {
	once sync.Once
	f    *File
}

// The three standard streams live for the whole process: Close on them
// flushes but never closes the descriptor or invalidates the handle.
var stdStreams [3]stdStream

// Stdin returns the process-wide handle reading descriptor 0.
func Stdin() *File { return openStd(0, "r", "<stdin>") }

// Stdout returns the process-wide handle writing descriptor 1.
func Stdout() *File { return openStd(1, "w", "<stdout>") }

// Stderr returns the process-wide handle writing descriptor 2.
func Stderr() *File { return openStd(2, "w", "<stderr>") }

func openStd(fd int, mode, name string) *File {
	s := &stdStreams[fd]
	s.once.Do(func() {
		ms, err := parseMode(mode)
		if err != nil {
			return
		}
		f, err := newFile(fd, ms, name)
		if err != nil {
			logger().Debug("zfile: cannot open standard stream", "fd", fd, "error", err)
			return
		}
		f.stdio = true
		s.f = f
	})
	return s.f
}
