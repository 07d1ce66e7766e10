// Package zfile implements buffered streams over files and sockets with
// transparent gzip support.
//
// A File wraps a descriptor and a fixed 4KiB buffer. Reading handles
// recognize gzip data on their first read and decompress it on the fly,
// including several concatenated gzip members, which read as one
// continuous stream; each member trailer (CRC32 and size) is verified.
// Data that does not start with a gzip header is returned unchanged, so
// callers can read plain and compressed files with the same code.
//
// Writing handles opened with a compression level ("w1" to "w9") produce
// a single-member gzip stream readable by gzip(1) and compress/gzip: the
// header is written at open and the trailer at Close.
//
// Seeking is supported on read handles. Plain files seek the descriptor.
// Compressed streams have to be decompressed up to the target, starting
// over from the beginning of the file when moving backwards.
//
// On top of the buffer the package provides line readers aware of LF, CR
// and CR LF terminators, a reader for "Directive value" configuration
// files with '#' comments, and formatted output.
//
// Write opens are guarded against symlink and hard-link attacks: the
// target must be a regular file with a single link, reached without a
// symlink, checked on the open descriptor rather than only on the path.
//
// The package works on Unix descriptors. A File is not safe for concurrent
// use; Lock and Unlock provide advisory locks between processes.
package zfile
