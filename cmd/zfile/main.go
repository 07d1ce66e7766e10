package main

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rasky/zfile"
	"github.com/rasky/zfile/internal/logging"
	"github.com/rasky/zfile/internal/metrics"

	"github.com/djherbis/atime"
	"github.com/klauspost/pgzip"
	"github.com/spf13/pflag"
	"golang.org/x/crypto/ssh/terminal"
	"golang.org/x/sys/unix"
)

const VERSION = "1.0"

var flagStdout = pflag.BoolP("stdout", "c", false, "write on standard output, keep original files unchanged")
var flagDecompress = pflag.BoolP("decompress", "d", false, "decompress")
var flagForce = pflag.BoolP("force", "f", false, "force overwrite of output file")
var flagHelp = pflag.BoolP("help", "h", false, "give this help")
var flagKeep = pflag.BoolP("keep", "k", false, "keep (don't delete) input files")
var flagList = pflag.BoolP("list", "l", false, "list compressed file contents")
var flagTest = pflag.BoolP("test", "t", false, "test compressed file integrity")
var flagVerbose = pflag.BoolP("verbose", "v", false, "verbose mode")
var flagVersion = pflag.BoolP("version", "V", false, "display version number")
var flagConfig = pflag.String("config", "", "read configuration from a YAML file")
var flagMetrics = pflag.String("metrics-file", "", "write run metrics to this file")
var flagL1 = pflag.BoolP("fast", "1", false, "compress faster")
var flagL2 = pflag.Bool("2", false, "")
var flagL3 = pflag.Bool("3", false, "")
var flagL4 = pflag.Bool("4", false, "")
var flagL5 = pflag.Bool("5", false, "")
var flagL6 = pflag.Bool("6", false, "")
var flagL7 = pflag.Bool("7", false, "")
var flagL8 = pflag.Bool("8", false, "")
var flagL9 = pflag.BoolP("best", "9", false, "compress better")

const (
	ModeCompress = iota
	ModeDecompress
	ModeTest
	ModeList
)

var Mode = ModeCompress
var Level int
var Suffix string
var Files []string
var OutFn string
var IsStdoutTerm bool = terminal.IsTerminal(1)

var log *slog.Logger
var stats *metrics.Collector

func main() {
	pflag.Parse()
	if *flagHelp {
		Usage()
		return
	}
	if *flagVersion {
		fmt.Println("zfile", VERSION)
		return
	}

	cfg, err := LoadConfig(*flagConfig)
	if err != nil {
		fatal(err)
		os.Exit(1)
	}
	if *flagVerbose {
		cfg.Log.Level = logging.LevelDebug
	}
	log = logging.NewLogger(cfg.Log)
	zfile.SetLogger(log)

	Level = cfg.Level
	Suffix = cfg.Suffix
	for i, set := range []bool{*flagL1, *flagL2, *flagL3, *flagL4, *flagL5, *flagL6, *flagL7, *flagL8, *flagL9} {
		if set {
			Level = i + 1
		}
	}

	metricsFile := cfg.MetricsFile
	if *flagMetrics != "" {
		metricsFile = *flagMetrics
	}
	if metricsFile != "" {
		if stats, err = metrics.New(); err != nil {
			fatal(err)
			os.Exit(1)
		}
	}

	Files = pflag.Args()
	if len(Files) == 0 {
		Files = []string{"-"}
	}

	binname := filepath.Base(os.Args[0])

	if *flagDecompress || strings.Contains(binname, "gunz") {
		Mode = ModeDecompress
	}
	if *flagTest {
		Mode = ModeTest
	}
	if *flagList {
		Mode = ModeList
	}
	if strings.Contains(binname, "zcat") {
		Mode = ModeDecompress
		*flagStdout = true
	}

	SetSignalHandler()
	status := Run()
	if stats != nil {
		if err := stats.WriteTextfile(metricsFile); err != nil {
			fatal(err)
			status = 1
		}
	}
	os.Exit(status)
}

func SetSignalHandler() {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGINT)
	go func() {
		<-ch
		if OutFn != "" {
			os.Remove(OutFn)
		}
		os.Exit(1)
	}()
}

// CopyStat gives dst the permissions, owner and times of src.
func CopyStat(dst, src string) {
	fi, err := os.Stat(src)
	if err != nil {
		return
	}
	os.Chmod(dst, fi.Mode())
	if sys, ok := fi.Sys().(*syscall.Stat_t); ok {
		os.Chown(dst, int(sys.Uid), int(sys.Gid))
	}
	os.Chtimes(dst, atime.Get(fi), fi.ModTime())
}

func fatal(args ...interface{}) {
	fmt.Fprint(os.Stderr, "zfile: ")
	fmt.Fprintln(os.Stderr, args...)
}

func opName() string {
	switch Mode {
	case ModeDecompress:
		return "decompress"
	case ModeTest:
		return "test"
	case ModeList:
		return "list"
	}
	return "compress"
}

// askOverwrite asks on the terminal whether outfn may be replaced.
func askOverwrite(outfn string) bool {
	out := zfile.Stdout()
	out.Printf("zfile: %s already exists; do you wish to overwrite (y or n)? ", outfn)
	buf := make([]byte, 16)
	input, err := zfile.Stdin().Gets(buf)
	if err != nil || len(input) == 0 || input[0] != 'y' {
		out.WriteString("\tnot overwritten\n")
		return false
	}
	return true
}

// openOutput returns the handle to write fn's result to, and its name
// ("" for standard output). A nil handle with a nil error means skip.
func openOutput(fn string, toStdout bool) (*zfile.File, string, error) {
	mode := "w"
	if Mode == ModeCompress {
		mode = fmt.Sprintf("w%d", Level)
	}

	if toStdout {
		if Mode == ModeCompress {
			if IsStdoutTerm && !*flagForce {
				return nil, "", errors.New("cannot compress to terminal (use -f to force)")
			}
			fd, err := unix.Dup(1)
			if err != nil {
				return nil, "", err
			}
			w, err := zfile.OpenFd(fd, mode)
			if err != nil {
				unix.Close(fd)
			}
			return w, "", err
		}
		return zfile.Stdout(), "", nil
	}

	var outfn string
	switch Mode {
	case ModeCompress:
		if strings.HasSuffix(fn, Suffix) {
			fatal(fn, "already has", Suffix, "suffix -- unchanged")
			return nil, "", nil
		}
		outfn = fn + Suffix
	case ModeDecompress:
		if !strings.HasSuffix(fn, Suffix) {
			fatal(fn, "unknown suffix -- ignored")
			return nil, "", nil
		}
		outfn = strings.TrimSuffix(fn, Suffix)
	}

	if !*flagForce {
		if _, err := os.Stat(outfn); err == nil && !askOverwrite(outfn) {
			return nil, "", nil
		}
	}

	w, err := zfile.Open(outfn, mode)
	if err != nil {
		return nil, "", err
	}
	// Set up the global used by the signal handler, so that an interrupted
	// run does not leave a partial output behind.
	OutFn = outfn
	return w, outfn, nil
}

func processFile(fn string) (in, out int64, err error) {
	var f *zfile.File

	toStdout := *flagStdout
	if fn == "-" {
		f = zfile.Stdin()
		toStdout = true
	} else {
		f, err = zfile.Open(fn, "r")
		if err != nil {
			return 0, 0, err
		}
		defer f.Close()
	}

	w, outfn, err := openOutput(fn, toStdout)
	if err != nil || w == nil {
		return 0, 0, err
	}

	in, err = zfile.Copy(w, f)
	if err == nil && outfn == "" {
		err = w.Flush()
	}
	out = in
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if Mode == ModeCompress {
		out = w.CompressedSize()
	}
	if err != nil {
		if outfn != "" {
			os.Remove(outfn)
		}
		OutFn = ""
		return in, out, err
	}
	OutFn = ""

	if outfn != "" {
		CopyStat(outfn, fn)
		if !*flagKeep {
			os.Remove(fn)
		}
	}
	log.Debug("processed", "file", fn, "output", outfn, "in", in, "out", out)
	return in, out, nil
}

// testFile reads fn to its end, which checks every gzip trailer, and
// cross-checks the content of compressed files with pgzip.
func testFile(fn string) (int64, error) {
	var f *zfile.File
	if fn == "-" {
		f = zfile.Stdin()
	} else {
		var err error
		if f, err = zfile.Open(fn, "r"); err != nil {
			return 0, err
		}
		defer f.Close()
	}

	h := sha1.New()
	n, err := io.Copy(h, f)
	if err != nil || fn == "-" || f.Members() == 0 {
		return n, err
	}

	raw, err := os.Open(fn)
	if err != nil {
		return n, err
	}
	defer raw.Close()
	zr, err := pgzip.NewReader(raw)
	if err != nil {
		return n, err
	}
	defer zr.Close()

	ref := sha1.New()
	if _, err := io.Copy(ref, zr); err != nil {
		// Trailing plain data after the last member is not gzip for pgzip.
		log.Debug("pgzip cross-check stopped early", "file", fn, "error", err)
		return n, nil
	}
	if string(h.Sum(nil)) != string(ref.Sum(nil)) {
		return n, fmt.Errorf("%s: content differs from reference decoder", fn)
	}
	return n, nil
}

var listHeader bool

func listFile(fn string) (int64, error) {
	if fn == "-" {
		return 0, errors.New("cannot list standard input")
	}
	st, err := os.Stat(fn)
	if err != nil {
		return 0, err
	}
	info, err := zfile.Probe(fn)
	if err != nil {
		return info.Size, err
	}

	out := zfile.Stdout()
	if !listHeader {
		out.Printf("%20s %20s %7s %7s %s\n", "compressed", "uncompressed", "ratio", "members", "uncompressed_name")
		listHeader = true
	}
	ratio := 0.0
	if info.Size > 0 {
		ratio = 100 * (1 - float64(st.Size())/float64(info.Size))
	}
	out.Printf("%20d %20d %6.1f%% %7d %s\n", st.Size(), info.Size, ratio, info.Members,
		strings.TrimSuffix(fn, Suffix))
	return info.Size, nil
}

func Run() int {
	status := 0
	for _, fn := range Files {
		start := time.Now()
		var in, out int64
		var err error

		switch Mode {
		case ModeTest:
			in, err = testFile(fn)
		case ModeList:
			in, err = listFile(fn)
		default:
			in, out, err = processFile(fn)
		}

		if stats != nil {
			stats.RecordFile(opName(), in, out, time.Since(start), err)
		}
		if err != nil {
			log.Debug("failed", "file", fn, "op", opName(), "error", err)
			fatal(err)
			status = 1
			if Mode != ModeTest && Mode != ModeList {
				return status
			}
		}
	}
	return status
}

func Usage() {
	// We prefer not to use pflag.Usage: it orders by long option name and
	// shows "[=false]" next to all boolean options.
	fmt.Println(`Usage: zfile [OPTION]... [FILE]...
Compress or uncompress FILEs (by default, compress FILES in-place).
Files that are not gzip are decompressed as-is.

  -c, --stdout        write on standard output, keep original files unchanged
  -d, --decompress    decompress
  -f, --force         force overwrite of output file
  -h, --help          give this help
  -k, --keep          keep (don't delete) input files
  -l, --list          list compressed file contents
  -t, --test          test compressed file integrity
  -v, --verbose       verbose mode
  -V, --version       display version number
  -1, --fast          compress faster
  -9, --best          compress better
      --config FILE   read configuration from a YAML file
      --metrics-file FILE
                      write run metrics in Prometheus textfile format

With no FILE, or when FILE is -, read standard input.`)
}
