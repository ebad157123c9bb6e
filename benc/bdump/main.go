// Command bdump decodes bencoded files and prints their values.
//
//	bdump [flags] [file ...]
//
// With no file, or with "-", it reads stdin. Every value of a file is
// printed; a file may hold several values back to back.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"halftwo/bdecode/benc"
	"halftwo/bdecode/dlog"
	"halftwo/bdecode/setting"
	"halftwo/bdecode/unitpref"
	"halftwo/bdecode/xerr"
)

type options struct {
	format        string
	config        string
	maxDepth      int
	maxSize       string
	maxStringSize string
	strict        bool
	digest        bool
	decompress    string
	verbose       bool
	dlogAddress   string

	maxLength    int
	maxStrLength int
}

func newFlagSet(opt *options, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("bdump", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opt.format, "format", "f", "tree", "output format: tree, yaml or cbor")
	fs.StringVarP(&opt.config, "config", "c", "", "key=value settings file")
	fs.IntVar(&opt.maxDepth, "max-depth", benc.MaxDepth, "max nesting of lists and dicts")
	fs.StringVar(&opt.maxSize, "max-size", "", "max encoded size of one value, e.g. 64Mi")
	fs.StringVar(&opt.maxStringSize, "max-string-size", "", "max length of one byte string, e.g. 16Mi")
	fs.BoolVar(&opt.strict, "strict", false, "reject input that is not in canonical form")
	fs.BoolVar(&opt.digest, "digest", false, "print the BLAKE3 digest of each encoded value")
	fs.StringVarP(&opt.decompress, "decompress", "z", "auto", "input compression: auto, none, zstd or lz4")
	fs.BoolVarP(&opt.verbose, "verbose", "v", false, "copy logs to stderr")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: bdump [flags] [file ...]\n")
		fs.PrintDefaults()
	}
	return fs
}

// applySetting fills the options no flag was given for.
func (opt *options) applySetting(st setting.Setting, fs *pflag.FlagSet) {
	if !fs.Changed("format") {
		opt.format = st.GetDefault("bdump.Format", opt.format)
	}
	if !fs.Changed("max-depth") {
		opt.maxDepth = int(st.IntDefault("bdump.MaxDepth", int64(opt.maxDepth)))
	}
	if !fs.Changed("max-size") {
		opt.maxSize = st.GetDefault("bdump.MaxSize", opt.maxSize)
	}
	if !fs.Changed("max-string-size") {
		opt.maxStringSize = st.GetDefault("bdump.MaxStringSize", opt.maxStringSize)
	}
	if !fs.Changed("strict") {
		opt.strict = st.BoolDefault("bdump.Strict", opt.strict)
	}
	if !fs.Changed("decompress") {
		opt.decompress = st.GetDefault("bdump.Decompress", opt.decompress)
	}
	opt.dlogAddress = st.Get("dlog.Address")
}

func (opt *options) check() error {
	switch opt.format {
	case "tree", "yaml", "cbor":
	default:
		return xerr.Errorf("unknown format %q", opt.format)
	}
	switch opt.decompress {
	case "auto", "none", "zstd", "lz4":
	default:
		return xerr.Errorf("unknown decompression %q", opt.decompress)
	}
	if opt.digest && opt.format == "cbor" {
		return xerr.Errorf("--digest can't be used with cbor output")
	}

	opt.maxLength = 0
	if opt.maxSize != "" {
		n, err := unitpref.ParseSize(opt.maxSize)
		if err != nil {
			return xerr.Trace(err, "--max-size")
		}
		if n == 0 {
			return xerr.Errorf("--max-size must be above 0")
		}
		opt.maxLength = int(n)
	}
	opt.maxStrLength = -1
	if opt.maxStringSize != "" {
		n, err := unitpref.ParseSize(opt.maxStringSize)
		if err != nil {
			return xerr.Trace(err, "--max-string-size")
		}
		opt.maxStrLength = int(n)
	}
	return nil
}

func (opt *options) newDecoder(buf []byte) *benc.Decoder {
	dec := benc.NewDecoder(buf)
	dec.SetMaxDepth(opt.maxDepth)
	dec.SetMaxLength(opt.maxLength)
	dec.SetMaxStringLength(opt.maxStrLength)
	dec.SetStrict(opt.strict)
	return dec
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opt := &options{}
	fs := newFlagSet(opt, stderr)
	if err := fs.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		return 2
	}

	if opt.config != "" {
		st, err := setting.NewSettingFile(opt.config)
		if err != nil {
			fmt.Fprintf(stderr, "bdump: %v\n", err)
			return 2
		}
		opt.applySetting(st, fs)
	}
	if err := opt.check(); err != nil {
		fmt.Fprintf(stderr, "bdump: %v\n", err)
		return 2
	}

	if opt.dlogAddress != "" {
		dlog.SetAddress(opt.dlogAddress)
	}
	if opt.verbose {
		dlog.SetOption(dlog.OPT_STDERR)
	}

	if opt.format == "cbor" && isTerminal(stdout) {
		fmt.Fprintf(stderr, "bdump: refusing to write cbor to a terminal\n")
		return 2
	}

	names := fs.Args()
	if len(names) == 0 {
		names = []string{"-"}
	}
	dlog.Log("START", "format=%s strict=%t inputs=%d", opt.format, opt.strict, len(names))

	out, err := newRenderer(opt.format, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "bdump: %v\n", err)
		return 2
	}

	status := 0
	for _, name := range names {
		if err := dumpInput(opt, name, stdin, out); err != nil {
			dlog.Log("ERROR", "%s: %v", name, err)
			fmt.Fprintf(stderr, "bdump: %s: %v\n", name, err)
			status = 1
		}
	}
	if err := out.Close(); err != nil {
		fmt.Fprintf(stderr, "bdump: %v\n", err)
		status = 1
	}
	return status
}

func dumpInput(opt *options, name string, stdin io.Reader, out renderer) error {
	buf, err := readInput(name, stdin, opt.decompress)
	if err != nil {
		return err
	}

	dec := opt.newDecoder(buf)
	count := 0
	for dec.More() {
		v, err := dec.Decode()
		if err != nil {
			return err
		}
		digest := ""
		if opt.digest {
			digest = digestOf(dec.Raw())
		}
		if err := out.Render(v, digest); err != nil {
			return xerr.Trace(err, "writing output")
		}
		count++
	}
	dlog.Log("DECODE", "file=%s values=%d bytes=%d", name, count, len(buf))
	return nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}
