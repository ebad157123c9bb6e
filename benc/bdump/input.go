package main

import (
	"bytes"
	"encoding/hex"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/zeebo/blake3"
	"golang.org/x/term"

	"halftwo/bdecode/xerr"
)

var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// readInput reads all of the named file, "-" being stdin,
// and undoes the compression given by method.
func readInput(name string, stdin io.Reader, method string) ([]byte, error) {
	var r io.Reader = stdin
	if name != "-" {
		fp, err := os.Open(name)
		if err != nil {
			return nil, xerr.Trace(err)
		}
		defer fp.Close()
		r = fp
	}

	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, xerr.Trace(err, "reading")
	}
	return decompress(buf, method)
}

func sniff(buf []byte) string {
	switch {
	case bytes.HasPrefix(buf, zstdMagic):
		return "zstd"
	case bytes.HasPrefix(buf, lz4Magic):
		return "lz4"
	}
	return "none"
}

func decompress(buf []byte, method string) ([]byte, error) {
	if method == "auto" {
		method = sniff(buf)
	}

	switch method {
	case "zstd":
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, xerr.Trace(err, "zstd")
		}
		defer dec.Close()
		out, err := dec.DecodeAll(buf, nil)
		if err != nil {
			return nil, xerr.Trace(err, "zstd")
		}
		return out, nil

	case "lz4":
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(buf)))
		if err != nil {
			return nil, xerr.Trace(err, "lz4")
		}
		return out, nil

	case "none":
		return buf, nil
	}
	return nil, xerr.Errorf("unknown decompression %q", method)
}

func digestOf(raw []byte) string {
	sum := blake3.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func isTerminal(w io.Writer) bool {
	fp, ok := w.(*os.File)
	return ok && term.IsTerminal(int(fp.Fd()))
}
