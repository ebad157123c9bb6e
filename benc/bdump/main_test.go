package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	fn := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(fn, data, 0o644))
	return fn
}

func runBdump(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestTree(t *testing.T) {
	fn := writeFile(t, "a.benc", []byte("d4:spaml1:a1:be3:numi-3e3:bin3:\x00\x01\xffe"))
	code, out, errout := runBdump(t, "", fn)
	require.Equal(t, 0, code, errout)
	require.Equal(t, `dict (3)
  "spam": list (2)
    [0] "a"
    [1] "b"
  "num": -3
  "bin": <binary 3 B> 0001ff
`, out)
}

func TestStdinStream(t *testing.T) {
	code, out, errout := runBdump(t, "i1e4:spamle", "-")
	require.Equal(t, 0, code, errout)
	require.Equal(t, "1\n\"spam\"\nlist (0)\n", out)

	code, out, _ = runBdump(t, "i7e")
	require.Equal(t, 0, code)
	require.Equal(t, "7\n", out)

	code, out, _ = runBdump(t, "")
	require.Equal(t, 0, code)
	require.Empty(t, out)
}

func TestDigest(t *testing.T) {
	code, out, errout := runBdump(t, "i1ei2e", "--digest")
	require.Equal(t, 0, code, errout)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "# blake3 "+digestOf([]byte("i1e")), lines[0])
	require.Equal(t, "1", lines[1])
	require.Equal(t, "# blake3 "+digestOf([]byte("i2e")), lines[2])
	require.NotEqual(t, lines[0], lines[2])
	require.Len(t, lines[0], len("# blake3 ")+64)
}

func TestYAML(t *testing.T) {
	code, out, errout := runBdump(t, "d4:spaml1:a1:be3:numi-3e3:bin2:\xff\xfee", "-f", "yaml")
	require.Equal(t, 0, code, errout)
	require.Contains(t, out, "!!binary")
	require.Less(t, strings.Index(out, "spam"), strings.Index(out, "num"), "dict order lost:\n%s", out)

	var m map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &m))
	require.Equal(t, []any{"a", "b"}, m["spam"])
	require.Equal(t, -3, m["num"])
}

func TestYAMLDocuments(t *testing.T) {
	code, out, _ := runBdump(t, "i1ei2e", "--format=yaml", "--digest")
	require.Equal(t, 0, code)
	require.Equal(t, 1, strings.Count(out, "---"), out)
	require.Equal(t, 2, strings.Count(out, "# blake3 "), out)
}

func TestCBOR(t *testing.T) {
	code, out, errout := runBdump(t, "d4:spaml1:a1:be3:numi-3ee", "-f", "cbor")
	require.Equal(t, 0, code, errout)

	var m map[string]any
	require.NoError(t, cbor.Unmarshal([]byte(out), &m))
	require.Equal(t, []any{[]byte("a"), []byte("b")}, m["spam"])
	require.Equal(t, int64(-3), m["num"])

	code, out, errout = runBdump(t, "d2:\xff\xfei1e3:keyi2ee", "-f", "cbor")
	require.Equal(t, 0, code, errout)

	var mixed map[any]any
	require.NoError(t, cbor.Unmarshal([]byte(out), &mixed))
	require.Equal(t, uint64(1), mixed[cbor.ByteString("\xff\xfe")])
	require.Equal(t, uint64(2), mixed["key"])

	code, _, _ = runBdump(t, "i1e", "-f", "cbor", "--digest")
	require.Equal(t, 2, code)
}

const sample = "d8:announce3:url4:infod4:name3:abcee"

func TestZstdInput(t *testing.T) {
	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	fn := writeFile(t, "a.benc.zst", enc.EncodeAll([]byte(sample), nil))
	require.NoError(t, enc.Close())

	_, plain, _ := runBdump(t, sample)
	code, out, errout := runBdump(t, "", fn)
	require.Equal(t, 0, code, errout)
	require.Equal(t, plain, out)

	code, _, errout = runBdump(t, "", "-z", "none", fn)
	require.Equal(t, 1, code)
	require.Contains(t, errout, "unknown tag")
}

func TestLZ4Input(t *testing.T) {
	var buf bytes.Buffer
	zw := lz4.NewWriter(&buf)
	_, err := zw.Write([]byte(sample))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	fn := writeFile(t, "a.benc.lz4", buf.Bytes())

	_, plain, _ := runBdump(t, sample)
	for _, method := range []string{"lz4", "auto"} {
		code, out, errout := runBdump(t, "", "--decompress="+method, fn)
		require.Equal(t, 0, code, errout)
		require.Equal(t, plain, out)
	}
}

func TestDecodeFailure(t *testing.T) {
	good := writeFile(t, "good.benc", []byte("i1e"))
	bad := writeFile(t, "bad.benc", []byte("l4:spam"))
	code, out, errout := runBdump(t, "", bad, good)
	require.Equal(t, 1, code)
	require.Contains(t, errout, "unterminated container at offset 0")
	require.Equal(t, "1\n", out, "the good file must still be printed")

	code, _, errout = runBdump(t, "", filepath.Join(t.TempDir(), "missing"))
	require.Equal(t, 1, code)
	require.NotEmpty(t, errout)
}

func TestLimits(t *testing.T) {
	tests := []struct {
		stdin string
		args  []string
		code  int
	}{
		{"llee", []string{"--max-depth=1"}, 1},
		{"llee", []string{"--max-depth=2"}, 0},
		{"i900e", []string{"--max-size=4"}, 1},
		{"i900e", []string{"--max-size=5"}, 0},
		{"5:abcde", []string{"--max-string-size=4"}, 1},
		{"5:abcde", []string{"--max-string-size=1Ki"}, 0},
		{"i1e", []string{"--max-size=lots"}, 2},
		{"i1e", []string{"--max-size=0"}, 2},
	}
	for _, tt := range tests {
		code, _, errout := runBdump(t, tt.stdin, tt.args...)
		require.Equal(t, tt.code, code, "%q %v: %s", tt.stdin, tt.args, errout)
	}
}

func TestConfig(t *testing.T) {
	conf := writeFile(t, "bdump.conf", []byte("# test\nbdump.Strict = true\nbdump.Format = yaml\nbdump.MaxDepth = 1\n"))

	code, _, errout := runBdump(t, "i03e", "-c", conf)
	require.Equal(t, 1, code)
	require.Contains(t, errout, "non-canonical")

	code, _, errout = runBdump(t, "llee", "-c", conf)
	require.Equal(t, 1, code)
	require.Contains(t, errout, "depth exceeds max")

	code, out, _ := runBdump(t, "i03e", "-c", conf, "--strict=false", "-f", "tree")
	require.Equal(t, 0, code)
	require.Equal(t, "3\n", out)

	code, _, _ = runBdump(t, "i1e", "-c", filepath.Join(t.TempDir(), "none.conf"))
	require.Equal(t, 2, code)
}

func TestUsage(t *testing.T) {
	code, _, _ := runBdump(t, "", "--format=xml")
	require.Equal(t, 2, code)

	code, _, _ = runBdump(t, "", "--decompress=gzip")
	require.Equal(t, 2, code)

	code, _, _ = runBdump(t, "", "--no-such-flag")
	require.Equal(t, 2, code)

	code, _, errout := runBdump(t, "", "--help")
	require.Equal(t, 0, code)
	require.Contains(t, errout, "Usage: bdump")
}

func TestDisplayString(t *testing.T) {
	require.True(t, strings.HasSuffix(displayString(strings.Repeat("x", 100)), `"... (100 B)`))
	require.Equal(t, `"tab\there\n"`, displayString("tab\there\n"))
	require.True(t, strings.HasPrefix(displayString("bell\a"), "<binary 5 B> "))

	accented := displayString("a" + strings.Repeat("é", 40))
	require.NotContains(t, accented, `\x`)
	require.True(t, strings.HasPrefix(accented, `"aé`))
	require.True(t, strings.HasSuffix(accented, `é"... (81 B)`))
	require.True(t, strings.HasSuffix(displayString(string(make([]byte, 40))), "..."))
	require.Equal(t, `""`, displayString(""))
	require.Equal(t, `"café"`, displayString("café"))
}

func TestSniff(t *testing.T) {
	require.Equal(t, "zstd", sniff([]byte{0x28, 0xb5, 0x2f, 0xfd, 0}))
	require.Equal(t, "lz4", sniff([]byte{0x04, 0x22, 0x4d, 0x18, 0}))
	require.Equal(t, "none", sniff([]byte("d4:spame")))
	require.Equal(t, "none", sniff(nil))
}
