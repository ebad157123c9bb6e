package setting

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const sample = `
# bdump defaults
bdump.MaxDepth = 64
bdump.MaxSize = 16Mi
bdump.Strict = true
bdump.Format = yaml
dlog.Address = 127.0.0.1:6109
bdump.Inputs = a.torrent, b.torrent;c.torrent
bdump.Schema = schemas/meta.conf
`

func TestLoad(t *testing.T) {
	st := NewSetting()
	if err := st.Load(strings.NewReader(sample), "sample"); err != nil {
		t.Fatal(err)
	}

	if st.Int("bdump.MaxDepth") != 64 {
		t.Fatalf("MaxDepth = %d", st.Int("bdump.MaxDepth"))
	}
	if st.Size("bdump.MaxSize") != 16<<20 {
		t.Fatalf("MaxSize = %d", st.Size("bdump.MaxSize"))
	}
	if !st.Bool("bdump.Strict") {
		t.Fatal("Strict not set")
	}
	if st.Get("bdump.Format") != "yaml" {
		t.Fatalf("Format = %q", st.Get("bdump.Format"))
	}
	if st.IntDefault("bdump.Missing", 7) != 7 || st.SizeDefault("bdump.Format", 9) != 9 {
		t.Fatal("defaults not used")
	}
	want := []string{"a.torrent", "b.torrent", "c.torrent"}
	if got := st.StringSlice("bdump.Inputs"); !reflect.DeepEqual(got, want) {
		t.Fatalf("StringSlice = %q", got)
	}
	if st.Insert("bdump.Format", "cbor") || st.Get("bdump.Format") != "yaml" {
		t.Fatal("Insert overwrote an existing key")
	}
}

func TestLoadInvalid(t *testing.T) {
	for _, s := range []string{"novalue", "=x", "key ="} {
		if err := NewSetting().Load(strings.NewReader(s), "bad"); err == nil {
			t.Errorf("Load(%q) succeeded", s)
		}
	}
}

func TestSettingFile(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "bdump.conf")
	if err := os.WriteFile(fn, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}

	st, err := NewSettingFile(fn)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := st.Pathname("bdump.Schema"), filepath.Join(dir, "schemas", "meta.conf"); got != want {
		t.Fatalf("Pathname = %q, want %q", got, want)
	}
	if st.Pathname("bdump.Nothing") != "" {
		t.Fatal("Pathname of a missing key is not empty")
	}

	if _, err := NewSettingFile(filepath.Join(dir, "missing.conf")); err == nil {
		t.Fatal("missing file loaded")
	}
}
