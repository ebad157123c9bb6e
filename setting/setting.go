// Package setting reads key=value configuration files.
// Blank lines and lines starting with '#' are ignored.
package setting

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"halftwo/bdecode/unitpref"
	"halftwo/bdecode/xerr"
)

type Setting interface {
	Set(name string, value string)
	Remove(name string)
	Insert(name, value string) bool

	Has(name string) bool
	Get(name string) string
	GetDefault(name string, dft string) string

	Int(name string) int64
	IntDefault(name string, dft int64) int64

	Bool(name string) bool
	BoolDefault(name string, dft bool) bool

	// Size accepts unit prefixes, "64Mi" is 64<<20.
	Size(name string) int64
	SizeDefault(name string, dft int64) int64

	Pathname(name string) string
	PathnameDefault(name string, dft string) string

	StringSlice(name string) []string

	LoadFile(filename string) error
	Load(r io.Reader, source string) error
}

type _Setting struct {
	filename string
	m        sync.Map
}

func NewSetting() Setting {
	return &_Setting{}
}

func NewSettingFile(filename string) (Setting, error) {
	st := NewSetting()
	err := st.LoadFile(filepath.FromSlash(filename))
	if err != nil {
		return nil, err
	}
	return st, nil
}

func (st *_Setting) LoadFile(filename string) error {
	fp, err := os.Open(filename)
	if err != nil {
		return xerr.Trace(err)
	}
	defer fp.Close()

	err = st.Load(fp, filename)
	if err != nil {
		return err
	}
	st.filename = filename
	return nil
}

// Load reads settings from r. source names r in error messages.
func (st *_Setting) Load(r io.Reader, source string) error {
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if !ok || len(key) == 0 || len(value) == 0 {
			return xerr.Errorf("setting: invalid key=value pairs in %s:%d", source, lineno)
		}

		st.m.Store(key, value)
	}
	if err := scanner.Err(); err != nil {
		return xerr.Tracef(err, "setting: reading %s", source)
	}
	return nil
}

func (st *_Setting) Set(name string, value string) {
	st.m.Store(name, value)
}

func (st *_Setting) Remove(name string) {
	st.m.Delete(name)
}

func (st *_Setting) Insert(name string, value string) bool {
	_, loaded := st.m.LoadOrStore(name, value)
	return !loaded
}

func (st *_Setting) Has(name string) bool {
	_, ok := st.m.Load(name)
	return ok
}

func (st *_Setting) Get(name string) string {
	return st.GetDefault(name, "")
}

func (st *_Setting) GetDefault(name string, dft string) string {
	v, ok := st.m.Load(name)
	if ok {
		s := v.(string)
		if len(s) > 0 {
			return s
		}
	}
	return dft
}

func (st *_Setting) Int(name string) int64 {
	return st.IntDefault(name, 0)
}

func (st *_Setting) IntDefault(name string, dft int64) int64 {
	v, err := strconv.ParseInt(st.Get(name), 0, 64)
	if err != nil {
		return dft
	}
	return v
}

func (st *_Setting) Bool(name string) bool {
	return st.BoolDefault(name, false)
}

func (st *_Setting) BoolDefault(name string, dft bool) bool {
	v, err := strconv.ParseBool(st.Get(name))
	if err != nil {
		return dft
	}
	return v
}

func (st *_Setting) Size(name string) int64 {
	return st.SizeDefault(name, 0)
}

func (st *_Setting) SizeDefault(name string, dft int64) int64 {
	v, err := unitpref.ParseSize(st.Get(name))
	if err != nil {
		return dft
	}
	return v
}

func (st *_Setting) Pathname(name string) string {
	return st.PathnameDefault(name, "")
}

// PathnameDefault resolves a relative path against the directory of
// the loaded file.
func (st *_Setting) PathnameDefault(name string, dft string) string {
	s := filepath.FromSlash(st.GetDefault(name, dft))
	if s == "" || filepath.IsAbs(s) {
		return s
	}
	return filepath.Join(filepath.Dir(st.filename), s)
}

func (st *_Setting) StringSlice(name string) []string {
	return strings.FieldsFunc(st.Get(name), func(r rune) bool {
		return strings.ContainsRune(",; \t\r\n", r)
	})
}
