package main

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"halftwo/bdecode/benc"
	"halftwo/bdecode/xerr"
)

// renderer prints a stream of top-level values.
// digest, if not empty, is printed along with the value.
type renderer interface {
	Render(v benc.Value, digest string) error
	Close() error
}

func newRenderer(format string, w io.Writer) (renderer, error) {
	switch format {
	case "tree":
		return &treeRenderer{w: w}, nil
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		return &yamlRenderer{enc: enc}, nil
	case "cbor":
		return &cborRenderer{enc: cborMode.NewEncoder(w)}, nil
	}
	return nil, xerr.Errorf("unknown format %q", format)
}

// Strings longer than this are shown in part.
const previewMax = 64

func printable(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}
	for _, r := range s {
		if !unicode.IsPrint(r) && r != '\t' && r != '\n' {
			return false
		}
	}
	return true
}

// displayString quotes printable text and shows other bytes as hex.
func displayString(s string) string {
	if printable(s) {
		if len(s) > previewMax {
			n := previewMax
			for n > 0 && !utf8.RuneStart(s[n]) {
				n--
			}
			return fmt.Sprintf("%s... (%s)", strconv.Quote(s[:n]), humanize.Bytes(uint64(len(s))))
		}
		return strconv.Quote(s)
	}

	n := len(s)
	if n > previewMax/2 {
		return fmt.Sprintf("<binary %s> %s...", humanize.Bytes(uint64(n)), hex.EncodeToString([]byte(s[:previewMax/2])))
	}
	return fmt.Sprintf("<binary %s> %s", humanize.Bytes(uint64(n)), hex.EncodeToString([]byte(s)))
}

type treeRenderer struct {
	w     io.Writer
	depth int
	label string
}

func (tr *treeRenderer) Render(v benc.Value, digest string) error {
	if digest != "" {
		if _, err := fmt.Fprintf(tr.w, "# blake3 %s\n", digest); err != nil {
			return err
		}
	}
	tr.depth = 0
	tr.label = ""
	return v.Accept(tr)
}

func (tr *treeRenderer) Close() error {
	return nil
}

func (tr *treeRenderer) emit(s string) error {
	_, err := fmt.Fprintf(tr.w, "%s%s%s\n", strings.Repeat("  ", tr.depth), tr.label, s)
	tr.label = ""
	return err
}

func (tr *treeRenderer) VisitInteger(n int64) error {
	return tr.emit(strconv.FormatInt(n, 10))
}

func (tr *treeRenderer) VisitString(s string) error {
	return tr.emit(displayString(s))
}

func (tr *treeRenderer) VisitList(items []benc.Value) error {
	if err := tr.emit(fmt.Sprintf("list (%d)", len(items))); err != nil {
		return err
	}
	tr.depth++
	for i, x := range items {
		tr.label = fmt.Sprintf("[%d] ", i)
		if err := x.Accept(tr); err != nil {
			return err
		}
	}
	tr.depth--
	return nil
}

func (tr *treeRenderer) VisitDict(d *benc.Dict) error {
	if err := tr.emit(fmt.Sprintf("dict (%d)", d.Len())); err != nil {
		return err
	}
	tr.depth++
	var err error
	d.Each(func(key string, x benc.Value) bool {
		tr.label = displayString(key) + ": "
		err = x.Accept(tr)
		return err == nil
	})
	tr.depth--
	return err
}

type yamlRenderer struct {
	enc *yaml.Encoder
}

func (yr *yamlRenderer) Render(v benc.Value, digest string) error {
	yb := &yamlBuilder{}
	if err := v.Accept(yb); err != nil {
		return err
	}
	if digest != "" {
		yb.node.HeadComment = "blake3 " + digest
	}
	return yr.enc.Encode(yb.node)
}

func (yr *yamlRenderer) Close() error {
	return yr.enc.Close()
}

// yamlBuilder turns a value into a yaml node tree, which keeps
// dict order. Strings that are not UTF-8 become !!binary.
type yamlBuilder struct {
	node *yaml.Node
}

func yamlString(s string) *yaml.Node {
	if utf8.ValidString(s) {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!binary", Value: base64.StdEncoding.EncodeToString([]byte(s))}
}

func (yb *yamlBuilder) VisitInteger(n int64) error {
	yb.node = &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(n, 10)}
	return nil
}

func (yb *yamlBuilder) VisitString(s string) error {
	yb.node = yamlString(s)
	return nil
}

func (yb *yamlBuilder) VisitList(items []benc.Value) error {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, x := range items {
		child := &yamlBuilder{}
		if err := x.Accept(child); err != nil {
			return err
		}
		seq.Content = append(seq.Content, child.node)
	}
	yb.node = seq
	return nil
}

func (yb *yamlBuilder) VisitDict(d *benc.Dict) error {
	m := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	var err error
	d.Each(func(key string, x benc.Value) bool {
		child := &yamlBuilder{}
		if err = x.Accept(child); err != nil {
			return false
		}
		m.Content = append(m.Content, yamlString(key), child.node)
		return true
	})
	yb.node = m
	return err
}

// cborMode writes byte strings as CBOR byte strings and dicts as maps
// with sorted keys, so the same value always gives the same bytes.
var cborMode cbor.EncMode

func init() {
	var err error
	cborMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("bdump: CBOR encoder initialization failed: " + err.Error())
	}
}

type cborRenderer struct {
	enc *cbor.Encoder
}

func (cr *cborRenderer) Render(v benc.Value, digest string) error {
	cb := &cborBuilder{}
	if err := v.Accept(cb); err != nil {
		return err
	}
	return cr.enc.Encode(cb.item)
}

func (cr *cborRenderer) Close() error {
	return nil
}

// cborBuilder turns a value into plain Go for the CBOR encoder.
// Dict keys are text strings when they are UTF-8, byte strings otherwise.
type cborBuilder struct {
	item any
}

func cborKey(key string) any {
	if utf8.ValidString(key) {
		return key
	}
	return cbor.ByteString(key)
}

func (cb *cborBuilder) VisitInteger(n int64) error {
	cb.item = n
	return nil
}

func (cb *cborBuilder) VisitString(s string) error {
	cb.item = []byte(s)
	return nil
}

func (cb *cborBuilder) VisitList(items []benc.Value) error {
	arr := make([]any, 0, len(items))
	for _, x := range items {
		child := &cborBuilder{}
		if err := x.Accept(child); err != nil {
			return err
		}
		arr = append(arr, child.item)
	}
	cb.item = arr
	return nil
}

func (cb *cborBuilder) VisitDict(d *benc.Dict) error {
	m := make(map[any]any, d.Len())
	var err error
	d.Each(func(key string, x benc.Value) bool {
		child := &cborBuilder{}
		if err = x.Accept(child); err != nil {
			return false
		}
		m[cborKey(key)] = child.item
		return true
	})
	cb.item = m
	return err
}
