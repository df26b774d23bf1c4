package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	bterm "github.com/wippyai/bert/term"
)

var (
	indexStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	termStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))
)

var cborMode cbor.EncMode

func init() {
	var err error
	cborMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("bert: CBOR encoder initialization failed: " + err.Error())
	}
}

// printer writes decoded terms in one output format.
type printer struct {
	w      io.Writer
	yaml   *yaml.Encoder
	format string
	color  bool
	count  int
}

func newPrinter(w io.Writer, format string, color bool) (*printer, error) {
	p := &printer{w: w, format: format, color: color}
	switch format {
	case "erl", "json", "cbor":
	case "yaml":
		p.yaml = yaml.NewEncoder(w)
		p.yaml.SetIndent(2)
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
	return p, nil
}

func (p *printer) print(t bterm.Term) error {
	p.count++
	if p.format == "erl" {
		text := bterm.Format(t)
		if p.color {
			text = indexStyle.Render(fmt.Sprintf("%d>", p.count)) + " " + termStyle.Render(text)
		}
		_, err := fmt.Fprintln(p.w, text)
		return err
	}

	v, err := bterm.ToNative(t)
	if err != nil {
		return err
	}
	switch p.format {
	case "json":
		return json.NewEncoder(p.w).Encode(v)
	case "yaml":
		return p.yaml.Encode(v)
	default:
		data, err := cborMode.Marshal(v)
		if err != nil {
			return err
		}
		_, err = p.w.Write(data)
		return err
	}
}

// close flushes buffered output.
func (p *printer) close() error {
	if p.yaml != nil {
		return p.yaml.Close()
	}
	return nil
}
