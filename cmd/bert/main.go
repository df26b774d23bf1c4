package main

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/bert"
	"github.com/wippyai/bert/frame"
	bterm "github.com/wippyai/bert/term"
)

const usage = `Usage:
  bert encode [-p width] [-z level] [-x] TERM
  bert decode [-p width] [-f erl|json|yaml|cbor] [FILE]
  bert inspect [-p width] FILE

TERM is written in Erlang syntax, for example '{ok,[1,2],<<"hi">>}'.
When TERM is omitted it is read from stdin. Use -p to frame terms as
length-prefixed packets and -v on any command for debug logging.
`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("missing command")
	}

	switch args[0] {
	case "encode":
		return runEncode(args[1:], stdin, stdout)
	case "decode":
		return runDecode(args[1:], stdin, stdout)
	case "inspect":
		return runInspect(args[1:])
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// commonFlags are shared by every command.
type commonFlags struct {
	packet  int
	verbose bool
}

func newFlagSet(name string, c *commonFlags) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.IntVarP(&c.packet, "packet", "p", 0, "length prefix width for packet framing (1, 2, 4 or 8; 0 disables)")
	fs.BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging to stderr")
	return fs
}

func (c *commonFlags) setup() error {
	switch c.packet {
	case 0, 1, 2, 4, 8:
	default:
		return fmt.Errorf("invalid packet width %d", c.packet)
	}
	if !c.verbose {
		return nil
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	bert.SetLogger(l.Named("bert"))
	frame.SetLogger(l.Named("frame"))
	return nil
}

func runEncode(args []string, stdin io.Reader, stdout io.Writer) error {
	var (
		c     commonFlags
		level int
		dump  bool
	)
	fs := newFlagSet("encode", &c)
	fs.IntVarP(&level, "compress", "z", 0, "zlib compression level 1-9 (0 disables)")
	fs.BoolVarP(&dump, "hex", "x", false, "always write a hex dump")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.setup(); err != nil {
		return err
	}
	if level < 0 || level > 9 {
		return fmt.Errorf("invalid compression level %d", level)
	}

	text := strings.Join(fs.Args(), " ")
	if text == "" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	out, err := encodeText(text, c.packet, level)
	if err != nil {
		return err
	}

	if dump || isTerminal(stdout) {
		_, err = io.WriteString(stdout, hex.Dump(out))
		return err
	}
	_, err = stdout.Write(out)
	return err
}

// encodeText parses text and returns the external encoding, optionally
// compressed and wrapped in a packet.
func encodeText(text string, packet, level int) ([]byte, error) {
	t, err := bterm.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	data, err := bterm.EncodeExternal(t)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	if level > 0 {
		if data, err = bert.Compress(data, level); err != nil {
			return nil, fmt.Errorf("compress: %w", err)
		}
	}
	if packet == 0 {
		return data, nil
	}

	var buf bytes.Buffer
	fw, err := frame.NewWriter(&buf, packet)
	if err != nil {
		return nil, err
	}
	if err := fw.Send(func(w *bert.Writer) { w.Raw(data) }); err != nil {
		return nil, fmt.Errorf("frame: %w", err)
	}
	return buf.Bytes(), nil
}

func runDecode(args []string, stdin io.Reader, stdout io.Writer) error {
	var (
		c      commonFlags
		format string
	)
	fs := newFlagSet("decode", &c)
	fs.StringVarP(&format, "format", "f", "erl", "output format: erl, json, yaml or cbor")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.setup(); err != nil {
		return err
	}
	out, err := newPrinter(stdout, format, isTerminal(stdout))
	if err != nil {
		return err
	}

	in := stdin
	if fs.NArg() > 0 {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	terms, err := decodeAll(in, c.packet)
	for _, t := range terms {
		if perr := out.print(t); perr != nil {
			return perr
		}
	}
	if cerr := out.close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// decodeAll reads one external term, or every packet when packet is
// non-zero. Terms decoded before an error are returned with it.
func decodeAll(in io.Reader, packet int) ([]bterm.Term, error) {
	if packet == 0 {
		data, err := io.ReadAll(in)
		if err != nil {
			return nil, err
		}
		t, err := bterm.DecodeExternal(data)
		if err != nil {
			return nil, err
		}
		return []bterm.Term{t}, nil
	}

	r, err := frame.NewReader(in, packet)
	if err != nil {
		return nil, err
	}
	var terms []bterm.Term
	for {
		t, err := frame.ReadTerm[bterm.Term](r, bterm.Builder{})
		if err == io.EOF {
			return terms, nil
		}
		if err != nil {
			return terms, fmt.Errorf("packet %d: %w", len(terms)+1, err)
		}
		terms = append(terms, t)
	}
}

func runInspect(args []string) error {
	var c commonFlags
	fs := newFlagSet("inspect", &c)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := c.setup(); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("inspect needs exactly one file")
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	terms, err := decodeAll(f, c.packet)
	f.Close()
	if err != nil {
		return err
	}
	return runInteractive(fs.Arg(0), terms)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
