package bert

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/wippyai/bert/errors"
)

// node is a minimal term type used to observe the fold.
type node struct {
	kind  string
	data  string
	elems []*node
	tail  *node
	n     int32
}

func (n *node) String() string {
	switch n.kind {
	case "nil":
		return "[]"
	case "int":
		return fmt.Sprint(n.n)
	case "atom":
		return n.data
	case "bin":
		return "<<" + n.data + ">>"
	case "str":
		return fmt.Sprintf("%q", n.data)
	case "tuple":
		parts := make([]string, len(n.elems))
		for i, e := range n.elems {
			parts[i] = e.String()
		}
		return "{" + strings.Join(parts, ",") + "}"
	case "list":
		parts := make([]string, len(n.elems))
		for i, e := range n.elems {
			parts[i] = e.String()
		}
		if n.tail.kind == "nil" {
			return "[" + strings.Join(parts, ",") + "]"
		}
		return "[" + strings.Join(parts, ",") + "|" + n.tail.String() + "]"
	}
	return "?"
}

type nodeBuilder struct {
	empty   *node
	calls   []string
	views   [][]byte
	failOn  string
	failErr error
}

func newNodeBuilder() *nodeBuilder {
	return &nodeBuilder{empty: &node{kind: "nil"}}
}

func (b *nodeBuilder) record(call string) error {
	b.calls = append(b.calls, call)
	if b.failOn == call {
		return b.failErr
	}
	return nil
}

func (b *nodeBuilder) Tuple(elems []*node) (*node, error) {
	return &node{kind: "tuple", elems: elems}, b.record("tuple")
}

func (b *nodeBuilder) List(elems []*node, tail *node) (*node, error) {
	return &node{kind: "list", elems: elems, tail: tail}, b.record("list")
}

func (b *nodeBuilder) Binary(data []byte) (*node, error) {
	b.views = append(b.views, data)
	return &node{kind: "bin", data: string(data)}, b.record("binary")
}

func (b *nodeBuilder) Atom(name []byte) (*node, error) {
	return &node{kind: "atom", data: string(name)}, b.record("atom")
}

func (b *nodeBuilder) String(data []byte) (*node, error) {
	return &node{kind: "str", data: string(data)}, b.record("string")
}

func (b *nodeBuilder) Integer(v int32) (*node, error) {
	return &node{kind: "int", n: v}, b.record("integer")
}

func (b *nodeBuilder) Nil() *node {
	return b.empty
}

func TestDecode_ProperListOfSmallIntegers(t *testing.T) {
	data := []byte{
		TagList, 0, 0, 0, 2,
		TagSmallInteger, 1,
		TagSmallInteger, 2,
		TagNil,
	}
	b := newNodeBuilder()
	v, err := DecodeBytes(data, b)
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	if got := v.String(); got != "[1,2]" {
		t.Errorf("got %s, want [1,2]", got)
	}
	if v.tail != b.empty {
		t.Error("proper list tail is not the shared nil value")
	}
}

func TestDecode_Shapes(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"small integer", []byte{TagSmallInteger, 255}, "255"},
		{"negative integer", []byte{TagInteger, 0xff, 0xff, 0xff, 0xff}, "-1"},
		{"large integer", []byte{TagInteger, 0x7f, 0xff, 0xff, 0xff}, "2147483647"},
		{"small atom", []byte{TagSmallAtom, 2, 'o', 'k'}, "ok"},
		{"atom", []byte{TagAtom, 0, 5, 'e', 'r', 'r', 'o', 'r'}, "error"},
		{"utf8 atom", []byte{TagAtomUTF8, 0, 2, 0xc3, 0xa9}, "é"},
		{"small utf8 atom", []byte{TagSmallAtomUTF8, 1, 'x'}, "x"},
		{"binary", []byte{TagBinary, 0, 0, 0, 3, 'a', 'b', 'c'}, "<<abc>>"},
		{"empty binary", []byte{TagBinary, 0, 0, 0, 0}, "<<>>"},
		{"string", []byte{TagString, 0, 2, 'h', 'i'}, `"hi"`},
		{"nil", []byte{TagNil}, "[]"},
		{"empty tuple", []byte{TagSmallTuple, 0}, "{}"},
		{
			"tuple of atoms",
			[]byte{TagSmallTuple, 2, TagSmallAtom, 2, 'o', 'k', TagAtom, 0, 2, 'o', 'k'},
			"{ok,ok}",
		},
		{
			"large tuple",
			[]byte{TagLargeTuple, 0, 0, 0, 1, TagSmallInteger, 7},
			"{7}",
		},
		{
			"improper list",
			[]byte{TagList, 0, 0, 0, 1, TagSmallInteger, 1, TagSmallAtom, 1, 'x'},
			"[1|x]",
		},
		{
			"list tail is list",
			[]byte{TagList, 0, 0, 0, 1, TagSmallInteger, 1, TagList, 0, 0, 0, 1, TagSmallInteger, 2, TagNil},
			"[1|[2]]",
		},
		{
			"list tail is tuple",
			[]byte{TagList, 0, 0, 0, 1, TagNil, TagSmallTuple, 0},
			"[[]|{}]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := DecodeBytes(tt.data, newNodeBuilder())
			if err != nil {
				t.Fatalf("DecodeBytes failed: %v", err)
			}
			if got := v.String(); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestDecode_NilSingleton(t *testing.T) {
	// {[], [[]], []}
	data := []byte{
		TagSmallTuple, 3,
		TagNil,
		TagList, 0, 0, 0, 1, TagNil, TagNil,
		TagNil,
	}
	b := newNodeBuilder()
	v, err := DecodeBytes(data, b)
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	seen := []*node{v.elems[0], v.elems[1].elems[0], v.elems[1].tail, v.elems[2]}
	for i, n := range seen {
		if n != b.empty {
			t.Errorf("empty list %d is not the shared nil value", i)
		}
	}
}

func TestDecode_BottomUpOrder(t *testing.T) {
	// {ok, [1 | <<"x">>]}
	data := []byte{
		TagSmallTuple, 2,
		TagSmallAtom, 2, 'o', 'k',
		TagList, 0, 0, 0, 1, TagSmallInteger, 1, TagBinary, 0, 0, 0, 1, 'x',
	}
	b := newNodeBuilder()
	if _, err := DecodeBytes(data, b); err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	want := []string{"atom", "integer", "binary", "list", "tuple"}
	if strings.Join(b.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", b.calls, want)
	}
}

func TestDecode_BinaryIsView(t *testing.T) {
	data := []byte{TagBinary, 0, 0, 0, 3, 'a', 'b', 'c'}
	b := newNodeBuilder()
	if _, err := DecodeBytes(data, b); err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	if len(b.views) != 1 {
		t.Fatalf("expected 1 binary view, got %d", len(b.views))
	}
	if &b.views[0][0] != &data[5] {
		t.Error("binary constructor received a copy instead of a view")
	}
	if cap(b.views[0]) != 3 {
		t.Errorf("view capacity = %d, want 3", cap(b.views[0]))
	}
}

func TestDecode_BinaryLongerThanInput(t *testing.T) {
	data := append([]byte{TagBinary, 0, 0, 0, 100}, bytes.Repeat([]byte{'z'}, 10)...)
	b := newNodeBuilder()
	_, err := DecodeBytes(data, b)
	if err == nil {
		t.Fatal("expected error")
	}
	if !stderrors.Is(err, errors.ErrTruncated) {
		t.Errorf("expected truncated error, got %v", err)
	}
	if len(b.calls) != 0 {
		t.Errorf("constructors invoked: %v", b.calls)
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		target error
	}{
		{"empty input", nil, errors.ErrTruncated},
		{"unknown tag", []byte{70, 0, 0, 0, 0, 0, 0, 0, 0}, errors.ErrUnknownTag},
		{"version byte inside term", []byte{TagVersion, TagNil}, errors.ErrUnknownTag},
		{"short integer", []byte{TagInteger, 0, 0}, errors.ErrTruncated},
		{"short atom", []byte{TagAtom, 0, 9, 'a'}, errors.ErrTruncated},
		{"short string length", []byte{TagString, 0}, errors.ErrTruncated},
		{"tuple missing children", []byte{TagSmallTuple, 2, TagNil}, errors.ErrTruncated},
		{"list missing tail", []byte{TagList, 0, 0, 0, 1, TagNil}, errors.ErrTruncated},
		{"arity beyond input", []byte{TagLargeTuple, 0xff, 0xff, 0xff, 0xff, TagNil}, errors.ErrTooLarge},
		{"count beyond input", []byte{TagList, 0, 0, 0x10, 0, TagNil}, errors.ErrTruncated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeBytes(tt.data, newNodeBuilder())
			if err == nil {
				t.Fatal("expected error")
			}
			if !stderrors.Is(err, tt.target) {
				t.Errorf("got %v, want %v", err, tt.target)
			}
		})
	}
}

func TestDecode_EveryTruncationFails(t *testing.T) {
	full := []byte{
		TagSmallTuple, 3,
		TagSmallAtom, 5, 'r', 'e', 'p', 'l', 'y',
		TagList, 0, 0, 0, 2, TagInteger, 0, 0, 1, 0, TagString, 0, 1, 'a', TagNil,
		TagBinary, 0, 0, 0, 2, 1, 2,
	}
	if _, err := DecodeBytes(full, newNodeBuilder()); err != nil {
		t.Fatalf("full input failed: %v", err)
	}
	for i := 0; i < len(full); i++ {
		_, err := DecodeBytes(full[:i], newNodeBuilder())
		if err == nil {
			t.Errorf("prefix of %d bytes decoded without error", i)
		}
	}
}

func TestDecode_TrailingBytes(t *testing.T) {
	_, err := DecodeBytes([]byte{TagNil, TagNil}, newNodeBuilder())
	if err == nil {
		t.Fatal("expected error for trailing bytes")
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindInvalidData || e.Offset != 1 {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDecode_SourceLeavesTrailingBytes(t *testing.T) {
	src := NewBytesSource([]byte{TagSmallInteger, 1, TagSmallInteger, 2})
	b := newNodeBuilder()
	first, err := Decode(src, b)
	if err != nil {
		t.Fatalf("first Decode failed: %v", err)
	}
	second, err := Decode(src, b)
	if err != nil {
		t.Fatalf("second Decode failed: %v", err)
	}
	if first.n != 1 || second.n != 2 {
		t.Errorf("got %d, %d", first.n, second.n)
	}
	if src.Len() != 0 {
		t.Errorf("Len = %d, want 0", src.Len())
	}
}

func nestedTuples(depth int) []byte {
	var data []byte
	for i := 0; i < depth; i++ {
		data = append(data, TagSmallTuple, 1)
	}
	return append(data, TagNil)
}

func TestDecode_MaxDepth(t *testing.T) {
	if _, err := DecodeBytes(nestedTuples(5), newNodeBuilder(), WithMaxDepth(5)); err != nil {
		t.Fatalf("depth 5 with limit 5 failed: %v", err)
	}
	_, err := DecodeBytes(nestedTuples(6), newNodeBuilder(), WithMaxDepth(5))
	if !stderrors.Is(err, errors.ErrTooDeep) {
		t.Fatalf("expected too deep error, got %v", err)
	}

	// Improper list chains nest through the tail.
	var chain []byte
	for i := 0; i < 4; i++ {
		chain = append(chain, TagList, 0, 0, 0, 1, TagNil)
	}
	chain = append(chain, TagNil)
	_, err = DecodeBytes(chain, newNodeBuilder(), WithMaxDepth(3))
	if !stderrors.Is(err, errors.ErrTooDeep) {
		t.Fatalf("expected too deep error for list chain, got %v", err)
	}
}

func TestDecode_DefaultDepthStopsHostileInput(t *testing.T) {
	_, err := DecodeBytes(nestedTuples(100000), newNodeBuilder())
	if !stderrors.Is(err, errors.ErrTooDeep) {
		t.Fatalf("expected too deep error, got %v", err)
	}
}

func TestDecode_MaxElements(t *testing.T) {
	data := []byte{TagSmallTuple, 3, TagNil, TagNil, TagNil}
	_, err := DecodeBytes(data, newNodeBuilder(), WithMaxElements(2))
	if !stderrors.Is(err, errors.ErrTooLarge) {
		t.Fatalf("expected too large error, got %v", err)
	}
}

func TestDecode_BuilderErrorPropagates(t *testing.T) {
	cause := stderrors.New("atom table full")
	b := newNodeBuilder()
	b.failOn = "atom"
	b.failErr = cause

	data := []byte{TagSmallTuple, 2, TagSmallInteger, 1, TagSmallAtom, 1, 'a'}
	_, err := DecodeBytes(data, b)
	if !stderrors.Is(err, cause) {
		t.Fatalf("expected builder cause, got %v", err)
	}
	var e *errors.Error
	if !stderrors.As(err, &e) || e.Kind != errors.KindBuilder || e.Offset != 4 {
		t.Errorf("unexpected error: %v", err)
	}
	for _, c := range b.calls {
		if c == "tuple" {
			t.Error("parent constructor ran after child failure")
		}
	}
}

func TestDecode_ReaderSource(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789"), 1000) // larger than the bufio buffer
	var data []byte
	data = append(data, TagSmallTuple, 3)
	data = append(data, TagBinary, 0, 0, 0x27, 0x10)
	data = append(data, payload...)
	data = append(data, TagSmallAtom, 2, 'o', 'k')
	data = append(data, TagList, 0, 0, 0, 1, TagSmallInteger, 9, TagNil)

	src := NewReaderSource(iotest.OneByteReader(bytes.NewReader(data)))
	v, err := Decode(src, newNodeBuilder())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if v.elems[0].data != string(payload) {
		t.Error("binary payload mismatch")
	}
	if v.elems[1].data != "ok" || v.elems[2].String() != "[9]" {
		t.Errorf("got %s", v)
	}
	if src.Offset() != len(data) {
		t.Errorf("Offset = %d, want %d", src.Offset(), len(data))
	}
}

func TestDecode_ReaderSourceTruncated(t *testing.T) {
	data := append([]byte{TagBinary, 0, 1, 0, 0}, bytes.Repeat([]byte{1}, 100)...)
	b := newNodeBuilder()
	_, err := Decode(NewReaderSource(bytes.NewReader(data)), b)
	if !stderrors.Is(err, errors.ErrTruncated) {
		t.Fatalf("expected truncated error, got %v", err)
	}
	if len(b.calls) != 0 {
		t.Errorf("constructors invoked: %v", b.calls)
	}
}

func TestBytesSource(t *testing.T) {
	s := NewBytesSource([]byte{1, 2, 3, 4})
	b, err := s.ReadByte()
	if err != nil || b != 1 {
		t.Fatalf("ReadByte = %d, %v", b, err)
	}
	view, err := s.Peek(2)
	if err != nil || !bytes.Equal(view, []byte{2, 3}) {
		t.Fatalf("Peek = %v, %v", view, err)
	}
	if s.Offset() != 1 {
		t.Errorf("Peek moved the cursor to %d", s.Offset())
	}
	if err := s.Advance(2); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	if _, err := s.Peek(2); !stderrors.Is(err, errors.ErrTruncated) {
		t.Errorf("Peek past end: %v", err)
	}
	if err := s.Advance(2); !stderrors.Is(err, errors.ErrTruncated) {
		t.Errorf("Advance past end: %v", err)
	}
	if _, err := s.Peek(-1); err == nil {
		t.Error("negative Peek accepted")
	}
	if s.Len() != 1 {
		t.Errorf("Len = %d, want 1", s.Len())
	}
}

func TestReaderSource_PeekAcrossReadAhead(t *testing.T) {
	data := bytes.Repeat([]byte{7}, 10000)
	data[0] = 1
	s := NewReaderSource(bytes.NewReader(data))
	view, err := s.Peek(9000)
	if err != nil || len(view) != 9000 || view[0] != 1 {
		t.Fatalf("Peek = %d bytes, %v", len(view), err)
	}
	b, err := s.ReadByte()
	if err != nil || b != 1 {
		t.Fatalf("ReadByte = %d, %v", b, err)
	}
	if err := s.Advance(9998); err != nil {
		t.Fatalf("Advance failed: %v", err)
	}
	b, err = s.ReadByte()
	if err != nil || b != 7 {
		t.Fatalf("last ReadByte = %d, %v", b, err)
	}
	if _, err := s.ReadByte(); !stderrors.Is(err, errors.ErrTruncated) {
		t.Errorf("ReadByte at EOF: %v", err)
	}
	if s.Offset() != 10000 {
		t.Errorf("Offset = %d, want 10000", s.Offset())
	}
}
