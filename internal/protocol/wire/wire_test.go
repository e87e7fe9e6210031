package wire_test

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/codahale/gubbins/assert"

	"matrixchat/internal/domain"
	"matrixchat/internal/protocol/wire"
)

func TestPairToken_RoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := wire.NewWriter(&buf)
	if err := w.WritePairToken(domain.RunningValue{Value: 8, Modulus: 23}, wire.Continue); err != nil {
		t.Fatalf("WritePairToken: %v", err)
	}
	assert.Equal(t, "encoded", "8\n23\nCONTINUE\n", buf.String())

	r := wire.NewReader(&buf)
	v, err := r.ReadPair()
	if err != nil {
		t.Fatalf("ReadPair: %v", err)
	}
	assert.Equal(t, "pair", domain.RunningValue{Value: 8, Modulus: 23}, v)

	tok, err := r.ReadToken(wire.Continue, wire.KeyDone)
	if err != nil {
		t.Fatalf("ReadToken: %v", err)
	}
	assert.Equal(t, "token", wire.Continue, tok)

	if _, err := r.ReadLine(); !errors.Is(err, io.EOF) {
		t.Fatalf("want EOF, got %v", err)
	}
}

func TestReadInt_Framing(t *testing.T) {
	t.Parallel()

	r := wire.NewReader(strings.NewReader("twelve\n"))
	if _, err := r.ReadInt(); !errors.Is(err, wire.ErrFraming) {
		t.Fatalf("want ErrFraming, got %v", err)
	}
}

func TestReadToken_Unexpected(t *testing.T) {
	t.Parallel()

	r := wire.NewReader(strings.NewReader("MAYBE\n"))
	if _, err := r.ReadToken(wire.OK, wire.No); !errors.Is(err, wire.ErrFraming) {
		t.Fatalf("want ErrFraming, got %v", err)
	}
}

func TestReadLine_CRLFAndUnicode(t *testing.T) {
	t.Parallel()

	r := wire.NewReader(strings.NewReader("hi\r\n\u007f\u0080x\n"))
	first, err := r.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	assert.Equal(t, "first line", "hi", first)

	second, err := r.ReadLine()
	if err != nil {
		t.Fatalf("ReadLine: %v", err)
	}
	assert.Equal(t, "second line", "\u007f\u0080x", second)
}

func TestWriteLines_RejectsEmbeddedNewline(t *testing.T) {
	t.Parallel()

	w := wire.NewWriter(io.Discard)
	if err := w.WriteLines("a\nb"); !errors.Is(err, wire.ErrFraming) {
		t.Fatalf("want ErrFraming, got %v", err)
	}
}

func TestExchangeHello(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := wire.NewWriter(&buf).WriteLines(wire.ExchangeHello("alice", 4)...); err != nil {
		t.Fatalf("WriteLines: %v", err)
	}

	r := wire.NewReader(&buf)
	if _, err := r.ReadToken(wire.RoleExchange); err != nil {
		t.Fatalf("ReadToken: %v", err)
	}
	name, cell, err := r.ReadExchangeHello()
	if err != nil {
		t.Fatalf("ReadExchangeHello: %v", err)
	}
	assert.Equal(t, "name", domain.Username("alice"), name)
	assert.Equal(t, "cell", 4, cell)

	bad := wire.NewReader(strings.NewReader("bob\n9\n"))
	if _, _, err := bad.ReadExchangeHello(); !errors.Is(err, wire.ErrFraming) {
		t.Fatalf("want ErrFraming for cell 9, got %v", err)
	}
}
