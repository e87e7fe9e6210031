package wire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"matrixchat/internal/domain"
)

// Control tokens, one per line.
const (
	KeyExchange = "KEYEXCHANGE"
	Continue    = "CONTINUE"
	KeyDone     = "KEYDONE"
	Closed      = "CLOSED"
	OK          = "OK"
	No          = "NO"
	End         = "END"
)

// Connection roles, sent as the first line of every connection.
const (
	RoleJoin     = "JOIN"
	RoleExchange = "EXCHANGE"
)

// ErrFraming is returned when a line does not have the expected shape.
var ErrFraming = errors.New("protocol framing error")

// maxLine bounds a single line; chat lines are far shorter.
const maxLine = 64 << 10

// Reader reads newline-delimited protocol lines.
type Reader struct {
	br *bufio.Reader
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReader(r)}
}

// ReadLine returns the next line without its terminator. A final line
// without a terminator is returned as-is; io.EOF is returned only when no
// bytes remain.
func (r *Reader) ReadLine() (string, error) {
	var sb strings.Builder
	for {
		chunk, isPrefix, err := r.br.ReadLine()
		if err != nil {
			return "", err
		}
		sb.Write(chunk)
		if sb.Len() > maxLine {
			return "", fmt.Errorf("%w: line exceeds %d bytes", ErrFraming, maxLine)
		}
		if !isPrefix {
			return sb.String(), nil
		}
	}
}

// ReadInt reads one line holding a base-10 integer.
func (r *Reader) ReadInt() (int64, error) {
	line, err := r.ReadLine()
	if err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(strings.TrimSpace(line), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrFraming, line)
	}
	return n, nil
}

// ReadPair reads a value line followed by a modulus line.
func (r *Reader) ReadPair() (domain.RunningValue, error) {
	v, err := r.ReadInt()
	if err != nil {
		return domain.RunningValue{}, err
	}
	m, err := r.ReadInt()
	if err != nil {
		return domain.RunningValue{}, err
	}
	return domain.RunningValue{Value: v, Modulus: m}, nil
}

// ReadToken reads one line and checks it is one of want.
func (r *Reader) ReadToken(want ...string) (string, error) {
	line, err := r.ReadLine()
	if err != nil {
		return "", err
	}
	for _, w := range want {
		if line == w {
			return line, nil
		}
	}
	return "", fmt.Errorf("%w: unexpected %q, want one of %v", ErrFraming, line, want)
}

// Writer writes newline-delimited protocol lines. A group of lines passed
// to one call is never interleaved with another caller's lines.
type Writer struct {
	mu sync.Mutex
	bw *bufio.Writer
}

// NewWriter wraps w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriter(w)}
}

// WriteLines writes each line followed by a newline, then flushes.
func (w *Writer) WriteLines(lines ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, l := range lines {
		if strings.ContainsAny(l, "\r\n") {
			return fmt.Errorf("%w: embedded newline", ErrFraming)
		}
		if _, err := w.bw.WriteString(l); err != nil {
			return err
		}
		if err := w.bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return w.bw.Flush()
}

// WritePair writes v as a value line and a modulus line.
func (w *Writer) WritePair(v domain.RunningValue) error {
	return w.WriteLines(pairLines(v)...)
}

// WritePairToken writes v followed by a control token.
func (w *Writer) WritePairToken(v domain.RunningValue, token string) error {
	return w.WriteLines(append(pairLines(v), token)...)
}

func pairLines(v domain.RunningValue) []string {
	return []string{
		strconv.FormatInt(v.Value, 10),
		strconv.FormatInt(v.Modulus, 10),
	}
}

// ExchangeHello is the preamble of an exchange connection: role, name and
// matrix cell index.
func ExchangeHello(name domain.Username, cell int) []string {
	return []string{RoleExchange, name.String(), strconv.Itoa(cell)}
}

// ReadExchangeHello reads the name and cell lines that follow RoleExchange.
func (r *Reader) ReadExchangeHello() (domain.Username, int, error) {
	name, err := r.ReadLine()
	if err != nil {
		return "", 0, err
	}
	cell, err := r.ReadInt()
	if err != nil {
		return "", 0, err
	}
	if cell < 0 || cell >= domain.CellCount {
		return "", 0, fmt.Errorf("%w: cell %d out of range", ErrFraming, cell)
	}
	return domain.Username(name), int(cell), nil
}
