package wire

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// maxLineSize bounds one JSON line. Compile instructions carry whole ink
// files, so the default bufio token size (64KiB) is too small.
const maxLineSize = 16 << 20

// Encoder writes messages as JSON lines.
//
// Thread-safety: Encode is safe for concurrent use; lines never interleave.
type Encoder struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewEncoder creates an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return &Encoder{enc: enc}
}

// Encode writes v followed by a newline.
func (e *Encoder) Encode(v any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enc.Encode(v); err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	return nil
}

// Decoder reads JSON-line messages.
type Decoder struct {
	sc   *bufio.Scanner
	line int
}

// NewDecoder creates a decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Decoder{sc: sc}
}

// DecodeError reports a malformed line. Decoding can continue after it.
type DecodeError struct {
	Line int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// next returns the next non-blank line, or io.EOF.
func (d *Decoder) next() ([]byte, error) {
	for d.sc.Scan() {
		d.line++
		b := d.sc.Bytes()
		if len(trimSpace(b)) == 0 {
			continue
		}
		return b, nil
	}
	if err := d.sc.Err(); err != nil {
		return nil, fmt.Errorf("read message: %w", err)
	}
	return nil, io.EOF
}

// DecodeInbound reads the next inbound message.
// Returns io.EOF at end of stream and *DecodeError for a malformed line.
func (d *Decoder) DecodeInbound() (Inbound, error) {
	b, err := d.next()
	if err != nil {
		return Inbound{}, err
	}
	var m Inbound
	if err := json.Unmarshal(b, &m); err != nil {
		return Inbound{}, &DecodeError{Line: d.line, Err: err}
	}
	if m.Kind == "" {
		return Inbound{}, &DecodeError{Line: d.line, Err: fmt.Errorf("missing kind")}
	}
	return m, nil
}

// DecodeOutbound reads the next outbound message. Used by supervisors
// written in Go and by tests.
func (d *Decoder) DecodeOutbound() (Outbound, error) {
	b, err := d.next()
	if err != nil {
		return Outbound{}, err
	}
	var m Outbound
	if err := json.Unmarshal(b, &m); err != nil {
		return Outbound{}, &DecodeError{Line: d.line, Err: err}
	}
	if m.Kind == "" {
		return Outbound{}, &DecodeError{Line: d.line, Err: fmt.Errorf("missing kind")}
	}
	return m, nil
}

func trimSpace(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t' || b[0] == '\r') {
		b = b[1:]
	}
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
