// Package framing implements the length-prefixed wire format shared by the
// FreeCAD host and its clients: a 4-byte big-endian length followed by that
// many bytes of UTF-8 JSON.
package framing

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

const (
	// HeaderSize is the length of the big-endian uint32 prefix.
	HeaderSize = 4
	// MaxMessageSize bounds a single frame body in either direction.
	MaxMessageSize = 50 * 1024
)

var (
	// ErrMessageTooLarge is matched by every *TooLargeError.
	ErrMessageTooLarge = errors.New("message too large")
	// ErrConnectionClosed reports a peer that hung up mid-frame.
	ErrConnectionClosed = errors.New("connection closed")
	// ErrInvalidUTF8 reports a frame body that is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("frame body is not valid UTF-8")
)

// TooLargeError carries the announced or attempted frame size.
type TooLargeError struct {
	Size uint64
}

func (e *TooLargeError) Error() string {
	return fmt.Sprintf("message too large: %d bytes (limit %d)", e.Size, MaxMessageSize)
}

func (e *TooLargeError) Is(target error) bool {
	return target == ErrMessageTooLarge
}

// Encode prepends the length header to payload.
func Encode(payload []byte) ([]byte, error) {
	if len(payload) > MaxMessageSize {
		return nil, &TooLargeError{Size: uint64(len(payload))}
	}
	frame := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint32(frame[:HeaderSize], uint32(len(payload)))
	copy(frame[HeaderSize:], payload)
	return frame, nil
}

// Decode reads exactly one frame from r. The announced length is checked
// against MaxMessageSize before any body byte is read.
func Decode(r io.Reader) ([]byte, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, closedOr("read length", err)
	}

	n := binary.BigEndian.Uint32(header[:])
	if n > MaxMessageSize {
		return nil, &TooLargeError{Size: uint64(n)}
	}
	if n == 0 {
		return []byte{}, nil
	}

	body := make([]byte, n)
	if got, err := io.ReadFull(r, body); err != nil {
		return nil, closedOr(fmt.Sprintf("read body (got %d of %d bytes)", got, n), err)
	}
	return body, nil
}

// Write encodes payload and writes the whole frame with one call.
func Write(w io.Writer, payload []byte) error {
	frame, err := Encode(payload)
	if err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// WriteMessage marshals v as JSON and writes it as one frame.
func WriteMessage(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	return Write(w, data)
}

// ReadMessage decodes one frame and unmarshals its JSON body into v.
func ReadMessage(r io.Reader, v any) error {
	body, err := Decode(r)
	if err != nil {
		return err
	}
	if !utf8.Valid(body) {
		return ErrInvalidUTF8
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("unmarshal frame: %w", err)
	}
	return nil
}

func closedOr(op string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%s: %w", op, ErrConnectionClosed)
	}
	return fmt.Errorf("%s: %w", op, err)
}
