// Package frame splits a raw response body into lines without reading past
// the line being returned.
package frame

import (
	"errors"
	"io"
)

// maxEmptyReads bounds consecutive (0, nil) reads before giving up.
const maxEmptyReads = 100

// Reader returns one line at a time from an io.Reader.
//
// It pulls a single byte per underlying read, so no bytes past the current
// newline are ever consumed from the source. When the source implements
// io.ByteReader that is used directly.
type Reader struct {
	src   io.Reader
	bytes io.ByteReader
	one   [1]byte
	line  []byte
	err   error
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	reader := &Reader{src: r}
	if br, ok := r.(io.ByteReader); ok {
		reader.bytes = br
	}
	return reader
}

// ReadLine returns the next line including its trailing "\n".
// A final line with no newline is returned with a nil error; the call after
// it returns ("", io.EOF). Read errors other than EOF are returned as-is and
// discard the partial line.
func (r *Reader) ReadLine() (string, error) {
	if r.err != nil {
		return "", r.err
	}

	r.line = r.line[:0]
	for {
		b, err := r.readByte()
		if err != nil {
			r.err = err
			if errors.Is(err, io.EOF) && len(r.line) > 0 {
				return string(r.line), nil
			}
			return "", err
		}

		r.line = append(r.line, b)
		if b == '\n' {
			return string(r.line), nil
		}
	}
}

func (r *Reader) readByte() (byte, error) {
	if r.bytes != nil {
		return r.bytes.ReadByte()
	}

	for empty := 0; empty < maxEmptyReads; empty++ {
		n, err := r.src.Read(r.one[:])
		if n == 1 {
			return r.one[0], nil
		}
		if err != nil {
			return 0, err
		}
	}
	return 0, io.ErrNoProgress
}
