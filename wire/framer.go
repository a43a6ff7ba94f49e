package wire

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultMaxHeaderBytes is
const (
	DefaultMaxHeaderBytes = 16 * 1024
	DefaultMaxBodyBytes   = 128 * 1024 * 1024
	DefaultMaxResync      = 8
)

// ErrBodyTooLarge is returned when a frame declares a body larger than the
// hard cap. This is a protocol violation, not a transient condition; the
// framer refuses further input once it occurs.
var ErrBodyTooLarge = errors.New("wire: frame body exceeds maximum size")

var headerSep = []byte("\r\n\r\n")
var lengthToken = []byte("Content-Length")

// Framer extracts base-protocol frames ("Content-Length: n\r\n...\r\n\r\n"
// followed by n body bytes) from an append-only byte buffer. It performs no
// I/O itself, so any byte source can drive it.
type Framer struct {
	// MaxHeaderBytes caps the header block; beyond it the framer resyncs.
	MaxHeaderBytes int
	// MaxBodyBytes caps a declared body length; beyond it Next fails hard.
	MaxBodyBytes int
	// MaxResync bounds consecutive resynchronization attempts before the
	// whole buffer is discarded.
	MaxResync int
	// Diag, when set, receives a diagnostic for every malformed header.
	Diag func(err error)

	buf     []byte
	resyncs int
	dead    error
}

// NewFramer returns a framer with default limits.
func NewFramer() *Framer {
	return &Framer{
		MaxHeaderBytes: DefaultMaxHeaderBytes,
		MaxBodyBytes:   DefaultMaxBodyBytes,
		MaxResync:      DefaultMaxResync,
	}
}

// Append adds raw bytes to the framer's buffer, growing it by doubling.
func (f *Framer) Append(p []byte) {
	if len(p) == 0 {
		return
	}
	need := len(f.buf) + len(p)
	if need > cap(f.buf) {
		newCap := cap(f.buf)
		if newCap == 0 {
			newCap = 4096
		}
		for newCap < need {
			newCap *= 2
		}
		nb := make([]byte, len(f.buf), newCap)
		copy(nb, f.buf)
		f.buf = nb
	}
	f.buf = append(f.buf, p...)
}

// Buffered reports how many unconsumed bytes the framer holds.
func (f *Framer) Buffered() int {
	return len(f.buf)
}

// Next extracts the next complete frame body. It returns (nil, nil) when the
// buffer does not yet hold a complete frame. Callers loop until nil since a
// single Append may complete several frames.
func (f *Framer) Next() ([]byte, error) {
	if f.dead != nil {
		return nil, f.dead
	}
	for {
		sep := bytes.Index(f.buf, headerSep)
		if sep < 0 {
			if len(f.buf) > f.MaxHeaderBytes {
				f.diag(fmt.Errorf("wire: header block exceeds %d bytes", f.MaxHeaderBytes))
				if !f.resync(1) {
					return nil, nil
				}
				continue
			}
			return nil, nil
		}
		if sep > f.MaxHeaderBytes {
			f.diag(fmt.Errorf("wire: header block exceeds %d bytes", f.MaxHeaderBytes))
			if !f.resync(sep + len(headerSep)) {
				return nil, nil
			}
			continue
		}
		length, err := parseContentLength(f.buf[:sep])
		if err != nil {
			f.diag(err)
			if !f.resync(1) {
				return nil, nil
			}
			continue
		}
		if length > f.MaxBodyBytes {
			f.dead = ErrBodyTooLarge
			f.buf = nil
			return nil, f.dead
		}
		total := sep + len(headerSep) + length
		if len(f.buf) < total {
			return nil, nil
		}
		body := make([]byte, length)
		copy(body, f.buf[sep+len(headerSep):total])
		f.consume(total)
		f.resyncs = 0
		return body, nil
	}
}

// resync skips at least min bytes and scans forward for the next plausible
// header token. Returns false when no progress can be made yet or the
// attempt budget is exhausted (in which case the buffer is discarded).
func (f *Framer) resync(min int) bool {
	f.resyncs++
	if f.resyncs > f.MaxResync {
		f.buf = f.buf[:0]
		f.resyncs = 0
		return false
	}
	if min > len(f.buf) {
		min = len(f.buf)
	}
	idx := bytes.Index(f.buf[min:], lengthToken)
	if idx < 0 {
		// Keep a tail that could be a partial token prefix.
		keep := len(lengthToken) - 1
		if keep > len(f.buf) {
			keep = len(f.buf)
		}
		f.consume(len(f.buf) - keep)
		return false
	}
	f.consume(min + idx)
	return true
}

func (f *Framer) consume(n int) {
	f.buf = f.buf[:copy(f.buf, f.buf[n:])]
}

func (f *Framer) diag(err error) {
	if f.Diag != nil {
		f.Diag(err)
	}
}

func parseContentLength(header []byte) (int, error) {
	for _, line := range strings.Split(string(header), "\r\n") {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if !strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("wire: invalid Content-Length %q", strings.TrimSpace(value))
		}
		return n, nil
	}
	return 0, errors.New("wire: missing Content-Length header")
}
