package wire

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Stream adapts a Framer plus a raw byte channel into a
// jsonrpc2.ObjectStream. Writes are serialized; reads are driven by a single
// reader loop inside the jsonrpc2 connection.
type Stream struct {
	r io.Reader
	w io.Writer
	c io.Closer

	framer *Framer
	rbuf   []byte

	wmu sync.Mutex
}

// NewStream creates a stream over the given reader/writer pair. closer may
// be nil.
func NewStream(r io.Reader, w io.Writer, c io.Closer, diag func(error)) *Stream {
	f := NewFramer()
	f.Diag = diag
	return &Stream{
		r:      r,
		w:      w,
		c:      c,
		framer: f,
		rbuf:   make([]byte, 32*1024),
	}
}

// ReadObject reads the next framed JSON object into v.
func (s *Stream) ReadObject(v interface{}) error {
	for {
		body, err := s.framer.Next()
		if err != nil {
			return err
		}
		if body != nil {
			return json.Unmarshal(body, v)
		}
		n, err := s.r.Read(s.rbuf)
		if n > 0 {
			s.framer.Append(s.rbuf[:n])
			continue
		}
		if err != nil {
			return err
		}
	}
}

// WriteObject writes obj as one framed JSON object.
func (s *Stream) WriteObject(obj interface{}) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("wire: marshal object: %w", err)
	}
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if _, err := fmt.Fprintf(s.w, "Content-Length: %d\r\n\r\n", len(data)); err != nil {
		return fmt.Errorf("wire: write header: %w", err)
	}
	if _, err := s.w.Write(data); err != nil {
		return fmt.Errorf("wire: write body: %w", err)
	}
	return nil
}

// Close closes the underlying channel.
func (s *Stream) Close() error {
	if s.c == nil {
		return nil
	}
	return s.c.Close()
}
