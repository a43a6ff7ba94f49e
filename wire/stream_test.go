package wire

import (
	"bytes"
	"io"
	"testing"
)

type chunkReader struct {
	data  []byte
	chunk int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := r.chunk
	if n > len(r.data) || n <= 0 {
		n = len(r.data)
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, r.data[:n])
	r.data = r.data[n:]
	return n, nil
}

func TestStreamRoundTrip(t *testing.T) {
	var out bytes.Buffer
	s := NewStream(&chunkReader{}, &out, nil, nil)

	type msg struct {
		Method string `json:"method"`
	}
	if err := s.WriteObject(msg{Method: "textDocument/hover"}); err != nil {
		t.Fatal(err)
	}

	in := NewStream(&chunkReader{data: out.Bytes(), chunk: 7}, io.Discard, nil, nil)
	var got msg
	if err := in.ReadObject(&got); err != nil {
		t.Fatal(err)
	}
	if got.Method != "textDocument/hover" {
		t.Fatalf("method should be %q but got: %q", "textDocument/hover", got.Method)
	}
}

func TestStreamReadEOF(t *testing.T) {
	s := NewStream(&chunkReader{}, io.Discard, nil, nil)
	var v interface{}
	if err := s.ReadObject(&v); err != io.EOF {
		t.Fatalf("err should be io.EOF but got: %v", err)
	}
}

func TestStreamMultipleObjects(t *testing.T) {
	var out bytes.Buffer
	w := NewStream(&chunkReader{}, &out, nil, nil)
	type msg struct {
		N int `json:"n"`
	}
	for i := 1; i <= 3; i++ {
		if err := w.WriteObject(msg{N: i}); err != nil {
			t.Fatal(err)
		}
	}
	r := NewStream(&chunkReader{data: out.Bytes(), chunk: 3}, io.Discard, nil, nil)
	for i := 1; i <= 3; i++ {
		var got msg
		if err := r.ReadObject(&got); err != nil {
			t.Fatal(err)
		}
		if got.N != i {
			t.Fatalf("object %d should have n=%d but got: %d", i, i, got.N)
		}
	}
}
