package wire

import (
	"fmt"
	"testing"
)

func frame(body string) string {
	return fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body)
}

func TestFramerSingleFrame(t *testing.T) {
	f := NewFramer()
	f.Append([]byte(frame(`{"a":1}`)))
	body, err := f.Next()
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != `{"a":1}` {
		t.Fatalf("body should be %q but got: %q", `{"a":1}`, string(body))
	}
	body, err = f.Next()
	if err != nil || body != nil {
		t.Fatalf("should be no more frames, got %q, %v", string(body), err)
	}
}

func TestFramerPartialHeader(t *testing.T) {
	f := NewFramer()
	full := frame(`{"a":1}`)
	f.Append([]byte(full[:10]))
	if body, _ := f.Next(); body != nil {
		t.Fatalf("partial header should yield no frame, got %q", string(body))
	}
	f.Append([]byte(full[10:]))
	body, err := f.Next()
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != `{"a":1}` {
		t.Fatalf("body should be %q but got: %q", `{"a":1}`, string(body))
	}
}

func TestFramerPartialBody(t *testing.T) {
	f := NewFramer()
	full := frame(`{"hello":"world"}`)
	cut := len(full) - 5
	f.Append([]byte(full[:cut]))
	if body, _ := f.Next(); body != nil {
		t.Fatalf("partial body should yield no frame, got %q", string(body))
	}
	f.Append([]byte(full[cut:]))
	body, err := f.Next()
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != `{"hello":"world"}` {
		t.Fatalf("unexpected body: %q", string(body))
	}
}

func TestFramerMultipleFramesInOneRead(t *testing.T) {
	f := NewFramer()
	f.Append([]byte(frame(`{"n":1}`) + frame(`{"n":2}`) + frame(`{"n":3}`)))
	for i := 1; i <= 3; i++ {
		body, err := f.Next()
		if err != nil {
			t.Fatal(err)
		}
		want := fmt.Sprintf(`{"n":%d}`, i)
		if string(body) != want {
			t.Fatalf("frame %d should be %q but got: %q", i, want, string(body))
		}
	}
	if body, _ := f.Next(); body != nil {
		t.Fatalf("should be exhausted, got %q", string(body))
	}
}

func TestFramerExtraHeadersIgnored(t *testing.T) {
	f := NewFramer()
	body := `{"a":1}`
	f.Append([]byte(fmt.Sprintf("Content-Type: application/vscode-jsonrpc; charset=utf-8\r\nContent-Length: %d\r\n\r\n%s", len(body), body)))
	got, err := f.Next()
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != body {
		t.Fatalf("unexpected body: %q", string(got))
	}
}

func TestFramerResyncAfterMissingLength(t *testing.T) {
	var diags []error
	f := NewFramer()
	f.Diag = func(err error) { diags = append(diags, err) }

	f.Append([]byte("X-Garbage: yes\r\n\r\n"))
	f.Append([]byte(frame(`{"ok":true}`)))

	body, err := f.Next()
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != `{"ok":true}` {
		t.Fatalf("should resync onto next frame, got %q", string(body))
	}
	if len(diags) == 0 {
		t.Fatal("missing Content-Length should emit a diagnostic")
	}
}

func TestFramerResyncInvalidLength(t *testing.T) {
	f := NewFramer()
	var diags int
	f.Diag = func(error) { diags++ }
	f.Append([]byte("Content-Length: banana\r\n\r\n"))
	f.Append([]byte(frame(`{"ok":1}`)))
	body, err := f.Next()
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != `{"ok":1}` {
		t.Fatalf("unexpected body: %q", string(body))
	}
	if diags != 1 {
		t.Fatalf("diagnostics should be 1 but got: %d", diags)
	}
}

func TestFramerResyncBudgetDiscardsBuffer(t *testing.T) {
	f := NewFramer()
	f.MaxResync = 2
	garbage := ""
	for i := 0; i < 5; i++ {
		garbage += "Content-Length: bad\r\n\r\n"
	}
	f.Append([]byte(garbage))
	if body, _ := f.Next(); body != nil {
		t.Fatalf("garbage should not produce a frame, got %q", string(body))
	}
	if f.Buffered() != 0 {
		t.Fatalf("buffer should be discarded after resync budget, still holds %d bytes", f.Buffered())
	}
}

func TestFramerOversizedHeaderDiscards(t *testing.T) {
	f := NewFramer()
	f.MaxHeaderBytes = 64
	var diags int
	f.Diag = func(error) { diags++ }
	big := make([]byte, 200)
	for i := range big {
		big[i] = 'x'
	}
	f.Append(big)
	if body, _ := f.Next(); body != nil {
		t.Fatal("oversized header block should not produce a frame")
	}
	if diags == 0 {
		t.Fatal("oversized header should emit a diagnostic")
	}
	f.Append([]byte(frame(`{"ok":1}`)))
	body, err := f.Next()
	if err != nil {
		t.Fatal(err)
	}
	if string(body) != `{"ok":1}` {
		t.Fatalf("framer should recover after oversized header, got %q", string(body))
	}
}

func TestFramerOversizedBodyFailsHard(t *testing.T) {
	f := NewFramer()
	f.MaxBodyBytes = 16
	f.Append([]byte("Content-Length: 1024\r\n\r\n"))
	if _, err := f.Next(); err != ErrBodyTooLarge {
		t.Fatalf("err should be ErrBodyTooLarge but got: %v", err)
	}
	// The framer stays dead afterwards.
	f.Append([]byte(frame(`{"ok":1}`)))
	if _, err := f.Next(); err != ErrBodyTooLarge {
		t.Fatalf("framer should stay failed, got: %v", err)
	}
}

func TestFramerGrowByDoubling(t *testing.T) {
	f := NewFramer()
	body := make([]byte, 100*1024)
	for i := range body {
		body[i] = 'a'
	}
	msg := fmt.Sprintf("Content-Length: %d\r\n\r\n%s", len(body), body)
	// Feed one byte at a time to exercise growth and partial states.
	for i := 0; i < len(msg); i += 4096 {
		end := i + 4096
		if end > len(msg) {
			end = len(msg)
		}
		f.Append([]byte(msg[i:end]))
	}
	got, err := f.Next()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(body) {
		t.Fatalf("body length should be %d but got: %d", len(body), len(got))
	}
}
