package langserver

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/sourcegraph/jsonrpc2"
)

func TestDidChangeConfigurationMergesSettings(t *testing.T) {
	h := newTestHandler(t)

	raw := json.RawMessage(`{"settings":{"formatting":{"indentSize":2},"diagnostics":true}}`)
	req := &jsonrpc2.Request{Method: "workspace/didChangeConfiguration", Notif: true, Params: &raw}
	if err := h.handleWorkspaceDidChangeConfiguration(context.Background(), req); err != nil {
		t.Fatal(err)
	}

	if _, ok := h.settingFor("formatting"); !ok {
		t.Fatal("formatting section not stored")
	}
	v, ok := h.settingFor("diagnostics")
	if !ok {
		t.Fatal("diagnostics section not stored")
	}
	if v != true {
		t.Fatalf("diagnostics = %v, want true", v)
	}
}

func TestConfigurationPullDuringSettingsPush(t *testing.T) {
	h := newTestHandler(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for n := 0; n < 100; n++ {
				raw := json.RawMessage(fmt.Sprintf(`{"settings":{"section%d":%d}}`, w, n))
				req := &jsonrpc2.Request{Method: "workspace/didChangeConfiguration", Notif: true, Params: &raw}
				if err := h.handleWorkspaceDidChangeConfiguration(ctx, req); err != nil {
					t.Error(err)
					return
				}
			}
		}(w)
	}
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			raw := json.RawMessage(fmt.Sprintf(`{"items":[{"section":"section%d"},{"section":"missing"}]}`, w))
			for n := 0; n < 100; n++ {
				result, err := h.answerConfiguration(ctx, &raw)
				if err != nil {
					t.Error(err)
					return
				}
				values, ok := result.([]interface{})
				if !ok || len(values) != 2 {
					t.Errorf("unexpected configuration answer: %v", result)
					return
				}
			}
		}(w)
	}
	wg.Wait()

	for w := 0; w < 4; w++ {
		v, ok := h.settingFor(fmt.Sprintf("section%d", w))
		if !ok {
			t.Fatalf("section%d missing after concurrent updates", w)
		}
		if v != float64(99) {
			t.Fatalf("section%d = %v, want 99", w, v)
		}
	}
}
