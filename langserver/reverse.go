package langserver

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/bridgels/bridgels/pump"
	"github.com/bridgels/bridgels/types"
)

// reverseFunc handles one backend reverse request.
type reverseFunc func(ctx context.Context, params *json.RawMessage) (interface{}, error)

// priorityMethods are backend notifications whose loss would break
// correctness; they bypass the bounded lane.
var priorityMethods = map[string]bool{
	"workspace/projectInitializationComplete": true,
	"textDocument/publishDiagnostics":         true,
}

// buildReverseTable fixes the set of backend reverse requests at
// construction. Anything outside the table is answered MethodNotFound.
func (h *langHandler) buildReverseTable() map[string]reverseFunc {
	return map[string]reverseFunc{
		"client/registerCapability":      h.ackCapability,
		"client/unregisterCapability":    h.ackCapability,
		"window/workDoneProgress/create": h.relayToEditor("window/workDoneProgress/create"),
		"window/showMessageRequest":      h.relayToEditor("window/showMessageRequest"),
		"workspace/applyEdit":            h.relayToEditor("workspace/applyEdit"),
		"workspace/configuration":        h.answerConfiguration,
		"markup/format":                  h.delegateMarkupFormat,
		"markup/formatRange":             h.delegateMarkupFormat,
	}
}

// backendHandler serves the primary engine's connection: notifications feed
// the pump, reverse requests go through the dispatch table.
type backendHandler struct {
	h *langHandler
}

func (b backendHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	h := b.h
	if req.Notif {
		var params json.RawMessage
		if req.Params != nil {
			params = *req.Params
		}
		item := pump.Item{Method: req.Method, Params: params}
		if priorityMethods[req.Method] {
			h.pump.EnqueuePriority(item)
		} else {
			h.pump.Enqueue(item)
		}
		return
	}

	go func() {
		fn, ok := h.reverse[req.Method]
		if !ok {
			err := &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not supported: " + req.Method}
			_ = conn.ReplyWithError(ctx, req.ID, err)
			return
		}
		result, err := fn(ctx, req.Params)
		if err != nil {
			var rpcErr *jsonrpc2.Error
			if !errors.As(err, &rpcErr) {
				rpcErr = &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: err.Error()}
			}
			_ = conn.ReplyWithError(ctx, req.ID, rpcErr)
			return
		}
		_ = conn.Reply(ctx, req.ID, result)
	}()
}

func (h *langHandler) ackCapability(ctx context.Context, params *json.RawMessage) (interface{}, error) {
	return nil, nil
}

// relayToEditor forwards a reverse request to the editor unchanged and hands
// the editor's answer back.
func (h *langHandler) relayToEditor(method string) reverseFunc {
	return func(ctx context.Context, params *json.RawMessage) (interface{}, error) {
		conn := h.editorConn()
		if conn == nil {
			return nil, errors.New("editor connection not established")
		}
		var result json.RawMessage
		if err := conn.Call(ctx, method, params, &result); err != nil {
			return nil, err
		}
		if len(result) == 0 {
			return nil, nil
		}
		return result, nil
	}
}

// answerConfiguration serves the engine's workspace/configuration pull from
// the settings table, one value per requested item.
func (h *langHandler) answerConfiguration(ctx context.Context, params *json.RawMessage) (interface{}, error) {
	var p types.ConfigurationParams
	if params != nil {
		if err := json.Unmarshal(*params, &p); err != nil {
			return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
		}
	}
	values := make([]interface{}, len(p.Items))
	for i, item := range p.Items {
		if v, ok := h.settingFor(item.Section); ok {
			values[i] = v
		}
	}
	return values, nil
}

// processBackendNotification is the pump's handler: every dequeued backend
// notification ends up here, on a lane consumer goroutine.
func (h *langHandler) processBackendNotification(item pump.Item) {
	ctx := context.Background()
	switch item.Method {
	case "workspace/projectInitializationComplete":
		h.onProjectInitialized(ctx)
		return
	case "textDocument/publishDiagnostics":
		h.publishBackendDiagnostics(ctx, item.Params)
		return
	}

	conn := h.editorConn()
	if conn == nil {
		return
	}
	if err := conn.Notify(ctx, item.Method, json.RawMessage(item.Params)); err != nil && h.loglevel >= 1 {
		h.logger.Printf("forward %s: %v", item.Method, err)
	}
}

// publishBackendDiagnostics forwards a diagnostics push, rewriting a
// generated-source URI to its on-disk file when resolvable.
func (h *langHandler) publishBackendDiagnostics(ctx context.Context, raw json.RawMessage) {
	conn := h.editorConn()
	if conn == nil {
		return
	}
	var params types.PublishDiagnosticsParams
	if err := json.Unmarshal(raw, &params); err != nil {
		if h.loglevel >= 1 {
			h.logger.Printf("publishDiagnostics: %v", err)
		}
		_ = conn.Notify(ctx, "textDocument/publishDiagnostics", json.RawMessage(raw))
		return
	}
	params.URI = h.rewriteURI(params.URI)
	if err := conn.Notify(ctx, "textDocument/publishDiagnostics", &params); err != nil && h.loglevel >= 1 {
		h.logger.Printf("publishDiagnostics: %v", err)
	}
}
