package langserver

import (
	"context"
	"encoding/json"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/bridgels/bridgels/types"
)

func (h *langHandler) handleTextDocumentDidSave(ctx context.Context, req *jsonrpc2.Request) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams}
	}
	var params types.DidSaveTextDocumentParams
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		return err
	}
	// Saves for documents the backend never saw are dropped.
	if !h.docs.IsOpen(params.TextDocument.URI) {
		return nil
	}
	return h.notifyPrimary(ctx, "textDocument/didSave", json.RawMessage(*req.Params))
}
