package langserver

import (
	"context"
	"encoding/json"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/bridgels/bridgels/types"
)

func (h *langHandler) handleTextDocumentDidChange(ctx context.Context, req *jsonrpc2.Request) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams}
	}
	var params types.DidChangeTextDocumentParams
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		return err
	}

	// The raw payload travels through the sync tracker so buffered replays
	// are byte-faithful.
	if err := h.docs.DidChange(ctx, params, json.RawMessage(*req.Params), h.sender()); err != nil {
		return err
	}

	h.mu.Lock()
	languageID := h.langIDs[params.TextDocument.URI]
	h.mu.Unlock()
	if h.isMarkupLanguage(languageID) {
		h.mirrorMarkupChange(ctx, params)
	}
	return nil
}
