package langserver

import (
	"context"
	"encoding/json"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/bridgels/bridgels/types"
)

func (h *langHandler) handleTextDocumentDidOpen(ctx context.Context, req *jsonrpc2.Request) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams}
	}
	var params types.DidOpenTextDocumentParams
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		return err
	}
	item := params.TextDocument

	h.mu.Lock()
	h.langIDs[item.URI] = item.LanguageID
	h.mu.Unlock()

	if err := h.docs.DidOpen(ctx, item, h.workspaceReady, h.sender()); err != nil {
		return err
	}
	if h.isMarkupLanguage(item.LanguageID) {
		h.mirrorMarkupOpen(ctx, item)
	}
	return nil
}
