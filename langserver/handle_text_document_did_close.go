package langserver

import (
	"context"
	"encoding/json"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/bridgels/bridgels/types"
)

func (h *langHandler) handleTextDocumentDidClose(ctx context.Context, req *jsonrpc2.Request) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams}
	}
	var params types.DidCloseTextDocumentParams
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		return err
	}
	uri := params.TextDocument.URI

	h.mu.Lock()
	languageID := h.langIDs[uri]
	delete(h.langIDs, uri)
	h.mu.Unlock()

	if err := h.docs.DidClose(ctx, uri, h.sender()); err != nil {
		return err
	}
	if h.isMarkupLanguage(languageID) {
		h.mirrorMarkupClose(ctx, uri)
	}
	return nil
}
