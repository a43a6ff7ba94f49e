package langserver

import (
	"context"
	"encoding/json"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/bridgels/bridgels/docsync"
	"github.com/bridgels/bridgels/types"
)

// handleTextDocumentPrepareRename answers locally from the coalesced pending
// text while the document has not reached the backend yet; once the backend
// has it, the request is forwarded.
func (h *langHandler) handleTextDocumentPrepareRename(ctx context.Context, req *jsonrpc2.Request) (interface{}, error) {
	if req.Params == nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams}
	}
	var params types.TextDocumentPositionParams
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}
	uri := params.TextDocument.URI

	if h.docs.StateOf(uri) == docsync.PendingOpen {
		text, ok := h.docs.TextOf(uri)
		if !ok {
			return nil, nil
		}
		rng, ok := wordRangeAt(text, params.Position)
		if !ok {
			return nil, nil
		}
		return rng, nil
	}
	return h.forwardToPrimary(ctx, "textDocument/prepareRename", req.Params)
}
