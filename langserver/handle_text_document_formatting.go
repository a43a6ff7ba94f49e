package langserver

import (
	"context"
	"encoding/json"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/bridgels/bridgels/types"
)

func (h *langHandler) handleTextDocumentFormatting(ctx context.Context, req *jsonrpc2.Request) (interface{}, error) {
	if req.Params == nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams}
	}
	var params types.DocumentFormattingParams
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}

	if h.routesToMarkup(params.TextDocument.URI) {
		edits, err := h.formatWithMarkup(ctx, params.TextDocument.URI, nil, params.Options)
		if err != nil {
			h.logger.Printf("markup formatting: %v", err)
			return nil, nil
		}
		return edits, nil
	}
	return h.forwardToPrimary(ctx, "textDocument/formatting", req.Params)
}

func (h *langHandler) handleTextDocumentRangeFormatting(ctx context.Context, req *jsonrpc2.Request) (interface{}, error) {
	if req.Params == nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams}
	}
	var params types.DocumentRangeFormattingParams
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}

	if h.routesToMarkup(params.TextDocument.URI) {
		edits, err := h.formatWithMarkup(ctx, params.TextDocument.URI, &params.Range, params.Options)
		if err != nil {
			h.logger.Printf("markup formatting: %v", err)
			return nil, nil
		}
		return edits, nil
	}
	return h.forwardToPrimary(ctx, "textDocument/rangeFormatting", req.Params)
}

// routesToMarkup reports whether formatting for a document belongs to the
// markup engine, based on the language id seen at open time.
func (h *langHandler) routesToMarkup(uri types.DocumentURI) bool {
	h.mu.Lock()
	languageID := h.langIDs[uri]
	h.mu.Unlock()
	return h.isMarkupLanguage(languageID)
}
