package langserver

import (
	"context"
	"encoding/json"
	"errors"
	"os"

	"github.com/google/uuid"
	"github.com/sourcegraph/jsonrpc2"

	"github.com/bridgels/bridgels/types"
)

// markupFormatParams is the engine-specific payload of the markup/format and
// markup/formatRange reverse requests: the primary engine hands over the
// fragment text directly.
type markupFormatParams struct {
	URI     types.DocumentURI       `json:"uri,omitempty"`
	Text    string                  `json:"text"`
	Range   *types.Range            `json:"range,omitempty"`
	Options types.FormattingOptions `json:"options,omitempty"`
}

// markupHandler serves the markup engine's connection. The markup engine is
// not expected to issue reverse requests; its notifications are logged only.
type markupHandler struct {
	h *langHandler
}

func (m markupHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	if req.Notif {
		if m.h.loglevel >= 2 {
			m.h.logger.Printf("markup engine: %s", req.Method)
		}
		return
	}
	_ = conn.ReplyWithError(ctx, req.ID, &jsonrpc2.Error{
		Code:    jsonrpc2.CodeMethodNotFound,
		Message: "method not supported: " + req.Method,
	})
}

func (h *langHandler) markupEngine() *engine {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.markup != nil && h.markup.running() {
		return h.markup
	}
	return nil
}

// ensureMarkup starts the markup engine on first need.
func (h *langHandler) ensureMarkup(ctx context.Context) (*engine, error) {
	if e := h.markupEngine(); e != nil {
		return e, nil
	}
	if h.config.Markup.Command == "" {
		return nil, errors.New("no markup engine configured")
	}

	e, err := startEngine("markup", h.config.Markup.EngineConfig, markupHandler{h: h}, h.logger)
	if err != nil {
		return nil, err
	}
	initParams := types.InitializeParams{
		ProcessID: os.Getpid(),
		RootURI:   toURI(h.rootPath),
	}
	callCtx, cancel := context.WithTimeout(ctx, h.requestTimeout())
	var initResult json.RawMessage
	err = e.conn.Call(callCtx, "initialize", &initParams, &initResult)
	cancel()
	if err != nil {
		e.shutdown()
		return nil, err
	}
	if err := e.conn.Notify(ctx, "initialized", struct{}{}); err != nil {
		e.shutdown()
		return nil, err
	}

	h.mu.Lock()
	if h.markup != nil && h.markup.running() {
		existing := h.markup
		h.mu.Unlock()
		go e.shutdown()
		return existing, nil
	}
	h.markup = e
	h.mu.Unlock()
	return e, nil
}

func (h *langHandler) isMarkupLanguage(languageID string) bool {
	for _, l := range h.config.Markup.Languages {
		if l == languageID {
			return true
		}
	}
	return false
}

// virtualURI names the companion document mirrored into the markup engine
// for one source document.
func (h *langHandler) virtualURI(uri types.DocumentURI) types.DocumentURI {
	return uri + types.DocumentURI("__virtual."+h.config.Markup.VirtualExt)
}

// mirrorMarkupOpen opens the virtual companion document for a markup-language
// source document, starting the engine if this is the first one.
func (h *langHandler) mirrorMarkupOpen(ctx context.Context, item types.TextDocumentItem) {
	e, err := h.ensureMarkup(ctx)
	if err != nil {
		if h.loglevel >= 1 {
			h.logger.Printf("markup engine: %v", err)
		}
		return
	}
	virtual := item
	virtual.URI = h.virtualURI(item.URI)
	virtual.LanguageID = h.config.Markup.VirtualExt
	if err := e.conn.Notify(ctx, "textDocument/didOpen", &types.DidOpenTextDocumentParams{TextDocument: virtual}); err != nil {
		h.logger.Printf("markup didOpen: %v", err)
	}
}

// mirrorMarkupChange relays edits to the companion document; the markup
// engine maintains the text itself.
func (h *langHandler) mirrorMarkupChange(ctx context.Context, params types.DidChangeTextDocumentParams) {
	e := h.markupEngine()
	if e == nil {
		return
	}
	params.TextDocument.URI = h.virtualURI(params.TextDocument.URI)
	if err := e.conn.Notify(ctx, "textDocument/didChange", &params); err != nil {
		h.logger.Printf("markup didChange: %v", err)
	}
}

func (h *langHandler) mirrorMarkupClose(ctx context.Context, uri types.DocumentURI) {
	e := h.markupEngine()
	if e == nil {
		return
	}
	if err := e.conn.Notify(ctx, "textDocument/didClose", &types.DidCloseTextDocumentParams{
		TextDocument: types.TextDocumentIdentifier{URI: h.virtualURI(uri)},
	}); err != nil {
		h.logger.Printf("markup didClose: %v", err)
	}
}

// formatWithMarkup runs a formatting request against the companion document.
func (h *langHandler) formatWithMarkup(ctx context.Context, uri types.DocumentURI, rng *types.Range, options types.FormattingOptions) ([]types.TextEdit, error) {
	e, err := h.ensureMarkup(ctx)
	if err != nil {
		return nil, err
	}
	callCtx, cancel := context.WithTimeout(ctx, h.requestTimeout())
	defer cancel()

	virtual := h.virtualURI(uri)
	var edits []types.TextEdit
	if rng != nil {
		err = e.conn.Call(callCtx, "textDocument/rangeFormatting", &types.DocumentRangeFormattingParams{
			TextDocument: types.TextDocumentIdentifier{URI: virtual},
			Range:        *rng,
			Options:      options,
		}, &edits)
	} else {
		err = e.conn.Call(callCtx, "textDocument/formatting", &types.DocumentFormattingParams{
			TextDocument: types.TextDocumentIdentifier{URI: virtual},
			Options:      options,
		}, &edits)
	}
	if err != nil {
		return nil, err
	}
	return edits, nil
}

// delegateMarkupFormat answers the primary engine's markup/format reverse
// request: the fragment is opened as a throwaway virtual document, formatted,
// and closed again.
func (h *langHandler) delegateMarkupFormat(ctx context.Context, params *json.RawMessage) (interface{}, error) {
	if params == nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams}
	}
	var p markupFormatParams
	if err := json.Unmarshal(*params, &p); err != nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}

	e, err := h.ensureMarkup(ctx)
	if err != nil {
		return nil, err
	}

	scratch := types.DocumentURI("untitled:" + uuid.NewString() + "." + h.config.Markup.VirtualExt)
	item := types.TextDocumentItem{
		URI:        scratch,
		LanguageID: h.config.Markup.VirtualExt,
		Version:    1,
		Text:       p.Text,
	}
	if err := e.conn.Notify(ctx, "textDocument/didOpen", &types.DidOpenTextDocumentParams{TextDocument: item}); err != nil {
		return nil, err
	}
	defer func() {
		_ = e.conn.Notify(ctx, "textDocument/didClose", &types.DidCloseTextDocumentParams{
			TextDocument: types.TextDocumentIdentifier{URI: scratch},
		})
	}()

	callCtx, cancel := context.WithTimeout(ctx, h.requestTimeout())
	defer cancel()
	var edits []types.TextEdit
	if p.Range != nil {
		err = e.conn.Call(callCtx, "textDocument/rangeFormatting", &types.DocumentRangeFormattingParams{
			TextDocument: types.TextDocumentIdentifier{URI: scratch},
			Range:        *p.Range,
			Options:      p.Options,
		}, &edits)
	} else {
		err = e.conn.Call(callCtx, "textDocument/formatting", &types.DocumentFormattingParams{
			TextDocument: types.TextDocumentIdentifier{URI: scratch},
			Options:      p.Options,
		}, &edits)
	}
	if err != nil {
		return nil, err
	}
	return edits, nil
}
