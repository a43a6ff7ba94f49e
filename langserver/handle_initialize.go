package langserver

import (
	"context"
	"encoding/json"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/bridgels/bridgels/types"
)

func (h *langHandler) handleInitialize(ctx context.Context, req *jsonrpc2.Request) (interface{}, error) {
	if req.Params == nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams}
	}
	var params types.InitializeParams
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}

	rootPath := ""
	if params.RootURI != "" {
		if p, err := fromURI(params.RootURI); err == nil {
			rootPath = p
		}
	}
	if rootPath == "" {
		rootPath = params.RootPath
	}
	if rootPath == "" && len(params.WorkspaceFolders) > 0 {
		if p, err := fromURI(params.WorkspaceFolders[0].URI); err == nil {
			rootPath = p
		}
	}
	h.mu.Lock()
	h.rootPath = rootPath
	h.mu.Unlock()

	if h.deps != nil && !h.deps.IsComplete() && !h.config.AutoFetch {
		h.showMessage(ctx, types.LogError,
			"language engine dependencies are missing and auto-fetch is disabled; install them or enable auto-fetch")
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: "language engine dependencies missing"}
	}

	if len(h.config.BuildOutputRoots) == 0 && rootPath != "" {
		h.resolver.SetRoots([]string{rootPath})
	}
	if err := h.resolver.Watch(); err != nil {
		h.logger.Printf("generated-file watch: %v", err)
	}

	h.startWorkspace()

	return types.InitializeResult{
		Capabilities: types.ServerCapabilities{
			TextDocumentSync: &types.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    types.TDSKIncremental,
				Save:      json.RawMessage(`{"includeText":false}`),
			},
			CompletionProvider: &types.CompletionProvider{
				ResolveProvider:   true,
				TriggerCharacters: []string{".", "<", "@", "("},
			},
			HoverProvider:                    true,
			SignatureHelpProvider:            json.RawMessage(`{"triggerCharacters":["(",","]}`),
			DefinitionProvider:               true,
			ReferencesProvider:               true,
			ImplementationProvider:           true,
			DocumentHighlightProvider:        true,
			DocumentSymbolProvider:           true,
			WorkspaceSymbolProvider:          true,
			CodeActionProvider:               json.RawMessage(`{"resolveProvider":true}`),
			DocumentFormattingProvider:       true,
			DocumentRangeFormattingProvider:  true,
			DocumentOnTypeFormattingProvider: json.RawMessage(`{"firstTriggerCharacter":";","moreTriggerCharacter":["}","\n"]}`),
			RenameProvider:                   json.RawMessage(`{"prepareProvider":true}`),
			FoldingRangeProvider:             true,
			SemanticTokensProvider: &types.SemanticTokensProvider{
				Legend: json.RawMessage(`{"tokenTypes":[],"tokenModifiers":[]}`),
				Range:  true,
				Full:   true,
			},
			InlayHintProvider: json.RawMessage(`{"resolveProvider":true}`),
			DiagnosticProvider: &types.DiagnosticProvider{
				Identifier:            "bridgels",
				InterFileDependencies: true,
			},
			ExecuteCommandProvider: json.RawMessage(`{"commands":[]}`),
		},
		ServerInfo: &types.ServerInfo{Name: "bridgels"},
	}, nil
}
