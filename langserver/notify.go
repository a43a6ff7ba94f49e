package langserver

import (
	"context"

	"github.com/bridgels/bridgels/types"
)

// showMessage surfaces a user-visible message in the editor. Reserved for
// conditions that need a restart or reconfiguration.
func (h *langHandler) showMessage(ctx context.Context, mt types.MessageType, message string) {
	conn := h.editorConn()
	if conn == nil {
		return
	}
	if err := conn.Notify(ctx, "window/showMessage", &types.ShowMessageParams{Type: mt, Message: message}); err != nil {
		h.logger.Printf("window/showMessage: %v", err)
	}
}

// logMessage writes to the editor's output channel.
func (h *langHandler) logMessage(ctx context.Context, mt types.MessageType, message string) {
	conn := h.editorConn()
	if conn == nil {
		return
	}
	if err := conn.Notify(ctx, "window/logMessage", &types.LogMessageParams{Type: mt, Message: message}); err != nil {
		h.logger.Printf("window/logMessage: %v", err)
	}
}

// publishDiagnostics pushes diagnostics for one document to the editor.
func (h *langHandler) publishDiagnostics(ctx context.Context, uri types.DocumentURI, diagnostics []types.Diagnostic) {
	conn := h.editorConn()
	if conn == nil {
		return
	}
	if diagnostics == nil {
		diagnostics = []types.Diagnostic{}
	}
	if err := conn.Notify(ctx, "textDocument/publishDiagnostics", &types.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	}); err != nil {
		h.logger.Printf("textDocument/publishDiagnostics: %v", err)
	}
}
