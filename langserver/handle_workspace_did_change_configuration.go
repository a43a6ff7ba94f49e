package langserver

import (
	"context"
	"encoding/json"

	"github.com/sourcegraph/jsonrpc2"
)

type didChangeConfigurationParams struct {
	Settings map[string]interface{} `json:"settings"`
}

// handleWorkspaceDidChangeConfiguration merges editor-pushed settings over
// the file-based ones and lets the engine re-pull what it cares about.
func (h *langHandler) handleWorkspaceDidChangeConfiguration(ctx context.Context, req *jsonrpc2.Request) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams}
	}
	var params didChangeConfigurationParams
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		return err
	}

	h.mu.Lock()
	if h.config.Settings == nil {
		h.config.Settings = make(map[string]interface{})
	}
	for section, value := range params.Settings {
		h.config.Settings[section] = value
	}
	h.mu.Unlock()

	return h.notifyPrimary(ctx, "workspace/didChangeConfiguration", json.RawMessage(*req.Params))
}
