package langserver

import (
	"context"

	"github.com/sourcegraph/jsonrpc2"
)

// handleWorkspaceExecuteCommand forwards the command to the primary engine.
// Any workspace edit the engine wants applied comes back through its
// workspace/applyEdit reverse request, which is relayed to the editor.
func (h *langHandler) handleWorkspaceExecuteCommand(ctx context.Context, req *jsonrpc2.Request) (interface{}, error) {
	if req.Params == nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams}
	}
	return h.forwardToPrimary(ctx, "workspace/executeCommand", req.Params)
}
