package langserver

import (
	"context"
	"encoding/json"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/bridgels/bridgels/types"
)

// nestedActionData is the slice of an action's opaque data the proxy
// understands: a grouped action carries its real children here.
type nestedActionData struct {
	NestedCodeActions []types.CodeAction `json:"nestedCodeActions"`
}

func (h *langHandler) handleTextDocumentCodeAction(ctx context.Context, req *jsonrpc2.Request) (interface{}, error) {
	if req.Params == nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams}
	}
	if !h.awaitReady(ctx) {
		return nil, nil
	}

	var actions []types.CodeAction
	if err := h.callPrimary(ctx, "textDocument/codeAction", req.Params, &actions); err != nil {
		return nil, nil
	}
	if actions == nil {
		return nil, nil
	}

	flat := flattenCodeActions(actions)
	for i := range flat {
		h.resolveCodeActionEdit(ctx, &flat[i])
	}
	return flat, nil
}

// flattenCodeActions replaces every grouped action by its children, in
// place in the overall order. A child without its own title inherits the
// group's.
func flattenCodeActions(actions []types.CodeAction) []types.CodeAction {
	flat := make([]types.CodeAction, 0, len(actions))
	for _, action := range actions {
		nested := nestedActions(action)
		if nested == nil {
			flat = append(flat, action)
			continue
		}
		for i := range nested {
			if nested[i].Title == "" {
				nested[i].Title = action.Title
			}
		}
		flat = append(flat, flattenCodeActions(nested)...)
	}
	return flat
}

func nestedActions(action types.CodeAction) []types.CodeAction {
	if len(action.Data) == 0 {
		return nil
	}
	var data nestedActionData
	if err := json.Unmarshal(action.Data, &data); err != nil {
		return nil
	}
	return data.NestedCodeActions
}

// resolveCodeActionEdit eagerly resolves an action that carries resolution
// data but no edit; many editor clients skip the resolve round trip. A
// failed resolve leaves the action as delivered.
func (h *langHandler) resolveCodeActionEdit(ctx context.Context, action *types.CodeAction) {
	if action.Edit != nil || action.Command != nil || len(action.Data) == 0 {
		return
	}
	if nestedActions(*action) != nil {
		return
	}
	var resolved types.CodeAction
	if err := h.callPrimary(ctx, "codeAction/resolve", action, &resolved); err != nil {
		return
	}
	if resolved.Edit != nil {
		action.Edit = resolved.Edit
	}
	if resolved.Command != nil {
		action.Command = resolved.Command
	}
}
