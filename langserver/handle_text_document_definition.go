package langserver

import (
	"context"
	"encoding/json"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/bridgels/bridgels/types"
)

// handleTextDocumentLocations serves definition, typeDefinition, references
// and implementation: forwarded verbatim, with generated-source URIs in the
// answer rewritten to on-disk files.
func (h *langHandler) handleTextDocumentLocations(ctx context.Context, req *jsonrpc2.Request) (interface{}, error) {
	if req.Params == nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams}
	}
	result, err := h.forwardToPrimary(ctx, req.Method, req.Params)
	if err != nil || result == nil {
		return nil, err
	}
	raw, ok := result.(json.RawMessage)
	if !ok {
		return result, nil
	}
	return h.rewriteLocationResult(raw), nil
}

// rewriteLocationResult handles the three location answer shapes: Location,
// []Location and []LocationLink. Anything else passes through untouched.
func (h *langHandler) rewriteLocationResult(raw json.RawMessage) interface{} {
	if len(raw) == 0 {
		return nil
	}
	if raw[0] == '[' {
		var locations []types.Location
		if err := json.Unmarshal(raw, &locations); err == nil && len(locations) > 0 && locations[0].URI != "" {
			for i := range locations {
				locations[i].URI = h.rewriteURI(locations[i].URI)
			}
			return locations
		}
		var links []types.LocationLink
		if err := json.Unmarshal(raw, &links); err == nil && len(links) > 0 && links[0].TargetURI != "" {
			for i := range links {
				links[i].TargetURI = h.rewriteURI(links[i].TargetURI)
			}
			return links
		}
		return raw
	}
	var location types.Location
	if err := json.Unmarshal(raw, &location); err == nil && location.URI != "" {
		location.URI = h.rewriteURI(location.URI)
		return location
	}
	return raw
}
