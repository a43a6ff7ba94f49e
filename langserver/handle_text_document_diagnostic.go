package langserver

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/bridgels/bridgels/types"
)

// handleTextDocumentDiagnostic issues the enabled diagnostic categories
// concurrently and merges their items into one report. A failed category
// never suppresses the others.
func (h *langHandler) handleTextDocumentDiagnostic(ctx context.Context, req *jsonrpc2.Request) (interface{}, error) {
	if req.Params == nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams}
	}
	var params types.DocumentDiagnosticParams
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams, Message: err.Error()}
	}

	report := types.FullDocumentDiagnosticReport{Kind: "full", Items: []types.Diagnostic{}}
	if !h.awaitReady(ctx) {
		return report, nil
	}

	categories := h.diagnosticCategories()
	results := make([][]types.Diagnostic, len(categories))
	var wg sync.WaitGroup
	for i, category := range categories {
		wg.Add(1)
		go func(i int, category string) {
			defer wg.Done()
			p := params
			p.Identifier = category
			var r types.FullDocumentDiagnosticReport
			if err := h.callPrimary(ctx, "textDocument/diagnostic", &p, &r); err != nil {
				if h.loglevel >= 1 {
					h.logger.Printf("diagnostic category %q: %v", category, err)
				}
				return
			}
			results[i] = r.Items
		}(i, category)
	}
	wg.Wait()

	for _, items := range results {
		report.Items = append(report.Items, items...)
	}
	return report, nil
}
