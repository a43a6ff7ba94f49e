package langserver

import (
	"context"
	"encoding/json"
	"path/filepath"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/bridgels/bridgels/types"
)

func (h *langHandler) handleWorkspaceDidChangeWatchedFiles(ctx context.Context, req *jsonrpc2.Request) error {
	if req.Params == nil {
		return &jsonrpc2.Error{Code: jsonrpc2.CodeInvalidParams}
	}
	var params types.DidChangeWatchedFilesParams
	if err := json.Unmarshal(*req.Params, &params); err != nil {
		return err
	}

	for _, change := range params.Changes {
		path, err := fromURI(change.URI)
		if err != nil {
			continue
		}
		if h.isBuildFile(filepath.Base(path)) {
			h.scheduleReload()
		}
		// The resolver decides for itself whether the path concerns a
		// generated tree.
		h.resolver.HandleFileEvent(path, change.Type == types.FileDeleted)

		if h.config.Filename != "" && path == h.config.Filename {
			h.reloadConfig()
		}
	}
	return nil
}

func (h *langHandler) isBuildFile(base string) bool {
	for _, pattern := range h.buildFileGlobs() {
		if ok, err := filepath.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

// reloadConfig re-reads the yaml file and takes over the knobs that are safe
// to change at runtime.
func (h *langHandler) reloadConfig() {
	loaded, err := LoadConfig(h.config.Filename)
	if err != nil {
		h.logger.Printf("reload configuration: %v", err)
		return
	}
	h.mu.Lock()
	h.config.Settings = loaded.Settings
	h.config.DiagnosticCategories = loaded.DiagnosticCategories
	h.config.StderrFormats = loaded.StderrFormats
	h.config.BuildFileGlobs = loaded.BuildFileGlobs
	h.config.ReadyPolicy = loaded.ReadyPolicy
	h.config.FastStartGrace = loaded.FastStartGrace
	h.config.ReadyWaitTimeout = loaded.ReadyWaitTimeout
	h.config.RequestTimeout = loaded.RequestTimeout
	h.config.ReloadDebounce = loaded.ReloadDebounce
	h.mu.Unlock()
	h.logger.Printf("configuration reloaded from %s", h.config.Filename)
}
