package langserver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"

	"github.com/bridgels/bridgels/types"
)

// solutionOpenParams is the engine-specific open-workspace instruction for a
// solution file.
type solutionOpenParams struct {
	Solution types.DocumentURI `json:"solution"`
}

// projectOpenParams is
type projectOpenParams struct {
	Projects []types.DocumentURI `json:"projects"`
}

// startWorkspace kicks off the start sequence once. Re-entrant calls while
// already starting are no-ops.
func (h *langHandler) startWorkspace() {
	if !h.lifecycle.beginStart() {
		return
	}
	go func() {
		ctx := context.Background()
		if err := h.runStartSequence(ctx); err != nil {
			h.logger.Printf("workspace start: %v", err)
			h.lifecycle.fail(err)
			h.showMessage(ctx, types.LogError, "workspace initialization failed: "+err.Error())
		}
	}()
}

func (h *langHandler) runStartSequence(ctx context.Context) error {
	if h.deps != nil {
		policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
		err := backoff.Retry(func() error {
			return h.deps.EnsureReady(ctx, func(msg string) {
				h.logMessage(ctx, types.LogInfo, msg)
			})
		}, policy)
		if err != nil {
			return fmt.Errorf("dependencies: %w", err)
		}
	}

	cfg := h.config.Primary
	if cfg.Command == "" && h.deps != nil {
		cfg.Command = h.deps.ServerPath()
		for _, ext := range h.deps.ExtensionPaths() {
			cfg.Args = append(cfg.Args, "--extension", ext)
		}
	}

	var e *engine
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	err := backoff.Retry(func() error {
		var startErr error
		e, startErr = startEngine("primary", cfg, backendHandler{h: h}, h.logger)
		return startErr
	}, policy)
	if err != nil {
		return fmt.Errorf("start primary engine: %w", err)
	}
	e.setOnExit(h.onPrimaryExit)
	h.mu.Lock()
	h.primary = e
	h.mu.Unlock()
	go h.scrapeStderr(e)

	initParams := types.InitializeParams{
		ProcessID:    os.Getpid(),
		RootURI:      toURI(h.rootPath),
		RootPath:     h.rootPath,
		Capabilities: json.RawMessage(`{"workspace":{"configuration":true,"applyEdit":true},"window":{"workDoneProgress":true}}`),
	}
	_, _, wait := h.readinessKnobs()
	callCtx, cancel := context.WithTimeout(ctx, wait)
	var initResult json.RawMessage
	err = e.conn.Call(callCtx, "initialize", &initParams, &initResult)
	cancel()
	if err != nil {
		return fmt.Errorf("engine initialize: %w", err)
	}
	if err := e.conn.Notify(ctx, "initialized", struct{}{}); err != nil {
		return fmt.Errorf("engine initialized: %w", err)
	}

	h.beginInitProgress(ctx)
	h.openWorkspaceTarget(ctx, e)
	h.lifecycle.toWaiting()
	return nil
}

// workspaceTarget picks what to open: the configured solution wins, then
// configured projects, then the first solution file found under the root.
func (h *langHandler) workspaceTarget() (string, []string) {
	if h.config.Solution != "" {
		return h.config.Solution, nil
	}
	if len(h.config.Projects) > 0 {
		return "", h.config.Projects
	}
	h.mu.Lock()
	root := h.rootPath
	h.mu.Unlock()
	if root == "" {
		return "", nil
	}
	for _, pat := range []string{"*.sln", "*.slnx"} {
		matches, err := filepath.Glob(filepath.Join(root, pat))
		if err != nil || len(matches) == 0 {
			continue
		}
		sort.Strings(matches)
		return matches[0], nil
	}
	return "", nil
}

func (h *langHandler) openWorkspaceTarget(ctx context.Context, e *engine) {
	solution, projects := h.workspaceTarget()
	switch {
	case solution != "":
		if err := e.conn.Notify(ctx, "solution/open", &solutionOpenParams{Solution: toURI(solution)}); err != nil {
			h.logger.Printf("solution/open: %v", err)
		}
	case len(projects) > 0:
		uris := make([]types.DocumentURI, len(projects))
		for i, p := range projects {
			uris[i] = toURI(p)
		}
		if err := e.conn.Notify(ctx, "project/open", &projectOpenParams{Projects: uris}); err != nil {
			h.logger.Printf("project/open: %v", err)
		}
	}
}

// onProjectInitialized flips the workspace to Ready and flushes every
// document held back during startup.
func (h *langHandler) onProjectInitialized(ctx context.Context) {
	if !h.lifecycle.toReady() {
		return
	}
	h.endInitProgress(ctx)
	if err := h.docs.Flush(ctx, h.sender()); err != nil {
		h.logger.Printf("document flush: %v", err)
	}
}

// onPrimaryExit fires when the primary engine dies without being asked to.
func (h *langHandler) onPrimaryExit(err error) {
	h.mu.Lock()
	if h.shutdown {
		h.mu.Unlock()
		return
	}
	h.primary = nil
	h.mu.Unlock()

	h.lifecycle.fail(err)
	h.docs.Reset()
	h.showMessage(context.Background(), types.LogError,
		"the language engine stopped unexpectedly; restart the language server to recover")
}

// scheduleReload restarts the debounce window. A burst of build-file events
// collapses to one reload once the window stays quiet.
func (h *langHandler) scheduleReload() {
	h.mu.Lock()
	defer h.mu.Unlock()
	delay := time.Duration(h.config.ReloadDebounce)
	if h.reloadTimer == nil {
		h.reloadTimer = time.AfterFunc(delay, h.reloadWorkspace)
		return
	}
	h.reloadTimer.Reset(delay)
}

func (h *langHandler) reloadWorkspace() {
	atomic.AddInt64(&h.reloads, 1)
	e := h.primaryEngine()
	if e == nil || !e.running() {
		return
	}
	if h.lifecycle.current() != StateReady {
		return
	}
	h.logger.Printf("build files changed, reloading workspace")
	h.openWorkspaceTarget(context.Background(), e)
}

func (h *langHandler) beginInitProgress(ctx context.Context) {
	conn := h.editorConn()
	if conn == nil {
		return
	}
	token := uuid.NewString()
	var ack json.RawMessage
	if err := conn.Call(ctx, "window/workDoneProgress/create", &types.WorkDoneProgressCreateParams{Token: token}, &ack); err != nil {
		// Editor without progress support; skip the indicator.
		return
	}
	h.mu.Lock()
	h.progressToken = token
	h.mu.Unlock()

	value, _ := json.Marshal(types.WorkDoneProgressBegin{Kind: "begin", Title: "Initializing workspace"})
	if err := conn.Notify(ctx, "$/progress", &types.ProgressParams{Token: token, Value: value}); err != nil {
		h.logger.Printf("$/progress: %v", err)
	}
}

func (h *langHandler) endInitProgress(ctx context.Context) {
	h.mu.Lock()
	token := h.progressToken
	h.progressToken = ""
	h.mu.Unlock()

	conn := h.editorConn()
	if token == "" || conn == nil {
		return
	}
	value, _ := json.Marshal(types.WorkDoneProgressEnd{Kind: "end", Message: "workspace ready"})
	if err := conn.Notify(ctx, "$/progress", &types.ProgressParams{Token: token, Value: value}); err != nil {
		h.logger.Printf("$/progress: %v", err)
	}
}
