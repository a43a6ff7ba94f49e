package langserver

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/bridgels/bridgels/docsync"
	"github.com/bridgels/bridgels/genfiles"
	"github.com/bridgels/bridgels/pump"
	"github.com/bridgels/bridgels/types"
)

// timeoutLogSample limits forwarded-request timeout logging to every Nth
// occurrence.
const timeoutLogSample = 20

var errEngineUnavailable = errors.New("primary engine unavailable")

// NewHandler create JSON-RPC handler for this language server.
func NewHandler(config *Config) jsonrpc2.Handler {
	if config.LogWriter == nil {
		config.LogWriter = log.Writer()
	}
	handler := &langHandler{
		logger:    log.New(config.LogWriter, "", log.LstdFlags),
		loglevel:  config.LogLevel,
		config:    config,
		tracker:   pump.NewTracker(),
		langIDs:   make(map[types.DocumentURI]string),
		lifecycle: newLifecycle(),
	}
	handler.docs = docsync.NewTracker(handler.logger)
	handler.pump = pump.NewPump(handler.processBackendNotification, handler.tracker, handler.logger, config.NotificationCapacity)
	handler.resolver = genfiles.NewResolver(config.GeneratedScheme, config.BuildOutputRoots, handler.logger)
	handler.reverse = handler.buildReverseTable()
	if config.DependencyPath != "" {
		handler.deps = newDirDependencyManager(config.DependencyPath)
	}
	return handler
}

// langHandler is the proxy core: it owns the editor connection and both
// engine connections and performs all cross-component sequencing.
type langHandler struct {
	mu       sync.Mutex
	logger   *log.Logger
	loglevel int
	config   *Config

	conn    *jsonrpc2.Conn
	primary *engine
	markup  *engine

	docs      *docsync.Tracker
	tracker   *pump.Tracker
	pump      *pump.Pump
	resolver  *genfiles.Resolver
	lifecycle *lifecycle
	deps      DependencyManager

	reverse map[string]reverseFunc

	rootPath string
	langIDs  map[types.DocumentURI]string

	reloadTimer   *time.Timer
	reloads       int64
	timeouts      int64
	progressToken string

	shutdown bool
}

// Handle implements jsonrpc2.Handler. Notifications are handled inline so
// per-URI document ordering is preserved; requests run in their own
// goroutine and reply through the connection.
func (h *langHandler) Handle(ctx context.Context, conn *jsonrpc2.Conn, req *jsonrpc2.Request) {
	h.mu.Lock()
	if h.conn == nil {
		h.conn = conn
	}
	h.mu.Unlock()

	if req.Notif {
		if err := h.handleNotification(ctx, req); err != nil {
			h.logger.Printf("%s: %v", req.Method, err)
		}
		return
	}

	go func() {
		result, err := h.handleRequest(ctx, req)
		if err != nil {
			var rpcErr *jsonrpc2.Error
			if !errors.As(err, &rpcErr) {
				rpcErr = &jsonrpc2.Error{Code: jsonrpc2.CodeInternalError, Message: err.Error()}
			}
			if err := conn.ReplyWithError(ctx, req.ID, rpcErr); err != nil && h.loglevel >= 1 {
				h.logger.Printf("%s: reply: %v", req.Method, err)
			}
			return
		}
		if err := conn.Reply(ctx, req.ID, result); err != nil && h.loglevel >= 1 {
			h.logger.Printf("%s: reply: %v", req.Method, err)
		}
	}()
}

func (h *langHandler) handleNotification(ctx context.Context, req *jsonrpc2.Request) error {
	switch req.Method {
	case "initialized":
		return nil
	case "exit":
		return h.handleExit(ctx)
	case "textDocument/didOpen":
		return h.handleTextDocumentDidOpen(ctx, req)
	case "textDocument/didChange":
		return h.handleTextDocumentDidChange(ctx, req)
	case "textDocument/didClose":
		return h.handleTextDocumentDidClose(ctx, req)
	case "textDocument/didSave":
		return h.handleTextDocumentDidSave(ctx, req)
	case "workspace/didChangeConfiguration":
		return h.handleWorkspaceDidChangeConfiguration(ctx, req)
	case "workspace/didChangeWatchedFiles":
		return h.handleWorkspaceDidChangeWatchedFiles(ctx, req)
	case "$/cancelRequest":
		return nil
	}
	// Anything else passes through when the engine is up.
	return h.notifyPrimary(ctx, req.Method, req.Params)
}

func (h *langHandler) handleRequest(ctx context.Context, req *jsonrpc2.Request) (interface{}, error) {
	switch req.Method {
	case "initialize":
		return h.handleInitialize(ctx, req)
	case "shutdown":
		return h.handleShutdown(ctx)
	case "textDocument/codeAction":
		return h.handleTextDocumentCodeAction(ctx, req)
	case "textDocument/diagnostic":
		return h.handleTextDocumentDiagnostic(ctx, req)
	case "textDocument/definition", "textDocument/typeDefinition",
		"textDocument/references", "textDocument/implementation":
		return h.handleTextDocumentLocations(ctx, req)
	case "textDocument/formatting":
		return h.handleTextDocumentFormatting(ctx, req)
	case "textDocument/rangeFormatting":
		return h.handleTextDocumentRangeFormatting(ctx, req)
	case "textDocument/prepareRename":
		return h.handleTextDocumentPrepareRename(ctx, req)
	case "workspace/executeCommand":
		return h.handleWorkspaceExecuteCommand(ctx, req)
	}
	if forwardedMethods[req.Method] {
		return h.forwardToPrimary(ctx, req.Method, req.Params)
	}
	return nil, &jsonrpc2.Error{Code: jsonrpc2.CodeMethodNotFound, Message: "method not supported: " + req.Method}
}

// forwardedMethods are passed to the primary engine without any
// proxy-side translation.
var forwardedMethods = map[string]bool{
	"textDocument/hover":                true,
	"textDocument/completion":           true,
	"completionItem/resolve":            true,
	"codeAction/resolve":                true,
	"textDocument/signatureHelp":        true,
	"textDocument/documentHighlight":    true,
	"textDocument/documentSymbol":       true,
	"workspace/symbol":                  true,
	"textDocument/foldingRange":         true,
	"textDocument/semanticTokens/full":  true,
	"textDocument/semanticTokens/range": true,
	"textDocument/inlayHint":            true,
	"inlayHint/resolve":                 true,
	"textDocument/onTypeFormatting":     true,
	"textDocument/rename":               true,
	"textDocument/codeLens":             true,
	"codeLens/resolve":                  true,
	"textDocument/documentLink":         true,
}

// awaitReady applies the configured readiness policy. A false return means
// the request is answered with an empty result instead of being forwarded.
func (h *langHandler) awaitReady(ctx context.Context) bool {
	lc := h.lifecycle
	switch lc.current() {
	case StateReady:
		return true
	case StateFailed:
		return false
	}

	policy, grace, wait := h.readinessKnobs()
	switch policy {
	case ReadyPolicyFail:
		return false
	case ReadyPolicyWait:
		return lc.waitReady(ctx, wait) == nil
	default:
		// Fast start: requests wait only while the grace window is still
		// open, then proceed without readiness.
		remaining := grace - lc.sinceStart()
		if remaining <= 0 {
			return true
		}
		err := lc.waitReady(ctx, remaining)
		if err == nil || errors.Is(err, ErrWorkspaceNotReady) {
			return true
		}
		return false
	}
}

// forwardToPrimary relays one editor request to the primary engine.
// Unavailability and timeouts degrade to an empty result, never an error the
// editor sees.
func (h *langHandler) forwardToPrimary(ctx context.Context, method string, params *json.RawMessage) (interface{}, error) {
	if !h.awaitReady(ctx) {
		return nil, nil
	}
	var result json.RawMessage
	if err := h.callPrimary(ctx, method, params, &result); err != nil {
		return nil, nil
	}
	if len(result) == 0 || string(result) == "null" {
		return nil, nil
	}
	return result, nil
}

// callPrimary sends one request to the primary engine with the bounded
// per-request timeout.
func (h *langHandler) callPrimary(ctx context.Context, method string, params, result interface{}) error {
	e := h.primaryEngine()
	if e == nil || !e.running() {
		return errEngineUnavailable
	}
	timeout := h.requestTimeout()
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := e.conn.Call(ctx, method, params, result)
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		n := atomic.AddInt64(&h.timeouts, 1)
		if n%timeoutLogSample == 1 {
			h.logger.Printf("request %q timed out after %v (%d total timeouts)", method, timeout, n)
		}
	}
	return err
}

func (h *langHandler) notifyPrimary(ctx context.Context, method string, params interface{}) error {
	e := h.primaryEngine()
	if e == nil || !e.running() {
		return nil
	}
	return e.conn.Notify(ctx, method, params)
}

func (h *langHandler) primaryEngine() *engine {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.primary
}

func (h *langHandler) editorConn() *jsonrpc2.Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.conn
}

// The accessors below snapshot configuration knobs that a config reload may
// rewrite; readers never touch those fields without the lock.

func (h *langHandler) readinessKnobs() (policy string, grace, wait time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.config.ReadyPolicy, time.Duration(h.config.FastStartGrace), time.Duration(h.config.ReadyWaitTimeout)
}

func (h *langHandler) requestTimeout() time.Duration {
	h.mu.Lock()
	defer h.mu.Unlock()
	return time.Duration(h.config.RequestTimeout)
}

func (h *langHandler) diagnosticCategories() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.config.DiagnosticCategories...)
}

func (h *langHandler) buildFileGlobs() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.config.BuildFileGlobs...)
}

func (h *langHandler) stderrFormats() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.config.StderrFormats...)
}

func (h *langHandler) settingFor(section string) (interface{}, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.config.Settings[section]
	return v, ok
}

// workspaceReady reports whether forwarded documents reach a settled
// backend. Passed into the sync tracker so the decision happens under the
// tracker's own lock.
func (h *langHandler) workspaceReady() bool {
	return h.lifecycle.current() == StateReady
}

// Timeouts reports how many forwarded requests expired.
func (h *langHandler) Timeouts() int64 {
	return atomic.LoadInt64(&h.timeouts)
}

// Reloads reports how many workspace reloads have run.
func (h *langHandler) Reloads() int64 {
	return atomic.LoadInt64(&h.reloads)
}

// primarySender adapts the primary engine connection to the document sync
// tracker.
type primarySender struct {
	h *langHandler
}

func (s primarySender) SendOpen(ctx context.Context, params types.DidOpenTextDocumentParams) error {
	return s.h.notifyPrimary(ctx, "textDocument/didOpen", params)
}

func (s primarySender) SendChange(ctx context.Context, raw json.RawMessage) error {
	return s.h.notifyPrimary(ctx, "textDocument/didChange", raw)
}

func (s primarySender) SendClose(ctx context.Context, params types.DidCloseTextDocumentParams) error {
	return s.h.notifyPrimary(ctx, "textDocument/didClose", params)
}

func (h *langHandler) sender() docsync.Sender {
	return primarySender{h: h}
}

func fromURI(uri types.DocumentURI) (string, error) {
	u, err := url.ParseRequestURI(string(uri))
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", errors.New("invalid uri: " + string(uri))
	}
	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 2 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

func toURI(path string) types.DocumentURI {
	path = filepath.ToSlash(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return types.DocumentURI((&url.URL{Scheme: "file", Path: path}).String())
}

// rewriteURI maps a generated-source URI to a real file URI when the
// resolver can name exactly one candidate, else leaves it untouched.
func (h *langHandler) rewriteURI(uri types.DocumentURI) types.DocumentURI {
	if !strings.HasPrefix(string(uri), h.config.GeneratedScheme+":") {
		return uri
	}
	path, ok := h.resolver.Resolve(string(uri))
	if !ok {
		return uri
	}
	return toURI(path)
}
