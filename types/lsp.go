package types

import "encoding/json"

// DocumentURI is
type DocumentURI string

// Position is
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// Range is
type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

// Location is
type Location struct {
	URI   DocumentURI `json:"uri"`
	Range Range       `json:"range"`
}

// LocationLink is
type LocationLink struct {
	OriginSelectionRange *Range      `json:"originSelectionRange,omitempty"`
	TargetURI            DocumentURI `json:"targetUri"`
	TargetRange          Range       `json:"targetRange"`
	TargetSelectionRange Range       `json:"targetSelectionRange"`
}

// TextDocumentIdentifier is
type TextDocumentIdentifier struct {
	URI DocumentURI `json:"uri"`
}

// VersionedTextDocumentIdentifier is
type VersionedTextDocumentIdentifier struct {
	TextDocumentIdentifier
	Version int `json:"version"`
}

// TextDocumentItem is
type TextDocumentItem struct {
	URI        DocumentURI `json:"uri"`
	LanguageID string      `json:"languageId"`
	Version    int         `json:"version"`
	Text       string      `json:"text"`
}

// TextDocumentPositionParams is
type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

// DidOpenTextDocumentParams is
type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

// TextDocumentContentChangeEvent is a single incremental or full-text edit.
// A nil Range means the event replaces the whole document.
type TextDocumentContentChangeEvent struct {
	Range       *Range `json:"range,omitempty"`
	RangeLength *int   `json:"rangeLength,omitempty"`
	Text        string `json:"text"`
}

// DidChangeTextDocumentParams is
type DidChangeTextDocumentParams struct {
	TextDocument   VersionedTextDocumentIdentifier  `json:"textDocument"`
	ContentChanges []TextDocumentContentChangeEvent `json:"contentChanges"`
}

// DidCloseTextDocumentParams is
type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// DidSaveTextDocumentParams is
type DidSaveTextDocumentParams struct {
	Text         *string                `json:"text,omitempty"`
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// TextEdit is
type TextEdit struct {
	Range   Range  `json:"range"`
	NewText string `json:"newText"`
}

// WorkspaceEdit is
type WorkspaceEdit struct {
	Changes         map[DocumentURI][]TextEdit `json:"changes,omitempty"`
	DocumentChanges json.RawMessage            `json:"documentChanges,omitempty"`
}

// Command is
type Command struct {
	Title     string            `json:"title"`
	Command   string            `json:"command"`
	Arguments []json.RawMessage `json:"arguments,omitempty"`
}

// Diagnostic is
type Diagnostic struct {
	Range              Range           `json:"range"`
	Severity           int             `json:"severity,omitempty"`
	Code               json.RawMessage `json:"code,omitempty"`
	Source             string          `json:"source,omitempty"`
	Message            string          `json:"message"`
	Tags               []int           `json:"tags,omitempty"`
	RelatedInformation json.RawMessage `json:"relatedInformation,omitempty"`
	Data               json.RawMessage `json:"data,omitempty"`
}

// PublishDiagnosticsParams is
type PublishDiagnosticsParams struct {
	URI         DocumentURI  `json:"uri"`
	Diagnostics []Diagnostic `json:"diagnostics"`
	Version     int          `json:"version,omitempty"`
}

// CodeActionParams is
type CodeActionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Range        Range                  `json:"range"`
	Context      json.RawMessage        `json:"context,omitempty"`
}

// CodeAction is a code action as returned by the primary engine. Grouped
// actions carry their children inside Data under "nestedCodeActions".
type CodeAction struct {
	Title       string          `json:"title"`
	Kind        string          `json:"kind,omitempty"`
	Diagnostics []Diagnostic    `json:"diagnostics,omitempty"`
	IsPreferred bool            `json:"isPreferred,omitempty"`
	Edit        *WorkspaceEdit  `json:"edit,omitempty"`
	Command     *Command        `json:"command,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// DocumentDiagnosticParams is the pull-diagnostics request. Identifier
// selects one engine diagnostic category.
type DocumentDiagnosticParams struct {
	TextDocument     TextDocumentIdentifier `json:"textDocument"`
	Identifier       string                 `json:"identifier,omitempty"`
	PreviousResultID string                 `json:"previousResultId,omitempty"`
}

// FullDocumentDiagnosticReport is
type FullDocumentDiagnosticReport struct {
	Kind     string       `json:"kind"`
	ResultID string       `json:"resultId,omitempty"`
	Items    []Diagnostic `json:"items"`
}

// FormattingOptions is
type FormattingOptions map[string]interface{}

// DocumentFormattingParams is
type DocumentFormattingParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Options      FormattingOptions      `json:"options"`
}

// DocumentRangeFormattingParams is
type DocumentRangeFormattingParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Range        Range                  `json:"range"`
	Options      FormattingOptions      `json:"options"`
}

// RenameParams is
type RenameParams struct {
	TextDocumentPositionParams
	NewName string `json:"newName"`
}

// ExecuteCommandParams is
type ExecuteCommandParams struct {
	Command   string            `json:"command"`
	Arguments []json.RawMessage `json:"arguments,omitempty"`
}

// ApplyWorkspaceEditParams is
type ApplyWorkspaceEditParams struct {
	Label string        `json:"label,omitempty"`
	Edit  WorkspaceEdit `json:"edit"`
}

// ApplyWorkspaceEditResponse is
type ApplyWorkspaceEditResponse struct {
	Applied       bool   `json:"applied"`
	FailureReason string `json:"failureReason,omitempty"`
}

// FileChangeType is
type FileChangeType int

// FileCreated is
const (
	FileCreated FileChangeType = 1
	FileChanged FileChangeType = 2
	FileDeleted FileChangeType = 3
)

// FileEvent is
type FileEvent struct {
	URI  DocumentURI    `json:"uri"`
	Type FileChangeType `json:"type"`
}

// DidChangeWatchedFilesParams is
type DidChangeWatchedFilesParams struct {
	Changes []FileEvent `json:"changes"`
}

// WorkspaceFolder is
type WorkspaceFolder struct {
	URI  DocumentURI `json:"uri"`
	Name string      `json:"name"`
}

// InitializeParams is
type InitializeParams struct {
	ProcessID             int               `json:"processId,omitempty"`
	RootURI               DocumentURI       `json:"rootUri,omitempty"`
	RootPath              string            `json:"rootPath,omitempty"`
	InitializationOptions json.RawMessage   `json:"initializationOptions,omitempty"`
	Capabilities          json.RawMessage   `json:"capabilities,omitempty"`
	WorkspaceFolders      []WorkspaceFolder `json:"workspaceFolders,omitempty"`
	Trace                 string            `json:"trace,omitempty"`
}

// TextDocumentSyncKind is
type TextDocumentSyncKind int

// TDSKNone is
const (
	TDSKNone        TextDocumentSyncKind = 0
	TDSKFull        TextDocumentSyncKind = 1
	TDSKIncremental TextDocumentSyncKind = 2
)

// TextDocumentSyncOptions is
type TextDocumentSyncOptions struct {
	OpenClose bool                 `json:"openClose"`
	Change    TextDocumentSyncKind `json:"change"`
	Save      json.RawMessage      `json:"save,omitempty"`
}

// CompletionProvider is
type CompletionProvider struct {
	ResolveProvider   bool     `json:"resolveProvider,omitempty"`
	TriggerCharacters []string `json:"triggerCharacters,omitempty"`
}

// SemanticTokensProvider is
type SemanticTokensProvider struct {
	Legend json.RawMessage `json:"legend,omitempty"`
	Range  bool            `json:"range,omitempty"`
	Full   bool            `json:"full,omitempty"`
}

// DiagnosticProvider is
type DiagnosticProvider struct {
	Identifier            string `json:"identifier,omitempty"`
	InterFileDependencies bool   `json:"interFileDependencies"`
	WorkspaceDiagnostics  bool   `json:"workspaceDiagnostics"`
}

// ServerCapabilities is
type ServerCapabilities struct {
	TextDocumentSync                 *TextDocumentSyncOptions `json:"textDocumentSync,omitempty"`
	CompletionProvider               *CompletionProvider      `json:"completionProvider,omitempty"`
	HoverProvider                    bool                     `json:"hoverProvider,omitempty"`
	SignatureHelpProvider            json.RawMessage          `json:"signatureHelpProvider,omitempty"`
	DefinitionProvider               bool                     `json:"definitionProvider,omitempty"`
	ReferencesProvider               bool                     `json:"referencesProvider,omitempty"`
	ImplementationProvider           bool                     `json:"implementationProvider,omitempty"`
	DocumentHighlightProvider        bool                     `json:"documentHighlightProvider,omitempty"`
	DocumentSymbolProvider           bool                     `json:"documentSymbolProvider,omitempty"`
	WorkspaceSymbolProvider          bool                     `json:"workspaceSymbolProvider,omitempty"`
	CodeActionProvider               json.RawMessage          `json:"codeActionProvider,omitempty"`
	DocumentFormattingProvider       bool                     `json:"documentFormattingProvider,omitempty"`
	DocumentRangeFormattingProvider  bool                     `json:"documentRangeFormattingProvider,omitempty"`
	DocumentOnTypeFormattingProvider json.RawMessage          `json:"documentOnTypeFormattingProvider,omitempty"`
	RenameProvider                   json.RawMessage          `json:"renameProvider,omitempty"`
	FoldingRangeProvider             bool                     `json:"foldingRangeProvider,omitempty"`
	SemanticTokensProvider           *SemanticTokensProvider  `json:"semanticTokensProvider,omitempty"`
	InlayHintProvider                json.RawMessage          `json:"inlayHintProvider,omitempty"`
	DiagnosticProvider               *DiagnosticProvider      `json:"diagnosticProvider,omitempty"`
	ExecuteCommandProvider           json.RawMessage          `json:"executeCommandProvider,omitempty"`
}

// ServerInfo is
type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// InitializeResult is
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   *ServerInfo        `json:"serverInfo,omitempty"`
}

// MessageType is
type MessageType int

// LogError is
const (
	LogError   MessageType = 1
	LogWarning MessageType = 2
	LogInfo    MessageType = 3
	LogLog     MessageType = 4
)

// ShowMessageParams is
type ShowMessageParams struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// MessageActionItem is
type MessageActionItem struct {
	Title string `json:"title"`
}

// ShowMessageRequestParams is
type ShowMessageRequestParams struct {
	Type    MessageType         `json:"type"`
	Message string              `json:"message"`
	Actions []MessageActionItem `json:"actions,omitempty"`
}

// LogMessageParams is
type LogMessageParams struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// WorkDoneProgressCreateParams is
type WorkDoneProgressCreateParams struct {
	Token string `json:"token"`
}

// ProgressParams is
type ProgressParams struct {
	Token string          `json:"token"`
	Value json.RawMessage `json:"value"`
}

// WorkDoneProgressBegin is
type WorkDoneProgressBegin struct {
	Kind    string `json:"kind"`
	Title   string `json:"title"`
	Message string `json:"message,omitempty"`
}

// WorkDoneProgressEnd is
type WorkDoneProgressEnd struct {
	Kind    string `json:"kind"`
	Message string `json:"message,omitempty"`
}

// ConfigurationItem is
type ConfigurationItem struct {
	ScopeURI DocumentURI `json:"scopeUri,omitempty"`
	Section  string      `json:"section,omitempty"`
}

// ConfigurationParams is
type ConfigurationParams struct {
	Items []ConfigurationItem `json:"items"`
}
