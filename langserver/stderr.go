package langserver

import (
	"context"

	"github.com/reviewdog/errorformat"

	"github.com/bridgels/bridgels/types"
)

// scrapeStderr reads the engine's stderr until the process exits. Lines
// matching the configured errorformat patterns surface in the editor as log
// messages and, when they carry a file position, as diagnostics.
func (h *langHandler) scrapeStderr(e *engine) {
	formats := h.stderrFormats()
	if len(formats) == 0 {
		formats = []string{"%f(%l,%c): %t%*[^:]: %m"}
	}
	efms, err := errorformat.NewErrorformat(formats)
	if err != nil {
		h.logger.Printf("engine %s: invalid stderr-formats: %v", e.name, err)
		return
	}
	h.scanStderr(context.Background(), e, efms)
}

func (h *langHandler) scanStderr(ctx context.Context, e *engine, efms *errorformat.Errorformat) {
	byFile := make(map[types.DocumentURI][]types.Diagnostic)
	scanner := efms.NewScanner(e.stderr)
	for scanner.Scan() {
		entry := scanner.Entry()
		if h.loglevel >= 2 {
			h.logger.Printf("engine %s: stderr: %s", e.name, entry.Text)
		}
		if !entry.Valid {
			continue
		}
		h.logMessage(ctx, severityToMessageType(entry.Type), entry.Text)
		if entry.Filename == "" || entry.Lnum <= 0 {
			continue
		}
		uri := toURI(entry.Filename)
		col := entry.Col
		if col > 0 {
			col--
		}
		byFile[uri] = append(byFile[uri], types.Diagnostic{
			Range: types.Range{
				Start: types.Position{Line: entry.Lnum - 1, Character: col},
				End:   types.Position{Line: entry.Lnum - 1, Character: col},
			},
			Severity: severityToDiagnostic(entry.Type),
			Source:   e.name,
			Message:  entry.Text,
		})
		h.publishDiagnostics(ctx, uri, byFile[uri])
	}
}

func severityToMessageType(t rune) types.MessageType {
	switch t {
	case 'E', 'e':
		return types.LogError
	case 'W', 'w':
		return types.LogWarning
	default:
		return types.LogInfo
	}
}

func severityToDiagnostic(t rune) int {
	switch t {
	case 'E', 'e':
		return 1
	case 'W', 'w':
		return 2
	default:
		return 3
	}
}
