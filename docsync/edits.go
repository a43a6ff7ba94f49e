package docsync

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/bridgels/bridgels/types"
)

// applyChange splices one content-change event into text. A nil range means
// the event replaces the whole document. LSP positions count UTF-16 code
// units within a line.
func applyChange(text string, change types.TextDocumentContentChangeEvent) (string, error) {
	if change.Range == nil {
		return change.Text, nil
	}
	start, err := offsetAt(text, change.Range.Start)
	if err != nil {
		return "", err
	}
	end, err := offsetAt(text, change.Range.End)
	if err != nil {
		return "", err
	}
	if end < start {
		return "", fmt.Errorf("docsync: inverted range %v", *change.Range)
	}
	return text[:start] + change.Text + text[end:], nil
}

// offsetAt converts an LSP position to a byte offset within text. Characters
// past the end of a line clamp to the line end, as clients routinely address
// the position just beyond the last character.
func offsetAt(text string, pos types.Position) (int, error) {
	if pos.Line < 0 || pos.Character < 0 {
		return 0, fmt.Errorf("docsync: negative position %d:%d", pos.Line, pos.Character)
	}
	offset := 0
	for line := 0; line < pos.Line; line++ {
		nl := strings.IndexByte(text[offset:], '\n')
		if nl < 0 {
			return 0, fmt.Errorf("docsync: line %d beyond end of document", pos.Line)
		}
		offset += nl + 1
	}
	lineEnd := strings.IndexByte(text[offset:], '\n')
	if lineEnd < 0 {
		lineEnd = len(text) - offset
	}
	lineText := text[offset : offset+lineEnd]

	units := 0
	for i, r := range lineText {
		if units >= pos.Character {
			return offset + i, nil
		}
		// utf16.RuneLen needs Go 1.23; Encode counts identically, with
		// invalid runes encoding as a single replacement unit.
		units += len(utf16.Encode([]rune{r}))
	}
	return offset + len(lineText), nil
}
