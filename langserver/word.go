package langserver

import (
	"strings"
	"unicode"
	"unicode/utf16"

	"github.com/mattn/go-unicodeclass"

	"github.com/bridgels/bridgels/types"
)

// Classes below unicodeclass's own range, so identifier and space runs never
// merge with the classes unicodeclass assigns to operator punctuation.
const (
	classIdent unicodeclass.Class = -10
	classSpace unicodeclass.Class = -11
)

func isIdentRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// wordClass buckets identifier runes and whitespace itself and defers to
// unicodeclass for everything else, so CJK and symbol runs still split the
// way the library dictates.
func wordClass(r rune) unicodeclass.Class {
	switch {
	case isIdentRune(r):
		return classIdent
	case unicode.IsSpace(r):
		return classSpace
	default:
		return unicodeclass.Is(r)
	}
}

// wordRangeAt returns the range of the identifier under pos in text, using
// UTF-16 columns as LSP requires. Positions over whitespace or operator
// punctuation report no word.
func wordRangeAt(text string, pos types.Position) (types.Range, bool) {
	lines := strings.Split(text, "\n")
	if pos.Line < 0 || pos.Line >= len(lines) {
		return types.Range{}, false
	}
	chars := utf16.Encode([]rune(lines[pos.Line]))
	if pos.Character < 0 || pos.Character > len(chars) {
		return types.Range{}, false
	}

	prevPos := 0
	currPos := -1
	prevCls := unicodeclass.Invalid
	for i, char := range chars {
		currCls := wordClass(rune(char))
		if currCls != prevCls {
			if i <= pos.Character {
				prevPos = i
			} else {
				currPos = i
				break
			}
		}
		prevCls = currCls
	}
	if currPos == -1 {
		currPos = len(chars)
	}
	if prevPos == currPos {
		return types.Range{}, false
	}
	word := string(utf16.Decode(chars[prevPos:currPos]))
	if strings.TrimSpace(word) == "" {
		return types.Range{}, false
	}
	for _, r := range word {
		if !isIdentRune(r) {
			return types.Range{}, false
		}
	}
	return types.Range{
		Start: types.Position{Line: pos.Line, Character: prevPos},
		End:   types.Position{Line: pos.Line, Character: currPos},
	}, true
}
