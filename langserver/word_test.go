package langserver

import (
	"testing"

	"github.com/bridgels/bridgels/types"
)

func TestWordRangeAt(t *testing.T) {
	tests := []struct {
		name string
		text string
		pos  types.Position
		want types.Range
		ok   bool
	}{
		{
			name: "middle of identifier",
			text: "var counter = 0;",
			pos:  types.Position{Line: 0, Character: 6},
			want: types.Range{
				Start: types.Position{Line: 0, Character: 4},
				End:   types.Position{Line: 0, Character: 11},
			},
			ok: true,
		},
		{
			name: "start of line",
			text: "counter++",
			pos:  types.Position{Line: 0, Character: 0},
			want: types.Range{
				Start: types.Position{Line: 0, Character: 0},
				End:   types.Position{Line: 0, Character: 7},
			},
			ok: true,
		},
		{
			name: "second line",
			text: "first\nsecond word",
			pos:  types.Position{Line: 1, Character: 8},
			want: types.Range{
				Start: types.Position{Line: 1, Character: 7},
				End:   types.Position{Line: 1, Character: 11},
			},
			ok: true,
		},
		{
			name: "cursor on operator",
			text: "counter++",
			pos:  types.Position{Line: 0, Character: 8},
			ok:   false,
		},
		{
			name: "identifier bounded by operator",
			text: "value+=1",
			pos:  types.Position{Line: 0, Character: 2},
			want: types.Range{
				Start: types.Position{Line: 0, Character: 0},
				End:   types.Position{Line: 0, Character: 5},
			},
			ok: true,
		},
		{
			name: "underscored identifier",
			text: "_total_count = 1",
			pos:  types.Position{Line: 0, Character: 5},
			want: types.Range{
				Start: types.Position{Line: 0, Character: 0},
				End:   types.Position{Line: 0, Character: 12},
			},
			ok: true,
		},
		{
			name: "whitespace only",
			text: "a   b",
			pos:  types.Position{Line: 0, Character: 2},
			ok:   false,
		},
		{
			name: "line out of range",
			text: "one line",
			pos:  types.Position{Line: 3, Character: 0},
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := wordRangeAt(tt.text, tt.pos)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Fatalf("range = %+v, want %+v", got, tt.want)
			}
		})
	}
}
