package lsp

import (
	"testing"

	"go.lsp.dev/protocol"
)

const sampleSource = `class Main {
    function void main() {
        return;
    }
}`

func TestOpenParsesDocument(t *testing.T) {
	dm := NewDocumentManager()
	doc := dm.Open("file:///Main.jack", sampleSource, 1)

	if doc.AST == nil {
		t.Fatalf("expected AST after open")
	}
	if doc.AST.Name.Name != "Main" {
		t.Errorf("expected class Main, got %s", doc.AST.Name.Name)
	}
	if len(doc.LexErrs) != 0 || doc.ParseErr != nil {
		t.Errorf("unexpected errors: %v %v", doc.LexErrs, doc.ParseErr)
	}
}

func TestOpenCollectsErrors(t *testing.T) {
	dm := NewDocumentManager()

	// 词法错误优先，语法分析不运行
	doc := dm.Open("file:///Bad.jack", `class Main { # }`, 1)
	if len(doc.LexErrs) == 0 {
		t.Errorf("expected lexer errors")
	}
	if doc.AST != nil {
		t.Errorf("expected no AST with lexer errors")
	}

	// 语法错误至多一条
	doc = dm.Open("file:///Syn.jack", `class Main { field int x }`, 1)
	if doc.ParseErr == nil {
		t.Errorf("expected parse error")
	}
}

func TestCloseRemovesDocument(t *testing.T) {
	dm := NewDocumentManager()
	dm.Open("file:///Main.jack", sampleSource, 1)
	dm.Close("file:///Main.jack")

	if dm.Get("file:///Main.jack") != nil {
		t.Errorf("expected document removed")
	}
}

func TestApplyFullReplace(t *testing.T) {
	dm := NewDocumentManager()
	dm.Open("file:///Main.jack", sampleSource, 1)

	dm.ApplyChange("file:///Main.jack", protocol.TextDocumentContentChangeEvent{
		Text: `class Other {}`,
	}, 2)

	doc := dm.Get("file:///Main.jack")
	if doc.Version != 2 {
		t.Errorf("expected version 2, got %d", doc.Version)
	}
	if doc.AST == nil || doc.AST.Name.Name != "Other" {
		t.Errorf("expected reparsed class Other")
	}
}

func TestApplyIncrementalChange(t *testing.T) {
	dm := NewDocumentManager()
	dm.Open("file:///Main.jack", "class Main {}", 1)

	// 把 Main 改成 Game
	dm.ApplyChange("file:///Main.jack", protocol.TextDocumentContentChangeEvent{
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 6},
			End:   protocol.Position{Line: 0, Character: 10},
		},
		Text: "Game",
	}, 2)

	doc := dm.Get("file:///Main.jack")
	if doc.Content != "class Game {}" {
		t.Errorf("unexpected content: %q", doc.Content)
	}
	if doc.AST == nil || doc.AST.Name.Name != "Game" {
		t.Errorf("expected reparsed class Game")
	}
}

func TestApplyMultilineChange(t *testing.T) {
	dm := NewDocumentManager()
	dm.Open("file:///Main.jack", "line0\nline1\nline2", 1)

	// 从 line0 的末尾删到 line2 的开头
	dm.ApplyChange("file:///Main.jack", protocol.TextDocumentContentChangeEvent{
		Range: protocol.Range{
			Start: protocol.Position{Line: 0, Character: 5},
			End:   protocol.Position{Line: 2, Character: 0},
		},
		Text:        " ",
		RangeLength: 7,
	}, 2)

	doc := dm.Get("file:///Main.jack")
	if doc.Content != "line0 line2" {
		t.Errorf("unexpected content: %q", doc.Content)
	}
}

func TestGetWordAt(t *testing.T) {
	dm := NewDocumentManager()
	doc := dm.Open("file:///Main.jack", "let count = other;", 1)

	tests := []struct {
		char int
		want string
	}{
		{0, "let"},
		{4, "count"},
		{7, "count"},
		{10, ""}, // = 两侧的空白
		{12, "other"},
	}

	for _, tt := range tests {
		if got := doc.GetWordAt(0, tt.char); got != tt.want {
			t.Errorf("char %d: expected %q, got %q", tt.char, tt.want, got)
		}
	}

	if doc.GetWordAt(5, 0) != "" {
		t.Errorf("out of range line should yield empty word")
	}
}
