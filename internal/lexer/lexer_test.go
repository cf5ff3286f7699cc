package lexer

import (
	"testing"

	"github.com/tangzhangming/jack/internal/token"
)

func TestScanSimpleClass(t *testing.T) {
	input := `class Main {
    function void main() {
        return;
    }
}`

	l := New(input, "Main.jack")
	tokens := l.ScanTokens()

	if l.HasErrors() {
		for _, err := range l.Errors() {
			t.Errorf("lexer error: %v", err)
		}
	}

	expected := []token.TokenType{
		token.CLASS, token.IDENT, token.LBRACE,
		token.FUNCTION, token.VOID, token.IDENT, token.LPAREN, token.RPAREN, token.LBRACE,
		token.RETURN, token.SEMICOLON,
		token.RBRACE,
		token.RBRACE,
		token.EOF,
	}

	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}

	for i, want := range expected {
		if tokens[i].Type != want {
			t.Errorf("token %d: expected %s, got %s (%q)", i, want, tokens[i].Type, tokens[i].Literal)
		}
	}
}

func TestScanSymbols(t *testing.T) {
	input := `{}()[].,;+-*/&|<>=~`

	l := New(input, "test.jack")
	tokens := l.ScanTokens()

	expected := []token.TokenType{
		token.LBRACE, token.RBRACE, token.LPAREN, token.RPAREN,
		token.LBRACKET, token.RBRACKET, token.DOT, token.COMMA, token.SEMICOLON,
		token.PLUS, token.MINUS, token.STAR, token.SLASH,
		token.AMP, token.PIPE, token.LT, token.GT, token.EQ, token.TILDE,
		token.EOF,
	}

	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, want := range expected {
		if tokens[i].Type != want {
			t.Errorf("token %d: expected %s, got %s", i, want, tokens[i].Type)
		}
	}
}

func TestScanKeywordsAndIdentifiers(t *testing.T) {
	tests := []struct {
		input    string
		expected token.TokenType
	}{
		{"class", token.CLASS},
		{"constructor", token.CONSTRUCTOR},
		{"function", token.FUNCTION},
		{"method", token.METHOD},
		{"field", token.FIELD},
		{"static", token.STATIC},
		{"var", token.VAR},
		{"int", token.INT},
		{"char", token.CHAR},
		{"boolean", token.BOOLEAN},
		{"void", token.VOID},
		{"true", token.TRUE},
		{"false", token.FALSE},
		{"null", token.NULL},
		{"this", token.THIS},
		{"let", token.LET},
		{"do", token.DO},
		{"if", token.IF},
		{"else", token.ELSE},
		{"while", token.WHILE},
		{"return", token.RETURN},
		{"Main", token.IDENT},
		{"x_1", token.IDENT},
		{"_private", token.IDENT},
		{"Class", token.IDENT}, // 大小写敏感
	}

	for _, tt := range tests {
		l := New(tt.input, "test.jack")
		tokens := l.ScanTokens()

		if len(tokens) != 2 {
			t.Errorf("%q: expected 2 tokens, got %d", tt.input, len(tokens))
			continue
		}
		if tokens[0].Type != tt.expected {
			t.Errorf("%q: expected %s, got %s", tt.input, tt.expected, tokens[0].Type)
		}
		if tokens[0].Literal != tt.input {
			t.Errorf("%q: literal mismatch: %q", tt.input, tokens[0].Literal)
		}
	}
}

func TestScanIntConst(t *testing.T) {
	l := New("0 42 32767", "test.jack")
	tokens := l.ScanTokens()

	want := []string{"0", "42", "32767"}
	for i, literal := range want {
		if tokens[i].Type != token.INT_CONST {
			t.Errorf("token %d: expected INT_CONST, got %s", i, tokens[i].Type)
		}
		if tokens[i].Literal != literal {
			t.Errorf("token %d: expected %q, got %q", i, literal, tokens[i].Literal)
		}
	}
}

func TestScanStringConst(t *testing.T) {
	l := New(`"hello world"`, "test.jack")
	tokens := l.ScanTokens()

	if tokens[0].Type != token.STR_CONST {
		t.Fatalf("expected STR_CONST, got %s", tokens[0].Type)
	}
	// 字面量不含引号
	if tokens[0].Literal != "hello world" {
		t.Errorf("expected %q, got %q", "hello world", tokens[0].Literal)
	}
}

func TestScanComments(t *testing.T) {
	input := `// line comment
class /* inline */ Main /** api
doc */ {}`

	l := New(input, "test.jack")
	tokens := l.ScanTokens()

	if l.HasErrors() {
		t.Fatalf("unexpected errors: %v", l.Errors())
	}

	expected := []token.TokenType{
		token.CLASS, token.IDENT, token.LBRACE, token.RBRACE, token.EOF,
	}
	if len(tokens) != len(expected) {
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}
	for i, want := range expected {
		if tokens[i].Type != want {
			t.Errorf("token %d: expected %s, got %s", i, want, tokens[i].Type)
		}
	}
}

func TestScanErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unexpected character", "let x = #;"},
		{"unterminated string", `let s = "abc`},
		{"string across newline", "let s = \"abc\nlet"},
		{"unterminated block comment", "/* no end"},
	}

	for _, tt := range tests {
		l := New(tt.input, "test.jack")
		l.ScanTokens()

		if !l.HasErrors() {
			t.Errorf("%s: expected lexer error, got none", tt.name)
		}
	}
}

func TestPositions(t *testing.T) {
	input := "class\n  Main"

	l := New(input, "Main.jack")
	tokens := l.ScanTokens()

	if tokens[0].Pos.Line != 1 || tokens[0].Pos.Column != 1 {
		t.Errorf("class: expected 1:1, got %d:%d", tokens[0].Pos.Line, tokens[0].Pos.Column)
	}
	if tokens[1].Pos.Line != 2 || tokens[1].Pos.Column != 3 {
		t.Errorf("Main: expected 2:3, got %d:%d", tokens[1].Pos.Line, tokens[1].Pos.Column)
	}
}
