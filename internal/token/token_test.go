package token

import "testing"

func TestLookupIdent(t *testing.T) {
	tests := []struct {
		ident string
		want  TokenType
	}{
		{"class", CLASS},
		{"while", WHILE},
		{"return", RETURN},
		{"Main", IDENT},
		{"Class", IDENT}, // 大小写敏感
		{"classy", IDENT},
	}

	for _, tt := range tests {
		if got := LookupIdent(tt.ident); got != tt.want {
			t.Errorf("%q: expected %s, got %s", tt.ident, tt.want, got)
		}
	}
}

func TestLookupSymbol(t *testing.T) {
	if tok, ok := LookupSymbol('{'); !ok || tok != LBRACE {
		t.Errorf("'{': expected LBRACE, got %s (%v)", tok, ok)
	}
	if tok, ok := LookupSymbol('~'); !ok || tok != TILDE {
		t.Errorf("'~': expected TILDE, got %s (%v)", tok, ok)
	}
	if _, ok := LookupSymbol('#'); ok {
		t.Errorf("'#': expected no match")
	}
}

func TestIsKeyword(t *testing.T) {
	if !IsKeyword(CLASS) || !IsKeyword(RETURN) {
		t.Errorf("CLASS and RETURN are keywords")
	}
	if IsKeyword(IDENT) || IsKeyword(LBRACE) || IsKeyword(EOF) {
		t.Errorf("IDENT, LBRACE and EOF are not keywords")
	}
}

func TestPositionString(t *testing.T) {
	p := Position{Filename: "Main.jack", Line: 3, Column: 7}
	if p.String() != "Main.jack:3:7" {
		t.Errorf("unexpected position string: %s", p.String())
	}

	anon := Position{Line: 1, Column: 1}
	if anon.String() != "1:1" {
		t.Errorf("unexpected anonymous position string: %s", anon.String())
	}

	if (Position{}).IsValid() {
		t.Errorf("zero position should be invalid")
	}
}
