package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/tangzhangming/jack/internal/ast"
	"github.com/tangzhangming/jack/internal/errors"
)

func parseClassOrFail(t *testing.T, input string) *ast.Class {
	t.Helper()
	class, err := New(input, "test.jack").Parse()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	return class
}

func TestParseEmptyClass(t *testing.T) {
	class := parseClassOrFail(t, `class Main {}`)

	if class.Name.Name != "Main" {
		t.Errorf("expected class Main, got %s", class.Name.Name)
	}
	if len(class.VarDecs) != 0 || len(class.Subroutines) != 0 {
		t.Errorf("expected empty class body")
	}
}

func TestParseClassVarDecs(t *testing.T) {
	class := parseClassOrFail(t, `class Point {
		field int x, y;
		static Point origin;
	}`)

	if len(class.VarDecs) != 2 {
		t.Fatalf("expected 2 var decs, got %d", len(class.VarDecs))
	}

	fieldDec := class.VarDecs[0]
	if fieldDec.Kind != ast.FieldVar {
		t.Errorf("expected field kind, got %s", fieldDec.Kind)
	}
	if len(fieldDec.Names) != 2 || fieldDec.Names[0].Name != "x" || fieldDec.Names[1].Name != "y" {
		t.Errorf("unexpected field names: %s", fieldDec.String())
	}
	if fieldDec.VarType.Name != "int" || fieldDec.VarType.IsClass {
		t.Errorf("expected primitive int type")
	}

	staticDec := class.VarDecs[1]
	if staticDec.Kind != ast.StaticVar {
		t.Errorf("expected static kind, got %s", staticDec.Kind)
	}
	if !staticDec.VarType.IsClass || staticDec.VarType.Name != "Point" {
		t.Errorf("expected class type Point")
	}
}

func TestParseSubroutineKinds(t *testing.T) {
	class := parseClassOrFail(t, `class Point {
		constructor Point new(int ax, int ay) { return this; }
		method int getX() { return 0; }
		function void print(Point p) { return; }
	}`)

	if len(class.Subroutines) != 3 {
		t.Fatalf("expected 3 subroutines, got %d", len(class.Subroutines))
	}

	ctor := class.Subroutines[0]
	if ctor.Kind != ast.Constructor || ctor.Name.Name != "new" {
		t.Errorf("unexpected constructor: %s", ctor.String())
	}
	if len(ctor.Params) != 2 {
		t.Errorf("expected 2 params, got %d", len(ctor.Params))
	}
	if ctor.ReturnType == nil || ctor.ReturnType.Name != "Point" {
		t.Errorf("expected Point return type")
	}

	method := class.Subroutines[1]
	if method.Kind != ast.Method {
		t.Errorf("expected method kind")
	}

	fn := class.Subroutines[2]
	if fn.Kind != ast.Function {
		t.Errorf("expected function kind")
	}
	// void 返回用 nil 表示
	if fn.ReturnType != nil {
		t.Errorf("expected nil return type for void, got %s", fn.ReturnType.Name)
	}
}

func TestParseStatements(t *testing.T) {
	class := parseClassOrFail(t, `class Main {
		function void main() {
			var int i;
			let i = 0;
			while (i < 10) {
				let i = i + 1;
			}
			if (i = 10) {
				do Output.printInt(i);
			} else {
				do nothing();
			}
			return;
		}
	}`)

	body := class.Subroutines[0].Body
	if len(body.VarDecs) != 1 {
		t.Fatalf("expected 1 var dec, got %d", len(body.VarDecs))
	}
	if len(body.Statements) != 4 {
		t.Fatalf("expected 4 statements, got %d", len(body.Statements))
	}

	if _, ok := body.Statements[0].(*ast.LetStatement); !ok {
		t.Errorf("statement 0: expected let, got %T", body.Statements[0])
	}
	if _, ok := body.Statements[1].(*ast.WhileStatement); !ok {
		t.Errorf("statement 1: expected while, got %T", body.Statements[1])
	}
	ifStmt, ok := body.Statements[2].(*ast.IfStatement)
	if !ok {
		t.Fatalf("statement 2: expected if, got %T", body.Statements[2])
	}
	if ifStmt.Else == nil {
		t.Errorf("expected else branch")
	}
	if _, ok := body.Statements[3].(*ast.ReturnStatement); !ok {
		t.Errorf("statement 3: expected return, got %T", body.Statements[3])
	}
}

func TestParseLetArray(t *testing.T) {
	class := parseClassOrFail(t, `class Main {
		function void main() {
			let a[i + 1] = 5;
			return;
		}
	}`)

	let := class.Subroutines[0].Body.Statements[0].(*ast.LetStatement)
	if let.Index == nil {
		t.Fatalf("expected array index expression")
	}
	if let.Index.String() != "i + 1" {
		t.Errorf("unexpected index: %s", let.Index.String())
	}
}

// 表达式只捕获首项和至多一个 (op, term) 对
func TestExpressionOnePairLimit(t *testing.T) {
	class := parseClassOrFail(t, `class Main {
		function void main() {
			let x = a + b;
			return;
		}
	}`)

	let := class.Subroutines[0].Body.Statements[0].(*ast.LetStatement)
	if len(let.Value.Tail) != 1 {
		t.Fatalf("expected 1 op-term pair, got %d", len(let.Value.Tail))
	}
	if let.Value.Tail[0].Op != ast.OpPlus {
		t.Errorf("expected +, got %s", let.Value.Tail[0].Op)
	}
}

// `a + b + c` 在 `a + b` 之后停止，余下 token 导致后续解析失败
func TestExpressionTruncatesAfterOnePair(t *testing.T) {
	_, err := New(`class Main {
		function void main() {
			let x = a + b + c;
			return;
		}
	}`, "test.jack").Parse()

	if err == nil {
		t.Fatalf("expected parse failure after truncated expression")
	}
}

func TestParseTermForms(t *testing.T) {
	class := parseClassOrFail(t, `class Main {
		function void main() {
			let a = 42;
			let b = "str";
			let c = true;
			let d = this;
			let e = x;
			let f = arr[0];
			let g = (1 + 2);
			let h = -x;
			let i = ~flag;
			let j = helper();
			let k = Math.abs(x);
			let l = p.getX();
			return;
		}
	}`)

	stmts := class.Subroutines[0].Body.Statements
	terms := []struct {
		idx  int
		want string
	}{
		{0, "*ast.IntConst"},
		{1, "*ast.StrConst"},
		{2, "*ast.KeywordConst"},
		{3, "*ast.KeywordConst"},
		{4, "*ast.VarName"},
		{5, "*ast.IndexTerm"},
		{6, "*ast.ParenTerm"},
		{7, "*ast.UnaryTerm"},
		{8, "*ast.UnaryTerm"},
		{9, "*ast.CallTerm"},
		{10, "*ast.CallTerm"},
		{11, "*ast.CallTerm"},
	}

	for _, tt := range terms {
		let := stmts[tt.idx].(*ast.LetStatement)
		got := fmt.Sprintf("%T", let.Value.Term)
		if got != tt.want {
			t.Errorf("statement %d: expected term %s, got %s", tt.idx, tt.want, got)
		}
	}

	// 限定调用与非限定调用
	call9 := stmts[9].(*ast.LetStatement).Value.Term.(*ast.CallTerm)
	if _, ok := call9.Call.(*ast.Call); !ok {
		t.Errorf("helper(): expected unqualified call, got %T", call9.Call)
	}
	call10 := stmts[10].(*ast.LetStatement).Value.Term.(*ast.CallTerm)
	if cc, ok := call10.Call.(*ast.ClassCall); !ok || cc.Target.Name != "Math" {
		t.Errorf("Math.abs: expected qualified call on Math")
	}
}

func TestParseIntConstOutOfRange(t *testing.T) {
	_, err := New(`class Main {
		function void main() {
			let x = 40000;
			return;
		}
	}`, "test.jack").Parse()

	if err == nil {
		t.Fatalf("expected out of range error")
	}
}

func TestParseSyntaxErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing class keyword", `Main {}`},
		{"missing class name", `class {}`},
		{"missing semicolon", `class Main { field int x }`},
		{"missing rbrace", `class Main {`},
		{"bad type", `class Main { field let x; }`},
		{"missing term", `class Main { function void f() { let x = ; return; } }`},
		{"interleaved decls", `class Main {
			function void f() { return; }
			field int x;
		}`},
	}

	for _, tt := range tests {
		_, err := New(tt.input, "test.jack").Parse()
		if err == nil {
			t.Errorf("%s: expected syntax error, got none", tt.name)
			continue
		}
		ce, ok := err.(*errors.CompileError)
		if !ok {
			t.Errorf("%s: expected CompileError, got %T", tt.name, err)
			continue
		}
		if ce.Kind != errors.SyntaxError {
			t.Errorf("%s: expected SyntaxError kind, got %s", tt.name, ce.Kind)
		}
	}
}

func TestLexicalErrorSurfacesFirst(t *testing.T) {
	_, err := New(`class Main { let x = #; }`, "test.jack").Parse()
	if err == nil {
		t.Fatalf("expected error")
	}

	ce, ok := err.(*errors.CompileError)
	if !ok {
		t.Fatalf("expected CompileError, got %T", err)
	}
	if ce.Kind != errors.LexicalGap {
		t.Errorf("expected LexicalGap, got %s", ce.Kind)
	}
}

func TestErrorMessageCarriesExpectation(t *testing.T) {
	_, err := New(`class Main { field int x }`, "test.jack").Parse()
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "expected ';'") {
		t.Errorf("error should name the expected token: %v", err)
	}
}

// 只解析第一个类，其后的 token 不会被消费
func TestParseFirstClassOnly(t *testing.T) {
	class := parseClassOrFail(t, `class A {}
class B {}`)

	if class.Name.Name != "A" {
		t.Errorf("expected class A, got %s", class.Name.Name)
	}
}
