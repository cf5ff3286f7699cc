package compiler

import (
	"strings"
	"testing"

	"github.com/tangzhangming/jack/internal/errors"
)

func compileOrFail(t *testing.T, source string) []string {
	t.Helper()
	code, err := New().CompileSource(source, "test.jack")
	if err != nil {
		t.Fatalf("compile error: %v", err)
	}
	return strings.Split(strings.TrimSuffix(code, "\n"), "\n")
}

func expectCode(t *testing.T, got, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d instructions, got %d:\n%s", len(want), len(got), strings.Join(got, "\n"))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("instruction %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestCompileFunction(t *testing.T) {
	got := compileOrFail(t, `class Main {
		function void main() {
			do Output.printInt(1);
			return;
		}
	}`)

	expectCode(t, got, []string{
		"function Main.main 0",
		"push constant 1",
		"call Output.printInt 1",
		"pop temp 0",
		"push constant 0",
		"return",
	})
}

func TestCompileConstructor(t *testing.T) {
	got := compileOrFail(t, `class Point {
		field int x, y;
		constructor Point new(int ax, int ay) {
			let x = ax;
			let y = ay;
			return this;
		}
	}`)

	expectCode(t, got, []string{
		"function Point.new 0",
		"push constant 2",
		"call Memory.alloc 1",
		"pop pointer 0",
		"push argument 0",
		"pop this 0",
		"push argument 1",
		"pop this 1",
		"push pointer 0",
		"return",
	})
}

func TestCompileMethod(t *testing.T) {
	got := compileOrFail(t, `class Point {
		field int x, y;
		method int getY() {
			return y;
		}
	}`)

	// 接收者占据 argument 0，进入时装入 this 指针
	expectCode(t, got, []string{
		"function Point.getY 0",
		"push argument 0",
		"pop pointer 0",
		"push this 1",
		"return",
	})
}

func TestMethodParamsShiftByOne(t *testing.T) {
	got := compileOrFail(t, `class Point {
		method int plus(int dx) {
			return dx;
		}
	}`)

	expectCode(t, got, []string{
		"function Point.plus 0",
		"push argument 0",
		"pop pointer 0",
		"push argument 1",
		"return",
	})
}

func TestLocalVarCountInHeader(t *testing.T) {
	got := compileOrFail(t, `class Main {
		function void main() {
			var int a, b;
			var int c;
			return;
		}
	}`)

	if got[0] != "function Main.main 3" {
		t.Errorf("expected 3 locals in header, got %q", got[0])
	}
}

// 同名时 field 遮蔽局部变量
func TestFieldShadowsLocal(t *testing.T) {
	got := compileOrFail(t, `class Shadow {
		field int v;
		method int get() {
			var int v;
			let v = 1;
			return v;
		}
	}`)

	expectCode(t, got, []string{
		"function Shadow.get 1",
		"push argument 0",
		"pop pointer 0",
		"push constant 1",
		"pop this 0",
		"push this 0",
		"return",
	})
}

func TestCompileIfElse(t *testing.T) {
	got := compileOrFail(t, `class Flow {
		function void run(int n) {
			if (n > 0) {
				do Output.printInt(n);
			} else {
				do Output.printInt(0);
			}
			return;
		}
	}`)

	// 结束标签先分配（Flow_0），else 标签随后（Flow_1）
	expectCode(t, got, []string{
		"function Flow.run 0",
		"push argument 0",
		"push constant 0",
		"gt",
		"not",
		"if-goto Flow_1",
		"push argument 0",
		"call Output.printInt 1",
		"pop temp 0",
		"goto Flow_0",
		"label Flow_1",
		"push constant 0",
		"call Output.printInt 1",
		"pop temp 0",
		"label Flow_0",
		"push constant 0",
		"return",
	})
}

func TestCompileIfWithoutElse(t *testing.T) {
	got := compileOrFail(t, `class Flow {
		function void run(int n) {
			if (n = 0) {
				let n = 1;
			}
			return;
		}
	}`)

	expectCode(t, got, []string{
		"function Flow.run 0",
		"push argument 0",
		"push constant 0",
		"eq",
		"not",
		"if-goto Flow_1",
		"push constant 1",
		"pop argument 0",
		"goto Flow_0",
		"label Flow_1",
		"label Flow_0",
		"push constant 0",
		"return",
	})
}

func TestCompileWhile(t *testing.T) {
	got := compileOrFail(t, `class Loop {
		function void run(int n) {
			while (n < 3) {
				let n = n + 1;
			}
			return;
		}
	}`)

	expectCode(t, got, []string{
		"function Loop.run 0",
		"label Loop_0",
		"push argument 0",
		"push constant 3",
		"lt",
		"not",
		"if-goto Loop_1",
		"push argument 0",
		"push constant 1",
		"add",
		"pop argument 0",
		"goto Loop_0",
		"label Loop_1",
		"push constant 0",
		"return",
	})
}

// 标签计数器是类级的，跨子程序单调递增
func TestLabelCounterSpansSubroutines(t *testing.T) {
	got := compileOrFail(t, `class Two {
		function void a(int n) {
			while (n < 1) {
				let n = n + 1;
			}
			return;
		}
		function void b(int n) {
			while (n < 1) {
				let n = n + 1;
			}
			return;
		}
	}`)

	code := strings.Join(got, "\n")
	for _, label := range []string{"label Two_0", "label Two_1", "label Two_2", "label Two_3"} {
		if !strings.Contains(code, label) {
			t.Errorf("missing %s in:\n%s", label, code)
		}
	}
}

func TestCompileKeywordConstants(t *testing.T) {
	got := compileOrFail(t, `class K {
		method boolean all() {
			var boolean b;
			let b = true;
			let b = false;
			let b = null;
			return this;
		}
	}`)

	expectCode(t, got, []string{
		"function K.all 1",
		"push argument 0",
		"pop pointer 0",
		"push constant 1",
		"neg",
		"pop local 0",
		"push constant 0",
		"pop local 0",
		"push constant 0",
		"pop local 0",
		"push pointer 0",
		"return",
	})
}

func TestCompileStringConstant(t *testing.T) {
	got := compileOrFail(t, `class S {
		function void f() {
			var String s;
			let s = "Hi";
			return;
		}
	}`)

	expectCode(t, got, []string{
		"function S.f 1",
		"push constant 2",
		"call String.new 1",
		"push constant 72",
		"call String.appendChar 2",
		"push constant 105",
		"call String.appendChar 2",
		"pop local 0",
		"push constant 0",
		"return",
	})
}

func TestCompileOperators(t *testing.T) {
	tests := []struct {
		expr string
		want string
	}{
		{"a + b", "add"},
		{"a - b", "sub"},
		{"a * b", "call Math.multiply 2"},
		{"a / b", "call Math.divide 2"},
		{"a & b", "and"},
		{"a | b", "or"},
		{"a < b", "lt"},
		{"a > b", "gt"},
		{"a = b", "eq"},
	}

	for _, tt := range tests {
		got := compileOrFail(t, `class Op {
			function int f(int a, int b) {
				return `+tt.expr+`;
			}
		}`)

		expectCode(t, got, []string{
			"function Op.f 0",
			"push argument 0",
			"push argument 1",
			tt.want,
			"return",
		})
	}
}

func TestCompileUnary(t *testing.T) {
	got := compileOrFail(t, `class U {
		function int f(int a) {
			let a = -a;
			return ~a;
		}
	}`)

	expectCode(t, got, []string{
		"function U.f 0",
		"push argument 0",
		"neg",
		"pop argument 0",
		"push argument 0",
		"not",
		"return",
	})
}

func TestCompileArrayRead(t *testing.T) {
	got := compileOrFail(t, `class A {
		function int f(Array a, int i) {
			return a[i];
		}
	}`)

	// 先下标后基址
	expectCode(t, got, []string{
		"function A.f 0",
		"push argument 1",
		"push argument 0",
		"add",
		"pop pointer 1",
		"push that 0",
		"return",
	})
}

func TestCompileArrayWrite(t *testing.T) {
	got := compileOrFail(t, `class A {
		function void f(Array a, int i) {
			let a[i] = a[0];
			return;
		}
	}`)

	expectCode(t, got, []string{
		"function A.f 0",
		"push argument 1",
		"push argument 0",
		"add",
		"push constant 0",
		"push argument 0",
		"add",
		"pop pointer 1",
		"push that 0",
		"pop temp 0",
		"pop pointer 1",
		"push temp 0",
		"pop that 0",
		"push constant 0",
		"return",
	})
}

// 不带限定名的调用是对当前对象的方法调用
func TestCompileUnqualifiedCall(t *testing.T) {
	got := compileOrFail(t, `class Game {
		method void tick() {
			do step(1);
			return;
		}
	}`)

	expectCode(t, got, []string{
		"function Game.tick 0",
		"push argument 0",
		"pop pointer 0",
		"push pointer 0",
		"push constant 1",
		"call Game.step 2",
		"pop temp 0",
		"push constant 0",
		"return",
	})
}

// 限定调用：目标是对象变量时接收者作为隐式首参
func TestCompileMethodCallOnVariable(t *testing.T) {
	got := compileOrFail(t, `class Game {
		field Ball ball;
		method void tick() {
			do ball.move(2);
			return;
		}
	}`)

	expectCode(t, got, []string{
		"function Game.tick 0",
		"push argument 0",
		"pop pointer 0",
		"push this 0",
		"push constant 2",
		"call Ball.move 2",
		"pop temp 0",
		"push constant 0",
		"return",
	})
}

// 限定调用：目标不是已定义变量时按类名处理
func TestCompileStaticCallFallback(t *testing.T) {
	got := compileOrFail(t, `class Main {
		function void main() {
			do Screen.clearScreen();
			return;
		}
	}`)

	expectCode(t, got, []string{
		"function Main.main 0",
		"call Screen.clearScreen 0",
		"pop temp 0",
		"push constant 0",
		"return",
	})
}

func TestStaticVariables(t *testing.T) {
	got := compileOrFail(t, `class Counter {
		static int count;
		function void inc() {
			let count = count + 1;
			return;
		}
	}`)

	expectCode(t, got, []string{
		"function Counter.inc 0",
		"push static 0",
		"push constant 1",
		"add",
		"pop static 0",
		"push constant 0",
		"return",
	})
}

func TestUndefinedVariable(t *testing.T) {
	_, err := New().CompileSource(`class Main {
		function void main() {
			let ghost = 1;
			return;
		}
	}`, "test.jack")

	if err == nil {
		t.Fatalf("expected error")
	}
	ce, ok := err.(*errors.CompileError)
	if !ok {
		t.Fatalf("expected CompileError, got %T", err)
	}
	if ce.Kind != errors.UnresolvedIdentifier {
		t.Errorf("expected UnresolvedIdentifier, got %s", ce.Kind)
	}
}

func TestPrimitiveReceiver(t *testing.T) {
	_, err := New().CompileSource(`class Main {
		field int n;
		method void run() {
			do n.foo();
			return;
		}
	}`, "test.jack")

	if err == nil {
		t.Fatalf("expected error")
	}
	ce, ok := err.(*errors.CompileError)
	if !ok {
		t.Fatalf("expected CompileError, got %T", err)
	}
	if ce.Kind != errors.MalformedConstruct {
		t.Errorf("expected MalformedConstruct, got %s", ce.Kind)
	}
	if ce.Code != errors.E0400 {
		t.Errorf("expected code E0400, got %s", ce.Code)
	}
}
