package compiler

import (
	"fmt"
	"strings"

	"github.com/tangzhangming/jack/internal/ast"
	"github.com/tangzhangming/jack/internal/errors"
)

// ============================================================================
// subroutineCompiler - 子程序编译器
// ============================================================================
//
// 每个子程序（constructor / function / method）由一个独立的实例编译，
// 持有自己的子程序作用域符号表，标签分配则回到类编译器的全局计数器。
//
// 调用约定：
//   - constructor 先用 Memory.alloc 分配 fieldCount 个字，基址存入
//     pointer 0，返回时把基址压栈交给调用者
//   - method 的接收者作为隐式 argument 0 传入，进入时装入 pointer 0
//   - function 没有接收者，不做任何前奏
//
// 变量查找顺序：类 field -> 局部变量 -> 形参 -> 类 static。
// 四处都未命中时，限定调用的目标按类名处理（静态调用回退），
// 其余场合报未定义变量错误。
//
// ============================================================================

type subroutineCompiler struct {
	parent  *ClassCompiler
	dec     *ast.SubroutineDec
	symbols *SubroutineSymbolTable

	out []string // 已生成的指令，每元素一条
}

func newSubroutineCompiler(parent *ClassCompiler, dec *ast.SubroutineDec) *subroutineCompiler {
	return &subroutineCompiler{
		parent:  parent,
		dec:     dec,
		symbols: NewSubroutineSymbolTable(),
	}
}

// compile 编译子程序，返回指令文本（每行一条，含结尾换行）
func (s *subroutineCompiler) compile() (string, error) {
	s.buildSymbolTable()

	// function Class.name nVars
	s.emit("function %s.%s %d", s.parent.ClassName(), s.dec.Name.Name, s.symbols.VarCount())

	switch s.dec.Kind {
	case ast.Constructor:
		// 分配对象内存，基址装入 this 指针
		s.emit("push constant %d", s.parent.symbols.FieldCount())
		s.emit("call Memory.alloc 1")
		s.emit("pop pointer 0")
	case ast.Method:
		// 接收者是隐式 argument 0
		s.emit("push argument 0")
		s.emit("pop pointer 0")
	}

	if err := s.compileStatements(s.dec.Body.Statements); err != nil {
		return "", err
	}

	return strings.Join(s.out, "\n") + "\n", nil
}

// buildSymbolTable 登记接收者、形参和局部变量
func (s *subroutineCompiler) buildSymbolTable() {
	if s.dec.Kind == ast.Method {
		// 隐式接收者占据 argument 0
		thisType := &ast.Type{Name: s.parent.ClassName(), IsClass: true}
		s.symbols.DefineArg("this", thisType)
	}

	for _, p := range s.dec.Params {
		s.symbols.DefineArg(p.Name.Name, p.VarType)
	}

	for _, dec := range s.dec.Body.VarDecs {
		for _, name := range dec.Names {
			s.symbols.DefineVar(name.Name, dec.VarType)
		}
	}
}

// searchVar 按 field -> var -> argument -> static 的顺序查找变量
//
// 同名时 field 遮蔽局部变量和形参。未命中返回 nil。
func (s *subroutineCompiler) searchVar(name string) *Symbol {
	if sym, ok := s.parent.symbols.Field(name); ok {
		return sym
	}
	if sym, ok := s.symbols.Var(name); ok {
		return sym
	}
	if sym, ok := s.symbols.Arg(name); ok {
		return sym
	}
	if sym, ok := s.parent.symbols.Static(name); ok {
		return sym
	}
	return nil
}

// ============================================================================
// 语句编译
// ============================================================================

func (s *subroutineCompiler) compileStatements(stmts []ast.Statement) error {
	for _, stmt := range stmts {
		if err := s.compileStatement(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *subroutineCompiler) compileStatement(stmt ast.Statement) error {
	switch stmt := stmt.(type) {
	case *ast.LetStatement:
		return s.compileLet(stmt)
	case *ast.IfStatement:
		return s.compileIf(stmt)
	case *ast.WhileStatement:
		return s.compileWhile(stmt)
	case *ast.DoStatement:
		return s.compileDo(stmt)
	case *ast.ReturnStatement:
		return s.compileReturn(stmt)
	default:
		return errors.New(errors.MalformedConstruct, stmt.Pos(),
			"unknown statement %T", stmt)
	}
}

// compileLet 编译赋值语句
//
// 数组元素赋值先算目标地址，再算右值，用 temp 0 暂存右值以便
// 重设 that 指针：
//
//	<index>  push <base>  add  <rhs>
//	pop temp 0  pop pointer 1  push temp 0  pop that 0
func (s *subroutineCompiler) compileLet(stmt *ast.LetStatement) error {
	sym := s.searchVar(stmt.Name.Name)
	if sym == nil {
		return errors.New(errors.UnresolvedIdentifier, stmt.Name.Pos(),
			"undefined variable '%s'", stmt.Name.Name)
	}

	if stmt.Index != nil {
		if err := s.compileExpression(stmt.Index); err != nil {
			return err
		}
		s.emit("push %s %d", sym.Kind.Segment(), sym.Index)
		s.emit("add")

		if err := s.compileExpression(stmt.Value); err != nil {
			return err
		}
		s.emit("pop temp 0")
		s.emit("pop pointer 1")
		s.emit("push temp 0")
		s.emit("pop that 0")
		return nil
	}

	if err := s.compileExpression(stmt.Value); err != nil {
		return err
	}
	s.emit("pop %s %d", sym.Kind.Segment(), sym.Index)
	return nil
}

// compileIf 编译条件语句
//
// 结束标签先于 else 标签分配。条件取反后跳 else，两个分支
// 汇合到结束标签；没有 else 分支时跳转目标就是一个空分支。
func (s *subroutineCompiler) compileIf(stmt *ast.IfStatement) error {
	endLabel := s.parent.newLabel()
	elseLabel := s.parent.newLabel()

	if err := s.compileExpression(stmt.Cond); err != nil {
		return err
	}
	s.emit("not")
	s.emit("if-goto %s", elseLabel)

	if err := s.compileStatements(stmt.Then); err != nil {
		return err
	}
	s.emit("goto %s", endLabel)

	s.emit("label %s", elseLabel)
	if stmt.Else != nil {
		if err := s.compileStatements(stmt.Else); err != nil {
			return err
		}
	}
	s.emit("label %s", endLabel)

	return nil
}

// compileWhile 编译循环语句
func (s *subroutineCompiler) compileWhile(stmt *ast.WhileStatement) error {
	topLabel := s.parent.newLabel()
	exitLabel := s.parent.newLabel()

	s.emit("label %s", topLabel)
	if err := s.compileExpression(stmt.Cond); err != nil {
		return err
	}
	s.emit("not")
	s.emit("if-goto %s", exitLabel)

	if err := s.compileStatements(stmt.Body); err != nil {
		return err
	}
	s.emit("goto %s", topLabel)
	s.emit("label %s", exitLabel)

	return nil
}

// compileDo 编译调用语句，丢弃返回值
func (s *subroutineCompiler) compileDo(stmt *ast.DoStatement) error {
	if err := s.compileCall(stmt.Call); err != nil {
		return err
	}
	s.emit("pop temp 0")
	return nil
}

// compileReturn 编译返回语句
//
// void 子程序也必须向调用者压一个占位返回值（调用方会 pop temp 0）。
func (s *subroutineCompiler) compileReturn(stmt *ast.ReturnStatement) error {
	if stmt.Value != nil {
		if err := s.compileExpression(stmt.Value); err != nil {
			return err
		}
	} else {
		s.emit("push constant 0")
	}
	s.emit("return")
	return nil
}

// ============================================================================
// 表达式编译
// ============================================================================

func (s *subroutineCompiler) compileExpression(expr *ast.Expression) error {
	if err := s.compileTerm(expr.Term); err != nil {
		return err
	}

	for _, ot := range expr.Tail {
		if err := s.compileTerm(ot.Term); err != nil {
			return err
		}
		s.compileOp(ot.Op)
	}

	return nil
}

// compileOp 编译二元运算符（两个操作数都已在栈上）
//
// 乘除没有对应指令，翻译成对 Math 标准库的调用。
func (s *subroutineCompiler) compileOp(op ast.Op) {
	switch op {
	case ast.OpPlus:
		s.emit("add")
	case ast.OpMinus:
		s.emit("sub")
	case ast.OpStar:
		s.emit("call Math.multiply 2")
	case ast.OpSlash:
		s.emit("call Math.divide 2")
	case ast.OpAmp:
		s.emit("and")
	case ast.OpPipe:
		s.emit("or")
	case ast.OpLt:
		s.emit("lt")
	case ast.OpGt:
		s.emit("gt")
	case ast.OpEq:
		s.emit("eq")
	}
}

func (s *subroutineCompiler) compileTerm(term ast.Term) error {
	switch term := term.(type) {

	case *ast.IntConst:
		s.emit("push constant %d", term.Value)

	case *ast.StrConst:
		s.compileString(term.Value)

	case *ast.KeywordConst:
		switch term.Kind {
		case ast.TrueConst:
			// true 是全 1 位模式
			s.emit("push constant 1")
			s.emit("neg")
		case ast.FalseConst, ast.NullConst:
			s.emit("push constant 0")
		case ast.ThisConst:
			s.emit("push pointer 0")
		}

	case *ast.VarName:
		sym := s.searchVar(term.Name.Name)
		if sym == nil {
			return errors.New(errors.UnresolvedIdentifier, term.Name.Pos(),
				"undefined variable '%s'", term.Name.Name)
		}
		s.emit("push %s %d", sym.Kind.Segment(), sym.Index)

	case *ast.IndexTerm:
		sym := s.searchVar(term.Name.Name)
		if sym == nil {
			return errors.New(errors.UnresolvedIdentifier, term.Name.Pos(),
				"undefined variable '%s'", term.Name.Name)
		}
		if err := s.compileExpression(term.Index); err != nil {
			return err
		}
		s.emit("push %s %d", sym.Kind.Segment(), sym.Index)
		s.emit("add")
		s.emit("pop pointer 1")
		s.emit("push that 0")

	case *ast.ParenTerm:
		return s.compileExpression(term.Inner)

	case *ast.UnaryTerm:
		if err := s.compileTerm(term.Operand); err != nil {
			return err
		}
		if term.Op == ast.UnaryNeg {
			s.emit("neg")
		} else {
			s.emit("not")
		}

	case *ast.CallTerm:
		return s.compileCall(term.Call)

	default:
		return errors.New(errors.MalformedConstruct, term.Pos(),
			"unknown term %T", term)
	}

	return nil
}

// compileString 编译字符串常量
//
// 运行时逐字符构造：先 String.new 再逐个 appendChar。
func (s *subroutineCompiler) compileString(value string) {
	s.emit("push constant %d", len(value))
	s.emit("call String.new 1")
	for i := 0; i < len(value); i++ {
		s.emit("push constant %d", value[i])
		s.emit("call String.appendChar 2")
	}
}

// ============================================================================
// 子程序调用编译
// ============================================================================

// compileCall 编译一次子程序调用
//
// 不带限定名的调用是对当前对象的方法调用：this 作为隐式首参。
// 限定调用的目标先按变量查找：命中且是对象类型则为方法调用，
// 目标对象作为隐式首参；未命中则按类名处理为静态调用。
func (s *subroutineCompiler) compileCall(call ast.SubroutineCall) error {
	switch call := call.(type) {

	case *ast.Call:
		s.emit("push pointer 0")
		for _, arg := range call.Args {
			if err := s.compileExpression(arg); err != nil {
				return err
			}
		}
		s.emit("call %s.%s %d", s.parent.ClassName(), call.Name.Name, len(call.Args)+1)
		return nil

	case *ast.ClassCall:
		if sym := s.searchVar(call.Target.Name); sym != nil {
			// 方法调用：目标对象作为隐式首参
			if !sym.Type.IsClass {
				return errors.New(errors.MalformedConstruct, call.Target.Pos(),
					"'%s' has primitive type %s and cannot receive method calls",
					call.Target.Name, sym.Type.Name).WithCode(errors.E0400)
			}
			s.emit("push %s %d", sym.Kind.Segment(), sym.Index)
			for _, arg := range call.Args {
				if err := s.compileExpression(arg); err != nil {
					return err
				}
			}
			s.emit("call %s.%s %d", sym.Type.Name, call.Name.Name, len(call.Args)+1)
			return nil
		}

		// 类名回退：静态调用或构造器调用
		for _, arg := range call.Args {
			if err := s.compileExpression(arg); err != nil {
				return err
			}
		}
		s.emit("call %s.%s %d", call.Target.Name, call.Name.Name, len(call.Args))
		return nil

	default:
		return errors.New(errors.MalformedConstruct, call.Pos(),
			"unknown call %T", call)
	}
}

// ============================================================================
// 指令输出
// ============================================================================

func (s *subroutineCompiler) emit(format string, args ...interface{}) {
	if len(args) == 0 {
		s.out = append(s.out, format)
		return
	}
	s.out = append(s.out, fmt.Sprintf(format, args...))
}
