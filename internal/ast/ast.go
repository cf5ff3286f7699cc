package ast

import (
	"strings"

	"github.com/tangzhangming/jack/internal/token"
)

// Node 是所有 AST 节点的基接口
type Node interface {
	Pos() token.Position // 返回节点在源代码中的位置
	String() string      // 返回节点的字符串表示（用于调试）
}

// Statement 表示一个语句节点 (let / if / while / do / return)
type Statement interface {
	Node
	stmtNode()
}

// Term 表示表达式中的一个项
type Term interface {
	Node
	termNode()
}

// SubroutineCall 表示一次子程序调用
//
// 两种形态：Call 是不带限定名的调用（隐式接收者为当前对象），
// ClassCall 是 target.name(...) 形式的限定调用。
type SubroutineCall interface {
	Node
	callNode()
}

// ============================================================================
// 标识符与类型
// ============================================================================

// Identifier 标识符
type Identifier struct {
	Token token.Token // IDENT token
	Name  string
}

func (i *Identifier) Pos() token.Position { return i.Token.Pos }
func (i *Identifier) String() string      { return i.Name }

// Type 变量/返回值类型
//
// Jack 只有 int、char、boolean 三个原生类型，其余都是类名。
// IsClass 为真时 Name 是类名，限定调用的接收者解析依赖它。
type Type struct {
	Token   token.Token
	Name    string
	IsClass bool
}

func (t *Type) Pos() token.Position { return t.Token.Pos }
func (t *Type) String() string      { return t.Name }

// ============================================================================
// 类与声明
// ============================================================================

// Class 一个编译单元对应的类声明
type Class struct {
	ClassToken  token.Token      // class 关键字
	Name        *Identifier      // 类名
	VarDecs     []*ClassVarDec   // 类级变量声明（static / field）
	Subroutines []*SubroutineDec // 子程序声明
}

func (c *Class) Pos() token.Position { return c.ClassToken.Pos }
func (c *Class) String() string {
	var sb strings.Builder
	sb.WriteString("class ")
	sb.WriteString(c.Name.Name)
	sb.WriteString(" {\n")
	for _, dec := range c.VarDecs {
		sb.WriteString("  ")
		sb.WriteString(dec.String())
		sb.WriteString("\n")
	}
	for _, sub := range c.Subroutines {
		sb.WriteString("  ")
		sb.WriteString(sub.String())
		sb.WriteString("\n")
	}
	sb.WriteString("}")
	return sb.String()
}

// ClassVarKind 类级变量的种类
type ClassVarKind int

const (
	StaticVar ClassVarKind = iota // static 变量
	FieldVar                      // field 实例变量
)

func (k ClassVarKind) String() string {
	if k == StaticVar {
		return "static"
	}
	return "field"
}

// ClassVarDec 类级变量声明，如 `field int x, y;`
type ClassVarDec struct {
	KindToken token.Token // static 或 field 关键字
	Kind      ClassVarKind
	VarType   *Type
	Names     []*Identifier
}

func (d *ClassVarDec) Pos() token.Position { return d.KindToken.Pos }
func (d *ClassVarDec) String() string {
	return d.Kind.String() + " " + d.VarType.Name + " " + joinIdents(d.Names) + ";"
}

// SubroutineKind 子程序的种类
type SubroutineKind int

const (
	Constructor SubroutineKind = iota // constructor
	Function                         // function（静态函数）
	Method                           // method（实例方法）
)

func (k SubroutineKind) String() string {
	switch k {
	case Constructor:
		return "constructor"
	case Function:
		return "function"
	default:
		return "method"
	}
}

// SubroutineDec 子程序声明
//
// ReturnType 为 nil 表示 void。
type SubroutineDec struct {
	KindToken  token.Token
	Kind       SubroutineKind
	ReturnType *Type
	Name       *Identifier
	Params     []*Param
	Body       *SubroutineBody
}

func (d *SubroutineDec) Pos() token.Position { return d.KindToken.Pos }
func (d *SubroutineDec) String() string {
	ret := "void"
	if d.ReturnType != nil {
		ret = d.ReturnType.Name
	}
	var params []string
	for _, p := range d.Params {
		params = append(params, p.VarType.Name+" "+p.Name.Name)
	}
	return d.Kind.String() + " " + ret + " " + d.Name.Name +
		"(" + strings.Join(params, ", ") + ")"
}

// Param 子程序形参
type Param struct {
	VarType *Type
	Name    *Identifier
}

func (p *Param) Pos() token.Position { return p.VarType.Pos() }
func (p *Param) String() string      { return p.VarType.Name + " " + p.Name.Name }

// SubroutineBody 子程序体：先是全部 var 声明，然后是语句序列
type SubroutineBody struct {
	LBrace     token.Token
	VarDecs    []*VarDec
	Statements []Statement
}

func (b *SubroutineBody) Pos() token.Position { return b.LBrace.Pos }
func (b *SubroutineBody) String() string {
	var sb strings.Builder
	sb.WriteString("{ ")
	for _, dec := range b.VarDecs {
		sb.WriteString(dec.String())
		sb.WriteString(" ")
	}
	for _, stmt := range b.Statements {
		sb.WriteString(stmt.String())
		sb.WriteString(" ")
	}
	sb.WriteString("}")
	return sb.String()
}

// VarDec 局部变量声明，如 `var Array a, b;`
type VarDec struct {
	VarToken token.Token
	VarType  *Type
	Names    []*Identifier
}

func (d *VarDec) Pos() token.Position { return d.VarToken.Pos }
func (d *VarDec) String() string {
	return "var " + d.VarType.Name + " " + joinIdents(d.Names) + ";"
}

// ============================================================================
// 语句
// ============================================================================

// LetStatement 赋值语句 `let name = expr;` 或 `let name[index] = expr;`
type LetStatement struct {
	LetToken token.Token
	Name     *Identifier
	Index    *Expression // 数组下标，nil 表示普通赋值
	Value    *Expression
}

func (s *LetStatement) Pos() token.Position { return s.LetToken.Pos }
func (s *LetStatement) stmtNode()           {}
func (s *LetStatement) String() string {
	if s.Index != nil {
		return "let " + s.Name.Name + "[" + s.Index.String() + "] = " + s.Value.String() + ";"
	}
	return "let " + s.Name.Name + " = " + s.Value.String() + ";"
}

// IfStatement 条件语句，Else 为 nil 表示没有 else 分支
type IfStatement struct {
	IfToken token.Token
	Cond    *Expression
	Then    []Statement
	Else    []Statement
}

func (s *IfStatement) Pos() token.Position { return s.IfToken.Pos }
func (s *IfStatement) stmtNode()           {}
func (s *IfStatement) String() string {
	out := "if (" + s.Cond.String() + ") {...}"
	if s.Else != nil {
		out += " else {...}"
	}
	return out
}

// WhileStatement 循环语句
type WhileStatement struct {
	WhileToken token.Token
	Cond       *Expression
	Body       []Statement
}

func (s *WhileStatement) Pos() token.Position { return s.WhileToken.Pos }
func (s *WhileStatement) stmtNode()           {}
func (s *WhileStatement) String() string {
	return "while (" + s.Cond.String() + ") {...}"
}

// DoStatement 调用语句，返回值被丢弃
type DoStatement struct {
	DoToken token.Token
	Call    SubroutineCall
}

func (s *DoStatement) Pos() token.Position { return s.DoToken.Pos }
func (s *DoStatement) stmtNode()           {}
func (s *DoStatement) String() string      { return "do " + s.Call.String() + ";" }

// ReturnStatement 返回语句，Value 为 nil 表示 void 返回
type ReturnStatement struct {
	ReturnToken token.Token
	Value       *Expression
}

func (s *ReturnStatement) Pos() token.Position { return s.ReturnToken.Pos }
func (s *ReturnStatement) stmtNode()           {}
func (s *ReturnStatement) String() string {
	if s.Value != nil {
		return "return " + s.Value.String() + ";"
	}
	return "return;"
}

// ============================================================================
// 表达式
// ============================================================================

// Op 二元运算符
type Op int

const (
	OpPlus Op = iota // +
	OpMinus          // -
	OpStar           // *
	OpSlash          // /
	OpAmp            // &
	OpPipe           // |
	OpLt             // <
	OpGt             // >
	OpEq             // =
)

var opNames = [...]string{"+", "-", "*", "/", "&", "|", "<", ">", "="}

func (op Op) String() string { return opNames[op] }

// UnaryOp 一元运算符
type UnaryOp int

const (
	UnaryNeg UnaryOp = iota // - 取负
	UnaryNot                // ~ 按位取反
)

func (op UnaryOp) String() string {
	if op == UnaryNeg {
		return "-"
	}
	return "~"
}

// OpTerm 表达式尾部的一个 (运算符, 项) 对
type OpTerm struct {
	Op   Op
	Term Term
}

// Expression 表达式：首项加上若干 (op, term) 对
//
// Tail 的形状是切片，但语法分析最多只会填入一个元素：
// `a + b + c` 在 `a + b` 之后即停止。这是刻意保留的历史行为。
type Expression struct {
	Term Term
	Tail []OpTerm
}

func (e *Expression) Pos() token.Position { return e.Term.Pos() }
func (e *Expression) String() string {
	var sb strings.Builder
	sb.WriteString(e.Term.String())
	for _, ot := range e.Tail {
		sb.WriteString(" ")
		sb.WriteString(ot.Op.String())
		sb.WriteString(" ")
		sb.WriteString(ot.Term.String())
	}
	return sb.String()
}

// ============================================================================
// 项
// ============================================================================

// IntConst 整数常量项
type IntConst struct {
	Token token.Token
	Value int
}

func (t *IntConst) Pos() token.Position { return t.Token.Pos }
func (t *IntConst) termNode()           {}
func (t *IntConst) String() string      { return t.Token.Literal }

// StrConst 字符串常量项
type StrConst struct {
	Token token.Token
	Value string
}

func (t *StrConst) Pos() token.Position { return t.Token.Pos }
func (t *StrConst) termNode()           {}
func (t *StrConst) String() string      { return `"` + t.Value + `"` }

// KeywordConstKind 关键字常量的种类
type KeywordConstKind int

const (
	TrueConst KeywordConstKind = iota // true
	FalseConst                       // false
	NullConst                        // null
	ThisConst                        // this
)

// KeywordConst 关键字常量项 (true / false / null / this)
type KeywordConst struct {
	Token token.Token
	Kind  KeywordConstKind
}

func (t *KeywordConst) Pos() token.Position { return t.Token.Pos }
func (t *KeywordConst) termNode()           {}
func (t *KeywordConst) String() string      { return t.Token.Literal }

// VarName 变量引用项
type VarName struct {
	Name *Identifier
}

func (t *VarName) Pos() token.Position { return t.Name.Pos() }
func (t *VarName) termNode()           {}
func (t *VarName) String() string      { return t.Name.Name }

// IndexTerm 数组元素项 `name[expr]`
type IndexTerm struct {
	Name  *Identifier
	Index *Expression
}

func (t *IndexTerm) Pos() token.Position { return t.Name.Pos() }
func (t *IndexTerm) termNode()           {}
func (t *IndexTerm) String() string      { return t.Name.Name + "[" + t.Index.String() + "]" }

// ParenTerm 括号表达式项 `(expr)`
type ParenTerm struct {
	LParen token.Token
	Inner  *Expression
}

func (t *ParenTerm) Pos() token.Position { return t.LParen.Pos }
func (t *ParenTerm) termNode()           {}
func (t *ParenTerm) String() string      { return "(" + t.Inner.String() + ")" }

// UnaryTerm 一元运算项 `-term` 或 `~term`
type UnaryTerm struct {
	OpToken token.Token
	Op      UnaryOp
	Operand Term
}

func (t *UnaryTerm) Pos() token.Position { return t.OpToken.Pos }
func (t *UnaryTerm) termNode()           {}
func (t *UnaryTerm) String() string      { return t.Op.String() + t.Operand.String() }

// CallTerm 子程序调用项
type CallTerm struct {
	Call SubroutineCall
}

func (t *CallTerm) Pos() token.Position { return t.Call.Pos() }
func (t *CallTerm) termNode()           {}
func (t *CallTerm) String() string      { return t.Call.String() }

// ============================================================================
// 子程序调用
// ============================================================================

// Call 不带限定名的调用 `name(args)`，隐式接收者为当前对象
type Call struct {
	Name *Identifier
	Args []*Expression
}

func (c *Call) Pos() token.Position { return c.Name.Pos() }
func (c *Call) callNode()           {}
func (c *Call) String() string      { return c.Name.Name + "(" + joinExprs(c.Args) + ")" }

// ClassCall 限定调用 `target.name(args)`
//
// Target 可能是变量名（方法调用）也可能是类名（静态调用/构造器），
// 由代码生成阶段的变量查找决定。
type ClassCall struct {
	Target *Identifier
	Name   *Identifier
	Args   []*Expression
}

func (c *ClassCall) Pos() token.Position { return c.Target.Pos() }
func (c *ClassCall) callNode()           {}
func (c *ClassCall) String() string {
	return c.Target.Name + "." + c.Name.Name + "(" + joinExprs(c.Args) + ")"
}

// ============================================================================
// 辅助函数
// ============================================================================

func joinIdents(names []*Identifier) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = n.Name
	}
	return strings.Join(parts, ", ")
}

func joinExprs(exprs []*Expression) string {
	parts := make([]string, len(exprs))
	for i, e := range exprs {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
