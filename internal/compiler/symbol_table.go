package compiler

import (
	"github.com/tangzhangming/jack/internal/ast"
)

// ============================================================================
// 符号表
// ============================================================================
//
// 两级作用域，两张独立的表：
//   - ClassSymbolTable      类作用域，容纳 static 和 field 两种符号
//   - SubroutineSymbolTable 子程序作用域，容纳 argument 和 var 两种符号
//
// 每种符号维护自己独立的稠密序号空间：序号就是定义时该种符号的
// 已有数量，天然从 0 连续递增，直接对应虚拟机段内的槽位。
//
// 定义不做重名检查：同名重定义直接覆盖旧条目（沿袭既有行为）。
//
// ============================================================================

// SymbolKind 符号的种类，决定它落在哪个虚拟机内存段
type SymbolKind int

const (
	StaticSymbol SymbolKind = iota // static 变量 -> static 段
	FieldSymbol                    // field 变量  -> this 段
	ArgSymbol                      // 形参        -> argument 段
	VarSymbol                      // 局部变量    -> local 段
)

// Segment 返回该种符号对应的虚拟机内存段名
func (k SymbolKind) Segment() string {
	switch k {
	case StaticSymbol:
		return "static"
	case FieldSymbol:
		return "this"
	case ArgSymbol:
		return "argument"
	default:
		return "local"
	}
}

func (k SymbolKind) String() string {
	switch k {
	case StaticSymbol:
		return "static"
	case FieldSymbol:
		return "field"
	case ArgSymbol:
		return "argument"
	default:
		return "var"
	}
}

// Symbol 符号表条目
type Symbol struct {
	Name  string
	Type  *ast.Type // 声明类型；IsClass 为真时可以作为方法调用的接收者
	Kind  SymbolKind
	Index int // 段内槽位
}

// ============================================================================
// 类作用域
// ============================================================================

// ClassSymbolTable 类作用域符号表
type ClassSymbolTable struct {
	statics map[string]*Symbol
	fields  map[string]*Symbol
}

// NewClassSymbolTable 创建空的类作用域符号表
func NewClassSymbolTable() *ClassSymbolTable {
	return &ClassSymbolTable{
		statics: make(map[string]*Symbol),
		fields:  make(map[string]*Symbol),
	}
}

// DefineStatic 定义一个 static 变量
func (t *ClassSymbolTable) DefineStatic(name string, varType *ast.Type) *Symbol {
	s := &Symbol{Name: name, Type: varType, Kind: StaticSymbol, Index: len(t.statics)}
	t.statics[name] = s
	return s
}

// DefineField 定义一个 field 变量
func (t *ClassSymbolTable) DefineField(name string, varType *ast.Type) *Symbol {
	s := &Symbol{Name: name, Type: varType, Kind: FieldSymbol, Index: len(t.fields)}
	t.fields[name] = s
	return s
}

// Static 查找 static 变量
func (t *ClassSymbolTable) Static(name string) (*Symbol, bool) {
	s, ok := t.statics[name]
	return s, ok
}

// Field 查找 field 变量
func (t *ClassSymbolTable) Field(name string) (*Symbol, bool) {
	s, ok := t.fields[name]
	return s, ok
}

// FieldCount 实例变量数量（构造器据此分配对象内存）
func (t *ClassSymbolTable) FieldCount() int {
	return len(t.fields)
}

// StaticCount static 变量数量
func (t *ClassSymbolTable) StaticCount() int {
	return len(t.statics)
}

// ============================================================================
// 子程序作用域
// ============================================================================

// SubroutineSymbolTable 子程序作用域符号表
//
// 每个子程序编译时新建一张，编译完即弃。
type SubroutineSymbolTable struct {
	args map[string]*Symbol
	vars map[string]*Symbol
}

// NewSubroutineSymbolTable 创建空的子程序作用域符号表
func NewSubroutineSymbolTable() *SubroutineSymbolTable {
	return &SubroutineSymbolTable{
		args: make(map[string]*Symbol),
		vars: make(map[string]*Symbol),
	}
}

// DefineArg 定义一个形参
//
// 方法的隐式接收者 this 总是先于显式形参定义，占据 argument 0。
func (t *SubroutineSymbolTable) DefineArg(name string, varType *ast.Type) *Symbol {
	s := &Symbol{Name: name, Type: varType, Kind: ArgSymbol, Index: len(t.args)}
	t.args[name] = s
	return s
}

// DefineVar 定义一个局部变量
func (t *SubroutineSymbolTable) DefineVar(name string, varType *ast.Type) *Symbol {
	s := &Symbol{Name: name, Type: varType, Kind: VarSymbol, Index: len(t.vars)}
	t.vars[name] = s
	return s
}

// Arg 查找形参
func (t *SubroutineSymbolTable) Arg(name string) (*Symbol, bool) {
	s, ok := t.args[name]
	return s, ok
}

// Var 查找局部变量
func (t *SubroutineSymbolTable) Var(name string) (*Symbol, bool) {
	s, ok := t.vars[name]
	return s, ok
}

// VarCount 局部变量数量（function 指令头部的 nVars）
func (t *SubroutineSymbolTable) VarCount() int {
	return len(t.vars)
}
