package compiler

import (
	"fmt"
	"strings"

	"github.com/tangzhangming/jack/internal/ast"
)

// ============================================================================
// ClassCompiler - 类编译器
// ============================================================================
//
// 一个编译单元对应一个类编译器实例。它负责：
//   1. 把类级变量声明装入类作用域符号表
//   2. 依次驱动各子程序的编译
//   3. 为整个类分配流程控制标签（类内全局递增计数器）
//
// 标签格式为 {类名}_{序号}，序号在类内单调递增，同名类的多次
// 编译彼此独立。
//
// ============================================================================

// ClassCompiler 类编译器
type ClassCompiler struct {
	class   *ast.Class
	symbols *ClassSymbolTable

	labelCounter int // 流程控制标签计数器
}

// NewClassCompiler 创建类编译器
func NewClassCompiler(class *ast.Class) *ClassCompiler {
	return &ClassCompiler{
		class:   class,
		symbols: NewClassSymbolTable(),
	}
}

// ClassName 当前类名
func (c *ClassCompiler) ClassName() string {
	return c.class.Name.Name
}

// Compile 编译整个类，返回虚拟机指令文本
func (c *ClassCompiler) Compile() (string, error) {
	c.buildSymbolTable()

	var sb strings.Builder
	for _, dec := range c.class.Subroutines {
		sc := newSubroutineCompiler(c, dec)
		code, err := sc.compile()
		if err != nil {
			return "", err
		}
		sb.WriteString(code)
	}

	return sb.String(), nil
}

// buildSymbolTable 登记全部类级变量
//
// static 和 field 各自独立编号，序号按声明顺序分配。
func (c *ClassCompiler) buildSymbolTable() {
	for _, dec := range c.class.VarDecs {
		for _, name := range dec.Names {
			if dec.Kind == ast.StaticVar {
				c.symbols.DefineStatic(name.Name, dec.VarType)
			} else {
				c.symbols.DefineField(name.Name, dec.VarType)
			}
		}
	}
}

// newLabel 分配一个类内唯一的流程控制标签
func (c *ClassCompiler) newLabel() string {
	label := fmt.Sprintf("%s_%d", c.ClassName(), c.labelCounter)
	c.labelCounter++
	return label
}
