// Package compiler 将 Jack AST 翻译为栈式虚拟机指令
package compiler

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tangzhangming/jack/internal/ast"
	"github.com/tangzhangming/jack/internal/parser"
)

// ============================================================================
// Compiler - 编译器入口
// ============================================================================
//
// 一个编译单元（一个 .jack 文件）产出一个独立的 .vm 输出，
// 单元之间没有共享状态，类级符号表和标签计数器都按单元新建。
//
// ============================================================================

// Compiler 编译器
type Compiler struct{}

// New 创建编译器
func New() *Compiler {
	return &Compiler{}
}

// Compile 编译一个已解析的类
func (c *Compiler) Compile(class *ast.Class) (string, error) {
	return NewClassCompiler(class).Compile()
}

// CompileSource 编译一段源代码
func (c *Compiler) CompileSource(source, filename string) (string, error) {
	class, err := parser.New(source, filename).Parse()
	if err != nil {
		return "", err
	}
	return c.Compile(class)
}

// CompileFile 编译单个 .jack 文件，在同目录写出同名 .vm 文件
//
// 返回输出文件路径。
func (c *Compiler) CompileFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	code, err := c.CompileSource(string(data), path)
	if err != nil {
		return "", err
	}

	outPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".vm"
	if err := os.WriteFile(outPath, []byte(code), 0644); err != nil {
		return "", err
	}

	return outPath, nil
}
