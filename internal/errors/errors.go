// Package errors 提供 Jack 工具链的错误处理系统
package errors

import (
	"fmt"

	"github.com/tangzhangming/jack/internal/token"
)

// ============================================================================
// 错误级别
// ============================================================================

// Level 错误级别
type Level int

const (
	LevelError   Level = iota // 错误
	LevelWarning              // 警告
	LevelNote                 // 提示
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarning:
		return "warning"
	case LevelNote:
		return "note"
	default:
		return "unknown"
	}
}

// ============================================================================
// 错误种类
// ============================================================================

// Kind 编译错误的种类
//
// 一个编译单元内的任何错误都是终止性的：出现错误后该单元
// 不再产生任何指令输出。目录编译时错误隔离到单个文件。
type Kind int

const (
	LexicalGap           Kind = iota // 词法错误（非法字符、未闭合的字符串/注释）
	SyntaxError                      // 语法错误（期望的 token 不匹配）
	UnresolvedIdentifier             // 四个命名空间都找不到变量，且不能按类名回退
	MalformedConstruct               // 内部不变量被破坏（如限定调用解析到非类类型变量）
)

func (k Kind) String() string {
	switch k {
	case LexicalGap:
		return "lexical error"
	case SyntaxError:
		return "syntax error"
	case UnresolvedIdentifier:
		return "unresolved identifier"
	case MalformedConstruct:
		return "malformed construct"
	default:
		return "error"
	}
}

// ============================================================================
// 错误码 (E 开头)
// ============================================================================

const (
	// E0001-E0099: 词法/语法错误
	E0001 = "E0001" // 语法错误
	E0002 = "E0002" // 意外的字符
	E0003 = "E0003" // 未闭合的字符串
	E0004 = "E0004" // 未闭合的注释
	E0006 = "E0006" // 期望的 token 不匹配

	// E0100-E0199: 变量解析错误
	E0100 = "E0100" // 未定义的变量

	// E0400-E0499: 类/调用错误
	E0400 = "E0400" // 限定调用的接收者不是对象类型
)

// defaultCodes 每个错误种类的缺省错误码
var defaultCodes = map[Kind]string{
	LexicalGap:           E0002,
	SyntaxError:          E0001,
	UnresolvedIdentifier: E0100,
	MalformedConstruct:   E0400,
}

// ============================================================================
// CompileError
// ============================================================================

// CompileError 一条带位置信息的编译错误
type CompileError struct {
	Kind    Kind
	Code    string
	Level   Level
	Message string
	File    string
	Line    int
	Column  int
	Hints   []string // 修复建议
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s[%s]: %s", e.File, e.Line, e.Column, e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s[%s]: %s", e.File, e.Kind, e.Code, e.Message)
}

// New 创建一条编译错误
func New(kind Kind, pos token.Position, format string, args ...interface{}) *CompileError {
	return &CompileError{
		Kind:    kind,
		Code:    defaultCodes[kind],
		Level:   LevelError,
		Message: fmt.Sprintf(format, args...),
		File:    pos.Filename,
		Line:    pos.Line,
		Column:  pos.Column,
	}
}

// WithCode 覆盖缺省错误码
func (e *CompileError) WithCode(code string) *CompileError {
	e.Code = code
	return e
}

// WithHint 附加一条修复建议
func (e *CompileError) WithHint(format string, args ...interface{}) *CompileError {
	e.Hints = append(e.Hints, fmt.Sprintf(format, args...))
	return e
}
