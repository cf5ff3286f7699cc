// Package vmtrans 将栈式虚拟机指令翻译为 Hack 汇编
package vmtrans

import (
	"strconv"
	"strings"

	"github.com/tangzhangming/jack/internal/errors"
	"github.com/tangzhangming/jack/internal/token"
)

// ============================================================================
// 虚拟机指令解析
// ============================================================================
//
// .vm 文件的文法是逐行的：每行至多一条指令，// 之后是注释。
// 指令分三类：
//   - 内存访问：push/pop <segment> <index>
//   - 算术逻辑：add sub neg eq gt lt and or not
//   - 流程控制：label/goto/if-goto <name>，function/call <name> <n>，return
//
// ============================================================================

// Op 虚拟机指令操作码
type Op int

const (
	OpPush Op = iota
	OpPop
	OpLabel
	OpGoto
	OpIfGoto
	OpFunction
	OpCall
	OpReturn
	OpAdd
	OpSub
	OpNeg
	OpEq
	OpGt
	OpLt
	OpAnd
	OpOr
	OpNot
)

// Segment 虚拟机内存段
type Segment int

const (
	SegArgument Segment = iota
	SegLocal
	SegStatic
	SegConstant
	SegThis
	SegThat
	SegPointer
	SegTemp
)

var segments = map[string]Segment{
	"argument": SegArgument,
	"local":    SegLocal,
	"static":   SegStatic,
	"constant": SegConstant,
	"this":     SegThis,
	"that":     SegThat,
	"pointer":  SegPointer,
	"temp":     SegTemp,
}

// arithmeticOps 无操作数指令
var arithmeticOps = map[string]Op{
	"add": OpAdd,
	"sub": OpSub,
	"neg": OpNeg,
	"eq":  OpEq,
	"gt":  OpGt,
	"lt":  OpLt,
	"and": OpAnd,
	"or":  OpOr,
	"not": OpNot,
}

// Command 一条虚拟机指令
type Command struct {
	Op      Op
	Segment Segment // push/pop 专用
	Arg     int     // 段内偏移 / 常量值 / nLocals / nArgs
	Name    string  // label/goto/if-goto/function/call 的符号名
	Line    int     // 源文件行号（用于错误报告）
}

// Parse 解析 .vm 源文本
func Parse(source, filename string) ([]Command, error) {
	var commands []Command

	for i, raw := range strings.Split(source, "\n") {
		line := raw
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		cmd, err := parseLine(line, filename, i+1)
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmd)
	}

	return commands, nil
}

func parseLine(line, filename string, lineNo int) (Command, error) {
	pos := token.Position{Filename: filename, Line: lineNo, Column: 1}
	fields := strings.Fields(line)
	name := fields[0]

	if op, ok := arithmeticOps[name]; ok {
		if len(fields) != 1 {
			return Command{}, errors.New(errors.SyntaxError, pos,
				"'%s' takes no operands", name)
		}
		return Command{Op: op, Line: lineNo}, nil
	}

	switch name {
	case "push", "pop":
		if len(fields) != 3 {
			return Command{}, errors.New(errors.SyntaxError, pos,
				"'%s' expects a segment and an index", name)
		}
		seg, ok := segments[fields[1]]
		if !ok {
			return Command{}, errors.New(errors.SyntaxError, pos,
				"unknown segment '%s'", fields[1])
		}
		arg, err := strconv.Atoi(fields[2])
		if err != nil || arg < 0 {
			return Command{}, errors.New(errors.SyntaxError, pos,
				"invalid index '%s'", fields[2])
		}
		op := OpPush
		if name == "pop" {
			op = OpPop
			if seg == SegConstant {
				return Command{}, errors.New(errors.SyntaxError, pos,
					"cannot pop to the constant segment")
			}
		}
		if seg == SegPointer && arg > 1 {
			return Command{}, errors.New(errors.SyntaxError, pos,
				"pointer index must be 0 or 1, got %d", arg)
		}
		return Command{Op: op, Segment: seg, Arg: arg, Line: lineNo}, nil

	case "label", "goto", "if-goto":
		if len(fields) != 2 {
			return Command{}, errors.New(errors.SyntaxError, pos,
				"'%s' expects a label name", name)
		}
		op := OpLabel
		switch name {
		case "goto":
			op = OpGoto
		case "if-goto":
			op = OpIfGoto
		}
		return Command{Op: op, Name: fields[1], Line: lineNo}, nil

	case "function", "call":
		if len(fields) != 3 {
			return Command{}, errors.New(errors.SyntaxError, pos,
				"'%s' expects a name and a count", name)
		}
		arg, err := strconv.Atoi(fields[2])
		if err != nil || arg < 0 {
			return Command{}, errors.New(errors.SyntaxError, pos,
				"invalid count '%s'", fields[2])
		}
		op := OpFunction
		if name == "call" {
			op = OpCall
		}
		return Command{Op: op, Name: fields[1], Arg: arg, Line: lineNo}, nil

	case "return":
		if len(fields) != 1 {
			return Command{}, errors.New(errors.SyntaxError, pos,
				"'return' takes no operands")
		}
		return Command{Op: OpReturn, Line: lineNo}, nil

	default:
		return Command{}, errors.New(errors.SyntaxError, pos,
			"unknown instruction '%s'", name)
	}
}
