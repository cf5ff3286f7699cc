// Package hackasm 将 Hack 汇编翻译为 16 位机器码
package hackasm

import (
	"strconv"
	"strings"

	"github.com/tangzhangming/jack/internal/errors"
	"github.com/tangzhangming/jack/internal/token"
)

// ============================================================================
// 汇编指令解析
// ============================================================================
//
// Hack 汇编是逐行的，三种形态：
//   - A 指令：@value 或 @symbol
//   - C 指令：dest=comp;jump，dest 和 jump 都可省略
//   - 标签声明：(NAME)，不占指令地址
//
// // 之后是注释，指令内部允许空白。
//
// ============================================================================

// InstrKind 指令的种类
type InstrKind int

const (
	AInstr    InstrKind = iota // @value / @symbol
	CInstr                     // dest=comp;jump
	LabelDecl                  // (NAME)
)

// Instruction 一条汇编指令
type Instruction struct {
	Kind InstrKind

	Symbol string // A 指令的符号名 / 标签名；数值 A 指令为空
	Value  int    // 数值 A 指令的值

	Dest string // C 指令目的地，可为空
	Comp string // C 指令计算部分
	Jump string // C 指令跳转条件，可为空

	Line int
}

// Parse 解析汇编源文本
func Parse(source, filename string) ([]Instruction, error) {
	var instructions []Instruction

	for i, raw := range strings.Split(source, "\n") {
		line := raw
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		// 指令内部的空白也一并去掉
		line = strings.Join(strings.Fields(line), "")
		if line == "" {
			continue
		}

		instr, err := parseLine(line, filename, i+1)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, instr)
	}

	return instructions, nil
}

func parseLine(line, filename string, lineNo int) (Instruction, error) {
	pos := token.Position{Filename: filename, Line: lineNo, Column: 1}

	// 标签声明
	if strings.HasPrefix(line, "(") {
		if !strings.HasSuffix(line, ")") || len(line) < 3 {
			return Instruction{}, errors.New(errors.SyntaxError, pos,
				"malformed label declaration '%s'", line)
		}
		return Instruction{
			Kind:   LabelDecl,
			Symbol: line[1 : len(line)-1],
			Line:   lineNo,
		}, nil
	}

	// A 指令
	if strings.HasPrefix(line, "@") {
		operand := line[1:]
		if operand == "" {
			return Instruction{}, errors.New(errors.SyntaxError, pos,
				"'@' requires a value or symbol")
		}
		if isDigit(operand[0]) {
			value, err := strconv.Atoi(operand)
			if err != nil || value > 32767 {
				return Instruction{}, errors.New(errors.SyntaxError, pos,
					"address %s out of range (0..32767)", operand)
			}
			return Instruction{Kind: AInstr, Value: value, Line: lineNo}, nil
		}
		return Instruction{Kind: AInstr, Symbol: operand, Line: lineNo}, nil
	}

	// C 指令：dest=comp;jump
	instr := Instruction{Kind: CInstr, Line: lineNo}

	rest := line
	if idx := strings.Index(rest, "="); idx >= 0 {
		instr.Dest = rest[:idx]
		rest = rest[idx+1:]
	}
	if idx := strings.Index(rest, ";"); idx >= 0 {
		instr.Jump = rest[idx+1:]
		rest = rest[:idx]
	}
	instr.Comp = rest

	if instr.Comp == "" {
		return Instruction{}, errors.New(errors.SyntaxError, pos,
			"instruction '%s' has no computation part", line)
	}

	return instr, nil
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}
