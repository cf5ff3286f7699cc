package hackasm

import (
	"fmt"
	"strings"

	"github.com/tangzhangming/jack/internal/errors"
	"github.com/tangzhangming/jack/internal/token"
)

// ============================================================================
// Assembler - 两遍汇编器
// ============================================================================
//
// 第一遍收集标签：(NAME) 不占指令地址，标签的值是它后面第一条
// 指令的地址。第二遍按出现顺序给未知符号分配变量地址，从 RAM[16]
// 开始递增，然后逐条编码。
//
// 指令编码：
//   - A 指令：0vvvvvvvvvvvvvvv，15 位无符号值
//   - C 指令：111a cccccc ddd jjj
//
// ============================================================================

// predefinedSymbols 预定义符号
//
// R0-R15 是虚拟寄存器，SP/LCL/ARG/THIS/THAT 是运行时段指针，
// SCREEN/KBD 是内存映射 I/O 的基址。
var predefinedSymbols = map[string]int{
	"SP":     0,
	"LCL":    1,
	"ARG":    2,
	"THIS":   3,
	"THAT":   4,
	"SCREEN": 16384,
	"KBD":    24576,
}

func init() {
	for r := 0; r <= 15; r++ {
		predefinedSymbols[fmt.Sprintf("R%d", r)] = r
	}
}

// compCodes C 指令计算部分的编码（含 a 位的 7 位值）
var compCodes = map[string]int{
	"0":   42,
	"1":   63,
	"-1":  58,
	"D":   12,
	"A":   48,
	"!D":  13,
	"!A":  49,
	"-D":  15,
	"-A":  51,
	"D+1": 31,
	"A+1": 55,
	"D-1": 14,
	"A-1": 50,
	"D+A": 2,
	"D-A": 19,
	"A-D": 7,
	"D&A": 0,
	"D|A": 21,
	"M":   112,
	"!M":  113,
	"-M":  115,
	"M+1": 119,
	"M-1": 114,
	"D+M": 66,
	"D-M": 83,
	"M-D": 71,
	"D&M": 64,
	"D|M": 85,
}

// destCodes C 指令目的地的编码，空目的地是 0
var destCodes = map[string]int{
	"M":   1,
	"D":   2,
	"MD":  3,
	"A":   4,
	"AM":  5,
	"AD":  6,
	"AMD": 7,
}

// jumpCodes C 指令跳转条件的编码，无跳转是 0
var jumpCodes = map[string]int{
	"JGT": 1,
	"JEQ": 2,
	"JGE": 3,
	"JLT": 4,
	"JNE": 5,
	"JLE": 6,
	"JMP": 7,
}

// Assembler 两遍汇编器
type Assembler struct {
	filename     string
	instructions []Instruction

	symbols     map[string]int
	nextVarAddr int // 下一个空闲变量地址
}

// NewAssembler 创建汇编器
func NewAssembler(instructions []Instruction, filename string) *Assembler {
	symbols := make(map[string]int, len(predefinedSymbols))
	for name, addr := range predefinedSymbols {
		symbols[name] = addr
	}

	return &Assembler{
		filename:     filename,
		instructions: instructions,
		symbols:      symbols,
		nextVarAddr:  16,
	}
}

// Assemble 汇编为机器码字序列
func (a *Assembler) Assemble() ([]uint16, error) {
	a.collectLabels()
	a.allocateVariables()

	var words []uint16
	for _, instr := range a.instructions {
		if instr.Kind == LabelDecl {
			continue
		}
		word, err := a.encode(instr)
		if err != nil {
			return nil, err
		}
		words = append(words, word)
	}

	return words, nil
}

// collectLabels 第一遍：标签的值是它后面第一条指令的地址
func (a *Assembler) collectLabels() {
	addr := 0
	for _, instr := range a.instructions {
		if instr.Kind == LabelDecl {
			a.symbols[instr.Symbol] = addr
			continue
		}
		addr++
	}
}

// allocateVariables 第二遍：按出现顺序给未知符号分配变量地址
func (a *Assembler) allocateVariables() {
	for _, instr := range a.instructions {
		if instr.Kind != AInstr || instr.Symbol == "" {
			continue
		}
		if _, ok := a.symbols[instr.Symbol]; !ok {
			a.symbols[instr.Symbol] = a.nextVarAddr
			a.nextVarAddr++
		}
	}
}

// encode 编码单条指令
func (a *Assembler) encode(instr Instruction) (uint16, error) {
	pos := token.Position{Filename: a.filename, Line: instr.Line, Column: 1}

	if instr.Kind == AInstr {
		value := instr.Value
		if instr.Symbol != "" {
			value = a.symbols[instr.Symbol]
		}
		return uint16(value), nil
	}

	comp, ok := compCodes[instr.Comp]
	if !ok {
		return 0, errors.New(errors.SyntaxError, pos,
			"unknown computation '%s'", instr.Comp)
	}

	dest := 0
	if instr.Dest != "" {
		dest, ok = destCodes[instr.Dest]
		if !ok {
			return 0, errors.New(errors.SyntaxError, pos,
				"unknown destination '%s'", instr.Dest)
		}
	}

	jump := 0
	if instr.Jump != "" {
		jump, ok = jumpCodes[instr.Jump]
		if !ok {
			return 0, errors.New(errors.SyntaxError, pos,
				"unknown jump condition '%s'", instr.Jump)
		}
	}

	word := 0b111 << 13
	word |= comp << 6
	word |= dest << 3
	word |= jump

	return uint16(word), nil
}

// AssembleSource 解析并汇编一段源文本，输出 .hack 文本格式
//
// 每行一个 16 位字的二进制展开。
func AssembleSource(source, filename string) (string, error) {
	instructions, err := Parse(source, filename)
	if err != nil {
		return "", err
	}

	words, err := NewAssembler(instructions, filename).Assemble()
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, word := range words {
		fmt.Fprintf(&sb, "%016b\n", word)
	}
	return sb.String(), nil
}
