package vmtrans

import (
	"fmt"
	"strings"
)

// ============================================================================
// Translator - 虚拟机指令到 Hack 汇编的翻译器
// ============================================================================
//
// 每个 .vm 文件由一个独立的翻译器实例处理。文件名参与符号构造：
//   - static i     ->  @File.i
//   - label X      ->  (File.X)，goto/if-goto 同样加文件名前缀
//   - 比较指令     ->  File.label_yes.n / File.label_no.n
//   - call 返回点  ->  File.Callee.return.n
//
// 比较标签和返回点标签共用同一个文件内计数器。
//
// 栈顶在 RAM[SP-1]。push 把 D 写到 *SP 再自增 SP，pop 先自减 SP
// 再从 *SP 读。pop 到带基址的段时用汇编变量 tmp 暂存目标地址；
// return 的帧回收用 endFrame 和 retAddr 两个汇编变量。
//
// 不生成引导代码：bootstrap（SP=256 和对 Sys.init 的调用）由
// 运行平台负责。
//
// ============================================================================

// Translator 虚拟机指令翻译器
type Translator struct {
	moduleName string // 不含扩展名的文件名，参与符号构造
	commands   []Command

	labelCounter int
	out          []string
}

// NewTranslator 创建翻译器
func NewTranslator(moduleName string, commands []Command) *Translator {
	return &Translator{
		moduleName: moduleName,
		commands:   commands,
	}
}

// Translate 翻译全部指令，返回汇编文本（每行一条，含结尾换行）
func (t *Translator) Translate() string {
	for _, cmd := range t.commands {
		t.translateCommand(cmd)
	}
	return strings.Join(t.out, "\n") + "\n"
}

// TranslateSource 解析并翻译一段 .vm 源文本
func TranslateSource(source, moduleName, filename string) (string, error) {
	commands, err := Parse(source, filename)
	if err != nil {
		return "", err
	}
	return NewTranslator(moduleName, commands).Translate(), nil
}

func (t *Translator) translateCommand(cmd Command) {
	switch cmd.Op {
	case OpPush:
		t.push(cmd)
	case OpPop:
		t.pop(cmd)
	case OpLabel:
		t.emit("(%s.%s)", t.moduleName, cmd.Name)
	case OpGoto:
		t.emit("@%s.%s", t.moduleName, cmd.Name)
		t.emit("0;JMP")
	case OpIfGoto:
		t.popIntoD()
		t.emit("@%s.%s", t.moduleName, cmd.Name)
		t.emit("D;JNE")
	case OpFunction:
		t.function(cmd)
	case OpCall:
		t.call(cmd)
	case OpReturn:
		t.returnFrame()
	case OpAdd:
		t.binary("D=D+M")
	case OpSub:
		t.binary("D=M-D")
	case OpAnd:
		t.binary("D=D&M")
	case OpOr:
		t.binary("D=D|M")
	case OpNeg:
		t.unary("-D")
	case OpNot:
		t.unary("!D")
	case OpEq:
		t.comparison("JEQ")
	case OpGt:
		t.comparison("JGT")
	case OpLt:
		t.comparison("JLT")
	}
}

// ============================================================================
// 内存访问
// ============================================================================

// segmentBase 带基址指针的段对应的汇编符号
var segmentBase = map[Segment]string{
	SegArgument: "ARG",
	SegLocal:    "LCL",
	SegThis:     "THIS",
	SegThat:     "THAT",
}

func (t *Translator) push(cmd Command) {
	switch cmd.Segment {
	case SegArgument, SegLocal, SegThis, SegThat:
		// D = *(base + offset)
		t.emit("@%s", segmentBase[cmd.Segment])
		t.emit("D=M")
		t.emit("@%d", cmd.Arg)
		t.emit("A=D+A")
		t.emit("D=M")
	case SegStatic:
		t.emit("@%s.%d", t.moduleName, cmd.Arg)
		t.emit("D=M")
	case SegConstant:
		t.emit("@%d", cmd.Arg)
		t.emit("D=A")
	case SegPointer:
		if cmd.Arg == 0 {
			t.emit("@THIS")
		} else {
			t.emit("@THAT")
		}
		t.emit("D=M")
	case SegTemp:
		t.emit("@%d", 5+cmd.Arg)
		t.emit("D=M")
	}

	t.pushD()
}

func (t *Translator) pop(cmd Command) {
	switch cmd.Segment {
	case SegArgument, SegLocal, SegThis, SegThat:
		// tmp = base + offset; *tmp = pop()
		t.emit("@%s", segmentBase[cmd.Segment])
		t.emit("D=M")
		t.emit("@%d", cmd.Arg)
		t.emit("D=D+A")
		t.emit("@tmp")
		t.emit("M=D")
		t.popIntoD()
		t.emit("@tmp")
		t.emit("A=M")
		t.emit("M=D")
	case SegStatic:
		t.popIntoD()
		t.emit("@%s.%d", t.moduleName, cmd.Arg)
		t.emit("M=D")
	case SegPointer:
		t.popIntoD()
		if cmd.Arg == 0 {
			t.emit("@THIS")
		} else {
			t.emit("@THAT")
		}
		t.emit("M=D")
	case SegTemp:
		t.popIntoD()
		t.emit("@%d", 5+cmd.Arg)
		t.emit("M=D")
	}
}

// ============================================================================
// 算术逻辑
// ============================================================================

// binary 双目运算：右操作数先出栈到 D，左操作数在栈顶原位参与运算
func (t *Translator) binary(comp string) {
	t.popIntoD()
	t.spDec()
	t.emit("@SP")
	t.emit("A=M")
	t.emit(comp)
	t.pushD()
}

// unary 单目运算
func (t *Translator) unary(comp string) {
	t.popIntoD()
	t.setTop(comp)
	t.spInc()
}

// comparison 比较运算
//
// 结果是虚拟机布尔值：真为全 1（-1），假为全 0。
// 用一对文件作用域标签实现条件分支。
func (t *Translator) comparison(jump string) {
	yes := fmt.Sprintf("%s.label_yes.%d", t.moduleName, t.labelCounter)
	no := fmt.Sprintf("%s.label_no.%d", t.moduleName, t.labelCounter)
	t.labelCounter++

	t.popIntoD()
	t.spDec()
	t.emit("@SP")
	t.emit("A=M")
	t.emit("D=M-D")

	t.emit("@%s", yes)
	t.emit("D;%s", jump)

	// 不成立
	t.setTop("0")
	t.spInc()
	t.emit("@%s", no)
	t.emit("0;JMP")

	// 成立
	t.emit("(%s)", yes)
	t.setTop("-1")
	t.spInc()

	t.emit("(%s)", no)
}

// ============================================================================
// 函数调用协议
// ============================================================================

// function 函数入口：声明标签并把 nLocals 个 0 压栈
func (t *Translator) function(cmd Command) {
	t.emit("(%s)", cmd.Name)
	t.emit("@0")
	t.emit("D=A")
	for i := 0; i < cmd.Arg; i++ {
		t.pushD()
	}
}

// call 调用方协议：压入返回地址和四个段指针，重定位 ARG 和 LCL 后跳转
func (t *Translator) call(cmd Command) {
	returnLabel := fmt.Sprintf("%s.%s.return.%d", t.moduleName, cmd.Name, t.labelCounter)
	t.labelCounter++

	t.emit("// push returnAddress")
	t.emit("@%s", returnLabel)
	t.emit("D=A")
	t.pushD()

	for _, ptr := range []string{"LCL", "ARG", "THIS", "THAT"} {
		t.emit("// push %s", ptr)
		t.emit("@%s", ptr)
		t.emit("D=M")
		t.pushD()
	}

	t.emit("// ARG = SP-5-nArgs")
	t.emit("@SP")
	t.emit("D=M")
	t.emit("@5")
	t.emit("D=D-A")
	t.emit("@%d", cmd.Arg)
	t.emit("D=D-A")
	t.emit("@ARG")
	t.emit("M=D")

	t.emit("// LCL = SP")
	t.emit("@SP")
	t.emit("D=M")
	t.emit("@LCL")
	t.emit("M=D")

	t.emit("// goto %s", cmd.Name)
	t.emit("@%s", cmd.Name)
	t.emit("0;JMP")

	t.emit("(%s)", returnLabel)
}

// returnFrame 被调方协议：搬运返回值，恢复调用方的段指针后跳回
func (t *Translator) returnFrame() {
	t.emit("// endFrame = LCL")
	t.emit("@LCL")
	t.emit("D=M")
	t.emit("@endFrame")
	t.emit("M=D")

	t.emit("// retAddr = *(endFrame - 5)")
	t.emit("@5")
	t.emit("D=A")
	t.emit("@endFrame")
	t.emit("D=M-D")
	t.emit("A=D")
	t.emit("D=M")
	t.emit("@retAddr")
	t.emit("M=D")

	t.emit("// *ARG = pop()")
	t.popIntoD()
	t.emit("@ARG")
	t.emit("A=M")
	t.emit("M=D")

	t.emit("// SP = ARG + 1")
	t.emit("@ARG")
	t.emit("D=M")
	t.emit("D=D+1")
	t.emit("@SP")
	t.emit("M=D")

	for i, ptr := range []string{"THAT", "THIS", "ARG", "LCL"} {
		t.emit("// %s = *(endFrame - %d)", ptr, i+1)
		t.emit("@%d", i+1)
		t.emit("D=A")
		t.emit("@endFrame")
		t.emit("D=M-D")
		t.emit("A=D")
		t.emit("D=M")
		t.emit("@%s", ptr)
		t.emit("M=D")
	}

	t.emit("// goto retAddr")
	t.emit("@retAddr")
	t.emit("A=M")
	t.emit("0;JMP")
}

// ============================================================================
// 栈操作原语
// ============================================================================

func (t *Translator) spInc() {
	t.emit("@SP")
	t.emit("M=M+1")
}

func (t *Translator) spDec() {
	t.emit("@SP")
	t.emit("M=M-1")
}

// setTop 把 comp 的值写到 *SP
func (t *Translator) setTop(comp string) {
	t.emit("@SP")
	t.emit("A=M")
	t.emit("M=%s", comp)
}

// pushD 把 D 压栈
func (t *Translator) pushD() {
	t.setTop("D")
	t.spInc()
}

// popIntoD 出栈到 D
func (t *Translator) popIntoD() {
	t.spDec()
	t.emit("@SP")
	t.emit("A=M")
	t.emit("D=M")
}

func (t *Translator) emit(format string, args ...interface{}) {
	if len(args) == 0 {
		t.out = append(t.out, format)
		return
	}
	t.out = append(t.out, fmt.Sprintf(format, args...))
}
