package hackasm

import (
	"strings"
	"testing"
)

func assembleOrFail(t *testing.T, source string) []string {
	t.Helper()
	out, err := AssembleSource(source, "test.asm")
	if err != nil {
		t.Fatalf("assemble error: %v", err)
	}
	return strings.Split(strings.TrimSuffix(out, "\n"), "\n")
}

func TestNumericAInstruction(t *testing.T) {
	got := assembleOrFail(t, "@5\n@21\n@32767")

	want := []string{
		"0000000000000101",
		"0000000000010101",
		"0111111111111111",
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("word %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestCInstructionEncodings(t *testing.T) {
	tests := []struct {
		instr string
		want  string
	}{
		{"D=M", "1111110000010000"},
		{"0;JMP", "1110101010000111"},
		{"MD=M+1", "1111110111011000"},
		{"D=D+A", "1110000010010000"},
		{"D=M;JNE", "1111110000010101"},
		{"A=A-1", "1110110010100000"},
		{"D;JGT", "1110001100000001"},
		{"M=-1", "1110111010001000"},
		{"AMD=D|M", "1111010101111000"},
	}

	for _, tt := range tests {
		got := assembleOrFail(t, tt.instr)
		if got[0] != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.instr, tt.want, got[0])
		}
	}
}

func TestPredefinedSymbols(t *testing.T) {
	tests := []struct {
		symbol string
		want   string
	}{
		{"@SP", "0000000000000000"},
		{"@LCL", "0000000000000001"},
		{"@ARG", "0000000000000010"},
		{"@THIS", "0000000000000011"},
		{"@THAT", "0000000000000100"},
		{"@R0", "0000000000000000"},
		{"@R5", "0000000000000101"},
		{"@R15", "0000000000001111"},
		{"@SCREEN", "0100000000000000"},
		{"@KBD", "0110000000000000"},
	}

	for _, tt := range tests {
		got := assembleOrFail(t, tt.symbol)
		if got[0] != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.symbol, tt.want, got[0])
		}
	}
}

// 标签的值是它后面第一条指令的地址，声明本身不占地址
func TestLabelResolution(t *testing.T) {
	got := assembleOrFail(t, `@START
0;JMP
(START)
D=A`)

	if len(got) != 3 {
		t.Fatalf("expected 3 words, got %d", len(got))
	}
	// START = 2
	if got[0] != "0000000000000010" {
		t.Errorf("expected @START to resolve to 2, got %s", got[0])
	}
}

func TestForwardAndBackwardLabels(t *testing.T) {
	got := assembleOrFail(t, `(TOP)
@END
D;JEQ
@TOP
0;JMP
(END)
@TOP`)

	// TOP = 0, END = 4
	if got[0] != "0000000000000100" {
		t.Errorf("@END: expected 4, got %s", got[0])
	}
	if got[2] != "0000000000000000" {
		t.Errorf("@TOP: expected 0, got %s", got[2])
	}
	if got[4] != "0000000000000000" {
		t.Errorf("@TOP after END: expected 0, got %s", got[4])
	}
}

// 变量按出现顺序从 RAM[16] 开始分配
func TestVariableAllocation(t *testing.T) {
	got := assembleOrFail(t, "@i\n@j\n@i")

	want := []string{
		"0000000000010000", // i = 16
		"0000000000010001", // j = 17
		"0000000000010000",
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("word %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

// 标签优先于变量分配，已知符号不再占变量地址
func TestLabelBeatsVariable(t *testing.T) {
	got := assembleOrFail(t, `@LOOP
@x
(LOOP)
D=A`)

	// LOOP = 2（标签），x = 16（第一个变量）
	if got[0] != "0000000000000010" {
		t.Errorf("@LOOP: expected 2, got %s", got[0])
	}
	if got[1] != "0000000000010000" {
		t.Errorf("@x: expected 16, got %s", got[1])
	}
}

func TestWhitespaceAndComments(t *testing.T) {
	got := assembleOrFail(t, `// program
  @2   // load 2
  D = A
  D = M ; JNE
`)

	want := []string{
		"0000000000000010",
		"1110110000010000",
		"1111110000010101",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d words, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("word %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"bare at", "@"},
		{"address out of range", "@40000"},
		{"unclosed label", "(LOOP"},
		{"empty label", "()"},
		{"missing computation", ";JMP"},
	}

	for _, tt := range tests {
		if _, err := Parse(tt.input, "test.asm"); err == nil {
			t.Errorf("%s: expected parse error", tt.name)
		}
	}
}

func TestEncodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unknown computation", "D=Q"},
		{"unknown destination", "X=D"},
		{"unknown jump", "D;JXX"},
	}

	for _, tt := range tests {
		if _, err := AssembleSource(tt.input, "test.asm"); err == nil {
			t.Errorf("%s: expected encode error", tt.name)
		}
	}
}
