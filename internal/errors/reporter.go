package errors

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// ============================================================================
// 终端颜色
// ============================================================================

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
	ansiCyan   = "\x1b[36m"
)

// ============================================================================
// Formatter - 错误格式化器
// ============================================================================

// Formatter 将 CompileError 渲染为带上下文的文本
type Formatter struct {
	Color bool // 是否输出 ANSI 颜色
}

// NewFormatter 创建格式化器，默认开启颜色
func NewFormatter() *Formatter {
	return &Formatter{Color: true}
}

func (f *Formatter) paint(color, s string) string {
	if !f.Color {
		return s
	}
	return color + s + ansiReset
}

// Format 渲染一条错误
//
// 输出形如：
//
//	error[E0006]: expected ';' but got '}'
//	 --> Main.jack:4:9
//	  |
//	4 |     let x = 1
//	  |         ^
//	  = hint: ...
func (f *Formatter) Format(err *CompileError, sourceLines []string) string {
	var sb strings.Builder

	level := err.Level.String()
	levelColor := ansiRed
	if err.Level == LevelWarning {
		levelColor = ansiYellow
	}

	sb.WriteString(f.paint(ansiBold+levelColor, fmt.Sprintf("%s[%s]", level, err.Code)))
	sb.WriteString(f.paint(ansiBold, ": "+err.Message))
	sb.WriteString("\n")

	if err.Line > 0 {
		sb.WriteString(f.paint(ansiBlue, " --> "))
		sb.WriteString(fmt.Sprintf("%s:%d:%d\n", err.File, err.Line, err.Column))
	}

	if err.Line > 0 && err.Line <= len(sourceLines) {
		line := sourceLines[err.Line-1]
		gutter := fmt.Sprintf("%d", err.Line)
		pad := strings.Repeat(" ", len(gutter))

		sb.WriteString(f.paint(ansiBlue, pad+" |\n"))
		sb.WriteString(f.paint(ansiBlue, gutter+" | "))
		sb.WriteString(line)
		sb.WriteString("\n")

		caretPos := err.Column - 1
		if caretPos < 0 {
			caretPos = 0
		}
		if caretPos > len(line) {
			caretPos = len(line)
		}
		sb.WriteString(f.paint(ansiBlue, pad+" | "))
		sb.WriteString(strings.Repeat(" ", caretPos))
		sb.WriteString(f.paint(ansiBold+levelColor, "^"))
		sb.WriteString("\n")
	}

	for _, hint := range err.Hints {
		sb.WriteString(f.paint(ansiCyan, "  = hint: "))
		sb.WriteString(hint)
		sb.WriteString("\n")
	}

	return sb.String()
}

// ============================================================================
// Reporter - 错误报告器
// ============================================================================

// Reporter 错误报告器
//
// 缓存各源文件的行内容，把编译错误渲染到输出流。
type Reporter struct {
	formatter   *Formatter
	sourceCache map[string][]string // 文件名 -> 源代码行
	out         io.Writer
	errorCount  int
}

// NewReporter 创建错误报告器，输出到 stderr
func NewReporter() *Reporter {
	return &Reporter{
		formatter:   NewFormatter(),
		sourceCache: make(map[string][]string),
		out:         os.Stderr,
	}
}

// SetOutput 设置输出流（用于测试）
func (r *Reporter) SetOutput(w io.Writer) {
	r.out = w
}

// SetColor 开关颜色输出
func (r *Reporter) SetColor(on bool) {
	r.formatter.Color = on
}

// SetSource 登记一个文件的源代码内容
func (r *Reporter) SetSource(filename, content string) {
	r.sourceCache[filename] = strings.Split(content, "\n")
}

// LoadSource 从磁盘加载源文件
func (r *Reporter) LoadSource(filename string) error {
	if _, ok := r.sourceCache[filename]; ok {
		return nil // 已加载
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return err
	}
	r.SetSource(filename, string(data))
	return nil
}

// Report 报告一条编译错误
func (r *Reporter) Report(err *CompileError) {
	if err.File != "" {
		_ = r.LoadSource(err.File)
	}
	r.errorCount++

	fmt.Fprint(r.out, r.formatter.Format(err, r.sourceCache[err.File]))
}

// ReportAny 报告任意错误；CompileError 走格式化路径，其余原样输出
func (r *Reporter) ReportAny(err error) {
	if ce, ok := err.(*CompileError); ok {
		r.Report(ce)
		return
	}
	r.errorCount++
	fmt.Fprintf(r.out, "error: %v\n", err)
}

// ErrorCount 已报告的错误数量
func (r *Reporter) ErrorCount() int {
	return r.errorCount
}
