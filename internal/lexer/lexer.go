package lexer

import (
	"fmt"

	"github.com/tangzhangming/jack/internal/token"
)

// ============================================================================
// Lexer - 词法分析器
// ============================================================================
//
// 词法分析器负责将 Jack 源代码字符串转换为 Token 序列。
//
// Jack 的词法非常规整：全部符号都是单字符，字符串常量没有转义，
// 注释只有 // 和 /* */ 两种。因此扫描器可以完全工作在字节层面，
// 不需要 UTF-8 解码。
//
// 性能说明：
// 1. Token 切片按源码长度预分配，减少扩容
// 2. 标识符和字符串常量直接切片源缓冲区，不做拷贝
// 3. 空白字符批量跳过
//
// ============================================================================

// Lexer 词法分析器结构体
type Lexer struct {
	source   string        // 源代码字符串
	filename string        // 源文件名（用于错误报告）
	tokens   []token.Token // 已扫描的 Token 列表

	start     int // 当前 Token 的起始位置（字节偏移）
	current   int // 当前扫描位置（字节偏移）
	line      int // 当前行号（从1开始）
	lineStart int // 当前行的起始偏移（用于计算列号）

	errors []Error // 词法错误列表
}

// Error 表示词法分析错误
//
// 对应错误分类中的 LexicalGap：源文本中出现了 Jack 字母表之外的字符，
// 或字符串常量、块注释未闭合。
type Error struct {
	Pos     token.Position // 错误位置
	Message string         // 错误信息
}

func (e Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

// New 创建一个新的词法分析器
func New(source, filename string) *Lexer {
	// 预估 token 数量：Jack 源码平均每 4 个字符产生一个 token
	estimatedTokens := len(source) / 4
	if estimatedTokens < 16 {
		estimatedTokens = 16
	}

	return &Lexer{
		source:   source,
		filename: filename,
		tokens:   make([]token.Token, 0, estimatedTokens),
		line:     1,
	}
}

// ============================================================================
// 公共方法
// ============================================================================

// ScanTokens 扫描所有 tokens
//
// 这是词法分析的主入口，扫描整个源代码并返回 Token 序列。
// 最后一个 Token 总是 EOF，表示编译单元结束。
func (l *Lexer) ScanTokens() []token.Token {
	for !l.isAtEnd() {
		l.start = l.current
		l.scanToken()
	}

	l.tokens = append(l.tokens, token.Token{
		Type: token.EOF,
		Pos:  l.currentPos(),
	})

	return l.tokens
}

// Errors 返回所有词法错误
func (l *Lexer) Errors() []Error {
	return l.errors
}

// HasErrors 检查是否有错误
func (l *Lexer) HasErrors() bool {
	return len(l.errors) > 0
}

// ============================================================================
// 核心扫描逻辑
// ============================================================================

// scanToken 扫描单个 token
func (l *Lexer) scanToken() {
	ch := l.advance()

	switch ch {

	// ----------------------------------------------------------
	// 空白字符
	// ----------------------------------------------------------
	case ' ', '\t', '\r':
		l.skipWhitespace()

	case '\n':
		l.newLine()
		l.skipWhitespace()

	// ----------------------------------------------------------
	// 斜杠：除号或注释
	// ----------------------------------------------------------
	case '/':
		if l.match('/') {
			l.lineComment()
		} else if l.match('*') {
			l.blockComment()
		} else {
			l.addToken(token.SLASH)
		}

	// ----------------------------------------------------------
	// 字符串常量
	// ----------------------------------------------------------
	case '"':
		l.stringConst()

	// ----------------------------------------------------------
	// 其余符号、数字、标识符
	// ----------------------------------------------------------
	default:
		if t, ok := token.LookupSymbol(ch); ok {
			l.addToken(t)
		} else if isDigit(ch) {
			l.number()
		} else if isAlpha(ch) {
			l.identifier()
		} else {
			l.error(fmt.Sprintf("unexpected character %q", ch))
		}
	}
}

// ============================================================================
// 空白与注释
// ============================================================================

// skipWhitespace 批量跳过连续的空白字符
func (l *Lexer) skipWhitespace() {
	for !l.isAtEnd() {
		switch l.peek() {
		case ' ', '\t', '\r':
			l.current++
		case '\n':
			l.current++
			l.newLine()
		default:
			return
		}
	}
}

// lineComment 处理单行注释 //
//
// 不消费换行符，让主循环更新行号。
func (l *Lexer) lineComment() {
	for !l.isAtEnd() && l.peek() != '\n' {
		l.current++
	}
}

// blockComment 处理块注释 /* */（包括 /** API 注释）
//
// Jack 的块注释不嵌套。未闭合的块注释是词法错误。
func (l *Lexer) blockComment() {
	for !l.isAtEnd() {
		if l.peek() == '*' && l.peekNext() == '/' {
			l.current += 2
			return
		}
		if l.peek() == '\n' {
			l.current++
			l.newLine()
			continue
		}
		l.current++
	}

	l.error("unterminated block comment")
}

// ============================================================================
// 字面量
// ============================================================================

// stringConst 处理字符串常量
//
// Jack 的字符串常量没有转义序列，也不能跨行，
// 因此内容总是源缓冲区上的一个切片。
func (l *Lexer) stringConst() {
	startOffset := l.current // 引号之后

	for !l.isAtEnd() && l.peek() != '"' && l.peek() != '\n' {
		l.current++
	}

	if l.isAtEnd() || l.peek() == '\n' {
		l.error("unterminated string constant")
		return
	}

	value := l.source[startOffset:l.current]
	l.current++ // 跳过结束引号

	l.addTokenLiteral(token.STR_CONST, value)
}

// number 处理整数常量
func (l *Lexer) number() {
	for !l.isAtEnd() && isDigit(l.peek()) {
		l.current++
	}

	l.addTokenLiteral(token.INT_CONST, l.source[l.start:l.current])
}

// identifier 处理标识符和关键字
func (l *Lexer) identifier() {
	for !l.isAtEnd() && isAlphaNumeric(l.peek()) {
		l.current++
	}

	literal := l.source[l.start:l.current]
	l.addTokenLiteral(token.LookupIdent(literal), literal)
}

// ============================================================================
// 底层辅助方法
// ============================================================================

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

func (l *Lexer) advance() byte {
	ch := l.source[l.current]
	l.current++
	return ch
}

func (l *Lexer) peek() byte {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.current]
}

func (l *Lexer) peekNext() byte {
	if l.current+1 >= len(l.source) {
		return 0
	}
	return l.source[l.current+1]
}

// match 条件消费：当前字符等于 expected 时前进并返回 true
func (l *Lexer) match(expected byte) bool {
	if l.isAtEnd() || l.source[l.current] != expected {
		return false
	}
	l.current++
	return true
}

func (l *Lexer) newLine() {
	l.line++
	l.lineStart = l.current
}

// startPos 返回当前 token 起始处的位置
func (l *Lexer) startPos() token.Position {
	return token.Position{
		Filename: l.filename,
		Line:     l.line,
		Column:   l.start - l.lineStart + 1,
		Offset:   l.start,
	}
}

// currentPos 返回当前扫描位置
func (l *Lexer) currentPos() token.Position {
	return token.Position{
		Filename: l.filename,
		Line:     l.line,
		Column:   l.current - l.lineStart + 1,
		Offset:   l.current,
	}
}

func (l *Lexer) addToken(t token.TokenType) {
	l.addTokenLiteral(t, l.source[l.start:l.current])
}

func (l *Lexer) addTokenLiteral(t token.TokenType, literal string) {
	l.tokens = append(l.tokens, token.Token{
		Type:    t,
		Literal: literal,
		Pos:     l.startPos(),
	})
}

func (l *Lexer) error(message string) {
	l.errors = append(l.errors, Error{
		Pos:     l.startPos(),
		Message: message,
	})
}

// ============================================================================
// 字符分类
// ============================================================================

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isAlphaNumeric(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}
