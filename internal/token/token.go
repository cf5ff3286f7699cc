package token

import "fmt"

// ============================================================================
// Token 类型定义
// ============================================================================
//
// TokenType 使用 iota 自动编号，按类别分组：
// 1. 特殊标记（ILLEGAL, EOF）
// 2. 字面量（标识符、整数常量、字符串常量）
// 3. 符号（Jack 语言的 19 个单字符符号）
// 4. 关键字（class, constructor, function ... return）
//
// ============================================================================

// TokenType 表示 Token 的类型
type TokenType int

const (
	// ----------------------------------------------------------
	// 特殊标记
	// ----------------------------------------------------------
	ILLEGAL TokenType = iota // 非法字符
	EOF                      // 文件结束

	// ----------------------------------------------------------
	// 字面量
	// ----------------------------------------------------------
	IDENT     // 标识符（类名、变量名、子程序名）
	INT_CONST // 整数常量 (0..32767)
	STR_CONST // 字符串常量 "..."

	// ----------------------------------------------------------
	// 符号
	// ----------------------------------------------------------
	LBRACE    // {
	RBRACE    // }
	LPAREN    // (
	RPAREN    // )
	LBRACKET  // [
	RBRACKET  // ]
	DOT       // .
	COMMA     // ,
	SEMICOLON // ;
	PLUS      // +
	MINUS     // -
	STAR      // *
	SLASH     // /
	AMP       // &
	PIPE      // |
	LT        // <
	GT        // >
	EQ        // =
	TILDE     // ~

	// ----------------------------------------------------------
	// 关键字
	// ----------------------------------------------------------
	keyword_beg // 关键字起始标记（不是实际 token）
	CLASS       // class
	CONSTRUCTOR // constructor
	FUNCTION    // function
	METHOD      // method
	FIELD       // field
	STATIC      // static
	VAR         // var
	INT         // int
	CHAR        // char
	BOOLEAN     // boolean
	VOID        // void
	TRUE        // true
	FALSE       // false
	NULL        // null
	THIS        // this
	LET         // let
	DO          // do
	IF          // if
	ELSE        // else
	WHILE       // while
	RETURN      // return
	keyword_end // 关键字结束标记（不是实际 token）
)

// ============================================================================
// Token 类型名称映射
// ============================================================================

var tokenNames = map[TokenType]string{
	ILLEGAL: "ILLEGAL",
	EOF:     "EOF",

	IDENT:     "IDENT",
	INT_CONST: "INT_CONST",
	STR_CONST: "STR_CONST",

	LBRACE:    "{",
	RBRACE:    "}",
	LPAREN:    "(",
	RPAREN:    ")",
	LBRACKET:  "[",
	RBRACKET:  "]",
	DOT:       ".",
	COMMA:     ",",
	SEMICOLON: ";",
	PLUS:      "+",
	MINUS:     "-",
	STAR:      "*",
	SLASH:     "/",
	AMP:       "&",
	PIPE:      "|",
	LT:        "<",
	GT:        ">",
	EQ:        "=",
	TILDE:     "~",

	CLASS:       "class",
	CONSTRUCTOR: "constructor",
	FUNCTION:    "function",
	METHOD:      "method",
	FIELD:       "field",
	STATIC:      "static",
	VAR:         "var",
	INT:         "int",
	CHAR:        "char",
	BOOLEAN:     "boolean",
	VOID:        "void",
	TRUE:        "true",
	FALSE:       "false",
	NULL:        "null",
	THIS:        "this",
	LET:         "let",
	DO:          "do",
	IF:          "if",
	ELSE:        "else",
	WHILE:       "while",
	RETURN:      "return",
}

// ============================================================================
// 关键字与符号查找表
// ============================================================================
//
// 进程级只读映射，包初始化时构建一次，之后只读。

var keywords = map[string]TokenType{
	"class":       CLASS,
	"constructor": CONSTRUCTOR,
	"function":    FUNCTION,
	"method":      METHOD,
	"field":       FIELD,
	"static":      STATIC,
	"var":         VAR,
	"int":         INT,
	"char":        CHAR,
	"boolean":     BOOLEAN,
	"void":        VOID,
	"true":        TRUE,
	"false":       FALSE,
	"null":        NULL,
	"this":        THIS,
	"let":         LET,
	"do":          DO,
	"if":          IF,
	"else":        ELSE,
	"while":       WHILE,
	"return":      RETURN,
}

var symbols = map[byte]TokenType{
	'{': LBRACE,
	'}': RBRACE,
	'(': LPAREN,
	')': RPAREN,
	'[': LBRACKET,
	']': RBRACKET,
	'.': DOT,
	',': COMMA,
	';': SEMICOLON,
	'+': PLUS,
	'-': MINUS,
	'*': STAR,
	'/': SLASH,
	'&': AMP,
	'|': PIPE,
	'<': LT,
	'>': GT,
	'=': EQ,
	'~': TILDE,
}

// LookupIdent 判断标识符是否为关键字
//
// 如果 ident 是 Jack 关键字则返回对应的关键字 TokenType，
// 否则返回 IDENT。
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// LookupSymbol 判断字符是否为 Jack 符号
func LookupSymbol(ch byte) (TokenType, bool) {
	tok, ok := symbols[ch]
	return tok, ok
}

// IsKeyword 判断 TokenType 是否为关键字
func IsKeyword(t TokenType) bool {
	return t > keyword_beg && t < keyword_end
}

// String 返回 TokenType 的字符串表示
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", t)
}

// ============================================================================
// Position - 源代码位置
// ============================================================================

// Position 表示源代码中的位置
type Position struct {
	Filename string // 文件名
	Line     int    // 行号 (从1开始)
	Column   int    // 列号 (从1开始)
	Offset   int    // 字节偏移量 (从0开始)
}

// String 返回位置的字符串表示，格式为 "filename:line:column"
func (p Position) String() string {
	if p.Filename != "" {
		return fmt.Sprintf("%s:%d:%d", p.Filename, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// IsValid 检查位置是否有效
func (p Position) IsValid() bool {
	return p.Line > 0
}

// ============================================================================
// Token - 词法单元
// ============================================================================

// Token 表示一个词法单元
//
// Literal 是源代码缓冲区上的切片，不做单独分配；
// 源缓冲区由编译单元持有，存活期覆盖所有 Token 和 AST 节点。
type Token struct {
	Type    TokenType // Token 类型
	Literal string    // 原始字面量（字符串常量不含引号）
	Pos     Position  // 位置信息
}

// String 返回 Token 的字符串表示（用于调试）
func (t Token) String() string {
	switch t.Type {
	case IDENT, INT_CONST, STR_CONST:
		return fmt.Sprintf("%s(%s) at %s", t.Type, t.Literal, t.Pos)
	default:
		return fmt.Sprintf("%s at %s", t.Type, t.Pos)
	}
}

// New 创建一个新的 Token
func New(tokenType TokenType, literal string, pos Position) Token {
	return Token{
		Type:    tokenType,
		Literal: literal,
		Pos:     pos,
	}
}
