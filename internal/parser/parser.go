package parser

import (
	"strconv"

	"github.com/tangzhangming/jack/internal/ast"
	"github.com/tangzhangming/jack/internal/errors"
	"github.com/tangzhangming/jack/internal/lexer"
	"github.com/tangzhangming/jack/internal/token"
)

// ============================================================================
// Parser - 语法分析器
// ============================================================================
//
// 对 Token 序列做递归下降分析，产出一个 *ast.Class。
//
// 文法的两处歧义都靠两个 token 的前瞻解决：
//   - 看到标识符后再看一个 token：'[' 是数组元素，'(' 或 '.' 是子程序
//     调用，其余情况是裸变量引用。前瞻失败不消费任何 token。
//   - classVarDec 与 subroutineDec 靠首关键字区分；类体先解析全部
//     classVarDec，再解析全部 subroutineDec，两类声明交错书写的文件
//     会从交错点开始解析失败。
//
// 错误策略是快速失败：遇到第一个结构错误即放弃整个编译单元，
// 不产出部分 AST。
//
// ============================================================================

// Parser 语法分析器
type Parser struct {
	tokens    []token.Token
	current   int
	filename  string
	lexErrors []lexer.Error
}

// New 从源代码创建语法分析器（内部先运行词法分析）
func New(source, filename string) *Parser {
	l := lexer.New(source, filename)
	tokens := l.ScanTokens()

	return &Parser{
		tokens:    tokens,
		filename:  filename,
		lexErrors: l.Errors(),
	}
}

// NewFromTokens 从既有 Token 序列创建语法分析器
//
// 序列必须以 EOF token 结尾。
func NewFromTokens(tokens []token.Token, filename string) *Parser {
	return &Parser{
		tokens:   tokens,
		filename: filename,
	}
}

// Parse 解析一个编译单元
//
// 一个编译单元恰好产出一个类。文件中若还有第二个类，
// 其 token 不会被消费（当前行为，不视为错误）。
func (p *Parser) Parse() (*ast.Class, error) {
	// 词法错误先于一切语法分析浮出
	if len(p.lexErrors) > 0 {
		first := p.lexErrors[0]
		return nil, errors.New(errors.LexicalGap, first.Pos, "%s", first.Message)
	}

	if p.isAtEnd() {
		return nil, errors.New(errors.SyntaxError, p.peek().Pos, "empty compilation unit")
	}

	return p.parseClass()
}

// ============================================================================
// 声明
// ============================================================================

// parseClass 解析 `class Name { classVarDec* subroutineDec* }`
func (p *Parser) parseClass() (*ast.Class, error) {
	classToken, err := p.consume(token.CLASS, "'class'")
	if err != nil {
		return nil, err
	}

	name, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}

	if _, err := p.consume(token.LBRACE, "'{'"); err != nil {
		return nil, err
	}

	class := &ast.Class{
		ClassToken: classToken,
		Name:       name,
	}

	for p.check(token.STATIC) || p.check(token.FIELD) {
		dec, err := p.parseClassVarDec()
		if err != nil {
			return nil, err
		}
		class.VarDecs = append(class.VarDecs, dec)
	}

	for p.checkAny(token.CONSTRUCTOR, token.FUNCTION, token.METHOD) {
		dec, err := p.parseSubroutineDec()
		if err != nil {
			return nil, err
		}
		class.Subroutines = append(class.Subroutines, dec)
	}

	if _, err := p.consume(token.RBRACE, "'}'"); err != nil {
		return nil, err
	}

	return class, nil
}

// parseClassVarDec 解析 `(static|field) type name (, name)* ;`
func (p *Parser) parseClassVarDec() (*ast.ClassVarDec, error) {
	kindToken := p.advance()
	kind := ast.StaticVar
	if kindToken.Type == token.FIELD {
		kind = ast.FieldVar
	}

	varType, err := p.parseType()
	if err != nil {
		return nil, err
	}

	names, err := p.parseNameList()
	if err != nil {
		return nil, err
	}

	if _, err := p.consume(token.SEMICOLON, "';'"); err != nil {
		return nil, err
	}

	return &ast.ClassVarDec{
		KindToken: kindToken,
		Kind:      kind,
		VarType:   varType,
		Names:     names,
	}, nil
}

// parseSubroutineDec 解析 `(constructor|function|method) (void|type) name (params) body`
func (p *Parser) parseSubroutineDec() (*ast.SubroutineDec, error) {
	kindToken := p.advance()
	var kind ast.SubroutineKind
	switch kindToken.Type {
	case token.CONSTRUCTOR:
		kind = ast.Constructor
	case token.FUNCTION:
		kind = ast.Function
	default:
		kind = ast.Method
	}

	// void 返回用 nil 表示
	var returnType *ast.Type
	if p.check(token.VOID) {
		p.advance()
	} else {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		returnType = t
	}

	name, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}

	if _, err := p.consume(token.LPAREN, "'('"); err != nil {
		return nil, err
	}

	var params []*ast.Param
	for p.checkAny(token.INT, token.CHAR, token.BOOLEAN, token.IDENT) {
		paramType, err := p.parseType()
		if err != nil {
			return nil, err
		}
		paramName, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		params = append(params, &ast.Param{VarType: paramType, Name: paramName})

		if !p.match(token.COMMA) {
			break
		}
	}

	if _, err := p.consume(token.RPAREN, "')'"); err != nil {
		return nil, err
	}

	body, err := p.parseSubroutineBody()
	if err != nil {
		return nil, err
	}

	return &ast.SubroutineDec{
		KindToken:  kindToken,
		Kind:       kind,
		ReturnType: returnType,
		Name:       name,
		Params:     params,
		Body:       body,
	}, nil
}

// parseSubroutineBody 解析 `{ varDec* statements }`
func (p *Parser) parseSubroutineBody() (*ast.SubroutineBody, error) {
	lbrace, err := p.consume(token.LBRACE, "'{'")
	if err != nil {
		return nil, err
	}

	body := &ast.SubroutineBody{LBrace: lbrace}

	for p.check(token.VAR) {
		dec, err := p.parseVarDec()
		if err != nil {
			return nil, err
		}
		body.VarDecs = append(body.VarDecs, dec)
	}

	stmts, err := p.parseStatements()
	if err != nil {
		return nil, err
	}
	body.Statements = stmts

	if _, err := p.consume(token.RBRACE, "'}'"); err != nil {
		return nil, err
	}

	return body, nil
}

// parseVarDec 解析 `var type name (, name)* ;`
func (p *Parser) parseVarDec() (*ast.VarDec, error) {
	varToken := p.advance() // var

	varType, err := p.parseType()
	if err != nil {
		return nil, err
	}

	names, err := p.parseNameList()
	if err != nil {
		return nil, err
	}

	if _, err := p.consume(token.SEMICOLON, "';'"); err != nil {
		return nil, err
	}

	return &ast.VarDec{
		VarToken: varToken,
		VarType:  varType,
		Names:    names,
	}, nil
}

// parseType 解析 `int | char | boolean | className`
func (p *Parser) parseType() (*ast.Type, error) {
	switch p.peek().Type {
	case token.INT, token.CHAR, token.BOOLEAN:
		t := p.advance()
		return &ast.Type{Token: t, Name: t.Literal}, nil
	case token.IDENT:
		t := p.advance()
		return &ast.Type{Token: t, Name: t.Literal, IsClass: true}, nil
	default:
		return nil, p.unexpected("a type")
	}
}

// parseNameList 解析逗号分隔的标识符列表
func (p *Parser) parseNameList() ([]*ast.Identifier, error) {
	var names []*ast.Identifier
	for {
		name, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		names = append(names, name)

		if !p.match(token.COMMA) {
			break
		}
	}
	return names, nil
}

// ============================================================================
// 语句
// ============================================================================

// parseStatements 解析语句序列，直到下一个 token 不再引导语句
func (p *Parser) parseStatements() ([]ast.Statement, error) {
	var stmts []ast.Statement
	for p.checkAny(token.LET, token.IF, token.WHILE, token.DO, token.RETURN) {
		stmt, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, stmt)
	}
	return stmts, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch p.peek().Type {
	case token.LET:
		return p.parseLetStatement()
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.DO:
		return p.parseDoStatement()
	default:
		return p.parseReturnStatement()
	}
}

// parseLetStatement 解析 `let name = expr;` 或 `let name[index] = expr;`
func (p *Parser) parseLetStatement() (ast.Statement, error) {
	letToken := p.advance()

	name, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}

	var index *ast.Expression
	if p.match(token.LBRACKET) {
		index, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.RBRACKET, "']'"); err != nil {
			return nil, err
		}
	}

	if _, err := p.consume(token.EQ, "'='"); err != nil {
		return nil, err
	}

	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}

	if _, err := p.consume(token.SEMICOLON, "';'"); err != nil {
		return nil, err
	}

	return &ast.LetStatement{
		LetToken: letToken,
		Name:     name,
		Index:    index,
		Value:    value,
	}, nil
}

// parseIfStatement 解析 `if (cond) { then } (else { else })?`
func (p *Parser) parseIfStatement() (ast.Statement, error) {
	ifToken := p.advance()

	if _, err := p.consume(token.LPAREN, "'('"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RPAREN, "')'"); err != nil {
		return nil, err
	}

	if _, err := p.consume(token.LBRACE, "'{'"); err != nil {
		return nil, err
	}
	then, err := p.parseStatements()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RBRACE, "'}'"); err != nil {
		return nil, err
	}

	stmt := &ast.IfStatement{IfToken: ifToken, Cond: cond, Then: then}

	if p.match(token.ELSE) {
		if _, err := p.consume(token.LBRACE, "'{'"); err != nil {
			return nil, err
		}
		elseBranch, err := p.parseStatements()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.RBRACE, "'}'"); err != nil {
			return nil, err
		}
		if elseBranch == nil {
			elseBranch = []ast.Statement{}
		}
		stmt.Else = elseBranch
	}

	return stmt, nil
}

// parseWhileStatement 解析 `while (cond) { body }`
func (p *Parser) parseWhileStatement() (ast.Statement, error) {
	whileToken := p.advance()

	if _, err := p.consume(token.LPAREN, "'('"); err != nil {
		return nil, err
	}
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RPAREN, "')'"); err != nil {
		return nil, err
	}

	if _, err := p.consume(token.LBRACE, "'{'"); err != nil {
		return nil, err
	}
	body, err := p.parseStatements()
	if err != nil {
		return nil, err
	}
	if _, err := p.consume(token.RBRACE, "'}'"); err != nil {
		return nil, err
	}

	return &ast.WhileStatement{WhileToken: whileToken, Cond: cond, Body: body}, nil
}

// parseDoStatement 解析 `do call;`（返回值被调用方丢弃）
func (p *Parser) parseDoStatement() (ast.Statement, error) {
	doToken := p.advance()

	call, err := p.parseSubroutineCall()
	if err != nil {
		return nil, err
	}

	if _, err := p.consume(token.SEMICOLON, "';'"); err != nil {
		return nil, err
	}

	return &ast.DoStatement{DoToken: doToken, Call: call}, nil
}

// parseReturnStatement 解析 `return;` 或 `return expr;`
func (p *Parser) parseReturnStatement() (ast.Statement, error) {
	returnToken := p.advance()

	stmt := &ast.ReturnStatement{ReturnToken: returnToken}

	if !p.check(token.SEMICOLON) {
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Value = value
	}

	if _, err := p.consume(token.SEMICOLON, "';'"); err != nil {
		return nil, err
	}

	return stmt, nil
}

// ============================================================================
// 表达式
// ============================================================================

// parseExpression 解析表达式
//
// 只捕获首项和至多一个 (op, term) 对。`a + b + c` 会在 `a + b`
// 之后停止，余下的 token 留给外层构造。这是对既有行为的忠实
// 保留，尚未决定是否推广为任意长度的同级运算序列。
func (p *Parser) parseExpression() (*ast.Expression, error) {
	term, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	expr := &ast.Expression{Term: term}

	if op, ok := p.matchOp(); ok {
		next, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		expr.Tail = append(expr.Tail, ast.OpTerm{Op: op, Term: next})
	}

	return expr, nil
}

// parseTerm 解析一个项
//
// 一元运算符先于关键字常量检测；标识符需要再前瞻一个 token
// 才能区分数组元素、子程序调用和裸变量引用。
func (p *Parser) parseTerm() (ast.Term, error) {
	// unaryOp term
	if p.check(token.MINUS) || p.check(token.TILDE) {
		opToken := p.advance()
		op := ast.UnaryNeg
		if opToken.Type == token.TILDE {
			op = ast.UnaryNot
		}
		operand, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryTerm{OpToken: opToken, Op: op, Operand: operand}, nil
	}

	// keywordConstant
	if kind, ok := keywordConstKind(p.peek().Type); ok {
		t := p.advance()
		return &ast.KeywordConst{Token: t, Kind: kind}, nil
	}

	switch p.peek().Type {
	case token.INT_CONST:
		t := p.advance()
		value, err := strconv.Atoi(t.Literal)
		if err != nil || value > 32767 {
			return nil, errors.New(errors.SyntaxError, t.Pos,
				"integer constant %s out of range (0..32767)", t.Literal)
		}
		return &ast.IntConst{Token: t, Value: value}, nil

	case token.STR_CONST:
		t := p.advance()
		return &ast.StrConst{Token: t, Value: t.Literal}, nil

	case token.LPAREN:
		lparen := p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if _, err := p.consume(token.RPAREN, "')'"); err != nil {
			return nil, err
		}
		return &ast.ParenTerm{LParen: lparen, Inner: inner}, nil

	case token.IDENT:
		// 前瞻第二个 token 决定产生式；不匹配时不消费
		switch p.peekNext().Type {
		case token.LBRACKET:
			name, _ := p.parseIdentifier()
			p.advance() // [
			index, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if _, err := p.consume(token.RBRACKET, "']'"); err != nil {
				return nil, err
			}
			return &ast.IndexTerm{Name: name, Index: index}, nil

		case token.LPAREN, token.DOT:
			call, err := p.parseSubroutineCall()
			if err != nil {
				return nil, err
			}
			return &ast.CallTerm{Call: call}, nil

		default:
			name, _ := p.parseIdentifier()
			return &ast.VarName{Name: name}, nil
		}

	default:
		return nil, p.unexpected("a term")
	}
}

// parseSubroutineCall 解析 `name(args)` 或 `target.name(args)`
func (p *Parser) parseSubroutineCall() (ast.SubroutineCall, error) {
	first, err := p.parseIdentifier()
	if err != nil {
		return nil, err
	}

	if p.match(token.DOT) {
		name, err := p.parseIdentifier()
		if err != nil {
			return nil, err
		}
		args, err := p.parseArguments()
		if err != nil {
			return nil, err
		}
		return &ast.ClassCall{Target: first, Name: name, Args: args}, nil
	}

	args, err := p.parseArguments()
	if err != nil {
		return nil, err
	}
	return &ast.Call{Name: first, Args: args}, nil
}

// parseArguments 解析 `( expressionList )`
func (p *Parser) parseArguments() ([]*ast.Expression, error) {
	if _, err := p.consume(token.LPAREN, "'('"); err != nil {
		return nil, err
	}

	if p.match(token.RPAREN) {
		return nil, nil // 空参数列表
	}

	var args []*ast.Expression
	for {
		arg, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)

		if !p.match(token.COMMA) {
			break
		}
	}

	if _, err := p.consume(token.RPAREN, "')'"); err != nil {
		return nil, err
	}

	return args, nil
}

// matchOp 条件消费一个二元运算符
func (p *Parser) matchOp() (ast.Op, bool) {
	var op ast.Op
	switch p.peek().Type {
	case token.PLUS:
		op = ast.OpPlus
	case token.MINUS:
		op = ast.OpMinus
	case token.STAR:
		op = ast.OpStar
	case token.SLASH:
		op = ast.OpSlash
	case token.AMP:
		op = ast.OpAmp
	case token.PIPE:
		op = ast.OpPipe
	case token.LT:
		op = ast.OpLt
	case token.GT:
		op = ast.OpGt
	case token.EQ:
		op = ast.OpEq
	default:
		return 0, false
	}
	p.advance()
	return op, true
}

func keywordConstKind(t token.TokenType) (ast.KeywordConstKind, bool) {
	switch t {
	case token.TRUE:
		return ast.TrueConst, true
	case token.FALSE:
		return ast.FalseConst, true
	case token.NULL:
		return ast.NullConst, true
	case token.THIS:
		return ast.ThisConst, true
	default:
		return 0, false
	}
}

// parseIdentifier 消费一个标识符
func (p *Parser) parseIdentifier() (*ast.Identifier, error) {
	t, err := p.consume(token.IDENT, "an identifier")
	if err != nil {
		return nil, err
	}
	return &ast.Identifier{Token: t, Name: t.Literal}, nil
}

// ============================================================================
// 辅助方法
// ============================================================================

func (p *Parser) isAtEnd() bool {
	return p.peek().Type == token.EOF
}

func (p *Parser) peek() token.Token {
	return p.tokens[p.current]
}

func (p *Parser) peekNext() token.Token {
	if p.current+1 >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // 返回EOF
	}
	return p.tokens[p.current+1]
}

func (p *Parser) previous() token.Token {
	return p.tokens[p.current-1]
}

func (p *Parser) advance() token.Token {
	if !p.isAtEnd() {
		p.current++
	}
	return p.previous()
}

func (p *Parser) check(t token.TokenType) bool {
	if p.isAtEnd() {
		return false
	}
	return p.peek().Type == t
}

func (p *Parser) checkAny(types ...token.TokenType) bool {
	for _, t := range types {
		if p.check(t) {
			return true
		}
	}
	return false
}

func (p *Parser) match(t token.TokenType) bool {
	if p.check(t) {
		p.advance()
		return true
	}
	return false
}

// consume 消费期望类型的 token，不匹配时返回语法错误
func (p *Parser) consume(t token.TokenType, what string) (token.Token, error) {
	if p.check(t) {
		return p.advance(), nil
	}
	return token.Token{}, p.unexpected(what)
}

// unexpected 构造一条携带期望描述和实际 token 的语法错误
func (p *Parser) unexpected(expected string) error {
	actual := p.peek()
	got := actual.Type.String()
	if actual.Type == token.IDENT || actual.Type == token.INT_CONST || actual.Type == token.STR_CONST {
		got = "'" + actual.Literal + "'"
	}
	return errors.New(errors.SyntaxError, actual.Pos,
		"expected %s but got %s", expected, got).WithCode(errors.E0006)
}
