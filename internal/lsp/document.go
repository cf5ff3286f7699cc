package lsp

import (
	"strings"
	"sync"

	"github.com/tangzhangming/jack/internal/ast"
	"github.com/tangzhangming/jack/internal/errors"
	"github.com/tangzhangming/jack/internal/lexer"
	"github.com/tangzhangming/jack/internal/parser"
	"go.lsp.dev/protocol"
)

// Document 表示一个打开的文档
type Document struct {
	URI     string
	Content string
	Version int
	Lines   []string // 按行分割的内容

	// 缓存的解析结果
	AST      *ast.Class
	LexErrs  []lexer.Error
	ParseErr *errors.CompileError // 语法分析快速失败，至多一条

	// 是否需要重新解析
	dirty bool
}

// DocumentManager 文档管理器
type DocumentManager struct {
	documents map[string]*Document
	mu        sync.RWMutex
}

// NewDocumentManager 创建文档管理器
func NewDocumentManager() *DocumentManager {
	return &DocumentManager{
		documents: make(map[string]*Document),
	}
}

// Open 打开文档
func (dm *DocumentManager) Open(uri, content string, version int) *Document {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc := &Document{
		URI:     uri,
		Content: content,
		Version: version,
		Lines:   splitLines(content),
		dirty:   true,
	}

	// 立即解析
	doc.parse()

	dm.documents[uri] = doc
	return doc
}

// Close 关闭文档
func (dm *DocumentManager) Close(uri string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()
	delete(dm.documents, uri)
}

// Get 获取文档
func (dm *DocumentManager) Get(uri string) *Document {
	dm.mu.RLock()
	defer dm.mu.RUnlock()
	return dm.documents[uri]
}

// UpdateContent 更新文档内容
func (dm *DocumentManager) UpdateContent(uri, content string) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, ok := dm.documents[uri]
	if !ok {
		return
	}

	doc.Content = content
	doc.Lines = splitLines(content)
	doc.Version++
	doc.dirty = true
	doc.parse()
}

// ApplyChange 应用增量变更
func (dm *DocumentManager) ApplyChange(uri string, change protocol.TextDocumentContentChangeEvent, version int) {
	dm.mu.Lock()
	defer dm.mu.Unlock()

	doc, ok := dm.documents[uri]
	if !ok {
		return
	}

	// 如果没有范围（Range 为零值），则是完整替换
	// LSP 规范：如果 range 被省略，新文本被认为是文档的完整内容
	isFullReplace := change.Range.Start.Line == 0 &&
		change.Range.Start.Character == 0 &&
		change.Range.End.Line == 0 &&
		change.Range.End.Character == 0 &&
		change.RangeLength == 0

	if isFullReplace {
		doc.Content = change.Text
		doc.Lines = splitLines(change.Text)
	} else {
		// 增量更新
		doc.Content = applyTextEdit(doc.Content, change.Range, change.Text)
		doc.Lines = splitLines(doc.Content)
	}

	doc.Version = version
	doc.dirty = true
	doc.parse()
}

// maxDocumentSize 文档大小限制（500KB），防止内存暴涨
const maxDocumentSize = 500 * 1024

// parse 解析文档
//
// 词法分析的全部错误都会收集；语法分析快速失败，只保留第一条。
func (doc *Document) parse() {
	if !doc.dirty {
		return
	}

	doc.AST = nil
	doc.LexErrs = nil
	doc.ParseErr = nil

	// 检查文档大小，防止内存暴涨
	if len(doc.Content) > maxDocumentSize {
		doc.ParseErr = &errors.CompileError{
			Kind:    errors.SyntaxError,
			Code:    errors.E0001,
			Message: "document too large to parse",
			Line:    1,
			Column:  1,
		}
		doc.dirty = false
		return
	}

	filename := uriToPath(doc.URI)

	l := lexer.New(doc.Content, filename)
	tokens := l.ScanTokens()
	doc.LexErrs = l.Errors()

	if len(doc.LexErrs) > 0 {
		doc.dirty = false
		return
	}

	class, err := parser.NewFromTokens(tokens, filename).Parse()
	if err != nil {
		if ce, ok := err.(*errors.CompileError); ok {
			doc.ParseErr = ce
		}
		doc.dirty = false
		return
	}

	doc.AST = class
	doc.dirty = false
}

// GetAST 获取 AST（如果需要会重新解析）
func (doc *Document) GetAST() *ast.Class {
	if doc.dirty {
		doc.parse()
	}
	return doc.AST
}

// GetLine 获取指定行内容
func (doc *Document) GetLine(line int) string {
	if line < 0 || line >= len(doc.Lines) {
		return ""
	}
	return doc.Lines[line]
}

// GetWordAt 获取指定位置的单词
func (doc *Document) GetWordAt(line, character int) string {
	if line < 0 || line >= len(doc.Lines) {
		return ""
	}

	lineText := doc.Lines[line]
	if character < 0 || character > len(lineText) {
		return ""
	}

	// 向前查找单词开始
	start := character
	for start > 0 && isWordChar(lineText[start-1]) {
		start--
	}

	// 向后查找单词结束
	end := character
	for end < len(lineText) && isWordChar(lineText[end]) {
		end++
	}

	return lineText[start:end]
}

// splitLines 将内容按行分割
func splitLines(content string) []string {
	// 处理不同的换行符
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.Split(content, "\n")
}

// applyTextEdit 应用文本编辑
func applyTextEdit(content string, rang protocol.Range, newText string) string {
	lines := splitLines(content)

	// 获取开始和结束位置
	startLine := int(rang.Start.Line)
	startChar := int(rang.Start.Character)
	endLine := int(rang.End.Line)
	endChar := int(rang.End.Character)

	// 确保行号有效
	if startLine >= len(lines) {
		startLine = len(lines) - 1
	}
	if endLine >= len(lines) {
		endLine = len(lines) - 1
	}
	if startLine < 0 {
		startLine = 0
	}
	if endLine < 0 {
		endLine = 0
	}

	// 获取开始行和结束行
	startLineText := ""
	endLineText := ""
	if startLine < len(lines) {
		startLineText = lines[startLine]
	}
	if endLine < len(lines) {
		endLineText = lines[endLine]
	}

	// 确保字符位置有效
	if startChar > len(startLineText) {
		startChar = len(startLineText)
	}
	if endChar > len(endLineText) {
		endChar = len(endLineText)
	}

	// 构建新内容
	var result strings.Builder

	// 添加开始位置之前的内容
	for i := 0; i < startLine; i++ {
		result.WriteString(lines[i])
		result.WriteString("\n")
	}
	result.WriteString(startLineText[:startChar])

	// 添加新文本
	result.WriteString(newText)

	// 添加结束位置之后的内容
	result.WriteString(endLineText[endChar:])
	for i := endLine + 1; i < len(lines); i++ {
		result.WriteString("\n")
		result.WriteString(lines[i])
	}

	return result.String()
}

// isWordChar 判断是否是单词字符
func isWordChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '_'
}
