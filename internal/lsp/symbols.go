package lsp

import (
	"encoding/json"

	"github.com/tangzhangming/jack/internal/ast"
	"github.com/tangzhangming/jack/internal/token"
	"go.lsp.dev/protocol"
)

// handleDocumentSymbol 处理文档符号请求
//
// 返回类 -> 类级变量 / 子程序 -> 局部变量的层级结构。
func (s *Server) handleDocumentSymbol(id json.RawMessage, params json.RawMessage) {
	var p protocol.DocumentSymbolParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.sendError(id, -32700, "Parse error")
		return
	}

	doc := s.documents.Get(string(p.TextDocument.URI))
	if doc == nil {
		s.sendResult(id, []protocol.DocumentSymbol{})
		return
	}

	class := doc.GetAST()
	if class == nil {
		s.sendResult(id, []protocol.DocumentSymbol{})
		return
	}

	classSymbol := protocol.DocumentSymbol{
		Name:           class.Name.Name,
		Kind:           protocol.SymbolKindClass,
		Range:          identRange(class.Name),
		SelectionRange: identRange(class.Name),
	}

	for _, dec := range class.VarDecs {
		kind := protocol.SymbolKindField
		if dec.Kind == ast.StaticVar {
			kind = protocol.SymbolKindVariable
		}
		for _, name := range dec.Names {
			classSymbol.Children = append(classSymbol.Children, protocol.DocumentSymbol{
				Name:           name.Name,
				Detail:         dec.Kind.String() + " " + dec.VarType.Name,
				Kind:           kind,
				Range:          identRange(name),
				SelectionRange: identRange(name),
			})
		}
	}

	for _, sub := range class.Subroutines {
		classSymbol.Children = append(classSymbol.Children, subroutineSymbol(sub))
	}

	s.sendResult(id, []protocol.DocumentSymbol{classSymbol})
}

// subroutineSymbol 构造子程序符号及其局部变量子节点
func subroutineSymbol(sub *ast.SubroutineDec) protocol.DocumentSymbol {
	var kind protocol.SymbolKind
	switch sub.Kind {
	case ast.Constructor:
		kind = protocol.SymbolKindConstructor
	case ast.Method:
		kind = protocol.SymbolKindMethod
	default:
		kind = protocol.SymbolKindFunction
	}

	symbol := protocol.DocumentSymbol{
		Name:           sub.Name.Name,
		Detail:         sub.String(),
		Kind:           kind,
		Range:          identRange(sub.Name),
		SelectionRange: identRange(sub.Name),
	}

	for _, dec := range sub.Body.VarDecs {
		for _, name := range dec.Names {
			symbol.Children = append(symbol.Children, protocol.DocumentSymbol{
				Name:           name.Name,
				Detail:         "var " + dec.VarType.Name,
				Kind:           protocol.SymbolKindVariable,
				Range:          identRange(name),
				SelectionRange: identRange(name),
			})
		}
	}

	return symbol
}

// identRange 标识符的 LSP 范围（行列都转为 0 起始）
func identRange(ident *ast.Identifier) protocol.Range {
	return posRange(ident.Token.Pos, len(ident.Name))
}

func posRange(pos token.Position, length int) protocol.Range {
	line := pos.Line - 1
	if line < 0 {
		line = 0
	}
	col := pos.Column - 1
	if col < 0 {
		col = 0
	}
	return protocol.Range{
		Start: protocol.Position{Line: uint32(line), Character: uint32(col)},
		End:   protocol.Position{Line: uint32(line), Character: uint32(col + length)},
	}
}
