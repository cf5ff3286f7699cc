package lsp

import (
	"encoding/json"
	"fmt"

	"github.com/tangzhangming/jack/internal/ast"
	"go.lsp.dev/protocol"
)

// handleHover 处理悬停请求
//
// 在类声明中查找光标下的标识符：类名、类级变量、子程序、
// 形参和局部变量都能给出声明签名。
func (s *Server) handleHover(id json.RawMessage, params json.RawMessage) {
	var p protocol.HoverParams
	if err := json.Unmarshal(params, &p); err != nil {
		s.sendError(id, -32700, "Parse error")
		return
	}

	doc := s.documents.Get(string(p.TextDocument.URI))
	if doc == nil {
		s.sendResult(id, nil)
		return
	}

	word := doc.GetWordAt(int(p.Position.Line), int(p.Position.Character))
	if word == "" {
		s.sendResult(id, nil)
		return
	}

	class := doc.GetAST()
	if class == nil {
		s.sendResult(id, nil)
		return
	}

	signature := lookupSignature(class, word)
	if signature == "" {
		s.sendResult(id, nil)
		return
	}

	s.sendResult(id, protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.Markdown,
			Value: fmt.Sprintf("```jack\n%s\n```", signature),
		},
	})
}

// lookupSignature 在类声明中查找标识符的声明签名
func lookupSignature(class *ast.Class, word string) string {
	if class.Name.Name == word {
		return "class " + word
	}

	for _, dec := range class.VarDecs {
		for _, name := range dec.Names {
			if name.Name == word {
				return fmt.Sprintf("%s %s %s", dec.Kind, dec.VarType.Name, word)
			}
		}
	}

	for _, sub := range class.Subroutines {
		if sub.Name.Name == word {
			return sub.String()
		}

		for _, param := range sub.Params {
			if param.Name.Name == word {
				return fmt.Sprintf("%s %s  // parameter of %s",
					param.VarType.Name, word, sub.Name.Name)
			}
		}

		for _, dec := range sub.Body.VarDecs {
			for _, name := range dec.Names {
				if name.Name == word {
					return fmt.Sprintf("var %s %s  // local of %s",
						dec.VarType.Name, word, sub.Name.Name)
				}
			}
		}
	}

	return ""
}
