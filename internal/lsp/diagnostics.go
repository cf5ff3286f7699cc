package lsp

import (
	"go.lsp.dev/protocol"
)

// getDiagnostics 获取文档的诊断信息
//
// 词法错误全量报告；语法错误快速失败，至多一条。
func (s *Server) getDiagnostics(doc *Document) []protocol.Diagnostic {
	var diagnostics []protocol.Diagnostic

	// 确保文档已解析
	_ = doc.GetAST()

	for _, err := range doc.LexErrs {
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{
					Line:      uint32(err.Pos.Line - 1), // LSP 行号从 0 开始
					Character: uint32(err.Pos.Column - 1),
				},
				End: protocol.Position{
					Line:      uint32(err.Pos.Line - 1),
					Character: uint32(err.Pos.Column + 10), // 估计错误范围
				},
			},
			Severity: protocol.DiagnosticSeverityError,
			Source:   "jack",
			Message:  err.Message,
		})
	}

	if err := doc.ParseErr; err != nil {
		line := err.Line
		if line < 1 {
			line = 1
		}
		col := err.Column
		if col < 1 {
			col = 1
		}
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{
					Line:      uint32(line - 1),
					Character: uint32(col - 1),
				},
				End: protocol.Position{
					Line:      uint32(line - 1),
					Character: uint32(col + 10),
				},
			},
			Severity: protocol.DiagnosticSeverityError,
			Code:     err.Code,
			Source:   "jack",
			Message:  err.Message,
		})
	}

	return diagnostics
}
