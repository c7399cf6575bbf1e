package dto

import (
	"go/ast"
	"go/parser"
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryQuery_DocCommentOnType(t *testing.T) {
	file, err := parser.ParseFile(token.NewFileSet(), "history_query.go", nil, parser.ParseComments)
	require.NoError(t, err)

	assert.Nil(t, file.Doc, "history_query.go carries no package comment")

	var doc string
	ast.Inspect(file, func(n ast.Node) bool {
		if gd, ok := n.(*ast.GenDecl); ok && gd.Tok == token.TYPE {
			for _, s := range gd.Specs {
				if ts := s.(*ast.TypeSpec); ts.Name.Name == "HistoryQuery" && gd.Doc != nil {
					doc = gd.Doc.Text()
				}
			}
		}
		return true
	})
	assert.Contains(t, doc, "HistoryQuery describes")
}
