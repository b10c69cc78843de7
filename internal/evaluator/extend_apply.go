package evaluator

import (
	"github.com/sassgo/sassgo/internal/css_ast"
	"github.com/sassgo/sassgo/internal/extender"
)

// ApplyExtends walks a fully-evaluated output tree and rewrites every
// rule's selector list through ext, the pass spec section 4.4 runs after
// every module has been evaluated (an @extend anywhere in the graph can
// reach a rule defined earlier in a different file, so this can't happen
// inline during the walk that produced the tree).
func ApplyExtends(nodes []css_ast.Node, ext *extender.Extender) []css_ast.Node {
	for _, n := range nodes {
		switch node := n.(type) {
		case *css_ast.Rule:
			node.Selectors = ext.Apply(node.Selectors)
			node.Body = ApplyExtends(node.Body, ext)
		case *css_ast.AtRule:
			node.Body = ApplyExtends(node.Body, ext)
		}
	}
	return nodes
}
