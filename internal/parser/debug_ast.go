package parser

import (
	"fmt"
	"io"
	"os"

	"formula/internal/ast"
	"formula/internal/object"

	"github.com/goccy/go-json"
)

// WalkAST recursively traverses a node tree and serializes it into a map
// structure for JSON output. Keys carry an ordering prefix so the encoded
// members keep a readable order.
func WalkAST(node ast.Node) interface{} {
	switch n := node.(type) {
	case nil:
		return nil

	case *ast.ProgramNode:
		statements := make([]interface{}, len(n.Statements()))
		for i, s := range n.Statements() {
			statements[i] = WalkAST(s)
		}
		return map[string]interface{}{
			"0.type":       "Program",
			"1.span":       n.Span().String(),
			"2.valueType":  n.Type().String(),
			"3.statements": statements,
		}

	case *ast.FunctionNode:
		args := make([]interface{}, len(n.Args()))
		for i, a := range n.Args() {
			args[i] = WalkAST(a)
		}
		return map[string]interface{}{
			"0.type":      "Function",
			"1.span":      n.Span().String(),
			"2.valueType": n.Type().String(),
			"3.name":      n.Name(),
			"4.arguments": args,
		}

	case *ast.VariableNode:
		return map[string]interface{}{
			"0.type":      "Variable",
			"1.span":      n.Span().String(),
			"2.valueType": n.Type().String(),
			"3.name":      n.Name(),
		}

	case *ast.ConstantNode:
		return map[string]interface{}{
			"0.type":      "Constant",
			"1.span":      n.Span().String(),
			"2.valueType": n.Type().String(),
			"3.value":     object.ToNative(n.Value()),
		}

	default:
		return map[string]interface{}{
			"0.type": fmt.Sprintf("Unknown: %T", n),
		}
	}
}

// RenderASTAsJSON writes the serialized tree to w, indented.
func RenderASTAsJSON(node ast.Node, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")  // Pretty-print the JSON
	encoder.SetEscapeHTML(false) // Disable escaping of characters like <, >, &

	if err := encoder.Encode(WalkAST(node)); err != nil {
		return fmt.Errorf("failed to write JSON: %w", err)
	}
	return nil
}

// WriteASTToJSON takes a root node and writes it to a JSON file.
func WriteASTToJSON(node ast.Node, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create JSON file: %w", err)
	}
	defer file.Close()

	return RenderASTAsJSON(node, file)
}
