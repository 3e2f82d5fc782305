package specifier

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"

	"github.com/matzehuels/httpsvendor/pkg/errors"
)

// Node types of the tree-sitter JavaScript grammar.
const (
	nodeImportStatement = "import_statement"
	nodeExportStatement = "export_statement"
	nodeCallExpression  = "call_expression"
	nodeImport          = "import"
	nodeString          = "string"
	nodeStringFragment  = "string_fragment"
	nodeEscapeSequence  = "escape_sequence"
	nodeComment         = "comment"
	nodeError           = "ERROR"
)

// JavaScript extracts specifiers using the tree-sitter JavaScript grammar.
// It is safe for concurrent use; each call creates its own parser.
type JavaScript struct{}

// NewJavaScript creates a JavaScript extractor.
func NewJavaScript() *JavaScript {
	return &JavaScript{}
}

// Extract parses src as a module and returns its specifiers. filename is
// used only in error messages.
func (j *JavaScript) Extract(ctx context.Context, src []byte, filename string) ([]string, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "parse %s", filename)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, errors.New(errors.ErrCodeParse, "syntax error in %s:%d", filename, errorLine(root))
	}

	found := newSet()
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch node.Type() {
		case nodeImportStatement, nodeExportStatement:
			if source := node.ChildByFieldName("source"); source != nil {
				found.add(stringValue(source, src))
			}
		case nodeCallExpression:
			if fn := node.ChildByFieldName("function"); fn != nil && fn.Type() == nodeImport {
				spec, err := dynamicImport(node, src, filename)
				if err != nil {
					return nil, err
				}
				found.add(spec)
			}
		}

		// Push in reverse so children are visited in source order.
		for i := int(node.NamedChildCount()) - 1; i >= 0; i-- {
			if child := node.NamedChild(i); child != nil {
				stack = append(stack, child)
			}
		}
	}
	return found.items, nil
}

// dynamicImport returns the literal argument of an import() call.
func dynamicImport(call *sitter.Node, src []byte, filename string) (string, error) {
	line := int(call.StartPoint().Row) + 1
	args := call.ChildByFieldName("arguments")
	if args == nil {
		return "", errors.New(errors.ErrCodeDynamicImport,
			"cannot have dynamic import without a target on %s:%d", filename, line)
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() == nodeComment {
			continue
		}
		if arg.Type() != nodeString {
			return "", errors.New(errors.ErrCodeDynamicImport,
				"cannot have dynamic import to expression %s on %s:%d", arg.Content(src), filename, line)
		}
		return stringValue(arg, src), nil
	}
	return "", errors.New(errors.ErrCodeDynamicImport,
		"cannot have dynamic import without a target on %s:%d", filename, line)
}

// stringValue returns the cooked value of a string literal node.
func stringValue(node *sitter.Node, src []byte) string {
	var b strings.Builder
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case nodeStringFragment:
			b.WriteString(child.Content(src))
		case nodeEscapeSequence:
			b.WriteString(unescape(child.Content(src)))
		}
	}
	return b.String()
}

// unescape decodes one JavaScript escape sequence, backslash included.
func unescape(seq string) string {
	if len(seq) < 2 || seq[0] != '\\' {
		return seq
	}
	body := seq[1:]
	switch body[0] {
	case 'n':
		return "\n"
	case 't':
		return "\t"
	case 'r':
		return "\r"
	case 'b':
		return "\b"
	case 'f':
		return "\f"
	case 'v':
		return "\v"
	case '0':
		if len(body) == 1 {
			return "\x00"
		}
	case '\n', '\r':
		// line continuation
		return ""
	case 'x':
		if r, ok := parseHex(body[1:]); ok {
			return string(r)
		}
	case 'u':
		hex := strings.TrimSuffix(strings.TrimPrefix(body[1:], "{"), "}")
		if r, ok := parseHex(hex); ok {
			return string(r)
		}
	}
	return body
}

func parseHex(s string) (rune, bool) {
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil || !utf8.ValidRune(rune(v)) {
		return 0, false
	}
	return rune(v), true
}

// errorLine returns the 1-based line of the first ERROR or missing node.
func errorLine(root *sitter.Node) int {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if node.Type() == nodeError || node.IsMissing() {
			return int(node.StartPoint().Row) + 1
		}
		for i := int(node.ChildCount()) - 1; i >= 0; i-- {
			if child := node.Child(i); child != nil && (child.HasError() || child.IsMissing()) {
				stack = append(stack, child)
			}
		}
	}
	return int(root.StartPoint().Row) + 1
}

var _ Extractor = (*JavaScript)(nil)
