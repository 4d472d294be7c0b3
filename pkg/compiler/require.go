package compiler

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
)

// RequireIdent replaces the require callee in rewritten sources. The runtime
// shim passes it to every module factory.
const RequireIdent = "__jspack_require__"

const (
	nodeCall          = "call_expression"
	nodeIdentifier    = "identifier"
	nodeArguments     = "arguments"
	nodeString        = "string"
	nodeTemplate      = "template_string"
	nodeSubstitution  = "template_substitution"
	nodeComment       = "comment"
	requireIdentifier = "require"
)

// requireCall is one static require("...") found in a module.
type requireCall struct {
	Specifier string
	Line      int
	Column    int

	callee [2]uint32
	args   [2]uint32
}

// edits returns the splices turning the call into
// __jspack_require__("<id>").
func (c requireCall) edits(id string) []edit {
	return []edit{
		{start: c.callee[0], end: c.callee[1], text: RequireIdent},
		{start: c.args[0], end: c.args[1], text: "(" + jsString(id) + ")"},
	}
}

type edit struct {
	start, end uint32
	text       string
}

// scanRequires parses src and returns every require call in source order.
// It does the following:
//
//  1. Parse the module with the JavaScript grammar. Any ERROR or MISSING
//     node fails the module with a ParseError.
//  2. Walk the tree depth first looking for calls whose callee is the bare
//     identifier require. Member calls such as require.resolve(...) and
//     calls to other functions are left alone.
//  3. Require the single argument to be a string literal, or a template
//     literal without substitutions.
func scanRequires(ctx context.Context, path string, src []byte) ([]requireCall, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, parseError(path, root, src)
	}

	var calls []requireCall
	var walkErr error
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if walkErr != nil {
			return
		}
		if n.Type() == nodeCall {
			call, ok, err := requireOf(path, n, src)
			if err != nil {
				walkErr = err
				return
			}
			if ok {
				calls = append(calls, call)
			}
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(root)
	if walkErr != nil {
		return nil, walkErr
	}
	return calls, nil
}

// requireOf inspects a call_expression. ok is false when the call is not a
// require call.
func requireOf(path string, n *sitter.Node, src []byte) (requireCall, bool, error) {
	fn := n.ChildByFieldName("function")
	if fn == nil || fn.Type() != nodeIdentifier || fn.Content(src) != requireIdentifier {
		return requireCall{}, false, nil
	}

	pos := n.StartPoint()
	call := requireCall{
		Line:   int(pos.Row) + 1,
		Column: int(pos.Column) + 1,
		callee: [2]uint32{fn.StartByte(), fn.EndByte()},
	}
	unsupported := func(expr string) (requireCall, bool, error) {
		return requireCall{}, false, &UnsupportedDependencyError{
			Path:       path,
			Line:       call.Line,
			Column:     call.Column,
			Expression: truncate(expr, 60),
		}
	}

	args := n.ChildByFieldName("arguments")
	if args == nil || args.Type() != nodeArguments {
		return unsupported(n.Content(src))
	}
	var values []*sitter.Node
	for i := 0; i < int(args.NamedChildCount()); i++ {
		if c := args.NamedChild(i); c.Type() != nodeComment {
			values = append(values, c)
		}
	}
	if len(values) != 1 {
		return unsupported(args.Content(src))
	}

	spec, ok := literal(values[0], src)
	if !ok {
		return unsupported(values[0].Content(src))
	}
	call.Specifier = spec
	call.args = [2]uint32{args.StartByte(), args.EndByte()}
	return call, true, nil
}

// literal returns the value of a string literal or a template literal
// without substitutions.
func literal(n *sitter.Node, src []byte) (string, bool) {
	switch n.Type() {
	case nodeString:
	case nodeTemplate:
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if n.NamedChild(i).Type() == nodeSubstitution {
				return "", false
			}
		}
	default:
		return "", false
	}
	raw := n.Content(src)
	if len(raw) < 2 {
		return "", false
	}
	return unescape(raw[1 : len(raw)-1]), true
}

// unescape decodes JavaScript string escape sequences.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := s[i]; e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'v':
			b.WriteByte('\v')
		case '0':
			b.WriteByte(0)
		case '\n':
			// Line continuation.
		case 'x':
			if i+2 < len(s) {
				if v, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
					b.WriteRune(rune(v))
					i += 2
					continue
				}
			}
			b.WriteByte(e)
		case 'u':
			r, n := unicodeEscape(s[i+1:])
			if n == 0 {
				b.WriteByte(e)
				continue
			}
			b.WriteRune(r)
			i += n
		default:
			b.WriteByte(e)
		}
	}
	return b.String()
}

// unicodeEscape decodes the part of a \u escape after the u. It returns the
// rune and the number of bytes consumed, or 0 when the escape is malformed.
func unicodeEscape(s string) (rune, int) {
	if strings.HasPrefix(s, "{") {
		end := strings.IndexByte(s, '}')
		if end < 2 {
			return 0, 0
		}
		v, err := strconv.ParseUint(s[1:end], 16, 32)
		if err != nil || !utf8.ValidRune(rune(v)) {
			return 0, 0
		}
		return rune(v), end + 1
	}
	if len(s) < 4 {
		return 0, 0
	}
	v, err := strconv.ParseUint(s[:4], 16, 16)
	if err != nil {
		return 0, 0
	}
	r := rune(v)
	// A high surrogate followed by \uXXXX low surrogate is one code point.
	if utf16.IsSurrogate(r) && len(s) >= 10 && s[4:6] == `\u` {
		if lo, err := strconv.ParseUint(s[6:10], 16, 16); err == nil {
			if pair := utf16.DecodeRune(r, rune(lo)); pair != utf8.RuneError {
				return pair, 10
			}
		}
	}
	return r, 4
}

// parseError locates the first ERROR or MISSING node under root.
func parseError(path string, root *sitter.Node, src []byte) error {
	bad := firstError(root)
	if bad == nil {
		bad = root
	}
	pos := bad.StartPoint()
	return &ParseError{
		Path:   path,
		Line:   int(pos.Row) + 1,
		Column: int(pos.Column) + 1,
		Near:   truncate(bad.Content(src), 40),
	}
}

func firstError(n *sitter.Node) *sitter.Node {
	if n.IsError() || n.IsMissing() {
		return n
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if bad := firstError(n.Child(i)); bad != nil {
			return bad
		}
	}
	return nil
}

// rewrite applies non-overlapping edits to src.
func rewrite(src []byte, edits []edit) []byte {
	if len(edits) == 0 {
		return src
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })

	out := make([]byte, 0, len(src)+len(edits)*16)
	var last uint32
	for _, e := range edits {
		out = append(out, src[last:e.start]...)
		out = append(out, e.text...)
		last = e.end
	}
	return append(out, src[last:]...)
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
