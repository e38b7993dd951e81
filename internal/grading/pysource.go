package grading

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// pyImport is one imported name from a Python source file.
type pyImport struct {
	Module string // "from <Module> import ..."; empty for plain imports
	Name   string
	As     string
}

// key is the text import filters match against, e.g. "numpy" or "os path".
func (p pyImport) key() string {
	if p.Module == "" {
		return p.Name
	}
	return p.Module + " " + p.Name
}

func (p pyImport) line() string {
	var b strings.Builder
	if p.Module != "" {
		fmt.Fprintf(&b, "from %s import %s", p.Module, p.Name)
	} else {
		fmt.Fprintf(&b, "import %s", p.Name)
	}
	if p.As != "" {
		fmt.Fprintf(&b, " as %s", p.As)
	}
	return b.String()
}

// pySource is a parsed Python file.
type pySource struct {
	src  []byte
	tree *sitter.Tree
}

// parsePython parses src with the tree-sitter Python grammar. A file that
// does not parse cleanly is rejected as a whole.
func parsePython(ctx context.Context, src string) (*pySource, error) {
	b := []byte(strings.ReplaceAll(src, "\r\n", "\n"))
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, b)
	if err != nil {
		return nil, fmt.Errorf("parse python: %w", err)
	}
	if root := tree.RootNode(); root.HasError() {
		tree.Close()
		return nil, fmt.Errorf("python syntax error near line %d", firstError(root)+1)
	}
	return &pySource{src: b, tree: tree}, nil
}

func (p *pySource) Close() { p.tree.Close() }

func firstError(n *sitter.Node) uint32 {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n.StartPoint().Row
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); c.HasError() {
			return firstError(c)
		}
	}
	return n.StartPoint().Row
}

// walk visits the tree breadth first, so shallower nodes come first and
// siblings keep source order. fn returning false stops the walk.
func (p *pySource) walk(fn func(n *sitter.Node) bool) {
	queue := []*sitter.Node{p.tree.RootNode()}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		if !fn(n) {
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			queue = append(queue, n.NamedChild(i))
		}
	}
}

func (p *pySource) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return n.Content(p.src)
}

// imports returns every import statement in the file, nested ones included.
// A repeated import keeps its first position and its last spelling.
func (p *pySource) imports() []pyImport {
	var out []pyImport
	at := map[string]int{}
	add := func(imp pyImport) {
		if imp.Name == "" {
			return
		}
		if i, ok := at[imp.key()]; ok {
			out[i] = imp
			return
		}
		at[imp.key()] = len(out)
		out = append(out, imp)
	}
	p.walk(func(n *sitter.Node) bool {
		var module string
		switch n.Type() {
		case "import_statement":
		case "import_from_statement":
			module = p.text(n.ChildByFieldName("module_name"))
		case "future_import_statement":
			module = "__future__"
		default:
			return true
		}
		moduleNode := n.ChildByFieldName("module_name")
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			if moduleNode != nil && c.StartByte() == moduleNode.StartByte() {
				continue
			}
			switch c.Type() {
			case "dotted_name":
				add(pyImport{Module: module, Name: p.text(c)})
			case "aliased_import":
				add(pyImport{
					Module: module,
					Name:   p.text(c.ChildByFieldName("name")),
					As:     p.text(c.ChildByFieldName("alias")),
				})
			case "wildcard_import":
				add(pyImport{Module: module, Name: "*"})
			}
		}
		return true
	})
	return out
}

// importFilter decides which imports may be copied into the harness file.
// allowed and disallowed are comma separated regular expressions; "any"
// means every library.
type importFilter struct {
	allowAll   bool
	denyAll    bool
	permissive bool
	allowed    []*regexp.Regexp
	disallowed []*regexp.Regexp
}

func newImportFilter(allowed, disallowed string) importFilter {
	f := importFilter{}
	if allowed == "any" && disallowed == "" {
		f.permissive = true
		return f
	}
	if disallowed == "any" {
		f.denyAll = true
		return f
	}
	al := strings.Split(allowed, ",")
	f.allowAll = al[0] == "any"
	if !f.allowAll {
		f.allowed = compilePatterns(al)
	}
	if dl := strings.Split(disallowed, ","); dl[0] != "" {
		f.disallowed = compilePatterns(dl)
	}
	return f
}

func compilePatterns(pats []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(pats))
	for _, p := range pats {
		if p == "" {
			continue
		}
		re, err := regexp.Compile(p)
		if err != nil {
			re = regexp.MustCompile(regexp.QuoteMeta(p))
		}
		out = append(out, re)
	}
	return out
}

func (f importFilter) keep(key string) bool {
	if f.permissive {
		return true
	}
	if f.denyAll {
		return false
	}
	for _, re := range f.disallowed {
		if re.MatchString(key) {
			return false
		}
	}
	if f.allowAll {
		return true
	}
	for _, re := range f.allowed {
		if re.MatchString(key) {
			return true
		}
	}
	return false
}

// filteredImportLines renders the imports that pass the filter.
func filteredImportLines(imports []pyImport, allowed, disallowed string) []string {
	f := newImportFilter(allowed, disallowed)
	var lines []string
	for _, imp := range imports {
		if f.keep(imp.key()) {
			lines = append(lines, imp.line())
		}
	}
	return lines
}

var defKindNode = map[string]string{
	"function": "function_definition",
	"class":    "class_definition",
}

// definition returns the source of the def or class named name, dedented to
// column zero and including its decorators. The shallowest match wins, then
// the first in the file. ok is false when nothing matched or kind is unknown.
func (p *pySource) definition(name, kind string) (string, bool) {
	nodeType, known := defKindNode[kind]
	if !known {
		return "", false
	}
	var found *sitter.Node
	p.walk(func(n *sitter.Node) bool {
		if n.Type() == nodeType && p.text(n.ChildByFieldName("name")) == name {
			found = n
			return false
		}
		return true
	})
	if found == nil {
		return "", false
	}
	if parent := found.Parent(); parent != nil && parent.Type() == "decorated_definition" {
		found = parent
	}
	return p.dedent(found), true
}

// dedent cuts n out of the file and shifts it left by its own column. Lines
// that start inside a string literal are copied unchanged.
func (p *pySource) dedent(n *sitter.Node) string {
	col := int(n.StartPoint().Column)
	start := int(n.StartByte()) - col
	lines := strings.Split(string(p.src[start:n.EndByte()]), "\n")

	first := n.StartPoint().Row
	inString := map[uint32]bool{}
	walkNamed(n, func(c *sitter.Node) {
		if c.Type() != "string" {
			return
		}
		for r := c.StartPoint().Row + 1; r <= c.EndPoint().Row; r++ {
			inString[r] = true
		}
	})
	for i, l := range lines {
		if inString[first+uint32(i)] {
			continue
		}
		w := min(col, leadingWidth(l))
		lines[i] = l[w:]
	}
	return strings.Join(lines, "\n")
}

func walkNamed(n *sitter.Node, fn func(*sitter.Node)) {
	fn(n)
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walkNamed(n.NamedChild(i), fn)
	}
}

func leadingWidth(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \t"))
}
