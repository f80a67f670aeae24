package javasrc

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
	"golang.org/x/sync/errgroup"
)

// Parser parses Java source files using tree-sitter. A Parser is not safe for
// concurrent use; ParseFiles gives every worker its own.
type Parser struct {
	parser *sitter.Parser
}

// NewParser creates a Java parser
func NewParser() *Parser {
	p := sitter.NewParser()
	p.SetLanguage(java.GetLanguage())
	return &Parser{parser: p}
}

// IsJavaFile reports whether path has a .java extension
func IsJavaFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".java")
}

// ParseFile parses a single file
func (p *Parser) ParseFile(ctx context.Context, filePath string) (*CompilationUnit, error) {
	if !IsJavaFile(filePath) {
		return nil, fmt.Errorf("not a java source file: %s", filePath)
	}
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.ParseContent(ctx, filePath, string(content))
}

// ParseContent parses Java source held in memory
func (p *Parser) ParseContent(ctx context.Context, filePath, content string) (*CompilationUnit, error) {
	source := []byte(content)
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filePath, err)
	}
	defer tree.Close()

	unit := &CompilationUnit{
		Path:    filePath,
		Imports: make([]string, 0),
		Types:   make([]TypeDecl, 0),
	}

	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch child.Type() {
		case "package_declaration":
			unit.Package = declaredName(child, source)
		case "import_declaration":
			unit.Imports = append(unit.Imports, importName(child, source))
		case "class_declaration", "interface_declaration":
			extractType(child, source, "", unit)
		}
	}

	return unit, nil
}

// ParseFiles parses paths with up to workers goroutines. Units come back in
// the order of paths.
func ParseFiles(ctx context.Context, paths []string, workers int) ([]*CompilationUnit, error) {
	if workers < 1 {
		workers = 1
	}
	units := make([]*CompilationUnit, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			unit, err := NewParser().ParseFile(ctx, path)
			if err != nil {
				return err
			}
			units[i] = unit
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return units, nil
}

func declaredName(node *sitter.Node, source []byte) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "scoped_identifier" || child.Type() == "identifier" {
			return child.Content(source)
		}
	}
	return ""
}

func importName(node *sitter.Node, source []byte) string {
	text := strings.TrimSpace(node.Content(source))
	text = strings.TrimPrefix(text, "import")
	text = strings.TrimSuffix(text, ";")
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "static ")
	return strings.Join(strings.Fields(text), "")
}

func extractType(node *sitter.Node, source []byte, outer string, unit *CompilationUnit) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := nameNode.Content(source)
	if outer != "" {
		name = outer + "$" + name
	}

	decl := TypeDecl{
		Name:      name,
		Kind:      KindClass,
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		Methods:   make([]MethodDecl, 0),
	}
	if node.Type() == "interface_declaration" {
		decl.Kind = KindInterface
	}
	decl.Modifiers, decl.Annotations = extractModifiers(node, source)
	decl.TypeParameters = extractTypeParameters(node, source)

	if sc := node.ChildByFieldName("superclass"); sc != nil && sc.NamedChildCount() > 0 {
		decl.Superclass = typeText(sc.NamedChild(0), source)
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "super_interfaces", "extends_interfaces":
			decl.Interfaces = append(decl.Interfaces, extractTypeList(child, source)...)
		}
	}

	var nested []*sitter.Node
	if body := node.ChildByFieldName("body"); body != nil {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			child := body.NamedChild(i)
			switch child.Type() {
			case "method_declaration", "constructor_declaration":
				decl.Methods = append(decl.Methods, extractMethod(child, source))
			case "class_declaration", "interface_declaration":
				nested = append(nested, child)
			}
		}
	}

	unit.Types = append(unit.Types, decl)
	for _, n := range nested {
		extractType(n, source, name, unit)
	}
}

func extractMethod(node *sitter.Node, source []byte) MethodDecl {
	m := MethodDecl{
		IsConstructor: node.Type() == "constructor_declaration",
		StartLine:     int(node.StartPoint().Row) + 1,
		EndLine:       int(node.EndPoint().Row) + 1,
		Params:        make([]ParamDecl, 0),
	}
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		m.Name = nameNode.Content(source)
	}
	m.Modifiers, m.Annotations = extractModifiers(node, source)
	m.TypeParameters = extractTypeParameters(node, source)

	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		m.ReturnType = typeText(typeNode, source)
		if dims := node.ChildByFieldName("dimensions"); dims != nil {
			m.ReturnType += typeText(dims, source)
		}
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		m.Params = extractParameters(params, source)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		m.Body = body.Content(source)
		m.HasBody = true
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "throws":
			m.Throws = extractTypeList(child, source)
		case "block_comment", "comment":
			if code, ok := jsniCode(child.Content(source)); ok {
				m.Jsni = code
			}
		}
	}

	return m
}

// jsniCode extracts the JavaScript of a /*-{ ... }-*/ comment
func jsniCode(comment string) (string, bool) {
	if !strings.HasPrefix(comment, "/*-{") || !strings.HasSuffix(comment, "}-*/") {
		return "", false
	}
	return strings.TrimSpace(comment[len("/*-{") : len(comment)-len("}-*/")]), true
}

func extractParameters(node *sitter.Node, source []byte) []ParamDecl {
	params := make([]ParamDecl, 0)

	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "formal_parameter":
			var param ParamDecl
			if typeNode := child.ChildByFieldName("type"); typeNode != nil {
				param.Type = typeText(typeNode, source)
			}
			if nameNode := child.ChildByFieldName("name"); nameNode != nil {
				param.Name = nameNode.Content(source)
			}
			if dims := child.ChildByFieldName("dimensions"); dims != nil {
				param.Type += typeText(dims, source)
			}
			mods, _ := extractModifiers(child, source)
			param.Final = HasModifier(mods, "final")
			params = append(params, param)

		case "spread_parameter":
			param := ParamDecl{Varargs: true}
			for j := 0; j < int(child.NamedChildCount()); j++ {
				part := child.NamedChild(j)
				switch part.Type() {
				case "modifiers":
					mods, _ := extractModifiers(child, source)
					param.Final = HasModifier(mods, "final")
				case "variable_declarator":
					if nameNode := part.ChildByFieldName("name"); nameNode != nil {
						param.Name = nameNode.Content(source)
					}
				default:
					if param.Type == "" {
						param.Type = typeText(part, source)
					}
				}
			}
			param.Type += "[]"
			params = append(params, param)
		}
	}

	return params
}

func extractModifiers(node *sitter.Node, source []byte) ([]string, []Annotation) {
	var mods []string
	var anns []Annotation

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() != "modifiers" {
			continue
		}
		for j := 0; j < int(child.ChildCount()); j++ {
			mod := child.Child(j)
			switch mod.Type() {
			case "marker_annotation", "annotation":
				anns = append(anns, extractAnnotation(mod, source))
			default:
				if isJavaModifier(mod.Type()) {
					mods = append(mods, mod.Type())
				}
			}
		}
	}

	return mods, anns
}

func extractAnnotation(node *sitter.Node, source []byte) Annotation {
	ann := Annotation{Values: make(map[string]string)}
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		ann.Name = nameNode.Content(source)
	}

	args := node.ChildByFieldName("arguments")
	if args == nil {
		return ann
	}
	for i := 0; i < int(args.NamedChildCount()); i++ {
		arg := args.NamedChild(i)
		if arg.Type() == "element_value_pair" {
			key := arg.ChildByFieldName("key")
			value := arg.ChildByFieldName("value")
			if key != nil && value != nil {
				ann.Values[key.Content(source)] = value.Content(source)
			}
			continue
		}
		ann.Values["value"] = arg.Content(source)
	}
	return ann
}

func extractTypeParameters(node *sitter.Node, source []byte) []string {
	tp := node.ChildByFieldName("type_parameters")
	if tp == nil {
		return nil
	}
	var names []string
	for i := 0; i < int(tp.NamedChildCount()); i++ {
		param := tp.NamedChild(i)
		if param.Type() != "type_parameter" {
			continue
		}
		for j := 0; j < int(param.NamedChildCount()); j++ {
			id := param.NamedChild(j)
			if id.Type() == "identifier" || id.Type() == "type_identifier" {
				names = append(names, id.Content(source))
				break
			}
		}
	}
	return names
}

func extractTypeList(node *sitter.Node, source []byte) []string {
	var types []string
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "type_list" {
			types = append(types, extractTypeList(child, source)...)
			continue
		}
		types = append(types, typeText(child, source))
	}
	return types
}

// typeText returns the type source with whitespace removed
func typeText(node *sitter.Node, source []byte) string {
	return strings.Join(strings.Fields(node.Content(source)), "")
}

var javaModifiers = map[string]bool{
	"public":       true,
	"private":      true,
	"protected":    true,
	"static":       true,
	"final":        true,
	"abstract":     true,
	"synchronized": true,
	"native":       true,
	"transient":    true,
	"volatile":     true,
	"strictfp":     true,
	"default":      true,
}

func isJavaModifier(nodeType string) bool {
	return javaModifiers[nodeType]
}
