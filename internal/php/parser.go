package php

import (
	"fmt"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
)

// Declaration is one doc-comment-bearing site found in a PHP file. Doc is
// the comment body with the outer "/*" and "*/" stripped, ready for the
// phpdoc tag extractor; it is empty when the declaration carries no doc
// block.
type Declaration struct {
	Kind  string // "function", "method", "property", "const", "class"
	Name  string
	Line  int    // 1-based line of the declaration
	Doc   string
	Class string // enclosing class FQCN, "" at file level
}

// FileInfo is everything the front end needs from one PHP file: the import
// context for the alias resolver, the classes to register in the class
// table, and the declarations whose doc comments must be checked.
type FileInfo struct {
	Path      string
	Namespace string
	Uses      map[string]string
	Aliases   map[string]string
	Classes   map[string]*Class
	Decls     []Declaration
}

// Resolver returns the alias resolver for this file's import context.
func (f *FileInfo) Resolver() *AliasResolver {
	return NewAliasResolver(f.Namespace, f.Uses, f.Aliases)
}

// NewParser returns a tree-sitter parser configured for PHP. Parsers are
// not safe for concurrent use; create one per worker.
func NewParser() (*tree_sitter.Parser, error) {
	parser := tree_sitter.NewParser()
	if err := parser.SetLanguage(tree_sitter.NewLanguage(tree_sitter_php.LanguagePHP())); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	return parser, nil
}

// ParseFile parses one PHP source file and collects its namespace, use
// clauses, class-like declarations and doc-comment-bearing declarations.
func ParseFile(path string, content []byte, parser *tree_sitter.Parser) *FileInfo {
	tree := parser.Parse(content, nil)
	defer tree.Close()

	return ParseTree(path, tree.RootNode(), content)
}

// ParseTree collects the same information from an already parsed tree.
func ParseTree(path string, rootNode *tree_sitter.Node, content []byte) *FileInfo {
	info := &FileInfo{
		Path:    path,
		Uses:    make(map[string]string),
		Aliases: make(map[string]string),
		Classes: make(map[string]*Class),
	}

	cursor := rootNode.Walk()
	defer cursor.Close()

	var pendingDoc string

	if cursor.GotoFirstChild() {
		for {
			node := cursor.Node()

			switch node.Kind() {
			case "comment":
				pendingDoc = docBody(node, content)

			case "namespace_definition":
				if nameNode := findChildByKind(node, "namespace_name"); nameNode != nil {
					info.Namespace = string(nameNode.Utf8Text(content))
				}
				pendingDoc = ""

			case "namespace_use_declaration":
				collectUseClauses(node, content, info)
				pendingDoc = ""

			case "class_declaration", "interface_declaration", "trait_declaration":
				info.collectClassLike(node, content, pendingDoc)
				pendingDoc = ""

			case "function_definition":
				if nameNode := findFirstNodeOfKind(node, "name"); nameNode != nil {
					info.Decls = append(info.Decls, Declaration{
						Kind: "function",
						Name: string(nameNode.Utf8Text(content)),
						Line: int(node.Range().StartPoint.Row) + 1,
						Doc:  pendingDoc,
					})
				}
				pendingDoc = ""

			default:
				pendingDoc = ""
			}

			if !cursor.GotoNextSibling() {
				break
			}
		}
	}

	return info
}

// docBody strips the comment delimiters from a doc block. Non-doc comments
// ("//", "/* ... */" without the second star) yield an empty string.
func docBody(node *tree_sitter.Node, content []byte) string {
	text := string(node.Utf8Text(content))
	if !strings.HasPrefix(text, "/**") {
		return ""
	}
	return strings.TrimSuffix(strings.TrimPrefix(text, "/*"), "*/")
}

// collectUseClauses records both plain and group use statements, keeping
// aliases ("use X as Y") separate from straight imports.
func collectUseClauses(node *tree_sitter.Node, content []byte, info *FileInfo) {
	namespaceNameNode := findChildByKind(node, "namespace_name")
	groupNode := findChildByKind(node, "namespace_use_group")

	if namespaceNameNode != nil && groupNode != nil {
		// Group use: use Base\Ns\{A\B, C as D};
		baseNamespace := string(namespaceNameNode.Utf8Text(content))
		for i := uint(0); i < groupNode.NamedChildCount(); i++ {
			clause := groupNode.NamedChild(i)
			if clause == nil || clause.Kind() != "namespace_use_clause" {
				continue
			}
			recordUseClause(clause, content, info, baseNamespace)
		}
		return
	}

	for i := uint(0); i < node.NamedChildCount(); i++ {
		clause := node.NamedChild(i)
		if clause != nil && clause.Kind() == "namespace_use_clause" {
			recordUseClause(clause, content, info, "")
		}
	}
}

func recordUseClause(clause *tree_sitter.Node, content []byte, info *FileInfo, baseNamespace string) {
	var fullPath, className, alias string

	if qualifiedName := findChildByKind(clause, "qualified_name"); qualifiedName != nil {
		fullPath = string(qualifiedName.Utf8Text(content))
		if last := qualifiedName.NamedChild(qualifiedName.NamedChildCount() - 1); last != nil && last.Kind() == "name" {
			className = string(last.Utf8Text(content))
		}
		// Any direct name child of the clause is then the alias.
		if aliasNode := findChildByKind(clause, "name"); aliasNode != nil {
			alias = string(aliasNode.Utf8Text(content))
		}
	} else {
		// A bare name: the first name child is the class, a second one is
		// the alias (use Connection as Conn).
		var names []string
		for i := uint(0); i < clause.NamedChildCount(); i++ {
			child := clause.NamedChild(i)
			if child != nil && child.Kind() == "name" {
				names = append(names, string(child.Utf8Text(content)))
			}
		}
		if len(names) == 0 {
			return
		}
		fullPath = names[0]
		className = names[0]
		if len(names) > 1 {
			alias = names[1]
		}
	}
	if className == "" {
		return
	}
	if baseNamespace != "" {
		fullPath = baseNamespace + "\\" + fullPath
	}

	if alias != "" {
		info.Aliases[alias] = fullPath
		return
	}
	info.Uses[className] = fullPath
}

// collectClassLike registers the class in the file's class map and
// collects the doc-bearing declarations of its body.
func (f *FileInfo) collectClassLike(node *tree_sitter.Node, content []byte, classDoc string) {
	classNameNode := findFirstNodeOfKind(node, "name")
	if classNameNode == nil {
		return
	}

	className := string(classNameNode.Utf8Text(content))
	if f.Namespace != "" {
		className = f.Namespace + "\\" + className
	}

	kind := KindClass
	switch node.Kind() {
	case "interface_declaration":
		kind = KindInterface
	case "trait_declaration":
		kind = KindTrait
	}

	class := &Class{
		Name: className,
		Kind: kind,
		Path: f.Path,
		Line: int(classNameNode.Range().StartPoint.Row) + 1,
	}

	resolver := f.Resolver()

	if baseClauseNode := findFirstNodeOfKind(node, "base_clause"); baseClauseNode != nil {
		for i := uint(0); i < baseClauseNode.NamedChildCount(); i++ {
			child := baseClauseNode.NamedChild(i)
			if child == nil {
				continue
			}
			parent := resolver.ResolveName(string(child.Utf8Text(content)))
			if kind == KindInterface {
				// Interfaces may extend several others.
				class.Interfaces = append(class.Interfaces, parent)
			} else {
				class.Parent = parent
			}
		}
	}
	if interfacesNode := findFirstNodeOfKind(node, "class_interface_clause"); interfacesNode != nil {
		for i := uint(0); i < interfacesNode.NamedChildCount(); i++ {
			child := interfacesNode.NamedChild(i)
			if child == nil {
				continue
			}
			class.Interfaces = append(class.Interfaces, resolver.ResolveName(string(child.Utf8Text(content))))
		}
	}

	f.Classes[className] = class

	f.Decls = append(f.Decls, Declaration{
		Kind:  kind.String(),
		Name:  className,
		Line:  int(node.Range().StartPoint.Row) + 1,
		Doc:   classDoc,
		Class: className,
	})

	f.collectMembers(node, content, className)
}

// collectMembers walks a class body and records its methods, properties
// and constants together with their doc comments.
func (f *FileInfo) collectMembers(node *tree_sitter.Node, content []byte, className string) {
	bodyNode := findFirstNodeOfKind(node, "declaration_list")
	if bodyNode == nil {
		return
	}

	var pendingDoc string
	for i := uint(0); i < bodyNode.NamedChildCount(); i++ {
		child := bodyNode.NamedChild(i)
		if child == nil {
			continue
		}

		switch child.Kind() {
		case "comment":
			pendingDoc = docBody(child, content)
			continue

		case "method_declaration":
			if nameNode := findFirstNodeOfKind(child, "name"); nameNode != nil {
				f.Decls = append(f.Decls, Declaration{
					Kind:  "method",
					Name:  string(nameNode.Utf8Text(content)),
					Line:  int(child.Range().StartPoint.Row) + 1,
					Doc:   pendingDoc,
					Class: className,
				})
			}

		case "property_declaration":
			if varNode := findFirstNodeOfKind(child, "variable_name"); varNode != nil {
				// Drop the '$' so the name lines up with @var tokens.
				name := strings.TrimPrefix(string(varNode.Utf8Text(content)), "$")
				f.Decls = append(f.Decls, Declaration{
					Kind:  "property",
					Name:  name,
					Line:  int(child.Range().StartPoint.Row) + 1,
					Doc:   pendingDoc,
					Class: className,
				})
			}

		case "const_declaration":
			if nameNode := findFirstNodeOfKind(child, "name"); nameNode != nil {
				f.Decls = append(f.Decls, Declaration{
					Kind:  "const",
					Name:  string(nameNode.Utf8Text(content)),
					Line:  int(child.Range().StartPoint.Row) + 1,
					Doc:   pendingDoc,
					Class: className,
				})
			}
		}
		pendingDoc = ""
	}
}

// findChildByKind finds a direct named child of the given kind.
func findChildByKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

// findFirstNodeOfKind finds the first node of the given kind, depth first.
func findFirstNodeOfKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	if node == nil {
		return nil
	}

	stack := []*tree_sitter.Node{node}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if n.Kind() == kind {
			return n
		}

		for i := int(n.NamedChildCount()) - 1; i >= 0; i-- {
			child := n.NamedChild(uint(i))
			if child != nil {
				stack = append(stack, child)
			}
		}
	}
	return nil
}
