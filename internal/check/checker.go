// Package check runs doc-comment validation over a PHP project: it
// extracts tags from every declaration's doc block, parses their type
// texts, and turns parse failures, lints and dangling class references
// into diagnostics.
package check

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/phpdc/phpdc/internal/diag"
	"github.com/phpdc/phpdc/internal/php"
	"github.com/phpdc/phpdc/internal/phpdoc"
)

// typedTags are the tag kinds whose value carries a type expression.
var typedTags = map[phpdoc.TagKind]bool{
	phpdoc.TagParam:      true,
	phpdoc.TagVar:        true,
	phpdoc.TagReturn:     true,
	phpdoc.TagReturnSpec: true,
}

// classRef is a class name referenced by a doc type, remembered until the
// whole project has been indexed.
type classRef struct {
	name string
	line int
}

type fileResult struct {
	diags      []diag.Diagnostic
	unresolved []classRef
}

// Checker validates doc comments file by file. Class references that the
// table cannot resolve yet are kept aside; Diagnostics re-checks them once
// every file has been seen, so declaration order across files does not
// matter.
type Checker struct {
	classes *php.ClassTable

	mu    sync.Mutex
	files map[string]*fileResult
}

func NewChecker(classes *php.ClassTable) *Checker {
	return &Checker{
		classes: classes,
		files:   make(map[string]*fileResult),
	}
}

func (c *Checker) ID() string {
	return "phpdoc.check"
}

// Index checks every doc comment of the file and stores the result.
func (c *Checker) Index(path string, node *tree_sitter.Node, fileContent []byte) error {
	info := php.ParseTree(path, node, fileContent)
	res := c.checkFile(info)

	c.mu.Lock()
	c.files[path] = res
	c.mu.Unlock()
	return nil
}

func (c *Checker) RemovedFiles(paths []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, path := range paths {
		delete(c.files, path)
	}
	return nil
}

func (c *Checker) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.files = make(map[string]*fileResult)
	return nil
}

func (c *Checker) Close() error {
	return nil
}

func (c *Checker) checkFile(info *php.FileInfo) *fileResult {
	res := &fileResult{}
	baseResolver := php.NewDocResolver(info.Resolver(), c.classes)

	for _, decl := range info.Decls {
		if decl.Doc == "" {
			continue
		}

		tags, err := phpdoc.Parse(decl.Doc, decl.Line)
		if err != nil {
			res.diags = append(res.diags, diag.Diagnostic{
				Severity: diag.SevError,
				Code:     diag.CodeDocMalformed,
				Message:  err.Error(),
				File:     info.Path,
				Line:     decl.Line,
			})
			continue
		}

		resolver := baseResolver
		if decl.Class != "" {
			resolver = baseResolver.ForClass(decl.Class)
		}

		for i := range tags {
			tag := &tags[i]
			if !typedTags[tag.Kind] {
				continue
			}
			typeText := tag.Split().Type
			if typeText == "" {
				continue
			}

			parser := phpdoc.NewTypeParser(resolver)
			if _, err := parser.ParseTypeString(typeText); err != nil {
				res.diags = append(res.diags, diag.Diagnostic{
					Severity: diag.SevError,
					Code:     diag.CodeTypeSyntax,
					Message:  fmt.Sprintf("%s: %v", tag.Name, err),
					File:     info.Path,
					Line:     tag.Line,
				})
				continue
			}

			for _, lint := range parser.Lints() {
				lint.File = info.Path
				lint.Line = tag.Line
				res.diags = append(res.diags, lint)
			}
			for _, name := range parser.Unresolved() {
				res.unresolved = append(res.unresolved, classRef{name: name, line: tag.Line})
			}
		}
	}

	return res
}

// Diagnostics merges the per-file results into one sorted bag. Class
// references are resolved against the now-complete class table; whatever
// is still unknown becomes an error at the referencing tag, and a deferred
// reference that turns out to name a trait fails the same way it would
// have at parse time.
func (c *Checker) Diagnostics() *diag.Bag {
	c.mu.Lock()
	defer c.mu.Unlock()

	bag := diag.NewBag()
	for path, res := range c.files {
		for _, d := range res.diags {
			bag.Add(d)
		}
		for _, ref := range res.unresolved {
			class, ok := c.classes.Lookup(ref.name)
			if !ok {
				bag.Add(diag.Diagnostic{
					Severity: diag.SevError,
					Code:     diag.CodeUnresolvedClass,
					Message:  fmt.Sprintf("could not find class \\%s", ref.name),
					File:     path,
					Line:     ref.line,
				})
				continue
			}
			if class.IsTrait() {
				bag.Add(diag.Diagnostic{
					Severity: diag.SevError,
					Code:     diag.CodeTypeSyntax,
					Message:  fmt.Sprintf("trait %s cannot be used as a type", ref.name),
					File:     path,
					Line:     ref.line,
				})
			}
		}
	}
	bag.Sort()
	return bag
}
