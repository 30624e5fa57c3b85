package php

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/phpdc/phpdc/internal/indexer"
)

// ClassTable is the project-wide table of class-like declarations, keyed
// by FQCN. It plugs into the file scanner as an indexer and answers the
// lookups the doc type resolver needs.
type ClassTable struct {
	data *indexer.DataIndexer[Class]
}

func NewClassTable(dbPath string) (*ClassTable, error) {
	data, err := indexer.NewDataIndexer[Class](dbPath)
	if err != nil {
		return nil, err
	}
	return &ClassTable{data: data}, nil
}

func (t *ClassTable) ID() string {
	return "php.classes"
}

// Index extracts every class, interface and trait from the file and
// stores them under their FQCN.
func (t *ClassTable) Index(path string, node *tree_sitter.Node, fileContent []byte) error {
	info := ParseTree(path, node, fileContent)
	if len(info.Classes) == 0 {
		return nil
	}

	batch := map[string]map[string]Class{path: make(map[string]Class, len(info.Classes))}
	for name, class := range info.Classes {
		batch[path][name] = *class
	}
	return t.data.BatchPut(batch)
}

func (t *ClassTable) RemovedFiles(paths []string) error {
	for _, path := range paths {
		if err := t.data.DeleteByFilePath(path); err != nil {
			return err
		}
	}
	return nil
}

func (t *ClassTable) Clear() error {
	return t.data.Clear()
}

func (t *ClassTable) Close() error {
	return t.data.Close()
}

// Lookup finds a class by its fully qualified name without the leading
// backslash.
func (t *ClassTable) Lookup(fqcn string) (*Class, bool) {
	class, ok, err := t.data.GetFirst(fqcn)
	if err != nil || !ok {
		return nil, false
	}
	return &class, true
}

// ClassNames returns every FQCN known to the table.
func (t *ClassTable) ClassNames() ([]string, error) {
	return t.data.GetAllKeys()
}
