// Package php builds the name-resolution context the phpdoc front end
// parses against: a class table extracted from PHP sources with
// tree-sitter, and a resolver for namespaces and use-aliases.
package php

// ClassKind distinguishes the declaration forms that land in the class
// table. Traits matter to the doc-type grammar: a trait is not a type.
type ClassKind uint8

const (
	KindClass ClassKind = iota
	KindInterface
	KindTrait
)

func (k ClassKind) String() string {
	switch k {
	case KindInterface:
		return "interface"
	case KindTrait:
		return "trait"
	}
	return "class"
}

// Class is one entry of the class table, keyed by its fully-qualified name
// without a leading backslash.
type Class struct {
	Name       string    `msgpack:"name" json:"name"`
	Kind       ClassKind `msgpack:"kind" json:"kind"`
	Path       string    `msgpack:"path" json:"path"`
	Line       int       `msgpack:"line" json:"line"`
	Parent     string    `msgpack:"parent,omitempty" json:"parent,omitempty"`
	Interfaces []string  `msgpack:"interfaces,omitempty" json:"interfaces,omitempty"`
}

// FQCN returns the fully-qualified class name.
func (c *Class) FQCN() string { return c.Name }

// IsTrait reports whether this entry is a trait declaration.
func (c *Class) IsTrait() bool { return c.Kind == KindTrait }
