package php

import (
	"github.com/phpdc/phpdc/internal/phpdoc"
)

// DefaultIDLNamespace is the namespace prefix applied to external type
// language references inside doc types.
const DefaultIDLNamespace = "IDL\\Types\\"

// ClassLookup answers FQCN lookups. *ClassTable is the production
// implementation.
type ClassLookup interface {
	Lookup(fqcn string) (*Class, bool)
}

// DocResolver adapts one file's import context plus the project class
// table to the interface the doc type parser expects.
type DocResolver struct {
	aliases      *AliasResolver
	classes      ClassLookup
	currentClass string
	idlNamespace string
}

// NewDocResolver builds a resolver for declarations at file level. Use
// ForClass to narrow it to a method or property context.
func NewDocResolver(aliases *AliasResolver, classes ClassLookup) *DocResolver {
	return &DocResolver{
		aliases:      aliases,
		classes:      classes,
		idlNamespace: DefaultIDLNamespace,
	}
}

// ForClass returns a copy of the resolver with the given enclosing class,
// so that self and static resolve inside member doc comments.
func (r *DocResolver) ForClass(fqcn string) *DocResolver {
	narrowed := *r
	narrowed.currentClass = fqcn
	return &narrowed
}

func (r *DocResolver) ResolveName(name string) string {
	return r.aliases.ResolveName(name)
}

func (r *DocResolver) LookupClass(fqcn string) (phpdoc.ClassInfo, bool) {
	class, ok := r.classes.Lookup(fqcn)
	if !ok {
		return nil, false
	}
	return class, true
}

func (r *DocResolver) CurrentClassName() string {
	return r.currentClass
}

func (r *DocResolver) IDLNamespacePrefix() string {
	return r.idlNamespace
}
