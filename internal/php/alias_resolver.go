package php

import "strings"

// AliasResolver resolves possibly-relative class names written in doc
// comments to fully-qualified class names (FQCN), honoring the file's
// namespace, its use statements, and its use-aliases.
type AliasResolver struct {
	// alias name -> FQCN, from "use X as Y" statements
	aliases map[string]string
	// short class name -> FQCN, from plain "use X" statements
	useStatements map[string]string
	// namespace of the file being resolved, "" for the global namespace
	currentNamespace string
}

// NewAliasResolver creates a resolver for one file's import context. Both
// maps may be nil.
func NewAliasResolver(namespace string, useStatements, aliases map[string]string) *AliasResolver {
	return &AliasResolver{
		aliases:          aliases,
		useStatements:    useStatements,
		currentNamespace: namespace,
	}
}

// ResolveName resolves a class name to its FQCN (returned without a
// leading backslash). Resolution order: absolute names keep themselves,
// then aliases, then use statements, then the current namespace.
func (r *AliasResolver) ResolveName(name string) string {
	// A leading backslash means the name is already fully qualified.
	if strings.HasPrefix(name, "\\") {
		return name[1:]
	}

	// Names with an inner separator are relative to the current namespace
	// unless their first segment is imported.
	head, rest, qualified := strings.Cut(name, "\\")

	if fqcn, ok := r.aliases[head]; ok {
		return joinNS(fqcn, rest, qualified)
	}
	if fqcn, ok := r.useStatements[head]; ok {
		return joinNS(fqcn, rest, qualified)
	}
	if r.currentNamespace != "" {
		return r.currentNamespace + "\\" + name
	}
	return name
}

func joinNS(base, rest string, qualified bool) string {
	if !qualified {
		return base
	}
	return base + "\\" + rest
}
