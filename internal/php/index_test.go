package php

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClassTable(t *testing.T) *ClassTable {
	t.Helper()

	table, err := NewClassTable(filepath.Join(t.TempDir(), "classes.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = table.Close() })
	return table
}

func indexSource(t *testing.T, table *ClassTable, path, source string) {
	t.Helper()

	parser, err := NewParser()
	require.NoError(t, err)
	defer parser.Close()

	tree := parser.Parse([]byte(source), nil)
	defer tree.Close()

	require.NoError(t, table.Index(path, tree.RootNode(), []byte(source)))
}

func TestClassTableLookup(t *testing.T) {
	table := newTestClassTable(t)

	indexSource(t, table, "product.php", `<?php
namespace App\Entity;

class Product {}
trait Timestamps {}
`)

	product, ok := table.Lookup("App\\Entity\\Product")
	require.True(t, ok)
	assert.Equal(t, "App\\Entity\\Product", product.FQCN())
	assert.Equal(t, "product.php", product.Path)
	assert.False(t, product.IsTrait())

	timestamps, ok := table.Lookup("App\\Entity\\Timestamps")
	require.True(t, ok)
	assert.True(t, timestamps.IsTrait())

	_, ok = table.Lookup("App\\Entity\\Missing")
	assert.False(t, ok)

	names, err := table.ClassNames()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"App\\Entity\\Product", "App\\Entity\\Timestamps"}, names)
}

func TestClassTableRemovedFiles(t *testing.T) {
	table := newTestClassTable(t)

	indexSource(t, table, "a.php", `<?php class A {}`)
	indexSource(t, table, "b.php", `<?php class B {}`)

	require.NoError(t, table.RemovedFiles([]string{"a.php"}))

	_, ok := table.Lookup("A")
	assert.False(t, ok)
	_, ok = table.Lookup("B")
	assert.True(t, ok)
}

func TestDocResolver(t *testing.T) {
	table := newTestClassTable(t)

	indexSource(t, table, "product.php", `<?php
namespace App\Entity;

class Product {}
`)

	aliases := NewAliasResolver("App\\Service", map[string]string{
		"Product": "App\\Entity\\Product",
	}, nil)

	resolver := NewDocResolver(aliases, table)
	assert.Equal(t, "App\\Entity\\Product", resolver.ResolveName("Product"))
	assert.Empty(t, resolver.CurrentClassName())
	assert.Equal(t, DefaultIDLNamespace, resolver.IDLNamespacePrefix())

	info, ok := resolver.LookupClass("App\\Entity\\Product")
	require.True(t, ok)
	assert.Equal(t, "App\\Entity\\Product", info.FQCN())

	info, ok = resolver.LookupClass("App\\Entity\\Missing")
	assert.False(t, ok)
	assert.Nil(t, info)

	inClass := resolver.ForClass("App\\Service\\ProductLoader")
	assert.Equal(t, "App\\Service\\ProductLoader", inClass.CurrentClassName())
	assert.Empty(t, resolver.CurrentClassName())
}
