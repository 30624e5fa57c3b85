// phpdoc-dump parses a single PHP file and prints every doc comment it
// finds as JSON: the extracted tags plus the normalized form of each type
// expression. Useful for debugging annotations without running a full
// project check.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/phpdc/phpdc/internal/php"
	"github.com/phpdc/phpdc/internal/phpdoc"
)

func main() {
	log.SetFlags(0)
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s <file.php>\n", os.Args[0])
		os.Exit(2)
	}
	path := flag.Arg(0)

	content, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read file: %v", err)
	}

	parser, err := php.NewParser()
	if err != nil {
		log.Fatalf("Failed to create parser: %v", err)
	}
	defer parser.Close()

	info := php.ParseFile(path, content, parser)

	out := []byte(`{}`)
	out = set(out, "file", path)
	out = set(out, "namespace", info.Namespace)

	n := 0
	for _, decl := range info.Decls {
		if decl.Doc == "" {
			continue
		}

		prefix := fmt.Sprintf("declarations.%d", n)
		n++
		out = set(out, prefix+".kind", decl.Kind)
		out = set(out, prefix+".name", decl.Name)
		out = set(out, prefix+".line", decl.Line)

		tags, err := phpdoc.Parse(decl.Doc, decl.Line)
		if err != nil {
			out = set(out, prefix+".error", err.Error())
			continue
		}

		resolver := php.NewDocResolver(info.Resolver(), noClasses{})
		if decl.Class != "" {
			resolver = resolver.ForClass(decl.Class)
		}

		tn := 0
		for i := range tags {
			tag := &tags[i]
			if tag.Name == "" {
				continue
			}

			tagPrefix := fmt.Sprintf("%s.tags.%d", prefix, tn)
			tn++
			out = set(out, tagPrefix+".name", tag.Name)
			out = set(out, tagPrefix+".value", tag.Value)
			out = set(out, tagPrefix+".line", tag.Line)

			v := tag.Split()
			if v.VarName != "" {
				out = set(out, tagPrefix+".var", v.VarName)
			}
			if v.Type == "" {
				continue
			}

			tp := phpdoc.NewTypeParser(resolver)
			expr, err := tp.ParseTypeString(v.Type)
			if err != nil {
				out = set(out, tagPrefix+".typeError", err.Error())
				continue
			}
			out = set(out, tagPrefix+".type", expr.String())
		}
	}

	os.Stdout.Write(pretty.Pretty(out))
}

func set(json []byte, path string, value interface{}) []byte {
	out, err := sjson.SetBytes(json, path, value)
	if err != nil {
		log.Fatalf("Failed to build JSON output: %v", err)
	}
	return out
}

// noClasses is an empty class lookup; the dump tool works on one file and
// cannot resolve project-wide references.
type noClasses struct{}

func (noClasses) Lookup(string) (*php.Class, bool) { return nil, false }
