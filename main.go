package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/tidwall/pretty"
	"github.com/tidwall/sjson"

	"github.com/phpdc/phpdc/internal/check"
	"github.com/phpdc/phpdc/internal/diag"
	"github.com/phpdc/phpdc/internal/indexer"
	"github.com/phpdc/phpdc/internal/php"
	"github.com/phpdc/phpdc/internal/rpc"
)

func main() {
	log.SetFlags(0)

	var (
		serve  = flag.Bool("serve", false, "answer JSON-RPC requests on stdin/stdout after indexing")
		watch  = flag.Bool("watch", false, "keep running and reindex files as they change")
		report = flag.String("report", "", "write diagnostics as a JSON report to this file")
		dbPath = flag.String("db", "", "class table location (default: .phpdc/classes.db under the project root)")
		noFail = flag.Bool("no-fail", false, "exit 0 even when errors are found")
	)
	flag.Parse()

	projectRoot := flag.Arg(0)
	if projectRoot == "" {
		var err error
		projectRoot, err = os.Getwd()
		if err != nil {
			log.Fatalf("Failed to get working directory: %v", err)
		}
	}

	if *dbPath == "" {
		*dbPath = filepath.Join(projectRoot, ".phpdc", "classes.db")
	}

	table, err := php.NewClassTable(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open class table: %v", err)
	}
	checker := check.NewChecker(table)

	scanner := indexer.NewFileScanner(projectRoot)
	scanner.AddIndexer(table)
	scanner.AddIndexer(checker)

	if err := scanner.IndexAll(context.Background()); err != nil {
		_ = scanner.Close()
		log.Fatalf("Indexing failed: %v", err)
	}

	bag := checker.Diagnostics()
	for _, d := range bag.Items() {
		fmt.Fprintln(os.Stderr, d.String())
	}
	log.Printf("%d diagnostics", bag.Len())

	if *report != "" {
		if err := writeReport(*report, bag); err != nil {
			log.Printf("Failed to write report: %v", err)
		}
	}

	switch {
	case *serve:
		if *watch {
			if err := scanner.StartWatcher(); err != nil {
				log.Printf("Warning: file watcher unavailable: %v", err)
			}
		}
		server := rpc.NewServer(table, checker)
		if err := server.RunServer(os.Stdin, os.Stdout); err != nil {
			log.Printf("RPC server error: %v", err)
		}

	case *watch:
		if err := scanner.StartWatcher(); err != nil {
			_ = scanner.Close()
			log.Fatalf("Failed to start file watcher: %v", err)
		}
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
	}

	failed := bag.HasErrors() && !*noFail && !*serve && !*watch
	if err := scanner.Close(); err != nil {
		log.Printf("Warning: close failed: %v", err)
	}
	if failed {
		os.Exit(1)
	}
}

// writeReport renders the diagnostics as a formatted JSON document.
func writeReport(path string, bag *diag.Bag) error {
	out := []byte(`{}`)

	var err error
	if out, err = sjson.SetBytes(out, "total", bag.Len()); err != nil {
		return err
	}
	if out, err = sjson.SetBytes(out, "errors", bag.HasErrors()); err != nil {
		return err
	}
	if out, err = sjson.SetBytes(out, "diagnostics", bag.Items()); err != nil {
		return err
	}

	return os.WriteFile(path, pretty.Pretty(out), 0o644)
}
