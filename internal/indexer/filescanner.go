package indexer

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
)

var defaultSkipDirs = map[string]bool{
	"node_modules": true,
	"vendor":       true,
	"var":          true,
	"cache":        true,
	".git":         true,
	".github":      true,
	".idea":        true,
	".vscode":      true,
}

// Indexer consumes parsed PHP files. The scanner parses each changed file
// once and hands the syntax tree to every registered indexer.
type Indexer interface {
	ID() string
	Index(path string, node *tree_sitter.Node, fileContent []byte) error
	RemovedFiles(paths []string) error
	Clear() error
	Close() error
}

func newPHPParser() (*tree_sitter.Parser, error) {
	parser := tree_sitter.NewParser()
	if err := parser.SetLanguage(tree_sitter.NewLanguage(tree_sitter_php.LanguagePHP())); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	return parser, nil
}

// FileScanner walks a project for PHP files, tracks content hashes to skip
// unchanged files, and optionally watches the tree for changes.
type FileScanner struct {
	projectRoot string
	indexer     []Indexer

	hashMu sync.Mutex
	hashes map[string]uint64

	watcher    *fsnotify.Watcher
	watcherCtx context.Context
	cancel     context.CancelFunc
	watcherWg  sync.WaitGroup
	onUpdate   func()
}

// NewFileScanner creates a scanner rooted at projectRoot.
func NewFileScanner(projectRoot string) *FileScanner {
	ctx, cancel := context.WithCancel(context.Background())

	return &FileScanner{
		projectRoot: projectRoot,
		hashes:      make(map[string]uint64),
		watcherCtx:  ctx,
		cancel:      cancel,
	}
}

func (fs *FileScanner) SetOnUpdate(onUpdate func()) {
	fs.onUpdate = onUpdate
}

func (fs *FileScanner) AddIndexer(indexer Indexer) {
	fs.indexer = append(fs.indexer, indexer)
}

// IndexAll walks the project and indexes every PHP file.
func (fs *FileScanner) IndexAll(ctx context.Context) error {
	var files []string

	err := filepath.Walk(fs.projectRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip files we can't access
		}

		if info.IsDir() {
			relPath, err := filepath.Rel(fs.projectRoot, path)
			if err == nil {
				pathParts := strings.Split(relPath, string(os.PathSeparator))
				if len(pathParts) == 1 && defaultSkipDirs[pathParts[0]] {
					return filepath.SkipDir
				}
			}
			return nil
		}

		if strings.EqualFold(filepath.Ext(path), ".php") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to walk project directory: %w", err)
	}

	log.Printf("Found %d files to index", len(files))

	startTime := time.Now()
	if err := fs.IndexFiles(ctx, files); err != nil {
		return fmt.Errorf("failed to index files: %w", err)
	}
	log.Printf("Indexing took %s", time.Since(startTime))

	return nil
}

// fileNeedsIndexing reads the file and compares its content hash against
// the last indexed hash.
func (fs *FileScanner) fileNeedsIndexing(path string) (bool, []byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, nil, err
	}

	sum := xxhash.Sum64(content)

	fs.hashMu.Lock()
	defer fs.hashMu.Unlock()
	if fs.hashes[path] == sum {
		return false, nil, nil
	}
	fs.hashes[path] = sum
	return true, content, nil
}

// IndexFiles processes the given files with a worker pool. Each worker
// owns its own tree-sitter parser.
func (fs *FileScanner) IndexFiles(ctx context.Context, files []string) error {
	if len(files) == 0 {
		return nil
	}

	filteredFiles := make([]string, 0, len(files))
	for _, path := range files {
		relPath, err := filepath.Rel(fs.projectRoot, path)
		if err != nil {
			filteredFiles = append(filteredFiles, path)
			continue
		}

		skip := false
		for _, part := range strings.Split(relPath, string(os.PathSeparator)) {
			if defaultSkipDirs[part] {
				skip = true
				break
			}
		}
		if !skip {
			filteredFiles = append(filteredFiles, path)
		}
	}
	files = filteredFiles

	workerCount := runtime.NumCPU() + 2
	if workerCount > 16 {
		workerCount = 16
	}

	fileChan := make(chan string, 100)
	// Every file can emit one error per indexer plus one for the delete
	// step; workers add parser setup errors. Size for the worst case so a
	// worker never blocks on a full channel.
	errChan := make(chan error, len(files)*(len(fs.indexer)+1)+workerCount)

	var wg sync.WaitGroup
	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			parser, err := newPHPParser()
			if err != nil {
				errChan <- err
				return
			}
			defer parser.Close()

			for path := range fileChan {
				needsIndexing, content, err := fs.fileNeedsIndexing(path)
				if err != nil {
					// Skip unreadable files to reduce noise
					continue
				}
				if !needsIndexing {
					continue
				}

				if err := fs.removeFilesFromIndexers([]string{path}); err != nil {
					errChan <- err
					continue
				}

				tree := parser.Parse(content, nil)
				for _, indexer := range fs.indexer {
					if err := indexer.Index(path, tree.RootNode(), content); err != nil {
						errChan <- err
					}
				}
				tree.Close()
			}
		}()
	}

	for _, path := range files {
		fileChan <- path
	}
	close(fileChan)

	wg.Wait()
	close(errChan)

	for err := range errChan {
		log.Printf("Error processing file: %v", err)
	}

	if fs.onUpdate != nil {
		fs.onUpdate()
	}

	return nil
}

// RemoveFiles drops the given files from every indexer and forgets their
// hashes.
func (fs *FileScanner) RemoveFiles(ctx context.Context, paths []string) error {
	if err := fs.removeFilesFromIndexers(paths); err != nil {
		return err
	}

	fs.hashMu.Lock()
	for _, path := range paths {
		delete(fs.hashes, path)
	}
	fs.hashMu.Unlock()

	if fs.onUpdate != nil {
		fs.onUpdate()
	}
	return nil
}

func (fs *FileScanner) removeFilesFromIndexers(paths []string) error {
	for _, indexer := range fs.indexer {
		if err := indexer.RemovedFiles(paths); err != nil {
			return err
		}
	}
	return nil
}

// ClearHashes forgets all file hashes and clears the indexers, forcing a
// full reindex on the next pass.
func (fs *FileScanner) ClearHashes() error {
	for _, indexer := range fs.indexer {
		if err := indexer.Clear(); err != nil {
			return err
		}
	}

	fs.hashMu.Lock()
	fs.hashes = make(map[string]uint64)
	fs.hashMu.Unlock()
	return nil
}

// StartWatcher watches the project tree and reindexes changed PHP files
// after a short debounce.
func (fs *FileScanner) StartWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}

	fs.watcher = watcher
	fs.watcherWg.Add(1)

	go func() {
		defer fs.watcherWg.Done()
		defer func() {
			if fs.watcher != nil {
				_ = fs.watcher.Close()
			}
		}()

		pendingAdds := make(map[string]bool)
		pendingRemoves := make(map[string]bool)
		debounceTimer := time.NewTimer(time.Hour)
		debounceTimer.Stop()

		processChanges := func() {
			if len(pendingAdds) > 0 {
				filesToAdd := make([]string, 0, len(pendingAdds))
				for file := range pendingAdds {
					filesToAdd = append(filesToAdd, file)
				}
				pendingAdds = make(map[string]bool)

				log.Printf("Processing %d changed/added files", len(filesToAdd))
				if err := fs.IndexFiles(fs.watcherCtx, filesToAdd); err != nil {
					log.Printf("Error indexing files: %v", err)
				}
			}

			if len(pendingRemoves) > 0 {
				filesToRemove := make([]string, 0, len(pendingRemoves))
				for file := range pendingRemoves {
					filesToRemove = append(filesToRemove, file)
				}
				pendingRemoves = make(map[string]bool)

				log.Printf("Processing %d deleted files", len(filesToRemove))
				if err := fs.RemoveFiles(fs.watcherCtx, filesToRemove); err != nil {
					log.Printf("Error removing files: %v", err)
				}
			}
		}

		for {
			select {
			case <-fs.watcherCtx.Done():
				processChanges()
				return

			case event, ok := <-fs.watcher.Events:
				if !ok {
					return
				}

				relPath, err := filepath.Rel(fs.projectRoot, event.Name)
				if err == nil {
					skip := false
					for _, part := range strings.Split(relPath, string(os.PathSeparator)) {
						if defaultSkipDirs[part] {
							skip = true
							break
						}
					}
					if skip {
						continue
					}
				}

				fileInfo, err := os.Stat(event.Name)
				if err != nil {
					// File might have been deleted
					if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 &&
						strings.EqualFold(filepath.Ext(event.Name), ".php") {
						pendingRemoves[event.Name] = true
						delete(pendingAdds, event.Name)
						resetTimer(debounceTimer)
					}
					continue
				}

				if fileInfo.IsDir() {
					if event.Op&fsnotify.Create != 0 {
						if err := fs.addDirectoryToWatcher(event.Name); err != nil {
							log.Printf("Error adding directory to watcher: %v", err)
						}
					}
					continue
				}

				if !strings.EqualFold(filepath.Ext(event.Name), ".php") {
					continue
				}

				if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
					pendingAdds[event.Name] = true
					delete(pendingRemoves, event.Name)
					resetTimer(debounceTimer)
				} else if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
					pendingRemoves[event.Name] = true
					delete(pendingAdds, event.Name)
					resetTimer(debounceTimer)
				}

			case err, ok := <-fs.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("File watcher error: %v", err)

			case <-debounceTimer.C:
				processChanges()
			}
		}
	}()

	return fs.addDirectoryToWatcher(fs.projectRoot)
}

func resetTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
	t.Reset(200 * time.Millisecond)
}

// StopWatcher stops the file watcher and waits for pending changes to be
// processed.
func (fs *FileScanner) StopWatcher() {
	if fs.watcher != nil {
		fs.cancel()
		fs.watcherWg.Wait()
		fs.watcher = nil
	}
}

// addDirectoryToWatcher recursively adds a directory tree to the watcher.
func (fs *FileScanner) addDirectoryToWatcher(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil // Skip files/dirs we can't access
		}
		if !info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(fs.projectRoot, path)
		if err == nil {
			for _, part := range strings.Split(relPath, string(os.PathSeparator)) {
				if defaultSkipDirs[part] {
					return filepath.SkipDir
				}
			}
		}

		if err := fs.watcher.Add(path); err != nil {
			log.Printf("Error watching directory %s: %v", path, err)
		}
		return nil
	})
}

// Close stops the watcher and closes all indexers.
func (fs *FileScanner) Close() error {
	if fs.watcher != nil {
		fs.StopWatcher()
	}

	for _, indexer := range fs.indexer {
		if err := indexer.Close(); err != nil {
			return err
		}
	}
	return nil
}
