package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/rejot-dev/thalo/internal/workspace"
)

// collectFiles expands paths (files or directories, defaulting to the
// current directory) into a de-duplicated list of thalo-bearing files, in
// argument order, with each directory walked in lexical order.
func collectFiles(paths []string) ([]string, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}
	var files []string
	seen := map[string]bool{}
	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			files = append(files, path)
		}
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", p, err)
		}
		if !info.IsDir() {
			add(p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if name != "." && strings.HasPrefix(name, ".") {
					return filepath.SkipDir
				}
				return nil
			}
			ext := strings.ToLower(filepath.Ext(path))
			if ext == ".thalo" || ext == ".md" || ext == ".markdown" {
				add(path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

// loadWorkspace reads every collected file into a fresh workspace.
func loadWorkspace(paths []string) (*workspace.Workspace, []string, error) {
	files, err := collectFiles(paths)
	if err != nil {
		return nil, nil, err
	}
	ws := workspace.New()
	for _, f := range files {
		source, err := os.ReadFile(f)
		if err != nil {
			return nil, nil, fmt.Errorf("cannot read %s: %w", f, err)
		}
		if err := ws.AddDocument(f, source, workspace.AddOptions{}); err != nil {
			return nil, nil, err
		}
	}
	return ws, files, nil
}
