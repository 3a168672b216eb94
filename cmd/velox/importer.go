package main

import (
	"os"
	"path/filepath"

	"github.com/veloxlang/velox/pkgs/ast"
	"github.com/veloxlang/velox/pkgs/parser"
)

// fileImporter resolves `import "name"` against the importing script's
// own directory first, then each search path from velox.yaml's
// importPaths.
type fileImporter struct {
	searchPaths []string
}

// Resolve implements interp.Importer. Returning (nil, nil) signals
// not-found, which the interpreter reports as a runtime error.
func (f *fileImporter) Resolve(filename, originPath string) (*ast.Node, error) {
	candidates := make([]string, 0, len(f.searchPaths)+1)
	if originPath != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(originPath), filename))
	} else {
		candidates = append(candidates, filename)
	}
	for _, dir := range f.searchPaths {
		candidates = append(candidates, filepath.Join(dir, filename))
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		prog, err := parser.Parse(string(data))
		if err != nil {
			return nil, err
		}
		return prog, nil
	}
	return nil, nil
}
