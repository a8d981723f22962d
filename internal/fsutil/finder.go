// Package fsutil provides file system utility functions.
package fsutil

import (
	"io/fs"
	"path/filepath"
)

// FindFilesByExtension recursively searches the given root path for all
// files with the specified extension and returns their full paths.
// filepath.WalkDir visits entries in lexical order, so the result is
// deterministic for a given tree.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == extension {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
