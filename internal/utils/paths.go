package utils

import (
	"fmt"
	"io/fs"
	"os"
	"sort"
	"sync"

	"github.com/charlievieth/fastwalk"
	"github.com/sirupsen/logrus"
)

// LocalFile is a regular file picked for upload
type LocalFile struct {
	Path string
	Size int64
}

// ExpandPaths resolves dropped paths into regular files. Directories are
// walked recursively; unreadable entries inside them are skipped.
func ExpandPaths(paths []string) ([]LocalFile, error) {
	var out []LocalFile

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}

		if !info.IsDir() {
			if info.Mode().IsRegular() {
				out = append(out, LocalFile{Path: p, Size: info.Size()})
			}
			continue
		}

		files, err := walkDir(p)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}

	return out, nil
}

func walkDir(root string) ([]LocalFile, error) {
	var files []LocalFile
	var mu sync.Mutex

	conf := &fastwalk.Config{Follow: false}
	err := fastwalk.Walk(conf, root, func(fullPath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			logrus.Debugf("Skipping %s: %v", fullPath, walkErr)
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := fastwalk.StatDirEntry(fullPath, d)
		if err != nil {
			return nil
		}

		mu.Lock()
		files = append(files, LocalFile{Path: fullPath, Size: info.Size()})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	// fastwalk visits entries concurrently
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}
