// Package images reads and writes the image files a batch run works through.
package images

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maruel/natural"
)

// Lister returns the files under root in processing order.
type Lister func(root string) ([]string, error)

// SortNatural orders names treating digit runs as numbers, so img2 sorts
// before img10.
func SortNatural(names []string) {
	sort.SliceStable(names, func(i, j int) bool {
		return natural.Less(names[i], names[j])
	})
}

// Walk lists every regular file under root, including symlinks to regular
// files. Within a directory its files come
// first, in natural order, followed by its subdirectories, also in natural
// order. Entries starting with a dot are skipped.
func Walk(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("unable to stat %q: %w", root, err)
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	paths := make([]string, 0)
	if err := walkDir(root, &paths); err != nil {
		return nil, err
	}

	return paths, nil
}

func walkDir(dir string, paths *[]string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("unable to read directory %q: %w", dir, err)
	}

	var files, dirs []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		switch {
		case entry.IsDir():
			dirs = append(dirs, name)
		case entry.Type().IsRegular():
			files = append(files, name)
		case entry.Type()&fs.ModeSymlink != 0:
			// followed only to regular files, never into directories
			info, err := os.Stat(filepath.Join(dir, name))
			if err == nil && info.Mode().IsRegular() {
				files = append(files, name)
			}
		}
	}

	SortNatural(files)
	SortNatural(dirs)

	for _, name := range files {
		*paths = append(*paths, filepath.Join(dir, name))
	}

	for _, name := range dirs {
		if err := walkDir(filepath.Join(dir, name), paths); err != nil {
			return err
		}
	}

	return nil
}

// Static returns a Lister that ignores root and yields paths as given.
func Static(paths ...string) Lister {
	return func(string) ([]string, error) {
		return append([]string(nil), paths...), nil
	}
}
