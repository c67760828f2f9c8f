package media

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// CollectPhotos resolves an images input into the sorted list of photo files
// to index. The input holds one or more files, directories or glob patterns
// separated by ';' or newlines. Directories are scanned one level deep unless
// recursive is set.
func CollectPhotos(input string, recursive bool) ([]string, error) {
	var set photoSet
	parts := strings.FieldsFunc(input, func(r rune) bool {
		return r == ';' || r == '\n' || r == '\r'
	})
	for _, part := range parts {
		pattern := strings.TrimSpace(part)
		if pattern == "" {
			continue
		}
		roots, err := resolve(pattern)
		if err != nil {
			return nil, err
		}
		for _, root := range roots {
			if err := set.addTree(root, recursive); err != nil {
				return nil, err
			}
		}
		set.inputs++
	}
	if set.inputs == 0 {
		return nil, fmt.Errorf("input path is empty")
	}

	sort.Strings(set.paths)
	return set.paths, nil
}

type photoSet struct {
	inputs int
	seen   map[string]bool
	paths  []string
}

func (s *photoSet) add(path string) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if s.seen[path] {
		return
	}
	s.seen[path] = true
	s.paths = append(s.paths, path)
}

// addTree adds root itself when it is a photo, or the photos below it when it
// is a directory.
func (s *photoSet) addTree(root string, recursive bool) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scan %s: %w", path, err)
		}
		if d.IsDir() {
			if path != root && !recursive {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && !strings.EqualFold(filepath.Ext(path), ".xmp") && SupportedPhoto(path) {
			s.add(path)
		}
		return nil
	})
}

// resolve expands a glob pattern. Plain paths are returned as is and checked
// by the walk.
func resolve(pattern string) ([]string, error) {
	if !strings.ContainsAny(pattern, "*?[") {
		return []string{pattern}, nil
	}
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, fmt.Errorf("expand glob %q: %w", pattern, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no files matched pattern %q", pattern)
	}
	return matches, nil
}
