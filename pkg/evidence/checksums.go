package evidence

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"golang.org/x/sync/errgroup"
)

func sha256File(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// computeChecksums walks dir and hashes every regular file whose
// dir-relative path is not in exclude, parallelizing the per-file SHA-256
// computation across an errgroup since each file's hash is independent of
// every other's — the same "independent-by-construction item set" shape
// the teacher's vm/registry_gc.go sweeps concurrently.
func computeChecksums(dir string, exclude map[string]bool) (map[string]string, error) {
	var relPaths []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if exclude[rel] {
			return nil
		}
		relPaths = append(relPaths, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("evidence: walking bundle dir: %w", err)
	}

	checksums := make([]string, len(relPaths))
	var g errgroup.Group
	for i, rel := range relPaths {
		i, rel := i, rel
		g.Go(func() error {
			sum, err := sha256File(filepath.Join(dir, rel))
			if err != nil {
				return fmt.Errorf("evidence: hashing %s: %w", rel, err)
			}
			checksums[i] = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(relPaths))
	for i, rel := range relPaths {
		out[rel] = checksums[i]
	}
	return out, nil
}

// writeChecksumsFile renders checksums in the `checksums.sha256` flat
// format (`<hex>  <relpath>` per line, sorted by path for determinism).
func writeChecksumsFile(path string, checksums map[string]string) error {
	paths := make([]string, 0, len(checksums))
	for p := range checksums {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var buf []byte
	for _, p := range paths {
		buf = append(buf, fmt.Sprintf("%s  %s\n", checksums[p], p)...)
	}
	return os.WriteFile(path, buf, 0o644)
}
