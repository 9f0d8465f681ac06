package manifest

import (
	"bytes"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// LockFile pins every resolved dependency to the exact source it was
// fetched from, mirroring npm/cargo-style lock files so a second
// resolve on the same manifest reproduces the same dependency tree.
type LockFile struct {
	Deps []LockedDep `toml:"deps"`
}

// LockedDep is one pinned dependency entry.
type LockedDep struct {
	Name   string `toml:"name"`
	Git    string `toml:"git,omitempty"`
	Tag    string `toml:"tag,omitempty"`
	Commit string `toml:"commit,omitempty"`
	Path   string `toml:"path,omitempty"`
}

// FindLockedDep returns the locked entry for name, or nil if absent.
func (lf *LockFile) FindLockedDep(name string) *LockedDep {
	for i := range lf.Deps {
		if lf.Deps[i].Name == name {
			return &lf.Deps[i]
		}
	}
	return nil
}

// ReadLock parses the lock file at path. A missing file is not an
// error: it returns (nil, nil), since a project resolved for the first
// time has no lock file yet.
func ReadLock(path string) (*LockFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var lf LockFile
	if err := toml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return &lf, nil
}

// WriteLock renders lf as TOML and writes it to path.
func WriteLock(path string, lf *LockFile) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(lf); err != nil {
		return fmt.Errorf("encoding lock file: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
