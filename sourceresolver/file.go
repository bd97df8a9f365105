package sourceresolver

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/c360studio/rmlstream/model"
	"github.com/spf13/afero"
)

// FilePath resolves string references and carml:FileSource entities
// against a file system rooted at a base directory. Backed by afero
// so tests can run against an in-memory file system.
type FilePath struct {
	fs   afero.Fs
	base string
}

// NewFilePath returns a resolver over the OS file system.
func NewFilePath(base string) *FilePath {
	return NewFilePathFS(afero.NewOsFs(), base)
}

// NewFilePathFS returns a resolver over the given file system.
func NewFilePathFS(fs afero.Fs, base string) *FilePath {
	return &FilePath{fs: fs, base: base}
}

// Resolve implements Resolver.
func (f *FilePath) Resolve(source any) (io.ReadCloser, bool, error) {
	var ref string
	switch s := source.(type) {
	case string:
		ref = s
	case *model.FileSource:
		ref = strings.TrimPrefix(s.URL, "file://")
	default:
		return nil, false, nil
	}

	path := filepath.Join(f.base, filepath.FromSlash(ref))
	ok, err := afero.Exists(f.fs, path)
	if err != nil {
		return nil, true, fmt.Errorf("stat %s: %w", path, err)
	}
	if !ok {
		return nil, false, nil
	}
	file, err := f.fs.Open(path)
	if err != nil {
		return nil, true, fmt.Errorf("open %s: %w", path, err)
	}
	return file, true, nil
}
