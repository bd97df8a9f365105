package sourceresolver

import (
	"errors"
	"io"
	"io/fs"
	"path"
)

// FS resolves string references against an io/fs.FS below a base
// prefix. Embedding mapping assets with embed.FS and resolving them
// here is the module analogue of classpath resolution.
type FS struct {
	fsys fs.FS
	base string
}

// NewFS returns a resolver over fsys rooted at base. An empty base
// resolves from the file system root.
func NewFS(fsys fs.FS, base string) *FS {
	return &FS{fsys: fsys, base: base}
}

// Resolve implements Resolver.
func (f *FS) Resolve(source any) (io.ReadCloser, bool, error) {
	ref, ok := source.(string)
	if !ok {
		return nil, false, nil
	}
	name := path.Join(f.base, ref)
	file, err := f.fsys.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, true, err
	}
	return file, true, nil
}
