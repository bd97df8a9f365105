package sourceresolver

import (
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/c360studio/rmlstream/model"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestFilePathResolver(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/cars.csv", []byte("a,b\n"), 0644))

	r := NewFilePathFS(fs, "/data")

	rc, ok, err := r.Resolve("cars.csv")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a,b\n", readAll(t, rc))

	_, ok, err = r.Resolve("missing.csv")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFilePathResolverFileSource(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/data/cars.csv", []byte("x"), 0644))

	r := NewFilePathFS(fs, "/data")
	rc, ok, err := r.Resolve(&model.FileSource{URL: "file://cars.csv"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "x", readAll(t, rc))
}

func TestFilePathResolverIgnoresStreams(t *testing.T) {
	r := NewFilePathFS(afero.NewMemMapFs(), "/")
	_, ok, err := r.Resolve(&model.Stream{Name: "in"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFSResolver(t *testing.T) {
	fsys := fstest.MapFS{
		"mappings/data.csv": &fstest.MapFile{Data: []byte("a\n1\n")},
	}
	r := NewFS(fsys, "mappings")

	rc, ok, err := r.Resolve("data.csv")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a\n1\n", readAll(t, rc))

	_, ok, err = r.Resolve("absent.csv")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNamedStreams(t *testing.T) {
	r := NewNamedStreams(map[string]io.Reader{
		"cars": strings.NewReader("csv data"),
	})

	rc, ok, err := r.Resolve(&model.Stream{Name: "cars"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "csv data", readAll(t, rc))

	_, ok, err = r.Resolve(&model.Stream{Name: "other"})
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = r.Resolve("cars")
	require.NoError(t, err)
	assert.False(t, ok, "named streams only resolve stream sources")
}

func TestDefaultStream(t *testing.T) {
	r := NewDefaultStream(strings.NewReader("payload"))
	rc, ok, err := r.Resolve(&model.Stream{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "payload", readAll(t, rc))
}

func TestCompositeOrder(t *testing.T) {
	fs1 := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs1, "/a/f.csv", []byte("first"), 0644))
	fs2 := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs2, "/b/f.csv", []byte("second"), 0644))

	c := NewComposite(NewFilePathFS(fs1, "/a"), NewFilePathFS(fs2, "/b"))

	rc, ok, err := c.Resolve("f.csv")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "first", readAll(t, rc), "first matching resolver wins")
}

func TestCompositeNoMatch(t *testing.T) {
	c := NewComposite(NewFilePathFS(afero.NewMemMapFs(), "/"))
	_, ok, err := c.Resolve("nope.csv")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompositePrepend(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/base/f.csv", []byte("file"), 0644))

	base := NewComposite(NewFilePathFS(fs, "/base"))
	run := base.Prepend(NewNamedStreams(map[string]io.Reader{"f": strings.NewReader("stream")}))

	rc, ok, err := run.Resolve(&model.Stream{Name: "f"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "stream", readAll(t, rc))

	rc, ok, err = run.Resolve("f.csv")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "file", readAll(t, rc))
}
