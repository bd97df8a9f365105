package join

import (
	"testing"

	"github.com/knakk/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func iri(t *testing.T, s string) rdf.IRI {
	t.Helper()
	v, err := rdf.NewIRI(s)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestKeyHash(t *testing.T) {
	if KeyOf("a", "b").Hash() != KeyOf("a", "b").Hash() {
		t.Error("equal keys should hash equally")
	}
	if KeyOf("a", "b").Hash() == KeyOf("ab").Hash() {
		t.Error("length prefixing should keep composite keys distinct")
	}
	if KeyOf("a", "b").Hash() == KeyOf("b", "a").Hash() {
		t.Error("key order matters")
	}
}

func TestMemoryChildStore(t *testing.T) {
	store, err := NewMemoryProvider().ChildSideStore("test")
	require.NoError(t, err)

	row := ChildSideJoin{
		Subjects:   []rdf.Term{iri(t, "http://ex/c1")},
		Predicates: []rdf.Term{iri(t, "http://ex/p")},
		Key:        KeyOf("42"),
	}
	require.NoError(t, store.Append(row))
	require.NoError(t, store.Append(row))

	n := 0
	err = store.ForEach(func(got ChildSideJoin) error {
		n++
		assert.Equal(t, "42", got.Key.Values[0])
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, store.Clear())
	n = 0
	require.NoError(t, store.ForEach(func(ChildSideJoin) error { n++; return nil }))
	assert.Equal(t, 0, n)
}

func TestMemoryParentStore(t *testing.T) {
	store, err := NewMemoryProvider().ParentSideStore("test")
	require.NoError(t, err)

	p1 := iri(t, "http://ex/p1")
	p2 := iri(t, "http://ex/p2")
	require.NoError(t, store.Add(KeyOf("x"), p1))
	require.NoError(t, store.Add(KeyOf("x"), p2))
	require.NoError(t, store.Add(KeyOf("y"), p1))

	got, err := store.Get(KeyOf("x"))
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = store.Get(KeyOf("missing"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRowCodecRoundTrip(t *testing.T) {
	lang, err := rdf.NewLangLiteral("hello", "en")
	require.NoError(t, err)
	typed := rdf.NewTypedLiteral("42", iri(t, "http://www.w3.org/2001/XMLSchema#integer"))
	blank, err := rdf.NewBlank("b0")
	require.NoError(t, err)

	row := ChildSideJoin{
		Subjects:   []rdf.Term{iri(t, "http://ex/s"), blank},
		Predicates: []rdf.Term{iri(t, "http://ex/p")},
		Graphs:     []rdf.Term{lang, typed},
		Key:        KeyOf("a", "b"),
	}

	data, err := encodeRow(row)
	require.NoError(t, err)
	got, err := decodeRow(data)
	require.NoError(t, err)

	assert.Equal(t, row.Key.Hash(), got.Key.Hash())
	require.Len(t, got.Subjects, 2)
	assert.Equal(t, row.Subjects[0].Serialize(rdf.NTriples), got.Subjects[0].Serialize(rdf.NTriples))
	assert.Equal(t, row.Subjects[1].Serialize(rdf.NTriples), got.Subjects[1].Serialize(rdf.NTriples))
	require.Len(t, got.Graphs, 2)
	assert.Equal(t, row.Graphs[0].Serialize(rdf.NTriples), got.Graphs[0].Serialize(rdf.NTriples))
	assert.Equal(t, row.Graphs[1].Serialize(rdf.NTriples), got.Graphs[1].Serialize(rdf.NTriples))
}

func TestSQLiteChildStore(t *testing.T) {
	provider := NewSQLiteProvider(t.TempDir())
	defer provider.Close()

	store, err := provider.ChildSideStore("http://ex/rom1")
	require.NoError(t, err)

	rows := []ChildSideJoin{
		{Subjects: []rdf.Term{iri(t, "http://ex/c1")}, Predicates: []rdf.Term{iri(t, "http://ex/p")}, Key: KeyOf("1")},
		{Subjects: []rdf.Term{iri(t, "http://ex/c2")}, Predicates: []rdf.Term{iri(t, "http://ex/p")}, Key: KeyOf("2")},
	}
	require.NoError(t, store.Append(rows...))

	var got []ChildSideJoin
	require.NoError(t, store.ForEach(func(row ChildSideJoin) error {
		got = append(got, row)
		return nil
	}))
	require.Len(t, got, 2)
	// Insertion order is preserved.
	assert.Equal(t, "1", got[0].Key.Values[0])
	assert.Equal(t, "2", got[1].Key.Values[0])

	require.NoError(t, store.Clear())
}

func TestSQLiteStoresAreIndependent(t *testing.T) {
	provider := NewSQLiteProvider(t.TempDir())
	defer provider.Close()

	a, err := provider.ChildSideStore("rom-a")
	require.NoError(t, err)
	b, err := provider.ChildSideStore("rom-b")
	require.NoError(t, err)

	require.NoError(t, a.Append(ChildSideJoin{Key: KeyOf("only-a")}))

	n := 0
	require.NoError(t, b.ForEach(func(ChildSideJoin) error { n++; return nil }))
	assert.Equal(t, 0, n)
}
