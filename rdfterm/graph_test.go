package rdfterm

import (
	"strings"
	"testing"

	"github.com/knakk/rdf"
)

func iri(t *testing.T, s string) rdf.IRI {
	t.Helper()
	v, err := rdf.NewIRI(s)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func blank(t *testing.T, id string) rdf.Blank {
	t.Helper()
	v, err := rdf.NewBlank(id)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func lit(t *testing.T, s string) rdf.Literal {
	t.Helper()
	v, err := rdf.NewLiteral(s)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestDecode(t *testing.T) {
	doc := `<http://ex/s> <http://ex/p> "v" .
<http://ex/s> <http://ex/q> <http://ex/o> .
`
	g, err := Decode(strings.NewReader(doc), rdf.NTriples)
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != 2 {
		t.Fatalf("Len = %d, want 2", g.Len())
	}

	objs := g.Objects(iri(t, "http://ex/s"), iri(t, "http://ex/p"))
	if len(objs) != 1 || objs[0].String() != "v" {
		t.Errorf("Objects = %v", objs)
	}
}

func TestGraphEqual(t *testing.T) {
	a := NewGraph()
	b := NewGraph()
	s, p, o := iri(t, "http://ex/s"), iri(t, "http://ex/p"), lit(t, "v")

	a.Add(Statement{Subject: s, Predicate: p, Object: o})
	b.Add(Statement{Subject: s, Predicate: p, Object: o})
	if !a.Equal(b) {
		t.Error("graphs with the same statements should be equal")
	}

	b.Add(Statement{Subject: s, Predicate: p, Object: o})
	if a.Equal(b) {
		t.Error("multiset equality should see the duplicate")
	}
}

func TestGraphEqualRespectsGraphComponent(t *testing.T) {
	a := NewGraph()
	b := NewGraph()
	s, p, o := iri(t, "http://ex/s"), iri(t, "http://ex/p"), lit(t, "v")

	a.Add(Statement{Subject: s, Predicate: p, Object: o})
	b.Add(Statement{Subject: s, Predicate: p, Object: o, Graph: iri(t, "http://ex/g")})
	if a.Equal(b) {
		t.Error("statements in different graphs should not be equal")
	}
}

func TestIsomorphicBlankRenaming(t *testing.T) {
	p := iri(t, "http://ex/p")
	o := lit(t, "v")

	a := NewGraph()
	a.Add(Statement{Subject: blank(t, "x"), Predicate: p, Object: o})

	b := NewGraph()
	b.Add(Statement{Subject: blank(t, "y"), Predicate: p, Object: o})

	if !a.Isomorphic(b) {
		t.Error("graphs differing only in blank labels should be isomorphic")
	}
	if a.Equal(b) {
		t.Error("Equal should still distinguish the labels")
	}
}

func TestIsomorphicStructureMatters(t *testing.T) {
	p := iri(t, "http://ex/p")

	a := NewGraph()
	a.Add(Statement{Subject: blank(t, "x"), Predicate: p, Object: lit(t, "1")})
	a.Add(Statement{Subject: blank(t, "x"), Predicate: p, Object: lit(t, "2")})

	// Two distinct nodes carrying one value each is a different shape
	// from one node carrying both.
	b := NewGraph()
	b.Add(Statement{Subject: blank(t, "m"), Predicate: p, Object: lit(t, "1")})
	b.Add(Statement{Subject: blank(t, "n"), Predicate: p, Object: lit(t, "2")})

	if a.Isomorphic(b) {
		t.Error("different blank node structure should not be isomorphic")
	}
}

func TestSubjectsWith(t *testing.T) {
	g := NewGraph()
	p := iri(t, "http://ex/p")
	g.Add(Statement{Subject: iri(t, "http://ex/a"), Predicate: p, Object: lit(t, "1")})
	g.Add(Statement{Subject: iri(t, "http://ex/b"), Predicate: p, Object: lit(t, "2")})
	g.Add(Statement{Subject: iri(t, "http://ex/a"), Predicate: p, Object: lit(t, "3")})

	subjects := g.SubjectsWith(p)
	if len(subjects) != 2 {
		t.Fatalf("SubjectsWith = %v, want 2 distinct subjects", subjects)
	}
	if subjects[0].String() != "http://ex/a" || subjects[1].String() != "http://ex/b" {
		t.Errorf("SubjectsWith order = %v", subjects)
	}
}

func TestStatementKey(t *testing.T) {
	s, p, o := iri(t, "http://ex/s"), iri(t, "http://ex/p"), lit(t, "v")
	st := Statement{Subject: s, Predicate: p, Object: o}
	other := Statement{Subject: s, Predicate: p, Object: o, Graph: iri(t, "http://ex/g")}
	if st.Key() == other.Key() {
		t.Error("keys should differ on the graph component")
	}
}
