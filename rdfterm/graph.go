package rdfterm

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/knakk/rdf"
)

// Graph is an in-memory multiset of statements. It preserves insertion
// order and supports the lookups the mapping loader needs.
type Graph struct {
	stmts []Statement
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// Decode reads all triples from r in the given concrete syntax into a
// new graph.
func Decode(r io.Reader, format rdf.Format) (*Graph, error) {
	g := NewGraph()
	dec := rdf.NewTripleDecoder(r, format)
	for {
		tr, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode rdf: %w", err)
		}
		g.AddTriple(tr)
	}
	return g, nil
}

// Add appends a statement to the graph.
func (g *Graph) Add(st Statement) {
	g.stmts = append(g.stmts, st)
}

// AddTriple appends a triple to the default graph.
func (g *Graph) AddTriple(tr rdf.Triple) {
	pred, ok := tr.Pred.(rdf.IRI)
	if !ok {
		return
	}
	g.Add(Statement{Subject: tr.Subj, Predicate: pred, Object: tr.Obj})
}

// Len returns the number of statements.
func (g *Graph) Len() int {
	return len(g.stmts)
}

// Statements returns the statements in insertion order. The returned
// slice is shared; callers must not mutate it.
func (g *Graph) Statements() []Statement {
	return g.stmts
}

// Objects returns every object of statements matching subject and
// predicate, in insertion order.
func (g *Graph) Objects(subj rdf.Subject, pred rdf.IRI) []rdf.Object {
	sk := TermKey(subj)
	var out []rdf.Object
	for _, st := range g.stmts {
		if st.Predicate == pred && TermKey(st.Subject) == sk {
			out = append(out, st.Object)
		}
	}
	return out
}

// Has reports whether any statement matches subject and predicate.
func (g *Graph) Has(subj rdf.Subject, pred rdf.IRI) bool {
	sk := TermKey(subj)
	for _, st := range g.stmts {
		if st.Predicate == pred && TermKey(st.Subject) == sk {
			return true
		}
	}
	return false
}

// SubjectsWith returns the distinct subjects appearing with the given
// predicate, in first-appearance order.
func (g *Graph) SubjectsWith(pred rdf.IRI) []rdf.Subject {
	seen := make(map[string]bool)
	var out []rdf.Subject
	for _, st := range g.stmts {
		if st.Predicate != pred {
			continue
		}
		k := TermKey(st.Subject)
		if !seen[k] {
			seen[k] = true
			out = append(out, st.Subject)
		}
	}
	return out
}

// SubjectsOfType returns the distinct subjects declared with
// rdf:type class, in first-appearance order.
func (g *Graph) SubjectsOfType(typePred, class rdf.IRI) []rdf.Subject {
	seen := make(map[string]bool)
	var out []rdf.Subject
	for _, st := range g.stmts {
		if st.Predicate != typePred {
			continue
		}
		obj, ok := st.Object.(rdf.IRI)
		if !ok || obj != class {
			continue
		}
		k := TermKey(st.Subject)
		if !seen[k] {
			seen[k] = true
			out = append(out, st.Subject)
		}
	}
	return out
}

// Equal reports multiset equality of statements, ignoring order.
func (g *Graph) Equal(other *Graph) bool {
	if g.Len() != other.Len() {
		return false
	}
	counts := make(map[string]int, g.Len())
	for _, st := range g.stmts {
		counts[st.Key()]++
	}
	for _, st := range other.stmts {
		counts[st.Key()]--
		if counts[st.Key()] < 0 {
			return false
		}
	}
	return true
}

// Isomorphic reports whether the two graphs are equal up to blank node
// relabeling. Blank nodes are assigned canonical labels derived from
// their neighborhood signatures, refined over a fixed number of
// rounds; graphs produced by the mapping serializer are well within
// what this distinguishes.
func (g *Graph) Isomorphic(other *Graph) bool {
	if g.Len() != other.Len() {
		return false
	}
	return canonicalForm(g) == canonicalForm(other)
}

const refinementRounds = 4

func canonicalForm(g *Graph) string {
	labels := make(map[string]string)
	for _, st := range g.stmts {
		for _, t := range []rdf.Term{st.Subject, st.Object} {
			if b, ok := t.(rdf.Blank); ok {
				labels[TermKey(b)] = ""
			}
		}
	}

	for i := 0; i < refinementRounds; i++ {
		next := make(map[string]string, len(labels))
		for bk := range labels {
			var sig []string
			for _, st := range g.stmts {
				subjKey := blankAware(st.Subject, labels)
				objKey := blankAware(st.Object, labels)
				if TermKey(st.Subject) == bk {
					sig = append(sig, "s|"+st.Predicate.Serialize(rdf.NTriples)+"|"+objKey)
				}
				if TermKey(st.Object) == bk {
					sig = append(sig, "o|"+st.Predicate.Serialize(rdf.NTriples)+"|"+subjKey)
				}
			}
			sort.Strings(sig)
			next[bk] = strings.Join(sig, "\x1e")
		}
		labels = next
	}

	lines := make([]string, 0, g.Len())
	for _, st := range g.stmts {
		line := blankAware(st.Subject, labels) + " " +
			st.Predicate.Serialize(rdf.NTriples) + " " +
			blankAware(st.Object, labels)
		if st.Graph != nil {
			line += " " + blankAware(st.Graph, labels)
		}
		lines = append(lines, line)
	}
	sort.Strings(lines)
	return strings.Join(lines, "\n")
}

func blankAware(t rdf.Term, labels map[string]string) string {
	if t == nil {
		return ""
	}
	if _, ok := t.(rdf.Blank); ok {
		return "_:[" + labels[TermKey(t)] + "]"
	}
	return t.Serialize(rdf.NTriples)
}
