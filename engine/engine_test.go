package engine

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/c360studio/rmlstream/logicalsource"
	"github.com/c360studio/rmlstream/model"
	"github.com/c360studio/rmlstream/rdfterm"
	"github.com/c360studio/rmlstream/vocabulary/ql"
	"github.com/c360studio/rmlstream/vocabulary/rdfns"
	"github.com/knakk/rdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIRI(t *testing.T, s string) rdf.IRI {
	t.Helper()
	iri, err := rdf.NewIRI(s)
	if err != nil {
		t.Fatal(err)
	}
	return iri
}

func streamSource(t *testing.T, name, formulation, iterator string) *model.LogicalSource {
	t.Helper()
	return &model.LogicalSource{
		Source:               &model.Stream{Name: name},
		ReferenceFormulation: testIRI(t, formulation),
		Iterator:             iterator,
	}
}

func subjectTemplate(tpl string, classes ...rdf.IRI) *model.SubjectMap {
	sm := &model.SubjectMap{}
	sm.Template = tpl
	sm.Classes = classes
	return sm
}

func pomRef(t *testing.T, pred, ref string) *model.PredicateObjectMap {
	t.Helper()
	pm := &model.PredicateMap{}
	pm.Constant = testIRI(t, pred)
	om := &model.ObjectMap{}
	om.Reference = ref
	return &model.PredicateObjectMap{
		PredicateMaps: []*model.PredicateMap{pm},
		ObjectMaps:    []*model.ObjectMap{om},
	}
}

func pomTemplate(t *testing.T, pred, tpl string) *model.PredicateObjectMap {
	t.Helper()
	pm := &model.PredicateMap{}
	pm.Constant = testIRI(t, pred)
	om := &model.ObjectMap{}
	om.Template = tpl
	return &model.PredicateObjectMap{
		PredicateMaps: []*model.PredicateMap{pm},
		ObjectMaps:    []*model.ObjectMap{om},
	}
}

// mapAll runs MapNamed and gathers the full output.
func mapAll(t *testing.T, m *Mapper, streams map[string]io.Reader, filter ...*model.TriplesMap) []rdfterm.Statement {
	t.Helper()
	statements, errs := m.MapNamed(context.Background(), streams, filter...)
	var out []rdfterm.Statement
	for st := range statements {
		out = append(out, st)
	}
	for err := range errs {
		t.Fatalf("mapping failed: %v", err)
	}
	return out
}

func hasTriple(statements []rdfterm.Statement, subj, pred, obj string) bool {
	for _, st := range statements {
		if st.Subject.String() == subj && st.Predicate.String() == pred && st.Object.String() == obj {
			return true
		}
	}
	return false
}

func TestMapCSVToLiterals(t *testing.T) {
	tm := &model.TriplesMap{
		LogicalSource:       streamSource(t, "cars", ql.CSV, ""),
		SubjectMap:          subjectTemplate("http://ex/{a}"),
		PredicateObjectMaps: []*model.PredicateObjectMap{pomRef(t, "http://ex/p", "b")},
	}

	m, err := New([]*model.TriplesMap{tm}, Options{})
	require.NoError(t, err)

	statements := mapAll(t, m, map[string]io.Reader{
		"cars": strings.NewReader("a,b\n1,2\n3,4\n"),
	})

	require.Len(t, statements, 2)
	assert.True(t, hasTriple(statements, "http://ex/1", "http://ex/p", "2"))
	assert.True(t, hasTriple(statements, "http://ex/3", "http://ex/p", "4"))
}

func TestMapEmitsClasses(t *testing.T) {
	tm := &model.TriplesMap{
		LogicalSource:       streamSource(t, "cars", ql.CSV, ""),
		SubjectMap:          subjectTemplate("http://ex/{a}", testIRI(t, "http://ex/T")),
		PredicateObjectMaps: []*model.PredicateObjectMap{pomRef(t, "http://ex/p", "b")},
	}

	m, err := New([]*model.TriplesMap{tm}, Options{})
	require.NoError(t, err)

	statements := mapAll(t, m, map[string]io.Reader{
		"cars": strings.NewReader("a,b\n1,2\n3,4\n"),
	})

	require.Len(t, statements, 4)
	assert.True(t, hasTriple(statements, "http://ex/1", rdfns.Type, "http://ex/T"))
	assert.True(t, hasTriple(statements, "http://ex/3", rdfns.Type, "http://ex/T"))
}

func TestClassOnlyTriplesMap(t *testing.T) {
	tm := &model.TriplesMap{
		LogicalSource: streamSource(t, "cars", ql.CSV, ""),
		SubjectMap:    subjectTemplate("http://ex/{a}", testIRI(t, "http://ex/T")),
	}

	m, err := New([]*model.TriplesMap{tm}, Options{})
	require.NoError(t, err)

	statements := mapAll(t, m, map[string]io.Reader{
		"cars": strings.NewReader("a\n1\n2\n"),
	})

	require.Len(t, statements, 2)
	for _, st := range statements {
		assert.Equal(t, rdfns.Type, st.Predicate.String())
	}
}

func TestTypeTriplesPrecedePOMTriples(t *testing.T) {
	tm := &model.TriplesMap{
		LogicalSource:       streamSource(t, "cars", ql.CSV, ""),
		SubjectMap:          subjectTemplate("http://ex/{a}", testIRI(t, "http://ex/T")),
		PredicateObjectMaps: []*model.PredicateObjectMap{pomRef(t, "http://ex/p", "b")},
	}

	m, err := New([]*model.TriplesMap{tm}, Options{})
	require.NoError(t, err)

	statements := mapAll(t, m, map[string]io.Reader{
		"cars": strings.NewReader("a,b\n1,2\n"),
	})

	require.Len(t, statements, 2)
	assert.Equal(t, rdfns.Type, statements[0].Predicate.String())
	assert.Equal(t, "http://ex/p", statements[1].Predicate.String())
}

func TestAbsentHoleSuppressesTriple(t *testing.T) {
	tm := &model.TriplesMap{
		LogicalSource:       streamSource(t, "in", ql.JSONPath, "$.rows[*]"),
		SubjectMap:          subjectTemplate("http://ex/{a}"),
		PredicateObjectMaps: []*model.PredicateObjectMap{pomTemplate(t, "http://ex/p", "http://ex/{b}")},
	}

	m, err := New([]*model.TriplesMap{tm}, Options{})
	require.NoError(t, err)

	statements := mapAll(t, m, map[string]io.Reader{
		"in": strings.NewReader(`{"rows":[{"a":"1","b":null},{"a":"2","b":"x"}]}`),
	})

	// The null hole suppresses row 1's object; row 2 is unaffected.
	require.Len(t, statements, 1)
	assert.True(t, hasTriple(statements, "http://ex/2", "http://ex/p", "http://ex/x"))
}

func TestEmptySourceYieldsEmptyOutput(t *testing.T) {
	tm := &model.TriplesMap{
		LogicalSource:       streamSource(t, "cars", ql.CSV, ""),
		SubjectMap:          subjectTemplate("http://ex/{a}"),
		PredicateObjectMaps: []*model.PredicateObjectMap{pomRef(t, "http://ex/p", "b")},
	}

	m, err := New([]*model.TriplesMap{tm}, Options{})
	require.NoError(t, err)

	statements := mapAll(t, m, map[string]io.Reader{"cars": strings.NewReader("")})
	assert.Empty(t, statements)
}

func TestRecordOrderPreserved(t *testing.T) {
	tm := &model.TriplesMap{
		LogicalSource:       streamSource(t, "cars", ql.CSV, ""),
		SubjectMap:          subjectTemplate("http://ex/{a}"),
		PredicateObjectMaps: []*model.PredicateObjectMap{pomRef(t, "http://ex/p", "b")},
	}

	m, err := New([]*model.TriplesMap{tm}, Options{})
	require.NoError(t, err)

	// Distinct subjects in source order.
	var input strings.Builder
	input.WriteString("a,b\n")
	want := make([]string, 0, 100)
	for i := 0; i < 100; i++ {
		id := string(rune('a'+i%26)) + "-" + strings.Repeat("i", i/26+1)
		input.WriteString(id + ",v\n")
		want = append(want, "http://ex/"+id)
	}

	statements := mapAll(t, m, map[string]io.Reader{"cars": strings.NewReader(input.String())})
	require.Len(t, statements, 100)
	for i, st := range statements {
		assert.Equal(t, want[i], st.Subject.String(), "statement %d out of order", i)
	}
}

func TestDeterministicOutput(t *testing.T) {
	build := func() (*Mapper, map[string]io.Reader) {
		tm := &model.TriplesMap{
			LogicalSource:       streamSource(t, "cars", ql.CSV, ""),
			SubjectMap:          subjectTemplate("http://ex/{a}", testIRI(t, "http://ex/T")),
			PredicateObjectMaps: []*model.PredicateObjectMap{pomRef(t, "http://ex/p", "b")},
		}
		m, err := New([]*model.TriplesMap{tm}, Options{})
		require.NoError(t, err)
		return m, map[string]io.Reader{"cars": strings.NewReader("a,b\n1,2\n3,4\n")}
	}

	m1, in1 := build()
	g1, err := m1.MapNamedToGraph(context.Background(), in1)
	require.NoError(t, err)

	m2, in2 := build()
	g2, err := m2.MapNamedToGraph(context.Background(), in2)
	require.NoError(t, err)

	assert.True(t, g1.Equal(g2), "two runs should produce the same multiset of statements")
}

func TestJoinAcrossSources(t *testing.T) {
	parent := &model.TriplesMap{
		LogicalSource: streamSource(t, "parents", ql.CSV, ""),
		SubjectMap:    subjectTemplate("http://ex/p/{pid}"),
	}

	rom := &model.RefObjectMap{
		ParentTriplesMap: parent,
		JoinConditions:   []model.JoinCondition{{Child: "pid", Parent: "pid"}},
	}
	romPM := &model.PredicateMap{}
	romPM.Constant = testIRI(t, "http://ex/parent")
	child := &model.TriplesMap{
		LogicalSource: streamSource(t, "children", ql.CSV, ""),
		SubjectMap:    subjectTemplate("http://ex/c/{id}"),
		PredicateObjectMaps: []*model.PredicateObjectMap{{
			PredicateMaps: []*model.PredicateMap{romPM},
			RefObjectMaps: []*model.RefObjectMap{rom},
		}},
	}

	m, err := New([]*model.TriplesMap{child, parent}, Options{})
	require.NoError(t, err)

	statements := mapAll(t, m, map[string]io.Reader{
		"children": strings.NewReader("id,pid\n1,10\n2,20\n3,99\n"),
		"parents":  strings.NewReader("pid\n10\n20\n"),
	})

	assert.True(t, hasTriple(statements, "http://ex/c/1", "http://ex/parent", "http://ex/p/10"))
	assert.True(t, hasTriple(statements, "http://ex/c/2", "http://ex/parent", "http://ex/p/20"))

	// Join soundness: nothing for the unmatched child.
	for _, st := range statements {
		assert.NotEqual(t, "http://ex/c/3", st.Subject.String())
	}
	assert.Len(t, statements, 2)
}

func TestJoinCompleteness(t *testing.T) {
	parent := &model.TriplesMap{
		LogicalSource: streamSource(t, "parents", ql.CSV, ""),
		SubjectMap:    subjectTemplate("http://ex/p/{pid}"),
	}
	rom := &model.RefObjectMap{
		ParentTriplesMap: parent,
		JoinConditions:   []model.JoinCondition{{Child: "pid", Parent: "pid"}},
	}
	romPM := &model.PredicateMap{}
	romPM.Constant = testIRI(t, "http://ex/parent")
	child := &model.TriplesMap{
		LogicalSource: streamSource(t, "children", ql.CSV, ""),
		SubjectMap:    subjectTemplate("http://ex/c/{id}"),
		PredicateObjectMaps: []*model.PredicateObjectMap{{
			PredicateMaps: []*model.PredicateMap{romPM},
			RefObjectMaps: []*model.RefObjectMap{rom},
		}},
	}

	m, err := New([]*model.TriplesMap{child, parent}, Options{})
	require.NoError(t, err)

	// Two children share pid 10: each must be joined to the one parent.
	statements := mapAll(t, m, map[string]io.Reader{
		"children": strings.NewReader("id,pid\n1,10\n2,10\n"),
		"parents":  strings.NewReader("pid\n10\n"),
	})

	assert.True(t, hasTriple(statements, "http://ex/c/1", "http://ex/parent", "http://ex/p/10"))
	assert.True(t, hasTriple(statements, "http://ex/c/2", "http://ex/parent", "http://ex/p/10"))
	assert.Len(t, statements, 2)
}

func TestSelfJoinWithoutConditions(t *testing.T) {
	source := streamSource(t, "rows", ql.CSV, "")
	parent := &model.TriplesMap{
		LogicalSource: source,
		SubjectMap:    subjectTemplate("http://ex/p/{id}"),
	}
	rom := &model.RefObjectMap{ParentTriplesMap: parent}
	romPM := &model.PredicateMap{}
	romPM.Constant = testIRI(t, "http://ex/self")
	child := &model.TriplesMap{
		LogicalSource: source,
		SubjectMap:    subjectTemplate("http://ex/c/{id}"),
		PredicateObjectMaps: []*model.PredicateObjectMap{{
			PredicateMaps: []*model.PredicateMap{romPM},
			RefObjectMaps: []*model.RefObjectMap{rom},
		}},
	}

	m, err := New([]*model.TriplesMap{child, parent}, Options{})
	require.NoError(t, err)

	statements := mapAll(t, m, map[string]io.Reader{
		"rows": strings.NewReader("id\n1\n2\n"),
	})

	// Record-identity self join: each child pairs with the parent
	// subject generated from the same record.
	assert.True(t, hasTriple(statements, "http://ex/c/1", "http://ex/self", "http://ex/p/1"))
	assert.True(t, hasTriple(statements, "http://ex/c/2", "http://ex/self", "http://ex/p/2"))
	assert.Len(t, statements, 2)
}

func TestNoConditionJoinAcrossSourcesRejected(t *testing.T) {
	parent := &model.TriplesMap{
		LogicalSource: streamSource(t, "a", ql.CSV, ""),
		SubjectMap:    subjectTemplate("http://ex/p/{id}"),
	}
	rom := &model.RefObjectMap{ParentTriplesMap: parent}
	romPM := &model.PredicateMap{}
	romPM.Constant = testIRI(t, "http://ex/x")
	child := &model.TriplesMap{
		LogicalSource: streamSource(t, "b", ql.CSV, ""),
		SubjectMap:    subjectTemplate("http://ex/c/{id}"),
		PredicateObjectMaps: []*model.PredicateObjectMap{{
			PredicateMaps: []*model.PredicateMap{romPM},
			RefObjectMaps: []*model.RefObjectMap{rom},
		}},
	}

	_, err := New([]*model.TriplesMap{child, parent}, Options{})
	require.ErrorIs(t, err, ErrRefObjectMapSourceMismatch)
}

func TestBuildFailsWithoutMappableMaps(t *testing.T) {
	tm := &model.TriplesMap{
		LogicalSource: streamSource(t, "cars", ql.CSV, ""),
		SubjectMap:    &model.SubjectMap{},
	}
	_, err := New([]*model.TriplesMap{tm}, Options{})
	require.ErrorIs(t, err, ErrNoMappableTriplesMaps)
}

func TestBuildFailsWithoutResolverBinding(t *testing.T) {
	tm := &model.TriplesMap{
		LogicalSource:       streamSource(t, "cars", "http://ex/unknown-formulation", ""),
		SubjectMap:          subjectTemplate("http://ex/{a}"),
		PredicateObjectMaps: []*model.PredicateObjectMap{pomRef(t, "http://ex/p", "b")},
	}
	_, err := New([]*model.TriplesMap{tm}, Options{})
	require.ErrorIs(t, err, ErrNoResolverBinding)
}

func TestUnresolvedSourceFailsPipeline(t *testing.T) {
	tm := &model.TriplesMap{
		LogicalSource:       streamSource(t, "cars", ql.CSV, ""),
		SubjectMap:          subjectTemplate("http://ex/{a}"),
		PredicateObjectMaps: []*model.PredicateObjectMap{pomRef(t, "http://ex/p", "b")},
	}

	m, err := New([]*model.TriplesMap{tm}, Options{})
	require.NoError(t, err)

	statements, errs := m.Map(context.Background())
	for range statements {
	}
	var failure error
	for err := range errs {
		failure = err
	}
	require.Error(t, failure)
	var perr *PipelineError
	require.ErrorAs(t, failure, &perr)
	assert.ErrorIs(t, failure, ErrSourceNotResolved)
}

func TestLenientModeSkipsBadRecords(t *testing.T) {
	tm := &model.TriplesMap{
		LogicalSource:       streamSource(t, "cars", ql.CSV, ""),
		SubjectMap:          subjectTemplate("http://ex/{a}"),
		PredicateObjectMaps: []*model.PredicateObjectMap{pomRef(t, "http://ex/p", "missing")},
	}

	m, err := New([]*model.TriplesMap{tm}, Options{})
	require.NoError(t, err)

	statements := mapAll(t, m, map[string]io.Reader{
		"cars": strings.NewReader("a\n1\n"),
	})
	assert.Empty(t, statements)
}

func TestStrictModePromotesRecordErrors(t *testing.T) {
	tm := &model.TriplesMap{
		LogicalSource:       streamSource(t, "cars", ql.CSV, ""),
		SubjectMap:          subjectTemplate("http://ex/{a}"),
		PredicateObjectMaps: []*model.PredicateObjectMap{pomRef(t, "http://ex/p", "missing")},
	}

	m, err := New([]*model.TriplesMap{tm}, Options{Strict: true})
	require.NoError(t, err)

	statements, errs := m.MapNamed(context.Background(), map[string]io.Reader{
		"cars": strings.NewReader("a\n1\n"),
	})
	for range statements {
	}
	var failure error
	for err := range errs {
		failure = err
	}
	require.Error(t, failure)
	var perr *PipelineError
	assert.ErrorAs(t, failure, &perr)
}

func TestMapItem(t *testing.T) {
	tm := &model.TriplesMap{
		LogicalSource:       streamSource(t, "cars", ql.CSV, ""),
		SubjectMap:          subjectTemplate("http://ex/{a}"),
		PredicateObjectMaps: []*model.PredicateObjectMap{pomRef(t, "http://ex/p", "b")},
	}

	m, err := New([]*model.TriplesMap{tm}, Options{})
	require.NoError(t, err)

	g, err := m.MapItemToGraph(context.Background(), logicalsource.NewItemRecord(map[string]any{"a": "7", "b": "x"}))
	require.NoError(t, err)
	require.Equal(t, 1, g.Len())

	st := g.Statements()[0]
	assert.Equal(t, "http://ex/7", st.Subject.String())
	assert.Equal(t, "x", st.Object.String())
}

func TestMapFilterRestrictsTriplesMaps(t *testing.T) {
	tm1 := &model.TriplesMap{
		LogicalSource:       streamSource(t, "cars", ql.CSV, ""),
		SubjectMap:          subjectTemplate("http://ex/one/{a}"),
		PredicateObjectMaps: []*model.PredicateObjectMap{pomRef(t, "http://ex/p", "b")},
	}
	tm2 := &model.TriplesMap{
		LogicalSource:       streamSource(t, "cars", ql.CSV, ""),
		SubjectMap:          subjectTemplate("http://ex/two/{a}"),
		PredicateObjectMaps: []*model.PredicateObjectMap{pomRef(t, "http://ex/p", "b")},
	}

	m, err := New([]*model.TriplesMap{tm1, tm2}, Options{})
	require.NoError(t, err)

	statements := mapAll(t, m, map[string]io.Reader{
		"cars": strings.NewReader("a,b\n1,2\n"),
	}, tm1)

	require.Len(t, statements, 1)
	assert.Equal(t, "http://ex/one/1", statements[0].Subject.String())
}

func TestSharedSourceReadOnce(t *testing.T) {
	// Two triples maps over one stream: a stream can only be read
	// once, so sharing the pipeline is observable behavior.
	tm1 := &model.TriplesMap{
		LogicalSource:       streamSource(t, "cars", ql.CSV, ""),
		SubjectMap:          subjectTemplate("http://ex/one/{a}"),
		PredicateObjectMaps: []*model.PredicateObjectMap{pomRef(t, "http://ex/p", "b")},
	}
	tm2 := &model.TriplesMap{
		LogicalSource:       streamSource(t, "cars", ql.CSV, ""),
		SubjectMap:          subjectTemplate("http://ex/two/{a}"),
		PredicateObjectMaps: []*model.PredicateObjectMap{pomRef(t, "http://ex/p", "b")},
	}

	m, err := New([]*model.TriplesMap{tm1, tm2}, Options{})
	require.NoError(t, err)

	statements := mapAll(t, m, map[string]io.Reader{
		"cars": strings.NewReader("a,b\n1,2\n"),
	})

	require.Len(t, statements, 2)
	assert.True(t, hasTriple(statements, "http://ex/one/1", "http://ex/p", "2"))
	assert.True(t, hasTriple(statements, "http://ex/two/1", "http://ex/p", "2"))
}

func TestMapToGraphTimeout(t *testing.T) {
	tm := &model.TriplesMap{
		LogicalSource:       streamSource(t, "cars", ql.CSV, ""),
		SubjectMap:          subjectTemplate("http://ex/{a}"),
		PredicateObjectMaps: []*model.PredicateObjectMap{pomRef(t, "http://ex/p", "b")},
	}

	m, err := New([]*model.TriplesMap{tm}, Options{MapToGraphTimeout: 50 * time.Millisecond})
	require.NoError(t, err)

	// A pipe with no writer blocks the decoder until the timeout
	// closes it.
	pr, pw := io.Pipe()
	defer pw.Close()

	_, err = m.MapNamedToGraph(context.Background(), map[string]io.Reader{"cars": pr})
	require.ErrorIs(t, err, ErrMappingTimeout)
}

func TestPipelineErrorNamesSource(t *testing.T) {
	tm := &model.TriplesMap{
		LogicalSource:       streamSource(t, "bad", ql.JSONPath, "$.x[*]"),
		SubjectMap:          subjectTemplate("http://ex/{a}"),
		PredicateObjectMaps: []*model.PredicateObjectMap{pomRef(t, "http://ex/p", "b")},
	}

	m, err := New([]*model.TriplesMap{tm}, Options{})
	require.NoError(t, err)

	statements, errs := m.MapNamed(context.Background(), map[string]io.Reader{
		"bad": strings.NewReader("{invalid json"),
	})
	for range statements {
	}
	var failure error
	for err := range errs {
		failure = err
	}
	var perr *PipelineError
	require.ErrorAs(t, failure, &perr)
	assert.NotEmpty(t, perr.Source)
}

func TestContinueOnPipelineError(t *testing.T) {
	bad := &model.TriplesMap{
		LogicalSource:       streamSource(t, "bad", ql.JSONPath, "$.x[*]"),
		SubjectMap:          subjectTemplate("http://ex/bad/{a}"),
		PredicateObjectMaps: []*model.PredicateObjectMap{pomRef(t, "http://ex/p", "b")},
	}
	good := &model.TriplesMap{
		LogicalSource:       streamSource(t, "good", ql.CSV, ""),
		SubjectMap:          subjectTemplate("http://ex/good/{a}"),
		PredicateObjectMaps: []*model.PredicateObjectMap{pomRef(t, "http://ex/p", "b")},
	}

	m, err := New([]*model.TriplesMap{bad, good}, Options{ContinueOnPipelineError: true})
	require.NoError(t, err)

	statements, errs := m.MapNamed(context.Background(), map[string]io.Reader{
		"bad":  strings.NewReader("{invalid json"),
		"good": strings.NewReader("a,b\n1,2\n"),
	})
	var out []rdfterm.Statement
	for st := range statements {
		out = append(out, st)
	}
	var failures []error
	for err := range errs {
		failures = append(failures, err)
	}

	assert.Len(t, failures, 1, "only the bad pipeline should fail")
	assert.True(t, hasTriple(out, "http://ex/good/1", "http://ex/p", "2"),
		"the good pipeline should still produce output")
}
