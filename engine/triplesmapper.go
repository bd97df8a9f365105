package engine

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/c360studio/rmlstream/join"
	"github.com/c360studio/rmlstream/logicalsource"
	"github.com/c360studio/rmlstream/model"
	"github.com/c360studio/rmlstream/rdfterm"
	"github.com/c360studio/rmlstream/termgen"
	"github.com/c360studio/rmlstream/vocabulary/rdfns"
	"github.com/c360studio/rmlstream/vocabulary/rr"
	"github.com/knakk/rdf"
)

// emitFunc delivers one statement downstream. It reports false when
// the run is cancelled and processing should stop.
type emitFunc func(rdfterm.Statement) bool

// triplesMapper evaluates one triples map against the records of its
// pipeline.
type triplesMapper struct {
	tm   *model.TriplesMap
	name string

	subjectGen       termgen.Generator
	classes          []rdf.IRI
	subjectGraphGens []termgen.Generator
	poms             []*compiledPOM

	// parentRegs are the ref object maps for which this triples map
	// is the parent: every generated subject is registered with its
	// evaluated parent-side join key.
	parentRegs []*refObjectMapper

	logger *slog.Logger
	strict bool

	onRecordError func()
	onStatement   func()
}

type compiledPOM struct {
	predicateGens []termgen.Generator
	objectGens    []termgen.Generator
	graphGens     []termgen.Generator

	// refObjects carry join conditions and defer through the join
	// stores; inlineRefs have none and take the parent subject from
	// the current record.
	refObjects []*refObjectMapper
	inlineRefs []termgen.Generator
}

var typeIRI = mustIRI(rdfns.Type)
var defaultGraphIRI = mustIRI(rr.DefaultGraph)

func mustIRI(s string) rdf.IRI {
	iri, err := rdf.NewIRI(s)
	if err != nil {
		panic("engine: invalid IRI " + s + ": " + err.Error())
	}
	return iri
}

// mapperName derives a stable display name for logs and metrics.
func mapperName(tm *model.TriplesMap) string {
	if id := tm.ResourceID(); id != "" {
		return id
	}
	return fmt.Sprintf("triplesmap-%p", tm)
}

// mapRecord produces the record's triples. Per-record term generation
// errors are warnings unless strict mode promotes them.
func (t *triplesMapper) mapRecord(rec logicalsource.Record, emit emitFunc) error {
	subjects, err := t.subjectGen(rec)
	if err != nil {
		return t.recordError("subject", err)
	}

	// Parent-side join registration happens for every record with a
	// subject, independent of this map's own output.
	if len(subjects) > 0 {
		for _, rm := range t.parentRegs {
			if err := rm.registerParent(rec, subjects); err != nil {
				return err
			}
		}
	}

	if len(subjects) == 0 {
		return nil
	}

	subjectGraphs, err := t.evalGraphs(rec, t.subjectGraphGens)
	if err != nil {
		return t.recordError("graph", err)
	}

	for _, subj := range subjects {
		s, ok := subj.(rdf.Subject)
		if !ok {
			continue
		}
		for _, class := range t.classes {
			for _, graph := range subjectGraphs {
				if !emit(t.statement(s, typeIRI, class, graph)) {
					return nil
				}
			}
		}
	}

	for _, pom := range t.poms {
		if err := t.mapPOM(rec, pom, subjects, subjectGraphs, emit); err != nil {
			return err
		}
	}
	return nil
}

func (t *triplesMapper) mapPOM(rec logicalsource.Record, pom *compiledPOM, subjects []rdf.Term, subjectGraphs []rdf.Term, emit emitFunc) error {
	predicates, err := t.evalAll(rec, pom.predicateGens)
	if err != nil {
		return t.recordError("predicate", err)
	}
	if len(predicates) == 0 {
		return nil
	}

	pomGraphs, err := t.evalGraphs(rec, pom.graphGens)
	if err != nil {
		return t.recordError("graph", err)
	}
	graphs := unionGraphs(subjectGraphs, pomGraphs)

	objects, err := t.evalAll(rec, pom.objectGens)
	if err != nil {
		if rerr := t.recordError("object", err); rerr != nil {
			return rerr
		}
		objects = nil
	}

	for _, subj := range subjects {
		s, ok := subj.(rdf.Subject)
		if !ok {
			continue
		}
		for _, pred := range predicates {
			p, ok := pred.(rdf.IRI)
			if !ok {
				continue
			}
			for _, obj := range objects {
				for _, graph := range graphs {
					if !emit(t.statement(s, p, obj.(rdf.Object), graph)) {
						return nil
					}
				}
			}
		}
	}

	// Inline ref objects: the parent shares this record; its subject
	// generator runs against the same record.
	for _, parentGen := range pom.inlineRefs {
		parents, err := parentGen(rec)
		if err != nil {
			if rerr := t.recordError("ref object", err); rerr != nil {
				return rerr
			}
			continue
		}
		for _, subj := range subjects {
			s, ok := subj.(rdf.Subject)
			if !ok {
				continue
			}
			for _, pred := range predicates {
				p, ok := pred.(rdf.IRI)
				if !ok {
					continue
				}
				for _, parent := range parents {
					for _, graph := range graphs {
						if !emit(t.statement(s, p, parent.(rdf.Object), graph)) {
							return nil
						}
					}
				}
			}
		}
	}

	// Deferred ref objects buffer the emit context with the child
	// join key; the join engine re-enters it once the parent side
	// completes.
	for _, rm := range pom.refObjects {
		if err := rm.bufferChild(rec, subjects, predicates, graphs, t); err != nil {
			return err
		}
	}
	return nil
}

func (t *triplesMapper) statement(s rdf.Subject, p rdf.IRI, o rdf.Object, graph rdf.Term) rdfterm.Statement {
	if t.onStatement != nil {
		t.onStatement()
	}
	return rdfterm.Statement{Subject: s, Predicate: p, Object: o, Graph: graph}
}

// evalAll flattens the terms of several generators, preserving
// generator order.
func (t *triplesMapper) evalAll(rec logicalsource.Record, gens []termgen.Generator) ([]rdf.Term, error) {
	var out []rdf.Term
	for _, gen := range gens {
		terms, err := gen(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, terms...)
	}
	return out, nil
}

// evalGraphs evaluates graph maps; rr:defaultGraph maps to the nil
// default graph. No graph maps means the default graph alone.
func (t *triplesMapper) evalGraphs(rec logicalsource.Record, gens []termgen.Generator) ([]rdf.Term, error) {
	if len(gens) == 0 {
		return []rdf.Term{nil}, nil
	}
	terms, err := t.evalAll(rec, gens)
	if err != nil {
		return nil, err
	}
	out := make([]rdf.Term, 0, len(terms))
	for _, g := range terms {
		if iri, ok := g.(rdf.IRI); ok && iri == defaultGraphIRI {
			out = append(out, nil)
			continue
		}
		out = append(out, g)
	}
	if len(out) == 0 {
		out = append(out, nil)
	}
	return out, nil
}

// unionGraphs merges subject-scoped and POM-scoped graphs without
// duplicates. The implicit default graph of a side with no graph maps
// only survives when neither side declares one.
func unionGraphs(subjectGraphs, pomGraphs []rdf.Term) []rdf.Term {
	merged := make([]rdf.Term, 0, len(subjectGraphs)+len(pomGraphs))
	seen := make(map[string]bool)
	add := func(g rdf.Term) {
		k := rdfterm.TermKey(g)
		if !seen[k] {
			seen[k] = true
			merged = append(merged, g)
		}
	}

	subjectDeclared := len(subjectGraphs) != 1 || subjectGraphs[0] != nil
	pomDeclared := len(pomGraphs) != 1 || pomGraphs[0] != nil

	switch {
	case subjectDeclared && pomDeclared:
		for _, g := range subjectGraphs {
			add(g)
		}
		for _, g := range pomGraphs {
			add(g)
		}
	case subjectDeclared:
		for _, g := range subjectGraphs {
			add(g)
		}
	case pomDeclared:
		for _, g := range pomGraphs {
			add(g)
		}
	default:
		add(nil)
	}
	return merged
}

// recordError contains a per-record failure: logged and counted in
// lenient mode, returned in strict mode.
func (t *triplesMapper) recordError(stage string, err error) error {
	if t.strict {
		return fmt.Errorf("triples map %s: %s: %w", t.name, stage, err)
	}
	if t.onRecordError != nil {
		t.onRecordError()
	}
	t.logger.Warn("record skipped",
		slog.String("triples_map", t.name),
		slog.String("stage", stage),
		slog.String("error", err.Error()))
	return nil
}

// joinKey evaluates join expressions against a record. Absent
// expressions yield no key; evaluation failures are data errors.
func joinKey(rec logicalsource.Record, exprs []string) (join.Key, bool, error) {
	values := make([]string, 0, len(exprs))
	for _, expr := range exprs {
		vs, err := rec.Get(expr)
		if err != nil {
			return join.Key{}, false, err
		}
		if len(vs) == 0 {
			return join.Key{}, false, nil
		}
		values = append(values, strings.Join(vs, "\x1f"))
	}
	return join.KeyOf(values...), true, nil
}
