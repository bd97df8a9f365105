// Package termgen compiles term maps into term generators: functions
// from a record to zero or more RDF terms. Generators are pure; all
// I/O stays in the pipelines feeding them records.
package termgen

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/c360studio/rmlstream/function"
	"github.com/c360studio/rmlstream/logicalsource"
	"github.com/c360studio/rmlstream/model"
	"github.com/c360studio/rmlstream/rdfterm"
	"github.com/c360studio/rmlstream/template"
	"github.com/c360studio/rmlstream/vocabulary/fno"
	"github.com/knakk/rdf"
	"golang.org/x/text/unicode/norm"
)

// DefaultBaseIRI is prepended to relative IRI values, matching the
// base used by the reference RML test cases.
const DefaultBaseIRI = "http://example.com/base/"

// Options configure term generation.
type Options struct {
	// NormalizationForm is applied to template expression values
	// before percent-encoding. Default NFC.
	NormalizationForm norm.Form

	// UpperCasePercentEncoding selects upper-case hex digits in
	// percent escapes. Lower case is available for backward
	// compatibility with older engine output.
	UpperCasePercentEncoding bool

	// BaseIRI resolves relative IRI values.
	BaseIRI string
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		NormalizationForm:        norm.NFC,
		UpperCasePercentEncoding: true,
		BaseIRI:                  DefaultBaseIRI,
	}
}

// Generator produces the RDF terms a term map yields for one record.
// No terms means the term is absent for this record and no triple
// citing it is emitted.
type Generator func(rec logicalsource.Record) ([]rdf.Term, error)

// targetKind is the kind of term a compiled generator produces.
type targetKind int

const (
	kindIRI targetKind = iota
	kindBlankNode
	kindLiteral
)

// Factory compiles term maps into generators. Parsed templates are
// cached by template text for the factory's lifetime; compiled
// generators are not cached, so each call compiles a new one.
// Factories are per-mapper and discarded with it.
type Factory struct {
	opts   Options
	vf     rdfterm.ValueFactory
	funcs  *function.Registry
	logger *slog.Logger

	mu        sync.Mutex
	templates map[string]*template.Template
}

// NewFactory returns a generator factory.
func NewFactory(vf rdfterm.ValueFactory, funcs *function.Registry, opts Options, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BaseIRI == "" {
		opts.BaseIRI = DefaultBaseIRI
	}
	return &Factory{
		opts:      opts,
		vf:        vf,
		funcs:     funcs,
		logger:    logger,
		templates: make(map[string]*template.Template),
	}
}

// Subject compiles a subject map. Subjects are IRIs by default; blank
// nodes when declared.
func (f *Factory) Subject(sm *model.SubjectMap) (Generator, error) {
	if sm == nil {
		return nil, fmt.Errorf("subject map is nil")
	}
	kind := kindIRI
	switch sm.TermType {
	case model.TermTypeBlankNode:
		kind = kindBlankNode
	case model.TermTypeLiteral:
		return nil, fmt.Errorf("subject map %s: literal term type not allowed", sm.ResourceID())
	}
	return f.compile(&sm.TermMap, kind, rdf.IRI{}, "")
}

// Predicate compiles a predicate map. Predicates are always IRIs.
func (f *Factory) Predicate(pm *model.PredicateMap) (Generator, error) {
	if pm == nil {
		return nil, fmt.Errorf("predicate map is nil")
	}
	if pm.TermType == model.TermTypeBlankNode || pm.TermType == model.TermTypeLiteral {
		return nil, fmt.Errorf("predicate map %s: term type must be IRI", pm.ResourceID())
	}
	return f.compile(&pm.TermMap, kindIRI, rdf.IRI{}, "")
}

// Object compiles an object map. The R2RML defaulting rules apply: a
// reference-valued or function-valued map, or one declaring a datatype
// or language, is a literal; a constant is emitted as given; otherwise
// an IRI.
func (f *Factory) Object(om *model.ObjectMap) (Generator, error) {
	if om == nil {
		return nil, fmt.Errorf("object map is nil")
	}

	kind := kindIRI
	switch om.TermType {
	case model.TermTypeBlankNode:
		kind = kindBlankNode
	case model.TermTypeLiteral:
		kind = kindLiteral
	case model.TermTypeUnset:
		// Constants are emitted as-is whatever their kind; otherwise
		// the R2RML defaulting rules decide.
		if om.Constant != nil ||
			om.Reference != "" || om.Language != "" || om.Datatype.String() != "" || om.FunctionValue != nil {
			kind = kindLiteral
		}
	}

	if om.Language != "" && !validLanguageTag(om.Language) {
		return nil, fmt.Errorf("object map %s: invalid language tag %q", om.ResourceID(), om.Language)
	}
	return f.compile(&om.TermMap, kind, om.Datatype, om.Language)
}

// Graph compiles a graph map. Graphs are IRIs; the rr:defaultGraph
// constant is passed through for the engine to interpret.
func (f *Factory) Graph(gm *model.GraphMap) (Generator, error) {
	if gm == nil {
		return nil, fmt.Errorf("graph map is nil")
	}
	if gm.TermType == model.TermTypeBlankNode || gm.TermType == model.TermTypeLiteral {
		return nil, fmt.Errorf("graph map %s: term type must be IRI", gm.ResourceID())
	}
	return f.compile(&gm.TermMap, kindIRI, rdf.IRI{}, "")
}

func (f *Factory) compile(tm *model.TermMap, kind targetKind, datatype rdf.IRI, lang string) (Generator, error) {
	if err := tm.Validate(); err != nil {
		return nil, fmt.Errorf("term map %s: %w", tm.ResourceID(), err)
	}

	switch {
	case tm.Constant != nil:
		return f.constantGenerator(tm, kind)
	case tm.Template != "":
		return f.templateGenerator(tm, kind, datatype, lang)
	case tm.Reference != "":
		return f.referenceGenerator(tm, kind, datatype, lang)
	case tm.FunctionValue != nil:
		return f.functionGenerator(tm, kind, datatype, lang)
	default:
		if kind == kindBlankNode {
			// A valueless blank node term map yields one fresh node
			// per record.
			return func(rec logicalsource.Record) ([]rdf.Term, error) {
				return f.blankTerms(tm, rec, []string{""})
			}, nil
		}
		return nil, fmt.Errorf("term map %s: no value expression", tm.ResourceID())
	}
}

func (f *Factory) constantGenerator(tm *model.TermMap, kind targetKind) (Generator, error) {
	c := tm.Constant
	switch kind {
	case kindIRI:
		if _, ok := c.(rdf.IRI); !ok {
			return nil, fmt.Errorf("term map %s: constant %s is not an IRI", tm.ResourceID(), c.Serialize(rdf.NTriples))
		}
	case kindBlankNode:
		if _, ok := c.(rdf.Blank); !ok {
			return nil, fmt.Errorf("term map %s: constant %s is not a blank node", tm.ResourceID(), c.Serialize(rdf.NTriples))
		}
	}
	terms := []rdf.Term{c}
	return func(logicalsource.Record) ([]rdf.Term, error) {
		return terms, nil
	}, nil
}

func (f *Factory) templateGenerator(tm *model.TermMap, kind targetKind, datatype rdf.IRI, lang string) (Generator, error) {
	tmpl, err := f.parseTemplate(tm.Template)
	if err != nil {
		return nil, fmt.Errorf("term map %s: %w", tm.ResourceID(), err)
	}

	var transform func(string) string
	if kind == kindIRI {
		transform = func(v string) string {
			return EncodeIRISafe(v, f.opts.NormalizationForm, f.opts.UpperCasePercentEncoding)
		}
	}

	return func(rec logicalsource.Record) ([]rdf.Term, error) {
		values, err := tmpl.Expand(rec.Get, transform)
		if err != nil {
			return nil, &GenError{TermMapID: tm.ResourceID(), Expression: tm.Template, Err: err}
		}
		return f.terms(tm, rec, kind, datatype, lang, values)
	}, nil
}

func (f *Factory) referenceGenerator(tm *model.TermMap, kind targetKind, datatype rdf.IRI, lang string) (Generator, error) {
	ref := tm.Reference
	return func(rec logicalsource.Record) ([]rdf.Term, error) {
		values, err := rec.Get(ref)
		if err != nil {
			return nil, &GenError{TermMapID: tm.ResourceID(), Expression: ref, Err: err}
		}
		return f.terms(tm, rec, kind, datatype, lang, values)
	}, nil
}

func (f *Factory) terms(tm *model.TermMap, rec logicalsource.Record, kind targetKind, datatype rdf.IRI, lang string, values []string) ([]rdf.Term, error) {
	if len(values) == 0 {
		return nil, nil
	}
	switch kind {
	case kindIRI:
		return f.iriTerms(tm, values)
	case kindBlankNode:
		return f.blankTerms(tm, rec, values)
	default:
		return f.literalTerms(tm, datatype, lang, values)
	}
}

func (f *Factory) iriTerms(tm *model.TermMap, values []string) ([]rdf.Term, error) {
	out := make([]rdf.Term, 0, len(values))
	for _, v := range values {
		if !IsAbsoluteIRI(v) {
			v = f.opts.BaseIRI + v
		}
		iri, err := f.vf.IRI(v)
		if err != nil {
			return nil, &GenError{TermMapID: tm.ResourceID(), Expression: v, Err: err}
		}
		out = append(out, iri)
	}
	return out, nil
}

func (f *Factory) blankTerms(tm *model.TermMap, rec logicalsource.Record, values []string) ([]rdf.Term, error) {
	out := make([]rdf.Term, 0, len(values))
	for _, v := range values {
		// Labels are scoped to the record: equal labels within one
		// record are one node, equal labels across records are not.
		label := sanitizeBlankLabel(v) + "-" + sanitizeBlankLabel(rec.ID())
		b, err := f.vf.BlankNodeID(label)
		if err != nil {
			return nil, &GenError{TermMapID: tm.ResourceID(), Expression: v, Err: err}
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *Factory) literalTerms(tm *model.TermMap, datatype rdf.IRI, lang string, values []string) ([]rdf.Term, error) {
	out := make([]rdf.Term, 0, len(values))
	for _, v := range values {
		var (
			lit rdf.Literal
			err error
		)
		switch {
		case lang != "":
			lit, err = f.vf.LangLiteral(v, lang)
		case datatype.String() != "":
			lit = f.vf.TypedLiteral(v, datatype)
		default:
			lit, err = f.vf.Literal(v)
		}
		if err != nil {
			return nil, &GenError{TermMapID: tm.ResourceID(), Expression: v, Err: err}
		}
		out = append(out, lit)
	}
	return out, nil
}

func (f *Factory) parseTemplate(s string) (*template.Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.templates[s]; ok {
		return t, nil
	}
	t, err := template.Parse(s)
	if err != nil {
		return nil, err
	}
	f.templates[s] = t
	return t, nil
}

// functionGenerator compiles a function term map: the function value
// triples map names the function via fno:executes and binds each
// parameter predicate to an evaluated term map.
func (f *Factory) functionGenerator(tm *model.TermMap, kind targetKind, datatype rdf.IRI, lang string) (Generator, error) {
	fv := tm.FunctionValue

	var fnIRI string
	type param struct {
		iri string
		gen Generator
	}
	var params []param

	for _, pom := range fv.PredicateObjectMaps {
		for _, pm := range pom.PredicateMaps {
			pred, ok := pm.Constant.(rdf.IRI)
			if !ok {
				return nil, fmt.Errorf("function term map %s: parameter predicate must be a constant IRI", tm.ResourceID())
			}
			if pred.String() == fno.Executes {
				for _, om := range pom.ObjectMaps {
					exec, ok := om.Constant.(rdf.IRI)
					if !ok {
						return nil, fmt.Errorf("function term map %s: fno:executes must be a constant IRI", tm.ResourceID())
					}
					fnIRI = exec.String()
				}
				continue
			}
			for _, om := range pom.ObjectMaps {
				gen, err := f.Object(om)
				if err != nil {
					return nil, err
				}
				params = append(params, param{iri: pred.String(), gen: gen})
			}
		}
	}
	if fnIRI == "" {
		return nil, fmt.Errorf("function term map %s: no fno:executes declared", tm.ResourceID())
	}

	return func(rec logicalsource.Record) ([]rdf.Term, error) {
		fn, ok := f.funcs.Lookup(fnIRI)
		if !ok {
			return nil, &function.EvalError{FunctionIRI: fnIRI, Reason: "not registered"}
		}

		args := make(function.Arguments)
		for _, p := range params {
			terms, err := p.gen(rec)
			if err != nil {
				return nil, err
			}
			args[p.iri] = append(args[p.iri], terms...)
		}

		results, err := fn(args)
		if err != nil {
			var evalErr *function.EvalError
			if !errors.As(err, &evalErr) {
				err = &function.EvalError{FunctionIRI: fnIRI, Reason: "evaluation failed", Err: err}
			}
			return nil, err
		}
		return f.coerce(tm, rec, kind, datatype, lang, results)
	}, nil
}

// coerce converts function results to the generator's target kind.
// IRIs and blank nodes pass through where the kind allows; literal
// results targeting IRIs are re-read as IRI strings.
func (f *Factory) coerce(tm *model.TermMap, rec logicalsource.Record, kind targetKind, datatype rdf.IRI, lang string, results []rdf.Term) ([]rdf.Term, error) {
	var out []rdf.Term
	for _, t := range results {
		switch v := t.(type) {
		case rdf.IRI:
			out = append(out, v)
		case rdf.Blank:
			out = append(out, v)
		case rdf.Literal:
			coerced, err := f.terms(tm, rec, kind, datatype, lang, []string{v.String()})
			if err != nil {
				return nil, err
			}
			out = append(out, coerced...)
		default:
			return nil, &GenError{TermMapID: tm.ResourceID(), Err: fmt.Errorf("unsupported function result %T", t)}
		}
	}
	return out, nil
}
