package mapping

import (
	"fmt"

	"github.com/c360studio/rmlstream/model"
	"github.com/c360studio/rmlstream/rdfterm"
	"github.com/knakk/rdf"
)

// Load reads every triples map described in the mapping graph.
// Unknown predicates are ignored. Triples maps referenced only as
// function values are folded into their referencing term maps and not
// returned at the top level.
func Load(g *rdfterm.Graph) ([]*model.TriplesMap, error) {
	l := &loader{
		g:         g,
		shells:    make(map[string]*model.TriplesMap),
		populated: make(map[string]bool),
	}

	roots := l.findRoots()
	for _, res := range roots {
		l.shell(res)
	}
	for _, res := range roots {
		if err := l.populate(res); err != nil {
			return nil, err
		}
	}

	// Parent triples maps referenced before (or without) being listed
	// as roots still need their definitions.
	for _, res := range l.pending() {
		if err := l.populate(res); err != nil {
			return nil, err
		}
	}

	out := make([]*model.TriplesMap, 0, len(roots))
	for _, res := range roots {
		out = append(out, l.shells[rdfterm.TermKey(res)])
	}
	return out, nil
}

type loader struct {
	g         *rdfterm.Graph
	shells    map[string]*model.TriplesMap
	resources map[string]rdf.Subject
	populated map[string]bool
}

// findRoots returns the subjects describing triples maps, in first
// appearance order, excluding function value descriptions.
func (l *loader) findRoots() []rdf.Subject {
	isFunctionValue := make(map[string]bool)
	for _, st := range l.g.Statements() {
		if st.Predicate == predFunctionValue {
			isFunctionValue[rdfterm.TermKey(st.Object)] = true
		}
	}

	seen := make(map[string]bool)
	var roots []rdf.Subject
	consider := func(res rdf.Subject) {
		k := rdfterm.TermKey(res)
		if seen[k] || isFunctionValue[k] {
			return
		}
		seen[k] = true
		roots = append(roots, res)
	}

	for _, st := range l.g.Statements() {
		switch st.Predicate {
		case predLogicalSource, predSubjectMap, predSubject:
			consider(st.Subject)
		case predType:
			if obj, ok := st.Object.(rdf.IRI); ok && obj == classTriplesMap {
				consider(st.Subject)
			}
		}
	}
	return roots
}

// shell returns the (possibly empty) triples map for a resource,
// creating it on first use. Shells let referencing object maps point
// at parents that are defined later in the graph.
func (l *loader) shell(res rdf.Subject) *model.TriplesMap {
	k := rdfterm.TermKey(res)
	if tm, ok := l.shells[k]; ok {
		return tm
	}
	tm := &model.TriplesMap{}
	setResource(tm, res)
	l.shells[k] = tm
	if l.resources == nil {
		l.resources = make(map[string]rdf.Subject)
	}
	l.resources[k] = res
	return tm
}

func (l *loader) pending() []rdf.Subject {
	var out []rdf.Subject
	for k, res := range l.resources {
		if !l.populated[k] {
			out = append(out, res)
		}
	}
	return out
}

func (l *loader) populate(res rdf.Subject) error {
	k := rdfterm.TermKey(res)
	if l.populated[k] {
		return nil
	}
	l.populated[k] = true
	tm := l.shell(res)

	if lsRes, ok := l.resourceObject(res, predLogicalSource); ok {
		ls, err := l.buildLogicalSource(lsRes)
		if err != nil {
			return fmt.Errorf("triples map %s: %w", tm.ResourceID(), err)
		}
		tm.LogicalSource = ls
	}

	if smRes, ok := l.resourceObject(res, predSubjectMap); ok {
		sm, err := l.buildSubjectMap(smRes)
		if err != nil {
			return fmt.Errorf("triples map %s: %w", tm.ResourceID(), err)
		}
		tm.SubjectMap = sm
	} else if c, ok := firstObject(l.g, res, predSubject); ok {
		sm := &model.SubjectMap{}
		sm.Constant = c.(rdf.Term)
		tm.SubjectMap = sm
	}

	for _, pomObj := range l.g.Objects(res, predPredicateObjectMap) {
		pomRes, ok := pomObj.(rdf.Subject)
		if !ok {
			continue
		}
		pom, err := l.buildPredicateObjectMap(pomRes)
		if err != nil {
			return fmt.Errorf("triples map %s: %w", tm.ResourceID(), err)
		}
		tm.PredicateObjectMaps = append(tm.PredicateObjectMaps, pom)
	}
	return nil
}

func (l *loader) buildLogicalSource(res rdf.Subject) (*model.LogicalSource, error) {
	ls := &model.LogicalSource{}
	setResource(ls, res)
	applyProperties(l.g, res, ls, logicalSourceProperties)

	if srcObj, ok := firstObject(l.g, res, predSource); ok {
		switch src := srcObj.(type) {
		case rdf.Literal:
			ls.Source = src.String()
		case rdf.IRI, rdf.Blank:
			srcRes := src.(rdf.Subject)
			described, err := l.buildDescribedSource(srcRes)
			if err != nil {
				return nil, err
			}
			ls.Source = described
		}
	}
	return ls, nil
}

func (l *loader) buildDescribedSource(res rdf.Subject) (any, error) {
	if name, ok := firstObject(l.g, res, predStreamName); ok {
		s := &model.Stream{Name: lexical(name)}
		setResource(s, res)
		return s, nil
	}
	if hasType(l.g, res, classStream) {
		s := &model.Stream{}
		setResource(s, res)
		return s, nil
	}
	if url, ok := firstObject(l.g, res, predURL); ok {
		f := &model.FileSource{URL: lexical(url)}
		setResource(f, res)
		return f, nil
	}
	return nil, fmt.Errorf("source %s: unrecognized source description", rdfterm.TermKey(res))
}

func (l *loader) buildSubjectMap(res rdf.Subject) (*model.SubjectMap, error) {
	sm := &model.SubjectMap{}
	setResource(sm, res)
	if err := l.applyTermMap(res, sm); err != nil {
		return nil, err
	}

	for _, obj := range l.g.Objects(res, predClass) {
		if iri, ok := obj.(rdf.IRI); ok {
			sm.Classes = append(sm.Classes, iri)
		}
	}

	gms, err := l.buildGraphMaps(res)
	if err != nil {
		return nil, err
	}
	sm.GraphMaps = gms
	return sm, nil
}

func (l *loader) buildPredicateObjectMap(res rdf.Subject) (*model.PredicateObjectMap, error) {
	pom := &model.PredicateObjectMap{}
	setResource(pom, res)

	for _, obj := range l.g.Objects(res, predPredicateMap) {
		pmRes, ok := obj.(rdf.Subject)
		if !ok {
			continue
		}
		pm := &model.PredicateMap{}
		setResource(pm, pmRes)
		if err := l.applyTermMap(pmRes, pm); err != nil {
			return nil, err
		}
		pom.PredicateMaps = append(pom.PredicateMaps, pm)
	}
	for _, obj := range l.g.Objects(res, predPredicate) {
		pm := &model.PredicateMap{}
		pm.Constant = obj.(rdf.Term)
		pom.PredicateMaps = append(pom.PredicateMaps, pm)
	}

	for _, obj := range l.g.Objects(res, predObjectMap) {
		omRes, ok := obj.(rdf.Subject)
		if !ok {
			continue
		}
		if l.g.Has(omRes, predParentTriplesMap) {
			rom, err := l.buildRefObjectMap(omRes)
			if err != nil {
				return nil, err
			}
			pom.RefObjectMaps = append(pom.RefObjectMaps, rom)
			continue
		}
		om := &model.ObjectMap{}
		setResource(om, omRes)
		if err := l.applyTermMap(omRes, om); err != nil {
			return nil, err
		}
		applyProperties(l.g, omRes, om, objectMapProperties)
		pom.ObjectMaps = append(pom.ObjectMaps, om)
	}
	for _, obj := range l.g.Objects(res, predObject) {
		om := &model.ObjectMap{}
		om.Constant = obj.(rdf.Term)
		pom.ObjectMaps = append(pom.ObjectMaps, om)
	}

	gms, err := l.buildGraphMaps(res)
	if err != nil {
		return nil, err
	}
	pom.GraphMaps = gms
	return pom, nil
}

// buildRefObjectMap builds a referencing object map. The presence of
// rr:parentTriplesMap is what classified the resource; this is the
// polymorphic discriminator between object maps and referencing
// object maps.
func (l *loader) buildRefObjectMap(res rdf.Subject) (*model.RefObjectMap, error) {
	rom := &model.RefObjectMap{}
	setResource(rom, res)

	parentObj, _ := firstObject(l.g, res, predParentTriplesMap)
	parentRes, ok := parentObj.(rdf.Subject)
	if !ok {
		return nil, fmt.Errorf("ref object map %s: rr:parentTriplesMap is not a resource", rom.ResourceID())
	}
	rom.ParentTriplesMap = l.shell(parentRes)

	for _, obj := range l.g.Objects(res, predJoinCondition) {
		jcRes, ok := obj.(rdf.Subject)
		if !ok {
			continue
		}
		child, _ := firstObject(l.g, jcRes, predChild)
		parent, _ := firstObject(l.g, jcRes, predParent)
		if child == nil || parent == nil {
			return nil, fmt.Errorf("ref object map %s: join condition missing rr:child or rr:parent", rom.ResourceID())
		}
		rom.JoinConditions = append(rom.JoinConditions, model.JoinCondition{
			Child:  lexical(child),
			Parent: lexical(parent),
		})
	}
	return rom, nil
}

func (l *loader) buildGraphMaps(res rdf.Subject) ([]*model.GraphMap, error) {
	var out []*model.GraphMap
	for _, obj := range l.g.Objects(res, predGraphMap) {
		gmRes, ok := obj.(rdf.Subject)
		if !ok {
			continue
		}
		gm := &model.GraphMap{}
		setResource(gm, gmRes)
		if err := l.applyTermMap(gmRes, gm); err != nil {
			return nil, err
		}
		out = append(out, gm)
	}
	for _, obj := range l.g.Objects(res, predGraph) {
		gm := &model.GraphMap{}
		gm.Constant = obj.(rdf.Term)
		out = append(out, gm)
	}
	return out, nil
}

// applyTermMap applies the shared term map schema plus the structural
// fnml:functionValue edge, then checks the at-most-one-of invariant.
func (l *loader) applyTermMap(res rdf.Subject, ent any) error {
	applyProperties(l.g, res, ent, termMapProperties)

	tm := asTermMap(ent)
	if fvObj, ok := l.resourceObject(res, predFunctionValue); ok {
		fv := &model.TriplesMap{}
		setResource(fv, fvObj)
		k := rdfterm.TermKey(fvObj)
		// Function value maps are anonymous; populate in place rather
		// than through the shell pool.
		saved, had := l.shells[k]
		l.shells[k] = fv
		delete(l.populated, k)
		err := l.populate(fvObj)
		if had {
			l.shells[k] = saved
		}
		if err != nil {
			return err
		}
		tm.FunctionValue = fv
	}

	if err := tm.Validate(); err != nil {
		return fmt.Errorf("term map %s: %w", rdfterm.TermKey(res), err)
	}
	return nil
}

func (l *loader) resourceObject(res rdf.Subject, pred rdf.IRI) (rdf.Subject, bool) {
	obj, ok := firstObject(l.g, res, pred)
	if !ok {
		return nil, false
	}
	sub, ok := obj.(rdf.Subject)
	return sub, ok
}

// applyProperties runs one entity's schema table against the graph.
func applyProperties(g *rdfterm.Graph, res rdf.Subject, ent any, props []property) {
	for _, p := range props {
		for _, obj := range g.Objects(res, p.pred) {
			v, ok := convertValue(obj, p.kind)
			if !ok {
				continue
			}
			p.set(ent, v)
			if !p.many {
				break
			}
		}
	}
}

func convertValue(obj rdf.Object, kind valueKind) (any, bool) {
	switch kind {
	case kindString:
		return lexical(obj), true
	case kindIRIValue:
		iri, ok := obj.(rdf.IRI)
		return iri, ok
	case kindTerm:
		t, ok := obj.(rdf.Term)
		return t, ok
	case kindTermType:
		iri, ok := obj.(rdf.IRI)
		if !ok {
			return nil, false
		}
		tt, ok := termTypeFromIRI(iri)
		return tt, ok
	default:
		return nil, false
	}
}

func firstObject(g *rdfterm.Graph, res rdf.Subject, pred rdf.IRI) (rdf.Object, bool) {
	objs := g.Objects(res, pred)
	if len(objs) == 0 {
		return nil, false
	}
	return objs[0], true
}

func hasType(g *rdfterm.Graph, res rdf.Subject, class rdf.IRI) bool {
	for _, obj := range g.Objects(res, predType) {
		if iri, ok := obj.(rdf.IRI); ok && iri == class {
			return true
		}
	}
	return false
}

func lexical(obj rdf.Object) string {
	switch v := obj.(type) {
	case rdf.Literal:
		return v.String()
	case rdf.IRI:
		return v.String()
	default:
		return v.String()
	}
}

type resourceSetter interface {
	SetResourceID(id string, blank bool)
}

func setResource(ent resourceSetter, res rdf.Subject) {
	switch r := res.(type) {
	case rdf.IRI:
		ent.SetResourceID(r.String(), false)
	case rdf.Blank:
		ent.SetResourceID(r.String(), true)
	}
}
