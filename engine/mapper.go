// Package engine compiles a set of triples maps into source pipelines
// and executes them: records stream through term generators, deferred
// references resolve through the join stores, and the result is a
// stream of RDF statements.
package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/c360studio/rmlstream/join"
	"github.com/c360studio/rmlstream/logicalsource"
	"github.com/c360studio/rmlstream/metrics"
	"github.com/c360studio/rmlstream/model"
	"github.com/c360studio/rmlstream/rdfterm"
	"github.com/c360studio/rmlstream/sourceresolver"
	"github.com/c360studio/rmlstream/termgen"
)

// Mapper executes a compiled mapping. The mapping model is immutable
// after New and may be shared freely; the join stores are not, so a
// Mapper executes one run at a time.
type Mapper struct {
	opts     Options
	resolver *sourceresolver.Composite
	logger   *slog.Logger
	metrics  *metrics.Metrics

	pipelines []*pipeline
	mappers   map[*model.TriplesMap]*triplesMapper
	roms      []*refObjectMapper
	romChild  map[*refObjectMapper]*model.TriplesMap
	romParent map[*refObjectMapper]*model.TriplesMap
}

// New validates and compiles the triples maps. Compilation is pure:
// term generators are built and pipelines planned, but no source is
// touched until a Map call.
func New(triplesMaps []*model.TriplesMap, opts Options) (*Mapper, error) {
	opts = opts.withDefaults()

	mappable := model.FilterMappable(triplesMaps)
	if len(mappable) == 0 {
		return nil, ErrNoMappableTriplesMaps
	}

	m := &Mapper{
		opts:      opts,
		resolver:  sourceresolver.NewComposite(opts.SourceResolvers...),
		logger:    opts.Logger,
		metrics:   metrics.New(opts.MetricsRegisterer),
		mappers:   make(map[*model.TriplesMap]*triplesMapper),
		romChild:  make(map[*refObjectMapper]*model.TriplesMap),
		romParent: make(map[*refObjectMapper]*model.TriplesMap),
	}

	factory := termgen.NewFactory(opts.ValueFactory, opts.Functions, opts.termgenOptions(), opts.Logger)

	for _, tm := range mappable {
		mapper, err := m.compileTriplesMapper(tm, factory)
		if err != nil {
			return nil, err
		}
		m.mappers[tm] = mapper
	}

	// Second pass: ref object maps need the parent mappers compiled.
	for _, tm := range mappable {
		if err := m.compileRefObjects(tm, factory); err != nil {
			return nil, err
		}
	}

	groups := model.GroupBySource(mappable)
	for _, group := range groups {
		ls := group[0].LogicalSource
		formulation := ""
		if ls != nil {
			formulation = ls.ReferenceFormulation.String()
		}
		supplier, ok := opts.LogicalSourceResolvers[formulation]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNoResolverBinding, formulation)
		}

		p := &pipeline{
			ls:       ls,
			name:     pipelineName(ls),
			supplier: supplier,
		}
		for _, tm := range group {
			p.mappers = append(p.mappers, m.mappers[tm])
		}
		name := p.name
		p.onRecord = func() { m.metrics.RecordsTotal.WithLabelValues(name).Inc() }
		m.pipelines = append(m.pipelines, p)
	}

	return m, nil
}

func pipelineName(ls *model.LogicalSource) string {
	if ls == nil {
		return "(no source)"
	}
	if id := ls.ResourceID(); id != "" {
		return id
	}
	return ls.String()
}

func (m *Mapper) compileTriplesMapper(tm *model.TriplesMap, factory *termgen.Factory) (*triplesMapper, error) {
	name := mapperName(tm)

	subjectGen, err := factory.Subject(tm.SubjectMap)
	if err != nil {
		return nil, fmt.Errorf("triples map %s: %w", name, err)
	}

	t := &triplesMapper{
		tm:         tm,
		name:       name,
		subjectGen: subjectGen,
		classes:    tm.SubjectMap.Classes,
		logger:     m.logger,
		strict:     m.opts.Strict,
	}
	t.onRecordError = func() { m.metrics.RecordErrorsTotal.Inc() }
	t.onStatement = func() { m.metrics.StatementsTotal.WithLabelValues(name).Inc() }

	for _, gm := range tm.SubjectMap.GraphMaps {
		gen, err := factory.Graph(gm)
		if err != nil {
			return nil, fmt.Errorf("triples map %s: %w", name, err)
		}
		t.subjectGraphGens = append(t.subjectGraphGens, gen)
	}

	for _, pom := range tm.PredicateObjectMaps {
		cp := &compiledPOM{}
		for _, pm := range pom.PredicateMaps {
			gen, err := factory.Predicate(pm)
			if err != nil {
				return nil, fmt.Errorf("triples map %s: %w", name, err)
			}
			cp.predicateGens = append(cp.predicateGens, gen)
		}
		for _, om := range pom.ObjectMaps {
			gen, err := factory.Object(om)
			if err != nil {
				return nil, fmt.Errorf("triples map %s: %w", name, err)
			}
			cp.objectGens = append(cp.objectGens, gen)
		}
		for _, gm := range pom.GraphMaps {
			gen, err := factory.Graph(gm)
			if err != nil {
				return nil, fmt.Errorf("triples map %s: %w", name, err)
			}
			cp.graphGens = append(cp.graphGens, gen)
		}
		t.poms = append(t.poms, cp)
	}
	return t, nil
}

// compileRefObjects wires the triples map's ref object maps: inline
// parent generation when there are no join conditions, join stores
// otherwise.
func (m *Mapper) compileRefObjects(tm *model.TriplesMap, factory *termgen.Factory) error {
	t := m.mappers[tm]
	for i, pom := range tm.PredicateObjectMaps {
		cp := t.poms[i]
		for _, rom := range pom.RefObjectMaps {
			parent := rom.ParentTriplesMap
			if parent == nil || !parent.Mappable() {
				return fmt.Errorf("triples map %s: ref object map %s has no mappable parent", t.name, rom.ResourceID())
			}

			if len(rom.JoinConditions) == 0 {
				if !tm.LogicalSource.Equal(parent.LogicalSource) {
					return fmt.Errorf("%w: %s", ErrRefObjectMapSourceMismatch, rom.ResourceID())
				}
				parentGen, err := factory.Subject(parent.SubjectMap)
				if err != nil {
					return fmt.Errorf("triples map %s: parent subject: %w", t.name, err)
				}
				cp.inlineRefs = append(cp.inlineRefs, parentGen)
				continue
			}

			name := romName(rom, t.name)
			childStore, err := m.opts.ChildSideJoinStores.ChildSideStore(name)
			if err != nil {
				return &join.StoreError{Store: name, Op: "create", Err: err}
			}
			parentStore, err := m.opts.ParentSideJoinStores.ParentSideStore(name)
			if err != nil {
				return &join.StoreError{Store: name, Op: "create", Err: err}
			}

			rm := newRefObjectMapper(rom, name, childStore, parentStore, m.logger)
			rm.onMatch = func() { m.metrics.JoinMatchesTotal.WithLabelValues(name).Inc() }
			cp.refObjects = append(cp.refObjects, rm)

			parentMapper, ok := m.mappers[parent]
			if !ok {
				return fmt.Errorf("triples map %s: parent %s is not part of this mapping", t.name, parent.ResourceID())
			}
			parentMapper.parentRegs = append(parentMapper.parentRegs, rm)

			m.roms = append(m.roms, rm)
			m.romChild[rm] = tm
			m.romParent[rm] = parent
		}
	}
	return nil
}

func romName(rom *model.RefObjectMap, childName string) string {
	if id := rom.ResourceID(); id != "" {
		return id
	}
	return childName + "#rom"
}

// Map executes every pipeline against the configured source
// resolvers. The statement channel closes when all pipelines and
// joins complete; the error channel carries pipeline errors and is
// closed last.
func (m *Mapper) Map(ctx context.Context, filter ...*model.TriplesMap) (<-chan rdfterm.Statement, <-chan error) {
	return m.run(ctx, m.resolver, filter)
}

// MapReader binds the unnamed default input stream for this run.
func (m *Mapper) MapReader(ctx context.Context, r io.Reader, filter ...*model.TriplesMap) (<-chan rdfterm.Statement, <-chan error) {
	return m.run(ctx, m.resolver.Prepend(sourceresolver.NewDefaultStream(r)), filter)
}

// MapNamed binds named input streams for this run.
func (m *Mapper) MapNamed(ctx context.Context, streams map[string]io.Reader, filter ...*model.TriplesMap) (<-chan rdfterm.Statement, <-chan error) {
	return m.run(ctx, m.resolver.Prepend(sourceresolver.NewNamedStreams(streams)), filter)
}

// MapItem evaluates the mapping against a single caller-provided
// record, with no decoder involved. Joins between included triples
// maps see the same record on both sides.
func (m *Mapper) MapItem(ctx context.Context, rec logicalsource.Record, filter ...*model.TriplesMap) (<-chan rdfterm.Statement, <-chan error) {
	out := make(chan rdfterm.Statement, logicalsource.BufferSize)
	errs := make(chan error, 1)
	included := m.includedMappers(filter)

	go func() {
		defer close(errs)
		defer close(out)

		emit := func(st rdfterm.Statement) bool {
			select {
			case out <- st:
				return true
			case <-ctx.Done():
				return false
			}
		}

		for _, t := range included {
			if err := t.mapRecord(rec, emit); err != nil {
				errs <- &PipelineError{Source: t.name, Err: err}
				return
			}
		}
		for _, rm := range m.roms {
			if !m.romIncluded(rm, included) {
				continue
			}
			if err := rm.join(emit); err != nil {
				errs <- err
				return
			}
		}
	}()

	return out, errs
}

func (m *Mapper) run(ctx context.Context, resolver *sourceresolver.Composite, filter []*model.TriplesMap) (<-chan rdfterm.Statement, <-chan error) {
	out := make(chan rdfterm.Statement, logicalsource.BufferSize)
	errs := make(chan error, len(m.pipelines)+len(m.roms))

	runCtx, cancel := context.WithCancel(ctx)

	included := m.includedMappers(filter)
	includedSet := make(map[*triplesMapper]bool, len(included))
	for _, t := range included {
		includedSet[t] = true
	}

	emit := func(st rdfterm.Statement) bool {
		select {
		case out <- st:
			return true
		case <-runCtx.Done():
			return false
		}
	}

	// Done signals per triples mapper tie join execution to the
	// completion of both sides.
	mapperDone := make(map[*triplesMapper]chan struct{}, len(included))
	for _, t := range included {
		mapperDone[t] = make(chan struct{})
	}

	var wg sync.WaitGroup
	for _, p := range m.pipelines {
		var active []*triplesMapper
		for _, t := range p.mappers {
			if includedSet[t] {
				active = append(active, t)
			}
		}
		if len(active) == 0 {
			continue
		}

		wg.Add(1)
		go func(p *pipeline, active []*triplesMapper) {
			defer wg.Done()
			defer func() {
				for _, t := range active {
					close(mapperDone[t])
				}
			}()

			m.metrics.PipelinesActive.Inc()
			defer m.metrics.PipelinesActive.Dec()

			src, err := m.resolveSource(resolver, p.ls)
			if err == nil {
				err = p.run(runCtx, src, active, emit)
			}
			if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
				errs <- &PipelineError{Source: p.name, Err: err}
				if !m.opts.ContinueOnPipelineError {
					cancel()
				}
			}
		}(p, active)
	}

	var stale []*refObjectMapper
	for _, rm := range m.roms {
		childMapper := m.mappers[m.romChild[rm]]
		parentMapper := m.mappers[m.romParent[rm]]
		childDone, childIn := mapperDone[childMapper]
		parentDone, parentIn := mapperDone[parentMapper]
		if !childIn || !parentIn {
			if childIn || parentIn {
				// One-sided runs still buffer rows; drop them when
				// the run ends.
				stale = append(stale, rm)
			}
			continue
		}

		wg.Add(1)
		go func(rm *refObjectMapper, childDone, parentDone <-chan struct{}) {
			defer wg.Done()
			select {
			case <-childDone:
			case <-runCtx.Done():
				rm.release()
				return
			}
			select {
			case <-parentDone:
			case <-runCtx.Done():
				rm.release()
				return
			}
			if err := rm.join(emit); err != nil {
				errs <- err
				if !m.opts.ContinueOnPipelineError {
					cancel()
				}
			}
		}(rm, childDone, parentDone)
	}

	go func() {
		wg.Wait()
		for _, rm := range stale {
			rm.release()
		}
		cancel()
		close(out)
		close(errs)
	}()

	return out, errs
}

// resolveSource opens the pipeline's byte stream. A logical source
// without a source reference binds to the unnamed default stream.
func (m *Mapper) resolveSource(resolver *sourceresolver.Composite, ls *model.LogicalSource) (io.ReadCloser, error) {
	var source any
	if ls != nil && ls.Source != nil {
		source = ls.Source
	} else {
		source = &model.Stream{}
	}

	rc, ok, err := resolver.Resolve(source)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrSourceNotResolved, source)
	}
	return rc, nil
}

// includedMappers applies a triples map filter. Parents of included
// maps join the run so their side of a join is observed.
func (m *Mapper) includedMappers(filter []*model.TriplesMap) []*triplesMapper {
	if len(filter) == 0 {
		out := make([]*triplesMapper, 0, len(m.mappers))
		for _, p := range m.pipelines {
			out = append(out, p.mappers...)
		}
		return out
	}

	includedTM := make(map[*model.TriplesMap]bool)
	var include func(tm *model.TriplesMap)
	include = func(tm *model.TriplesMap) {
		if tm == nil || includedTM[tm] {
			return
		}
		includedTM[tm] = true
		for _, rom := range tm.RefObjectMaps() {
			include(rom.ParentTriplesMap)
		}
	}
	for _, tm := range filter {
		include(tm)
	}

	var out []*triplesMapper
	for _, p := range m.pipelines {
		for _, t := range p.mappers {
			if includedTM[t.tm] {
				out = append(out, t)
			}
		}
	}
	return out
}

func (m *Mapper) romIncluded(rm *refObjectMapper, included []*triplesMapper) bool {
	child, parent := m.mappers[m.romChild[rm]], m.mappers[m.romParent[rm]]
	childIn, parentIn := false, false
	for _, t := range included {
		if t == child {
			childIn = true
		}
		if t == parent {
			parentIn = true
		}
	}
	return childIn && parentIn
}
