package engine

import (
	"log/slog"

	"github.com/c360studio/rmlstream/join"
	"github.com/c360studio/rmlstream/logicalsource"
	"github.com/c360studio/rmlstream/model"
	"github.com/c360studio/rmlstream/rdfterm"
	"github.com/knakk/rdf"
)

// refObjectMapper resolves one ref object map with join conditions.
// The child pipeline buffers emit contexts into the child-side store;
// the parent pipeline registers subjects into the parent-side store;
// once both sides complete, join replays the matches.
type refObjectMapper struct {
	rom  *model.RefObjectMap
	name string

	childExprs  []string
	parentExprs []string

	childStore  join.ChildSideStore
	parentStore join.ParentSideStore

	childDone  chan struct{}
	parentDone chan struct{}

	logger *slog.Logger

	onMatch func()
}

func newRefObjectMapper(rom *model.RefObjectMap, name string, childStore join.ChildSideStore, parentStore join.ParentSideStore, logger *slog.Logger) *refObjectMapper {
	rm := &refObjectMapper{
		rom:         rom,
		name:        name,
		childStore:  childStore,
		parentStore: parentStore,
		childDone:   make(chan struct{}),
		parentDone:  make(chan struct{}),
		logger:      logger,
	}
	for _, jc := range rom.JoinConditions {
		rm.childExprs = append(rm.childExprs, jc.Child)
		rm.parentExprs = append(rm.parentExprs, jc.Parent)
	}
	return rm
}

// bufferChild appends one child emit context. A record whose join
// expressions are absent contributes no row; evaluation failures are
// data errors handled by the child mapper's record error policy.
func (rm *refObjectMapper) bufferChild(rec logicalsource.Record, subjects, predicates, graphs []rdf.Term, t *triplesMapper) error {
	key, ok, err := joinKey(rec, rm.childExprs)
	if err != nil {
		return t.recordError("join child expression", err)
	}
	if !ok {
		return nil
	}

	row := join.ChildSideJoin{
		Subjects:   subjects,
		Predicates: predicates,
		Graphs:     encodeGraphs(graphs),
		Key:        key,
	}
	if err := rm.childStore.Append(row); err != nil {
		return err
	}
	return nil
}

// registerParent indexes the record's generated subjects under the
// parent-side join key.
func (rm *refObjectMapper) registerParent(rec logicalsource.Record, subjects []rdf.Term) error {
	key, ok, err := joinKey(rec, rm.parentExprs)
	if err != nil {
		rm.logger.Warn("parent join expression failed",
			slog.String("ref_object_map", rm.name),
			slog.String("error", err.Error()))
		return nil
	}
	if !ok {
		return nil
	}
	for _, subj := range subjects {
		if err := rm.parentStore.Add(key, subj); err != nil {
			return err
		}
	}
	return nil
}

// release drops both stores' entries, for runs that end before the
// join executes.
func (rm *refObjectMapper) release() {
	if err := rm.childStore.Clear(); err != nil {
		rm.logger.Warn("clear child join store", slog.String("ref_object_map", rm.name), slog.String("error", err.Error()))
	}
	if err := rm.parentStore.Clear(); err != nil {
		rm.logger.Warn("clear parent join store", slog.String("ref_object_map", rm.name), slog.String("error", err.Error()))
	}
}

// join replays every buffered child context against the matching
// parent subjects, then releases both stores.
func (rm *refObjectMapper) join(emit emitFunc) error {
	defer rm.release()

	return rm.childStore.ForEach(func(row join.ChildSideJoin) error {
		parents, err := rm.parentStore.Get(row.Key)
		if err != nil {
			return err
		}
		graphs := decodeGraphs(row.Graphs)
		for _, parent := range parents {
			obj, ok := parent.(rdf.Object)
			if !ok {
				continue
			}
			if rm.onMatch != nil {
				rm.onMatch()
			}
			for _, subj := range row.Subjects {
				s, ok := subj.(rdf.Subject)
				if !ok {
					continue
				}
				for _, pred := range row.Predicates {
					p, ok := pred.(rdf.IRI)
					if !ok {
						continue
					}
					for _, graph := range graphs {
						if !emit(rdfterm.Statement{Subject: s, Predicate: p, Object: obj, Graph: graph}) {
							return nil
						}
					}
				}
			}
		}
		return nil
	})
}

// Join stores hold terms only; the default graph travels as the
// rr:defaultGraph IRI and is restored to nil on replay.
func encodeGraphs(graphs []rdf.Term) []rdf.Term {
	out := make([]rdf.Term, 0, len(graphs))
	for _, g := range graphs {
		if g == nil {
			out = append(out, defaultGraphIRI)
			continue
		}
		out = append(out, g)
	}
	return out
}

func decodeGraphs(graphs []rdf.Term) []rdf.Term {
	if len(graphs) == 0 {
		return []rdf.Term{nil}
	}
	out := make([]rdf.Term, 0, len(graphs))
	for _, g := range graphs {
		if iri, ok := g.(rdf.IRI); ok && iri == defaultGraphIRI {
			out = append(out, nil)
			continue
		}
		out = append(out, g)
	}
	return out
}
