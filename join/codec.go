package join

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/knakk/rdf"
)

// wireTerm is the gob-encodable form of an RDF term. knakk/rdf terms
// keep their fields unexported, so spillable stores round-trip
// through this representation.
type wireTerm struct {
	Kind     byte // 'i' IRI, 'b' blank, 'l' literal
	Value    string
	Lang     string
	Datatype string
}

type wireRow struct {
	Subjects   []wireTerm
	Predicates []wireTerm
	Graphs     []wireTerm
	Key        []string
}

func toWire(t rdf.Term) (wireTerm, error) {
	switch v := t.(type) {
	case rdf.IRI:
		return wireTerm{Kind: 'i', Value: v.String()}, nil
	case rdf.Blank:
		return wireTerm{Kind: 'b', Value: v.String()}, nil
	case rdf.Literal:
		return wireTerm{Kind: 'l', Value: v.String(), Lang: v.Lang(), Datatype: v.DataType.String()}, nil
	default:
		return wireTerm{}, fmt.Errorf("unsupported term type %T", t)
	}
}

func fromWire(w wireTerm) (rdf.Term, error) {
	switch w.Kind {
	case 'i':
		return rdf.NewIRI(w.Value)
	case 'b':
		id := w.Value
		if len(id) > 2 && id[:2] == "_:" {
			id = id[2:]
		}
		return rdf.NewBlank(id)
	case 'l':
		if w.Lang != "" {
			return rdf.NewLangLiteral(w.Value, w.Lang)
		}
		if w.Datatype != "" {
			dt, err := rdf.NewIRI(w.Datatype)
			if err != nil {
				return nil, err
			}
			return rdf.NewTypedLiteral(w.Value, dt), nil
		}
		return rdf.NewLiteral(w.Value)
	default:
		return nil, fmt.Errorf("unknown wire term kind %q", w.Kind)
	}
}

func encodeRow(row ChildSideJoin) ([]byte, error) {
	wire := wireRow{Key: row.Key.Values}
	for _, groups := range []struct {
		terms []rdf.Term
		dst   *[]wireTerm
	}{
		{row.Subjects, &wire.Subjects},
		{row.Predicates, &wire.Predicates},
		{row.Graphs, &wire.Graphs},
	} {
		for _, t := range groups.terms {
			w, err := toWire(t)
			if err != nil {
				return nil, err
			}
			*groups.dst = append(*groups.dst, w)
		}
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(wire); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeRow(data []byte) (ChildSideJoin, error) {
	var wire wireRow
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&wire); err != nil {
		return ChildSideJoin{}, err
	}

	row := ChildSideJoin{Key: KeyOf(wire.Key...)}
	for _, groups := range []struct {
		terms []wireTerm
		dst   *[]rdf.Term
	}{
		{wire.Subjects, &row.Subjects},
		{wire.Predicates, &row.Predicates},
		{wire.Graphs, &row.Graphs},
	} {
		for _, w := range groups.terms {
			t, err := fromWire(w)
			if err != nil {
				return ChildSideJoin{}, err
			}
			*groups.dst = append(*groups.dst, t)
		}
	}
	return row, nil
}
