package logicalsource

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/c360studio/rmlstream/model"
	"github.com/google/uuid"
)

// XMLResolver decodes ql:XPath sources with xmlquery. The iterator
// expression is an XPath selecting the record nodes; expressions are
// XPath evaluated relative to each node, including attribute access
// with `@attr`. Each matched node contributes one value; multiple
// matches expand to multiple values.
type XMLResolver struct{}

// NewXMLResolver returns an XML resolver.
func NewXMLResolver() *XMLResolver {
	return &XMLResolver{}
}

// Records implements Resolver.
func (x *XMLResolver) Records(ctx context.Context, r io.Reader, source *model.LogicalSource) (<-chan Record, <-chan error) {
	out := make(chan Record, BufferSize)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		doc, err := xmlquery.Parse(r)
		if err != nil {
			errc <- fmt.Errorf("parse xml source: %w", err)
			return
		}

		iterator := "/*"
		if source != nil && source.Iterator != "" {
			iterator = source.Iterator
		}

		nodes, err := xmlquery.QueryAll(doc, iterator)
		if err != nil {
			errc <- fmt.Errorf("evaluate iterator %q: %w", iterator, err)
			return
		}

		scope := uuid.NewString()[:8]
		for n, node := range nodes {
			rec := &xmlRecord{
				id:   fmt.Sprintf("%s-%d", scope, n),
				node: node,
			}
			if !emit(ctx, out, rec) {
				return
			}
		}
	}()

	return out, errc
}

type xmlRecord struct {
	id   string
	node *xmlquery.Node
}

func (r *xmlRecord) ID() string {
	return r.id
}

func (r *xmlRecord) Get(expression string) ([]string, error) {
	expr := strings.TrimSpace(expression)
	if expr == "" || expr == "." {
		return nonEmpty(r.node.InnerText()), nil
	}
	nodes, err := xmlquery.QueryAll(r.node, expr)
	if err != nil {
		return nil, fmt.Errorf("evaluate %q: %w", expression, err)
	}
	var out []string
	for _, n := range nodes {
		out = append(out, n.InnerText())
	}
	return out, nil
}

// Raw returns the record's XML node, for embedding callers.
func (r *xmlRecord) Raw() *xmlquery.Node {
	return r.node
}

func nonEmpty(v string) []string {
	if v == "" {
		return nil
	}
	return []string{v}
}
