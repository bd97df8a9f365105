package logicalsource

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/c360studio/rmlstream/model"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// JSONResolver decodes ql:JSONPath sources with gjson. The iterator
// expression selects the records; when it selects an array, each
// element becomes a record. Expressions are evaluated relative to the
// record.
//
// Paths are accepted in the common JSONPath surface syntax and
// translated to gjson paths: the leading `$.` is stripped, `[*]`
// becomes gjson's `#` element expansion and `[n]` becomes `.n`.
// Filters and recursive descent are not supported.
type JSONResolver struct{}

// NewJSONResolver returns a JSON resolver.
func NewJSONResolver() *JSONResolver {
	return &JSONResolver{}
}

// Records implements Resolver.
func (j *JSONResolver) Records(ctx context.Context, r io.Reader, source *model.LogicalSource) (<-chan Record, <-chan error) {
	out := make(chan Record, BufferSize)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		data, err := io.ReadAll(r)
		if err != nil {
			errc <- fmt.Errorf("read json source: %w", err)
			return
		}
		if !gjson.ValidBytes(data) {
			errc <- fmt.Errorf("invalid json document")
			return
		}

		doc := gjson.ParseBytes(data)
		iterator := ""
		if source != nil {
			iterator = source.Iterator
		}

		var matches []gjson.Result
		switch path := translateJSONPath(iterator); path {
		case "":
			matches = []gjson.Result{doc}
		default:
			// A trailing `#` would make gjson return the element count;
			// select the array itself and expand its elements instead.
			path = strings.TrimSuffix(strings.TrimSuffix(path, "#"), ".")
			res := doc
			if path != "" {
				res = doc.Get(path)
			}
			if !res.Exists() {
				return
			}
			if res.IsArray() {
				matches = res.Array()
			} else {
				matches = []gjson.Result{res}
			}
		}

		scope := uuid.NewString()[:8]
		for n, m := range matches {
			rec := &jsonRecord{
				id:  fmt.Sprintf("%s-%d", scope, n),
				doc: m,
			}
			if !emit(ctx, out, rec) {
				return
			}
		}
	}()

	return out, errc
}

type jsonRecord struct {
	id  string
	doc gjson.Result
}

func (r *jsonRecord) ID() string {
	return r.id
}

func (r *jsonRecord) Get(expression string) ([]string, error) {
	path := strings.TrimSuffix(strings.TrimSuffix(translateJSONPath(expression), "#"), ".")
	if path == "" {
		return resultValues(r.doc), nil
	}
	res := r.doc.Get(path)
	if !res.Exists() {
		return nil, nil
	}
	return resultValues(res), nil
}

// Raw returns the record's JSON fragment, for embedding callers.
func (r *jsonRecord) Raw() string {
	return r.doc.Raw
}

func resultValues(res gjson.Result) []string {
	switch {
	case res.Type == gjson.Null:
		return nil
	case res.IsArray():
		var out []string
		for _, el := range res.Array() {
			if el.Type == gjson.Null {
				continue
			}
			out = append(out, el.String())
		}
		return out
	default:
		return []string{res.String()}
	}
}

// translateJSONPath rewrites the accepted JSONPath subset into a
// gjson path.
func translateJSONPath(p string) string {
	p = strings.TrimSpace(p)
	p = strings.TrimPrefix(p, "$")
	p = strings.TrimPrefix(p, "@")
	p = strings.TrimPrefix(p, ".")
	if p == "" {
		return ""
	}

	var b strings.Builder
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c != '[' {
			b.WriteByte(c)
			continue
		}
		end := strings.IndexByte(p[i:], ']')
		if end < 0 {
			b.WriteByte(c)
			continue
		}
		inner := p[i+1 : i+end]
		switch {
		case inner == "*":
			b.WriteString(".#")
		case len(inner) >= 2 && (inner[0] == '\'' || inner[0] == '"'):
			b.WriteByte('.')
			b.WriteString(strings.Trim(inner, `'"`))
		default:
			b.WriteByte('.')
			b.WriteString(inner)
		}
		i += end
	}
	return strings.TrimPrefix(b.String(), ".")
}
