package logicalsource

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/c360studio/rmlstream/model"
	"github.com/google/uuid"
	"golang.org/x/net/html"
)

// HTMLResolver decodes carml:CSS3 sources. The iterator is a CSS
// selector whose matches become records; expressions are CSS
// selectors evaluated within the record element, with an optional
// trailing `/@attr` selecting an attribute instead of the element
// text. The bare expressions `.` and `@attr` address the record
// element itself.
type HTMLResolver struct{}

// NewHTMLResolver returns an HTML resolver.
func NewHTMLResolver() *HTMLResolver {
	return &HTMLResolver{}
}

// Records implements Resolver.
func (h *HTMLResolver) Records(ctx context.Context, r io.Reader, source *model.LogicalSource) (<-chan Record, <-chan error) {
	out := make(chan Record, BufferSize)
	errc := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errc)

		root, err := html.Parse(r)
		if err != nil {
			errc <- fmt.Errorf("parse html source: %w", err)
			return
		}
		doc := goquery.NewDocumentFromNode(root)

		iterator := "html"
		if source != nil && source.Iterator != "" {
			iterator = source.Iterator
		}

		scope := uuid.NewString()[:8]
		n := 0
		doc.Find(iterator).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			rec := &htmlRecord{
				id:  fmt.Sprintf("%s-%d", scope, n),
				sel: sel,
			}
			n++
			return emit(ctx, out, rec)
		})
	}()

	return out, errc
}

type htmlRecord struct {
	id  string
	sel *goquery.Selection
}

func (r *htmlRecord) ID() string {
	return r.id
}

func (r *htmlRecord) Get(expression string) ([]string, error) {
	selector, attr := splitAttr(strings.TrimSpace(expression))

	target := r.sel
	if selector != "" && selector != "." {
		target = r.sel.Find(selector)
	}

	var out []string
	target.Each(func(_ int, s *goquery.Selection) {
		if attr != "" {
			if v, ok := s.Attr(attr); ok {
				out = append(out, v)
			}
			return
		}
		if text := strings.TrimSpace(s.Text()); text != "" {
			out = append(out, text)
		}
	})
	return out, nil
}

// Raw returns the record's selection, for embedding callers.
func (r *htmlRecord) Raw() *goquery.Selection {
	return r.sel
}

func splitAttr(expr string) (selector, attr string) {
	if at := strings.LastIndex(expr, "@"); at >= 0 {
		attr = expr[at+1:]
		selector = strings.TrimSuffix(expr[:at], "/")
		selector = strings.TrimSpace(selector)
		return selector, attr
	}
	return expr, ""
}
