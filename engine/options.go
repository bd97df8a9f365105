package engine

import (
	"log/slog"
	"time"

	"github.com/c360studio/rmlstream/function"
	"github.com/c360studio/rmlstream/join"
	"github.com/c360studio/rmlstream/logicalsource"
	"github.com/c360studio/rmlstream/rdfterm"
	"github.com/c360studio/rmlstream/sourceresolver"
	"github.com/c360studio/rmlstream/termgen"
	"github.com/c360studio/rmlstream/vocabulary/carml"
	"github.com/c360studio/rmlstream/vocabulary/ql"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/text/unicode/norm"
)

// DefaultMapToGraphTimeout bounds MapToGraph runs.
const DefaultMapToGraphTimeout = 30 * time.Second

// Options configure a Mapper. The zero value is completed by
// DefaultOptions-style fill-in inside New: default value factory,
// in-memory join stores, NFC normalization, upper-case percent
// encoding and the built-in decoders.
type Options struct {
	// NormalizationForm is applied to IRI template values. Default NFC.
	NormalizationForm norm.Form

	// LowerCasePercentEncoding selects lower-case hex digits in IRI
	// percent escapes, for backward compatibility with older output.
	// Default is upper case.
	LowerCasePercentEncoding bool

	// BaseIRI resolves relative generated IRIs.
	BaseIRI string

	// ValueFactory constructs RDF terms. Default rdfterm.Factory.
	ValueFactory rdfterm.ValueFactory

	// Functions is the registry backing function term maps.
	Functions *function.Registry

	// SourceResolvers resolve logical source references to byte
	// streams, tried in order.
	SourceResolvers []sourceresolver.Resolver

	// LogicalSourceResolvers supplies decoders by reference
	// formulation IRI. Defaults cover ql:CSV, ql:JSONPath, ql:XPath
	// and carml:CSS3.
	LogicalSourceResolvers map[string]logicalsource.ResolverSupplier

	// ChildSideJoinStores provides child-side join stores. Default
	// in-memory.
	ChildSideJoinStores join.ChildSideStoreProvider

	// ParentSideJoinStores provides parent-side condition stores.
	// Default in-memory.
	ParentSideJoinStores join.ParentSideStoreProvider

	// MapToGraphTimeout bounds MapToGraph. Default 30s.
	MapToGraphTimeout time.Duration

	// ContinueOnPipelineError keeps sibling pipelines running after
	// one pipeline fails. Default is to cancel them.
	ContinueOnPipelineError bool

	// Strict promotes per-record term generation errors from logged
	// warnings to pipeline failures.
	Strict bool

	// Logger receives structured warnings and progress. Default
	// slog.Default().
	Logger *slog.Logger

	// MetricsRegisterer registers the engine's Prometheus collectors.
	// Nil leaves metrics unregistered.
	MetricsRegisterer prometheus.Registerer
}

// withDefaults returns a copy of o with every unset field filled in.
// norm.Form's zero value is already NFC, the documented default.
func (o Options) withDefaults() Options {
	if o.BaseIRI == "" {
		o.BaseIRI = termgen.DefaultBaseIRI
	}
	if o.ValueFactory == nil {
		o.ValueFactory = rdfterm.NewFactory()
	}
	if o.Functions == nil {
		o.Functions = function.NewRegistry()
	}
	if o.LogicalSourceResolvers == nil {
		o.LogicalSourceResolvers = DefaultLogicalSourceResolvers()
	}
	if o.ChildSideJoinStores == nil {
		o.ChildSideJoinStores = join.NewMemoryProvider()
	}
	if o.ParentSideJoinStores == nil {
		o.ParentSideJoinStores = join.NewMemoryProvider()
	}
	if o.MapToGraphTimeout == 0 {
		o.MapToGraphTimeout = DefaultMapToGraphTimeout
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

func (o Options) termgenOptions() termgen.Options {
	return termgen.Options{
		NormalizationForm:        o.NormalizationForm,
		UpperCasePercentEncoding: !o.LowerCasePercentEncoding,
		BaseIRI:                  o.BaseIRI,
	}
}

// DefaultLogicalSourceResolvers returns the built-in decoder
// suppliers keyed by reference formulation IRI.
func DefaultLogicalSourceResolvers() map[string]logicalsource.ResolverSupplier {
	return map[string]logicalsource.ResolverSupplier{
		ql.CSV:      func() logicalsource.Resolver { return logicalsource.NewCSVResolver() },
		ql.JSONPath: func() logicalsource.Resolver { return logicalsource.NewJSONResolver() },
		ql.XPath:    func() logicalsource.Resolver { return logicalsource.NewXMLResolver() },
		carml.CSS3:  func() logicalsource.Resolver { return logicalsource.NewHTMLResolver() },
	}
}
