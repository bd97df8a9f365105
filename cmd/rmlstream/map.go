package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/c360studio/rmlstream/config"
	"github.com/c360studio/rmlstream/engine"
	"github.com/c360studio/rmlstream/join"
	"github.com/c360studio/rmlstream/mapping"
	"github.com/c360studio/rmlstream/model"
	"github.com/c360studio/rmlstream/output"
	"github.com/c360studio/rmlstream/sourceresolver"
	"github.com/knakk/rdf"
	"github.com/spf13/cobra"
	"golang.org/x/text/unicode/norm"
)

func mapCmd() *cobra.Command {
	var (
		mappingGlobs []string
		sourceDir    string
		outPath      string
		outFormat    string
		natsURL      string
		natsSubject  string
		continueOn   bool
		strict       bool
		timeout      time.Duration
		spillDir     string
	)

	cmd := &cobra.Command{
		Use:   "map",
		Short: "Execute mappings and stream RDF statements",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewLoader(slog.Default()).Load()
			if err != nil {
				return err
			}
			applyFlags(cfg, cmd, mappingGlobs, sourceDir, outPath, outFormat, natsURL, natsSubject, continueOn, strict, timeout, spillDir)

			if len(cfg.Mapping.Files) == 0 {
				return fmt.Errorf("no mapping files given; use --mapping")
			}

			triplesMaps, err := loadMappings(cfg.Mapping.Files)
			if err != nil {
				return err
			}
			slog.Info("Loaded mappings", slog.Int("triples_maps", len(triplesMaps)))

			opts, err := engineOptions(cfg)
			if err != nil {
				return err
			}
			mapper, err := engine.New(triplesMaps, opts)
			if err != nil {
				return err
			}

			sinks, cleanup, err := buildSinks(cfg)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			statements, errs := mapper.Map(ctx)
			count := 0
			for st := range statements {
				for _, sink := range sinks {
					if err := sink.Write(st); err != nil {
						stop()
						return err
					}
				}
				count++
			}

			var failed error
			for err := range errs {
				slog.Error("Pipeline failed", slog.String("error", err.Error()))
				if failed == nil {
					failed = err
				}
			}
			if failed != nil {
				return failed
			}

			slog.Info("Mapping complete", slog.Int("statements", count))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&mappingGlobs, "mapping", "m", nil, "mapping file glob (repeatable)")
	cmd.Flags().StringVarP(&sourceDir, "source-dir", "s", "", "base directory for source references")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&outFormat, "format", "", "output format: ntriples or turtle")
	cmd.Flags().StringVar(&natsURL, "nats-url", "", "publish statements to this NATS server")
	cmd.Flags().StringVar(&natsSubject, "nats-subject", "", "NATS subject for published statements")
	cmd.Flags().BoolVar(&continueOn, "continue-on-error", false, "keep running other pipelines after one fails")
	cmd.Flags().BoolVar(&strict, "strict", false, "treat per-record errors as fatal")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "overall mapping timeout for collected runs")
	cmd.Flags().StringVar(&spillDir, "join-spill-dir", "", "spill child-side join rows to SQLite in this directory")

	return cmd
}

func applyFlags(cfg *config.Config, cmd *cobra.Command, globs []string, sourceDir, outPath, outFormat, natsURL, natsSubject string, continueOn, strict bool, timeout time.Duration, spillDir string) {
	if len(globs) > 0 {
		cfg.Mapping.Files = globs
	}
	if sourceDir != "" {
		cfg.Mapping.SourceDir = sourceDir
	}
	if outPath != "" {
		cfg.Output.Path = outPath
	}
	if outFormat != "" {
		cfg.Output.Format = outFormat
	}
	if natsURL != "" {
		cfg.Output.NATS.URL = natsURL
	}
	if natsSubject != "" {
		cfg.Output.NATS.Subject = natsSubject
	}
	if continueOn {
		cfg.Engine.ContinueOnError = true
	}
	if strict {
		cfg.Engine.Strict = true
	}
	if timeout != 0 {
		cfg.Engine.Timeout = timeout
	}
	if spillDir != "" {
		cfg.Engine.JoinSpillDir = spillDir
	}
}

// loadMappings expands the globs and parses every matched mapping
// document, picking the RDF syntax from the file extension.
func loadMappings(globs []string) ([]*model.TriplesMap, error) {
	var paths []string
	for _, pattern := range globs {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad mapping glob %q: %w", pattern, err)
		}
		paths = append(paths, matches...)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no mapping files matched %v", globs)
	}

	var out []*model.TriplesMap
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		maps, err := mapping.LoadFromReader(f, formatForPath(path))
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("load mapping %s: %w", path, err)
		}
		out = append(out, maps...)
	}
	return out, nil
}

func formatForPath(path string) rdf.Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".nt":
		return rdf.NTriples
	case ".rdf", ".xml":
		return rdf.RDFXML
	default:
		return rdf.Turtle
	}
}

func engineOptions(cfg *config.Config) (engine.Options, error) {
	opts := engine.Options{
		LowerCasePercentEncoding: cfg.Engine.LowercasePercentEncoding,
		ContinueOnPipelineError:  cfg.Engine.ContinueOnError,
		Strict:                   cfg.Engine.Strict,
		MapToGraphTimeout:        cfg.Engine.Timeout,
		Logger:                   slog.Default(),
		SourceResolvers: []sourceresolver.Resolver{
			sourceresolver.NewFilePath(cfg.Mapping.SourceDir),
		},
	}

	switch cfg.Engine.Normalization {
	case "NFC":
		opts.NormalizationForm = norm.NFC
	case "NFD":
		opts.NormalizationForm = norm.NFD
	case "NFKC":
		opts.NormalizationForm = norm.NFKC
	case "NFKD":
		opts.NormalizationForm = norm.NFKD
	default:
		return opts, fmt.Errorf("unknown normalization form %q", cfg.Engine.Normalization)
	}

	if cfg.Engine.JoinSpillDir != "" {
		opts.ChildSideJoinStores = join.NewSQLiteProvider(cfg.Engine.JoinSpillDir)
	}
	return opts, nil
}

func buildSinks(cfg *config.Config) ([]output.Sink, func(), error) {
	var (
		sinks   []output.Sink
		closers []func()
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var w io.Writer = os.Stdout
	if cfg.Output.Path != "" {
		f, err := os.Create(cfg.Output.Path)
		if err != nil {
			return nil, nil, err
		}
		closers = append(closers, func() { f.Close() })
		w = f
	}

	format := rdf.NTriples
	if cfg.Output.Format == "turtle" {
		format = rdf.Turtle
	}
	enc := output.NewEncoderSink(w, format, slog.Default())
	sinks = append(sinks, enc)
	closers = append(closers, func() {
		if err := enc.Close(); err != nil {
			slog.Warn("Failed to close encoder", slog.String("error", err.Error()))
		}
	})

	if cfg.Output.NATS.URL != "" {
		ns, err := output.NewNATSSink(cfg.Output.NATS.URL, cfg.Output.NATS.Subject)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		sinks = append(sinks, ns)
		closers = append(closers, func() {
			if err := ns.Close(); err != nil {
				slog.Warn("Failed to close NATS sink", slog.String("error", err.Error()))
			}
		})
	}

	return sinks, cleanup, nil
}
