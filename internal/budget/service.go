package budget

import (
	"context"
	"fmt"
	"runtime"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/budget-aggregator/budget-aggregator/internal/logger"
	"github.com/budget-aggregator/budget-aggregator/internal/model"
	"github.com/budget-aggregator/budget-aggregator/internal/registry"
	"github.com/budget-aggregator/budget-aggregator/internal/sheets"
)

// ServiceConfig controls how sources are read.
type ServiceConfig struct {
	Columns Columns
	Sheets  sheets.Options
	// Workers limits concurrently parsed files. Zero means GOMAXPROCS.
	Workers int
	// KeepGoing logs and skips files that fail to parse.
	KeepGoing bool
}

// Service aggregates budgets from many source files.
type Service struct {
	registry *registry.Registry
	readers  *sheets.Registry
	cfg      ServiceConfig
	log      zerolog.Logger
}

// Result is the outcome of one aggregation run.
type Result struct {
	RunID   string
	Budgets []model.Budget
	Files   int
	Skipped []string
}

// NewService creates a Service.
func NewService(reg *registry.Registry, readers *sheets.Registry, cfg ServiceConfig, log zerolog.Logger) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &Service{registry: reg, readers: readers, cfg: cfg, log: log}
}

// Registry returns the registry budgets are interned in.
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// ReadFile opens src and merges its sheets.
func (s *Service) ReadFile(src sheets.Source) ([]*model.Builder, error) {
	return s.readFile(src, s.log)
}

func (s *Service) readFile(src sheets.Source, log zerolog.Logger) ([]*model.Builder, error) {
	file, err := s.readers.Open(src, s.cfg.Sheets)
	if err != nil {
		return nil, err
	}

	for _, sheet := range file.Sheets {
		if sheet.Column(s.cfg.Columns.Account) >= 0 || len(sheet.Header) == 0 {
			continue
		}
		ev := log.Warn().Str("file", file.Name).Str("column", s.cfg.Columns.Account)
		if sheet.Name != "" {
			ev = ev.Str("sheet", sheet.Name)
		}
		if suggestion := sheets.SuggestColumn(sheet.Header, s.cfg.Columns.Account); suggestion != "" {
			ev = ev.Str("closest", suggestion)
		}
		ev.Msg("sheet has no account column, skipping")
	}

	builders, err := Merge(file, s.registry, s.cfg.Columns)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("file", src.Name).
		Str("format", src.Format).
		Int64("size", src.Size).
		Int("sheets", len(file.Sheets)).
		Int("budgets", len(builders)).
		Msg("parsed file")
	return builders, nil
}

// loggerFor returns the logger attached to ctx, or the service logger.
func (s *Service) loggerFor(ctx context.Context) zerolog.Logger {
	if log, ok := logger.Lookup(ctx); ok {
		return log
	}
	return s.log
}

// Aggregate parses sources in parallel, folds them in source order and
// applies opts. A logger attached to ctx takes precedence over the service logger.
func (s *Service) Aggregate(ctx context.Context, sources []sheets.Source, opts Options) (Result, error) {
	res := Result{RunID: uuid.NewString()}
	log := s.loggerFor(ctx).With().Str("run_id", res.RunID).Logger()
	log.Info().Int("sources", len(sources)).Msg("aggregating budgets")

	// Each worker writes only its own index.
	parsed := make([][]*model.Builder, len(sources))
	skipped := make([]bool, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			builders, err := s.readFile(src, log)
			if err != nil {
				if !s.cfg.KeepGoing {
					return fmt.Errorf("reading %s: %w", src.Path, err)
				}
				log.Error().Err(err).Str("file", src.Path).Msg("skipping file")
				skipped[i] = true
				return nil
			}
			parsed[i] = builders
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return res, err
	}

	var c Collection
	for i, builders := range parsed {
		if skipped[i] {
			res.Skipped = append(res.Skipped, sources[i].Path)
			continue
		}
		res.Files++
		for _, b := range builders {
			c.Add(b)
		}
	}
	log.Debug().Int("budgets", c.Len()).Msg("merged sources")

	budgets, err := Apply(c.Builders(), s.registry, opts)
	if err != nil {
		return res, err
	}
	res.Budgets = budgets
	log.Info().
		Int("files", res.Files).
		Int("skipped", len(res.Skipped)).
		Int("budgets", len(budgets)).
		Msg("aggregation finished")
	return res, nil
}
