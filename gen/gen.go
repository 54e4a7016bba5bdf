package gen

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"text/template"

	"github.com/stephenafamo/relgen/gen/drivers"
	"github.com/stephenafamo/relgen/gen/naming"
	"go.uber.org/zap"
)

// ErrNoTables is returned when the driver finds nothing to generate
var ErrNoTables = errors.New("no tables found in database")

// State holds the global data needed by most pieces to run
type State struct {
	Config              Config
	Outputs             []*Output
	Logger              *zap.Logger
	CustomTemplateFuncs template.FuncMap
}

// DefaultOutputs returns the model and trait outputs for the config,
// including any extra template directories
func DefaultOutputs(c Config) []*Output {
	c = c.withDefaults()

	models := &Output{
		Key:       ModelsOutput,
		OutFolder: c.ModelPath,
		Templates: []fs.FS{ModelTemplates},
	}
	traits := &Output{
		Key:       TraitsOutput,
		OutFolder: c.TraitPath,
		Templates: []fs.FS{TraitTemplates},
	}

	for _, o := range []*Output{models, traits} {
		for _, dir := range c.Templates[o.Key] {
			o.Templates = append(o.Templates, os.DirFS(dir))
		}
	}

	return []*Output{models, traits}
}

// Run reads the schema, resolves the relationships and writes
// the outputs for every table
func Run(ctx context.Context, s *State, driver drivers.Interface) error {
	if driver.Dialect() == "" {
		return fmt.Errorf("no dialect specified")
	}

	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// every accessor depends on the strategy, so fail before touching the database
	strategy, err := naming.Get(s.Config.NamingStrategy)
	if err != nil {
		return err
	}

	s.Config = s.Config.withDefaults()
	if s.Config.Connection == "" {
		s.Config.Connection = driver.Dialect()
	}
	if added := s.Config.Inflections.Apply(); added > 0 {
		logger.Debug("added inflection rules", zap.Int("rules", added))
	}

	dbInfo, err := driver.Assemble(ctx)
	if err != nil {
		return fmt.Errorf("unable to fetch table data: %w", err)
	}

	if len(dbInfo.Tables) == 0 {
		return ErrNoTables
	}

	facts := drivers.NewFacts(dbInfo.Tables)
	registry, err := Builder{Strategy: strategy, Logger: logger}.Build(facts)
	if err != nil {
		return fmt.Errorf("building relationships: %w", err)
	}

	logger.Info("resolved relationships",
		zap.String("dialect", driver.Dialect()),
		zap.String("strategy", strategy.Name()),
		zap.Int("tables", len(facts.Tables())),
	)

	return generate(ctx, s, logger, strategy, dbInfo.Driver, facts, registry)
}

func generate(ctx context.Context, s *State, logger *zap.Logger, strategy naming.Strategy, driver string, facts *drivers.Facts, registry *Registry) error {
	knownKeys := make(map[string]struct{})

	for _, o := range s.Outputs {
		if _, ok := knownKeys[o.Key]; ok {
			return fmt.Errorf("duplicate output key: %q", o.Key)
		}
		knownKeys[o.Key] = struct{}{}

		if err := o.initTemplates(s.CustomTemplateFuncs); err != nil {
			return fmt.Errorf("unable to initialize templates: %w", err)
		}

		if err := o.initOutFolder(s.Config.Wipe); err != nil {
			return err
		}
	}

	var errs []error
	for _, key := range facts.Tables() {
		if err := ctx.Err(); err != nil {
			return err
		}

		table, _ := facts.Table(key)
		rels, err := registry.Get(key)
		if err != nil {
			return err
		}

		data := newTemplateData(s.Config, strategy, driver, table, rels)
		for _, o := range s.Outputs {
			if err := o.generate(data); err != nil {
				logger.Error("failed to generate table",
					zap.String("table", key),
					zap.String("output", o.Key),
					zap.Error(err),
				)
				errs = append(errs, fmt.Errorf("%s (%s): %w", key, o.Key, err))
			}
		}

		logger.Debug("generated table", zap.String("table", key), zap.String("model", data.Model))
	}

	return errors.Join(errs...)
}
