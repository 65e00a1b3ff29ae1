// Package pipeline holds the state shared by every command: loaded settings,
// the central logger, run metrics and the optional result sinks.
package pipeline

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/marrs-acoustics/reefscape/internal/conf"
	"github.com/marrs-acoustics/reefscape/internal/datastore"
	"github.com/marrs-acoustics/reefscape/internal/ecofunctions"
	"github.com/marrs-acoustics/reefscape/internal/errors"
	"github.com/marrs-acoustics/reefscape/internal/export"
	"github.com/marrs-acoustics/reefscape/internal/logger"
	"github.com/marrs-acoustics/reefscape/internal/observability"
	"github.com/marrs-acoustics/reefscape/internal/temporal"
)

// Runtime carries the command line options and, once initialized, the
// loaded settings.
type Runtime struct {
	Options  conf.LoadOptions
	Settings *conf.Settings

	central *logger.CentralLogger
	metrics *observability.Metrics
	store   datastore.Interface
	run     *datastore.Run
	sheets  []export.Sheet
}

// NewRuntime returns an uninitialized runtime
func NewRuntime() *Runtime {
	return &Runtime{}
}

// Init loads settings and installs the central logger
func (rt *Runtime) Init() error {
	settings, err := conf.Load(rt.Options)
	if err != nil {
		return err
	}
	rt.Settings = settings

	central, err := logger.NewCentralLogger(&settings.Logging)
	if err != nil {
		return errors.New(err).
			Component("pipeline").
			Category(errors.CategoryConfiguration).
			Context("operation", "logger_init").
			Build()
	}
	logger.SetGlobal(central)
	rt.central = central
	return nil
}

// Close flushes and closes the central logger
func (rt *Runtime) Close() error {
	if rt.central == nil {
		return nil
	}
	return rt.central.Close()
}

// Execute runs fn as the named command. It logs the start and finish,
// installs metrics and, when enabled, records the run in the results
// database and writes the collected tables to the workbook.
func (rt *Runtime) Execute(ctx context.Context, command string, fn func(ctx context.Context) error) (err error) {
	if rt.Settings == nil {
		return errors.Newf("runtime is not initialized").
			Component("pipeline").
			Category(errors.CategoryConfiguration).
			Build()
	}

	rt.sheets = nil
	runID := uuid.NewString()
	ctx = logger.WithTraceID(ctx, runID)
	log := GetLogger().WithContext(ctx).With(logger.String("command", command))
	start := time.Now()
	log.Info("Starting command",
		logger.Any("countries", rt.Settings.Countries),
		logger.String("base_dir", rt.Settings.BaseDir))

	if rt.metrics, err = observability.NewMetrics(); err != nil {
		return errors.New(err).
			Component("pipeline").
			Category(errors.CategoryConfiguration).
			Context("operation", "metrics_init").
			Build()
	}
	rt.metrics.Install()
	defer errors.ClearErrorHooks()

	if rt.Settings.Output.SQLite.Enabled {
		if err := rt.openStore(ctx, command); err != nil {
			return err
		}
		defer rt.closeStore(ctx, &err)
	}

	err = fn(ctx)

	if err == nil && rt.Settings.Output.XLSX.Enabled && len(rt.sheets) > 0 {
		err = export.Write(rt.Settings.OutputPath(rt.Settings.Output.XLSX.Path), rt.sheets)
	}

	if werr := rt.metrics.WriteTextfile(rt.Settings.OutputPath(rt.Settings.Output.Metrics.Path)); werr != nil {
		log.Warn("Failed to write metrics textfile", logger.Error(werr))
	}

	if err != nil {
		log.Error("Command failed",
			logger.Error(err),
			logger.Duration("elapsed", time.Since(start)))
		return err
	}
	log.Info("Command finished", logger.Duration("elapsed", time.Since(start)))
	return nil
}

func (rt *Runtime) openStore(ctx context.Context, command string) error {
	store := datastore.New(rt.Settings)
	if err := store.Open(); err != nil {
		return err
	}
	run, err := store.BeginRun(ctx, command)
	if err != nil {
		_ = store.Close()
		return err
	}
	rt.store, rt.run = store, run
	return nil
}

// closeStore records the outcome in *errp and closes the database
func (rt *Runtime) closeStore(ctx context.Context, errp *error) {
	if rt.store == nil {
		return
	}
	if ferr := rt.store.FinishRun(context.WithoutCancel(ctx), rt.run, *errp); ferr != nil {
		GetLogger().Warn("Failed to finish run record", logger.Error(ferr))
	}
	if cerr := rt.store.Close(); cerr != nil {
		GetLogger().Warn("Failed to close results database", logger.Error(cerr))
	}
	rt.store, rt.run = nil, nil
}

// Metrics returns the collectors of the current command, nil outside Execute
func (rt *Runtime) Metrics() *observability.Metrics {
	return rt.metrics
}

// PublishTable hands a written table to the enabled sinks. obs are stored in
// the results database, the table goes to the workbook.
func (rt *Runtime) PublishTable(ctx context.Context, name string, header []string, rows [][]string, obs []ecofunctions.Observation) error {
	if rt.Settings.Output.XLSX.Enabled {
		rt.sheets = append(rt.sheets, export.Sheet{Name: name, Header: header, Rows: rows})
	}
	if rt.store != nil {
		return rt.store.SaveObservations(ctx, rt.run, name, obs)
	}
	return nil
}

// PublishOverlap hands overlap comparisons to the enabled sinks
func (rt *Runtime) PublishOverlap(ctx context.Context, results []temporal.OverlapResult) error {
	if rt.Settings.Output.XLSX.Enabled {
		rows := make([][]string, len(results))
		for i := range results {
			rows[i] = results[i].Record()
		}
		rt.sheets = append(rt.sheets, export.Sheet{Name: "overlap_results", Header: temporal.OverlapHeader, Rows: rows})
	}
	if rt.store != nil {
		return rt.store.SaveOverlapResults(ctx, rt.run, results)
	}
	return nil
}

// WriteRows writes rows as file in the results directory and publishes them
func WriteRows[T ecofunctions.Recorder](ctx context.Context, rt *Runtime, file string, header []string, rows []T, obs []ecofunctions.Observation) error {
	path := rt.Settings.ResultPath(file)
	if err := ecofunctions.WriteTable(path, header, rows); err != nil {
		return err
	}
	GetLogger().Info("Table written",
		logger.String("path", path),
		logger.Int("rows", len(rows)))
	return rt.PublishTable(ctx, strings.TrimSuffix(filepath.Base(file), filepath.Ext(file)), header, ecofunctions.Records(rows), obs)
}
