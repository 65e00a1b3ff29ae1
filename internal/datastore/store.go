// Package datastore keeps pipeline results in an SQLite database so runs can
// be compared and queried after the CSV files have been replaced.
package datastore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/marrs-acoustics/reefscape/internal/conf"
	"github.com/marrs-acoustics/reefscape/internal/ecofunctions"
	"github.com/marrs-acoustics/reefscape/internal/errors"
	"github.com/marrs-acoustics/reefscape/internal/logger"
	"github.com/marrs-acoustics/reefscape/internal/temporal"
)

// Run statuses
const (
	StatusRunning = "running"
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

const (
	batchSize      = 500
	componentStore = "datastore"
)

// Interface is the results store used by the commands
type Interface interface {
	Open() error
	Close() error
	BeginRun(ctx context.Context, command string) (*Run, error)
	FinishRun(ctx context.Context, run *Run, runErr error) error
	SaveObservations(ctx context.Context, run *Run, source string, obs []ecofunctions.Observation) error
	SaveOverlapResults(ctx context.Context, run *Run, results []temporal.OverlapResult) error
}

// SQLiteStore implements Interface for SQLite
type SQLiteStore struct {
	DB       *gorm.DB
	Settings *conf.Settings
}

// New returns an unopened SQLite store for settings
func New(settings *conf.Settings) *SQLiteStore {
	return &SQLiteStore{Settings: settings}
}

// Path returns the database file path
func (store *SQLiteStore) Path() string {
	return store.Settings.OutputPath(store.Settings.Output.SQLite.Path)
}

// Open connects to the database file and migrates the schema
func (store *SQLiteStore) Open() error {
	path := store.Path()
	if path == "" {
		return errors.Newf("sqlite output path is not set").
			Component(componentStore).
			Category(errors.CategoryConfiguration).
			Build()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.New(err).
			Component(componentStore).
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}

	level := gormlogger.Warn
	if store.Settings.Debug {
		level = gormlogger.Info
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: NewGormLogger(DefaultSlowQueryThreshold, level)})
	if err != nil {
		return errors.New(err).
			Component(componentStore).
			Category(errors.CategoryDatabase).
			Context("operation", "open").
			FileContext(path).
			Build()
	}
	store.DB = db

	if err := db.AutoMigrate(&Run{}, &Observation{}, &OverlapResult{}); err != nil {
		return errors.New(err).
			Component(componentStore).
			Category(errors.CategoryDatabase).
			Context("operation", "auto_migrate").
			Build()
	}

	GetLogger().Info("Results database opened", logger.String("path", path))
	return nil
}

// Close closes the database connection
func (store *SQLiteStore) Close() error {
	if store.DB == nil {
		return nil
	}
	sqlDB, err := store.DB.DB()
	if err != nil {
		return errors.New(err).
			Component(componentStore).
			Category(errors.CategoryDatabase).
			Build()
	}
	store.DB = nil
	return sqlDB.Close()
}

func (store *SQLiteStore) checkOpen() error {
	if store.DB == nil {
		return errors.Newf("database connection is not initialized").
			Component(componentStore).
			Category(errors.CategoryDatabase).
			Build()
	}
	return nil
}

// BeginRun records the start of a command
func (store *SQLiteStore) BeginRun(ctx context.Context, command string) (*Run, error) {
	if err := store.checkOpen(); err != nil {
		return nil, err
	}

	digest, err := SettingsDigest(store.Settings)
	if err != nil {
		return nil, err
	}

	run := &Run{
		ID:             uuid.NewString(),
		Command:        command,
		StartedAt:      time.Now(),
		Status:         StatusRunning,
		SettingsDigest: digest,
	}
	if err := store.DB.WithContext(ctx).Create(run).Error; err != nil {
		return nil, dbError(err, "create_run")
	}
	return run, nil
}

// FinishRun stamps the run with its finish time and status
func (store *SQLiteStore) FinishRun(ctx context.Context, run *Run, runErr error) error {
	if err := store.checkOpen(); err != nil {
		return err
	}

	now := time.Now()
	run.FinishedAt = &now
	run.Status = StatusSuccess
	if runErr != nil {
		run.Status = StatusFailed
	}

	err := store.DB.WithContext(ctx).Model(&Run{}).Where("id = ?", run.ID).
		Updates(map[string]any{"finished_at": now, "status": run.Status}).Error
	if err != nil {
		return dbError(err, "finish_run")
	}
	return nil
}

// SaveObservations stores the rows of one result table
func (store *SQLiteStore) SaveObservations(ctx context.Context, run *Run, source string, obs []ecofunctions.Observation) error {
	if err := store.checkOpen(); err != nil {
		return err
	}
	if len(obs) == 0 {
		return nil
	}

	rows := make([]Observation, len(obs))
	for i := range obs {
		rows[i] = NewObservation(run.ID, source, obs[i])
	}
	if err := store.DB.WithContext(ctx).CreateInBatches(rows, batchSize).Error; err != nil {
		return dbError(err, "save_observations")
	}

	GetLogger().Debug("Saved observations",
		logger.String("run_id", run.ID),
		logger.String("table", source),
		logger.Int("rows", len(rows)))
	return nil
}

// SaveOverlapResults stores treatment pair comparisons
func (store *SQLiteStore) SaveOverlapResults(ctx context.Context, run *Run, results []temporal.OverlapResult) error {
	if err := store.checkOpen(); err != nil {
		return err
	}
	if len(results) == 0 {
		return nil
	}

	rows := make([]OverlapResult, len(results))
	for i := range results {
		rows[i] = NewOverlapResult(run.ID, results[i])
	}
	if err := store.DB.WithContext(ctx).CreateInBatches(rows, batchSize).Error; err != nil {
		return dbError(err, "save_overlap_results")
	}

	GetLogger().Debug("Saved overlap results",
		logger.String("run_id", run.ID),
		logger.Int("rows", len(rows)))
	return nil
}

// LatestRun returns the most recently started run of command
func (store *SQLiteStore) LatestRun(ctx context.Context, command string) (*Run, error) {
	if err := store.checkOpen(); err != nil {
		return nil, err
	}

	var run Run
	err := store.DB.WithContext(ctx).Where("command = ?", command).Order("started_at DESC").First(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf("no run recorded for command %q", command).
				Component(componentStore).
				Category(errors.CategoryNotFound).
				Build()
		}
		return nil, dbError(err, "latest_run")
	}
	return &run, nil
}

// Observations returns the rows stored under a run for one table
func (store *SQLiteStore) Observations(ctx context.Context, runID, source string) ([]Observation, error) {
	if err := store.checkOpen(); err != nil {
		return nil, err
	}

	var rows []Observation
	err := store.DB.WithContext(ctx).Where("run_id = ? AND source = ?", runID, source).Order("id").Find(&rows).Error
	if err != nil {
		return nil, dbError(err, "query_observations")
	}
	return rows, nil
}

// OverlapResults returns the comparisons stored under a run
func (store *SQLiteStore) OverlapResults(ctx context.Context, runID string) ([]OverlapResult, error) {
	if err := store.checkOpen(); err != nil {
		return nil, err
	}

	var rows []OverlapResult
	if err := store.DB.WithContext(ctx).Where("run_id = ?", runID).Order("id").Find(&rows).Error; err != nil {
		return nil, dbError(err, "query_overlap_results")
	}
	return rows, nil
}

// SettingsDigest returns the SHA-256 of the settings rendered as YAML
func SettingsDigest(settings *conf.Settings) (string, error) {
	data, err := yaml.Marshal(settings)
	if err != nil {
		return "", errors.New(err).
			Component(componentStore).
			Category(errors.CategoryConfiguration).
			Context("operation", "settings_digest").
			Build()
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func dbError(err error, operation string) error {
	return errors.New(err).
		Component(componentStore).
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Build()
}

var _ Interface = (*SQLiteStore)(nil)
