// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package database provides persistent storage for the ledgers: a SQLite
// metadata store holding the current ledger state and a Badger blob store
// holding the append-only event log. Both run in-memory when no data
// directory is configured.
package database

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blinklabs-io/souk/database/models"
	badger "github.com/dgraph-io/badger/v4"
	badgeroptions "github.com/dgraph-io/badger/v4/options"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

type Config struct {
	Logger       *slog.Logger
	PromRegistry prometheus.Registerer
	DataDir      string
}

type Database struct {
	logger           *slog.Logger
	promRegistry     prometheus.Registerer
	blob             *badger.DB
	metadata         *gorm.DB
	dataDir          string
	gcTicker         *time.Ticker
	gcStopCh         chan struct{}
	gcWg             sync.WaitGroup
	eventLogSeq      *badger.Sequence
	eventLogSeqMutex sync.Mutex
}

// New creates a new database instance with optional persistence using the
// provided data directory
func New(config Config) (*Database, error) {
	db := &Database{
		logger:       config.Logger,
		promRegistry: config.PromRegistry,
		dataDir:      config.DataDir,
	}
	if db.logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		db.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if db.dataDir != "" {
		// Make sure that we can read data dir, and create if it doesn't exist
		if _, err := os.Stat(db.dataDir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(db.dataDir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
	}
	if err := db.openMetadata(); err != nil {
		return nil, err
	}
	if err := db.openBlob(); err != nil {
		return nil, err
	}
	if db.promRegistry != nil {
		db.registerBlobMetrics()
	}
	if err := db.checkCommitTimestamp(); err != nil {
		// Database is available for recovery, so return it with error
		return db, err
	}
	return db, nil
}

func (d *Database) openMetadata() error {
	gormConfig := &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	}
	var metadataDb *gorm.DB
	var err error
	if d.dataDir == "" {
		// Use in-memory database when no data directory is specified, useful for testing
		// cache=shared allows multiple connections to share the same in-memory database
		metadataDb, err = gorm.Open(
			sqlite.Open("file::memory:?cache=shared"),
			gormConfig,
		)
	} else {
		metadataDbPath := filepath.Join(d.dataDir, "metadata.sqlite")
		// WAL journal mode, disable sync on write
		metadataConnOpts := "_pragma=journal_mode(WAL)&_pragma=sync(OFF)"
		metadataDb, err = gorm.Open(
			sqlite.Open(
				fmt.Sprintf("file:%s?%s", metadataDbPath, metadataConnOpts),
			),
			gormConfig,
		)
	}
	if err != nil {
		return err
	}
	// Configure tracing for GORM
	if err := metadataDb.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		return err
	}
	// Create table schemas
	if err := metadataDb.AutoMigrate(&CommitTimestamp{}); err != nil {
		return err
	}
	for _, model := range models.MigrateModels {
		d.logger.Debug(
			fmt.Sprintf("creating table: %#v", model),
			"component", "database",
		)
		if err := metadataDb.AutoMigrate(model); err != nil {
			return err
		}
	}
	d.metadata = metadataDb
	return nil
}

func (d *Database) openBlob() error {
	var badgerOpts badger.Options
	if d.dataDir == "" {
		badgerOpts = badger.DefaultOptions("").
			WithLogger(NewBadgerLogger(d.logger)).
			// The default INFO logging is a bit verbose
			WithLoggingLevel(badger.WARNING).
			WithInMemory(true)
	} else {
		blobDir := filepath.Join(d.dataDir, "blob")
		badgerOpts = badger.DefaultOptions(blobDir).
			WithLogger(NewBadgerLogger(d.logger)).
			WithLoggingLevel(badger.WARNING).
			WithCompression(badgeroptions.Snappy)
	}
	blobDb, err := badger.Open(badgerOpts)
	if err != nil {
		return err
	}
	d.blob = blobDb
	// Badger needs periodic value log GC when backed by disk
	if d.dataDir != "" {
		d.gcTicker = time.NewTicker(5 * time.Minute)
		d.gcStopCh = make(chan struct{})
		d.gcWg.Add(1)
		go d.blobGc(d.gcTicker, d.gcStopCh)
	}
	return nil
}

func (d *Database) blobGc(t *time.Ticker, stop <-chan struct{}) {
	defer d.gcWg.Done()
	for {
		select {
		case <-t.C:
		again:
			err := d.blob.RunValueLogGC(0.5)
			if err != nil {
				// Log any actual errors
				if !errors.Is(err, badger.ErrNoRewrite) {
					d.logger.Warn(
						fmt.Sprintf("blob DB: GC failure: %s", err),
						"component", "database",
					)
				}
			} else {
				// Run it again if it just ran successfully
				goto again
			}
		case <-stop:
			return
		}
	}
}

// Blob returns the underlying blob store handle
func (d *Database) Blob() *badger.DB {
	return d.blob
}

// Metadata returns the underlying metadata store handle
func (d *Database) Metadata() *gorm.DB {
	return d.metadata
}

// DataDir returns the path to the data directory used for storage
func (d *Database) DataDir() string {
	return d.dataDir
}

// Logger returns the logger instance
func (d *Database) Logger() *slog.Logger {
	return d.logger
}

// Close cleans up the database connections
func (d *Database) Close() error {
	var err error
	if d.gcTicker != nil {
		d.gcTicker.Stop()
		if d.gcStopCh != nil {
			close(d.gcStopCh)
			d.gcStopCh = nil
		}
		// Wait for GC goroutine to finish
		d.gcWg.Wait()
		d.gcTicker = nil
	}
	d.eventLogSeqMutex.Lock()
	if d.eventLogSeq != nil {
		err = errors.Join(err, d.eventLogSeq.Release())
		d.eventLogSeq = nil
	}
	d.eventLogSeqMutex.Unlock()
	if d.metadata != nil {
		if sqlDb, sqlErr := d.metadata.DB(); sqlErr != nil {
			err = errors.Join(err, sqlErr)
		} else {
			err = errors.Join(err, sqlDb.Close())
		}
	}
	if d.blob != nil {
		err = errors.Join(err, d.blob.Close())
	}
	return err
}
