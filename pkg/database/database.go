// Copyright 2020 The Moov Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/moov-io/screener/pkg/config"

	"github.com/go-kit/kit/log"
	kitprom "github.com/go-kit/kit/metrics/prometheus"
	"github.com/lopezator/migrator"
)

// New establishes a database connection according to the provided config.
// MySQL is used when configured, otherwise SQLite.
func New(ctx context.Context, logger log.Logger, cfg config.Database) (*sql.DB, error) {
	switch {
	case cfg.MySQL != nil:
		logger.Log("database", "looking for mysql database provider")
		return mysqlConnection(logger, cfg.MySQL).Connect(ctx)

	case cfg.SQLite != nil:
		logger.Log("database", "looking for sqlite database provider")
		return sqliteConnection(logger, getSqlitePath(cfg.SQLite.Path)).Connect(ctx)
	}
	return nil, errors.New("database: no sqlite or mysql config found")
}

func execsql(name, raw string) *migrator.MigrationNoTx {
	return &migrator.MigrationNoTx{
		Name: name,
		Func: func(db *sql.DB) error {
			_, err := db.Exec(raw)
			return err
		},
	}
}

func migrate(db *sql.DB, migrations migrator.Option) error {
	m, err := migrator.New(migrations)
	if err != nil {
		return err
	}
	return m.Migrate(db)
}

// recordStats periodically reports the connection pool of db into gauge
// until ctx is done.
func recordStats(ctx context.Context, db *sql.DB, gauge *kitprom.Gauge) {
	t := time.NewTicker(1 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			stats := db.Stats()
			gauge.With("state", "idle").Set(float64(stats.Idle))
			gauge.With("state", "inuse").Set(float64(stats.InUse))
			gauge.With("state", "open").Set(float64(stats.OpenConnections))
		}
	}
}

// UniqueViolation returns true when the provided error matches a database error
// for duplicate entries (violating a unique table constraint).
func UniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return MySQLUniqueViolation(err) || SqliteUniqueViolation(err)
}
